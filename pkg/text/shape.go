package text

import (
	"math"
	"sort"
	"strings"

	"github.com/matzehuels/boxdeck/pkg/errors"
	"github.com/matzehuels/boxdeck/pkg/geom"
	"github.com/matzehuels/boxdeck/pkg/style"
)

// Metrics are the vertical metrics of a resolved style, in pixels.
type Metrics struct {
	Ascent     float64
	Descent    float64
	LineHeight float64 // line advance, including line spacing
}

// Measurer provides font metrics for layout.
// Implementations must be safe for concurrent use.
type Measurer interface {
	Advance(s string, st style.Style) float64
	Metrics(st style.Style) Metrics
}

// Piece is a byte range of text sharing one resolved style.
type Piece struct {
	Start, End int
	Style      style.Style
}

// Run is a styled glyph run on one line.
type Run struct {
	Text       string
	Style      style.Style
	Start, End int     // byte offsets into the shaped text
	X          float64 // offset from the line origin
	Width      float64
}

// Line is one laid-out line of text.
type Line struct {
	Runs            []Run
	Start, End      int
	Width           float64
	Height          float64
	Ascent, Descent float64
}

// Block is shaped multi-line text. Its geometry is relative; [Block.LineOrigin]
// places it inside a content rectangle.
type Block struct {
	Lines  []Line
	Width  float64
	Height float64
	Align  style.HAlign
}

// Compose resolves the style of every markup segment. Style groups are
// applied over base from the outermost to the innermost one.
func Compose(mk Markup, base style.Style, styles *style.Table) ([]Piece, error) {
	return ComposeSpans(mk, nil, base, styles)
}

// ComposeSpans is like Compose for tokenized source: each span's partial is
// applied over base before the markup styles. The concatenated span text is
// expected to equal mk.Text; text past the last span uses base.
func ComposeSpans(mk Markup, spans []Span, base style.Style, styles *style.Table) ([]Piece, error) {
	bounds := map[int]struct{}{}
	for _, b := range mk.Boundaries() {
		bounds[b] = struct{}{}
	}
	spanStart := make([]int, len(spans))
	off := 0
	for i, sp := range spans {
		spanStart[i] = off
		off += len(sp.Text)
		if off < len(mk.Text) {
			bounds[off] = struct{}{}
		}
	}
	cuts := sortedKeys(bounds)

	var pieces []Piece
	for i := 0; i+1 < len(cuts); i++ {
		start, end := cuts[i], cuts[i+1]
		if start == end {
			continue
		}
		st := base
		if len(spans) > 0 {
			idx := sort.Search(len(spanStart), func(j int) bool { return spanStart[j] > start }) - 1
			if idx >= 0 && start < spanStart[idx]+len(spans[idx].Text) {
				st = spans[idx].Style.Apply(st)
			}
		}
		for _, name := range mk.StylesAt(start) {
			p, ok := styles.Get(name)
			if !ok {
				return nil, errors.New(errors.ErrCodeUnknownStyle, "unknown style %q in markup", name)
			}
			st = p.Apply(st)
		}
		pieces = append(pieces, Piece{Start: start, End: end, Style: st})
	}
	return pieces, nil
}

// Shape lays out src as lines split on '\n'. Pieces must cover src in
// order; base supplies the metrics of empty lines and the alignment.
func Shape(m Measurer, src string, pieces []Piece, base style.Style) Block {
	b := Block{Align: base.Align}
	line := Line{}
	measured := false

	extend := func(st style.Style) {
		mt := m.Metrics(st)
		line.Ascent = math.Max(line.Ascent, mt.Ascent)
		line.Descent = math.Max(line.Descent, mt.Descent)
		line.Height = math.Max(line.Height, mt.LineHeight)
		measured = true
	}
	finish := func(end int) {
		if !measured {
			extend(base)
		}
		line.End = end
		b.Lines = append(b.Lines, line)
		b.Width = math.Max(b.Width, line.Width)
		b.Height += line.Height
		line = Line{Start: end + 1}
		measured = false
	}

	for _, p := range pieces {
		seg := src[p.Start:p.End]
		off := p.Start
		for k, part := range strings.Split(seg, "\n") {
			if k > 0 {
				finish(off - 1)
			}
			extend(p.Style)
			if part != "" {
				w := m.Advance(part, p.Style)
				line.Runs = append(line.Runs, Run{
					Text:  part,
					Style: p.Style,
					Start: off,
					End:   off + len(part),
					X:     line.Width,
					Width: w,
				})
				line.Width += w
			}
			off += len(part) + 1
		}
	}
	finish(len(src))
	return b
}

func alignFactor(a style.HAlign) float64 {
	switch a {
	case style.AlignLeft:
		return 0
	case style.AlignRight:
		return 1
	default:
		return 0.5
	}
}

// Top returns the y coordinate of the first line when the block is
// vertically centered in rect.
func (b Block) Top(rect geom.Rect) float64 {
	return rect.Y + (rect.H-b.Height)/2
}

// LineOrigin returns the top-left corner of line i inside rect. Lines are
// aligned individually; the block is vertically centered.
func (b Block) LineOrigin(i int, rect geom.Rect) geom.Point {
	y := b.Top(rect)
	for j := 0; j < i; j++ {
		y += b.Lines[j].Height
	}
	x := rect.X + (rect.W-b.Lines[i].Width)*alignFactor(b.Align)
	return geom.Point{X: x, Y: y}
}

// Baseline returns the baseline offset of l from its top.
func (l Line) Baseline() float64 {
	return (l.Height-(l.Ascent+l.Descent))/2 + l.Ascent
}

// RangeRect returns the union of the line boxes covering bytes [start, end)
// when the block is placed in rect. An empty range yields a zero-width rect
// at its position.
func (b Block) RangeRect(rect geom.Rect, start, end int) geom.Rect {
	var (
		out   geom.Rect
		found bool
	)
	for i, l := range b.Lines {
		o := b.LineOrigin(i, rect)
		if start == end {
			if start < l.Start || start > l.End {
				continue
			}
			x := o.X + l.Width
			for _, r := range l.Runs {
				if r.Start >= start {
					x = o.X + r.X
					break
				}
			}
			return geom.Rect{X: x, Y: o.Y, W: 0, H: l.Height}
		}
		for _, r := range l.Runs {
			if r.Start < start || r.End > end {
				continue
			}
			rr := geom.Rect{X: o.X + r.X, Y: o.Y, W: r.Width, H: l.Height}
			if !found {
				out, found = rr, true
			} else {
				out = out.Union(rr)
			}
		}
	}
	if !found && len(b.Lines) > 0 {
		o := b.LineOrigin(0, rect)
		return geom.Rect{X: o.X, Y: o.Y, H: b.Lines[0].Height}
	}
	return out
}

// ExpandTabs replaces tab characters with width spaces.
func ExpandTabs(s string, width int) string {
	if !strings.Contains(s, "\t") {
		return s
	}
	return strings.ReplaceAll(s, "\t", strings.Repeat(" ", width))
}

// NormalizeNewlines converts "\r\n" and lone "\r" line endings to "\n".
func NormalizeNewlines(s string) string {
	if !strings.Contains(s, "\r") {
		return s
	}
	return strings.ReplaceAll(strings.ReplaceAll(s, "\r\n", "\n"), "\r", "\n")
}

func sortedKeys(set map[int]struct{}) []int {
	out := make([]int, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Ints(out)
	return out
}
