package render

import (
	"bytes"
	"fmt"
	"image/color"
	"math"
	"strings"

	svg "github.com/ajstarks/svgo"

	"github.com/matzehuels/boxdeck/pkg/box"
	"github.com/matzehuels/boxdeck/pkg/deck"
	"github.com/matzehuels/boxdeck/pkg/errors"
	"github.com/matzehuels/boxdeck/pkg/geom"
	"github.com/matzehuels/boxdeck/pkg/paint"
	"github.com/matzehuels/boxdeck/pkg/style"
)

// SVG renders every page as a standalone SVG document.
func SVG(doc *deck.Document, opts ...Option) ([][]byte, error) {
	if _, err := newConfig(doc, opts); err != nil {
		return nil, err
	}
	out := make([][]byte, len(doc.Pages))
	for i, p := range doc.Pages {
		b, err := SVGPage(p)
		if err != nil {
			return nil, err
		}
		out[i] = b
	}
	return out, nil
}

// SVGPage renders a single page.
func SVGPage(p *deck.Page) ([]byte, error) {
	var buf bytes.Buffer
	c := &svgCanvas{s: svg.New(&buf)}
	w, h := px(p.Width), px(p.Height)
	c.s.Start(w, h, fmt.Sprintf(`viewBox="0 0 %d %d"`, w, h))
	if p.Name != "" {
		c.s.Title(p.Name)
	}
	if err := paint.Replay(p.Items, c); err != nil {
		return nil, errors.Wrap(errors.ErrCodeRenderFailed, err, "svg page %d", p.Index)
	}
	c.s.End()
	return buf.Bytes(), nil
}

type svgCanvas struct {
	s *svg.SVG
}

func (c *svgCanvas) DrawRect(it *paint.RectItem) error {
	x, y, w, h := snap(it.Rect)
	st := paintStyle(it.Paint)
	if rx, ry := px(it.Paint.RX), px(it.Paint.RY); rx > 0 || ry > 0 {
		c.s.Roundrect(x, y, w, h, rx, ry, st)
		return nil
	}
	c.s.Rect(x, y, w, h, st)
	return nil
}

func (c *svgCanvas) DrawText(it *paint.TextItem) error {
	for _, r := range it.Runs {
		if strings.TrimSpace(r.Text) == "" {
			continue
		}
		attrs := []string{textStyle(r.Style), `xml:space="preserve"`}
		if r.Width > 0 {
			attrs = append(attrs, fmt.Sprintf(`textLength="%d" lengthAdjust="spacingAndGlyphs"`, px(r.Width)))
		}
		c.s.Text(px(r.Origin.X), px(r.Origin.Y), r.Text, attrs...)
	}
	return nil
}

func (c *svgCanvas) DrawImage(it *paint.ImageItem) error {
	uri, err := it.Image.DataURI()
	if err != nil {
		return err
	}
	x, y, w, h := snap(it.Dest)
	c.s.Image(x, y, w, h, uri, `preserveAspectRatio="none"`)
	return nil
}

func (c *svgCanvas) DrawLine(it *paint.LineItem) error {
	xs, ys := points(it.Points)
	c.s.Polyline(xs, ys, fmt.Sprintf("fill:none;stroke:%s;stroke-opacity:%.3g;stroke-width:%g;stroke-linecap:round;stroke-linejoin:round",
		style.Hex(it.Color), style.Opacity(it.Color), it.Width))
	for _, head := range it.Heads {
		hx, hy := points(head[:])
		c.s.Polygon(hx, hy, fillStyle(it.Color))
	}
	return nil
}

func paintStyle(p box.Paint) string {
	var b strings.Builder
	if p.Fill.A == 0 {
		b.WriteString("fill:none")
	} else {
		b.WriteString(fillStyle(p.Fill))
	}
	if p.StrokeWidth > 0 && p.Stroke.A > 0 {
		fmt.Fprintf(&b, ";stroke:%s;stroke-opacity:%.3g;stroke-width:%g", style.Hex(p.Stroke), style.Opacity(p.Stroke), p.StrokeWidth)
	}
	return b.String()
}

func fillStyle(c color.RGBA) string {
	if c.A == 0xff {
		return "fill:" + style.Hex(c)
	}
	return fmt.Sprintf("fill:%s;fill-opacity:%.3g", style.Hex(c), style.Opacity(c))
}

func textStyle(st style.Style) string {
	var b strings.Builder
	fmt.Fprintf(&b, "font-family:%s;font-size:%gpx;%s", svgFamily(st.Font), st.Size, fillStyle(st.Color))
	if st.Bold {
		b.WriteString(";font-weight:bold")
	}
	if st.Italic {
		b.WriteString(";font-style:italic")
	}
	return b.String()
}

// svgFamily maps a style family to a CSS font-family list.
func svgFamily(name string) string {
	switch name {
	case style.FamilySans, "":
		return "Go, Helvetica, Arial, sans-serif"
	case style.FamilyMono:
		return "Go Mono, Menlo, Consolas, monospace"
	}
	return "'" + strings.ReplaceAll(name, "'", "") + "', sans-serif"
}

func px(v float64) int { return int(math.Round(v)) }

// snap rounds a rect to whole pixels by its edges so adjacent boxes stay
// adjacent.
func snap(r geom.Rect) (x, y, w, h int) {
	x, y = px(r.X), px(r.Y)
	return x, y, px(r.Right()) - x, px(r.Bottom()) - y
}

func points(pts []geom.Point) ([]int, []int) {
	xs := make([]int, len(pts))
	ys := make([]int, len(pts))
	for i, p := range pts {
		xs[i], ys[i] = px(p.X), px(p.Y)
	}
	return xs, ys
}
