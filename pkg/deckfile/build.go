package deckfile

import (
	"fmt"
	"path/filepath"
	"sort"

	"github.com/matzehuels/boxdeck/pkg/box"
	"github.com/matzehuels/boxdeck/pkg/deck"
	"github.com/matzehuels/boxdeck/pkg/errors"
	"github.com/matzehuels/boxdeck/pkg/geom"
	"github.com/matzehuels/boxdeck/pkg/paint"
	"github.com/matzehuels/boxdeck/pkg/style"
	"github.com/matzehuels/boxdeck/pkg/text"
)

// Build constructs a deck from the file. Options are passed to [deck.New];
// a font set holding the file's fonts is added first, so an explicit
// [deck.WithFontSet] replaces it.
func (f *File) Build(opts ...deck.Option) (*deck.Deck, error) {
	w, h := f.Width, f.Height
	if w == 0 {
		w = deck.DefaultWidth
	}
	if h == 0 {
		h = deck.DefaultHeight
	}
	if w < 0 || h < 0 {
		return nil, errors.New(errors.ErrCodeInvalidDeck, "negative page size %gx%g", w, h)
	}

	if len(f.Fonts) > 0 {
		fs, err := f.fontSet()
		if err != nil {
			return nil, err
		}
		opts = append([]deck.Option{deck.WithFontSet(fs)}, opts...)
	}
	d := deck.New(w, h, opts...)

	for _, name := range sortedKeys(f.Styles) {
		if err := errors.ValidateStyleName(name); err != nil {
			return nil, invalid(err, "styles.%s", name)
		}
		p, err := f.Styles[name].Partial()
		if err != nil {
			return nil, invalid(err, "styles.%s", name)
		}
		d.UpdateStyle(name, p)
	}

	for i := range f.Slides {
		if err := f.buildSlide(d, i); err != nil {
			return nil, err
		}
	}
	return d, nil
}

func (f *File) buildSlide(d *deck.Deck, i int) error {
	spec := &f.Slides[i]
	where := fmt.Sprintf("slides[%d]", i)
	debug := f.DebugBoxes
	if spec.DebugBoxes != nil {
		debug = *spec.DebugBoxes
	}
	s := d.NewSlide(deck.SlideName(spec.Name), deck.SlideDebugBoxes(debug))

	for _, name := range sortedKeys(spec.Styles) {
		p, err := spec.Styles[name].Partial()
		if err != nil {
			return invalid(err, "%s.styles.%s", where, name)
		}
		s.UpdateStyle(name, p)
	}
	if err := f.buildNode(s.Root(), &spec.Root, where+".root"); err != nil {
		return err
	}
	if err := s.Tree().Err(); err != nil {
		return invalid(err, "%s", where)
	}
	for k, ls := range spec.Lines {
		refs, opts, err := ls.command()
		if err != nil {
			return invalid(err, "%s.lines[%d]", where, k)
		}
		s.Line(refs, opts...)
	}
	return nil
}

func (f *File) buildNode(h box.Handle, n *NodeSpec, where string) error {
	if err := f.configure(h, n); err != nil {
		return invalid(err, "%s", where)
	}
	if err := f.content(h, n); err != nil {
		return invalid(err, "%s", where)
	}
	for i := range n.Children {
		c := &n.Children[i]
		var child box.Handle
		if c.Overlay {
			child = h.Overlay()
		} else {
			child = h.Box()
		}
		if err := f.buildNode(child, c, fmt.Sprintf("%s.children[%d]", where, i)); err != nil {
			return err
		}
	}
	return nil
}

func (f *File) configure(h box.Handle, n *NodeSpec) error {
	if n.Name != "" {
		h.SetName(n.Name)
	}
	for _, s := range []struct {
		v   Value
		set func(geom.Size) box.Handle
		key string
	}{{n.Width, h.SetWidth, "width"}, {n.Height, h.SetHeight, "height"}} {
		if s.v == "" {
			continue
		}
		size, err := geom.ParseSize(string(s.v))
		if err != nil {
			return fmt.Errorf("%s: %w", s.key, err)
		}
		s.set(size)
	}
	for _, p := range []struct {
		v   Value
		set func(geom.Position) box.Handle
		key string
	}{{n.X, h.SetX, "x"}, {n.Y, h.SetY, "y"}} {
		if p.v == "" {
			continue
		}
		pos, err := geom.ParsePosition(string(p.v))
		if err != nil {
			return fmt.Errorf("%s: %w", p.key, err)
		}
		p.set(pos)
	}
	if n.Stack != "" {
		st, err := box.ParseStacking(n.Stack)
		if err != nil {
			return err
		}
		h.SetStacking(st)
	}
	if len(n.Padding) > 0 {
		e, err := n.Padding.edges()
		if err != nil {
			return err
		}
		h.SetPadding(e)
	}
	if n.Background != "" || n.Border != "" {
		p, err := boxPaint(n.Background, n.Border, n.BorderWidth, n.Radius)
		if err != nil {
			return err
		}
		h.SetBackground(p)
	}
	return nil
}

func (f *File) content(h box.Handle, n *NodeSpec) error {
	set := 0
	for _, ok := range []bool{n.Text != nil, n.Code != nil, n.Image != "", n.Rect != nil} {
		if ok {
			set++
		}
	}
	if set > 1 {
		return fmt.Errorf("only one of text, code, image and rect may be set")
	}

	var topts []box.TextOption
	if n.Style != "" {
		topts = append(topts, box.WithStyle(n.Style))
	}
	if n.Override != nil {
		p, err := n.Override.Partial()
		if err != nil {
			return fmt.Errorf("override: %w", err)
		}
		topts = append(topts, box.WithOverride(p))
	}

	switch {
	case n.Text != nil:
		h.Text(*n.Text, topts...)
	case n.Code != nil:
		if n.TabWidth > 0 {
			topts = append(topts, box.WithTabWidth(n.TabWidth))
		}
		h.Code(n.Language, *n.Code, topts...)
	case n.Image != "":
		path, err := f.resolve(n.Image)
		if err != nil {
			return err
		}
		var iopts []box.ImageOption
		if n.Scale > 0 {
			iopts = append(iopts, box.ImageScale(n.Scale))
		}
		if n.Fit != "" {
			iopts = append(iopts, box.ImageFit(box.ParseFit(n.Fit)))
		}
		h.Image(path, iopts...)
	case n.Rect != nil:
		p, err := boxPaint(n.Rect.Fill, n.Rect.Stroke, n.Rect.StrokeWidth, n.Rect.Radius)
		if err != nil {
			return err
		}
		h.Rect(p)
	}
	return nil
}

// resolve maps a path referenced by the file to a path on disk.
func (f *File) resolve(path string) (string, error) {
	if f.sandboxed {
		if f.base == "" {
			return "", errors.New(errors.ErrCodeInvalidPath, "file references are not allowed: %s", path)
		}
		if err := errors.ValidatePath(path); err != nil {
			return "", err
		}
		return filepath.Join(f.base, path), nil
	}
	if filepath.IsAbs(path) || f.base == "" {
		return path, nil
	}
	return filepath.Join(f.base, path), nil
}

func (f *File) fontSet() (*text.FontSet, error) {
	fs, err := text.NewFontSet()
	if err != nil {
		return nil, err
	}
	for _, family := range sortedKeys(f.Fonts) {
		spec := f.Fonts[family]
		if spec.Regular == "" {
			return nil, errors.New(errors.ErrCodeInvalidDeck, "fonts.%s: regular face is required", family)
		}
		for _, v := range []struct {
			path    string
			variant text.Variant
		}{
			{spec.Regular, text.Regular},
			{spec.Bold, text.Bold},
			{spec.Italic, text.Italic},
			{spec.BoldItalic, text.BoldItalic},
		} {
			if v.path == "" {
				continue
			}
			path, err := f.resolve(v.path)
			if err != nil {
				return nil, invalid(err, "fonts.%s", family)
			}
			if err := fs.RegisterFile(family, v.variant, path); err != nil {
				return nil, err
			}
		}
	}
	return fs, nil
}

// Partial converts the spec into a style override.
func (s StyleSpec) Partial() (style.Partial, error) {
	p := style.Partial{
		Font:        s.Font,
		Size:        s.Size,
		Bold:        s.Bold,
		Italic:      s.Italic,
		LineSpacing: s.LineSpacing,
	}
	if s.Size != nil && *s.Size <= 0 {
		return p, fmt.Errorf("size must be positive, got %g", *s.Size)
	}
	if s.Color != nil {
		c, err := style.ParseColor(*s.Color)
		if err != nil {
			return p, err
		}
		p.Color = &c
	}
	if s.Align != nil {
		a, err := style.ParseAlign(*s.Align)
		if err != nil {
			return p, err
		}
		p.Align = &a
	}
	return p, nil
}

func (e Edges) edges() (geom.Edges, error) {
	switch len(e) {
	case 1:
		return geom.EdgeAll(e[0]), nil
	case 2:
		return geom.EdgeSymmetric(e[0], e[1]), nil
	case 4:
		return geom.EdgeTRBL(e[0], e[1], e[2], e[3]), nil
	}
	return geom.Edges{}, fmt.Errorf("padding needs 1, 2 or 4 values, got %d", len(e))
}

func boxPaint(fill, stroke string, width, radius float64) (box.Paint, error) {
	var p box.Paint
	if fill != "" {
		c, err := style.ParseColor(fill)
		if err != nil {
			return p, err
		}
		p.Fill = c
	}
	if stroke != "" {
		c, err := style.ParseColor(stroke)
		if err != nil {
			return p, err
		}
		p.Stroke = c
		p.StrokeWidth = width
		if p.StrokeWidth == 0 {
			p.StrokeWidth = 1
		}
	}
	p.RX, p.RY = radius, radius
	return p, nil
}

func (l LineSpec) command() ([]paint.PointRef, []paint.LineOption, error) {
	if len(l.Points) < 2 {
		return nil, nil, fmt.Errorf("a line needs at least two points, got %d", len(l.Points))
	}
	refs := make([]paint.PointRef, len(l.Points))
	for i, p := range l.Points {
		ref, err := p.ref()
		if err != nil {
			return nil, nil, fmt.Errorf("points[%d]: %w", i, err)
		}
		refs[i] = ref
	}
	var opts []paint.LineOption
	if l.Width > 0 {
		opts = append(opts, paint.StrokeWidth(l.Width))
	}
	if l.Color != "" {
		c, err := style.ParseColor(l.Color)
		if err != nil {
			return nil, nil, err
		}
		opts = append(opts, paint.Stroke(c))
	}
	if l.StartArrow > 0 {
		opts = append(opts, paint.StartArrow(l.StartArrow))
	}
	if l.EndArrow > 0 {
		opts = append(opts, paint.EndArrow(l.EndArrow))
	}
	return refs, opts, nil
}

func (p PointSpec) ref() (paint.PointRef, error) {
	if p.Anchor == "" {
		if p.FX != nil || p.FY != nil {
			return paint.PointRef{}, fmt.Errorf("fx and fy need an anchor")
		}
		return paint.Abs(p.X, p.Y).Add(p.DX, p.DY), nil
	}
	fx, fy := 0.5, 0.5
	for _, f := range []struct {
		v   *Value
		dst *float64
	}{{p.FX, &fx}, {p.FY, &fy}} {
		if f.v == nil {
			continue
		}
		v, err := geom.ParseFraction(string(*f.v))
		if err != nil {
			return paint.PointRef{}, err
		}
		*f.dst = v
	}
	return paint.At(p.Anchor, fx, fy).Add(p.DX, p.DY), nil
}

// invalid annotates err with its location in the file. Input and
// structural codes are kept; everything else becomes INVALID_DECK.
func invalid(err error, format string, args ...any) error {
	code := errors.GetCode(err)
	switch errors.CategoryOf(code) {
	case errors.CategoryInput, errors.CategoryStructural:
	default:
		code = errors.ErrCodeInvalidDeck
	}
	return errors.Wrap(code, err, format, args...)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
