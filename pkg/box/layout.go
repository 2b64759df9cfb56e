package box

import (
	"math"
	"sort"
	"strconv"

	"github.com/matzehuels/boxdeck/pkg/errors"
	"github.com/matzehuels/boxdeck/pkg/geom"
	"github.com/matzehuels/boxdeck/pkg/media"
	"github.com/matzehuels/boxdeck/pkg/style"
	"github.com/matzehuels/boxdeck/pkg/text"
)

// ImageSource loads images referenced by path. *media.Cache implements it.
type ImageSource interface {
	Get(path string) (*media.Image, error)
}

// Env holds the collaborators used during layout.
type Env struct {
	Measurer  text.Measurer
	Tokenizer text.Tokenizer // optional; code without spans is drawn plain
	Styles    *style.Table
	Images    ImageSource // optional; required for path images
}

// Shaped is laid-out text or code content.
type Shaped struct {
	Block text.Block
	Code  bool
}

// Result is the output of a layout pass. All slices are indexed by NodeID.
type Result struct {
	Rects   []geom.Rect
	Content []geom.Rect // rects inset by padding
	Text    map[NodeID]*Shaped
	Images  map[NodeID]*media.Image
	Anchors *Registry
}

// Layout resolves every box of t inside page. It fails with the tree's
// structural error, if any, before resolving anything.
func Layout(t *Tree, page geom.Rect, env Env) (*Result, error) {
	if err := t.Err(); err != nil {
		return nil, err
	}
	if env.Measurer == nil {
		env.Measurer = text.Fixed{}
	}
	if env.Styles == nil {
		env.Styles = style.NewTable()
	}
	r := &resolver{
		t:   t,
		env: env,
		res: &Result{
			Rects:   make([]geom.Rect, t.Len()),
			Content: make([]geom.Rect, t.Len()),
			Text:    make(map[NodeID]*Shaped),
			Images:  make(map[NodeID]*media.Image),
			Anchors: NewRegistry(),
		},
		natural: make(map[natKey]float64),
	}
	if page.W < 0 || page.H < 0 {
		return nil, errors.New(errors.ErrCodeNegativeSize, "negative page size %gx%g", page.W, page.H)
	}
	if err := r.resolve(RootID, page); err != nil {
		return nil, err
	}
	return r.res, nil
}

type natKey struct {
	id   NodeID
	axis geom.Axis
}

type resolver struct {
	t       *Tree
	env     Env
	res     *Result
	natural map[natKey]float64
}

func (r *resolver) resolve(id NodeID, rect geom.Rect) error {
	n := r.t.Node(id)
	r.res.Rects[id] = rect
	if n.Name != "" {
		r.res.Anchors.add(n.Name, rect)
	}

	content := rect.Inset(n.Padding)
	if content.W < 0 || content.H < 0 {
		return errors.New(errors.ErrCodeNegativeSize,
			"box %s: padding exceeds size (content %gx%g)", r.label(id), content.W, content.H)
	}
	r.res.Content[id] = content

	if err := r.placeContent(id, content); err != nil {
		return err
	}

	if err := r.layoutFlow(id, content); err != nil {
		return err
	}
	for _, c := range n.Children {
		if !r.t.outOfFlow(c) {
			continue
		}
		cr, err := r.placeOutOfFlow(c, content)
		if err != nil {
			return err
		}
		if err := r.resolve(c, cr); err != nil {
			return err
		}
	}
	return nil
}

func (r *resolver) layoutFlow(id NodeID, content geom.Rect) error {
	n := r.t.Node(id)
	if n.Stack == Overlay {
		return nil
	}
	main := n.Stack.Axis()
	cross := main.Cross()
	extent := content.Len(main)

	var flow []NodeID
	for _, c := range n.Children {
		if !r.t.outOfFlow(c) {
			flow = append(flow, c)
		}
	}
	if len(flow) == 0 {
		return nil
	}

	sizes := make([]float64, len(flow))
	var (
		used    float64
		fills   []int
		weights []float64
	)
	for i, c := range flow {
		s := r.t.Node(c).Size(main)
		switch s.Kind {
		case geom.SizeFill:
			fills = append(fills, i)
			weights = append(weights, s.Weight())
			continue
		case geom.SizeFixed:
			if s.Value < 0 {
				return r.negative(c, s.Value)
			}
			sizes[i] = s.Value
		case geom.SizePercent:
			sizes[i] = s.Value * extent
		default:
			v, err := r.measure(c, main)
			if err != nil {
				return err
			}
			sizes[i] = v
		}
		used += sizes[i]
	}
	if len(fills) > 0 {
		for k, v := range distribute(extent-used, weights) {
			sizes[fills[k]] = v
		}
	}

	cursor := content.Start(main)
	for i, c := range flow {
		cn := r.t.Node(c)
		crossOff := cn.Pos(cross).Resolve(content.Len(cross))
		crossLen, err := r.crossSize(c, cross, content.Len(cross), crossOff)
		if err != nil {
			return err
		}
		cr := geom.Span(main, cursor, sizes[i], content.Start(cross)+crossOff, crossLen)
		cursor += sizes[i]
		if err := r.resolve(c, cr); err != nil {
			return err
		}
	}
	return nil
}

// crossSize resolves a flow child's size along its parent's cross axis.
func (r *resolver) crossSize(id NodeID, cross geom.Axis, extent, offset float64) (float64, error) {
	s := r.t.Node(id).Size(cross)
	switch s.Kind {
	case geom.SizeFixed:
		if s.Value < 0 {
			return 0, r.negative(id, s.Value)
		}
		return s.Value, nil
	case geom.SizePercent:
		return s.Value * extent, nil
	case geom.SizeAuto:
		return r.measure(id, cross)
	default:
		return math.Max(0, extent-offset), nil
	}
}

// placeOutOfFlow positions an overlay or explicitly positioned child inside
// the parent content rect.
func (r *resolver) placeOutOfFlow(id NodeID, content geom.Rect) (geom.Rect, error) {
	n := r.t.Node(id)
	var pos, size [2]float64
	for _, a := range []geom.Axis{geom.Horizontal, geom.Vertical} {
		extent := content.Len(a)
		off := n.Pos(a).Resolve(extent)
		s := n.Size(a)
		var v float64
		switch {
		case s.Kind == geom.SizeFixed:
			if s.Value < 0 {
				return geom.Rect{}, r.negative(id, s.Value)
			}
			v = s.Value
		case s.Kind == geom.SizePercent:
			v = s.Value * extent
		case s.Kind == geom.SizeFill,
			s.Kind == geom.SizeDefault && r.t.stretches(id):
			v = math.Max(0, extent-off)
		default:
			m, err := r.measure(id, a)
			if err != nil {
				return geom.Rect{}, err
			}
			v = m
		}
		pos[a] = content.Start(a) + off
		size[a] = v
	}
	return geom.Rect{X: pos[geom.Horizontal], Y: pos[geom.Vertical], W: size[geom.Horizontal], H: size[geom.Vertical]}, nil
}

// distribute splits remaining whole pixels among weights using the largest
// remainder method. Ties go to the earlier child. Non-positive remaining
// space yields zero sizes.
func distribute(remaining float64, weights []float64) []float64 {
	out := make([]float64, len(weights))
	if remaining <= 0 {
		return out
	}
	total := math.Floor(remaining)
	var sum float64
	for _, w := range weights {
		sum += w
	}

	type frac struct {
		idx int
		rem float64
	}
	fracs := make([]frac, len(weights))
	var given float64
	for i, w := range weights {
		exact := total * w / sum
		out[i] = math.Floor(exact)
		given += out[i]
		fracs[i] = frac{i, exact - out[i]}
	}
	sort.SliceStable(fracs, func(a, b int) bool { return fracs[a].rem > fracs[b].rem })
	for k := 0; given < total && k < len(fracs); k++ {
		out[fracs[k].idx]++
		given++
	}
	return out
}

// measure returns the natural size of a node along an axis: its fixed size,
// or its content size plus padding. Relative sizes cannot be measured.
func (r *resolver) measure(id NodeID, a geom.Axis) (float64, error) {
	key := natKey{id, a}
	if v, ok := r.natural[key]; ok {
		return v, nil
	}
	n := r.t.Node(id)
	s := n.Size(a)
	var v float64
	switch s.Kind {
	case geom.SizeFixed:
		if s.Value < 0 {
			return 0, r.negative(id, s.Value)
		}
		v = s.Value
	case geom.SizePercent, geom.SizeFill:
		return 0, errors.New(errors.ErrCodeUnboundedFill,
			"box %s: %s %s size inside a content-sized parent", r.label(id), s, a)
	default:
		c, err := r.contentSize(id, a)
		if err != nil {
			return 0, err
		}
		v = c + n.Padding.Along(a)
	}
	r.natural[key] = v
	return v, nil
}

// contentSize returns the natural size of a node's content rect: the larger
// of its leaf content and its children.
func (r *resolver) contentSize(id NodeID, a geom.Axis) (float64, error) {
	n := r.t.Node(id)
	leaf, err := r.intrinsic(id, a)
	if err != nil {
		return 0, err
	}

	var flow, free float64
	for _, c := range n.Children {
		cn := r.t.Node(c)
		s, err := r.measure(c, a)
		if err != nil {
			return 0, err
		}
		pos := cn.Pos(a)
		if pos.Kind == geom.PosPercent {
			return 0, errors.New(errors.ErrCodeUnboundedFill,
				"box %s: percentage position inside a content-sized parent", r.label(c))
		}
		off := pos.Resolve(0)
		switch {
		case r.t.outOfFlow(c):
			free = math.Max(free, off+s)
		case a == n.Stack.Axis():
			flow += s
		default:
			flow = math.Max(flow, off+s)
		}
	}
	return math.Max(leaf, math.Max(flow, free)), nil
}

// intrinsic returns the size of a node's leaf content along an axis.
func (r *resolver) intrinsic(id NodeID, a geom.Axis) (float64, error) {
	switch c := r.t.Node(id).Content.(type) {
	case *TextContent, *CodeContent:
		sh, err := r.shape(id)
		if err != nil {
			return 0, err
		}
		if a == geom.Horizontal {
			return sh.Block.Width, nil
		}
		return sh.Block.Height, nil
	case *ImageContent:
		im, err := r.image(id, c)
		if err != nil {
			return 0, err
		}
		scale := c.Scale
		if scale <= 0 {
			scale = 1
		}
		if a == geom.Horizontal {
			return float64(im.Width) * scale, nil
		}
		return float64(im.Height) * scale, nil
	}
	return 0, nil
}

// placeContent registers inline anchors of text and code content and
// loads images so that painting needs no further lookups.
func (r *resolver) placeContent(id NodeID, content geom.Rect) error {
	switch c := r.t.Node(id).Content.(type) {
	case *TextContent:
		return r.registerInline(id, c.Markup, content)
	case *CodeContent:
		return r.registerInline(id, c.Markup, content)
	case *ImageContent:
		_, err := r.image(id, c)
		return err
	}
	return nil
}

func (r *resolver) registerInline(id NodeID, mk text.Markup, content geom.Rect) error {
	sh, err := r.shape(id)
	if err != nil {
		return err
	}
	for _, a := range mk.Anchors() {
		r.res.Anchors.add(a.Name, sh.Block.RangeRect(content, a.Start, a.End))
	}
	return nil
}

// shape lays out a node's text or code once.
func (r *resolver) shape(id NodeID) (*Shaped, error) {
	if sh, ok := r.res.Text[id]; ok {
		return sh, nil
	}
	var (
		sh     *Shaped
		pieces []text.Piece
		base   style.Style
		err    error
		src    string
	)
	switch c := r.t.Node(id).Content.(type) {
	case *TextContent:
		base, err = r.env.Styles.Resolve(c.Style, c.Override)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeUnknownStyle, err, "box %s", r.label(id))
		}
		src = c.Markup.Text
		pieces, err = text.Compose(c.Markup, base, r.env.Styles)
		sh = &Shaped{}
	case *CodeContent:
		name := c.Style
		if name == "" {
			name = style.Code
		}
		base, err = r.env.Styles.Resolve(name, c.Override)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeUnknownStyle, err, "box %s", r.label(id))
		}
		src = c.Markup.Text
		spans := c.Spans
		if spans == nil && r.env.Tokenizer != nil {
			spans, err = r.env.Tokenizer.Tokenize(c.Language, src)
			if err != nil {
				return nil, err
			}
		}
		pieces, err = text.ComposeSpans(c.Markup, spans, base, r.env.Styles)
		sh = &Shaped{Code: true}
	default:
		return nil, errors.New(errors.ErrCodeInternal, "box %s has no text content", r.label(id))
	}
	if err != nil {
		return nil, err
	}
	sh.Block = text.Shape(r.env.Measurer, src, pieces, base)
	r.res.Text[id] = sh
	return sh, nil
}

func (r *resolver) image(id NodeID, c *ImageContent) (*media.Image, error) {
	if im, ok := r.res.Images[id]; ok {
		return im, nil
	}
	im := c.Image
	if im == nil {
		if r.env.Images == nil {
			return nil, errors.New(errors.ErrCodeInvalidImage, "box %s: no image source for %s", r.label(id), c.Path)
		}
		var err error
		im, err = r.env.Images.Get(c.Path)
		if err != nil {
			return nil, err
		}
	}
	r.res.Images[id] = im
	return im, nil
}

func (r *resolver) negative(id NodeID, v float64) error {
	return errors.New(errors.ErrCodeNegativeSize, "box %s: negative size %g", r.label(id), v)
}

// label names a node in error messages.
func (r *resolver) label(id NodeID) string {
	if n := r.t.Node(id).Name; n != "" {
		return strconv.Quote(n)
	}
	return "#" + strconv.Itoa(int(id))
}
