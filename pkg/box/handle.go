package box

import (
	"strings"

	"github.com/matzehuels/boxdeck/pkg/geom"
	"github.com/matzehuels/boxdeck/pkg/media"
	"github.com/matzehuels/boxdeck/pkg/text"
)

// Handle refers to one node of a tree. Handles are small values; copying
// one does not copy the node.
type Handle struct {
	t  *Tree
	id NodeID
}

// Option configures a box when it is created.
type Option func(Handle)

// Name sets the box's anchor name.
func Name(name string) Option { return func(h Handle) { h.SetName(name) } }

// Width sets the horizontal sizing policy.
func Width(s geom.Size) Option { return func(h Handle) { h.SetWidth(s) } }

// Height sets the vertical sizing policy.
func Height(s geom.Size) Option { return func(h Handle) { h.SetHeight(s) } }

// X sets an explicit horizontal position.
func X(p geom.Position) Option { return func(h Handle) { h.SetX(p) } }

// Y sets an explicit vertical position.
func Y(p geom.Position) Option { return func(h Handle) { h.SetY(p) } }

// Stack sets the stacking mode.
func Stack(s Stacking) Option { return func(h Handle) { h.SetStacking(s) } }

// Horizontal stacks children in a row.
func Horizontal() Option { return Stack(Row) }

// Padding sets the inner padding.
func Padding(e geom.Edges) Option { return func(h Handle) { h.SetPadding(e) } }

// Background sets the box background paint.
func Background(p Paint) Option { return func(h Handle) { h.SetBackground(p) } }

// ID returns the node ID.
func (h Handle) ID() NodeID { return h.id }

// Tree returns the owning tree.
func (h Handle) Tree() *Tree { return h.t }

// Node returns the underlying node.
func (h Handle) Node() *Node { return &h.t.nodes[h.id] }

// Parent returns the parent box. The root is its own parent.
func (h Handle) Parent() Handle {
	p := h.t.nodes[h.id].Parent
	if p < 0 {
		return h
	}
	return Handle{t: h.t, id: p}
}

// Box appends a child box.
func (h Handle) Box(opts ...Option) Handle {
	c := Handle{t: h.t, id: h.t.add(h.id)}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// FillBox appends a child filling the remaining space on both axes.
func (h Handle) FillBox(opts ...Option) Handle {
	return h.Box(append([]Option{Width(geom.Fill()), Height(geom.Fill())}, opts...)...)
}

// Overlay appends an out-of-flow child covering the content rect. It is
// drawn after the flow children.
func (h Handle) Overlay(opts ...Option) Handle {
	c := h.Box(opts...)
	h.t.nodes[c.id].overlay = true
	return c
}

func (h Handle) SetWidth(s geom.Size) Handle {
	h.t.nodes[h.id].Width = s
	return h
}

func (h Handle) SetHeight(s geom.Size) Handle {
	h.t.nodes[h.id].Height = s
	return h
}

// SetSize sets the sizing policy along an axis.
func (h Handle) SetSize(a geom.Axis, s geom.Size) Handle {
	if a == geom.Horizontal {
		return h.SetWidth(s)
	}
	return h.SetHeight(s)
}

func (h Handle) SetX(p geom.Position) Handle {
	h.t.nodes[h.id].X = p
	return h
}

func (h Handle) SetY(p geom.Position) Handle {
	h.t.nodes[h.id].Y = p
	return h
}

func (h Handle) SetStacking(s Stacking) Handle {
	h.t.nodes[h.id].Stack = s
	return h
}

func (h Handle) SetPadding(e geom.Edges) Handle {
	h.t.nodes[h.id].Padding = e
	return h
}

func (h Handle) SetBackground(p Paint) Handle {
	h.t.nodes[h.id].Background = p
	return h
}

// SetName assigns the box's anchor name. Names must be unique within the
// tree, inline anchors included. An empty name removes the anchor.
func (h Handle) SetName(name string) Handle {
	n := &h.t.nodes[h.id]
	if n.Name == name {
		return h
	}
	if name != "" && !h.t.claim(name, h.id) {
		return h
	}
	if n.Name != "" {
		h.t.release(n.Name, h.id)
	}
	n.Name = name
	return h
}

// Text sets the box content to a text run. The text may contain style
// groups "~name{...}" and inline anchors "~#name{...}".
func (h Handle) Text(src string, opts ...TextOption) Handle {
	o := applyTextOpts(opts)
	src = text.NormalizeNewlines(src)
	mk, ok := h.parse(src)
	if !ok {
		return h
	}
	h.setContent(&TextContent{Source: src, Markup: mk, Style: o.style, Override: o.override}, mk)
	return h
}

// Code sets the box content to a code block in language. Line endings are
// normalized to "\n" before markup is parsed.
func (h Handle) Code(language, src string, opts ...TextOption) Handle {
	o := applyTextOpts(opts)
	src = text.ExpandTabs(text.NormalizeNewlines(src), o.tabWidth)
	mk, ok := h.parse(src)
	if !ok {
		return h
	}
	h.setContent(&CodeContent{Language: language, Source: src, Markup: mk, Style: o.style, Override: o.override}, mk)
	return h
}

// CodeSpans sets the box content to pre-tokenized code.
func (h Handle) CodeSpans(spans []text.Span, opts ...TextOption) Handle {
	o := applyTextOpts(opts)
	spans = append([]text.Span(nil), spans...)
	var b strings.Builder
	for i := range spans {
		spans[i].Text = text.NormalizeNewlines(spans[i].Text)
		b.WriteString(spans[i].Text)
	}
	src := b.String()
	h.setContent(&CodeContent{Source: src, Markup: text.Plain(src), Spans: spans, Style: o.style, Override: o.override}, text.Plain(src))
	return h
}

// Image sets the box content to the image file at path. The file is loaded
// during layout.
func (h Handle) Image(path string, opts ...ImageOption) Handle {
	c := &ImageContent{Path: path}
	for _, opt := range opts {
		opt(c)
	}
	h.setContent(c, text.Markup{})
	return h
}

// ImageData sets the box content to an already decoded image.
func (h Handle) ImageData(im *media.Image, opts ...ImageOption) Handle {
	c := &ImageContent{Image: im}
	for _, opt := range opts {
		opt(c)
	}
	h.setContent(c, text.Markup{})
	return h
}

// Rect sets the box content to a rectangle covering the content rect.
func (h Handle) Rect(p Paint) Handle {
	h.setContent(&RectContent{Paint: p}, text.Markup{})
	return h
}

func (h Handle) parse(src string) (text.Markup, bool) {
	mk, err := text.ParseMarkup(src)
	if err != nil {
		h.t.fail(err)
		return text.Markup{}, false
	}
	return mk, true
}

// setContent replaces the node's content and its inline anchors.
func (h Handle) setContent(c Content, mk text.Markup) {
	n := &h.t.nodes[h.id]
	for _, name := range n.inline {
		h.t.release(name, h.id)
	}
	n.inline = nil
	for _, r := range mk.Anchors() {
		if h.t.claim(r.Name, h.id) {
			n.inline = append(n.inline, r.Name)
		}
	}
	n.Content = c
}
