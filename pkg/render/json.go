package render

import (
	"encoding/json"

	"github.com/matzehuels/boxdeck/pkg/box"
	"github.com/matzehuels/boxdeck/pkg/deck"
	"github.com/matzehuels/boxdeck/pkg/errors"
	"github.com/matzehuels/boxdeck/pkg/geom"
)

// LayoutDump is the JSON form of an assembled document.
type LayoutDump struct {
	Width  float64    `json:"width"`
	Height float64    `json:"height"`
	Pages  []PageDump `json:"pages"`
}

// PageDump describes one page.
type PageDump struct {
	Index   int               `json:"index"`
	Name    string            `json:"name,omitempty"`
	Boxes   []BoxDump         `json:"boxes"`
	Anchors map[string]Bounds `json:"anchors"`
	Items   int               `json:"items"`
}

// BoxDump describes one resolved box.
type BoxDump struct {
	ID      int    `json:"id"`
	Parent  int    `json:"parent"`
	Name    string `json:"name,omitempty"`
	Stack   string `json:"stack"`
	Overlay bool   `json:"overlay,omitempty"`
	Kind    string `json:"kind,omitempty"`
	Rect    Bounds `json:"rect"`
	Content Bounds `json:"content"`
	Lines   int    `json:"lines,omitempty"`
}

// Bounds is a rectangle in page coordinates.
type Bounds struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}

func bounds(r geom.Rect) Bounds { return Bounds{X: r.X, Y: r.Y, W: r.W, H: r.H} }

// Dump converts a document into its JSON form.
func Dump(doc *deck.Document) (*LayoutDump, error) {
	if _, err := newConfig(doc, nil); err != nil {
		return nil, err
	}
	out := &LayoutDump{Width: doc.Width, Height: doc.Height, Pages: make([]PageDump, len(doc.Pages))}
	for i, p := range doc.Pages {
		out.Pages[i] = dumpPage(p)
	}
	return out, nil
}

// JSON renders the layout dump of a document.
func JSON(doc *deck.Document, opts ...Option) ([]byte, error) {
	c, err := newConfig(doc, opts)
	if err != nil {
		return nil, err
	}
	d, err := Dump(doc)
	if err != nil {
		return nil, err
	}
	var data []byte
	if c.pretty {
		data, err = json.MarshalIndent(d, "", "  ")
	} else {
		data, err = json.Marshal(d)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeRenderFailed, err, "encode layout")
	}
	return data, nil
}

func dumpPage(p *deck.Page) PageDump {
	pd := PageDump{
		Index:   p.Index,
		Name:    p.Name,
		Anchors: make(map[string]Bounds, p.Anchors.Len()),
		Items:   len(p.Items),
	}
	for name, r := range p.Anchors.All() {
		pd.Anchors[name] = bounds(r)
	}
	if p.Tree == nil || p.Layout == nil {
		return pd
	}
	pd.Boxes = make([]BoxDump, 0, p.Tree.Len())
	for i := 0; i < p.Tree.Len(); i++ {
		id := box.NodeID(i)
		n := p.Tree.Node(id)
		bd := BoxDump{
			ID:      int(id),
			Parent:  int(n.Parent),
			Name:    n.Name,
			Stack:   n.Stack.String(),
			Overlay: n.IsOverlay(),
			Kind:    contentKind(n.Content),
			Rect:    bounds(p.Layout.Rects[id]),
			Content: bounds(p.Layout.Content[id]),
		}
		if sh, ok := p.Layout.Text[id]; ok {
			bd.Lines = len(sh.Block.Lines)
		}
		pd.Boxes = append(pd.Boxes, bd)
	}
	return pd
}

func contentKind(c box.Content) string {
	switch c.(type) {
	case *box.TextContent:
		return "text"
	case *box.CodeContent:
		return "code"
	case *box.ImageContent:
		return "image"
	case *box.RectContent:
		return "rect"
	}
	return ""
}
