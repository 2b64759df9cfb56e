// Package paint turns a laid-out box tree into a flat display list.
//
// [Build] walks a tree in paint order (background, content, then children,
// with out-of-flow children after their flow siblings) and emits one [Item]
// per drawable. Annotations are resolved separately by [ResolveAnnotations],
// a pure function of an anchor registry and a list of line commands, and
// appended on top. [DebugBoxes] optionally outlines every box on top of
// both. Renderers consume the list through [Replay].
package paint

import (
	"image/color"

	"github.com/matzehuels/boxdeck/pkg/box"
	"github.com/matzehuels/boxdeck/pkg/geom"
	"github.com/matzehuels/boxdeck/pkg/media"
	"github.com/matzehuels/boxdeck/pkg/style"
)

// Item is one entry of a display list.
type Item interface {
	Bounds() geom.Rect
}

// RectItem is a filled and/or stroked rectangle.
type RectItem struct {
	Node  box.NodeID
	Rect  geom.Rect
	Paint box.Paint
}

// GlyphRun is styled text starting at a baseline origin.
type GlyphRun struct {
	Text   string
	Style  style.Style
	Origin geom.Point // left end of the baseline
	Width  float64
	Ascent float64
	Height float64 // line height
}

// TextItem is the text or code content of one box.
type TextItem struct {
	Node box.NodeID
	Code bool
	Box  geom.Rect
	Runs []GlyphRun
}

// ImageItem draws an image into Dest.
type ImageItem struct {
	Node  box.NodeID
	Image *media.Image
	Dest  geom.Rect
}

// LineItem is a polyline with optional arrowheads. Points are already
// shortened so the stroke ends at the arrowhead bases.
type LineItem struct {
	Points []geom.Point
	Width  float64
	Color  color.RGBA
	Heads  [][3]geom.Point // filled triangles, tip first
}

func (it *RectItem) Bounds() geom.Rect  { return it.Rect }
func (it *TextItem) Bounds() geom.Rect  { return it.Box }
func (it *ImageItem) Bounds() geom.Rect { return it.Dest }

func (it *LineItem) Bounds() geom.Rect {
	var r geom.Rect
	first := true
	add := func(p geom.Point) {
		pr := geom.Rect{X: p.X, Y: p.Y}
		if first {
			r, first = pr, false
			return
		}
		r = r.Union(pr)
	}
	for _, p := range it.Points {
		add(p)
	}
	for _, h := range it.Heads {
		for _, p := range h {
			add(p)
		}
	}
	return r
}

// Build produces the display list of a laid-out tree.
func Build(t *box.Tree, res *box.Result) []Item {
	var items []Item
	var walk func(id box.NodeID)
	walk = func(id box.NodeID) {
		n := t.Node(id)
		rect := res.Rects[id]
		if !n.Background.IsZero() {
			items = append(items, &RectItem{Node: id, Rect: rect, Paint: n.Background})
		}
		if it := contentItem(id, n, res); it != nil {
			items = append(items, it)
		}
		for _, c := range t.PaintOrder(id) {
			walk(c)
		}
	}
	walk(box.RootID)
	return items
}

// DebugOutline is the paint [DebugBoxes] strokes each box with.
var DebugOutline = box.Paint{Stroke: color.RGBA{R: 0xe1, G: 0x1d, B: 0x48, A: 0xff}, StrokeWidth: 1}

// DebugBoxes outlines every resolved box rect in paint order. Boxes with no
// area on either axis are skipped.
func DebugBoxes(t *box.Tree, res *box.Result) []Item {
	var items []Item
	var walk func(id box.NodeID)
	walk = func(id box.NodeID) {
		if r := res.Rects[id]; r.W > 0 || r.H > 0 {
			items = append(items, &RectItem{Node: id, Rect: r, Paint: DebugOutline})
		}
		for _, c := range t.PaintOrder(id) {
			walk(c)
		}
	}
	walk(box.RootID)
	return items
}

func contentItem(id box.NodeID, n *box.Node, res *box.Result) Item {
	content := res.Content[id]
	switch c := n.Content.(type) {
	case *box.RectContent:
		if c.Paint.IsZero() {
			return nil
		}
		return &RectItem{Node: id, Rect: content, Paint: c.Paint}
	case *box.TextContent, *box.CodeContent:
		sh, ok := res.Text[id]
		if !ok {
			return nil
		}
		it := &TextItem{Node: id, Code: sh.Code, Box: content}
		for i, l := range sh.Block.Lines {
			o := sh.Block.LineOrigin(i, content)
			base := o.Y + l.Baseline()
			for _, r := range l.Runs {
				it.Runs = append(it.Runs, GlyphRun{
					Text:   r.Text,
					Style:  r.Style,
					Origin: geom.Point{X: o.X + r.X, Y: base},
					Width:  r.Width,
					Ascent: l.Ascent,
					Height: l.Height,
				})
			}
		}
		return it
	case *box.ImageContent:
		im, ok := res.Images[id]
		if !ok {
			return nil
		}
		return &ImageItem{Node: id, Image: im, Dest: imageDest(c, im, content)}
	}
	return nil
}

// imageDest computes where an image is drawn inside rect.
func imageDest(c *box.ImageContent, im *media.Image, rect geom.Rect) geom.Rect {
	w, h := float64(im.Width), float64(im.Height)
	switch {
	case c.Scale > 0:
		w, h = w*c.Scale, h*c.Scale
	case c.Fit == box.FitFill:
		return rect
	default:
		if w > 0 && h > 0 {
			k := rect.W / w
			if rect.H/h < k {
				k = rect.H / h
			}
			w, h = w*k, h*k
		}
	}
	return geom.Rect{X: rect.X + (rect.W-w)/2, Y: rect.Y + (rect.H-h)/2, W: w, H: h}
}

// Canvas receives display list items.
type Canvas interface {
	DrawRect(*RectItem) error
	DrawText(*TextItem) error
	DrawImage(*ImageItem) error
	DrawLine(*LineItem) error
}

// Replay draws items onto c in order.
func Replay(items []Item, c Canvas) error {
	for _, it := range items {
		var err error
		switch x := it.(type) {
		case *RectItem:
			err = c.DrawRect(x)
		case *TextItem:
			err = c.DrawText(x)
		case *ImageItem:
			err = c.DrawImage(x)
		case *LineItem:
			err = c.DrawLine(x)
		}
		if err != nil {
			return err
		}
	}
	return nil
}
