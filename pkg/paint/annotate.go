package paint

import (
	"image/color"
	"math"

	"github.com/matzehuels/boxdeck/pkg/box"
	"github.com/matzehuels/boxdeck/pkg/errors"
	"github.com/matzehuels/boxdeck/pkg/geom"
)

// PointRef is an annotation point: either absolute page coordinates or a
// fractional position inside an anchor, plus an offset.
type PointRef struct {
	Anchor string // empty for absolute points
	FX, FY float64
	DX, DY float64
}

// Abs returns an absolute point.
func Abs(x, y float64) PointRef { return PointRef{DX: x, DY: y} }

// At returns the point at fraction (fx, fy) of the named anchor.
func At(anchor string, fx, fy float64) PointRef {
	return PointRef{Anchor: anchor, FX: fx, FY: fy}
}

// Add returns p offset by (dx, dy).
func (p PointRef) Add(dx, dy float64) PointRef {
	p.DX += dx
	p.DY += dy
	return p
}

// Resolve returns the page coordinates of p.
func (p PointRef) Resolve(reg *box.Registry) (geom.Point, error) {
	if p.Anchor == "" {
		return geom.Point{X: p.DX, Y: p.DY}, nil
	}
	pt, err := reg.Point(p.Anchor, p.FX, p.FY)
	if err != nil {
		return geom.Point{}, err
	}
	return pt.Add(p.DX, p.DY), nil
}

// LineCommand is a deferred line or arrow annotation.
type LineCommand struct {
	Points     []PointRef
	Width      float64
	Color      color.RGBA
	StartArrow float64 // arrowhead length, 0 for none
	EndArrow   float64
}

// LineOption configures a LineCommand.
type LineOption func(*LineCommand)

// StrokeWidth sets the line width.
func StrokeWidth(w float64) LineOption { return func(c *LineCommand) { c.Width = w } }

// Stroke sets the line color.
func Stroke(col color.RGBA) LineOption { return func(c *LineCommand) { c.Color = col } }

// StartArrow draws an arrowhead of the given length at the first point.
func StartArrow(size float64) LineOption { return func(c *LineCommand) { c.StartArrow = size } }

// EndArrow draws an arrowhead of the given length at the last point.
func EndArrow(size float64) LineOption { return func(c *LineCommand) { c.EndArrow = size } }

// Line builds a line command. The default stroke is 2px black.
func Line(points []PointRef, opts ...LineOption) LineCommand {
	c := LineCommand{
		Points: append([]PointRef(nil), points...),
		Width:  2,
		Color:  color.RGBA{A: 0xff},
	}
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// ResolveAnnotations turns line commands into display items. It has no
// side effects; the first failing command aborts with its error.
func ResolveAnnotations(reg *box.Registry, cmds []LineCommand) ([]Item, error) {
	items := make([]Item, 0, len(cmds))
	for i, cmd := range cmds {
		if len(cmd.Points) < 2 {
			return nil, errors.New(errors.ErrCodeInvalidInput, "line %d: need at least two points, got %d", i, len(cmd.Points))
		}
		pts := make([]geom.Point, len(cmd.Points))
		for k, ref := range cmd.Points {
			p, err := ref.Resolve(reg)
			if err != nil {
				return nil, errors.Wrap(errors.ErrCodeUnknownAnchor, err, "line %d point %d", i, k)
			}
			pts[k] = p
		}
		items = append(items, lineItem(cmd, pts))
	}
	return items, nil
}

func lineItem(cmd LineCommand, pts []geom.Point) *LineItem {
	it := &LineItem{Width: cmd.Width, Color: cmd.Color}
	if cmd.StartArrow > 0 {
		head, base := arrowhead(pts[1], pts[0], cmd.StartArrow)
		it.Heads = append(it.Heads, head)
		pts[0] = base
	}
	if n := len(pts); cmd.EndArrow > 0 {
		head, base := arrowhead(pts[n-2], pts[n-1], cmd.EndArrow)
		it.Heads = append(it.Heads, head)
		pts[n-1] = base
	}
	it.Points = pts
	return it
}

// arrowhead returns a triangle with its tip at tip, pointing away from
// from, of the given length and half-width length/2, and the center of its
// base.
func arrowhead(from, tip geom.Point, length float64) ([3]geom.Point, geom.Point) {
	dx, dy := tip.X-from.X, tip.Y-from.Y
	d := math.Hypot(dx, dy)
	if d == 0 {
		return [3]geom.Point{tip, tip, tip}, tip
	}
	ux, uy := dx/d, dy/d
	base := geom.Point{X: tip.X - ux*length, Y: tip.Y - uy*length}
	nx, ny := -uy*length/2, ux*length/2
	return [3]geom.Point{
		tip,
		{X: base.X + nx, Y: base.Y + ny},
		{X: base.X - nx, Y: base.Y - ny},
	}, base
}
