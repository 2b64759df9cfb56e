package geom

import "math"

// Axis selects the horizontal or vertical dimension.
type Axis uint8

const (
	Horizontal Axis = iota
	Vertical
)

// Cross returns the other axis.
func (a Axis) Cross() Axis {
	if a == Horizontal {
		return Vertical
	}
	return Horizontal
}

func (a Axis) String() string {
	if a == Horizontal {
		return "horizontal"
	}
	return "vertical"
}

// Point is a position in page coordinates.
type Point struct {
	X, Y float64
}

// Add returns p offset by (dx, dy).
func (p Point) Add(dx, dy float64) Point { return Point{X: p.X + dx, Y: p.Y + dy} }

// Distance returns the Euclidean distance to q.
func (p Point) Distance(q Point) float64 {
	return math.Hypot(q.X-p.X, q.Y-p.Y)
}

// Rect is an axis-aligned rectangle with a top-left origin.
type Rect struct {
	X, Y float64
	W, H float64
}

// NewRect creates a Rect from its origin and dimensions.
func NewRect(x, y, w, h float64) Rect { return Rect{X: x, Y: y, W: w, H: h} }

// Right returns the x coordinate of the right edge.
func (r Rect) Right() float64 { return r.X + r.W }

// Bottom returns the y coordinate of the bottom edge.
func (r Rect) Bottom() float64 { return r.Y + r.H }

// Center returns the center point.
func (r Rect) Center() Point { return Point{X: r.X + r.W/2, Y: r.Y + r.H/2} }

// At returns the point at fraction (fx, fy) of the rectangle; (0, 0) is the
// top-left corner and (1, 1) the bottom-right one.
func (r Rect) At(fx, fy float64) Point {
	return Point{X: r.X + fx*r.W, Y: r.Y + fy*r.H}
}

// Inset shrinks r by e. The result may have negative dimensions.
func (r Rect) Inset(e Edges) Rect {
	return Rect{
		X: r.X + e.Left,
		Y: r.Y + e.Top,
		W: r.W - e.Horizontal(),
		H: r.H - e.Vertical(),
	}
}

// Union returns the smallest rectangle containing r and o.
func (r Rect) Union(o Rect) Rect {
	x0 := math.Min(r.X, o.X)
	y0 := math.Min(r.Y, o.Y)
	x1 := math.Max(r.Right(), o.Right())
	y1 := math.Max(r.Bottom(), o.Bottom())
	return Rect{X: x0, Y: y0, W: x1 - x0, H: y1 - y0}
}

// Translate returns r moved by (dx, dy).
func (r Rect) Translate(dx, dy float64) Rect {
	return Rect{X: r.X + dx, Y: r.Y + dy, W: r.W, H: r.H}
}

// Len returns the extent along an axis.
func (r Rect) Len(a Axis) float64 {
	if a == Horizontal {
		return r.W
	}
	return r.H
}

// Start returns the origin coordinate along an axis.
func (r Rect) Start(a Axis) float64 {
	if a == Horizontal {
		return r.X
	}
	return r.Y
}

// Span builds a Rect from per-axis start and length, with main being the
// axis of (mainStart, mainLen).
func Span(main Axis, mainStart, mainLen, crossStart, crossLen float64) Rect {
	if main == Horizontal {
		return Rect{X: mainStart, Y: crossStart, W: mainLen, H: crossLen}
	}
	return Rect{X: crossStart, Y: mainStart, W: crossLen, H: mainLen}
}

// Edges represents insets for the four sides of a box.
type Edges struct {
	Top, Right, Bottom, Left float64
}

// EdgeAll creates Edges with the same value on all sides.
func EdgeAll(v float64) Edges { return Edges{Top: v, Right: v, Bottom: v, Left: v} }

// EdgeSymmetric creates Edges with vertical and horizontal values.
func EdgeSymmetric(v, h float64) Edges { return Edges{Top: v, Right: h, Bottom: v, Left: h} }

// EdgeTRBL creates Edges in CSS order: top, right, bottom, left.
func EdgeTRBL(t, r, b, l float64) Edges { return Edges{Top: t, Right: r, Bottom: b, Left: l} }

// Horizontal returns Left + Right.
func (e Edges) Horizontal() float64 { return e.Left + e.Right }

// Vertical returns Top + Bottom.
func (e Edges) Vertical() float64 { return e.Top + e.Bottom }

// Along returns the total inset along an axis.
func (e Edges) Along(a Axis) float64 {
	if a == Horizontal {
		return e.Horizontal()
	}
	return e.Vertical()
}

// IsZero reports whether all insets are zero.
func (e Edges) IsZero() bool {
	return e.Top == 0 && e.Right == 0 && e.Bottom == 0 && e.Left == 0
}
