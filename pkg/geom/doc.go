// Package geom provides the value types shared by the layout engine:
// sizing policies, positions, rectangles, points and edge insets.
//
// # Sizes
//
// A [Size] describes how a box claims space along one axis:
//
//   - [Fixed]: an absolute number of pixels
//   - [Percent]: a fraction of the parent's content extent (0.5 == 50%)
//   - [Fill] / [FillWeight]: a share of the space left over after the
//     non-fill siblings have been allocated
//   - [Auto]: the natural, content-determined size
//
// The zero Size is the default policy. Along the main axis of a stacking
// parent it behaves like [Auto]; along the cross axis, and for overlay
// children, it stretches to the parent's content extent.
//
// Sizes can also be parsed from the strings used by deck files:
//
//	s, err := geom.ParseSize("50%")   // Percent(0.5)
//	s, err := geom.ParseSize("fill")  // Fill()
//	s, err := geom.ParseSize("140")   // Fixed(140)
//
// # Rectangles
//
// [Rect] uses a top-left origin with y growing downwards, matching both SVG
// and raster page coordinates. [Rect.At] interpolates a point inside the
// rectangle, which is how anchors are turned into annotation endpoints.
package geom
