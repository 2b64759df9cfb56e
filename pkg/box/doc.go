// Package box implements the slide box tree and its layout resolver.
//
// # Overview
//
// A slide is described by a [Tree]: nested boxes with per-axis sizing
// policies ([geom.Size]), a stacking mode and optional leaf content (text,
// code, an image or a rectangle). Trees are built through [Handle], a small
// fluent API over an arena of nodes:
//
//	t := box.NewTree()
//	row := t.Root().Box(box.Horizontal(), box.Height(geom.Fixed(100)))
//	row.Box(box.Width(geom.Fixed(200))).Text("left")
//	row.FillBox().Text("right")
//
// Construction never fails. Structural problems such as a duplicate anchor
// name or malformed inline markup are recorded on the tree and returned by
// [Tree.Err] and by [Layout], which refuses to resolve a broken tree.
//
// # Layout
//
// [Layout] resolves a tree against a page rectangle:
//
//   - the root receives the page rectangle
//   - Block (vertical) and Row (horizontal) parents allocate Fixed, Percent
//     and content-sized children first and split the remainder among Fill
//     children by weight
//   - the cross axis stretches by default
//   - Overlay children, and children with an explicit main-axis position,
//     are placed over the parent's content rectangle independently of flow
//
// Natural (content) sizes are computed bottom-up only where a box is
// content-sized. A Fill or Percent size met while measuring such a box has
// nothing to be relative to and fails with UNBOUNDED_FILL.
//
// # Anchors
//
// Named boxes and inline anchors ("~#name{...}" inside text or code) are
// registered in the result's [Registry], which answers fractional point
// queries for annotations.
package box
