package box

import (
	"image/color"

	"github.com/matzehuels/boxdeck/pkg/errors"
	"github.com/matzehuels/boxdeck/pkg/geom"
)

// NodeID identifies a node within its tree.
type NodeID int32

// RootID is the ID of every tree's root node.
const RootID NodeID = 0

// Stacking is the arrangement of a box's children.
type Stacking uint8

const (
	Block   Stacking = iota // vertical flow
	Row                     // horizontal flow
	Overlay                 // every child covers the content rect
)

func (s Stacking) String() string {
	switch s {
	case Row:
		return "row"
	case Overlay:
		return "overlay"
	default:
		return "block"
	}
}

// ParseStacking parses "block", "row" or "overlay".
func ParseStacking(s string) (Stacking, error) {
	switch s {
	case "", "block", "vertical", "column":
		return Block, nil
	case "row", "horizontal":
		return Row, nil
	case "overlay":
		return Overlay, nil
	}
	return Block, errors.New(errors.ErrCodeInvalidInput, "invalid stacking %q", s)
}

// Axis returns the flow axis of s. Overlay reports Vertical.
func (s Stacking) Axis() geom.Axis {
	if s == Row {
		return geom.Horizontal
	}
	return geom.Vertical
}

// Paint is a filled and stroked rectangle, used for box backgrounds and
// rectangle content.
type Paint struct {
	Fill        color.RGBA
	Stroke      color.RGBA
	StrokeWidth float64
	RX, RY      float64
}

// IsZero reports whether p draws nothing.
func (p Paint) IsZero() bool {
	return p.Fill.A == 0 && (p.Stroke.A == 0 || p.StrokeWidth <= 0)
}

// Node is one box of a tree.
type Node struct {
	ID         NodeID
	Parent     NodeID
	Name       string
	Width      geom.Size
	Height     geom.Size
	X, Y       geom.Position
	Stack      Stacking
	Padding    geom.Edges
	Background Paint
	Children   []NodeID
	Content    Content

	overlay bool
	inline  []string
}

// Size returns the sizing policy along an axis.
func (n *Node) Size(a geom.Axis) geom.Size {
	if a == geom.Horizontal {
		return n.Width
	}
	return n.Height
}

// Pos returns the explicit position along an axis.
func (n *Node) Pos(a geom.Axis) geom.Position {
	if a == geom.Horizontal {
		return n.X
	}
	return n.Y
}

// IsOverlay reports whether the node was created with [Handle.Overlay].
func (n *Node) IsOverlay() bool { return n.overlay }

// Tree is an arena of box nodes rooted at [RootID].
type Tree struct {
	nodes []Node
	names map[string]NodeID
	err   error
}

// NewTree returns a tree holding only a root box.
func NewTree() *Tree {
	return &Tree{
		nodes: []Node{{ID: RootID, Parent: -1}},
		names: make(map[string]NodeID),
	}
}

// Root returns a handle to the root box.
func (t *Tree) Root() Handle { return Handle{t: t, id: RootID} }

// Len returns the number of nodes.
func (t *Tree) Len() int { return len(t.nodes) }

// Node returns the node with the given ID.
func (t *Tree) Node(id NodeID) *Node { return &t.nodes[id] }

// Handle returns a handle to an existing node.
func (t *Tree) Handle(id NodeID) Handle { return Handle{t: t, id: id} }

// Err returns the first structural error recorded during construction.
func (t *Tree) Err() error { return t.err }

// Lookup returns the node that owns an anchor name, either as its box name
// or as an inline anchor inside its content.
func (t *Tree) Lookup(name string) (NodeID, bool) {
	id, ok := t.names[name]
	return id, ok
}

// PaintOrder returns the children of id in drawing order: flow children
// first, then out-of-flow children, each in declaration order.
func (t *Tree) PaintOrder(id NodeID) []NodeID {
	n := &t.nodes[id]
	out := make([]NodeID, 0, len(n.Children))
	for _, c := range n.Children {
		if !t.outOfFlow(c) {
			out = append(out, c)
		}
	}
	for _, c := range n.Children {
		if t.outOfFlow(c) {
			out = append(out, c)
		}
	}
	return out
}

// outOfFlow reports whether a child is placed independently of its flow
// siblings.
func (t *Tree) outOfFlow(id NodeID) bool {
	n := &t.nodes[id]
	if n.overlay {
		return true
	}
	p := &t.nodes[n.Parent]
	return p.Stack == Overlay || n.Pos(p.Stack.Axis()).IsSet()
}

// stretches reports whether an out-of-flow child with a default size fills
// its parent's content rect. Explicitly positioned children keep their
// natural size on both axes.
func (t *Tree) stretches(id NodeID) bool {
	n := &t.nodes[id]
	if n.X.IsSet() || n.Y.IsSet() {
		return false
	}
	return n.overlay || t.nodes[n.Parent].Stack == Overlay
}

func (t *Tree) fail(err error) {
	if t.err == nil {
		t.err = err
	}
}

func (t *Tree) add(parent NodeID) NodeID {
	id := NodeID(len(t.nodes))
	t.nodes = append(t.nodes, Node{ID: id, Parent: parent})
	t.nodes[parent].Children = append(t.nodes[parent].Children, id)
	return id
}

func (t *Tree) claim(name string, id NodeID) bool {
	if err := errors.ValidateAnchorName(name); err != nil {
		t.fail(err)
		return false
	}
	if owner, ok := t.names[name]; ok {
		t.fail(errors.New(errors.ErrCodeDuplicateAnchor, "anchor %q already defined on node %d", name, owner))
		return false
	}
	t.names[name] = id
	return true
}

func (t *Tree) release(name string, id NodeID) {
	if owner, ok := t.names[name]; ok && owner == id {
		delete(t.names, name)
	}
}
