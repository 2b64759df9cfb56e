package box

import (
	"sort"

	"github.com/matzehuels/boxdeck/pkg/errors"
	"github.com/matzehuels/boxdeck/pkg/geom"
)

// Registry maps anchor names to resolved rectangles. It is filled by
// [Layout] and read-only afterwards, so concurrent readers are safe.
type Registry struct {
	rects map[string]geom.Rect
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{rects: make(map[string]geom.Rect)}
}

func (r *Registry) add(name string, rect geom.Rect) {
	r.rects[name] = rect
}

// Rect returns the rectangle registered under name.
func (r *Registry) Rect(name string) (geom.Rect, error) {
	rect, ok := r.rects[name]
	if !ok {
		return geom.Rect{}, errors.New(errors.ErrCodeUnknownAnchor, "unknown anchor %q", name)
	}
	return rect, nil
}

// Point returns the point at fraction (fx, fy) of the named rectangle.
func (r *Registry) Point(name string, fx, fy float64) (geom.Point, error) {
	rect, err := r.Rect(name)
	if err != nil {
		return geom.Point{}, err
	}
	return rect.At(fx, fy), nil
}

// Has reports whether name is registered.
func (r *Registry) Has(name string) bool {
	_, ok := r.rects[name]
	return ok
}

// Names returns the registered names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.rects))
	for n := range r.rects {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of anchors.
func (r *Registry) Len() int { return len(r.rects) }

// All returns a copy of the name to rectangle map.
func (r *Registry) All() map[string]geom.Rect {
	out := make(map[string]geom.Rect, len(r.rects))
	for k, v := range r.rects {
		out[k] = v
	}
	return out
}
