// Package style implements named, inheritable text styles.
//
// A [Table] maps style names to [Partial] records. Every name implicitly
// inherits from "default", so resolving a style flattens the name's partial
// over the default one and the optional call-site override:
//
//	t := style.NewTable()
//	t.Update("title", style.Partial{Size: style.Float(64), Bold: style.Bool(true)})
//	s, err := t.Resolve("title", nil)
//
// Tables are plain values owned by a deck or a slide; [Table.Clone] gives a
// slide its own copy so per-slide edits never leak into other slides.
package style

import (
	"image/color"
	"sort"

	"github.com/matzehuels/boxdeck/pkg/errors"
)

// Well-known style names.
const (
	Default = "default"
	Code    = "code"
)

// Font families provided by the built-in font set.
const (
	FamilySans = "sans"
	FamilyMono = "mono"
)

// HAlign is the horizontal alignment of text lines within a box.
type HAlign uint8

const (
	AlignCenter HAlign = iota
	AlignLeft
	AlignRight
)

func (a HAlign) String() string {
	switch a {
	case AlignLeft:
		return "left"
	case AlignRight:
		return "right"
	default:
		return "center"
	}
}

// ParseAlign parses "left", "center" or "right".
func ParseAlign(s string) (HAlign, error) {
	switch s {
	case "left", "start":
		return AlignLeft, nil
	case "center", "middle", "":
		return AlignCenter, nil
	case "right", "end":
		return AlignRight, nil
	}
	return AlignCenter, errors.New(errors.ErrCodeInvalidInput, "invalid alignment %q", s)
}

// Style is a fully resolved text style.
type Style struct {
	Font        string
	Size        float64
	Color       color.RGBA
	Align       HAlign
	Bold        bool
	Italic      bool
	LineSpacing float64 // multiple of the font's line height
}

// Partial is a set of optional style overrides.
type Partial struct {
	Font        *string
	Size        *float64
	Color       *color.RGBA
	Align       *HAlign
	Bold        *bool
	Italic      *bool
	LineSpacing *float64
}

// Float returns a pointer to v, for building partials.
func Float(v float64) *float64 { return &v }

// Bool returns a pointer to v, for building partials.
func Bool(v bool) *bool { return &v }

// String returns a pointer to v, for building partials.
func String(v string) *string { return &v }

// RGBA returns a pointer to c, for building partials.
func RGBA(c color.RGBA) *color.RGBA { return &c }

// Alignment returns a pointer to a, for building partials.
func Alignment(a HAlign) *HAlign { return &a }

// Merge returns p with every field set in o overriding p's.
func (p Partial) Merge(o Partial) Partial {
	if o.Font != nil {
		p.Font = o.Font
	}
	if o.Size != nil {
		p.Size = o.Size
	}
	if o.Color != nil {
		p.Color = o.Color
	}
	if o.Align != nil {
		p.Align = o.Align
	}
	if o.Bold != nil {
		p.Bold = o.Bold
	}
	if o.Italic != nil {
		p.Italic = o.Italic
	}
	if o.LineSpacing != nil {
		p.LineSpacing = o.LineSpacing
	}
	return p
}

// Apply returns s with p's set fields applied.
func (p Partial) Apply(s Style) Style {
	if p.Font != nil {
		s.Font = *p.Font
	}
	if p.Size != nil {
		s.Size = *p.Size
	}
	if p.Color != nil {
		s.Color = *p.Color
	}
	if p.Align != nil {
		s.Align = *p.Align
	}
	if p.Bold != nil {
		s.Bold = *p.Bold
	}
	if p.Italic != nil {
		s.Italic = *p.Italic
	}
	if p.LineSpacing != nil {
		s.LineSpacing = *p.LineSpacing
	}
	return s
}

// IsZero reports whether no field is set.
func (p Partial) IsZero() bool {
	return p == Partial{}
}

// Base is the style every table starts from.
var Base = Style{
	Font:        FamilySans,
	Size:        32,
	Color:       color.RGBA{A: 0xff},
	Align:       AlignCenter,
	LineSpacing: 1.2,
}

// Table is a set of named style partials.
type Table struct {
	entries map[string]Partial
}

// NewTable returns a table holding "default" (no overrides over [Base]) and
// "code" (monospace, left aligned).
func NewTable() *Table {
	return &Table{entries: map[string]Partial{
		Default: {},
		Code: {
			Font:  String(FamilyMono),
			Align: Alignment(AlignLeft),
		},
	}}
}

// Update merges p into the named entry, creating it if needed.
func (t *Table) Update(name string, p Partial) {
	t.entries[name] = t.entries[name].Merge(p)
}

// Set replaces the named entry with p.
func (t *Table) Set(name string, p Partial) {
	t.entries[name] = p
}

// Get returns the named partial.
func (t *Table) Get(name string) (Partial, bool) {
	p, ok := t.entries[name]
	return p, ok
}

// Has reports whether name is defined.
func (t *Table) Has(name string) bool {
	_, ok := t.entries[name]
	return ok
}

// Resolve flattens Base, "default", the named entry and override, in that
// order. An empty name resolves "default". Unknown names are an
// UNKNOWN_STYLE error.
func (t *Table) Resolve(name string, override *Partial) (Style, error) {
	s := t.entries[Default].Apply(Base)
	if name != "" && name != Default {
		p, ok := t.entries[name]
		if !ok {
			return Style{}, errors.New(errors.ErrCodeUnknownStyle, "unknown style %q", name)
		}
		s = p.Apply(s)
	}
	if override != nil {
		s = override.Apply(s)
	}
	return s, nil
}

// Clone returns an independent copy of t.
func (t *Table) Clone() *Table {
	c := &Table{entries: make(map[string]Partial, len(t.entries))}
	for k, v := range t.entries {
		c.entries[k] = v
	}
	return c
}

// Names returns the defined style names in sorted order.
func (t *Table) Names() []string {
	names := make([]string, 0, len(t.entries))
	for k := range t.entries {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}
