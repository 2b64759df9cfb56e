package geom

import (
	"fmt"
	"strconv"
	"strings"
)

// SizeKind specifies how a Size is interpreted.
type SizeKind uint8

const (
	SizeDefault SizeKind = iota // Auto on the main axis, stretch otherwise
	SizeAuto                    // Content-determined
	SizeFixed                   // Absolute pixels
	SizePercent                 // Fraction of the parent's content extent
	SizeFill                    // Weighted share of the remaining space
)

// Size is a sizing policy along one axis.
// Value holds pixels for SizeFixed, a fraction for SizePercent and a weight
// for SizeFill; it is unused otherwise.
type Size struct {
	Kind  SizeKind
	Value float64
}

// Auto returns a content-determined Size.
func Auto() Size { return Size{Kind: SizeAuto} }

// Fixed returns a Size of px pixels.
func Fixed(px float64) Size { return Size{Kind: SizeFixed, Value: px} }

// Percent returns a Size that is fraction f of the parent extent (0.5 == 50%).
func Percent(f float64) Size { return Size{Kind: SizePercent, Value: f} }

// Fill returns a Size claiming an equal share of the remaining space.
func Fill() Size { return Size{Kind: SizeFill, Value: 1} }

// FillWeight returns a Size claiming a share of the remaining space
// proportional to w. Non-positive weights are treated as 1.
func FillWeight(w float64) Size {
	if w <= 0 {
		w = 1
	}
	return Size{Kind: SizeFill, Value: w}
}

// IsDefault reports whether s is the zero policy.
func (s Size) IsDefault() bool { return s.Kind == SizeDefault }

// IsRelative reports whether s depends on a bounded parent extent.
func (s Size) IsRelative() bool { return s.Kind == SizePercent || s.Kind == SizeFill }

// Weight returns the fill weight, defaulting to 1.
func (s Size) Weight() float64 {
	if s.Kind != SizeFill || s.Value <= 0 {
		return 1
	}
	return s.Value
}

// String renders s in the syntax accepted by ParseSize.
func (s Size) String() string {
	switch s.Kind {
	case SizeAuto:
		return "auto"
	case SizeFixed:
		return strconv.FormatFloat(s.Value, 'f', -1, 64)
	case SizePercent:
		return strconv.FormatFloat(s.Value*100, 'f', -1, 64) + "%"
	case SizeFill:
		if s.Weight() == 1 {
			return "fill"
		}
		return "fill(" + strconv.FormatFloat(s.Weight(), 'f', -1, 64) + ")"
	default:
		return ""
	}
}

// ParseSize parses the textual size syntax used by deck files:
// "" (default), "auto", "fill", "fill(2)", "50%", "120" and "120px".
func ParseSize(s string) (Size, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	switch {
	case s == "":
		return Size{}, nil
	case s == "auto":
		return Auto(), nil
	case s == "fill":
		return Fill(), nil
	case strings.HasPrefix(s, "fill(") && strings.HasSuffix(s, ")"):
		w, err := strconv.ParseFloat(s[len("fill("):len(s)-1], 64)
		if err != nil || w <= 0 {
			return Size{}, fmt.Errorf("invalid fill weight in %q", s)
		}
		return FillWeight(w), nil
	case strings.HasSuffix(s, "%"):
		p, err := strconv.ParseFloat(strings.TrimSuffix(s, "%"), 64)
		if err != nil {
			return Size{}, fmt.Errorf("invalid percentage %q", s)
		}
		return Percent(p / 100), nil
	default:
		px, err := strconv.ParseFloat(strings.TrimSuffix(s, "px"), 64)
		if err != nil {
			return Size{}, fmt.Errorf("invalid size %q", s)
		}
		return Fixed(px), nil
	}
}

// PosKind specifies how a Position is interpreted.
type PosKind uint8

const (
	PosUnset   PosKind = iota // Flow position / start alignment
	PosFixed                  // Pixels from the parent content origin
	PosPercent                // Fraction of the parent content extent
)

// Position is an explicit offset of a box inside its parent's content rect.
type Position struct {
	Kind  PosKind
	Value float64
}

// At returns a Position px pixels from the parent origin.
func At(px float64) Position { return Position{Kind: PosFixed, Value: px} }

// AtPercent returns a Position at fraction f of the parent extent.
func AtPercent(f float64) Position { return Position{Kind: PosPercent, Value: f} }

// IsSet reports whether p is an explicit position.
func (p Position) IsSet() bool { return p.Kind != PosUnset }

// Resolve returns the offset for a parent extent. Unset positions resolve to 0.
func (p Position) Resolve(extent float64) float64 {
	switch p.Kind {
	case PosFixed:
		return p.Value
	case PosPercent:
		return p.Value * extent
	default:
		return 0
	}
}

// ParsePosition parses "" (unset), "120", "120px" or "25%".
func ParsePosition(s string) (Position, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	switch {
	case s == "":
		return Position{}, nil
	case strings.HasSuffix(s, "%"):
		p, err := strconv.ParseFloat(strings.TrimSuffix(s, "%"), 64)
		if err != nil {
			return Position{}, fmt.Errorf("invalid percentage %q", s)
		}
		return AtPercent(p / 100), nil
	default:
		px, err := strconv.ParseFloat(strings.TrimSuffix(s, "px"), 64)
		if err != nil {
			return Position{}, fmt.Errorf("invalid position %q", s)
		}
		return At(px), nil
	}
}

// ParseFraction parses "50%" or "0.5" into a fraction.
func ParseFraction(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if strings.HasSuffix(s, "%") {
		p, err := strconv.ParseFloat(strings.TrimSuffix(s, "%"), 64)
		if err != nil {
			return 0, fmt.Errorf("invalid percentage %q", s)
		}
		return p / 100, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid fraction %q", s)
	}
	return f, nil
}
