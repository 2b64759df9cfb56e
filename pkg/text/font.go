// Package text measures and shapes slide text.
//
// It provides the font metrics provider used by layout ([FontSet], built on
// golang.org/x/image/font/opentype and the Go font family), the inline markup
// parser ("~name{...}" style groups and "~#name{...}" inline anchors) and the
// line shaper that turns styled pieces into positioned glyph runs.
package text

import (
	"os"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gobolditalic"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/gomonobold"
	"golang.org/x/image/font/gofont/gomonobolditalic"
	"golang.org/x/image/font/gofont/gomonoitalic"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"

	"github.com/matzehuels/boxdeck/pkg/errors"
	"github.com/matzehuels/boxdeck/pkg/style"
)

// Span is a run of source text with optional style overrides, as produced
// by a syntax tokenizer.
type Span struct {
	Text  string
	Style style.Partial
}

// Tokenizer splits source code into styled spans.
type Tokenizer interface {
	Tokenize(language, src string) ([]Span, error)
}

// Variant selects a face within a family.
type Variant uint8

const (
	Regular Variant = iota
	Bold
	Italic
	BoldItalic
)

// VariantOf returns the variant matching a style's bold and italic flags.
func VariantOf(st style.Style) Variant {
	switch {
	case st.Bold && st.Italic:
		return BoldItalic
	case st.Bold:
		return Bold
	case st.Italic:
		return Italic
	default:
		return Regular
	}
}

type fontKey struct {
	family  string
	variant Variant
}

type faceKey struct {
	fontKey
	size float64
}

// FontSet holds parsed fonts and a cache of sized faces. Unknown families
// fall back to sans; missing variants fall back to the family's regular face.
type FontSet struct {
	mu    sync.Mutex
	fonts map[fontKey]*opentype.Font
	data  map[fontKey][]byte
	faces map[faceKey]font.Face
}

// NewFontSet returns a FontSet with the Go fonts registered as "sans" and
// "mono".
func NewFontSet() (*FontSet, error) {
	fs := &FontSet{
		fonts: make(map[fontKey]*opentype.Font),
		data:  make(map[fontKey][]byte),
		faces: make(map[faceKey]font.Face),
	}
	builtin := []struct {
		family  string
		variant Variant
		ttf     []byte
	}{
		{style.FamilySans, Regular, goregular.TTF},
		{style.FamilySans, Bold, gobold.TTF},
		{style.FamilySans, Italic, goitalic.TTF},
		{style.FamilySans, BoldItalic, gobolditalic.TTF},
		{style.FamilyMono, Regular, gomono.TTF},
		{style.FamilyMono, Bold, gomonobold.TTF},
		{style.FamilyMono, Italic, gomonoitalic.TTF},
		{style.FamilyMono, BoldItalic, gomonobolditalic.TTF},
	}
	for _, b := range builtin {
		if err := fs.Register(b.family, b.variant, b.ttf); err != nil {
			return nil, err
		}
	}
	return fs, nil
}

// Register parses a TrueType or OpenType font and adds it under family.
func (fs *FontSet) Register(family string, v Variant, data []byte) error {
	f, err := opentype.Parse(data)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "parse font %s", family)
	}
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.fonts[fontKey{family, v}] = f
	fs.data[fontKey{family, v}] = data
	for k := range fs.faces {
		if k.family == family {
			delete(fs.faces, k)
		}
	}
	return nil
}

// RegisterFile reads and registers a font file.
func (fs *FontSet) RegisterFile(family string, v Variant, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return errors.Wrap(errors.ErrCodeFileNotFound, err, "font %s", path)
		}
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "read font %s", path)
	}
	return fs.Register(family, v, data)
}

// HasFamily reports whether a family has a regular face.
func (fs *FontSet) HasFamily(family string) bool {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	_, ok := fs.fonts[fontKey{family, Regular}]
	return ok
}

func (fs *FontSet) resolve(family string, v Variant) (fontKey, bool) {
	for _, k := range []fontKey{{family, v}, {family, Regular}, {style.FamilySans, v}, {style.FamilySans, Regular}} {
		if _, ok := fs.fonts[k]; ok {
			return k, true
		}
	}
	return fontKey{}, false
}

func (fs *FontSet) lookup(family string, v Variant) *opentype.Font {
	if k, ok := fs.resolve(family, v); ok {
		return fs.fonts[k]
	}
	return nil
}

// Source returns the font file that faces for st are built from, along with
// the family and variant it resolved to after fallback. Vector outputs embed
// this data.
func (fs *FontSet) Source(st style.Style) (family string, v Variant, data []byte, ok bool) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	k, ok := fs.resolve(st.Font, VariantOf(st))
	if !ok {
		return "", Regular, nil, false
	}
	return k.family, k.variant, fs.data[k], true
}

// NewFace returns a new face for st scaled by scale. The caller owns the
// face; faces are not safe for concurrent use.
func (fs *FontSet) NewFace(st style.Style, scale float64) (font.Face, error) {
	fs.mu.Lock()
	f := fs.lookup(st.Font, VariantOf(st))
	fs.mu.Unlock()
	if f == nil {
		return nil, errors.New(errors.ErrCodeInternal, "no font for family %q", st.Font)
	}
	return opentype.NewFace(f, &opentype.FaceOptions{
		Size:    st.Size * scale,
		DPI:     72,
		Hinting: font.HintingNone,
	})
}

// face returns a cached face. Must be called with fs.mu held.
func (fs *FontSet) face(st style.Style) font.Face {
	k := faceKey{fontKey{st.Font, VariantOf(st)}, st.Size}
	if f, ok := fs.faces[k]; ok {
		return f
	}
	base := fs.lookup(st.Font, VariantOf(st))
	if base == nil {
		return nil
	}
	f, err := opentype.NewFace(base, &opentype.FaceOptions{Size: st.Size, DPI: 72, Hinting: font.HintingNone})
	if err != nil {
		return nil
	}
	fs.faces[k] = f
	return f
}

// Advance returns the width of s in pixels.
func (fs *FontSet) Advance(s string, st style.Style) float64 {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	f := fs.face(st)
	if f == nil {
		return 0
	}
	return toFloat(font.MeasureString(f, s))
}

// Metrics returns the vertical metrics of st.
func (fs *FontSet) Metrics(st style.Style) Metrics {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	spacing := st.LineSpacing
	if spacing <= 0 {
		spacing = 1
	}
	f := fs.face(st)
	if f == nil {
		return Metrics{Ascent: st.Size * 0.8, Descent: st.Size * 0.2, LineHeight: st.Size * spacing}
	}
	m := f.Metrics()
	return Metrics{
		Ascent:     toFloat(m.Ascent),
		Descent:    toFloat(m.Descent),
		LineHeight: st.Size * spacing,
	}
}

func toFloat(v fixed.Int26_6) float64 {
	return float64(v) / 64
}

// Fixed is a deterministic Measurer: every rune advances Size*0.5 pixels,
// ascent is 0.8*Size and descent 0.2*Size. It is used for headless layout
// and tests.
type Fixed struct{}

func (Fixed) Advance(s string, st style.Style) float64 {
	n := 0
	for range s {
		n++
	}
	return float64(n) * st.Size * 0.5
}

func (Fixed) Metrics(st style.Style) Metrics {
	spacing := st.LineSpacing
	if spacing <= 0 {
		spacing = 1
	}
	return Metrics{Ascent: st.Size * 0.8, Descent: st.Size * 0.2, LineHeight: st.Size * spacing}
}
