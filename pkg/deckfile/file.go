// Package deckfile loads decks from TOML or YAML files.
//
// A deck file declares the page size, user fonts, deck-wide styles and an
// ordered list of slides, each a box tree plus line annotations:
//
//	width = 1920
//	height = 1080
//
//	[styles.title]
//	size = 72
//	bold = true
//
//	[[slides]]
//	name = "intro"
//	[slides.root]
//	padding = 40
//	[[slides.root.children]]
//	name = "title"
//	text = "Hello ~#who{world}"
//	style = "title"
//
// [Parse] and [Load] decode a file; [File.Build] turns it into a
// [deck.Deck]. Every decoding problem is reported as an INVALID_DECK error
// naming the offending element.
package deckfile

import (
	"bytes"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/matzehuels/boxdeck/pkg/errors"
)

// Supported syntaxes.
const (
	SyntaxTOML = "toml"
	SyntaxYAML = "yaml"
)

// File is a decoded deck file.
type File struct {
	Width  float64              `toml:"width" yaml:"width"`
	Height float64              `toml:"height" yaml:"height"`
	Fonts  map[string]FontSpec  `toml:"fonts" yaml:"fonts"`
	Styles map[string]StyleSpec `toml:"styles" yaml:"styles"`
	Slides []SlideSpec          `toml:"slides" yaml:"slides"`

	// DebugBoxes outlines every box on slides that do not set their own
	// debug_boxes.
	DebugBoxes bool `toml:"debug_boxes" yaml:"debug_boxes"`

	base      string
	sandboxed bool
}

// FontSpec lists the font files of one family. Missing variants fall back
// to Regular.
type FontSpec struct {
	Regular    string `toml:"regular" yaml:"regular"`
	Bold       string `toml:"bold" yaml:"bold"`
	Italic     string `toml:"italic" yaml:"italic"`
	BoldItalic string `toml:"bold_italic" yaml:"bold_italic"`
}

// StyleSpec is a partial text style.
type StyleSpec struct {
	Font        *string  `toml:"font" yaml:"font"`
	Size        *float64 `toml:"size" yaml:"size"`
	Color       *string  `toml:"color" yaml:"color"`
	Align       *string  `toml:"align" yaml:"align"`
	Bold        *bool    `toml:"bold" yaml:"bold"`
	Italic      *bool    `toml:"italic" yaml:"italic"`
	LineSpacing *float64 `toml:"line_spacing" yaml:"line_spacing"`
}

// SlideSpec is one slide.
type SlideSpec struct {
	Name   string               `toml:"name" yaml:"name"`
	Styles map[string]StyleSpec `toml:"styles" yaml:"styles"`
	Root   NodeSpec             `toml:"root" yaml:"root"`
	Lines  []LineSpec           `toml:"lines" yaml:"lines"`

	DebugBoxes *bool `toml:"debug_boxes" yaml:"debug_boxes"`
}

// NodeSpec is one box. At most one of Text, Code, Image and Rect may be set.
type NodeSpec struct {
	Name    string `toml:"name" yaml:"name"`
	Width   Value  `toml:"width" yaml:"width"`
	Height  Value  `toml:"height" yaml:"height"`
	X       Value  `toml:"x" yaml:"x"`
	Y       Value  `toml:"y" yaml:"y"`
	Stack   string `toml:"stack" yaml:"stack"`
	Overlay bool   `toml:"overlay" yaml:"overlay"`
	Padding Edges  `toml:"padding" yaml:"padding"`

	Background  string  `toml:"bg" yaml:"bg"`
	Border      string  `toml:"border" yaml:"border"`
	BorderWidth float64 `toml:"border_width" yaml:"border_width"`
	Radius      float64 `toml:"radius" yaml:"radius"`

	Text     *string    `toml:"text" yaml:"text"`
	Code     *string    `toml:"code" yaml:"code"`
	Language string     `toml:"language" yaml:"language"`
	TabWidth int        `toml:"tab_width" yaml:"tab_width"`
	Style    string     `toml:"style" yaml:"style"`
	Override *StyleSpec `toml:"override" yaml:"override"`
	Image    string     `toml:"image" yaml:"image"`
	Scale    float64    `toml:"scale" yaml:"scale"`
	Fit      string     `toml:"fit" yaml:"fit"`
	Rect     *RectSpec  `toml:"rect" yaml:"rect"`

	Children []NodeSpec `toml:"children" yaml:"children"`
}

// RectSpec is rectangle content.
type RectSpec struct {
	Fill        string  `toml:"fill" yaml:"fill"`
	Stroke      string  `toml:"stroke" yaml:"stroke"`
	StrokeWidth float64 `toml:"stroke_width" yaml:"stroke_width"`
	Radius      float64 `toml:"radius" yaml:"radius"`
}

// LineSpec is a line annotation.
type LineSpec struct {
	Points     []PointSpec `toml:"points" yaml:"points"`
	Width      float64     `toml:"width" yaml:"width"`
	Color      string      `toml:"color" yaml:"color"`
	StartArrow float64     `toml:"start_arrow" yaml:"start_arrow"`
	EndArrow   float64     `toml:"end_arrow" yaml:"end_arrow"`
}

// PointSpec is an absolute point (X, Y) or a point inside an anchor at
// fraction (FX, FY), which defaults to the anchor's center. DX and DY
// offset either form.
type PointSpec struct {
	X      float64 `toml:"x" yaml:"x"`
	Y      float64 `toml:"y" yaml:"y"`
	Anchor string  `toml:"anchor" yaml:"anchor"`
	FX     *Value  `toml:"fx" yaml:"fx"`
	FY     *Value  `toml:"fy" yaml:"fy"`
	DX     float64 `toml:"dx" yaml:"dx"`
	DY     float64 `toml:"dy" yaml:"dy"`
}

// Value is a scalar written either as a number or as a string such as
// "50%", "fill" or "fill(2)".
type Value string

// UnmarshalTOML implements toml.Unmarshaler.
func (v *Value) UnmarshalTOML(data any) error {
	s, err := scalar(data)
	if err != nil {
		return err
	}
	*v = Value(s)
	return nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (v *Value) UnmarshalYAML(n *yaml.Node) error {
	if n.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: expected a number or string", n.Line)
	}
	*v = Value(n.Value)
	return nil
}

// Edges is padding written as one number, [vertical, horizontal] or
// [top, right, bottom, left].
type Edges []float64

// UnmarshalTOML implements toml.Unmarshaler.
func (e *Edges) UnmarshalTOML(data any) error {
	if list, ok := data.([]any); ok {
		out := make(Edges, len(list))
		for i, x := range list {
			s, err := scalar(x)
			if err != nil {
				return err
			}
			f, err := strconv.ParseFloat(s, 64)
			if err != nil {
				return fmt.Errorf("padding: %q is not a number", s)
			}
			out[i] = f
		}
		*e = out
		return nil
	}
	s, err := scalar(data)
	if err != nil {
		return err
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("padding: %q is not a number", s)
	}
	*e = Edges{f}
	return nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (e *Edges) UnmarshalYAML(n *yaml.Node) error {
	switch n.Kind {
	case yaml.ScalarNode:
		var f float64
		if err := n.Decode(&f); err != nil {
			return err
		}
		*e = Edges{f}
		return nil
	case yaml.SequenceNode:
		var fs []float64
		if err := n.Decode(&fs); err != nil {
			return err
		}
		*e = fs
		return nil
	}
	return fmt.Errorf("line %d: padding must be a number or a list", n.Line)
}

func scalar(data any) (string, error) {
	switch x := data.(type) {
	case string:
		return x, nil
	case int64:
		return strconv.FormatInt(x, 10), nil
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64), nil
	}
	return "", fmt.Errorf("expected a number or string, got %T", data)
}

// Option configures how a file resolves the paths it references.
type Option func(*File)

// BaseDir resolves relative image and font paths against dir.
func BaseDir(dir string) Option {
	return func(f *File) { f.base = dir }
}

// Sandboxed restricts image and font paths to relative paths below the base
// directory. Without a base directory no file may be referenced at all.
func Sandboxed() Option {
	return func(f *File) { f.sandboxed = true }
}

// Parse decodes a deck file in the given syntax ("toml" or "yaml").
// Unknown keys are rejected.
func Parse(data []byte, syntax string, opts ...Option) (*File, error) {
	var f File
	switch strings.ToLower(syntax) {
	case SyntaxTOML:
		md, err := toml.Decode(string(data), &f)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidDeck, err, "decode toml")
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			keys := make([]string, len(undecoded))
			for i, k := range undecoded {
				keys[i] = k.String()
			}
			return nil, errors.New(errors.ErrCodeInvalidDeck, "unknown keys: %s", strings.Join(keys, ", "))
		}
	case SyntaxYAML, "yml", "json":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&f); err != nil && err != io.EOF {
			return nil, errors.Wrap(errors.ErrCodeInvalidDeck, err, "decode yaml")
		}
	default:
		return nil, errors.New(errors.ErrCodeInvalidFormat, "unsupported deck syntax %q (want toml or yaml)", syntax)
	}
	for _, opt := range opts {
		opt(&f)
	}
	return &f, nil
}

// Load reads and decodes a deck file, choosing the syntax from its
// extension. Relative paths inside the file resolve against its directory.
func Load(path string, opts ...Option) (*File, error) {
	syntax, err := SyntaxFromPath(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "deck file %s", path)
		}
		return nil, errors.Wrap(errors.ErrCodeInvalidDeck, err, "read %s", path)
	}
	return Parse(data, syntax, append([]Option{BaseDir(filepath.Dir(path))}, opts...)...)
}

// SyntaxFromPath maps a file extension to a syntax.
func SyntaxFromPath(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return SyntaxTOML, nil
	case ".yaml", ".yml", ".json":
		return SyntaxYAML, nil
	}
	return "", errors.New(errors.ErrCodeInvalidFormat, "cannot infer deck syntax from %q (want .toml, .yaml or .yml)", path)
}

// SyntaxFromContentType maps a MIME type to a syntax. JSON is decoded as
// YAML.
func SyntaxFromContentType(ct string) (string, error) {
	mt, _, err := mime.ParseMediaType(ct)
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeInvalidFormat, err, "content type %q", ct)
	}
	switch mt {
	case "application/toml", "text/toml", "application/x-toml":
		return SyntaxTOML, nil
	case "application/yaml", "application/x-yaml", "text/yaml", "text/x-yaml", "application/json":
		return SyntaxYAML, nil
	}
	return "", errors.New(errors.ErrCodeInvalidFormat, "unsupported content type %q", mt)
}
