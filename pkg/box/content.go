package box

import (
	"strings"

	"github.com/matzehuels/boxdeck/pkg/media"
	"github.com/matzehuels/boxdeck/pkg/style"
	"github.com/matzehuels/boxdeck/pkg/text"
)

// Content is the leaf content of a box: *TextContent, *CodeContent,
// *ImageContent or *RectContent.
type Content interface {
	isContent()
}

// TextContent is a run of text with optional inline markup.
type TextContent struct {
	Source   string
	Markup   text.Markup
	Style    string // style table entry; empty means "default"
	Override *style.Partial
}

// CodeContent is a source code block. When Spans is nil the layout's
// tokenizer colors the code.
type CodeContent struct {
	Language string
	Source   string
	Markup   text.Markup
	Spans    []text.Span
	Style    string // defaults to "code"
	Override *style.Partial
}

// Fit controls how an unscaled image fills its box.
type Fit uint8

const (
	FitContain Fit = iota // preserve aspect ratio inside the content rect
	FitFill               // stretch to the content rect
)

// ImageContent is a raster image, loaded from Path unless Image is set.
type ImageContent struct {
	Path  string
	Image *media.Image
	Scale float64 // > 0 draws the image at intrinsic size times Scale
	Fit   Fit
}

// RectContent is a rectangle covering the content rect.
type RectContent struct {
	Paint
}

func (*TextContent) isContent()  {}
func (*CodeContent) isContent()  {}
func (*ImageContent) isContent() {}
func (*RectContent) isContent()  {}

// TextOption configures text and code content.
type TextOption func(*textOpts)

type textOpts struct {
	style    string
	override *style.Partial
	tabWidth int
}

// WithStyle selects a style table entry.
func WithStyle(name string) TextOption {
	return func(o *textOpts) { o.style = name }
}

// WithOverride applies p over the selected style.
func WithOverride(p style.Partial) TextOption {
	return func(o *textOpts) { o.override = &p }
}

// WithTabWidth sets the tab expansion width for code (default 4).
func WithTabWidth(n int) TextOption {
	return func(o *textOpts) { o.tabWidth = n }
}

// ImageOption configures image content.
type ImageOption func(*ImageContent)

// ImageScale draws the image at its intrinsic size times f.
func ImageScale(f float64) ImageOption {
	return func(c *ImageContent) { c.Scale = f }
}

// ImageFit sets the fit mode for unscaled images.
func ImageFit(f Fit) ImageOption {
	return func(c *ImageContent) { c.Fit = f }
}

// ParseFit parses "contain" or "fill".
func ParseFit(s string) Fit {
	if strings.EqualFold(s, "fill") || strings.EqualFold(s, "stretch") {
		return FitFill
	}
	return FitContain
}

func applyTextOpts(opts []TextOption) textOpts {
	o := textOpts{tabWidth: 4}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
