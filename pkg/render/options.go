package render

import (
	"github.com/matzehuels/boxdeck/pkg/deck"
	"github.com/matzehuels/boxdeck/pkg/errors"
	"github.com/matzehuels/boxdeck/pkg/text"
)

// Supported output formats.
const (
	FormatPDF  = "pdf"
	FormatSVG  = "svg"
	FormatPNG  = "png"
	FormatJSON = "json"
)

// Formats lists every supported output format.
var Formats = []string{FormatPDF, FormatSVG, FormatPNG, FormatJSON}

// Option configures rendering.
type Option func(*config)

type config struct {
	scale   float64
	quality int
	raster  bool
	fonts   *text.FontSet
	pretty  bool
}

// WithScale sets the raster scale factor for PNG and raster PDF output
// (default 1, one pixel per layout unit).
func WithScale(s float64) Option {
	return func(c *config) { c.scale = s }
}

// WithQuality sets the JPEG quality of raster PDF pages (default 90).
func WithQuality(q int) Option {
	return func(c *config) { c.quality = q }
}

// WithRasterPDF embeds every PDF page as a JPEG of the rasterized slide
// instead of drawing vector graphics.
func WithRasterPDF() Option {
	return func(c *config) { c.raster = true }
}

// WithFontSet sets the fonts used for rasterizing text. The default is the
// document's own font set, or the built-in Go fonts.
func WithFontSet(fs *text.FontSet) Option {
	return func(c *config) { c.fonts = fs }
}

// WithIndent pretty-prints JSON output.
func WithIndent() Option {
	return func(c *config) { c.pretty = true }
}

func newConfig(doc *deck.Document, opts []Option) (*config, error) {
	if doc == nil || len(doc.Pages) == 0 {
		return nil, errors.New(errors.ErrCodeEmptyDeck, "document has no pages")
	}
	c := &config{scale: 1, quality: 90}
	for _, opt := range opts {
		opt(c)
	}
	if c.scale <= 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "scale must be positive, got %g", c.scale)
	}
	if c.quality < 1 || c.quality > 100 {
		c.quality = 90
	}
	return c, nil
}

// fontSet returns the fonts used for rasterizing.
func (c *config) fontSet(doc *deck.Document) (*text.FontSet, error) {
	if c.fonts != nil {
		return c.fonts, nil
	}
	if doc.Fonts != nil {
		return doc.Fonts, nil
	}
	fs, err := text.NewFontSet()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeRenderFailed, err, "load fonts")
	}
	c.fonts = fs
	return fs, nil
}
