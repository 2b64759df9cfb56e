// Package pipeline runs the load → layout → render pipeline for deck files.
//
// The CLI and the HTTP service both use a [Runner], so caching, logging and
// hooks behave the same at every entry point.
//
// # Stages
//
//  1. Parse: decode the deck file and build the box trees
//  2. Layout: assemble every slide into a page
//  3. Render: encode the document in the requested formats
//
// Rendered artifacts are cached under a hash of the deck source, the files
// it references, and the options that change the output. When every
// requested artifact is cached, parsing and layout are skipped.
//
// # Usage
//
//	runner := pipeline.NewRunner(c, nil, logger)
//	res, err := runner.Execute(ctx, pipeline.Options{
//	    Path:    "talk.toml",
//	    Formats: []string{"pdf"},
//	})
//	var slideErrs deck.SlideErrors
//	if errors.As(err, &slideErrs) && res != nil {
//	    // some slides failed; res holds the rest
//	}
//	pdf := res.Artifacts["pdf"][0]
package pipeline

import (
	"io"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/boxdeck/pkg/buildinfo"
	"github.com/matzehuels/boxdeck/pkg/cache"
	"github.com/matzehuels/boxdeck/pkg/deck"
	"github.com/matzehuels/boxdeck/pkg/deckfile"
	"github.com/matzehuels/boxdeck/pkg/errors"
	"github.com/matzehuels/boxdeck/pkg/render"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI and Server
// =============================================================================

const (
	// DefaultFormat is rendered when no format is requested.
	DefaultFormat = render.FormatPDF

	// DefaultScale is the pixel ratio of PNG output.
	DefaultScale = 1.0

	// DefaultQuality is the JPEG quality of raster PDF pages.
	DefaultQuality = 90
)

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options configures one pipeline run.
type Options struct {
	// Path is a deck file on disk. Its syntax follows the extension and
	// relative references resolve against its directory.
	Path string

	// Source is an in-memory deck, used when Path is empty.
	Source []byte
	// Syntax of Source ("toml" or "yaml").
	Syntax string
	// BaseDir resolves relative references in Source.
	BaseDir string
	// Sandboxed rejects absolute and escaping references.
	Sandboxed bool

	Formats []string
	// Page selects a single page (1-based) for svg and png. Zero renders all.
	Page    int
	Workers int
	Scale   float64
	Quality int
	Raster  bool
	// Fixed lays text out with fixed-advance metrics instead of fonts.
	Fixed bool

	NoCache bool
	TTL     time.Duration

	Logger *log.Logger

	validated bool
}

// Result holds the output of a pipeline run.
type Result struct {
	// Artifacts maps a format to its output. pdf and json hold one entry;
	// svg and png hold one entry per rendered page.
	Artifacts map[string][][]byte

	// Document is the assembled document, nil when every artifact came
	// from the cache.
	Document *deck.Document

	// SlideErrors lists the slides left out of the document.
	SlideErrors deck.SlideErrors

	DeckHash string
	CacheHit bool
	Stats    Stats
}

// Stats contains timing and size statistics.
type Stats struct {
	Slides     int
	Pages      int
	ParseTime  time.Duration
	LayoutTime time.Duration
	RenderTime time.Duration
}

// =============================================================================
// Validation Functions
// =============================================================================

// ValidateFormat checks that a format is valid. Matching ignores case.
func ValidateFormat(format string) error {
	return errors.ValidateFormat(format, render.Formats...)
}

// ValidateFormats checks that all formats are valid.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// =============================================================================
// Options Methods
// =============================================================================

// ValidateAndSetDefaults checks the options and fills in defaults.
// Calling it more than once has no further effect.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if o.Path == "" && len(o.Source) == 0 {
		return errors.New(errors.ErrCodeInvalidInput, "a deck path or source is required")
	}
	if o.Path != "" {
		syntax, err := deckfile.SyntaxFromPath(o.Path)
		if err != nil {
			return err
		}
		o.Syntax = syntax
		o.BaseDir = filepath.Dir(o.Path)
	} else if o.Syntax == "" {
		return errors.New(errors.ErrCodeInvalidFormat, "syntax is required for in-memory decks")
	}

	if len(o.Formats) == 0 {
		o.Formats = []string{DefaultFormat}
	}
	o.Formats = dedupe(o.Formats)
	if err := ValidateFormats(o.Formats); err != nil {
		return err
	}
	if o.Page < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "page must be positive, got %d", o.Page)
	}
	if o.Scale == 0 {
		o.Scale = DefaultScale
	}
	if o.Scale < 0 {
		return errors.New(errors.ErrCodeInvalidInput, "scale must be positive, got %g", o.Scale)
	}
	if o.Quality == 0 {
		o.Quality = DefaultQuality
	}
	if o.TTL == 0 {
		o.TTL = cache.DefaultTTL
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	o.validated = true
	return nil
}

// CacheKey returns the cache key of one format's artifact.
// The json layout dump does not depend on render options and uses a layout key.
func (o *Options) CacheKey(keyer cache.Keyer, deckHash, format string) string {
	if format == render.FormatJSON {
		return keyer.LayoutKey(deckHash, cache.LayoutKeyOpts{
			Measurer: o.measurer(),
			Version:  buildinfo.CacheVersion(),
		})
	}
	return keyer.ArtifactKey(deckHash, o.ArtifactKeyOpts(format))
}

// ArtifactKeyOpts returns cache key options for one format.
func (o *Options) ArtifactKeyOpts(format string) cache.ArtifactKeyOpts {
	k := cache.ArtifactKeyOpts{
		Format:  format,
		Page:    -1,
		Version: buildinfo.CacheVersion() + "+" + o.measurer(),
	}
	switch format {
	case render.FormatPNG:
		k.Scale = o.Scale
		k.Page = o.Page - 1
	case render.FormatSVG:
		k.Page = o.Page - 1
	case render.FormatPDF:
		k.Engine = render.PDFEngine(o.Raster)
	}
	return k
}

func (o *Options) measurer() string {
	if o.Fixed {
		return "fixed"
	}
	return "fonts"
}

// renderOptions translates the options for the render package.
func (o *Options) renderOptions() []render.Option {
	opts := []render.Option{render.WithScale(o.Scale), render.WithQuality(o.Quality), render.WithIndent()}
	if o.Raster {
		opts = append(opts, render.WithRasterPDF())
	}
	return opts
}

func dedupe(formats []string) []string {
	out := make([]string, 0, len(formats))
	for _, f := range formats {
		f = strings.ToLower(strings.TrimSpace(f))
		if !slices.Contains(out, f) {
			out = append(out, f)
		}
	}
	return out
}
