package pipeline

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/boxdeck/pkg/cache"
	"github.com/matzehuels/boxdeck/pkg/deck"
	"github.com/matzehuels/boxdeck/pkg/deckfile"
	"github.com/matzehuels/boxdeck/pkg/errors"
	"github.com/matzehuels/boxdeck/pkg/observability"
	"github.com/matzehuels/boxdeck/pkg/text"
)

// Runner encapsulates pipeline execution with caching.
//
// The Runner is stateless except for the cache and logger; it does not
// store pipeline results. Multiple goroutines can safely use the same
// Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// Execute runs the complete parse → layout → render pipeline with caching.
//
// When some slides fail, Execute renders the remaining pages and returns
// the result together with a [deck.SlideErrors] error. Partial results are
// not cached.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}

	// Stage 1: Parse
	parseStart := time.Now()
	src, f, err := r.Parse(ctx, opts)
	if err != nil {
		return nil, err
	}
	result := &Result{
		Artifacts: make(map[string][][]byte),
		DeckHash:  deckHash(src, f),
	}
	result.Stats.Slides = len(f.Slides)
	result.Stats.ParseTime = time.Since(parseStart)

	missing := r.lookup(ctx, opts, result)
	if len(missing) == 0 {
		result.CacheHit = true
		opts.Logger.Info("served from cache", "formats", opts.Formats, "hash", result.DeckHash[:12])
		return result, nil
	}

	// Stage 2: Layout
	layoutStart := time.Now()
	doc, err := r.Layout(ctx, f, opts)
	var slideErrs deck.SlideErrors
	if err != nil && !(doc != nil && stderrors.As(err, &slideErrs)) {
		return nil, err
	}
	result.Document = doc
	result.SlideErrors = slideErrs
	result.Stats.Pages = len(doc.Pages)
	result.Stats.LayoutTime = time.Since(layoutStart)

	opts.Logger.Info("assembled deck",
		"slides", result.Stats.Slides,
		"pages", result.Stats.Pages,
		"duration", result.Stats.LayoutTime)

	// Stage 3: Render
	renderStart := time.Now()
	artifacts, err := r.Render(ctx, doc, opts, missing)
	if err != nil {
		return nil, err
	}
	result.Stats.RenderTime = time.Since(renderStart)
	for format, data := range artifacts {
		result.Artifacts[format] = data
		if len(slideErrs) == 0 {
			r.store(ctx, opts, result.DeckHash, format, data)
		}
	}

	opts.Logger.Info("rendered outputs",
		"formats", missing,
		"duration", result.Stats.RenderTime)

	if len(slideErrs) > 0 {
		return result, slideErrs
	}
	return result, nil
}

// Parse reads and decodes the deck. It returns the raw source alongside the
// decoded file.
func (r *Runner) Parse(ctx context.Context, opts Options) ([]byte, *deckfile.File, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, nil, err
	}
	source := opts.Path
	if source == "" {
		source = "<inline>"
	}
	hooks := observability.Pipeline()
	hooks.OnParseStart(ctx, source)
	start := time.Now()

	src, f, err := parse(opts)
	slides := 0
	if f != nil {
		slides = len(f.Slides)
	}
	hooks.OnParseComplete(ctx, source, slides, time.Since(start), err)
	return src, f, err
}

func parse(opts Options) ([]byte, *deckfile.File, error) {
	src := opts.Source
	if opts.Path != "" {
		data, err := os.ReadFile(opts.Path)
		if err != nil {
			if os.IsNotExist(err) {
				return nil, nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "deck file %s", opts.Path)
			}
			return nil, nil, errors.Wrap(errors.ErrCodeInvalidDeck, err, "read %s", opts.Path)
		}
		src = data
	}
	fileOpts := []deckfile.Option{deckfile.BaseDir(opts.BaseDir)}
	if opts.Sandboxed {
		fileOpts = append(fileOpts, deckfile.Sandboxed())
	}
	f, err := deckfile.Parse(src, opts.Syntax, fileOpts...)
	if err != nil {
		return nil, nil, err
	}
	return src, f, nil
}

// Layout builds the deck and assembles its pages. Like [deck.Deck.Assemble]
// it may return a partial document together with a [deck.SlideErrors].
func (r *Runner) Layout(ctx context.Context, f *deckfile.File, opts Options) (*deck.Document, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}

	hooks := observability.Pipeline()
	hooks.OnLayoutStart(ctx, len(f.Slides))
	start := time.Now()

	deckOpts := []deck.Option{deck.WithWorkers(opts.Workers), deck.WithLogger(opts.Logger)}
	if opts.Fixed {
		deckOpts = append(deckOpts, deck.WithMeasurer(text.Fixed{}))
	}
	d, err := f.Build(deckOpts...)
	if err != nil {
		hooks.OnLayoutComplete(ctx, 0, 0, time.Since(start), err)
		return nil, err
	}
	doc, err := d.Assemble(ctx)

	pages, failed := 0, 0
	if doc != nil {
		pages = len(doc.Pages)
	}
	var slideErrs deck.SlideErrors
	if stderrors.As(err, &slideErrs) {
		failed = len(slideErrs)
		for _, se := range slideErrs {
			opts.Logger.Warn("slide failed", "index", se.Index, "name", se.Name, "code", errors.GetCode(se), "err", errors.UserMessage(se))
		}
	}
	hooks.OnLayoutComplete(ctx, pages, failed, time.Since(start), err)
	return doc, err
}

// Render encodes the document in the given formats concurrently.
func (r *Runner) Render(ctx context.Context, doc *deck.Document, opts Options, formats []string) (map[string][][]byte, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	hooks := observability.Pipeline()
	hooks.OnRenderStart(ctx, formats)
	start := time.Now()

	out := make([][][]byte, len(formats))
	g, gctx := errgroup.WithContext(ctx)
	for i, format := range formats {
		g.Go(func() error {
			data, err := renderFormat(gctx, doc, opts, format)
			if err != nil {
				return err
			}
			out[i] = data
			return nil
		})
	}
	err := g.Wait()
	hooks.OnRenderComplete(ctx, formats, time.Since(start), err)
	if err != nil {
		return nil, err
	}

	artifacts := make(map[string][][]byte, len(formats))
	for i, format := range formats {
		artifacts[format] = out[i]
	}
	return artifacts, nil
}

// lookup fills result with cached artifacts and returns the formats that
// still need rendering.
func (r *Runner) lookup(ctx context.Context, opts Options, result *Result) []string {
	if opts.NoCache {
		return opts.Formats
	}
	hooks := observability.Cache()
	var missing []string
	for _, format := range opts.Formats {
		key := opts.CacheKey(r.Keyer, result.DeckHash, format)
		var (
			data []byte
			hit  bool
		)
		err := cache.RetryWithBackoff(ctx, func() error {
			var err error
			data, hit, err = r.Cache.Get(ctx, key)
			return err
		})
		if err != nil {
			opts.Logger.Warn("cache read failed", "format", format, "err", err)
		}
		var pages [][]byte
		if err == nil && hit && json.Unmarshal(data, &pages) == nil && len(pages) > 0 {
			hooks.OnCacheHit(ctx, format)
			opts.Logger.Debug("cache hit", "format", format)
			result.Artifacts[format] = pages
			continue
		}
		hooks.OnCacheMiss(ctx, format)
		missing = append(missing, format)
	}
	return missing
}

func (r *Runner) store(ctx context.Context, opts Options, hash, format string, pages [][]byte) {
	if opts.NoCache {
		return
	}
	data, err := json.Marshal(pages)
	if err != nil {
		return
	}
	key := opts.CacheKey(r.Keyer, hash, format)
	if err := r.Cache.Set(ctx, key, data, opts.TTL); err != nil {
		opts.Logger.Warn("cache write failed", "format", format, "err", err)
		return
	}
	observability.Cache().OnCacheSet(ctx, format, len(data))
}

// deckHash identifies a deck by its source and the contents of the files it
// references. Unreadable files are hashed by name only; Build reports them.
func deckHash(src []byte, f *deckfile.File) string {
	parts := [][]byte{src}
	for _, path := range f.Assets() {
		data, err := os.ReadFile(path)
		if err != nil {
			data = nil
		}
		parts = append(parts, []byte(path), []byte(cache.Hash(data)))
	}
	blob, _ := json.Marshal(parts)
	return cache.Hash(blob)
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}
