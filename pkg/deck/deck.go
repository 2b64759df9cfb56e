// Package deck assembles slides into a paginated document.
//
// A [Deck] owns a deck-wide style table and an ordered list of slides.
// Every [Slide] is an independent box tree with its own snapshot of the
// style table and its own deferred line annotations. [Deck.Assemble] lays
// out and paints all slides in parallel and returns a [Document] with one
// [Page] per slide.
//
//	d := deck.New(1920, 1080)
//	d.UpdateStyle("default", style.Partial{Font: style.String("sans")})
//	s := d.NewSlide()
//	s.Root().Box(box.Name("title")).Text("Hello")
//	s.Line([]paint.PointRef{paint.Abs(0, 0), paint.At("title", 0, 0.5)}, paint.EndArrow(20))
//	doc, err := d.Assemble(ctx)
package deck

import (
	"runtime"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/boxdeck/pkg/box"
	"github.com/matzehuels/boxdeck/pkg/highlight"
	"github.com/matzehuels/boxdeck/pkg/media"
	"github.com/matzehuels/boxdeck/pkg/paint"
	"github.com/matzehuels/boxdeck/pkg/style"
	"github.com/matzehuels/boxdeck/pkg/text"
)

// Default page size.
const (
	DefaultWidth  = 1920
	DefaultHeight = 1080
)

// Deck is an ordered collection of slides sharing a page size.
type Deck struct {
	width, height float64
	styles        *style.Table
	slides        []*Slide

	workers   int
	fonts     *text.FontSet
	measurer  text.Measurer
	tokenizer text.Tokenizer
	images    *media.Cache
	logger    *log.Logger
}

// Option configures a Deck.
type Option func(*Deck)

// WithWorkers bounds the number of slides laid out concurrently.
// Values below 1 select runtime.NumCPU().
func WithWorkers(n int) Option {
	return func(d *Deck) { d.workers = n }
}

// WithFontSet sets the fonts used for measuring and raster rendering.
func WithFontSet(fs *text.FontSet) Option {
	return func(d *Deck) { d.fonts = fs }
}

// WithMeasurer overrides text measurement, e.g. with [text.Fixed] for
// font-independent layout.
func WithMeasurer(m text.Measurer) Option {
	return func(d *Deck) { d.measurer = m }
}

// WithTokenizer sets the code tokenizer. The default is chroma with the
// "github" theme.
func WithTokenizer(t text.Tokenizer) Option {
	return func(d *Deck) { d.tokenizer = t }
}

// WithImageCache shares an image cache between decks.
func WithImageCache(c *media.Cache) Option {
	return func(d *Deck) { d.images = c }
}

// WithLogger enables per-slide debug logging.
func WithLogger(l *log.Logger) Option {
	return func(d *Deck) { d.logger = l }
}

// New creates an empty deck with the given page size.
func New(width, height float64, opts ...Option) *Deck {
	d := &Deck{
		width:     width,
		height:    height,
		styles:    style.NewTable(),
		tokenizer: highlight.New(highlight.DefaultTheme),
		images:    media.NewCache(),
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.workers < 1 {
		d.workers = runtime.NumCPU()
	}
	return d
}

// Size returns the page size.
func (d *Deck) Size() (float64, float64) { return d.width, d.height }

// Styles returns the deck-wide style table.
func (d *Deck) Styles() *style.Table { return d.styles }

// UpdateStyle merges p into a deck-wide style. Slides created afterwards
// see the change; existing slides keep their snapshot.
func (d *Deck) UpdateStyle(name string, p style.Partial) {
	d.styles.Update(name, p)
}

// SetStyle replaces a deck-wide style.
func (d *Deck) SetStyle(name string, p style.Partial) {
	d.styles.Set(name, p)
}

// Fonts returns the deck's font set, or nil if none was configured.
func (d *Deck) Fonts() *text.FontSet { return d.fonts }

// Slides returns the slides in order.
func (d *Deck) Slides() []*Slide { return d.slides }

// Len returns the number of slides.
func (d *Deck) Len() int { return len(d.slides) }

// SlideOption configures a new slide.
type SlideOption func(*Slide)

// SlideName names a slide for error messages and layout dumps.
func SlideName(name string) SlideOption {
	return func(s *Slide) { s.name = name }
}

// SlideDebugBoxes outlines every box of the slide, drawn on top of its
// content and annotations.
func SlideDebugBoxes(on bool) SlideOption {
	return func(s *Slide) { s.debug = on }
}

// NewSlide appends a slide holding an empty box tree and a snapshot of the
// deck's style table.
func (d *Deck) NewSlide(opts ...SlideOption) *Slide {
	s := &Slide{
		index:  len(d.slides),
		tree:   box.NewTree(),
		styles: d.styles.Clone(),
	}
	for _, opt := range opts {
		opt(s)
	}
	d.slides = append(d.slides, s)
	return s
}

// Slide is one page of a deck under construction.
type Slide struct {
	index  int
	name   string
	tree   *box.Tree
	styles *style.Table
	lines  []paint.LineCommand
	debug  bool
}

// Index returns the slide's position in its deck.
func (s *Slide) Index() int { return s.index }

// Name returns the slide name, if any.
func (s *Slide) Name() string { return s.name }

// Root returns the root box, which covers the whole page.
func (s *Slide) Root() box.Handle { return s.tree.Root() }

// Tree returns the slide's box tree.
func (s *Slide) Tree() *box.Tree { return s.tree }

// Styles returns the slide's own style table.
func (s *Slide) Styles() *style.Table { return s.styles }

// UpdateStyle merges p into a style of this slide only.
func (s *Slide) UpdateStyle(name string, p style.Partial) {
	s.styles.Update(name, p)
}

// SetStyle replaces a style of this slide only.
func (s *Slide) SetStyle(name string, p style.Partial) {
	s.styles.Set(name, p)
}

// Line records a line annotation resolved after layout.
func (s *Slide) Line(points []paint.PointRef, opts ...paint.LineOption) {
	s.lines = append(s.lines, paint.Line(points, opts...))
}

// SetDebugBoxes toggles box outlines for this slide.
func (s *Slide) SetDebugBoxes(on bool) { s.debug = on }

// DebugBoxes reports whether box outlines are drawn.
func (s *Slide) DebugBoxes() bool { return s.debug }

// Lines returns the recorded annotations.
func (s *Slide) Lines() []paint.LineCommand { return s.lines }
