package deck

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/boxdeck/pkg/box"
	"github.com/matzehuels/boxdeck/pkg/errors"
	"github.com/matzehuels/boxdeck/pkg/geom"
	"github.com/matzehuels/boxdeck/pkg/paint"
	"github.com/matzehuels/boxdeck/pkg/text"
)

// Page is one assembled slide.
type Page struct {
	Index   int
	Name    string
	Width   float64
	Height  float64
	Items   []paint.Item
	Anchors *box.Registry
	Tree    *box.Tree
	Layout  *box.Result
}

// Anchor returns the point at fraction (fx, fy) of a named anchor.
func (p *Page) Anchor(name string, fx, fy float64) (geom.Point, error) {
	return p.Anchors.Point(name, fx, fy)
}

// Document is an immutable sequence of pages.
type Document struct {
	Width  float64
	Height float64
	Pages  []*Page
	Fonts  *text.FontSet // nil when layout used a custom measurer
}

// NewDocument wraps pages, failing with EMPTY_DECK when there are none.
func NewDocument(width, height float64, pages []*Page, fonts *text.FontSet) (*Document, error) {
	if len(pages) == 0 {
		return nil, errors.New(errors.ErrCodeEmptyDeck, "document has no pages")
	}
	return &Document{Width: width, Height: height, Pages: pages, Fonts: fonts}, nil
}

// SlideError is the failure of a single slide.
type SlideError struct {
	Index int
	Name  string
	Err   error
}

func (e *SlideError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("slide %d (%s): %v", e.Index, e.Name, e.Err)
	}
	return fmt.Sprintf("slide %d: %v", e.Index, e.Err)
}

func (e *SlideError) Unwrap() error { return e.Err }

// SlideErrors collects per-slide failures ordered by slide index.
type SlideErrors []*SlideError

func (es SlideErrors) Error() string {
	msgs := make([]string, len(es))
	for i, e := range es {
		msgs[i] = e.Error()
	}
	return strings.Join(msgs, "; ")
}

func (es SlideErrors) Unwrap() []error {
	out := make([]error, len(es))
	for i, e := range es {
		out[i] = e
	}
	return out
}

// Indexes returns the indexes of the failed slides.
func (es SlideErrors) Indexes() []int {
	out := make([]int, len(es))
	for i, e := range es {
		out[i] = e.Index
	}
	return out
}

// Assemble lays out, annotates and paints every slide.
//
// Slides are processed concurrently; a failing slide does not stop the
// others. When some slides fail, Assemble returns a document holding the
// successful pages together with a SlideErrors value. An empty deck fails
// with EMPTY_DECK.
func (d *Deck) Assemble(ctx context.Context) (*Document, error) {
	if len(d.slides) == 0 {
		return nil, errors.New(errors.ErrCodeEmptyDeck, "deck has no slides")
	}
	measurer := d.measurer
	if measurer == nil {
		if d.fonts == nil {
			fs, err := text.NewFontSet()
			if err != nil {
				return nil, err
			}
			d.fonts = fs
		}
		measurer = d.fonts
	}

	pages := make([]*Page, len(d.slides))
	var (
		mu   sync.Mutex
		errs SlideErrors
	)

	var g errgroup.Group
	g.SetLimit(d.workers)
	for i, s := range d.slides {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			start := time.Now()
			page, err := d.assembleSlide(s, measurer)
			if err != nil {
				mu.Lock()
				errs = append(errs, &SlideError{Index: s.index, Name: s.name, Err: err})
				mu.Unlock()
				return nil
			}
			pages[i] = page
			if d.logger != nil {
				d.logger.Debug("slide assembled", "index", s.index, "items", len(page.Items), "anchors", page.Anchors.Len(), "took", time.Since(start))
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var ok []*Page
	for _, p := range pages {
		if p != nil {
			ok = append(ok, p)
		}
	}
	var fonts *text.FontSet
	if d.measurer == nil {
		fonts = d.fonts
	}
	if len(errs) > 0 {
		sort.Slice(errs, func(a, b int) bool { return errs[a].Index < errs[b].Index })
		if len(ok) == 0 {
			return nil, errs
		}
		return &Document{Width: d.width, Height: d.height, Pages: ok, Fonts: fonts}, errs
	}
	return NewDocument(d.width, d.height, ok, fonts)
}

func (d *Deck) assembleSlide(s *Slide, m text.Measurer) (*Page, error) {
	env := box.Env{
		Measurer:  m,
		Tokenizer: d.tokenizer,
		Styles:    s.styles,
		Images:    d.images,
	}
	res, err := box.Layout(s.tree, geom.NewRect(0, 0, d.width, d.height), env)
	if err != nil {
		return nil, err
	}
	notes, err := paint.ResolveAnnotations(res.Anchors, s.lines)
	if err != nil {
		return nil, err
	}
	items := append(paint.Build(s.tree, res), notes...)
	if s.debug {
		items = append(items, paint.DebugBoxes(s.tree, res)...)
	}
	return &Page{
		Index:   s.index,
		Name:    s.name,
		Width:   d.width,
		Height:  d.height,
		Items:   items,
		Anchors: res.Anchors,
		Tree:    s.tree,
		Layout:  res,
	}, nil
}
