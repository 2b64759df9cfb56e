// Package pkg provides the core libraries for boxdeck slide layout.
//
// # Overview
//
// boxdeck turns slides described as trees of boxes into positioned pages.
// Every box is sized along both axes (fixed, percent, fill or content),
// stacks its children in a row or a column, and may hold text, code, an
// image or a rectangle. Named boxes and marked text become anchors that
// line annotations can point at.
//
// # Architecture
//
// The data flow through boxdeck:
//
//	Deck file (TOML/YAML) or Go code
//	         ↓
//	    [deckfile] package (decode + build)
//	         ↓
//	    [deck] package (per-slide layout, annotation, paint)
//	         ↓
//	    [render] package (SVG, PNG, PDF, JSON)
//
// # Quick Start
//
// Build a deck in code and render it:
//
//	d := deck.New(1280, 720)
//	s := d.NewSlide()
//	s.Root().Box(box.Name("title"), box.Height(geom.Fixed(80))).Text("Hello ~em{world}")
//	s.Root().FillBox(box.Name("body")).Rect(box.Paint{Fill: color.RGBA{A: 255}})
//
//	doc, err := d.Assemble(ctx)
//	pdf, err := render.PDF(ctx, doc)
//
// # Main Packages
//
// ## Layout
//
// [geom] - Points, rectangles, edges and the size and position units.
//
// [box] - The box tree, content kinds, the anchor registry and the two-pass
// layout algorithm.
//
// [text] - Inline markup, fonts, measuring and line shaping.
//
// [style] - Text styles and the cascading style table.
//
// [highlight] - Code tokenization for syntax-highlighted code boxes.
//
// [media] - Image decoding, scaling and a shared image cache.
//
// [paint] - Paint items built from a laid-out tree, plus line annotations.
//
// [deck] - Decks, slides and concurrent document assembly.
//
// ## Input and Output
//
// [deckfile] - The declarative TOML/YAML deck format.
//
// [render] - Output encoders. PDF uses rsvg-convert when available and falls
// back to a built-in vector writer.
//
// ## Infrastructure
//
// [pipeline] - parse → layout → render with caching, used by the CLI and the
// HTTP service.
//
// [cache] - Artifact caching with file, Redis and null backends.
//
// [errors] - Coded errors shared by every stage.
//
// [observability] - Hooks for metrics and tracing.
//
// [buildinfo] - Version information set at build time.
//
// # Testing
//
// Run tests:
//
//	go test ./...                 # All tests
//	go test ./pkg/box/...         # Specific package
//	go test -run Example ./pkg/.. # Examples only
//
// [geom]: https://pkg.go.dev/github.com/matzehuels/boxdeck/pkg/geom
// [box]: https://pkg.go.dev/github.com/matzehuels/boxdeck/pkg/box
// [text]: https://pkg.go.dev/github.com/matzehuels/boxdeck/pkg/text
// [style]: https://pkg.go.dev/github.com/matzehuels/boxdeck/pkg/style
// [highlight]: https://pkg.go.dev/github.com/matzehuels/boxdeck/pkg/highlight
// [media]: https://pkg.go.dev/github.com/matzehuels/boxdeck/pkg/media
// [paint]: https://pkg.go.dev/github.com/matzehuels/boxdeck/pkg/paint
// [deck]: https://pkg.go.dev/github.com/matzehuels/boxdeck/pkg/deck
// [deckfile]: https://pkg.go.dev/github.com/matzehuels/boxdeck/pkg/deckfile
// [render]: https://pkg.go.dev/github.com/matzehuels/boxdeck/pkg/render
// [pipeline]: https://pkg.go.dev/github.com/matzehuels/boxdeck/pkg/pipeline
// [cache]: https://pkg.go.dev/github.com/matzehuels/boxdeck/pkg/cache
// [errors]: https://pkg.go.dev/github.com/matzehuels/boxdeck/pkg/errors
// [observability]: https://pkg.go.dev/github.com/matzehuels/boxdeck/pkg/observability
// [buildinfo]: https://pkg.go.dev/github.com/matzehuels/boxdeck/pkg/buildinfo
package pkg
