// Package render serializes assembled documents.
//
// # Overview
//
// Every renderer consumes the display list of a [deck.Page] through
// [paint.Replay], so all formats draw the same items in the same order:
//
//   - [SVG] writes one SVG document per page (ajstarks/svgo)
//   - [PNG] rasterizes one PNG per page (fogleman/gg)
//   - [PDF] produces a single multi-page PDF
//   - [JSON] dumps resolved rectangles and anchors for inspection
//
// # PDF Output
//
// [PDF] converts the page SVGs with the external rsvg-convert tool (from
// librsvg) when it is installed. Otherwise the display list is replayed onto
// a go-pdf/fpdf document: rectangles and lines become path operators, text
// runs are set in the embedded TrueType fonts of the document's font set,
// and images are embedded once per source. [WithRasterPDF] instead
// rasterizes every page with gg and embeds it as a JPEG. [PDFEngine]
// reports which of the three is used.
//
//	doc, err := d.Assemble(ctx)
//	pdf, err := render.PDF(ctx, doc)
//	pages, err := render.PNG(doc, render.WithScale(2))
//
// Renderers never mutate the document, and every entry point fails with
// EMPTY_DECK when the document has no pages.
package render
