package render

import (
	"bytes"
	"context"
	"fmt"
	"image/color"
	"math"

	"github.com/go-pdf/fpdf"

	"github.com/matzehuels/boxdeck/pkg/deck"
	"github.com/matzehuels/boxdeck/pkg/errors"
	"github.com/matzehuels/boxdeck/pkg/media"
	"github.com/matzehuels/boxdeck/pkg/paint"
	"github.com/matzehuels/boxdeck/pkg/text"
)

// PDF engines reported by [PDFEngine].
const (
	EngineRSVG   = "rsvg"
	EngineVector = "vector"
	EngineRaster = "raster"
)

// PDFEngine names the engine [PDF] uses: rsvg-convert when it is installed,
// otherwise the built-in vector writer. raster selects rasterized pages.
func PDFEngine(raster bool) string {
	switch {
	case raster:
		return EngineRaster
	case HasRSVG():
		return EngineRSVG
	default:
		return EngineVector
	}
}

// PDF renders the document as one multi-page PDF.
//
// Pages are converted from SVG with rsvg-convert when it is installed.
// Otherwise the paint items of each page are drawn as PDF vector graphics
// with the page fonts embedded. With [WithRasterPDF] every page is
// rasterized and embedded as a JPEG image instead.
func PDF(ctx context.Context, doc *deck.Document, opts ...Option) ([]byte, error) {
	c, err := newConfig(doc, opts)
	if err != nil {
		return nil, err
	}
	switch PDFEngine(c.raster) {
	case EngineRSVG:
		pages, err := SVG(doc)
		if err != nil {
			return nil, err
		}
		return rsvgConvert(ctx, pages, "pdf")
	case EngineRaster:
		return rasterPDF(ctx, doc, c)
	default:
		return vectorPDF(ctx, doc, c)
	}
}

// pointsPerPixel maps layout units (CSS pixels at 96 DPI) to PDF points.
const pointsPerPixel = 72.0 / 96.0

func pt(v float64) float64 { return v * pointsPerPixel }

func newPDF(doc *deck.Document) *fpdf.Fpdf {
	first := doc.Pages[0]
	pdf := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "pt",
		Size:           fpdf.SizeType{Wd: pt(first.Width), Ht: pt(first.Height)},
	})
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetMargins(0, 0, 0)
	pdf.SetCreator("boxdeck", true)
	pdf.SetCompression(true)
	return pdf
}

func addPage(pdf *fpdf.Fpdf, p *deck.Page) {
	pdf.AddPageFormat("P", fpdf.SizeType{Wd: pt(p.Width), Ht: pt(p.Height)})
}

func finishPDF(pdf *fpdf.Fpdf) ([]byte, error) {
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, errors.Wrap(errors.ErrCodeRenderFailed, err, "write pdf")
	}
	return buf.Bytes(), nil
}

func vectorPDF(ctx context.Context, doc *deck.Document, c *config) ([]byte, error) {
	fs, err := c.fontSet(doc)
	if err != nil {
		return nil, err
	}
	pdf := newPDF(doc)
	canvas := &pdfCanvas{
		pdf:    pdf,
		fonts:  fs,
		faces:  make(map[string]bool),
		images: make(map[*media.Image]string),
	}
	for _, p := range doc.Pages {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		addPage(pdf, p)
		canvas.reset()
		if err := paint.Replay(p.Items, canvas); err != nil {
			return nil, errors.Wrap(errors.ErrCodeRenderFailed, err, "draw page %d", p.Index)
		}
	}
	return finishPDF(pdf)
}

func rasterPDF(ctx context.Context, doc *deck.Document, c *config) ([]byte, error) {
	fs, err := c.fontSet(doc)
	if err != nil {
		return nil, err
	}
	pdf := newPDF(doc)
	for _, p := range doc.Pages {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		img, err := rasterize(p, fs, c.scale)
		if err != nil {
			return nil, err
		}
		data, err := (&media.Image{Img: img}).JPEG(c.quality)
		if err != nil {
			return nil, err
		}
		name := fmt.Sprintf("page-%d", p.Index)
		opts := fpdf.ImageOptions{ImageType: "JPG"}
		pdf.RegisterImageOptionsReader(name, opts, bytes.NewReader(data))
		addPage(pdf, p)
		pdf.ImageOptions(name, 0, 0, pt(p.Width), pt(p.Height), false, opts, 0, "")
		if pdf.Err() {
			return nil, errors.Wrap(errors.ErrCodeRenderFailed, pdf.Error(), "embed page %d", p.Index)
		}
	}
	return finishPDF(pdf)
}

// variantStyles maps font variants to fpdf style strings.
var variantStyles = [...]string{
	text.Regular:    "",
	text.Bold:       "B",
	text.Italic:     "I",
	text.BoldItalic: "BI",
}

// pdfCanvas draws paint items as PDF path, text and image operators.
// Coordinates are layout units; fpdf works in points.
type pdfCanvas struct {
	pdf    *fpdf.Fpdf
	fonts  *text.FontSet
	faces  map[string]bool // registered "family/style" keys
	images map[*media.Image]string
	alpha  float64
}

// reset restores the graphics state a new page starts with.
func (c *pdfCanvas) reset() {
	c.alpha = 1
	c.pdf.SetLineCapStyle("round")
	c.pdf.SetLineJoinStyle("round")
}

func (c *pdfCanvas) setAlpha(a uint8) {
	v := float64(a) / 255
	if v != c.alpha {
		c.pdf.SetAlpha(v, "Normal")
		c.alpha = v
	}
}

func (c *pdfCanvas) DrawRect(it *paint.RectItem) error {
	r, p := it.Rect, it.Paint
	radius := math.Min(math.Max(p.RX, p.RY), math.Min(r.W, r.H)/2)
	path := func(style string) {
		if radius > 0 {
			c.pdf.RoundedRect(pt(r.X), pt(r.Y), pt(r.W), pt(r.H), pt(radius), "1234", style)
		} else {
			c.pdf.Rect(pt(r.X), pt(r.Y), pt(r.W), pt(r.H), style)
		}
	}
	if p.Fill.A > 0 {
		c.setAlpha(p.Fill.A)
		c.pdf.SetFillColor(rgb(p.Fill))
		path("F")
	}
	if p.StrokeWidth > 0 && p.Stroke.A > 0 {
		c.setAlpha(p.Stroke.A)
		c.pdf.SetDrawColor(rgb(p.Stroke))
		c.pdf.SetLineWidth(pt(p.StrokeWidth))
		path("D")
	}
	return c.pdf.Error()
}

func (c *pdfCanvas) DrawText(it *paint.TextItem) error {
	for _, r := range it.Runs {
		if r.Text == "" {
			continue
		}
		family, v, data, ok := c.fonts.Source(r.Style)
		if !ok {
			return errors.New(errors.ErrCodeInternal, "no font for family %q", r.Style.Font)
		}
		name, style := "boxdeck-"+family, variantStyles[v]
		if key := name + "/" + style; !c.faces[key] {
			c.pdf.AddUTF8FontFromBytes(name, style, data)
			c.faces[key] = true
		}
		c.pdf.SetFont(name, style, pt(r.Style.Size))
		c.setAlpha(r.Style.Color.A)
		c.pdf.SetTextColor(rgb(r.Style.Color))
		c.pdf.Text(pt(r.Origin.X), pt(r.Origin.Y), r.Text)
	}
	return c.pdf.Error()
}

func (c *pdfCanvas) DrawImage(it *paint.ImageItem) error {
	d := it.Dest
	if d.W <= 0 || d.H <= 0 || it.Image == nil || it.Image.Img == nil {
		return nil
	}
	name, ok := c.images[it.Image]
	opts := fpdf.ImageOptions{ImageType: "PNG"}
	if it.Image.MIME == "image/jpeg" && len(it.Image.Data) > 0 {
		opts.ImageType = "JPG"
	}
	if !ok {
		data := it.Image.Data
		if opts.ImageType == "PNG" {
			var err error
			if data, err = it.Image.PNG(); err != nil {
				return err
			}
		}
		name = fmt.Sprintf("img-%d", len(c.images))
		c.pdf.RegisterImageOptionsReader(name, opts, bytes.NewReader(data))
		c.images[it.Image] = name
	}
	c.setAlpha(255)
	c.pdf.ImageOptions(name, pt(d.X), pt(d.Y), pt(d.W), pt(d.H), false, opts, 0, "")
	return c.pdf.Error()
}

func (c *pdfCanvas) DrawLine(it *paint.LineItem) error {
	c.setAlpha(it.Color.A)
	if len(it.Points) > 1 {
		c.pdf.SetDrawColor(rgb(it.Color))
		c.pdf.SetLineWidth(pt(it.Width))
		c.pdf.MoveTo(pt(it.Points[0].X), pt(it.Points[0].Y))
		for _, p := range it.Points[1:] {
			c.pdf.LineTo(pt(p.X), pt(p.Y))
		}
		c.pdf.DrawPath("D")
	}
	for _, head := range it.Heads {
		c.pdf.SetFillColor(rgb(it.Color))
		c.pdf.Polygon([]fpdf.PointType{
			{X: pt(head[0].X), Y: pt(head[0].Y)},
			{X: pt(head[1].X), Y: pt(head[1].Y)},
			{X: pt(head[2].X), Y: pt(head[2].Y)},
		}, "F")
	}
	return c.pdf.Error()
}

func rgb(c color.RGBA) (int, int, int) {
	return int(c.R), int(c.G), int(c.B)
}
