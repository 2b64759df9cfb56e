package render

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"math"

	"github.com/fogleman/gg"
	"golang.org/x/image/font"

	"github.com/matzehuels/boxdeck/pkg/deck"
	"github.com/matzehuels/boxdeck/pkg/errors"
	"github.com/matzehuels/boxdeck/pkg/media"
	"github.com/matzehuels/boxdeck/pkg/paint"
	"github.com/matzehuels/boxdeck/pkg/style"
	"github.com/matzehuels/boxdeck/pkg/text"
)

// PNG rasterizes every page and encodes it as PNG.
func PNG(doc *deck.Document, opts ...Option) ([][]byte, error) {
	c, err := newConfig(doc, opts)
	if err != nil {
		return nil, err
	}
	fs, err := c.fontSet(doc)
	if err != nil {
		return nil, err
	}
	out := make([][]byte, len(doc.Pages))
	for i, p := range doc.Pages {
		img, err := rasterize(p, fs, c.scale)
		if err != nil {
			return nil, err
		}
		var buf bytes.Buffer
		if err := png.Encode(&buf, img); err != nil {
			return nil, errors.Wrap(errors.ErrCodeRenderFailed, err, "encode page %d", p.Index)
		}
		out[i] = buf.Bytes()
	}
	return out, nil
}

// Rasterize draws a page into an image of size (Width*scale, Height*scale).
// The page background is white.
func Rasterize(p *deck.Page, fs *text.FontSet, scale float64) (image.Image, error) {
	if scale <= 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "scale must be positive, got %g", scale)
	}
	return rasterize(p, fs, scale)
}

func rasterize(p *deck.Page, fs *text.FontSet, scale float64) (image.Image, error) {
	w, h := int(math.Ceil(p.Width*scale)), int(math.Ceil(p.Height*scale))
	if w <= 0 || h <= 0 {
		return nil, errors.New(errors.ErrCodeRenderFailed, "page %d has no area", p.Index)
	}
	c := &rasterCanvas{
		dc:    gg.NewContext(w, h),
		fonts: fs,
		scale: scale,
		faces: make(map[faceKey]font.Face),
	}
	defer c.close()
	c.dc.SetColor(color.White)
	c.dc.Clear()
	c.dc.Scale(scale, scale)
	if err := paint.Replay(p.Items, c); err != nil {
		return nil, errors.Wrap(errors.ErrCodeRenderFailed, err, "rasterize page %d", p.Index)
	}
	return c.dc.Image(), nil
}

type faceKey struct {
	font string
	v    text.Variant
	size float64
}

// rasterCanvas draws onto a gg context whose matrix maps layout units to
// pixels. gg does not scale line widths or font faces with the matrix, so
// both are scaled here.
type rasterCanvas struct {
	dc    *gg.Context
	fonts *text.FontSet
	scale float64
	faces map[faceKey]font.Face
}

func (c *rasterCanvas) close() {
	for _, f := range c.faces {
		f.Close()
	}
}

func (c *rasterCanvas) DrawRect(it *paint.RectItem) error {
	r, p := it.Rect, it.Paint
	radius := math.Max(p.RX, p.RY)
	path := func() {
		if radius > 0 {
			c.dc.DrawRoundedRectangle(r.X, r.Y, r.W, r.H, radius)
		} else {
			c.dc.DrawRectangle(r.X, r.Y, r.W, r.H)
		}
	}
	if p.Fill.A > 0 {
		path()
		c.dc.SetColor(nrgba(p.Fill))
		c.dc.Fill()
	}
	if p.StrokeWidth > 0 && p.Stroke.A > 0 {
		path()
		c.dc.SetColor(nrgba(p.Stroke))
		c.dc.SetLineWidth(p.StrokeWidth * c.scale)
		c.dc.Stroke()
	}
	return nil
}

func (c *rasterCanvas) DrawText(it *paint.TextItem) error {
	for _, r := range it.Runs {
		if r.Text == "" {
			continue
		}
		f, err := c.face(r.Style)
		if err != nil {
			return err
		}
		c.dc.SetFontFace(f)
		c.dc.SetColor(nrgba(r.Style.Color))
		c.dc.DrawString(r.Text, r.Origin.X, r.Origin.Y)
	}
	return nil
}

func (c *rasterCanvas) DrawImage(it *paint.ImageItem) error {
	d := it.Dest
	x, y := d.X*c.scale, d.Y*c.scale
	w, h := int(math.Round(d.W*c.scale)), int(math.Round(d.H*c.scale))
	if w <= 0 || h <= 0 {
		return nil
	}
	img := it.Image.Img
	if w != it.Image.Width || h != it.Image.Height {
		img = media.Scale(img, w, h)
	}
	c.dc.Push()
	c.dc.Identity()
	c.dc.DrawImage(img, int(math.Round(x)), int(math.Round(y)))
	c.dc.Pop()
	return nil
}

func (c *rasterCanvas) DrawLine(it *paint.LineItem) error {
	if len(it.Points) > 1 {
		c.dc.SetLineCapRound()
		c.dc.SetLineJoinRound()
		c.dc.SetLineWidth(it.Width * c.scale)
		c.dc.SetColor(nrgba(it.Color))
		c.dc.MoveTo(it.Points[0].X, it.Points[0].Y)
		for _, p := range it.Points[1:] {
			c.dc.LineTo(p.X, p.Y)
		}
		c.dc.Stroke()
	}
	for _, head := range it.Heads {
		c.dc.MoveTo(head[0].X, head[0].Y)
		c.dc.LineTo(head[1].X, head[1].Y)
		c.dc.LineTo(head[2].X, head[2].Y)
		c.dc.ClosePath()
		c.dc.SetColor(nrgba(it.Color))
		c.dc.Fill()
	}
	return nil
}

func (c *rasterCanvas) face(st style.Style) (font.Face, error) {
	k := faceKey{st.Font, text.VariantOf(st), st.Size}
	if f, ok := c.faces[k]; ok {
		return f, nil
	}
	f, err := c.fonts.NewFace(st, c.scale)
	if err != nil {
		return nil, err
	}
	c.faces[k] = f
	return f, nil
}

// nrgba reinterprets a style color, which is stored non-premultiplied.
func nrgba(c color.RGBA) color.NRGBA {
	return color.NRGBA{R: c.R, G: c.G, B: c.B, A: c.A}
}
