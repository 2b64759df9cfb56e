package render

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/png"
	"strconv"
	"strings"
	"testing"

	"github.com/matzehuels/boxdeck/pkg/box"
	"github.com/matzehuels/boxdeck/pkg/deck"
	"github.com/matzehuels/boxdeck/pkg/errors"
	"github.com/matzehuels/boxdeck/pkg/geom"
	"github.com/matzehuels/boxdeck/pkg/media"
	"github.com/matzehuels/boxdeck/pkg/paint"
	"github.com/matzehuels/boxdeck/pkg/style"
	"github.com/matzehuels/boxdeck/pkg/text"
)

func testDoc(t *testing.T, slides int) *deck.Document {
	t.Helper()
	d := deck.New(320, 180, deck.WithMeasurer(text.Fixed{}), deck.WithWorkers(1))
	for i := 0; i < slides; i++ {
		s := d.NewSlide(deck.SlideName("s" + strconv.Itoa(i)))
		root := s.Root()
		root.SetBackground(box.Paint{Fill: style.MustColor("white")})
		root.Box(box.Name("title"), box.Height(geom.Fixed(40)),
			box.Background(box.Paint{Fill: style.MustColor("#336699"), RX: 4, RY: 4})).Text("a < b")
		root.FillBox().Code("go", "x := 1")
		root.Box(box.Height(geom.Fixed(40))).ImageData(&media.Image{Width: 4, Height: 2, Img: image.NewRGBA(image.Rect(0, 0, 4, 2))})
		s.Line([]paint.PointRef{paint.Abs(10, 170), paint.At("title", 0.5, 1)}, paint.EndArrow(8))
	}
	doc, err := d.Assemble(context.Background())
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	return doc
}

func TestSVG(t *testing.T) {
	pages, err := SVG(testDoc(t, 2))
	if err != nil {
		t.Fatal(err)
	}
	if len(pages) != 2 {
		t.Fatalf("pages = %d", len(pages))
	}
	s := string(pages[0])
	for _, want := range []string{
		`<svg`, `viewBox="0 0 320 180"`, `<title>s0</title>`,
		`<rect`, `rx="4"`, `fill:#336699`,
		`a &lt; b`, `xml:space="preserve"`,
		`<image`, `data:image/png;base64,`,
		`<polyline`, `<polygon`,
		`</svg>`,
	} {
		if !strings.Contains(s, want) {
			t.Errorf("svg missing %q", want)
		}
	}
	if strings.Index(s, "<polyline") < strings.Index(s, "<image") {
		t.Error("annotations must be drawn after content")
	}
}

func TestPNG(t *testing.T) {
	pages, err := PNG(testDoc(t, 1), WithScale(2))
	if err != nil {
		t.Fatal(err)
	}
	img, err := png.Decode(bytes.NewReader(pages[0]))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 640 || b.Dy() != 360 {
		t.Errorf("size = %v, want 640x360", b)
	}
	// Title background, left of the centered text.
	r, g, b, _ := img.At(20, 40).RGBA()
	if r>>8 != 0x33 || g>>8 != 0x66 || b>>8 != 0x99 {
		t.Errorf("title pixel = %x %x %x", r>>8, g>>8, b>>8)
	}
}

func noRSVG(t *testing.T) {
	t.Helper()
	old := rsvgBinary
	rsvgBinary = "boxdeck-no-such-binary"
	t.Cleanup(func() { rsvgBinary = old })
}

func TestRasterPDF(t *testing.T) {
	pdf, err := PDF(context.Background(), testDoc(t, 3), WithRasterPDF(), WithQuality(60))
	if err != nil {
		t.Fatal(err)
	}
	s := string(pdf)
	if !strings.HasPrefix(s, "%PDF-") || !strings.Contains(s, "%%EOF") {
		t.Fatalf("not a pdf: %q...", s[:20])
	}
	if n := strings.Count(s, "/Type /Page\n"); n != 3 {
		t.Errorf("pages = %d, want 3", n)
	}
	if !strings.Contains(s, "/Count 3") || !strings.Contains(s, "/Filter /DCTDecode") {
		t.Error("missing page tree or image filter")
	}
	if !strings.Contains(s, "/MediaBox [0 0 240.00 135.00]") {
		t.Error("media box not converted to points")
	}
	if strings.Contains(s, "/FontFile2") {
		t.Error("raster pages should not embed fonts")
	}
}

func TestVectorPDF(t *testing.T) {
	noRSVG(t)
	if got := PDFEngine(false); got != EngineVector {
		t.Fatalf("PDFEngine = %q, want %q", got, EngineVector)
	}
	pdf, err := PDF(context.Background(), testDoc(t, 2))
	if err != nil {
		t.Fatal(err)
	}
	s := string(pdf)
	if !strings.HasPrefix(s, "%PDF-") {
		t.Fatalf("not a pdf: %q...", s[:20])
	}
	if n := strings.Count(s, "/Type /Page\n"); n != 2 {
		t.Errorf("pages = %d, want 2", n)
	}
	if !strings.Contains(s, "/FontFile2") {
		t.Error("text fonts not embedded")
	}
	if strings.Contains(s, "/DCTDecode") {
		t.Error("vector pages should not be rasterized")
	}
	// The transparent slide image keeps its alpha channel.
	if !strings.Contains(s, "/Subtype /Image") || !strings.Contains(s, "/SMask") {
		t.Error("slide image not embedded with a soft mask")
	}
}

func TestPDFEngine(t *testing.T) {
	noRSVG(t)
	if HasRSVG() {
		t.Fatal("HasRSVG found a missing binary")
	}
	if got := PDFEngine(true); got != EngineRaster {
		t.Errorf("PDFEngine(raster) = %q", got)
	}
	if _, err := rsvgConvert(context.Background(), nil, "pdf"); !errors.Is(err, errors.ErrCodeUnsupported) {
		t.Errorf("err = %v, want UNSUPPORTED", err)
	}
}

func TestJSON(t *testing.T) {
	data, err := JSON(testDoc(t, 2), WithIndent())
	if err != nil {
		t.Fatal(err)
	}
	var d LayoutDump
	if err := json.Unmarshal(data, &d); err != nil {
		t.Fatal(err)
	}
	if d.Width != 320 || len(d.Pages) != 2 {
		t.Fatalf("dump = %+v", d)
	}
	p := d.Pages[1]
	if p.Name != "s1" || p.Index != 1 {
		t.Errorf("page = %+v", p)
	}
	if got := p.Anchors["title"]; got != (Bounds{X: 0, Y: 0, W: 320, H: 40}) {
		t.Errorf("title anchor = %+v", got)
	}
	kinds := map[string]int{}
	for _, b := range p.Boxes {
		kinds[b.Kind]++
	}
	if kinds["text"] != 1 || kinds["code"] != 1 || kinds["image"] != 1 {
		t.Errorf("kinds = %v", kinds)
	}
	if p.Boxes[0].Parent != -1 || p.Boxes[0].Rect.W != 320 {
		t.Errorf("root = %+v", p.Boxes[0])
	}
}

func TestEmptyDocument(t *testing.T) {
	ctx := context.Background()
	for name, fn := range map[string]func(*deck.Document) error{
		"svg":  func(d *deck.Document) error { _, err := SVG(d); return err },
		"png":  func(d *deck.Document) error { _, err := PNG(d); return err },
		"pdf":  func(d *deck.Document) error { _, err := PDF(ctx, d); return err },
		"json": func(d *deck.Document) error { _, err := JSON(d); return err },
	} {
		t.Run(name, func(t *testing.T) {
			if err := fn(nil); !errors.Is(err, errors.ErrCodeEmptyDeck) {
				t.Errorf("nil doc: %v", err)
			}
			if err := fn(&deck.Document{Width: 1, Height: 1}); !errors.Is(err, errors.ErrCodeEmptyDeck) {
				t.Errorf("empty doc: %v", err)
			}
		})
	}
}

func TestInvalidScale(t *testing.T) {
	if _, err := PNG(testDoc(t, 1), WithScale(0)); err == nil {
		t.Error("zero scale accepted")
	}
	if _, err := Rasterize(testDoc(t, 1).Pages[0], nil, -1); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("err = %v", err)
	}
}

func TestSVGFamily(t *testing.T) {
	tests := map[string]string{
		"sans":   "Go, Helvetica, Arial, sans-serif",
		"mono":   "Go Mono, Menlo, Consolas, monospace",
		"Fira's": "'Firas', sans-serif",
	}
	for in, want := range tests {
		if got := svgFamily(in); got != want {
			t.Errorf("svgFamily(%q) = %q, want %q", in, got, want)
		}
	}
}
