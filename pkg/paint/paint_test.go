package paint

import (
	"image"
	"math"
	"testing"

	"github.com/matzehuels/boxdeck/pkg/box"
	"github.com/matzehuels/boxdeck/pkg/errors"
	"github.com/matzehuels/boxdeck/pkg/geom"
	"github.com/matzehuels/boxdeck/pkg/media"
	"github.com/matzehuels/boxdeck/pkg/style"
	"github.com/matzehuels/boxdeck/pkg/text"
)

func layout(t *testing.T, tr *box.Tree, w, h float64) *box.Result {
	t.Helper()
	res, err := box.Layout(tr, geom.NewRect(0, 0, w, h), box.Env{Measurer: text.Fixed{}, Styles: style.NewTable()})
	if err != nil {
		t.Fatalf("Layout: %v", err)
	}
	return res
}

type recorder struct {
	kinds []string
	fail  error
}

func (r *recorder) DrawRect(*RectItem) error   { r.kinds = append(r.kinds, "rect"); return r.fail }
func (r *recorder) DrawText(*TextItem) error   { r.kinds = append(r.kinds, "text"); return nil }
func (r *recorder) DrawImage(*ImageItem) error { r.kinds = append(r.kinds, "image"); return nil }
func (r *recorder) DrawLine(*LineItem) error   { r.kinds = append(r.kinds, "line"); return nil }

func TestBuildPaintOrder(t *testing.T) {
	bg := box.Paint{Fill: style.MustColor("lightgray")}
	tr := box.NewTree()
	tr.Root().SetBackground(bg)
	tr.Root().Overlay().Rect(box.Paint{Fill: style.MustColor("red")})
	row := tr.Root().Box(box.Horizontal(), box.Background(bg), box.Height(geom.Fixed(100)))
	row.Box(box.Width(geom.Fixed(50))).Text("hi")
	row.FillBox().ImageData(&media.Image{Width: 10, Height: 10, Img: image.NewRGBA(image.Rect(0, 0, 10, 10))})

	items := Build(tr, layout(t, tr, 400, 300))

	rec := &recorder{}
	if err := Replay(items, rec); err != nil {
		t.Fatal(err)
	}
	want := []string{"rect", "rect", "text", "image", "rect"}
	if len(rec.kinds) != len(want) {
		t.Fatalf("kinds = %v, want %v", rec.kinds, want)
	}
	for i := range want {
		if rec.kinds[i] != want[i] {
			t.Fatalf("kinds = %v, want %v", rec.kinds, want)
		}
	}
	if last := items[len(items)-1].(*RectItem); last.Rect != geom.NewRect(0, 0, 400, 300) {
		t.Errorf("overlay rect = %+v", last.Rect)
	}
}

func TestReplayStopsOnError(t *testing.T) {
	tr := box.NewTree()
	tr.Root().SetBackground(box.Paint{Fill: style.MustColor("white")})
	tr.Root().Box().Text("x")
	rec := &recorder{fail: errors.New(errors.ErrCodeRenderFailed, "boom")}
	if err := Replay(Build(tr, layout(t, tr, 10, 10)), rec); err == nil || len(rec.kinds) != 1 {
		t.Errorf("err = %v, kinds = %v", err, rec.kinds)
	}
}

func TestTextRunsBaseline(t *testing.T) {
	tr := box.NewTree()
	h := tr.Root().Box(box.Height(geom.Fixed(100))).Text("ab\ncd",
		box.WithOverride(style.Partial{Size: style.Float(20), LineSpacing: style.Float(1.5)}))

	items := Build(tr, layout(t, tr, 200, 300))
	ti := items[0].(*TextItem)
	if ti.Node != h.ID() || len(ti.Runs) != 2 {
		t.Fatalf("text item = %+v", ti)
	}
	// Block height 60, top 20; line height 30 with glyph box 20 -> baseline
	// 5 + 16 below the line top.
	first, second := ti.Runs[0], ti.Runs[1]
	if first.Origin != (geom.Point{X: 80, Y: 41}) {
		t.Errorf("first origin = %+v", first.Origin)
	}
	if second.Origin.Y-first.Origin.Y != 30 {
		t.Errorf("line advance = %v", second.Origin.Y-first.Origin.Y)
	}
}

func TestImageDest(t *testing.T) {
	im := &media.Image{Width: 200, Height: 100}
	rect := geom.NewRect(0, 0, 400, 400)
	tests := []struct {
		name string
		c    box.ImageContent
		want geom.Rect
	}{
		{"contain", box.ImageContent{}, geom.NewRect(0, 100, 400, 200)},
		{"fill", box.ImageContent{Fit: box.FitFill}, rect},
		{"scaled", box.ImageContent{Scale: 0.5}, geom.NewRect(150, 175, 100, 50)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := imageDest(&tt.c, im, rect); got != tt.want {
				t.Errorf("imageDest = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestPositionedImageDest(t *testing.T) {
	im := &media.Image{Width: 400, Height: 300, Img: image.NewRGBA(image.Rect(0, 0, 400, 300))}
	tr := box.NewTree()
	tr.Root().Overlay().Box(box.X(geom.At(1200)), box.Y(geom.At(570))).ImageData(im, box.ImageScale(1))

	var dest geom.Rect
	for _, it := range Build(tr, layout(t, tr, 1920, 1080)) {
		if img, ok := it.(*ImageItem); ok {
			dest = img.Dest
		}
	}
	if dest != geom.NewRect(1200, 570, 400, 300) {
		t.Errorf("image dest = %+v, want (1200, 570) at natural size", dest)
	}
}

func registry(t *testing.T) *box.Registry {
	t.Helper()
	tr := box.NewTree()
	tr.Root().Box(box.Name("code"), box.X(geom.At(100)), box.Y(geom.At(100)),
		box.Width(geom.Fixed(400)), box.Height(geom.Fixed(200)))
	return layout(t, tr, 1920, 1080).Anchors
}

func TestPointRef(t *testing.T) {
	reg := registry(t)
	tests := []struct {
		name string
		ref  PointRef
		want geom.Point
	}{
		{"absolute", Abs(1200, 700), geom.Point{X: 1200, Y: 700}},
		{"anchor", At("code", 0.5, 1), geom.Point{X: 300, Y: 300}},
		{"offset", At("code", 0.5, 1).Add(0, -50), geom.Point{X: 300, Y: 250}},
		{"absolute offset", Abs(1, 2).Add(3, 4), geom.Point{X: 4, Y: 6}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.ref.Resolve(reg)
			if err != nil || got != tt.want {
				t.Errorf("Resolve = %+v, %v; want %+v", got, err, tt.want)
			}
		})
	}
}

func TestResolveAnnotations(t *testing.T) {
	reg := registry(t)
	cmds := []LineCommand{
		Line([]PointRef{Abs(300, 600), At("code", 0.5, 1)},
			StrokeWidth(10), StartArrow(20), Stroke(style.MustColor("orange"))),
	}
	items, err := ResolveAnnotations(reg, cmds)
	if err != nil {
		t.Fatal(err)
	}
	li := items[0].(*LineItem)
	if li.Width != 10 || li.Color != style.MustColor("orange") {
		t.Errorf("line = %+v", li)
	}
	if len(li.Heads) != 1 {
		t.Fatalf("heads = %d", len(li.Heads))
	}
	head := li.Heads[0]
	if head[0] != (geom.Point{X: 300, Y: 600}) {
		t.Errorf("tip = %+v", head[0])
	}
	// Pointing down towards (300, 600) from (300, 300): base 20px above.
	if li.Points[0] != (geom.Point{X: 300, Y: 580}) {
		t.Errorf("shortened start = %+v", li.Points[0])
	}
	if math.Abs(head[1].X-head[2].X) != 20 || head[1].Y != 580 {
		t.Errorf("head = %+v", head)
	}
	if li.Points[1] != (geom.Point{X: 300, Y: 300}) {
		t.Errorf("end = %+v", li.Points[1])
	}

	// Pure: same input yields the same output.
	again, _ := ResolveAnnotations(reg, cmds)
	if again[0].(*LineItem).Points[0] != li.Points[0] {
		t.Error("ResolveAnnotations is not deterministic")
	}
	if cmds[0].Points[0] != Abs(300, 600) {
		t.Error("commands were mutated")
	}
}

func TestResolveAnnotationsErrors(t *testing.T) {
	reg := registry(t)
	_, err := ResolveAnnotations(reg, []LineCommand{Line([]PointRef{Abs(0, 0), At("nope", 0, 0)})})
	if !errors.Is(err, errors.ErrCodeUnknownAnchor) {
		t.Errorf("err = %v, want UNKNOWN_ANCHOR", err)
	}
	if errors.CategoryOf(errors.GetCode(err)) != errors.CategoryAnnotation {
		t.Errorf("category = %v", errors.CategoryOf(errors.GetCode(err)))
	}

	_, err = ResolveAnnotations(reg, []LineCommand{Line([]PointRef{Abs(0, 0)})})
	if !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("err = %v, want INVALID_INPUT", err)
	}
}

func TestLineBounds(t *testing.T) {
	li := &LineItem{Points: []geom.Point{{X: 10, Y: 10}, {X: 30, Y: 5}}}
	if got := li.Bounds(); got != geom.NewRect(10, 5, 20, 5) {
		t.Errorf("Bounds = %+v", got)
	}
}
