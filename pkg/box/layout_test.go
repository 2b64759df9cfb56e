package box

import (
	"image"
	"math"
	"reflect"
	"testing"

	"github.com/matzehuels/boxdeck/pkg/errors"
	"github.com/matzehuels/boxdeck/pkg/geom"
	"github.com/matzehuels/boxdeck/pkg/media"
	"github.com/matzehuels/boxdeck/pkg/style"
	"github.com/matzehuels/boxdeck/pkg/text"
)

func env() Env {
	return Env{Measurer: text.Fixed{}, Styles: style.NewTable()}
}

// size50 yields 25px wide glyphs and 50px lines under text.Fixed.
var size50 = WithOverride(style.Partial{Size: style.Float(50), LineSpacing: style.Float(1)})

func mustLayout(t *testing.T, tr *Tree, page geom.Rect) *Result {
	t.Helper()
	res, err := Layout(tr, page, env())
	if err != nil {
		t.Fatalf("Layout: %v", err)
	}
	return res
}

func TestFixedThenFillRow(t *testing.T) {
	tr := NewTree()
	tr.Root().SetStacking(Row)
	a := tr.Root().Box(Width(geom.Fixed(200)))
	b := tr.Root().Box(Width(geom.Fill()))

	res := mustLayout(t, tr, geom.NewRect(0, 0, 1000, 100))

	if got := res.Rects[a.ID()]; got != geom.NewRect(0, 0, 200, 100) {
		t.Errorf("fixed child = %+v", got)
	}
	if got := res.Rects[b.ID()]; got != geom.NewRect(200, 0, 800, 100) {
		t.Errorf("fill child = %+v", got)
	}
}

func TestAutoParentWithPadding(t *testing.T) {
	tr := NewTree()
	parent := tr.Root().Box(Width(geom.Auto()), Height(geom.Auto()), Padding(geom.EdgeAll(20)))
	leaf := parent.Box().Text("abcdefghijkl", size50)

	res := mustLayout(t, tr, geom.NewRect(0, 0, 1920, 1080))

	got := res.Rects[parent.ID()]
	if got.W != 340 || got.H != 90 {
		t.Errorf("parent = %vx%v, want 340x90", got.W, got.H)
	}
	if lr := res.Rects[leaf.ID()]; lr != geom.NewRect(20, 20, 300, 50) {
		t.Errorf("leaf = %+v", lr)
	}
}

func TestNamedAnchorPoint(t *testing.T) {
	tr := NewTree()
	tr.Root().Box(Name("target"), X(geom.At(100)), Y(geom.At(100)),
		Width(geom.Fixed(400)), Height(geom.Fixed(200)))

	res := mustLayout(t, tr, geom.NewRect(0, 0, 1920, 1080))

	p, err := res.Anchors.Point("target", 0.5, 1.0)
	if err != nil {
		t.Fatalf("Point: %v", err)
	}
	if p != (geom.Point{X: 300, Y: 300}) {
		t.Errorf("Point = %+v, want (300, 300)", p)
	}
	again, _ := res.Anchors.Point("target", 0.5, 1.0)
	if again != p {
		t.Error("anchor resolution is not idempotent")
	}

	if _, err := res.Anchors.Point("missing", 0, 0); !errors.Is(err, errors.ErrCodeUnknownAnchor) {
		t.Errorf("err = %v, want UNKNOWN_ANCHOR", err)
	}
}

func TestFillUnderAutoParent(t *testing.T) {
	tr := NewTree()
	parent := tr.Root().Box(Height(geom.Auto()))
	parent.Box(Height(geom.Fill()))

	_, err := Layout(tr, geom.NewRect(0, 0, 800, 600), env())
	if !errors.Is(err, errors.ErrCodeUnboundedFill) {
		t.Fatalf("err = %v, want UNBOUNDED_FILL", err)
	}
	if errors.CategoryOf(errors.GetCode(err)) != errors.CategoryLayout {
		t.Errorf("category = %v", errors.CategoryOf(errors.GetCode(err)))
	}
}

func TestPercentUnderAutoParent(t *testing.T) {
	tr := NewTree()
	tr.Root().SetStacking(Row)
	parent := tr.Root().Box()
	parent.Box(Width(geom.Percent(0.5)))

	_, err := Layout(tr, geom.NewRect(0, 0, 800, 600), env())
	if !errors.Is(err, errors.ErrCodeUnboundedFill) {
		t.Fatalf("err = %v, want UNBOUNDED_FILL", err)
	}
}

func TestFillCrossAxisUnderMeasuredParentIsBounded(t *testing.T) {
	// The row is content-sized vertically but bounded horizontally, so a
	// horizontal Fill inside it is fine.
	tr := NewTree()
	row := tr.Root().Box(Horizontal())
	row.Box(Width(geom.Fill())).Text("ab", size50)
	row.Box(Width(geom.Fixed(100)))

	res := mustLayout(t, tr, geom.NewRect(0, 0, 600, 400))
	if got := res.Rects[row.ID()]; got != geom.NewRect(0, 0, 600, 50) {
		t.Errorf("row = %+v", got)
	}
}

func TestFillDistribution(t *testing.T) {
	tests := []struct {
		name    string
		extent  float64
		weights []float64
		want    []float64
	}{
		{"equal exact", 900, []float64{1, 1, 1}, []float64{300, 300, 300}},
		{"equal remainder to earlier", 1000, []float64{1, 1, 1}, []float64{334, 333, 333}},
		{"two leftover pixels", 11, []float64{1, 1, 1}, []float64{4, 4, 3}},
		{"weighted", 1000, []float64{1, 3}, []float64{250, 750}},
		{"weighted remainder", 10, []float64{1, 2}, []float64{3, 7}},
		{"fractional extent", 100.5, []float64{1, 1}, []float64{50, 50}},
		{"overflow", -50, []float64{1, 1}, []float64{0, 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := distribute(tt.extent, tt.weights)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("distribute(%v, %v) = %v, want %v", tt.extent, tt.weights, got, tt.want)
			}
		})
	}
}

func TestEqualFillsSumToRemainder(t *testing.T) {
	for n := 1; n <= 7; n++ {
		tr := NewTree()
		tr.Root().Box(Height(geom.Fixed(17)))
		var fills []Handle
		for i := 0; i < n; i++ {
			fills = append(fills, tr.Root().FillBox())
		}
		res := mustLayout(t, tr, geom.NewRect(0, 0, 100, 1000))

		var sum float64
		minH, maxH := math.Inf(1), math.Inf(-1)
		for _, f := range fills {
			h := res.Rects[f.ID()].H
			sum += h
			minH = math.Min(minH, h)
			maxH = math.Max(maxH, h)
		}
		if sum != 983 {
			t.Errorf("n=%d: fills sum to %v, want 983", n, sum)
		}
		if maxH-minH > 1 {
			t.Errorf("n=%d: fills differ by more than one pixel: %v..%v", n, minH, maxH)
		}
	}
}

func TestOverflowGivesFillZero(t *testing.T) {
	tr := NewTree()
	tr.Root().Box(Height(geom.Fixed(700)))
	f := tr.Root().FillBox()
	tr.Root().Box(Height(geom.Fixed(100)))

	res := mustLayout(t, tr, geom.NewRect(0, 0, 100, 600))
	if got := res.Rects[f.ID()]; got.H != 0 || got.Y != 700 {
		t.Errorf("fill = %+v", got)
	}
}

func TestZeroFillLeavesTrailingSpace(t *testing.T) {
	tr := NewTree()
	tr.Root().SetStacking(Row)
	a := tr.Root().Box(Width(geom.Fixed(100)))
	b := tr.Root().Box(Width(geom.Percent(0.25)))

	res := mustLayout(t, tr, geom.NewRect(0, 0, 1000, 50))
	if res.Rects[a.ID()] != geom.NewRect(0, 0, 100, 50) || res.Rects[b.ID()] != geom.NewRect(100, 0, 250, 50) {
		t.Errorf("rects = %+v %+v", res.Rects[a.ID()], res.Rects[b.ID()])
	}
}

func TestOverlayStack(t *testing.T) {
	tr := NewTree()
	parent := tr.Root().Box(Stack(Overlay), Width(geom.Fixed(400)), Height(geom.Fixed(300)),
		Padding(geom.EdgeAll(10)))
	a := parent.Box()
	b := parent.Box(Width(geom.Fixed(50)))
	c := parent.Box()

	res := mustLayout(t, tr, geom.NewRect(0, 0, 1000, 1000))

	full := geom.NewRect(10, 10, 380, 280)
	if res.Rects[a.ID()] != full || res.Rects[c.ID()] != full {
		t.Errorf("overlay children = %+v, %+v; want %+v", res.Rects[a.ID()], res.Rects[c.ID()], full)
	}
	if got := res.Rects[b.ID()]; got != geom.NewRect(10, 10, 50, 280) {
		t.Errorf("fixed overlay child = %+v", got)
	}
	if got := tr.PaintOrder(parent.ID()); !reflect.DeepEqual(got, []NodeID{a.ID(), b.ID(), c.ID()}) {
		t.Errorf("paint order = %v", got)
	}
}

func TestOverlayChildDrawnAfterFlow(t *testing.T) {
	tr := NewTree()
	ov := tr.Root().Overlay()
	first := tr.Root().Box(Height(geom.Fixed(100)))
	second := tr.Root().FillBox()

	res := mustLayout(t, tr, geom.NewRect(0, 0, 200, 300))

	if got := res.Rects[ov.ID()]; got != geom.NewRect(0, 0, 200, 300) {
		t.Errorf("overlay = %+v", got)
	}
	if got := res.Rects[second.ID()]; got != geom.NewRect(0, 100, 200, 200) {
		t.Errorf("flow is affected by overlay: %+v", got)
	}
	if got := tr.PaintOrder(RootID); !reflect.DeepEqual(got, []NodeID{first.ID(), second.ID(), ov.ID()}) {
		t.Errorf("paint order = %v", got)
	}
}

func TestPositionedChild(t *testing.T) {
	tr := NewTree()
	pos := tr.Root().Box(X(geom.At(1200)), Y(geom.AtPercent(0.5)), Width(geom.Fixed(100))).Text("ab", size50)
	flow := tr.Root().Box(Height(geom.Fixed(10)))

	res := mustLayout(t, tr, geom.NewRect(0, 0, 1920, 1080))
	if got := res.Rects[pos.ID()]; got != geom.NewRect(1200, 540, 100, 50) {
		t.Errorf("positioned = %+v", got)
	}
	if got := res.Rects[flow.ID()]; got.Y != 0 {
		t.Errorf("positioned child should not consume flow space: %+v", got)
	}
}

func TestPositionedNaturalSize(t *testing.T) {
	im := &media.Image{Width: 400, Height: 300, Img: image.NewRGBA(image.Rect(0, 0, 400, 300))}
	tr := NewTree()
	layer := tr.Root().Overlay()
	pic := layer.Box(X(geom.At(1200)), Y(geom.At(570))).ImageData(im, ImageScale(1))
	side := tr.Root().Overlay(X(geom.At(40))).Text("ab", size50)

	res := mustLayout(t, tr, geom.NewRect(0, 0, 1920, 1080))
	if got := res.Rects[layer.ID()]; got != geom.NewRect(0, 0, 1920, 1080) {
		t.Errorf("overlay = %+v", got)
	}
	if got := res.Rects[pic.ID()]; got != geom.NewRect(1200, 570, 400, 300) {
		t.Errorf("positioned image = %+v, want natural 400x300", got)
	}
	if got := res.Rects[side.ID()]; got != geom.NewRect(40, 0, 50, 50) {
		t.Errorf("positioned overlay = %+v, want natural 50x50", got)
	}
}

func TestCrossAxis(t *testing.T) {
	tr := NewTree()
	tr.Root().SetPadding(geom.EdgeSymmetric(0, 100))
	stretch := tr.Root().Box(Height(geom.Fixed(10)))
	auto := tr.Root().Box(Width(geom.Auto())).Text("abcd", size50)
	pct := tr.Root().Box(Width(geom.Percent(0.5)), X(geom.AtPercent(0.1)), Height(geom.Fixed(10)))

	res := mustLayout(t, tr, geom.NewRect(0, 0, 1200, 600))
	if got := res.Rects[stretch.ID()]; got != geom.NewRect(100, 0, 1000, 10) {
		t.Errorf("stretch = %+v", got)
	}
	if got := res.Rects[auto.ID()]; got != geom.NewRect(100, 10, 100, 50) {
		t.Errorf("auto = %+v", got)
	}
	if got := res.Rects[pct.ID()]; got != geom.NewRect(200, 60, 500, 10) {
		t.Errorf("percent = %+v", got)
	}
}

func TestNegativeContentSize(t *testing.T) {
	tr := NewTree()
	tr.Root().Box(Height(geom.Fixed(10)), Padding(geom.EdgeAll(20)))

	_, err := Layout(tr, geom.NewRect(0, 0, 100, 100), env())
	if !errors.Is(err, errors.ErrCodeNegativeSize) {
		t.Errorf("err = %v, want NEGATIVE_SIZE", err)
	}

	tr = NewTree()
	tr.Root().Box(Width(geom.Fixed(-5)))
	if _, err := Layout(tr, geom.NewRect(0, 0, 100, 100), env()); !errors.Is(err, errors.ErrCodeNegativeSize) {
		t.Errorf("err = %v, want NEGATIVE_SIZE", err)
	}
}

func TestStructuralErrorStopsLayout(t *testing.T) {
	tr := NewTree()
	tr.Root().Box(Name("dup"))
	tr.Root().Box(Name("dup"))

	if !errors.Is(tr.Err(), errors.ErrCodeDuplicateAnchor) {
		t.Fatalf("Err = %v", tr.Err())
	}
	res, err := Layout(tr, geom.NewRect(0, 0, 10, 10), env())
	if res != nil || !errors.Is(err, errors.ErrCodeDuplicateAnchor) {
		t.Errorf("Layout = %v, %v", res, err)
	}
}

func TestInlineAnchors(t *testing.T) {
	tr := NewTree()
	code := tr.Root().Box(Name("code"), Height(geom.Fixed(100))).
		Code("cpp", "int x;\nuse ~#ACCESSOR{bin_checker}(x);", WithOverride(style.Partial{
			Size: style.Float(50), LineSpacing: style.Float(1),
		}))

	res := mustLayout(t, tr, geom.NewRect(0, 0, 1000, 600))

	got, err := res.Anchors.Rect("ACCESSOR")
	if err != nil {
		t.Fatal(err)
	}
	// Code is left aligned: "use " is 4 glyphs of 25px on the second line.
	if got != geom.NewRect(100, 50, 275, 50) {
		t.Errorf("ACCESSOR = %+v", got)
	}
	if owner, _ := tr.Lookup("ACCESSOR"); owner != code.ID() {
		t.Errorf("Lookup owner = %v", owner)
	}
	if !reflect.DeepEqual(res.Anchors.Names(), []string{"ACCESSOR", "code"}) {
		t.Errorf("Names = %v", res.Anchors.Names())
	}
	if !res.Text[code.ID()].Code {
		t.Error("code block not marked as code")
	}
}

func TestInlineAnchorConflicts(t *testing.T) {
	tr := NewTree()
	tr.Root().Box(Name("a"))
	tr.Root().Box().Text("see ~#a{here}")
	if !errors.Is(tr.Err(), errors.ErrCodeDuplicateAnchor) {
		t.Errorf("Err = %v, want DUPLICATE_ANCHOR", tr.Err())
	}

	tr = NewTree()
	tr.Root().Box().Text("bad ~#{x}")
	if !errors.Is(tr.Err(), errors.ErrCodeInvalidAnchor) {
		t.Errorf("Err = %v, want INVALID_ANCHOR", tr.Err())
	}

	tr = NewTree()
	h := tr.Root().Box().Text("~#x{one}")
	h.Text("~#x{two}")
	if tr.Err() != nil {
		t.Errorf("replacing content should release its anchors: %v", tr.Err())
	}
}

func TestRenameReleasesName(t *testing.T) {
	tr := NewTree()
	h := tr.Root().Box(Name("old"))
	h.SetName("new")
	tr.Root().Box(Name("old"))
	if tr.Err() != nil {
		t.Errorf("Err = %v", tr.Err())
	}
	if _, ok := tr.Lookup("old"); !ok {
		t.Error("old name should belong to the second box")
	}
}

func TestUnknownStyle(t *testing.T) {
	tr := NewTree()
	tr.Root().Box().Text("x", WithStyle("nope"))
	_, err := Layout(tr, geom.NewRect(0, 0, 100, 100), env())
	if !errors.Is(err, errors.ErrCodeUnknownStyle) {
		t.Errorf("err = %v, want UNKNOWN_STYLE", err)
	}
}

type fakeTokenizer struct{ calls int }

func (f *fakeTokenizer) Tokenize(lang, src string) ([]text.Span, error) {
	f.calls++
	return []text.Span{{Text: src, Style: style.Partial{Bold: style.Bool(true)}}}, nil
}

func TestCodeUsesTokenizer(t *testing.T) {
	tr := NewTree()
	c := tr.Root().Box().Code("go", "x := 1")
	tok := &fakeTokenizer{}
	e := env()
	e.Tokenizer = tok

	res, err := Layout(tr, geom.NewRect(0, 0, 400, 400), e)
	if err != nil {
		t.Fatal(err)
	}
	if tok.calls != 1 {
		t.Errorf("tokenizer calls = %d, want 1", tok.calls)
	}
	run := res.Text[c.ID()].Block.Lines[0].Runs[0]
	if !run.Style.Bold || run.Style.Font != style.FamilyMono {
		t.Errorf("run style = %+v", run.Style)
	}
}

func TestCodeSpans(t *testing.T) {
	tr := NewTree()
	c := tr.Root().Box().CodeSpans([]text.Span{{Text: "a"}, {Text: "bc"}})
	res := mustLayout(t, tr, geom.NewRect(0, 0, 400, 400))
	if got := res.Text[c.ID()].Block.Lines[0].Width; got != 3*style.Base.Size*0.5 {
		t.Errorf("width = %v", got)
	}
}

func TestImageIntrinsicSize(t *testing.T) {
	im := &media.Image{Width: 40, Height: 20, Img: image.NewRGBA(image.Rect(0, 0, 40, 20))}
	tr := NewTree()
	a := tr.Root().Box(Width(geom.Auto())).ImageData(im, ImageScale(2))
	b := tr.Root().Box(Width(geom.Auto())).Image("logo.png")

	cache := media.NewCache()
	cache.Put("logo.png", im)
	e := env()
	e.Images = cache

	res, err := Layout(tr, geom.NewRect(0, 0, 400, 400), e)
	if err != nil {
		t.Fatal(err)
	}
	if got := res.Rects[a.ID()]; got != geom.NewRect(0, 0, 80, 40) {
		t.Errorf("scaled image box = %+v", got)
	}
	if got := res.Rects[b.ID()]; got != geom.NewRect(0, 40, 40, 20) {
		t.Errorf("path image box = %+v", got)
	}
	if res.Images[b.ID()] != im {
		t.Error("image not recorded in result")
	}

	e.Images = nil
	if _, err := Layout(tr, geom.NewRect(0, 0, 400, 400), e); !errors.Is(err, errors.ErrCodeInvalidImage) {
		t.Errorf("err = %v, want INVALID_IMAGE", err)
	}
}

func TestLayoutDeterministic(t *testing.T) {
	build := func() *Tree {
		tr := NewTree()
		row := tr.Root().Box(Horizontal(), Height(geom.Fixed(300)))
		row.Box(Width(geom.Fixed(120)), Name("a"))
		row.Box(Width(geom.Percent(0.3)))
		row.Box(Width(geom.FillWeight(2)))
		row.FillBox(Name("b"))
		tr.Root().FillBox().Box(Width(geom.Fixed(33)), Height(geom.Fixed(44)))
		return tr
	}

	tr := build()
	first := mustLayout(t, tr, geom.NewRect(0, 0, 1920, 1080))
	second := mustLayout(t, tr, geom.NewRect(0, 0, 1920, 1080))
	third := mustLayout(t, build(), geom.NewRect(0, 0, 1920, 1080))

	if !reflect.DeepEqual(first.Rects, second.Rects) || !reflect.DeepEqual(first.Rects, third.Rects) {
		t.Error("layout is not deterministic")
	}
	if !reflect.DeepEqual(first.Anchors.All(), third.Anchors.All()) {
		t.Error("anchors are not deterministic")
	}
}

func TestFixedSizeIndependentOfSiblings(t *testing.T) {
	sizes := func(sibling string) geom.Rect {
		tr := NewTree()
		tr.Root().Box().Text(sibling)
		f := tr.Root().Box(Width(geom.Percent(0.5)), Height(geom.Fixed(70)))
		res := mustLayout(t, tr, geom.NewRect(0, 0, 800, 600))
		r := res.Rects[f.ID()]
		return geom.NewRect(0, 0, r.W, r.H)
	}
	if sizes("short") != sizes("a much\nlonger\nsibling text") {
		t.Error("fixed/percent size depends on sibling content")
	}
}
