package cli

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/x/ansi"

	"github.com/matzehuels/boxdeck/pkg/deck"
	"github.com/matzehuels/boxdeck/pkg/errors"
	"github.com/matzehuels/boxdeck/pkg/pipeline"
)

// captureStdout redirects command output and returns a function reading it
// back without terminal styling.
func captureStdout(t *testing.T) func() string {
	t.Helper()
	var buf bytes.Buffer
	old := stdout
	stdout = &buf
	t.Cleanup(func() { stdout = old })
	return func() string { return ansi.Strip(buf.String()) }
}

func TestPrintStats(t *testing.T) {
	tests := []struct {
		name   string
		stats  pipeline.Stats
		failed int
		cached bool
		want   string
	}{
		{"fresh", pipeline.Stats{Slides: 3, Pages: 3, LayoutTime: 12 * time.Millisecond}, 0, false, "3 slides · 3 pages · layout 12ms · fresh"},
		{"partial", pipeline.Stats{Slides: 3, Pages: 2}, 1, false, "3 slides · 1 failed · 2 pages · fresh"},
		{"cached", pipeline.Stats{Slides: 1, Pages: 1}, 0, true, "1 slide · 1 page · cached"},
		{"empty", pipeline.Stats{}, 0, true, "cached"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			output := captureStdout(t)
			printStats(tt.stats, tt.failed, tt.cached)
			if got := strings.TrimSpace(output()); got != tt.want {
				t.Errorf("printStats = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestPrintSlideError(t *testing.T) {
	output := captureStdout(t)
	printSlideError(&deck.SlideError{
		Index: 1,
		Name:  "broken",
		Err:   errors.New(errors.ErrCodeUnknownAnchor, "anchor %q is not defined", "ghost"),
	})
	printSlideError(&deck.SlideError{Index: 4, Err: errors.New(errors.ErrCodeUnboundedFill, "fill in auto parent")})

	out := output()
	lines := strings.Split(strings.TrimSpace(out), "\n")
	want := []string{
		`slide 2 (broken): UNKNOWN_ANCHOR anchor "ghost" is not defined`,
		`slide 5: UNBOUNDED_FILL fill in auto parent`,
	}
	if len(lines) != len(want) {
		t.Fatalf("output = %q", out)
	}
	for i := range want {
		if got := strings.TrimSpace(lines[i]); got != want[i] {
			t.Errorf("line %d = %q, want %q", i, got, want[i])
		}
	}
}

func TestStatusLines(t *testing.T) {
	output := captureStdout(t)
	printSuccess("Render complete")
	printWarning("%d of %d slides failed", 1, 3)
	printFile("talk.pdf")
	printKeyValue("Directory", "/tmp/cache")

	out := output()
	for _, want := range []string{"✓ Render complete", "! 1 of 3 slides failed", "→ talk.pdf", "/tmp/cache"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}
