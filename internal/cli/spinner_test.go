package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/matzehuels/boxdeck/pkg/observability"
)

func TestSpinnerFollowsPipeline(t *testing.T) {
	ctx := context.Background()
	s := newSpinner(ctx, &bytes.Buffer{}, "Reading talk.yaml")

	var hooks observability.PipelineHooks = s
	steps := []struct {
		call func()
		want string
	}{
		{func() { hooks.OnParseStart(ctx, "decks/talk.yaml") }, "Parsing talk.yaml"},
		{func() { hooks.OnLayoutStart(ctx, 12) }, "Laying out 12 slides"},
		{func() { hooks.OnLayoutComplete(ctx, 11, 1, time.Second, nil) }, "Laid out 11 pages, 1 failed"},
		{func() { hooks.OnLayoutComplete(ctx, 1, 0, time.Second, nil) }, "Laid out 1 page"},
		{func() { hooks.OnRenderStart(ctx, []string{"pdf", "png"}) }, "Encoding pdf, png"},
	}
	for _, st := range steps {
		st.call()
		if got := s.Message(); got != st.want {
			t.Errorf("message = %q, want %q", got, st.want)
		}
	}
}

func TestSpinnerDraws(t *testing.T) {
	var buf bytes.Buffer
	s := newSpinner(context.Background(), &buf, "Parsing talk.yaml")
	s.Start()
	s.OnLayoutStart(context.Background(), 3)
	time.Sleep(200 * time.Millisecond)
	s.Stop()

	out := buf.String()
	if !strings.Contains(out, "Laying out 3 slides") {
		t.Errorf("output = %q, want the layout stage", out)
	}
	if !strings.HasSuffix(out, "\r") {
		t.Error("line not cleared on stop")
	}
}

func TestSpinnerStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	s := newSpinner(ctx, &bytes.Buffer{}, "Rendering")
	s.Start()
	cancel()

	select {
	case <-s.stopped:
	case <-time.After(time.Second):
		t.Fatal("spinner kept running after cancellation")
	}
	s.Stop()
}

func TestSpinnerStopIdempotent(t *testing.T) {
	s := newSpinner(context.Background(), &bytes.Buffer{}, "Rendering")
	s.Stop() // before Start
	s.Stop()

	s = newSpinner(context.Background(), &bytes.Buffer{}, "Rendering")
	s.Start()
	s.Stop()
	s.Stop()
}
