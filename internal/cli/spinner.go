package cli

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/matzehuels/boxdeck/pkg/observability"
)

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// spinner animates a status line while the pipeline runs. Installed as the
// pipeline hooks, it follows the stages: parsing the deck, laying out its
// slides and encoding each format.
type spinner struct {
	observability.NoopPipelineHooks

	w       io.Writer
	ctx     context.Context
	cancel  context.CancelFunc
	stopped chan struct{}
	started bool
	once    sync.Once

	mu      sync.Mutex
	message string
	width   int // widest line drawn so far
}

// newSpinner returns a spinner writing to w. It stops drawing when ctx is
// canceled.
func newSpinner(ctx context.Context, w io.Writer, message string) *spinner {
	ctx, cancel := context.WithCancel(ctx)
	return &spinner{
		w:       w,
		ctx:     ctx,
		cancel:  cancel,
		stopped: make(chan struct{}),
		message: message,
	}
}

// Start draws a frame every 80ms until Stop or cancellation.
func (s *spinner) Start() {
	s.started = true
	go func() {
		defer close(s.stopped)
		ticker := time.NewTicker(80 * time.Millisecond)
		defer ticker.Stop()
		for i := 0; ; i++ {
			select {
			case <-s.ctx.Done():
				s.clear()
				return
			case <-ticker.C:
				s.draw(spinnerFrames[i%len(spinnerFrames)])
			}
		}
	}()
}

func (s *spinner) draw(frame string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	line := styleSpinner.Render(frame) + " " + StyleDim.Render(s.message)
	if n := len(s.message) + 2; n > s.width {
		s.width = n
	}
	fmt.Fprintf(s.w, "\r%s%s", line, strings.Repeat(" ", s.width-len(s.message)-2))
}

func (s *spinner) clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.width > 0 {
		fmt.Fprintf(s.w, "\r%s\r", strings.Repeat(" ", s.width))
	}
}

// Message returns the current status text.
func (s *spinner) Message() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.message
}

func (s *spinner) set(format string, args ...any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.message = fmt.Sprintf(format, args...)
}

// Stop ends the animation and clears the line. It may be called more than
// once and before Start.
func (s *spinner) Stop() {
	s.once.Do(func() {
		s.cancel()
		if s.started {
			<-s.stopped
		}
	})
}

// StopWithError stops the spinner and prints msg as a failure.
func (s *spinner) StopWithError(msg string) {
	s.Stop()
	printError("%s", msg)
}

func (s *spinner) OnParseStart(_ context.Context, source string) {
	s.set("Parsing %s", filepath.Base(source))
}

func (s *spinner) OnLayoutStart(_ context.Context, slides int) {
	s.set("Laying out %s", plural(slides, "slide"))
}

func (s *spinner) OnLayoutComplete(_ context.Context, pages, failed int, _ time.Duration, _ error) {
	if failed > 0 {
		s.set("Laid out %s, %d failed", plural(pages, "page"), failed)
		return
	}
	s.set("Laid out %s", plural(pages, "page"))
}

func (s *spinner) OnRenderStart(_ context.Context, formats []string) {
	s.set("Encoding %s", strings.Join(formats, ", "))
}
