package cli

import (
	"io"
	"path/filepath"
	"slices"
	"testing"

	"github.com/matzehuels/boxdeck/pkg/deck"
	"github.com/matzehuels/boxdeck/pkg/pipeline"
)

func TestBasePath(t *testing.T) {
	tests := []struct {
		output, input, want string
	}{
		{"", "talk.toml", "talk"},
		{"", filepath.Join("decks", "talk.yaml"), filepath.Join("decks", "talk")},
		{"out.pdf", "talk.toml", "out"},
		{"out.SVG", "talk.toml", "out"},
		{"out.v2", "talk.toml", "out.v2"},
		{"slides", "talk.toml", "slides"},
	}
	for _, tt := range tests {
		if got := basePath(tt.output, tt.input); got != tt.want {
			t.Errorf("basePath(%q, %q) = %q, want %q", tt.output, tt.input, got, tt.want)
		}
	}
}

func TestOutputPaths(t *testing.T) {
	tests := []struct {
		format string
		nums   []int
		want   []string
	}{
		{"pdf", []int{1, 2}, []string{"talk.pdf"}},
		{"json", []int{1, 2}, []string{"talk.layout.json"}},
		{"svg", []int{1, 3}, []string{"talk-01.svg", "talk-03.svg"}},
		{"png", []int{12}, []string{"talk-12.png"}},
	}
	for _, tt := range tests {
		if got := outputPaths("talk", tt.format, tt.nums); !slices.Equal(got, tt.want) {
			t.Errorf("outputPaths(%s, %v) = %v, want %v", tt.format, tt.nums, got, tt.want)
		}
	}
}

func TestPageNumbers(t *testing.T) {
	partial := &pipeline.Result{Document: &deck.Document{
		Pages: []*deck.Page{{Index: 0}, {Index: 2}},
	}}
	cached := &pipeline.Result{}

	tests := []struct {
		name   string
		result *pipeline.Result
		page   int
		n      int
		want   []int
	}{
		{"single page", partial, 3, 1, []int{3}},
		{"skips failed slides", partial, 0, 2, []int{1, 3}},
		{"from cache", cached, 0, 3, []int{1, 2, 3}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := pageNumbers(tt.result, tt.page, tt.n); !slices.Equal(got, tt.want) {
				t.Errorf("pageNumbers = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseFormats(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"", []string{"pdf"}},
		{"svg", []string{"svg"}},
		{"SVG, png,,json ", []string{"svg", "png", "json"}},
	}
	for _, tt := range tests {
		if got := parseFormats(tt.in); !slices.Equal(got, tt.want) {
			t.Errorf("parseFormats(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestRootCommand(t *testing.T) {
	root := New(io.Discard, LogInfo).RootCommand()
	for _, name := range []string{"render", "layout", "cache", "serve", "completion"} {
		if cmd, _, err := root.Find([]string{name}); err != nil || cmd.Name() != name {
			t.Errorf("subcommand %q not registered", name)
		}
	}
}
