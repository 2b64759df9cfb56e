package cli

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/boxdeck/pkg/deck"
	"github.com/matzehuels/boxdeck/pkg/errors"
	"github.com/matzehuels/boxdeck/pkg/pipeline"
)

// stdout receives the human-readable command output. Logs go to the
// logger's writer instead.
var stdout io.Writer = os.Stdout

var (
	colorCyan   = lipgloss.Color("36")
	colorGreen  = lipgloss.Color("35")
	colorYellow = lipgloss.Color("220")
	colorRed    = lipgloss.Color("167")
	colorBlue   = lipgloss.Color("75")
	colorWhite  = lipgloss.Color("255")
	colorGray   = lipgloss.Color("245")
	colorDim    = lipgloss.Color("240")
)

var (
	// StyleDim renders secondary text.
	StyleDim = lipgloss.NewStyle().Foreground(colorDim)
	// StyleValue renders paths and values.
	StyleValue = lipgloss.NewStyle().Foreground(colorWhite)
	// StyleWarning renders partial failures.
	StyleWarning = lipgloss.NewStyle().Foreground(colorYellow)

	styleOK      = lipgloss.NewStyle().Foreground(colorGreen)
	styleFailed  = lipgloss.NewStyle().Foreground(colorRed)
	styleInfo    = lipgloss.NewStyle().Foreground(colorGray)
	styleSpinner = lipgloss.NewStyle().Foreground(colorCyan)
	styleCommand = lipgloss.NewStyle().Foreground(colorBlue)
	styleKey     = lipgloss.NewStyle().Foreground(colorGray).Width(12)
	styleCode    = lipgloss.NewStyle().Foreground(colorRed).Bold(true)
)

const (
	iconOK     = "✓"
	iconFailed = "✗"
	iconWarn   = "!"
	iconInfo   = "›"
	iconArrow  = "→"
)

func printLine(icon lipgloss.Style, glyph, msg string) {
	fmt.Fprintln(stdout, icon.Render(glyph)+" "+msg)
}

func printSuccess(format string, args ...any) {
	printLine(styleOK, iconOK, fmt.Sprintf(format, args...))
}

func printError(format string, args ...any) {
	printLine(styleFailed, iconFailed, fmt.Sprintf(format, args...))
}

func printWarning(format string, args ...any) {
	printLine(StyleWarning, iconWarn, StyleWarning.Render(fmt.Sprintf(format, args...)))
}

func printInfo(format string, args ...any) {
	printLine(styleInfo, iconInfo, fmt.Sprintf(format, args...))
}

// printFile lists one written output file.
func printFile(path string) {
	fmt.Fprintln(stdout, "  "+StyleDim.Render(iconArrow)+" "+StyleValue.Render(path))
}

func printKeyValue(key, value string) {
	fmt.Fprintln(stdout, styleKey.Render(key)+" "+StyleValue.Render(value))
}

// printSlideError prints one failed slide as "slide N (name): [CODE] message".
// Slide numbers are 1-based like the output file names.
func printSlideError(se *deck.SlideError) {
	label := fmt.Sprintf("slide %d", se.Index+1)
	if se.Name != "" {
		label += " (" + se.Name + ")"
	}
	code := styleCode.Render(string(errors.GetCode(se)))
	fmt.Fprintln(stdout, "  "+StyleDim.Render(label+":")+" "+code+" "+errors.UserMessage(se))
}

// printStats prints a one-line summary of a pipeline run:
//
//	3 slides · 1 failed · 2 pages · layout 12ms · fresh
func printStats(st pipeline.Stats, failed int, cached bool) {
	var parts []string
	if st.Slides > 0 {
		parts = append(parts, plural(st.Slides, "slide"))
	}
	if failed > 0 {
		parts = append(parts, fmt.Sprintf("%d failed", failed))
	}
	if st.Pages > 0 {
		parts = append(parts, plural(st.Pages, "page"))
	}
	if st.LayoutTime > 0 {
		parts = append(parts, "layout "+st.LayoutTime.Round(time.Millisecond).String())
	}
	status := styleInfo.Render("fresh")
	if cached {
		status = styleOK.Render("cached")
	}
	for i := range parts {
		parts[i] = StyleDim.Render(parts[i])
	}
	parts = append(parts, status)
	fmt.Fprintln(stdout, "  "+strings.Join(parts, StyleDim.Render(" · ")))
}

func plural(n int, noun string) string {
	if n == 1 {
		return "1 " + noun
	}
	return fmt.Sprintf("%d %ss", n, noun)
}

func printNextStep(description, cmd string) {
	fmt.Fprintln(stdout, StyleDim.Render(description+":")+" "+styleCommand.Render(cmd))
}

func printNewline() {
	fmt.Fprintln(stdout)
}
