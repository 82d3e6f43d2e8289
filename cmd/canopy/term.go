package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

var (
	styleBold   = lipgloss.NewStyle().Bold(true)
	styleDim    = lipgloss.NewStyle().Faint(true)
	styleRed    = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	styleGreen  = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	styleYellow = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	styleCyan   = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	styleMatch  = lipgloss.NewStyle().Foreground(lipgloss.Color("6")).Bold(true)
)

// termStyle provides terminal styling helpers with automatic color detection
type termStyle struct {
	out       io.Writer
	useColors bool
}

func newTermStyle(out io.Writer) *termStyle {
	f, ok := out.(*os.File)
	return &termStyle{
		out:       out,
		useColors: ok && isTerminal(f),
	}
}

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

func (t *termStyle) render(s lipgloss.Style, text string) string {
	if !t.useColors {
		return text
	}
	return s.Render(text)
}

// Success prints a success message with green checkmark
func (t *termStyle) Success(msg string) {
	fmt.Fprintln(t.out, t.render(styleGreen, "✓ "+msg))
}

// Warn prints a warning message with yellow warning symbol
func (t *termStyle) Warn(msg string) {
	fmt.Fprintln(t.out, t.render(styleYellow, "⚠ "+msg))
}

// Error prints an error message with red X
func (t *termStyle) Error(msg string) {
	fmt.Fprintln(t.out, t.render(styleRed, "✗ "+msg))
}

// Info prints informational/explanatory text (dimmed)
func (t *termStyle) Info(lines ...string) {
	for _, line := range lines {
		fmt.Fprintln(t.out, t.Dim(line))
	}
}

func (t *termStyle) Dim(text string) string    { return t.render(styleDim, text) }
func (t *termStyle) Bold(text string) string   { return t.render(styleBold, text) }
func (t *termStyle) Cyan(text string) string   { return t.render(styleCyan, text) }
func (t *termStyle) Yellow(text string) string { return t.render(styleYellow, text) }
func (t *termStyle) Green(text string) string  { return t.render(styleGreen, text) }
func (t *termStyle) Red(text string) string    { return t.render(styleRed, text) }

// Highlight emphasises the runes of text at the given indices, as returned
// by the fuzzy matcher.
func (t *termStyle) Highlight(text string, indices []int) string {
	if !t.useColors || len(indices) == 0 {
		return text
	}
	marked := make(map[int]bool, len(indices))
	for _, i := range indices {
		marked[i] = true
	}
	var b strings.Builder
	for i, r := range []rune(text) {
		if marked[i] {
			b.WriteString(styleMatch.Render(string(r)))
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Bullet prints a bullet point
func (t *termStyle) Bullet(text string) {
	fmt.Fprintf(t.out, "  • %s\n", text)
}

// KeyValue prints a key-value pair for summaries
func (t *termStyle) KeyValue(key, value string) {
	fmt.Fprintf(t.out, "  %s  %s\n", t.Bold(fmt.Sprintf("%-14s", key+":")), value)
}

// Code prints a command (indented and cyan)
func (t *termStyle) Code(lines ...string) {
	for _, line := range lines {
		fmt.Fprintf(t.out, "     %s\n", t.Cyan(line))
	}
}
