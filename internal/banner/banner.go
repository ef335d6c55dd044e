package banner

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/dustin/go-humanize"

	"github.com/chr1sbest/splice/internal/config"
)

// ANSI color codes
const (
	reset = "\033[0m"
	bold  = "\033[1m"
	dim   = "\033[2m"
	blue  = "\033[34m"
	cyan  = "\033[36m"
)

// Box drawing characters
const (
	topLeft     = "╭"
	topRight    = "╮"
	bottomLeft  = "╰"
	bottomRight = "╯"
	horizontal  = "─"
	vertical    = "│"
	bullet      = "●"
	arrow       = "→"
)

// Summary is what the banner shows about a run.
type Summary struct {
	Files    int
	Bytes    int64
	Extract  string
	Merge    string
	Output   string
	Watching bool
	Version  string
}

// Banner handles pretty startup output
type Banner struct {
	writer io.Writer
	width  int
}

// NewWithWriter creates a Banner with a custom writer (for testing)
func NewWithWriter(w io.Writer) *Banner {
	return &Banner{
		writer: w,
		width:  60,
	}
}

// Print displays the startup banner for cfg.
func (b *Banner) Print(cfg *config.Config, sum Summary) {
	title := "splice"
	if cfg.Name != "" && cfg.Name != title {
		title += " " + arrow + " " + cfg.Name
	}
	if sum.Version != "" {
		title += " " + sum.Version
	}

	b.border(topLeft, topRight)
	b.line(bold+blue, title)
	if cfg.Description != "" {
		b.line(dim, cfg.Description)
	}
	fmt.Fprintf(b.writer, "%s%s%s%s%s\n", dim, vertical, strings.Repeat(horizontal, b.width-2), vertical, reset)

	b.line("", fmt.Sprintf("%s %d file%s (%s)", bullet, sum.Files, pluralize(sum.Files), humanize.Bytes(uint64(sum.Bytes))))
	b.line("", fmt.Sprintf("%s extract: %s", bullet, orDefault(sum.Extract)))
	b.line("", fmt.Sprintf("%s merge:   %s", bullet, orDefault(sum.Merge)))
	b.line("", fmt.Sprintf("%s output:  %s", bullet, sum.Output))
	if sum.Watching {
		b.line(cyan, fmt.Sprintf("%s watching for changes", bullet))
	}
	b.border(bottomLeft, bottomRight)
	fmt.Fprintln(b.writer)
}

func (b *Banner) border(left, right string) {
	fmt.Fprintf(b.writer, "%s%s%s%s%s\n", dim, left, strings.Repeat(horizontal, b.width-2), right, reset)
}

// line writes text inside the box, truncated to fit.
func (b *Banner) line(color, text string) {
	maxLen := b.width - 4
	if visualLen(text) > maxLen {
		text = truncate(text, maxLen-3) + "..."
	}
	padding := b.width - visualLen(text) - 4
	if padding < 0 {
		padding = 0
	}
	fmt.Fprintf(b.writer, "%s%s%s  %s%s%s%s%s\n", dim, vertical, reset, color, text, reset, strings.Repeat(" ", padding), dim+vertical+reset)
}

// visualLen returns the visual length of a string (excluding ANSI codes)
func visualLen(s string) int {
	return utf8.RuneCountInString(s)
}

func truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

func orDefault(s string) string {
	if s == "" {
		return "(default)"
	}
	return s
}

func pluralize(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}
