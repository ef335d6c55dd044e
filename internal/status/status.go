package status

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/chr1sbest/splice/internal/workflow"
)

// ANSI escape codes
const (
	clearLine  = "\033[2K"
	moveUp     = "\033[A"
	moveToCol0 = "\r"
	reset      = "\033[0m"
	bold       = "\033[1m"
	dim        = "\033[2m"
	green      = "\033[32m"
	red        = "\033[31m"
)

// Progress bar characters
const (
	barFilled = "█"
	barEmpty  = "░"
	barWidth  = 20
)

// Writer handles in-place status updates to the terminal. It implements
// workflow.Observer.
type Writer struct {
	w            io.Writer
	mu           sync.Mutex
	linesWritten int
	total        int
	done         int
	started      time.Time
}

var _ workflow.Observer = (*Writer)(nil)

// NewWithWriter creates a status writer with a custom output
func NewWithWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// Clear erases any previously written status lines
func (s *Writer) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clear()
}

func (s *Writer) clear() {
	for i := 0; i < s.linesWritten; i++ {
		fmt.Fprint(s.w, moveUp+clearLine)
	}
	fmt.Fprint(s.w, moveToCol0)
	s.linesWritten = 0
}

// Update clears previous status and writes new status
func (s *Writer) Update(lines ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.update(lines...)
}

func (s *Writer) update(lines ...string) {
	s.clear()
	for _, line := range lines {
		fmt.Fprintln(s.w, line)
	}
	s.linesWritten = len(lines)
}

// progressBar generates a progress bar string
func progressBar(completed, total int) string {
	if total == 0 {
		return strings.Repeat(barEmpty, barWidth)
	}

	filled := (completed * barWidth) / total
	if filled > barWidth {
		filled = barWidth
	}

	return green + strings.Repeat(barFilled, filled) + reset +
		dim + strings.Repeat(barEmpty, barWidth-filled) + reset
}

// RunStarted shows an empty progress bar for the run.
func (s *Writer) RunStarted(runID string, files int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.total = files
	s.done = 0
	s.started = time.Now()
	s.update(fmt.Sprintf("%s %s0/%d%s %sextracting%s", progressBar(0, files), dim, files, reset, bold, reset))
}

// FileExtracted advances the progress bar.
func (s *Writer) FileExtracted(done, total int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// never move the bar backwards
	if done <= s.done {
		return
	}
	s.done = done

	label := "extracting"
	if done == total {
		label = "merging"
	}
	s.update(fmt.Sprintf("%s %s%d/%d%s %s%s%s", progressBar(done, total), dim, done, total, reset, bold, label, reset))
}

// RunSucceeded replaces the bar with a completion summary.
func (s *Writer) RunSucceeded(res *workflow.Result) {
	s.mu.Lock()
	defer s.mu.Unlock()

	lines := []string{
		fmt.Sprintf("%s %s%d/%d%s", progressBar(res.Records, res.Records), dim, res.Records, res.Records, reset),
		fmt.Sprintf("%s✓ Wrote %s%s %s(%s, %s)%s",
			green+bold, displayLocation(res), reset,
			dim, humanize.Bytes(uint64(res.Artifact.Size())), res.Duration.Round(time.Millisecond), reset),
	}
	s.update(lines...)
	// Keep the summary on screen.
	s.linesWritten = 0
}

// RunFailed prints the error. Error output is never cleared.
func (s *Writer) RunFailed(runID string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.clear()
	fmt.Fprintf(s.w, "%s✗ Run failed%s\n", red+bold, reset)
	fmt.Fprintf(s.w, "%s%v%s\n", dim, err, reset)
}

// Waiting shows the idle line used in watch mode.
func (s *Writer) Waiting() {
	s.Update(fmt.Sprintf("%s⏳ Watching for changes...%s", dim, reset))
}

func displayLocation(res *workflow.Result) string {
	if res.Location == "-" {
		return res.Name + " to stdout"
	}
	return res.Location
}
