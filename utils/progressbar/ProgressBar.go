// Package progressbar implements functionality of printing a progress
// bar to a terminal window
package progressbar

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"
)

// ProgressBar prints the progress of a rollout to a writer. It must be
// managed manually: Display must be called whenever an updated bar
// should be printed. A ProgressBar is safe for concurrent use.
type ProgressBar struct {
	mu sync.Mutex

	out     io.Writer
	width   int
	max     int
	current int
	label   string
	start   time.Time
	closed  bool
}

// New returns a new progress bar that is width characters wide and
// reaches 100% after max Increment calls
func New(out io.Writer, width, max int) *ProgressBar {
	if max <= 0 {
		panic(fmt.Sprintf("new: max progress must be positive, got %v", max))
	}
	return &ProgressBar{
		out:   out,
		width: width,
		max:   max,
		start: time.Now(),
	}
}

// Increment increments the internal progress counter. Progress never
// exceeds the maximum.
func (p *ProgressBar) Increment() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.current < p.max {
		p.current++
	}
}

// SetLabel sets a short status string printed after the bar
func (p *ProgressBar) SetLabel(label string) {
	p.mu.Lock()
	p.label = label
	p.mu.Unlock()
}

// Progress returns the fraction of progress made, in [0, 1]
func (p *ProgressBar) Progress() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return float64(p.current) / float64(p.max)
}

// String returns the bar as it would currently be displayed
func (p *ProgressBar) String() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.bar(time.Since(p.start))
}

func (p *ProgressBar) bar(elapsed time.Duration) string {
	filled := p.current * p.width / p.max

	var b strings.Builder
	b.WriteString("|")
	b.WriteString(strings.Repeat("█", filled))
	b.WriteString(strings.Repeat(" ", p.width-filled))
	fmt.Fprintf(&b, "| [%.2f%% | elapsed: %v]",
		float64(p.current)/float64(p.max)*100, elapsed.Truncate(time.Second))
	if p.label != "" {
		fmt.Fprintf(&b, " %v", p.label)
	}
	return b.String()
}

// Display redraws the bar in place on the current terminal line
func (p *ProgressBar) Display() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	fmt.Fprintf(p.out, "\r\033[K%v", p.bar(time.Since(p.start)))
}

// Close prints the final state of the bar and moves to the next line.
// Close panics if called twice.
func (p *ProgressBar) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		panic("close: close on closed progress bar")
	}
	fmt.Fprintf(p.out, "\r\033[K%v\n", p.bar(time.Since(p.start)))
	p.closed = true
}
