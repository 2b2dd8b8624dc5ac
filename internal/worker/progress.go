package worker

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

const barWidth = 30

// Progress renders a single-line progress bar for a batch and keeps the
// counts for the final summary. Skipped images do not count toward the
// throughput.
type Progress struct {
	mu      sync.Mutex
	counts  Counts
	start   time.Time
	out     io.Writer
	enabled bool
	now     func() time.Time
}

// NewProgress returns a tracker for total images. Nothing is printed
// unless enabled is set.
func NewProgress(total int, enabled bool) *Progress {
	return &Progress{
		counts:  Counts{Total: total},
		start:   time.Now(),
		out:     os.Stderr,
		enabled: enabled,
		now:     time.Now,
	}
}

// Update stores c and redraws the bar.
func (p *Progress) Update(c Counts) {
	p.mu.Lock()
	p.counts = c
	p.mu.Unlock()

	if p.enabled {
		p.Print()
	}
}

// Callback returns p.Update as a ProgressFunc for Config.OnProgress.
func (p *Progress) Callback() ProgressFunc {
	return p.Update
}

func (p *Progress) snapshot() (Counts, time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.counts, p.now().Sub(p.start)
}

// rate is images written per second.
func rate(c Counts, elapsed time.Duration) float64 {
	if elapsed <= 0 {
		return 0
	}
	return float64(c.Processed()) / elapsed.Seconds()
}

func bar(done, total int) string {
	filled := 0
	if total > 0 {
		filled = done * barWidth / total
	}
	filled = min(max(filled, 0), barWidth)
	return strings.Repeat("█", filled) + strings.Repeat("░", barWidth-filled)
}

// Print redraws the bar in place.
func (p *Progress) Print() {
	c, elapsed := p.snapshot()
	r := rate(c, elapsed)

	var b strings.Builder
	fmt.Fprintf(&b, "\r[%s] %d/%d images", bar(c.Done, c.Total), c.Done, c.Total)
	if c.Skipped > 0 {
		fmt.Fprintf(&b, " (%d skipped)", c.Skipped)
	}
	if c.Failed > 0 {
		fmt.Fprintf(&b, " (%d failed)", c.Failed)
	}
	fmt.Fprintf(&b, " - %.1f images/sec", r)

	switch {
	case c.Done >= c.Total:
		fmt.Fprintf(&b, " - Done in %s", formatDuration(elapsed))
	case c.Done > 0:
		// ETA from the overall pace, skipped images included.
		perImage := elapsed / time.Duration(c.Done)
		fmt.Fprintf(&b, " - ETA: %s", formatDuration(perImage*time.Duration(c.Total-c.Done)))
	}

	// clear leftovers of a longer previous line
	b.WriteString("          ")
	fmt.Fprint(p.out, b.String())
}

// Done prints the final state and ends the line.
func (p *Progress) Done() {
	if !p.enabled {
		return
	}
	p.Print()
	fmt.Fprintln(p.out)
}

// Summary describes the finished batch.
func (p *Progress) Summary() string {
	c, elapsed := p.snapshot()
	return fmt.Sprintf("Processed %d/%d images (%d skipped, %d failed) in %s (%.1f images/sec)",
		c.Processed(), c.Total, c.Skipped, c.Failed, formatDuration(elapsed), rate(c, elapsed))
}

func formatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	switch {
	case d < time.Minute:
		return fmt.Sprintf("%ds", int(d.Seconds()))
	case d < time.Hour:
		return fmt.Sprintf("%dm%ds", int(d.Minutes()), int(d.Seconds())%60)
	default:
		return fmt.Sprintf("%dh%dm", int(d.Hours()), int(d.Minutes())%60)
	}
}
