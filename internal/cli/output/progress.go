package output

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"
)

// Progress draws a single-line progress bar for a known number of
// operations. Redraws are limited to one per interval.
type Progress struct {
	w        io.Writer
	title    string
	total    int64
	width    int
	interval time.Duration

	mu       sync.Mutex
	current  int64
	lastDraw time.Time
}

// NewProgress creates a progress bar for total operations.
func NewProgress(w io.Writer, title string, total int64) *Progress {
	return &Progress{
		w:        w,
		title:    title,
		total:    total,
		width:    30,
		interval: 100 * time.Millisecond,
	}
}

// Add records n finished operations.
func (p *Progress) Add(n int64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.current += n
	if now := time.Now(); now.Sub(p.lastDraw) >= p.interval {
		p.lastDraw = now
		p.draw()
	}
}

// Finish draws the final state and ends the line.
func (p *Progress) Finish() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.draw()
	fmt.Fprintln(p.w)
}

func (p *Progress) draw() {
	if p.total <= 0 {
		fmt.Fprintf(p.w, "\r%s %d", p.title, p.current)
		return
	}
	ratio := min(float64(p.current)/float64(p.total), 1)
	filled := int(float64(p.width) * ratio)
	fmt.Fprintf(p.w, "\r%s [%s%s] %3.0f%% (%d/%d)",
		p.title,
		strings.Repeat("█", filled),
		strings.Repeat("░", p.width-filled),
		ratio*100,
		p.current,
		p.total,
	)
}
