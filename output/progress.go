package output

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"code.cloudfoundry.org/bytefmt"
	"golang.org/x/time/rate"
)

const progressBarWidth = 30

// ProgressBar renders upload progress on a single terminal line. Updates
// arriving faster than the refresh rate are dropped, except the last one.
type ProgressBar struct {
	writer  io.Writer
	label   string
	limiter *rate.Limiter

	mu       sync.Mutex
	rendered bool
	width    int
}

func NewProgressBar(writer io.Writer, label string) *ProgressBar {
	return &ProgressBar{
		writer:  writer,
		label:   label,
		limiter: rate.NewLimiter(rate.Every(100*time.Millisecond), 1),
	}
}

// Update can be used directly as an upload progress callback.
func (b *ProgressBar) Update(total, sent int64) {
	if sent < total && !b.limiter.Allow() {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.render(total, sent)
}

// Finish ends the progress line. It does nothing when nothing was drawn.
func (b *ProgressBar) Finish() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.rendered {
		fmt.Fprintln(b.writer)
		b.rendered = false
	}
}

func (b *ProgressBar) render(total, sent int64) {
	percent := 100
	if total > 0 {
		percent = int(sent * 100 / total)
	}
	filled := progressBarWidth * percent / 100

	line := fmt.Sprintf("%s [%s%s] %s / %s (%d%%)",
		b.label,
		strings.Repeat("=", filled),
		strings.Repeat(" ", progressBarWidth-filled),
		bytefmt.ByteSize(uint64(sent)),
		bytefmt.ByteSize(uint64(total)),
		percent)

	// Blank out leftovers of a longer previous line.
	padding := ""
	if len(line) < b.width {
		padding = strings.Repeat(" ", b.width-len(line))
	}
	fmt.Fprintf(b.writer, "\r%s%s", line, padding)
	b.width = len(line)
	b.rendered = true
}
