package cli

import (
	"strings"
	"sync"
)

// LogWriter captures log output for the TUI log pane. It keeps the last
// lines in a ring and announces new lines on a channel.
type LogWriter struct {
	mu    sync.Mutex
	lines []string
	head  int64
	tail  int64

	ch chan string
}

// NewLogWriter creates a LogWriter that keeps maxLines lines.
func NewLogWriter(maxLines int) *LogWriter {
	if maxLines <= 0 {
		maxLines = 1
	}
	return &LogWriter{
		lines: make([]string, maxLines),
		ch:    make(chan string, 100),
	}
}

// Write implements io.Writer. Input may hold several lines.
func (w *LogWriter) Write(p []byte) (int, error) {
	text := strings.TrimRight(string(p), "\n")
	for _, line := range strings.Split(text, "\n") {
		w.add(line)
		select {
		case w.ch <- line:
		default:
		}
	}
	return len(p), nil
}

func (w *LogWriter) add(line string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	size := int64(len(w.lines))
	w.lines[w.tail%size] = line
	w.tail++
	if w.tail-w.head > size {
		w.head = w.tail - size
	}
}

// Lines returns the buffered lines, oldest first.
func (w *LogWriter) Lines() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	size := int64(len(w.lines))
	out := make([]string, 0, w.tail-w.head)
	for i := w.head; i < w.tail; i++ {
		out = append(out, w.lines[i%size])
	}
	return out
}

// Channel returns the channel of new lines. Lines are dropped when nobody
// reads.
func (w *LogWriter) Channel() <-chan string {
	return w.ch
}
