package gesture

import (
	"time"

	"github.com/haivivi/bodyview/pkg/sensor"
)

// Entry is one sample of a joint position.
type Entry struct {
	Position sensor.Point3
	Time     time.Duration
}

// Trail is a fixed-capacity ring of recent joint samples. When full, the
// oldest sample is overwritten. A Trail is not safe for concurrent use.
type Trail struct {
	buf        []Entry
	head, tail int64
}

// NewTrail creates a trail holding at most size samples.
func NewTrail(size int) *Trail {
	if size < 2 {
		size = 2
	}
	return &Trail{buf: make([]Entry, size)}
}

// Add appends a sample, overwriting the oldest one when full.
func (t *Trail) Add(e Entry) {
	t.buf[t.tail%int64(len(t.buf))] = e
	t.tail++
	if t.tail-t.head > int64(len(t.buf)) {
		t.head = t.tail - int64(len(t.buf))
	}
}

// Len returns the number of samples held.
func (t *Trail) Len() int {
	return int(t.tail - t.head)
}

// At returns the i-th sample, oldest first.
func (t *Trail) At(i int) Entry {
	return t.buf[(t.head+int64(i))%int64(len(t.buf))]
}

// Prune drops samples older than window relative to now.
func (t *Trail) Prune(now, window time.Duration) {
	for t.head < t.tail && now-t.At(0).Time > window {
		t.head++
	}
}

// Reset removes every sample.
func (t *Trail) Reset() {
	t.head, t.tail = 0, 0
}
