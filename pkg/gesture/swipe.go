package gesture

import (
	"math"
	"time"

	"github.com/haivivi/bodyview/pkg/sensor"
	"github.com/haivivi/bodyview/pkg/view"
)

// GestureSwipeToRight is reported for a left-to-right swipe. It has no
// default binding.
const GestureSwipeToRight = "SwipeToRight"

// SwipeConfig holds configuration for a SwipeDetector.
type SwipeConfig struct {
	// MinLength is the horizontal travel required, in meters. Defaults to 0.4.
	MinLength float64

	// MaxHeight is the vertical drift allowed, in meters. Defaults to 0.2.
	MaxHeight float64

	// MinDuration and MaxDuration bound how long the swipe may take.
	// Default to 250ms and 1.5s.
	MinDuration time.Duration
	MaxDuration time.Duration

	// Cooldown is the time after a detection during which input is ignored.
	// Defaults to 1s.
	Cooldown time.Duration

	// Size is the trail capacity. Defaults to 60.
	Size int
}

func (c *SwipeConfig) setDefaults() {
	if c.MinLength <= 0 {
		c.MinLength = 0.4
	}
	if c.MaxHeight <= 0 {
		c.MaxHeight = 0.2
	}
	if c.MinDuration <= 0 {
		c.MinDuration = 250 * time.Millisecond
	}
	if c.MaxDuration <= 0 {
		c.MaxDuration = 1500 * time.Millisecond
	}
	if c.Cooldown <= 0 {
		c.Cooldown = time.Second
	}
	if c.Size <= 0 {
		c.Size = 60
	}
}

// SwipeDetector reports horizontal swipes of one hand.
type SwipeDetector struct {
	cfg   SwipeConfig
	trail *Trail
	quiet time.Duration
}

// NewSwipeDetector creates a SwipeDetector.
func NewSwipeDetector(cfg SwipeConfig) *SwipeDetector {
	cfg.setDefaults()
	return &SwipeDetector{cfg: cfg, trail: NewTrail(cfg.Size)}
}

// jitter is the backwards horizontal motion tolerated between samples.
const jitter = 0.01

func (d *SwipeDetector) Add(p sensor.Point3, at time.Duration) (string, bool) {
	if at < d.quiet {
		return "", false
	}
	d.trail.Add(Entry{Position: p, Time: at})
	d.trail.Prune(at, d.cfg.MaxDuration)

	if name, ok := d.scan(-1, view.GestureSwipeToLeft); ok {
		d.fire(at)
		return name, true
	}
	if name, ok := d.scan(1, GestureSwipeToRight); ok {
		d.fire(at)
		return name, true
	}
	return "", false
}

// scan walks the trail oldest to newest, restarting the candidate swipe
// whenever the hand moves the wrong way or drifts vertically.
func (d *SwipeDetector) scan(dir float64, name string) (string, bool) {
	n := d.trail.Len()
	if n < 2 {
		return "", false
	}
	start := d.trail.At(0)
	prev := start
	for i := 1; i < n; i++ {
		cur := d.trail.At(i)
		if math.Abs(cur.Position.Y-start.Position.Y) > d.cfg.MaxHeight ||
			dir*(cur.Position.X-prev.Position.X) < -jitter {
			start = cur
			prev = cur
			continue
		}
		prev = cur
		travel := dir * (cur.Position.X - start.Position.X)
		dur := cur.Time - start.Time
		if travel >= d.cfg.MinLength && dur >= d.cfg.MinDuration && dur <= d.cfg.MaxDuration {
			return name, true
		}
	}
	return "", false
}

func (d *SwipeDetector) fire(at time.Duration) {
	d.trail.Reset()
	d.quiet = at + d.cfg.Cooldown
}

func (d *SwipeDetector) Reset() {
	d.trail.Reset()
	d.quiet = 0
}
