package gesture

import (
	"math"
	"time"

	"github.com/haivivi/bodyview/pkg/sensor"
	"github.com/haivivi/bodyview/pkg/view"
)

// CircleConfig holds configuration for a CircleDetector.
type CircleConfig struct {
	// Turn is the accumulated turning angle that completes a circle, in
	// radians. Defaults to 0.95 of a full turn.
	Turn float64

	// MinDiameter is the smallest extent of the path, in meters. Defaults
	// to 0.1.
	MinDiameter float64

	// MinStep is the smallest movement treated as a direction, in meters.
	// Defaults to 0.005.
	MinStep float64

	// Window is how far back samples are kept. Defaults to 3s.
	Window time.Duration

	// Cooldown is the time after a detection during which input is ignored.
	// Defaults to 1s.
	Cooldown time.Duration

	// Size is the trail capacity. Defaults to 120.
	Size int
}

func (c *CircleConfig) setDefaults() {
	if c.Turn <= 0 {
		c.Turn = 0.95 * 2 * math.Pi
	}
	if c.MinDiameter <= 0 {
		c.MinDiameter = 0.1
	}
	if c.MinStep <= 0 {
		c.MinStep = 0.005
	}
	if c.Window <= 0 {
		c.Window = 3 * time.Second
	}
	if c.Cooldown <= 0 {
		c.Cooldown = time.Second
	}
	if c.Size <= 0 {
		c.Size = 120
	}
}

// CircleDetector reports a hand tracing a circle in the XY plane, in either
// direction. It sums the signed angle between successive movement
// directions; stationary samples do not count.
type CircleDetector struct {
	cfg   CircleConfig
	trail *Trail
	quiet time.Duration
}

// NewCircleDetector creates a CircleDetector.
func NewCircleDetector(cfg CircleConfig) *CircleDetector {
	cfg.setDefaults()
	return &CircleDetector{cfg: cfg, trail: NewTrail(cfg.Size)}
}

func (d *CircleDetector) Add(p sensor.Point3, at time.Duration) (string, bool) {
	if at < d.quiet {
		return "", false
	}
	d.trail.Add(Entry{Position: p, Time: at})
	d.trail.Prune(at, d.cfg.Window)

	if math.Abs(d.turning()) >= d.cfg.Turn && d.extent() >= d.cfg.MinDiameter {
		d.trail.Reset()
		d.quiet = at + d.cfg.Cooldown
		return view.GestureCircle, true
	}
	return "", false
}

func (d *CircleDetector) turning() float64 {
	var total, px, py float64
	var haveDirection bool
	anchor := d.trail.At(0).Position
	for i := 1; i < d.trail.Len(); i++ {
		cur := d.trail.At(i).Position
		dx, dy := cur.X-anchor.X, cur.Y-anchor.Y
		if math.Hypot(dx, dy) < d.cfg.MinStep {
			continue
		}
		if haveDirection {
			total += math.Atan2(px*dy-py*dx, px*dx+py*dy)
		}
		px, py, haveDirection = dx, dy, true
		anchor = cur
	}
	return total
}

func (d *CircleDetector) extent() float64 {
	first := d.trail.At(0).Position
	minX, maxX, minY, maxY := first.X, first.X, first.Y, first.Y
	for i := 1; i < d.trail.Len(); i++ {
		p := d.trail.At(i).Position
		minX, maxX = math.Min(minX, p.X), math.Max(maxX, p.X)
		minY, maxY = math.Min(minY, p.Y), math.Max(maxY, p.Y)
	}
	return math.Max(maxX-minX, maxY-minY)
}

func (d *CircleDetector) Reset() {
	d.trail.Reset()
	d.quiet = 0
}
