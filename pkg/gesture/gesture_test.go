package gesture

import (
	"math"
	"testing"
	"time"

	"github.com/haivivi/bodyview/pkg/sensor"
	"github.com/haivivi/bodyview/pkg/view"
)

const tick = time.Second / 30

func TestTrail(t *testing.T) {
	tr := NewTrail(3)
	for i := 0; i < 5; i++ {
		tr.Add(Entry{Time: time.Duration(i) * time.Second})
	}
	if tr.Len() != 3 {
		t.Fatalf("Len() = %d; want 3", tr.Len())
	}
	if tr.At(0).Time != 2*time.Second || tr.At(tr.Len()-1).Time != 4*time.Second {
		t.Errorf("window = %v..%v; want 2s..4s", tr.At(0).Time, tr.At(tr.Len()-1).Time)
	}
	tr.Prune(4*time.Second, 1500*time.Millisecond)
	if tr.Len() != 2 || tr.At(0).Time != 3*time.Second {
		t.Errorf("after prune Len=%d first=%v", tr.Len(), tr.At(0).Time)
	}
	tr.Reset()
	if tr.Len() != 0 {
		t.Errorf("after reset Len=%d", tr.Len())
	}
}

func TestSwipeDetector(t *testing.T) {
	tests := []struct {
		name string
		dx   float64 // per tick
		dy   float64
		want string
	}{
		{"right to left", -0.03, 0, view.GestureSwipeToLeft},
		{"left to right", 0.03, 0, GestureSwipeToRight},
		{"too slow", -0.005, 0, ""},
		{"too steep", -0.03, 0.03, ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			d := NewSwipeDetector(SwipeConfig{})
			var got string
			p := sensor.Point3{X: 0.5, Y: 0.3, Z: 2}
			for i := 0; i < 45 && got == ""; i++ {
				if name, ok := d.Add(p, time.Duration(i)*tick); ok {
					got = name
				}
				p.X += tc.dx
				p.Y += tc.dy
			}
			if got != tc.want {
				t.Errorf("detected %q; want %q", got, tc.want)
			}
		})
	}
}

func TestSwipeDetector_Cooldown(t *testing.T) {
	d := NewSwipeDetector(SwipeConfig{})
	n := 0
	p := sensor.Point3{X: 1, Y: 0, Z: 2}
	for i := 0; i < 45; i++ {
		if _, ok := d.Add(p, time.Duration(i)*tick); ok {
			n++
		}
		p.X -= 0.03
	}
	if n != 1 {
		t.Errorf("detections = %d; want 1", n)
	}
}

func circlePoint(i int, r float64) sensor.Point3 {
	a := float64(i) * 2 * math.Pi / 30
	return sensor.Point3{X: r * math.Cos(a), Y: r * math.Sin(a), Z: 2}
}

func TestCircleDetector(t *testing.T) {
	tests := []struct {
		name   string
		radius float64
		dir    int
		want   bool
	}{
		{"counter-clockwise", 0.15, 1, true},
		{"clockwise", 0.15, -1, true},
		{"too small", 0.01, 1, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			d := NewCircleDetector(CircleConfig{})
			var got bool
			for i := 0; i < 40 && !got; i++ {
				_, got = d.Add(circlePoint(tc.dir*i, tc.radius), time.Duration(i)*tick)
			}
			if got != tc.want {
				t.Errorf("detected = %v; want %v", got, tc.want)
			}
		})
	}
}

func TestCircleDetector_StraightLine(t *testing.T) {
	d := NewCircleDetector(CircleConfig{})
	for i := 0; i < 90; i++ {
		p := sensor.Point3{X: float64(i) * 0.02, Y: 0, Z: 2}
		if _, ok := d.Add(p, time.Duration(i)*tick); ok {
			t.Fatalf("straight line detected as circle at %d", i)
		}
	}
}

// recorder is a Recognizer that records its input.
type recorder struct {
	points []sensor.Point3
	resets int
	fireAt int
}

func (r *recorder) Add(p sensor.Point3, _ time.Duration) (string, bool) {
	r.points = append(r.points, p)
	if len(r.points) == r.fireAt {
		return "Test", true
	}
	return "", false
}

func (r *recorder) Reset() { r.resets++ }

func frame(n int64, sks ...sensor.Skeleton) *sensor.SkeletonFrame {
	return &sensor.SkeletonFrame{Number: n, Timestamp: time.Duration(n) * tick, Skeletons: sks}
}

func body(id int, x float64) sensor.Skeleton {
	sk := sensor.NewSkeleton()
	sk.TrackingID = id
	sk.TrackingState = sensor.SkeletonTracked
	for i := range sk.Joints {
		sk.Joints[i].TrackingState = sensor.JointTracked
		sk.Joints[i].Position = sensor.Point3{X: x, Y: float64(i), Z: 2}
	}
	return sk
}

func TestBridge_ForwardsHands(t *testing.T) {
	left, right := &recorder{}, &recorder{}
	b := NewBridge(make(chan view.Event, 1), Config{Swipe: left, Template: right})

	po := sensor.NewSkeleton()
	po.TrackingState = sensor.SkeletonPositionOnly
	b.Forward(frame(1, po, body(7, 1)))

	if len(left.points) != 1 || left.points[0].Y != float64(sensor.HandLeft) {
		t.Errorf("swipe got %v; want hand_left", left.points)
	}
	if len(right.points) != 1 || right.points[0].Y != float64(sensor.HandRight) {
		t.Errorf("template got %v; want hand_right", right.points)
	}

	// Untracked hand is not forwarded.
	sk := body(7, 1)
	sk.Joints[sensor.HandLeft].TrackingState = sensor.JointNotTracked
	b.Forward(frame(2, sk))
	if len(left.points) != 1 || len(right.points) != 2 {
		t.Errorf("after untracked hand: left %d right %d", len(left.points), len(right.points))
	}

	// Nil frames and frames without tracked bodies are ignored.
	b.Forward(nil)
	b.Forward(frame(3, sensor.NewSkeleton()))
	if len(right.points) != 2 {
		t.Errorf("ignored frames fed the recognizer")
	}
}

func TestBridge_ResetsOnNewBody(t *testing.T) {
	left, right := &recorder{}, &recorder{}
	b := NewBridge(make(chan view.Event, 1), Config{Swipe: left, Template: right})
	b.Forward(frame(1, body(1, 0)))
	b.Forward(frame(2, body(1, 0)))
	b.Forward(frame(3, body(2, 0)))
	if left.resets != 2 || right.resets != 2 {
		t.Errorf("resets = %d/%d; want 2/2", left.resets, right.resets)
	}
}

func TestBridge_EmitAndDrop(t *testing.T) {
	ch := make(chan view.Event, 1)
	b := NewBridge(ch, Config{Swipe: &recorder{fireAt: 1}, Template: &recorder{fireAt: 1}})
	b.Forward(frame(1, body(1, 0)))

	if b.Emitted() != 1 || b.Dropped() != 1 {
		t.Errorf("emitted %d dropped %d; want 1/1", b.Emitted(), b.Dropped())
	}
	ev := <-ch
	if g, ok := ev.(*view.Gesture); !ok || g.Name != "Test" {
		t.Errorf("event = %#v", ev)
	}
}

func TestBridge_Simulator(t *testing.T) {
	ch := make(chan view.Event, 16)
	b := NewBridge(ch, Config{})
	sim := sensor.NewSimulator(sensor.SimulatorConfig{Bodies: 1})
	for n := int64(0); n < 8*30; n++ {
		b.Forward(sim.SkeletonFrame(n, float64(n)/30))
	}
	close(ch)

	counts := map[string]int{}
	for ev := range ch {
		counts[ev.(*view.Gesture).Name]++
	}
	if counts[view.GestureCircle] != 1 || counts[view.GestureSwipeToLeft] != 1 {
		t.Errorf("gestures over one routine = %v; want one circle and one swipe", counts)
	}
}
