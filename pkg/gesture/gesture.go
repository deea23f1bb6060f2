// Package gesture forwards hand positions from skeleton frames to gesture
// recognizers and turns their detections into view events.
//
// The left hand feeds a swipe recognizer and the right hand feeds a
// template recognizer. Both default to the simple detectors in this
// package; any Recognizer can be plugged in.
package gesture

import (
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/haivivi/bodyview/pkg/sensor"
	"github.com/haivivi/bodyview/pkg/view"
)

// Recognizer consumes the position stream of one joint. Add returns the
// name of a gesture when the newest sample completes one. Implementations
// are called from a single goroutine.
type Recognizer interface {
	Add(p sensor.Point3, at time.Duration) (gesture string, ok bool)
	Reset()
}

// Config holds configuration for a Bridge.
type Config struct {
	// Swipe receives the left hand. Defaults to a SwipeDetector.
	Swipe Recognizer

	// Template receives the right hand. Defaults to a CircleDetector.
	Template Recognizer
}

// Bridge feeds recognizers from skeleton frames. Forward must be called
// from one goroutine; the counters may be read from any.
type Bridge struct {
	swipe    Recognizer
	template Recognizer
	events   chan<- view.Event

	following int
	emitted   atomic.Uint64
	dropped   atomic.Uint64
}

// NewBridge creates a Bridge that sends detections to events. Sends never
// block: when events is full the detection is dropped and counted.
func NewBridge(events chan<- view.Event, cfg Config) *Bridge {
	if cfg.Swipe == nil {
		cfg.Swipe = NewSwipeDetector(SwipeConfig{})
	}
	if cfg.Template == nil {
		cfg.Template = NewCircleDetector(CircleConfig{})
	}
	return &Bridge{
		swipe:     cfg.Swipe,
		template:  cfg.Template,
		events:    events,
		following: -1,
	}
}

// Forward feeds one skeleton frame. The first Tracked skeleton is used;
// when that body changes the recognizers are reset. Hand joints that are
// NotTracked are not forwarded.
func (b *Bridge) Forward(f *sensor.SkeletonFrame) {
	if f == nil {
		return
	}
	var sk *sensor.Skeleton
	for i := range f.Skeletons {
		if f.Skeletons[i].TrackingState == sensor.SkeletonTracked {
			sk = &f.Skeletons[i]
			break
		}
	}
	if sk == nil {
		return
	}
	if sk.TrackingID != b.following {
		b.swipe.Reset()
		b.template.Reset()
		b.following = sk.TrackingID
	}

	if j := sk.Joint(sensor.HandLeft); j.TrackingState != sensor.JointNotTracked {
		if name, ok := b.swipe.Add(j.Position, f.Timestamp); ok {
			b.emit(name, f.Number)
		}
	}
	if j := sk.Joint(sensor.HandRight); j.TrackingState != sensor.JointNotTracked {
		if name, ok := b.template.Add(j.Position, f.Timestamp); ok {
			b.emit(name, f.Number)
		}
	}
}

func (b *Bridge) emit(name string, frame int64) {
	select {
	case b.events <- &view.Gesture{Name: name}:
		b.emitted.Add(1)
		slog.Debug("gesture: detected", "gesture", name, "frame", frame)
	default:
		b.dropped.Add(1)
		slog.Warn("gesture: event queue full, dropped", "gesture", name, "frame", frame)
	}
}

// Emitted returns the number of gestures delivered to the event channel.
func (b *Bridge) Emitted() uint64 { return b.emitted.Load() }

// Dropped returns the number of gestures lost to a full event channel.
func (b *Bridge) Dropped() uint64 { return b.dropped.Load() }
