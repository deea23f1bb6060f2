package view

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
)

// State is a snapshot of the selector.
type State struct {
	Mode       Mode `json:"mode"`
	Suppressed bool `json:"suppressed"`
}

// Config holds configuration for a Selector.
type Config struct {
	// Initial is the starting mode. Defaults to ModeColor.
	Initial Mode

	// Suppressed is the starting overlay suppression flag.
	Suppressed bool

	// Bindings maps voice tokens and gestures to actions. Defaults to
	// DefaultBindings().
	Bindings *Bindings
}

// Selector owns the active mode and the overlay suppression flag. Reads are
// lock-free; concurrent toggles from different sources are applied
// atomically and never lost.
type Selector struct {
	mode       atomic.Int32
	suppressed atomic.Bool
	bindings   *Bindings

	mu     sync.Mutex
	nextID int
	subs   map[int]func(State)
}

// NewSelector creates a Selector.
func NewSelector(cfg Config) *Selector {
	if !cfg.Initial.Valid() {
		cfg.Initial = ModeColor
	}
	if cfg.Bindings == nil {
		cfg.Bindings = DefaultBindings()
	}
	s := &Selector{
		bindings: cfg.Bindings,
		subs:     make(map[int]func(State)),
	}
	s.mode.Store(int32(cfg.Initial))
	s.suppressed.Store(cfg.Suppressed)
	return s
}

// Mode returns the active mode.
func (s *Selector) Mode() Mode {
	return Mode(s.mode.Load())
}

// Suppressed reports whether the skeleton overlay is hidden.
func (s *Selector) Suppressed() bool {
	return s.suppressed.Load()
}

// State returns the current mode and suppression flag.
func (s *Selector) State() State {
	return State{Mode: s.Mode(), Suppressed: s.Suppressed()}
}

// Select makes m the active mode.
func (s *Selector) Select(m Mode) error {
	if !m.Valid() {
		return fmt.Errorf("%w: %d", ErrUnknownMode, int32(m))
	}
	if Mode(s.mode.Swap(int32(m))) != m {
		s.notify()
	}
	return nil
}

// SetSuppressed sets the overlay suppression flag.
func (s *Selector) SetSuppressed(v bool) {
	if s.suppressed.Swap(v) != v {
		s.notify()
	}
}

// ApplyVoice applies a recognized voice token.
func (s *Selector) ApplyVoice(token string) error {
	a, ok := s.bindings.Voice[token]
	if !ok {
		return fmt.Errorf("%w: voice token %q", ErrUnknownEvent, token)
	}
	return s.do(a)
}

// ApplyGesture applies a recognized gesture.
func (s *Selector) ApplyGesture(name string) error {
	a, ok := s.bindings.Gestures[name]
	if !ok {
		return fmt.Errorf("%w: gesture %q", ErrUnknownEvent, name)
	}
	return s.do(a)
}

// Apply dispatches ev to Select, ApplyVoice or ApplyGesture.
func (s *Selector) Apply(ev Event) error {
	switch ev := ev.(type) {
	case *Selection:
		return s.Select(ev.Mode)
	case *VoiceCommand:
		return s.ApplyVoice(ev.Token)
	case *Gesture:
		return s.ApplyGesture(ev.Name)
	default:
		return fmt.Errorf("%w: %T", ErrUnknownEvent, ev)
	}
}

// Run applies events from ch until ch is closed or ctx is done. Events
// that cannot be applied are logged and skipped.
func (s *Selector) Run(ctx context.Context, ch <-chan Event) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-ch:
			if !ok {
				return nil
			}
			if err := s.Apply(ev); err != nil {
				if errors.Is(err, ErrUnknownEvent) {
					slog.Debug("view: ignored event", "error", err)
				} else {
					slog.Warn("view: apply event", "error", err)
				}
			}
		}
	}
}

func (s *Selector) do(a Action) error {
	switch a {
	case ActionColor:
		return s.Select(ModeColor)
	case ActionDepth:
		return s.Select(ModeDepth)
	case ActionSkeleton:
		return s.Select(ModeSkeleton)
	case ActionSwipe:
		s.swipe()
		return nil
	case ActionToggleOverlay:
		s.toggleOverlay()
		return nil
	default:
		return fmt.Errorf("%w: action %q", ErrUnknownEvent, a)
	}
}

// swipe moves depth to color and everything else to depth.
func (s *Selector) swipe() {
	for {
		old := s.mode.Load()
		next := int32(ModeDepth)
		if Mode(old) == ModeDepth {
			next = int32(ModeColor)
		}
		if s.mode.CompareAndSwap(old, next) {
			break
		}
	}
	s.notify()
}

func (s *Selector) toggleOverlay() {
	for {
		old := s.suppressed.Load()
		if s.suppressed.CompareAndSwap(old, !old) {
			break
		}
	}
	s.notify()
}

// Subscribe registers fn to be called with the new state after every
// change. fn runs on the goroutine that made the change and must not block.
// The returned function removes the subscription.
func (s *Selector) Subscribe(fn func(State)) (cancel func()) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	s.mu.Unlock()
	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

func (s *Selector) notify() {
	st := s.State()
	s.mu.Lock()
	fns := make([]func(State), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.mu.Unlock()
	for _, fn := range fns {
		fn(st)
	}
}
