// Package view arbitrates which sensor output is visible. A Selector holds
// the single active Mode and the overlay suppression flag; both are changed
// by manual selection, voice commands and gestures, and read by every frame
// callback.
package view

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnknownMode is returned when a mode name cannot be parsed.
	ErrUnknownMode = errors.New("view: unknown mode")

	// ErrUnknownEvent is returned for events, voice tokens or gestures that
	// have no binding.
	ErrUnknownEvent = errors.New("view: unknown event")
)

// Mode is the visible output.
type Mode int32

const (
	ModeColor Mode = iota
	ModeDepth
	ModeSkeleton
)

// Modes lists every mode in display order.
var Modes = []Mode{ModeColor, ModeDepth, ModeSkeleton}

// String returns the string representation of the mode.
func (m Mode) String() string {
	switch m {
	case ModeColor:
		return "color"
	case ModeDepth:
		return "depth"
	case ModeSkeleton:
		return "skeleton"
	default:
		return fmt.Sprintf("mode(%d)", int32(m))
	}
}

// Valid reports whether m is one of the defined modes.
func (m Mode) Valid() bool {
	return m >= ModeColor && m <= ModeSkeleton
}

// ParseMode parses a mode name. Matching is case-insensitive so that both
// "depth" and the voice token "Depth" are accepted.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "color":
		return ModeColor, nil
	case "depth":
		return ModeDepth, nil
	case "skeleton":
		return ModeSkeleton, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownMode, s)
	}
}

// MarshalJSON implements json.Marshaler.
func (m Mode) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.String())
}

// UnmarshalJSON implements json.Unmarshaler.
func (m *Mode) UnmarshalJSON(b []byte) error {
	var name string
	if err := json.Unmarshal(b, &name); err != nil {
		return err
	}
	v, err := ParseMode(name)
	if err != nil {
		return err
	}
	*m = v
	return nil
}
