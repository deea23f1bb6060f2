package view

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Action is what a voice token or gesture does to the selector.
type Action string

const (
	ActionColor         Action = "color"
	ActionDepth         Action = "depth"
	ActionSkeleton      Action = "skeleton"
	ActionSwipe         Action = "swipe"
	ActionToggleOverlay Action = "toggle_overlay"
)

// Valid reports whether a is a known action.
func (a Action) Valid() bool {
	switch a {
	case ActionColor, ActionDepth, ActionSkeleton, ActionSwipe, ActionToggleOverlay:
		return true
	}
	return false
}

// Bindings maps voice tokens and gesture names to actions.
type Bindings struct {
	Voice    map[string]Action `yaml:"voice" json:"voice"`
	Gestures map[string]Action `yaml:"gestures" json:"gestures"`
}

// DefaultBindings returns the built-in bindings: the three mode tokens,
// SwipeToLeft toggling between color and depth, and Circle toggling the
// skeleton overlay.
func DefaultBindings() *Bindings {
	return &Bindings{
		Voice: map[string]Action{
			"Color":    ActionColor,
			"Depth":    ActionDepth,
			"Skeleton": ActionSkeleton,
		},
		Gestures: map[string]Action{
			GestureSwipeToLeft: ActionSwipe,
			GestureCircle:      ActionToggleOverlay,
		},
	}
}

// ParseBindings decodes a YAML bindings document and merges it over the
// defaults. An entry with an empty action removes the default binding.
//
//	voice:
//	  Colour: color
//	gestures:
//	  SwipeToLeft: swipe
//	  Circle: ""
func ParseBindings(data []byte) (*Bindings, error) {
	var doc Bindings
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("view: parse bindings: %w", err)
	}
	b := DefaultBindings()
	if err := merge(b.Voice, doc.Voice, "voice"); err != nil {
		return nil, err
	}
	if err := merge(b.Gestures, doc.Gestures, "gesture"); err != nil {
		return nil, err
	}
	return b, nil
}

// LoadBindings reads a bindings file. See ParseBindings.
func LoadBindings(path string) (*Bindings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("view: read bindings: %w", err)
	}
	return ParseBindings(data)
}

func merge(dst, src map[string]Action, kind string) error {
	for k, a := range src {
		if a == "" {
			delete(dst, k)
			continue
		}
		if !a.Valid() {
			return fmt.Errorf("view: %s %q: invalid action %q", kind, k, a)
		}
		dst[k] = a
	}
	return nil
}

// Marshal encodes the bindings as YAML.
func (b *Bindings) Marshal() ([]byte, error) {
	return yaml.Marshal(b)
}
