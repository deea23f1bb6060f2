package skeleton

import (
	"encoding/json"
	"fmt"
)

// Kind is the shape of a scene primitive.
type Kind int

const (
	KindRect Kind = iota
	KindEllipse
	KindLine
)

// String returns the string representation of the kind.
func (k Kind) String() string {
	switch k {
	case KindRect:
		return "rect"
	case KindEllipse:
		return "ellipse"
	case KindLine:
		return "line"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// MarshalJSON implements json.Marshaler.
func (k Kind) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.String())
}

// Rect is an axis-aligned rectangle.
type Rect struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}

// Primitive is one drawing instruction. Which geometry fields are
// meaningful depends on Kind: Rect for rectangles, Center and Radius for
// ellipses, From and To for lines.
type Primitive struct {
	Kind   Kind
	Style  Style
	Rect   Rect
	Center Point
	Radius float64
	From   Point
	To     Point
}

// MarshalJSON implements json.Marshaler. Only the geometry of the
// primitive's kind is encoded.
func (p Primitive) MarshalJSON() ([]byte, error) {
	switch p.Kind {
	case KindRect:
		return json.Marshal(struct {
			Kind  Kind  `json:"kind"`
			Style Style `json:"style"`
			Rect
		}{p.Kind, p.Style, p.Rect})
	case KindEllipse:
		return json.Marshal(struct {
			Kind   Kind    `json:"kind"`
			Style  Style   `json:"style"`
			Center Point   `json:"center"`
			Radius float64 `json:"r"`
		}{p.Kind, p.Style, p.Center, p.Radius})
	case KindLine:
		return json.Marshal(struct {
			Kind  Kind  `json:"kind"`
			Style Style `json:"style"`
			From  Point `json:"from"`
			To    Point `json:"to"`
		}{p.Kind, p.Style, p.From, p.To})
	default:
		return nil, fmt.Errorf("skeleton: cannot encode %v", p.Kind)
	}
}

// Scene is an ordered list of primitives drawn back to front within Clip.
// A scene is immutable once built; it is safe to share between goroutines.
type Scene struct {
	Number     int64       `json:"number"`
	Width      float64     `json:"width"`
	Height     float64     `json:"height"`
	Clip       Rect        `json:"clip"`
	Primitives []Primitive `json:"primitives"`
}

func (s *Scene) rect(st Style, r Rect) {
	s.Primitives = append(s.Primitives, Primitive{Kind: KindRect, Style: st, Rect: r})
}

func (s *Scene) ellipse(st Style, c Point, r float64) {
	s.Primitives = append(s.Primitives, Primitive{Kind: KindEllipse, Style: st, Center: c, Radius: r})
}

func (s *Scene) line(st Style, from, to Point) {
	s.Primitives = append(s.Primitives, Primitive{Kind: KindLine, Style: st, From: from, To: to})
}
