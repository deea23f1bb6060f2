package view

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/vmihailenco/msgpack/v5"
)

// Ensure all event types implement Event.
var (
	_ Event = (*Selection)(nil)
	_ Event = (*VoiceCommand)(nil)
	_ Event = (*Gesture)(nil)
)

// Gesture names produced by the recognizers.
const (
	GestureSwipeToLeft = "SwipeToLeft"
	GestureCircle      = "Circle"
)

// Event is a request to change the view.
type Event interface {
	isEvent()
	eventType() string
}

// Selection is a direct mode choice from a user interface.
type Selection struct {
	Mode Mode `json:"mode" msgpack:"mode"`
}

func (*Selection) isEvent()          {}
func (*Selection) eventType() string { return "view" }

// VoiceCommand is a recognized command token such as "Depth".
type VoiceCommand struct {
	Token      string  `json:"token" msgpack:"token"`
	Confidence float64 `json:"confidence,omitempty" msgpack:"confidence,omitempty"`
}

func (*VoiceCommand) isEvent()          {}
func (*VoiceCommand) eventType() string { return "voice" }

// Gesture is a recognized hand gesture such as "SwipeToLeft".
type Gesture struct {
	Name string `json:"name" msgpack:"name"`
}

func (*Gesture) isEvent()          {}
func (*Gesture) eventType() string { return "gesture" }

// EventType returns the wire type name of ev.
func EventType(ev Event) string {
	return ev.eventType()
}

// Envelope wraps an event with metadata for transport.
type Envelope struct {
	ID      string    `json:"id"`
	Type    string    `json:"type"`
	Time    time.Time `json:"time"`
	Source  string    `json:"source,omitempty"`
	Payload Event     `json:"pld"`
}

// NewEnvelope wraps ev with a fresh ID and the current time.
func NewEnvelope(ev Event, source string) *Envelope {
	return &Envelope{
		ID:      uuid.NewString(),
		Type:    ev.eventType(),
		Time:    time.Now(),
		Source:  source,
		Payload: ev,
	}
}

func newPayload(typ string) (Event, error) {
	switch typ {
	case "view":
		return new(Selection), nil
	case "voice":
		return new(VoiceCommand), nil
	case "gesture":
		return new(Gesture), nil
	default:
		return nil, fmt.Errorf("%w: type %q", ErrUnknownEvent, typ)
	}
}

// UnmarshalJSON implements json.Unmarshaler.
func (e *Envelope) UnmarshalJSON(b []byte) error {
	var v struct {
		ID      string          `json:"id"`
		Type    string          `json:"type"`
		Time    time.Time       `json:"time"`
		Source  string          `json:"source"`
		Payload json.RawMessage `json:"pld"`
	}
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	ev, err := newPayload(v.Type)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(v.Payload, ev); err != nil {
		return err
	}
	*e = Envelope{
		ID:      v.ID,
		Type:    v.Type,
		Time:    v.Time,
		Source:  v.Source,
		Payload: ev,
	}
	return nil
}

type envelopeWire struct {
	ID      string             `msgpack:"id"`
	Type    string             `msgpack:"type"`
	Time    time.Time          `msgpack:"time"`
	Source  string             `msgpack:"source,omitempty"`
	Payload msgpack.RawMessage `msgpack:"pld"`
}

// EncodeMsgpack implements msgpack.CustomEncoder.
func (e *Envelope) EncodeMsgpack(enc *msgpack.Encoder) error {
	pld, err := msgpack.Marshal(e.Payload)
	if err != nil {
		return fmt.Errorf("view: encode %s payload: %w", e.Type, err)
	}
	return enc.Encode(&envelopeWire{
		ID:      e.ID,
		Type:    e.Type,
		Time:    e.Time,
		Source:  e.Source,
		Payload: pld,
	})
}

// DecodeMsgpack implements msgpack.CustomDecoder.
func (e *Envelope) DecodeMsgpack(dec *msgpack.Decoder) error {
	var w envelopeWire
	if err := dec.Decode(&w); err != nil {
		return err
	}
	ev, err := newPayload(w.Type)
	if err != nil {
		return err
	}
	if err := msgpack.Unmarshal(w.Payload, ev); err != nil {
		return fmt.Errorf("view: decode %s payload: %w", w.Type, err)
	}
	*e = Envelope{
		ID:      w.ID,
		Type:    w.Type,
		Time:    w.Time,
		Source:  w.Source,
		Payload: ev,
	}
	return nil
}
