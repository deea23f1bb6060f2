package eventbus

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/haivivi/bodyview/pkg/view"
)

// Encoding selects the wire format of published envelopes.
type Encoding int

const (
	JSON Encoding = iota
	Msgpack
)

func (e Encoding) String() string {
	switch e {
	case JSON:
		return "json"
	case Msgpack:
		return "msgpack"
	default:
		return fmt.Sprintf("Encoding(%d)", int(e))
	}
}

// ContentType returns the MQTT v5 content type for e.
func (e Encoding) ContentType() string {
	if e == Msgpack {
		return "application/msgpack"
	}
	return "application/json"
}

// ParseEncoding parses "json" or "msgpack".
func ParseEncoding(s string) (Encoding, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "json":
		return JSON, nil
	case "msgpack", "mp":
		return Msgpack, nil
	default:
		return 0, fmt.Errorf("eventbus: unknown encoding %q", s)
	}
}

// Encode serializes env.
func Encode(env *view.Envelope, enc Encoding) ([]byte, error) {
	switch enc {
	case JSON:
		return json.Marshal(env)
	case Msgpack:
		return msgpack.Marshal(env)
	default:
		return nil, fmt.Errorf("eventbus: unknown encoding %v", enc)
	}
}

// Decode parses an envelope in either encoding. JSON is recognized by a
// leading '{'; anything else is treated as msgpack.
func Decode(b []byte) (*view.Envelope, error) {
	var env view.Envelope
	trimmed := bytes.TrimLeft(b, " \t\r\n")
	if len(trimmed) > 0 && trimmed[0] == '{' {
		if err := json.Unmarshal(trimmed, &env); err != nil {
			return nil, fmt.Errorf("eventbus: decode json: %w", err)
		}
	} else {
		if err := msgpack.Unmarshal(b, &env); err != nil {
			return nil, fmt.Errorf("eventbus: decode msgpack: %w", err)
		}
	}
	if env.Payload == nil {
		return nil, fmt.Errorf("eventbus: envelope %q has no payload", env.ID)
	}
	return &env, nil
}
