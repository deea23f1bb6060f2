package eventbus

import (
	"errors"
	"fmt"
	"strings"
)

// ErrBadTopic is returned for topics outside the bodyview layout.
var ErrBadTopic = errors.New("eventbus: bad topic")

// Event kinds, one topic each.
const (
	KindGesture = "gesture"
	KindVoice   = "voice"
	KindView    = "view"
)

// Topics builds topic names of the form
//
//	<namespace>bodyview/<sensor>/<kind>
//
// Namespace is prepended verbatim and should end with "/" when set.
type Topics struct {
	Namespace string
	Sensor    string
}

func (t Topics) sensor() string {
	if t.Sensor == "" {
		return "default"
	}
	return t.Sensor
}

// Topic returns the topic for kind.
func (t Topics) Topic(kind string) string {
	return t.Namespace + "bodyview/" + t.sensor() + "/" + kind
}

// Filter returns the subscription filter matching every kind for the
// sensor.
func (t Topics) Filter() string {
	return t.Topic("+")
}

// Parse returns the kind of topic, which must belong to t's sensor.
func (t Topics) Parse(topic string) (kind string, err error) {
	prefix := t.Namespace + "bodyview/" + t.sensor() + "/"
	kind, ok := strings.CutPrefix(topic, prefix)
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrBadTopic, topic)
	}
	switch kind {
	case KindGesture, KindVoice, KindView:
		return kind, nil
	default:
		return "", fmt.Errorf("%w: unknown kind %q", ErrBadTopic, kind)
	}
}
