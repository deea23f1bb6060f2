package view

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/vmihailenco/msgpack/v5"
)

func TestParseMode(t *testing.T) {
	tests := []struct {
		in      string
		want    Mode
		wantErr bool
	}{
		{"color", ModeColor, false},
		{"Depth", ModeDepth, false},
		{" SKELETON ", ModeSkeleton, false},
		{"infrared", 0, true},
		{"", 0, true},
	}
	for _, tc := range tests {
		got, err := ParseMode(tc.in)
		if tc.wantErr {
			if !errors.Is(err, ErrUnknownMode) {
				t.Errorf("ParseMode(%q) error = %v; want ErrUnknownMode", tc.in, err)
			}
			continue
		}
		if err != nil || got != tc.want {
			t.Errorf("ParseMode(%q) = %v, %v; want %v", tc.in, got, err, tc.want)
		}
	}
}

func TestMode_JSON(t *testing.T) {
	b, err := json.Marshal(ModeSkeleton)
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != `"skeleton"` {
		t.Errorf("Marshal = %s", b)
	}
	var m Mode
	if err := json.Unmarshal([]byte(`"depth"`), &m); err != nil || m != ModeDepth {
		t.Errorf("Unmarshal = %v, %v", m, err)
	}
}

func TestSelector_Initial(t *testing.T) {
	if m := NewSelector(Config{}).Mode(); m != ModeColor {
		t.Errorf("default mode = %v; want color", m)
	}
	s := NewSelector(Config{Initial: ModeSkeleton, Suppressed: true})
	if st := s.State(); st != (State{ModeSkeleton, true}) {
		t.Errorf("State() = %+v", st)
	}
	if m := NewSelector(Config{Initial: Mode(9)}).Mode(); m != ModeColor {
		t.Errorf("invalid initial = %v; want color", m)
	}
}

func TestSelector_Swipe(t *testing.T) {
	tests := []struct {
		from, want Mode
	}{
		{ModeColor, ModeDepth},
		{ModeDepth, ModeColor},
		{ModeSkeleton, ModeDepth},
	}
	for _, tc := range tests {
		s := NewSelector(Config{Initial: tc.from})
		if err := s.ApplyGesture(GestureSwipeToLeft); err != nil {
			t.Fatalf("ApplyGesture: %v", err)
		}
		if got := s.Mode(); got != tc.want {
			t.Errorf("swipe from %v = %v; want %v", tc.from, got, tc.want)
		}
	}
}

func TestSelector_Circle(t *testing.T) {
	s := NewSelector(Config{Initial: ModeDepth})
	for i, want := range []bool{true, false, true} {
		if err := s.ApplyGesture(GestureCircle); err != nil {
			t.Fatal(err)
		}
		if got := s.Suppressed(); got != want {
			t.Errorf("after %d circles suppressed = %v; want %v", i+1, got, want)
		}
	}
	if s.Mode() != ModeDepth {
		t.Errorf("circle changed mode to %v", s.Mode())
	}
}

func TestSelector_Voice(t *testing.T) {
	s := NewSelector(Config{})
	for _, tc := range []struct {
		token string
		want  Mode
	}{
		{"Depth", ModeDepth},
		{"Skeleton", ModeSkeleton},
		{"Color", ModeColor},
	} {
		if err := s.ApplyVoice(tc.token); err != nil {
			t.Fatalf("ApplyVoice(%q): %v", tc.token, err)
		}
		if s.Mode() != tc.want {
			t.Errorf("ApplyVoice(%q) mode = %v; want %v", tc.token, s.Mode(), tc.want)
		}
	}
	if err := s.ApplyVoice("Infrared"); !errors.Is(err, ErrUnknownEvent) {
		t.Errorf("unknown token error = %v", err)
	}
	if s.Mode() != ModeColor {
		t.Errorf("unknown token changed mode to %v", s.Mode())
	}
}

func TestSelector_Apply(t *testing.T) {
	s := NewSelector(Config{})
	if err := s.Apply(&Selection{Mode: ModeSkeleton}); err != nil || s.Mode() != ModeSkeleton {
		t.Errorf("Apply(Selection) = %v, mode %v", err, s.Mode())
	}
	if err := s.Apply(&Selection{Mode: Mode(-1)}); !errors.Is(err, ErrUnknownMode) {
		t.Errorf("Apply(bad selection) = %v", err)
	}
	if err := s.Apply(&VoiceCommand{Token: "Depth"}); err != nil || s.Mode() != ModeDepth {
		t.Errorf("Apply(Voice) = %v, mode %v", err, s.Mode())
	}
	if err := s.Apply(&Gesture{Name: "Wave"}); !errors.Is(err, ErrUnknownEvent) {
		t.Errorf("Apply(unknown gesture) = %v", err)
	}
}

func TestSelector_ConcurrentCircles(t *testing.T) {
	s := NewSelector(Config{})
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 125; j++ {
				_ = s.ApplyGesture(GestureCircle)
			}
		}()
	}
	wg.Wait()
	// 1000 toggles leave the flag where it started.
	if s.Suppressed() {
		t.Error("suppressed = true after an even number of toggles")
	}
}

func TestSelector_Subscribe(t *testing.T) {
	s := NewSelector(Config{})
	var got []State
	cancel := s.Subscribe(func(st State) { got = append(got, st) })

	_ = s.Select(ModeDepth)
	_ = s.Select(ModeDepth) // no change, no notification
	_ = s.ApplyGesture(GestureCircle)
	cancel()
	_ = s.Select(ModeColor)

	want := []State{{ModeDepth, false}, {ModeDepth, true}}
	if len(got) != len(want) {
		t.Fatalf("notifications = %+v; want %+v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("notification %d = %+v; want %+v", i, got[i], want[i])
		}
	}
}

func TestSelector_Run(t *testing.T) {
	s := NewSelector(Config{})
	ch := make(chan Event, 4)
	ch <- &Gesture{Name: GestureSwipeToLeft}
	ch <- &VoiceCommand{Token: "nonsense"}
	ch <- &Gesture{Name: GestureCircle}
	close(ch)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.Run(ctx, ch); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if st := s.State(); st != (State{ModeDepth, true}) {
		t.Errorf("State() = %+v; want depth, suppressed", st)
	}
}

func TestBindings_Parse(t *testing.T) {
	doc := []byte(`
voice:
  Colour: color
  Skeleton: ""
gestures:
  Wave: skeleton
`)
	b, err := ParseBindings(doc)
	if err != nil {
		t.Fatalf("ParseBindings: %v", err)
	}
	if b.Voice["Colour"] != ActionColor || b.Voice["Color"] != ActionColor {
		t.Errorf("voice = %v", b.Voice)
	}
	if _, ok := b.Voice["Skeleton"]; ok {
		t.Error("Skeleton binding not removed")
	}
	if b.Gestures[GestureSwipeToLeft] != ActionSwipe || b.Gestures["Wave"] != ActionSkeleton {
		t.Errorf("gestures = %v", b.Gestures)
	}

	s := NewSelector(Config{Bindings: b})
	if err := s.ApplyGesture("Wave"); err != nil || s.Mode() != ModeSkeleton {
		t.Errorf("Wave = %v, mode %v", err, s.Mode())
	}

	if _, err := ParseBindings([]byte("voice:\n  X: jump\n")); err == nil {
		t.Error("invalid action accepted")
	}
}

func TestEnvelope_JSON(t *testing.T) {
	env := NewEnvelope(&VoiceCommand{Token: "Depth", Confidence: 0.8}, "mic")
	b, err := json.Marshal(env)
	if err != nil {
		t.Fatal(err)
	}
	var got Envelope
	if err := json.Unmarshal(b, &got); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	vc, ok := got.Payload.(*VoiceCommand)
	if !ok || vc.Token != "Depth" || vc.Confidence != 0.8 {
		t.Errorf("payload = %#v", got.Payload)
	}
	if got.ID != env.ID || got.Type != "voice" || got.Source != "mic" {
		t.Errorf("envelope = %+v", got)
	}

	if err := json.Unmarshal([]byte(`{"type":"tilt","pld":{}}`), &got); !errors.Is(err, ErrUnknownEvent) {
		t.Errorf("unknown type error = %v", err)
	}
}

func TestEnvelope_Msgpack(t *testing.T) {
	env := NewEnvelope(&Selection{Mode: ModeSkeleton}, "web")
	b, err := msgpack.Marshal(env)
	if err != nil {
		t.Fatal(err)
	}
	var got Envelope
	if err := msgpack.Unmarshal(b, &got); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	sel, ok := got.Payload.(*Selection)
	if !ok || sel.Mode != ModeSkeleton {
		t.Errorf("payload = %#v", got.Payload)
	}
	if !got.Time.Equal(env.Time) || got.ID != env.ID {
		t.Errorf("metadata = %+v; want %+v", got, env)
	}
}
