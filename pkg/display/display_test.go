package display

import (
	"bytes"
	"encoding/json"
	"image"
	"image/color"
	"image/jpeg"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/haivivi/bodyview/pkg/compositor"
	"github.com/haivivi/bodyview/pkg/sensor"
	"github.com/haivivi/bodyview/pkg/view"
)

func uniform(c color.Color, w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		r, g, b, a := c.RGBA()
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = byte(r>>8), byte(g>>8), byte(b>>8), byte(a>>8)
	}
	return img
}

func TestPreview(t *testing.T) {
	tests := []struct {
		name string
		img  image.Image
		want byte
	}{
		{"black", uniform(color.Black, 64, 48), ' '},
		{"white", uniform(color.White, 64, 48), '@'},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Preview(tt.img, 8, 3)
			lines := strings.Split(got, "\n")
			if len(lines) != 3 {
				t.Fatalf("rows = %d; want 3", len(lines))
			}
			for _, l := range lines {
				if len(l) != 8 || strings.Trim(l, string(tt.want)) != "" {
					t.Errorf("line = %q; want 8×%q", l, tt.want)
				}
			}
		})
	}
	if Preview(nil, 8, 3) != "" {
		t.Error("Preview(nil) not empty")
	}
}

func TestPreview_Split(t *testing.T) {
	img := uniform(color.Black, 20, 10)
	for y := 0; y < 10; y++ {
		for x := 10; x < 20; x++ {
			img.Set(x, y, color.White)
		}
	}
	if got := Preview(img, 2, 1); got != " @" {
		t.Errorf("Preview = %q; want %q", got, " @")
	}
}

func TestEncodeJPEG(t *testing.T) {
	b, err := EncodeJPEG(uniform(color.RGBA{200, 10, 10, 255}, 32, 16), 0)
	if err != nil {
		t.Fatal(err)
	}
	img, err := jpeg.Decode(bytes.NewReader(b))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if img.Bounds().Dx() != 32 || img.Bounds().Dy() != 16 {
		t.Errorf("bounds = %v", img.Bounds())
	}
}

func newTestServer(t *testing.T, events chan<- view.Event) (*compositor.Compositor, *httptest.Server) {
	t.Helper()
	comp := compositor.New(view.NewSelector(view.Config{}), compositor.Config{})
	srv := NewServer(comp, Config{Events: events, Interval: 10 * time.Millisecond})
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return comp, ts
}

func TestIndex(t *testing.T) {
	_, ts := newTestServer(t, nil)
	resp, err := http.Get(ts.URL + "/")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	var buf bytes.Buffer
	buf.ReadFrom(resp.Body)
	if resp.StatusCode != http.StatusOK || !strings.Contains(buf.String(), `<canvas id="view" width="640" height="480">`) {
		t.Errorf("index = %d %q", resp.StatusCode, buf.String())
	}

	resp, err = http.Get(ts.URL + "/nope")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("/nope = %d", resp.StatusCode)
	}
}

func TestAPIView(t *testing.T) {
	comp, ts := newTestServer(t, nil)

	tests := []struct {
		method, body string
		wantCode     int
		wantMode     view.Mode
	}{
		{http.MethodGet, "", http.StatusOK, view.ModeColor},
		{http.MethodPost, `{"mode":"skeleton"}`, http.StatusOK, view.ModeSkeleton},
		{http.MethodPost, `{"mode":"infrared"}`, http.StatusBadRequest, view.ModeSkeleton},
		{http.MethodDelete, "", http.StatusMethodNotAllowed, view.ModeSkeleton},
	}
	for _, tt := range tests {
		req, _ := http.NewRequest(tt.method, ts.URL+"/api/view", strings.NewReader(tt.body))
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatal(err)
		}
		resp.Body.Close()
		if resp.StatusCode != tt.wantCode {
			t.Errorf("%s %s = %d; want %d", tt.method, tt.body, resp.StatusCode, tt.wantCode)
		}
		if got := comp.Selector().Mode(); got != tt.wantMode {
			t.Errorf("%s %s: mode = %v; want %v", tt.method, tt.body, got, tt.wantMode)
		}
	}
}

func TestAPIEvent_Direct(t *testing.T) {
	comp, ts := newTestServer(t, nil)
	resp, err := http.Post(ts.URL+"/api/event", "application/json",
		strings.NewReader(`{"type":"voice","pld":{"token":"Depth"}}`))
	if err != nil {
		t.Fatal(err)
	}
	var st view.State
	json.NewDecoder(resp.Body).Decode(&st)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK || st.Mode != view.ModeDepth || comp.Selector().Mode() != view.ModeDepth {
		t.Errorf("voice event: code %d state %+v", resp.StatusCode, st)
	}

	resp, err = http.Post(ts.URL+"/api/event", "application/json",
		strings.NewReader(`{"type":"gesture","pld":{"name":"Wave"}}`))
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Errorf("unbound gesture = %d", resp.StatusCode)
	}

	resp, err = http.Post(ts.URL+"/api/event", "application/json", strings.NewReader(`{"type":"frames"}`))
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("unknown type = %d", resp.StatusCode)
	}
}

func TestAPIEvent_Channel(t *testing.T) {
	events := make(chan view.Event, 1)
	_, ts := newTestServer(t, events)
	resp, err := http.Post(ts.URL+"/api/event", "application/json",
		strings.NewReader(`{"type":"gesture","pld":{"name":"Circle"}}`))
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusAccepted {
		t.Errorf("code = %d", resp.StatusCode)
	}
	if g, ok := (<-events).(*view.Gesture); !ok || g.Name != view.GestureCircle {
		t.Errorf("event = %#v", g)
	}
}

func TestAPIStats(t *testing.T) {
	comp, ts := newTestServer(t, nil)
	comp.HandleColor(nil)
	resp, err := http.Get(ts.URL + "/api/stats")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	var st compositor.Stats
	if err := json.NewDecoder(resp.Body).Decode(&st); err != nil {
		t.Fatal(err)
	}
	if st.View != view.ModeColor || st.Color.Empty != 1 {
		t.Errorf("stats = %+v", st)
	}
}

func TestWebSocket(t *testing.T) {
	comp, ts := newTestServer(t, nil)
	ws, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http")+"/ws", nil)
	if err != nil {
		t.Fatal(err)
	}
	defer ws.Close()
	ws.SetReadDeadline(time.Now().Add(5 * time.Second))

	var hello Message
	if err := ws.ReadJSON(&hello); err != nil {
		t.Fatal(err)
	}
	if hello.Type != MessageHello || hello.ID == "" || hello.Mode == nil || *hello.Mode != view.ModeColor {
		t.Fatalf("hello = %+v", hello)
	}

	px := make([]byte, sensor.ColorFrameLength)
	comp.HandleColor(&sensor.ColorFrame{Number: 1, Pixels: px})
	typ, b, err := ws.ReadMessage()
	if err != nil {
		t.Fatal(err)
	}
	if typ != websocket.BinaryMessage {
		t.Fatalf("frame message type = %d; want binary", typ)
	}
	if _, err := jpeg.Decode(bytes.NewReader(b)); err != nil {
		t.Errorf("frame is not a jpeg: %v", err)
	}

	_ = comp.Selector().Select(view.ModeSkeleton)
	sk := sensor.TrackedPose(1)
	comp.HandleSkeleton(&sensor.SkeletonFrame{Number: 1, Skeletons: []sensor.Skeleton{sk}})

	var gotMode, gotScene bool
	for !gotMode || !gotScene {
		typ, b, err := ws.ReadMessage()
		if err != nil {
			t.Fatalf("read: %v (mode %v, scene %v)", err, gotMode, gotScene)
		}
		if typ != websocket.TextMessage {
			continue
		}
		var raw struct {
			Type  string          `json:"type"`
			Mode  string          `json:"mode"`
			Scene json.RawMessage `json:"scene"`
		}
		if err := json.Unmarshal(b, &raw); err != nil {
			t.Fatal(err)
		}
		switch raw.Type {
		case MessageMode:
			gotMode = raw.Mode == "skeleton"
		case MessageScene:
			gotScene = bytes.Contains(raw.Scene, []byte(`"bone_tracked"`))
		}
	}
}
