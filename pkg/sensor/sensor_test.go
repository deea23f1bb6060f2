package sensor

import (
	"context"
	"encoding/json"
	"testing"
	"time"
)

func TestJointType_String(t *testing.T) {
	tests := []struct {
		jt   JointType
		want string
	}{
		{HipCenter, "hip_center"},
		{Head, "head"},
		{HandLeft, "hand_left"},
		{HandRight, "hand_right"},
		{FootRight, "foot_right"},
		{JointType(99), "joint(99)"},
	}
	for _, tc := range tests {
		if got := tc.jt.String(); got != tc.want {
			t.Errorf("JointType(%d).String() = %q; want %q", int(tc.jt), got, tc.want)
		}
	}
	if JointCount != 20 {
		t.Errorf("JointCount = %d; want 20", JointCount)
	}
}

func TestJointType_JSON(t *testing.T) {
	for i := 0; i < JointCount; i++ {
		jt := JointType(i)
		data, err := json.Marshal(jt)
		if err != nil {
			t.Fatalf("Marshal(%v) error: %v", jt, err)
		}
		var got JointType
		if err := json.Unmarshal(data, &got); err != nil {
			t.Fatalf("Unmarshal(%s) error: %v", data, err)
		}
		if got != jt {
			t.Errorf("roundtrip %v: got %v", jt, got)
		}
	}
	var jt JointType
	if err := json.Unmarshal([]byte(`"tail"`), &jt); err == nil {
		t.Error("Unmarshal(tail) should fail")
	}
}

func TestFrameEdges(t *testing.T) {
	e := EdgeTop | EdgeLeft
	if !e.Has(EdgeTop) || !e.Has(EdgeLeft) {
		t.Errorf("%v should have top and left", e)
	}
	if e.Has(EdgeBottom) || e.Has(EdgeRight) {
		t.Errorf("%v should not have bottom or right", e)
	}
	if got := e.String(); got != "top|left" {
		t.Errorf("String() = %q; want top|left", got)
	}
	if got := EdgeNone.String(); got != "none" {
		t.Errorf("EdgeNone.String() = %q; want none", got)
	}
}

func TestNewSkeleton(t *testing.T) {
	s := NewSkeleton()
	for i, j := range s.Joints {
		if j.Type != JointType(i) {
			t.Errorf("joint %d has type %v", i, j.Type)
		}
		if j.TrackingState != JointNotTracked {
			t.Errorf("joint %v state = %v; want not_tracked", j.Type, j.TrackingState)
		}
	}
	if s.TrackingState != SkeletonNotTracked {
		t.Errorf("TrackingState = %v; want not_tracked", s.TrackingState)
	}
}

func TestPinholeMapper(t *testing.T) {
	m := DefaultMapper()

	center := m.MapSkeletonPointToDepthPoint(Point3{X: 0, Y: 0, Z: 2})
	if center.X != 320 || center.Y != 240 || center.Depth != 2000 {
		t.Errorf("center = %+v; want {320 240 2000}", center)
	}

	right := m.MapSkeletonPointToDepthPoint(Point3{X: 1, Y: 0, Z: 2})
	if right.X <= center.X {
		t.Errorf("+X should map right of center, got %d", right.X)
	}
	up := m.MapSkeletonPointToDepthPoint(Point3{X: 0, Y: 1, Z: 2})
	if up.Y >= center.Y {
		t.Errorf("+Y should map above center, got %d", up.Y)
	}

	if got := m.MapSkeletonPointToDepthPoint(Point3{}); got != (DepthPoint{}) {
		t.Errorf("zero point = %+v; want origin", got)
	}
}

func TestPipe_LatestWins(t *testing.T) {
	src, dev := NewPipe(nil)
	defer dev.Close()

	ctx := context.Background()
	for i := int64(1); i <= 3; i++ {
		if err := src.SendColor(ctx, &ColorFrame{Number: i}); err != nil {
			t.Fatalf("SendColor error: %v", err)
		}
	}

	next, stop := pull(dev)
	defer stop()
	f := next()
	if f == nil || f.Number != 3 {
		t.Fatalf("got frame %+v; want number 3", f)
	}

	st := dev.Stats()
	if st.ColorFrames != 3 || st.ColorDrops != 2 {
		t.Errorf("Stats = %+v; want 3 frames, 2 drops", st)
	}
}

func TestPipe_NilFrame(t *testing.T) {
	src, dev := NewPipe(nil)
	defer dev.Close()

	if err := src.SendColor(context.Background(), nil); err != nil {
		t.Fatalf("SendColor(nil) error: %v", err)
	}
	next, stop := pull(dev)
	defer stop()
	if f := next(); f != nil {
		t.Errorf("got %+v; want nil frame", f)
	}
}

func TestPipe_Close(t *testing.T) {
	src, dev := NewPipe(nil)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for range dev.SkeletonFrames() {
		}
	}()

	dev.Close()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("stream did not end after Close")
	}

	if err := src.SendSkeleton(context.Background(), &SkeletonFrame{}); err != ErrClosed {
		t.Errorf("SendSkeleton after close = %v; want ErrClosed", err)
	}
}

func TestSimulator_Frames(t *testing.T) {
	sim := NewSimulator(SimulatorConfig{})

	cf := sim.ColorFrame(1, 0)
	if len(cf.Pixels) != ColorFrameLength {
		t.Errorf("color length = %d; want %d", len(cf.Pixels), ColorFrameLength)
	}

	sf := sim.SkeletonFrame(1, 0.5)
	if len(sf.Skeletons) != MaxSkeletons {
		t.Fatalf("skeleton slots = %d; want %d", len(sf.Skeletons), MaxSkeletons)
	}
	if sf.Skeletons[0].TrackingState != SkeletonTracked {
		t.Errorf("body 0 state = %v; want tracked", sf.Skeletons[0].TrackingState)
	}
	if sf.Skeletons[1].TrackingState != SkeletonPositionOnly {
		t.Errorf("body 1 state = %v; want position_only", sf.Skeletons[1].TrackingState)
	}
	for i := 2; i < MaxSkeletons; i++ {
		if sf.Skeletons[i].TrackingState != SkeletonNotTracked {
			t.Errorf("body %d state = %v; want not_tracked", i, sf.Skeletons[i].TrackingState)
		}
	}

	df := sim.DepthFrame(1, sf)
	if len(df.Pixels) != DepthFrameLength {
		t.Fatalf("depth length = %d; want %d", len(df.Pixels), DepthFrameLength)
	}
	if df.MinDepth != DefaultMinDepth || df.MaxDepth != DefaultMaxDepth {
		t.Errorf("depth range = [%d,%d]", df.MinDepth, df.MaxDepth)
	}
	var players int
	for _, p := range df.Pixels {
		if p.PlayerIndex != 0 {
			players++
		}
	}
	if players == 0 {
		t.Error("depth frame has no player pixels")
	}
}

func TestTrackedPose_Degrades(t *testing.T) {
	sk := TrackedPose(6.5)
	if !sk.ClippedEdges.Has(EdgeBottom) {
		t.Errorf("ClippedEdges = %v; want bottom", sk.ClippedEdges)
	}
	if sk.Joints[FootLeft].TrackingState != JointNotTracked {
		t.Errorf("foot_left = %v; want not_tracked", sk.Joints[FootLeft].TrackingState)
	}
	if sk.Joints[AnkleLeft].TrackingState != JointInferred {
		t.Errorf("ankle_left = %v; want inferred", sk.Joints[AnkleLeft].TrackingState)
	}
}

func TestSimulator_Run(t *testing.T) {
	src, dev := NewPipe(nil)
	sim := NewSimulator(SimulatorConfig{FPS: 200, Bodies: 1})

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- sim.Run(ctx, src) }()

	var got int
	for f, err := range dev.SkeletonFrames() {
		if err != nil {
			t.Fatalf("stream error: %v", err)
		}
		if f != nil {
			got++
		}
		if got == 3 {
			break
		}
	}
	cancel()
	dev.Close()
	if err := <-errCh; err != nil && err != context.Canceled {
		t.Errorf("Run error: %v", err)
	}
}

func pull(dev *PipeDevice) (func() *ColorFrame, func()) {
	ch := make(chan *ColorFrame)
	stop := make(chan struct{})
	go func() {
		for f := range dev.ColorFrames() {
			select {
			case ch <- f:
			case <-stop:
				return
			}
		}
	}()
	next := func() *ColorFrame {
		select {
		case f := <-ch:
			return f
		case <-time.After(time.Second):
			return &ColorFrame{Number: -1}
		}
	}
	return next, func() { close(stop) }
}
