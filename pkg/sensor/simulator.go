package sensor

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"time"
)

// SimulatorConfig holds configuration for the Simulator.
type SimulatorConfig struct {
	// FPS is the frame cadence of all three streams. Defaults to 30.
	FPS int

	// Bodies is the number of simulated bodies, at most 2. Zero defaults
	// to 2; a negative value simulates an empty room. The first body is
	// fully tracked, the second is PositionOnly.
	Bodies int

	// MinDepth and MaxDepth bound the reported valid depth range.
	MinDepth int16
	MaxDepth int16

	// Mapper is used to paint player indices into the depth frame.
	Mapper CoordinateMapper
}

func (c *SimulatorConfig) setDefaults() {
	if c.FPS <= 0 {
		c.FPS = 30
	}
	switch {
	case c.Bodies == 0:
		c.Bodies = 2
	case c.Bodies < 0:
		c.Bodies = 0
	}
	if c.Bodies > 2 {
		c.Bodies = 2
	}
	if c.MinDepth == 0 {
		c.MinDepth = DefaultMinDepth
	}
	if c.MaxDepth == 0 {
		c.MaxDepth = DefaultMaxDepth
	}
	if c.Mapper == nil {
		c.Mapper = DefaultMapper()
	}
}

// Simulator produces synthetic frames for every modality. The tracked body
// repeats an 8 second routine: a right-hand circle during seconds 0-2 and a
// right-to-left left-hand swipe during seconds 4-5. Joint confidence degrades
// on a schedule so that inferred and untracked joints, clipped edges and
// empty ticks all occur.
type Simulator struct {
	cfg SimulatorConfig
}

// NewSimulator creates a simulator with the given configuration.
func NewSimulator(cfg SimulatorConfig) *Simulator {
	cfg.setDefaults()
	return &Simulator{cfg: cfg}
}

// Run publishes frames to src until ctx is done or the pipe is closed.
func (s *Simulator) Run(ctx context.Context, src *PipeSource) error {
	interval := time.Second / time.Duration(s.cfg.FPS)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	start := time.Now()
	var n int64
	slog.Info("sensor: simulator started", "fps", s.cfg.FPS, "bodies", s.cfg.Bodies)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-src.Done():
			return nil
		case now := <-ticker.C:
			n++
			t := now.Sub(start).Seconds()
			if err := s.tick(ctx, src, n, t); err != nil {
				if errors.Is(err, ErrClosed) {
					return nil
				}
				return err
			}
		}
	}
}

func (s *Simulator) tick(ctx context.Context, src *PipeSource, n int64, t float64) error {
	sf := s.SkeletonFrame(n, t)
	// Every 97th tick the color stream reports readiness without payload.
	var cf *ColorFrame
	if n%97 != 0 {
		cf = s.ColorFrame(n, t)
	}
	if err := src.SendColor(ctx, cf); err != nil {
		return err
	}
	if err := src.SendDepth(ctx, s.DepthFrame(n, sf)); err != nil {
		return err
	}
	return src.SendSkeleton(ctx, sf)
}

// ColorFrame renders a moving gradient.
func (s *Simulator) ColorFrame(n int64, t float64) *ColorFrame {
	px := make([]byte, ColorFrameLength)
	shift := int(t * 40)
	i := 0
	for y := 0; y < FrameHeight; y++ {
		for x := 0; x < FrameWidth; x++ {
			px[i] = byte((x + shift) * 255 / FrameWidth)
			px[i+1] = byte(y * 255 / FrameHeight)
			px[i+2] = byte(128 + 127*math.Sin(float64(x+y)/80+t))
			px[i+3] = 0
			i += BytesPerPixel
		}
	}
	return &ColorFrame{Number: n, Pixels: px}
}

// DepthFrame renders a back wall with a floor ramp and paints the tracked
// bodies as blobs in front of it.
func (s *Simulator) DepthFrame(n int64, sf *SkeletonFrame) *DepthFrame {
	px := make([]DepthPixel, DepthFrameLength)
	for y := 0; y < FrameHeight; y++ {
		// Wall at 4.5m (out of range), floor approaching towards the bottom.
		d := int16(4500)
		if y > FrameHeight/2 {
			d = int16(4500 - (y-FrameHeight/2)*12)
		}
		row := px[y*FrameWidth : (y+1)*FrameWidth]
		for x := range row {
			row[x].Depth = d
		}
	}
	if sf != nil {
		for i, sk := range sf.Skeletons {
			if sk.TrackingState == SkeletonNotTracked {
				continue
			}
			s.paintBody(px, &sk, int16(i+1))
		}
	}
	return &DepthFrame{
		Number:   n,
		MinDepth: s.cfg.MinDepth,
		MaxDepth: s.cfg.MaxDepth,
		Pixels:   px,
	}
}

func (s *Simulator) paintBody(px []DepthPixel, sk *Skeleton, player int16) {
	c := s.cfg.Mapper.MapSkeletonPointToDepthPoint(sk.Position)
	const halfW, halfH = 45, 150
	for y := c.Y - halfH; y <= c.Y+halfH; y++ {
		if y < 0 || y >= FrameHeight {
			continue
		}
		for x := c.X - halfW; x <= c.X+halfW; x++ {
			if x < 0 || x >= FrameWidth {
				continue
			}
			p := &px[y*FrameWidth+x]
			p.Depth = c.Depth
			p.PlayerIndex = player
		}
	}
}

// restPose holds joint offsets from the hip center, in meters.
var restPose = [JointCount]Point3{
	HipCenter:      {0, 0, 0},
	Spine:          {0, 0.10, -0.02},
	ShoulderCenter: {0, 0.45, -0.02},
	Head:           {0, 0.65, -0.02},
	ShoulderLeft:   {-0.18, 0.42, 0},
	ElbowLeft:      {-0.30, 0.20, 0},
	WristLeft:      {-0.35, 0.00, 0},
	HandLeft:       {-0.37, -0.07, 0},
	ShoulderRight:  {0.18, 0.42, 0},
	ElbowRight:     {0.30, 0.20, 0},
	WristRight:     {0.35, 0.00, 0},
	HandRight:      {0.37, -0.07, 0},
	HipLeft:        {-0.10, -0.05, 0},
	KneeLeft:       {-0.11, -0.45, 0},
	AnkleLeft:      {-0.12, -0.85, 0},
	FootLeft:       {-0.12, -0.90, -0.08},
	HipRight:       {0.10, -0.05, 0},
	KneeRight:      {0.11, -0.45, 0},
	AnkleRight:     {0.12, -0.85, 0},
	FootRight:      {0.12, -0.90, -0.08},
}

// SkeletonFrame poses the simulated bodies at time t.
func (s *Simulator) SkeletonFrame(n int64, t float64) *SkeletonFrame {
	skels := make([]Skeleton, MaxSkeletons)
	for i := range skels {
		skels[i] = NewSkeleton()
	}
	if s.cfg.Bodies >= 1 {
		skels[0] = TrackedPose(t)
		skels[0].TrackingID = 1
	}
	if s.cfg.Bodies >= 2 {
		skels[1].TrackingID = 2
		skels[1].TrackingState = SkeletonPositionOnly
		skels[1].Position = Point3{X: 1.2 + 0.1*math.Sin(t/3), Y: 0.1, Z: 3.2}
	}
	return &SkeletonFrame{
		Number:    n,
		Timestamp: time.Duration(t * float64(time.Second)),
		Skeletons: skels,
	}
}

// TrackedPose returns the fully tracked body of the simulator routine at
// time t (seconds).
func TrackedPose(t float64) Skeleton {
	sk := NewSkeleton()
	sk.TrackingState = SkeletonTracked

	phase := math.Mod(t, 8)
	hip := Point3{X: 0.25 * math.Sin(t/4), Y: 0, Z: 2.4}
	sk.Position = hip

	for i := range sk.Joints {
		off := restPose[i]
		sk.Joints[i].Position = Point3{X: hip.X + off.X, Y: hip.Y + off.Y, Z: hip.Z + off.Z}
		sk.Joints[i].TrackingState = JointTracked
	}

	switch {
	case phase < 2:
		// Right hand traces a circle in front of the shoulder.
		a := phase * 2 * math.Pi
		c := Point3{X: hip.X + 0.35, Y: hip.Y + 0.35, Z: hip.Z - 0.3}
		sk.Joints[HandRight].Position = Point3{X: c.X + 0.15*math.Cos(a), Y: c.Y + 0.15*math.Sin(a), Z: c.Z}
		sk.Joints[WristRight].Position = Point3{X: c.X + 0.12*math.Cos(a), Y: c.Y + 0.12*math.Sin(a) - 0.04, Z: c.Z + 0.05}
	case phase >= 4 && phase < 5:
		// Left hand sweeps right to left at chest height.
		u := phase - 4
		x := hip.X + 0.3 - 0.8*u
		sk.Joints[HandLeft].Position = Point3{X: x, Y: hip.Y + 0.3, Z: hip.Z - 0.35}
		sk.Joints[WristLeft].Position = Point3{X: x + 0.05, Y: hip.Y + 0.27, Z: hip.Z - 0.3}
	case phase >= 6:
		// Walking close to the sensor: feet leave the field of view and
		// the lower body degrades.
		sk.ClippedEdges |= EdgeBottom
		for _, jt := range []JointType{FootLeft, FootRight} {
			sk.Joints[jt].TrackingState = JointNotTracked
		}
		for _, jt := range []JointType{AnkleLeft, AnkleRight} {
			sk.Joints[jt].TrackingState = JointInferred
		}
		sk.Joints[HandLeft].TrackingState = JointInferred
	}
	if hip.X > 0.2 {
		sk.ClippedEdges |= EdgeRight
	}
	return sk
}
