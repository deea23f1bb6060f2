// Package sensor defines the data model of a multi-modal body-tracking
// sensor: color frames, depth frames and skeleton frames, together with the
// Device contract that delivers them and a coordinate mapper that projects
// skeleton space onto the depth image.
package sensor

import (
	"encoding/json"
	"fmt"
	"time"
)

// Fixed stream geometry. Every frame produced or consumed by this module is
// 640x480; streams are never reconfigured at runtime.
const (
	FrameWidth  = 640
	FrameHeight = 480

	// BytesPerPixel is the size of one packed color pixel (B, G, R, pad).
	BytesPerPixel = 4

	// ColorFrameLength is the byte length of a packed color frame.
	ColorFrameLength = FrameWidth * FrameHeight * BytesPerPixel

	// DepthFrameLength is the number of samples in a depth frame.
	DepthFrameLength = FrameWidth * FrameHeight

	// MaxSkeletons is the number of skeleton slots reported per frame.
	MaxSkeletons = 6

	// Default valid depth range in millimeters.
	DefaultMinDepth int16 = 800
	DefaultMaxDepth int16 = 4000
)

// JointType identifies one of the tracked anatomical points.
type JointType int

const (
	HipCenter JointType = iota
	Spine
	ShoulderCenter
	Head
	ShoulderLeft
	ElbowLeft
	WristLeft
	HandLeft
	ShoulderRight
	ElbowRight
	WristRight
	HandRight
	HipLeft
	KneeLeft
	AnkleLeft
	FootLeft
	HipRight
	KneeRight
	AnkleRight
	FootRight

	// JointCount is the number of joints in a skeleton.
	JointCount = int(FootRight) + 1
)

var jointNames = [JointCount]string{
	"hip_center", "spine", "shoulder_center", "head",
	"shoulder_left", "elbow_left", "wrist_left", "hand_left",
	"shoulder_right", "elbow_right", "wrist_right", "hand_right",
	"hip_left", "knee_left", "ankle_left", "foot_left",
	"hip_right", "knee_right", "ankle_right", "foot_right",
}

// String returns the snake_case name of the joint.
func (jt JointType) String() string {
	if jt < 0 || int(jt) >= JointCount {
		return fmt.Sprintf("joint(%d)", int(jt))
	}
	return jointNames[jt]
}

// MarshalJSON implements json.Marshaler.
func (jt JointType) MarshalJSON() ([]byte, error) {
	return json.Marshal(jt.String())
}

// UnmarshalJSON implements json.Unmarshaler.
func (jt *JointType) UnmarshalJSON(b []byte) error {
	var name string
	if err := json.Unmarshal(b, &name); err != nil {
		return err
	}
	for i, n := range jointNames {
		if n == name {
			*jt = JointType(i)
			return nil
		}
	}
	return fmt.Errorf("sensor: unknown joint %q", name)
}

// JointTrackingState is the confidence of a single joint.
type JointTrackingState int

const (
	JointNotTracked JointTrackingState = iota
	JointInferred
	JointTracked
)

// String returns the string representation of the state.
func (s JointTrackingState) String() string {
	switch s {
	case JointInferred:
		return "inferred"
	case JointTracked:
		return "tracked"
	default:
		return "not_tracked"
	}
}

// MarshalJSON implements json.Marshaler.
func (s JointTrackingState) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalJSON implements json.Unmarshaler.
func (s *JointTrackingState) UnmarshalJSON(b []byte) error {
	var name string
	if err := json.Unmarshal(b, &name); err != nil {
		return err
	}
	switch name {
	case "inferred":
		*s = JointInferred
	case "tracked":
		*s = JointTracked
	default:
		*s = JointNotTracked
	}
	return nil
}

// SkeletonTrackingState is the confidence of a whole body.
type SkeletonTrackingState int

const (
	SkeletonNotTracked SkeletonTrackingState = iota
	SkeletonPositionOnly
	SkeletonTracked
)

// String returns the string representation of the state.
func (s SkeletonTrackingState) String() string {
	switch s {
	case SkeletonPositionOnly:
		return "position_only"
	case SkeletonTracked:
		return "tracked"
	default:
		return "not_tracked"
	}
}

// MarshalJSON implements json.Marshaler.
func (s SkeletonTrackingState) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalJSON implements json.Unmarshaler.
func (s *SkeletonTrackingState) UnmarshalJSON(b []byte) error {
	var name string
	if err := json.Unmarshal(b, &name); err != nil {
		return err
	}
	switch name {
	case "position_only":
		*s = SkeletonPositionOnly
	case "tracked":
		*s = SkeletonTracked
	default:
		*s = SkeletonNotTracked
	}
	return nil
}

// FrameEdges is a set of field-of-view edges a body extends beyond.
type FrameEdges uint8

const (
	EdgeRight FrameEdges = 1 << iota
	EdgeLeft
	EdgeTop
	EdgeBottom

	EdgeNone FrameEdges = 0
)

// Has reports whether all edges in e are set.
func (fe FrameEdges) Has(e FrameEdges) bool {
	return fe&e == e
}

// String returns the set edges joined by "|", or "none".
func (fe FrameEdges) String() string {
	if fe == EdgeNone {
		return "none"
	}
	var s string
	for _, e := range []struct {
		flag FrameEdges
		name string
	}{
		{EdgeTop, "top"},
		{EdgeBottom, "bottom"},
		{EdgeLeft, "left"},
		{EdgeRight, "right"},
	} {
		if fe.Has(e.flag) {
			if s != "" {
				s += "|"
			}
			s += e.name
		}
	}
	return s
}

// Point3 is a position in skeleton space, in meters. The sensor sits at the
// origin looking down +Z; +Y is up.
type Point3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Joint is a tracked anatomical point.
type Joint struct {
	Type          JointType          `json:"type"`
	Position      Point3             `json:"position"`
	TrackingState JointTrackingState `json:"state"`
}

// Skeleton is one tracked body in one frame.
type Skeleton struct {
	TrackingID    int                   `json:"id"`
	TrackingState SkeletonTrackingState `json:"state"`
	Position      Point3                `json:"position"`
	Joints        [JointCount]Joint     `json:"joints"`
	ClippedEdges  FrameEdges            `json:"clipped_edges"`
}

// Joint returns the joint of the given type.
func (s *Skeleton) Joint(jt JointType) Joint {
	return s.Joints[jt]
}

// NewSkeleton returns a skeleton with every joint typed and NotTracked.
func NewSkeleton() Skeleton {
	var s Skeleton
	for i := range s.Joints {
		s.Joints[i].Type = JointType(i)
	}
	return s
}

// DepthPixel is one depth sample. Depth is in millimeters; PlayerIndex is 0
// when no body covers the pixel, otherwise 1..MaxSkeletons.
type DepthPixel struct {
	Depth       int16
	PlayerIndex int16
}

// ColorFrame is a packed Bgr32 frame.
type ColorFrame struct {
	Number int64
	Pixels []byte
}

// DepthFrame carries depth samples and the valid range reported for them.
type DepthFrame struct {
	Number   int64
	MinDepth int16
	MaxDepth int16
	Pixels   []DepthPixel
}

// SkeletonFrame carries every skeleton slot for one frame. Slots that hold no
// body have TrackingState SkeletonNotTracked. Timestamp is the time since the
// sensor started streaming.
type SkeletonFrame struct {
	Number    int64
	Timestamp time.Duration
	Skeletons []Skeleton
}
