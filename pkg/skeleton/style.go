package skeleton

import (
	"encoding/json"
	"fmt"
	"image/color"

	"github.com/haivivi/bodyview/pkg/sensor"
)

// Style is how a primitive is painted. A zero-alpha Fill means no fill; a
// zero StrokeWidth means no stroke.
type Style struct {
	Name        string
	Fill        color.RGBA
	Stroke      color.RGBA
	StrokeWidth float64
}

// HasFill reports whether the style fills its shape.
func (s Style) HasFill() bool { return s.Fill.A != 0 }

// HasStroke reports whether the style outlines its shape.
func (s Style) HasStroke() bool { return s.StrokeWidth > 0 && s.Stroke.A != 0 }

// MarshalJSON implements json.Marshaler. Colors are encoded as CSS hex.
func (s Style) MarshalJSON() ([]byte, error) {
	v := struct {
		Name   string  `json:"name"`
		Fill   string  `json:"fill,omitempty"`
		Stroke string  `json:"stroke,omitempty"`
		Width  float64 `json:"width,omitempty"`
	}{Name: s.Name}
	if s.HasFill() {
		v.Fill = hexColor(s.Fill)
	}
	if s.HasStroke() {
		v.Stroke = hexColor(s.Stroke)
		v.Width = s.StrokeWidth
	}
	return json.Marshal(v)
}

func hexColor(c color.RGBA) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

var (
	black  = color.RGBA{0, 0, 0, 0xff}
	red    = color.RGBA{0xff, 0, 0, 0xff}
	green  = color.RGBA{0, 0x80, 0, 0xff}
	gray   = color.RGBA{0x80, 0x80, 0x80, 0xff}
	blue   = color.RGBA{0, 0, 0xff, 0xff}
	yellow = color.RGBA{0xff, 0xff, 0, 0xff}
)

// Render geometry.
const (
	JointRadius       = 3.0
	BodyCenterRadius  = 10.0
	ClipEdgeThickness = 10.0
)

// Styles used by the scene builder.
var (
	BackgroundStyle = Style{Name: "background", Fill: black}
	ClipEdgeStyle   = Style{Name: "clip_edge", Fill: red}
	BodyCenterStyle = Style{Name: "body_center", Fill: blue}

	TrackedJointStyle  = Style{Name: "joint_tracked", Fill: color.RGBA{68, 192, 68, 0xff}}
	InferredJointStyle = Style{Name: "joint_inferred", Fill: yellow}

	TrackedBoneStyle = Style{Name: "bone_tracked", Stroke: green, StrokeWidth: 6}

	// InferredBoneStyle is the low-confidence bone pen. The bone table
	// below never selects it.
	InferredBoneStyle = Style{Name: "bone_inferred", Stroke: gray, StrokeWidth: 1}
)

// BoneRule is the outcome of the bone policy for a pair of joint states.
type BoneRule int8

const (
	BoneOmit BoneRule = iota
	BoneConfident
	BoneLowConfidence
)

// String returns the string representation of the rule.
func (r BoneRule) String() string {
	switch r {
	case BoneConfident:
		return "confident"
	case BoneLowConfidence:
		return "low_confidence"
	default:
		return "omit"
	}
}

// MarshalJSON implements json.Marshaler.
func (r BoneRule) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.String())
}

// boneTable is indexed by the tracking states of the two endpoints
// (NotTracked, Inferred, Tracked). A mixed Tracked/Inferred pair is drawn
// confident; BoneLowConfidence does not appear.
var boneTable = [3][3]BoneRule{
	sensor.JointNotTracked: {
		sensor.JointNotTracked: BoneOmit,
		sensor.JointInferred:   BoneOmit,
		sensor.JointTracked:    BoneOmit,
	},
	sensor.JointInferred: {
		sensor.JointNotTracked: BoneOmit,
		sensor.JointInferred:   BoneOmit,
		sensor.JointTracked:    BoneConfident,
	},
	sensor.JointTracked: {
		sensor.JointNotTracked: BoneOmit,
		sensor.JointInferred:   BoneConfident,
		sensor.JointTracked:    BoneConfident,
	},
}

// BonePolicy returns the rule for a bone whose endpoints have states a and b.
// Out-of-range states are treated as NotTracked.
func BonePolicy(a, b sensor.JointTrackingState) BoneRule {
	return boneTable[clampState(a)][clampState(b)]
}

func clampState(s sensor.JointTrackingState) sensor.JointTrackingState {
	if s < sensor.JointNotTracked || s > sensor.JointTracked {
		return sensor.JointNotTracked
	}
	return s
}

// boneStyle maps a rule to a pen; ok is false for BoneOmit.
func boneStyle(r BoneRule) (Style, bool) {
	switch r {
	case BoneConfident:
		return TrackedBoneStyle, true
	case BoneLowConfidence:
		return InferredBoneStyle, true
	default:
		return Style{}, false
	}
}

// jointStyle returns the dot style for a joint state; ok is false for
// NotTracked joints, which are not drawn.
func jointStyle(s sensor.JointTrackingState) (Style, bool) {
	switch s {
	case sensor.JointTracked:
		return TrackedJointStyle, true
	case sensor.JointInferred:
		return InferredJointStyle, true
	default:
		return Style{}, false
	}
}
