package skeleton

import "github.com/haivivi/bodyview/pkg/sensor"

// Bone is a fixed anatomical connection between two joints.
type Bone struct {
	Name string           `json:"name" yaml:"name"`
	From sensor.JointType `json:"from" yaml:"from"`
	To   sensor.JointType `json:"to" yaml:"to"`
}

// BoneCount is the number of bones in the topology.
const BoneCount = 19

// Bones is the render topology, in draw order: torso, left arm, right arm,
// left leg, right leg.
var Bones = [BoneCount]Bone{
	{"neck", sensor.Head, sensor.ShoulderCenter},
	{"collar_left", sensor.ShoulderCenter, sensor.ShoulderLeft},
	{"collar_right", sensor.ShoulderCenter, sensor.ShoulderRight},
	{"upper_spine", sensor.ShoulderCenter, sensor.Spine},
	{"lower_spine", sensor.Spine, sensor.HipCenter},
	{"pelvis_left", sensor.HipCenter, sensor.HipLeft},
	{"pelvis_right", sensor.HipCenter, sensor.HipRight},

	{"upper_arm_left", sensor.ShoulderLeft, sensor.ElbowLeft},
	{"forearm_left", sensor.ElbowLeft, sensor.WristLeft},
	{"hand_left", sensor.WristLeft, sensor.HandLeft},

	{"upper_arm_right", sensor.ShoulderRight, sensor.ElbowRight},
	{"forearm_right", sensor.ElbowRight, sensor.WristRight},
	{"hand_right", sensor.WristRight, sensor.HandRight},

	{"thigh_left", sensor.HipLeft, sensor.KneeLeft},
	{"shin_left", sensor.KneeLeft, sensor.AnkleLeft},
	{"foot_left", sensor.AnkleLeft, sensor.FootLeft},

	{"thigh_right", sensor.HipRight, sensor.KneeRight},
	{"shin_right", sensor.KneeRight, sensor.AnkleRight},
	{"foot_right", sensor.AnkleRight, sensor.FootRight},
}
