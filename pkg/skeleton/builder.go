// Package skeleton turns skeleton frames into a 2D vector scene: a background,
// red bars on clipped edges, bones between joints, joint dots and body-center
// markers.
package skeleton

import (
	"github.com/haivivi/bodyview/pkg/sensor"
)

// Builder builds scenes at a fixed render size.
type Builder struct {
	projector Projector
	width     float64
	height    float64
}

// NewBuilder returns a Builder projecting through p onto the 640x480 render
// surface.
func NewBuilder(p Projector) *Builder {
	return &Builder{
		projector: p,
		width:     sensor.FrameWidth,
		height:    sensor.FrameHeight,
	}
}

// Build returns a new scene for one skeleton frame. A fresh scene is built
// on every call and the previous one is never modified.
//
// When suppressed is true only the background is emitted; the caller uses
// this to hide the overlay while keeping the frame cadence.
func (b *Builder) Build(number int64, skeletons []sensor.Skeleton, suppressed bool) *Scene {
	capacity := 1
	if !suppressed {
		capacity += len(skeletons) * (4 + BoneCount + sensor.JointCount)
	}
	s := &Scene{
		Number:     number,
		Width:      b.width,
		Height:     b.height,
		Clip:       Rect{W: b.width, H: b.height},
		Primitives: make([]Primitive, 0, capacity),
	}
	s.rect(BackgroundStyle, Rect{W: b.width, H: b.height})
	if suppressed {
		return s
	}

	for i := range skeletons {
		sk := &skeletons[i]
		b.clippedEdges(s, sk.ClippedEdges)
		switch sk.TrackingState {
		case sensor.SkeletonTracked:
			b.body(s, sk)
		case sensor.SkeletonPositionOnly:
			s.ellipse(BodyCenterStyle, b.projector.Project(sk.Position), BodyCenterRadius)
		}
	}
	return s
}

// clippedEdges emits one red bar per flagged edge, in bottom, top, left,
// right order.
func (b *Builder) clippedEdges(s *Scene, edges sensor.FrameEdges) {
	const t = ClipEdgeThickness
	if edges.Has(sensor.EdgeBottom) {
		s.rect(ClipEdgeStyle, Rect{X: 0, Y: b.height - t, W: b.width, H: t})
	}
	if edges.Has(sensor.EdgeTop) {
		s.rect(ClipEdgeStyle, Rect{X: 0, Y: 0, W: b.width, H: t})
	}
	if edges.Has(sensor.EdgeLeft) {
		s.rect(ClipEdgeStyle, Rect{X: 0, Y: 0, W: t, H: b.height})
	}
	if edges.Has(sensor.EdgeRight) {
		s.rect(ClipEdgeStyle, Rect{X: b.width - t, Y: 0, W: t, H: b.height})
	}
}

// body draws every bone, then every joint, so that dots sit on top of lines.
func (b *Builder) body(s *Scene, sk *sensor.Skeleton) {
	var pts [sensor.JointCount]Point
	for i := range sk.Joints {
		pts[i] = b.projector.Project(sk.Joints[i].Position)
	}

	for _, bone := range Bones {
		from, to := sk.Joints[bone.From], sk.Joints[bone.To]
		st, ok := boneStyle(BonePolicy(from.TrackingState, to.TrackingState))
		if !ok {
			continue
		}
		s.line(st, pts[bone.From], pts[bone.To])
	}

	for i := range sk.Joints {
		st, ok := jointStyle(sk.Joints[i].TrackingState)
		if !ok {
			continue
		}
		s.ellipse(st, pts[i], JointRadius)
	}
}
