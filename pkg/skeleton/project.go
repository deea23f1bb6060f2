package skeleton

import "github.com/haivivi/bodyview/pkg/sensor"

// Point is a 2D position on the render surface.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Projector maps a skeleton-space position to render-surface coordinates.
type Projector interface {
	Project(p sensor.Point3) Point
}

// ProjectFunc is an adapter to allow the use of ordinary functions as
// Projectors.
type ProjectFunc func(p sensor.Point3) Point

// Project calls f(p).
func (f ProjectFunc) Project(p sensor.Point3) Point { return f(p) }

// mapperProjector projects through a device's coordinate mapper and keeps
// only the image position. The render surface has the same 640x480 geometry
// as the depth image, so no scaling is applied.
type mapperProjector struct {
	m sensor.CoordinateMapper
}

// NewProjector returns a Projector backed by m. Positions outside the image
// are returned as-is; drawing clips them.
func NewProjector(m sensor.CoordinateMapper) Projector {
	return mapperProjector{m: m}
}

func (p mapperProjector) Project(pt sensor.Point3) Point {
	dp := p.m.MapSkeletonPointToDepthPoint(pt)
	return Point{X: float64(dp.X), Y: float64(dp.Y)}
}
