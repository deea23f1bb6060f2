package sensor

import "math"

// DepthPoint is a position on the depth image, in pixels, together with the
// depth at that position in millimeters.
type DepthPoint struct {
	X     int
	Y     int
	Depth int16
}

// CoordinateMapper maps skeleton space onto the 640x480 depth image. Real
// devices ship their own calibrated mapper; the result is used as-is.
type CoordinateMapper interface {
	MapSkeletonPointToDepthPoint(p Point3) DepthPoint
}

// MapperFunc is an adapter to allow the use of ordinary functions as
// CoordinateMappers.
type MapperFunc func(p Point3) DepthPoint

// MapSkeletonPointToDepthPoint calls f(p).
func (f MapperFunc) MapSkeletonPointToDepthPoint(p Point3) DepthPoint {
	return f(p)
}

// PinholeMapper is an uncalibrated pinhole projection. Points at or behind
// the sensor plane map to the origin.
type PinholeMapper struct {
	FocalX, FocalY   float64
	CenterX, CenterY float64
}

// Nominal intrinsics of a 640x480 depth camera.
const (
	nominalFocalLength = 571.26
)

// DefaultMapper returns a PinholeMapper with nominal intrinsics.
func DefaultMapper() *PinholeMapper {
	return &PinholeMapper{
		FocalX:  nominalFocalLength,
		FocalY:  nominalFocalLength,
		CenterX: FrameWidth / 2,
		CenterY: FrameHeight / 2,
	}
}

func (m *PinholeMapper) MapSkeletonPointToDepthPoint(p Point3) DepthPoint {
	if p.Z <= 0 {
		return DepthPoint{}
	}
	x := m.CenterX + m.FocalX*p.X/p.Z
	y := m.CenterY - m.FocalY*p.Y/p.Z
	return DepthPoint{
		X:     int(math.Round(x)),
		Y:     int(math.Round(y)),
		Depth: int16(math.Min(p.Z*1000, math.MaxInt16)),
	}
}
