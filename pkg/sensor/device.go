package sensor

import (
	"errors"
	"iter"
)

// ErrClosed is returned when sending to a closed device.
var ErrClosed = errors.New("sensor: device closed")

// Device is a connected, started sensor. Each stream yields frames in order
// and ends when the device is closed. A nil frame means the sensor signalled
// readiness but had no payload for that tick; consumers skip it.
//
// The three streams are independent and are expected to be consumed from
// separate goroutines.
type Device interface {
	// ColorFrames returns an iterator over color frames.
	ColorFrames() iter.Seq2[*ColorFrame, error]

	// DepthFrames returns an iterator over depth frames.
	DepthFrames() iter.Seq2[*DepthFrame, error]

	// SkeletonFrames returns an iterator over skeleton frames.
	SkeletonFrames() iter.Seq2[*SkeletonFrame, error]

	// Mapper returns the coordinate mapper of the device.
	Mapper() CoordinateMapper

	// Close stops delivery. All streams end after Close returns.
	Close() error
}
