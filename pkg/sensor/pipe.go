package sensor

import (
	"context"
	"iter"
	"sync"
	"sync/atomic"
)

// NewPipe creates a connected pair: a PipeSource that produces frames and a
// PipeDevice that delivers them. Each modality has a single-slot mailbox:
// when the consumer has not taken the previous frame yet, the new frame
// replaces it and the replaced frame is counted as dropped.
//
// This is useful for testing and for in-process sensors such as the
// Simulator.
func NewPipe(mapper CoordinateMapper) (*PipeSource, *PipeDevice) {
	if mapper == nil {
		mapper = DefaultMapper()
	}
	shared := &pipeShared{
		color:    newMailbox[*ColorFrame](),
		depth:    newMailbox[*DepthFrame](),
		skeleton: newMailbox[*SkeletonFrame](),
		done:     make(chan struct{}),
	}
	return &PipeSource{shared: shared}, &PipeDevice{shared: shared, mapper: mapper}
}

type pipeShared struct {
	color    *mailbox[*ColorFrame]
	depth    *mailbox[*DepthFrame]
	skeleton *mailbox[*SkeletonFrame]

	closeOnce sync.Once
	done      chan struct{}
}

func (s *pipeShared) close() {
	s.closeOnce.Do(func() {
		close(s.done)
	})
}

// mailbox is a latest-wins single slot.
type mailbox[T any] struct {
	mu     sync.Mutex
	ch     chan T
	drops  atomic.Uint64
	frames atomic.Uint64
}

func newMailbox[T any]() *mailbox[T] {
	return &mailbox[T]{ch: make(chan T, 1)}
}

func (m *mailbox[T]) put(v T) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.frames.Add(1)
	select {
	case m.ch <- v:
		return
	default:
	}
	select {
	case <-m.ch:
		m.drops.Add(1)
	default:
	}
	m.ch <- v
}

func seq[T any](m *mailbox[T], done <-chan struct{}) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		for {
			select {
			case v := <-m.ch:
				if !yield(v, nil) {
					return
				}
			case <-done:
				return
			}
		}
	}
}

// PipeSource is the producing side of a pipe.
type PipeSource struct {
	shared *pipeShared
}

func (p *PipeSource) send(ctx context.Context, put func()) error {
	select {
	case <-p.shared.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	default:
	}
	put()
	return nil
}

// SendColor publishes a color frame. A nil frame signals an empty tick.
func (p *PipeSource) SendColor(ctx context.Context, f *ColorFrame) error {
	return p.send(ctx, func() { p.shared.color.put(f) })
}

// SendDepth publishes a depth frame. A nil frame signals an empty tick.
func (p *PipeSource) SendDepth(ctx context.Context, f *DepthFrame) error {
	return p.send(ctx, func() { p.shared.depth.put(f) })
}

// SendSkeleton publishes a skeleton frame. A nil frame signals an empty tick.
func (p *PipeSource) SendSkeleton(ctx context.Context, f *SkeletonFrame) error {
	return p.send(ctx, func() { p.shared.skeleton.put(f) })
}

// Done returns a channel that is closed when the pipe is closed.
func (p *PipeSource) Done() <-chan struct{} {
	return p.shared.done
}

// Close closes the pipe from the producing side.
func (p *PipeSource) Close() error {
	p.shared.close()
	return nil
}

// PipeStats counts frames published and replaced before delivery.
type PipeStats struct {
	ColorFrames    uint64 `json:"color_frames"`
	ColorDrops     uint64 `json:"color_drops"`
	DepthFrames    uint64 `json:"depth_frames"`
	DepthDrops     uint64 `json:"depth_drops"`
	SkeletonFrames uint64 `json:"skeleton_frames"`
	SkeletonDrops  uint64 `json:"skeleton_drops"`
}

// PipeDevice is the consuming side of a pipe. It implements Device.
type PipeDevice struct {
	shared *pipeShared
	mapper CoordinateMapper
}

var _ Device = (*PipeDevice)(nil)

func (d *PipeDevice) ColorFrames() iter.Seq2[*ColorFrame, error] {
	return seq(d.shared.color, d.shared.done)
}

func (d *PipeDevice) DepthFrames() iter.Seq2[*DepthFrame, error] {
	return seq(d.shared.depth, d.shared.done)
}

func (d *PipeDevice) SkeletonFrames() iter.Seq2[*SkeletonFrame, error] {
	return seq(d.shared.skeleton, d.shared.done)
}

func (d *PipeDevice) Mapper() CoordinateMapper {
	return d.mapper
}

// Stats returns a snapshot of the pipe counters.
func (d *PipeDevice) Stats() PipeStats {
	s := d.shared
	return PipeStats{
		ColorFrames:    s.color.frames.Load(),
		ColorDrops:     s.color.drops.Load(),
		DepthFrames:    s.depth.frames.Load(),
		DepthDrops:     s.depth.drops.Load(),
		SkeletonFrames: s.skeleton.frames.Load(),
		SkeletonDrops:  s.skeleton.drops.Load(),
	}
}

func (d *PipeDevice) Close() error {
	d.shared.close()
	return nil
}
