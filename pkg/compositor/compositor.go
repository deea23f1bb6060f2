// Package compositor routes sensor frames to the converters and the scene
// builder according to the active view, and exposes the current
// displayable artifact.
//
// Each modality is handled by its own goroutine. Color and depth frames are
// converted in place into a per-modality surface only when their modality is
// visible; otherwise they are dropped unconverted. Skeleton frames always
// feed gesture tracking and are turned into a scene only in skeleton view.
// The scene is rebuilt per frame and published with an atomic swap.
//
// Typical usage:
//
//	c := compositor.New(sel, compositor.Config{Gesture: bridge})
//	go c.Run(ctx, dev)
//	art := c.Current()
package compositor

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/haivivi/bodyview/pkg/gesture"
	"github.com/haivivi/bodyview/pkg/raster"
	"github.com/haivivi/bodyview/pkg/sensor"
	"github.com/haivivi/bodyview/pkg/skeleton"
	"github.com/haivivi/bodyview/pkg/view"
)

// Config holds configuration for a Compositor.
type Config struct {
	// Gesture receives every skeleton frame. Optional.
	Gesture *gesture.Bridge

	// Projector maps joints to the render surface. Defaults to the device
	// mapper when Run or ReadFrom is called, or the nominal pinhole mapper
	// if frames are handled directly.
	Projector skeleton.Projector

	// Logger defaults to DefaultLogger().
	Logger Logger
}

// Compositor owns the display buffers of all modalities.
type Compositor struct {
	sel     *view.Selector
	gesture *gesture.Bridge
	logger  Logger

	color *raster.Surface
	depth *raster.Surface
	scene atomic.Pointer[skeleton.Scene]

	builderOnce sync.Once
	projector   skeleton.Projector
	builder     *skeleton.Builder

	stats counters
}

// New creates a Compositor driven by sel.
func New(sel *view.Selector, cfg Config) *Compositor {
	if cfg.Logger == nil {
		cfg.Logger = DefaultLogger()
	}
	return &Compositor{
		sel:       sel,
		gesture:   cfg.Gesture,
		logger:    cfg.Logger,
		color:     raster.NewSurface(),
		depth:     raster.NewSurface(),
		projector: cfg.Projector,
	}
}

// HandleColor processes one color frame. A nil frame is skipped and the
// previous image stays visible.
func (c *Compositor) HandleColor(f *sensor.ColorFrame) {
	if f == nil {
		c.stats.color.empty.Add(1)
		return
	}
	if c.sel.Mode() != view.ModeColor {
		c.stats.color.dropped.Add(1)
		return
	}
	c.color.Update(func(r *raster.Raster) {
		r.ConvertColor(f.Pixels)
	})
	c.stats.color.accepted.Add(1)
}

// HandleDepth processes one depth frame using the frame's valid range.
func (c *Compositor) HandleDepth(f *sensor.DepthFrame) {
	if f == nil {
		c.stats.depth.empty.Add(1)
		return
	}
	if c.sel.Mode() != view.ModeDepth {
		c.stats.depth.dropped.Add(1)
		return
	}
	c.depth.Update(func(r *raster.Raster) {
		r.ConvertDepth(f.Pixels, f.MinDepth, f.MaxDepth)
	})
	c.stats.depth.accepted.Add(1)
}

// HandleSkeleton processes one skeleton frame. The frame is forwarded to
// gesture tracking in every view; the scene is rebuilt only in skeleton
// view.
func (c *Compositor) HandleSkeleton(f *sensor.SkeletonFrame) {
	if f == nil {
		c.stats.skeleton.empty.Add(1)
		return
	}
	if c.gesture != nil {
		c.gesture.Forward(f)
	}
	if c.sel.Mode() != view.ModeSkeleton {
		c.stats.skeleton.dropped.Add(1)
		return
	}
	c.scene.Store(c.sceneBuilder().Build(f.Number, f.Skeletons, c.sel.Suppressed()))
	c.stats.skeleton.accepted.Add(1)
}

func (c *Compositor) sceneBuilder() *skeleton.Builder {
	c.builderOnce.Do(func() {
		if c.projector == nil {
			c.projector = skeleton.NewProjector(sensor.DefaultMapper())
		}
		c.builder = skeleton.NewBuilder(c.projector)
	})
	return c.builder
}

// ReadFrom consumes all three streams of dev, one goroutine per modality,
// until every stream has ended. It returns the first stream error.
func (c *Compositor) ReadFrom(dev sensor.Device) error {
	c.builderOnce.Do(func() {
		if c.projector == nil {
			c.projector = skeleton.NewProjector(dev.Mapper())
		}
		c.builder = skeleton.NewBuilder(c.projector)
	})

	var wg sync.WaitGroup
	var mu sync.Mutex
	var firstErr error

	setErr := func(err error) {
		if err == nil {
			return
		}
		mu.Lock()
		if firstErr == nil {
			firstErr = err
		}
		mu.Unlock()
	}

	wg.Add(3)

	go func() {
		defer wg.Done()
		for f, err := range dev.ColorFrames() {
			if err != nil {
				c.logger.ErrorPrintf("color stream: %v", err)
				setErr(c.logger.Errorf("color stream: %w", err))
				return
			}
			c.HandleColor(f)
		}
		c.logger.DebugPrintf("color stream ended")
	}()

	go func() {
		defer wg.Done()
		for f, err := range dev.DepthFrames() {
			if err != nil {
				c.logger.ErrorPrintf("depth stream: %v", err)
				setErr(c.logger.Errorf("depth stream: %w", err))
				return
			}
			c.HandleDepth(f)
		}
		c.logger.DebugPrintf("depth stream ended")
	}()

	go func() {
		defer wg.Done()
		for f, err := range dev.SkeletonFrames() {
			if err != nil {
				c.logger.ErrorPrintf("skeleton stream: %v", err)
				setErr(c.logger.Errorf("skeleton stream: %w", err))
				return
			}
			c.HandleSkeleton(f)
		}
		c.logger.DebugPrintf("skeleton stream ended")
	}()

	wg.Wait()
	return firstErr
}

// Run reads dev until ctx is done, then closes the device and waits for
// every stream to drain. The device is closed on return in all cases.
func (c *Compositor) Run(ctx context.Context, dev sensor.Device) error {
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			c.logger.InfoPrintf("stopping sensor")
			if err := dev.Close(); err != nil {
				c.logger.WarnPrintf("close device: %v", err)
			}
		case <-done:
		}
	}()

	unsubscribe := c.sel.Subscribe(func(st view.State) {
		c.logger.InfoPrintf("view %s, overlay suppressed=%v", st.Mode, st.Suppressed)
	})
	defer unsubscribe()

	c.logger.InfoPrintf("streaming, view %s", c.sel.Mode())
	err := c.ReadFrom(dev)
	if cerr := dev.Close(); cerr != nil && err == nil {
		err = c.logger.Errorf("close device: %w", cerr)
	}
	if err != nil {
		return err
	}
	return ctx.Err()
}

// Selector returns the view selector driving the compositor.
func (c *Compositor) Selector() *view.Selector {
	return c.sel
}

// Surface returns the raster surface of a raster modality, or nil for
// skeleton view.
func (c *Compositor) Surface(m view.Mode) *raster.Surface {
	switch m {
	case view.ModeColor:
		return c.color
	case view.ModeDepth:
		return c.depth
	default:
		return nil
	}
}

// Scene returns the last published scene, or nil if none was built yet.
func (c *Compositor) Scene() *skeleton.Scene {
	return c.scene.Load()
}
