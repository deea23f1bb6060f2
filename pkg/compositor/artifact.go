package compositor

import (
	"image"
	"sync/atomic"

	"github.com/haivivi/bodyview/pkg/raster"
	"github.com/haivivi/bodyview/pkg/skeleton"
	"github.com/haivivi/bodyview/pkg/view"
)

// Artifact is what the display shows for the active view: a raster surface
// for color and depth, a scene for skeleton.
type Artifact struct {
	Mode view.Mode

	// Surface is set for color and depth views.
	Surface *raster.Surface

	// Scene is set for skeleton view once a scene has been built.
	Scene *skeleton.Scene

	// Version increases whenever the content changes within one mode.
	Version uint64
}

// Ready reports whether the artifact has any content yet.
func (a Artifact) Ready() bool {
	if a.Surface != nil {
		return a.Version > 0
	}
	return a.Scene != nil
}

// Image renders the artifact at the fixed frame size. It returns nil when
// the artifact has no content.
func (a Artifact) Image() *image.RGBA {
	switch {
	case a.Surface != nil && a.Version > 0:
		return a.Surface.Image()
	case a.Scene != nil:
		return a.Scene.Image(int(a.Scene.Width), int(a.Scene.Height))
	default:
		return nil
	}
}

// Current returns the artifact of the active view.
func (c *Compositor) Current() Artifact {
	m := c.sel.Mode()
	if s := c.Surface(m); s != nil {
		return Artifact{Mode: m, Surface: s, Version: s.Version()}
	}
	sc := c.scene.Load()
	a := Artifact{Mode: m, Scene: sc}
	if sc != nil {
		a.Version = c.stats.skeleton.accepted.Load()
	}
	return a
}

// ModalityStats counts the frames of one modality.
type ModalityStats struct {
	// Accepted frames were converted or rendered.
	Accepted uint64 `json:"accepted"`

	// Dropped frames arrived while their modality was not visible.
	Dropped uint64 `json:"dropped"`

	// Empty ticks carried no frame.
	Empty uint64 `json:"empty"`
}

// Stats is a snapshot of the compositor counters.
type Stats struct {
	View            view.Mode     `json:"view"`
	Suppressed      bool          `json:"suppressed"`
	Color           ModalityStats `json:"color"`
	Depth           ModalityStats `json:"depth"`
	Skeleton        ModalityStats `json:"skeleton"`
	Gestures        uint64        `json:"gestures"`
	GesturesDropped uint64        `json:"gestures_dropped"`
}

type modalityCounters struct {
	accepted atomic.Uint64
	dropped  atomic.Uint64
	empty    atomic.Uint64
}

func (m *modalityCounters) snapshot() ModalityStats {
	return ModalityStats{
		Accepted: m.accepted.Load(),
		Dropped:  m.dropped.Load(),
		Empty:    m.empty.Load(),
	}
}

type counters struct {
	color    modalityCounters
	depth    modalityCounters
	skeleton modalityCounters
}

// Stats returns a snapshot of the frame counters.
func (c *Compositor) Stats() Stats {
	st := Stats{
		View:       c.sel.Mode(),
		Suppressed: c.sel.Suppressed(),
		Color:      c.stats.color.snapshot(),
		Depth:      c.stats.depth.snapshot(),
		Skeleton:   c.stats.skeleton.snapshot(),
	}
	if c.gesture != nil {
		st.Gestures = c.gesture.Emitted()
		st.GesturesDropped = c.gesture.Dropped()
	}
	return st
}
