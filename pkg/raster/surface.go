package raster

import (
	"image"
	"sync"
	"sync/atomic"
)

// Surface owns the Raster of one modality. Exactly one goroutine, the
// modality's frame callback, writes it through Update; any number of display
// readers look at it through View. A reader never observes a half-written
// frame.
type Surface struct {
	mu      sync.RWMutex
	r       *Raster
	version atomic.Uint64
}

// NewSurface returns a surface backed by a zeroed frame-sized raster.
func NewSurface() *Surface {
	return &Surface{r: NewFrame()}
}

// Update runs fn with exclusive access to the raster and then bumps the
// version.
func (s *Surface) Update(fn func(r *Raster)) {
	s.mu.Lock()
	fn(s.r)
	s.mu.Unlock()
	s.version.Add(1)
}

// View runs fn with shared access to the raster. fn must not retain r.
func (s *Surface) View(fn func(r *Raster)) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	fn(s.r)
}

// Version returns the number of completed updates. Zero means the surface
// has never been written.
func (s *Surface) Version() uint64 {
	return s.version.Load()
}

// Snapshot returns a copy of the current raster.
func (s *Surface) Snapshot() *Raster {
	var out *Raster
	s.View(func(r *Raster) {
		out = New(r.Width, r.Height)
		r.CopyTo(out)
	})
	return out
}

// Image returns the current contents as an RGBA image.
func (s *Surface) Image() *image.RGBA {
	var img *image.RGBA
	s.View(func(r *Raster) {
		img = r.Image()
	})
	return img
}
