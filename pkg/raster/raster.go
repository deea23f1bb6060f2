// Package raster converts color and depth samples into fixed-size Bgr32
// display buffers.
//
// A Raster is created once per modality and overwritten in place for every
// accepted frame. Conversions never allocate. Callers guarantee that source
// lengths match the buffer; a mismatch is a contract violation and is not
// checked.
package raster

import (
	"image"
	"image/color"

	"github.com/haivivi/bodyview/pkg/sensor"
)

// Raster is a packed Bgr32 pixel buffer: four bytes per pixel in B, G, R,
// pad order, rows top to bottom.
type Raster struct {
	Width  int
	Height int
	Pix    []byte
}

// New returns a zeroed raster of the given size.
func New(width, height int) *Raster {
	return &Raster{
		Width:  width,
		Height: height,
		Pix:    make([]byte, width*height*sensor.BytesPerPixel),
	}
}

// NewFrame returns a zeroed raster with the fixed sensor geometry.
func NewFrame() *Raster {
	return New(sensor.FrameWidth, sensor.FrameHeight)
}

// Stride returns the number of bytes per row.
func (r *Raster) Stride() int {
	return r.Width * sensor.BytesPerPixel
}

// ConvertColor copies a packed color frame verbatim. The source must be
// exactly len(r.Pix) bytes.
func (r *Raster) ConvertColor(raw []byte) {
	copy(r.Pix, raw[:len(r.Pix)])
}

// ConvertDepth writes a grayscale visualization of depth samples. For each
// sample the intensity is the low byte of the depth when it lies within
// [minValid, maxValid], and 0 otherwise; it is written to B, G and R. The
// fourth byte of each pixel is not touched and keeps whatever value it had.
func (r *Raster) ConvertDepth(samples []sensor.DepthPixel, minValid, maxValid int16) {
	pix := r.Pix[:len(samples)*sensor.BytesPerPixel]
	i := 0
	for _, s := range samples {
		var intensity byte
		if s.Depth >= minValid && s.Depth <= maxValid {
			intensity = byte(s.Depth)
		}
		pix[i] = intensity
		pix[i+1] = intensity
		pix[i+2] = intensity
		i += sensor.BytesPerPixel
	}
}

// CopyTo copies the pixels into dst, which must have the same size.
func (r *Raster) CopyTo(dst *Raster) {
	copy(dst.Pix, r.Pix)
}

// Image converts the raster into an opaque RGBA image. The pad byte is
// ignored.
func (r *Raster) Image() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, r.Width, r.Height))
	r.DrawTo(img)
	return img
}

// DrawTo writes the raster into img, which must be at least as large.
func (r *Raster) DrawTo(img *image.RGBA) {
	stride := r.Stride()
	for y := 0; y < r.Height; y++ {
		src := r.Pix[y*stride : (y+1)*stride]
		dst := img.Pix[y*img.Stride : y*img.Stride+r.Width*4]
		for x := 0; x < len(src); x += 4 {
			dst[x] = src[x+2]
			dst[x+1] = src[x+1]
			dst[x+2] = src[x]
			dst[x+3] = 0xff
		}
	}
}

// At returns the color of the pixel at (x, y).
func (r *Raster) At(x, y int) color.RGBA {
	i := (y*r.Width + x) * sensor.BytesPerPixel
	return color.RGBA{R: r.Pix[i+2], G: r.Pix[i+1], B: r.Pix[i], A: 0xff}
}
