package raster

import (
	"bytes"
	"sync"
	"testing"

	"github.com/haivivi/bodyview/pkg/sensor"
)

func TestNew_Length(t *testing.T) {
	r := NewFrame()
	if got, want := len(r.Pix), sensor.FrameWidth*sensor.FrameHeight*4; got != want {
		t.Fatalf("len(Pix) = %d; want %d", got, want)
	}
	if r.Stride() != sensor.FrameWidth*4 {
		t.Errorf("Stride() = %d; want %d", r.Stride(), sensor.FrameWidth*4)
	}
}

func TestConvertColor_Verbatim(t *testing.T) {
	r := New(4, 2)
	raw := make([]byte, 4*2*4)
	for i := range raw {
		raw[i] = byte(i * 7)
	}
	r.ConvertColor(raw)
	if !bytes.Equal(r.Pix, raw) {
		t.Errorf("ConvertColor did not copy verbatim")
	}
}

func TestConvertDepth_Range(t *testing.T) {
	const minValid, maxValid = 800, 4000

	tests := []struct {
		depth int16
		want  byte
	}{
		{-1, 0},
		{0, 0},
		{799, 0},
		{800, byte(800 & 0xff)},
		{1000, byte(1000 & 0xff)},
		{1024, 0}, // in range, low byte happens to be 0
		{2047, 0xff},
		{4000, byte(4000 & 0xff)},
		{4001, 0},
		{32767, 0},
	}

	r := New(len(tests), 1)
	samples := make([]sensor.DepthPixel, len(tests))
	for i, tc := range tests {
		samples[i] = sensor.DepthPixel{Depth: tc.depth}
	}
	r.ConvertDepth(samples, minValid, maxValid)

	for i, tc := range tests {
		px := r.Pix[i*4 : i*4+4]
		if px[0] != tc.want || px[1] != tc.want || px[2] != tc.want {
			t.Errorf("depth %d: BGR = %v; want %d replicated", tc.depth, px[:3], tc.want)
		}
	}
}

func TestConvertDepth_ZeroIffOutOfRange(t *testing.T) {
	const minValid, maxValid = 800, 4000
	r := New(1, 1)
	for d := int16(-2000); d < 6000; d += 7 {
		r.ConvertDepth([]sensor.DepthPixel{{Depth: d}}, minValid, maxValid)
		in := d >= minValid && d <= maxValid
		want := byte(0)
		if in {
			want = byte(d)
		}
		if r.Pix[0] != want {
			t.Fatalf("depth %d: intensity = %d; want %d", d, r.Pix[0], want)
		}
	}
}

func TestConvertDepth_PadByteUntouched(t *testing.T) {
	r := New(3, 1)
	for i := 3; i < len(r.Pix); i += 4 {
		r.Pix[i] = 0xAB
	}
	r.ConvertDepth([]sensor.DepthPixel{{Depth: 900}, {Depth: 100}, {Depth: 5000}}, 800, 4000)
	for i := 3; i < len(r.Pix); i += 4 {
		if r.Pix[i] != 0xAB {
			t.Errorf("pad byte %d = %#x; want 0xab", i/4, r.Pix[i])
		}
	}
}

func TestConvertDepth_NoAlloc(t *testing.T) {
	r := NewFrame()
	samples := make([]sensor.DepthPixel, sensor.DepthFrameLength)
	allocs := testing.AllocsPerRun(5, func() {
		r.ConvertDepth(samples, 800, 4000)
	})
	if allocs != 0 {
		t.Errorf("ConvertDepth allocated %v times per run", allocs)
	}
}

func TestRaster_Image(t *testing.T) {
	r := New(2, 1)
	copy(r.Pix, []byte{10, 20, 30, 0, 1, 2, 3, 0})
	img := r.Image()
	c := img.RGBAAt(0, 0)
	if c.R != 30 || c.G != 20 || c.B != 10 || c.A != 0xff {
		t.Errorf("pixel 0 = %+v; want R30 G20 B10", c)
	}
	if got := r.At(1, 0); got.R != 3 || got.B != 1 {
		t.Errorf("At(1,0) = %+v", got)
	}
}

func TestSurface_UpdateView(t *testing.T) {
	s := NewSurface()
	if s.Version() != 0 {
		t.Fatalf("initial version = %d; want 0", s.Version())
	}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 50; i++ {
			v := byte(i)
			s.Update(func(r *Raster) {
				for j := range r.Pix {
					r.Pix[j] = v
				}
			})
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 50; i++ {
			s.View(func(r *Raster) {
				first := r.Pix[0]
				if r.Pix[len(r.Pix)-1] != first {
					t.Errorf("observed torn frame: %d vs %d", first, r.Pix[len(r.Pix)-1])
				}
			})
		}
	}()
	wg.Wait()

	if s.Version() != 50 {
		t.Errorf("version = %d; want 50", s.Version())
	}
	snap := s.Snapshot()
	if snap.Pix[0] != 49 {
		t.Errorf("snapshot pixel = %d; want 49", snap.Pix[0])
	}
}
