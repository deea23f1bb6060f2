package skeleton

import (
	"image"
	"image/color"
	"image/draw"
	"math"

	"golang.org/x/image/vector"
)

const ellipseSegments = 32

// Draw paints the scene onto dst, scaled to fill dst's bounds. Primitives
// outside the clip rectangle are cut off.
func (s *Scene) Draw(dst draw.Image) {
	b := dst.Bounds()
	if b.Empty() || s.Width <= 0 || s.Height <= 0 {
		return
	}
	r := &renderer{
		dst: dst,
		sx:  float64(b.Dx()) / s.Width,
		sy:  float64(b.Dy()) / s.Height,
	}
	clip := image.Rect(
		int(math.Floor(s.Clip.X*r.sx)),
		int(math.Floor(s.Clip.Y*r.sy)),
		int(math.Ceil((s.Clip.X+s.Clip.W)*r.sx)),
		int(math.Ceil((s.Clip.Y+s.Clip.H)*r.sy)),
	)
	r.clip = clip.Intersect(image.Rect(0, 0, b.Dx(), b.Dy())).Add(b.Min)
	if r.clip.Empty() {
		return
	}
	r.off = r.clip.Min.Sub(b.Min)
	r.z = vector.NewRasterizer(r.clip.Dx(), r.clip.Dy())
	for i := range s.Primitives {
		r.primitive(&s.Primitives[i])
	}
}

// Image renders the scene into a new RGBA image of the given size.
func (s *Scene) Image(width, height int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	s.Draw(img)
	return img
}

type renderer struct {
	dst    draw.Image
	sx, sy float64
	z      *vector.Rasterizer
	clip   image.Rectangle // in dst coordinates
	off    image.Point     // clip origin relative to dst origin
}

func (r *renderer) primitive(p *Primitive) {
	switch p.Kind {
	case KindRect:
		pts := []Point{
			{p.Rect.X, p.Rect.Y},
			{p.Rect.X + p.Rect.W, p.Rect.Y},
			{p.Rect.X + p.Rect.W, p.Rect.Y + p.Rect.H},
			{p.Rect.X, p.Rect.Y + p.Rect.H},
		}
		if p.Style.HasFill() {
			r.polygon(pts, p.Style.Fill)
		}
		if p.Style.HasStroke() {
			r.outline(pts, p.Style)
		}
	case KindEllipse:
		pts := make([]Point, ellipseSegments)
		for i := range pts {
			a := 2 * math.Pi * float64(i) / ellipseSegments
			pts[i] = Point{p.Center.X + p.Radius*math.Cos(a), p.Center.Y + p.Radius*math.Sin(a)}
		}
		if p.Style.HasFill() {
			r.polygon(pts, p.Style.Fill)
		}
		if p.Style.HasStroke() {
			r.outline(pts, p.Style)
		}
	case KindLine:
		if p.Style.HasStroke() {
			r.segment(p.From, p.To, p.Style)
		}
	}
}

// polygon fills a closed path given in scene coordinates.
func (r *renderer) polygon(pts []Point, c color.RGBA) {
	r.z.Reset(r.clip.Dx(), r.clip.Dy())
	r.z.DrawOp = draw.Over
	for i, p := range pts {
		x := float32(p.X*r.sx - float64(r.off.X))
		y := float32(p.Y*r.sy - float64(r.off.Y))
		if i == 0 {
			r.z.MoveTo(x, y)
		} else {
			r.z.LineTo(x, y)
		}
	}
	r.z.ClosePath()
	r.z.Draw(r.dst, r.clip, image.NewUniform(c), image.Point{})
}

// segment strokes a line as a quad of the pen width. Zero-length segments
// are skipped.
func (r *renderer) segment(from, to Point, st Style) {
	dx, dy := to.X-from.X, to.Y-from.Y
	l := math.Hypot(dx, dy)
	if l == 0 {
		return
	}
	w := st.StrokeWidth * (r.sx + r.sy) / 2
	if w < 1 {
		w = 1
	}
	// Normal in scene units, sized so that the scaled width is w.
	nx, ny := -dy/l*w/2/r.sx, dx/l*w/2/r.sy
	r.polygon([]Point{
		{from.X + nx, from.Y + ny},
		{to.X + nx, to.Y + ny},
		{to.X - nx, to.Y - ny},
		{from.X - nx, from.Y - ny},
	}, st.Stroke)
}

func (r *renderer) outline(pts []Point, st Style) {
	for i := range pts {
		r.segment(pts[i], pts[(i+1)%len(pts)], st)
	}
}
