package display

import (
	"bytes"
	"encoding/json"
	"fmt"
	"image"
	"image/jpeg"
	"strings"

	"github.com/haivivi/bodyview/pkg/skeleton"
	"github.com/haivivi/bodyview/pkg/view"
)

// DefaultJPEGQuality is used when Config.Quality is zero.
const DefaultJPEGQuality = 75

// EncodeJPEG encodes img as JPEG.
func EncodeJPEG(img image.Image, quality int) ([]byte, error) {
	if quality <= 0 {
		quality = DefaultJPEGQuality
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, fmt.Errorf("display: encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}

// Message is a JSON message pushed to websocket clients. Raster frames are
// sent as binary JPEG messages instead.
type Message struct {
	Type       string          `json:"type"`
	ID         string          `json:"id,omitempty"`
	Mode       *view.Mode      `json:"mode,omitempty"`
	Suppressed *bool           `json:"suppressed,omitempty"`
	Scene      *skeleton.Scene `json:"scene,omitempty"`
}

// Message types.
const (
	MessageHello = "hello"
	MessageMode  = "mode"
	MessageScene = "scene"
)

func helloMessage(id string, st view.State) ([]byte, error) {
	return json.Marshal(&Message{Type: MessageHello, ID: id, Mode: &st.Mode, Suppressed: &st.Suppressed})
}

func modeMessage(st view.State) ([]byte, error) {
	return json.Marshal(&Message{Type: MessageMode, Mode: &st.Mode, Suppressed: &st.Suppressed})
}

func sceneMessage(sc *skeleton.Scene) ([]byte, error) {
	return json.Marshal(&Message{Type: MessageScene, Scene: sc})
}

// asciiRamp goes from dark to bright.
const asciiRamp = " .:-=+*#%@"

// Preview renders img as cols×rows characters, one per cell, by averaging
// the luma of each cell.
func Preview(img image.Image, cols, rows int) string {
	if img == nil || cols <= 0 || rows <= 0 {
		return ""
	}
	b := img.Bounds()
	var sb strings.Builder
	sb.Grow((cols + 1) * rows)
	for row := 0; row < rows; row++ {
		y0 := b.Min.Y + row*b.Dy()/rows
		y1 := max(b.Min.Y+(row+1)*b.Dy()/rows, y0+1)
		for col := 0; col < cols; col++ {
			x0 := b.Min.X + col*b.Dx()/cols
			x1 := max(b.Min.X+(col+1)*b.Dx()/cols, x0+1)
			sb.WriteByte(asciiRamp[cellLuma(img, x0, y0, x1, y1)*(len(asciiRamp)-1)/255])
		}
		if row < rows-1 {
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}

// cellLuma returns the mean luma of the rectangle in [0, 255]. Large cells
// are sampled on a grid of at most 4×4 points.
func cellLuma(img image.Image, x0, y0, x1, y1 int) int {
	stepX := max((x1-x0)/4, 1)
	stepY := max((y1-y0)/4, 1)
	var sum, n int
	for y := y0; y < y1; y += stepY {
		for x := x0; x < x1; x += stepX {
			r, g, b, _ := img.At(x, y).RGBA()
			// Rec. 601 luma on 16-bit channels.
			sum += int((299*r + 587*g + 114*b) / 1000 >> 8)
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return sum / n
}
