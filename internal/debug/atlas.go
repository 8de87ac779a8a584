// Package debug provides debug visualization utilities.
package debug

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/Faultbox/shadow-atlas/internal/shadow"
)

// DefaultMaxEdge bounds the rendered image so a 4096 atlas stays reviewable.
const DefaultMaxEdge = 1024

var (
	background = color.RGBA{24, 24, 28, 255}
	border     = color.RGBA{0, 0, 0, 255}
	labelColor = color.RGBA{255, 255, 255, 255}
)

// AtlasRenderer draws a frame's tile layout as an image.
type AtlasRenderer struct {
	maxEdge int
	labels  bool
}

// NewAtlasRenderer creates a renderer whose output is at most maxEdge pixels on a side.
// A non-positive maxEdge uses DefaultMaxEdge.
func NewAtlasRenderer(maxEdge int, labels bool) *AtlasRenderer {
	if maxEdge <= 0 {
		maxEdge = DefaultMaxEdge
	}
	return &AtlasRenderer{maxEdge: maxEdge, labels: labels}
}

// Render draws every placement of res filled with its light's colour.
// An empty result yields a 1x1 image.
func (r *AtlasRenderer) Render(res *shadow.Result) *image.RGBA {
	w, h := max(res.Width, 1), max(res.Height, 1)

	// Downscale by a power of two until the image fits
	div := 1
	for max(w, h)/div > r.maxEdge {
		div *= 2
	}
	img := image.NewRGBA(image.Rect(0, 0, max(w/div, 1), max(h/div, 1)))
	draw.Draw(img, img.Bounds(), image.NewUniform(background), image.Point{}, draw.Src)

	for _, p := range res.Placements {
		rect := image.Rect(p.X/div, p.Y/div, (p.X+p.Resolution)/div, (p.Y+p.Resolution)/div)
		if rect.Empty() {
			rect.Max = rect.Min.Add(image.Pt(1, 1))
		}
		draw.Draw(img, rect, image.NewUniform(border), image.Point{}, draw.Src)
		if inner := rect.Inset(1); !inner.Empty() {
			draw.Draw(img, inner, image.NewUniform(LightColor(p.Light)), image.Point{}, draw.Src)
		}
		if r.labels {
			drawLabel(img, rect, fmt.Sprintf("%d/%d", p.Light, p.Slice))
		}
	}
	return img
}

// drawLabel writes text in the top-left corner of rect when it fits.
func drawLabel(img *image.RGBA, rect image.Rectangle, text string) {
	face := basicfont.Face7x13
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(labelColor),
		Face: face,
	}
	width := d.MeasureString(text).Ceil()
	if width+4 > rect.Dx() || face.Height+4 > rect.Dy() {
		return
	}
	d.Dot = fixed.P(rect.Min.X+2, rect.Min.Y+2+face.Ascent)
	d.DrawString(text)
}

// LightColor returns a stable, well separated colour for a light index.
func LightColor(light int) color.RGBA {
	// Golden ratio hue steps keep neighbouring indices apart
	hue := float64(light) * 0.618033988749895
	hue -= float64(int(hue))
	return hsv(hue, 0.55, 0.9)
}

// hsv converts hue in [0,1) with saturation and value to RGBA.
func hsv(h, s, v float64) color.RGBA {
	i := int(h * 6)
	f := h*6 - float64(i)
	p := v * (1 - s)
	q := v * (1 - f*s)
	t := v * (1 - (1-f)*s)

	var r, g, b float64
	switch i % 6 {
	case 0:
		r, g, b = v, t, p
	case 1:
		r, g, b = q, v, p
	case 2:
		r, g, b = p, v, t
	case 3:
		r, g, b = p, q, v
	case 4:
		r, g, b = t, p, v
	default:
		r, g, b = v, p, q
	}
	return color.RGBA{uint8(r * 255), uint8(g * 255), uint8(b * 255), 255}
}

// WritePNG encodes img to path, creating the parent directory if needed.
func WritePNG(path string, img image.Image) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("creating output dir: %w", err)
		}
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating file: %w", err)
	}
	defer file.Close()

	if err := png.Encode(file, img); err != nil {
		return fmt.Errorf("encoding PNG: %w", err)
	}
	return file.Close()
}
