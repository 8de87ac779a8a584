package debug

import (
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/Faultbox/shadow-atlas/internal/shadow"
)

func testResult() *shadow.Result {
	return &shadow.Result{
		Placements: []shadow.Placement{
			{Light: 0, Slice: 0, X: 0, Y: 0, Resolution: 1024, Requested: 1024},
			{Light: 3, Slice: 2, X: 1024, Y: 0, Resolution: 512, Requested: 512},
		},
		Width:  2048,
		Height: 1024,
	}
}

func TestRenderScalesToMaxEdge(t *testing.T) {
	img := NewAtlasRenderer(512, false).Render(testResult())

	if b := img.Bounds(); b.Dx() != 512 || b.Dy() != 256 {
		t.Fatalf("image is %dx%d, want 512x256", b.Dx(), b.Dy())
	}

	// Tile interiors carry their light's colour; uncovered texels stay background.
	if got := img.RGBAAt(128, 128); got != LightColor(0) {
		t.Errorf("light 0 tile = %v, want %v", got, LightColor(0))
	}
	if got := img.RGBAAt(300, 60); got != LightColor(3) {
		t.Errorf("light 3 tile = %v, want %v", got, LightColor(3))
	}
	if got := img.RGBAAt(300, 200); got != background {
		t.Errorf("free texel = %v, want background", got)
	}
	if got := img.RGBAAt(0, 0); got != border {
		t.Errorf("tile corner = %v, want border", got)
	}
}

func TestRenderLabels(t *testing.T) {
	plain := NewAtlasRenderer(1024, false).Render(testResult())
	labelled := NewAtlasRenderer(1024, true).Render(testResult())

	diff := 0
	for i := range plain.Pix {
		if plain.Pix[i] != labelled.Pix[i] {
			diff++
		}
	}
	if diff == 0 {
		t.Error("labels did not change the image")
	}
}

func TestRenderEmpty(t *testing.T) {
	img := NewAtlasRenderer(0, true).Render(&shadow.Result{})
	if b := img.Bounds(); b.Dx() != 1 || b.Dy() != 1 {
		t.Errorf("empty result rendered %dx%d, want 1x1", b.Dx(), b.Dy())
	}
}

func TestLightColorDistinct(t *testing.T) {
	seen := make(map[[3]uint8]int)
	for i := 0; i < 16; i++ {
		c := LightColor(i)
		key := [3]uint8{c.R, c.G, c.B}
		if j, ok := seen[key]; ok {
			t.Errorf("lights %d and %d share colour %v", j, i, c)
		}
		seen[key] = i
	}
}

func TestWritePNG(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "atlas.png")
	img := NewAtlasRenderer(256, true).Render(testResult())

	if err := WritePNG(path, img); err != nil {
		t.Fatalf("WritePNG: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()

	decoded, err := png.Decode(f)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded.Bounds() != img.Bounds() {
		t.Errorf("decoded bounds %v, want %v", decoded.Bounds(), img.Bounds())
	}
}
