package scene

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/shadow-atlas/internal/shadow"
)

func TestLoad(t *testing.T) {
	s, err := Load(filepath.Join("testdata", "courtyard.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if s.Name != "courtyard" {
		t.Errorf("expected name courtyard, got %s", s.Name)
	}
	if s.MainLightIndex() != 0 {
		t.Errorf("expected main light 0, got %d", s.MainLightIndex())
	}

	lights := s.ShadowLights()
	if len(lights) != 4 {
		t.Fatalf("expected 4 lights, got %d", len(lights))
	}

	spot := lights[1]
	if spot.Type != shadow.LightSpot || spot.Tier != shadow.TierHigh || !spot.CastsShadows || spot.Strength != 1 {
		t.Errorf("unexpected spot light %+v", spot)
	}
	brazier := lights[2]
	if brazier.Type != shadow.LightPoint || !brazier.SoftShadows || brazier.Strength != 0.8 {
		t.Errorf("unexpected point light %+v", brazier)
	}
	if brazier.Tier != shadow.TierMedium {
		t.Errorf("expected default tier medium, got %v", brazier.Tier)
	}
	if brazier.Position != (mgl32.Vec3{4, 1, 2}) {
		t.Errorf("expected position (4,1,2), got %v", brazier.Position)
	}
	if lights[3].CastsShadows {
		t.Error("expected window glow without shadows")
	}

	f := s.Frame()
	if f.Camera != (mgl32.Vec3{0, 2, 10}) || f.MainLight != 0 || f.Clip == nil {
		t.Errorf("unexpected frame %+v", f)
	}
}

func TestLoadDefaultsNameToPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.yaml")
	if err := os.WriteFile(path, []byte("lights: []\n"), 0644); err != nil {
		t.Fatalf("failed to write scene: %v", err)
	}

	s, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if s.Name != path {
		t.Errorf("expected name %s, got %s", path, s.Name)
	}
	if s.MainLightIndex() != shadow.NoMainLight {
		t.Errorf("expected no main light, got %d", s.MainLightIndex())
	}
}

func TestLoadMissing(t *testing.T) {
	if _, err := Load("/nonexistent/scene.yaml"); err == nil {
		t.Error("expected error loading missing scene, got nil")
	}
}

func TestParseInvalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"unknown type", "lights:\n  - type: area\n"},
		{"unknown tier", "lights:\n  - type: point\n    tier: extreme\n"},
		{"strength above one", "lights:\n  - type: point\n    strength: 2\n"},
		{"shadowed point without range", "lights:\n  - type: point\n    shadows: true\n"},
		{"spot without angle", "lights:\n  - type: spot\n    shadows: true\n    range: 5\n    direction: [0, 0, 1]\n"},
		{"spot without direction", "lights:\n  - type: spot\n    shadows: true\n    range: 5\n    spot_angle: 45\n"},
		{"main light out of range", "main_light: 3\nlights:\n  - type: point\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse([]byte(tt.yaml)); !errors.Is(err, ErrInvalidScene) {
				t.Errorf("expected ErrInvalidScene, got %v", err)
			}
		})
	}

	if _, err := Parse([]byte("lights: [")); err == nil || errors.Is(err, ErrInvalidScene) {
		t.Errorf("expected a YAML syntax error, got %v", err)
	}
}

// project applies m to p and performs the perspective divide.
func project(m mgl32.Mat4, p mgl32.Vec3) (ndc mgl32.Vec3, w float32) {
	c := m.Mul4x1(p.Vec4(1))
	return c.Vec3().Mul(1 / c.W()), c.W()
}

func TestSpotMatrix(t *testing.T) {
	pos := mgl32.Vec3{0, 4, 0}
	m := SpotMatrix(pos, mgl32.Vec3{0, -2, 0}, 60, 12)

	ndc, w := project(m, mgl32.Vec3{0, 1, 0})
	if w <= 0 {
		t.Fatalf("point in front of the light has w = %v", w)
	}
	if abs32(ndc.X()) > 1e-4 || abs32(ndc.Y()) > 1e-4 || ndc.Z() <= -1 || ndc.Z() >= 1 {
		t.Errorf("point on the axis maps to %v, want the frustum centre", ndc)
	}

	if ndc, _ := project(m, mgl32.Vec3{0, -8, 0}); abs32(ndc.Z()-1) > 1e-3 {
		t.Errorf("point at range maps to depth %v, want 1", ndc.Z())
	}

	// 30 degrees off axis sits on the cone edge.
	edge := mgl32.Vec3{0.5, -0.8660254, 0}.Mul(3)
	if ndc, _ := project(m, pos.Add(edge)); abs32(abs32(ndc.X())-1) > 1e-3 && abs32(abs32(ndc.Y())-1) > 1e-3 {
		t.Errorf("cone edge maps to %v, want a frustum side", ndc)
	}
}

func TestPointFaceMatrix(t *testing.T) {
	pos := mgl32.Vec3{4, 1, 2}
	dirs := []mgl32.Vec3{{1, 0, 0}, {-1, 0, 0}, {0, 1, 0}, {0, -1, 0}, {0, 0, 1}, {0, 0, -1}}

	for face, dir := range dirs {
		m := PointFaceMatrix(pos, face, 8)

		ndc, w := project(m, pos.Add(dir.Mul(3)))
		if w <= 0 {
			t.Errorf("face %d: point along its axis is behind the light", face)
			continue
		}
		if abs32(ndc.X()) > 1e-4 || abs32(ndc.Y()) > 1e-4 {
			t.Errorf("face %d: axis point maps to %v, want the centre", face, ndc)
		}

		if _, w := project(m, pos.Sub(dir.Mul(3))); w > 0 {
			t.Errorf("face %d: opposite point is in front of the light", face)
		}
	}
}

func TestPointFaceGuardAngle(t *testing.T) {
	m := PointFaceMatrix(mgl32.Vec3{}, 0, 10)

	// A point exactly on the 45 degree face edge stays inside the widened frustum.
	ndc, _ := project(m, mgl32.Vec3{2, 2, 0})
	if abs32(ndc.Y()) >= 1 {
		t.Errorf("face edge maps to %v, want inside the guard band", ndc)
	}
}

func TestClipTransform(t *testing.T) {
	s, err := Load(filepath.Join("testdata", "courtyard.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	tests := []struct {
		name         string
		light, slice int
		want         bool
	}{
		{"directional", 0, 0, false},
		{"spot", 1, 0, true},
		{"spot second slice", 1, 1, false},
		{"point face", 2, 5, true},
		{"point face out of range", 2, 6, false},
		{"unknown light", 9, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, ok := s.ClipTransform(tt.light, tt.slice)
			if ok != tt.want {
				t.Fatalf("ok = %v, want %v", ok, tt.want)
			}
			if ok && m == (mgl32.Mat4{}) {
				t.Error("zero matrix for a valid slice")
			}
		})
	}
}

func TestSceneAllocates(t *testing.T) {
	s, err := Load(filepath.Join("testdata", "courtyard.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	a, err := shadow.NewAllocator(shadow.DefaultSettings())
	if err != nil {
		t.Fatalf("NewAllocator: %v", err)
	}

	res := a.Allocate(s.Frame())
	if len(res.Placements) != 7 {
		t.Fatalf("expected 7 tiles (1 spot + 6 faces), got %d", len(res.Placements))
	}
	for i := range res.Placements {
		if res.Matrices[i] == (mgl32.Mat4{}) {
			t.Errorf("tile %d has no matrix", i)
		}
	}
	if res.LightParams[0] != shadow.NoShadowParams || res.LightParams[3] != shadow.NoShadowParams {
		t.Errorf("main and unshadowed lights should have no tiles: %v", res.LightParams[:4])
	}
}
