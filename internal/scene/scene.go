// Package scene loads YAML scene descriptions for offline shadow atlas planning.
package scene

import (
	"errors"
	"fmt"
	"os"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/Faultbox/shadow-atlas/internal/logger"
	"github.com/Faultbox/shadow-atlas/internal/shadow"
)

// Scene is one camera's view: its position, the main light and the visible lights.
type Scene struct {
	Name      string      `yaml:"name"`
	Camera    Camera      `yaml:"camera"`
	MainLight *int        `yaml:"main_light"` // Index into Lights, omitted when there is none
	Lights    []LightDesc `yaml:"lights"`

	lights []shadow.Light
}

// Camera holds the viewer position used for distance ranking.
type Camera struct {
	Position [3]float32 `yaml:"position"`
}

// LightDesc describes one light as written in the scene file.
type LightDesc struct {
	Name      string     `yaml:"name"`
	Type      string     `yaml:"type"`
	Position  [3]float32 `yaml:"position"`
	Direction [3]float32 `yaml:"direction"`  // Spot lights only
	SpotAngle float32    `yaml:"spot_angle"` // Full cone angle in degrees
	Range     float32    `yaml:"range"`
	Shadows   bool       `yaml:"shadows"`
	Soft      bool       `yaml:"soft"`
	Strength  *float32   `yaml:"strength"` // Defaults to 1
	Tier      string     `yaml:"tier"`     // Defaults to medium
}

// ErrInvalidScene is wrapped by every scene validation failure.
var ErrInvalidScene = errors.New("scene: invalid scene")

// Load reads and validates a scene file.
func Load(path string) (*Scene, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading scene: %w", err)
	}
	s, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("scene %s: %w", path, err)
	}
	if s.Name == "" {
		s.Name = path
	}

	logger.Named("scene").Debug("scene loaded",
		zap.String("name", s.Name),
		zap.Int("lights", len(s.Lights)))
	return s, nil
}

// Parse decodes and validates a scene from YAML.
func Parse(data []byte) (*Scene, error) {
	var s Scene
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parsing scene: %w", err)
	}

	s.lights = make([]shadow.Light, len(s.Lights))
	for i := range s.Lights {
		l, err := s.Lights[i].light()
		if err != nil {
			return nil, fmt.Errorf("light %d: %w", i, err)
		}
		s.lights[i] = l
	}

	if s.MainLight != nil {
		if i := *s.MainLight; i < 0 || i >= len(s.Lights) {
			return nil, fmt.Errorf("%w: main_light %d out of range", ErrInvalidScene, i)
		}
	}
	return &s, nil
}

func (d *LightDesc) light() (shadow.Light, error) {
	typ, err := shadow.ParseLightType(d.Type)
	if err != nil {
		return shadow.Light{}, fmt.Errorf("%w: %v", ErrInvalidScene, err)
	}

	tier := shadow.TierMedium
	if d.Tier != "" {
		if tier, err = shadow.ParseTier(d.Tier); err != nil {
			return shadow.Light{}, fmt.Errorf("%w: %v", ErrInvalidScene, err)
		}
	}

	strength := float32(1)
	if d.Strength != nil {
		strength = *d.Strength
	}
	if strength < 0 || strength > 1 {
		return shadow.Light{}, fmt.Errorf("%w: strength %v outside [0,1]", ErrInvalidScene, strength)
	}

	if d.Shadows && typ != shadow.LightDirectional {
		if d.Range <= 0 {
			return shadow.Light{}, fmt.Errorf("%w: shadowed %s light needs a positive range", ErrInvalidScene, typ)
		}
		if typ == shadow.LightSpot {
			if d.SpotAngle <= 0 || d.SpotAngle >= 180 {
				return shadow.Light{}, fmt.Errorf("%w: spot_angle %v outside (0,180)", ErrInvalidScene, d.SpotAngle)
			}
			if mgl32.Vec3(d.Direction).LenSqr() == 0 {
				return shadow.Light{}, fmt.Errorf("%w: spot light without direction", ErrInvalidScene)
			}
		}
	}

	return shadow.Light{
		Type:         typ,
		CastsShadows: d.Shadows,
		SoftShadows:  d.Soft,
		Strength:     strength,
		Position:     mgl32.Vec3(d.Position),
		Tier:         tier,
	}, nil
}

// ShadowLights returns the scene lights in allocator form. The slice is shared.
func (s *Scene) ShadowLights() []shadow.Light {
	return s.lights
}

// MainLightIndex returns the main light index or shadow.NoMainLight.
func (s *Scene) MainLightIndex() int {
	if s.MainLight == nil {
		return shadow.NoMainLight
	}
	return *s.MainLight
}

// Frame builds the allocator input for this scene, with the scene as clip source.
func (s *Scene) Frame() shadow.Frame {
	return shadow.Frame{
		Lights:    s.lights,
		MainLight: s.MainLightIndex(),
		Camera:    mgl32.Vec3(s.Camera.Position),
		Clip:      s,
	}
}
