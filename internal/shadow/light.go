// Package shadow packs the shadow maps of punctual lights into a single atlas texture.
//
// Once per frame and camera, an Allocator turns the visible light list into tile requests,
// ranks them, estimates a global power-of-two downscale, packs the tiles into the atlas and
// derives the per-tile world-to-shadow matrices and per-light shader parameters.
package shadow

import (
	"errors"
	"fmt"
	"math/bits"
	"strings"

	"github.com/go-gl/mathgl/mgl32"
)

// LightType identifies the kind of light source.
type LightType int

const (
	// LightDirectional is handled outside the atlas (main light cascades) and never requests tiles.
	LightDirectional LightType = iota
	// LightSpot renders one perspective shadow map.
	LightSpot
	// LightPoint renders six cube faces.
	LightPoint
)

// CubeFaces is the number of tiles a point light needs.
const CubeFaces = 6

// SliceCount returns how many atlas tiles a shadowed light of this type needs.
func (t LightType) SliceCount() int {
	switch t {
	case LightSpot:
		return 1
	case LightPoint:
		return CubeFaces
	default:
		return 0
	}
}

func (t LightType) String() string {
	switch t {
	case LightDirectional:
		return "directional"
	case LightSpot:
		return "spot"
	case LightPoint:
		return "point"
	default:
		return fmt.Sprintf("LightType(%d)", int(t))
	}
}

// ParseLightType parses "directional", "spot" or "point".
func ParseLightType(s string) (LightType, error) {
	switch strings.ToLower(s) {
	case "directional", "dir", "sun":
		return LightDirectional, nil
	case "spot":
		return LightSpot, nil
	case "point":
		return LightPoint, nil
	}
	return 0, fmt.Errorf("shadow: unknown light type %q", s)
}

// Tier is a coarse shadow quality setting mapped to a tile edge length by a TierTable.
type Tier int

const (
	TierLow Tier = iota
	TierMedium
	TierHigh
	TierUltra
	TierMax
	tierCount
)

var tierNames = [tierCount]string{"low", "medium", "high", "ultra", "max"}

func (t Tier) String() string {
	if t < 0 || t >= tierCount {
		return fmt.Sprintf("Tier(%d)", int(t))
	}
	return tierNames[t]
}

// ParseTier parses a tier name such as "high".
func ParseTier(s string) (Tier, error) {
	for i, name := range tierNames {
		if strings.EqualFold(s, name) {
			return Tier(i), nil
		}
	}
	return 0, fmt.Errorf("shadow: unknown shadow tier %q", s)
}

// TierTable maps each tier to a tile edge length in texels. Zero disables the tier.
type TierTable [tierCount]int

// DefaultTiers returns the stock 256/512/1024/2048/4096 table.
func DefaultTiers() TierTable {
	return TierTable{256, 512, 1024, 2048, 4096}
}

// Resolution returns the edge length for a tier, or 0 for unknown tiers.
func (t TierTable) Resolution(tier Tier) int {
	if tier < 0 || tier >= tierCount {
		return 0
	}
	return t[tier]
}

// Light is one entry of the frame's visible light list.
type Light struct {
	Type         LightType
	CastsShadows bool
	SoftShadows  bool
	Strength     float32 // 0 disables shadow sampling
	Position     mgl32.Vec3
	Tier         Tier
}

// HasShadows reports whether the light is a shadow caster this frame, ignoring the main light rule.
func (l Light) HasShadows() bool {
	return l.Type != LightDirectional && l.CastsShadows && l.Strength > 0
}

const (
	// DefaultHardFloor is the smallest tile a hard shadow is still rendered at.
	DefaultHardFloor = 8
	// DefaultSoftFloor is higher because the soft filter kernel needs more texels.
	DefaultSoftFloor = 16
)

// Settings configures an Allocator. They are fixed for the allocator's lifetime.
type Settings struct {
	AtlasSize int // Edge length in texels, power of two
	MaxTiles  int // Matrix slots, 0 = unbounded
	MaxLights int // Per-light parameter slots
	ReversedZ bool
	HardFloor int
	SoftFloor int
	Tiers     TierTable
}

// DefaultSettings returns a 2048 atlas with 32 tile slots.
func DefaultSettings() Settings {
	return Settings{
		AtlasSize: 2048,
		MaxTiles:  32,
		MaxLights: 256,
		HardFloor: DefaultHardFloor,
		SoftFloor: DefaultSoftFloor,
		Tiers:     DefaultTiers(),
	}
}

// Sentinel errors for invalid settings.
var (
	ErrInvalidAtlasSize = errors.New("shadow: atlas size must be a positive power of two")
	ErrInvalidTier      = errors.New("shadow: tier resolutions must be zero or a power of two")
	ErrInvalidLimits    = errors.New("shadow: invalid capacity or floor")
)

// Validate checks the settings.
func (s Settings) Validate() error {
	if !isPow2(s.AtlasSize) {
		return fmt.Errorf("%w: got %d", ErrInvalidAtlasSize, s.AtlasSize)
	}
	for tier, res := range s.Tiers {
		if res != 0 && !isPow2(res) {
			return fmt.Errorf("%w: %s = %d", ErrInvalidTier, Tier(tier), res)
		}
	}
	if s.MaxTiles < 0 || s.MaxLights <= 0 {
		return fmt.Errorf("%w: max tiles %d, max lights %d", ErrInvalidLimits, s.MaxTiles, s.MaxLights)
	}
	if s.HardFloor <= 0 || s.SoftFloor <= 0 {
		return fmt.Errorf("%w: floors %d/%d", ErrInvalidLimits, s.HardFloor, s.SoftFloor)
	}
	return nil
}

// floor returns the minimum usable tile size for the filter mode.
func (s Settings) floor(soft bool) int {
	if soft {
		return s.SoftFloor
	}
	return s.HardFloor
}

func isPow2(v int) bool {
	return v > 0 && bits.OnesCount(uint(v)) == 1
}

// nextPow2 returns the smallest power of two >= v, or 0 when v <= 0.
func nextPow2(v int) int {
	if v <= 0 {
		return 0
	}
	return 1 << bits.Len(uint(v-1))
}
