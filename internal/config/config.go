// Package config handles shadow atlas configuration loading and management.
package config

import (
	"errors"
	"fmt"
	"math/bits"

	"github.com/Faultbox/shadow-atlas/internal/shadow"
)

// Config holds all allocator and tool settings.
type Config struct {
	Atlas   AtlasConfig   `yaml:"atlas"`
	Tiers   TierConfig    `yaml:"tiers"`
	Logging LoggingConfig `yaml:"logging"`
}

// AtlasConfig holds the shadow atlas dimensions and per-platform limits.
type AtlasConfig struct {
	Size      int  `yaml:"size"`       // Edge length in texels, power of two
	MaxTiles  int  `yaml:"max_tiles"`  // Matrix slots in the shader constant buffer, 0 = unbounded
	MaxLights int  `yaml:"max_lights"` // Per-light parameter slots
	ReversedZ bool `yaml:"reversed_z"` // Clip depth runs 1 (near) to 0 (far)
	HardFloor int  `yaml:"hard_floor"` // Smallest usable hard shadow tile
	SoftFloor int  `yaml:"soft_floor"` // Smallest usable soft shadow tile
}

// TierConfig maps shadow quality tiers to tile edge lengths. Zero disables a tier.
type TierConfig struct {
	Low    int `yaml:"low"`
	Medium int `yaml:"medium"`
	High   int `yaml:"high"`
	Ultra  int `yaml:"ultra"`
	Max    int `yaml:"max"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// ErrInvalid is wrapped by every Validate failure.
var ErrInvalid = errors.New("config: invalid value")

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Atlas: AtlasConfig{
			Size:      2048,
			MaxTiles:  32,
			MaxLights: 256,
			ReversedZ: false,
			HardFloor: shadow.DefaultHardFloor,
			SoftFloor: shadow.DefaultSoftFloor,
		},
		Tiers: TierConfig{
			Low:    256,
			Medium: 512,
			High:   1024,
			Ultra:  2048,
			Max:    4096,
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}

// Validate reports the first setting the allocator cannot work with.
func (c *Config) Validate() error {
	if c.Atlas.Size <= 0 || bits.OnesCount(uint(c.Atlas.Size)) != 1 {
		return fmt.Errorf("%w: atlas.size %d is not a power of two", ErrInvalid, c.Atlas.Size)
	}
	if c.Atlas.MaxTiles < 0 {
		return fmt.Errorf("%w: atlas.max_tiles %d is negative", ErrInvalid, c.Atlas.MaxTiles)
	}
	if c.Atlas.MaxLights <= 0 {
		return fmt.Errorf("%w: atlas.max_lights must be positive", ErrInvalid)
	}
	if c.Atlas.HardFloor <= 0 || c.Atlas.SoftFloor <= 0 {
		return fmt.Errorf("%w: resolution floors must be positive", ErrInvalid)
	}
	for name, res := range c.Tiers.byName() {
		if res < 0 || (res > 0 && bits.OnesCount(uint(res)) != 1) {
			return fmt.Errorf("%w: tiers.%s %d is not a power of two", ErrInvalid, name, res)
		}
	}
	return nil
}

func (t TierConfig) byName() map[string]int {
	return map[string]int{
		"low":    t.Low,
		"medium": t.Medium,
		"high":   t.High,
		"ultra":  t.Ultra,
		"max":    t.Max,
	}
}

// TierTable converts the tier section into the allocator's lookup table.
func (t TierConfig) TierTable() shadow.TierTable {
	var table shadow.TierTable
	table[shadow.TierLow] = t.Low
	table[shadow.TierMedium] = t.Medium
	table[shadow.TierHigh] = t.High
	table[shadow.TierUltra] = t.Ultra
	table[shadow.TierMax] = t.Max
	return table
}

// ShadowSettings builds the allocator settings from the atlas and tier sections.
func (c *Config) ShadowSettings() shadow.Settings {
	return shadow.Settings{
		AtlasSize: c.Atlas.Size,
		MaxTiles:  c.Atlas.MaxTiles,
		MaxLights: c.Atlas.MaxLights,
		ReversedZ: c.Atlas.ReversedZ,
		HardFloor: c.Atlas.HardFloor,
		SoftFloor: c.Atlas.SoftFloor,
		Tiers:     c.Tiers.TierTable(),
	}
}
