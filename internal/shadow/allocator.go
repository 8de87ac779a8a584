package shadow

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"

	"github.com/Faultbox/shadow-atlas/internal/logger"
)

// Frame is the input of one allocation: the camera's visible lights.
type Frame struct {
	Lights    []Light
	MainLight int // Index of the main light (shadowed outside the atlas) or NoMainLight
	Camera    mgl32.Vec3
	Clip      ClipSource // Optional; without it every matrix slot stays neutral
}

// Placement is one tile to render: light, cube face and its square in the atlas.
type Placement struct {
	Light      int
	Slice      int
	X, Y       int
	Resolution int
	Requested  int
}

// Result is the allocation for one frame. It is owned by the Allocator and only valid
// until the next call to Allocate.
type Result struct {
	// Placements in slice order: Placements[i] draws into Matrices[i].
	Placements []Placement
	// Matrices has one world-to-shadow matrix per tile slot. Unused slots are zero.
	Matrices []mgl32.Mat4
	// LightParams holds (strength, soft, type tag, first slice) per visible light.
	LightParams []mgl32.Vec4
	// Width and Height of the trimmed atlas; zero when nothing was placed.
	Width, Height int
	TexelSize     mgl32.Vec2
	// Scale is the power-of-two divisor applied to every requested resolution.
	Scale int
	// Dropped lists the lights that asked for shadows and got no tile.
	Dropped  []int
	Degraded Diagnostic
}

// Empty reports whether no tile was placed.
func (r *Result) Empty() bool {
	return len(r.Placements) == 0
}

// Clone returns a deep copy that outlives the next Allocate call.
func (r *Result) Clone() *Result {
	c := *r
	c.Placements = append([]Placement(nil), r.Placements...)
	c.Matrices = append([]mgl32.Mat4(nil), r.Matrices...)
	c.LightParams = append([]mgl32.Vec4(nil), r.LightParams...)
	c.Dropped = append([]int(nil), r.Dropped...)
	return &c
}

func (r *Result) reset() {
	r.Placements = r.Placements[:0]
	r.Dropped = r.Dropped[:0]
	r.Width, r.Height = 0, 0
	r.TexelSize = mgl32.Vec2{}
	r.Scale = 1
	r.Degraded = 0
}

// Option configures an Allocator.
type Option func(*Allocator)

// WithLogger sets the logger diagnostics are written to.
func WithLogger(l *zap.Logger) Option {
	return func(a *Allocator) {
		if l != nil {
			a.log = l
		}
	}
}

// Allocator packs one camera's shadow tiles each frame. It keeps scratch buffers between
// frames and is not safe for concurrent use; give every camera its own Allocator.
type Allocator struct {
	settings Settings
	log      *zap.Logger
	packer   *Packer
	diag     *diagnostics

	// Frame arena, reset by length each frame.
	requests    []TileRequest
	distances   []float32
	firstSlice  []int
	placedCount []int

	result Result
}

// NewAllocator creates an allocator after validating the settings.
func NewAllocator(s Settings, opts ...Option) (*Allocator, error) {
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("creating shadow allocator: %w", err)
	}

	a := &Allocator{
		settings: s,
		packer:   NewPacker(s.AtlasSize, s.HardFloor, s.SoftFloor),
		requests: make([]TileRequest, 0, max(s.MaxTiles, 32)),
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.log == nil {
		a.log = logger.Named("shadow")
	}
	a.diag = newDiagnostics(a.log)

	return a, nil
}

// Settings returns the allocator's configuration.
func (a *Allocator) Settings() Settings {
	return a.settings
}

// Allocate lays out the frame's shadow tiles. It never fails: when the atlas or the
// shader slots are too small, the least important lights are dropped and the reason is
// recorded in Result.Degraded and logged once per request shape.
func (a *Allocator) Allocate(f Frame) *Result {
	res := &a.result
	res.reset()

	var overflow int
	a.requests, a.distances, overflow = CollectRequests(a.requests, a.distances, f.Lights,
		f.MainLight, f.Camera, a.settings.Tiers, a.settings.MaxLights)

	reqs := a.requests
	SortRequests(reqs, a.distances)
	a.diag.hashShape(reqs, a.settings, overflow)

	if overflow > 0 {
		res.Degraded |= CapacityExceeded
		a.diag.report(CapacityExceeded, "too many shadowed lights for the light parameter buffer",
			zap.Int("skipped_lights", overflow),
			zap.Int("max_lights", a.settings.MaxLights))
	}

	if len(reqs) == 0 {
		a.finalize(f, nil, 1)
		return res
	}

	n, capped := capToSlots(reqs, a.settings.MaxTiles)
	if capped {
		res.Degraded |= CapacityExceeded
		a.diag.report(CapacityExceeded, "too many shadow tiles for the shader slots, dropping lowest priority lights",
			zap.Int("requested_tiles", len(reqs)),
			zap.Int("kept_tiles", n),
			zap.Int("max_tiles", a.settings.MaxTiles))
	}

	fit := a.settings.fit(reqs[:n])
	if fit.hardDrops > 0 {
		res.Degraded |= BelowHardFloor
		a.diag.report(BelowHardFloor, "hard shadow tiles would fall below the minimum resolution, dropping lights",
			zap.Int("dropped_lights", fit.hardDrops),
			zap.Int("min_resolution", a.settings.HardFloor),
			zap.Int("atlas_size", a.settings.AtlasSize))
	}
	if fit.softDrops > 0 {
		res.Degraded |= BelowSoftFloor
		a.diag.report(BelowSoftFloor, "soft shadow tiles would fall below the minimum resolution, dropping lights",
			zap.Int("dropped_lights", fit.softDrops),
			zap.Int("min_resolution", a.settings.SoftFloor),
			zap.Int("atlas_size", a.settings.AtlasSize))
	}

	n, scale := fit.count, fit.scale
	dropped := 0
	for n > 0 {
		packedScale, ok := a.packer.Pack(reqs[:n], scale)
		if ok {
			scale = packedScale
			break
		}
		n = groupStart(reqs, n)
		scale = EstimateScale(reqs[:n], a.settings.AtlasSize)
		dropped++
	}
	if dropped > 0 {
		res.Degraded |= InsufficientArea
		a.diag.report(InsufficientArea, "too many additional light shadows for the atlas, increase the atlas size or reduce shadowed lights",
			zap.Int("dropped_lights", dropped),
			zap.Int("kept_tiles", n),
			zap.Int("atlas_size", a.settings.AtlasSize))
	}
	if n == 0 {
		scale = 1
	}

	for i := n; i < len(reqs); i++ {
		reqs[i].unplace()
		if i == n || reqs[i].LightIndex != reqs[i-1].LightIndex {
			res.Dropped = append(res.Dropped, reqs[i].LightIndex)
		}
	}

	a.finalize(f, reqs[:n], scale)

	if ce := a.log.Check(zap.DebugLevel, "shadow atlas allocated"); ce != nil {
		ce.Write(
			zap.Int("tiles", n),
			zap.Int("scale", scale),
			zap.Int("width", res.Width),
			zap.Int("height", res.Height),
			zap.Stringer("degraded", res.Degraded))
	}

	return res
}
