package shadow

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// NoMainLight is passed as the main light index when the frame has none.
const NoMainLight = -1

// TileRequest is one atlas tile a light needs this frame.
type TileRequest struct {
	LightIndex int  // Index into the frame's visible light list
	Slice      int  // 0 for spot lights, cube face 0..5 for point lights
	Requested  int  // Tier edge length; 0 means discarded
	Soft       bool // Soft shadow filtering
	Point      bool

	// Valid only after packing.
	OffsetX   int
	OffsetY   int
	Allocated int // 0 means not rendered
}

// unplace clears the packing output.
func (r *TileRequest) unplace() {
	r.OffsetX, r.OffsetY, r.Allocated = 0, 0, 0
}

// farDistance marks lights that do not cast shadows this frame.
var farDistance = float32(math.Inf(1))

// CollectRequests appends one request per (light, slice) for every light that casts
// additional shadows, and fills distances with the squared camera distance per light.
// Both slices are reused as scratch; the grown versions are returned.
//
// maxLights bounds the light indices that can get a parameter slot; lights at or beyond it
// are skipped and counted in overflow.
func CollectRequests(dst []TileRequest, distances []float32, lights []Light, mainLight int,
	camera mgl32.Vec3, tiers TierTable, maxLights int) (reqs []TileRequest, dist []float32, overflow int) {
	reqs = dst[:0]

	if cap(distances) < len(lights) {
		distances = make([]float32, len(lights))
	}
	dist = distances[:len(lights)]

	for i, l := range lights {
		dist[i] = farDistance
		if i == mainLight || !l.HasShadows() {
			continue
		}
		res := tiers.Resolution(l.Tier)
		if res == 0 {
			continue
		}
		if maxLights > 0 && i >= maxLights {
			overflow++
			continue
		}

		dist[i] = l.Position.Sub(camera).LenSqr()

		point := l.Type == LightPoint
		for slice := 0; slice < l.Type.SliceCount(); slice++ {
			reqs = append(reqs, TileRequest{
				LightIndex: i,
				Slice:      slice,
				Requested:  res,
				Soft:       l.SoftShadows,
				Point:      point,
			})
		}
	}

	return reqs, dist, overflow
}
