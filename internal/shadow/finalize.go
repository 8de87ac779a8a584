package shadow

import "github.com/go-gl/mathgl/mgl32"

// NoShadowParams is the parameter vector of a light without a usable atlas tile:
// zero strength and first slice -1, so the shader skips it without branching on length.
var NoShadowParams = mgl32.Vec4{0, 0, 0, -1}

// Light type tags in the parameter vector.
const (
	typeTagSpot  = 0
	typeTagPoint = 1
)

// ClipSource provides the light's world-to-clip transform for one slice. ok=false means
// the slice has nothing to render (e.g. no casters in its frustum); the tile then keeps a
// neutral matrix.
type ClipSource interface {
	ClipTransform(light, slice int) (m mgl32.Mat4, ok bool)
}

// ClipFunc adapts a function to ClipSource.
type ClipFunc func(light, slice int) (mgl32.Mat4, bool)

// ClipTransform calls f.
func (f ClipFunc) ClipTransform(light, slice int) (mgl32.Mat4, bool) {
	return f(light, slice)
}

// ScaleBias maps clip space xyz from [-1,1] to [0,1]. With reversedZ the depth axis is
// flipped first.
func ScaleBias(reversedZ bool) mgl32.Mat4 {
	m := mgl32.Mat4{
		0.5, 0, 0, 0,
		0, 0.5, 0, 0,
		0, 0, 0.5, 0,
		0.5, 0.5, 0.5, 1,
	}
	if reversedZ {
		m = m.Mul4(mgl32.Scale3D(1, 1, -1))
	}
	return m
}

// SliceTransform maps [0,1] tile UVs into the tile's rectangle of a width×height atlas.
func SliceTransform(x, y, res, width, height int) mgl32.Mat4 {
	w, h := float32(width), float32(height)
	return mgl32.Mat4{
		float32(res) / w, 0, 0, 0,
		0, float32(res) / h, 0, 0,
		0, 0, 1, 0,
		float32(x) / w, float32(y) / h, 0, 1,
	}
}

// trimmedSize returns the smallest power-of-two atlas that bounds every placed tile.
func trimmedSize(placed []TileRequest) (width, height int) {
	maxX, maxY := 0, 0
	for i := range placed {
		r := &placed[i]
		maxX = max(maxX, r.OffsetX+r.Allocated)
		maxY = max(maxY, r.OffsetY+r.Allocated)
	}
	return nextPow2(maxX), nextPow2(maxY)
}

// finalize turns the packed requests into the frame result.
func (a *Allocator) finalize(f Frame, placed []TileRequest, scale int) {
	res := &a.result
	res.Scale = scale
	res.Width, res.Height = trimmedSize(placed)
	if res.Width > 0 && res.Height > 0 {
		res.TexelSize = mgl32.Vec2{1 / float32(res.Width), 1 / float32(res.Height)}
	}

	// Number slices per light in visible-light order so a point light's faces are
	// contiguous from its first slice.
	a.firstSlice = resizeInts(a.firstSlice, len(f.Lights), -1)
	a.placedCount = resizeInts(a.placedCount, len(f.Lights), 0)
	for i := range placed {
		a.placedCount[placed[i].LightIndex]++
	}
	total := 0
	for light, n := range a.placedCount {
		if n == 0 {
			continue
		}
		a.firstSlice[light] = total
		total += n
	}

	res.Placements = resizePlacements(res.Placements, total)
	for i := range placed {
		r := &placed[i]
		res.Placements[a.firstSlice[r.LightIndex]+r.Slice] = Placement{
			Light:      r.LightIndex,
			Slice:      r.Slice,
			X:          r.OffsetX,
			Y:          r.OffsetY,
			Resolution: r.Allocated,
			Requested:  r.Requested,
		}
	}

	slots := a.settings.MaxTiles
	if slots == 0 {
		slots = total
	}
	res.Matrices = resizeMatrices(res.Matrices, slots)
	scaleBias := ScaleBias(a.settings.ReversedZ)
	if f.Clip != nil {
		for g, p := range res.Placements {
			clip, ok := f.Clip.ClipTransform(p.Light, p.Slice)
			if !ok {
				continue
			}
			slice := SliceTransform(p.X, p.Y, p.Resolution, res.Width, res.Height)
			res.Matrices[g] = slice.Mul4(scaleBias).Mul4(clip)
		}
	}

	res.LightParams = resizeParams(res.LightParams, a.settings.MaxLights)
	for light, first := range a.firstSlice {
		if first < 0 || light >= len(res.LightParams) {
			continue
		}
		l := &f.Lights[light]
		var soft float32
		if l.SoftShadows {
			soft = 1
		}
		tag := float32(typeTagSpot)
		if l.Type == LightPoint {
			tag = typeTagPoint
		}
		res.LightParams[light] = mgl32.Vec4{l.Strength, soft, tag, float32(first)}
	}
}

func resizeInts(s []int, n, fill int) []int {
	if cap(s) < n {
		s = make([]int, n)
	}
	s = s[:n]
	for i := range s {
		s[i] = fill
	}
	return s
}

func resizePlacements(s []Placement, n int) []Placement {
	if cap(s) < n {
		return make([]Placement, n)
	}
	s = s[:n]
	clear(s)
	return s
}

func resizeMatrices(s []mgl32.Mat4, n int) []mgl32.Mat4 {
	if cap(s) < n {
		return make([]mgl32.Mat4, n)
	}
	s = s[:n]
	clear(s)
	return s
}

func resizeParams(s []mgl32.Vec4, n int) []mgl32.Vec4 {
	if cap(s) < n {
		s = make([]mgl32.Vec4, n)
	}
	s = s[:n]
	for i := range s {
		s[i] = NoShadowParams
	}
	return s
}
