package shadow

// Floats per entry in the flattened shader arrays.
const (
	matrixFloats = 16
	paramFloats  = 4
)

// MatrixData returns the tile matrices as a flat float32 slice for GPU upload, reusing dst.
// Format: column-major, 16 floats per slot, one slot per Matrices entry.
func (r *Result) MatrixData(dst []float32) []float32 {
	dst = growFloats(dst, len(r.Matrices)*matrixFloats)
	for i, m := range r.Matrices {
		copy(dst[i*matrixFloats:], m[:])
	}
	return dst
}

// LightParamData returns the per-light parameter vectors as a flat float32 slice.
// Format: [strength0, soft0, type0, first0, strength1, ...]
func (r *Result) LightParamData(dst []float32) []float32 {
	dst = growFloats(dst, len(r.LightParams)*paramFloats)
	for i, p := range r.LightParams {
		copy(dst[i*paramFloats:], p[:])
	}
	return dst
}

// AtlasParams returns (1/width, 1/height, width, height) of the trimmed atlas, the
// texel offsets used by the soft shadow filter.
func (r *Result) AtlasParams() [4]float32 {
	return [4]float32{r.TexelSize[0], r.TexelSize[1], float32(r.Width), float32(r.Height)}
}

func growFloats(s []float32, n int) []float32 {
	if cap(s) < n {
		return make([]float32, n)
	}
	return s[:n]
}
