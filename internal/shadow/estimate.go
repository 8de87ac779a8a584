package shadow

// EstimateScale returns the smallest power of two s such that the summed area of the
// requests divided by s² fits in the atlas. Fragmentation is ignored, so the result is a
// lower bound for the packer, not a guarantee.
func EstimateScale(reqs []TileRequest, atlasSize int) int {
	var requested int64
	for i := range reqs {
		r := int64(reqs[i].Requested)
		requested += r * r
	}

	atlasArea := int64(atlasSize) * int64(atlasSize)
	scale := int64(1)
	for requested > atlasArea*scale*scale {
		scale *= 2
	}
	return int(scale)
}

// capToSlots truncates the sorted request list to maxTiles entries without splitting a
// point light's cube faces. maxTiles 0 means unbounded.
func capToSlots(reqs []TileRequest, maxTiles int) (n int, capped bool) {
	n = len(reqs)
	if maxTiles == 0 || n <= maxTiles {
		return n, false
	}
	n = maxTiles
	if reqs[n].LightIndex == reqs[n-1].LightIndex {
		n = groupStart(reqs, n)
	}
	return n, true
}

// fitResult is the FitEstimator's verdict for one frame.
type fitResult struct {
	count     int // Leading requests that can plausibly be packed
	scale     int
	hardDrops int // Lights dropped because they would fall below the hard floor
	softDrops int
}

// fit validates the area estimate against the per-type resolution floors. The
// lowest-priority light group is dropped and the estimate redone until the last
// candidate clears its floor or nothing is left.
func (s Settings) fit(reqs []TileRequest) fitResult {
	res := fitResult{count: len(reqs)}
	res.scale = EstimateScale(reqs, s.AtlasSize)

	for res.count > 0 {
		last := &reqs[res.count-1]
		if last.Requested/res.scale >= s.floor(last.Soft) {
			break
		}
		if last.Soft {
			res.softDrops++
		} else {
			res.hardDrops++
		}
		res.count = groupStart(reqs, res.count)
		res.scale = EstimateScale(reqs[:res.count], s.AtlasSize)
	}
	return res
}
