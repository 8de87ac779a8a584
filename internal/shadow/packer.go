package shadow

import (
	"math/bits"
	"slices"
)

// freeRegion is an unused area of the atlas. Regions never overlap.
type freeRegion struct {
	x, y, w, h int
}

// packStatus is the outcome of one packing pass.
type packStatus int

const (
	packed packStatus = iota
	packNoSpace
	packBelowFloor
)

// Packer places square tiles into the atlas with a first-fit free-region list.
// The region list is scratch memory reused across passes and frames.
type Packer struct {
	size        int
	hardFloor   int
	softFloor   int
	maxAttempts int
	free        []freeRegion
}

// NewPacker creates a packer for an atlas of the given edge length.
func NewPacker(size, hardFloor, softFloor int) *Packer {
	return &Packer{
		size:        size,
		hardFloor:   hardFloor,
		softFloor:   softFloor,
		maxAttempts: bits.Len(uint(size) * uint(size)),
		free:        make([]freeRegion, 0, 64),
	}
}

// Pack places every request at its requested resolution divided by scale. When a tile
// does not fit anywhere the scale doubles and the pass restarts from an empty atlas.
// It returns the scale that succeeded, or ok=false once a tile would fall below its
// resolution floor.
func (p *Packer) Pack(reqs []TileRequest, scale int) (int, bool) {
	if scale < 1 {
		scale = 1
	}
	for attempt := 0; attempt < p.maxAttempts; attempt++ {
		switch p.pass(reqs, scale) {
		case packed:
			return scale, true
		case packBelowFloor:
			return scale, false
		}
		scale *= 2
	}
	return scale, false
}

func (p *Packer) floor(soft bool) int {
	if soft {
		return p.softFloor
	}
	return p.hardFloor
}

// pass is one packing attempt at a fixed scale.
func (p *Packer) pass(reqs []TileRequest, scale int) packStatus {
	p.free = append(p.free[:0], freeRegion{0, 0, p.size, p.size})

	for i := range reqs {
		r := &reqs[i]
		res := r.Requested / scale
		if res < p.floor(r.Soft) {
			return packBelowFloor
		}

		at := p.firstFit(res)
		if at < 0 {
			return packNoSpace
		}

		region := p.free[at]
		r.OffsetX, r.OffsetY, r.Allocated = region.x, region.y, res

		p.free = slices.Delete(p.free, at, at+1)
		p.split(at, region, res, len(reqs)-i-1)
	}
	return packed
}

// firstFit returns the index of the first free region that can hold a res×res tile.
func (p *Packer) firstFit(res int) int {
	for i, region := range p.free {
		if region.w >= res && region.h >= res {
			return i
		}
	}
	return -1
}

// split re-tiles what is left of region after a res×res tile was placed at its origin
// into res×res squares, row by row. The squares are inserted at the region's old position
// so later tiles land next to the ones already placed. No more squares are created than
// there are requests left.
func (p *Packer) split(at int, region freeRegion, res, remaining int) {
	x, y := region.x, region.y
	for n := 0; n < remaining; n++ {
		x += res
		if x+res > region.x+region.w {
			x = region.x
			y += res
			if y+res > region.y+region.h {
				return
			}
		}
		p.free = slices.Insert(p.free, at+n, freeRegion{x, y, res, res})
	}
}
