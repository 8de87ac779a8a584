package shadow

import (
	"encoding/binary"
	"math/bits"
	"strings"

	"github.com/cespare/xxhash/v2"
	"go.uber.org/zap"
)

// Diagnostic is a bit set of the ways a frame's shadows were degraded.
type Diagnostic uint8

const (
	// CapacityExceeded: more tiles or lights than shader slots; the lowest-priority ones were dropped.
	CapacityExceeded Diagnostic = 1 << iota
	// InsufficientArea: packing failed at every usable scale; lights were dropped from the tail.
	InsufficientArea
	// BelowHardFloor: a hard shadow light would have been shrunk below the hard floor.
	BelowHardFloor
	// BelowSoftFloor: a soft shadow light would have been shrunk below the soft floor.
	BelowSoftFloor

	diagnosticKinds = iota
)

var diagnosticNames = [diagnosticKinds]string{
	"capacity-exceeded",
	"insufficient-area",
	"below-hard-floor",
	"below-soft-floor",
}

// Has reports whether all bits of k are set.
func (d Diagnostic) Has(k Diagnostic) bool {
	return d&k == k
}

func (d Diagnostic) String() string {
	if d == 0 {
		return "none"
	}
	var names []string
	for i := 0; i < diagnosticKinds; i++ {
		if d&(1<<i) != 0 {
			names = append(names, diagnosticNames[i])
		}
	}
	return strings.Join(names, "|")
}

// diagnostics logs each kind of degradation once per distinct request shape.
type diagnostics struct {
	log      *zap.Logger
	digest   *xxhash.Digest
	buf      []byte
	shape    uint64 // hash of the current frame
	reported [diagnosticKinds]bool
	last     [diagnosticKinds]uint64
}

func newDiagnostics(log *zap.Logger) *diagnostics {
	return &diagnostics{
		log:    log,
		digest: xxhash.New(),
		buf:    make([]byte, 0, 16),
	}
}

// hashShape fingerprints the sorted request list together with the settings that decide
// how it degrades. Positions and strengths are left out: they change every frame without
// changing which diagnostics apply.
func (d *diagnostics) hashShape(reqs []TileRequest, s Settings, overflow int) {
	d.digest.Reset()

	d.buf = d.buf[:0]
	d.buf = binary.LittleEndian.AppendUint32(d.buf, uint32(s.AtlasSize))
	d.buf = binary.LittleEndian.AppendUint32(d.buf, uint32(s.MaxTiles))
	d.buf = binary.LittleEndian.AppendUint32(d.buf, uint32(overflow))
	_, _ = d.digest.Write(d.buf)

	for i := range reqs {
		r := &reqs[i]
		var flags byte
		if r.Soft {
			flags |= 1
		}
		if r.Point {
			flags |= 2
		}
		d.buf = d.buf[:0]
		d.buf = binary.LittleEndian.AppendUint32(d.buf, uint32(r.Requested))
		d.buf = append(d.buf, flags)
		_, _ = d.digest.Write(d.buf)
	}

	d.shape = d.digest.Sum64()
}

// report logs kind unless it was already logged for the current shape.
func (d *diagnostics) report(kind Diagnostic, msg string, fields ...zap.Field) {
	i := bits.TrailingZeros8(uint8(kind))
	if d.reported[i] && d.last[i] == d.shape {
		return
	}
	d.reported[i] = true
	d.last[i] = d.shape

	d.log.Warn(msg, append(fields, zap.Stringer("diagnostic", kind))...)
}
