package genome

import (
	"fmt"

	"github.com/grailbio/base/errors"
)

// Encode returns the position id of offset on chromosome chrm:
// chrm*FragIDMult + offset.  Ids are ordered by chromosome, then offset, as
// long as 0 <= offset < FragIDMult.
func (g *Genome) Encode(chrm int, offset int64) int64 {
	return int64(chrm)*g.FragIDMult + offset
}

// EncodeChecked is Encode, but fails with a consistency error if chrm or
// offset is out of range.
func (g *Genome) EncodeChecked(chrm int, offset int64) (int64, error) {
	if chrm < 0 || chrm >= g.ChrmCount {
		return 0, errors.E(errors.Integrity, fmt.Sprintf("genome: chromosome index %d out of range [0, %d)", chrm, g.ChrmCount))
	}
	if offset < 0 || offset >= g.FragIDMult {
		return 0, errors.E(errors.Integrity, fmt.Sprintf("genome: offset %d out of range [0, %d)", offset, g.FragIDMult))
	}
	return g.Encode(chrm, offset), nil
}

// EncodeAll encodes offsets, all on chromosome chrm.
func (g *Genome) EncodeAll(chrm int, offsets []int64) []int64 {
	ids := make([]int64, len(offsets))
	base := int64(chrm) * g.FragIDMult
	for i, o := range offsets {
		ids[i] = base + o
	}
	return ids
}

// Decode is the inverse of Encode.
func (g *Genome) Decode(id int64) (chrm int, offset int64) {
	return int(id / g.FragIDMult), id % g.FragIDMult
}

// chrmOf returns the chromosome component of id.
func (g *Genome) chrmOf(id int64) int64 { return id / g.FragIDMult }
