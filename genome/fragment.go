package genome

import (
	"context"
	"fmt"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/log"
	"github.com/grailbio/hicgenome/interval"
)

// FarDistance is the fragment distance between positions on different
// chromosomes.
const FarDistance = 1000000

// sampleStride is the spacing of the inputs checked to be exact fragment
// midpoint ids.
const sampleStride = 100

func (g *Genome) ensureEnzyme(ctx context.Context, name string) error {
	if g.Restriction != nil {
		return nil
	}
	return g.SetEnzyme(ctx, name)
}

// FragmentDistance returns, for every i, the number of restriction fragments
// between a[i] and b[i], as the difference of their ranks among the fragment
// midpoint ids.  Pairs on different chromosomes get FarDistance.
//
// a and b should hold fragment midpoint ids; other ids are ranked by their
// insertion point.  If no enzyme is set, SetEnzyme(enzymeName) is called
// first.
func (g *Genome) FragmentDistance(ctx context.Context, enzymeName string, a, b []int64) ([]int64, error) {
	if len(a) != len(b) {
		return nil, errors.E(errors.Invalid, fmt.Sprintf("genome: FragmentDistance of %d and %d ids", len(a), len(b)))
	}
	if err := g.ensureEnzyme(ctx, enzymeName); err != nil {
		return nil, err
	}
	mids := g.Restriction.RfragMidIDs
	ra := interval.SearchAll(mids, a)
	rb := interval.SearchAll(mids, b)
	g.checkExact("FragmentDistance", mids, a, ra)
	g.checkExact("FragmentDistance", mids, b, rb)
	d := make([]int64, len(a))
	for i := range a {
		switch {
		case g.chrmOf(a[i]) != g.chrmOf(b[i]):
			d[i] = FarDistance
		case ra[i] > rb[i]:
			d[i] = int64(ra[i] - rb[i])
		default:
			d[i] = int64(rb[i] - ra[i])
		}
	}
	return d, nil
}

// PairsLessThanDistance returns every pair of fragment midpoint ids (x, y)
// such that x is in a, y is in b, and y is between 1 and cutoff fragments
// away from x.  Pairs are ordered by position of x in a, then by y.  Ids in a
// or b that aren't fragment midpoints are ranked by their insertion point.
// If no enzyme is set, SetEnzyme(enzymeName) is called first.
func (g *Genome) PairsLessThanDistance(ctx context.Context, enzymeName string, a, b []int64, cutoff int) (pa, pb []int64, err error) {
	if cutoff < 0 {
		return nil, nil, errors.E(errors.Invalid, fmt.Sprintf("genome: negative cutoff %d", cutoff))
	}
	if err := g.ensureEnzyme(ctx, enzymeName); err != nil {
		return nil, nil, err
	}
	mids := g.Restriction.RfragMidIDs
	ra := interval.SearchAll(mids, a)
	rb := interval.SearchAll(mids, b)
	g.checkExact("PairsLessThanDistance", mids, a, ra)
	g.checkExact("PairsLessThanDistance", mids, b, rb)

	inB := make(map[int]bool, len(rb))
	for _, r := range rb {
		inB[r] = true
	}
	n := len(mids)
	for _, r1 := range ra {
		if r1 >= n {
			continue
		}
		for d := -cutoff; d <= cutoff; d++ {
			r2 := r1 + d
			if d == 0 || r2 < 0 || r2 >= n || !inB[r2] {
				continue
			}
			pa = append(pa, mids[r1])
			pb = append(pb, mids[r2])
		}
	}
	return pa, pb, nil
}

// checkExact logs a warning if a sample of ids are not fragment midpoint ids.
func (g *Genome) checkExact(op string, mids, ids []int64, ranks []int) {
	for i := 0; i < len(ids); i += sampleStride {
		if r := ranks[i]; r >= len(mids) || mids[r] != ids[i] {
			log.Error.Printf("genome: %s: id %d is not a %s fragment midpoint; using its insertion rank",
				op, ids[i], g.Restriction.EnzymeName)
			return
		}
	}
}
