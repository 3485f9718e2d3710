package genome

import (
	"context"
	"fmt"
	"sort"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/log"
)

// EnzymeSearcher finds restriction sites.
type EnzymeSearcher interface {
	// Search returns the sorted cut offsets of the named enzyme in seq.  An
	// unknown name yields an errors.Invalid error.
	Search(name, seq string) ([]int64, error)
	// Describe returns a canonical description of the named enzyme's
	// recognition site and cut position.  Cached restriction maps are keyed
	// by it, so redefining an enzyme under the same name must change it.
	Describe(name string) (string, error)
}

// Restriction is the restriction fragment map of a genome for one enzyme.
//
// For chromosome c, Rsites[c] lists the fragment ends: every cut offset
// followed by ChrmLens[c].  RfragMids[c][i] is the midpoint of fragment i,
// which spans [Rsites[c][i-1], Rsites[c][i]) with an implicit Rsites[c][-1]
// of 0.  Both have one entry per fragment.
type Restriction struct {
	EnzymeName string
	Rsites     [][]int64
	RfragMids  [][]int64
	// RsiteIDs and RfragMidIDs encode Rsites and RfragMids of all
	// chromosomes as position ids, in ascending order.
	RsiteIDs    []int64
	RfragMidIDs []int64
	// RsiteChrms is the chromosome of each entry of RsiteIDs.
	RsiteChrms []int64
}

// NumFragments returns the total number of restriction fragments.
func (r *Restriction) NumFragments() int { return len(r.RfragMidIDs) }

// fragments is the cached part of a Restriction.
type fragments struct {
	Rsites    [][]int64
	RfragMids [][]int64
}

// HasEnzyme reports whether SetEnzyme has been called.
func (g *Genome) HasEnzyme() bool { return g.Restriction != nil }

// SetEnzyme maps the restriction fragments of the named enzyme and stores the
// result in g.Restriction, replacing any previous map.
func (g *Genome) SetEnzyme(ctx context.Context, name string) error {
	r, err := g.Digest(ctx, name)
	if err != nil {
		return err
	}
	if g.Restriction != nil && g.Restriction.EnzymeName != name {
		log.Printf("genome: enzyme changed from %s to %s", g.Restriction.EnzymeName, name)
	}
	g.Restriction = r
	return nil
}

// Digest maps the restriction fragments of the named enzyme.  Cut sites are
// read from the cache when available.
func (g *Genome) Digest(ctx context.Context, name string) (*Restriction, error) {
	desc, err := g.enzymes.Describe(name)
	if err != nil {
		return nil, err
	}
	var f fragments
	err = g.cache.Do(ctx, "rsites", []interface{}{name, desc}, &f, func() error {
		var err error
		f, err = g.findFragments(ctx, name)
		return err
	})
	if err != nil {
		return nil, err
	}
	if len(f.Rsites) != g.ChrmCount || len(f.RfragMids) != g.ChrmCount {
		return nil, errors.E(errors.Integrity, fmt.Sprintf("genome: %s sites cover %d chromosomes, have %d", name, len(f.Rsites), g.ChrmCount))
	}
	r := &Restriction{EnzymeName: name, Rsites: f.Rsites, RfragMids: f.RfragMids}
	for c := 0; c < g.ChrmCount; c++ {
		if len(f.Rsites[c]) != len(f.RfragMids[c]) {
			return nil, errors.E(errors.Integrity, fmt.Sprintf("genome: %s chromosome %s: %d sites but %d fragment midpoints",
				name, g.ChrmLabels[c], len(f.Rsites[c]), len(f.RfragMids[c])))
		}
		r.RsiteIDs = append(r.RsiteIDs, g.EncodeAll(c, f.Rsites[c])...)
		r.RfragMidIDs = append(r.RfragMidIDs, g.EncodeAll(c, f.RfragMids[c])...)
		for range f.Rsites[c] {
			r.RsiteChrms = append(r.RsiteChrms, int64(c))
		}
	}
	if len(r.RsiteIDs) != len(r.RfragMidIDs) {
		return nil, errors.E(errors.Integrity, fmt.Sprintf("genome: %d site ids but %d fragment midpoint ids", len(r.RsiteIDs), len(r.RfragMidIDs)))
	}
	log.Printf("genome: %s: %d restriction fragments", name, r.NumFragments())
	return r, nil
}

func (g *Genome) findFragments(ctx context.Context, name string) (fragments, error) {
	f := fragments{
		Rsites:    make([][]int64, g.ChrmCount),
		RfragMids: make([][]int64, g.ChrmCount),
	}
	for c := 0; c < g.ChrmCount; c++ {
		n := g.ChrmLens[c]
		seq, err := g.source.Get(ctx, c, 0, n)
		if err != nil {
			return f, err
		}
		cuts, err := g.enzymes.Search(name, seq)
		if err != nil {
			return f, err
		}
		sites := make([]int64, 0, len(cuts)+2)
		sites = append(sites, 0)
		for _, cut := range cuts {
			if cut > 0 && cut < n {
				sites = append(sites, cut)
			}
		}
		sites = append(sites, n)
		if !sort.SliceIsSorted(sites, func(i, j int) bool { return sites[i] < sites[j] }) {
			sort.Slice(sites, func(i, j int) bool { return sites[i] < sites[j] })
		}
		mids := make([]int64, len(sites)-1)
		for i := range mids {
			mids[i] = (sites[i] + sites[i+1]) / 2
		}
		// Drop the leading 0 so that sites and mids pair up.
		f.Rsites[c] = sites[1:]
		f.RfragMids[c] = mids
	}
	return f, nil
}
