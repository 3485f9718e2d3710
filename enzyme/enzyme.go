// Package enzyme locates restriction enzyme cut sites in DNA sequences.
package enzyme

import (
	"fmt"
	"sort"
	"strings"

	"github.com/grailbio/base/errors"
)

// CutMark marks the top-strand cut position in a recognition site string,
// e.g. "A^AGCTT" for HindIII.
const CutMark = '^'

// Enzyme is a restriction enzyme.
type Enzyme struct {
	Name string
	// Site is the recognition sequence in IUPAC codes, 5' to 3' on the top
	// strand.
	Site string
	// Cut is the top-strand cut position relative to the start of Site: the
	// enzyme cuts between Site[Cut-1] and Site[Cut].  It may lie outside
	// [0, len(Site)] for enzymes that cut away from their site.
	Cut int

	mask, rcMask []uint8
	palindromic  bool
}

// New creates an enzyme from a recognition site with a cut mark, e.g.
// New("EcoRI", "G^AATTC").  A site without a mark is cut in the middle.
func New(name, site string) (Enzyme, error) {
	cut := strings.IndexByte(site, CutMark)
	if cut >= 0 {
		site = site[:cut] + site[cut+1:]
		if strings.IndexByte(site, CutMark) >= 0 {
			return Enzyme{}, errors.E(errors.Invalid, fmt.Sprintf("enzyme %s: multiple cut marks in site", name))
		}
	} else {
		cut = len(site) / 2
	}
	return compile(Enzyme{Name: name, Site: strings.ToUpper(site), Cut: cut})
}

func compile(e Enzyme) (Enzyme, error) {
	if e.Name == "" {
		return Enzyme{}, errors.E(errors.Invalid, "enzyme: empty name")
	}
	mask, ok := compileMask(e.Site)
	if !ok || len(mask) == 0 {
		return Enzyme{}, errors.E(errors.Invalid, fmt.Sprintf("enzyme %s: invalid recognition site %q", e.Name, e.Site))
	}
	rc := reverseComplement(e.Site)
	e.mask = mask
	e.palindromic = rc == e.Site
	if !e.palindromic {
		e.rcMask, _ = compileMask(rc)
	}
	return e, nil
}

// String returns the site with the cut mark, when the cut lies within it.
func (e Enzyme) String() string {
	if e.Cut < 0 || e.Cut > len(e.Site) {
		return fmt.Sprintf("%s(%s/%d)", e.Name, e.Site, e.Cut)
	}
	return e.Name + "(" + e.Site[:e.Cut] + string(CutMark) + e.Site[e.Cut:] + ")"
}

// Palindromic reports whether the site equals its reverse complement.
func (e Enzyme) Palindromic() bool { return e.palindromic }

// Cuts returns the sorted, distinct cut offsets of e in seq.  An offset is the
// 0-based position of the first base downstream of a top-strand cut.  Sites
// are searched on both strands, and only offsets in (0, len(seq)) are
// reported since cuts at the sequence ends don't create fragments.
func (e Enzyme) Cuts(seq string) []int64 {
	n := len(e.mask)
	var cuts []int64
	add := func(c int) {
		if c > 0 && c < len(seq) {
			cuts = append(cuts, int64(c))
		}
	}
	for pos := 0; pos+n <= len(seq); pos++ {
		if matchAt(e.mask, seq, pos) {
			add(pos + e.Cut)
		}
		// On the bottom strand the site reads 5' to 3' right to left, so the
		// cut lands Cut bases left of the site's top-strand end.
		if !e.palindromic && matchAt(e.rcMask, seq, pos) {
			add(pos + n - e.Cut)
		}
	}
	if e.palindromic {
		return cuts
	}
	sort.Slice(cuts, func(i, j int) bool { return cuts[i] < cuts[j] })
	return dedup(cuts)
}

func dedup(a []int64) []int64 {
	if len(a) == 0 {
		return a
	}
	j := 1
	for i := 1; i < len(a); i++ {
		if a[i] != a[j-1] {
			a[j] = a[i]
			j++
		}
	}
	return a[:j]
}
