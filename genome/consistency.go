package genome

import (
	"fmt"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/log"
)

// CheckReadConsistency verifies that read positions fit the genome: every
// chromosome index is in [0, ChrmCount) and every position in [0,
// ChrmLens[chrm]].  It returns a consistency error describing the first
// violation.  Inputs that look suspicious, e.g. no read on chromosome 0, are
// only logged.
func (g *Genome) CheckReadConsistency(chrms []int, positions []int64) error {
	if len(chrms) != len(positions) {
		return errors.E(errors.Invalid, fmt.Sprintf("genome: %d chromosomes but %d positions", len(chrms), len(positions)))
	}
	if len(chrms) == 0 {
		return nil
	}
	min, max := chrms[0], chrms[0]
	for _, c := range chrms {
		if c < min {
			min = c
		}
		if c > max {
			max = c
		}
	}
	if min < 0 {
		return errors.E(errors.Integrity, fmt.Sprintf("genome: negative chromosome number %d", min))
	}
	if max >= g.ChrmCount {
		return errors.E(errors.Integrity, fmt.Sprintf("genome: chromosome number %d exceeds expected chromosome count %d", max, g.ChrmCount))
	}
	if min > 0 {
		log.Error.Printf("genome: chromosome 0 not found; are chromosome numbers 0-based?")
	}
	if max < g.ChrmCount-1 {
		log.Error.Printf("genome: %s has %d chromosomes but reads only cover %d; is this the right genome?", g.FolderName, g.ChrmCount, max+1)
	}
	first, nbad := -1, 0
	for i, c := range chrms {
		if p := positions[i]; p < 0 || p > g.ChrmLens[c] {
			if first < 0 {
				first = i
			}
			nbad++
		}
	}
	if first >= 0 {
		c := chrms[first]
		return errors.E(errors.Integrity, fmt.Sprintf("genome: position %d on chromosome %s exceeds its length %d (%d of %d reads out of range)",
			positions[first], g.ChrmLabels[c], g.ChrmLens[c], nbad, len(chrms)))
	}
	return nil
}

// FitTracks adjusts per-chromosome tracks, e.g. parsed from a wiggle file at
// the current resolution, to the genome's bins.  Tracks are truncated or
// zero-padded to the chromosome's bin count; missing chromosomes become all
// zero.  Nonzero values past a chromosome's end mean the track was made for
// another genome and yield a consistency error.
func (g *Genome) FitTracks(tracks [][]float64) ([][]float64, error) {
	if g.Binning == nil {
		return nil, errors.E(errors.Invalid, "genome: FitTracks requires SetResolution")
	}
	if len(tracks) > g.ChrmCount {
		return nil, errors.E(errors.Integrity, fmt.Sprintf("genome mismatch: %d tracks for %d chromosomes", len(tracks), g.ChrmCount))
	}
	fitted := make([][]float64, g.ChrmCount)
	for c := range fitted {
		n := g.Binning.ChrmLensBin[c]
		var track []float64
		if c < len(tracks) {
			track = tracks[c]
		}
		if int64(len(track)) > n {
			for _, v := range track[n:] {
				if v != 0 {
					return nil, errors.E(errors.Integrity, fmt.Sprintf("genome mismatch: chromosome %s track has values after the chromosome end", g.ChrmLabels[c]))
				}
			}
			fitted[c] = track[:n:n]
			continue
		}
		if int64(len(track)) < n {
			log.Error.Printf("genome: chromosome %s track covers %d of %d bins; padding with zeros", g.ChrmLabels[c], len(track), n)
		}
		fitted[c] = make([]float64, n)
		copy(fitted[c], track)
	}
	return fitted, nil
}
