package genome

import (
	"context"
	"fmt"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/log"
)

// Binning divides every chromosome into Resolution-sized bins and lays the
// bins of all chromosomes end to end.  Arrays named *BinCont are indexed by
// bin in this concatenated space; the [][] arrays are indexed by chromosome,
// then bin.
//
// Chromosome c has ChrmLens[c]/Resolution + 1 bins, the last one partial (or
// empty), so NumBins may exceed the total length divided by Resolution.
type Binning struct {
	Resolution int64
	// ChrmLensBin is the number of bins of each chromosome.
	ChrmLensBin []int64
	// ChrmStartsBinCont and ChrmEndsBinCont delimit each chromosome's bins:
	// [ChrmStartsBinCont[c], ChrmEndsBinCont[c]).
	ChrmStartsBinCont []int64
	ChrmEndsBinCont   []int64
	NumBins           int64
	// ChrmIdxBinCont is the chromosome of each bin.
	ChrmIdxBinCont []int64
	// PosBinCont is the start offset of each bin within its chromosome.
	PosBinCont []int64
	// CntrMidsBinCont is the bin containing each chromosome's centromere
	// midpoint, or Unknown.
	CntrMidsBinCont []int64

	// GCBin is the GC fraction of each bin, in [0, 1].
	GCBin [][]float64
	// UnmappedBasesBin is the number of N bases in each bin.
	UnmappedBasesBin [][]int64
	// BinSizesBp is the length of each bin in bases.
	BinSizesBp [][]int64
	// MappedBasesBin is BinSizesBp minus UnmappedBasesBin.
	MappedBasesBin [][]int64
}

// SetResolution bins the genome at r bases per bin and stores the result in
// g.Binning, replacing any previous binning.
func (g *Genome) SetResolution(ctx context.Context, r int64) error {
	b, err := g.ComputeBinning(ctx, r)
	if err != nil {
		return err
	}
	if g.Binning != nil && g.Binning.Resolution != r {
		log.Printf("genome: resolution changed from %d to %d", g.Binning.Resolution, r)
	}
	g.Binning = b
	return nil
}

// ComputeBinning bins the genome at r bases per bin.  Per-bin sequence
// composition is read from the cache when available.
func (g *Genome) ComputeBinning(ctx context.Context, r int64) (*Binning, error) {
	if r <= 0 {
		return nil, errors.E(errors.Invalid, fmt.Sprintf("genome: resolution must be positive, got %d", r))
	}
	b := &Binning{
		Resolution:        r,
		ChrmLensBin:       make([]int64, g.ChrmCount),
		ChrmStartsBinCont: make([]int64, g.ChrmCount),
		ChrmEndsBinCont:   make([]int64, g.ChrmCount),
		CntrMidsBinCont:   make([]int64, g.ChrmCount),
	}
	for c, n := range g.ChrmLens {
		b.ChrmLensBin[c] = n/r + 1
		b.ChrmStartsBinCont[c] = b.NumBins
		b.NumBins += b.ChrmLensBin[c]
		b.ChrmEndsBinCont[c] = b.NumBins
		b.CntrMidsBinCont[c] = Unknown
		if g.Centromeres.Known(c) {
			b.CntrMidsBinCont[c] = b.ChrmStartsBinCont[c] + g.Centromeres.Mids[c]/r
		}
	}
	b.ChrmIdxBinCont = make([]int64, 0, b.NumBins)
	b.PosBinCont = make([]int64, 0, b.NumBins)
	b.BinSizesBp = make([][]int64, g.ChrmCount)
	for c, nbin := range b.ChrmLensBin {
		sizes := make([]int64, nbin)
		for j := int64(0); j < nbin; j++ {
			b.ChrmIdxBinCont = append(b.ChrmIdxBinCont, int64(c))
			b.PosBinCont = append(b.PosBinCont, j*r)
			sizes[j] = r
		}
		sizes[nbin-1] = g.ChrmLens[c] % r
		b.BinSizesBp[c] = sizes
	}

	gc, err := g.gcBin(ctx, b)
	if err != nil {
		return nil, err
	}
	unmapped, err := g.unmappedBasesBin(ctx, b)
	if err != nil {
		return nil, err
	}
	if b.GCBin, err = b.SplitByChrms(gc); err != nil {
		return nil, err
	}
	if b.UnmappedBasesBin, err = b.SplitByChrmsInt64(unmapped); err != nil {
		return nil, err
	}
	b.MappedBasesBin = make([][]int64, g.ChrmCount)
	for c, sizes := range b.BinSizesBp {
		mapped := make([]int64, len(sizes))
		for j := range sizes {
			mapped[j] = sizes[j] - b.UnmappedBasesBin[c][j]
		}
		b.MappedBasesBin[c] = mapped
	}
	return b, nil
}

// scanBins calls fn with the bases of every bin, in concatenated order.
func (g *Genome) scanBins(ctx context.Context, b *Binning, fn func(bin int64, bases string)) error {
	for c := 0; c < g.ChrmCount; c++ {
		for j := int64(0); j < b.ChrmLensBin[c]; j++ {
			bases, err := g.source.Get(ctx, c, j*b.Resolution, (j+1)*b.Resolution)
			if err != nil {
				return err
			}
			fn(b.ChrmStartsBinCont[c]+j, bases)
		}
	}
	return nil
}

func (g *Genome) gcBin(ctx context.Context, b *Binning) ([]float64, error) {
	var gc []float64
	err := g.cache.Do(ctx, "gcBin", []interface{}{b.Resolution}, &gc, func() error {
		gc = make([]float64, b.NumBins)
		return g.scanBins(ctx, b, func(bin int64, bases string) {
			gc[bin] = g.source.GCFraction(bases)
		})
	})
	return gc, err
}

func (g *Genome) unmappedBasesBin(ctx context.Context, b *Binning) ([]int64, error) {
	var n []int64
	err := g.cache.Do(ctx, "unmappedBasesBin", []interface{}{b.Resolution}, &n, func() error {
		n = make([]int64, b.NumBins)
		return g.scanBins(ctx, b, func(bin int64, bases string) {
			n[bin] = g.source.CountAmbiguous(bases)
		})
	})
	return n, err
}

func (b *Binning) checkLen(n int) error {
	if int64(n) != b.NumBins {
		return errors.E(errors.Integrity, fmt.Sprintf("genome: array of %d values doesn't match %d bins at resolution %d", n, b.NumBins, b.Resolution))
	}
	return nil
}

// SplitByChrms splits a per-bin array into one slice per chromosome.  The
// slices share a's storage.  Concat is the inverse.
func (b *Binning) SplitByChrms(a []float64) ([][]float64, error) {
	if err := b.checkLen(len(a)); err != nil {
		return nil, err
	}
	r := make([][]float64, len(b.ChrmStartsBinCont))
	for c := range r {
		r[c] = a[b.ChrmStartsBinCont[c]:b.ChrmEndsBinCont[c]:b.ChrmEndsBinCont[c]]
	}
	return r, nil
}

// SplitByChrmsInt64 is SplitByChrms for int64 arrays.
func (b *Binning) SplitByChrmsInt64(a []int64) ([][]int64, error) {
	if err := b.checkLen(len(a)); err != nil {
		return nil, err
	}
	r := make([][]int64, len(b.ChrmStartsBinCont))
	for c := range r {
		r[c] = a[b.ChrmStartsBinCont[c]:b.ChrmEndsBinCont[c]:b.ChrmEndsBinCont[c]]
	}
	return r, nil
}

// Concat joins per-chromosome arrays into one per-bin array.
func Concat(parts [][]float64) []float64 {
	n := 0
	for _, p := range parts {
		n += len(p)
	}
	r := make([]float64, 0, n)
	for _, p := range parts {
		r = append(r, p...)
	}
	return r
}

// ConcatInt64 is Concat for int64 arrays.
func ConcatInt64(parts [][]int64) []int64 {
	n := 0
	for _, p := range parts {
		n += len(p)
	}
	r := make([]int64, 0, n)
	for _, p := range parts {
		r = append(r, p...)
	}
	return r
}

// SplitByChrms splits a per-bin array at the current resolution; see
// Binning.SplitByChrms.
func (g *Genome) SplitByChrms(a []float64) ([][]float64, error) {
	if g.Binning == nil {
		return nil, errors.E(errors.Invalid, "genome: SplitByChrms requires SetResolution")
	}
	return g.Binning.SplitByChrms(a)
}
