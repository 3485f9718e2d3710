package genome

import (
	"context"
	"fmt"
	"sync"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/log"
	"github.com/grailbio/hicgenome/encoding/fasta"
)

// SequenceSource provides the bases of each chromosome, addressed by
// chromosome index.
type SequenceSource interface {
	// Len returns the length of chromosome chrm.
	Len(ctx context.Context, chrm int) (int64, error)
	// Get returns bases [start, end) of chromosome chrm.  end is clipped to
	// the chromosome length.
	Get(ctx context.Context, chrm int, start, end int64) (string, error)
	// GCFraction returns the fraction of G/C bases in bases.
	GCFraction(bases string) float64
	// CountAmbiguous returns the number of unmappable (N) bases in bases.
	CountAmbiguous(bases string) int64
}

// SourceFunc opens a SequenceSource over the given per-chromosome files,
// listed in chromosome index order.
type SourceFunc func(ctx context.Context, paths []string) (SequenceSource, error)

// fastaSource reads one single-sequence FASTA file per chromosome.  Each file
// is loaded on first use and kept for the lifetime of the source, so memory
// use grows to the total length of the chromosomes touched.
type fastaSource struct {
	paths []string

	mu     sync.Mutex
	seqs   []string
	loaded []bool
}

// NewFastaSource returns a SequenceSource backed by the FASTA files at paths.
// Files are read lazily.
func NewFastaSource(ctx context.Context, paths []string) (SequenceSource, error) {
	return &fastaSource{
		paths:  paths,
		seqs:   make([]string, len(paths)),
		loaded: make([]bool, len(paths)),
	}, nil
}

func (s *fastaSource) seq(ctx context.Context, chrm int) (string, error) {
	if chrm < 0 || chrm >= len(s.paths) {
		return "", errors.E(errors.Integrity, fmt.Sprintf("chromosome index %d out of range [0, %d)", chrm, len(s.paths)))
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loaded[chrm] {
		return s.seqs[chrm], nil
	}
	fa, err := fasta.Open(ctx, s.paths[chrm])
	if err != nil {
		return "", err
	}
	name, seq, err := fasta.Single(fa)
	if err != nil {
		return "", errors.E(err, s.paths[chrm])
	}
	log.Debug.Printf("genome: loaded %s (%s, %d bp)", s.paths[chrm], name, len(seq))
	s.seqs[chrm], s.loaded[chrm] = seq, true
	return seq, nil
}

func (s *fastaSource) Len(ctx context.Context, chrm int) (int64, error) {
	seq, err := s.seq(ctx, chrm)
	return int64(len(seq)), err
}

func (s *fastaSource) Get(ctx context.Context, chrm int, start, end int64) (string, error) {
	seq, err := s.seq(ctx, chrm)
	if err != nil {
		return "", err
	}
	if end > int64(len(seq)) {
		end = int64(len(seq))
	}
	if start < 0 || start > end {
		return "", errors.E(errors.Invalid, fmt.Sprintf("invalid range [%d, %d) for chromosome %d of length %d", start, end, chrm, len(seq)))
	}
	return seq[start:end], nil
}

func (s *fastaSource) GCFraction(bases string) float64 { return fasta.GCFraction(bases) }

func (s *fastaSource) CountAmbiguous(bases string) int64 { return fasta.CountAmbiguous(bases) }
