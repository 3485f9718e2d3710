// Package fasta reads the per-chromosome FASTA files that make up a genome
// folder.  A file consists of one or more named sequences that may be
// interrupted by newlines:
//
// >chr7
// ACGTAC
// GAGGAC
// GCG
//
// Sequence names are the stretch of characters immediately after '>' up to the
// first space, so '>chr1 A viral sequence' becomes 'chr1'.  Genome folders
// normally hold exactly one sequence per file; Single enforces that.
package fasta

import (
	"bufio"
	"io"
	"strings"

	"github.com/pkg/errors"
)

const (
	bufferInitSize = 1024 * 1024 * 300 // 300 MB
)

// Fasta represents FASTA-formatted data, consisting of a set of named
// sequences.
type Fasta interface {
	// Get returns a substring of the given sequence name at the given
	// coordinates, which are treated as a 0-based half-open interval
	// [start, end).  end is clipped to the sequence length, so the final
	// window of a binned scan may be shorter than requested.
	Get(seqName string, start, end int64) (string, error)

	// Len returns the length of the given sequence.
	Len(seqName string) (int64, error)

	// SeqNames returns the names of all sequences, in the order of appearance in
	// the FASTA file.
	SeqNames() []string
}

type fasta struct {
	seqs     map[string]string
	seqNames []string
}

// New creates a new Fasta that holds all the FASTA data from the given reader
// in memory.
func New(r io.Reader) (Fasta, error) {
	f := &fasta{seqs: make(map[string]string)}
	scanner := bufio.NewScanner(r)
	scanner.Buffer(nil, bufferInitSize)
	var (
		seqName string
		seq     strings.Builder
		started bool
	)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if len(line) == 0 {
			continue
		}
		if line[0] == '>' { // Start a new sequence.
			if started {
				if err := f.add(seqName, seq.String()); err != nil {
					return nil, err
				}
				seq.Reset()
			}
			seqName = strings.Split(line[1:], " ")[0]
			started = true
			continue
		}
		if !started {
			return nil, errors.Errorf("malformed FASTA file: sequence data before the first '>' line")
		}
		seq.WriteString(line)
	}
	if scanner.Err() != nil {
		return nil, errors.Wrap(scanner.Err(), "couldn't read FASTA data")
	}
	if !started {
		return nil, errors.Errorf("empty FASTA file")
	}
	if err := f.add(seqName, seq.String()); err != nil {
		return nil, err
	}
	return f, nil
}

func (f *fasta) add(seqName, seq string) error {
	if _, ok := f.seqs[seqName]; ok {
		return errors.Errorf("duplicate sequence name %q", seqName)
	}
	f.seqs[seqName] = seq
	f.seqNames = append(f.seqNames, seqName)
	return nil
}

// Single returns the name and bases of the only sequence in f.  It fails if f
// holds more than one sequence.
func Single(f Fasta) (name, seq string, err error) {
	names := f.SeqNames()
	if len(names) != 1 {
		return "", "", errors.Errorf("expected one sequence, found %d", len(names))
	}
	n, err := f.Len(names[0])
	if err != nil {
		return "", "", err
	}
	if n == 0 {
		return names[0], "", nil
	}
	seq, err = f.Get(names[0], 0, n)
	return names[0], seq, err
}

// Get implements Fasta.Get().
func (f *fasta) Get(seqName string, start, end int64) (string, error) {
	s, ok := f.seqs[seqName]
	if !ok {
		return "", errors.Errorf("sequence not found: %s", seqName)
	}
	if end > int64(len(s)) {
		end = int64(len(s))
	}
	if start < 0 || start > end {
		return "", errors.Errorf("invalid query range %d - %d for sequence %s with length %d",
			start, end, seqName, len(s))
	}
	return s[start:end], nil
}

// Len implements Fasta.Len().
func (f *fasta) Len(seq string) (int64, error) {
	s, ok := f.seqs[seq]
	if !ok {
		return 0, errors.Errorf("sequence not found: %s", seq)
	}
	return int64(len(s)), nil
}

// SeqNames implements Fasta.SeqNames().
func (f *fasta) SeqNames() []string {
	return f.seqNames
}
