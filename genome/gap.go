package genome

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/log"
	"github.com/grailbio/hicgenome/interval"
)

// Unknown marks a missing centromere coordinate.
const Unknown = -1

// CentromereTable holds centromere offsets per chromosome index.  Chromosomes
// without a centromere record have Unknown in all three arrays.
type CentromereTable struct {
	Starts, Ends, Mids []int64
}

func newCentromereTable(n int) CentromereTable {
	t := CentromereTable{
		Starts: make([]int64, n),
		Ends:   make([]int64, n),
		Mids:   make([]int64, n),
	}
	for i := 0; i < n; i++ {
		t.Starts[i], t.Ends[i], t.Mids[i] = Unknown, Unknown, Unknown
	}
	return t
}

// Known reports whether chromosome chrm has a centromere record.
func (t CentromereTable) Known(chrm int) bool { return t.Starts[chrm] != Unknown }

// Gap annotation columns, 0-based.
const (
	gapChromCol = 1
	gapStartCol = 2
	gapEndCol   = 3
	gapTypeCol  = 7
	gapNumCols  = 8

	// gapChromPrefix is the length of the "chr" prefix of gap file
	// chromosome names.
	gapChromPrefix = 3
)

// loadGapFile reads the centromere records of the gap annotation at path.  A
// file that can't be opened is not an error: the table is left Unknown.
func loadGapFile(ctx context.Context, path string, label2idx map[string]int) (CentromereTable, error) {
	f, err := file.Open(ctx, path)
	if err != nil {
		log.Error.Printf("genome: gap file %s not found, centromeres unknown: %v", path, err)
		return newCentromereTable(len(label2idx)), nil
	}
	defer f.Close(ctx) // nolint: errcheck
	t, err := parseGapFile(f.Reader(ctx), label2idx)
	if err != nil {
		return t, errors.E(err, path)
	}
	return t, nil
}

func parseGapFile(r io.Reader, label2idx map[string]int) (CentromereTable, error) {
	t := newCentromereTable(len(label2idx))
	var (
		tokens  = make([][]byte, gapNumCols)
		scanner = bufio.NewScanner(r)
		lineno  int
	)
	for scanner.Scan() {
		lineno++
		if interval.GetTokens(tokens, scanner.Bytes()) < gapNumCols || string(tokens[gapTypeCol]) != "centromere" {
			continue
		}
		chrom := tokens[gapChromCol]
		if len(chrom) < gapChromPrefix {
			continue
		}
		idx, ok := label2idx[normalizeLabel(string(chrom[gapChromPrefix:]))]
		if !ok {
			continue
		}
		start, err := strconv.ParseInt(string(tokens[gapStartCol]), 10, 64)
		if err != nil {
			return t, errors.E(errors.Invalid, fmt.Sprintf("gap file line %d: bad start %q", lineno, tokens[gapStartCol]))
		}
		end, err := strconv.ParseInt(string(tokens[gapEndCol]), 10, 64)
		if err != nil {
			return t, errors.E(errors.Invalid, fmt.Sprintf("gap file line %d: bad end %q", lineno, tokens[gapEndCol]))
		}
		t.Starts[idx], t.Ends[idx], t.Mids[idx] = start, end, (start+end)/2
	}
	return t, scanner.Err()
}

// maxChrmArm returns the length of the longest chromosome arm.  A chromosome
// with an unknown centromere counts as a single arm.
func maxChrmArm(t CentromereTable, lens []int64) int64 {
	var max int64
	for i, n := range lens {
		arms := []int64{n}
		if t.Known(i) {
			arms = []int64{t.Starts[i], n - t.Ends[i]}
		}
		for _, a := range arms {
			if a > max {
				max = a
			}
		}
	}
	return max
}
