package fasta_test

import (
	"bytes"
	"fmt"
	"io/ioutil"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/grailbio/base/vcontext"
	"github.com/grailbio/hicgenome/encoding/fasta"
	"github.com/grailbio/testutil"
	"github.com/grailbio/testutil/assert"
	"github.com/grailbio/testutil/expect"
	"github.com/klauspost/compress/gzip"
)

var fastaData = ">seq1\n" + "ACGTA\nCGTAC\nGT\n" + ">seq2 A viral sequence\n" + "ACGT\r\n" + "ACGT\r\n"

func TestGet(t *testing.T) {
	tests := []struct {
		seq   string
		start int64
		end   int64
		want  string
		err   error
	}{
		{"seq1", 1, 2, "C", nil},
		{"seq1", 1, 6, "CGTAC", nil},
		{"seq1", 0, 12, "ACGTACGTACGT", nil},
		{"seq1", 10, 12, "GT", nil},
		{"seq1", 10, 100, "GT", nil},
		{"seq1", 12, 20, "", nil},
		{"seq2", 0, 8, "ACGTACGT", nil},
		{"seq2", 2, 5, "GTA", nil},
		{"seq0", 0, 1, "", fmt.Errorf("sequence not found: seq0")},
		{"seq1", 4, 3, "", fmt.Errorf("invalid query range")},
		{"seq1", -1, 3, "", fmt.Errorf("invalid query range")},
	}
	fa, err := fasta.New(strings.NewReader(fastaData))
	assert.NoError(t, err)
	for _, tt := range tests {
		got, err := fa.Get(tt.seq, tt.start, tt.end)
		if (err == nil && tt.err != nil) || (err != nil && tt.err == nil) {
			t.Errorf("unexpected error: want %v, got %v", tt.err, err)
		}
		if got != tt.want {
			t.Errorf("unexpected sequence: want %s, got %s", tt.want, got)
		}
	}
}

func TestLength(t *testing.T) {
	fa, err := fasta.New(strings.NewReader(fastaData))
	assert.NoError(t, err)
	n, err := fa.Len("seq1")
	assert.NoError(t, err)
	expect.EQ(t, n, int64(12))
	n, err = fa.Len("seq2")
	assert.NoError(t, err)
	expect.EQ(t, n, int64(8))
	_, err = fa.Len("seq0")
	expectErr(t, err, "sequence not found")
	if !reflect.DeepEqual(fa.SeqNames(), []string{"seq1", "seq2"}) {
		t.Errorf("got %v", fa.SeqNames())
	}
}

func TestMalformed(t *testing.T) {
	_, err := fasta.New(strings.NewReader(""))
	expectErr(t, err, "empty FASTA")
	_, err = fasta.New(strings.NewReader("ACGT\n>seq1\nACGT\n"))
	expectErr(t, err, "malformed FASTA")
	_, err = fasta.New(strings.NewReader(">a\nACGT\n>a\nACGT\n"))
	expectErr(t, err, "duplicate sequence")

	// A header without bases is an empty sequence, not an error.
	fa, err := fasta.New(strings.NewReader(">empty\n"))
	assert.NoError(t, err)
	name, seq, err := fasta.Single(fa)
	assert.NoError(t, err)
	expect.EQ(t, name, "empty")
	expect.EQ(t, seq, "")
}

func TestSingle(t *testing.T) {
	fa, err := fasta.New(strings.NewReader(">chr1\nACGT\nAC\n"))
	assert.NoError(t, err)
	name, seq, err := fasta.Single(fa)
	assert.NoError(t, err)
	expect.EQ(t, name, "chr1")
	expect.EQ(t, seq, "ACGTAC")

	fa, err = fasta.New(strings.NewReader(fastaData))
	assert.NoError(t, err)
	_, _, err = fasta.Single(fa)
	expectErr(t, err, "expected one sequence")
}

func TestOpen(t *testing.T) {
	tmpdir, cleanup := testutil.TempDir(t, "", "")
	defer testutil.NoCleanupOnError(t, cleanup, tmpdir)
	ctx := vcontext.Background()

	var gzBuf bytes.Buffer
	gz := gzip.NewWriter(&gzBuf)
	_, err := gz.Write([]byte(">chr2\nGGCC\nNNAT\n"))
	assert.NoError(t, err)
	assert.NoError(t, gz.Close())

	plainPath := filepath.Join(tmpdir, "chr1.fa")
	gzPath := filepath.Join(tmpdir, "chr2.fa.gz")
	assert.NoError(t, ioutil.WriteFile(plainPath, []byte(">chr1\nACGT\n"), 0644))
	assert.NoError(t, ioutil.WriteFile(gzPath, gzBuf.Bytes(), 0644))

	fa, err := fasta.Open(ctx, plainPath)
	assert.NoError(t, err)
	_, seq, err := fasta.Single(fa)
	assert.NoError(t, err)
	expect.EQ(t, seq, "ACGT")

	fa, err = fasta.Open(ctx, gzPath)
	assert.NoError(t, err)
	_, seq, err = fasta.Single(fa)
	assert.NoError(t, err)
	expect.EQ(t, seq, "GGCCNNAT")

	_, err = fasta.Open(ctx, filepath.Join(tmpdir, "missing.fa"))
	expect.NotNil(t, err)
}

func TestComposition(t *testing.T) {
	tests := []struct {
		bases string
		gc    float64
		n     int64
	}{
		{"", 0, 0},
		{"GGCC", 1, 0},
		{"ACGT", 0.5, 0},
		{"acgtnn", 2.0 / 6, 2},
		{"NNNN", 0, 4},
		{"SSAA", 0.5, 0},
	}
	for _, tt := range tests {
		expect.EQ(t, fasta.GCFraction(tt.bases), tt.gc, tt.bases)
		expect.EQ(t, fasta.CountAmbiguous(tt.bases), tt.n, tt.bases)
	}
}

func expectErr(t *testing.T, err error, substr string) {
	t.Helper()
	if err == nil || !strings.Contains(err.Error(), substr) {
		t.Errorf("got error %v, want one containing %q", err, substr)
	}
}
