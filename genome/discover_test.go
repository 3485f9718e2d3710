package genome_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/grailbio/base/vcontext"
	"github.com/grailbio/hicgenome/genome"
	"github.com/grailbio/testutil"
	"github.com/grailbio/testutil/assert"
	"github.com/grailbio/testutil/expect"
)

func writeChrms(t *testing.T, dir string, names ...string) {
	for _, name := range names {
		writeFasta(t, filepath.Join(dir, name), name, "ACGTNACGT")
	}
}

func TestDiscoveryOrder(t *testing.T) {
	tmpdir, cleanup := testutil.TempDir(t, "", "")
	defer testutil.NoCleanupOnError(t, cleanup, tmpdir)
	ctx := vcontext.Background()
	writeChrms(t, tmpdir, "chr10.fa", "chr2.fa", "chrM.fa", "chrUn.fa", "chrY.fa", "chr1.fa", "chrX.fa", "chrA.fa", "notes.txt")
	assert.NoError(t, os.Mkdir(filepath.Join(tmpdir, "chr5.fa"), 0755))

	g, err := genome.New(ctx, tmpdir, genome.Opts{InMemoryCache: true})
	assert.NoError(t, err)
	expect.EQ(t, g.ChrmLabels, []string{"1", "2", "10", "X", "Y", "M"})
	expect.EQ(t, filepath.Base(g.FastaNames[2]), "chr10.fa")
	expect.EQ(t, g.ChrmLens, []int64{9, 9, 9, 9, 9, 9})

	// Non-priority labels keep the (sorted) listing order.
	g, err = genome.New(ctx, tmpdir, genome.Opts{InMemoryCache: true, ReadChrms: []string{"#", "Un", "M", "A"}})
	assert.NoError(t, err)
	expect.EQ(t, g.ChrmLabels, []string{"1", "2", "10", "M", "A", "Un"})

	g, err = genome.New(ctx, tmpdir, genome.Opts{InMemoryCache: true, ReadChrms: []string{"02", "X"}})
	assert.NoError(t, err)
	expect.EQ(t, g.ChrmLabels, []string{"2", "X"})
	expect.EQ(t, g.Label2Idx, map[string]int{"2": 0, "X": 1})
}

func TestDiscoveryErrors(t *testing.T) {
	tmpdir, cleanup := testutil.TempDir(t, "", "")
	defer testutil.NoCleanupOnError(t, cleanup, tmpdir)
	ctx := vcontext.Background()

	_, err := genome.New(ctx, tmpdir, genome.Opts{InMemoryCache: true})
	expect.True(t, genome.IsConfigurationError(err), "%v", err)

	writeChrms(t, tmpdir, "chrUn.fa")
	_, err = genome.New(ctx, tmpdir, genome.Opts{InMemoryCache: true})
	expect.True(t, genome.IsConfigurationError(err), "%v", err)

	writeChrms(t, tmpdir, "chr1.fa", "chr01.fa")
	_, err = genome.New(ctx, tmpdir, genome.Opts{InMemoryCache: true})
	expect.True(t, genome.IsConfigurationError(err), "%v", err)

	_, err = genome.New(ctx, tmpdir, genome.Opts{InMemoryCache: true, FileTemplate: "chr.fa"})
	expect.True(t, genome.IsConfigurationError(err), "%v", err)

	g, err := genome.New(ctx, tmpdir, genome.Opts{InMemoryCache: true, FileTemplate: "chr%s.fa", ReadChrms: []string{"Un"}})
	assert.NoError(t, err)
	expect.EQ(t, g.ChrmLabels, []string{"Un"})
}
