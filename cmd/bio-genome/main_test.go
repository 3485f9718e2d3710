package main

import (
	"bytes"
	"context"
	"io/ioutil"
	"path/filepath"
	"strings"
	"testing"

	"github.com/grailbio/base/vcontext"
	"github.com/grailbio/hicgenome/genome"
	"github.com/grailbio/testutil"
	"github.com/grailbio/testutil/assert"
	"github.com/grailbio/testutil/expect"
	"github.com/stretchr/testify/require"
)

func writeGenome(t *testing.T, dir string) {
	files := map[string]string{
		"chr1.fa":  ">chr1\nCCAAGCTTGGNNAAGCTTAA\n",
		"chr2.fa":  ">chr2\nACGTACGTAC\n",
		"chrM.fa":  ">chrM\nAAAA\n",
		"gap.txt":  "1\tchr1\t2\t4\t1\tN\t2\tcentromere\tno\n",
		"enzymes":  "# custom\nTaqI T^CGA\n",
		"README":   "not a chromosome\n",
		"chr1.txt": "not a chromosome either\n",
	}
	for name, data := range files {
		assert.NoError(t, ioutil.WriteFile(filepath.Join(dir, name), []byte(data), 0644))
	}
}

func openTestGenome(t *testing.T, gf genomeFlags, dir string) *genome.Genome {
	g, err := gf.open(vcontext.Background(), dir)
	assert.NoError(t, err)
	return g
}

func defaultFlags() genomeFlags {
	return genomeFlags{
		gap:      genome.DefaultOpts.GapFile,
		template: genome.DefaultOpts.FileTemplate,
		chroms:   "#, X, Y, M",
		noCache:  true,
	}
}

func TestInfo(t *testing.T) {
	tmpdir, cleanup := testutil.TempDir(t, "", "")
	defer testutil.NoCleanupOnError(t, cleanup, tmpdir)
	writeGenome(t, tmpdir)

	g := openTestGenome(t, defaultFlags(), tmpdir)
	var buf bytes.Buffer
	assert.NoError(t, writeInfo(&buf, g))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.EQ(t, len(lines), 4)
	expect.True(t, strings.HasPrefix(lines[0], "#IDX\t"))
	expect.True(t, strings.HasPrefix(lines[1], "0\t1\t20\t2\t4\t"), lines[1])
	expect.True(t, strings.HasPrefix(lines[2], "1\t2\t10\t-1\t-1\t"), lines[2])
	expect.True(t, strings.HasPrefix(lines[3], "2\tM\t4\t-1\t-1\t"), lines[3])
}

func TestBins(t *testing.T) {
	tmpdir, cleanup := testutil.TempDir(t, "", "")
	defer testutil.NoCleanupOnError(t, cleanup, tmpdir)
	writeGenome(t, tmpdir)

	gf := defaultFlags()
	gf.chroms = "2"
	g := openTestGenome(t, gf, tmpdir)
	assert.NoError(t, g.SetResolution(vcontext.Background(), 4))
	var buf bytes.Buffer
	assert.NoError(t, writeBins(&buf, g))
	expect.EQ(t, buf.String(), "#BIN\tCHROM\tSTART\tEND\tGC\tUNMAPPED\tMAPPED\n"+
		"0\t2\t0\t4\t0.5000\t0\t4\n"+
		"1\t2\t4\t8\t0.5000\t0\t4\n"+
		"2\t2\t8\t10\t0.5000\t0\t2\n")
}

func TestDigest(t *testing.T) {
	tmpdir, cleanup := testutil.TempDir(t, "", "")
	defer testutil.NoCleanupOnError(t, cleanup, tmpdir)
	writeGenome(t, tmpdir)
	ctx := vcontext.Background()

	gf := defaultFlags()
	gf.enzymeTable = filepath.Join(tmpdir, "enzymes")
	g := openTestGenome(t, gf, tmpdir)
	outDir := filepath.Join(tmpdir, "frags")
	var buf bytes.Buffer
	err := digest(ctx, &buf, g, digestFlags{enzymes: "HindIII,Bogus,TaqI", outDir: outDir, parallelism: 2})
	require.Error(t, err)
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 4)
	require.Equal(t, "HindIII\t5\t", lines[1])
	require.True(t, strings.HasPrefix(lines[2], "Bogus\t0\t"), lines[2])
	require.Contains(t, lines[2], "unknown restriction enzyme")
	require.True(t, strings.HasPrefix(lines[3], "TaqI\t"), lines[3])

	data, err := ioutil.ReadFile(filepath.Join(outDir, "HindIII.fragments.tsv"))
	require.NoError(t, err)
	require.Equal(t, "#CHROM\tSTART\tEND\tMID\tMID_ID\n"+
		"1\t0\t3\t1\t1\n"+
		"1\t3\t13\t8\t8\n"+
		"1\t13\t20\t16\t16\n"+
		"2\t0\t10\t5\t1025\n"+
		"M\t0\t4\t2\t2042\n", string(data))
	assert.NoError(t, g.Close(ctx))
}

func TestWithGenome(t *testing.T) {
	tmpdir, cleanup := testutil.TempDir(t, "", "")
	defer testutil.NoCleanupOnError(t, cleanup, tmpdir)
	writeGenome(t, tmpdir)

	gf := defaultFlags()
	gf.noCache = false
	var chrms int
	assert.NoError(t, withGenome(&gf, tmpdir, func(ctx context.Context, g *genome.Genome) error {
		chrms = g.ChrmCount
		return g.ClearCache(ctx)
	}))
	expect.EQ(t, chrms, 3)

	gf.enzymeTable = filepath.Join(tmpdir, "missing")
	err := withGenome(&gf, tmpdir, func(ctx context.Context, g *genome.Genome) error { return nil })
	expect.NotNil(t, err)
}
