// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

// Package genome models a genome assembled from per-chromosome sequence
// files.  It assigns stable chromosome indices, bins the concatenated
// chromosomes at a given resolution, maps restriction enzyme fragments, and
// answers proximity queries between positions encoded as int64 ids.
//
// Derived data (chromosome lengths, per-bin GC content, restriction sites) is
// stored in a cache directory, by default inside the genome folder, and is
// reused by later runs with the same chromosome filter, gap file and file
// template.  The cache does not notice changes to the code that computed an
// entry; call ClearCache after such changes.
//
// A Genome is not safe for concurrent use, except for ComputeBinning and
// Digest, which don't modify it.
package genome

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/log"
	"github.com/grailbio/hicgenome/enzyme"
	"github.com/grailbio/hicgenome/kvstore"
	"github.com/grailbio/hicgenome/memo"
)

// IDMultPadding is added to the longest chromosome length to get FragIDMult.
const IDMultPadding = 1000

// Genome is a loaded genome folder.
type Genome struct {
	// Path is the genome folder.
	Path string
	// FolderName is the last component of Path.
	FolderName string

	// ChrmCount is the number of chromosomes.
	ChrmCount int
	// ChrmLabels lists the chromosome labels, by index.
	ChrmLabels []string
	Label2Idx  map[string]int
	Idx2Label  map[int]string
	// FastaNames lists the chromosome files, by index.
	FastaNames []string
	// ChrmLens lists the chromosome lengths in bases, by index.
	ChrmLens   []int64
	MaxChrmLen int64
	// FragIDMult is the chromosome multiplier of position ids; see Encode.
	FragIDMult int64

	Centromeres CentromereTable
	// MaxChrmArm is the longest chromosome arm.
	MaxChrmArm int64

	// Binning is set by SetResolution.
	Binning *Binning
	// Restriction is set by SetEnzyme.
	Restriction *Restriction

	opts    Opts
	source  SequenceSource
	enzymes EnzymeSearcher
	store   *kvstore.Dict
	cache   *memo.Cache
}

// New loads the genome in folder path.  It fails with a configuration error
// if no chromosome file matches opts.
func New(ctx context.Context, path string, opts Opts) (*Genome, error) {
	opts = opts.withDefaults()
	tmpl, err := parseTemplate(opts.FileTemplate)
	if err != nil {
		return nil, err
	}
	if scheme, _, err := file.ParsePath(path); err == nil && scheme == "" {
		abs, err := filepath.Abs(path)
		if err != nil {
			return nil, errors.E(err, "genome: resolve", path)
		}
		path = abs
	}
	chrms, err := discover(ctx, path, tmpl, opts.ReadChrms)
	if err != nil {
		return nil, err
	}
	g := &Genome{
		Path:       path,
		FolderName: file.Base(path),
		ChrmCount:  len(chrms),
		Label2Idx:  make(map[string]int, len(chrms)),
		Idx2Label:  make(map[int]string, len(chrms)),
		opts:       opts,
		enzymes:    opts.Enzymes,
	}
	for i, c := range chrms {
		g.ChrmLabels = append(g.ChrmLabels, c.label)
		g.FastaNames = append(g.FastaNames, c.path)
		g.Label2Idx[c.label] = i
		g.Idx2Label[i] = c.label
	}
	if g.enzymes == nil {
		g.enzymes = enzyme.Builtin()
	}
	if g.source, err = opts.NewSource(ctx, g.FastaNames); err != nil {
		return nil, err
	}
	cacheDir := opts.CacheDir
	if cacheDir == "" {
		cacheDir = filepath.Join(path, DefaultCacheDir)
	}
	if g.store, err = kvstore.Open(ctx, cacheDir, kvstore.Opts{InMemory: opts.InMemoryCache, NoAutoFlush: opts.DeferCacheWrites}); err != nil {
		return nil, err
	}
	g.cache = memo.New(g.store, memo.Identity{
		ReadChrms:    opts.ReadChrms,
		GapFile:      opts.GapFile,
		FileTemplate: opts.FileTemplate,
	})

	if g.ChrmLens, err = g.chrmLens(ctx); err != nil {
		return nil, g.closeOnError(ctx, err)
	}
	for _, n := range g.ChrmLens {
		if n > g.MaxChrmLen {
			g.MaxChrmLen = n
		}
	}
	g.FragIDMult = g.MaxChrmLen + IDMultPadding

	gapPath := opts.GapFile
	if !filepath.IsAbs(gapPath) {
		gapPath = filepath.Join(path, gapPath)
	}
	if g.Centromeres, err = loadGapFile(ctx, gapPath, g.Label2Idx); err != nil {
		return nil, g.closeOnError(ctx, err)
	}
	g.MaxChrmArm = maxChrmArm(g.Centromeres, g.ChrmLens)
	log.Printf("genome: loaded %d chromosomes from %s", g.ChrmCount, path)
	return g, nil
}

// closeOnError closes the store of a partially loaded genome and returns err.
func (g *Genome) closeOnError(ctx context.Context, err error) error {
	if cerr := g.store.Close(ctx); cerr != nil {
		log.Error.Printf("genome: close cache %s: %v", g.store.Dir(), cerr)
	}
	return err
}

func (g *Genome) chrmLens(ctx context.Context) ([]int64, error) {
	var lens []int64
	err := g.cache.Do(ctx, "chrmLens", nil, &lens, func() error {
		lens = make([]int64, g.ChrmCount)
		for i := range lens {
			var err error
			if lens[i], err = g.source.Len(ctx, i); err != nil {
				return err
			}
		}
		return nil
	})
	if err == nil && len(lens) != g.ChrmCount {
		err = errors.E(errors.Integrity, fmt.Sprintf("genome: cached lengths for %d chromosomes, have %d", len(lens), g.ChrmCount))
	}
	return lens, err
}

// ChrmIdx returns the index of the chromosome with the given label.  The label
// may be given with or without the file template prefix, e.g. "chr01", "01"
// or "1".
func (g *Genome) ChrmIdx(label string) (int, error) {
	if idx, ok := g.Label2Idx[normalizeLabel(label)]; ok {
		return idx, nil
	}
	if tmpl, err := parseTemplate(g.opts.FileTemplate); err == nil {
		if l, ok := tmpl.label(label); ok {
			if idx, ok := g.Label2Idx[l]; ok {
				return idx, nil
			}
		}
	}
	return -1, errors.E(errors.NotExist, fmt.Sprintf("genome: unknown chromosome %q", label))
}

// ClearCache removes all derived data stored for the genome.  The loaded
// chromosome index and any derived state already in memory are kept.
func (g *Genome) ClearCache(ctx context.Context) error {
	return g.cache.Clear(ctx)
}

// CacheStats returns the derived-data cache hits and misses so far.
func (g *Genome) CacheStats() (hits, misses int) {
	return g.cache.Stats()
}

// Close releases the cache.  The genome must not be used afterwards.
func (g *Genome) Close(ctx context.Context) error {
	return g.store.Close(ctx)
}
