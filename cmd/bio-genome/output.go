// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/grailbio/base/errorreporter"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/tsv"
	"github.com/grailbio/base/vcontext"
	"github.com/grailbio/hicgenome/fmap"
	"github.com/grailbio/hicgenome/genome"
)

func withGenome(gf *genomeFlags, dir string, fn func(ctx context.Context, g *genome.Genome) error) error {
	ctx := vcontext.Background()
	g, err := gf.open(ctx, dir)
	if err != nil {
		return err
	}
	e := errorreporter.T{}
	e.Set(fn(ctx, g))
	e.Set(g.Close(ctx))
	return e.Err()
}

func itoa(v int64) string { return strconv.FormatInt(v, 10) }

// writeInfo prints one line per chromosome.
func writeInfo(w io.Writer, g *genome.Genome) error {
	out := tsv.NewWriter(w)
	out.WriteString("#IDX\tLABEL\tLENGTH\tCENTROMERE_START\tCENTROMERE_END\tFILE")
	if err := out.EndLine(); err != nil {
		return err
	}
	for i, label := range g.ChrmLabels {
		out.WriteString(strconv.Itoa(i))
		out.WriteString(label)
		out.WriteString(itoa(g.ChrmLens[i]))
		out.WriteString(itoa(g.Centromeres.Starts[i]))
		out.WriteString(itoa(g.Centromeres.Ends[i]))
		out.WriteString(g.FastaNames[i])
		if err := out.EndLine(); err != nil {
			return err
		}
	}
	return out.Flush()
}

// writeBins prints one line per bin at the current resolution.
func writeBins(w io.Writer, g *genome.Genome) error {
	b := g.Binning
	out := tsv.NewWriter(w)
	out.WriteString("#BIN\tCHROM\tSTART\tEND\tGC\tUNMAPPED\tMAPPED")
	if err := out.EndLine(); err != nil {
		return err
	}
	for c, label := range g.ChrmLabels {
		for j, size := range b.BinSizesBp[c] {
			start := int64(j) * b.Resolution
			out.WriteString(itoa(b.ChrmStartsBinCont[c] + int64(j)))
			out.WriteString(label)
			out.WriteString(itoa(start))
			out.WriteString(itoa(start + size))
			out.WriteString(strconv.FormatFloat(b.GCBin[c][j], 'f', 4, 64))
			out.WriteString(itoa(b.UnmappedBasesBin[c][j]))
			out.WriteString(itoa(b.MappedBasesBin[c][j]))
			if err := out.EndLine(); err != nil {
				return err
			}
		}
	}
	return out.Flush()
}

type digestFlags struct {
	enzymes     string
	outDir      string
	parallelism int
}

// digest maps the fragments of every enzyme, then prints a summary line per
// enzyme.  Enzymes that fail are reported in the summary and in the returned
// error.
func digest(ctx context.Context, w io.Writer, g *genome.Genome, df digestFlags) error {
	names := splitList(df.enzymes)
	if df.outDir != "" {
		if err := os.MkdirAll(df.outDir, 0755); err != nil {
			return err
		}
	}
	nfrags := make([]int, len(names))
	errs, err := fmap.Map(len(names), df.parallelism, func(i int) error {
		r, err := g.Digest(ctx, names[i])
		if err != nil {
			return err
		}
		nfrags[i] = r.NumFragments()
		if df.outDir == "" {
			return nil
		}
		return writeFragments(ctx, filepath.Join(df.outDir, names[i]+".fragments.tsv"), g, r)
	})
	out := tsv.NewWriter(w)
	out.WriteString("#ENZYME\tFRAGMENTS\tERROR")
	if err := out.EndLine(); err != nil {
		return err
	}
	for i, name := range names {
		out.WriteString(name)
		out.WriteString(strconv.Itoa(nfrags[i]))
		if errs[i] != nil {
			log.Error.Printf("digest %s: %v", name, errs[i])
			out.WriteString(strings.Join(strings.Fields(errs[i].Error()), " "))
		} else {
			out.WriteString("")
		}
		if err := out.EndLine(); err != nil {
			return err
		}
	}
	if ferr := out.Flush(); ferr != nil {
		return ferr
	}
	return err
}

// writeFragments writes one line per restriction fragment to path.
func writeFragments(ctx context.Context, path string, g *genome.Genome, r *genome.Restriction) (err error) {
	f, err := file.Create(ctx, path)
	if err != nil {
		return err
	}
	e := errorreporter.T{}
	out := tsv.NewWriter(f.Writer(ctx))
	out.WriteString("#CHROM\tSTART\tEND\tMID\tMID_ID")
	e.Set(out.EndLine())
	for c, label := range g.ChrmLabels {
		var start int64
		for i, end := range r.Rsites[c] {
			mid := r.RfragMids[c][i]
			out.WriteString(label)
			out.WriteString(itoa(start))
			out.WriteString(itoa(end))
			out.WriteString(itoa(mid))
			out.WriteString(itoa(g.Encode(c, mid)))
			if err := out.EndLine(); err != nil {
				e.Set(err)
				break
			}
			start = end
		}
	}
	e.Set(out.Flush())
	e.Set(f.Close(ctx))
	if e.Err() == nil {
		log.Printf("wrote %d %s fragments to %s", r.NumFragments(), r.EnzymeName, path)
	}
	return e.Err()
}
