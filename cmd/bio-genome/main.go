// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

// Command bio-genome inspects genome folders: the chromosome index, binned
// sequence composition and restriction fragment maps.  Derived data is cached
// in the genome folder, so repeated runs are fast.
//
//	bio-genome info hg19/
//	bio-genome bins -resolution 100000 hg19/ > bins.tsv
//	bio-genome digest -enzymes HindIII,DpnII -out-dir frags/ hg19/
//	bio-genome clear-cache hg19/
package main

import (
	"context"
	"flag"
	"fmt"
	"strings"

	"github.com/grailbio/base/cmdutil"
	"github.com/grailbio/hicgenome/enzyme"
	"github.com/grailbio/hicgenome/genome"
	"v.io/x/lib/cmdline"
)

// genomeFlags are the flags shared by all subcommands.
type genomeFlags struct {
	gap         string
	template    string
	chroms      string
	cacheDir    string
	noCache     bool
	enzymeTable string
}

func (f *genomeFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&f.gap, "gap", genome.DefaultOpts.GapFile, "Gap annotation file, relative to the genome folder")
	fs.StringVar(&f.template, "template", genome.DefaultOpts.FileTemplate, "Chromosome file name template; %s stands for the chromosome label")
	fs.StringVar(&f.chroms, "chroms", strings.Join(genome.DefaultOpts.ReadChrms, ","),
		"Comma-separated chromosome labels to load. '#' means all numeric labels")
	fs.StringVar(&f.cacheDir, "cache-dir", "", "Derived data directory. Defaults to "+genome.DefaultCacheDir+" in the genome folder")
	fs.BoolVar(&f.noCache, "no-cache", false, "Don't read or write cached derived data")
	fs.StringVar(&f.enzymeTable, "enzyme-table", "", `Extra restriction enzymes, one "name site" pair per line, e.g. "HindIII A^AGCTT"`)
}

func (f *genomeFlags) opts(ctx context.Context) (genome.Opts, error) {
	opts := genome.Opts{
		GapFile:       f.gap,
		FileTemplate:  f.template,
		ReadChrms:     splitList(f.chroms),
		CacheDir:      f.cacheDir,
		InMemoryCache: f.noCache,
	}
	if f.enzymeTable != "" {
		extra, err := enzyme.LoadTable(ctx, f.enzymeTable)
		if err != nil {
			return opts, err
		}
		db := enzyme.Builtin()
		for _, e := range extra {
			db.Add(e)
		}
		opts.Enzymes = db
	}
	return opts, nil
}

func (f *genomeFlags) open(ctx context.Context, dir string) (*genome.Genome, error) {
	opts, err := f.opts(ctx)
	if err != nil {
		return nil, err
	}
	return genome.New(ctx, dir, opts)
}

func splitList(s string) []string {
	var r []string
	for _, e := range strings.Split(s, ",") {
		if e = strings.TrimSpace(e); e != "" {
			r = append(r, e)
		}
	}
	return r
}

func oneDir(name string, argv []string) (string, error) {
	if len(argv) != 1 {
		return "", fmt.Errorf("%s takes one genome folder argument, but got %v", name, argv)
	}
	return argv[0], nil
}

func newCmdInfo() *cmdline.Command {
	cmd := &cmdline.Command{
		Name:     "info",
		Short:    "Print the chromosome index of a genome folder",
		ArgsName: "genome-dir",
	}
	var gf genomeFlags
	gf.register(&cmd.Flags)
	cmd.Runner = cmdutil.RunnerFunc(func(env *cmdline.Env, argv []string) error {
		dir, err := oneDir("info", argv)
		if err != nil {
			return err
		}
		return withGenome(&gf, dir, func(ctx context.Context, g *genome.Genome) error {
			return writeInfo(env.Stdout, g)
		})
	})
	return cmd
}

func newCmdBins() *cmdline.Command {
	cmd := &cmdline.Command{
		Name:     "bins",
		Short:    "Print per-bin sequence composition",
		ArgsName: "genome-dir",
	}
	var gf genomeFlags
	gf.register(&cmd.Flags)
	resolution := cmd.Flags.Int64("resolution", 1000000, "Bin size in bases")
	cmd.Runner = cmdutil.RunnerFunc(func(env *cmdline.Env, argv []string) error {
		dir, err := oneDir("bins", argv)
		if err != nil {
			return err
		}
		return withGenome(&gf, dir, func(ctx context.Context, g *genome.Genome) error {
			if err := g.SetResolution(ctx, *resolution); err != nil {
				return err
			}
			return writeBins(env.Stdout, g)
		})
	})
	return cmd
}

func newCmdDigest() *cmdline.Command {
	cmd := &cmdline.Command{
		Name:  "digest",
		Short: "Map restriction fragments for one or more enzymes",
		Long: `Digest computes the restriction fragments of each enzyme, in parallel, and
prints the number of fragments per enzyme.  With -out-dir, the fragments of
each enzyme are also written to <out-dir>/<enzyme>.fragments.tsv.  A failing
enzyme doesn't stop the others.`,
		ArgsName: "genome-dir",
	}
	var gf genomeFlags
	gf.register(&cmd.Flags)
	var df digestFlags
	cmd.Flags.StringVar(&df.enzymes, "enzymes", "HindIII", "Comma-separated restriction enzyme names")
	cmd.Flags.StringVar(&df.outDir, "out-dir", "", "Directory for per-enzyme fragment tables")
	cmd.Flags.IntVar(&df.parallelism, "parallelism", 0, "Number of enzymes digested at a time. 0 means one per CPU")
	cmd.Runner = cmdutil.RunnerFunc(func(env *cmdline.Env, argv []string) error {
		dir, err := oneDir("digest", argv)
		if err != nil {
			return err
		}
		return withGenome(&gf, dir, func(ctx context.Context, g *genome.Genome) error {
			return digest(ctx, env.Stdout, g, df)
		})
	})
	return cmd
}

func newCmdClearCache() *cmdline.Command {
	cmd := &cmdline.Command{
		Name:     "clear-cache",
		Short:    "Delete cached derived data of a genome folder",
		ArgsName: "genome-dir",
	}
	var gf genomeFlags
	gf.register(&cmd.Flags)
	cmd.Runner = cmdutil.RunnerFunc(func(env *cmdline.Env, argv []string) error {
		dir, err := oneDir("clear-cache", argv)
		if err != nil {
			return err
		}
		return withGenome(&gf, dir, func(ctx context.Context, g *genome.Genome) error {
			return g.ClearCache(ctx)
		})
	})
	return cmd
}

func main() {
	cmdline.HideGlobalFlagsExcept()
	cmdline.Main(
		&cmdline.Command{
			Name:     "bio-genome",
			Short:    "Tools for working with genome folders",
			LookPath: false,
			Children: []*cmdline.Command{
				newCmdInfo(),
				newCmdBins(),
				newCmdDigest(),
				newCmdClearCache(),
			},
		})
}
