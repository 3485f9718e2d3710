// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package genome

import (
	"github.com/grailbio/base/errors"
)

// NumericLabels in Opts.ReadChrms admits every chromosome with a purely
// numeric label.
const NumericLabels = "#"

// Opts configures how a genome folder is loaded.
type Opts struct {
	// GapFile is the gap annotation path, relative to the genome folder
	// unless absolute.
	GapFile string
	// FileTemplate names chromosome files.  It must contain exactly one %s,
	// which stands for the chromosome label.
	FileTemplate string
	// ReadChrms lists the chromosome labels to load.  NumericLabels matches
	// any numeric label.
	ReadChrms []string
	// CacheDir is where derived data is stored.  Defaults to DefaultCacheDir
	// inside the genome folder.
	CacheDir string
	// InMemoryCache keeps derived data in memory only.
	InMemoryCache bool
	// DeferCacheWrites holds new derived data in memory until Close.
	DeferCacheWrites bool
	// NewSource opens the chromosome sequences.  Defaults to NewFastaSource.
	NewSource SourceFunc
	// Enzymes finds restriction sites.  Defaults to the built-in enzyme table.
	Enzymes EnzymeSearcher
}

// DefaultCacheDir is the cache directory name used when Opts.CacheDir is
// empty.
const DefaultCacheDir = ".genome-cache"

// DefaultOpts loads the numeric chromosomes plus X, Y and M from files named
// like chr1.fa.
var DefaultOpts = Opts{
	GapFile:      "gap.txt",
	FileTemplate: "chr%s.fa",
	ReadChrms:    []string{NumericLabels, "X", "Y", "M"},
}

// withDefaults fills unset fields of opts from DefaultOpts.
func (opts Opts) withDefaults() Opts {
	if opts.GapFile == "" {
		opts.GapFile = DefaultOpts.GapFile
	}
	if opts.FileTemplate == "" {
		opts.FileTemplate = DefaultOpts.FileTemplate
	}
	if len(opts.ReadChrms) == 0 {
		opts.ReadChrms = DefaultOpts.ReadChrms
	}
	if opts.NewSource == nil {
		opts.NewSource = NewFastaSource
	}
	return opts
}

// IsConfigurationError reports whether err stems from invalid input or
// options, e.g. an empty genome folder or an unknown enzyme.
func IsConfigurationError(err error) bool {
	return err != nil && errors.Is(errors.Invalid, err)
}

// IsConsistencyError reports whether err stems from data that contradicts
// the genome, e.g. positions beyond a chromosome end.
func IsConsistencyError(err error) bool {
	return err != nil && errors.Is(errors.Integrity, err)
}
