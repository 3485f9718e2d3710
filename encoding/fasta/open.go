package fasta

import (
	"context"
	"io"

	"github.com/grailbio/base/file"
	"github.com/grailbio/base/fileio"
	"github.com/klauspost/compress/gzip"
	"github.com/pkg/errors"
)

// Open reads the FASTA file at path into memory.  Files whose name ends in
// ".gz" are decompressed on the fly.
func Open(ctx context.Context, path string) (fa Fasta, err error) {
	in, err := file.Open(ctx, path)
	if err != nil {
		return nil, errors.Wrapf(err, "fasta.Open %s", path)
	}
	defer func() {
		if cerr := in.Close(ctx); cerr != nil && err == nil {
			err = cerr
		}
	}()
	reader := io.Reader(in.Reader(ctx))
	switch fileio.DetermineType(path) {
	case fileio.Gzip:
		gz, err := gzip.NewReader(reader)
		if err != nil {
			return nil, errors.Wrapf(err, "fasta.Open %s", path)
		}
		defer gz.Close() // nolint: errcheck
		reader = gz
	}
	if fa, err = New(reader); err != nil {
		return nil, errors.Wrapf(err, "fasta.Open %s", path)
	}
	return fa, nil
}
