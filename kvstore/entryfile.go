// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package kvstore

import (
	"context"
	"fmt"
	"strconv"

	"blainsmith.com/go/seahash"
	farm "github.com/dgryski/go-farm"
	"github.com/golang/snappy"
	"github.com/grailbio/base/errorreporter"
	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/recordio"
	"github.com/grailbio/base/recordio/recordiozstd"
)

const (
	headerKey      = "kvstore.key"
	headerKind     = "kvstore.kind"
	headerDType    = "kvstore.dtype"
	headerShape    = "kvstore.shape"
	headerCodec    = "kvstore.codec"
	headerChecksum = "kvstore.checksum"

	maxNameChars = 64
)

func init() {
	recordiozstd.Init()
}

// entryFileName maps a key to a file name.  Keys may contain characters that
// are awkward in paths, so the name is a sanitized prefix of the key plus a
// hash of the full key.
func entryFileName(key string) string {
	name := make([]byte, 0, maxNameChars)
	for i := 0; i < len(key) && len(name) < maxNameChars; i++ {
		c := key[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '-', c == '.':
			name = append(name, c)
		default:
			name = append(name, '_')
		}
	}
	return fmt.Sprintf("%s-%016x%s", name, seahash.Sum64([]byte(key)), fileSuffix)
}

type entryHeader struct {
	key      string
	kind     Kind
	dtype    DType
	shape    []int
	codec    string
	checksum uint64
}

func parseHeader(kvs []recordio.KeyValue) (h entryHeader, err error) {
	for _, kv := range kvs {
		s, ok := kv.Value.(string)
		if !ok {
			continue
		}
		switch kv.Key {
		case headerKey:
			h.key = s
		case headerKind:
			if h.kind, err = parseKind(s); err != nil {
				return
			}
		case headerDType:
			if s != "" {
				if h.dtype, err = parseDType(s); err != nil {
					return
				}
			}
		case headerShape:
			if h.shape, err = parseShape(s); err != nil {
				return
			}
		case headerCodec:
			h.codec = s
		case headerChecksum:
			if h.checksum, err = strconv.ParseUint(s, 16, 64); err != nil {
				err = errors.E(errors.Integrity, err, "kvstore: bad checksum header")
				return
			}
		}
	}
	if h.key == "" || h.kind == 0 {
		err = errors.E(errors.Integrity, "kvstore: entry header is incomplete")
	}
	return
}

func readHeader(ctx context.Context, path string) (h entryHeader, err error) {
	in, err := file.Open(ctx, path)
	if err != nil {
		return h, err
	}
	defer file.CloseAndReport(ctx, in, &err)
	sc := recordio.NewScanner(in.Reader(ctx), recordio.ScannerOpts{})
	defer sc.Finish() // nolint: errcheck
	if err = sc.Err(); err != nil {
		return h, errors.E(errors.Integrity, err, "kvstore: read", path)
	}
	return parseHeader(sc.Header())
}

// readEntry reads the value stored at path and verifies its checksum.
func readEntry(ctx context.Context, path string) (v Value, err error) {
	in, err := file.Open(ctx, path)
	if err != nil {
		return v, errors.E(err, "kvstore: open", path)
	}
	defer file.CloseAndReport(ctx, in, &err)
	sc := recordio.NewScanner(in.Reader(ctx), recordio.ScannerOpts{})
	h, err := parseHeader(sc.Header())
	if err != nil {
		sc.Finish() // nolint: errcheck
		return v, err
	}
	var payload []byte
	if sc.Scan() {
		payload = append([]byte(nil), sc.Get().([]byte)...)
	}
	if err = sc.Finish(); err != nil {
		return v, errors.E(errors.Integrity, err, "kvstore: read", path)
	}
	if h.codec == CompressionSnappy && len(payload) > 0 {
		if payload, err = snappy.Decode(nil, payload); err != nil {
			return v, errors.E(errors.Integrity, err, "kvstore: snappy decode", path)
		}
	}
	if sum := farm.Fingerprint64(payload); sum != h.checksum {
		return v, errors.E(errors.Integrity, fmt.Sprintf("kvstore: checksum mismatch for %q in %s: %x != %x", h.key, path, sum, h.checksum))
	}
	v = Value{Kind: h.kind, DType: h.dtype, Shape: h.shape, Data: payload}
	if err = v.validate(); err != nil {
		return Value{}, errors.E(errors.Integrity, err, "kvstore: corrupt entry", path)
	}
	if v.Kind == KindOpaque {
		v.Shape = nil
	}
	return v, nil
}

// writeEntry serializes v as a single-block recordio file at path.  Existing
// contents of the file are clobbered.
func writeEntry(ctx context.Context, path, key string, v Value, compression string) (err error) {
	var transformers []string
	payload := v.Data
	switch compression {
	case CompressionZstd:
		transformers = []string{recordiozstd.Name}
	case CompressionSnappy:
		payload = snappy.Encode(nil, v.Data)
	}
	out, err := file.Create(ctx, path)
	if err != nil {
		return errors.E(err, "kvstore: create", path)
	}
	rio := recordio.NewWriter(out.Writer(ctx), recordio.WriterOpts{
		Transformers: transformers,
	})
	rio.AddHeader(headerKey, key)
	rio.AddHeader(headerKind, v.Kind.String())
	rio.AddHeader(headerDType, v.DType.String())
	rio.AddHeader(headerShape, formatShape(v.Shape))
	rio.AddHeader(headerCodec, compression)
	rio.AddHeader(headerChecksum, strconv.FormatUint(farm.Fingerprint64(v.Data), 16))
	if len(payload) > 0 {
		rio.Append(payload)
	}
	e := errorreporter.T{}
	e.Set(rio.Finish())
	e.Set(out.Close(ctx))
	if e.Err() != nil {
		return errors.E(e.Err(), "kvstore: write", path)
	}
	return nil
}
