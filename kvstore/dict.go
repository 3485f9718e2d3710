// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

// Package kvstore implements a persistent, string-keyed dictionary whose
// values are either numeric arrays (dtype and shape preserved) or opaque
// serialized bytes.
//
// Each key is stored in its own single-block recordio file under the store
// directory.  The key, kind, dtype, shape and a checksum of the payload live
// in the recordio header, so opening a store only reads headers; payloads are
// read on Get.  Writes are last-writer-wins: two processes writing the same
// key concurrently may leave either version behind, and a torn write is
// reported as an errors.Integrity error by Get.
package kvstore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/biogo/store/llrb"
	"github.com/grailbio/base/errorreporter"
	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/log"
)

// SelfKey is reserved for the store's own bookkeeping and may not be used as
// a key.
const SelfKey = "_self_key"

const fileSuffix = ".rio"

// Compression names accepted by Opts.Compression.
const (
	CompressionZstd   = "zstd"
	CompressionSnappy = "snappy"
	CompressionNone   = "none"
)

// Opts controls Dict behavior.
type Opts struct {
	// InMemory keeps all values in memory; nothing is written to the
	// directory, which may be empty.
	InMemory bool
	// NoAutoFlush defers writes until Flush or Close.  By default every Set
	// and Delete is applied to storage immediately.
	NoAutoFlush bool
	// Compression is one of CompressionZstd (default), CompressionSnappy,
	// or CompressionNone.
	Compression string
}

// DefaultOpts is the default Dict configuration.
var DefaultOpts = Opts{Compression: CompressionZstd}

// entry is one key in the index.  value is non-nil for in-memory stores and
// for entries with unflushed writes.
type entry struct {
	key   string
	kind  Kind
	path  string
	value *Value
	dirty bool
}

// Compare implements llrb.Comparable.
func (e *entry) Compare(c llrb.Comparable) int {
	return strings.Compare(e.key, c.(*entry).key)
}

// Dict is a persistent dictionary.  It is safe for concurrent use within one
// process; see the package comment for cross-process behavior.
type Dict struct {
	dir  string
	opts Opts

	mu    sync.Mutex
	index llrb.Tree // *entry, ordered by key.
	// pendingDeletes holds files of deleted keys that NoAutoFlush hasn't
	// removed yet.
	pendingDeletes []string
}

// Open opens (creating if needed) the store rooted at dir.
func Open(ctx context.Context, dir string, opts Opts) (*Dict, error) {
	if opts.Compression == "" {
		opts.Compression = CompressionZstd
	}
	switch opts.Compression {
	case CompressionZstd, CompressionSnappy, CompressionNone:
	default:
		return nil, errors.E(errors.Invalid, "kvstore: unknown compression", opts.Compression)
	}
	d := &Dict{dir: dir, opts: opts}
	if opts.InMemory {
		return d, nil
	}
	if scheme, _, err := file.ParsePath(dir); err == nil && scheme == "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, errors.E(err, "kvstore: create", dir)
		}
	}
	lister := file.List(ctx, dir, false)
	for lister.Scan() {
		if lister.IsDir() || !strings.HasSuffix(lister.Path(), fileSuffix) {
			continue
		}
		h, err := readHeader(ctx, lister.Path())
		if err != nil {
			log.Error.Printf("kvstore: skipping unreadable entry %s: %v", lister.Path(), err)
			continue
		}
		d.index.Insert(&entry{key: h.key, kind: h.kind, path: lister.Path()})
	}
	if err := lister.Err(); err != nil {
		return nil, errors.E(err, "kvstore: list", dir)
	}
	log.Debug.Printf("kvstore: opened %s with %d keys", dir, d.index.Len())
	return d, nil
}

// Dir returns the directory the store was opened on.
func (d *Dict) Dir() string { return d.dir }

func checkKey(key string) error {
	if key == SelfKey {
		return errors.E(errors.Invalid, fmt.Sprintf("kvstore: key %q is reserved", SelfKey))
	}
	if key == "" {
		return errors.E(errors.Invalid, "kvstore: empty key")
	}
	return nil
}

func (d *Dict) lookup(key string) *entry {
	c := d.index.Get(&entry{key: key})
	if c == nil {
		return nil
	}
	return c.(*entry)
}

// Contains reports whether key is present.
func (d *Dict) Contains(key string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return key != SelfKey && d.lookup(key) != nil
}

// Len returns the number of keys.
func (d *Dict) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.index.Len()
}

// Keys returns all keys in ascending order.
func (d *Dict) Keys() []string {
	return d.keys(func(*entry) bool { return true })
}

// ArrayKeys returns the keys whose values are arrays, in ascending order.
func (d *Dict) ArrayKeys() []string {
	return d.keys(func(e *entry) bool { return e.kind == KindArray })
}

func (d *Dict) keys(pred func(*entry) bool) []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	var keys []string
	d.index.Do(func(c llrb.Comparable) bool {
		if e := c.(*entry); pred(e) {
			keys = append(keys, e.key)
		}
		return false
	})
	return keys
}

// Get returns the value stored under key.  It returns an errors.NotExist
// error if the key is absent.
func (d *Dict) Get(ctx context.Context, key string) (Value, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	e := d.lookup(key)
	if e == nil || key == SelfKey {
		return Value{}, errors.E(errors.NotExist, fmt.Sprintf("kvstore: %q is not in the keys", key))
	}
	if e.value != nil {
		return *e.value, nil
	}
	return readEntry(ctx, e.path)
}

// Set stores v under key, replacing any previous value.
func (d *Dict) Set(ctx context.Context, key string, v Value) error {
	if err := checkKey(key); err != nil {
		return err
	}
	if err := v.validate(); err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	e := d.lookup(key)
	if e == nil {
		e = &entry{key: key, path: d.pathFor(key)}
		d.index.Insert(e)
	}
	e.kind = v.Kind
	val := v
	e.value = &val
	e.dirty = true
	if d.opts.InMemory || d.opts.NoAutoFlush {
		return nil
	}
	return d.flushEntry(ctx, e)
}

// SetEmptyArray stores a zero-filled array of the given shape and dtype.
func (d *Dict) SetEmptyArray(ctx context.Context, key string, shape []int, dtype DType) error {
	return d.Set(ctx, key, EmptyArray(shape, dtype))
}

// Update stores every key of values.
func (d *Dict) Update(ctx context.Context, values map[string]Value) error {
	for k, v := range values {
		if err := d.Set(ctx, k, v); err != nil {
			return err
		}
	}
	return nil
}

// Delete removes key.  It returns an errors.NotExist error if the key is
// absent.
func (d *Dict) Delete(ctx context.Context, key string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.deleteLocked(ctx, key)
}

func (d *Dict) deleteLocked(ctx context.Context, key string) error {
	e := d.lookup(key)
	if e == nil || key == SelfKey {
		return errors.E(errors.NotExist, fmt.Sprintf("kvstore: %q is not in the keys", key))
	}
	d.index.Delete(e)
	if d.opts.InMemory {
		return nil
	}
	if d.opts.NoAutoFlush {
		d.pendingDeletes = append(d.pendingDeletes, e.path)
		return nil
	}
	return removeFile(ctx, e.path)
}

// Clear removes every key.
func (d *Dict) Clear(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	var keys []string
	d.index.Do(func(c llrb.Comparable) bool {
		keys = append(keys, c.(*entry).key)
		return false
	})
	err := errorreporter.T{}
	for _, k := range keys {
		err.Set(d.deleteLocked(ctx, k))
	}
	return err.Err()
}

// Flush writes all pending changes to storage.
func (d *Dict) Flush(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.opts.InMemory {
		return nil
	}
	err := errorreporter.T{}
	for _, path := range d.pendingDeletes {
		err.Set(removeFile(ctx, path))
	}
	d.pendingDeletes = nil
	d.index.Do(func(c llrb.Comparable) bool {
		if e := c.(*entry); e.dirty {
			err.Set(d.flushEntry(ctx, e))
		}
		return false
	})
	return err.Err()
}

// Close flushes pending changes.  The Dict must not be used afterwards.
func (d *Dict) Close(ctx context.Context) error {
	return d.Flush(ctx)
}

// flushEntry writes e.value to e.path.  Requires d.mu.
func (d *Dict) flushEntry(ctx context.Context, e *entry) error {
	if err := writeEntry(ctx, e.path, e.key, *e.value, d.opts.Compression); err != nil {
		return err
	}
	e.dirty = false
	e.value = nil
	return nil
}

func (d *Dict) pathFor(key string) string {
	return filepath.Join(d.dir, entryFileName(key))
}

func removeFile(ctx context.Context, path string) error {
	if err := file.Remove(ctx, path); err != nil && !os.IsNotExist(err) && !errors.Is(errors.NotExist, err) {
		return errors.E(err, "kvstore: remove", path)
	}
	return nil
}
