// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

// Package memo caches derived genome data in a kvstore.Dict.
//
// Entries are keyed by the genome's Identity (the parameters that define which
// chromosomes are loaded and how), the derivation name and its arguments.  The
// code of the derivation is not part of the key: after changing how a value
// is computed, the old entries must be dropped with Clear.
package memo

import (
	"bytes"
	"context"
	"encoding/hex"
	"fmt"
	"reflect"
	"sort"
	"sync"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/log"
	"github.com/grailbio/hicgenome/kvstore"
	"github.com/minio/highwayhash"
)

// Identity is the recipe of a genome.  Two genomes with equal identities are
// assumed to produce equal derived data.
type Identity struct {
	// ReadChrms is the chromosome label filter.  Order doesn't matter.
	ReadChrms []string
	// GapFile is the gap annotation path, relative to the genome folder.
	GapFile string
	// FileTemplate is the chromosome file name template.
	FileTemplate string
}

// String returns the canonical form of id.
func (id Identity) String() string {
	chrms := append([]string(nil), id.ReadChrms...)
	sort.Strings(chrms)
	return fmt.Sprintf("chrms=%q gap=%q template=%q", chrms, id.GapFile, id.FileTemplate)
}

var hashKey [highwayhash.Size]byte

// Cache memoizes derivations for one genome.  It is safe for concurrent use,
// but two concurrent misses on the same key both compute.
type Cache struct {
	store *kvstore.Dict
	id    Identity

	mu           sync.Mutex
	hits, misses int
}

// New returns a cache for the genome identified by id, persisted in store.
func New(store *kvstore.Dict, id Identity) *Cache {
	return &Cache{store: store, id: id}
}

// Identity returns the identity the cache was created with.
func (c *Cache) Identity() Identity { return c.id }

// Key returns the store key for derivation name called with args.
func (c *Cache) Key(name string, args ...interface{}) string {
	var buf bytes.Buffer
	buf.WriteString(c.id.String())
	buf.WriteByte(0)
	buf.WriteString(name)
	for _, arg := range args {
		fmt.Fprintf(&buf, "\x00%T:%#v", arg, arg)
	}
	sum := highwayhash.Sum(buf.Bytes(), hashKey[:])
	return name + "/" + hex.EncodeToString(sum[:16])
}

// Do fills result, which must be a pointer, with the value of derivation
// name for args.  If the store holds the value it is decoded into result;
// otherwise compute is called to fill result, and the result is stored.
//
// *[]int64 and *[]float64 results are stored as arrays, anything else is
// gob-encoded.  An entry that can't be read back, e.g. one torn by concurrent
// writers, is discarded and recomputed.
func (c *Cache) Do(ctx context.Context, name string, args []interface{}, result interface{}, compute func() error) error {
	if rv := reflect.ValueOf(result); rv.Kind() != reflect.Ptr || rv.IsNil() {
		return errors.E(errors.Invalid, fmt.Sprintf("memo: result for %s must be a non-nil pointer, got %T", name, result))
	}
	key := c.Key(name, args...)
	if c.store.Contains(key) {
		v, err := c.store.Get(ctx, key)
		if err == nil {
			err = decode(v, result)
		}
		if err == nil {
			c.count(true)
			log.Debug.Printf("memo: %s%v: hit %s", name, args, key)
			return nil
		}
		log.Error.Printf("memo: discarding unreadable entry %s for %s: %v", key, name, err)
		if err := c.store.Delete(ctx, key); err != nil && !errors.Is(errors.NotExist, err) {
			return err
		}
	}
	c.count(false)
	log.Debug.Printf("memo: %s%v: miss %s", name, args, key)
	if err := compute(); err != nil {
		return err
	}
	v, err := encode(result)
	if err != nil {
		return err
	}
	if err := c.store.Set(ctx, key, v); err != nil {
		return errors.E(err, "memo: store", name)
	}
	return nil
}

// Func is a derivation that fills result from args.
type Func func(ctx context.Context, result interface{}, args ...interface{}) error

// Memoize wraps fn so that calls go through the cache under the given name.
func (c *Cache) Memoize(name string, fn Func) Func {
	return func(ctx context.Context, result interface{}, args ...interface{}) error {
		return c.Do(ctx, name, args, result, func() error {
			return fn(ctx, result, args...)
		})
	}
}

// Clear purges every stored derivation.
func (c *Cache) Clear(ctx context.Context) error {
	n := c.store.Len()
	if err := c.store.Clear(ctx); err != nil {
		return err
	}
	log.Printf("memo: cleared %d entries from %s", n, c.store.Dir())
	return nil
}

// Stats returns the number of cache hits and misses so far.
func (c *Cache) Stats() (hits, misses int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits, c.misses
}

func (c *Cache) count(hit bool) {
	c.mu.Lock()
	if hit {
		c.hits++
	} else {
		c.misses++
	}
	c.mu.Unlock()
}

func encode(result interface{}) (kvstore.Value, error) {
	switch r := result.(type) {
	case *[]int64:
		return kvstore.Int64Array(*r), nil
	case *[]float64:
		return kvstore.Float64Array(*r), nil
	}
	return kvstore.Gob(reflect.ValueOf(result).Elem().Interface())
}

func decode(v kvstore.Value, result interface{}) (err error) {
	switch r := result.(type) {
	case *[]int64:
		*r, err = v.Int64s()
	case *[]float64:
		*r, err = v.Float64s()
	default:
		err = v.DecodeGob(result)
	}
	return
}
