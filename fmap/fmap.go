// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

// Package fmap applies a function to many independent inputs in parallel.  A
// failing input, including one that panics, doesn't stop the others; results
// are combined by the caller.
package fmap

import (
	"fmt"
	"runtime"
	"runtime/debug"

	"github.com/grailbio/base/errorreporter"
	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/traverse"
)

// Map calls fn(i) for every i in [0, n), running at most parallelism calls
// at a time; parallelism <= 0 means one per CPU.  It returns the error of
// each call (nil on success) and the first error seen, if any.  A panic in
// fn is reported as the error of that input.
func Map(n, parallelism int, fn func(i int) error) ([]error, error) {
	if parallelism <= 0 {
		parallelism = runtime.NumCPU()
	}
	if parallelism > n {
		parallelism = n
	}
	errs := make([]error, n)
	if n == 0 {
		return errs, nil
	}
	var first errorreporter.T
	_ = traverse.Each(parallelism, func(worker int) error {
		for i := worker; i < n; i += parallelism {
			if errs[i] = call(i, fn); errs[i] != nil {
				log.Debug.Printf("fmap: item %d: %v", i, errs[i])
				first.Set(errs[i])
			}
		}
		return nil
	})
	return errs, first.Err()
}

func call(i int, fn func(i int) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error.Printf("fmap: item %d panicked: %v\n%s", i, r, debug.Stack())
			err = errors.E(fmt.Sprintf("fmap: item %d panicked: %v", i, r))
		}
	}()
	return fn(i)
}
