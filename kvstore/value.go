// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package kvstore

import (
	"bytes"
	"encoding/binary"
	"encoding/gob"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/grailbio/base/errors"
)

// Kind distinguishes numeric arrays from opaque serialized values.
type Kind uint8

const (
	// KindArray values hold a flat little-endian numeric array of DType
	// elements, with Shape giving its dimensions.
	KindArray Kind = iota + 1
	// KindOpaque values hold arbitrary serialized bytes.
	KindOpaque
)

func (k Kind) String() string {
	switch k {
	case KindArray:
		return "array"
	case KindOpaque:
		return "opaque"
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

func parseKind(s string) (Kind, error) {
	switch s {
	case "array":
		return KindArray, nil
	case "opaque":
		return KindOpaque, nil
	}
	return 0, errors.E(errors.Invalid, "kvstore: unknown value kind", s)
}

// DType is the element type of an array value.
type DType uint8

const (
	Int64 DType = iota + 1
	Float64
	Int32
	Uint8
)

// Size returns the number of bytes per element.
func (d DType) Size() int {
	switch d {
	case Int64, Float64:
		return 8
	case Int32:
		return 4
	case Uint8:
		return 1
	}
	return 0
}

func (d DType) String() string {
	switch d {
	case Int64:
		return "int64"
	case Float64:
		return "float64"
	case Int32:
		return "int32"
	case Uint8:
		return "uint8"
	}
	return ""
}

func parseDType(s string) (DType, error) {
	for _, d := range []DType{Int64, Float64, Int32, Uint8} {
		if d.String() == s {
			return d, nil
		}
	}
	return 0, errors.E(errors.Invalid, "kvstore: unknown dtype", s)
}

// Value is one entry of a Dict.  It is a tagged variant: either an array with
// a preserved dtype and shape, or opaque bytes.
type Value struct {
	Kind  Kind
	DType DType // KindArray only
	Shape []int // KindArray only
	Data  []byte
}

// Int64Array returns a one-dimensional array value holding v.
func Int64Array(v []int64) Value {
	data := make([]byte, 8*len(v))
	for i, x := range v {
		binary.LittleEndian.PutUint64(data[8*i:], uint64(x))
	}
	return Value{Kind: KindArray, DType: Int64, Shape: []int{len(v)}, Data: data}
}

// Float64Array returns a one-dimensional array value holding v.
func Float64Array(v []float64) Value {
	data := make([]byte, 8*len(v))
	for i, x := range v {
		binary.LittleEndian.PutUint64(data[8*i:], math.Float64bits(x))
	}
	return Value{Kind: KindArray, DType: Float64, Shape: []int{len(v)}, Data: data}
}

// EmptyArray returns a zero-filled array value of the given shape and dtype.
func EmptyArray(shape []int, dtype DType) Value {
	n := 1
	for _, s := range shape {
		n *= s
	}
	return Value{
		Kind:  KindArray,
		DType: dtype,
		Shape: append([]int(nil), shape...),
		Data:  make([]byte, n*dtype.Size()),
	}
}

// Opaque returns an opaque value wrapping b.
func Opaque(b []byte) Value {
	return Value{Kind: KindOpaque, Data: b}
}

// Gob serializes x with encoding/gob and wraps the result in an opaque value.
func Gob(x interface{}) (Value, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(x); err != nil {
		return Value{}, errors.E(err, "kvstore: gob encode")
	}
	return Opaque(buf.Bytes()), nil
}

// DecodeGob deserializes an opaque value created by Gob into x, which must be
// a pointer.
func (v Value) DecodeGob(x interface{}) error {
	if v.Kind != KindOpaque {
		return errors.E(errors.Invalid, fmt.Sprintf("kvstore: DecodeGob on %v value", v.Kind))
	}
	if err := gob.NewDecoder(bytes.NewReader(v.Data)).Decode(x); err != nil {
		return errors.E(errors.Integrity, err, "kvstore: gob decode")
	}
	return nil
}

// Len returns the number of array elements, or the number of bytes of an
// opaque value.
func (v Value) Len() int {
	if v.Kind == KindArray && v.DType.Size() > 0 {
		return len(v.Data) / v.DType.Size()
	}
	return len(v.Data)
}

// Int64s returns the elements of an Int64 array value.
func (v Value) Int64s() ([]int64, error) {
	if v.Kind != KindArray || v.DType != Int64 {
		return nil, errors.E(errors.Invalid, fmt.Sprintf("kvstore: value is %v/%v, not an int64 array", v.Kind, v.DType))
	}
	out := make([]int64, len(v.Data)/8)
	for i := range out {
		out[i] = int64(binary.LittleEndian.Uint64(v.Data[8*i:]))
	}
	return out, nil
}

// Float64s returns the elements of a Float64 array value.
func (v Value) Float64s() ([]float64, error) {
	if v.Kind != KindArray || v.DType != Float64 {
		return nil, errors.E(errors.Invalid, fmt.Sprintf("kvstore: value is %v/%v, not a float64 array", v.Kind, v.DType))
	}
	out := make([]float64, len(v.Data)/8)
	for i := range out {
		out[i] = math.Float64frombits(binary.LittleEndian.Uint64(v.Data[8*i:]))
	}
	return out, nil
}

func (v Value) validate() error {
	switch v.Kind {
	case KindOpaque:
		return nil
	case KindArray:
		if v.DType.Size() == 0 {
			return errors.E(errors.Invalid, "kvstore: array value without a dtype")
		}
		n := 1
		for _, s := range v.Shape {
			if s < 0 {
				return errors.E(errors.Invalid, "kvstore: negative dimension in shape", fmt.Sprint(v.Shape))
			}
			n *= s
		}
		if n*v.DType.Size() != len(v.Data) {
			return errors.E(errors.Invalid, fmt.Sprintf("kvstore: shape %v does not match %d bytes of %v", v.Shape, len(v.Data), v.DType))
		}
		return nil
	}
	return errors.E(errors.Invalid, "kvstore: value has no kind")
}

func formatShape(shape []int) string {
	parts := make([]string, len(shape))
	for i, s := range shape {
		parts[i] = strconv.Itoa(s)
	}
	return strings.Join(parts, ",")
}

func parseShape(s string) ([]int, error) {
	if s == "" {
		return []int{}, nil
	}
	parts := strings.Split(s, ",")
	shape := make([]int, len(parts))
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return nil, errors.E(errors.Integrity, err, "kvstore: bad shape", s)
		}
		shape[i] = n
	}
	return shape, nil
}
