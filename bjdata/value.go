// Copyright 2026 The pybj authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package bjdata

import (
	"math/big"

	"github.com/x448/float16"
)

// Decimal is an arbitrary-precision decimal number, carried as its ASCII
// numeral text. It maps to the high-precision ('H') wire type.
type Decimal string

// Rat returns the decimal as a rational number, or false if the text does
// not parse as one.
func (d Decimal) Rat() (*big.Rat, bool) {
	return new(big.Rat).SetString(string(d))
}

// Valid reports whether the text is a plain decimal numeral: an optional
// sign, digits with an optional fractional part, and an optional base-10
// exponent. Rational (a/b) and non-decimal float syntax is not a valid
// high-precision payload.
func (d Decimal) Valid() bool {
	s := string(d)
	i := 0
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		i++
	}
	digits := 0
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
		digits++
	}
	if i < len(s) && s[i] == '.' {
		i++
		for i < len(s) && s[i] >= '0' && s[i] <= '9' {
			i++
			digits++
		}
	}
	if digits == 0 {
		return false
	}
	if i < len(s) && (s[i] == 'e' || s[i] == 'E') {
		i++
		if i < len(s) && (s[i] == '+' || s[i] == '-') {
			i++
		}
		expDigits := 0
		for i < len(s) && s[i] >= '0' && s[i] <= '9' {
			i++
			expDigits++
		}
		if expDigits == 0 {
			return false
		}
	}
	return i == len(s)
}

func (d Decimal) String() string {
	return string(d)
}

// KeyValue is a single entry of an object decoded in pairs mode, preserving
// input order and duplicate keys.
type KeyValue struct {
	Key   string
	Value any
}

// NDArray is an N-dimensional packed numeric array. Data holds the elements
// as a flat, row-major typed slice ([]int8, []uint16, []float64,
// []float16.Float16, ...) or a string for char elements. Shape holds the
// per-axis lengths; the product of the axis lengths equals the element count.
type NDArray struct {
	Shape []int
	Data  any
}

// Len returns the total number of elements described by the shape.
func (a NDArray) Len() int {
	n := 1
	for _, dim := range a.Shape {
		n *= dim
	}
	return n
}

// elemMarker returns the wire type marker for the element type of a typed
// slice, or markerNone if the value is not a supported typed slice.
func elemMarker(data any) byte {
	switch data.(type) {
	case []int8:
		return markerInt8
	case []uint8:
		return markerUint8
	case []int16:
		return markerInt16
	case []uint16:
		return markerUint16
	case []int32:
		return markerInt32
	case []uint32:
		return markerUint32
	case []int64, []int:
		return markerInt64
	case []uint64, []uint:
		return markerUint64
	case []float16.Float16:
		return markerFloat16
	case []float32:
		return markerFloat32
	case []float64:
		return markerFloat64
	case string:
		return markerChar
	}
	return markerNone
}

func dataLen(data any) int {
	switch v := data.(type) {
	case []int8:
		return len(v)
	case []uint8:
		return len(v)
	case []int16:
		return len(v)
	case []uint16:
		return len(v)
	case []int32:
		return len(v)
	case []uint32:
		return len(v)
	case []int64:
		return len(v)
	case []uint64:
		return len(v)
	case []int:
		return len(v)
	case []uint:
		return len(v)
	case []float16.Float16:
		return len(v)
	case []float32:
		return len(v)
	case []float64:
		return len(v)
	case string:
		return len(v)
	}
	return 0
}
