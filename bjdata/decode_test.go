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

package bjdata_test

import (
	"encoding/hex"
	"errors"
	"reflect"
	"testing"

	"github.com/x448/float16"

	"github.com/stefanor/pybj/bjdata"
)

type decodeTestDefinition struct {
	Hex     string
	Object  any
	Options []bjdata.Option
}

var decodeTests = []decodeTestDefinition{
	// null
	{
		Hex:    "5A",
		Object: nil,
	},
	// true
	{
		Hex:    "54",
		Object: true,
	},
	// false
	{
		Hex:    "46",
		Object: false,
	},
	// int8 -1
	{
		Hex:    "69FF",
		Object: int8(-1),
	},
	// uint8 200
	{
		Hex:    "55C8",
		Object: uint8(200),
	},
	// int16 -32768
	{
		Hex:    "490080",
		Object: int16(-32768),
	},
	// uint16 456
	{
		Hex:    "75C801",
		Object: uint16(456),
	},
	// int32 -100000
	{
		Hex:    "6C6079FEFF",
		Object: int32(-100000),
	},
	// uint32 3000000000
	{
		Hex:    "6D005ED0B2",
		Object: uint32(3000000000),
	},
	// int64 minimum
	{
		Hex:    "4C0000000000000080",
		Object: int64(-9223372036854775808),
	},
	// uint64 maximum
	{
		Hex:    "4DFFFFFFFFFFFFFFFF",
		Object: uint64(18446744073709551615),
	},
	// float16 1.0
	{
		Hex:    "68003C",
		Object: float16.Fromfloat32(1.0),
	},
	// float32 1.5
	{
		Hex:    "640000C03F",
		Object: float32(1.5),
	},
	// float64 1.1
	{
		Hex:    "449A9999999999F13F",
		Object: float64(1.1),
	},
	// float64 1.0, little-endian payload
	{
		Hex:    "44000000000000F03F",
		Object: float64(1.0),
	},
	// float64 1.0, big-endian payload
	{
		Hex:     "443FF0000000000000",
		Object:  float64(1.0),
		Options: []bjdata.Option{bjdata.WithByteOrder(bjdata.BigEndian)},
	},
	// char 'a'
	{
		Hex:    "4361",
		Object: "a",
	},
	// string "ab"
	{
		Hex:    "5355026162",
		Object: "ab",
	},
	// high-precision decimal -1.5
	{
		Hex:    "4855042D312E35",
		Object: bjdata.Decimal("-1.5"),
	},
	// high-precision decimal with an exponent
	{
		Hex:    "485503316535",
		Object: bjdata.Decimal("1e5"),
	},
	// empty array
	{
		Hex:    "5B5D",
		Object: []any{},
	},
	// unsized array [1, 2]
	{
		Hex:    "5B550155025D",
		Object: []any{uint8(1), uint8(2)},
	},
	// counted array [1, 2]
	{
		Hex:    "5B23550255015502",
		Object: []any{uint8(1), uint8(2)},
	},
	// no-ops between unsized array elements are skipped
	{
		Hex:    "5B4E55014E5D",
		Object: []any{uint8(1)},
	},
	// typed int8 array [-1, -2]
	{
		Hex:    "5B2469235502FFFE",
		Object: []int8{-1, -2},
	},
	// typed uint8 array collapses to a byte block
	{
		Hex:    "5B2455235503010203",
		Object: []byte{1, 2, 3},
	},
	// ...unless byte collapsing is disabled
	{
		Hex:     "5B2455235503010203",
		Object:  []any{uint8(1), uint8(2), uint8(3)},
		Options: []bjdata.Option{bjdata.WithNoBytes(true)},
	},
	// an empty typed container is just the empty container
	{
		Hex:    "5B2469235500",
		Object: []any{},
	},
	// ...except uint8, which keeps its byte block form
	{
		Hex:    "5B2455235500",
		Object: []byte{},
	},
	{
		Hex:     "5B2455235500",
		Object:  []any{},
		Options: []bjdata.Option{bjdata.WithNoBytes(true)},
	},
	// typed uint16 array [456, 10]
	{
		Hex:    "5B2475235502C8010A00",
		Object: []uint16{456, 10},
	},
	// typed char array decodes as a string
	{
		Hex:    "5B24432355026162",
		Object: "ab",
	},
	// typed null array carries no element payload
	{
		Hex:    "5B245A235503",
		Object: []any{nil, nil, nil},
	},
	// typed string array
	{
		Hex:    "5B2453235502550161550162",
		Object: []any{"a", "b"},
	},
	// 2x3 ND-array of int8, counted typed dimension list
	{
		Hex: "5B2469235B24692355020203010203040506",
		Object: bjdata.NDArray{
			Shape: []int{2, 3},
			Data:  []int8{1, 2, 3, 4, 5, 6},
		},
	},
	// 2x2 ND-array of uint8, unsized dimension list
	{
		Hex: "5B2455235B550255025D01020304",
		Object: bjdata.NDArray{
			Shape: []int{2, 2},
			Data:  []byte{1, 2, 3, 4},
		},
	},
	// empty object
	{
		Hex:    "7B7D",
		Object: map[string]any{},
	},
	// unsized object {"a": 1}
	{
		Hex:    "7B55016155017D",
		Object: map[string]any{"a": uint8(1)},
	},
	// counted object {"a": 1}
	{
		Hex:    "7B2355015501615501",
		Object: map[string]any{"a": uint8(1)},
	},
	// typed counted object {"a": 1}
	{
		Hex:    "7B245523550155016101",
		Object: map[string]any{"a": uint8(1)},
	},
	// no-ops between unsized object entries are skipped
	{
		Hex:    "7B4E550161544E7D",
		Object: map[string]any{"a": true},
	},
	// later duplicate keys win
	{
		Hex:    "7B550161550155016155027D",
		Object: map[string]any{"a": uint8(2)},
	},
	// big-endian uint16 456
	{
		Hex:     "7501C8",
		Object:  uint16(456),
		Options: []bjdata.Option{bjdata.WithByteOrder(bjdata.BigEndian)},
	},
	// trailing bytes after a complete value are ignored
	{
		Hex:    "5AFF",
		Object: nil,
	},
	// key interning does not change decoded values
	{
		Hex: "5B7B550161550155016255027D7B550161550355016255047D5D",
		Object: []any{
			map[string]any{"a": uint8(1), "b": uint8(2)},
			map[string]any{"a": uint8(3), "b": uint8(4)},
		},
		Options: []bjdata.Option{bjdata.WithInternKeys(true)},
	},
}

func TestDecode(t *testing.T) {
	for _, test := range decodeTests {
		data, err := hex.DecodeString(test.Hex)
		if err != nil {
			t.Fatalf("failed to decode test hex: %s", err)
		}
		result, err := bjdata.Decode(data, test.Options...)
		if err != nil {
			t.Fatalf("failed to decode %s: %s", test.Hex, err)
		}
		if !reflect.DeepEqual(result, test.Object) {
			t.Fatalf(
				"%s did not decode to expected object\n  got: %#v\n  wanted: %#v",
				test.Hex,
				result,
				test.Object,
			)
		}
	}
}

type decodeErrorTestDefinition struct {
	Hex     string
	Message string
	Options []bjdata.Option
}

var decodeErrorTests = []decodeErrorTestDefinition{
	// empty input
	{
		Hex:     "",
		Message: "insufficient input (type marker)",
	},
	// unknown marker
	{
		Hex:     "01",
		Message: "invalid marker",
	},
	// payload missing entirely
	{
		Hex:     "55",
		Message: "insufficient input (uint8)",
	},
	// payload truncated
	{
		Hex:     "75C8",
		Message: "insufficient (partial) input (uint16)",
	},
	// counted array runs out of elements
	{
		Hex:     "5B2355025501",
		Message: "insufficient input (marker)",
	},
	// container type requires a count
	{
		Hex:     "5B24555D",
		Message: "container type without count",
	},
	// no-op is not a container element type
	{
		Hex:     "5B244E",
		Message: "invalid container type",
	},
	// negative count
	{
		Hex:     "5B2369FF",
		Message: "negative count/length unexpected (container count)",
	},
	// count exceeds the representable range
	{
		Hex:     "5B234DFFFFFFFFFFFFFFFF",
		Message: "count/length too large (container count)",
	},
	// no-op inside a counted container
	{
		Hex:     "5B2355014E",
		Message: "no-op not allowed in sized container",
	},
	// no-op in place of an object value
	{
		Hex:     "7B5501614E",
		Message: "no-op not allowed in place of object value",
	},
	// char outside the single-byte range
	{
		Hex:     "4380",
		Message: "char is not a valid single-byte character",
	},
	// string payload is not UTF-8
	{
		Hex:     "535501FF",
		Message: "string is not valid UTF-8",
	},
	// object key payload is not UTF-8
	{
		Hex:     "7B5501FF",
		Message: "object key is not valid UTF-8",
	},
	// high-precision payload is not a decimal numeral
	{
		Hex:     "48550178",
		Message: "invalid high-precision value",
	},
	// rational syntax is not a decimal numeral ("1/3")
	{
		Hex:     "485503312F33",
		Message: "invalid high-precision value",
	},
	// neither is a bare exponent ("1e")
	{
		Hex:     "4855023165",
		Message: "invalid high-precision value",
	},
	// ND-array element type must be fixed-length
	{
		Hex:     "5B2453235B55015D",
		Message: "invalid ND-array element type",
	},
	// nesting limit
	{
		Hex:     "5B5B5B",
		Message: "maximum container nesting depth exceeded",
		Options: []bjdata.Option{bjdata.WithMaxDepth(2)},
	},
}

func TestDecodeErrors(t *testing.T) {
	for _, test := range decodeErrorTests {
		data, err := hex.DecodeString(test.Hex)
		if err != nil {
			t.Fatalf("failed to decode test hex: %s", err)
		}
		_, err = bjdata.Decode(data, test.Options...)
		if err == nil {
			t.Fatalf("expected decoding %s to fail", test.Hex)
		}
		var decErr *bjdata.DecodeError
		if !errors.As(err, &decErr) {
			t.Fatalf("expected a DecodeError, got %T: %s", err, err)
		}
		if decErr.Message != test.Message {
			t.Fatalf(
				"did not get expected error for %s\n  got: %q\n  wanted: %q",
				test.Hex,
				decErr.Message,
				test.Message,
			)
		}
	}
}

func TestDecodeErrorOffset(t *testing.T) {
	// The uint16 marker promises two payload bytes; only one is present.
	data, _ := hex.DecodeString("75C8")
	_, err := bjdata.Decode(data)
	var decErr *bjdata.DecodeError
	if !errors.As(err, &decErr) {
		t.Fatalf("expected a DecodeError, got %T: %s", err, err)
	}
	if decErr.Offset != 2 {
		t.Fatalf("expected error at byte 2, got %d", decErr.Offset)
	}
}

func TestDecodeObjectHook(t *testing.T) {
	data, _ := hex.DecodeString("7B55016155017D")
	result, err := bjdata.Decode(
		data,
		bjdata.WithObjectHook(func(obj map[string]any) (any, error) {
			return len(obj), nil
		}),
	)
	if err != nil {
		t.Fatalf("failed to decode: %s", err)
	}
	if !reflect.DeepEqual(result, 1) {
		t.Fatalf("object hook result not applied, got %#v", result)
	}
}

func TestDecodePairsHook(t *testing.T) {
	// {"a": 1, "b": 2, "a": 3} with a duplicate key
	data, _ := hex.DecodeString("7B5501615501550162550255016155037D")
	result, err := bjdata.Decode(
		data,
		bjdata.WithPairsHook(func(pairs []bjdata.KeyValue) (any, error) {
			return pairs, nil
		}),
	)
	if err != nil {
		t.Fatalf("failed to decode: %s", err)
	}
	expected := []bjdata.KeyValue{
		{Key: "a", Value: uint8(1)},
		{Key: "b", Value: uint8(2)},
		{Key: "a", Value: uint8(3)},
	}
	if !reflect.DeepEqual(result, expected) {
		t.Fatalf(
			"pairs hook did not see ordered entries\n  got: %#v\n  wanted: %#v",
			result,
			expected,
		)
	}
}
