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
	"math"
	"math/big"
	"reflect"
	"sort"
	"unicode/utf8"

	"github.com/x448/float16"
)

type encoder struct {
	cfg     Config
	buf     *writeBuffer
	scratch [8]byte
	// active holds the identities of containers currently being encoded,
	// for circular reference detection.
	active []uintptr
}

// push records a container's identity before its elements are encoded. For
// slices the identity is the address of element 0, so a sibling slice
// sharing the same backing array reads as the same container here.
func (e *encoder) push(v any) error {
	ptr := reflect.ValueOf(v).Pointer()
	for _, p := range e.active {
		if p == ptr {
			return encodeErrorf("circular reference detected")
		}
	}
	e.active = append(e.active, ptr)
	return nil
}

func (e *encoder) pop() {
	e.active = e.active[:len(e.active)-1]
}

// encodeValue writes the full encoding of v. allowDefault permits one
// DefaultEncoder conversion for values outside the encodable set; the
// conversion result must itself be encodable without further conversion.
func (e *encoder) encodeValue(v any, allowDefault bool) error {
	switch val := v.(type) {
	case nil:
		return e.buf.writeByte(markerNull)
	case bool:
		if val {
			return e.buf.writeByte(markerTrue)
		}
		return e.buf.writeByte(markerFalse)
	case int:
		return e.encodeInt(int64(val))
	case int8:
		return e.encodeInt(int64(val))
	case int16:
		return e.encodeInt(int64(val))
	case int32:
		return e.encodeInt(int64(val))
	case int64:
		return e.encodeInt(val)
	case uint:
		return e.encodeUint(uint64(val))
	case uint8:
		return e.encodeUint(uint64(val))
	case uint16:
		return e.encodeUint(uint64(val))
	case uint32:
		return e.encodeUint(uint64(val))
	case uint64:
		return e.encodeUint(val)
	case float16.Float16:
		if err := e.buf.writeByte(markerFloat16); err != nil {
			return err
		}
		return e.writeUint16(val.Bits())
	case float32:
		if err := e.buf.writeByte(markerFloat32); err != nil {
			return err
		}
		return e.writeUint32(math.Float32bits(val))
	case float64:
		return e.encodeFloat64(val)
	case Decimal:
		if !val.Valid() {
			return encodeErrorf("invalid decimal value %q", string(val))
		}
		return e.encodeHighPrec(string(val))
	case *big.Int:
		if val == nil {
			return e.buf.writeByte(markerNull)
		}
		return e.encodeHighPrec(val.String())
	case string:
		return e.encodeString(val)
	case []byte:
		return e.encodeBytes(val)
	case []int8, []int16, []uint16, []int32, []uint32,
		[]int64, []uint64, []int, []uint,
		[]float16.Float16, []float32, []float64:
		return e.encodeTypedArray(val)
	case NDArray:
		return e.encodeNDArray(val)
	case []any:
		return e.encodeArray(val)
	case map[string]any:
		return e.encodeObject(val)
	case []KeyValue:
		return e.encodePairs(val)
	}
	if allowDefault && e.cfg.DefaultEncoder != nil {
		conv, err := e.cfg.DefaultEncoder(v)
		if err != nil {
			return err
		}
		return e.encodeValue(conv, false)
	}
	return encodeErrorf("unable to encode value of type %T", v)
}

func (e *encoder) writeUint16(v uint16) error {
	e.cfg.ByteOrder.binary().PutUint16(e.scratch[:2], v)
	return e.buf.write(e.scratch[:2])
}

func (e *encoder) writeUint32(v uint32) error {
	e.cfg.ByteOrder.binary().PutUint32(e.scratch[:4], v)
	return e.buf.write(e.scratch[:4])
}

func (e *encoder) writeUint64(v uint64) error {
	e.cfg.ByteOrder.binary().PutUint64(e.scratch[:8], v)
	return e.buf.write(e.scratch[:8])
}

// encodeInt writes v with the narrowest marker that can represent it.
// Non-negative values prefer the unsigned ladder, matching how counts and
// lengths are written.
func (e *encoder) encodeInt(v int64) error {
	if v >= 0 {
		return e.encodeUint(uint64(v))
	}
	switch {
	case v >= math.MinInt8:
		if err := e.buf.writeByte(markerInt8); err != nil {
			return err
		}
		return e.buf.writeByte(byte(int8(v)))
	case v >= math.MinInt16:
		if err := e.buf.writeByte(markerInt16); err != nil {
			return err
		}
		return e.writeUint16(uint16(int16(v)))
	case v >= math.MinInt32:
		if err := e.buf.writeByte(markerInt32); err != nil {
			return err
		}
		return e.writeUint32(uint32(int32(v)))
	default:
		if err := e.buf.writeByte(markerInt64); err != nil {
			return err
		}
		return e.writeUint64(uint64(v))
	}
}

func (e *encoder) encodeUint(v uint64) error {
	switch {
	case v <= math.MaxUint8:
		if err := e.buf.writeByte(markerUint8); err != nil {
			return err
		}
		return e.buf.writeByte(byte(v))
	case v <= math.MaxUint16:
		if err := e.buf.writeByte(markerUint16); err != nil {
			return err
		}
		return e.writeUint16(uint16(v))
	case v <= math.MaxUint32:
		if err := e.buf.writeByte(markerUint32); err != nil {
			return err
		}
		return e.writeUint32(uint32(v))
	default:
		if err := e.buf.writeByte(markerUint64); err != nil {
			return err
		}
		return e.writeUint64(v)
	}
}

// encodeFloat64 narrows to float32 only when the narrower representation is
// bit-exact on conversion back, so no precision is lost. NaN and the
// infinities always stay at full width.
func (e *encoder) encodeFloat64(v float64) error {
	if !e.cfg.NoFloat32 && !math.IsNaN(v) && !math.IsInf(v, 0) &&
		float64(float32(v)) == v {
		if err := e.buf.writeByte(markerFloat32); err != nil {
			return err
		}
		return e.writeUint32(math.Float32bits(float32(v)))
	}
	if err := e.buf.writeByte(markerFloat64); err != nil {
		return err
	}
	return e.writeUint64(math.Float64bits(v))
}

// encodeLen writes a length or count token: an integer marker plus payload.
func (e *encoder) encodeLen(n int) error {
	return e.encodeUint(uint64(n))
}

func (e *encoder) encodeString(s string) error {
	// A single ASCII byte takes the char marker; everything else is a
	// length-prefixed string.
	if len(s) == 1 && s[0] < utf8.RuneSelf {
		if err := e.buf.writeByte(markerChar); err != nil {
			return err
		}
		return e.buf.writeByte(s[0])
	}
	if err := e.buf.writeByte(markerString); err != nil {
		return err
	}
	if err := e.encodeLen(len(s)); err != nil {
		return err
	}
	return e.buf.writeString(s)
}

func (e *encoder) encodeHighPrec(s string) error {
	if err := e.buf.writeByte(markerHighPrec); err != nil {
		return err
	}
	if err := e.encodeLen(len(s)); err != nil {
		return err
	}
	return e.buf.writeString(s)
}

// encodeKey writes an object key, which is a bare length-prefixed string
// without the 'S' marker.
func (e *encoder) encodeKey(s string) error {
	if err := e.encodeLen(len(s)); err != nil {
		return err
	}
	return e.buf.writeString(s)
}

func (e *encoder) encodeBytes(data []byte) error {
	if err := e.writeTypedHeader(markerUint8, len(data)); err != nil {
		return err
	}
	return e.buf.write(data)
}

func (e *encoder) writeTypedHeader(elemType byte, count int) error {
	if err := e.buf.writeByte(arrayStart); err != nil {
		return err
	}
	if err := e.buf.writeByte(containerType); err != nil {
		return err
	}
	if err := e.buf.writeByte(elemType); err != nil {
		return err
	}
	if err := e.buf.writeByte(containerCount); err != nil {
		return err
	}
	return e.encodeLen(count)
}

func (e *encoder) encodeTypedArray(data any) error {
	t := elemMarker(data)
	if err := e.writeTypedHeader(t, dataLen(data)); err != nil {
		return err
	}
	return e.writeTypedData(data)
}

func (e *encoder) writeTypedData(data any) error {
	switch v := data.(type) {
	case []int8:
		for _, n := range v {
			if err := e.buf.writeByte(byte(n)); err != nil {
				return err
			}
		}
	case []uint8:
		return e.buf.write(v)
	case []int16:
		for _, n := range v {
			if err := e.writeUint16(uint16(n)); err != nil {
				return err
			}
		}
	case []uint16:
		for _, n := range v {
			if err := e.writeUint16(n); err != nil {
				return err
			}
		}
	case []int32:
		for _, n := range v {
			if err := e.writeUint32(uint32(n)); err != nil {
				return err
			}
		}
	case []uint32:
		for _, n := range v {
			if err := e.writeUint32(n); err != nil {
				return err
			}
		}
	case []int64:
		for _, n := range v {
			if err := e.writeUint64(uint64(n)); err != nil {
				return err
			}
		}
	case []uint64:
		for _, n := range v {
			if err := e.writeUint64(n); err != nil {
				return err
			}
		}
	case []int:
		for _, n := range v {
			if err := e.writeUint64(uint64(n)); err != nil {
				return err
			}
		}
	case []uint:
		for _, n := range v {
			if err := e.writeUint64(uint64(n)); err != nil {
				return err
			}
		}
	case []float16.Float16:
		for _, n := range v {
			if err := e.writeUint16(n.Bits()); err != nil {
				return err
			}
		}
	case []float32:
		for _, n := range v {
			if err := e.writeUint32(math.Float32bits(n)); err != nil {
				return err
			}
		}
	case []float64:
		for _, n := range v {
			if err := e.writeUint64(math.Float64bits(n)); err != nil {
				return err
			}
		}
	case string:
		return e.buf.writeString(v)
	default:
		return encodeErrorf("unable to encode value of type %T", data)
	}
	return nil
}

func (e *encoder) encodeNDArray(a NDArray) error {
	t := elemMarker(a.Data)
	if t == markerNone {
		return encodeErrorf("unable to encode ND-array data of type %T", a.Data)
	}
	if len(a.Shape) == 0 {
		return encodeErrorf("ND-array has no shape")
	}
	total := 1
	for _, dim := range a.Shape {
		if dim < 0 {
			return encodeErrorf("ND-array has negative dimension %d", dim)
		}
		total *= dim
	}
	if total != dataLen(a.Data) {
		return encodeErrorf("ND-array shape describes %d elements, data holds %d",
			total, dataLen(a.Data))
	}
	if err := e.buf.writeByte(arrayStart); err != nil {
		return err
	}
	if err := e.buf.writeByte(containerType); err != nil {
		return err
	}
	if err := e.buf.writeByte(t); err != nil {
		return err
	}
	if err := e.buf.writeByte(containerCount); err != nil {
		return err
	}
	if err := e.buf.writeByte(arrayStart); err != nil {
		return err
	}
	for _, dim := range a.Shape {
		if err := e.encodeLen(dim); err != nil {
			return err
		}
	}
	if err := e.buf.writeByte(arrayEnd); err != nil {
		return err
	}
	return e.writeTypedData(a.Data)
}

func (e *encoder) encodeArray(arr []any) error {
	if len(arr) > 0 {
		if err := e.push(arr); err != nil {
			return err
		}
		defer e.pop()
	}
	if err := e.buf.writeByte(arrayStart); err != nil {
		return err
	}
	if e.cfg.ContainerCount {
		if err := e.buf.writeByte(containerCount); err != nil {
			return err
		}
		if err := e.encodeLen(len(arr)); err != nil {
			return err
		}
	}
	for _, v := range arr {
		if err := e.encodeValue(v, true); err != nil {
			return err
		}
	}
	if e.cfg.ContainerCount {
		return nil
	}
	return e.buf.writeByte(arrayEnd)
}

func (e *encoder) encodeObject(obj map[string]any) error {
	if len(obj) > 0 {
		if err := e.push(obj); err != nil {
			return err
		}
		defer e.pop()
	}
	if err := e.buf.writeByte(objectStart); err != nil {
		return err
	}
	if e.cfg.ContainerCount {
		if err := e.buf.writeByte(containerCount); err != nil {
			return err
		}
		if err := e.encodeLen(len(obj)); err != nil {
			return err
		}
	}
	if e.cfg.SortKeys {
		keys := make([]string, 0, len(obj))
		for k := range obj {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			if err := e.encodeEntry(k, obj[k]); err != nil {
				return err
			}
		}
	} else {
		for k, v := range obj {
			if err := e.encodeEntry(k, v); err != nil {
				return err
			}
		}
	}
	if e.cfg.ContainerCount {
		return nil
	}
	return e.buf.writeByte(objectEnd)
}

func (e *encoder) encodePairs(pairs []KeyValue) error {
	if len(pairs) > 0 {
		if err := e.push(pairs); err != nil {
			return err
		}
		defer e.pop()
	}
	if err := e.buf.writeByte(objectStart); err != nil {
		return err
	}
	if e.cfg.ContainerCount {
		if err := e.buf.writeByte(containerCount); err != nil {
			return err
		}
		if err := e.encodeLen(len(pairs)); err != nil {
			return err
		}
	}
	if e.cfg.SortKeys {
		sorted := make([]KeyValue, len(pairs))
		copy(sorted, pairs)
		sort.SliceStable(sorted, func(i, j int) bool {
			return sorted[i].Key < sorted[j].Key
		})
		pairs = sorted
	}
	for _, kv := range pairs {
		if err := e.encodeEntry(kv.Key, kv.Value); err != nil {
			return err
		}
	}
	if e.cfg.ContainerCount {
		return nil
	}
	return e.buf.writeByte(objectEnd)
}

func (e *encoder) encodeEntry(key string, value any) error {
	if err := e.encodeKey(key); err != nil {
		return err
	}
	return e.encodeValue(value, true)
}
