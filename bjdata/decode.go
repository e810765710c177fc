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
	"unicode/utf8"

	"github.com/x448/float16"
)

// allocStep caps how much memory a single declared length can make the
// decoder allocate up front. Larger payloads grow in steps, so a corrupt
// or hostile length fails with an input error instead of an OOM.
const allocStep = 1 << 20

// maxNoDataCount limits counted containers of no-payload element types,
// whose declared size is not backed by input bytes.
const maxNoDataCount = 1 << 24

type decoder struct {
	r        byteReader
	cfg      Config
	depth    int
	interned map[string]string
}

func (d *decoder) errAt(msg string) error {
	return &DecodeError{Message: msg, Offset: d.r.offset()}
}

func (d *decoder) enter() error {
	d.depth++
	limit := d.cfg.MaxDepth
	if limit <= 0 {
		limit = DefaultMaxDepth
	}
	if d.depth > limit {
		return d.errAt("maximum container nesting depth exceeded")
	}
	return nil
}

func (d *decoder) leave() {
	d.depth--
}

// readExact reads exactly n bytes. The returned slice is only valid until
// the next read on the same decoder.
func (d *decoder) readExact(n int, what string) ([]byte, error) {
	buf, err := d.r.read(n, nil)
	if err != nil {
		return nil, err
	}
	if len(buf) == 0 {
		return nil, d.errAt("insufficient input (" + what + ")")
	}
	if len(buf) < n {
		return nil, d.errAt("insufficient (partial) input (" + what + ")")
	}
	return buf, nil
}

func (d *decoder) readMarker(what string) (byte, error) {
	buf, err := d.readExact(1, what)
	if err != nil {
		return 0, err
	}
	return buf[0], nil
}

// readAlloc reads n bytes into a freshly allocated buffer owned by the
// caller. Allocation grows in allocStep increments so that a bogus length
// cannot demand gigabytes before the input runs dry.
func (d *decoder) readAlloc(n int64, what string) ([]byte, error) {
	if n <= allocStep {
		buf, err := d.r.read(int(n), make([]byte, n))
		if err != nil {
			return nil, err
		}
		if int64(len(buf)) < n {
			return nil, d.errAt("insufficient (partial) input (" + what + ")")
		}
		return buf, nil
	}
	out := make([]byte, 0, allocStep)
	for n > 0 {
		step := n
		if step > allocStep {
			step = allocStep
		}
		chunk, err := d.readExact(int(step), what)
		if err != nil {
			return nil, err
		}
		out = append(out, chunk...)
		n -= step
	}
	return out, nil
}

// decodeLength reads the payload of an already-consumed integer marker and
// returns it as a non-negative count.
func (d *decoder) decodeLength(marker byte, what string) (int64, error) {
	if !isIntType(marker) {
		return 0, d.errAt("integer marker expected (" + what + ")")
	}
	v, err := d.decodeValue(marker)
	if err != nil {
		return 0, err
	}
	switch n := v.(type) {
	case int8:
		if n < 0 {
			return 0, d.errAt("negative count/length unexpected (" + what + ")")
		}
		return int64(n), nil
	case uint8:
		return int64(n), nil
	case int16:
		if n < 0 {
			return 0, d.errAt("negative count/length unexpected (" + what + ")")
		}
		return int64(n), nil
	case uint16:
		return int64(n), nil
	case int32:
		if n < 0 {
			return 0, d.errAt("negative count/length unexpected (" + what + ")")
		}
		return int64(n), nil
	case uint32:
		return int64(n), nil
	case int64:
		if n < 0 {
			return 0, d.errAt("negative count/length unexpected (" + what + ")")
		}
		return n, nil
	case uint64:
		if n > math.MaxInt64 {
			return 0, d.errAt("count/length too large (" + what + ")")
		}
		return int64(n), nil
	}
	return 0, d.errAt("integer marker expected (" + what + ")")
}

// containerParams describes the optional type/count header of a container.
type containerParams struct {
	// marker is the first element marker (or key-length marker inside an
	// object) when the header logic had to read ahead; markerNone otherwise.
	marker   byte
	counting bool
	count    int64
	elemType byte
	dims     []int64
}

func (d *decoder) containerParams(inMapping, allowDims bool) (containerParams, error) {
	p := containerParams{elemType: markerNone}
	marker, err := d.readMarker("marker")
	if err != nil {
		return p, err
	}
	if marker == containerType {
		t, err := d.readMarker("container type")
		if err != nil {
			return p, err
		}
		if !isContainerElemType(t) {
			return p, d.errAt("invalid container type")
		}
		p.elemType = t
		marker, err = d.readMarker("marker")
		if err != nil {
			return p, err
		}
		if marker != containerCount {
			return p, d.errAt("container type without count")
		}
	}
	if marker == containerCount {
		next, err := d.readMarker("count marker")
		if err != nil {
			return p, err
		}
		if allowDims && next == arrayStart {
			dims, err := d.decodeDims()
			if err != nil {
				return p, err
			}
			p.counting = true
			p.dims = dims
			p.count = 1
			for _, dim := range dims {
				if dim != 0 && p.count > math.MaxInt64/dim {
					return p, d.errAt("ND-array size overflows")
				}
				p.count *= dim
			}
		} else {
			n, err := d.decodeLength(next, "container count")
			if err != nil {
				return p, err
			}
			p.counting = true
			p.count = n
		}
		// The first element marker is only pre-read when it is needed to
		// pick a decode strategy: object bodies always start with a key
		// length, and untyped arrays need the element marker anyway.
		if p.count > 0 && (inMapping || p.elemType == markerNone) {
			m, err := d.readMarker("marker")
			if err != nil {
				return p, err
			}
			p.marker = m
		}
	} else {
		p.marker = marker
	}
	return p, nil
}

// decodeDims reads the per-axis lengths of an ND-array header. The opening
// '[' has already been consumed. The dimension list may itself carry a
// type/count header or run unsized to ']'.
func (d *decoder) decodeDims() ([]int64, error) {
	marker, err := d.readMarker("marker")
	if err != nil {
		return nil, err
	}
	var elemType byte = markerNone
	if marker == containerType {
		t, err := d.readMarker("container type")
		if err != nil {
			return nil, err
		}
		if !isIntType(t) {
			return nil, d.errAt("integer marker expected (ND-array dimension type)")
		}
		elemType = t
		marker, err = d.readMarker("marker")
		if err != nil {
			return nil, err
		}
		if marker != containerCount {
			return nil, d.errAt("container type without count")
		}
	}
	if marker == containerCount {
		next, err := d.readMarker("count marker")
		if err != nil {
			return nil, err
		}
		n, err := d.decodeLength(next, "ND-array dimension count")
		if err != nil {
			return nil, err
		}
		dims := make([]int64, 0, minInt64(n, 64))
		for i := int64(0); i < n; i++ {
			m := elemType
			if m == markerNone {
				m, err = d.readMarker("marker")
				if err != nil {
					return nil, err
				}
			}
			dim, err := d.decodeLength(m, "ND-array dimension")
			if err != nil {
				return nil, err
			}
			dims = append(dims, dim)
		}
		return dims, nil
	}
	var dims []int64
	for marker != arrayEnd {
		dim, err := d.decodeLength(marker, "ND-array dimension")
		if err != nil {
			return nil, err
		}
		dims = append(dims, dim)
		marker, err = d.readMarker("marker")
		if err != nil {
			return nil, err
		}
	}
	return dims, nil
}

func minInt64(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}

func (d *decoder) decodeValue(marker byte) (any, error) {
	switch marker {
	case markerNull:
		return nil, nil
	case markerTrue:
		return true, nil
	case markerFalse:
		return false, nil
	case markerInt8:
		buf, err := d.readExact(1, "int8")
		if err != nil {
			return nil, err
		}
		return int8(buf[0]), nil
	case markerUint8:
		buf, err := d.readExact(1, "uint8")
		if err != nil {
			return nil, err
		}
		return buf[0], nil
	case markerInt16:
		buf, err := d.readExact(2, "int16")
		if err != nil {
			return nil, err
		}
		return int16(d.cfg.ByteOrder.binary().Uint16(buf)), nil
	case markerUint16:
		buf, err := d.readExact(2, "uint16")
		if err != nil {
			return nil, err
		}
		return d.cfg.ByteOrder.binary().Uint16(buf), nil
	case markerInt32:
		buf, err := d.readExact(4, "int32")
		if err != nil {
			return nil, err
		}
		return int32(d.cfg.ByteOrder.binary().Uint32(buf)), nil
	case markerUint32:
		buf, err := d.readExact(4, "uint32")
		if err != nil {
			return nil, err
		}
		return d.cfg.ByteOrder.binary().Uint32(buf), nil
	case markerInt64:
		buf, err := d.readExact(8, "int64")
		if err != nil {
			return nil, err
		}
		return int64(d.cfg.ByteOrder.binary().Uint64(buf)), nil
	case markerUint64:
		buf, err := d.readExact(8, "uint64")
		if err != nil {
			return nil, err
		}
		return d.cfg.ByteOrder.binary().Uint64(buf), nil
	case markerFloat16:
		buf, err := d.readExact(2, "float16")
		if err != nil {
			return nil, err
		}
		return float16.Frombits(d.cfg.ByteOrder.binary().Uint16(buf)), nil
	case markerFloat32:
		buf, err := d.readExact(4, "float32")
		if err != nil {
			return nil, err
		}
		return math.Float32frombits(d.cfg.ByteOrder.binary().Uint32(buf)), nil
	case markerFloat64:
		buf, err := d.readExact(8, "float64")
		if err != nil {
			return nil, err
		}
		return math.Float64frombits(d.cfg.ByteOrder.binary().Uint64(buf)), nil
	case markerHighPrec:
		dec, err := d.decodeHighPrec()
		if err != nil {
			return nil, err
		}
		return dec, nil
	case markerChar:
		buf, err := d.readExact(1, "char")
		if err != nil {
			return nil, err
		}
		b := buf[0]
		if b >= utf8.RuneSelf {
			return nil, d.errAt("char is not a valid single-byte character")
		}
		return string(rune(b)), nil
	case markerString:
		s, err := d.decodeString()
		if err != nil {
			return nil, err
		}
		return s, nil
	case arrayStart:
		return d.decodeArray()
	case objectStart:
		return d.decodeObject()
	}
	return nil, d.errAt("invalid marker")
}

func (d *decoder) decodeString() (string, error) {
	lenMarker, err := d.readMarker("string length marker")
	if err != nil {
		return "", err
	}
	n, err := d.decodeLength(lenMarker, "string length")
	if err != nil {
		return "", err
	}
	raw, err := d.readAlloc(n, "string")
	if err != nil {
		return "", err
	}
	if !utf8.Valid(raw) {
		return "", d.errAt("string is not valid UTF-8")
	}
	return string(raw), nil
}

func (d *decoder) decodeHighPrec() (Decimal, error) {
	lenMarker, err := d.readMarker("high-precision length marker")
	if err != nil {
		return "", err
	}
	n, err := d.decodeLength(lenMarker, "high-precision length")
	if err != nil {
		return "", err
	}
	raw, err := d.readAlloc(n, "high-precision value")
	if err != nil {
		return "", err
	}
	dec := Decimal(raw)
	if !dec.Valid() {
		return "", d.errAt("invalid high-precision value")
	}
	return dec, nil
}

func (d *decoder) decodeArray() (any, error) {
	if err := d.enter(); err != nil {
		return nil, err
	}
	defer d.leave()

	p, err := d.containerParams(false, true)
	if err != nil {
		return nil, err
	}

	if p.counting && p.elemType != markerNone {
		if len(p.dims) > 0 {
			return d.decodeNDArray(p)
		}
		if isFixedLenType(p.elemType) {
			return d.decodeTypedArray(p)
		}
		// A no-payload element type has nothing to read per element, so
		// the whole array collapses to repeats of one value. The count is
		// not backed by any input bytes, so it gets a hard cap.
		if isNoDataType(p.elemType) {
			if p.count > maxNoDataCount {
				return nil, d.errAt("no-payload container count too large")
			}
			v, err := d.decodeValue(p.elemType)
			if err != nil {
				return nil, err
			}
			out := make([]any, p.count)
			for i := range out {
				out[i] = v
			}
			return out, nil
		}
		// S, H, [ and { carry variable-length payloads and decode like an
		// untyped counted array with a fixed per-element marker.
		out := make([]any, 0, minInt64(p.count, 1024))
		for i := int64(0); i < p.count; i++ {
			v, err := d.decodeValue(p.elemType)
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
		return out, nil
	}

	if p.counting {
		out := make([]any, 0, minInt64(p.count, 1024))
		marker := p.marker
		for i := int64(0); i < p.count; i++ {
			if i > 0 {
				marker, err = d.readMarker("marker")
				if err != nil {
					return nil, err
				}
			}
			if marker == markerNoop {
				return nil, d.errAt("no-op not allowed in sized container")
			}
			v, err := d.decodeValue(marker)
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
		return out, nil
	}

	out := []any{}
	marker := p.marker
	for marker != arrayEnd {
		if marker == markerNoop {
			marker, err = d.readMarker("marker")
			if err != nil {
				return nil, err
			}
			continue
		}
		v, err := d.decodeValue(marker)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
		marker, err = d.readMarker("marker")
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

// decodeNDArray reads the flat payload of an N-dimensional typed array in
// row-major order.
func (d *decoder) decodeNDArray(p containerParams) (any, error) {
	if !isFixedLenType(p.elemType) {
		return nil, d.errAt("invalid ND-array element type")
	}
	width := typeLen(p.elemType)
	total := p.count
	if total != 0 && int64(width) > math.MaxInt64/total {
		return nil, d.errAt("ND-array size overflows")
	}
	raw, err := d.readAlloc(total*int64(width), "ND-array data")
	if err != nil {
		return nil, err
	}
	shape := make([]int, len(p.dims))
	for i, dim := range p.dims {
		shape[i] = int(dim)
	}
	if p.elemType == markerUint8 && !d.cfg.NoBytes {
		return NDArray{Shape: shape, Data: raw}, nil
	}
	data, err := d.typedSlice(p.elemType, raw, total)
	if err != nil {
		return nil, err
	}
	return NDArray{Shape: shape, Data: data}, nil
}

// decodeTypedArray reads a 1-D fixed-length typed array into the matching
// Go slice type. Typed uint8 arrays collapse to []byte unless NoBytes is
// set.
func (d *decoder) decodeTypedArray(p containerParams) (any, error) {
	// Packed decoding needs at least one element; an empty typed container
	// is just the empty container, except for uint8 which keeps its byte
	// block form.
	if p.count == 0 {
		if p.elemType == markerUint8 && !d.cfg.NoBytes {
			return []byte{}, nil
		}
		return []any{}, nil
	}
	width := typeLen(p.elemType)
	if p.count != 0 && int64(width) > math.MaxInt64/p.count {
		return nil, d.errAt("array size overflows")
	}
	raw, err := d.readAlloc(p.count*int64(width), "typed array data")
	if err != nil {
		return nil, err
	}
	if p.elemType == markerUint8 {
		if d.cfg.NoBytes {
			out := make([]any, p.count)
			for i := range out {
				out[i] = raw[i]
			}
			return out, nil
		}
		return raw, nil
	}
	return d.typedSlice(p.elemType, raw, p.count)
}

func (d *decoder) typedSlice(elemType byte, raw []byte, count int64) (any, error) {
	order := d.cfg.ByteOrder.binary()
	switch elemType {
	case markerInt8:
		out := make([]int8, count)
		for i := range out {
			out[i] = int8(raw[i])
		}
		return out, nil
	case markerUint8:
		out := make([]uint8, count)
		copy(out, raw)
		return out, nil
	case markerInt16:
		out := make([]int16, count)
		for i := range out {
			out[i] = int16(order.Uint16(raw[i*2:]))
		}
		return out, nil
	case markerUint16:
		out := make([]uint16, count)
		for i := range out {
			out[i] = order.Uint16(raw[i*2:])
		}
		return out, nil
	case markerInt32:
		out := make([]int32, count)
		for i := range out {
			out[i] = int32(order.Uint32(raw[i*4:]))
		}
		return out, nil
	case markerUint32:
		out := make([]uint32, count)
		for i := range out {
			out[i] = order.Uint32(raw[i*4:])
		}
		return out, nil
	case markerInt64:
		out := make([]int64, count)
		for i := range out {
			out[i] = int64(order.Uint64(raw[i*8:]))
		}
		return out, nil
	case markerUint64:
		out := make([]uint64, count)
		for i := range out {
			out[i] = order.Uint64(raw[i*8:])
		}
		return out, nil
	case markerFloat16:
		out := make([]float16.Float16, count)
		for i := range out {
			out[i] = float16.Frombits(order.Uint16(raw[i*2:]))
		}
		return out, nil
	case markerFloat32:
		out := make([]float32, count)
		for i := range out {
			out[i] = math.Float32frombits(order.Uint32(raw[i*4:]))
		}
		return out, nil
	case markerFloat64:
		out := make([]float64, count)
		for i := range out {
			out[i] = math.Float64frombits(order.Uint64(raw[i*8:]))
		}
		return out, nil
	case markerChar:
		if !utf8.Valid(raw) {
			return nil, d.errAt("char array is not valid UTF-8")
		}
		return string(raw), nil
	}
	return nil, d.errAt("invalid container type")
}

func (d *decoder) decodeObject() (any, error) {
	if err := d.enter(); err != nil {
		return nil, err
	}
	defer d.leave()

	p, err := d.containerParams(true, false)
	if err != nil {
		return nil, err
	}

	pairsMode := d.cfg.PairsHook != nil
	var pairs []KeyValue
	var obj map[string]any
	if pairsMode {
		pairs = make([]KeyValue, 0, minInt64(p.count, 1024))
	} else {
		obj = make(map[string]any, minInt64(p.count, 1024))
	}

	store := func(key string, value any) {
		if pairsMode {
			pairs = append(pairs, KeyValue{Key: key, Value: value})
		} else {
			obj[key] = value
		}
	}

	if p.counting {
		marker := p.marker
		for i := int64(0); i < p.count; i++ {
			if i > 0 {
				marker, err = d.readMarker("marker")
				if err != nil {
					return nil, err
				}
			}
			if marker == markerNoop {
				return nil, d.errAt("no-op not allowed in sized container")
			}
			key, err := d.decodeKey(marker)
			if err != nil {
				return nil, err
			}
			valMarker := p.elemType
			if valMarker == markerNone {
				valMarker, err = d.readMarker("marker")
				if err != nil {
					return nil, err
				}
			}
			v, err := d.decodeValue(valMarker)
			if err != nil {
				return nil, err
			}
			store(key, v)
		}
	} else {
		marker := p.marker
		for marker != objectEnd {
			if marker == markerNoop {
				marker, err = d.readMarker("marker")
				if err != nil {
					return nil, err
				}
				continue
			}
			key, err := d.decodeKey(marker)
			if err != nil {
				return nil, err
			}
			valMarker, err := d.readMarker("marker")
			if err != nil {
				return nil, err
			}
			if valMarker == markerNoop {
				return nil, d.errAt("no-op not allowed in place of object value")
			}
			v, err := d.decodeValue(valMarker)
			if err != nil {
				return nil, err
			}
			store(key, v)
			marker, err = d.readMarker("marker")
			if err != nil {
				return nil, err
			}
		}
	}

	if pairsMode {
		return d.cfg.PairsHook(pairs)
	}
	if d.cfg.ObjectHook != nil {
		return d.cfg.ObjectHook(obj)
	}
	return obj, nil
}

// decodeKey reads an object key, whose length marker has already been
// consumed. Keys are bare length-prefixed strings without an 'S' marker.
func (d *decoder) decodeKey(lenMarker byte) (string, error) {
	n, err := d.decodeLength(lenMarker, "object key length")
	if err != nil {
		return "", err
	}
	raw, err := d.readAlloc(n, "object key")
	if err != nil {
		return "", err
	}
	if !utf8.Valid(raw) {
		return "", d.errAt("object key is not valid UTF-8")
	}
	key := string(raw)
	if d.interned != nil {
		if cached, ok := d.interned[key]; ok {
			return cached, nil
		}
		d.interned[key] = key
	}
	return key, nil
}
