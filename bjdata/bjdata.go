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
	"encoding/binary"
	"io"
)

// ByteOrder selects the byte order used for all multi-byte numeric payloads.
type ByteOrder int

const (
	// LittleEndian is the BJData (Draft 2) default.
	LittleEndian ByteOrder = iota
	// BigEndian matches the plain UBJSON ancestor format.
	BigEndian
)

func (o ByteOrder) binary() binary.ByteOrder {
	if o == BigEndian {
		return binary.BigEndian
	}
	return binary.LittleEndian
}

// DefaultMaxDepth is the default container nesting limit applied during
// decoding. Nesting depth is attacker-controllable from untrusted input, so
// the limit is always enforced.
const DefaultMaxDepth = 512

// Config holds the options shared by the encode and decode operations.
type Config struct {
	// ByteOrder applies to every multi-byte numeric payload, both reading
	// and writing. Defaults to LittleEndian.
	ByteOrder ByteOrder
	// SortKeys orders object keys by lexicographic byte comparison when
	// encoding. When unset, map iteration order is used.
	SortKeys bool
	// NoFloat32 disables the narrower float32 encoding for float64 values
	// whose float32 representation is exact.
	NoFloat32 bool
	// ContainerCount emits arrays and objects with a count header and no
	// end marker.
	ContainerCount bool
	// NoBytes decodes typed uint8 arrays as numeric arrays instead of
	// collapsing them to a []byte.
	NoBytes bool
	// InternKeys deduplicates decoded object key strings within one decode
	// operation.
	InternKeys bool
	// MaxDepth limits container nesting during decoding. Zero means
	// DefaultMaxDepth.
	MaxDepth int
	// ObjectHook post-processes each decoded object map. Ignored when
	// PairsHook is set.
	ObjectHook func(map[string]any) (any, error)
	// PairsHook post-processes each decoded object as an ordered key/value
	// list, preserving input order and duplicate keys.
	PairsHook func([]KeyValue) (any, error)
	// DefaultEncoder converts values outside the encodable set into
	// encodable ones. It is invoked at most once per value.
	DefaultEncoder func(any) (any, error)
}

// Option adjusts a Config.
type Option func(*Config)

// NewConfig returns a Config with defaults applied, modified by the given
// options.
func NewConfig(opts ...Option) Config {
	cfg := Config{MaxDepth: DefaultMaxDepth}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.MaxDepth <= 0 {
		cfg.MaxDepth = DefaultMaxDepth
	}
	return cfg
}

// WithByteOrder sets the numeric byte order.
func WithByteOrder(o ByteOrder) Option {
	return func(c *Config) { c.ByteOrder = o }
}

// WithSortKeys sorts object keys during encoding.
func WithSortKeys(enabled bool) Option {
	return func(c *Config) { c.SortKeys = enabled }
}

// WithNoFloat32 forces float64 values to be encoded at full width.
func WithNoFloat32(enabled bool) Option {
	return func(c *Config) { c.NoFloat32 = enabled }
}

// WithContainerCount emits counted containers without end markers.
func WithContainerCount(enabled bool) Option {
	return func(c *Config) { c.ContainerCount = enabled }
}

// WithNoBytes decodes typed uint8 arrays like any other numeric array.
func WithNoBytes(enabled bool) Option {
	return func(c *Config) { c.NoBytes = enabled }
}

// WithInternKeys enables object key interning during decoding.
func WithInternKeys(enabled bool) Option {
	return func(c *Config) { c.InternKeys = enabled }
}

// WithMaxDepth sets the decoder's container nesting limit.
func WithMaxDepth(depth int) Option {
	return func(c *Config) { c.MaxDepth = depth }
}

// WithObjectHook sets the decoded-object transform.
func WithObjectHook(hook func(map[string]any) (any, error)) Option {
	return func(c *Config) { c.ObjectHook = hook }
}

// WithPairsHook decodes objects as ordered key/value lists and sets their
// transform. Takes precedence over WithObjectHook.
func WithPairsHook(hook func([]KeyValue) (any, error)) Option {
	return func(c *Config) { c.PairsHook = hook }
}

// WithDefaultEncoder sets the fallback conversion hook for values outside
// the encodable set.
func WithDefaultEncoder(hook func(any) (any, error)) Option {
	return func(c *Config) { c.DefaultEncoder = hook }
}

// Encode returns the BJData encoding of v.
func Encode(v any, opts ...Option) ([]byte, error) {
	buf := newWriteBuffer(nil)
	enc := &encoder{cfg: NewConfig(opts...), buf: buf}
	if err := enc.encodeValue(v, true); err != nil {
		return nil, err
	}
	return buf.finalize()
}

// EncodeTo writes the BJData encoding of v to w, flushing completed bytes
// periodically so peak memory stays bounded. If encoding fails partway,
// bytes already flushed to w are not retracted and the partial output must
// be discarded by the caller.
func EncodeTo(w io.Writer, v any, opts ...Option) error {
	buf := newWriteBuffer(w)
	enc := &encoder{cfg: NewConfig(opts...), buf: buf}
	if err := enc.encodeValue(v, true); err != nil {
		return err
	}
	_, err := buf.finalize()
	return err
}

// Decode decodes a single value from the given byte block. Trailing bytes
// after the first complete value are ignored.
func Decode(data []byte, opts ...Option) (any, error) {
	return decodeWith(&fixedReader{data: data}, NewConfig(opts...))
}

// DecodeFrom decodes a single value from r. If r is an io.ReadSeeker, input
// is pulled in buffered chunks and the source is rewound to the position
// directly after the decoded value on return, so multiple documents can be
// read from one stream; otherwise input is pulled with exact-sized reads.
func DecodeFrom(r io.Reader, opts ...Option) (any, error) {
	cfg := NewConfig(opts...)
	if rs, ok := r.(io.ReadSeeker); ok {
		br := newBufferedReader(rs)
		v, err := decodeWith(br, cfg)
		if cerr := br.close(); cerr != nil && err == nil {
			return nil, cerr
		}
		return v, err
	}
	return decodeWith(newStreamReader(r), cfg)
}

func decodeWith(r byteReader, cfg Config) (any, error) {
	d := &decoder{r: r, cfg: cfg}
	if cfg.InternKeys {
		d.interned = make(map[string]string)
	}
	marker, err := d.readMarker("type marker")
	if err != nil {
		return nil, err
	}
	return d.decodeValue(marker)
}
