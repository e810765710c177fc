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

import "io"

// byteReader abstracts the decoder's input source behind a single read
// contract. read returns up to n bytes; a short result occurs only at end of
// input, and a zero-length result means no input remains at all. Errors are
// only returned for failures of the underlying source, never for running out
// of input. The returned slice is valid only until the next read call, unless
// dst is non-nil, in which case the bytes are copied into dst and a prefix of
// dst is returned.
type byteReader interface {
	read(n int, dst []byte) ([]byte, error)
	// offset is the cumulative number of bytes handed to the caller, used
	// for error-location reporting.
	offset() int64
}

// fixedReader reads from a single in-memory block. Reads are slices of the
// block and involve no copying unless the caller supplies a destination.
type fixedReader struct {
	data []byte
	pos  int64
}

func (r *fixedReader) read(n int, dst []byte) ([]byte, error) {
	if n <= 0 {
		return nil, nil
	}
	remain := int64(len(r.data)) - r.pos
	if remain <= 0 {
		return nil, nil
	}
	if int64(n) > remain {
		n = int(remain)
	}
	chunk := r.data[r.pos : r.pos+int64(n)]
	r.pos += int64(n)
	if dst != nil {
		copy(dst, chunk)
		return dst[:n], nil
	}
	return chunk, nil
}

func (r *fixedReader) offset() int64 {
	return r.pos
}

// streamReader pulls from a non-seekable source. Each read reuses one
// internal scratch region, invalidating the result of the previous read.
type streamReader struct {
	src   io.Reader
	buf   []byte
	total int64
}

func newStreamReader(src io.Reader) *streamReader {
	return &streamReader{src: src}
}

func (r *streamReader) read(n int, dst []byte) ([]byte, error) {
	if n <= 0 {
		return nil, nil
	}
	out := dst
	if out == nil {
		if cap(r.buf) < n {
			r.buf = make([]byte, n)
		}
		out = r.buf[:n]
	} else {
		out = dst[:n]
	}
	got, err := io.ReadFull(r.src, out)
	r.total += int64(got)
	if err == io.EOF || err == io.ErrUnexpectedEOF {
		return out[:got], nil
	}
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *streamReader) offset() int64 {
	return r.total
}

// minChunkSize is the smallest read issued against a seekable source by
// bufferedReader, amortizing per-read overhead for small tokens.
const minChunkSize = 256

// bufferedReader pulls from a seekable source in chunks of at least
// minChunkSize bytes. Reads that fit in the current chunk are served as
// slices of it; reads that span a chunk boundary coalesce the unread tail
// into a scratch region before fetching the next chunk. close rewinds the
// source by the fetched-but-unconsumed overshoot, so the source's logical
// position is correct even after an aborted decode.
type bufferedReader struct {
	src     io.ReadSeeker
	chunk   []byte
	pos     int
	scratch []byte
	total   int64
}

func newBufferedReader(src io.ReadSeeker) *bufferedReader {
	return &bufferedReader{src: src}
}

func (r *bufferedReader) read(n int, dst []byte) ([]byte, error) {
	if n <= 0 {
		return nil, nil
	}
	if remain := len(r.chunk) - r.pos; remain >= n {
		chunk := r.chunk[r.pos : r.pos+n]
		r.pos += n
		r.total += int64(n)
		if dst != nil {
			copy(dst, chunk)
			return dst[:n], nil
		}
		return chunk, nil
	}

	out := dst
	if out == nil {
		if cap(r.scratch) < n {
			r.scratch = make([]byte, n)
		}
		out = r.scratch[:n]
	} else {
		out = dst[:n]
	}

	// Coalesce the remainder of the current chunk, then fetch a fresh one.
	tail := copy(out, r.chunk[r.pos:])
	r.total += int64(tail)
	want := n - tail

	size := want
	if size < minChunkSize {
		size = minChunkSize
	}
	if cap(r.chunk) < size {
		r.chunk = make([]byte, size)
	}
	got, err := io.ReadFull(r.src, r.chunk[:size])
	r.chunk = r.chunk[:got]
	r.pos = 0
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return nil, err
	}
	if tail == 0 && got == 0 {
		return nil, nil
	}
	if got < want {
		want = got
	}
	copy(out[tail:], r.chunk[:want])
	r.pos = want
	r.total += int64(want)
	return out[:tail+want], nil
}

func (r *bufferedReader) offset() int64 {
	return r.total
}

// close rewinds the source past any over-read bytes. The source remains
// usable by the caller for unrelated subsequent reads.
func (r *bufferedReader) close() error {
	if over := len(r.chunk) - r.pos; over > 0 {
		r.chunk = nil
		r.pos = 0
		if _, err := r.src.Seek(int64(-over), io.SeekCurrent); err != nil {
			return err
		}
	}
	return nil
}
