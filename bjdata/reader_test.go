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
	"bytes"
	"io"
	"testing"
)

func testReaderContract(t *testing.T, name string, mk func(data []byte) byteReader) {
	t.Run(name, func(t *testing.T) {
		data := []byte("abcdefgh")
		r := mk(data)

		got, err := r.read(3, nil)
		if err != nil {
			t.Fatalf("read failed: %s", err)
		}
		if !bytes.Equal(got, []byte("abc")) {
			t.Fatalf("expected abc, got %q", got)
		}
		if r.offset() != 3 {
			t.Fatalf("expected offset 3, got %d", r.offset())
		}

		// Reads into a caller-owned destination survive later reads.
		dst := make([]byte, 2)
		kept, err := r.read(2, dst)
		if err != nil {
			t.Fatalf("read failed: %s", err)
		}
		if _, err := r.read(2, nil); err != nil {
			t.Fatalf("read failed: %s", err)
		}
		if !bytes.Equal(kept, []byte("de")) {
			t.Fatalf("destination read was clobbered: %q", kept)
		}

		// Short result at end of input, then zero-length results.
		got, err = r.read(5, nil)
		if err != nil {
			t.Fatalf("read failed: %s", err)
		}
		if !bytes.Equal(got, []byte("h")) {
			t.Fatalf("expected short read of h, got %q", got)
		}
		got, err = r.read(1, nil)
		if err != nil {
			t.Fatalf("read failed: %s", err)
		}
		if len(got) != 0 {
			t.Fatalf("expected no further input, got %q", got)
		}
		if r.offset() != int64(len(data)) {
			t.Fatalf("expected offset %d, got %d", len(data), r.offset())
		}
	})
}

func TestReaderContract(t *testing.T) {
	testReaderContract(t, "fixed", func(data []byte) byteReader {
		return &fixedReader{data: data}
	})
	testReaderContract(t, "stream", func(data []byte) byteReader {
		return newStreamReader(bytes.NewBuffer(data))
	})
	testReaderContract(t, "buffered", func(data []byte) byteReader {
		return newBufferedReader(bytes.NewReader(data))
	})
}

func TestBufferedReaderChunkSpanning(t *testing.T) {
	// Data larger than one chunk, read in pieces that straddle the chunk
	// boundary.
	data := make([]byte, minChunkSize+100)
	for i := range data {
		data[i] = byte(i)
	}
	r := newBufferedReader(bytes.NewReader(data))

	got, err := r.read(minChunkSize-10, nil)
	if err != nil {
		t.Fatalf("read failed: %s", err)
	}
	if !bytes.Equal(got, data[:minChunkSize-10]) {
		t.Fatal("first read returned wrong bytes")
	}
	// This read spans the end of the first chunk.
	got, err = r.read(50, nil)
	if err != nil {
		t.Fatalf("read failed: %s", err)
	}
	if !bytes.Equal(got, data[minChunkSize-10:minChunkSize+40]) {
		t.Fatal("spanning read returned wrong bytes")
	}
	if r.offset() != int64(minChunkSize+40) {
		t.Fatalf("expected offset %d, got %d", minChunkSize+40, r.offset())
	}
}

func TestBufferedReaderLargeSingleRead(t *testing.T) {
	data := make([]byte, 4*minChunkSize)
	for i := range data {
		data[i] = byte(i * 7)
	}
	r := newBufferedReader(bytes.NewReader(data))
	got, err := r.read(len(data), nil)
	if err != nil {
		t.Fatalf("read failed: %s", err)
	}
	if !bytes.Equal(got, data) {
		t.Fatal("large read returned wrong bytes")
	}
}

func TestBufferedReaderCloseRewind(t *testing.T) {
	data := []byte("abcdefgh")
	src := bytes.NewReader(data)
	r := newBufferedReader(src)

	if _, err := r.read(3, nil); err != nil {
		t.Fatalf("read failed: %s", err)
	}
	if err := r.close(); err != nil {
		t.Fatalf("close failed: %s", err)
	}
	// The source must sit directly after the 3 consumed bytes, even though
	// the whole input was fetched into the chunk.
	pos, err := src.Seek(0, io.SeekCurrent)
	if err != nil {
		t.Fatalf("failed to query position: %s", err)
	}
	if pos != 3 {
		t.Fatalf("expected source position 3, got %d", pos)
	}
	rest, err := io.ReadAll(src)
	if err != nil {
		t.Fatalf("failed to read remainder: %s", err)
	}
	if !bytes.Equal(rest, []byte("defgh")) {
		t.Fatalf("expected defgh after rewind, got %q", rest)
	}
}
