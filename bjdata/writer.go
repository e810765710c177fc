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

// flushThreshold is how many buffered bytes accumulate before the encoder
// pushes them to the sink.
const flushThreshold = 1 << 16

// writeBuffer accumulates encoder output. With a nil sink it simply grows
// and finalize returns the whole encoding; with a sink it flushes whenever
// the buffer crosses flushThreshold, keeping peak memory bounded during
// large encodes.
type writeBuffer struct {
	sink io.Writer
	buf  []byte
}

func newWriteBuffer(sink io.Writer) *writeBuffer {
	return &writeBuffer{sink: sink, buf: make([]byte, 0, 256)}
}

func (w *writeBuffer) writeByte(b byte) error {
	w.buf = append(w.buf, b)
	return w.maybeFlush()
}

func (w *writeBuffer) write(p []byte) error {
	w.buf = append(w.buf, p...)
	return w.maybeFlush()
}

func (w *writeBuffer) writeString(s string) error {
	w.buf = append(w.buf, s...)
	return w.maybeFlush()
}

func (w *writeBuffer) maybeFlush() error {
	if w.sink == nil || len(w.buf) < flushThreshold {
		return nil
	}
	return w.flush()
}

func (w *writeBuffer) flush() error {
	if len(w.buf) == 0 {
		return nil
	}
	if _, err := w.sink.Write(w.buf); err != nil {
		return err
	}
	w.buf = w.buf[:0]
	return nil
}

// finalize flushes any remaining bytes to the sink, or returns the full
// accumulated encoding when there is no sink.
func (w *writeBuffer) finalize() ([]byte, error) {
	if w.sink == nil {
		return w.buf, nil
	}
	if err := w.flush(); err != nil {
		return nil, err
	}
	return nil, nil
}
