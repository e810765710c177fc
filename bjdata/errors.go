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

import "fmt"

// DecodeError is returned when a BJData stream cannot be decoded. Offset is
// the number of bytes consumed from the input when the failure was detected.
type DecodeError struct {
	Message string
	Offset  int64
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("%s (at byte %d)", e.Message, e.Offset)
}

// EncodeError is returned when a value cannot be encoded to BJData.
type EncodeError struct {
	Message string
}

func (e *EncodeError) Error() string {
	return e.Message
}

func encodeErrorf(format string, args ...any) *EncodeError {
	return &EncodeError{Message: fmt.Sprintf(format, args...)}
}
