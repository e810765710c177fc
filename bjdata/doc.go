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

// Package bjdata implements encoding and decoding of the BJData (Draft 2)
// binary serialization format, a superset of UBJSON.
//
// Values map to plain Go types: nil, bool, the fixed-width integer and
// float types, float16.Float16, string, []byte, map[string]any and []any.
// High-precision decimals are carried as Decimal, packed N-dimensional
// arrays as NDArray, and objects decoded in pairs mode as []KeyValue.
//
// Multi-byte numeric payloads are little-endian by default; WithByteOrder
// selects the big-endian byte order used by plain UBJSON.
package bjdata
