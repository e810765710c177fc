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

import "testing"

func FuzzDecode(f *testing.F) {
	// Seed corpus with valid samples of each wire type
	f.Add([]byte{'Z'})                                     // null
	f.Add([]byte{'T'})                                     // true
	f.Add([]byte{'F'})                                     // false
	f.Add([]byte{'i', 0xFF})                               // int8 -1
	f.Add([]byte{'U', 0xC8})                               // uint8 200
	f.Add([]byte{'I', 0x00, 0x80})                         // int16 -32768
	f.Add([]byte{'u', 0xC8, 0x01})                         // uint16 456
	f.Add([]byte{'l', 0x60, 0x79, 0xFE, 0xFF})             // int32 -100000
	f.Add([]byte{'h', 0x00, 0x3C})                         // float16 1.0
	f.Add([]byte{'d', 0x00, 0x00, 0xC0, 0x3F})             // float32 1.5
	f.Add([]byte{'C', 'a'})                                // char
	f.Add([]byte{'S', 'U', 2, 'a', 'b'})                   // string
	f.Add([]byte{'H', 'U', 4, '-', '1', '.', '5'})         // decimal
	f.Add([]byte{'[', ']'})                                // empty array
	f.Add([]byte{'[', 'U', 1, 'U', 2, ']'})                // array
	f.Add([]byte{'[', '#', 'U', 2, 'U', 1, 'U', 2})        // counted array
	f.Add([]byte{'[', '$', 'U', '#', 'U', 3, 1, 2, 3})     // typed array
	f.Add([]byte{'{', '}'})                                // empty object
	f.Add([]byte{'{', 'U', 1, 'a', 'U', 1, '}'})           // object
	f.Add([]byte{'[', 'N', 'U', 1, 'N', ']'})              // no-ops
	f.Add([]byte{
		'[', '$', 'i', '#', '[', 'U', 2, 'U', 3, ']',
		1, 2, 3, 4, 5, 6,
	}) // 2x3 ND-array

	f.Fuzz(func(t *testing.T, data []byte) {
		v, err := Decode(data)
		if err != nil {
			return
		}
		// Anything that decodes must re-encode
		if _, err := Encode(v); err != nil {
			t.Fatalf("decoded value failed to re-encode: %s", err)
		}
	})
}

func FuzzRoundtrip(f *testing.F) {
	f.Add([]byte{'[', 'U', 1, 'S', 'U', 1, 'a', 'Z', ']'})
	f.Add([]byte{'{', 'U', 1, 'k', 'd', 0x00, 0x00, 0xC0, 0x3F, '}'})

	f.Fuzz(func(t *testing.T, data []byte) {
		v, err := Decode(data)
		if err != nil {
			return
		}
		encoded, err := Encode(v)
		if err != nil {
			t.Fatalf("decoded value failed to re-encode: %s", err)
		}
		// The canonical re-encoding must decode back to the same value
		if _, err := Decode(encoded); err != nil {
			t.Fatalf("re-encoded value failed to decode: %s", err)
		}
	})
}
