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

// Type and structural markers for the BJData (Draft 2) wire format. Each
// marker is a single ASCII byte identifying the token that follows it.
const (
	markerNull     byte = 'Z'
	markerNoop     byte = 'N'
	markerTrue     byte = 'T'
	markerFalse    byte = 'F'
	markerInt8     byte = 'i'
	markerUint8    byte = 'U'
	markerInt16    byte = 'I'
	markerUint16   byte = 'u'
	markerInt32    byte = 'l'
	markerUint32   byte = 'm'
	markerInt64    byte = 'L'
	markerUint64   byte = 'M'
	markerFloat16  byte = 'h'
	markerFloat32  byte = 'd'
	markerFloat64  byte = 'D'
	markerHighPrec byte = 'H'
	markerChar     byte = 'C'
	markerString   byte = 'S'

	arrayStart     byte = '['
	arrayEnd       byte = ']'
	objectStart    byte = '{'
	objectEnd      byte = '}'
	containerType  byte = '$'
	containerCount byte = '#'

	// markerNone indicates the absence of a declared container element type.
	// It is never written to the wire.
	markerNone byte = 0
)

// isNoDataType reports whether the marker carries its entire value in the
// marker byte itself, with no payload following.
func isNoDataType(m byte) bool {
	return m == markerNull || m == markerTrue || m == markerFalse
}

// isIntType reports whether the marker is one of the integer types usable as
// a length or count token.
func isIntType(m byte) bool {
	switch m {
	case markerInt8, markerUint8, markerInt16, markerUint16,
		markerInt32, markerUint32, markerInt64, markerUint64:
		return true
	}
	return false
}

// isFixedLenType reports whether the marker has a fixed-size, nonzero-length
// payload, making it usable as the element type of a packed typed array.
func isFixedLenType(m byte) bool {
	switch m {
	case markerInt8, markerUint8, markerInt16, markerUint16,
		markerInt32, markerUint32, markerInt64, markerUint64,
		markerFloat16, markerFloat32, markerFloat64, markerChar:
		return true
	}
	return false
}

// isContainerElemType reports whether the marker may be declared as the
// element type of a strongly-typed container.
func isContainerElemType(m byte) bool {
	switch m {
	case markerString, markerHighPrec, arrayStart, objectStart:
		return true
	}
	return isFixedLenType(m) || isNoDataType(m)
}

// typeLen returns the payload size in bytes of a fixed-length type marker,
// or 0 for markers without a fixed-size payload.
func typeLen(m byte) int {
	switch m {
	case markerInt8, markerUint8, markerChar:
		return 1
	case markerInt16, markerUint16, markerFloat16:
		return 2
	case markerInt32, markerUint32, markerFloat32:
		return 4
	case markerInt64, markerUint64, markerFloat64:
		return 8
	}
	return 0
}
