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
	"reflect"
	"strings"
)

// StructMap converts a struct (or pointer to struct) into a map[string]any
// of its exported fields, suitable for passing to Encode or for use in a
// DefaultEncoder hook. Field names can be overridden with a `bjdata:"name"`
// tag; a tag of "-" skips the field. Nested structs are converted
// recursively; other field values are carried through unchanged.
func StructMap(v any) (map[string]any, error) {
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil, encodeErrorf("cannot map nil pointer of type %T", v)
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return nil, encodeErrorf("cannot map value of type %T", v)
	}
	return structToMap(rv)
}

func structToMap(rv reflect.Value) (map[string]any, error) {
	rt := rv.Type()
	out := make(map[string]any, rt.NumField())
	for i := 0; i < rt.NumField(); i++ {
		field := rt.Field(i)
		if !field.IsExported() {
			continue
		}
		name := field.Name
		if tag, ok := field.Tag.Lookup("bjdata"); ok {
			tagName, _, _ := strings.Cut(tag, ",")
			if tagName == "-" {
				continue
			}
			if tagName != "" {
				name = tagName
			}
		}
		fv := rv.Field(i)
		if field.Anonymous && fv.Kind() == reflect.Struct {
			embedded, err := structToMap(fv)
			if err != nil {
				return nil, err
			}
			for k, v := range embedded {
				out[k] = v
			}
			continue
		}
		elem := fv
		for elem.Kind() == reflect.Pointer && !elem.IsNil() {
			elem = elem.Elem()
		}
		if elem.Kind() == reflect.Struct && elem.Type() != reflect.TypeOf(NDArray{}) {
			nested, err := structToMap(elem)
			if err != nil {
				return nil, err
			}
			out[name] = nested
			continue
		}
		if fv.Kind() == reflect.Pointer && fv.IsNil() {
			out[name] = nil
			continue
		}
		out[name] = fv.Interface()
	}
	return out, nil
}
