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

package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/pflag"
	"github.com/x448/float16"

	"github.com/stefanor/pybj/bjdata"
)

const (
	exitUsage      = 1
	exitInputFile  = 2
	exitOutputFile = 4
	exitDecode     = 8
	exitEncode     = 16
)

type globalFlags struct {
	flagset   *pflag.FlagSet
	sortKeys  bool
	bigEndian bool
}

func newGlobalFlags() *globalFlags {
	f := &globalFlags{
		flagset: pflag.NewFlagSet(os.Args[0], pflag.ExitOnError),
	}
	f.flagset.BoolVar(
		&f.sortKeys,
		"sort-keys",
		false,
		"sort object keys when converting to BJData",
	)
	f.flagset.BoolVar(
		&f.bigEndian,
		"big-endian",
		false,
		"use plain UBJSON big-endian numeric byte order",
	)
	f.flagset.Usage = func() {
		fmt.Fprintf(
			os.Stderr,
			"Usage: %s [flags] (fromjson|tojson) (INFILE|-) [OUTFILE]\n\nFlags:\n%s",
			os.Args[0],
			f.flagset.FlagUsages(),
		)
	}
	return f
}

func (f *globalFlags) options() []bjdata.Option {
	var opts []bjdata.Option
	if f.sortKeys {
		opts = append(opts, bjdata.WithSortKeys(true))
	}
	if f.bigEndian {
		opts = append(opts, bjdata.WithByteOrder(bjdata.BigEndian))
	}
	opts = append(opts, bjdata.WithDefaultEncoder(jsonNumberEncoder))
	return opts
}

func main() {
	f := newGlobalFlags()
	if err := f.flagset.Parse(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "failed to parse command args: %s\n", err)
		os.Exit(exitUsage)
	}
	args := f.flagset.Args()
	if len(args) < 2 || len(args) > 3 {
		f.flagset.Usage()
		os.Exit(exitUsage)
	}
	mode := args[0]
	if mode != "fromjson" && mode != "tojson" {
		fmt.Fprintf(os.Stderr, "unknown conversion %q\n", mode)
		os.Exit(exitUsage)
	}

	in := os.Stdin
	if args[1] != "-" {
		var err error
		in, err = os.Open(args[1])
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to open input: %s\n", err)
			os.Exit(exitInputFile)
		}
		defer in.Close()
	}

	out := os.Stdout
	if len(args) == 3 && args[2] != "-" {
		var err error
		out, err = os.Create(args[2])
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to open output: %s\n", err)
			os.Exit(exitOutputFile)
		}
		defer out.Close()
	}

	var err error
	switch mode {
	case "fromjson":
		err = fromJSON(in, out, f.options())
	case "tojson":
		err = toJSON(in, out, f.options())
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "conversion failed: %s\n", err)
		os.Exit(exitCodeFor(err))
	}
}

// exitCodeFor classifies a conversion failure: encode failures exit 16,
// output write failures exit 4, and everything else (parse and decode
// failures) exits 8.
func exitCodeFor(err error) int {
	var encErr *bjdata.EncodeError
	if errors.As(err, &encErr) {
		return exitEncode
	}
	var wErr *writeError
	if errors.As(err, &wErr) {
		return exitOutputFile
	}
	return exitDecode
}

// writeError marks failures writing converted output, as opposed to
// failures of the conversion itself.
type writeError struct {
	err error
}

func (e *writeError) Error() string {
	return e.err.Error()
}

// jsonNumberEncoder maps json.Number to the narrowest lossless wire type:
// integers stay integers, floats that round-trip through float64 stay
// floats, and anything else is carried as a high-precision decimal.
func jsonNumberEncoder(v any) (any, error) {
	num, ok := v.(json.Number)
	if !ok {
		return nil, fmt.Errorf("unable to encode value of type %T", v)
	}
	if n, err := num.Int64(); err == nil {
		return n, nil
	}
	if f, err := num.Float64(); err == nil {
		formatted := strconv.FormatFloat(f, 'g', -1, 64)
		formatted = strings.Replace(formatted, "e+", "e", 1)
		if formatted == strings.ToLower(num.String()) {
			return f, nil
		}
	}
	return bjdata.Decimal(num.String()), nil
}

func fromJSON(in io.Reader, out io.Writer, opts []bjdata.Option) error {
	dec := json.NewDecoder(in)
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return err
	}
	if err := bjdata.EncodeTo(out, v, opts...); err != nil {
		if _, ok := err.(*bjdata.EncodeError); !ok {
			return &writeError{err: err}
		}
		return err
	}
	return nil
}

func toJSON(in io.Reader, out io.Writer, opts []bjdata.Option) error {
	v, err := bjdata.DecodeFrom(in, opts...)
	if err != nil {
		return err
	}
	jv, err := jsonify(v)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(out)
	if err := enc.Encode(jv); err != nil {
		return &writeError{err: err}
	}
	return nil
}

// jsonify rewrites decoded values into shapes encoding/json can represent:
// half-precision floats widen to float32, decimals become json.Number,
// byte blocks and typed slices become numeric arrays, and packed
// N-dimensional arrays become nested lists.
func jsonify(v any) (any, error) {
	switch val := v.(type) {
	case float16.Float16:
		return val.Float32(), nil
	case bjdata.Decimal:
		return json.Number(val.String()), nil
	case []byte:
		out := make([]any, len(val))
		for i, b := range val {
			out[i] = b
		}
		return out, nil
	case bjdata.NDArray:
		flat, err := flatten(val.Data)
		if err != nil {
			return nil, err
		}
		nested, _ := nest(flat, val.Shape)
		return nested, nil
	case []any:
		out := make([]any, len(val))
		for i, elem := range val {
			je, err := jsonify(elem)
			if err != nil {
				return nil, err
			}
			out[i] = je
		}
		return out, nil
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, elem := range val {
			je, err := jsonify(elem)
			if err != nil {
				return nil, err
			}
			out[k] = je
		}
		return out, nil
	case []int8, []int16, []uint16, []int32, []uint32,
		[]int64, []uint64, []float16.Float16, []float32, []float64:
		return flatten(val)
	}
	return v, nil
}

func flatten(data any) ([]any, error) {
	switch v := data.(type) {
	case []int8:
		out := make([]any, len(v))
		for i, n := range v {
			out[i] = n
		}
		return out, nil
	case []uint8:
		out := make([]any, len(v))
		for i, n := range v {
			out[i] = n
		}
		return out, nil
	case []int16:
		out := make([]any, len(v))
		for i, n := range v {
			out[i] = n
		}
		return out, nil
	case []uint16:
		out := make([]any, len(v))
		for i, n := range v {
			out[i] = n
		}
		return out, nil
	case []int32:
		out := make([]any, len(v))
		for i, n := range v {
			out[i] = n
		}
		return out, nil
	case []uint32:
		out := make([]any, len(v))
		for i, n := range v {
			out[i] = n
		}
		return out, nil
	case []int64:
		out := make([]any, len(v))
		for i, n := range v {
			out[i] = n
		}
		return out, nil
	case []uint64:
		out := make([]any, len(v))
		for i, n := range v {
			out[i] = n
		}
		return out, nil
	case []float16.Float16:
		out := make([]any, len(v))
		for i, n := range v {
			out[i] = n.Float32()
		}
		return out, nil
	case []float32:
		out := make([]any, len(v))
		for i, n := range v {
			out[i] = n
		}
		return out, nil
	case []float64:
		out := make([]any, len(v))
		for i, n := range v {
			out[i] = n
		}
		return out, nil
	case string:
		out := make([]any, 0, len(v))
		for _, r := range v {
			out = append(out, string(r))
		}
		return out, nil
	}
	return nil, fmt.Errorf("unable to convert array data of type %T", data)
}

// nest reshapes a flat row-major element list into nested lists per the
// given axis lengths, returning the nested value and the number of
// elements consumed.
func nest(flat []any, shape []int) (any, int) {
	if len(shape) == 0 {
		return flat, len(flat)
	}
	if len(shape) == 1 {
		n := shape[0]
		return append([]any{}, flat[:n]...), n
	}
	out := make([]any, 0, shape[0])
	used := 0
	for i := 0; i < shape[0]; i++ {
		inner, n := nest(flat[used:], shape[1:])
		out = append(out, inner)
		used += n
	}
	return out, used
}
