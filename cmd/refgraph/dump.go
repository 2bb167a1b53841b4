// Copyright 2026 Blink Labs Software
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
	"flag"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/blinklabs-io/refgraph/cbor"
	"github.com/blinklabs-io/refgraph/container"
	"github.com/blinklabs-io/refgraph/generic"
	"github.com/blinklabs-io/refgraph/reference"
)

type dumpFlags struct {
	flagset *flag.FlagSet
	raw     bool
}

func newDumpFlags() *dumpFlags {
	f := &dumpFlags{
		flagset: flag.NewFlagSet("dump", flag.ExitOnError),
	}
	f.flagset.BoolVar(&f.raw, "raw", false, "dump the raw CBOR structure")
	return f
}

func runDump(f *globalFlags) {
	dumpFlags := newDumpFlags()
	err := dumpFlags.flagset.Parse(f.flagset.Args()[1:])
	if err != nil {
		fmt.Printf("failed to parse subcommand args: %s\n", err)
		os.Exit(1)
	}
	if len(dumpFlags.flagset.Args()) < 1 {
		fmt.Printf("ERROR: you must specify a file\n")
		os.Exit(1)
	}
	if dumpFlags.raw {
		data, err := os.ReadFile(dumpFlags.flagset.Arg(0))
		if err != nil {
			fmt.Printf("ERROR: %s\n", err)
			os.Exit(1)
		}
		out, err := dumpRaw(data)
		if err != nil {
			fmt.Printf("ERROR: %s\n", err)
			os.Exit(1)
		}
		fmt.Print(out)
		return
	}
	in, err := os.Open(dumpFlags.flagset.Arg(0))
	if err != nil {
		fmt.Printf("ERROR: %s\n", err)
		os.Exit(1)
	}
	defer in.Close()
	r, err := container.NewReader(in)
	if err != nil {
		fmt.Printf("ERROR: %s\n", err)
		os.Exit(1)
	}
	fmt.Printf("schema: %s\n", r.Schema().String())
	// Read everything first so that forward references are patched before printing
	datums, err := r.All()
	if err != nil {
		fmt.Printf("ERROR: %s\n", err)
		os.Exit(1)
	}
	seen := map[generic.Record]bool{}
	for idx, datum := range datums {
		fmt.Printf("record %d: %s\n", idx, formatValue(datum, seen))
	}
	if pending := r.Resolver().PendingKeys(); len(pending) > 0 {
		fmt.Printf("unresolved keys: %v\n", pending)
	}
}

// dumpRaw returns the CBOR structure of every item in a container file, including
// the datums inside each block, along with their byte offsets
func dumpRaw(data []byte) (string, error) {
	var sb strings.Builder
	dec, err := cbor.NewStreamDecoder(data)
	if err != nil {
		return "", err
	}
	for !dec.EOF() {
		var item any
		start, rawItem, err := dec.DecodeRaw(&item)
		if err != nil {
			return "", fmt.Errorf("decode item at offset %d: %w", dec.Position(), err)
		}
		fmt.Fprintf(&sb, "# offset %d, length %d\n", start, len(rawItem))
		sb.WriteString(cbor.DumpCborStructure(item, ""))
		// Blocks are [count, wrapped datums, sync]
		if itemLen, err := cbor.ListLength(rawItem); err != nil || itemLen != 3 {
			continue
		}
		wrapped, ok := item.([]any)[1].(cbor.WrappedCbor)
		if !ok {
			continue
		}
		datumDec, err := cbor.NewStreamDecoder(wrapped.Bytes())
		if err != nil {
			return "", err
		}
		for !datumDec.EOF() {
			datumStart := datumDec.Position()
			var datum any
			if _, _, err := datumDec.Decode(&datum); err != nil {
				return "", fmt.Errorf("decode datum at block offset %d: %w", datumStart, err)
			}
			fmt.Fprintf(&sb, "# datum at block offset %d\n", datumStart)
			sb.WriteString(cbor.DumpCborStructure(datum, "datum: "))
		}
	}
	return sb.String(), nil
}

// formatValue renders a datum on one line. A record that was already printed is
// shown as a reference instead of being expanded again, so cyclic graphs terminate
func formatValue(v any, seen map[generic.Record]bool) string {
	switch val := v.(type) {
	case nil:
		return "null"
	case generic.Record:
		if seen[val] {
			return recordRef(val)
		}
		seen[val] = true
		s := val.Schema()
		fields := make([]string, 0, len(s.Fields()))
		for _, field := range s.Fields() {
			fields = append(
				fields,
				fmt.Sprintf("%s: %s", field.Name, formatValue(val.Get(field.Pos), seen)),
			)
		}
		return fmt.Sprintf("%s{%s}", s.Name(), strings.Join(fields, ", "))
	case string:
		return fmt.Sprintf("%q", val)
	case []byte:
		return fmt.Sprintf("0x%x", val)
	case []any:
		items := make([]string, 0, len(val))
		for _, item := range val {
			items = append(items, formatValue(item, seen))
		}
		return "[" + strings.Join(items, ", ") + "]"
	case map[string]any:
		var sb strings.Builder
		sb.WriteString("{")
		for idx, key := range sortedKeys(val) {
			if idx > 0 {
				sb.WriteString(", ")
			}
			fmt.Fprintf(&sb, "%q: %s", key, formatValue(val[key], seen))
		}
		sb.WriteString("}")
		return sb.String()
	}
	return fmt.Sprintf("%v", v)
}

func recordRef(rec generic.Record) string {
	s := rec.Schema()
	if lt, ok := s.LogicalType(reference.ReferenceableName).(reference.Referenceable); ok {
		if idField := s.Field(lt.IdFieldName()); idField != nil {
			return fmt.Sprintf("&<%s id=%v>", s.Name(), rec.Get(idField.Pos))
		}
	}
	return fmt.Sprintf("&<%s>", s.Name())
}

func sortedKeys(m map[string]any) []string {
	ret := make([]string, 0, len(m))
	for key := range m {
		ret = append(ret, key)
	}
	slices.Sort(ret)
	return ret
}
