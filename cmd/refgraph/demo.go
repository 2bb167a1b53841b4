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

	"github.com/blinklabs-io/refgraph/container"
	"github.com/blinklabs-io/refgraph/generic"
	"github.com/blinklabs-io/refgraph/reference"
	"github.com/blinklabs-io/refgraph/schema"
)

type demoFlags struct {
	flagset *flag.FlagSet
	out     string
	count   int
}

func newDemoFlags() *demoFlags {
	f := &demoFlags{
		flagset: flag.NewFlagSet("demo", flag.ExitOnError),
	}
	f.flagset.StringVar(&f.out, "out", "parent-child.rgf", "output file")
	f.flagset.IntVar(&f.count, "count", 1, "number of Parent records to write")
	return f
}

// demoSchemaJson is a Parent record whose Child points back at it
const demoSchemaJson = `{
  "type": "record",
  "name": "Parent",
  "logicalType": "referenceable",
  "id-field-name": "id",
  "fields": [
    {"name": "id", "type": "long"},
    {"name": "p", "type": "string"},
    {"name": "child", "type": {
      "type": "record",
      "name": "Child",
      "logicalType": "reference",
      "ref-field-name": "parent",
      "fields": [
        {"name": "c", "type": "string"},
        {"name": "parent", "type": ["null", "long", "Parent"]}
      ]
    }}
  ]
}`

func runDemo(f *globalFlags) {
	demoFlags := newDemoFlags()
	err := demoFlags.flagset.Parse(f.flagset.Args()[1:])
	if err != nil {
		fmt.Printf("failed to parse subcommand args: %s\n", err)
		os.Exit(1)
	}
	parentSchema, err := schema.Parse([]byte(demoSchemaJson), reference.NewRegistry())
	if err != nil {
		fmt.Printf("ERROR: %s\n", err)
		os.Exit(1)
	}
	childSchema := parentSchema.Field("child").Schema
	out, err := os.Create(demoFlags.out)
	if err != nil {
		fmt.Printf("ERROR: %s\n", err)
		os.Exit(1)
	}
	w, err := container.NewWriter(out, parentSchema)
	if err != nil {
		fmt.Printf("ERROR: %s\n", err)
		os.Exit(1)
	}
	for i := range demoFlags.count {
		parent := generic.NewRecord(parentSchema)
		child := generic.NewRecord(childSchema)
		if err := putFields(parent, "id", int64(i+1), "p", "parent data!", "child", child); err != nil {
			fmt.Printf("ERROR: %s\n", err)
			os.Exit(1)
		}
		if err := putFields(child, "c", "child data!", "parent", parent); err != nil {
			fmt.Printf("ERROR: %s\n", err)
			os.Exit(1)
		}
		if err := w.Append(parent); err != nil {
			fmt.Printf("ERROR: failed to write record: %s\n", err)
			os.Exit(1)
		}
	}
	if err := w.Close(); err != nil {
		fmt.Printf("ERROR: %s\n", err)
		os.Exit(1)
	}
	fmt.Printf("wrote %d record(s) to %s\n", demoFlags.count, demoFlags.out)
}

// putFields sets alternating field name and value pairs
func putFields(rec *generic.GenericRecord, pairs ...any) error {
	for i := 0; i+1 < len(pairs); i += 2 {
		name, ok := pairs[i].(string)
		if !ok {
			return fmt.Errorf("field name must be a string, found %T", pairs[i])
		}
		if err := rec.PutByName(name, pairs[i+1]); err != nil {
			return err
		}
	}
	return nil
}
