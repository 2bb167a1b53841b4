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

	"github.com/blinklabs-io/refgraph/reference"
	"github.com/blinklabs-io/refgraph/schema"
)

type schemaFlags struct {
	flagset *flag.FlagSet
}

func newSchemaFlags() *schemaFlags {
	f := &schemaFlags{
		flagset: flag.NewFlagSet("schema", flag.ExitOnError),
	}
	return f
}

func runSchema(f *globalFlags) {
	schemaFlags := newSchemaFlags()
	err := schemaFlags.flagset.Parse(f.flagset.Args()[1:])
	if err != nil {
		fmt.Printf("failed to parse subcommand args: %s\n", err)
		os.Exit(1)
	}
	if len(schemaFlags.flagset.Args()) < 1 {
		fmt.Printf("ERROR: you must specify a schema file\n")
		os.Exit(1)
	}
	data, err := os.ReadFile(schemaFlags.flagset.Arg(0))
	if err != nil {
		fmt.Printf("ERROR: %s\n", err)
		os.Exit(1)
	}
	s, err := schema.Parse(data, reference.NewRegistry())
	if err != nil {
		fmt.Printf("ERROR: invalid schema: %s\n", err)
		os.Exit(1)
	}
	fingerprint, err := schema.Fingerprint(s)
	if err != nil {
		fmt.Printf("ERROR: %s\n", err)
		os.Exit(1)
	}
	fmt.Printf("%s\n", s.String())
	fmt.Printf("fingerprint: %x\n", fingerprint)
}
