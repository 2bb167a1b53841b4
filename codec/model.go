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

// Package codec encodes and decodes schema-described values to and from CBOR,
// invoking logical type conversions around record nodes.
package codec

import (
	"log/slog"

	"github.com/blinklabs-io/refgraph/generic"
	"github.com/blinklabs-io/refgraph/schema"
)

// Conversion supplies the hooks for one logical type. ToRecord is invoked before a
// record with the logical type is structurally encoded, and FromRecord after it has
// been structurally decoded
type Conversion interface {
	LogicalTypeName() string
	ToRecord(value generic.Record, s *schema.Schema, lt schema.LogicalType) (generic.Record, error)
	FromRecord(value generic.Record, s *schema.Schema, lt schema.LogicalType) (generic.Record, error)
}

// Model holds the set of conversions used by datum writers and readers
type Model struct {
	conversions map[string]Conversion
	logger      *slog.Logger
}

type ModelOptionFunc func(*Model)

// WithConversion registers a conversion for its logical type name
func WithConversion(conversion Conversion) ModelOptionFunc {
	return func(m *Model) {
		m.AddConversion(conversion)
	}
}

// WithLogger specifies the logger to use
func WithLogger(logger *slog.Logger) ModelOptionFunc {
	return func(m *Model) {
		m.logger = logger
	}
}

func NewModel(opts ...ModelOptionFunc) *Model {
	m := &Model{
		conversions: map[string]Conversion{},
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.logger == nil {
		m.logger = slog.Default()
	}
	return m
}

// AddConversion registers a conversion, replacing any existing conversion for the same logical type
func (m *Model) AddConversion(conversion Conversion) {
	m.conversions[conversion.LogicalTypeName()] = conversion
}

// Conversion returns the conversion for the named logical type, or nil
func (m *Model) Conversion(name string) Conversion {
	return m.conversions[name]
}

func (m *Model) NewDatumWriter(s *schema.Schema) *DatumWriter {
	return &DatumWriter{
		model:  m,
		schema: s,
	}
}

func (m *Model) NewDatumReader(s *schema.Schema) *DatumReader {
	return &DatumReader{
		model:  m,
		schema: s,
	}
}
