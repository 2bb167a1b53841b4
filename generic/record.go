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

// Package generic provides a schema-described record that stores field values by position.
package generic

import (
	"fmt"

	"github.com/blinklabs-io/refgraph/schema"
)

// Record is a structural record with integer-indexed field access
type Record interface {
	Get(i int) any
	Put(i int, v any) error
	Schema() *schema.Schema
}

// FieldIndexError is returned when a record field position or name does not exist
type FieldIndexError struct {
	Record string
	Index  int
	Name   string
}

func (e FieldIndexError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("record %s has no field named %s", e.Record, e.Name)
	}
	return fmt.Sprintf("record %s has no field at position %d", e.Record, e.Index)
}

// GenericRecord is a Record backed by a slice of field values. Records are
// compared by pointer identity, never by value
type GenericRecord struct {
	schema *schema.Schema
	values []any
}

// NewRecord returns an empty record for the provided record schema
func NewRecord(s *schema.Schema) *GenericRecord {
	return &GenericRecord{
		schema: s,
		values: make([]any, len(s.Fields())),
	}
}

func (r *GenericRecord) Schema() *schema.Schema {
	return r.schema
}

// Get returns the value at field position i, or nil if there is no such field
func (r *GenericRecord) Get(i int) any {
	if i < 0 || i >= len(r.values) {
		return nil
	}
	return r.values[i]
}

func (r *GenericRecord) Put(i int, v any) error {
	if i < 0 || i >= len(r.values) {
		return FieldIndexError{Record: r.schema.Name(), Index: i}
	}
	r.values[i] = v
	return nil
}

// GetByName returns the value of the named field
func (r *GenericRecord) GetByName(name string) (any, error) {
	field := r.schema.Field(name)
	if field == nil {
		return nil, FieldIndexError{Record: r.schema.Name(), Name: name}
	}
	return r.values[field.Pos], nil
}

// PutByName sets the value of the named field
func (r *GenericRecord) PutByName(name string, v any) error {
	field := r.schema.Field(name)
	if field == nil {
		return FieldIndexError{Record: r.schema.Name(), Name: name}
	}
	r.values[field.Pos] = v
	return nil
}

// MustGet returns the value of the named field, and panics if there is no such field.
// It is intended for tests and examples
func (r *GenericRecord) MustGet(name string) any {
	v, err := r.GetByName(name)
	if err != nil {
		panic(err)
	}
	return v
}

func (r *GenericRecord) String() string {
	return fmt.Sprintf("<%s record with %d fields>", r.schema.Name(), len(r.values))
}
