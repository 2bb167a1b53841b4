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

package schema

import (
	"errors"
	"fmt"
	"sort"
)

type Type int

const (
	TypeInvalid Type = iota
	TypeNull
	TypeBoolean
	TypeInt
	TypeLong
	TypeFloat
	TypeDouble
	TypeBytes
	TypeString
	TypeRecord
	TypeUnion
	TypeArray
	TypeMap
)

var typeNames = map[Type]string{
	TypeNull:    "null",
	TypeBoolean: "boolean",
	TypeInt:     "int",
	TypeLong:    "long",
	TypeFloat:   "float",
	TypeDouble:  "double",
	TypeBytes:   "bytes",
	TypeString:  "string",
	TypeRecord:  "record",
	TypeUnion:   "union",
	TypeArray:   "array",
	TypeMap:     "map",
}

// String returns the schema type name as it appears in a schema document
func (t Type) String() string {
	if name, ok := typeNames[t]; ok {
		return name
	}
	return "invalid"
}

// Primitive returns true for types that carry no nested schema
func (t Type) Primitive() bool {
	switch t {
	case TypeNull, TypeBoolean, TypeInt, TypeLong, TypeFloat, TypeDouble, TypeBytes, TypeString:
		return true
	}
	return false
}

// TypeByName returns the primitive type with the given name
func TypeByName(name string) (Type, bool) {
	for t, tName := range typeNames {
		if tName == name && t.Primitive() {
			return t, true
		}
	}
	return TypeInvalid, false
}

// Prop names with structural meaning, which cannot be set as arbitrary props
var reservedProps = map[string]bool{
	"type":        true,
	"name":        true,
	"fields":      true,
	"items":       true,
	"values":      true,
	"doc":         true,
	"logicalType": true,
}

var ErrReservedProp = errors.New("reserved schema property")

// Field is a single named field of a record schema
type Field struct {
	Name   string
	Pos    int
	Schema *Schema
	Doc    string
}

func NewField(name string, s *Schema) *Field {
	return &Field{
		Name:   name,
		Pos:    -1,
		Schema: s,
	}
}

// Schema is a node in a schema tree. Record schemas may be recursive, so a
// schema tree is in general a graph
type Schema struct {
	typ          Type
	name         string
	doc          string
	fields       []*Field
	fieldsByName map[string]*Field
	branches     []*Schema
	items        *Schema
	values       *Schema
	props        map[string]any
	logicalTypes []LogicalType
	// Logical type names found while parsing that the registry did not know
	unknownLogicalTypes []string
}

// New returns a schema node of the given primitive type
func New(t Type) *Schema {
	return &Schema{
		typ:   t,
		props: map[string]any{},
	}
}

// NewRecord returns a record schema. Fields may be provided later with SetFields to
// allow a record to refer to itself
func NewRecord(name string, fields ...*Field) (*Schema, error) {
	if name == "" {
		return nil, errors.New("record schema requires a name")
	}
	s := &Schema{
		typ:   TypeRecord,
		name:  name,
		props: map[string]any{},
	}
	if len(fields) > 0 {
		if err := s.SetFields(fields); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// SetFields sets the fields of a record schema and assigns their positions
func (s *Schema) SetFields(fields []*Field) error {
	if s.typ != TypeRecord {
		return fmt.Errorf("cannot set fields on %s schema", s.typ)
	}
	if s.fields != nil {
		return fmt.Errorf("fields of record %s are already set", s.name)
	}
	byName := make(map[string]*Field, len(fields))
	for idx, field := range fields {
		if field == nil || field.Schema == nil {
			return fmt.Errorf("record %s: field %d has no schema", s.name, idx)
		}
		if field.Name == "" {
			return fmt.Errorf("record %s: field %d has no name", s.name, idx)
		}
		if _, ok := byName[field.Name]; ok {
			return fmt.Errorf("record %s: duplicate field name: %s", s.name, field.Name)
		}
		field.Pos = idx
		byName[field.Name] = field
	}
	s.fields = append([]*Field{}, fields...)
	s.fieldsByName = byName
	return nil
}

// NewUnion returns a union of the provided branch schemas. Unions may not
// directly contain other unions or more than one branch of the same unnamed type
func NewUnion(branches ...*Schema) (*Schema, error) {
	seen := map[string]bool{}
	for _, branch := range branches {
		if branch == nil {
			return nil, errors.New("union branch cannot be nil")
		}
		if branch.typ == TypeUnion {
			return nil, errors.New("unions may not immediately contain other unions")
		}
		key := branch.typ.String()
		if branch.typ == TypeRecord {
			key = branch.name
		}
		if seen[key] {
			return nil, fmt.Errorf("duplicate union branch: %s", key)
		}
		seen[key] = true
	}
	return &Schema{
		typ:      TypeUnion,
		branches: append([]*Schema{}, branches...),
		props:    map[string]any{},
	}, nil
}

func NewArray(items *Schema) *Schema {
	return &Schema{
		typ:   TypeArray,
		items: items,
		props: map[string]any{},
	}
}

func NewMap(values *Schema) *Schema {
	return &Schema{
		typ:    TypeMap,
		values: values,
		props:  map[string]any{},
	}
}

func (s *Schema) Type() Type {
	return s.typ
}

// Name returns the name of a record schema, or the type name for other schemas
func (s *Schema) Name() string {
	if s.typ == TypeRecord {
		return s.name
	}
	return s.typ.String()
}

func (s *Schema) Doc() string {
	return s.doc
}

func (s *Schema) SetDoc(doc string) {
	s.doc = doc
}

func (s *Schema) Fields() []*Field {
	return s.fields
}

// Field returns the record field with the given name, or nil
func (s *Schema) Field(name string) *Field {
	if s.fieldsByName == nil {
		return nil
	}
	return s.fieldsByName[name]
}

func (s *Schema) Branches() []*Schema {
	return s.branches
}

func (s *Schema) Items() *Schema {
	return s.items
}

func (s *Schema) Values() *Schema {
	return s.values
}

// SetProp sets an arbitrary named property on the schema node
func (s *Schema) SetProp(name string, value any) error {
	if reservedProps[name] {
		return fmt.Errorf("%w: %s", ErrReservedProp, name)
	}
	s.props[name] = value
	return nil
}

// Prop returns the named property, or nil if it is not set
func (s *Schema) Prop(name string) any {
	return s.props[name]
}

// StringProp returns the named property if it is set and is a string
func (s *Schema) StringProp(name string) (string, bool) {
	v, ok := s.props[name].(string)
	return v, ok
}

// PropNames returns the names of all properties in sorted order
func (s *Schema) PropNames() []string {
	ret := make([]string, 0, len(s.props))
	for name := range s.props {
		ret = append(ret, name)
	}
	sort.Strings(ret)
	return ret
}

// AddLogicalType attaches a logical type to the schema node. A node carries at
// most one logical type with a given name
func (s *Schema) AddLogicalType(lt LogicalType) error {
	if lt == nil {
		return errors.New("logical type cannot be nil")
	}
	for idx, tmpLt := range s.logicalTypes {
		if tmpLt.Name() == lt.Name() {
			s.logicalTypes[idx] = lt
			return nil
		}
	}
	s.logicalTypes = append(s.logicalTypes, lt)
	return nil
}

// LogicalTypes returns the logical types attached to the node in attachment order
func (s *Schema) LogicalTypes() []LogicalType {
	return s.logicalTypes
}

// LogicalType returns the attached logical type with the given name, or nil
func (s *Schema) LogicalType(name string) LogicalType {
	for _, lt := range s.logicalTypes {
		if lt.Name() == name {
			return lt
		}
	}
	return nil
}
