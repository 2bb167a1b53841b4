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

package reference

import (
	"github.com/blinklabs-io/refgraph/schema"
)

const (
	ReferenceableName = "referenceable"
	ReferenceName     = "reference"

	// Schema props holding the annotation configuration
	IdFieldNameProp  = "id-field-name"
	RefFieldNameProp = "ref-field-name"
)

// Referenceable marks a record schema as a valid reference target. The named
// field holds the record's key and must be a long
type Referenceable struct {
	idFieldName string
}

func NewReferenceable(idFieldName string) Referenceable {
	return Referenceable{idFieldName: idFieldName}
}

// ReferenceableFromSchema rebuilds a Referenceable from the props of a parsed schema node
func ReferenceableFromSchema(s *schema.Schema) (schema.LogicalType, error) {
	idFieldName, ok := s.StringProp(IdFieldNameProp)
	if !ok {
		return nil, SchemaConfigurationError{
			LogicalType: ReferenceableName,
			Schema:      s.Name(),
			Reason:      "missing " + IdFieldNameProp + " property",
		}
	}
	ret := NewReferenceable(idFieldName)
	if err := ret.Validate(s); err != nil {
		return nil, err
	}
	return ret, nil
}

func (r Referenceable) Name() string {
	return ReferenceableName
}

func (r Referenceable) IdFieldName() string {
	return r.idFieldName
}

func (r Referenceable) AddToSchema(s *schema.Schema) (*schema.Schema, error) {
	if err := r.Validate(s); err != nil {
		return nil, err
	}
	if err := s.SetProp(IdFieldNameProp, r.idFieldName); err != nil {
		return nil, err
	}
	if err := s.AddLogicalType(r); err != nil {
		return nil, err
	}
	return s, nil
}

func (r Referenceable) Validate(s *schema.Schema) error {
	if s.Type() != schema.TypeRecord {
		return SchemaConfigurationError{
			LogicalType: ReferenceableName,
			Schema:      s.Name(),
			Reason:      "only records can be referenceable",
		}
	}
	idField := s.Field(r.idFieldName)
	if idField == nil {
		return SchemaConfigurationError{
			LogicalType: ReferenceableName,
			Schema:      s.Name(),
			Field:       r.idFieldName,
			Reason:      "no such field",
		}
	}
	if idField.Schema.Type() != schema.TypeLong {
		return SchemaConfigurationError{
			LogicalType: ReferenceableName,
			Schema:      s.Name(),
			Field:       r.idFieldName,
			Reason:      "key field must be long, found " + idField.Schema.Type().String(),
		}
	}
	return nil
}

// Reference marks the named field of a record schema as pointing at a
// referenceable record. The field must be a union with a long branch so that
// a key can be written in place of the record
type Reference struct {
	refFieldName string
}

func NewReference(refFieldName string) Reference {
	return Reference{refFieldName: refFieldName}
}

// ReferenceFromSchema rebuilds a Reference from the props of a parsed schema node
func ReferenceFromSchema(s *schema.Schema) (schema.LogicalType, error) {
	refFieldName, ok := s.StringProp(RefFieldNameProp)
	if !ok {
		return nil, SchemaConfigurationError{
			LogicalType: ReferenceName,
			Schema:      s.Name(),
			Reason:      "missing " + RefFieldNameProp + " property",
		}
	}
	ret := NewReference(refFieldName)
	if err := ret.Validate(s); err != nil {
		return nil, err
	}
	return ret, nil
}

func (r Reference) Name() string {
	return ReferenceName
}

func (r Reference) RefFieldName() string {
	return r.refFieldName
}

func (r Reference) AddToSchema(s *schema.Schema) (*schema.Schema, error) {
	if err := r.Validate(s); err != nil {
		return nil, err
	}
	if err := s.SetProp(RefFieldNameProp, r.refFieldName); err != nil {
		return nil, err
	}
	if err := s.AddLogicalType(r); err != nil {
		return nil, err
	}
	return s, nil
}

func (r Reference) Validate(s *schema.Schema) error {
	if s.Type() != schema.TypeRecord {
		return SchemaConfigurationError{
			LogicalType: ReferenceName,
			Schema:      s.Name(),
			Reason:      "references can only be declared on records",
		}
	}
	refField := s.Field(r.refFieldName)
	if refField == nil {
		return SchemaConfigurationError{
			LogicalType: ReferenceName,
			Schema:      s.Name(),
			Field:       r.refFieldName,
			Reason:      "no such field",
		}
	}
	if refField.Schema.Type() != schema.TypeUnion {
		return SchemaConfigurationError{
			LogicalType: ReferenceName,
			Schema:      s.Name(),
			Field:       r.refFieldName,
			Reason:      "reference field must be a union, found " + refField.Schema.Type().String(),
		}
	}
	for _, branch := range refField.Schema.Branches() {
		if branch.Type() == schema.TypeLong {
			return nil
		}
	}
	return SchemaConfigurationError{
		LogicalType: ReferenceName,
		Schema:      s.Name(),
		Field:       r.refFieldName,
		Reason:      "reference field union has no long branch for keys",
	}
}

// Register adds the referenceable and reference logical types to the registry
func Register(registry *schema.Registry) error {
	if err := registry.Register(ReferenceableName, ReferenceableFromSchema); err != nil {
		return err
	}
	return registry.Register(ReferenceName, ReferenceFromSchema)
}

// NewRegistry returns a registry with the referenceable and reference logical types
func NewRegistry() *schema.Registry {
	registry := schema.NewRegistry()
	// Registering into an empty registry cannot fail
	_ = Register(registry)
	return registry
}
