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

package reference_test

import (
	"errors"
	"testing"

	"github.com/blinklabs-io/refgraph/reference"
	"github.com/blinklabs-io/refgraph/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustRecord(t *testing.T, name string, fields ...*schema.Field) *schema.Schema {
	s, err := schema.NewRecord(name, fields...)
	require.NoError(t, err)
	return s
}

func mustUnion(t *testing.T, branches ...*schema.Schema) *schema.Schema {
	s, err := schema.NewUnion(branches...)
	require.NoError(t, err)
	return s
}

func TestReferenceableValidate(t *testing.T) {
	testDefs := []struct {
		name    string
		schema  *schema.Schema
		idField string
		reason  string
	}{
		{
			name:    "valid",
			schema:  mustRecord(t, "A", schema.NewField("id", schema.New(schema.TypeLong))),
			idField: "id",
		},
		{
			name:    "missing field",
			schema:  mustRecord(t, "A", schema.NewField("id", schema.New(schema.TypeLong))),
			idField: "key",
			reason:  "no such field",
		},
		{
			name:    "wrong type",
			schema:  mustRecord(t, "A", schema.NewField("id", schema.New(schema.TypeString))),
			idField: "id",
			reason:  "key field must be long, found string",
		},
		{
			name:    "not a record",
			schema:  schema.New(schema.TypeLong),
			idField: "id",
			reason:  "only records can be referenceable",
		},
	}
	for _, testDef := range testDefs {
		lt := reference.NewReferenceable(testDef.idField)
		_, err := lt.AddToSchema(testDef.schema)
		if testDef.reason == "" {
			require.NoError(t, err, testDef.name)
			assert.Equal(t, lt, testDef.schema.LogicalType(reference.ReferenceableName), testDef.name)
			v, _ := testDef.schema.StringProp(reference.IdFieldNameProp)
			assert.Equal(t, testDef.idField, v, testDef.name)
			continue
		}
		var configErr reference.SchemaConfigurationError
		require.True(t, errors.As(err, &configErr), testDef.name)
		assert.Equal(t, testDef.reason, configErr.Reason, testDef.name)
		assert.Equal(t, reference.ReferenceableName, configErr.LogicalType, testDef.name)
		// A failed attach leaves the schema untouched
		if testDef.schema.Type() == schema.TypeRecord {
			assert.Empty(t, testDef.schema.LogicalTypes(), testDef.name)
		}
	}
}

func TestReferenceValidate(t *testing.T) {
	long := schema.New(schema.TypeLong)
	target := mustRecord(t, "Target", schema.NewField("id", long))
	testDefs := []struct {
		name   string
		schema *schema.Schema
		reason string
	}{
		{
			name: "valid",
			schema: mustRecord(
				t,
				"A",
				schema.NewField("ref", mustUnion(t, schema.New(schema.TypeNull), long, target)),
			),
		},
		{
			name:   "missing field",
			schema: mustRecord(t, "A", schema.NewField("other", long)),
			reason: "no such field",
		},
		{
			name:   "not a union",
			schema: mustRecord(t, "A", schema.NewField("ref", long)),
			reason: "reference field must be a union, found long",
		},
		{
			name: "no long branch",
			schema: mustRecord(
				t,
				"A",
				schema.NewField("ref", mustUnion(t, schema.New(schema.TypeNull), target)),
			),
			reason: "reference field union has no long branch for keys",
		},
		{
			name:   "not a record",
			schema: mustUnion(t, schema.New(schema.TypeNull), long),
			reason: "references can only be declared on records",
		},
	}
	for _, testDef := range testDefs {
		lt := reference.NewReference("ref")
		_, err := lt.AddToSchema(testDef.schema)
		if testDef.reason == "" {
			require.NoError(t, err, testDef.name)
			assert.Equal(t, lt, testDef.schema.LogicalType(reference.ReferenceName), testDef.name)
			assert.Equal(t, "ref", lt.RefFieldName())
			continue
		}
		var configErr reference.SchemaConfigurationError
		require.True(t, errors.As(err, &configErr), testDef.name)
		assert.Equal(t, testDef.reason, configErr.Reason, testDef.name)
	}
}

const annotatedSchemaJson = `{
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

func TestParseAnnotatedSchema(t *testing.T) {
	registry := reference.NewRegistry()
	assert.Equal(t, []string{"reference", "referenceable"}, registry.Names())
	parent, err := schema.Parse([]byte(annotatedSchemaJson), registry)
	require.NoError(t, err)
	idRef, ok := parent.LogicalType(reference.ReferenceableName).(reference.Referenceable)
	require.True(t, ok)
	assert.Equal(t, "id", idRef.IdFieldName())
	child := parent.Field("child").Schema
	ref, ok := child.LogicalType(reference.ReferenceName).(reference.Reference)
	require.True(t, ok)
	assert.Equal(t, "parent", ref.RefFieldName())

	// The annotation configuration survives schema serialization
	reparsed, err := schema.Parse([]byte(parent.String()), registry)
	require.NoError(t, err)
	assert.Equal(t, parent.String(), reparsed.String())
	assert.Equal(t, idRef, reparsed.LogicalType(reference.ReferenceableName))

	// Registering twice fails
	assert.Error(t, reference.Register(registry))
}

func TestParseAnnotatedSchemaErrors(t *testing.T) {
	registry := reference.NewRegistry()
	testDefs := []string{
		// Missing id-field-name
		`{"type": "record", "name": "A", "logicalType": "referenceable", "fields": [{"name": "id", "type": "long"}]}`,
		// id field is not a long
		`{"type": "record", "name": "A", "logicalType": "referenceable", "id-field-name": "id", "fields": [{"name": "id", "type": "string"}]}`,
		// Missing ref-field-name
		`{"type": "record", "name": "A", "logicalType": "reference", "fields": [{"name": "r", "type": ["null", "long"]}]}`,
		// Reference field does not exist
		`{"type": "record", "name": "A", "logicalType": "reference", "ref-field-name": "x", "fields": [{"name": "r", "type": ["null", "long"]}]}`,
	}
	for _, doc := range testDefs {
		_, err := schema.Parse([]byte(doc), registry)
		var configErr reference.SchemaConfigurationError
		assert.True(t, errors.As(err, &configErr), "parsing %s: got %v", doc, err)
	}
}

func TestSelfReferenceSchema(t *testing.T) {
	doc := `{
  "type": "record",
  "name": "Node",
  "logicalType": ["referenceable", "reference"],
  "id-field-name": "id",
  "ref-field-name": "next",
  "fields": [
    {"name": "id", "type": "long"},
    {"name": "next", "type": ["null", "long", "Node"]}
  ]
}`
	s, err := schema.Parse([]byte(doc), reference.NewRegistry())
	require.NoError(t, err)
	require.Len(t, s.LogicalTypes(), 2)
	assert.Contains(t, s.String(), `"logicalType":["referenceable","reference"]`)
}
