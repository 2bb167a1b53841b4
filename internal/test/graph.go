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

package test

import (
	"github.com/blinklabs-io/refgraph/generic"
	"github.com/blinklabs-io/refgraph/reference"
	"github.com/blinklabs-io/refgraph/schema"
)

// ParentChild holds the schemas of a referenceable Parent record whose Child
// points back at it through a reference field
type ParentChild struct {
	Parent *schema.Schema
	Child  *schema.Schema
}

// NewParentChild builds the Parent/Child schemas programmatically. It panics on
// error, which makes it usable inline
func NewParentChild() ParentChild {
	parentSchema, err := schema.NewRecord("Parent")
	if err != nil {
		panic(err)
	}
	parentRefSchema, err := schema.NewUnion(
		schema.New(schema.TypeNull),
		schema.New(schema.TypeLong),
		parentSchema,
	)
	if err != nil {
		panic(err)
	}
	childSchema, err := schema.NewRecord(
		"Child",
		schema.NewField("c", schema.New(schema.TypeString)),
		schema.NewField("parent", parentRefSchema),
	)
	if err != nil {
		panic(err)
	}
	if _, err := reference.NewReference("parent").AddToSchema(childSchema); err != nil {
		panic(err)
	}
	err = parentSchema.SetFields([]*schema.Field{
		schema.NewField("id", schema.New(schema.TypeLong)),
		schema.NewField("p", schema.New(schema.TypeString)),
		schema.NewField("child", childSchema),
	})
	if err != nil {
		panic(err)
	}
	if _, err := reference.NewReferenceable("id").AddToSchema(parentSchema); err != nil {
		panic(err)
	}
	return ParentChild{
		Parent: parentSchema,
		Child:  childSchema,
	}
}

// NewGraph returns a Parent record with the given key whose child refers back to the parent
func (pc ParentChild) NewGraph(id int64) *generic.GenericRecord {
	parent := generic.NewRecord(pc.Parent)
	child := generic.NewRecord(pc.Child)
	mustPut(parent, "id", id)
	mustPut(parent, "p", "parent data!")
	mustPut(child, "c", "child data!")
	mustPut(child, "parent", parent)
	mustPut(parent, "child", child)
	return parent
}

func mustPut(rec *generic.GenericRecord, name string, v any) {
	if err := rec.PutByName(name, v); err != nil {
		panic(err)
	}
}
