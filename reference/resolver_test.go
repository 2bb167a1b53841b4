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
	"bytes"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/blinklabs-io/refgraph/cbor"
	"github.com/blinklabs-io/refgraph/generic"
	"github.com/blinklabs-io/refgraph/internal/test"
	"github.com/blinklabs-io/refgraph/reference"
	"github.com/blinklabs-io/refgraph/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

// nodeSchemaJson describes a record that can both be referenced and refer to another node
const nodeSchemaJson = `{
  "type": "record",
  "name": "Pair",
  "fields": [
    {"name": "first", "type": {
      "type": "record",
      "name": "Node",
      "logicalType": ["referenceable", "reference"],
      "id-field-name": "id",
      "ref-field-name": "link",
      "fields": [
        {"name": "id", "type": "long"},
        {"name": "name", "type": "string"},
        {"name": "link", "type": ["null", "long", "Node"]}
      ]
    }},
    {"name": "second", "type": "Node"},
    {"name": "third", "type": "Node"}
  ]
}`

type nodeFixture struct {
	pair *schema.Schema
	node *schema.Schema
}

func newNodeFixture(t *testing.T) nodeFixture {
	pair, err := schema.Parse([]byte(nodeSchemaJson), reference.NewRegistry())
	require.NoError(t, err)
	return nodeFixture{
		pair: pair,
		node: pair.Field("first").Schema,
	}
}

func (f nodeFixture) newNode(t *testing.T, id int64, name string, link any) *generic.GenericRecord {
	node := generic.NewRecord(f.node)
	require.NoError(t, node.PutByName("id", id))
	require.NoError(t, node.PutByName("name", name))
	require.NoError(t, node.PutByName("link", link))
	return node
}

func (f nodeFixture) newPair(t *testing.T, first, second, third any) *generic.GenericRecord {
	pair := generic.NewRecord(f.pair)
	require.NoError(t, pair.PutByName("first", first))
	require.NoError(t, pair.PutByName("second", second))
	require.NoError(t, pair.PutByName("third", third))
	return pair
}

func write(t *testing.T, s *schema.Schema, datum any) []byte {
	data, err := reference.NewResolver().Model().NewDatumWriter(s).Marshal(datum)
	require.NoError(t, err)
	return data
}

func read(t *testing.T, s *schema.Schema, data []byte) (*generic.GenericRecord, *reference.Resolver) {
	resolver := reference.NewResolver()
	out, err := resolver.Model().NewDatumReader(s).Unmarshal(data)
	require.NoError(t, err)
	rec, ok := out.(*generic.GenericRecord)
	require.True(t, ok)
	return rec, resolver
}

func TestParentChildRoundTrip(t *testing.T) {
	pc := test.NewParentChild()
	parent := pc.NewGraph(1)
	result, resolver := read(t, pc.Parent, write(t, pc.Parent, parent))

	assert.Equal(t, int64(1), result.MustGet("id"))
	assert.Equal(t, "parent data!", result.MustGet("p"))
	resultChild, ok := result.MustGet("child").(*generic.GenericRecord)
	require.True(t, ok)
	assert.Equal(t, "child data!", resultChild.MustGet("c"))
	// The child's parent is the same instance as the top-level record, not a copy
	assert.Same(t, result, resultChild.MustGet("parent"))
	assert.Empty(t, resolver.PendingKeys())
	resolved, ok := resolver.Resolved(1)
	assert.True(t, ok)
	assert.Same(t, result, resolved)
}

func TestParentChildEncodesKey(t *testing.T) {
	pc := test.NewParentChild()
	parent := pc.NewGraph(1)
	resolver := reference.NewResolver()
	encoded, err := resolver.Model().NewDatumWriter(pc.Parent).Encode(parent)
	require.NoError(t, err)
	// [1, "parent data!", ["child data!", [1, 1]]]: the child's parent is written as
	// the long branch holding the key
	expected := []any{
		int64(1),
		"parent data!",
		[]any{"child data!", []any{uint64(1), int64(1)}},
	}
	assert.Equal(t, expected, encoded)
	key, ok := resolver.Key(parent)
	assert.True(t, ok)
	assert.Equal(t, int64(1), key)
}

func TestSharedReferenceIdentity(t *testing.T) {
	f := newNodeFixture(t)
	a := f.newNode(t, 1, "a", nil)
	b := f.newNode(t, 2, "b", a)
	c := f.newNode(t, 3, "c", a)
	result, _ := read(t, f.pair, write(t, f.pair, f.newPair(t, a, b, c)))

	first := result.MustGet("first").(*generic.GenericRecord)
	second := result.MustGet("second").(*generic.GenericRecord)
	third := result.MustGet("third").(*generic.GenericRecord)
	assert.Equal(t, "a", first.MustGet("name"))
	// Both references point at the same instance
	assert.Same(t, first, second.MustGet("link"))
	assert.Same(t, first, third.MustGet("link"))
}

func TestForwardReference(t *testing.T) {
	f := newNodeFixture(t)
	// The first node refers to the third by key, before the third has been read
	b := f.newNode(t, 2, "b", int64(3))
	c := f.newNode(t, 3, "c", nil)
	d := f.newNode(t, 4, "d", int64(3))
	pair := f.newPair(t, b, d, c)
	data := write(t, f.pair, pair)

	// Decode from the generic CBOR structure to exercise the reader without framing
	var raw any
	_, err := cbor.Decode(data, &raw)
	require.NoError(t, err)
	resolver := reference.NewResolver()
	out, err := resolver.Model().NewDatumReader(f.pair).Decode(raw)
	require.NoError(t, err)
	result := out.(*generic.GenericRecord)

	first := result.MustGet("first").(*generic.GenericRecord)
	second := result.MustGet("second").(*generic.GenericRecord)
	third := result.MustGet("third").(*generic.GenericRecord)
	assert.Same(t, third, first.MustGet("link"))
	assert.Same(t, third, second.MustGet("link"))
	assert.Empty(t, resolver.PendingKeys())
	// The caller's records still hold the raw key
	assert.Equal(t, int64(3), b.MustGet("link"))
}

func TestSelfReference(t *testing.T) {
	f := newNodeFixture(t)
	self := f.newNode(t, 1, "self", nil)
	require.NoError(t, self.PutByName("link", self))
	other := f.newNode(t, 2, "other", self)
	data := write(t, f.pair, f.newPair(t, self, other, self))
	// The cycle is broken by the key, so the encoding is small
	assert.Less(t, len(data), 64)

	result, resolver := read(t, f.pair, data)
	first := result.MustGet("first").(*generic.GenericRecord)
	assert.Same(t, first, first.MustGet("link"))
	second := result.MustGet("second").(*generic.GenericRecord)
	assert.Same(t, first, second.MustGet("link"))
	// The third field is a second full copy of the same node; references keep
	// resolving to the first copy
	third := result.MustGet("third").(*generic.GenericRecord)
	assert.Equal(t, int64(1), third.MustGet("id"))
	resolved, ok := resolver.Resolved(1)
	require.True(t, ok)
	assert.Same(t, first, resolved)
}

func TestUnseenKeyNeverResolved(t *testing.T) {
	f := newNodeFixture(t)
	a := f.newNode(t, 1, "a", int64(42))
	b := f.newNode(t, 2, "b", int64(42))
	c := f.newNode(t, 3, "c", int64(7))
	result, resolver := read(t, f.pair, write(t, f.pair, f.newPair(t, a, b, c)))

	first := result.MustGet("first").(*generic.GenericRecord)
	assert.Equal(t, int64(42), first.MustGet("link"))
	third := result.MustGet("third").(*generic.GenericRecord)
	assert.Equal(t, int64(7), third.MustGet("link"))
	assert.Equal(t, []int64{7, 42}, resolver.PendingKeys())
	_, ok := resolver.Resolved(42)
	assert.False(t, ok)
}

func TestWriteDoesNotMutate(t *testing.T) {
	pc := test.NewParentChild()
	parent := pc.NewGraph(1)
	child := parent.MustGet("child").(*generic.GenericRecord)

	first := write(t, pc.Parent, parent)
	second := write(t, pc.Parent, parent)
	assert.Equal(t, first, second)

	// Writing twice within one session gives the same output as well
	writer := reference.NewResolver().Model().NewDatumWriter(pc.Parent)
	third, err := writer.Marshal(parent)
	require.NoError(t, err)
	fourth, err := writer.Marshal(parent)
	require.NoError(t, err)
	assert.True(t, bytes.Equal(first, third))
	assert.True(t, bytes.Equal(first, fourth))

	assert.Equal(t, int64(1), parent.MustGet("id"))
	assert.Same(t, child, parent.MustGet("child"))
	assert.Same(t, parent, child.MustGet("parent"))
}

func TestUnseenRecordWrittenInline(t *testing.T) {
	pc := test.NewParentChild()
	parent := pc.NewGraph(1)
	child := parent.MustGet("child").(*generic.GenericRecord)

	// Writing the child first means its parent has not been seen yet, so the parent
	// is written inline and the parent's own child reference is written as a key
	data := write(t, pc.Child, child)
	result, resolver := read(t, pc.Child, data)
	resultParent, ok := result.MustGet("parent").(*generic.GenericRecord)
	require.True(t, ok)
	assert.Equal(t, int64(1), resultParent.MustGet("id"))
	innerChild := resultParent.MustGet("child").(*generic.GenericRecord)
	assert.Same(t, resultParent, innerChild.MustGet("parent"))
	assert.Empty(t, resolver.PendingKeys())
}

func TestUnresolvedReferenceError(t *testing.T) {
	pc := test.NewParentChild()
	parent := pc.NewGraph(1)
	child := parent.MustGet("child").(*generic.GenericRecord)
	require.NoError(t, child.PutByName("parent", "not a reference"))

	_, err := reference.NewResolver().Model().NewDatumWriter(pc.Parent).Encode(parent)
	var refErr reference.UnresolvedReferenceError
	require.True(t, errors.As(err, &refErr), "got %v", err)
	assert.Equal(t, "Child", refErr.Schema)
	assert.Equal(t, "parent", refErr.Field)

	// The read hook rejects the same value
	handler := reference.NewResolver().Handler()
	_, err = handler.FromRecord(child, pc.Child, pc.Child.LogicalType(reference.ReferenceName))
	assert.True(t, errors.As(err, &refErr))

	// A key field that does not hold a key is rejected too
	require.NoError(t, parent.PutByName("id", "one"))
	_, err = reference.NewResolver().Model().NewDatumWriter(pc.Parent).Encode(parent)
	require.True(t, errors.As(err, &refErr), "got %v", err)
	assert.Equal(t, "id", refErr.Field)
}

func TestDuplicateKeyError(t *testing.T) {
	f := newNodeFixture(t)
	a := f.newNode(t, 1, "a", nil)
	b := f.newNode(t, 1, "b", nil)
	c := f.newNode(t, 3, "c", nil)
	_, err := reference.NewResolver().Model().NewDatumWriter(f.pair).Encode(f.newPair(t, a, b, c))
	var dupErr reference.DuplicateKeyError
	require.True(t, errors.As(err, &dupErr), "got %v", err)
	assert.Equal(t, int64(1), dupErr.Key)
	assert.Equal(t, "Node", dupErr.Schema)
}

func TestResolverReset(t *testing.T) {
	f := newNodeFixture(t)
	a := f.newNode(t, 1, "a", int64(9))
	data := write(t, f.pair, f.newPair(t, a, f.newNode(t, 2, "b", nil), f.newNode(t, 3, "c", nil)))
	resolver := reference.NewResolver()
	_, err := resolver.Model().NewDatumReader(f.pair).Unmarshal(data)
	require.NoError(t, err)
	assert.Equal(t, []int64{9}, resolver.PendingKeys())
	_, ok := resolver.Resolved(1)
	assert.True(t, ok)
	resolver.Reset()
	assert.Empty(t, resolver.PendingKeys())
	_, ok = resolver.Resolved(1)
	assert.False(t, ok)
}

func TestCallbackErrorsPropagate(t *testing.T) {
	pc := test.NewParentChild()
	resolver := reference.NewResolver()
	handler := resolver.Handler()
	tracker := resolver.Tracker()
	refType := pc.Child.LogicalType(reference.ReferenceName)
	idType := pc.Parent.LogicalType(reference.ReferenceableName)

	// A reference read through a read-only view queues a patch that must fail
	child := generic.NewRecord(pc.Child)
	require.NoError(t, child.PutByName("parent", int64(5)))
	view := reference.NewOverrideRecord(child, 0, "child data!")
	_, err := handler.FromRecord(view, pc.Child, refType)
	require.NoError(t, err)
	assert.Equal(t, []int64{5}, resolver.PendingKeys())

	parent := generic.NewRecord(pc.Parent)
	require.NoError(t, parent.PutByName("id", int64(5)))
	_, err = tracker.FromRecord(parent, pc.Parent, idType)
	var readOnlyErr reference.ReadOnlyViolationError
	assert.True(t, errors.As(err, &readOnlyErr), "got %v", err)
}

func TestParallelSessions(t *testing.T) {
	defer goleak.VerifyNone(t)
	pc := test.NewParentChild()
	var wg sync.WaitGroup
	errs := make(chan error, 16)
	for i := range 16 {
		wg.Add(1)
		go func(id int64) {
			defer wg.Done()
			parent := pc.NewGraph(id)
			data, err := reference.NewResolver().Model().NewDatumWriter(pc.Parent).Marshal(parent)
			if err != nil {
				errs <- err
				return
			}
			out, err := reference.NewResolver().Model().NewDatumReader(pc.Parent).Unmarshal(data)
			if err != nil {
				errs <- err
				return
			}
			result := out.(*generic.GenericRecord)
			child := result.MustGet("child").(*generic.GenericRecord)
			if child.MustGet("parent") != generic.Record(result) {
				errs <- fmt.Errorf("session %d: child does not point at its parent", id)
				return
			}
			if result.MustGet("id") != id {
				errs <- fmt.Errorf("session %d: got id %v", id, result.MustGet("id"))
			}
		}(int64(i))
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Error(err)
	}
}

func TestSelfReferenceAnnotationOrder(t *testing.T) {
	// The reference annotation is attached before the identity annotation, so the
	// reference hook runs before the record has been tracked
	node, err := schema.NewRecord("Loop")
	require.NoError(t, err)
	link, err := schema.NewUnion(schema.New(schema.TypeNull), schema.New(schema.TypeLong), node)
	require.NoError(t, err)
	require.NoError(t, node.SetFields([]*schema.Field{
		schema.NewField("id", schema.New(schema.TypeLong)),
		schema.NewField("link", link),
	}))
	_, err = reference.NewReference("link").AddToSchema(node)
	require.NoError(t, err)
	_, err = reference.NewReferenceable("id").AddToSchema(node)
	require.NoError(t, err)

	loop := generic.NewRecord(node)
	require.NoError(t, loop.PutByName("id", int64(5)))
	require.NoError(t, loop.PutByName("link", loop))
	result, resolver := read(t, node, write(t, node, loop))
	assert.Equal(t, int64(5), result.MustGet("id"))
	assert.Same(t, result, result.MustGet("link"))
	assert.Empty(t, resolver.PendingKeys())
}
