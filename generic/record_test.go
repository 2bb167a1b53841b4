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

package generic_test

import (
	"errors"
	"testing"

	"github.com/blinklabs-io/refgraph/generic"
	"github.com/blinklabs-io/refgraph/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSchema(t *testing.T) *schema.Schema {
	s, err := schema.NewRecord(
		"Point",
		schema.NewField("x", schema.New(schema.TypeLong)),
		schema.NewField("label", schema.New(schema.TypeString)),
	)
	require.NoError(t, err)
	return s
}

func TestRecordGetPut(t *testing.T) {
	s := newTestSchema(t)
	r := generic.NewRecord(s)
	assert.Same(t, s, r.Schema())
	assert.Nil(t, r.Get(0))
	require.NoError(t, r.Put(0, int64(5)))
	require.NoError(t, r.PutByName("label", "five"))
	assert.Equal(t, int64(5), r.Get(0))
	assert.Equal(t, "five", r.Get(1))
	v, err := r.GetByName("x")
	require.NoError(t, err)
	assert.Equal(t, int64(5), v)
	assert.Equal(t, "five", r.MustGet("label"))
	assert.Nil(t, r.Get(2))
	assert.Nil(t, r.Get(-1))
}

func TestRecordFieldErrors(t *testing.T) {
	r := generic.NewRecord(newTestSchema(t))
	var fieldErr generic.FieldIndexError
	err := r.Put(2, "x")
	require.True(t, errors.As(err, &fieldErr))
	assert.Equal(t, 2, fieldErr.Index)
	assert.Equal(t, "record Point has no field at position 2", err.Error())
	_, err = r.GetByName("missing")
	assert.EqualError(t, err, "record Point has no field named missing")
	assert.Error(t, r.PutByName("missing", 1))
	assert.Panics(t, func() { r.MustGet("missing") })
}

func TestRecordIdentity(t *testing.T) {
	s := newTestSchema(t)
	a := generic.NewRecord(s)
	b := generic.NewRecord(s)
	// Equal contents, distinct identities
	ids := map[generic.Record]int{a: 1, b: 2}
	assert.Len(t, ids, 2)
	assert.Equal(t, 1, ids[a])
}
