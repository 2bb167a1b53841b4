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
	"github.com/blinklabs-io/refgraph/generic"
	"github.com/blinklabs-io/refgraph/schema"
)

// OverrideRecord is a read-only view of a record that returns substitute data at
// one field position and delegates every other position to the wrapped record
type OverrideRecord struct {
	wrapped generic.Record
	index   int
	data    any
}

func NewOverrideRecord(wrapped generic.Record, index int, data any) OverrideRecord {
	return OverrideRecord{
		wrapped: wrapped,
		index:   index,
		data:    data,
	}
}

func (o OverrideRecord) Get(i int) any {
	if i == o.index {
		return o.data
	}
	return o.wrapped.Get(i)
}

// Put always returns ReadOnlyViolationError
func (o OverrideRecord) Put(i int, v any) error {
	return ReadOnlyViolationError{
		Schema: o.wrapped.Schema().Name(),
		Index:  i,
	}
}

func (o OverrideRecord) Schema() *schema.Schema {
	return o.wrapped.Schema()
}

// Unwrap returns the wrapped record
func (o OverrideRecord) Unwrap() generic.Record {
	return o.wrapped
}
