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
	"fmt"
)

// SchemaConfigurationError is returned when an annotation is attached to a schema
// that lacks the field it depends on, or where that field has the wrong type
type SchemaConfigurationError struct {
	LogicalType string
	Schema      string
	Field       string
	Reason      string
}

func (e SchemaConfigurationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("invalid %s schema %s: %s", e.LogicalType, e.Schema, e.Reason)
	}
	return fmt.Sprintf(
		"invalid %s schema %s: field %s: %s",
		e.LogicalType,
		e.Schema,
		e.Field,
		e.Reason,
	)
}

// UnresolvedReferenceError is returned when a key or reference field holds a value
// that is neither a key, a record, nor null
type UnresolvedReferenceError struct {
	Schema string
	Field  string
	Value  any
}

func (e UnresolvedReferenceError) Error() string {
	return fmt.Sprintf(
		"cannot interpret value of type %T in field %s.%s as a key or record",
		e.Value,
		e.Schema,
		e.Field,
	)
}

// ReadOnlyViolationError is returned when something attempts to modify an OverrideRecord
type ReadOnlyViolationError struct {
	Schema string
	Index  int
}

func (e ReadOnlyViolationError) Error() string {
	return fmt.Sprintf(
		"[BUG] attempted to set field %d of read-only %s record",
		e.Index,
		e.Schema,
	)
}

// DuplicateKeyError is returned when two different records carry the same key within one session
type DuplicateKeyError struct {
	Schema string
	Key    int64
}

func (e DuplicateKeyError) Error() string {
	return fmt.Sprintf("duplicate key %d for %s record", e.Key, e.Schema)
}
