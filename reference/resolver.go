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
	"log/slog"
	"math"
	"reflect"
	"slices"

	"github.com/blinklabs-io/refgraph/codec"
	"github.com/blinklabs-io/refgraph/generic"
	"github.com/blinklabs-io/refgraph/schema"
)

type callback func(referenceable generic.Record) error

// Resolver owns the identity and pending-callback tables for one read or write pass.
// It is not safe for concurrent use
type Resolver struct {
	logger *slog.Logger
	// Read side: key to fully decoded record
	references map[int64]generic.Record
	// Read side: key to field patches waiting for that key, in registration order
	callbacksById map[int64][]callback
	// Write side: record identity to key, and key to record for duplicate detection
	ids  map[generic.Record]int64
	keys map[int64]generic.Record
}

type ResolverOptionFunc func(*Resolver)

// WithLogger specifies the logger to use
func WithLogger(logger *slog.Logger) ResolverOptionFunc {
	return func(r *Resolver) {
		r.logger = logger
	}
}

// NewResolver returns a resolver with empty tables
func NewResolver(opts ...ResolverOptionFunc) *Resolver {
	r := &Resolver{}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = slog.Default()
	}
	r.Reset()
	return r
}

// Reset discards all session state
func (r *Resolver) Reset() {
	r.references = map[int64]generic.Record{}
	r.callbacksById = map[int64][]callback{}
	r.ids = map[generic.Record]int64{}
	r.keys = map[int64]generic.Record{}
}

// Tracker returns the conversion for the referenceable logical type
func (r *Resolver) Tracker() codec.Conversion {
	return &tracker{resolver: r}
}

// Handler returns the conversion for the reference logical type
func (r *Resolver) Handler() codec.Conversion {
	return &handler{resolver: r}
}

// Model returns a codec model using this resolver's conversions. Additional
// model options are applied afterward
func (r *Resolver) Model(opts ...codec.ModelOptionFunc) *codec.Model {
	modelOpts := []codec.ModelOptionFunc{
		codec.WithLogger(r.logger),
		codec.WithConversion(r.Tracker()),
		codec.WithConversion(r.Handler()),
	}
	modelOpts = append(modelOpts, opts...)
	return codec.NewModel(modelOpts...)
}

// PendingKeys returns the keys referenced during a read pass whose records have not
// been seen, in ascending order
func (r *Resolver) PendingKeys() []int64 {
	ret := make([]int64, 0, len(r.callbacksById))
	for key := range r.callbacksById {
		ret = append(ret, key)
	}
	slices.Sort(ret)
	return ret
}

// Resolved returns the record read for the given key, if any
func (r *Resolver) Resolved(key int64) (generic.Record, bool) {
	rec, ok := r.references[key]
	return rec, ok
}

// Key returns the key recorded for a record during a write pass, if any
func (r *Resolver) Key(rec generic.Record) (int64, bool) {
	rec = unwrap(rec)
	if !hasIdentity(rec) {
		return 0, false
	}
	key, ok := r.ids[rec]
	return key, ok
}

// trackWrite remembers the key of a record about to be written
func (r *Resolver) trackWrite(rec generic.Record, key int64) error {
	if !hasIdentity(rec) {
		r.logger.Debug(
			"record type has no identity, it will not be referenced by key",
			"type",
			fmt.Sprintf("%T", rec),
		)
		return nil
	}
	if existing, ok := r.keys[key]; ok && existing != rec {
		return DuplicateKeyError{Schema: rec.Schema().Name(), Key: key}
	}
	r.ids[rec] = key
	r.keys[key] = rec
	return nil
}

// trackRead stores a fully decoded record under its key and fires any callbacks waiting for it.
// A record written in full more than once is decoded into separate copies, and
// the first copy read stays the one that references resolve to
func (r *Resolver) trackRead(rec generic.Record, key int64) error {
	if existing, ok := r.references[key]; ok {
		if !hasIdentity(rec) || existing != rec {
			r.logger.Debug(
				"key already resolved, keeping first record",
				"key",
				key,
				"record",
				rec.Schema().Name(),
			)
		}
		return nil
	}
	r.references[key] = rec
	callbacks := r.callbacksById[key]
	delete(r.callbacksById, key)
	if len(callbacks) > 0 {
		r.logger.Debug(
			"resolving forward references",
			"key",
			key,
			"count",
			len(callbacks),
		)
	}
	for _, cb := range callbacks {
		if err := cb(rec); err != nil {
			return err
		}
	}
	return nil
}

// tracker handles the referenceable logical type
type tracker struct {
	resolver *Resolver
}

func (t *tracker) LogicalTypeName() string {
	return ReferenceableName
}

// ToRecord records the identity of a record about to be written and passes it through
func (t *tracker) ToRecord(value generic.Record, s *schema.Schema, lt schema.LogicalType) (generic.Record, error) {
	info, ok := lt.(Referenceable)
	if !ok {
		return nil, SchemaConfigurationError{
			LogicalType: ReferenceableName,
			Schema:      s.Name(),
			Reason:      "unexpected logical type implementation",
		}
	}
	key, err := recordKey(value, s, info)
	if err != nil {
		return nil, err
	}
	if err := t.resolver.trackWrite(unwrap(value), key); err != nil {
		return nil, err
	}
	return value, nil
}

// FromRecord stores a decoded record under its key and patches references waiting for it
func (t *tracker) FromRecord(value generic.Record, s *schema.Schema, lt schema.LogicalType) (generic.Record, error) {
	info, ok := lt.(Referenceable)
	if !ok {
		return nil, SchemaConfigurationError{
			LogicalType: ReferenceableName,
			Schema:      s.Name(),
			Reason:      "unexpected logical type implementation",
		}
	}
	key, err := recordKey(value, s, info)
	if err != nil {
		return nil, err
	}
	if err := t.resolver.trackRead(value, key); err != nil {
		return nil, err
	}
	return value, nil
}

// handler handles the reference logical type
type handler struct {
	resolver *Resolver
}

func (h *handler) LogicalTypeName() string {
	return ReferenceName
}

// ToRecord substitutes an already written record in the reference field with its key
func (h *handler) ToRecord(value generic.Record, s *schema.Schema, lt schema.LogicalType) (generic.Record, error) {
	refField, err := referenceField(s, lt)
	if err != nil {
		return nil, err
	}
	raw := value.Get(refField.Pos)
	switch v := raw.(type) {
	case nil:
		return value, nil
	case generic.Record:
		key, ok := h.resolver.Key(v)
		if !ok && isSelf(value, v) {
			// A record pointing at itself is keyed by its own id field, whichever
			// hook runs first
			if info, isReferenceable := s.LogicalType(ReferenceableName).(Referenceable); isReferenceable {
				key, err = recordKey(value, s, info)
				if err != nil {
					return nil, err
				}
				ok = true
			}
		}
		if !ok {
			// First encounter of the referenced record, which is written inline
			return value, nil
		}
		return NewOverrideRecord(value, refField.Pos, key), nil
	}
	if _, ok := toKey(raw); ok {
		return value, nil
	}
	return nil, UnresolvedReferenceError{
		Schema: s.Name(),
		Field:  refField.Name,
		Value:  raw,
	}
}

// FromRecord replaces a key in the reference field with the record it identifies, now
// or once that record has been read
func (h *handler) FromRecord(value generic.Record, s *schema.Schema, lt schema.LogicalType) (generic.Record, error) {
	refField, err := referenceField(s, lt)
	if err != nil {
		return nil, err
	}
	raw := value.Get(refField.Pos)
	switch raw.(type) {
	case nil, generic.Record:
		return value, nil
	}
	key, ok := toKey(raw)
	if !ok {
		return nil, UnresolvedReferenceError{
			Schema: s.Name(),
			Field:  refField.Name,
			Value:  raw,
		}
	}
	if referenced, ok := h.resolver.references[key]; ok {
		if err := value.Put(refField.Pos, referenced); err != nil {
			return nil, err
		}
		return value, nil
	}
	pos := refField.Pos
	h.resolver.callbacksById[key] = append(
		h.resolver.callbacksById[key],
		func(referenceable generic.Record) error {
			return value.Put(pos, referenceable)
		},
	)
	h.resolver.logger.Debug(
		"deferring forward reference",
		"key",
		key,
		"record",
		s.Name(),
		"field",
		refField.Name,
	)
	return value, nil
}

func referenceField(s *schema.Schema, lt schema.LogicalType) (*schema.Field, error) {
	info, ok := lt.(Reference)
	if !ok {
		return nil, SchemaConfigurationError{
			LogicalType: ReferenceName,
			Schema:      s.Name(),
			Reason:      "unexpected logical type implementation",
		}
	}
	refField := s.Field(info.RefFieldName())
	if refField == nil {
		return nil, SchemaConfigurationError{
			LogicalType: ReferenceName,
			Schema:      s.Name(),
			Field:       info.RefFieldName(),
			Reason:      "no such field",
		}
	}
	return refField, nil
}

func recordKey(rec generic.Record, s *schema.Schema, info Referenceable) (int64, error) {
	idField := s.Field(info.IdFieldName())
	if idField == nil {
		return 0, SchemaConfigurationError{
			LogicalType: ReferenceableName,
			Schema:      s.Name(),
			Field:       info.IdFieldName(),
			Reason:      "no such field",
		}
	}
	raw := rec.Get(idField.Pos)
	key, ok := toKey(raw)
	if !ok {
		return 0, UnresolvedReferenceError{
			Schema: s.Name(),
			Field:  idField.Name,
			Value:  raw,
		}
	}
	return key, nil
}

// toKey converts any Go integer value that fits into an int64 key
func toKey(v any) (int64, bool) {
	switch i := v.(type) {
	case int64:
		return i, true
	case int:
		return int64(i), true
	case int32:
		return int64(i), true
	case int16:
		return int64(i), true
	case int8:
		return int64(i), true
	case uint32:
		return int64(i), true
	case uint16:
		return int64(i), true
	case uint8:
		return int64(i), true
	case uint64:
		if i > math.MaxInt64 {
			return 0, false
		}
		return int64(i), true
	case uint:
		if uint64(i) > math.MaxInt64 {
			return 0, false
		}
		return int64(i), true
	}
	return 0, false
}

func unwrap(rec generic.Record) generic.Record {
	for {
		override, ok := rec.(OverrideRecord)
		if !ok {
			return rec
		}
		rec = override.Unwrap()
	}
}

func isSelf(rec generic.Record, referenced generic.Record) bool {
	rec = unwrap(rec)
	referenced = unwrap(referenced)
	return hasIdentity(rec) && hasIdentity(referenced) && rec == referenced
}

// hasIdentity reports whether a record can be tracked by identity. Only records
// stored behind pointers have an identity distinct from their contents
func hasIdentity(rec generic.Record) bool {
	if rec == nil {
		return false
	}
	return reflect.TypeOf(rec).Kind() == reflect.Pointer
}
