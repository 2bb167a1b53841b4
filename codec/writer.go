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

package codec

import (
	"math"

	"github.com/blinklabs-io/refgraph/cbor"
	"github.com/blinklabs-io/refgraph/generic"
	"github.com/blinklabs-io/refgraph/schema"
)

// DatumWriter encodes values described by a schema
type DatumWriter struct {
	model  *Model
	schema *schema.Schema
}

func (w *DatumWriter) Schema() *schema.Schema {
	return w.schema
}

// Marshal encodes the datum to CBOR
func (w *DatumWriter) Marshal(datum any) ([]byte, error) {
	v, err := w.Encode(datum)
	if err != nil {
		return nil, err
	}
	return cbor.Encode(v)
}

// Encode converts the datum into the structure that is written as CBOR. Records
// become arrays of field values and union values become [branch, value] pairs
func (w *DatumWriter) Encode(datum any) (any, error) {
	return w.model.encodeValue(w.schema, datum, 0)
}

func (m *Model) encodeValue(s *schema.Schema, v any, depth int) (any, error) {
	if depth > MaxNestingDepth {
		return nil, NestingDepthError{Schema: s.Name()}
	}
	if len(s.LogicalTypes()) > 0 && v != nil {
		var err error
		v, err = m.applyToRecord(s, v)
		if err != nil {
			return nil, err
		}
	}
	switch s.Type() {
	case schema.TypeNull:
		if v != nil {
			return nil, TypeMismatchError{Expected: "null", Value: v}
		}
		return nil, nil
	case schema.TypeBoolean:
		b, ok := v.(bool)
		if !ok {
			return nil, TypeMismatchError{Expected: "boolean", Value: v}
		}
		return b, nil
	case schema.TypeInt:
		i, ok := toInt64(v)
		if !ok || i < math.MinInt32 || i > math.MaxInt32 {
			return nil, TypeMismatchError{Expected: "int", Value: v}
		}
		return i, nil
	case schema.TypeLong:
		i, ok := toInt64(v)
		if !ok {
			return nil, TypeMismatchError{Expected: "long", Value: v}
		}
		return i, nil
	case schema.TypeFloat:
		switch f := v.(type) {
		case float32:
			return f, nil
		case float64:
			return float32(f), nil
		}
		return nil, TypeMismatchError{Expected: "float", Value: v}
	case schema.TypeDouble:
		switch f := v.(type) {
		case float32:
			return float64(f), nil
		case float64:
			return f, nil
		}
		return nil, TypeMismatchError{Expected: "double", Value: v}
	case schema.TypeString:
		str, ok := v.(string)
		if !ok {
			return nil, TypeMismatchError{Expected: "string", Value: v}
		}
		return str, nil
	case schema.TypeBytes:
		b, ok := v.([]byte)
		if !ok {
			return nil, TypeMismatchError{Expected: "bytes", Value: v}
		}
		return b, nil
	case schema.TypeRecord:
		rec, ok := v.(generic.Record)
		if !ok || rec == nil {
			return nil, TypeMismatchError{Expected: "record " + s.Name(), Value: v}
		}
		fields := s.Fields()
		ret := make([]any, len(fields))
		for _, field := range fields {
			fieldValue, err := m.encodeValue(field.Schema, rec.Get(field.Pos), depth+1)
			if err != nil {
				return nil, err
			}
			ret[field.Pos] = fieldValue
		}
		return ret, nil
	case schema.TypeUnion:
		branchIdx, err := resolveUnion(s, v)
		if err != nil {
			return nil, err
		}
		branchValue, err := m.encodeValue(s.Branches()[branchIdx], v, depth+1)
		if err != nil {
			return nil, err
		}
		return []any{uint64(branchIdx), branchValue}, nil
	case schema.TypeArray:
		items, ok := v.([]any)
		if !ok {
			return nil, TypeMismatchError{Expected: "array", Value: v}
		}
		ret := make([]any, 0, len(items))
		for _, item := range items {
			itemValue, err := m.encodeValue(s.Items(), item, depth+1)
			if err != nil {
				return nil, err
			}
			ret = append(ret, itemValue)
		}
		return ret, nil
	case schema.TypeMap:
		entries, ok := v.(map[string]any)
		if !ok {
			return nil, TypeMismatchError{Expected: "map", Value: v}
		}
		ret := make(map[string]any, len(entries))
		for key, entry := range entries {
			entryValue, err := m.encodeValue(s.Values(), entry, depth+1)
			if err != nil {
				return nil, err
			}
			ret[key] = entryValue
		}
		return ret, nil
	default:
		return nil, TypeMismatchError{Expected: s.Type().String(), Value: v}
	}
}

// applyToRecord runs the write hook of each logical type on the node that has a conversion.
// Errors from the hooks are returned as-is
func (m *Model) applyToRecord(s *schema.Schema, v any) (any, error) {
	for _, lt := range s.LogicalTypes() {
		conversion := m.conversions[lt.Name()]
		if conversion == nil {
			continue
		}
		rec, ok := v.(generic.Record)
		if !ok {
			return nil, TypeMismatchError{Expected: "record for logical type " + lt.Name(), Value: v}
		}
		out, err := conversion.ToRecord(rec, s, lt)
		if err != nil {
			return nil, err
		}
		v = out
	}
	return v, nil
}

// resolveUnion returns the index of the first union branch that can hold the value
func resolveUnion(s *schema.Schema, v any) (int, error) {
	for idx, branch := range s.Branches() {
		if branchMatches(branch, v) {
			return idx, nil
		}
	}
	return 0, UnionResolutionError{Union: s, Value: v}
}

func branchMatches(branch *schema.Schema, v any) bool {
	switch branch.Type() {
	case schema.TypeNull:
		return v == nil
	case schema.TypeBoolean:
		_, ok := v.(bool)
		return ok
	case schema.TypeInt:
		switch v.(type) {
		case int32, int16, int8, uint16, uint8:
			return true
		}
		return false
	case schema.TypeLong:
		_, ok := toInt64(v)
		return ok
	case schema.TypeFloat:
		_, ok := v.(float32)
		return ok
	case schema.TypeDouble:
		switch v.(type) {
		case float32, float64:
			return true
		}
		return false
	case schema.TypeString:
		_, ok := v.(string)
		return ok
	case schema.TypeBytes:
		_, ok := v.([]byte)
		return ok
	case schema.TypeRecord:
		rec, ok := v.(generic.Record)
		if !ok || rec == nil || rec.Schema() == nil {
			return false
		}
		return rec.Schema() == branch || rec.Schema().Name() == branch.Name()
	case schema.TypeArray:
		_, ok := v.([]any)
		return ok
	case schema.TypeMap:
		_, ok := v.(map[string]any)
		return ok
	}
	return false
}

// toInt64 converts any Go integer type that fits into an int64
func toInt64(v any) (int64, bool) {
	switch i := v.(type) {
	case int:
		return int64(i), true
	case int8:
		return int64(i), true
	case int16:
		return int64(i), true
	case int32:
		return int64(i), true
	case int64:
		return i, true
	case uint:
		if uint64(i) > math.MaxInt64 {
			return 0, false
		}
		return int64(i), true
	case uint8:
		return int64(i), true
	case uint16:
		return int64(i), true
	case uint32:
		return int64(i), true
	case uint64:
		if i > math.MaxInt64 {
			return 0, false
		}
		return int64(i), true
	}
	return 0, false
}
