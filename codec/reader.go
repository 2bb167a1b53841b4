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
	"fmt"
	"math"

	"github.com/blinklabs-io/refgraph/cbor"
	"github.com/blinklabs-io/refgraph/generic"
	"github.com/blinklabs-io/refgraph/schema"
)

// DatumReader decodes values described by a schema.
//
// Read hooks may patch records that were already decoded earlier in the same
// pass (forward references). A record is only guaranteed to be complete once
// the whole pass has finished
type DatumReader struct {
	model  *Model
	schema *schema.Schema
}

func (r *DatumReader) Schema() *schema.Schema {
	return r.schema
}

// Unmarshal decodes a single CBOR-encoded datum
func (r *DatumReader) Unmarshal(data []byte) (any, error) {
	var raw any
	if _, err := cbor.Decode(data, &raw); err != nil {
		return nil, err
	}
	return r.Decode(raw)
}

// Decode converts a generic decoded CBOR value into a datum
func (r *DatumReader) Decode(raw any) (any, error) {
	return r.model.decodeValue(r.schema, raw, 0)
}

func (m *Model) decodeValue(s *schema.Schema, raw any, depth int) (any, error) {
	if depth > MaxNestingDepth {
		return nil, NestingDepthError{Schema: s.Name()}
	}
	switch s.Type() {
	case schema.TypeNull:
		if raw != nil {
			return nil, TypeMismatchError{Expected: "null", Value: raw}
		}
		return nil, nil
	case schema.TypeBoolean:
		b, ok := raw.(bool)
		if !ok {
			return nil, TypeMismatchError{Expected: "boolean", Value: raw}
		}
		return b, nil
	case schema.TypeInt:
		i, ok := toInt64(raw)
		if !ok || i < math.MinInt32 || i > math.MaxInt32 {
			return nil, TypeMismatchError{Expected: "int", Value: raw}
		}
		return int32(i), nil
	case schema.TypeLong:
		i, ok := toInt64(raw)
		if !ok {
			return nil, TypeMismatchError{Expected: "long", Value: raw}
		}
		return i, nil
	case schema.TypeFloat:
		switch f := raw.(type) {
		case float32:
			return f, nil
		case float64:
			return float32(f), nil
		}
		return nil, TypeMismatchError{Expected: "float", Value: raw}
	case schema.TypeDouble:
		switch f := raw.(type) {
		case float32:
			return float64(f), nil
		case float64:
			return f, nil
		}
		return nil, TypeMismatchError{Expected: "double", Value: raw}
	case schema.TypeString:
		str, ok := raw.(string)
		if !ok {
			return nil, TypeMismatchError{Expected: "string", Value: raw}
		}
		return str, nil
	case schema.TypeBytes:
		b, ok := raw.([]byte)
		if !ok {
			return nil, TypeMismatchError{Expected: "bytes", Value: raw}
		}
		return b, nil
	case schema.TypeRecord:
		return m.decodeRecord(s, raw, depth)
	case schema.TypeUnion:
		pair, ok := raw.([]any)
		if !ok || len(pair) != 2 {
			return nil, TypeMismatchError{Expected: "union [branch, value] pair", Value: raw}
		}
		branchIdx, ok := toInt64(pair[0])
		if !ok || branchIdx < 0 || branchIdx >= int64(len(s.Branches())) {
			return nil, fmt.Errorf("invalid union branch index: %v", pair[0])
		}
		return m.decodeValue(s.Branches()[branchIdx], pair[1], depth+1)
	case schema.TypeArray:
		items, ok := raw.([]any)
		if !ok {
			return nil, TypeMismatchError{Expected: "array", Value: raw}
		}
		ret := make([]any, 0, len(items))
		for _, item := range items {
			itemValue, err := m.decodeValue(s.Items(), item, depth+1)
			if err != nil {
				return nil, err
			}
			ret = append(ret, itemValue)
		}
		return ret, nil
	case schema.TypeMap:
		ret := map[string]any{}
		switch entries := raw.(type) {
		case map[any]any:
			for key, entry := range entries {
				strKey, ok := key.(string)
				if !ok {
					return nil, TypeMismatchError{Expected: "string map key", Value: key}
				}
				entryValue, err := m.decodeValue(s.Values(), entry, depth+1)
				if err != nil {
					return nil, err
				}
				ret[strKey] = entryValue
			}
		case map[string]any:
			for key, entry := range entries {
				entryValue, err := m.decodeValue(s.Values(), entry, depth+1)
				if err != nil {
					return nil, err
				}
				ret[key] = entryValue
			}
		default:
			return nil, TypeMismatchError{Expected: "map", Value: raw}
		}
		return ret, nil
	default:
		return nil, TypeMismatchError{Expected: s.Type().String(), Value: raw}
	}
}

func (m *Model) decodeRecord(s *schema.Schema, raw any, depth int) (any, error) {
	values, ok := raw.([]any)
	if !ok {
		return nil, TypeMismatchError{Expected: "record " + s.Name(), Value: raw}
	}
	fields := s.Fields()
	if len(values) != len(fields) {
		return nil, fmt.Errorf(
			"record %s: expected %d fields, found %d",
			s.Name(),
			len(fields),
			len(values),
		)
	}
	var rec generic.Record = generic.NewRecord(s)
	for _, field := range fields {
		fieldValue, err := m.decodeValue(field.Schema, values[field.Pos], depth+1)
		if err != nil {
			return nil, err
		}
		if err := rec.Put(field.Pos, fieldValue); err != nil {
			return nil, err
		}
	}
	// Read hooks run once the record is fully materialized
	for _, lt := range s.LogicalTypes() {
		conversion := m.conversions[lt.Name()]
		if conversion == nil {
			continue
		}
		out, err := conversion.FromRecord(rec, s, lt)
		if err != nil {
			return nil, err
		}
		rec = out
	}
	return rec, nil
}
