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

package schema

import (
	"encoding/json"

	"golang.org/x/crypto/blake2b"
)

// MarshalJSON returns the schema as a JSON document. Output is deterministic:
// object keys are sorted and each named record is defined once, at its first
// occurrence, and referenced by name afterward
func (s *Schema) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.jsonValue(map[string]bool{}))
}

// String returns the JSON form of the schema
func (s *Schema) String() string {
	data, err := s.MarshalJSON()
	if err != nil {
		return "<invalid schema: " + err.Error() + ">"
	}
	return string(data)
}

func (s *Schema) jsonValue(seen map[string]bool) any {
	switch s.typ {
	case TypeUnion:
		ret := make([]any, 0, len(s.branches))
		for _, branch := range s.branches {
			ret = append(ret, branch.jsonValue(seen))
		}
		return ret
	case TypeRecord:
		if seen[s.name] {
			return s.name
		}
		seen[s.name] = true
		ret := s.jsonAttrs()
		ret["name"] = s.name
		fields := make([]any, 0, len(s.fields))
		for _, field := range s.fields {
			tmpField := map[string]any{
				"name": field.Name,
				"type": field.Schema.jsonValue(seen),
			}
			if field.Doc != "" {
				tmpField["doc"] = field.Doc
			}
			fields = append(fields, tmpField)
		}
		ret["fields"] = fields
		return ret
	case TypeArray:
		ret := s.jsonAttrs()
		ret["items"] = s.items.jsonValue(seen)
		return ret
	case TypeMap:
		ret := s.jsonAttrs()
		ret["values"] = s.values.jsonValue(seen)
		return ret
	default:
		ret := s.jsonAttrs()
		if len(ret) == 1 {
			// Bare primitive
			return s.typ.String()
		}
		return ret
	}
}

func (s *Schema) jsonAttrs() map[string]any {
	ret := map[string]any{
		"type": s.typ.String(),
	}
	for name, value := range s.props {
		ret[name] = value
	}
	if s.doc != "" {
		ret["doc"] = s.doc
	}
	ltNames := make([]string, 0, len(s.logicalTypes)+len(s.unknownLogicalTypes))
	for _, lt := range s.logicalTypes {
		ltNames = append(ltNames, lt.Name())
	}
	ltNames = append(ltNames, s.unknownLogicalTypes...)
	switch len(ltNames) {
	case 0:
	case 1:
		ret["logicalType"] = ltNames[0]
	default:
		ret["logicalType"] = ltNames
	}
	return ret
}

// Fingerprint returns the blake2b-256 hash of the JSON form of the schema
func Fingerprint(s *Schema) ([32]byte, error) {
	data, err := s.MarshalJSON()
	if err != nil {
		return [32]byte{}, err
	}
	return FingerprintJSON(data), nil
}

// FingerprintJSON returns the fingerprint of a schema already in JSON form
func FingerprintJSON(schemaJson []byte) [32]byte {
	return blake2b.Sum256(schemaJson)
}
