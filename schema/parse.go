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
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"
)

// Parse parses a schema document. The document may be JSON or YAML. Logical
// types named in the document are built with the factories from registry,
// which may be nil. Logical types without a registered factory are preserved
// by name but otherwise ignored
func Parse(data []byte, registry *Registry) (*Schema, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse schema document: %w", err)
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return nil, errors.New("empty schema document")
	}
	p := &parser{
		registry: registry,
		named:    map[string]*Schema{},
	}
	return p.parse(doc.Content[0])
}

type parser struct {
	registry *Registry
	named    map[string]*Schema
}

func (p *parser) parse(node *yaml.Node) (*Schema, error) {
	switch node.Kind {
	case yaml.ScalarNode:
		return p.parseName(node)
	case yaml.SequenceNode:
		branches := make([]*Schema, 0, len(node.Content))
		for _, branchNode := range node.Content {
			branch, err := p.parse(branchNode)
			if err != nil {
				return nil, err
			}
			branches = append(branches, branch)
		}
		s, err := NewUnion(branches...)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", node.Line, err)
		}
		return s, nil
	case yaml.MappingNode:
		return p.parseMapping(node)
	case yaml.AliasNode:
		return p.parse(node.Alias)
	default:
		return nil, fmt.Errorf("line %d: unexpected schema node", node.Line)
	}
}

func (p *parser) parseName(node *yaml.Node) (*Schema, error) {
	if t, ok := TypeByName(node.Value); ok {
		return New(t), nil
	}
	if s, ok := p.named[node.Value]; ok {
		return s, nil
	}
	return nil, fmt.Errorf("line %d: unknown type: %s", node.Line, node.Value)
}

func (p *parser) parseMapping(node *yaml.Node) (*Schema, error) {
	keys := make([]string, 0, len(node.Content)/2)
	values := map[string]*yaml.Node{}
	for i := 0; i+1 < len(node.Content); i += 2 {
		key := node.Content[i].Value
		keys = append(keys, key)
		values[key] = node.Content[i+1]
	}
	typeNode, ok := values["type"]
	if !ok {
		return nil, fmt.Errorf("line %d: schema is missing type", node.Line)
	}
	if typeNode.Kind != yaml.ScalarNode {
		// Nested type definition, e.g. {"type": {"type": "record", ...}}
		return p.parse(typeNode)
	}
	var s *Schema
	switch typeNode.Value {
	case "record":
		var err error
		s, err = p.parseRecord(node, values)
		if err != nil {
			return nil, err
		}
	case "array":
		itemsNode, ok := values["items"]
		if !ok {
			return nil, fmt.Errorf("line %d: array schema is missing items", node.Line)
		}
		items, err := p.parse(itemsNode)
		if err != nil {
			return nil, err
		}
		s = NewArray(items)
	case "map":
		valuesNode, ok := values["values"]
		if !ok {
			return nil, fmt.Errorf("line %d: map schema is missing values", node.Line)
		}
		mapValues, err := p.parse(valuesNode)
		if err != nil {
			return nil, err
		}
		s = NewMap(mapValues)
	default:
		t, ok := TypeByName(typeNode.Value)
		if !ok {
			// Reference to a named type
			return p.parseName(typeNode)
		}
		s = New(t)
	}
	if docNode, ok := values["doc"]; ok {
		s.SetDoc(docNode.Value)
	}
	for _, key := range keys {
		if reservedProps[key] {
			continue
		}
		var v any
		if err := values[key].Decode(&v); err != nil {
			return nil, fmt.Errorf("line %d: property %s: %w", values[key].Line, key, err)
		}
		s.props[key] = v
	}
	if ltNode, ok := values["logicalType"]; ok {
		if err := p.attachLogicalTypes(s, ltNode); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (p *parser) parseRecord(node *yaml.Node, values map[string]*yaml.Node) (*Schema, error) {
	nameNode, ok := values["name"]
	if !ok || nameNode.Value == "" {
		return nil, fmt.Errorf("line %d: record schema is missing name", node.Line)
	}
	if _, ok := p.named[nameNode.Value]; ok {
		return nil, fmt.Errorf("line %d: duplicate record name: %s", nameNode.Line, nameNode.Value)
	}
	s, err := NewRecord(nameNode.Value)
	if err != nil {
		return nil, err
	}
	// Register the name before parsing fields so that fields can refer back to the record
	p.named[s.name] = s
	fieldsNode, ok := values["fields"]
	if !ok || fieldsNode.Kind != yaml.SequenceNode {
		return nil, fmt.Errorf("line %d: record %s is missing fields", node.Line, s.name)
	}
	fields := make([]*Field, 0, len(fieldsNode.Content))
	for _, fieldNode := range fieldsNode.Content {
		field, err := p.parseField(fieldNode)
		if err != nil {
			return nil, fmt.Errorf("record %s: %w", s.name, err)
		}
		fields = append(fields, field)
	}
	if err := s.SetFields(fields); err != nil {
		return nil, err
	}
	return s, nil
}

func (p *parser) parseField(node *yaml.Node) (*Field, error) {
	if node.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("line %d: field must be a mapping", node.Line)
	}
	var name, doc string
	var typeNode *yaml.Node
	for i := 0; i+1 < len(node.Content); i += 2 {
		switch node.Content[i].Value {
		case "name":
			name = node.Content[i+1].Value
		case "doc":
			doc = node.Content[i+1].Value
		case "type":
			typeNode = node.Content[i+1]
		}
	}
	if name == "" {
		return nil, fmt.Errorf("line %d: field is missing name", node.Line)
	}
	if typeNode == nil {
		return nil, fmt.Errorf("line %d: field %s is missing type", node.Line, name)
	}
	fieldSchema, err := p.parse(typeNode)
	if err != nil {
		return nil, fmt.Errorf("field %s: %w", name, err)
	}
	field := NewField(name, fieldSchema)
	field.Doc = doc
	return field, nil
}

func (p *parser) attachLogicalTypes(s *Schema, node *yaml.Node) error {
	var names []string
	switch node.Kind {
	case yaml.ScalarNode:
		names = []string{node.Value}
	case yaml.SequenceNode:
		for _, nameNode := range node.Content {
			names = append(names, nameNode.Value)
		}
	default:
		return fmt.Errorf("line %d: logicalType must be a name or a list of names", node.Line)
	}
	for _, name := range names {
		factory, ok := p.registry.Lookup(name)
		if !ok {
			s.unknownLogicalTypes = append(s.unknownLogicalTypes, name)
			continue
		}
		lt, err := factory(s)
		if err != nil {
			return fmt.Errorf("schema %s: logical type %s: %w", s.Name(), name, err)
		}
		if err := s.AddLogicalType(lt); err != nil {
			return err
		}
	}
	return nil
}
