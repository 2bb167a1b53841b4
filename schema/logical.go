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
	"fmt"
	"sort"
)

// LogicalType is a named semantic annotation on a schema node. Its
// configuration is stored as props on the node so that it survives schema
// serialization
type LogicalType interface {
	Name() string
	// AddToSchema validates the node and attaches the logical type and its props to it
	AddToSchema(s *Schema) (*Schema, error)
	Validate(s *Schema) error
}

// LogicalTypeFactory rebuilds a logical type from the props of a parsed schema node
type LogicalTypeFactory func(s *Schema) (LogicalType, error)

// Registry maps logical type names to factories. A registry is passed
// explicitly to Parse rather than living in package state
type Registry struct {
	factories map[string]LogicalTypeFactory
}

func NewRegistry() *Registry {
	return &Registry{
		factories: map[string]LogicalTypeFactory{},
	}
}

// Register adds a factory for the named logical type
func (r *Registry) Register(name string, factory LogicalTypeFactory) error {
	if name == "" {
		return fmt.Errorf("logical type name cannot be empty")
	}
	if factory == nil {
		return fmt.Errorf("logical type %s: factory cannot be nil", name)
	}
	if _, ok := r.factories[name]; ok {
		return fmt.Errorf("logical type %s is already registered", name)
	}
	r.factories[name] = factory
	return nil
}

// Lookup returns the factory for the named logical type
func (r *Registry) Lookup(name string) (LogicalTypeFactory, bool) {
	if r == nil {
		return nil, false
	}
	f, ok := r.factories[name]
	return f, ok
}

// Names returns the registered logical type names in sorted order
func (r *Registry) Names() []string {
	ret := make([]string, 0, len(r.factories))
	for name := range r.factories {
		ret = append(ret, name)
	}
	sort.Strings(ret)
	return ret
}
