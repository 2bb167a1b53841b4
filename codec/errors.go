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

	"github.com/blinklabs-io/refgraph/schema"
)

// MaxNestingDepth is the deepest level of nested values that will be encoded or decoded
const MaxNestingDepth = 128

// TypeMismatchError is returned when a value does not match the schema it is encoded or decoded with
type TypeMismatchError struct {
	Expected string
	Value    any
}

func (e TypeMismatchError) Error() string {
	return fmt.Sprintf("type mismatch: expected %s, found %T", e.Expected, e.Value)
}

// UnionResolutionError is returned when no branch of a union can hold a value
type UnionResolutionError struct {
	Union *schema.Schema
	Value any
}

func (e UnionResolutionError) Error() string {
	return fmt.Sprintf("no branch of union %s matches value of type %T", e.Union, e.Value)
}

// NestingDepthError is returned when a value nests deeper than MaxNestingDepth, which
// usually means a cycle that is not broken by a reference
type NestingDepthError struct {
	Schema string
}

func (e NestingDepthError) Error() string {
	return fmt.Sprintf("maximum nesting depth (%d) exceeded at %s", MaxNestingDepth, e.Schema)
}
