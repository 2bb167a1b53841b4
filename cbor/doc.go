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

// Package cbor provides the CBOR encoding/decoding primitives used for datums and container files.
//
// This package wraps github.com/fxamacker/cbor/v2 with cached encode/decode modes.
//
// # Key Types
//
// Embeddable types for struct encoding:
//   - StructAsArray: Embed to encode struct fields as CBOR array instead of map
//   - DecodeStoreCbor: Embed to preserve original CBOR bytes for hashing
//
// Utility types:
//   - RawMessage: Deferred decoding (like json.RawMessage)
//   - WrappedCbor: CBOR tag 24, nested CBOR data (used for container blocks)
//   - StreamDecoder: sequential decoding of an in-memory CBOR sequence
//   - ReaderDecoder: sequential decoding of a CBOR sequence from an io.Reader
//
// # Encoding Gotchas
//
//  1. Decoding into `any` yields uint64 for non-negative integers and int64 for
//     negative ones; schema-aware callers must normalize
//  2. Map keys are sorted (core deterministic) on encode, so equal values encode
//     to identical bytes
package cbor
