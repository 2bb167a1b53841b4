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

// Package reference lets schema-described object graphs containing cycles be
// written and read with an encoding that has no notion of object identity.
//
// # Annotations
//
// Two logical types cooperate:
//   - Referenceable ("referenceable"): attached to a record schema; names the long
//     field that holds the record's key
//   - Reference ("reference"): attached to a record schema; names the field of that
//     record which points at another record. The field is a union containing a long
//     branch (for the key) and usually the referenced record type (for inline values)
//
// # Sessions
//
// A Resolver holds the identity and pending-callback tables for exactly one write
// or read pass. Its Tracker and Handler conversions are registered with a
// codec.Model, most easily via Resolver.Model. Keys are only unique within one
// graph, so a resolver must never be shared between unrelated passes or used
// from more than one goroutine.
//
// On write, each referenceable record is remembered by identity. A reference
// field holding an already-written record is replaced by its key through a
// read-only OverrideRecord, so the caller's records are never modified.
//
// On read, each referenceable record is stored by key once it is fully decoded.
// A reference field holding a key that is already known is replaced with the
// record immediately; otherwise a callback is queued and the field is patched
// when the key's record arrives.
//
// # Ordering Hazard
//
// Forward-reference patching mutates records that may already have been handed
// to the caller. Until the whole read pass has finished, a reference field may
// still hold a raw int64 key. Callers must not inspect reference fields before
// the pass completes. Keys that never resolve stay as raw keys; see
// Resolver.PendingKeys.
package reference
