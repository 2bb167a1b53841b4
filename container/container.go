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

// Package container implements an object container file holding a sequence of
// schema-described datums.
//
// A file starts with a header carrying a magic value, the writer schema as JSON,
// a metadata map and a random sync marker. The header is followed by blocks, each
// holding a datum count, the concatenated CBOR encoding of those datums wrapped
// in tag 24, and the sync marker again.
//
// All datums in a file are written and read within one reference resolution
// session, so a record may refer by key to a record in an earlier datum.
package container

import (
	"errors"

	"github.com/blinklabs-io/refgraph/cbor"
)

const (
	// Magic is the value at the start of every container file
	Magic = "RGF\x01"

	// MetadataFingerprint is the metadata key holding the blake2b-256 hash of the schema JSON
	MetadataFingerprint = "refgraph.fingerprint"

	// DefaultBlockSize is the number of datums buffered before a block is written
	DefaultBlockSize = 100

	SyncSize = 16
)

var (
	ErrBadMagic            = errors.New("not a container file")
	ErrSyncMismatch        = errors.New("block sync marker does not match header")
	ErrFingerprintMismatch = errors.New("schema fingerprint does not match header schema")
)

// Header is the first item in a container file
type Header struct {
	cbor.StructAsArray
	cbor.DecodeStoreCbor
	Magic    []byte
	Schema   []byte
	Metadata map[string][]byte
	Sync     []byte
}

func (h *Header) UnmarshalCBOR(cborData []byte) error {
	return h.UnmarshalCborGeneric(cborData, h)
}

func (h *Header) MarshalCBOR() ([]byte, error) {
	// Return stored CBOR if we have any
	cborData := h.Cbor()
	if cborData != nil {
		return cborData, nil
	}
	return cbor.EncodeGeneric(h)
}

type block struct {
	cbor.StructAsArray
	Count uint64
	Data  cbor.WrappedCbor
	Sync  []byte
}
