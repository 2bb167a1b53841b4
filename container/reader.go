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

package container

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/blinklabs-io/refgraph/cbor"
	"github.com/blinklabs-io/refgraph/codec"
	"github.com/blinklabs-io/refgraph/reference"
	"github.com/blinklabs-io/refgraph/schema"
)

// Reader reads datums from a container file.
//
// Records returned by Next may still have reference fields patched by later
// datums in the same file. Use All when the complete graph is needed
type Reader struct {
	dec         *cbor.ReaderDecoder
	header      Header
	schema      *schema.Schema
	registry    *schema.Registry
	logger      *slog.Logger
	model       *codec.Model
	resolver    *reference.Resolver
	datumReader *codec.DatumReader
	stream      *cbor.StreamDecoder
	remaining   int
	done        bool
}

type ReaderOptionFunc func(*Reader)

// WithRegistry specifies the logical type registry used to parse the header schema.
// By default a registry with the reference logical types is used
func WithRegistry(registry *schema.Registry) ReaderOptionFunc {
	return func(r *Reader) {
		r.registry = registry
	}
}

// WithReaderModel specifies the codec model to decode datums with. By default a
// model backed by a fresh reference resolver is used
func WithReaderModel(model *codec.Model) ReaderOptionFunc {
	return func(r *Reader) {
		r.model = model
	}
}

// WithReaderLogger specifies the logger to use
func WithReaderLogger(logger *slog.Logger) ReaderOptionFunc {
	return func(r *Reader) {
		r.logger = logger
	}
}

// NewReader reads and verifies the file header and returns a Reader
func NewReader(r io.Reader, opts ...ReaderOptionFunc) (*Reader, error) {
	ret := &Reader{}
	for _, opt := range opts {
		opt(ret)
	}
	if ret.logger == nil {
		ret.logger = slog.Default()
	}
	if ret.registry == nil {
		ret.registry = reference.NewRegistry()
	}
	dec, err := cbor.NewReaderDecoder(r)
	if err != nil {
		return nil, err
	}
	ret.dec = dec
	if err := dec.Decode(&ret.header); err != nil {
		return nil, fmt.Errorf("%w: decode header: %w", ErrBadMagic, err)
	}
	if !bytes.Equal(ret.header.Magic, []byte(Magic)) {
		return nil, fmt.Errorf("%w: unexpected magic %x", ErrBadMagic, ret.header.Magic)
	}
	if len(ret.header.Sync) != SyncSize {
		return nil, fmt.Errorf("invalid sync marker length: %d", len(ret.header.Sync))
	}
	if fingerprint, ok := ret.header.Metadata[MetadataFingerprint]; ok {
		calculated := schema.FingerprintJSON(ret.header.Schema)
		if !bytes.Equal(fingerprint, calculated[:]) {
			return nil, fmt.Errorf(
				"%w: header %x, calculated %x",
				ErrFingerprintMismatch,
				fingerprint,
				calculated,
			)
		}
	}
	s, err := schema.Parse(ret.header.Schema, ret.registry)
	if err != nil {
		return nil, fmt.Errorf("parse header schema: %w", err)
	}
	ret.schema = s
	if ret.model == nil {
		ret.resolver = reference.NewResolver(reference.WithLogger(ret.logger))
		ret.model = ret.resolver.Model()
	}
	ret.datumReader = ret.model.NewDatumReader(s)
	return ret, nil
}

// Schema returns the writer schema from the header
func (r *Reader) Schema() *schema.Schema {
	return r.schema
}

// Header returns the file header
func (r *Reader) Header() *Header {
	return &r.header
}

// Resolver returns the reference resolver used for this file, or nil when a
// custom model was given
func (r *Reader) Resolver() *reference.Resolver {
	return r.resolver
}

// Next returns the next datum, or io.EOF after the last one
func (r *Reader) Next() (any, error) {
	for r.remaining == 0 {
		if r.done {
			return nil, io.EOF
		}
		if err := r.readBlock(); err != nil {
			if errors.Is(err, io.EOF) {
				r.done = true
				r.logPending()
				return nil, io.EOF
			}
			return nil, err
		}
	}
	if r.stream.EOF() {
		return nil, fmt.Errorf("block truncated: %d datums missing", r.remaining)
	}
	var raw any
	if _, _, err := r.stream.Decode(&raw); err != nil {
		if errors.Is(err, io.EOF) {
			err = io.ErrUnexpectedEOF
		}
		return nil, fmt.Errorf("decode datum: %w", err)
	}
	r.remaining--
	if r.remaining == 0 && !r.stream.EOF() {
		return nil, errors.New("block has data beyond its datum count")
	}
	return r.datumReader.Decode(raw)
}

// All reads every remaining datum. All reference fields are resolved as far as
// the file allows when it returns
func (r *Reader) All() ([]any, error) {
	var ret []any
	for {
		datum, err := r.Next()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return ret, nil
			}
			return nil, err
		}
		ret = append(ret, datum)
	}
}

func (r *Reader) readBlock() error {
	offset := r.dec.NumBytesRead()
	var blk block
	if err := r.dec.Decode(&blk); err != nil {
		if errors.Is(err, io.EOF) {
			return err
		}
		return fmt.Errorf("decode block at offset %d: %w", offset, err)
	}
	if !bytes.Equal(blk.Sync, r.header.Sync) {
		return fmt.Errorf("%w: block at offset %d", ErrSyncMismatch, offset)
	}
	stream, err := cbor.NewStreamDecoder(blk.Data.Bytes())
	if err != nil {
		return err
	}
	r.stream = stream
	r.remaining = int(blk.Count)
	r.logger.Debug(
		"read block",
		"offset",
		offset,
		"count",
		blk.Count,
		"size",
		len(blk.Data),
	)
	return nil
}

func (r *Reader) logPending() {
	if r.resolver == nil {
		return
	}
	if pending := r.resolver.PendingKeys(); len(pending) > 0 {
		r.logger.Debug(
			"references left unresolved at end of file",
			"keys",
			pending,
		)
	}
}
