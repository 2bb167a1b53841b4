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
	"crypto/rand"
	"fmt"
	"io"
	"log/slog"

	"github.com/blinklabs-io/refgraph/cbor"
	"github.com/blinklabs-io/refgraph/codec"
	"github.com/blinklabs-io/refgraph/reference"
	"github.com/blinklabs-io/refgraph/schema"
)

// Writer appends datums to a container file
type Writer struct {
	w           io.Writer
	schema      *schema.Schema
	logger      *slog.Logger
	model       *codec.Model
	resolver    *reference.Resolver
	datumWriter *codec.DatumWriter
	blockSize   int
	metadata    map[string][]byte
	header      *Header
	buf         []byte
	count       int
	closed      bool
	err         error
}

type WriterOptionFunc func(*Writer)

// WithModel specifies the codec model to encode datums with. By default a model
// backed by a fresh reference resolver is used
func WithModel(model *codec.Model) WriterOptionFunc {
	return func(w *Writer) {
		w.model = model
	}
}

// WithBlockSize specifies the number of datums per block
func WithBlockSize(blockSize int) WriterOptionFunc {
	return func(w *Writer) {
		w.blockSize = blockSize
	}
}

// WithLogger specifies the logger to use
func WithLogger(logger *slog.Logger) WriterOptionFunc {
	return func(w *Writer) {
		w.logger = logger
	}
}

// WithMetadata adds an entry to the header metadata
func WithMetadata(key string, value []byte) WriterOptionFunc {
	return func(w *Writer) {
		w.metadata[key] = value
	}
}

// NewWriter writes the file header for the given schema and returns a Writer
func NewWriter(w io.Writer, s *schema.Schema, opts ...WriterOptionFunc) (*Writer, error) {
	ret := &Writer{
		w:         w,
		schema:    s,
		blockSize: DefaultBlockSize,
		metadata:  map[string][]byte{},
	}
	for _, opt := range opts {
		opt(ret)
	}
	if ret.logger == nil {
		ret.logger = slog.Default()
	}
	if ret.blockSize <= 0 {
		return nil, fmt.Errorf("invalid block size: %d", ret.blockSize)
	}
	if ret.model == nil {
		ret.resolver = reference.NewResolver(reference.WithLogger(ret.logger))
		ret.model = ret.resolver.Model()
	}
	ret.datumWriter = ret.model.NewDatumWriter(s)
	schemaJson, err := s.MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("encode schema: %w", err)
	}
	fingerprint := schema.FingerprintJSON(schemaJson)
	ret.metadata[MetadataFingerprint] = fingerprint[:]
	sync := make([]byte, SyncSize)
	if _, err := rand.Read(sync); err != nil {
		return nil, err
	}
	ret.header = &Header{
		Magic:    []byte(Magic),
		Schema:   schemaJson,
		Metadata: ret.metadata,
		Sync:     sync,
	}
	headerCbor, err := cbor.Encode(ret.header)
	if err != nil {
		return nil, fmt.Errorf("encode header: %w", err)
	}
	ret.header.SetCbor(headerCbor)
	if _, err := w.Write(headerCbor); err != nil {
		return nil, err
	}
	return ret, nil
}

// Header returns the file header
func (w *Writer) Header() *Header {
	return w.header
}

// Resolver returns the reference resolver used for this file, or nil when a
// custom model was given
func (w *Writer) Resolver() *reference.Resolver {
	return w.resolver
}

// Append encodes a datum into the current block, writing the block when it is full.
// A failed datum ends the write pass: the identity table may already hold records
// that never reached the file, so every later call returns the same error
func (w *Writer) Append(datum any) error {
	if w.err != nil {
		return w.err
	}
	if w.closed {
		return fmt.Errorf("append to closed writer")
	}
	data, err := w.datumWriter.Marshal(datum)
	if err != nil {
		w.fail(err)
		return err
	}
	w.buf = append(w.buf, data...)
	w.count++
	if w.count >= w.blockSize {
		return w.Flush()
	}
	return nil
}

// Flush writes any buffered datums as a block
func (w *Writer) Flush() error {
	if w.err != nil {
		return w.err
	}
	if w.count == 0 {
		return nil
	}
	blk := &block{
		Count: uint64(w.count),
		Data:  cbor.WrappedCbor(w.buf),
		Sync:  w.header.Sync,
	}
	blkCbor, err := cbor.Encode(blk)
	if err != nil {
		err = fmt.Errorf("encode block: %w", err)
		w.fail(err)
		return err
	}
	if _, err := w.w.Write(blkCbor); err != nil {
		w.fail(err)
		return err
	}
	w.logger.Debug(
		"wrote block",
		"count",
		w.count,
		"size",
		len(blkCbor),
	)
	w.buf = nil
	w.count = 0
	return nil
}

// Close flushes buffered datums and closes the underlying writer if it is an io.Closer.
// After a failed pass, Close still closes the underlying writer and returns the failure
func (w *Writer) Close() error {
	if w.closed {
		return w.err
	}
	w.closed = true
	err := w.Flush()
	if closer, ok := w.w.(io.Closer); ok {
		if closeErr := closer.Close(); err == nil {
			err = closeErr
		}
	}
	return err
}

// Err returns the error that ended the write pass, if any
func (w *Writer) Err() error {
	return w.err
}

// fail records the first error of the pass and discards the session state along
// with any datums still buffered
func (w *Writer) fail(err error) {
	w.err = err
	w.buf = nil
	w.count = 0
	if w.resolver != nil {
		w.resolver.Reset()
	}
	w.logger.Debug(
		"write pass aborted",
		"error",
		err,
	)
}
