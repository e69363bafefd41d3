// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Quillbotics

package lss

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/fxamacker/cbor/v2"
)

// CaptureRecord is one captured span of bus bytes with its arrival time.
// Records preserve the raw wire bytes, framing included, so a capture can
// be replayed through the decoder byte-for-byte.
type CaptureRecord struct {
	Timestamp time.Time `cbor:"1,keyasint"`
	Raw       []byte    `cbor:"2,keyasint"`
}

// CaptureWriter streams capture records to w as a CBOR sequence.
type CaptureWriter struct {
	enc *cbor.Encoder
}

// NewCaptureWriter creates a capture writer over w.
func NewCaptureWriter(w io.Writer) *CaptureWriter {
	return &CaptureWriter{enc: cbor.NewEncoder(w)}
}

// Write appends one record for the given raw bytes, stamped now.
func (c *CaptureWriter) Write(raw []byte) error {
	rec := CaptureRecord{
		Timestamp: time.Now(),
		Raw:       append([]byte(nil), raw...),
	}
	if err := c.enc.Encode(rec); err != nil {
		return fmt.Errorf("encode capture record: %w", err)
	}
	return nil
}

// CaptureReader streams capture records back from r.
type CaptureReader struct {
	dec *cbor.Decoder
}

// NewCaptureReader creates a capture reader over r.
func NewCaptureReader(r io.Reader) *CaptureReader {
	return &CaptureReader{dec: cbor.NewDecoder(r)}
}

// Next returns the next record, or io.EOF at end of capture.
func (c *CaptureReader) Next() (CaptureRecord, error) {
	var rec CaptureRecord
	if err := c.dec.Decode(&rec); err != nil {
		if errors.Is(err, io.EOF) {
			return CaptureRecord{}, io.EOF
		}
		return CaptureRecord{}, fmt.Errorf("decode capture record: %w", err)
	}
	return rec, nil
}
