// Copyright (c) 2024-2025 Six After, Inc
//
// This source code is licensed under the Apache 2.0 License found in the
// LICENSE file in the root directory of this source tree.

// Package pngmeta preserves PNG textual ancillary chunks (tEXt, zTXt,
// iTXt) across a decode/re-encode round trip. Go's image/png package
// decodes and re-encodes pixels only; it drops every ancillary chunk,
// which loses whatever caption, software, or provenance metadata the
// source file carried. The watermark pipeline (see the root package's
// Embed) must not silently strip that metadata, so this package walks
// the raw chunk stream of the source file once to collect it, and
// splices it back into the freshly encoded output immediately before
// the IEND chunk.
//
// The chunk-walking technique — 4-byte length, 4-byte type, payload,
// 4-byte CRC-32, with the ancillary/critical distinction carried in
// the lower-case bit of the type's first byte — follows the same
// structure a PNG ancillary-chunk stripping tool walks, run in reverse:
// that kind of tool discards ancillary chunks from a stream; this
// package collects them from one stream and re-inserts them into
// another.
package pngmeta

import (
	"bytes"
	"encoding/binary"
	"errors"
	"hash/crc32"
)

// pngMagic is the 8-byte signature every PNG stream begins with.
var pngMagic = []byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A}

// ErrNotPNG is returned when the input does not begin with the PNG
// magic signature.
var ErrNotPNG = errors.New("pngmeta: input is not a PNG stream")

// ErrTruncated is returned when a chunk header or payload runs past
// the end of the input.
var ErrTruncated = errors.New("pngmeta: truncated chunk")

// textualTypes is the set of ancillary chunk types this package
// preserves: plain text, compressed text, and UTF-8 international
// text. Other ancillary chunks (gAMA, pHYs, tIME, and so on) describe
// how to interpret or render pixels rather than carry provenance
// metadata, so they are left to image/png's own defaults rather than
// copied verbatim from a source file whose pixels are about to change.
var textualTypes = map[string]bool{
	"tEXt": true,
	"zTXt": true,
	"iTXt": true,
}

// Chunk is a single raw PNG chunk: a 4-byte ASCII type and its
// payload. The length and CRC-32 trailer are derived, not stored.
type Chunk struct {
	Type string
	Data []byte
}

// ExtractTextChunks walks the chunk stream of a PNG-encoded src and
// returns every tEXt, zTXt, and iTXt chunk found, in file order. It
// does not decode pixel data and tolerates any critical-chunk content.
func ExtractTextChunks(src []byte) ([]Chunk, error) {
	if len(src) < len(pngMagic) || !bytes.Equal(src[:len(pngMagic)], pngMagic) {
		return nil, ErrNotPNG
	}

	var out []Chunk
	pos := len(pngMagic)
	for pos+8 <= len(src) {
		length := binary.BigEndian.Uint32(src[pos : pos+4])
		typ := string(src[pos+4 : pos+8])
		payloadStart := pos + 8
		payloadEnd := payloadStart + int(length)
		trailerEnd := payloadEnd + 4
		if trailerEnd > len(src) {
			return nil, ErrTruncated
		}

		if textualTypes[typ] {
			data := make([]byte, length)
			copy(data, src[payloadStart:payloadEnd])
			out = append(out, Chunk{Type: typ, Data: data})
		}

		if typ == "IEND" {
			break
		}
		pos = trailerEnd
	}
	return out, nil
}

// InjectChunks splices chunks into a freshly encoded PNG stream,
// inserting them immediately before the IEND chunk, and returns the
// resulting stream. Each chunk's length prefix and CRC-32 trailer are
// computed fresh; InjectChunks never trusts a precomputed checksum
// from the caller.
func InjectChunks(pngBytes []byte, chunks []Chunk) ([]byte, error) {
	if len(chunks) == 0 {
		return pngBytes, nil
	}
	if len(pngBytes) < len(pngMagic) || !bytes.Equal(pngBytes[:len(pngMagic)], pngMagic) {
		return nil, ErrNotPNG
	}

	iendStart, err := findIEND(pngBytes)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	buf.Write(pngBytes[:iendStart])
	for _, c := range chunks {
		writeChunk(&buf, c.Type, c.Data)
	}
	buf.Write(pngBytes[iendStart:])
	return buf.Bytes(), nil
}

// findIEND returns the byte offset at which the IEND chunk's 4-byte
// length prefix begins.
func findIEND(pngBytes []byte) (int, error) {
	pos := len(pngMagic)
	for pos+8 <= len(pngBytes) {
		length := binary.BigEndian.Uint32(pngBytes[pos : pos+4])
		typ := string(pngBytes[pos+4 : pos+8])
		if typ == "IEND" {
			return pos, nil
		}
		pos += 8 + int(length) + 4
		if pos > len(pngBytes) {
			return 0, ErrTruncated
		}
	}
	return 0, ErrTruncated
}

// writeChunk appends a length-prefixed, CRC-32-trailed chunk to buf.
func writeChunk(buf *bytes.Buffer, typ string, data []byte) {
	var lenBytes [4]byte
	binary.BigEndian.PutUint32(lenBytes[:], uint32(len(data)))
	buf.Write(lenBytes[:])

	body := make([]byte, 0, 4+len(data))
	body = append(body, typ...)
	body = append(body, data...)
	buf.Write(body)

	var crcBytes [4]byte
	binary.BigEndian.PutUint32(crcBytes[:], crc32.ChecksumIEEE(body))
	buf.Write(crcBytes[:])
}
