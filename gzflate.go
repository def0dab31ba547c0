// Copyright 2021 Cosmos Nicolaou. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

// Package gzflate implements a gzip container (RFC 1952) wrapping a
// DEFLATE-compressed payload (RFC 1951): a single member, one or more
// dynamic-Huffman blocks, and a CRC-32 + ISIZE trailer.
package gzflate

import (
	"bytes"
	"hash/crc32"
	"io"

	"github.com/cosnicolaou/gzflate/internal/deflate"
)

const (
	gzipMagic1 = 0x1F
	gzipMagic2 = 0x8B
	cmDeflate  = 0x08
	osUnix     = 0x03

	// blockSplitSize is how much input each DEFLATE block covers. The
	// matcher's window is 32 KiB, so blocks larger than that gain
	// nothing from a single token pass and only risk a Huffman tree
	// skewed by unrelated parts of the input; splitting at the window
	// size keeps every match candidate reachable within its own block.
	blockSplitSize = deflate.WindowSize
)

// Compress reads all of r, DEFLATE-compresses it into one or more
// dynamic-Huffman blocks, and writes a complete gzip stream to w.
func Compress(w io.Writer, r io.Reader) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return wrapError(FileOpenFailed, err, "reading input")
	}

	bw := deflate.NewBitWriter(w)
	if err := writeHeader(bw); err != nil {
		return wrapError(FileOpenFailed, err, "writing gzip header")
	}

	if len(data) == 0 {
		if err := deflate.EncodeBlock(bw, nil, true); err != nil {
			return wrapError(EncodeBug, err, "encoding empty block")
		}
	} else {
		for start := 0; start < len(data); start += blockSplitSize {
			end := start + blockSplitSize
			if end > len(data) {
				end = len(data)
			}
			final := end == len(data)
			tokens := tokenize(data[start:end])
			if err := deflate.EncodeBlock(bw, tokens, final); err != nil {
				return wrapError(EncodeBug, err, "encoding block")
			}
		}
	}

	if err := bw.AlignByte(); err != nil {
		return wrapError(AllocationFailed, err, "flushing bitstream")
	}

	crc := crc32.ChecksumIEEE(data)
	if err := bw.WriteBytesLE(crc, 4); err != nil {
		return wrapError(AllocationFailed, err, "writing CRC-32 trailer")
	}
	isize := uint32(uint64(len(data)) & 0xFFFFFFFF)
	if err := bw.WriteBytesLE(isize, 4); err != nil {
		return wrapError(AllocationFailed, err, "writing ISIZE trailer")
	}
	if err := bw.Flush(); err != nil {
		return wrapError(AllocationFailed, err, "flushing output")
	}
	return nil
}

// tokenize runs the LZ77 matcher over data and collects its full token
// stream for a single block. Each block gets a fresh matcher, so matches
// never reach back into an earlier block's bytes.
func tokenize(data []byte) []deflate.Token {
	m := deflate.NewMatcher(data)
	var tokens []deflate.Token
	for {
		tok, done := m.Next()
		if done {
			break
		}
		tokens = append(tokens, tok)
	}
	return tokens
}

func writeHeader(bw *deflate.BitWriter) error {
	if err := bw.WriteBytesLE(gzipMagic1|gzipMagic2<<8, 2); err != nil {
		return err
	}
	if err := bw.WriteBytesLE(cmDeflate, 1); err != nil {
		return err
	}
	if err := bw.WriteBytesLE(0x00, 1); err != nil { // FLG: no optional fields
		return err
	}
	if err := bw.WriteBytesLE(0x00000000, 4); err != nil { // MTIME: unset
		return err
	}
	if err := bw.WriteBytesLE(0x00, 1); err != nil { // XFL
		return err
	}
	if err := bw.WriteBytesLE(osUnix, 1); err != nil { // OS
		return err
	}
	return nil
}

// Decompress reads a complete gzip stream from r, DEFLATE-decodes its
// single member, verifies the CRC-32 and ISIZE trailers, and writes the
// decompressed bytes to w.
func Decompress(w io.Writer, r io.Reader) error {
	br := deflate.NewBitReader(r)
	if err := readHeader(br); err != nil {
		return err
	}

	var out bytes.Buffer
	window := deflate.NewOutputWindow(&out)
	for {
		final, err := deflate.DecodeBlock(br, window)
		if err != nil {
			if de, ok := err.(*deflate.Error); ok {
				return convertDeflateError(de)
			}
			return wrapError(TruncatedStream, err, "reading block")
		}
		if final {
			break
		}
	}
	if err := window.Finish(); err != nil {
		return wrapError(AllocationFailed, err, "flushing decoded output")
	}

	wantCRC, err := br.ReadBytesLE(4)
	if err != nil {
		return wrapError(TruncatedStream, err, "reading CRC-32 trailer")
	}
	wantISize, err := br.ReadBytesLE(4)
	if err != nil {
		return wrapError(TruncatedStream, err, "reading ISIZE trailer")
	}

	decoded := out.Bytes()
	gotCRC := crc32.ChecksumIEEE(decoded)
	if gotCRC != wantCRC {
		return newError(ChecksumMismatch, "CRC-32 mismatch: got %#08x want %#08x", gotCRC, wantCRC)
	}
	gotISize := uint32(uint64(len(decoded)) & 0xFFFFFFFF)
	if gotISize != wantISize {
		return newError(ChecksumMismatch, "ISIZE mismatch: got %d want %d", gotISize, wantISize)
	}

	if _, err := w.Write(decoded); err != nil {
		return wrapError(FileOpenFailed, err, "writing decompressed output")
	}
	return nil
}

func readHeader(br *deflate.BitReader) error {
	magic, err := br.ReadBytesLE(2)
	if err != nil {
		return wrapError(MalformedHeader, err, "reading magic")
	}
	if byte(magic) != gzipMagic1 || byte(magic>>8) != gzipMagic2 {
		return newError(MalformedHeader, "bad magic %#04x", magic)
	}
	cm, err := br.ReadBytesLE(1)
	if err != nil {
		return wrapError(MalformedHeader, err, "reading CM")
	}
	if cm != cmDeflate {
		return newError(MalformedHeader, "unsupported compression method %d", cm)
	}
	flg, err := br.ReadBytesLE(1)
	if err != nil {
		return wrapError(MalformedHeader, err, "reading FLG")
	}
	if flg != 0x00 {
		return newError(MalformedHeader, "unsupported FLG %#02x: optional header fields are not supported", flg)
	}
	if _, err := br.ReadBytesLE(4); err != nil { // MTIME
		return wrapError(MalformedHeader, err, "reading MTIME")
	}
	if _, err := br.ReadBytesLE(1); err != nil { // XFL
		return wrapError(MalformedHeader, err, "reading XFL")
	}
	if _, err := br.ReadBytesLE(1); err != nil { // OS
		return wrapError(MalformedHeader, err, "reading OS")
	}
	return nil
}

// convertDeflateError maps an internal *deflate.Error, whose Kind space
// is a subset of this package's own taxonomy, to the equivalent
// *gzflate.Error.
func convertDeflateError(de *deflate.Error) *Error {
	var k Kind
	switch de.Kind {
	case deflate.UnsupportedBlockType:
		k = UnsupportedBlockType
	case deflate.TruncatedStream:
		k = TruncatedStream
	case deflate.InvalidHuffmanCode:
		k = InvalidHuffmanCode
	case deflate.InvalidReference:
		k = InvalidReference
	default:
		k = EncodeBug
	}
	return &Error{Kind: k, Detail: de.Detail, Err: de.Err}
}
