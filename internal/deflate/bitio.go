// Copyright 2021 Cosmos Nicolaou. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package deflate

import (
	"bufio"
	"io"
)

// BitWriter packs bits LSB-first into bytes and writes them to an
// underlying io.Writer, matching RFC 1951's bit ordering: the first bit
// written becomes the least-significant bit of the first output byte.
//
// Canonical Huffman codes are defined MSB-first, so callers writing a
// Huffman code must reverse its bits before calling WriteBits — see
// WriteHuffmanCode.
type BitWriter struct {
	w    *bufio.Writer
	acc  uint32 // bit accumulator, LSB-first
	nacc uint   // number of valid bits currently in acc
}

// NewBitWriter returns a BitWriter that writes to w.
func NewBitWriter(w io.Writer) *BitWriter {
	return &BitWriter{w: bufio.NewWriter(w)}
}

// WriteBits writes the low n bits of value, LSB first. n must be <= 24 so
// that the accumulator (which may already hold up to 7 pending bits) never
// needs more than 32 bits.
func (bw *BitWriter) WriteBits(value uint32, n uint) error {
	bw.acc |= (value & ((1 << n) - 1)) << bw.nacc
	bw.nacc += n
	for bw.nacc >= 8 {
		if err := bw.w.WriteByte(byte(bw.acc)); err != nil {
			return err
		}
		bw.acc >>= 8
		bw.nacc -= 8
	}
	return nil
}

// reverseBits reverses the low n bits of v, used to translate a
// canonical (MSB-first) Huffman code into the order WriteBits expects.
func reverseBits(v uint32, n uint) uint32 {
	var r uint32
	for i := uint(0); i < n; i++ {
		r = (r << 1) | (v & 1)
		v >>= 1
	}
	return r
}

// WriteHuffmanCode writes a canonical Huffman code of the given length,
// reversing its bit order first. This reversal is the one bright line in
// the whole codec: canonical codes are assigned and compared MSB-first,
// but the bitstream itself is packed LSB-first.
func (bw *BitWriter) WriteHuffmanCode(code uint32, length uint) error {
	if length == 0 {
		return nil
	}
	return bw.WriteBits(reverseBits(code, length), length)
}

// AlignByte pads the accumulator with zero bits up to the next byte
// boundary, then flushes it.
func (bw *BitWriter) AlignByte() error {
	if bw.nacc > 0 {
		if err := bw.w.WriteByte(byte(bw.acc)); err != nil {
			return err
		}
		bw.acc, bw.nacc = 0, 0
	}
	return nil
}

// WriteBytesLE writes n little-endian bytes of value directly, first
// aligning to a byte boundary. Used for the gzip header/trailer fields.
func (bw *BitWriter) WriteBytesLE(value uint32, n int) error {
	if err := bw.AlignByte(); err != nil {
		return err
	}
	for i := 0; i < n; i++ {
		if err := bw.w.WriteByte(byte(value >> (uint(i) * 8))); err != nil {
			return err
		}
	}
	return nil
}

// Flush flushes any buffered bytes to the underlying writer. The caller
// must have called AlignByte first if a final partial byte exists.
func (bw *BitWriter) Flush() error {
	return bw.w.Flush()
}

// BitReader unpacks LSB-first bits from an underlying io.Reader, the
// reading counterpart of BitWriter.
type BitReader struct {
	r    *bufio.Reader
	acc  uint32
	nacc uint
	err  error
}

// NewBitReader returns a BitReader that reads from r.
func NewBitReader(r io.Reader) *BitReader {
	br, ok := r.(*bufio.Reader)
	if !ok {
		br = bufio.NewReader(r)
	}
	return &BitReader{r: br}
}

// fill ensures at least n bits are available in the accumulator, reading
// additional bytes from the underlying reader as needed.
func (br *BitReader) fill(n uint) error {
	for br.nacc < n {
		b, err := br.r.ReadByte()
		if err != nil {
			return err
		}
		br.acc |= uint32(b) << br.nacc
		br.nacc += 8
	}
	return nil
}

// ReadBits reads n bits (n <= 24) LSB-first and returns their value.
func (br *BitReader) ReadBits(n uint) (uint32, error) {
	if err := br.fill(n); err != nil {
		return 0, err
	}
	v := br.acc & ((1 << n) - 1)
	br.acc >>= n
	br.nacc -= n
	return v, nil
}

// PeekBits returns the value of the next n bits without consuming them.
// It reads further bytes from the underlying reader as needed; if that
// reader fails (for instance at end of input) before n bits are
// buffered, it returns whatever bits could be buffered and ok=false; the
// fast Huffman decode table treats this as "fall back to the slow path".
func (br *BitReader) PeekBits(n uint) (value uint32, ok bool) {
	for br.nacc < n {
		b, err := br.r.ReadByte()
		if err != nil {
			return br.acc, false
		}
		br.acc |= uint32(b) << br.nacc
		br.nacc += 8
	}
	return br.acc & ((1 << n) - 1), true
}

// Discard consumes n bits previously inspected via PeekBits.
func (br *BitReader) Discard(n uint) {
	br.acc >>= n
	br.nacc -= n
}

// AlignByte discards any partial byte remaining in the accumulator so the
// next read begins at a byte boundary.
func (br *BitReader) AlignByte() {
	drop := br.nacc % 8
	br.acc >>= drop
	br.nacc -= drop
}

// ReadBytesLE reads n little-endian bytes directly, first aligning to a
// byte boundary.
func (br *BitReader) ReadBytesLE(n int) (uint32, error) {
	br.AlignByte()
	var v uint32
	for i := 0; i < n; i++ {
		b, err := br.readAlignedByte()
		if err != nil {
			return 0, err
		}
		v |= uint32(b) << (uint(i) * 8)
	}
	return v, nil
}

// readAlignedByte reads one byte, preferring any whole byte already
// sitting in the accumulator.
func (br *BitReader) readAlignedByte() (byte, error) {
	if br.nacc >= 8 {
		b := byte(br.acc)
		br.acc >>= 8
		br.nacc -= 8
		return b, nil
	}
	return br.r.ReadByte()
}
