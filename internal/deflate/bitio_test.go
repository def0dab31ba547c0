// Copyright 2021 Cosmos Nicolaou. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package deflate

import (
	"bytes"
	"testing"
)

func TestBitWriterReaderRoundTrip(t *testing.T) {
	type write struct {
		value uint32
		bits  uint
	}
	cases := []struct {
		name   string
		writes []write
	}{
		{"single bit", []write{{1, 1}}},
		{"byte aligned", []write{{0xAB, 8}}},
		{"mixed widths", []write{{0x3, 2}, {0x15, 5}, {0x1FF, 9}, {0, 3}}},
		{"wide value", []write{{0xFFFFF, 20}}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			var buf bytes.Buffer
			bw := NewBitWriter(&buf)
			for _, w := range c.writes {
				if err := bw.WriteBits(w.value, w.bits); err != nil {
					t.Fatalf("WriteBits: %v", err)
				}
			}
			if err := bw.AlignByte(); err != nil {
				t.Fatalf("AlignByte: %v", err)
			}
			if err := bw.Flush(); err != nil {
				t.Fatalf("Flush: %v", err)
			}

			br := NewBitReader(&buf)
			for _, w := range c.writes {
				got, err := br.ReadBits(w.bits)
				if err != nil {
					t.Fatalf("ReadBits: %v", err)
				}
				want := w.value & ((1 << w.bits) - 1)
				if got != want {
					t.Errorf("ReadBits(%d) = %#x, want %#x", w.bits, got, want)
				}
			}
		})
	}
}

func TestHuffmanCodeReversal(t *testing.T) {
	var buf bytes.Buffer
	bw := NewBitWriter(&buf)
	// Canonical code 0b110, length 3, is written MSB-first: the stream
	// must receive the bits in order 1,1,0 (LSB-first packing of the
	// reversed value 0b011). A non-palindromic code is used so that a
	// missing reversal would show.
	if err := bw.WriteHuffmanCode(0b110, 3); err != nil {
		t.Fatal(err)
	}
	if err := bw.AlignByte(); err != nil {
		t.Fatal(err)
	}
	bw.Flush()

	br := NewBitReader(&buf)
	b0, _ := br.ReadBits(1)
	b1, _ := br.ReadBits(1)
	b2, _ := br.ReadBits(1)
	if b0 != 1 || b1 != 1 || b2 != 0 {
		t.Errorf("got bits %d %d %d, want 1 1 0 (MSB of 0b110 first)", b0, b1, b2)
	}
}

func TestBitReaderPeekDoesNotConsume(t *testing.T) {
	var buf bytes.Buffer
	bw := NewBitWriter(&buf)
	bw.WriteBits(0x1F, 5)
	bw.AlignByte()
	bw.Flush()

	br := NewBitReader(&buf)
	peeked, ok := br.PeekBits(5)
	if !ok {
		t.Fatal("PeekBits reported not ok")
	}
	if peeked != 0x1F {
		t.Fatalf("peek = %#x, want 0x1F", peeked)
	}
	got, err := br.ReadBits(5)
	if err != nil || got != 0x1F {
		t.Fatalf("ReadBits after peek = %#x, %v", got, err)
	}
}

func TestBytesLERoundTrip(t *testing.T) {
	var buf bytes.Buffer
	bw := NewBitWriter(&buf)
	bw.WriteBits(0x7, 3)
	bw.WriteBytesLE(0xDEADBEEF, 4)
	bw.Flush()

	br := NewBitReader(&buf)
	br.ReadBits(3)
	v, err := br.ReadBytesLE(4)
	if err != nil {
		t.Fatal(err)
	}
	if v != 0xDEADBEEF {
		t.Errorf("got %#x, want 0xDEADBEEF", v)
	}
}
