// Copyright 2021 Cosmos Nicolaou. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package deflate

import (
	"bytes"
	"testing"
)

// expand is a reference (non-Huffman-coded) inverse of RLEEncode used to
// check the encoder independent of the bitstream/tree machinery.
func expand(symbols []CLSymbol) []int {
	var out []int
	var prev int
	for _, s := range symbols {
		switch {
		case s.Symbol <= 15:
			out = append(out, s.Symbol)
			prev = s.Symbol
		case s.Symbol == 16:
			for i := 0; i < int(s.Extra)+3; i++ {
				out = append(out, prev)
			}
		case s.Symbol == 17:
			for i := 0; i < int(s.Extra)+3; i++ {
				out = append(out, 0)
			}
			prev = 0
		case s.Symbol == 18:
			for i := 0; i < int(s.Extra)+11; i++ {
				out = append(out, 0)
			}
			prev = 0
		}
	}
	return out
}

func TestRLEEncodeInversion(t *testing.T) {
	cases := [][]int{
		{},
		{5},
		{0, 0, 0},
		{0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0},
		{3, 3, 3, 3, 3, 3, 3, 3, 3},
		{1, 2, 3, 4, 5, 0, 0, 0, 0, 7, 7, 7},
		{0, 1, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0},
	}
	for _, lengths := range cases {
		encoded := RLEEncode(lengths)
		got := expand(encoded)
		if len(got) != len(lengths) {
			t.Fatalf("expand(RLEEncode(%v)) length = %d, want %d", lengths, len(got), len(lengths))
		}
		for i := range lengths {
			if got[i] != lengths[i] {
				t.Errorf("expand(RLEEncode(%v))[%d] = %d, want %d", lengths, i, got[i], lengths[i])
			}
		}
	}
}

func TestRLERoundTripThroughBitstream(t *testing.T) {
	lengths := []int{0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 1, 2, 3, 0, 0, 0, 4, 4, 4, 4, 4, 4, 4, 4}
	symbols := RLEEncode(lengths)

	clFreq := make([]int, numCLSymbols)
	for _, s := range symbols {
		clFreq[s.Symbol]++
	}
	clLengths := codeLengths(buildTree(clFreq), numCLSymbols)
	LimitLengths(clLengths, MaxCodeLengthBits)
	clCodes := AssignCodes(clLengths, MaxCodeLengthBits)

	var buf bytes.Buffer
	bw := NewBitWriter(&buf)
	for _, s := range symbols {
		if err := bw.WriteHuffmanCode(clCodes[s.Symbol], uint(clLengths[s.Symbol])); err != nil {
			t.Fatal(err)
		}
		if s.Extra2 > 0 {
			bw.WriteBits(s.Extra, s.Extra2)
		}
	}
	bw.AlignByte()
	bw.Flush()

	dec := NewDecoder(clLengths, MaxCodeLengthBits)
	br := NewBitReader(&buf)
	got, err := RLEExpand(dec, br, len(lengths))
	if err != nil {
		t.Fatalf("RLEExpand: %v", err)
	}
	if len(got) != len(lengths) {
		t.Fatalf("got %d lengths, want %d", len(got), len(lengths))
	}
	for i := range lengths {
		if got[i] != lengths[i] {
			t.Errorf("[%d] = %d, want %d", i, got[i], lengths[i])
		}
	}
}

func TestRLEExpandRejectsRunOverruningTotal(t *testing.T) {
	// The last run (a literal 4, then symbol 16 repeating it six more
	// times) would push the output past a total that stops one short of
	// the full vector.
	lengths := []int{1, 2, 3, 4, 4, 4, 4, 4, 4, 4}
	symbols := RLEEncode(lengths)

	clFreq := make([]int, numCLSymbols)
	for _, s := range symbols {
		clFreq[s.Symbol]++
	}
	clLengths := codeLengths(buildTree(clFreq), numCLSymbols)
	LimitLengths(clLengths, MaxCodeLengthBits)
	clCodes := AssignCodes(clLengths, MaxCodeLengthBits)

	var buf bytes.Buffer
	bw := NewBitWriter(&buf)
	for _, s := range symbols {
		if err := bw.WriteHuffmanCode(clCodes[s.Symbol], uint(clLengths[s.Symbol])); err != nil {
			t.Fatal(err)
		}
		if s.Extra2 > 0 {
			bw.WriteBits(s.Extra, s.Extra2)
		}
	}
	bw.AlignByte()
	bw.Flush()

	dec := NewDecoder(clLengths, MaxCodeLengthBits)
	br := NewBitReader(&buf)
	if _, err := RLEExpand(dec, br, len(lengths)-1); err == nil {
		t.Fatal("expected an error when a run overruns the requested total")
	}
}
