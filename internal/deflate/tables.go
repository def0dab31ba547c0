// Copyright 2021 Cosmos Nicolaou. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

// Package deflate implements the RFC 1951 DEFLATE algorithm used as the
// payload codec inside a gzip container: LZ77 string matching, canonical
// Huffman coding, and the bit-level stream I/O that glues them together.
package deflate

// EndOfBlock is the literal/length alphabet symbol that terminates a
// block's token stream.
const EndOfBlock = 256

// MaxMatchLength and MinMatchLength bound the lengths the LZ77 matcher may
// emit; MaxMatchLength is fixed by the length alphabet's top symbol (285,
// base 258, 0 extra bits) and MinMatchLength by the point below which a
// literal encoding is never worse than a match.
const (
	MinMatchLength = 3
	MaxMatchLength = 258
)

// WindowSize is the size of the LZ77 sliding window: a match's distance is
// never more than this many bytes.
const WindowSize = 32768

// lengthEntry describes one length-alphabet symbol: the smallest match
// length it represents and how many extra bits follow it to reach longer
// lengths in its range.
type lengthEntry struct {
	base      int
	extraBits uint
}

// lengthTable is indexed by symbol - 257 and gives the base length and
// extra-bit count for literal/length symbols 257..285. Values match
// RFC 1951 §3.2.5 exactly (also cross-checked against the reference
// implementation's length.c LENGTH_BASE/LENGTH_EXTRA_BITS tables).
var lengthTable = [29]lengthEntry{
	{3, 0}, {4, 0}, {5, 0}, {6, 0}, {7, 0}, {8, 0}, {9, 0}, {10, 0},
	{11, 1}, {13, 1}, {15, 1}, {17, 1},
	{19, 2}, {23, 2}, {27, 2}, {31, 2},
	{35, 3}, {43, 3}, {51, 3}, {59, 3},
	{67, 4}, {83, 4}, {99, 4}, {115, 4},
	{131, 5}, {163, 5}, {195, 5}, {227, 5},
	{258, 0},
}

// distanceTable is indexed by the distance-alphabet symbol (0..29) and
// gives the base distance and extra-bit count. Matches RFC 1951 §3.2.5
// and the reference implementation's distance.c DISTANCE_BASE/
// DISTANCE_EXTRA_BITS tables.
var distanceTable = [30]lengthEntry{
	{1, 0}, {2, 0}, {3, 0}, {4, 0},
	{5, 1}, {7, 1},
	{9, 2}, {13, 2},
	{17, 3}, {25, 3},
	{33, 4}, {49, 4},
	{65, 5}, {97, 5},
	{129, 6}, {193, 6},
	{257, 7}, {385, 7},
	{513, 8}, {769, 8},
	{1025, 9}, {1537, 9},
	{2049, 10}, {3073, 10},
	{4097, 11}, {6145, 11},
	{8193, 12}, {12289, 12},
	{16385, 13}, {24577, 13},
}

// LengthSymbol returns the literal/length alphabet symbol, extra-bit
// value, and extra-bit count for a match of the given length (3..258).
func LengthSymbol(length int) (symbol int, extra uint32, extraBits uint) {
	if length == MaxMatchLength {
		return 285, 0, 0
	}
	for i := len(lengthTable) - 1; i >= 0; i-- {
		if length >= lengthTable[i].base {
			return 257 + i, uint32(length - lengthTable[i].base), lengthTable[i].extraBits
		}
	}
	// unreachable for length >= MinMatchLength
	return 257, 0, 0
}

// LengthBase returns the base length and extra-bit count for a
// literal/length symbol in 257..285.
func LengthBase(symbol int) (base int, extraBits uint) {
	e := lengthTable[symbol-257]
	return e.base, e.extraBits
}

// DistanceSymbol returns the distance-alphabet symbol, extra-bit value,
// and extra-bit count for a match distance (1..32768).
func DistanceSymbol(distance int) (symbol int, extra uint32, extraBits uint) {
	for i := len(distanceTable) - 1; i >= 0; i-- {
		if distance >= distanceTable[i].base {
			return i, uint32(distance - distanceTable[i].base), distanceTable[i].extraBits
		}
	}
	return 0, 0, 0
}

// DistanceBase returns the base distance and extra-bit count for a
// distance-alphabet symbol in 0..29.
func DistanceBase(symbol int) (base int, extraBits uint) {
	e := distanceTable[symbol]
	return e.base, e.extraBits
}

// CodeLengthOrder is the fixed permutation in which code-length-alphabet
// (0..18) lengths appear in the HCLEN section of a dynamic-Huffman block
// header, per RFC 1951 §3.2.7.
var CodeLengthOrder = [19]int{16, 17, 18, 0, 8, 7, 9, 6, 10, 5, 11, 4, 12, 3, 13, 2, 14, 1, 15}
