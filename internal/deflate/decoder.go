// Copyright 2021 Cosmos Nicolaou. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package deflate

import "sort"

// FastBits is the width of the direct-lookup table used to decode the
// common case of a short Huffman code in one table access.
const FastBits = 9

// fastEntry is one slot of the fast lookup table: a decoded symbol and
// the number of bits it consumes, or bits == 0 if no code of length
// <= FastBits maps to this slot (forcing the slow path).
type fastEntry struct {
	symbol int
	bits   uint
}

// codeEntry is one symbol's canonical code, used by the slow path to
// resolve codes longer than FastBits.
type codeEntry struct {
	symbol int
	code   uint32
	length uint
}

// Decoder decodes symbols from a canonical Huffman code built from a
// code-length vector: a direct table for the common short-code case,
// falling back to an explicit bit-by-bit search for any code longer
// than FastBits.
//
// The reference implementation this codec was distilled from had a
// documented bug in exactly this fallback path ("There are cases where
// this function can not decode... I couldn't find it in time.") — rather
// than resuming a partial bit-accumulator left over from a failed fast
// lookup, that version restarted from a fresh code of length 0 but
// walked the bit reader forward regardless, so the bits it had already
// peeked for the fast path and the bits it then read for the slow path
// disagreed. In this implementation the fast path consumes bits (Discard)
// only after a table hit; on a miss nothing has been consumed, so the
// slow path starts reading from the same position the peek started at.
type Decoder struct {
	fast   []fastEntry
	slow   []codeEntry // every symbol's code, sorted by length then code
	maxLen uint
}

// NewDecoder builds a Decoder from a code-length vector (indexed by
// symbol; 0 means the symbol is absent from this tree).
func NewDecoder(lengths []int, maxLen int) *Decoder {
	codes := AssignCodes(lengths, maxLen)
	d := &Decoder{
		fast:   make([]fastEntry, 1<<FastBits),
		maxLen: uint(maxLen),
	}
	for sym, l := range lengths {
		if l == 0 {
			continue
		}
		length := uint(l)
		reversed := reverseBits(codes[sym], length)
		if length <= FastBits {
			step := uint32(1) << length
			for idx := reversed; idx < (1 << FastBits); idx += step {
				d.fast[idx] = fastEntry{symbol: sym, bits: length}
			}
		}
		// Every code, short or long, also goes into the slow list: a
		// short code can still reach the slow path if PeekBits can't
		// buffer a full FastBits window (e.g. fewer than FastBits bits
		// remain before the stream's end), so the slow path must be a
		// complete fallback on its own, not just a long-code extension
		// of the fast table.
		d.slow = append(d.slow, codeEntry{symbol: sym, code: codes[sym], length: length})
	}
	sort.Slice(d.slow, func(i, j int) bool {
		if d.slow[i].length != d.slow[j].length {
			return d.slow[i].length < d.slow[j].length
		}
		return d.slow[i].code < d.slow[j].code
	})
	return d
}

// Decode reads and returns the next symbol from br.
func (d *Decoder) Decode(br *BitReader) (int, error) {
	if len(d.fast) > 0 {
		if peek, ok := br.PeekBits(FastBits); ok {
			if e := d.fast[peek]; e.bits > 0 {
				br.Discard(e.bits)
				return e.symbol, nil
			}
		}
	}
	// Slow path: accumulate one bit at a time, MSB-first (matching how
	// canonical codes are defined), and check against every code of the
	// current length. The alphabets are small (at most 286 symbols, for
	// literal/length), so a linear scan per length is fine — this path is
	// only reached for codes longer than FastBits, or when fewer than
	// FastBits bits remain in the input.
	var current uint32
	for length := uint(1); length <= d.maxLen; length++ {
		bit, err := br.ReadBits(1)
		if err != nil {
			return 0, err
		}
		current = (current << 1) | bit
		for _, e := range d.slow {
			if e.length == length && e.code == current {
				return e.symbol, nil
			}
			if e.length > length {
				break
			}
		}
	}
	return 0, errInvalidCode
}

// errInvalidCode is returned by Decode when no canonical code matches
// the bits read, even after exhausting the decoder's maximum code length.
var errInvalidCode = errNoMatch{}

type errNoMatch struct{}

func (errNoMatch) Error() string { return "no Huffman code matched" }
