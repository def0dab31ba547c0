// Copyright 2021 Cosmos Nicolaou. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package deflate

// hashBits, hashShift and hashMask define the 15-bit rolling hash over
// 3-byte windows used to seed LZ77 match candidates, taken directly from
// the reference implementation's compress.c: generateHashKey computes
// (p[0]<<5) ^ p[1] ^ p[2], masked to 15 bits.
const (
	hashBits  = 15
	hashShift = 5
	hashMask  = (1 << hashBits) - 1
	hashSize  = 1 << hashBits
)

// emptySlot marks a hash table entry that has never been written.
const emptySlot = -1

func hashKey(b0, b1, b2 byte) int {
	return (int(b0)<<hashShift ^ int(b1) ^ int(b2)) & hashMask
}

// TokenKind distinguishes a literal byte token from a length/distance
// match token in the buffer the matcher produces.
type TokenKind uint8

const (
	LiteralToken TokenKind = iota
	MatchToken
)

// Token is one entry in a block's LZ77 token stream: either a single
// literal byte or a (length, distance) back-reference.
type Token struct {
	Kind     TokenKind
	Literal  byte
	Length   int
	Distance int
}

// Matcher performs greedy single-candidate LZ77 matching over a 32 KiB
// sliding window: each position's 3-byte hash yields at most one
// candidate (the most recent occurrence), which is taken if it extends
// to at least MinMatchLength bytes, with no lazy-matching lookahead and
// no hash-chain search of older occurrences. This mirrors compress.c's
// compress_data loop exactly.
type Matcher struct {
	data []byte
	pos  int
	hash [hashSize]int32 // position of the most recent 3-byte sequence with this hash, or emptySlot
	base int             // data[base] is logical position 0 of the sliding window
}

// NewMatcher returns a Matcher over data, matching from the beginning.
func NewMatcher(data []byte) *Matcher {
	m := &Matcher{data: data, pos: 0}
	for i := range m.hash {
		m.hash[i] = emptySlot
	}
	return m
}

// Next emits the next token: a match if the position's hash resolves to
// a valid, long-enough candidate within the window, otherwise a literal.
// It reports done=true once the whole input has been consumed.
func (m *Matcher) Next() (tok Token, done bool) {
	if m.pos >= len(m.data) {
		return Token{}, true
	}
	if len(m.data)-m.pos < MinMatchLength {
		tok = Token{Kind: LiteralToken, Literal: m.data[m.pos]}
		m.advance(1)
		return tok, false
	}

	h := hashKey(m.data[m.pos], m.data[m.pos+1], m.data[m.pos+2])
	cand := m.hash[h]
	m.hash[h] = int32(m.pos)

	if cand != emptySlot {
		distance := m.pos - int(cand)
		// Invariant H1: this matcher never slides; the hash table holds
		// absolute positions into data, so a candidate more than
		// WindowSize back is rejected by bounding distance, the same
		// effect as subtractWindowSizeFromHashTable's slide-then-discard
		// policy in the reference implementation.
		if distance > 0 && distance <= WindowSize {
			length := m.matchLength(int(cand), m.pos)
			if length >= MinMatchLength {
				tok = Token{Kind: MatchToken, Length: length, Distance: distance}
				m.advance(length)
				return tok, false
			}
		}
	}

	tok = Token{Kind: LiteralToken, Literal: m.data[m.pos]}
	m.advance(1)
	return tok, false
}

// matchLength returns how many bytes starting at a and b agree,
// capped at MaxMatchLength and at the end of the input.
func (m *Matcher) matchLength(a, b int) int {
	max := MaxMatchLength
	if remain := len(m.data) - b; remain < max {
		max = remain
	}
	n := 0
	for n < max && m.data[a+n] == m.data[b+n] {
		n++
	}
	return n
}

// advance moves the current position forward by n bytes, updating the
// hash table for every position skipped over by a match exactly as the
// reference implementation does ("always update hash table at current
// position regardless of outcome"), so future matches can still find
// occurrences inside an already-matched run.
func (m *Matcher) advance(n int) {
	end := m.pos + n
	for p := m.pos + 1; p < end && p+2 < len(m.data); p++ {
		h := hashKey(m.data[p], m.data[p+1], m.data[p+2])
		m.hash[h] = int32(p)
	}
	m.pos = end
}
