// Copyright 2021 Cosmos Nicolaou. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package deflate

// CLSymbol is one entry of the code-length-alphabet (0..18) stream used
// to transmit a block's combined literal/length + distance code-length
// vector, per RFC 1951 §3.2.7.
type CLSymbol struct {
	Symbol int
	Extra  uint32
	Extra2 uint // number of extra bits
}

// RLEEncode compresses a concatenated length vector (LL lengths followed
// by distance lengths) into the 0..18 code-length alphabet: symbol 16
// repeats the previous length 3-6 times, 17 is a zero-run of 3-10, and 18
// a zero-run of 11-138.
//
// A run of three or more zero lengths is emitted with symbols 17 and 18;
// only a leftover of one or two zeros after a full 138-zero symbol 18 is
// emitted as literal zero (symbol 0) entries. This is a fixed preference
// for the run symbols: the encoder does not compare their cost against
// literal zeros under the code-length tree, so for some blocks literal
// zeros would have been shorter.
func RLEEncode(lengths []int) []CLSymbol {
	var out []CLSymbol
	n := len(lengths)
	for i := 0; i < n; {
		l := lengths[i]
		run := 1
		for i+run < n && lengths[i+run] == l {
			run++
		}
		if l == 0 {
			left := run
			for left > 0 {
				switch {
				case left >= 11:
					take := left
					if take > 138 {
						take = 138
					}
					out = append(out, CLSymbol{Symbol: 18, Extra: uint32(take - 11), Extra2: 7})
					left -= take
				case left >= 3:
					take := left
					if take > 10 {
						take = 10
					}
					out = append(out, CLSymbol{Symbol: 17, Extra: uint32(take - 3), Extra2: 3})
					left -= take
				default:
					out = append(out, CLSymbol{Symbol: 0})
					left--
				}
			}
		} else {
			out = append(out, CLSymbol{Symbol: l})
			remaining := run - 1
			for remaining > 0 {
				switch {
				case remaining >= 3:
					take := remaining
					if take > 6 {
						take = 6
					}
					out = append(out, CLSymbol{Symbol: 16, Extra: uint32(take - 3), Extra2: 2})
					remaining -= take
				default:
					out = append(out, CLSymbol{Symbol: l})
					remaining--
				}
			}
		}
		i += run
	}
	return out
}

// RLEExpand is the inverse of RLEEncode, driven by a Decoder over the
// code-length alphabet and a bit reader to supply each symbol's extra
// bits. It expands exactly total symbols.
func RLEExpand(dec *Decoder, br *BitReader, total int) ([]int, error) {
	out := make([]int, 0, total)
	var prev int
	for len(out) < total {
		sym, err := dec.Decode(br)
		if err != nil {
			return nil, err
		}
		switch {
		case sym <= 15:
			out = append(out, sym)
			prev = sym
		case sym == 16:
			extra, err := br.ReadBits(2)
			if err != nil {
				return nil, err
			}
			count := int(extra) + 3
			for i := 0; i < count; i++ {
				out = append(out, prev)
			}
		case sym == 17:
			extra, err := br.ReadBits(3)
			if err != nil {
				return nil, err
			}
			count := int(extra) + 3
			for i := 0; i < count; i++ {
				out = append(out, 0)
			}
			prev = 0
		case sym == 18:
			extra, err := br.ReadBits(7)
			if err != nil {
				return nil, err
			}
			count := int(extra) + 11
			for i := 0; i < count; i++ {
				out = append(out, 0)
			}
			prev = 0
		default:
			return nil, errNoMatch{}
		}
		// Invariant R1: a run symbol (16/17/18) near the end of the
		// vector can overshoot total — that's a malformed stream, not
		// something to silently truncate or carry forward.
		if len(out) > total {
			return nil, &Error{Kind: InvalidHuffmanCode, Detail: "code-length run overruns HLIT+HDIST"}
		}
	}
	return out, nil
}
