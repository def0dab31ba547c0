// Copyright 2021 Cosmos Nicolaou. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package deflate

// btypeDynamicHuffman is the only BTYPE value this codec ever writes or
// accepts (RFC 1951 §3.2.3); stored (0b00) and static-Huffman (0b01)
// blocks are out of scope.
const btypeDynamicHuffman = 0b10

const (
	numLLSymbols   = 286 // 0-255 literal, 256 end-of-block, 257-285 length
	numDistSymbols = 30
	numCLSymbols   = 19
)

// EncodeBlock writes one dynamic-Huffman DEFLATE block containing the
// given tokens, setting the BFINAL bit if final is true. It builds the
// literal/length and distance Huffman trees from the block's own token
// frequencies, then the code-length tree over the RLE-compressed
// concatenation of both length vectors, and finally the HLIT/HDIST/HCLEN
// block header followed by the encoded token stream.
func EncodeBlock(bw *BitWriter, tokens []Token, final bool) error {
	llFreq := make([]int, numLLSymbols)
	distFreq := make([]int, numDistSymbols)
	llFreq[EndOfBlock] = 1

	for _, t := range tokens {
		if t.Kind == LiteralToken {
			llFreq[t.Literal]++
			continue
		}
		sym, _, _ := LengthSymbol(t.Length)
		llFreq[sym]++
		dsym, _, _ := DistanceSymbol(t.Distance)
		distFreq[dsym]++
	}
	// RFC 1951 requires at least one distance code even when a block
	// contains no matches at all; a single dummy entry of length 1
	// keeps the distance tree well formed.
	if sumInts(distFreq) == 0 {
		distFreq[0] = 1
	}

	llLengths := codeLengths(buildTree(llFreq), numLLSymbols)
	LimitLengths(llLengths, MaxCodeLength)
	distLengths := codeLengths(buildTree(distFreq), numDistSymbols)
	LimitLengths(distLengths, MaxCodeLength)

	hlit := highestUsed(llLengths, 256) + 1
	hdist := highestUsed(distLengths, 0) + 1

	combined := append(append([]int{}, llLengths[:hlit]...), distLengths[:hdist]...)
	rle := RLEEncode(combined)

	clFreq := make([]int, numCLSymbols)
	for _, s := range rle {
		clFreq[s.Symbol]++
	}
	clLengths := codeLengths(buildTree(clFreq), numCLSymbols)
	LimitLengths(clLengths, MaxCodeLengthBits)

	// HCLEN: scan CodeLengthOrder from the high end for the last
	// position with a non-zero length, per the corrected definition —
	// the reference implementation's own revisions disagreed on this
	// computation, one counting from the wrong end and one omitting the
	// floor at 0 for an all-empty permutation tail.
	hclenIndex := -1
	for i := len(CodeLengthOrder) - 1; i >= 0; i-- {
		if clLengths[CodeLengthOrder[i]] != 0 {
			hclenIndex = i
			break
		}
	}
	hclen := hclenIndex - 3
	if hclen < 0 {
		hclen = 0
	}

	if err := bw.WriteBits(boolBit(final), 1); err != nil {
		return err
	}
	if err := bw.WriteBits(btypeDynamicHuffman, 2); err != nil {
		return err
	}
	if err := bw.WriteBits(uint32(hlit-257), 5); err != nil {
		return err
	}
	if err := bw.WriteBits(uint32(hdist-1), 5); err != nil {
		return err
	}
	if err := bw.WriteBits(uint32(hclen), 4); err != nil {
		return err
	}
	for i := 0; i < hclen+4; i++ {
		if err := bw.WriteBits(uint32(clLengths[CodeLengthOrder[i]]), 3); err != nil {
			return err
		}
	}
	clCodes := AssignCodes(clLengths, MaxCodeLengthBits)
	for _, s := range rle {
		if err := bw.WriteHuffmanCode(clCodes[s.Symbol], uint(clLengths[s.Symbol])); err != nil {
			return err
		}
		if s.Extra2 > 0 {
			if err := bw.WriteBits(s.Extra, s.Extra2); err != nil {
				return err
			}
		}
	}

	llCodes := AssignCodes(llLengths, MaxCodeLength)
	distCodes := AssignCodes(distLengths, MaxCodeLength)
	for _, t := range tokens {
		if t.Kind == LiteralToken {
			if err := bw.WriteHuffmanCode(llCodes[t.Literal], uint(llLengths[t.Literal])); err != nil {
				return err
			}
			continue
		}
		lsym, lextra, lbits := LengthSymbol(t.Length)
		if err := bw.WriteHuffmanCode(llCodes[lsym], uint(llLengths[lsym])); err != nil {
			return err
		}
		if lbits > 0 {
			if err := bw.WriteBits(lextra, lbits); err != nil {
				return err
			}
		}
		dsym, dextra, dbits := DistanceSymbol(t.Distance)
		if err := bw.WriteHuffmanCode(distCodes[dsym], uint(distLengths[dsym])); err != nil {
			return err
		}
		if dbits > 0 {
			if err := bw.WriteBits(dextra, dbits); err != nil {
				return err
			}
		}
	}
	if err := bw.WriteHuffmanCode(llCodes[EndOfBlock], uint(llLengths[EndOfBlock])); err != nil {
		return err
	}
	return nil
}

// DecodeBlock reads one DEFLATE block header and its token stream,
// writing decoded bytes to out. It returns final=true if this was the
// last block in the stream (BFINAL was set).
func DecodeBlock(br *BitReader, out *OutputWindow) (final bool, err error) {
	bfinal, err := br.ReadBits(1)
	if err != nil {
		return false, wrapTruncated(err)
	}
	btype, err := br.ReadBits(2)
	if err != nil {
		return false, wrapTruncated(err)
	}
	if btype != btypeDynamicHuffman {
		return false, &Error{Kind: UnsupportedBlockType, Detail: "only dynamic Huffman blocks (BTYPE=10) are supported"}
	}

	hlitField, err := br.ReadBits(5)
	if err != nil {
		return false, wrapTruncated(err)
	}
	hdistField, err := br.ReadBits(5)
	if err != nil {
		return false, wrapTruncated(err)
	}
	hclenField, err := br.ReadBits(4)
	if err != nil {
		return false, wrapTruncated(err)
	}
	hlit := int(hlitField) + 257
	hdist := int(hdistField) + 1
	hclen := int(hclenField) + 4
	if hlit > numLLSymbols || hdist > numDistSymbols {
		return false, &Error{Kind: InvalidHuffmanCode, Detail: "HLIT/HDIST exceeds the defined literal/length or distance alphabet"}
	}

	clLengths := make([]int, numCLSymbols)
	for i := 0; i < hclen; i++ {
		v, err := br.ReadBits(3)
		if err != nil {
			return false, wrapTruncated(err)
		}
		clLengths[CodeLengthOrder[i]] = int(v)
	}
	clDecoder := NewDecoder(clLengths, MaxCodeLengthBits)

	combined, err := RLEExpand(clDecoder, br, hlit+hdist)
	if err != nil {
		return false, symbolError(err)
	}
	llLengths := combined[:hlit]
	distLengths := combined[hlit:]
	llDecoder := NewDecoder(llLengths, MaxCodeLength)
	distDecoder := NewDecoder(distLengths, MaxCodeLength)

	for {
		sym, err := llDecoder.Decode(br)
		if err != nil {
			return false, symbolError(err)
		}
		switch {
		case sym < EndOfBlock:
			if err := out.WriteByte(byte(sym)); err != nil {
				return false, err
			}
		case sym == EndOfBlock:
			return bfinal == 1, nil
		default:
			base, extraBits := LengthBase(sym)
			length := base
			if extraBits > 0 {
				extra, err := br.ReadBits(extraBits)
				if err != nil {
					return false, wrapTruncated(err)
				}
				length += int(extra)
			}
			dsym, err := distDecoder.Decode(br)
			if err != nil {
				return false, symbolError(err)
			}
			dbase, dExtraBits := DistanceBase(dsym)
			distance := dbase
			if dExtraBits > 0 {
				extra, err := br.ReadBits(dExtraBits)
				if err != nil {
					return false, wrapTruncated(err)
				}
				distance += int(extra)
			}
			if err := out.CopyMatch(distance, length); err != nil {
				return false, err
			}
		}
	}
}

func wrapTruncated(err error) error {
	return &Error{Kind: TruncatedStream, Err: err}
}

// symbolError classifies a failure while decoding Huffman symbols: no
// matching code is InvalidHuffmanCode, running out of input is
// TruncatedStream, and an already-classified *Error passes through.
func symbolError(err error) error {
	switch e := err.(type) {
	case *Error:
		return e
	case errNoMatch:
		return &Error{Kind: InvalidHuffmanCode, Err: err}
	}
	return wrapTruncated(err)
}

func boolBit(b bool) uint32 {
	if b {
		return 1
	}
	return 0
}

func sumInts(v []int) int {
	s := 0
	for _, x := range v {
		s += x
	}
	return s
}

// highestUsed returns the highest index with a non-zero length, never
// lower than floor (HLIT/HDIST both have a mandatory minimum span).
func highestUsed(v []int, floor int) int {
	for i := len(v) - 1; i > floor; i-- {
		if v[i] != 0 {
			return i
		}
	}
	return floor
}
