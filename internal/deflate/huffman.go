// Copyright 2021 Cosmos Nicolaou. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package deflate

import "container/heap"

// MaxCodeLength is the longest canonical code length DEFLATE allows for
// the literal/length and distance alphabets (RFC 1951 §3.2.7).
const MaxCodeLength = 15

// MaxCodeLengthBits is the longest code length allowed for the
// code-length alphabet used to transmit HLIT/HDIST lengths (§3.2.7).
const MaxCodeLengthBits = 7

// huffmanNode is one node of a Huffman tree under construction: a leaf
// has symbol >= 0 and left == right == nil; an internal node has
// symbol == -1 and both children set.
type huffmanNode struct {
	freq        int
	symbol      int // -1 for internal nodes
	left, right *huffmanNode
	// seq breaks ties between equal-frequency nodes deterministically,
	// giving reproducible (if arbitrary) code assignment across runs.
	seq int
}

// nodeHeap implements container/heap.Interface over a min-heap of
// huffmanNode, ordered by frequency then insertion sequence. This is the
// idiomatic stdlib expression of the hand-rolled sift-up/sift-down
// MinHeap the reference implementation builds from scratch: extract-two,
// merge, insert, repeat until one node remains.
type nodeHeap []*huffmanNode

func (h nodeHeap) Len() int { return len(h) }
func (h nodeHeap) Less(i, j int) bool {
	if h[i].freq != h[j].freq {
		return h[i].freq < h[j].freq
	}
	return h[i].seq < h[j].seq
}
func (h nodeHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }
func (h *nodeHeap) Push(x interface{}) {
	*h = append(*h, x.(*huffmanNode))
}
func (h *nodeHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// buildTree builds a Huffman tree from a table of symbol frequencies
// (indexed by symbol; zero-frequency symbols are excluded from the tree)
// and returns its root. A single-symbol alphabet produces a root whose
// one child is a leaf, guaranteeing that symbol a code length of at
// least 1 bit (RFC 1951 requires at least one bit even for a degenerate
// one-symbol block).
func buildTree(freq []int) *huffmanNode {
	h := &nodeHeap{}
	seq := 0
	for sym, f := range freq {
		if f == 0 {
			continue
		}
		heap.Push(h, &huffmanNode{freq: f, symbol: sym, seq: seq})
		seq++
	}
	if h.Len() == 0 {
		return nil
	}
	if h.Len() == 1 {
		only := (*h)[0]
		root := &huffmanNode{freq: only.freq, symbol: -1, seq: seq, left: only}
		return root
	}
	for h.Len() > 1 {
		a := heap.Pop(h).(*huffmanNode)
		b := heap.Pop(h).(*huffmanNode)
		seq++
		heap.Push(h, &huffmanNode{freq: a.freq + b.freq, symbol: -1, left: a, right: b, seq: seq})
	}
	return heap.Pop(h).(*huffmanNode)
}

// codeLengths walks the tree with an explicit stack (avoiding recursion
// depth concerns for pathological skewed trees) and returns the code
// length of every symbol that appears in it, indexed by symbol.
func codeLengths(root *huffmanNode, numSymbols int) []int {
	lengths := make([]int, numSymbols)
	if root == nil {
		return lengths
	}
	type frame struct {
		n     *huffmanNode
		depth int
	}
	stack := []frame{{root, 0}}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		n := f.n
		if n.left == nil && n.right == nil {
			depth := f.depth
			if depth == 0 {
				depth = 1
			}
			lengths[n.symbol] = depth
			continue
		}
		if n.left != nil {
			stack = append(stack, frame{n.left, f.depth + 1})
		}
		if n.right != nil {
			stack = append(stack, frame{n.right, f.depth + 1})
		}
	}
	return lengths
}

// LimitLengths clamps a code-length vector so no entry exceeds maxLen,
// restoring the Kraft inequality by lengthening the shortest (most
// frequent) codes one bit at a time. DEFLATE's own alphabets
// are small and shallow enough in practice that the natural tree depth
// rarely exceeds MaxCodeLength, but pathological frequency distributions
// (a single rare symbol isolated at the far end of a heavily skewed
// tree) can still produce it, so this is not skipped.
func LimitLengths(lengths []int, maxLen int) {
	overflow := false
	for _, l := range lengths {
		if l > maxLen {
			overflow = true
			break
		}
	}
	if !overflow {
		return
	}
	// Kraft-McMillan repair: clamp overlong codes to maxLen, then
	// rebalance by incrementing some of the shorter codes until the
	// inequality sum(2^-len) <= 1 holds again.
	for i, l := range lengths {
		if l > maxLen {
			lengths[i] = maxLen
		}
	}
	for {
		var sum int64
		const one = int64(1) << 15
		for _, l := range lengths {
			if l == 0 {
				continue
			}
			sum += one >> uint(l)
		}
		if sum <= one {
			return
		}
		// Find the shortest non-zero code and lengthen it by one bit;
		// this trades one long-code slot for room under the limit.
		best := -1
		for i, l := range lengths {
			if l == 0 {
				continue
			}
			if l < maxLen && (best == -1 || l < lengths[best]) {
				best = i
			}
		}
		if best == -1 {
			return
		}
		lengths[best]++
	}
}

// AssignCodes implements RFC 1951 §3.2.2's canonical code assignment:
// shorter codes sort before longer codes, and within a length codes are
// assigned in increasing symbol order. Returns the MSB-first code for
// each symbol (0 for symbols with length 0).
func AssignCodes(lengths []int, maxLen int) []uint32 {
	blCount := make([]int, maxLen+1)
	for _, l := range lengths {
		if l > 0 {
			blCount[l]++
		}
	}
	nextCode := make([]uint32, maxLen+1)
	var code uint32
	for bits := 1; bits <= maxLen; bits++ {
		code = (code + uint32(blCount[bits-1])) << 1
		nextCode[bits] = code
	}
	codes := make([]uint32, len(lengths))
	for sym, l := range lengths {
		if l == 0 {
			continue
		}
		codes[sym] = nextCode[l]
		nextCode[l]++
	}
	return codes
}
