// Copyright 2021 Cosmos Nicolaou. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package deflate

import "testing"

func reconstruct(tokens []Token) []byte {
	var out []byte
	for _, t := range tokens {
		if t.Kind == LiteralToken {
			out = append(out, t.Literal)
			continue
		}
		start := len(out) - t.Distance
		for i := 0; i < t.Length; i++ {
			out = append(out, out[start+i])
		}
	}
	return out
}

func tokenizeAll(data []byte) []Token {
	m := NewMatcher(data)
	var tokens []Token
	for {
		tok, done := m.Next()
		if done {
			break
		}
		tokens = append(tokens, tok)
	}
	return tokens
}

func TestMatcherRoundTrip(t *testing.T) {
	cases := [][]byte{
		[]byte(""),
		[]byte("a"),
		[]byte("aaaaaaaaaaaaaaaaaaaa"),
		[]byte("abcabcabcabcabcabcabc"),
		[]byte("the quick brown fox jumps over the lazy dog, the quick brown fox"),
	}
	for _, data := range cases {
		tokens := tokenizeAll(data)
		got := reconstruct(tokens)
		if string(got) != string(data) {
			t.Errorf("reconstruct(tokenize(%q)) = %q", data, got)
		}
	}
}

func TestMatcherFindsRepeatedRun(t *testing.T) {
	data := []byte("abcabcabcabc")
	tokens := tokenizeAll(data)
	found := false
	for _, tok := range tokens {
		if tok.Kind == MatchToken && tok.Distance == 3 {
			found = true
		}
	}
	if !found {
		t.Errorf("expected a distance-3 match in tokens for %q, got %+v", data, tokens)
	}
}

func TestMatcherRejectsDistanceBeyondWindow(t *testing.T) {
	// Two identical 3-byte sequences separated by more than WindowSize
	// must not be linked by a match.
	gap := make([]byte, WindowSize+10)
	for i := range gap {
		gap[i] = byte('x')
	}
	data := append([]byte("xyz"), gap...)
	data = append(data, []byte("xyz")...)
	tokens := tokenizeAll(data)
	got := reconstruct(tokens)
	if string(got) != string(data) {
		t.Fatalf("round trip failed for window-boundary input")
	}
	for _, tok := range tokens {
		if tok.Kind == MatchToken && tok.Distance > WindowSize {
			t.Errorf("match distance %d exceeds WindowSize %d", tok.Distance, WindowSize)
		}
	}
}
