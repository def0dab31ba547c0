// Copyright 2021 Cosmos Nicolaou. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package deflate

// Kind is the subset of the gzflate error taxonomy that can originate
// inside the DEFLATE codec itself, as opposed to the surrounding gzip
// container (header/trailer) handling.
type Kind int

const (
	UnsupportedBlockType Kind = iota
	TruncatedStream
	InvalidHuffmanCode
	InvalidReference
	EncodeBug
)

// Error is returned by block encode/decode operations; the gzflate
// package maps it onto its own richer *gzflate.Error taxonomy at the
// container boundary.
type Error struct {
	Kind   Kind
	Detail string
	Err    error
}

func (e *Error) Error() string {
	if e.Detail != "" {
		return e.Detail
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return "deflate error"
}

func (e *Error) Unwrap() error { return e.Err }
