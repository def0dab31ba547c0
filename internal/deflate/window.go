// Copyright 2021 Cosmos Nicolaou. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package deflate

import "io"

// outputWindowSize is the doubled-window size of the decoder's output
// history buffer: one full WindowSize of live history plus one
// WindowSize of slack that fills before the next slide. A slide can
// happen in the middle of CopyMatch; it recomputes its source index
// after every byte, so the copy continues correctly. Matches the reference implementation's BIT_WRITER buffer, which is
// allocated at exactly 2 * WINDOW_SIZE for the same reason.
const outputWindowSize = 2 * WindowSize

// OutputWindow reconstructs decompressed bytes, holding the trailing
// WindowSize of output so that back-references can copy from it. When
// the buffer fills it slides: the first half is flushed to the
// underlying writer and the second half (the live history) is moved
// down to the front, exactly mirroring handleBufferSlide in the
// reference bit-writer.
type OutputWindow struct {
	w       io.Writer
	buf     []byte
	index   int
	flushed int64 // bytes already handed to w by prior slides
}

// NewOutputWindow returns an OutputWindow that flushes completed bytes
// to w.
func NewOutputWindow(w io.Writer) *OutputWindow {
	return &OutputWindow{w: w, buf: make([]byte, outputWindowSize)}
}

// WriteByte appends a single decoded byte, sliding the buffer first if
// it is full.
func (o *OutputWindow) WriteByte(b byte) error {
	if o.index == len(o.buf) {
		if err := o.slide(); err != nil {
			return err
		}
	}
	o.buf[o.index] = b
	o.index++
	return nil
}

// CopyMatch copies length bytes from distance bytes back in the output
// history to the current position, one byte at a time so that
// overlapping copies (distance < length, e.g. a run-length encoded as
// distance=1) reproduce correctly.
func (o *OutputWindow) CopyMatch(distance, length int) error {
	if distance <= 0 || int64(distance) > o.flushed+int64(o.index) {
		return &Error{Kind: InvalidReference}
	}
	for i := 0; i < length; i++ {
		src := o.index - distance
		if src < 0 {
			return &Error{Kind: InvalidReference}
		}
		if err := o.WriteByte(o.buf[src]); err != nil {
			return err
		}
	}
	return nil
}

// slide flushes the first half of the buffer and moves the live half
// (the most recent WindowSize bytes) down to the front.
func (o *OutputWindow) slide() error {
	keep := len(o.buf) / 2
	writeSize := o.index - keep
	if writeSize > 0 {
		if _, err := o.w.Write(o.buf[:writeSize]); err != nil {
			return err
		}
		o.flushed += int64(writeSize)
	}
	copy(o.buf, o.buf[writeSize:writeSize+keep])
	o.index = keep
	return nil
}

// Finish flushes all remaining buffered bytes to the underlying writer.
func (o *OutputWindow) Finish() error {
	if o.index > 0 {
		if _, err := o.w.Write(o.buf[:o.index]); err != nil {
			return err
		}
		o.flushed += int64(o.index)
		o.index = 0
	}
	return nil
}
