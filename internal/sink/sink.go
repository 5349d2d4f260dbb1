// SPDX-License-Identifier: MIT

// Package sink provides destinations for anonymized output. The CSV byte
// sinks implement Target: a writable stream with commit/abort semantics so a
// failed run never leaves a half-written output file behind. The PostGIS
// sink is a separate row loader fed alongside the CSV stream.
package sink

import "io"

// Target is a destination for the anonymized CSV byte stream. Output becomes
// visible only on Commit; Abort discards whatever was written. Abort after
// Commit is a no-op, so callers can defer it unconditionally.
type Target interface {
	io.Writer

	Commit() error
	Abort()
}

// Stream adapts a plain writer (stdout, an HTTP response) to the Target
// interface. Bytes pass straight through; Commit and Abort do nothing
// because a stream cannot be unpublished.
type Stream struct {
	w io.Writer
}

// NewStream wraps w as a pass-through Target.
func NewStream(w io.Writer) *Stream {
	return &Stream{w: w}
}

func (s *Stream) Write(p []byte) (int, error) { return s.w.Write(p) }

func (s *Stream) Commit() error { return nil }

func (s *Stream) Abort() {}
