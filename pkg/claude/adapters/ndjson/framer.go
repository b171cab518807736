// Package ndjson decodes newline-delimited JSON from arbitrarily split
// byte chunks.
package ndjson

import (
	"bytes"
	"encoding/json"
)

// Framer accumulates chunks and emits one decoded value per complete line.
// Blank lines are skipped. Lines that are not a single JSON value go to
// the non-JSON callback, if any. A Framer is not safe for concurrent use.
type Framer struct {
	buf       []byte
	onMessage func(json.RawMessage)
	onNonJSON func(string)
}

// NewFramer creates a framer. onNonJSON may be nil.
func NewFramer(onMessage func(json.RawMessage), onNonJSON func(string)) *Framer {
	return &Framer{onMessage: onMessage, onNonJSON: onNonJSON}
}

// Process appends chunk and decodes every complete line it finishes.
func (f *Framer) Process(chunk []byte) {
	f.buf = append(f.buf, chunk...)

	for {
		idx := bytes.IndexByte(f.buf, '\n')
		if idx < 0 {
			break
		}
		line := f.buf[:idx]
		f.buf = f.buf[idx+1:]
		f.decode(line)
	}

	if len(f.buf) == 0 {
		f.buf = nil
	}
}

// Flush decodes any trailing partial line and clears the buffer.
func (f *Framer) Flush() {
	line := f.buf
	f.buf = nil
	f.decode(line)
}

// Reset discards buffered bytes without decoding them.
func (f *Framer) Reset() {
	f.buf = nil
}

// Buffered returns the number of bytes held for an incomplete line.
func (f *Framer) Buffered() int {
	return len(f.buf)
}

func (f *Framer) decode(line []byte) {
	trimmed := bytes.TrimSpace(line)
	if len(trimmed) == 0 {
		return
	}

	var msg json.RawMessage
	if err := json.Unmarshal(trimmed, &msg); err != nil {
		if f.onNonJSON != nil {
			f.onNonJSON(string(trimmed))
		}

		return
	}

	f.onMessage(msg)
}
