package library

import (
	"bytes"
	"encoding/binary"
)

// PayloadWriter builds deterministic signing payloads. Every field is
// written as a little-endian uint64 length followed by its bytes, so no two
// distinct field sequences produce the same output.
type PayloadWriter struct {
	buf bytes.Buffer
}

func NewPayloadWriter(tag string) *PayloadWriter {
	w := &PayloadWriter{}
	w.String(tag)
	return w
}

func (w *PayloadWriter) Bytes(b []byte) *PayloadWriter {
	var l [8]byte
	binary.LittleEndian.PutUint64(l[:], uint64(len(b)))
	w.buf.Write(l[:])
	w.buf.Write(b)
	return w
}

func (w *PayloadWriter) String(s string) *PayloadWriter {
	return w.Bytes([]byte(s))
}

func (w *PayloadWriter) Uint64(n uint64) *PayloadWriter {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], n)
	w.buf.Write(b[:])
	return w
}

func (w *PayloadWriter) Payload() []byte {
	out := make([]byte, w.buf.Len())
	copy(out, w.buf.Bytes())
	return out
}
