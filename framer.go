// SPDX-License-Identifier: GPL-3.0-or-later

package abxclient

// FrameReader turns an arbitrarily chunked byte stream into records.
//
// Bytes that do not yet form a whole frame stay buffered until the
// next [FrameReader.Push]. The zero value is ready to use.
//
// A FrameReader does no I/O; [*SessionConn] pushes into it whatever
// it reads from the connection.
type FrameReader struct {
	buf []byte
}

// NewFrameReader returns an empty [*FrameReader].
func NewFrameReader() *FrameReader {
	return &FrameReader{}
}

// Push appends chunk to the buffer and returns every record that is
// now complete, in stream order.
func (fr *FrameReader) Push(chunk []byte) []Record {
	fr.buf = append(fr.buf, chunk...)
	var (
		records []Record
		off     int
	)
	for len(fr.buf)-off >= FrameSize {
		records = append(records, DecodeRecord(fr.buf, off))
		off += FrameSize
	}
	if off > 0 {
		n := copy(fr.buf, fr.buf[off:])
		fr.buf = fr.buf[:n]
	}
	return records
}

// Buffered returns the number of bytes of the trailing partial frame.
func (fr *FrameReader) Buffered() int {
	return len(fr.buf)
}

// Discard drops the trailing partial frame, if any, and returns how
// many bytes were dropped. An incomplete frame at end of stream is
// lost data, not an error.
func (fr *FrameReader) Discard() int {
	n := len(fr.buf)
	fr.buf = fr.buf[:0]
	return n
}
