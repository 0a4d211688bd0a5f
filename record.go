// SPDX-License-Identifier: GPL-3.0-or-later

package abxclient

import (
	"encoding/binary"
	"strings"
)

// FrameSize is the size in bytes of one record on the wire.
//
// Layout: symbol[0:4], side[4], quantity[5:9], price[9:13], sequence[13:17].
// Integers are big-endian two's complement.
const FrameSize = 17

// symbolSize is the fixed width of the symbol field.
const symbolSize = 4

// Side is the buy/sell indicator of a [Record].
//
// The server only sends [SideBuy] and [SideSell]. Other byte values are
// kept verbatim so that the output reflects what was on the wire.
type Side byte

const (
	// SideBuy is the 'B' indicator.
	SideBuy Side = 'B'

	// SideSell is the 'S' indicator.
	SideSell Side = 'S'
)

// Valid returns whether s is one of the two known indicators.
func (s Side) Valid() bool {
	return s == SideBuy || s == SideSell
}

// String returns the indicator as a single character. Bytes above
// 0x7f map to the Latin-1 code point of the same value so that the
// rendering stays valid UTF-8 and keeps the raw byte recoverable.
func (s Side) String() string {
	return string(rune(s))
}

// Record is one decoded market-data frame.
type Record struct {
	// Symbol is the raw fixed-width symbol, possibly padded with
	// trailing spaces or NUL bytes. See [Record.SymbolString].
	Symbol [symbolSize]byte

	// Side is the buy/sell indicator.
	Side Side

	// Quantity is the number of shares.
	Quantity int32

	// Price is the price level.
	Price int32

	// Sequence is the packet sequence number, the unique key.
	Sequence int32
}

// NewRecord builds a [Record] padding symbol with spaces to four bytes.
//
// Symbols longer than four bytes are truncated.
func NewRecord(symbol string, side Side, quantity, price, sequence int32) Record {
	r := Record{Side: side, Quantity: quantity, Price: price, Sequence: sequence}
	for i := range r.Symbol {
		r.Symbol[i] = ' '
	}
	copy(r.Symbol[:], symbol)
	return r
}

// SymbolString returns the symbol with trailing spaces and NULs stripped.
func (r Record) SymbolString() string {
	return strings.TrimRight(string(r.Symbol[:]), " \x00")
}

// DecodeRecord decodes the [FrameSize] bytes of buf starting at offset.
//
// The caller must ensure that buf[offset:] holds at least [FrameSize]
// bytes; there is no bounds check beyond the one the runtime performs.
func DecodeRecord(buf []byte, offset int) Record {
	frame := buf[offset : offset+FrameSize]
	var r Record
	copy(r.Symbol[:], frame[0:4])
	r.Side = Side(frame[4])
	r.Quantity = int32(binary.BigEndian.Uint32(frame[5:9]))
	r.Price = int32(binary.BigEndian.Uint32(frame[9:13]))
	r.Sequence = int32(binary.BigEndian.Uint32(frame[13:17]))
	return r
}

// AppendRecord appends the wire encoding of r to dst.
func AppendRecord(dst []byte, r Record) []byte {
	dst = append(dst, r.Symbol[:]...)
	dst = append(dst, byte(r.Side))
	dst = binary.BigEndian.AppendUint32(dst, uint32(r.Quantity))
	dst = binary.BigEndian.AppendUint32(dst, uint32(r.Price))
	return binary.BigEndian.AppendUint32(dst, uint32(r.Sequence))
}

// EncodeRecord returns the [FrameSize]-byte wire encoding of r.
func EncodeRecord(r Record) []byte {
	return AppendRecord(make([]byte, 0, FrameSize), r)
}
