// SPDX-License-Identifier: GPL-3.0-or-later

package abxclient_test

import (
	"fmt"

	"github.com/bassosimone/abxclient"
)

// This example decodes a single 17-byte frame.
func ExampleDecodeRecord() {
	frame := []byte{
		'M', 'S', 'F', 'T',     // symbol
		'B',                    // side
		0x00, 0x00, 0x00, 0x32, // quantity
		0x00, 0x00, 0x00, 0x64, // price
		0x00, 0x00, 0x00, 0x01, // sequence
	}
	r := abxclient.DecodeRecord(frame, 0)
	fmt.Println(r.SymbolString(), r.Side, r.Quantity, r.Price, r.Sequence)

	// Output:
	// MSFT B 50 100 1
}

// This example reassembles records from a stream split mid-frame.
func ExampleFrameReader() {
	wire := abxclient.EncodeRecord(abxclient.NewRecord("AAPL", abxclient.SideSell, 7, 150, 3))
	fr := abxclient.NewFrameReader()

	fmt.Println(len(fr.Push(wire[:10])), fr.Buffered())
	records := fr.Push(wire[10:])
	fmt.Println(len(records), records[0].SymbolString(), records[0].Sequence, fr.Buffered())

	// Output:
	// 0 10
	// 1 AAPL 3 0
}
