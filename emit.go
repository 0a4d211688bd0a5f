// SPDX-License-Identifier: GPL-3.0-or-later

package abxclient

import (
	"bytes"
	"context"
	"io"

	jsoniter "github.com/json-iterator/go"
	"github.com/natefinch/atomic"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// jsonRecord is the output shape of a [Record].
type jsonRecord struct {
	Symbol   string `json:"symbol"`
	Side     string `json:"buysell_indicator"`
	Quantity int32  `json:"quantity"`
	Price    int32  `json:"price"`
	Sequence int32  `json:"packetSequence"`
}

// MarshalRecords renders records as an indented JSON array followed
// by a newline. An empty or nil slice renders as "[]".
func MarshalRecords(records []Record) ([]byte, error) {
	out := make([]jsonRecord, 0, len(records))
	for _, r := range records {
		out = append(out, jsonRecord{
			Symbol:   r.SymbolString(),
			Side:     r.Side.String(),
			Quantity: r.Quantity,
			Price:    r.Price,
			Sequence: r.Sequence,
		})
	}
	data, err := json.MarshalIndent(out, "", "    ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// JSONEmitter writes records as JSON to W.
type JSONEmitter struct {
	W io.Writer
}

var _ Emitter = &JSONEmitter{}

// Emit implements [Emitter].
func (e *JSONEmitter) Emit(ctx context.Context, records []Record) error {
	data, err := MarshalRecords(records)
	if err != nil {
		return err
	}
	_, err = e.W.Write(data)
	return err
}

// FileEmitter writes records as JSON to Path.
//
// The file is replaced atomically, so readers never observe a
// partially written output.
type FileEmitter struct {
	Path string
}

var _ Emitter = &FileEmitter{}

// Emit implements [Emitter].
func (e *FileEmitter) Emit(ctx context.Context, records []Record) error {
	data, err := MarshalRecords(records)
	if err != nil {
		return err
	}
	return atomic.WriteFile(e.Path, bytes.NewReader(data))
}
