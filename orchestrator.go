// SPDX-License-Identifier: GPL-3.0-or-later

package abxclient

import (
	"context"
	"fmt"
	"log/slog"
)

// Emitter receives the final records in ascending sequence order.
//
// See [*JSONEmitter] and [*FileEmitter].
type Emitter interface {
	Emit(ctx context.Context, records []Record) error
}

// EmitterFunc adapts a function to the [Emitter] interface.
type EmitterFunc func(ctx context.Context, records []Record) error

var _ Emitter = EmitterFunc(nil)

// Emit implements [Emitter].
func (f EmitterFunc) Emit(ctx context.Context, records []Record) error {
	return f(ctx, records)
}

// RunResult describes a completed reconciliation.
type RunResult struct {
	// Stream is the outcome of the Collecting phase.
	Stream *StreamResult

	// Missing is the set computed after Collecting.
	Missing []int32

	// Backfill is the outcome of the Backfilling phase.
	Backfill *BackfillReport

	// Records are the records handed to the [Emitter].
	Records []Record
}

// Run executes Collecting, Gap Computation, and Backfilling on r and
// then hands the collection, in ascending order, to emitter.
//
// A failure to open the initial session, a cancelled ctx, or a failure
// to emit is returned as an error. When ctx is done nothing is emitted.
// The emitted records may still have gaps when resends fail.
func Run(ctx context.Context, r *Reconciler, emitter Emitter) (*RunResult, error) {
	stream, err := r.Collect(ctx)
	if err != nil {
		return nil, err
	}

	missing, err := r.Gaps()
	if err != nil {
		return nil, err
	}

	report, err := r.Backfill(ctx, missing)
	if err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		r.Logger.Info("runInterrupted", slog.Any("err", err))
		return nil, fmt.Errorf("abxclient: reconciliation interrupted: %w", err)
	}

	records := r.Collection().Records()
	if err := emitter.Emit(ctx, records); err != nil {
		r.Logger.Info("emitDone", slog.Int("recordsCount", len(records)), slog.Any("err", err))
		return nil, fmt.Errorf("abxclient: cannot emit records: %w", err)
	}
	r.Logger.Info("emitDone", slog.Int("recordsCount", len(records)), slog.Any("err", nil))

	return &RunResult{
		Stream:   stream,
		Missing:  missing,
		Backfill: report,
		Records:  records,
	}, nil
}
