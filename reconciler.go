// SPDX-License-Identifier: GPL-3.0-or-later

package abxclient

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

// ErrPhaseOrder indicates that a [*Reconciler] phase was invoked out of order.
var ErrPhaseOrder = errors.New("abxclient: reconciler phase out of order")

// Phase is a stage of reconciliation.
//
// Phases advance strictly in declaration order and are never revisited.
type Phase int

const (
	// PhaseIdle is the state before Collect.
	PhaseIdle Phase = iota

	// PhaseCollecting is entered by Collect.
	PhaseCollecting

	// PhaseGapComputation is entered by Gaps.
	PhaseGapComputation

	// PhaseBackfilling is entered by Backfill.
	PhaseBackfilling

	// PhaseDone is entered when Backfill returns.
	PhaseDone
)

// String implements [fmt.Stringer].
func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseCollecting:
		return "collecting"
	case PhaseGapComputation:
		return "gapComputation"
	case PhaseBackfilling:
		return "backfilling"
	case PhaseDone:
		return "done"
	default:
		return fmt.Sprintf("Phase(%d)", int(p))
	}
}

// Mismatch records a resend whose response carried a sequence number
// other than the requested one. The record was stored under Received.
type Mismatch struct {
	Requested int32
	Received  int32
}

// BackfillReport summarizes the Backfilling phase.
type BackfillReport struct {
	// Requested lists every sequence a resend was attempted for.
	Requested []int32

	// Recovered lists the sequences under which resent records were stored.
	Recovered []int32

	// Failed lists the requested sequences that were not answered with
	// a record carrying that same sequence.
	Failed []int32

	// Mismatches lists the resends answered with another sequence.
	Mismatches []Mismatch
}

// Reconciler owns the [*Collection] and drives the three phases.
//
// Use [Run] to execute all phases, or call Collect, Gaps, and Backfill
// in this order. A Reconciler is single use and not safe for concurrent use.
type Reconciler struct {
	// Dial opens a new session for each exchange.
	Dial Func[Unit, *SessionConn]

	// Logger receives phase and per-item events.
	Logger SLogger

	collection *Collection
	mismatches []Mismatch
	phase      Phase
}

// NewReconciler returns a [*Reconciler] in [PhaseIdle] with an empty collection.
func NewReconciler(dial Func[Unit, *SessionConn], logger SLogger) *Reconciler {
	return &Reconciler{
		Dial:       dial,
		Logger:     logger,
		collection: NewCollection(),
		phase:      PhaseIdle,
	}
}

// Phase returns the current phase.
func (r *Reconciler) Phase() Phase {
	return r.phase
}

// Collection returns the record collection.
//
// Callers must not modify it before the reconciler reaches [PhaseDone].
func (r *Reconciler) Collection() *Collection {
	return r.collection
}

// Mismatches returns the resend mismatches recorded so far.
func (r *Reconciler) Mismatches() []Mismatch {
	return r.mismatches
}

func (r *Reconciler) enter(from, to Phase) error {
	if r.phase != from {
		return fmt.Errorf("%w: cannot enter %s from %s", ErrPhaseOrder, to, r.phase)
	}
	r.phase = to
	return nil
}

// Collect runs the Collecting phase: one stream-all session whose
// records are all stored, overwriting duplicates.
//
// Failing to open the session is fatal and returned. Anything that goes
// wrong after the request is sent only ends the phase early.
func (r *Reconciler) Collect(ctx context.Context) (*StreamResult, error) {
	if err := r.enter(PhaseIdle, PhaseCollecting); err != nil {
		return nil, err
	}

	sess, err := r.Dial.Call(ctx, Unit{})
	if err != nil {
		return nil, fmt.Errorf("abxclient: cannot open initial session: %w", err)
	}
	defer sess.Close()

	result, err := sess.StreamAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("abxclient: cannot send stream request: %w", err)
	}
	for _, rec := range result.Records {
		r.collection.Put(rec)
	}

	r.Logger.Info(
		"collectDone",
		slog.Int("recordsCount", r.collection.Len()),
		slog.String("endReason", result.Reason.String()),
		slog.Any("err", result.Err),
	)
	return result, nil
}

// Gaps runs the Gap Computation phase and returns the missing sequences.
func (r *Reconciler) Gaps() ([]int32, error) {
	if err := r.enter(PhaseCollecting, PhaseGapComputation); err != nil {
		return nil, err
	}
	missing := MissingSequences(r.collection)
	r.Logger.Info(
		"gapsComputed",
		slog.Int("maxSequence", int(r.collection.Max())),
		slog.Int("missingCount", len(missing)),
	)
	return missing, nil
}

// Backfill runs the Backfilling phase: one resend session per missing
// sequence, in ascending order, each attempted exactly once.
//
// Individual failures are logged and skipped; the sequence stays missing.
func (r *Reconciler) Backfill(ctx context.Context, missing []int32) (*BackfillReport, error) {
	if err := r.enter(PhaseGapComputation, PhaseBackfilling); err != nil {
		return nil, err
	}
	report := r.backfill(ctx, missing)
	r.phase = PhaseDone
	r.Logger.Info(
		"backfillDone",
		slog.Int("requestedCount", len(report.Requested)),
		slog.Int("recoveredCount", len(report.Recovered)),
		slog.Int("failedCount", len(report.Failed)),
		slog.Int("mismatchCount", len(report.Mismatches)),
		slog.Int("recordsCount", r.collection.Len()),
	)
	return report, nil
}

func (r *Reconciler) backfill(ctx context.Context, missing []int32) *BackfillReport {
	report := &BackfillReport{}
	for _, seq := range missing {
		report.Requested = append(report.Requested, seq)
		rec, err := r.resendOne(ctx, seq)
		if err != nil {
			r.Logger.Info("resendFailed", slog.Int("requestedSequence", int(seq)), slog.Any("err", err))
			report.Failed = append(report.Failed, seq)
			continue
		}
		if rec.Sequence != seq {
			m := Mismatch{Requested: seq, Received: rec.Sequence}
			r.Logger.Warn(
				"resendSequenceMismatch",
				slog.Int("requestedSequence", int(seq)),
				slog.Int("packetSequence", int(rec.Sequence)),
			)
			r.mismatches = append(r.mismatches, m)
			report.Mismatches = append(report.Mismatches, m)
			report.Failed = append(report.Failed, seq)
		}
		r.collection.Put(rec)
		report.Recovered = append(report.Recovered, rec.Sequence)
	}
	return report
}

// resendOne performs a single resend exchange on its own connection.
func (r *Reconciler) resendOne(ctx context.Context, seq int32) (Record, error) {
	sess, err := r.Dial.Call(ctx, Unit{})
	if err != nil {
		return Record{}, err
	}
	defer sess.Close()
	return sess.Resend(ctx, seq)
}
