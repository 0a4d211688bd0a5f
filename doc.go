// SPDX-License-Identifier: GPL-3.0-or-later

// Package abxclient implements a reconciliation client for the ABX
// exchange market-data protocol.
//
// # Wire Protocol
//
// The server listens on a single TCP endpoint and handles one request
// per connection:
//
//   - stream all: the client sends the single byte 1 and the server
//     streams every record it has, back to back
//   - resend one: the client sends the two bytes {2, seq} and the server
//     answers with exactly one record
//
// A record is a 17-byte frame with no delimiter or length prefix (see
// [FrameSize] and [DecodeRecord]). Frame boundaries are purely positional,
// so [FrameReader] reassembles them from arbitrarily chunked reads.
//
// # Reconciliation
//
// A [*Reconciler] runs three phases, strictly in order:
//
//  1. Collecting: one stream-all session; every record is stored in a
//     [*Collection] keyed by sequence number.
//  2. Gap Computation: every sequence in [1, max] without a record is
//     missing (see [MissingSequences]).
//  3. Backfilling: one resend session per missing sequence, ascending,
//     each attempted once. Failures leave the sequence missing.
//
// [Run] executes the phases and hands the collection, in ascending order,
// to an [Emitter] such as [*FileEmitter].
//
// # Connections
//
// Every exchange uses a brand-new connection produced by [*SessionDialFunc],
// a pipeline of [Func] stages composed with [Compose5]:
//
//	endpoint -> [*ConnectFunc] -> [*ObserveConnFunc] -> [*CancelWatchFunc] -> [*SessionConnFunc]
//
// Each read is bounded by [Config.ReadTimeout]. A timeout while streaming
// ends the Collecting phase normally; a timeout while waiting for a resend
// fails that resend only. The session is closed on every exit path before
// the next one is opened. Nothing runs concurrently.
//
// Use [*ResolveFunc] to turn a configured "host:port" into the endpoint;
// host names are looked up with a DNS A query over UDP or TCP.
//
// # Observability
//
// All operations log through [SLogger] (compatible with [log/slog]). By
// default, logging is disabled. Lifecycle events come in *Start/*Done pairs
// (connectStart, streamAllDone, resendDone, ...) carrying t0, t, err, and
// errClass; per-I/O events and recordReceived are emitted at Debug; a resend
// answered with a different sequence number is reported at Warn as
// resendSequenceMismatch. Each session logger carries its own spanID
// (see [NewSpanID]).
package abxclient
