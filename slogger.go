//
// SPDX-License-Identifier: GPL-3.0-or-later
//
// Adapted from: https://github.com/ooni/probe-cli/blob/v3.20.1/internal/netxlite/dialer.go
// Adapted from: https://github.com/rbmk-project/rbmk/blob/v0.17.0/pkg/x/netcore/dialer.go
//

package abxclient

// SLogger abstracts the [*slog.Logger] behavior.
//
// This package uses three log levels:
//   - Debug for per-I/O events (read, write, set deadline) and for
//     every record observed on the wire
//   - Info for lifecycle events (connect, close, stream-all, resend,
//     DNS exchange, phase boundaries)
//   - Warn for integrity caveats (mismatched resend sequence, resend
//     sequence outside the single-byte wire range)
//
// The [*slog.Logger] type satisfies this interface.
type SLogger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
}

// DefaultSLogger returns the default [SLogger], which discards everything.
func DefaultSLogger() SLogger {
	return discardSLogger{}
}

type discardSLogger struct{}

var _ SLogger = discardSLogger{}

// Debug implements [SLogger].
func (discardSLogger) Debug(msg string, args ...any) {}

// Info implements [SLogger].
func (discardSLogger) Info(msg string, args ...any) {}

// Warn implements [SLogger].
func (discardSLogger) Warn(msg string, args ...any) {}
