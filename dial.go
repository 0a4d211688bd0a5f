// SPDX-License-Identifier: GPL-3.0-or-later

package abxclient

import (
	"context"
	"log/slog"
	"net/netip"
)

// NewSessionDialFunc returns a new [*SessionDialFunc].
//
// A nil logger discards all events.
func NewSessionDialFunc(cfg *Config, endpoint netip.AddrPort, logger *slog.Logger) *SessionDialFunc {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &SessionDialFunc{Config: cfg, Endpoint: endpoint, Logger: logger}
}

// SessionDialFunc opens a brand-new [*SessionConn] on every call.
//
// Each call is a separate span: the pipeline logger is tagged with a
// fresh spanID before dialing. The pipeline is
//
//	endpoint -> connect -> observe -> cancel watch -> session
//
// so the returned session closes itself when the context is done.
type SessionDialFunc struct {
	// Config provides the dialer, timeouts, and error classifier.
	Config *Config

	// Endpoint is the ABX server address.
	Endpoint netip.AddrPort

	// Logger is the base logger; each span derives from it.
	Logger *slog.Logger
}

var _ Func[Unit, *SessionConn] = &SessionDialFunc{}

// Call dials the ABX server and returns a ready [*SessionConn].
func (op *SessionDialFunc) Call(ctx context.Context, _ Unit) (*SessionConn, error) {
	logger := op.Logger.With(slog.String("spanID", NewSpanID()))
	pipeline := Compose5(
		NewEndpointFunc(op.Endpoint),
		NewConnectFunc(op.Config, "tcp", logger),
		NewObserveConnFunc(op.Config, logger),
		NewCancelWatchFunc(),
		NewSessionConnFunc(op.Config, logger),
	)
	return pipeline.Call(ctx, Unit{})
}
