// SPDX-License-Identifier: GPL-3.0-or-later

package abxclient

import (
	"log/slog"
	"time"
)

// exchangeLogContext holds common logging state for request/response
// exchanges over an already established connection.
//
// It is shared by the ABX session operations (streamAll, resend) and by
// the DNS lookups performed when resolving the server address.
type exchangeLogContext struct {
	// ErrClassifier classifies errors for structured logging.
	ErrClassifier ErrClassifier

	// LocalAddr is the local address of the connection.
	LocalAddr string

	// Logger is the SLogger to use.
	Logger SLogger

	// Protocol is the network protocol (e.g., "tcp", "udp").
	Protocol string

	// RemoteAddr is the remote address of the connection.
	RemoteAddr string

	// ServerProtocol is the application protocol (e.g., "abx", "udp", "tcp").
	ServerProtocol string

	// TimeNow is the function to get the current time.
	TimeNow func() time.Time
}

func (lc *exchangeLogContext) attrs(extra ...any) []any {
	out := []any{
		slog.String("localAddr", lc.LocalAddr),
		slog.String("protocol", lc.Protocol),
		slog.String("remoteAddr", lc.RemoteAddr),
		slog.String("serverProtocol", lc.ServerProtocol),
	}
	return append(out, extra...)
}

// logStart logs the <operation>Start event.
func (lc *exchangeLogContext) logStart(operation string, t0, deadline time.Time, extra ...any) {
	extra = append(extra, slog.Time("deadline", deadline), slog.Time("t", t0))
	lc.Logger.Info(operation+"Start", lc.attrs(extra...)...)
}

// logDone logs the <operation>Done event.
func (lc *exchangeLogContext) logDone(operation string, t0, deadline time.Time, err error, extra ...any) {
	extra = append(extra,
		slog.Time("deadline", deadline),
		slog.Any("err", err),
		slog.String("errClass", lc.ErrClassifier.Classify(err)),
		slog.Time("t0", t0),
		slog.Time("t", lc.TimeNow()),
	)
	lc.Logger.Info(operation+"Done", lc.attrs(extra...)...)
}

// logRecord logs a record observed on the wire.
func (lc *exchangeLogContext) logRecord(t0 time.Time, r Record) {
	lc.Logger.Debug("recordReceived", lc.attrs(
		slog.Int("packetSequence", int(r.Sequence)),
		slog.String("symbol", r.SymbolString()),
		slog.String("side", r.Side.String()),
		slog.Int("quantity", int(r.Quantity)),
		slog.Int("price", int(r.Price)),
		slog.Time("t0", t0),
		slog.Time("t", lc.TimeNow()),
	)...)
}

// makeQueryObserver returns an observer function for raw DNS queries.
//
// The rqr pointer captures the raw query for correlation with the response.
func (lc *exchangeLogContext) makeQueryObserver(t0 time.Time, rqr *[]byte) func([]byte) {
	return func(rawQuery []byte) {
		lc.Logger.Info("dnsQuery", lc.attrs(
			slog.Any("dnsRawQuery", rawQuery),
			slog.Time("t", t0),
		)...)
		*rqr = rawQuery
	}
}

// makeResponseObserver returns an observer function for raw DNS responses.
func (lc *exchangeLogContext) makeResponseObserver(t0 time.Time, rqr *[]byte) func([]byte) {
	return func(rawResp []byte) {
		lc.Logger.Info("dnsResponse", lc.attrs(
			slog.Any("dnsRawQuery", *rqr),
			slog.Any("dnsRawResponse", rawResp),
			slog.Time("t0", t0),
			slog.Time("t", lc.TimeNow()),
		)...)
	}
}
