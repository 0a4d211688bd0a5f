//
// SPDX-License-Identifier: GPL-3.0-or-later
//
// Adapted from: https://github.com/ooni/probe-cli/blob/v3.20.1/internal/measurexlite/conn.go
// Adapted from: https://github.com/rbmk-project/rbmk/blob/v0.17.0/pkg/x/netcore/conn.go
//

package abxclient

import (
	"context"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/bassosimone/safeconn"
)

// NewObserveConnFunc returns a new [*ObserveConnFunc].
func NewObserveConnFunc(cfg *Config, logger SLogger) *ObserveConnFunc {
	return &ObserveConnFunc{
		ErrClassifier: cfg.ErrClassifier,
		Logger:        logger,
		TimeNow:       cfg.TimeNow,
	}
}

// ObserveConnFunc wraps a [net.Conn] so that close is logged at Info and
// every read, write, and deadline change is logged at Debug.
//
// The per-read deadlines set by [*SessionConn] show up as setReadDeadline
// events, which makes receive timeouts easy to spot in the logs.
type ObserveConnFunc struct {
	// ErrClassifier classifies errors for structured logging.
	ErrClassifier ErrClassifier

	// Logger is the [SLogger] to use.
	Logger SLogger

	// TimeNow is the function to get the current time.
	TimeNow func() time.Time
}

var _ Func[net.Conn, net.Conn] = &ObserveConnFunc{}

// Call implements [Func].
func (op *ObserveConnFunc) Call(ctx context.Context, conn net.Conn) (net.Conn, error) {
	return &observedConn{
		conn: conn,
		op:   op,
		endpoints: []any{
			slog.String("localAddr", safeconn.LocalAddr(conn)),
			slog.String("protocol", safeconn.Network(conn)),
			slog.String("remoteAddr", safeconn.RemoteAddr(conn)),
		},
	}, nil
}

type observedConn struct {
	closeonce sync.Once
	conn      net.Conn
	endpoints []any
	op        *ObserveConnFunc
}

// attrs returns the endpoint attributes followed by extra.
func (c *observedConn) attrs(extra ...any) []any {
	out := make([]any, 0, len(c.endpoints)+len(extra))
	out = append(out, c.endpoints...)
	return append(out, extra...)
}

// Close implements [net.Conn].
//
// Subsequent calls return [net.ErrClosed].
func (c *observedConn) Close() error {
	err := net.ErrClosed
	c.closeonce.Do(func() {
		t0 := c.op.TimeNow()
		c.op.Logger.Info("closeStart", c.attrs(slog.Time("t", t0))...)
		err = c.conn.Close()
		c.op.Logger.Info("closeDone", c.attrs(
			slog.Any("err", err),
			slog.String("errClass", c.op.ErrClassifier.Classify(err)),
			slog.Time("t0", t0),
			slog.Time("t", c.op.TimeNow()),
		)...)
	})
	return err
}

// Read implements [net.Conn].
func (c *observedConn) Read(buf []byte) (int, error) {
	return c.observeIO("read", len(buf), c.conn.Read, buf)
}

// Write implements [net.Conn].
func (c *observedConn) Write(data []byte) (int, error) {
	return c.observeIO("write", len(data), c.conn.Write, data)
}

func (c *observedConn) observeIO(name string, size int, fn func([]byte) (int, error), buf []byte) (int, error) {
	t0 := c.op.TimeNow()
	c.op.Logger.Debug(name+"Start", c.attrs(
		slog.Int("ioBufferSize", size),
		slog.Time("t", t0),
	)...)

	count, err := fn(buf)

	c.op.Logger.Debug(name+"Done", c.attrs(
		slog.Int("ioBytesCount", count),
		slog.Any("err", err),
		slog.String("errClass", c.op.ErrClassifier.Classify(err)),
		slog.Time("t0", t0),
		slog.Time("t", c.op.TimeNow()),
	)...)
	return count, err
}

// LocalAddr implements [net.Conn].
func (c *observedConn) LocalAddr() net.Addr {
	return c.conn.LocalAddr()
}

// RemoteAddr implements [net.Conn].
func (c *observedConn) RemoteAddr() net.Addr {
	return c.conn.RemoteAddr()
}

// SetDeadline implements [net.Conn].
func (c *observedConn) SetDeadline(t time.Time) error {
	c.logDeadline("setDeadline", t)
	return c.conn.SetDeadline(t)
}

// SetReadDeadline implements [net.Conn].
func (c *observedConn) SetReadDeadline(t time.Time) error {
	c.logDeadline("setReadDeadline", t)
	return c.conn.SetReadDeadline(t)
}

// SetWriteDeadline implements [net.Conn].
func (c *observedConn) SetWriteDeadline(t time.Time) error {
	c.logDeadline("setWriteDeadline", t)
	return c.conn.SetWriteDeadline(t)
}

func (c *observedConn) logDeadline(name string, t time.Time) {
	c.op.Logger.Debug(name, c.attrs(
		slog.Time("deadline", t),
		slog.Time("t", c.op.TimeNow()),
	)...)
}
