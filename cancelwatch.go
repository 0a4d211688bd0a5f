// SPDX-License-Identifier: GPL-3.0-or-later

package abxclient

import (
	"context"
	"net"
)

// NewCancelWatchFunc returns a new [*CancelWatchFunc].
func NewCancelWatchFunc() *CancelWatchFunc {
	return &CancelWatchFunc{}
}

// CancelWatchFunc closes the connection as soon as the context is done.
//
// Session reads are bounded by the per-read timeout only, so without this
// stage a ^C during a long backfill would wait for the current read to time
// out. With it, cancelling the context passed to [Run] closes the in-flight
// connection and the blocked read fails immediately.
//
// Closing the returned connection unregisters the watcher, so sessions
// closed normally leave no goroutine behind.
type CancelWatchFunc struct{}

var _ Func[net.Conn, net.Conn] = &CancelWatchFunc{}

// Call implements [Func].
func (op *CancelWatchFunc) Call(ctx context.Context, conn net.Conn) (net.Conn, error) {
	stop := context.AfterFunc(ctx, func() {
		conn.Close()
	})
	return &cancelWatchedConn{Conn: conn, stop: stop}, nil
}

type cancelWatchedConn struct {
	net.Conn
	stop func() bool
}

// Close unregisters the context watcher and closes the underlying connection.
func (c *cancelWatchedConn) Close() error {
	c.stop()
	return c.Conn.Close()
}
