// SPDX-License-Identifier: GPL-3.0-or-later

package abxclient

import (
	"context"
	"fmt"
	"net"
	"net/netip"
	"time"

	"github.com/bassosimone/dnscodec"
	"github.com/bassosimone/dnsoverstream"
	"github.com/bassosimone/minest"
	"github.com/bassosimone/safeconn"
)

// DNSConn performs DNS exchanges over an owned connection.
//
// The caller is responsible for calling Close() when done.
//
// Construct via [*DNSConnFunc].
type DNSConn struct {
	// conn is the owned connection.
	conn net.Conn

	// ErrClassifier classifies errors for structured logging.
	ErrClassifier ErrClassifier

	// Logger is the SLogger to use.
	Logger SLogger

	// Protocol is either "udp" or "tcp".
	Protocol string

	// TimeNow is the function to get the current time.
	TimeNow func() time.Time
}

// Close closes the underlying connection.
func (c *DNSConn) Close() error {
	return c.conn.Close()
}

// Conn returns the underlying net.Conn.
func (c *DNSConn) Conn() net.Conn {
	return c.conn
}

// Exchange sends query and returns the response.
func (c *DNSConn) Exchange(ctx context.Context, query *dnscodec.Query) (*dnscodec.Response, error) {
	t0 := c.TimeNow()
	deadline, _ := ctx.Deadline()
	var rqr []byte
	lc := &exchangeLogContext{
		ErrClassifier:  c.ErrClassifier,
		LocalAddr:      safeconn.LocalAddr(c.conn),
		Logger:         c.Logger,
		Protocol:       safeconn.Network(c.conn),
		RemoteAddr:     safeconn.RemoteAddr(c.conn),
		ServerProtocol: c.Protocol,
		TimeNow:        c.TimeNow,
	}

	lc.logStart("dnsExchange", t0, deadline)
	resp, err := c.exchange(ctx, lc, t0, &rqr, query)
	lc.logDone("dnsExchange", t0, deadline, err)
	return resp, err
}

func (c *DNSConn) exchange(ctx context.Context,
	lc *exchangeLogContext, t0 time.Time, rqr *[]byte, query *dnscodec.Query) (*dnscodec.Response, error) {
	// The transports are given a dialer that panics: we have a connection already.
	unspec := netip.AddrPortFrom(netip.IPv4Unspecified(), 0)
	switch c.Protocol {
	case "udp":
		txp := minest.NewDNSOverUDPTransport(dnsUnusedDialer{}, unspec)
		txp.ObserveRawQuery = lc.makeQueryObserver(t0, rqr)
		txp.ObserveRawResponse = lc.makeResponseObserver(t0, rqr)
		return txp.ExchangeWithConn(ctx, c.conn, query)

	case "tcp":
		txp := dnsoverstream.NewTransport(dnsoverstream.NewStreamOpenerDialerTCP(dnsUnusedDialer{}), unspec)
		txp.ObserveRawQuery = lc.makeQueryObserver(t0, rqr)
		txp.ObserveRawResponse = lc.makeResponseObserver(t0, rqr)
		return txp.ExchangeWithStreamOpener(ctx, dnsoverstream.NewTCPStreamOpener(c.conn), query)

	default:
		return nil, fmt.Errorf("abxclient: unsupported DNS protocol %q", c.Protocol)
	}
}

// DNSConnFunc wraps a net.Conn into a [*DNSConn].
//
// Fields must not be mutated concurrently with calls to [Call].
type DNSConnFunc struct {
	// ErrClassifier classifies errors for structured logging.
	//
	// Set by [NewDNSConnFunc] from [Config.ErrClassifier].
	ErrClassifier ErrClassifier

	// Logger is the [SLogger] to use.
	//
	// Set by [NewDNSConnFunc] to the user-provided logger.
	Logger SLogger

	// Protocol is either "udp" or "tcp".
	//
	// Set by [NewDNSConnFunc] from [Config.DNSProtocol].
	Protocol string

	// TimeNow is the function to get the current time.
	//
	// Set by [NewDNSConnFunc] from [Config.TimeNow].
	TimeNow func() time.Time
}

// NewDNSConnFunc returns a new [*DNSConnFunc].
func NewDNSConnFunc(cfg *Config, logger SLogger) *DNSConnFunc {
	return &DNSConnFunc{
		ErrClassifier: cfg.ErrClassifier,
		Logger:        logger,
		Protocol:      cfg.DNSProtocol,
		TimeNow:       cfg.TimeNow,
	}
}

var _ Func[net.Conn, *DNSConn] = &DNSConnFunc{}

// Call wraps the net.Conn into a DNSConn.
func (op *DNSConnFunc) Call(ctx context.Context, conn net.Conn) (*DNSConn, error) {
	return &DNSConn{
		conn:          conn,
		ErrClassifier: op.ErrClassifier,
		Logger:        op.Logger,
		Protocol:      op.Protocol,
		TimeNow:       op.TimeNow,
	}, nil
}
