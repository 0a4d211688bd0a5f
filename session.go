// SPDX-License-Identifier: GPL-3.0-or-later

package abxclient

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"time"

	"github.com/bassosimone/safeconn"
)

// Request call types understood by the ABX server.
const (
	callStreamAll byte = 1
	callResend    byte = 2
)

// streamChunkSize is the size of each read performed by StreamAll.
const streamChunkSize = 1024

// ErrResendIncomplete indicates that a resend exchange ended before a
// whole frame was received.
var ErrResendIncomplete = errors.New("abxclient: incomplete resend response")

// EndReason tells why [*SessionConn.StreamAll] stopped reading.
type EndReason int

const (
	// EndOfStream means the server closed the connection.
	EndOfStream EndReason = iota

	// EndTimeout means no data arrived within the read timeout.
	EndTimeout

	// EndReadError means a read failed for another reason.
	EndReadError
)

// String implements [fmt.Stringer].
func (r EndReason) String() string {
	switch r {
	case EndOfStream:
		return "eof"
	case EndTimeout:
		return "timeout"
	case EndReadError:
		return "readError"
	default:
		return fmt.Sprintf("EndReason(%d)", int(r))
	}
}

// StreamResult is the outcome of [*SessionConn.StreamAll].
//
// Every termination reason is a normal end of the phase: Records holds
// whatever was decoded before the stream ended.
type StreamResult struct {
	// Records contains the decoded records in stream order.
	Records []Record

	// Reason is why reading stopped.
	Reason EndReason

	// Err is the read error that ended the stream, nil for [EndOfStream].
	Err error

	// Discarded is the size of the trailing partial frame, if any.
	Discarded int
}

// SessionConn wraps a TCP connection to the ABX server.
//
// This type owns the underlying connection. The server handles a single
// request per connection, so callers perform exactly one of StreamAll or
// Resend and then Close.
//
// Construct via [*SessionConnFunc].
type SessionConn struct {
	// conn is the owned TCP connection.
	conn net.Conn

	// ErrClassifier classifies errors for structured logging.
	ErrClassifier ErrClassifier

	// Logger is the SLogger to use.
	Logger SLogger

	// ReadTimeout bounds each individual read.
	ReadTimeout time.Duration

	// TimeNow is the function to get the current time.
	TimeNow func() time.Time
}

// Close closes the underlying connection.
func (c *SessionConn) Close() error {
	return c.conn.Close()
}

// Conn returns the underlying net.Conn.
func (c *SessionConn) Conn() net.Conn {
	return c.conn
}

func (c *SessionConn) newLogContext() *exchangeLogContext {
	return &exchangeLogContext{
		ErrClassifier:  c.ErrClassifier,
		LocalAddr:      safeconn.LocalAddr(c.conn),
		Logger:         c.Logger,
		Protocol:       safeconn.Network(c.conn),
		RemoteAddr:     safeconn.RemoteAddr(c.conn),
		ServerProtocol: "abx",
		TimeNow:        c.TimeNow,
	}
}

// StreamAll sends the stream-all request and reads records until the
// server closes the connection, a read times out, or a read fails.
//
// The returned error is non-nil only when the request cannot be sent.
// Read failures end the phase and are reported in [StreamResult].
func (c *SessionConn) StreamAll(ctx context.Context) (*StreamResult, error) {
	t0 := c.TimeNow()
	deadline, _ := ctx.Deadline()
	lc := c.newLogContext()
	lc.logStart("streamAll", t0, deadline)

	if err := c.writeRequest([]byte{callStreamAll}); err != nil {
		lc.logDone("streamAll", t0, deadline, err)
		return nil, err
	}

	var (
		buf    = make([]byte, streamChunkSize)
		fr     = NewFrameReader()
		result = &StreamResult{}
	)
	for {
		count, err := c.readWithTimeout(buf)
		for _, r := range fr.Push(buf[:count]) {
			lc.logRecord(t0, r)
			result.Records = append(result.Records, r)
		}
		if err == nil && count > 0 {
			continue
		}
		result.Reason, result.Err = classifyStreamEnd(err)
		break
	}
	result.Discarded = fr.Discard()

	lc.logDone("streamAll", t0, deadline, result.Err,
		slog.Int("recordsCount", len(result.Records)),
		slog.String("endReason", result.Reason.String()),
		slog.Int("discardedBytes", result.Discarded),
	)
	return result, nil
}

// Resend sends a resend request for seq and reads exactly one frame.
//
// The wire format carries the sequence number in a single byte, so seq
// is truncated to its low eight bits. Values outside 0..255 are logged
// as a warning and sent anyway.
//
// A closed connection, a timeout, or any read error before [FrameSize]
// bytes arrive fails with an error wrapping [ErrResendIncomplete].
func (c *SessionConn) Resend(ctx context.Context, seq int32) (Record, error) {
	t0 := c.TimeNow()
	deadline, _ := ctx.Deadline()
	lc := c.newLogContext()
	lc.logStart("resend", t0, deadline, slog.Int("requestedSequence", int(seq)))

	if seq < 0 || seq > 255 {
		c.Logger.Warn(
			"resendSequenceOutOfRange",
			slog.Int("requestedSequence", int(seq)),
			slog.Int("wireSequence", int(byte(seq))),
		)
	}

	record, err := c.resend(seq)
	if err != nil {
		lc.logDone("resend", t0, deadline, err, slog.Int("requestedSequence", int(seq)))
		return Record{}, err
	}

	lc.logRecord(t0, record)
	lc.logDone("resend", t0, deadline, nil,
		slog.Int("requestedSequence", int(seq)),
		slog.Int("packetSequence", int(record.Sequence)),
	)
	return record, nil
}

func (c *SessionConn) resend(seq int32) (Record, error) {
	if err := c.writeRequest([]byte{callResend, byte(seq)}); err != nil {
		return Record{}, err
	}
	frame := make([]byte, FrameSize)
	var got int
	for got < FrameSize {
		count, err := c.readWithTimeout(frame[got:])
		got += count
		if got == FrameSize {
			break
		}
		if err == nil && count == 0 {
			err = io.EOF
		}
		if err != nil {
			return Record{}, fmt.Errorf("%w: got %d of %d bytes: %w", ErrResendIncomplete, got, FrameSize, err)
		}
	}
	return DecodeRecord(frame, 0), nil
}

func (c *SessionConn) writeRequest(req []byte) error {
	count, err := c.conn.Write(req)
	if err != nil {
		return err
	}
	if count != len(req) {
		return io.ErrShortWrite
	}
	return nil
}

// readWithTimeout arms the read deadline and then reads once.
//
// The deadline uses the wall clock regardless of TimeNow, since it is
// the kernel that enforces it.
func (c *SessionConn) readWithTimeout(buf []byte) (int, error) {
	if err := c.conn.SetReadDeadline(time.Now().Add(c.ReadTimeout)); err != nil {
		return 0, err
	}
	return c.conn.Read(buf)
}

// classifyStreamEnd maps the error that stopped StreamAll to an [EndReason].
//
// A zero-length read without error counts as the peer closing.
func classifyStreamEnd(err error) (EndReason, error) {
	switch {
	case err == nil, errors.Is(err, io.EOF):
		return EndOfStream, nil
	case isTimeout(err):
		return EndTimeout, err
	default:
		return EndReadError, err
	}
}

func isTimeout(err error) bool {
	if errors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}
	var nerr net.Error
	return errors.As(err, &nerr) && nerr.Timeout()
}

// SessionConnFunc wraps a net.Conn into a [*SessionConn].
//
// Fields must not be mutated concurrently with calls to [Call].
type SessionConnFunc struct {
	// ErrClassifier classifies errors for structured logging.
	//
	// Set by [NewSessionConnFunc] from [Config.ErrClassifier].
	ErrClassifier ErrClassifier

	// Logger is the [SLogger] to use.
	//
	// Set by [NewSessionConnFunc] to the user-provided logger.
	Logger SLogger

	// ReadTimeout bounds each individual read.
	//
	// Set by [NewSessionConnFunc] from [Config.ReadTimeout].
	ReadTimeout time.Duration

	// TimeNow is the function to get the current time.
	//
	// Set by [NewSessionConnFunc] from [Config.TimeNow].
	TimeNow func() time.Time
}

// NewSessionConnFunc returns a new [*SessionConnFunc].
func NewSessionConnFunc(cfg *Config, logger SLogger) *SessionConnFunc {
	return &SessionConnFunc{
		ErrClassifier: cfg.ErrClassifier,
		Logger:        logger,
		ReadTimeout:   cfg.ReadTimeout,
		TimeNow:       cfg.TimeNow,
	}
}

var _ Func[net.Conn, *SessionConn] = &SessionConnFunc{}

// Call wraps the net.Conn into a SessionConn.
func (op *SessionConnFunc) Call(ctx context.Context, conn net.Conn) (*SessionConn, error) {
	return &SessionConn{
		conn:          conn,
		ErrClassifier: op.ErrClassifier,
		Logger:        op.Logger,
		ReadTimeout:   op.ReadTimeout,
		TimeNow:       op.TimeNow,
	}, nil
}
