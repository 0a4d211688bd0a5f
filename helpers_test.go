// SPDX-License-Identifier: GPL-3.0-or-later

package abxclient

import (
	"context"
	"io"
	"log/slog"
	"net"
	"net/netip"
	"sync"
	"testing"
	"time"

	"github.com/bassosimone/netstub"
	"github.com/bassosimone/slogstub"
	"github.com/stretchr/testify/require"
)

// newCapturingLogger returns a logger that captures all log records into the
// returned slice. The caller can inspect the slice after exercising the code
// under test to verify which events were emitted.
func newCapturingLogger() (*slog.Logger, *[]slog.Record) {
	var (
		mu      sync.Mutex
		records []slog.Record
	)
	handler := &slogstub.FuncHandler{
		EnabledFunc: func(ctx context.Context, level slog.Level) bool {
			return true
		},
		HandleFunc: func(ctx context.Context, record slog.Record) error {
			mu.Lock()
			records = append(records, record)
			mu.Unlock()
			return nil
		},
	}
	return slog.New(handler), &records
}

// messages returns the messages of the captured records, in order.
func messages(records []slog.Record) []string {
	out := make([]string, 0, len(records))
	for _, r := range records {
		out = append(out, r.Message)
	}
	return out
}

// newMinimalConn returns a [*netstub.FuncConn] with only LocalAddrFunc and
// RemoteAddrFunc set. This is the minimum needed for code that calls
// [safeconn.LocalAddr], [safeconn.RemoteAddr], and [safeconn.Network]
// during construction.
func newMinimalConn() *netstub.FuncConn {
	return &netstub.FuncConn{
		LocalAddrFunc:  func() net.Addr { return &net.TCPAddr{} },
		RemoteAddrFunc: func() net.Addr { return &net.TCPAddr{} },
	}
}

// readStep is one scripted result of a Read call.
type readStep struct {
	data []byte
	err  error
}

// scriptedConn is a [*netstub.FuncConn] whose reads follow a script.
type scriptedConn struct {
	*netstub.FuncConn

	// written accumulates everything passed to Write.
	written []byte

	// deadlines counts SetReadDeadline calls.
	deadlines int

	// closed counts Close calls.
	closed int
}

// newScriptedConn returns a conn that serves steps in order and then
// returns io.EOF. A step whose data does not fit the read buffer is
// served across several reads.
func newScriptedConn(steps ...readStep) *scriptedConn {
	sc := &scriptedConn{FuncConn: newMinimalConn()}
	sc.WriteFunc = func(b []byte) (int, error) {
		sc.written = append(sc.written, b...)
		return len(b), nil
	}
	sc.ReadFunc = func(b []byte) (int, error) {
		if len(steps) == 0 {
			return 0, io.EOF
		}
		step := &steps[0]
		n := copy(b, step.data)
		step.data = step.data[n:]
		if len(step.data) > 0 {
			return n, nil
		}
		steps = steps[1:]
		return n, step.err
	}
	sc.SetReadDeadFunc = func(t time.Time) error {
		sc.deadlines++
		return nil
	}
	sc.CloseFunc = func() error {
		sc.closed++
		return nil
	}
	return sc
}

// newTestRecord returns a record whose fields derive from seq.
func newTestRecord(seq int32) Record {
	return NewRecord("MSFT", SideBuy, 10*seq, 100+seq, seq)
}

// encodeRecords concatenates the wire encoding of the given records.
func encodeRecords(records ...Record) []byte {
	var out []byte
	for _, r := range records {
		out = AppendRecord(out, r)
	}
	return out
}

// recordsFor returns test records for the given sequences.
func recordsFor(seqs ...int32) []Record {
	out := make([]Record, 0, len(seqs))
	for _, seq := range seqs {
		out = append(out, newTestRecord(seq))
	}
	return out
}

// sequencesOf returns the sequence numbers of records, in order.
func sequencesOf(records []Record) []int32 {
	out := make([]int32, 0, len(records))
	for _, r := range records {
		out = append(out, r.Sequence)
	}
	return out
}

// fakeServer is an in-process ABX server listening on loopback.
//
// Each accepted connection reads the call type and dispatches to
// stream (call 1) or resend (call 2). The connection is closed when
// the handler returns.
type fakeServer struct {
	listener net.Listener
	stream   func(conn net.Conn)
	resend   func(conn net.Conn, seq byte)

	mu       sync.Mutex
	requests [][]byte

	wg sync.WaitGroup
}

// newFakeServer starts a [*fakeServer] that stops when the test ends.
func newFakeServer(t *testing.T, stream func(net.Conn), resend func(net.Conn, byte)) *fakeServer {
	t.Helper()
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	s := &fakeServer{listener: listener, stream: stream, resend: resend}
	s.wg.Add(1)
	go s.serve()
	t.Cleanup(func() {
		listener.Close()
		s.wg.Wait()
	})
	return s
}

func (s *fakeServer) serve() {
	defer s.wg.Done()
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			return
		}
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			defer conn.Close()
			s.handle(conn)
		}()
	}
}

func (s *fakeServer) handle(conn net.Conn) {
	call := make([]byte, 1)
	if _, err := io.ReadFull(conn, call); err != nil {
		return
	}
	switch call[0] {
	case callStreamAll:
		s.record(call)
		s.stream(conn)
	case callResend:
		seq := make([]byte, 1)
		if _, err := io.ReadFull(conn, seq); err != nil {
			return
		}
		s.record([]byte{callResend, seq[0]})
		s.resend(conn, seq[0])
	}
}

func (s *fakeServer) record(req []byte) {
	s.mu.Lock()
	s.requests = append(s.requests, req)
	s.mu.Unlock()
}

// Requests returns the requests received so far, one per connection.
func (s *fakeServer) Requests() [][]byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([][]byte(nil), s.requests...)
}

// Endpoint returns the listening endpoint.
func (s *fakeServer) Endpoint() netip.AddrPort {
	return netip.MustParseAddrPort(s.listener.Addr().String())
}

// holdOpen blocks until the client closes the connection, without
// sending anything, so that the client read times out.
func holdOpen(conn net.Conn) {
	io.Copy(io.Discard, conn)
}

// streamThenClose returns a stream handler that sends records and closes.
func streamThenClose(records ...Record) func(net.Conn) {
	return func(conn net.Conn) {
		conn.Write(encodeRecords(records...))
	}
}

// streamThenHold returns a stream handler that sends records and then
// goes silent, leaving the connection open.
func streamThenHold(records ...Record) func(net.Conn) {
	return func(conn net.Conn) {
		conn.Write(encodeRecords(records...))
		holdOpen(conn)
	}
}

// resendFrom returns a resend handler answering from answers and
// going silent for unknown sequences.
func resendFrom(answers map[byte]Record) func(net.Conn, byte) {
	return func(conn net.Conn, seq byte) {
		r, ok := answers[seq]
		if !ok {
			holdOpen(conn)
			return
		}
		conn.Write(EncodeRecord(r))
	}
}

// newTestConfig returns a [*Config] with a short read timeout.
func newTestConfig() *Config {
	cfg := NewConfig()
	cfg.ReadTimeout = 250 * time.Millisecond
	return cfg
}
