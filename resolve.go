// SPDX-License-Identifier: GPL-3.0-or-later

package abxclient

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/netip"
	"strconv"

	"github.com/bassosimone/dnscodec"
	"github.com/miekg/dns"
)

// ErrInvalidAddress indicates a configured server address that is not
// a valid host:port pair.
var ErrInvalidAddress = errors.New("abxclient: invalid server address")

// ErrNoAddress indicates that the lookup did not return any IPv4 address.
var ErrNoAddress = errors.New("abxclient: no IPv4 address for host")

// Resolver looks up host names through the system configuration.
//
// [*net.Resolver] implements this interface.
type Resolver interface {
	LookupNetIP(ctx context.Context, network, host string) ([]netip.Addr, error)
}

var _ Resolver = net.DefaultResolver

// NewResolveFunc returns a new [*ResolveFunc].
func NewResolveFunc(cfg *Config, logger SLogger) *ResolveFunc {
	return &ResolveFunc{Config: cfg, Logger: logger}
}

// ResolveFunc maps a configured "host:port" string to a [netip.AddrPort].
//
// IP literals are used as is. When [Config.DNSServer] is valid, host
// names are resolved with a single A query sent to it over
// [Config.DNSProtocol]. Otherwise they go through [Config.Resolver],
// which honors the hosts file. In both cases the first IPv4 address wins.
type ResolveFunc struct {
	// Config provides the dialer and the DNS server settings.
	Config *Config

	// Logger is the [SLogger] to use.
	Logger SLogger
}

var _ Func[string, netip.AddrPort] = &ResolveFunc{}

// Call implements [Func].
func (op *ResolveFunc) Call(ctx context.Context, address string) (netip.AddrPort, error) {
	host, portStr, err := net.SplitHostPort(address)
	if err != nil {
		return netip.AddrPort{}, fmt.Errorf("%w: %q: %w", ErrInvalidAddress, address, err)
	}
	port, err := strconv.ParseUint(portStr, 10, 16)
	if err != nil || port == 0 {
		return netip.AddrPort{}, fmt.Errorf("%w: %q: bad port %q", ErrInvalidAddress, address, portStr)
	}
	if host == "" {
		return netip.AddrPort{}, fmt.Errorf("%w: %q: empty host", ErrInvalidAddress, address)
	}

	if addr, err := netip.ParseAddr(host); err == nil {
		return netip.AddrPortFrom(addr.Unmap(), uint16(port)), nil
	}

	lookup := op.lookupSystem
	if op.Config.DNSServer.IsValid() {
		lookup = op.lookupA
	}
	addr, err := lookup(ctx, host)
	if err != nil {
		return netip.AddrPort{}, err
	}
	return netip.AddrPortFrom(addr, uint16(port)), nil
}

func (op *ResolveFunc) lookupSystem(ctx context.Context, host string) (netip.Addr, error) {
	t0 := op.Config.TimeNow()
	op.Logger.Info("systemLookupStart", slog.String("host", host), slog.Time("t", t0))

	addrs, err := op.Config.Resolver.LookupNetIP(ctx, "ip4", host)

	op.Logger.Info(
		"systemLookupDone",
		slog.Any("addrs", addrs),
		slog.Any("err", err),
		slog.String("errClass", op.Config.ErrClassifier.Classify(err)),
		slog.String("host", host),
		slog.Time("t0", t0),
		slog.Time("t", op.Config.TimeNow()),
	)

	if err != nil {
		return netip.Addr{}, fmt.Errorf("abxclient: cannot resolve %q: %w", host, err)
	}
	for _, addr := range addrs {
		if addr = addr.Unmap(); addr.Is4() {
			return addr, nil
		}
	}
	return netip.Addr{}, fmt.Errorf("%w: %q", ErrNoAddress, host)
}

func (op *ResolveFunc) lookupA(ctx context.Context, host string) (netip.Addr, error) {
	dialPipe := Compose4(
		NewEndpointFunc(op.Config.DNSServer),
		NewConnectFunc(op.Config, op.Config.DNSProtocol, op.Logger),
		NewCancelWatchFunc(),
		NewDNSConnFunc(op.Config, op.Logger),
	)
	dnsConn, err := dialPipe.Call(ctx, Unit{})
	if err != nil {
		return netip.Addr{}, fmt.Errorf("abxclient: cannot reach DNS server: %w", err)
	}
	defer dnsConn.Close()

	resp, err := dnsConn.Exchange(ctx, dnscodec.NewQuery(host, dns.TypeA))
	if err != nil {
		return netip.Addr{}, fmt.Errorf("abxclient: cannot resolve %q: %w", host, err)
	}
	addrs, err := resp.RecordsA()
	if err != nil {
		return netip.Addr{}, fmt.Errorf("abxclient: cannot resolve %q: %w", host, err)
	}
	for _, s := range addrs {
		if addr, err := netip.ParseAddr(s); err == nil && addr.Is4() {
			return addr, nil
		}
	}
	return netip.Addr{}, fmt.Errorf("%w: %q", ErrNoAddress, host)
}
