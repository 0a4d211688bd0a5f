// SPDX-License-Identifier: GPL-3.0-or-later

package abxclient

import (
	"context"
	"net"
)

// dnsUnusedDialer is a [Dialer] that panics if DialContext is called.
//
// DNS lookups run over a connection that [*ResolveFunc] already dialed,
// so a transport trying to dial on its own is a programming error.
type dnsUnusedDialer struct{}

var _ Dialer = dnsUnusedDialer{}

// DialContext implements [Dialer] and always panics.
func (dnsUnusedDialer) DialContext(ctx context.Context, network, address string) (net.Conn, error) {
	panic("abxclient: DNS transport must not dial; this is a programming error")
}
