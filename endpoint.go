// SPDX-License-Identifier: GPL-3.0-or-later

package abxclient

import "net/netip"

// NewEndpointFunc returns a [Func] that always returns the given [netip.AddrPort].
//
// The ABX server lives at a single fixed endpoint, so every session
// pipeline starts from one of these.
func NewEndpointFunc(endpoint netip.AddrPort) Func[Unit, netip.AddrPort] {
	return ConstFunc(endpoint)
}
