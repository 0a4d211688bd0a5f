// SPDX-License-Identifier: GPL-3.0-or-later

package abxclient

import (
	"net"
	"net/netip"
	"time"
)

// DefaultReadTimeout is the receive timeout applied to every read.
const DefaultReadTimeout = 5 * time.Second

// Config holds common configuration for abxclient operations.
//
// Pass this to constructor functions to pre-wire dependencies.
// All fields have sensible defaults set by [NewConfig].
type Config struct {
	// Dialer is used by [*ConnectFunc] and by [*ResolveFunc].
	//
	// Set by [NewConfig] to [*net.Dialer].
	Dialer Dialer

	// DNSProtocol is the transport used by [*ResolveFunc] to look
	// up host names: either "udp" or "tcp".
	//
	// Set by [NewConfig] to "udp".
	DNSProtocol string

	// DNSServer is the server queried by [*ResolveFunc]. The zero value
	// selects [Config.Resolver] instead.
	//
	// Left unset by [NewConfig].
	DNSServer netip.AddrPort

	// ErrClassifier classifies errors for structured logging.
	//
	// Set by [NewConfig] to [DefaultErrClassifier].
	ErrClassifier ErrClassifier

	// Resolver is the system resolver used by [*ResolveFunc] when
	// [Config.DNSServer] is not valid.
	//
	// Set by [NewConfig] to [net.DefaultResolver].
	Resolver Resolver

	// ReadTimeout bounds each individual read on a session connection.
	//
	// Set by [NewConfig] to [DefaultReadTimeout].
	ReadTimeout time.Duration

	// TimeNow returns the current time.
	//
	// Set by [NewConfig] to [time.Now].
	TimeNow func() time.Time
}

// NewConfig creates a [*Config] with sensible defaults.
func NewConfig() *Config {
	return &Config{
		Dialer:        &net.Dialer{},
		DNSProtocol:   "udp",
		ErrClassifier: DefaultErrClassifier,
		Resolver:      net.DefaultResolver,
		ReadTimeout:   DefaultReadTimeout,
		TimeNow:       time.Now,
	}
}
