// SPDX-License-Identifier: GPL-3.0-or-later

package abxclient

import (
	"github.com/bassosimone/runtimex"
	"github.com/google/uuid"
)

// NewSpanID returns a UUIDv7 representing a span.
//
// Every session connection (the initial stream and each resend) is
// its own span, so all the events it emits share the same spanID.
//
// This function panics if the system random number generator fails.
func NewSpanID() string {
	return runtimex.PanicOnError1(uuid.NewV7()).String()
}
