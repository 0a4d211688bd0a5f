// SPDX-License-Identifier: GPL-3.0-or-later

package abxclient

// Unit is a type not containing any value.
//
// Use it as the input of a [Func] that takes no argument, such
// as the session dialer driven by the [*Reconciler].
type Unit struct{}
