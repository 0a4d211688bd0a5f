// SPDX-License-Identifier: GPL-3.0-or-later

package abxclient

import "context"

// Func is a generic operation that accepts an input and returns a result.
//
// Connection setup is expressed as a chain of Func composed with [Compose2],
// [Compose3], etc.: resolve, dial, observe, bind to the context, and finally
// wrap into a [*SessionConn].
//
// Resource cleanup contract: when a Func receives a closeable resource as input
// and returns an error, it is responsible for closing that resource before returning.
type Func[A, B any] interface {
	Call(ctx context.Context, input A) (B, error)
}

// FuncAdapter wraps a function as a [Func] implementation.
type FuncAdapter[A, B any] func(ctx context.Context, input A) (B, error)

// Call implements [Func].
func (f FuncAdapter[A, B]) Call(ctx context.Context, input A) (B, error) {
	return f(ctx, input)
}
