/*
 * MIT License
 *
 * Copyright (c) 2026 loopwire authors
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 */

package value

// CallableKind names the four wire-visible callable variants of spec 3.1.
// Value itself stays a leaf package: the concrete function signatures for
// each kind (and the dispatch table that invokes them) live in the
// coroutine package, which is the one that knows how to run a coroutine
// function. Callable here only carries enough to format an error message
// and to let the coroutine package recover its own concrete type via Fn.
type CallableKind uint8

const (
	// CallablePlainFunc wraps a function that runs to completion without
	// suspending and returns a single Value.
	CallablePlainFunc CallableKind = iota
	// CallableCoroutineFunc wraps a free function that may suspend via
	// Yield/YieldFrom while it runs.
	CallableCoroutineFunc
	// CallableBoundMember wraps a method bound to a receiver, run to
	// completion without suspending.
	CallableBoundMember
	// CallableBoundCoroutineMember wraps a method bound to a receiver
	// that may suspend while it runs.
	CallableBoundCoroutineMember
)

func (k CallableKind) String() string {
	switch k {
	case CallablePlainFunc:
		return "function"
	case CallableCoroutineFunc:
		return "coroutine-function"
	case CallableBoundMember:
		return "bound-member"
	case CallableBoundCoroutineMember:
		return "bound-coroutine-member"
	default:
		return "callable"
	}
}

// Callable is an opaque, non-serializable function wrapper. Fn holds the
// concrete function value; its type is a contract between the producer
// (coroutine.Wrap*) and consumer (coroutine.Call) and is not inspected by
// this package.
type Callable struct {
	kind CallableKind
	fn   any
	name string
}

// NewCallable constructs a Callable; used by the coroutine package's
// Wrap* constructors so that value stays free of coroutine's types.
func NewCallable(kind CallableKind, name string, fn any) *Callable {
	return &Callable{kind: kind, fn: fn, name: name}
}

func (c *Callable) Kind() CallableKind { return c.kind }
func (c *Callable) Name() string       { return c.name }
func (c *Callable) Fn() any            { return c.fn }
