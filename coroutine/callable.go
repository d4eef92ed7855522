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

package coroutine

import (
	"github.com/loopwire/loopwire/value"
)

// PlainFunc runs to completion without suspending.
type PlainFunc func(args []value.Value, kwargs value.Value) value.Value

// WrapPlain wraps a PlainFunc as a value.Callable of kind
// CallablePlainFunc, the free-function variant of spec 3.1/4.2.
func WrapPlain(name string, fn PlainFunc) *value.Callable {
	return value.NewCallable(value.CallablePlainFunc, name, fn)
}

// WrapCoroutine wraps a Func as a value.Callable of kind
// CallableCoroutineFunc, the free-coroutine-function variant.
func WrapCoroutine(name string, fn Func) *value.Callable {
	return value.NewCallable(value.CallableCoroutineFunc, name, fn)
}

// WrapBoundMember wraps a method already bound to its receiver (an
// ordinary Go closure) as the bound-member variant. Go closures make the
// receiver binding implicit, so the payload shape is identical to
// WrapPlain; only the recorded kind differs, which matters for the error
// message produced when serialization of the callable is attempted.
func WrapBoundMember(name string, fn PlainFunc) *value.Callable {
	return value.NewCallable(value.CallableBoundMember, name, fn)
}

// WrapBoundCoroutineMember wraps a bound method that may suspend.
func WrapBoundCoroutineMember(name string, fn Func) *value.Callable {
	return value.NewCallable(value.CallableBoundCoroutineMember, name, fn)
}

// Call dispatches a Callable through a tag->fn table keyed by its kind,
// per the design note in spec 9. Plain variants run synchronously and
// return a finished coroutine wrapping the result; coroutine variants are
// started and may already be suspended when Call returns.
func Call(c *value.Callable, args []value.Value, kwargs value.Value) (*Coroutine, value.Value, bool, error) {
	switch c.Kind() {
	case value.CallablePlainFunc, value.CallableBoundMember:
		fn, ok := c.Fn().(PlainFunc)
		if !ok {
			panic("coroutine: callable payload does not match its kind")
		}
		co := New()
		ret, done, err := co.Start(func(ctx *Context, a []value.Value, k value.Value) (value.Value, error) {
			return fn(a, k), nil
		}, args, kwargs)
		return co, ret, done, err
	case value.CallableCoroutineFunc, value.CallableBoundCoroutineMember:
		fn, ok := c.Fn().(Func)
		if !ok {
			panic("coroutine: callable payload does not match its kind")
		}
		co := New()
		ret, done, err := co.Start(fn, args, kwargs)
		return co, ret, done, err
	default:
		panic("coroutine: unknown callable kind")
	}
}
