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

// Package coroutine emulates the stackless, bidirectional-value-passing
// coroutines spec 4.3 describes, using one goroutine per coroutine gated
// by an unbuffered channel into it and a one-slot buffered channel out of
// it. Resumption stays logically
// synchronous: the driver (loop, or a delegating coroutine) never
// proceeds past activate/Yield/YieldFrom until the other side has either
// produced a new yielded value or finished, so the single-threaded
// ordering guarantees of spec 5 hold despite the extra goroutines.
package coroutine

import (
	"fmt"

	"github.com/loopwire/loopwire/value"
)

// Func is the body of a coroutine. ctx is only valid for the lifetime of
// the call and must not be retained past it.
type Func func(ctx *Context, args []value.Value, kwargs value.Value) (value.Value, error)

type message struct {
	val  value.Value
	done bool
	err  error
}

// Coroutine is a resumable computation with bidirectional value slots
// (to_coroutine / from_coroutine in spec terms, here the two channels).
type Coroutine struct {
	toCoroutine   chan value.Value
	fromCoroutine chan message
	onComplete    func(value.Value, error)
	continuation  *Coroutine
	started       bool
	finished      bool
	retval        value.Value
	err           error
}

// Handle is the externally visible, stable reference to a Coroutine.
// Spec 4.3's GetHandle returns this so I/O completion or an RPC reply can
// resume the coroutine later.
type Handle = *Coroutine

// Context is passed into a running coroutine body; it is the coroutine's
// view of its own to/from slots.
type Context struct {
	co *Coroutine
}

// New allocates a coroutine without starting it. Call Start to launch the
// backing goroutine up to its first suspension point.
func New() *Coroutine {
	return &Coroutine{
		toCoroutine:   make(chan value.Value),
		fromCoroutine: make(chan message, 1),
	}
}

// OnComplete registers the completion callback fired when the coroutine
// makes its final return (spec 4.3: "owner, method_ptr").
func (c *Coroutine) OnComplete(cb func(value.Value, error)) {
	c.onComplete = cb
}

// GetHandle returns the coroutine's own resumable handle.
func (c *Coroutine) GetHandle() Handle { return c }

// IsDone reports whether the coroutine has made its final return.
func (c *Coroutine) IsDone() bool { return c.finished }

// Retval returns the coroutine's final return value; only meaningful once
// IsDone is true. A destroyed (abandoned) coroutine still surfaces this,
// matching spec 4.3's retval*/is_done* output pointers.
func (c *Coroutine) Retval() (value.Value, error) { return c.retval, c.err }

// Start launches the coroutine body as a goroutine and runs it up to its
// first suspension (Yield/YieldFrom) or completion, exactly like the
// first `activate` call in the source semantics.
func (c *Coroutine) Start(fn Func, args []value.Value, kwargs value.Value) (value.Value, bool, error) {
	if c.started {
		panic("coroutine: Start called twice")
	}
	c.started = true
	ctx := &Context{co: c}
	go func() {
		defer func() {
			if r := recover(); r != nil {
				c.fromCoroutine <- message{err: fmt.Errorf("coroutine: panic: %v", r), done: true}
			}
		}()
		ret, err := fn(ctx, args, kwargs)
		c.fromCoroutine <- message{val: ret, done: true, err: err}
	}()
	return c.receive()
}

// Activate resumes a suspended coroutine with arg, writing it into the
// to_coroutine slot, and returns whichever of {next yielded value, final
// return value} comes back, distinguished by the done flag.
func (c *Coroutine) Activate(arg value.Value) (value.Value, bool, error) {
	if c.finished {
		panic("coroutine: Activate called on a finished coroutine")
	}
	c.toCoroutine <- arg
	return c.receive()
}

func (c *Coroutine) receive() (value.Value, bool, error) {
	m := <-c.fromCoroutine
	if m.done {
		c.finished = true
		c.retval = m.val
		c.err = m.err
		if c.onComplete != nil {
			c.onComplete(m.val, m.err)
		}
	}
	return m.val, m.done, m.err
}

// Handle returns the resumable handle of the coroutine ctx belongs to,
// so a suspension point can register itself (e.g. an RPC layer's
// expecting_fg map) to be resumed later by something outside the
// coroutine's own call stack.
func (ctx *Context) Handle() Handle { return ctx.co }

// Yield stores value into the outgoing slot and suspends the calling
// coroutine until the next Activate, whose argument becomes the return
// value of Yield.
func (ctx *Context) Yield(v value.Value) value.Value {
	ctx.co.fromCoroutine <- message{val: v, done: false}
	return <-ctx.co.toCoroutine
}

// YieldFrom suspends ctx's coroutine and delegates to a freshly created
// coroutine running fn: fn is started, and each value it yields is
// re-yielded from ctx (relaying the activator's resume argument back
// into fn's coroutine), until fn finishes. Its return value becomes
// YieldFrom's return value, its error is returned alongside, and the
// delegate coroutine is then discarded.
func (ctx *Context) YieldFrom(fn Func, args []value.Value, kwargs value.Value) (value.Value, error) {
	other := New()
	other.continuation = ctx.co

	out, done, err := other.Start(fn, args, kwargs)
	for !done {
		arg := ctx.Yield(out)
		out, done, err = other.Activate(arg)
	}
	return out, err
}
