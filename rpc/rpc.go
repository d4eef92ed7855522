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

// Package rpc implements the call/return/error protocol of spec 4.7 over
// a websocket.Websocket, using value.Value as the wire model (every
// frame is dumped/loaded through value/json.go's codec, the same way
// the core serializes everything else).
package rpc

import (
	"github.com/loopwire/loopwire/coroutine"
	lerrors "github.com/loopwire/loopwire/errors"
	"github.com/loopwire/loopwire/logger"
	"github.com/loopwire/loopwire/loop"
	"github.com/loopwire/loopwire/value"
	"github.com/loopwire/loopwire/websocket"
)

// FallbackHandler answers a call whose target has no published handler.
// It returns the callable to run, or nil to signal "no such target".
type FallbackHandler func(target string, args []value.Value, kwargs value.Value) *value.Callable

// inboundCall is a "call" frame stashed in delayed_calls until
// activation (spec 4.7.4).
type inboundCall struct {
	id     int64
	hasID  bool
	target string
	args   []value.Value
	kwargs value.Value
}

// RPC wraps a Websocket with the call/return/error protocol.
type RPC struct {
	ws  *websocket.Websocket
	lp  *loop.Loop
	log logger.Logger

	handlers map[string]*value.Callable
	fallback FallbackHandler

	expectingFG map[int64]coroutine.Handle
	expectingBG map[int64]func(value.Value, error)

	replyIndex int64

	activated    bool
	delayedCalls []inboundCall

	onError func(error)
}

// New wraps ws and arms the one-shot activation idle callback of spec
// 4.7.4.
func New(lp *loop.Loop, ws *websocket.Websocket, log logger.Logger) *RPC {
	if log == nil {
		log = logger.Nop()
	}
	r := &RPC{
		ws: ws, lp: lp, log: log,
		handlers:    make(map[string]*value.Callable),
		expectingFG: make(map[int64]coroutine.Handle),
		expectingBG: make(map[int64]func(value.Value, error)),
	}
	ws.OnMessage(r.handleMessage)
	ws.OnClose(r.handleDisconnect)
	lp.AddIdle(r.activate, r)
	return r
}

// Publish registers target as a callable handler for inbound calls.
func (r *RPC) Publish(target string, c *value.Callable) {
	r.handlers[target] = c
}

// SetFallback registers the handler consulted when target has no
// published entry (spec 4.7.3).
func (r *RPC) SetFallback(fn FallbackHandler) { r.fallback = fn }

// OnError registers the handler invoked for every peer-delivered "error"
// frame (spec 7 kind 2). While it is set it takes priority over id-based
// routing: a foreground or background call whose id the frame matches is
// dropped from the outstanding maps and is not resumed or called back.
func (r *RPC) OnError(cb func(error)) { r.onError = cb }

// activate drains delayed_calls in receive order and marks the RPC
// activated; it fires exactly once (loop.AddIdle semantics).
func (r *RPC) activate() bool {
	r.activated = true
	pending := r.delayedCalls
	r.delayedCalls = nil
	for _, c := range pending {
		r.dispatchCall(c.id, c.hasID, c.target, c.args, c.kwargs)
	}
	return false
}

// nextID implements spec 4.7.5: a 63-bit space, skipping zero and any id
// already outstanding in either expecting map.
func (r *RPC) nextID() int64 {
	for {
		r.replyIndex++
		if r.replyIndex<<1>>1 != r.replyIndex || r.replyIndex == 0 { // wrapped past 63 bits
			r.replyIndex = 1
		}
		id := r.replyIndex
		if id == 0 {
			continue
		}
		if _, busy := r.expectingFG[id]; busy {
			continue
		}
		if _, busy := r.expectingBG[id]; busy {
			continue
		}
		return id
	}
}

// CallBackground implements spec 4.7.2 bgcall: if reply is non-nil, a
// fresh id is allocated and reply is recorded in expecting_bg; otherwise
// the frame is sent as an event (id == null) and never produces a reply.
func (r *RPC) CallBackground(target string, args []value.Value, kwargs value.Value, reply func(value.Value, error)) error {
	var id int64
	hasID := reply != nil
	if hasID {
		id = r.nextID()
		r.expectingBG[id] = reply
	}
	return r.sendCall(id, hasID, target, args, kwargs)
}

// Event is CallBackground with no reply expected (spec 4.7.1: id ==
// null).
func (r *RPC) Event(target string, args []value.Value, kwargs value.Value) error {
	return r.CallBackground(target, args, kwargs, nil)
}

// Call implements spec 4.7.2 fgcall: always allocates an id, records the
// calling coroutine's own handle, sends the call frame, then suspends
// via ctx.Yield until the matching return/error frame resumes it.
func (r *RPC) Call(ctx *coroutine.Context, target string, args []value.Value, kwargs value.Value) (value.Value, error) {
	id := r.nextID()
	r.expectingFG[id] = ctx.Handle()
	if err := r.sendCall(id, true, target, args, kwargs); err != nil {
		delete(r.expectingFG, id)
		return value.Value{}, err
	}
	wrapped := ctx.Yield(value.Null)
	if errv, ok := wrapped.Get("error"); ok {
		return value.Value{}, lerrors.New(lerrors.PeerError, errv.Str())
	}
	v, _ := wrapped.Get("value")
	return v, nil
}

// resumeFG delivers either a value or an error to the foreground
// coroutine waiting on id, using an internal value.Map wrapper (never
// sent on the wire) so Call can tell the two apart across a single
// Activate call.
func (r *RPC) resumeFG(id int64, v value.Value, callErr error) {
	handle, ok := r.expectingFG[id]
	if !ok {
		return
	}
	delete(r.expectingFG, id)
	wrapped := value.Map()
	if callErr != nil {
		wrapped.Set("error", value.String(callErr.Error()))
	} else {
		wrapped.Set("value", v)
	}
	handle.Activate(wrapped)
}

func (r *RPC) handleDisconnect() {
	cause := lerrors.New(lerrors.Transport, "network connection closed")
	for id, handle := range r.expectingFG {
		delete(r.expectingFG, id)
		wrapped := value.Map()
		wrapped.Set("error", value.String(cause.Error()))
		handle.Activate(wrapped)
	}
	// expecting_bg callbacks are deliberately dropped, not invoked, on
	// disconnect (spec 7 kind 3).
	r.expectingBG = make(map[int64]func(value.Value, error))
}
