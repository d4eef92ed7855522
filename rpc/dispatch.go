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

package rpc

import (
	"github.com/loopwire/loopwire/coroutine"
	lerrors "github.com/loopwire/loopwire/errors"
	"github.com/loopwire/loopwire/value"
)

func errFromPeer(message string) error {
	return lerrors.New(lerrors.PeerError, message)
}

// handleCallFrame parses an inbound "call" frame (spec 4.7.1 payload:
// [id, target, args, kwargs]) and either stashes it until activation or
// dispatches it inline.
func (r *RPC) handleCallFrame(body value.Value) {
	if body.Kind() != value.KindVector || body.Len() != 4 {
		r.log.Warn("rpc: malformed call frame")
		return
	}
	elems := body.Vec()
	idv, targetv, argsv, kwargs := elems[0], elems[1], elems[2], elems[3]
	if targetv.Kind() != value.KindString {
		r.log.Warn("rpc: call frame target is not a string")
		return
	}

	hasID := idv.Kind() == value.KindInt
	var id int64
	if hasID {
		id = idv.Int()
	}
	args := argsv.Vec()

	if !r.activated {
		r.delayedCalls = append(r.delayedCalls, inboundCall{id: id, hasID: hasID, target: targetv.Str(), args: args, kwargs: kwargs})
		return
	}
	r.dispatchCall(id, hasID, targetv.Str(), args, kwargs)
}

// dispatchCall implements spec 4.7.3's "otherwise" branch: look up the
// published handler, fall back, or error; instantiate and start the
// handler coroutine, wiring its completion to a "return" frame.
func (r *RPC) dispatchCall(id int64, hasID bool, target string, args []value.Value, kwargs value.Value) {
	callable := r.handlers[target]
	if callable == nil && r.fallback != nil {
		callable = r.fallback(target, args, kwargs)
	}
	if callable == nil {
		_ = r.sendError(id, hasID, "no such target: "+target)
		return
	}

	co, ret, done, err := r.safeCall(callable, args, kwargs)
	if done {
		r.finishInbound(id, hasID, ret, err)
		return
	}
	co.OnComplete(func(v value.Value, e error) {
		r.finishInbound(id, hasID, v, e)
	})
}

// safeCall recovers a panicking handler into a HandlerPanic error, per
// spec 7 kind 4 ("Handler exception: caught around the dispatch").
func (r *RPC) safeCall(callable *value.Callable, args []value.Value, kwargs value.Value) (co *coroutine.Coroutine, ret value.Value, done bool, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			done = true
			err = lerrors.New(lerrors.HandlerPanic, "remote call failed")
		}
	}()
	return coroutine.Call(callable, args, kwargs)
}

// finishInbound sends the "return" frame for a completed handler, or an
// "error" frame with the fixed message spec 7 kind 4 specifies when the
// handler failed. Event calls (no id) produce no reply either way.
func (r *RPC) finishInbound(id int64, hasID bool, ret value.Value, err error) {
	if !hasID {
		return
	}
	if err != nil {
		_ = r.sendError(id, hasID, "remote call failed")
		return
	}
	_ = r.sendReturn(id, hasID, ret)
}
