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
	"fmt"

	"github.com/loopwire/loopwire/value"
	"github.com/loopwire/loopwire/websocket"
)

// idValue encodes an RPC id per spec 4.7.1: Null when absent, else Int.
func idValue(id int64, hasID bool) value.Value {
	if !hasID {
		return value.Null
	}
	return value.Int(id)
}

func (r *RPC) sendCall(id int64, hasID bool, target string, args []value.Value, kwargs value.Value) error {
	payload := value.Vector(idValue(id, hasID), value.String(target), value.Vector(args...), kwargs)
	frame := value.Vector(value.String("call"), payload)
	return r.send(frame)
}

func (r *RPC) sendReturn(id int64, hasID bool, v value.Value) error {
	payload := value.Vector(idValue(id, hasID), v)
	frame := value.Vector(value.String("return"), payload)
	return r.send(frame)
}

func (r *RPC) sendError(id int64, hasID bool, message string) error {
	payload := value.Vector(idValue(id, hasID), value.String(message))
	frame := value.Vector(value.String("error"), payload)
	return r.send(frame)
}

func (r *RPC) send(frame value.Value) error {
	return r.ws.Send(websocket.OpText, []byte(value.Dump(frame)))
}

// handleMessage is the Websocket.MessageHandler driving inbound dispatch
// (spec 4.7.1/4.7.3). Malformed frames are logged and dropped, never
// propagated as a connection error.
func (r *RPC) handleMessage(opcode websocket.Opcode, payload []byte) {
	frame, err := value.Load(string(payload), func(format string, args ...any) {
		r.log.WithField("error", fmt.Sprintf(format, args...)).Warn("rpc: tolerant JSON parse")
	})
	if err != nil {
		r.log.WithField("error", err).Warn("rpc: malformed frame, dropping")
		return
	}
	if frame.Kind() != value.KindVector || frame.Len() != 2 {
		r.log.Warn("rpc: frame is not a [tag, payload] pair, dropping")
		return
	}
	elems := frame.Vec()
	tag := elems[0]
	body := elems[1]
	if tag.Kind() != value.KindString {
		r.log.Warn("rpc: frame tag is not a string, dropping")
		return
	}

	switch tag.Str() {
	case "call":
		r.handleCallFrame(body)
	case "return":
		r.handleReturnFrame(body)
	case "error":
		r.handleErrorFrame(body)
	default:
		r.log.WithField("tag", tag.Str()).Warn("rpc: unknown frame tag, dropping")
	}
}

func (r *RPC) handleReturnFrame(body value.Value) {
	if body.Kind() != value.KindVector || body.Len() != 2 {
		r.log.Warn("rpc: malformed return frame")
		return
	}
	elems := body.Vec()
	idv, v := elems[0], elems[1]
	if idv.Kind() != value.KindInt {
		r.log.Warn("rpc: return frame without an id, dropping")
		return
	}
	id := idv.Int()
	if _, ok := r.expectingFG[id]; ok {
		r.resumeFG(id, v, nil)
		return
	}
	if cb, ok := r.expectingBG[id]; ok {
		delete(r.expectingBG, id)
		cb(v, nil)
		return
	}
	r.log.WithField("id", id).Warn("rpc: return frame for unknown id, ignoring")
}

// handleErrorFrame routes kind-2 frames per spec 4.7.3/7: delivery to a
// registered error handler takes priority over resuming whatever call
// the id happens to match, matching websocketd.hh's "if self._error is
// not None: self._error(...) else: raise" (no id-based routing at all).
// A matching id still has its outstanding-call bookkeeping cleared, so no
// later frame is routed to it; a foreground Call waiting on that id is
// not resumed.
func (r *RPC) handleErrorFrame(body value.Value) {
	if body.Kind() != value.KindVector || body.Len() != 2 {
		r.log.Warn("rpc: malformed error frame")
		return
	}
	elems := body.Vec()
	idv, msgv := elems[0], elems[1]
	message := msgv.Str()

	if r.onError != nil {
		if idv.Kind() == value.KindInt {
			id := idv.Int()
			delete(r.expectingFG, id)
			delete(r.expectingBG, id)
		}
		r.onError(errFromPeer(message))
		return
	}

	if idv.Kind() == value.KindInt {
		id := idv.Int()
		if _, ok := r.expectingFG[id]; ok {
			r.resumeFG(id, value.Value{}, errFromPeer(message))
			return
		}
		if cb, ok := r.expectingBG[id]; ok {
			delete(r.expectingBG, id)
			cb(value.Value{}, errFromPeer(message))
			return
		}
	}
	r.log.WithField("message", message).Warn("rpc: peer error with no handler")
}
