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

package websocket

import (
	"time"

	"github.com/loopwire/loopwire/logger"
	"github.com/loopwire/loopwire/loop"
	"github.com/loopwire/loopwire/socket"
	cfg "github.com/loopwire/loopwire/socket/config"
)

// Role distinguishes the handshake and masking rules each side follows.
type Role int

const (
	RoleClient Role = iota
	RoleServer
)

// MessageHandler receives one reassembled text/binary message (spec
// 4.6.3: fragments are delivered only once FIN arrives).
type MessageHandler func(opcode Opcode, payload []byte)

// Websocket layers RFC 6455 framing over a socket.Socket, per spec 4.6.
// The underlying Socket is switched to Raw mode so every readable byte
// flows through the frame decoder rather than the socket's own
// chunk/line buffering.
type Websocket struct {
	sock *socket.Socket
	lp   *loop.Loop
	log  logger.Logger
	role Role

	handshake     *clientHandshake // non-nil only on the client, until done
	handshakeDone bool
	initWaiters   []func()

	dec         frameDecoder
	fragmenting bool
	fragOpcode  Opcode
	fragBuf     []byte

	pongSeen       bool
	keepaliveTimer *loop.Timer

	onMessage MessageHandler
	onClose   func()
}

// NewClient starts a client handshake over sock (already connected) and
// returns a Websocket whose handshake completes asynchronously; use
// OnInit to be notified.
func NewClient(lp *loop.Loop, sock *socket.Socket, host, path string, user, pass string, extraHeaders map[string]string, log logger.Logger) *Websocket {
	if log == nil {
		log = logger.Nop()
	}
	w := &Websocket{sock: sock, lp: lp, log: log, role: RoleClient, handshake: newClientHandshake(), pongSeen: true}
	sock.SetMode(cfg.ReadRaw)
	sock.OnRaw(w.handleRawReadable)
	sock.OnDisconnect(func() {
		if w.onClose != nil {
			w.onClose()
		}
	})
	_ = sock.Send(ClientHandshakeRequest("GET", path, host, user, pass, extraHeaders))
	return w
}

// NewServer wraps an already-upgraded socket (the 101 response has
// already been written by the caller, typically httpconn) as a server
// side Websocket, ready to exchange masked-required frames immediately.
func NewServer(lp *loop.Loop, sock *socket.Socket, log logger.Logger) *Websocket {
	if log == nil {
		log = logger.Nop()
	}
	w := &Websocket{sock: sock, lp: lp, log: log, role: RoleServer, handshakeDone: true, pongSeen: true}
	sock.SetMode(cfg.ReadRaw)
	sock.OnRaw(w.handleRawReadable)
	sock.OnDisconnect(func() {
		if w.onClose != nil {
			w.onClose()
		}
	})
	return w
}

func (w *Websocket) OnMessage(cb MessageHandler) { w.onMessage = cb }
func (w *Websocket) OnClose(cb func())           { w.onClose = cb }

// Prime feeds bytes the caller already read off the socket before
// constructing this Websocket (e.g. frame bytes that arrived piggybacked
// on the same TCP segment as the upgrade request's terminating blank
// line) straight into the frame decoder.
func (w *Websocket) Prime(data []byte) {
	if len(data) == 0 {
		return
	}
	w.consume(data)
}

// OnInit registers cb to run once the client handshake completes. If it
// has already completed, cb runs inline immediately (spec 4.6.1: "If a
// coroutine is waiting on wait_for_init(), it is resumed at this
// point").
func (w *Websocket) OnInit(cb func()) {
	if w.handshakeDone {
		cb()
		return
	}
	w.initWaiters = append(w.initWaiters, cb)
}

// requiresMask reports whether this side expects inbound frames to be
// masked: servers require it, clients forbid it (spec 4.6.3).
func (w *Websocket) requiresMask() bool { return w.role == RoleServer }

func (w *Websocket) handleRawReadable(s *socket.Socket) {
	buf := make([]byte, 64*1024)
	n, err := s.Read(buf)
	if n > 0 {
		w.consume(buf[:n])
	}
	if err != nil && !isWouldBlock(err) {
		w.sock.Close()
		return
	}
	if n == 0 && err == nil {
		w.sock.Close()
	}
}

func (w *Websocket) consume(data []byte) {
	if w.role == RoleClient && !w.handshakeDone {
		leftover, ok, err := w.handshake.feed(data)
		if err != nil {
			w.log.WithField("error", err).Warn("websocket: handshake failed")
			w.sock.Close()
			return
		}
		if !ok {
			return
		}
		w.handshakeDone = true
		w.handshake = nil
		waiters := w.initWaiters
		w.initWaiters = nil
		for _, fn := range waiters {
			fn()
		}
		data = leftover
		if len(data) == 0 {
			return
		}
	}
	w.dec.feed(data)
	w.pumpFrames()
}

// pumpFrames decodes as many complete frames as are currently buffered.
// Every successfully decoded frame, including control frames, and every
// partially buffered one still waiting for more bytes counts as a
// received packet for keepalive purposes (spec 4.6.3/4.6.5: "bumping
// pong_seen so long payloads do not cause keepalive to trip").
func (w *Websocket) pumpFrames() {
	for {
		f, ok, err := w.dec.next(w.requiresMask())
		if err != nil {
			w.log.WithField("error", err).Warn("websocket: protocol violation")
			w.sock.Close()
			return
		}
		if !ok {
			if len(w.dec.buf) > 0 {
				w.pongSeen = true
			}
			return
		}
		w.pongSeen = true
		if !w.handleFrame(f) {
			return
		}
	}
}

func (w *Websocket) handleFrame(f *Frame) bool {
	switch f.Opcode {
	case OpClose:
		w.sendRaw(OpClose, f.Payload)
		w.sock.Close()
		return false
	case OpPing:
		w.sendRaw(OpPong, f.Payload)
		return true
	case OpPong:
		return true
	case OpContinuation:
		if !w.fragmenting {
			w.log.Warn("websocket: continuation with no open fragment")
			w.sock.Close()
			return false
		}
		w.fragBuf = append(w.fragBuf, f.Payload...)
		if f.Fin {
			w.deliver(w.fragOpcode, w.fragBuf)
			w.fragmenting = false
			w.fragBuf = nil
		}
		return true
	case OpText, OpBinary:
		if w.fragmenting {
			w.log.Warn("websocket: new message while a fragment is open")
			w.sock.Close()
			return false
		}
		if f.Fin {
			w.deliver(f.Opcode, f.Payload)
			return true
		}
		w.fragmenting = true
		w.fragOpcode = f.Opcode
		w.fragBuf = append([]byte(nil), f.Payload...)
		return true
	default:
		w.log.WithField("opcode", f.Opcode).Warn("websocket: unexpected opcode")
		w.sock.Close()
		return false
	}
}

func (w *Websocket) deliver(opcode Opcode, payload []byte) {
	if w.onMessage != nil {
		w.onMessage(opcode, payload)
	}
}

// Send transmits one unfragmented message. Clients mask with an
// all-zero mask (spec 4.6.4); servers send unmasked.
func (w *Websocket) Send(opcode Opcode, payload []byte) error {
	return w.sendRaw(opcode, payload)
}

func (w *Websocket) sendRaw(opcode Opcode, payload []byte) error {
	masked := w.role == RoleClient
	return w.sock.Send(EncodeFrame(opcode, payload, masked, [4]byte{}))
}

// Close sends a close frame and tears down the underlying socket.
func (w *Websocket) Close() error {
	_ = w.sendRaw(OpClose, nil)
	return w.sock.Close()
}

// StartKeepalive arms a repeating timer that pings the peer every
// interval and logs a warning if no pong (or any other frame) arrived
// since the previous tick (spec 4.6.5).
func (w *Websocket) StartKeepalive(interval time.Duration) {
	if interval <= 0 {
		return
	}
	w.keepaliveTimer = w.lp.Every(interval, func() bool {
		if !w.pongSeen {
			w.log.WithField("socket", w.sock.Name()).Warn("websocket: no pong since last keepalive tick")
		}
		w.pongSeen = false
		_ = w.sendRaw(OpPing, nil)
		return true
	}, w)
}

// StopKeepalive disarms the keepalive timer, if any.
func (w *Websocket) StopKeepalive() {
	if w.keepaliveTimer != nil {
		w.lp.RemoveTimer(w.keepaliveTimer)
		w.keepaliveTimer = nil
	}
}

func isWouldBlock(err error) bool {
	type temporary interface{ Temporary() bool }
	t, ok := err.(temporary)
	return ok && t.Temporary()
}
