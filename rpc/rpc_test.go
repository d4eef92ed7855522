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

package rpc_test

import (
	"net"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/loopwire/loopwire/coroutine"
	"github.com/loopwire/loopwire/loop"
	"github.com/loopwire/loopwire/rpc"
	"github.com/loopwire/loopwire/socket"
	"github.com/loopwire/loopwire/value"
	"github.com/loopwire/loopwire/websocket"
)

// dialedPair opens a real loopback TCP connection and wraps both ends as
// Sockets registered on lp, the same helper used by the socket and
// websocket suites.
func dialedPair(lp *loop.Loop) (*socket.Socket, *socket.Socket) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	Expect(err).ToNot(HaveOccurred())
	defer ln.Close()

	accepted := make(chan net.Conn, 1)
	go func() {
		c, _ := ln.Accept()
		accepted <- c
	}()

	client, err := net.Dial("tcp", ln.Addr().String())
	Expect(err).ToNot(HaveOccurred())
	server := <-accepted

	cs, err := socket.New(lp, client, nil, "client", nil)
	Expect(err).ToNot(HaveOccurred())
	ss, err := socket.New(lp, server, nil, "server", nil)
	Expect(err).ToNot(HaveOccurred())
	return cs, ss
}

func pump(lp *loop.Loop, until func() bool) {
	deadline := time.Now().Add(2 * time.Second)
	for !until() && time.Now().Before(deadline) {
		lp.RunOnce(false)
	}
}

// pairedRPCs wires two RPC endpoints over a dialed socket pair: a's
// client-side Websocket performs the handshake against b's server-side
// one, so each direction is masked the way its receiver requires. The
// underlying sockets are returned too, so a test can sever the
// connection directly.
func pairedRPCs(lp *loop.Loop) (*rpc.RPC, *rpc.RPC, *socket.Socket, *socket.Socket) {
	sa, sb := dialedPair(lp)
	var wb *websocket.Websocket
	sb.OnRaw(func(s *socket.Socket) {
		buf := make([]byte, 4096)
		n, _ := s.Read(buf)
		key, _ := websocket.ParseUpgradeRequest(string(buf[:n]))
		_ = s.Send(websocket.ServerHandshakeResponse(key))
		wb = websocket.NewServer(lp, s, nil)
	})
	wa := websocket.NewClient(lp, sa, "127.0.0.1", "/ws", "", "", nil, nil)
	initDone := false
	wa.OnInit(func() { initDone = true })
	pump(lp, func() bool { return initDone })
	return rpc.New(lp, wa, nil), rpc.New(lp, wb, nil), sa, sb
}

var _ = Describe("RPC", func() {
	var lp *loop.Loop

	BeforeEach(func() {
		lp = loop.New(nil)
	})

	It("resolves a foreground call against a published echo handler (scenario S1)", func() {
		a, b, _, _ := pairedRPCs(lp)

		b.Publish("echo", coroutine.WrapPlain("echo", func(args []value.Value, kwargs value.Value) value.Value {
			return args[0]
		}))

		var result value.Value
		var callErr error
		done := false
		co := coroutine.New()
		_, _, err := co.Start(func(ctx *coroutine.Context, _ []value.Value, _ value.Value) (value.Value, error) {
			v, e := a.Call(ctx, "echo", []value.Value{value.Int(42)}, value.Map())
			result, callErr = v, e
			done = true
			return value.Null, nil
		}, nil, value.Null)
		Expect(err).ToNot(HaveOccurred())

		pump(lp, func() bool { return done })
		Expect(callErr).ToNot(HaveOccurred())
		Expect(result.Kind()).To(Equal(value.KindInt))
		Expect(result.Int()).To(Equal(int64(42)))
	})

	It("delivers a background call reply via its callback", func() {
		a, b, _, _ := pairedRPCs(lp)
		b.Publish("double", coroutine.WrapPlain("double", func(args []value.Value, kwargs value.Value) value.Value {
			return value.Int(args[0].Int() * 2)
		}))

		var got value.Value
		var gotErr error
		replied := false
		Expect(a.CallBackground("double", []value.Value{value.Int(21)}, value.Map(), func(v value.Value, e error) {
			got, gotErr = v, e
			replied = true
		})).To(Succeed())

		pump(lp, func() bool { return replied })
		Expect(gotErr).ToNot(HaveOccurred())
		Expect(got.Int()).To(Equal(int64(42)))
	})

	It("delivers an Event as a call with no id and produces no reply traffic", func() {
		a, b, _, _ := pairedRPCs(lp)
		seen := false
		b.Publish("notify", coroutine.WrapPlain("notify", func(args []value.Value, kwargs value.Value) value.Value {
			seen = true
			return value.Null
		}))

		Expect(a.Event("notify", []value.Value{value.String("hi")}, value.Map())).To(Succeed())
		pump(lp, func() bool { return seen })
		Expect(seen).To(BeTrue())
	})

	It("queues inbound calls received before activation and dispatches them in order after", func() {
		a, b, _, _ := pairedRPCs(lp)

		var order []int64
		b.Publish("mark", coroutine.WrapPlain("mark", func(args []value.Value, kwargs value.Value) value.Value {
			order = append(order, args[0].Int())
			return value.Null
		}))

		// Both RPCs activate via a one-shot idle callback armed in New;
		// firing two background calls back-to-back before the loop ever
		// runs an idle tick exercises the delayed_calls path.
		Expect(a.Event("mark", []value.Value{value.Int(1)}, value.Map())).To(Succeed())
		Expect(a.Event("mark", []value.Value{value.Int(2)}, value.Map())).To(Succeed())

		pump(lp, func() bool { return len(order) == 2 })
		Expect(order).To(Equal([]int64{1, 2}))
	})

	It("resolves many concurrent foreground calls to their own distinct results", func() {
		a, b, _, _ := pairedRPCs(lp)
		b.Publish("double", coroutine.WrapPlain("double", func(args []value.Value, kwargs value.Value) value.Value {
			return value.Int(args[0].Int() * 2)
		}))

		// Each Call runs in its own coroutine and allocates its own id via
		// nextID; driving many of them concurrently and checking every
		// result matches its own input is what would catch a colliding,
		// reused, or zero id in expecting_fg.
		const n = 50
		results := make([]value.Value, n)
		errs := make([]error, n)
		remaining := n
		for i := 0; i < n; i++ {
			i := i
			co := coroutine.New()
			_, _, err := co.Start(func(ctx *coroutine.Context, _ []value.Value, _ value.Value) (value.Value, error) {
				v, e := a.Call(ctx, "double", []value.Value{value.Int(int64(i))}, value.Map())
				results[i], errs[i] = v, e
				remaining--
				return value.Null, nil
			}, nil, value.Null)
			Expect(err).ToNot(HaveOccurred())
		}

		pump(lp, func() bool { return remaining == 0 })
		for i := 0; i < n; i++ {
			Expect(errs[i]).ToNot(HaveOccurred())
			Expect(results[i].Int()).To(Equal(int64(i * 2)))
		}
	})

	It("fails every outstanding foreground call with a transport error on disconnect", func() {
		a, b, _, sb := pairedRPCs(lp)
		b.Publish("hang", coroutine.WrapCoroutine("hang", func(ctx *coroutine.Context, args []value.Value, kwargs value.Value) (value.Value, error) {
			ctx.Yield(value.Null)
			return value.Null, nil
		}))

		var callErr error
		done := false
		co := coroutine.New()
		_, _, err := co.Start(func(ctx *coroutine.Context, _ []value.Value, _ value.Value) (value.Value, error) {
			_, e := a.Call(ctx, "hang", nil, value.Map())
			callErr = e
			done = true
			return value.Null, nil
		}, nil, value.Null)
		Expect(err).ToNot(HaveOccurred())

		// Let the "call" frame reach b and its handler suspend before
		// severing the connection.
		time.Sleep(20 * time.Millisecond)
		lp.RunOnce(false)
		lp.RunOnce(false)

		// Sever from b's side; a's socket observes this as EOF on its own
		// read, which is how a real peer disconnect is detected.
		Expect(sb.Close()).To(Succeed())
		pump(lp, func() bool { return done })
		Expect(callErr).To(HaveOccurred())
	})

	It("routes an error frame to a registered OnError handler instead of the waiting coroutine, even when its id matches an outstanding call (scenario S kind 2)", func() {
		a, b, _, _ := pairedRPCs(lp)
		b.Publish("explode", coroutine.WrapPlain("explode", func(args []value.Value, kwargs value.Value) value.Value {
			panic("boom")
		}))

		var onErrErr error
		onErrSeen := false
		a.OnError(func(err error) {
			onErrErr = err
			onErrSeen = true
		})

		var callErr error
		done := false
		co := coroutine.New()
		_, _, err := co.Start(func(ctx *coroutine.Context, _ []value.Value, _ value.Value) (value.Value, error) {
			_, e := a.Call(ctx, "explode", nil, value.Map())
			callErr = e
			done = true
			return value.Null, nil
		}, nil, value.Null)
		Expect(err).ToNot(HaveOccurred())

		pump(lp, func() bool { return onErrSeen })
		Expect(onErrErr).To(HaveOccurred())
		// The registered handler wins over id-based routing: the coroutine
		// that issued the matching Call is never resumed.
		Expect(done).To(BeFalse())
		Expect(callErr).ToNot(HaveOccurred())
	})

	It("resumes the waiting coroutine with the peer error when no OnError handler is registered", func() {
		a, b, _, _ := pairedRPCs(lp)
		b.Publish("explode", coroutine.WrapPlain("explode", func(args []value.Value, kwargs value.Value) value.Value {
			panic("boom")
		}))

		var callErr error
		done := false
		co := coroutine.New()
		_, _, err := co.Start(func(ctx *coroutine.Context, _ []value.Value, _ value.Value) (value.Value, error) {
			_, e := a.Call(ctx, "explode", nil, value.Map())
			callErr = e
			done = true
			return value.Null, nil
		}, nil, value.Null)
		Expect(err).ToNot(HaveOccurred())

		pump(lp, func() bool { return done })
		Expect(callErr).To(HaveOccurred())
	})
})
