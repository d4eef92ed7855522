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

package server_test

import (
	"context"
	"net"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/loopwire/loopwire/loop"
	"github.com/loopwire/loopwire/netproto"
	"github.com/loopwire/loopwire/socket"
	cfg "github.com/loopwire/loopwire/socket/config"
	"github.com/loopwire/loopwire/socket/server"
)

func pump(lp *loop.Loop, until func() bool) {
	deadline := time.Now().Add(2 * time.Second)
	for !until() && time.Now().Before(deadline) {
		lp.RunOnce(false)
	}
}

var _ = Describe("Server", func() {
	var lp *loop.Loop

	BeforeEach(func() {
		lp = loop.New(nil)
	})

	It("accepts a connection and hands it to the create callback", func() {
		var accepted *socket.Socket
		srv, err := server.New(lp, func(s *socket.Socket) {
			accepted = s
			s.SetMode(cfg.ReadChunk)
		}, cfg.Server{Network: netproto.TCP, Address: "127.0.0.1:0"}, nil)
		Expect(err).ToNot(HaveOccurred())
		defer srv.Shutdown(context.Background())

		conn, err := net.Dial("tcp", srv.Addr().String())
		Expect(err).ToNot(HaveOccurred())
		defer conn.Close()

		pump(lp, func() bool { return accepted != nil })
		Expect(accepted).ToNot(BeNil())
	})

	It("echoes data round-trip through an accepted socket", func() {
		srv, err := server.New(lp, func(s *socket.Socket) {
			s.SetMode(cfg.ReadChunk)
			s.OnChunk(func(data []byte) { _ = s.Send(data) })
		}, cfg.Server{Network: netproto.TCP, Address: "127.0.0.1:0"}, nil)
		Expect(err).ToNot(HaveOccurred())
		defer srv.Shutdown(context.Background())

		conn, err := net.Dial("tcp", srv.Addr().String())
		Expect(err).ToNot(HaveOccurred())
		defer conn.Close()

		_, err = conn.Write([]byte("ping"))
		Expect(err).ToNot(HaveOccurred())

		buf := make([]byte, 4)
		done := make(chan struct{})
		go func() {
			conn.Read(buf)
			close(done)
		}()

		deadline := time.Now().Add(2 * time.Second)
		for time.Now().Before(deadline) {
			lp.RunOnce(false)
			select {
			case <-done:
				Expect(string(buf)).To(Equal("ping"))
				return
			default:
			}
		}
		Fail("timed out waiting for echo")
	})

	It("closes all accepted remotes on Shutdown", func() {
		var accepted *socket.Socket
		srv, err := server.New(lp, func(s *socket.Socket) {
			accepted = s
			s.SetMode(cfg.ReadChunk)
		}, cfg.Server{Network: netproto.TCP, Address: "127.0.0.1:0"}, nil)
		Expect(err).ToNot(HaveOccurred())

		conn, err := net.Dial("tcp", srv.Addr().String())
		Expect(err).ToNot(HaveOccurred())
		defer conn.Close()

		pump(lp, func() bool { return accepted != nil })
		Expect(accepted).ToNot(BeNil())

		Expect(srv.Shutdown(context.Background())).To(Succeed())
		Expect(accepted.Closed()).To(BeTrue())
	})
})
