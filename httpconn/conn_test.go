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

package httpconn

import (
	"net"
	"os"
	"path/filepath"
	"strings"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/loopwire/loopwire/loop"
	"github.com/loopwire/loopwire/socket"
	cfg "github.com/loopwire/loopwire/socket/config"
	"github.com/loopwire/loopwire/websocket"
)

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

var _ = Describe("Conn", func() {
	var lp *loop.Loop

	BeforeEach(func() {
		lp = loop.New(nil)
	})

	It("serves a static file over a raw HTTP GET", func() {
		root := GinkgoT().TempDir()
		Expect(os.WriteFile(filepath.Join(root, "hello.txt"), []byte("hi there"), 0o644)).To(Succeed())

		clientSock, serverSock := dialedPair(lp)
		static := NewStaticResponder(NewMimeTable("/nonexistent"), root)
		NewConn(lp, serverSock, static, nil, nil, nil)

		var response []byte
		clientSock.OnChunk(func(data []byte) { response = append(response, data...) })
		clientSock.SetMode(cfg.ReadChunk)
		Expect(clientSock.Send([]byte("GET /hello.txt HTTP/1.1\r\nHost: x\r\n\r\n"))).To(Succeed())

		pump(lp, func() bool { return len(response) > 0 && strings.Contains(string(response), "hi there") })
		Expect(string(response)).To(ContainSubstring("HTTP/1.1 200 OK"))
		Expect(string(response)).To(ContainSubstring("hi there"))
	})

	It("returns 401 when Basic auth is required and absent", func() {
		clientSock, serverSock := dialedPair(lp)
		NewConn(lp, serverSock, nil, func(string, string) bool { return false }, nil, nil)

		var response []byte
		clientSock.OnChunk(func(data []byte) { response = append(response, data...) })
		clientSock.SetMode(cfg.ReadChunk)
		Expect(clientSock.Send([]byte("GET /x HTTP/1.1\r\nHost: x\r\n\r\n"))).To(Succeed())

		pump(lp, func() bool { return len(response) > 0 })
		Expect(string(response)).To(ContainSubstring("HTTP/1.1 401"))
	})

	It("upgrades to a websocket and hands off the connection", func() {
		clientSock, serverSock := dialedPair(lp)

		var upgraded *websocket.Websocket
		NewConn(lp, serverSock, nil, nil, func(ws *websocket.Websocket, req *Request) {
			upgraded = ws
		}, nil)

		var response []byte
		clientSock.OnChunk(func(data []byte) { response = append(response, data...) })
		clientSock.SetMode(cfg.ReadChunk)
		req := "GET /ws HTTP/1.1\r\nHost: x\r\nUpgrade: websocket\r\nConnection: Upgrade\r\nSec-WebSocket-Key: AQIDBAUGBwgJCgsMDQ4PEC==\r\nSec-WebSocket-Version: 13\r\n\r\n"
		Expect(clientSock.Send([]byte(req))).To(Succeed())

		pump(lp, func() bool { return upgraded != nil })
		Expect(string(response)).To(ContainSubstring("101 Switching Protocols"))
		clientSock.OnChunk(nil)

		var received []byte
		upgraded.OnMessage(func(opcode websocket.Opcode, payload []byte) { received = payload })
		client := websocket.NewClient(lp, clientSock, "x", "/ws", "", "", nil, nil)
		initDone := false
		client.OnInit(func() { initDone = true })

		pump(lp, func() bool { return initDone })
		Expect(client.Send(websocket.OpText, []byte("via http upgrade"))).To(Succeed())

		pump(lp, func() bool { return received != nil })
		Expect(string(received)).To(Equal("via http upgrade"))
	})
})
