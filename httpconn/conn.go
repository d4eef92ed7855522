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
	"fmt"
	"strings"

	cfg "github.com/loopwire/loopwire/socket/config"

	"github.com/loopwire/loopwire/logger"
	"github.com/loopwire/loopwire/loop"
	"github.com/loopwire/loopwire/socket"
	"github.com/loopwire/loopwire/websocket"
)

// UpgradeFunc is invoked once a connection has been switched to
// websocket protocol (the 101 response already written); it typically
// wraps ws in an rpc.RPC.
type UpgradeFunc func(ws *websocket.Websocket, req *Request)

// Conn drives the request parser over a raw socket and is the single
// entry point for the HTTP boundary (spec 6): serve a static file,
// decode a multipart POST, check Basic auth, or hand off to the
// websocket upgrade path.
type Conn struct {
	sock   *socket.Socket
	lp     *loop.Loop
	log    logger.Logger
	parser *requestParser

	static   *StaticResponder
	authHook AuthHook
	onUpgrade UpgradeFunc
}

// NewConn puts sock into raw read mode and begins parsing HTTP requests
// from it. static may be nil to disable file serving (404 for every
// non-upgrade GET; POST goes to the multipart decoder and other methods
// get 501 either way); authHook may be nil to disable Basic auth.
func NewConn(lp *loop.Loop, sock *socket.Socket, static *StaticResponder, authHook AuthHook, onUpgrade UpgradeFunc, log logger.Logger) *Conn {
	if log == nil {
		log = logger.Nop()
	}
	c := &Conn{
		sock: sock, lp: lp, log: log, parser: newRequestParser(),
		static: static, authHook: authHook, onUpgrade: onUpgrade,
	}
	sock.SetMode(cfg.ReadRaw)
	sock.OnRaw(c.handleRaw)
	return c
}

func (c *Conn) handleRaw(s *socket.Socket) {
	buf := make([]byte, 64*1024)
	n, err := s.Read(buf)
	if n > 0 {
		c.consume(buf[:n])
	}
	if err != nil && !isWouldBlock(err) {
		s.Close()
		return
	}
	if n == 0 && err == nil {
		s.Close()
	}
}

func (c *Conn) consume(data []byte) {
	req, leftover, ok, err := c.parser.feed(data)
	if err != nil {
		c.writeStatus(400, nil)
		c.sock.Close()
		return
	}
	if !ok {
		return
	}
	c.handleRequest(req, leftover)
}

func (c *Conn) handleRequest(req *Request, leftover []byte) {
	key, isUpgrade := websocket.ParseUpgradeRequest(headerBlock(req))
	if isUpgrade {
		c.handleUpgrade(req, key, leftover)
		return
	}

	if c.authHook != nil && !CheckBasicAuth(req, c.authHook) {
		resp := newResponse(401)
		resp.Headers["WWW-Authenticate"] = `Basic realm="loopwire"`
		c.writeResponse(resp)
		return
	}

	switch {
	case req.Method == "GET" && c.static != nil:
		c.writeResponse(c.static.Serve(req.Path))
	case req.Method == "GET":
		c.writeStatus(404, nil)
	case req.Method == "POST":
		c.handleMultipartPost(req)
	default:
		c.writeStatus(501, nil)
	}
}

func (c *Conn) handleMultipartPost(req *Request) {
	parts, err := ParseMultipart(req)
	if err != nil {
		c.writeStatus(400, nil)
		return
	}
	resp := newResponse(200)
	resp.Headers["Content-Type"] = "text/plain"
	resp.Body = []byte(fmt.Sprintf("received %d part(s)", len(parts)))
	c.writeResponse(resp)
}

func (c *Conn) handleUpgrade(req *Request, key string, leftover []byte) {
	if key == "" {
		c.writeStatus(400, nil)
		c.sock.Close()
		return
	}
	if c.onUpgrade == nil {
		c.writeStatus(503, nil)
		c.sock.Close()
		return
	}
	if err := c.sock.Send(websocket.ServerHandshakeResponse(key)); err != nil {
		return
	}
	ws := websocket.NewServer(c.lp, c.sock, c.log)
	ws.Prime(leftover)
	c.onUpgrade(ws, req)
}

// headerBlock reconstructs the "Method Path Version\r\nK: V\r\n...\r\n"
// shape websocket.ParseUpgradeRequest expects, since Conn's own parser
// has already split the request into structured fields.
func headerBlock(req *Request) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s %s\r\n", req.Method, req.Path, req.Version)
	for k, v := range req.Headers {
		fmt.Fprintf(&b, "%s: %s\r\n", k, v)
	}
	return b.String()
}

var statusText = map[int]string{
	101: "Switching Protocols",
	200: "OK",
	400: "Bad Request",
	401: "Unauthorized",
	404: "Not Found",
	500: "Internal Server Error",
	501: "Not Implemented",
	503: "Service Unavailable",
}

func (c *Conn) writeStatus(status int, headers map[string]string) {
	c.writeResponse(&Response{Status: status, Headers: headers})
}

func (c *Conn) writeResponse(resp *Response) {
	var b strings.Builder
	fmt.Fprintf(&b, "HTTP/1.1 %d %s\r\n", resp.Status, statusText[resp.Status])
	fmt.Fprintf(&b, "Content-Length: %d\r\n", len(resp.Body))
	for k, v := range resp.Headers {
		fmt.Fprintf(&b, "%s: %s\r\n", k, v)
	}
	b.WriteString("\r\n")
	_ = c.sock.Send([]byte(b.String()))
	if len(resp.Body) > 0 {
		_ = c.sock.Send(resp.Body)
	}
}

func isWouldBlock(err error) bool {
	type temporary interface{ Temporary() bool }
	t, ok := err.(temporary)
	return ok && t.Temporary()
}
