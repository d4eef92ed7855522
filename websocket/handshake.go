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
	"crypto/sha1"
	"encoding/base64"
	"fmt"
	"strings"
)

// websocketGUID is the RFC 6455 magic string used to derive
// Sec-WebSocket-Accept from Sec-WebSocket-Key.
const websocketGUID = "258EAFA5-E914-47DA-95CA-C5AB0DC85B11"

// fixedClientKey is sent by every client handshake this library issues.
// The key's randomness has no security value for this library's threat
// model and is not verified by the server peer (spec 4.6.1).
const fixedClientKey = "AQIDBAUGBwgJCgsMDQ4PEC=="

// AcceptKey computes Sec-WebSocket-Accept for a given Sec-WebSocket-Key.
func AcceptKey(key string) string {
	sum := sha1.Sum([]byte(key + websocketGUID))
	return base64.StdEncoding.EncodeToString(sum[:])
}

// ClientHandshakeRequest builds the request line and headers this
// library's client sends. host is the Host header value; path the
// request target; extraHeaders and basic-auth user/pass are optional.
func ClientHandshakeRequest(method, path, host string, user, pass string, extraHeaders map[string]string) []byte {
	if method == "" {
		method = "GET"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s HTTP/1.1\r\n", method, path)
	fmt.Fprintf(&b, "Host: %s\r\n", host)
	b.WriteString("Upgrade: websocket\r\n")
	b.WriteString("Connection: Upgrade\r\n")
	fmt.Fprintf(&b, "Sec-WebSocket-Key: %s\r\n", fixedClientKey)
	b.WriteString("Sec-WebSocket-Version: 13\r\n")
	if user != "" || pass != "" {
		tok := base64.StdEncoding.EncodeToString([]byte(user + ":" + pass))
		fmt.Fprintf(&b, "Authorization: Basic %s\r\n", tok)
	}
	for k, v := range extraHeaders {
		fmt.Fprintf(&b, "%s: %s\r\n", k, v)
	}
	b.WriteString("\r\n")
	return []byte(b.String())
}

// handshakeState is the client-side incremental HTTP response parser of
// spec 4.6.1.
type handshakeState int

const (
	httpInactive handshakeState = iota
	httpStart
	httpHeader
	httpDone
)

// clientHandshake accumulates bytes of the server's HTTP response until
// the header section ends, tracking status and header lines.
type clientHandshake struct {
	state   handshakeState
	buf     []byte
	status  int
	headers map[string]string
}

func newClientHandshake() *clientHandshake {
	return &clientHandshake{state: httpStart, headers: map[string]string{}}
}

// feed consumes data, advancing state as complete lines accumulate. It
// returns any bytes past the header terminator (to hand straight to the
// frame parser, per spec 4.6.1) once state reaches httpDone. ok is false
// while more data is still needed.
func (h *clientHandshake) feed(data []byte) (leftover []byte, ok bool, err error) {
	h.buf = append(h.buf, data...)
	for h.state != httpDone {
		idx := indexCRLF(h.buf)
		if idx < 0 {
			return nil, false, nil
		}
		line := string(h.buf[:idx])
		h.buf = h.buf[idx+2:]

		switch h.state {
		case httpStart:
			if err := h.parseStatusLine(line); err != nil {
				return nil, false, err
			}
			h.state = httpHeader
		case httpHeader:
			if line == "" {
				h.state = httpDone
				break
			}
			k, v, ok := splitHeaderLine(line)
			if ok {
				h.headers[strings.ToLower(k)] = v
			}
		}
	}
	return h.buf, true, nil
}

func (h *clientHandshake) parseStatusLine(line string) error {
	parts := strings.SplitN(line, " ", 3)
	if len(parts) < 2 {
		return errFrame("malformed status line: " + line)
	}
	var code int
	if _, err := fmt.Sscanf(parts[1], "%d", &code); err != nil {
		return errFrame("malformed status code: " + parts[1])
	}
	if code != 101 {
		return errFrame(fmt.Sprintf("handshake rejected: status %d", code))
	}
	h.status = code
	return nil
}

func indexCRLF(buf []byte) int {
	for i := 0; i+1 < len(buf); i++ {
		if buf[i] == '\r' && buf[i+1] == '\n' {
			return i
		}
	}
	return -1
}

func splitHeaderLine(line string) (key, value string, ok bool) {
	idx := strings.IndexByte(line, ':')
	if idx < 0 {
		return "", "", false
	}
	return strings.TrimSpace(line[:idx]), strings.TrimSpace(line[idx+1:]), true
}

// ParseUpgradeRequest extracts the pieces of an inbound client request
// the server acceptance path (spec 4.6.2) needs: the Sec-WebSocket-Key
// header, and whether Upgrade: websocket was present.
// headerBlock excludes the trailing blank line.
func ParseUpgradeRequest(headerBlock string) (key string, isUpgrade bool) {
	lines := strings.Split(headerBlock, "\r\n")
	for _, line := range lines {
		k, v, ok := splitHeaderLine(line)
		if !ok {
			continue
		}
		switch strings.ToLower(k) {
		case "sec-websocket-key":
			key = v
		case "upgrade":
			if strings.EqualFold(v, "websocket") {
				isUpgrade = true
			}
		}
	}
	return key, isUpgrade
}

// ServerHandshakeResponse builds the 101 response for an accepted
// upgrade (spec 4.6.2).
func ServerHandshakeResponse(key string) []byte {
	var b strings.Builder
	b.WriteString("HTTP/1.1 101 Switching Protocols\r\n")
	b.WriteString("Upgrade: websocket\r\n")
	b.WriteString("Connection: Upgrade\r\n")
	fmt.Fprintf(&b, "Sec-WebSocket-Accept: %s\r\n", AcceptKey(key))
	b.WriteString("\r\n")
	return []byte(b.String())
}
