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

// Package httpconn is the HTTP boundary collaborator of spec 4.7/6: a
// request-line/header incremental parser, a static-file responder with
// mime detection, a multipart POST decoder, HTTP Basic auth, and the
// Upgrade: websocket branch that hands a connection back into the core
// (websocket.NewServer). It reuses the incremental feed()-based parsing
// style of websocket/handshake.go, generalized from a status line to a
// request line and from a fixed header set to an arbitrary one.
package httpconn

import (
	"strconv"
	"strings"

	lerrors "github.com/loopwire/loopwire/errors"
)

type requestState int

const (
	reqStart requestState = iota
	reqHeader
	reqBody
	reqDone
)

// Request is a parsed HTTP request line plus headers plus, once
// reqDone, a fully buffered body (small-body assumption: this
// collaborator is not a streaming server, per spec 1's non-goals on
// high-throughput serving).
type Request struct {
	Method  string
	Path    string
	Version string
	Headers map[string]string
	Body    []byte
}

// Header looks up a header case-insensitively.
func (r *Request) Header(key string) (string, bool) {
	v, ok := r.Headers[strings.ToLower(key)]
	return v, ok
}

// requestParser accumulates bytes of an inbound HTTP request until the
// header section ends and, if Content-Length names a body, until the
// body is fully buffered.
type requestParser struct {
	state         requestState
	buf           []byte
	req           *Request
	contentLength int
}

func newRequestParser() *requestParser {
	return &requestParser{state: reqStart}
}

// feed consumes data, advancing state as complete lines (and, for a
// body, complete bytes) accumulate. req is non-nil exactly when ok is
// true, at which point leftover holds any bytes past the request
// (pipelining is not supported; leftover is reported so a caller can at
// least detect and reject it).
func (p *requestParser) feed(data []byte) (req *Request, leftover []byte, ok bool, err error) {
	p.buf = append(p.buf, data...)
	for p.state != reqDone {
		if p.state == reqBody {
			if len(p.buf) < p.contentLength {
				return nil, nil, false, nil
			}
			p.req.Body = p.buf[:p.contentLength]
			p.buf = p.buf[p.contentLength:]
			p.state = reqDone
			break
		}

		idx := indexCRLF(p.buf)
		if idx < 0 {
			return nil, nil, false, nil
		}
		line := string(p.buf[:idx])
		p.buf = p.buf[idx+2:]

		switch p.state {
		case reqStart:
			if err := p.parseRequestLine(line); err != nil {
				return nil, nil, false, err
			}
			p.state = reqHeader
		case reqHeader:
			if line == "" {
				if cl, ok := p.req.Header("content-length"); ok {
					n, err := strconv.Atoi(strings.TrimSpace(cl))
					if err != nil || n < 0 {
						return nil, nil, false, lerrors.New(lerrors.ProtocolViolation, "malformed Content-Length: "+cl)
					}
					p.contentLength = n
				}
				if p.contentLength == 0 {
					p.state = reqDone
					break
				}
				p.state = reqBody
				break
			}
			k, v, ok := splitHeaderLine(line)
			if ok {
				p.req.Headers[strings.ToLower(k)] = v
			}
		}
	}
	return p.req, p.buf, true, nil
}

func (p *requestParser) parseRequestLine(line string) error {
	parts := strings.SplitN(line, " ", 3)
	if len(parts) != 3 {
		return lerrors.New(lerrors.ProtocolViolation, "malformed request line: "+line)
	}
	p.req = &Request{
		Method:  parts[0],
		Path:    parts[1],
		Version: parts[2],
		Headers: map[string]string{},
	}
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
