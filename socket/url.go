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

package socket

import "strings"

// URL is the parsed form of a loopwire address string (spec 3.3, 6):
// "[scheme://]host[:port][/path][;params][?query][#frag]", or a bare
// "/..." path naming a UNIX-domain socket.
type URL struct {
	Scheme   string
	Host     string
	Port     string
	Path     string
	Params   string
	Query    string
	Fragment string

	// Service mirrors Port, falling back to Scheme when Port is empty,
	// the way getaddrinfo's "service" argument works.
	Service string
	// Unix is set (and everything else left empty) when the address is
	// a bare filesystem path denoting a UNIX-domain socket.
	Unix string
}

// ParseURL parses addr per spec 4.4/6. A path beginning with "/" that
// carries no scheme and no port is a UNIX-domain socket path.
func ParseURL(addr string) *URL {
	if strings.HasPrefix(addr, "/") {
		return &URL{Unix: addr}
	}

	u := &URL{}
	rest := addr

	if idx := strings.Index(rest, "://"); idx >= 0 {
		u.Scheme = rest[:idx]
		rest = rest[idx+3:]
	}

	if idx := strings.IndexByte(rest, '#'); idx >= 0 {
		u.Fragment = rest[idx+1:]
		rest = rest[:idx]
	}
	if idx := strings.IndexByte(rest, '?'); idx >= 0 {
		u.Query = rest[idx+1:]
		rest = rest[:idx]
	}
	if idx := strings.IndexByte(rest, ';'); idx >= 0 {
		u.Params = rest[idx+1:]
		rest = rest[:idx]
	}

	hostport := rest
	if idx := strings.IndexByte(rest, '/'); idx >= 0 {
		hostport = rest[:idx]
		u.Path = rest[idx:]
	}

	if strings.HasPrefix(hostport, "/") {
		// scheme-less bare path with a fragment/query/params attached;
		// still a UNIX path.
		return &URL{Unix: hostport + u.Path, Fragment: u.Fragment, Query: u.Query, Params: u.Params}
	}

	if idx := strings.LastIndexByte(hostport, ':'); idx >= 0 && !strings.Contains(hostport[idx+1:], ":") {
		u.Host = hostport[:idx]
		u.Port = hostport[idx+1:]
	} else {
		u.Host = hostport
	}

	u.Service = u.Port
	if u.Service == "" {
		u.Service = u.Scheme
	}
	return u
}
