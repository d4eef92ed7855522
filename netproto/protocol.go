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

// Package netproto names the address families loopwire's socket layer
// can bind or dial, grounded on nabbar-golib/network/protocol's
// Parse/String split.
package netproto

import "strings"

type Protocol uint8

const (
	Empty Protocol = iota
	TCP
	TCP4
	TCP6
	UDP
	UDP4
	UDP6
	Unix
	UnixGram
	IP
	IP4
	IP6
)

var names = map[Protocol]string{
	TCP: "tcp", TCP4: "tcp4", TCP6: "tcp6",
	UDP: "udp", UDP4: "udp4", UDP6: "udp6",
	Unix: "unix", UnixGram: "unixgram",
	IP: "ip", IP4: "ip4", IP6: "ip6",
}

var byName = func() map[string]Protocol {
	m := make(map[string]Protocol, len(names))
	for p, n := range names {
		m[n] = p
	}
	return m
}()

func (p Protocol) String() string {
	if s, ok := names[p]; ok {
		return s
	}
	return ""
}

// Parse is case-insensitive and returns Empty for anything it does not
// recognize, matching the teacher's network/protocol.Parse contract.
func Parse(s string) Protocol {
	p, ok := byName[strings.ToLower(s)]
	if !ok {
		return Empty
	}
	return p
}

// IsStream reports whether p is a connection-oriented, stream-framed
// family (TCP variants and Unix), as opposed to a datagram family.
func (p Protocol) IsStream() bool {
	switch p {
	case TCP, TCP4, TCP6, Unix:
		return true
	default:
		return false
	}
}

// IsUnix reports whether p addresses the filesystem rather than a host/port.
func (p Protocol) IsUnix() bool {
	return p == Unix || p == UnixGram
}
