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

// Package config declares the plain-data configuration structs consumed
// by socket and socket/server, split out from the implementation
// packages the way nabbar-golib/socket/config is split from
// nabbar-golib/socket/server.
package config

import (
	"time"

	"github.com/loopwire/loopwire/netproto"
)

// ReadMode selects how a Socket delivers inbound bytes to its owner
// (spec 4.4).
type ReadMode uint8

const (
	// ReadRaw invokes the callback whenever the fd is readable; the
	// callback is responsible for draining it.
	ReadRaw ReadMode = iota
	// ReadChunk delivers up to MaxChunkSize bytes at a time.
	ReadChunk
	// ReadLine delivers one line at a time, stripped of its terminator.
	ReadLine
)

// Socket configures a single Socket (client or server-accepted).
type Socket struct {
	Network       netproto.Protocol
	Address       string
	ReadMode      ReadMode
	MaxChunkSize  int
	ConnectTimeout time.Duration
}

// Server configures a listener (spec 4.5).
type Server struct {
	Network netproto.Protocol
	Address string
}

// DefaultMaxChunkSize matches the teacher's default buffer sizing order
// of magnitude for socket reads.
const DefaultMaxChunkSize = 64 * 1024
