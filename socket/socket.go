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

// Package socket implements the non-blocking stream-socket abstraction of
// spec 4.4: a Socket owns a file descriptor registered with a loop.Loop,
// dispatches inbound bytes through exactly one active read mode (raw,
// chunked, or line-split), and provides a blocking, short-write-safe
// Send.
package socket

import (
	"errors"
	"io"
	"net"
	"syscall"

	"golang.org/x/sys/unix"

	"github.com/loopwire/loopwire/logger"
	"github.com/loopwire/loopwire/loop"
	cfg "github.com/loopwire/loopwire/socket/config"
)

// Socket wraps one non-blocking stream connection (spec 3.3).
type Socket struct {
	fd   int
	conn net.Conn // kept to own the fd's lifetime and for address info
	url  *URL
	name string

	mode     cfg.ReadMode
	maxChunk int
	pending  []byte

	lp *loop.Loop
	io loop.IOHandle
	log logger.Logger

	onRaw        func(s *Socket)
	onChunk      func(data []byte)
	onLine       func(line []byte)
	onDisconnect func()
	onError      func(err error)

	server serverBackref // back-reference, set when accepted from a Server
	closed bool
}

// serverBackref is the narrow view of socket/server.Server a Socket
// needs to deregister itself on Close, kept as an interface so this
// package does not import socket/server (which imports this package).
type serverBackref interface {
	Forget(s *Socket)
}

// fdFromConn recovers the raw, already-non-blocking file descriptor
// backing conn without duplicating it, so it can be registered directly
// with loop.Loop's poll table.
func fdFromConn(conn net.Conn) (int, error) {
	sc, ok := conn.(syscall.Conn)
	if !ok {
		return -1, errors.New("socket: connection does not expose a raw fd")
	}
	raw, err := sc.SyscallConn()
	if err != nil {
		return -1, err
	}
	var fd int
	ctrlErr := raw.Control(func(f uintptr) { fd = int(f) })
	if ctrlErr != nil {
		return -1, ctrlErr
	}
	return fd, nil
}

// New wraps an already-established net.Conn (from Dial or a Server's
// accept loop) as a Socket and wires its fd into lp.
func New(lp *loop.Loop, conn net.Conn, u *URL, name string, log logger.Logger) (*Socket, error) {
	fd, err := fdFromConn(conn)
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = logger.Nop()
	}
	s := &Socket{
		fd: fd, conn: conn, url: u, name: name,
		mode: cfg.ReadRaw, maxChunk: cfg.DefaultMaxChunkSize,
		lp: lp, log: log,
	}
	s.io = lp.AddIO(fd, loop.Readable, s.handleReadable, nil, s.handleError, s, name)
	return s, nil
}

func (s *Socket) FD() int { return s.fd }

func (s *Socket) Name() string { return s.name }

func (s *Socket) URL() *URL { return s.url }

func (s *Socket) Closed() bool { return s.closed }

// AttachServer records the Server that accepted s, so Close can remove s
// from its remotes set.
func (s *Socket) AttachServer(srv serverBackref) { s.server = srv }

// SetMode switches the active read-mode dispatcher. Any bytes already
// buffered are redelivered under the new mode's semantics before further
// reads are dispatched (spec 4.4: "switching modes flushes pending
// buffered bytes back to the caller").
func (s *Socket) SetMode(mode cfg.ReadMode) {
	if s.mode == mode {
		return
	}
	s.mode = mode
	if len(s.pending) == 0 {
		return
	}
	buf := s.pending
	s.pending = nil
	s.deliver(buf)
}

func (s *Socket) OnRaw(cb func(s *Socket))         { s.onRaw = cb }
func (s *Socket) OnChunk(cb func(data []byte))      { s.onChunk = cb }
func (s *Socket) OnLine(cb func(line []byte))       { s.onLine = cb }
func (s *Socket) OnDisconnect(cb func())            { s.onDisconnect = cb }
func (s *Socket) OnError(cb func(err error))        { s.onError = cb }

func (s *Socket) SetMaxChunkSize(n int) { s.maxChunk = n }

// Read drains up to len(buf) bytes directly from the fd. It is only
// meaningful from within an OnRaw callback, which owns draining the fd
// itself (spec 4.4 Raw mode).
func (s *Socket) Read(buf []byte) (int, error) {
	return unix.Read(s.fd, buf)
}

// handleReadable is the loop.Callback driving all three read modes.
func (s *Socket) handleReadable() bool {
	if s.mode == cfg.ReadRaw {
		if s.onRaw != nil {
			s.onRaw(s)
		}
		return true
	}

	buf := make([]byte, s.maxChunk)
	n, err := unix.Read(s.fd, buf)
	if n > 0 {
		s.deliver(buf[:n])
	}
	if err != nil && !errors.Is(err, unix.EAGAIN) && !errors.Is(err, unix.EINTR) {
		s.closeWithCause(err)
		return false
	}
	if n == 0 && err == nil {
		s.closeWithCause(io.EOF)
		return false
	}
	return true
}

func (s *Socket) deliver(data []byte) {
	switch s.mode {
	case cfg.ReadChunk:
		if s.onChunk != nil {
			s.onChunk(data)
		}
	case cfg.ReadLine:
		s.pending = append(s.pending, data...)
		for {
			idx, width := indexNewline(s.pending)
			if idx < 0 {
				return
			}
			line := s.pending[:idx]
			rest := s.pending[idx+width:]
			s.pending = append([]byte(nil), rest...)
			if s.onLine != nil {
				s.onLine(line)
			}
		}
	default: // ReadRaw reached via SetMode flush before the caller reattaches
		if s.onChunk != nil {
			s.onChunk(data)
		}
	}
}

// indexNewline finds the first "\r\n", "\n", or "\r" in buf and returns
// its start index and terminator width, or (-1, 0) if none is present.
func indexNewline(buf []byte) (int, int) {
	for i, c := range buf {
		switch c {
		case '\n':
			return i, 1
		case '\r':
			if i+1 < len(buf) && buf[i+1] == '\n' {
				return i, 2
			}
			return i, 1
		}
	}
	return -1, 0
}

func (s *Socket) handleError() bool {
	s.closeWithCause(errors.New("socket: fd error"))
	return false
}

// Send blocks until all of data is written, retrying short writes and
// treating EPIPE/EOF as a close (spec 4.4 Send).
func (s *Socket) Send(data []byte) error {
	for len(data) > 0 {
		n, err := unix.Write(s.fd, data)
		if n > 0 {
			data = data[n:]
		}
		if err == nil {
			continue
		}
		if errors.Is(err, unix.EAGAIN) || errors.Is(err, unix.EINTR) {
			continue
		}
		s.closeWithCause(err)
		return err
	}
	return nil
}

func (s *Socket) closeWithCause(cause error) {
	if s.closed {
		return
	}
	s.Close()
	if s.onDisconnect != nil {
		s.onDisconnect()
	}
	if cause != nil && !errors.Is(cause, io.EOF) && s.onError != nil {
		s.onError(cause)
	}
}

// Close releases the fd and removes it from the owning server's remote
// list, if any (spec 4.4 Disconnect, 4.5).
func (s *Socket) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	s.lp.RemoveIO(s.io)
	err := s.conn.Close()
	if s.server != nil {
		s.server.Forget(s)
	}
	return err
}
