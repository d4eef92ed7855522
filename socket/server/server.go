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

// Package server implements the listener side of spec 4.5: a single
// bound/listening fd registered with a loop.Loop, handing each accepted
// connection to a create callback as a *socket.Socket wired into the
// same loop. Modeled on nabbar-golib/socket/server's New(loop, handler,
// cfg)/Shutdown(ctx) shape, generalized from goroutine-per-connection
// blocking handlers to the reactor's single-threaded dispatch.
package server

import (
	"context"
	"fmt"
	"net"
	"sync"
	"syscall"

	"github.com/google/uuid"

	"github.com/loopwire/loopwire/logger"
	"github.com/loopwire/loopwire/loop"
	"github.com/loopwire/loopwire/netproto"
	"github.com/loopwire/loopwire/socket"
	cfg "github.com/loopwire/loopwire/socket/config"
)

// AcceptFunc is invoked once per accepted connection, before the Socket
// is handed any bytes, so the caller can attach read-mode and callbacks.
type AcceptFunc func(s *socket.Socket)

// Server owns one listening fd and the set of Sockets it has accepted.
type Server struct {
	cfg cfg.Server
	ln  net.Listener
	fd  int
	io  loop.IOHandle
	lp  *loop.Loop
	log logger.Logger

	accept AcceptFunc

	mu      sync.Mutex
	remotes map[*socket.Socket]struct{}
	closed  bool
}

// New binds and starts listening per cfg, registering the listener fd
// with lp. accept is called for every connection the accept loop pulls
// off the backlog.
func New(lp *loop.Loop, accept AcceptFunc, config cfg.Server, log logger.Logger) (*Server, error) {
	if log == nil {
		log = logger.Nop()
	}
	network := config.Network.String()
	if network == "" {
		return nil, fmt.Errorf("server: empty network in config")
	}

	ln, err := net.Listen(network, config.Address)
	if err != nil {
		return nil, fmt.Errorf("server: listen %s %s: %w", network, config.Address, err)
	}

	fd, err := listenerFD(ln)
	if err != nil {
		_ = ln.Close()
		return nil, err
	}

	s := &Server{
		cfg: config, ln: ln, fd: fd, lp: lp, log: log,
		accept: accept, remotes: make(map[*socket.Socket]struct{}),
	}
	s.io = lp.AddIO(fd, loop.Readable, s.handleAcceptable, nil, s.handleAcceptError, s, "server:"+config.Address)
	return s, nil
}

func listenerFD(ln net.Listener) (int, error) {
	sc, ok := ln.(syscall.Conn)
	if !ok {
		return -1, fmt.Errorf("server: listener does not expose a raw fd")
	}
	raw, err := sc.SyscallConn()
	if err != nil {
		return -1, err
	}
	var fd int
	if ctrlErr := raw.Control(func(f uintptr) { fd = int(f) }); ctrlErr != nil {
		return -1, ctrlErr
	}
	return fd, nil
}

func (s *Server) handleAcceptable() bool {
	conn, err := s.ln.Accept()
	if err != nil {
		s.log.WithField("error", err).Warn("server: accept failed")
		return true
	}
	addr := conn.RemoteAddr().String()
	remoteID := uuid.NewString()
	sock, err := socket.New(s.lp, conn, socket.ParseURL(addr), remoteID, s.log)
	if err != nil {
		s.log.WithField("error", err).Warn("server: could not wrap accepted connection")
		_ = conn.Close()
		return true
	}
	sock.AttachServer(s)

	s.mu.Lock()
	s.remotes[sock] = struct{}{}
	s.mu.Unlock()

	acceptedConnectionsTotal.Inc()
	activeRemotes.Inc()

	if s.accept != nil {
		s.accept(sock)
	}
	return true
}

func (s *Server) handleAcceptError() bool {
	s.log.Warn("server: listener fd reported an error")
	return false
}

// Forget removes sock from the remotes set; called from Socket.Close.
func (s *Server) Forget(sock *socket.Socket) {
	s.mu.Lock()
	_, had := s.remotes[sock]
	delete(s.remotes, sock)
	s.mu.Unlock()
	if had {
		activeRemotes.Dec()
	}
}

// Network reports the configured address family.
func (s *Server) Network() netproto.Protocol { return s.cfg.Network }

// Addr reports the listener's bound address, reflecting an OS-assigned
// ephemeral port when the configured address used port 0.
func (s *Server) Addr() net.Addr { return s.ln.Addr() }

// Shutdown stops accepting new connections and closes every remote this
// server accepted. ctx is honored on a best-effort basis: closing fds is
// synchronous, so ctx only bounds how long Shutdown waits on nothing in
// particular today, kept for API parity with the teacher's Shutdown(ctx).
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	remotes := make([]*socket.Socket, 0, len(s.remotes))
	for r := range s.remotes {
		remotes = append(remotes, r)
	}
	s.mu.Unlock()

	s.lp.RemoveIO(s.io)
	err := s.ln.Close()

	for _, r := range remotes {
		_ = r.Close()
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return err
	}
}
