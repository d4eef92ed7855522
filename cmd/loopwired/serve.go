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

package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sys/unix"

	"github.com/loopwire/loopwire/coroutine"
	"github.com/loopwire/loopwire/httpconn"
	"github.com/loopwire/loopwire/logger"
	"github.com/loopwire/loopwire/loop"
	"github.com/loopwire/loopwire/rpc"
	"github.com/loopwire/loopwire/socket"
	"github.com/loopwire/loopwire/socket/server"
	cfg "github.com/loopwire/loopwire/socket/config"
	"github.com/loopwire/loopwire/value"
	"github.com/loopwire/loopwire/websocket"
)

type serveOptions struct {
	global     *globalOptions
	staticRoot string
	authUser   string
	authPass   string
}

func newServeCmd(global *globalOptions) *cobra.Command {
	opts := &serveOptions{global: global}
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "accept connections and serve RPC-over-websocket",
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run()
		},
	}
	flags := cmd.Flags()
	flags.StringVar(&opts.staticRoot, "static", "", "directory to serve over plain HTTP GET (disabled if empty)")
	flags.StringVar(&opts.authUser, "auth-user", "", "require Basic auth with this username (disabled if empty)")
	flags.StringVar(&opts.authPass, "auth-pass", "", "password for --auth-user")
	return cmd
}

func (o *serveOptions) run() error {
	cfgv, err := o.global.load()
	if err != nil {
		return err
	}

	log := logger.New()
	lp := loop.New(log)

	var static *httpconn.StaticResponder
	if o.staticRoot != "" {
		static = httpconn.NewStaticResponder(httpconn.NewMimeTable("/etc/mime.types"), o.staticRoot)
	}

	var authHook httpconn.AuthHook
	if o.authUser != "" {
		authHook = func(user, pass string) bool {
			return user == o.authUser && pass == o.authPass
		}
	}

	onUpgrade := func(ws *websocket.Websocket, req *httpconn.Request) {
		r := rpc.New(lp, ws, log)
		r.Publish("echo", coroutine.WrapPlain("echo", func(args []value.Value, _ value.Value) value.Value {
			if len(args) == 0 {
				return value.Null
			}
			return args[0]
		}))
		r.OnError(func(err error) {
			log.WithField("err", err).Warn("rpc error")
		})
	}

	accept := func(s *socket.Socket) {
		log.WithField("conn", s.Name()).Info("accepted connection")
		httpconn.NewConn(lp, s, static, authHook, onUpgrade, log)
	}

	srvCfg := cfg.Server{Network: cfgv.Protocol(), Address: cfgv.Address}
	srv, err := server.New(lp, accept, srvCfg, log)
	if err != nil {
		return err
	}

	log.WithField("address", srv.Addr().String()).Info("listening")

	// Signals arrive on their own goroutine, but Loop forbids cross-thread
	// calls (spec 5): a self-pipe wakes the poll loop so the actual
	// Stop() runs from inside an IO callback on the loop's own goroutine.
	pipeFDs := make([]int, 2)
	if err := unix.Pipe2(pipeFDs, unix.O_NONBLOCK); err != nil {
		return err
	}
	readFD, writeFD := pipeFDs[0], pipeFDs[1]
	lp.AddIO(readFD, loop.Readable, func() bool {
		var b [1]byte
		_, _ = unix.Read(readFD, b[:])
		lp.Stop(false)
		return false
	}, nil, nil, srv, "signal")

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sig
		_, _ = unix.Write(writeFD, []byte{1})
	}()

	lp.Run()
	return nil
}
