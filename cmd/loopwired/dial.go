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
	"fmt"
	"net"

	"github.com/spf13/cobra"

	"github.com/loopwire/loopwire/coroutine"
	"github.com/loopwire/loopwire/logger"
	"github.com/loopwire/loopwire/loop"
	"github.com/loopwire/loopwire/rpc"
	"github.com/loopwire/loopwire/socket"
	"github.com/loopwire/loopwire/value"
	"github.com/loopwire/loopwire/websocket"
)

type dialOptions struct {
	global *globalOptions
	target string
	args   []string
	user   string
	pass   string
}

func newDialCmd(global *globalOptions) *cobra.Command {
	opts := &dialOptions{global: global}
	cmd := &cobra.Command{
		Use:   "dial TARGET [ARGS...]",
		Short: "connect to a loopwired server and issue a single RPC call",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.target = args[0]
			opts.args = args[1:]
			return opts.run()
		},
	}
	flags := cmd.Flags()
	flags.StringVar(&opts.user, "auth-user", "", "Basic auth username, if the server requires one")
	flags.StringVar(&opts.pass, "auth-pass", "", "Basic auth password")
	return cmd
}

func (o *dialOptions) run() error {
	cfgv, err := o.global.load()
	if err != nil {
		return err
	}

	log := logger.New()
	lp := loop.New(log)

	conn, err := net.Dial(cfgv.Protocol().String(), cfgv.Address)
	if err != nil {
		return fmt.Errorf("dial %s: %w", cfgv.Address, err)
	}
	sock, err := socket.New(lp, conn, nil, "dial", log)
	if err != nil {
		return err
	}

	ws := websocket.NewClient(lp, sock, cfgv.Address, cfgv.Path, o.user, o.pass, nil, log)
	r := rpc.New(lp, ws, log)

	args := make([]value.Value, len(o.args))
	for i, a := range o.args {
		args[i] = value.String(a)
	}

	var result value.Value
	var callErr error
	done := false

	ws.OnInit(func() {
		co := coroutine.New()
		_, _, startErr := co.Start(func(ctx *coroutine.Context, _ []value.Value, _ value.Value) (value.Value, error) {
			v, e := r.Call(ctx, o.target, args, value.Map())
			result, callErr = v, e
			done = true
			return value.Null, nil
		}, nil, value.Null)
		if startErr != nil {
			callErr = startErr
			done = true
		}
	})

	for !done {
		lp.RunOnce(false)
	}

	if callErr != nil {
		return callErr
	}
	fmt.Println(result.String())
	return nil
}
