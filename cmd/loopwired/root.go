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
	"github.com/spf13/cobra"

	"github.com/loopwire/loopwire/config"
)

// globalOptions holds the flags shared by every subcommand, the way the
// teacher's image/proxy commands thread a *globalOptions through each
// cobra.Command factory.
type globalOptions struct {
	configFile string
}

func newRootCmd() *cobra.Command {
	global := &globalOptions{}

	root := &cobra.Command{
		Use:   "loopwired",
		Short: "loopwire reactor: serve or dial RPC-over-websocket connections",
	}
	root.PersistentFlags().StringVar(&global.configFile, "config", "", "path to a loopwire config file (YAML/JSON)")

	root.AddCommand(newServeCmd(global))
	root.AddCommand(newDialCmd(global))
	return root
}

func (g *globalOptions) load() (config.Loopwire, error) {
	return config.Load(g.configFile)
}
