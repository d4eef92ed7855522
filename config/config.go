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

// Package config loads the Loopwire process configuration from a
// YAML/JSON file via github.com/spf13/viper, with LOOPWIRE_-prefixed
// environment variable overrides, the way nabbar-golib/config wires a
// component's settings through a shared viper instance.
package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"

	lerrors "github.com/loopwire/loopwire/errors"
	"github.com/loopwire/loopwire/netproto"
	cfg "github.com/loopwire/loopwire/socket/config"
)

// Loopwire is the top-level configuration for a loopwired process: the
// listener a "serve" invocation binds, and the websocket behavior both
// "serve" and "dial" share.
type Loopwire struct {
	Network        string        `mapstructure:"network"`
	Address        string        `mapstructure:"address"`
	Path           string        `mapstructure:"path"`
	ReadMode       string        `mapstructure:"read_mode"`
	KeepaliveEvery time.Duration `mapstructure:"keepalive_every"`
	TLS            bool          `mapstructure:"tls"`
	TLSCertFile    string        `mapstructure:"tls_cert_file"`
	TLSKeyFile     string        `mapstructure:"tls_key_file"`
}

// Defaults matches the zero-config posture a developer expects when
// running loopwired with no file at all.
func Defaults() Loopwire {
	return Loopwire{
		Network:        "tcp",
		Address:        ":7845",
		Path:           "/ws",
		ReadMode:       "chunk",
		KeepaliveEvery: 30 * time.Second,
	}
}

// Load reads path (if non-empty) as a viper config file, layers
// LOOPWIRE_*-prefixed environment variables over it, and unmarshals the
// result onto Defaults(). An empty or missing path is not an error: the
// defaults plus any environment overrides are returned as-is.
func Load(path string) (Loopwire, error) {
	out := Defaults()

	v := viper.New()
	v.SetEnvPrefix("LOOPWIRE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// AutomaticEnv alone only affects Get; Unmarshal only sees keys viper
	// already knows about, so every field needs a registered default for
	// its environment override to be picked up.
	for key, val := range map[string]interface{}{
		"network":         out.Network,
		"address":         out.Address,
		"path":            out.Path,
		"read_mode":       out.ReadMode,
		"keepalive_every": out.KeepaliveEvery,
		"tls":             out.TLS,
		"tls_cert_file":   out.TLSCertFile,
		"tls_key_file":    out.TLSKeyFile,
	} {
		v.SetDefault(key, val)
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return out, lerrors.Wrap(lerrors.Unknown, "loading config file", err)
		}
	}

	if err := v.Unmarshal(&out); err != nil {
		return out, lerrors.Wrap(lerrors.Unknown, "decoding config", err)
	}
	return out, nil
}

// Protocol resolves the configured Network name to a netproto.Protocol,
// defaulting to TCP on an empty or unrecognized value.
func (l Loopwire) Protocol() netproto.Protocol {
	if p := netproto.Parse(l.Network); p != netproto.Empty {
		return p
	}
	return netproto.TCP
}

// SocketReadMode resolves the configured ReadMode name to a
// cfg.ReadMode, defaulting to ReadChunk (spec 4.4's steady-state mode
// for message-oriented protocols like this one).
func (l Loopwire) SocketReadMode() cfg.ReadMode {
	switch strings.ToLower(l.ReadMode) {
	case "raw":
		return cfg.ReadRaw
	case "line":
		return cfg.ReadLine
	default:
		return cfg.ReadChunk
	}
}
