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

// Package logger is a thin leveled-logging facade over logrus, grounded
// on nabbar-golib/logger. loopwire's core never calls fmt.Println or the
// stdlib log package directly; every "log a warning"/"log at level >= 2"
// instruction in spec 4.1/4.6/4.7/7 goes through here.
package logger

import (
	"os"
	"strconv"

	"github.com/sirupsen/logrus"
)

// Logger is the interface every loopwire component depends on, so tests
// can swap in a recording fake without pulling in logrus.
type Logger interface {
	WithField(key string, val any) Logger
	WithFields(fields Fields) Logger
	Debug(args ...any)
	Info(args ...any)
	Warn(args ...any)
	Error(args ...any)
}

type Fields map[string]any

type logger struct {
	entry *logrus.Entry
}

// New builds a Logger backed by logrus, with level set from the DEBUG
// environment variable per spec 6 (0-5, 0 quietest).
func New() Logger {
	l := logrus.New()
	l.SetLevel(levelFromDebugEnv())
	return &logger{entry: logrus.NewEntry(l)}
}

// levelFromDebugEnv maps DEBUG=0..5 onto logrus levels, matching the
// teacher's verbosity-knob-to-logrus-level convention.
func levelFromDebugEnv() logrus.Level {
	raw := os.Getenv("DEBUG")
	n, err := strconv.Atoi(raw)
	if err != nil {
		n = 0
	}
	switch {
	case n <= 0:
		return logrus.ErrorLevel
	case n == 1:
		return logrus.WarnLevel
	case n == 2:
		return logrus.InfoLevel
	case n == 3:
		return logrus.DebugLevel
	default:
		return logrus.TraceLevel
	}
}

func (l *logger) WithField(key string, val any) Logger {
	return &logger{entry: l.entry.WithField(key, val)}
}

func (l *logger) WithFields(fields Fields) Logger {
	return &logger{entry: l.entry.WithFields(logrus.Fields(fields))}
}

func (l *logger) Debug(args ...any) { l.entry.Debug(args...) }
func (l *logger) Info(args ...any)  { l.entry.Info(args...) }
func (l *logger) Warn(args ...any)  { l.entry.Warn(args...) }
func (l *logger) Error(args ...any) { l.entry.Error(args...) }

// Nop returns a Logger that discards everything; useful as a default so
// components never need a nil check.
func Nop() Logger { return nopLogger{} }

type nopLogger struct{}

func (nopLogger) WithField(string, any) Logger    { return nopLogger{} }
func (nopLogger) WithFields(Fields) Logger        { return nopLogger{} }
func (nopLogger) Debug(...any)                    {}
func (nopLogger) Info(...any)                     {}
func (nopLogger) Warn(...any)                     {}
func (nopLogger) Error(...any)                    {}
