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

// Package errors provides a small coded error type, grounded on
// nabbar-golib/errors: every error in loopwire carries a Code (a small
// uint16 enum) alongside its message and an optional wrapped cause, so callers
// can branch on Code instead of matching strings, and still use the
// standard errors.Is / errors.As machinery.
package errors

import (
	"fmt"
)

// Code classifies the five error kinds spec 7 defines.
type Code uint16

const (
	Unknown Code = iota
	// ProtocolViolation: bad frame, wrong mask, invalid RSV, bad handshake.
	ProtocolViolation
	// PeerError: a "error" RPC frame delivered by the remote peer.
	PeerError
	// Transport: read/write failure, EOF, connection reset.
	Transport
	// HandlerPanic: an inbound RPC handler raised instead of returning.
	HandlerPanic
	// ValueMisuse: wrong-type Value access or serializing a Callable.
	ValueMisuse
)

func (c Code) String() string {
	switch c {
	case ProtocolViolation:
		return "protocol-violation"
	case PeerError:
		return "peer-error"
	case Transport:
		return "transport"
	case HandlerPanic:
		return "handler-panic"
	case ValueMisuse:
		return "value-misuse"
	default:
		return "unknown"
	}
}

// Error is loopwire's coded error. It satisfies the standard error
// interface and supports Unwrap so errors.Is/As work against wrapped
// causes.
type Error struct {
	Code    Code
	Message string
	Cause   error
}

func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

func Wrap(code Code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, Cause: cause}
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// Is supports errors.Is(err, Code) style matching against a sentinel
// built with New(code, "").
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// CodeOf extracts the Code from err if it is (or wraps) an *Error;
// Unknown otherwise.
func CodeOf(err error) Code {
	for err != nil {
		if e, ok := err.(*Error); ok {
			return e.Code
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			break
		}
		err = u.Unwrap()
	}
	return Unknown
}
