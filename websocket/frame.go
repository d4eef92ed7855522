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

// Package websocket hand-rolls the RFC 6455 framing state machine that
// spec 4.6 specifies (gorilla/websocket is deliberately not used here:
// the incremental, byte-at-a-time parser and the fixed-key handshake
// are the subject matter of this package, not boilerplate to delegate).
package websocket

import "encoding/binary"

// Opcode is the 4-bit frame type field.
type Opcode byte

const (
	OpContinuation Opcode = 0x0
	OpText         Opcode = 0x1
	OpBinary       Opcode = 0x2
	OpClose        Opcode = 0x8
	OpPing         Opcode = 0x9
	OpPong         Opcode = 0xa
)

// Frame is one decoded RFC 6455 frame.
type Frame struct {
	Fin     bool
	Opcode  Opcode
	Masked  bool
	Mask    [4]byte
	Payload []byte
}

// EncodeFrame serializes a single frame. mask is used only when masked is
// true; every call site in this package passes the all-zero mask (spec
// 4.6.4: send always uses an all-zero mask when masking is required).
func EncodeFrame(opcode Opcode, payload []byte, masked bool, mask [4]byte) []byte {
	out := make([]byte, 0, len(payload)+14)

	b0 := byte(0x80) | byte(opcode&0x0f) // FIN always set; this library never sends fragments
	out = append(out, b0)

	n := len(payload)
	maskBit := byte(0)
	if masked {
		maskBit = 0x80
	}
	switch {
	case n < 126:
		out = append(out, maskBit|byte(n))
	case n <= 0xffff:
		out = append(out, maskBit|0x7e)
		var lenBuf [2]byte
		binary.BigEndian.PutUint16(lenBuf[:], uint16(n))
		out = append(out, lenBuf[:]...)
	default:
		out = append(out, maskBit|0x7f)
		var lenBuf [8]byte
		binary.BigEndian.PutUint64(lenBuf[:], uint64(n))
		out = append(out, lenBuf[:]...)
	}

	if masked {
		out = append(out, mask[:]...)
		body := make([]byte, n)
		applyMask(body, payload, mask)
		out = append(out, body...)
	} else {
		out = append(out, payload...)
	}
	return out
}

// applyMask XORs src into dst with mask, byte-rotating the mask index
// (spec 4.6.4). An all-zero mask is a fast-path copy, since the send
// path always uses one and the library's threat model needs no
// randomness here.
func applyMask(dst, src []byte, mask [4]byte) {
	if mask == ([4]byte{}) {
		copy(dst, src)
		return
	}
	i := 0
	for ; i+4 <= len(src); i += 4 {
		dst[i+0] = src[i+0] ^ mask[0]
		dst[i+1] = src[i+1] ^ mask[1]
		dst[i+2] = src[i+2] ^ mask[2]
		dst[i+3] = src[i+3] ^ mask[3]
	}
	for ; i < len(src); i++ {
		dst[i] = src[i] ^ mask[i%4]
	}
}

// frameDecoder incrementally parses frames out of an append-only buffer
// (spec 4.6.3: "fully incremental ... returns and waits for more").
type frameDecoder struct {
	buf []byte
}

// feed appends newly read bytes to the decoder's buffer.
func (d *frameDecoder) feed(data []byte) {
	d.buf = append(d.buf, data...)
}

// next attempts to pull one complete frame off the front of the buffer.
// It returns (nil, false, nil) when more bytes are needed. requireMask
// enforces the server side's "mask presence must match expectation"
// rule (servers require masked frames, clients require unmasked ones).
func (d *frameDecoder) next(requireMask bool) (*Frame, bool, error) {
	buf := d.buf
	if len(buf) < 2 {
		return nil, false, nil
	}

	b0, b1 := buf[0], buf[1]
	fin := b0&0x80 != 0
	rsv := b0 & 0x70
	opcode := Opcode(b0 & 0x0f)
	masked := b1&0x80 != 0
	len7 := int(b1 & 0x7f)

	if rsv != 0 {
		return nil, true, errFrame("non-zero RSV bits")
	}
	if masked != requireMask {
		return nil, true, errFrame("mask presence mismatch")
	}

	off := 2
	var payloadLen uint64
	switch {
	case len7 < 126:
		payloadLen = uint64(len7)
	case len7 == 126:
		if len(buf) < off+2 {
			return nil, false, nil
		}
		payloadLen = uint64(binary.BigEndian.Uint16(buf[off : off+2]))
		off += 2
	default: // 127
		if len(buf) < off+8 {
			return nil, false, nil
		}
		payloadLen = binary.BigEndian.Uint64(buf[off : off+8])
		off += 8
	}

	var mask [4]byte
	if masked {
		if len(buf) < off+4 {
			return nil, false, nil
		}
		copy(mask[:], buf[off:off+4])
		off += 4
	}

	total := off + int(payloadLen)
	if uint64(total-off) != payloadLen || len(buf) < total {
		return nil, false, nil
	}

	payload := make([]byte, payloadLen)
	if masked {
		applyMask(payload, buf[off:total], mask)
	} else {
		copy(payload, buf[off:total])
	}

	d.buf = append([]byte(nil), buf[total:]...)
	return &Frame{Fin: fin, Opcode: opcode, Masked: masked, Mask: mask, Payload: payload}, true, nil
}

type frameError string

func errFrame(msg string) error { return frameError(msg) }
func (e frameError) Error() string { return "websocket: " + string(e) }
