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

package websocket

import (
	"math/rand"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

// feedOneByteAtATime exercises the "fully incremental" guarantee of
// spec 4.6.3/8.1 by delivering the encoded frame in single-byte chunks.
func feedOneByteAtATime(dec *frameDecoder, encoded []byte, requireMask bool) (*Frame, error) {
	var last *Frame
	for i := range encoded {
		dec.feed(encoded[i : i+1])
		f, ok, err := dec.next(requireMask)
		if err != nil {
			return nil, err
		}
		if ok {
			last = f
		}
	}
	return last, nil
}

var _ = Describe("Frame codec", func() {
	DescribeTable("roundtrips payloads of every boundary size, byte at a time",
		func(opcode Opcode, size int) {
			payload := make([]byte, size)
			for i := range payload {
				payload[i] = byte(i)
			}
			encoded := EncodeFrame(opcode, payload, false, [4]byte{})

			var dec frameDecoder
			f, err := feedOneByteAtATime(&dec, encoded, false)
			Expect(err).ToNot(HaveOccurred())
			Expect(f).ToNot(BeNil())
			Expect(f.Opcode).To(Equal(opcode))
			Expect(f.Payload).To(Equal(payload))
			Expect(dec.buf).To(BeEmpty())
		},
		Entry("text, empty", OpText, 0),
		Entry("text, 1 byte", OpText, 1),
		Entry("text, 125 bytes", OpText, 125),
		Entry("text, 126 bytes", OpText, 126),
		Entry("text, 127 bytes", OpText, 127),
		Entry("binary, 65535 bytes", OpBinary, 65535),
		Entry("binary, 65536 bytes", OpBinary, 65536),
	)

	It("delivers a frame exactly once even when more bytes follow", func() {
		payload := []byte("hello")
		encoded := EncodeFrame(OpText, payload, false, [4]byte{})
		var dec frameDecoder
		dec.feed(encoded)
		dec.feed(encoded) // a second frame right behind the first

		f1, ok, err := dec.next(false)
		Expect(err).ToNot(HaveOccurred())
		Expect(ok).To(BeTrue())
		Expect(f1.Payload).To(Equal(payload))

		_, ok, err = dec.next(false)
		Expect(err).ToNot(HaveOccurred())
		Expect(ok).To(BeTrue())

		_, ok, err = dec.next(false)
		Expect(err).ToNot(HaveOccurred())
		Expect(ok).To(BeFalse())
	})

	It("treats masked and unmasked delivery of the same payload identically", func() {
		payload := []byte("the quick brown fox jumps over the lazy dog, 0123456789")

		unmasked := EncodeFrame(OpBinary, payload, false, [4]byte{})
		var dec1 frameDecoder
		dec1.feed(unmasked)
		f1, _, err := dec1.next(false)
		Expect(err).ToNot(HaveOccurred())

		var mask [4]byte
		for i := range mask {
			mask[i] = byte(1 + rand.Intn(255))
		}
		masked := EncodeFrame(OpBinary, payload, true, mask)
		var dec2 frameDecoder
		dec2.feed(masked)
		f2, _, err := dec2.next(true)
		Expect(err).ToNot(HaveOccurred())

		Expect(f2.Payload).To(Equal(f1.Payload))
	})

	It("rejects a non-zero RSV bit", func() {
		encoded := EncodeFrame(OpText, []byte("x"), false, [4]byte{})
		encoded[0] |= 0x40 // set RSV1
		var dec frameDecoder
		dec.feed(encoded)
		_, _, err := dec.next(false)
		Expect(err).To(HaveOccurred())
	})

	It("rejects a masked frame when the caller requires none (client side)", func() {
		encoded := EncodeFrame(OpText, []byte("x"), true, [4]byte{1, 2, 3, 4})
		var dec frameDecoder
		dec.feed(encoded)
		_, _, err := dec.next(false)
		Expect(err).To(HaveOccurred())
	})

	It("waits for more bytes when a 0x7e length is only partially buffered", func() {
		encoded := EncodeFrame(OpBinary, make([]byte, 200), false, [4]byte{})
		var dec frameDecoder
		dec.feed(encoded[:3]) // FIN/opcode byte, mask/len byte, 1 of 2 length bytes
		_, ok, err := dec.next(false)
		Expect(err).ToNot(HaveOccurred())
		Expect(ok).To(BeFalse())

		dec.feed(encoded[3:4]) // the 4th byte completes the 16-bit length
		// still waiting on the payload itself, but the header is now parseable
		dec.feed(encoded[4:])
		f, ok, err := dec.next(false)
		Expect(err).ToNot(HaveOccurred())
		Expect(ok).To(BeTrue())
		Expect(f.Payload).To(HaveLen(200))
	})

	It("delivers an empty payload with FIN as a zero-length message", func() {
		encoded := EncodeFrame(OpText, nil, false, [4]byte{})
		var dec frameDecoder
		dec.feed(encoded)
		f, ok, err := dec.next(false)
		Expect(err).ToNot(HaveOccurred())
		Expect(ok).To(BeTrue())
		Expect(f.Payload).To(BeEmpty())
		Expect(f.Fin).To(BeTrue())
	})
})
