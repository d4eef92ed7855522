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

package value_test

import (
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/loopwire/loopwire/value"
)

var _ = Describe("Value", func() {
	Describe("JSON round-trip", func() {
		It("round-trips a nested tree", func() {
			v := value.Map()
			v.Set("a", value.Int(42))
			v.Set("b", value.Vector(value.String("x"), value.Bool(true), value.Null))
			v.Set("c", value.Float(3.5))

			out, err := value.Load(value.Dump(v))
			Expect(err).ToNot(HaveOccurred())
			Expect(value.Equal(out, v)).To(BeTrue())
		})

		It("is deterministic given insertion order", func() {
			v1 := value.Map()
			v1.Set("z", value.Int(1))
			v1.Set("a", value.Int(2))

			v2 := value.Map()
			v2.Set("z", value.Int(1))
			v2.Set("a", value.Int(2))

			Expect(value.Dump(v1)).To(Equal(value.Dump(v2)))
			Expect(value.Dump(v1)).To(Equal(`{"z":1,"a":2}`))
		})

		It("round-trips special float literals", func() {
			for _, f := range []float64{math.NaN(), math.Inf(1), math.Inf(-1), 0, -0.5, 1e100} {
				out, err := value.Load(value.Dump(value.Float(f)))
				Expect(err).ToNot(HaveOccurred())
				if math.IsNaN(f) {
					Expect(math.IsNaN(out.Float())).To(BeTrue())
				} else {
					Expect(out.Float()).To(Equal(f))
				}
			}
		})

		It("decodes \\xNN byte escapes", func() {
			out, err := value.Load(`"a\x01b"`)
			Expect(err).ToNot(HaveOccurred())
			Expect(out.Str()).To(Equal("a\x01b"))
		})

		It("tolerates unknown escapes by keeping the character", func() {
			var msgs []string
			out, err := value.Load(`"a\qb"`, func(f string, a ...any) { msgs = append(msgs, f) })
			Expect(err).ToNot(HaveOccurred())
			Expect(out.Str()).To(Equal("aqb"))
			Expect(msgs).ToNot(BeEmpty())
		})

		It("closes an unterminated string at EOF", func() {
			var msgs []string
			out, err := value.Load(`"abc`, func(f string, a ...any) { msgs = append(msgs, f) })
			Expect(err).ToNot(HaveOccurred())
			Expect(out.Str()).To(Equal("abc"))
			Expect(msgs).ToNot(BeEmpty())
		})

		It("distinguishes ints from floats by '.' or 'e'", func() {
			out, err := value.Load("10")
			Expect(err).ToNot(HaveOccurred())
			Expect(out.Kind()).To(Equal(value.KindInt))

			out, err = value.Load("10.0")
			Expect(err).ToNot(HaveOccurred())
			Expect(out.Kind()).To(Equal(value.KindFloat))

			out, err = value.Load("1e3")
			Expect(err).ToNot(HaveOccurred())
			Expect(out.Kind()).To(Equal(value.KindFloat))
		})
	})

	Describe("Copy", func() {
		It("deep-copies vectors and maps", func() {
			inner := value.Vector(value.Int(1))
			v := value.Map()
			v.Set("v", inner)

			cp := v.Copy()
			inner.Vec()[0] = value.Int(99)

			cpInner, _ := cp.Get("v")
			Expect(cpInner.Vec()[0].Int()).To(Equal(int64(1)))
		})
	})

	Describe("Callables", func() {
		It("panics when dumped", func() {
			c := value.NewCallable(value.CallablePlainFunc, "f", func() {})
			Expect(func() { value.Dump(value.FromCallable(c)) }).To(Panic())
		})
	})
})
