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

package loop_test

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/loopwire/loopwire/loop"
)

var _ = Describe("Loop", func() {
	Describe("idle tasks", func() {
		It("fires idle callbacks once per non-blocking iteration", func() {
			l := loop.New(nil)
			count := 0
			l.AddIdle(func() bool {
				count++
				return count < 3
			}, nil)

			for i := 0; i < 5; i++ {
				l.RunOnce(true)
			}
			Expect(count).To(Equal(3))
		})
	})

	Describe("timers", func() {
		It("fires a one-shot timer and does not rearm it", func() {
			l := loop.New(nil)
			fired := 0
			l.AddTimer(time.Now(), 0, func() bool {
				fired++
				return true
			}, nil)

			l.RunOnce(true)
			l.RunOnce(true)
			Expect(fired).To(Equal(1))
		})

		It("fires timers in non-decreasing deadline order", func() {
			l := loop.New(nil)
			var order []string
			now := time.Now()
			l.AddTimer(now.Add(20*time.Millisecond), 0, func() bool {
				order = append(order, "second")
				return true
			}, nil)
			l.AddTimer(now.Add(-10*time.Millisecond), 0, func() bool {
				order = append(order, "first")
				return true
			}, nil)

			time.Sleep(25 * time.Millisecond)
			l.RunOnce(true)
			Expect(order).To(Equal([]string{"first", "second"}))
		})

		It("removes a timer from within its own callback without a crash", func() {
			l := loop.New(nil)
			var t *loop.Timer
			calls := 0
			t = l.AddTimer(time.Now(), time.Millisecond, func() bool {
				calls++
				l.RemoveTimer(t)
				return true
			}, nil)

			l.RunOnce(true)
			time.Sleep(5 * time.Millisecond)
			l.RunOnce(true)
			Expect(calls).To(Equal(1))
		})

		It("catches up a repeating timer without replaying missed fires", func() {
			l := loop.New(nil)
			fired := 0
			l.AddTimer(time.Now().Add(-55*time.Millisecond), 10*time.Millisecond, func() bool {
				fired++
				return true
			}, nil)

			l.RunOnce(true)
			Expect(fired).To(Equal(1))
		})
	})

	Describe("handle stability", func() {
		It("keeps other IO handles valid across add/remove churn", func() {
			l := loop.New(nil)
			r1, w1 := mustPipe()
			r2, w2 := mustPipe()
			defer r1.Close()
			defer w1.Close()
			defer r2.Close()
			defer w2.Close()

			readCount := 0
			h1 := l.AddIO(int(r1.Fd()), loop.Readable, func() bool {
				readCount++
				buf := make([]byte, 1)
				r1.Read(buf)
				return true
			}, nil, nil, nil, "first")

			_, _ = w2.Write([]byte("x"))
			h2 := l.AddIO(int(r2.Fd()), loop.Readable, func() bool {
				buf := make([]byte, 1)
				r2.Read(buf)
				l.RemoveIO(h2)
				return false
			}, nil, nil, nil, "second")

			_, _ = w1.Write([]byte("y"))
			l.RunOnce(true)
			l.RunOnce(true)

			Expect(readCount).To(BeNumerically(">=", 1))
			l.RemoveIO(h1)
		})
	})
})
