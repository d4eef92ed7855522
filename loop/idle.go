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

package loop

import "time"

// IdleHandle is the stable reference returned by AddIdle (spec 3.2
// IdleRecord).
type IdleHandle struct {
	e *idleEntry
}

type idleEntry struct {
	cb      Callback
	owner   any
	removed bool
}

// AddIdle registers cb to run once per non-blocking iteration (spec 4.1
// step 5), until it returns false or is removed.
func (l *Loop) AddIdle(cb Callback, owner any) IdleHandle {
	e := &idleEntry{cb: cb, owner: owner}
	l.idles = append(l.idles, e)
	return IdleHandle{e: e}
}

// RemoveIdle disarms h. Safe to call more than once.
func (l *Loop) RemoveIdle(h IdleHandle) {
	if h.e != nil {
		h.e.removed = true
	}
}

func (l *Loop) fireIdles() {
	// Snapshot so idle callbacks that register new idle tasks don't
	// run in the same pass that added them.
	batch := l.idles
	for _, e := range batch {
		if e.removed {
			continue
		}
		if e.cb == nil || !e.cb() {
			e.removed = true
		}
	}
	out := l.idles[:0]
	for _, e := range l.idles {
		if !e.removed {
			out = append(out, e)
		}
	}
	l.idles = out
}

func sleepMs(ms int) {
	if ms <= 0 {
		return
	}
	time.Sleep(time.Duration(ms) * time.Millisecond)
}
