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

import (
	"sort"
	"time"
)

// Timer is the handle returned by AddTimer (spec 3.2 TimeoutRecord). It
// stays valid until RemoveTimer is called on it, even from within another
// timer's callback in the same fire pass.
type Timer struct {
	deadline time.Time
	interval time.Duration
	cb       Callback
	owner    any
	removed  bool
}

// AddTimer arms a timer. interval == 0 means one-shot; otherwise it
// rearms at deadline += interval after each fire (with catch-up, see
// fireTimers).
func (l *Loop) AddTimer(deadline time.Time, interval time.Duration, cb Callback, owner any) *Timer {
	t := &Timer{deadline: deadline, interval: interval, cb: cb, owner: owner}
	l.timers = append(l.timers, t)
	return t
}

// After is a convenience wrapper for a one-shot timer firing after d.
func (l *Loop) After(d time.Duration, cb Callback, owner any) *Timer {
	return l.AddTimer(time.Now().Add(d), 0, cb, owner)
}

// Every is a convenience wrapper for a repeating timer.
func (l *Loop) Every(d time.Duration, cb Callback, owner any) *Timer {
	return l.AddTimer(time.Now().Add(d), d, cb, owner)
}

// RemoveTimer disarms t. Safe to call more than once, or from within a
// timer callback (including t's own).
func (l *Loop) RemoveTimer(t *Timer) {
	t.removed = true
}

// nextTimerTimeoutMs computes the poll() timeout per spec 4.1 step 1:
// the time to the next deadline in milliseconds, or -1 if there is none.
func (l *Loop) nextTimerTimeoutMs() int {
	var next time.Time
	have := false
	for _, t := range l.timers {
		if t.removed {
			continue
		}
		if !have || t.deadline.Before(next) {
			next = t.deadline
			have = true
		}
	}
	if !have {
		return -1
	}
	d := time.Until(next)
	if d <= 0 {
		return 0
	}
	ms := d.Milliseconds()
	if ms == 0 {
		ms = 1
	}
	return int(ms)
}

// fireTimers fires every timer whose deadline has passed, in
// non-decreasing deadline order, applying catch-up semantics: a
// repeating timer that is more than one interval behind "now" jumps its
// next deadline forward by whole intervals without replaying the missed
// fires (spec 4.1 Catch-up).
func (l *Loop) fireTimers() {
	now := time.Now()

	due := make([]*Timer, 0, len(l.timers))
	for _, t := range l.timers {
		if !t.removed && !t.deadline.After(now) {
			due = append(due, t)
		}
	}
	if len(due) == 0 {
		l.compactTimers()
		return
	}
	sort.Slice(due, func(i, j int) bool { return due[i].deadline.Before(due[j].deadline) })

	for _, t := range due {
		if t.removed {
			continue
		}
		keep := true
		if t.cb != nil {
			keep = t.cb()
		}
		if t.interval <= 0 {
			t.removed = true
			continue
		}
		if !keep {
			t.removed = true
			continue
		}
		t.deadline = t.deadline.Add(t.interval)
		if t.deadline.Before(now) {
			behind := now.Sub(t.deadline)
			skips := behind/t.interval + 1
			t.deadline = t.deadline.Add(skips * t.interval)
		}
	}
	l.compactTimers()
}

// compactTimers drops removed entries from the backing slice. It never
// reorders survivors, so no live *Timer pointer is affected.
func (l *Loop) compactTimers() {
	out := l.timers[:0]
	for _, t := range l.timers {
		if !t.removed {
			out = append(out, t)
		}
	}
	l.timers = out
}
