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

// Package loop implements the single-threaded, poll-based reactor at the
// heart of loopwire (spec 4.1): a dense pollfd table with a free-index
// set for O(1) add/remove, a timer set with catch-up semantics, and an
// idle-task list, all with handles that stay valid across structural
// mutation performed from within callbacks.
package loop

import (
	"golang.org/x/sys/unix"

	"github.com/loopwire/loopwire/logger"
)

const initialCapacity = 8

// IOMask selects which conditions a registration cares about.
type IOMask int16

const (
	Readable IOMask = unix.POLLIN
	Writable IOMask = unix.POLLOUT
)

// Callback is invoked for a ready fd, a fired timer, or an idle tick.
// Returning false removes the registration; true keeps it armed.
type Callback func() bool

type ioSlot struct {
	active  bool
	gen     uint64
	fd      int
	events  IOMask
	onRead  Callback
	onWrite Callback
	onError Callback
	owner   any
	name    string
}

// IOHandle is the stable reference returned by AddIO. It embeds a
// generation counter so a handle can never silently address a slot that
// was freed and reused by a later registration.
type IOHandle struct {
	idx int
	gen uint64
}

// Loop is the reactor. It is not safe for concurrent use: spec 5
// explicitly forbids calling core APIs from other threads.
type Loop struct {
	log logger.Logger

	pollfds []unix.PollFd
	slots   []ioSlot
	free    []int
	floor   int

	timers []*Timer
	idles  []*idleEntry

	running bool
	abort   bool
}

// New creates an empty Loop. log may be nil, in which case a no-op
// logger is used.
func New(log logger.Logger) *Loop {
	if log == nil {
		log = logger.Nop()
	}
	return &Loop{log: log, floor: initialCapacity}
}

// AddIO registers fd for the given event mask. Any of the three
// callbacks may be nil. owner/name are purely descriptive (spec 3.2).
func (l *Loop) AddIO(fd int, events IOMask, onRead, onWrite, onError Callback, owner any, name string) IOHandle {
	idx := l.allocSlot()
	gen := l.slots[idx].gen
	l.slots[idx] = ioSlot{
		active: true, gen: gen, fd: fd, events: events,
		onRead: onRead, onWrite: onWrite, onError: onError,
		owner: owner, name: name,
	}
	l.pollfds[idx] = unix.PollFd{Fd: int32(fd), Events: int16(events)}
	return IOHandle{idx: idx, gen: gen}
}

// RemoveIO unregisters fd if h is still the current occupant of its slot.
// Removing an already-removed or stale handle is a silent no-op, which
// is what lets a callback remove its own registration (returning false)
// and a sibling callback remove the same registration again safely.
func (l *Loop) RemoveIO(h IOHandle) {
	if h.idx < 0 || h.idx >= len(l.slots) {
		return
	}
	s := &l.slots[h.idx]
	if !s.active || s.gen != h.gen {
		return
	}
	l.freeSlot(h.idx)
}

func (l *Loop) allocSlot() int {
	if n := len(l.free); n > 0 {
		idx := l.free[n-1]
		l.free = l.free[:n-1]
		return idx
	}
	if len(l.slots) == cap(l.slots) && len(l.slots) > 0 {
		l.grow()
	}
	idx := len(l.slots)
	if idx == 0 {
		// first allocation: seed capacity without triggering grow's
		// "already full" check above.
		l.pollfds = make([]unix.PollFd, 0, initialCapacity)
		l.slots = make([]ioSlot, 0, initialCapacity)
	}
	l.pollfds = append(l.pollfds, unix.PollFd{})
	l.slots = append(l.slots, ioSlot{})
	return idx
}

// grow multiplies capacity by 8, per spec 4.1.
func (l *Loop) grow() {
	newCap := cap(l.slots) * 8
	if newCap == 0 {
		newCap = initialCapacity
	}
	np := make([]unix.PollFd, len(l.pollfds), newCap)
	copy(np, l.pollfds)
	l.pollfds = np

	ns := make([]ioSlot, len(l.slots), newCap)
	copy(ns, l.slots)
	l.slots = ns
}

func (l *Loop) freeSlot(idx int) {
	l.slots[idx].active = false
	l.slots[idx].gen++
	l.slots[idx].onRead = nil
	l.slots[idx].onWrite = nil
	l.slots[idx].onError = nil
	l.pollfds[idx] = unix.PollFd{Fd: -1}
	l.free = append(l.free, idx)
	l.maybeShrink()
}

// maybeShrink truncates trailing free slots once occupancy falls below
// 1/8 of capacity and the floor has not been reached, per spec 4.1. Only
// a contiguous free tail is ever removed, so no active slot's index ever
// changes and no live IOHandle is invalidated.
func (l *Loop) maybeShrink() {
	cap_ := cap(l.slots)
	if cap_ <= l.floor {
		return
	}
	active := 0
	for i := range l.slots {
		if l.slots[i].active {
			active++
		}
	}
	if active*8 >= cap_ {
		return
	}
	newLen := len(l.slots)
	for newLen > 0 && !l.slots[newLen-1].active {
		newLen--
	}
	if newLen == len(l.slots) {
		return
	}
	target := cap_ / 8
	if target < l.floor {
		target = l.floor
	}
	if target < newLen {
		target = newLen
	}
	np := make([]unix.PollFd, newLen, target)
	copy(np, l.pollfds[:newLen])
	l.pollfds = np

	ns := make([]ioSlot, newLen, target)
	copy(ns, l.slots[:newLen])
	l.slots = ns

	kept := l.free[:0]
	for _, idx := range l.free {
		if idx < newLen {
			kept = append(kept, idx)
		}
	}
	l.free = kept
}

// Stop ends the loop after the current iteration. If force is true, an
// abort flag is also set so no further IO callbacks fire within this
// iteration either (spec 4.1 Termination).
func (l *Loop) Stop(force bool) {
	l.running = false
	if force {
		l.abort = true
	}
}

// Run drives the reactor until Stop is called.
func (l *Loop) Run() {
	l.running = true
	l.abort = false
	for l.running {
		l.RunOnce(false)
	}
}

// RunOnce executes a single reactor iteration. nonBlocking forces a 0ms
// poll timeout regardless of pending timers, matching the "non-blocking
// mode was requested" clause of spec 4.1 step 2.
func (l *Loop) RunOnce(nonBlocking bool) {
	l.abort = false

	timeout := l.nextTimerTimeoutMs()
	if len(l.idles) > 0 || nonBlocking {
		timeout = 0
	}

	if len(l.pollfds) > 0 {
		_, err := unix.Poll(l.pollfds, timeout)
		if err != nil && err != unix.EINTR {
			l.log.WithField("error", err).Warn("loop: poll failed")
		}
	} else if timeout > 0 {
		sleepMs(timeout)
	}

	l.dispatchIO()
	l.fireTimers()

	if timeout == 0 {
		l.fireIdles()
	}
}

func (l *Loop) dispatchIO() {
	for i := range l.pollfds {
		if l.abort {
			return
		}
		if !l.slots[i].active {
			continue
		}
		rev := l.pollfds[i].Revents
		if rev == 0 {
			continue
		}
		l.pollfds[i].Revents = 0

		if rev&(unix.POLLERR|unix.POLLNVAL) != 0 {
			l.fireIOCallback(i, func(s *ioSlot) Callback { return s.onError })
			continue
		}
		if rev&(unix.POLLIN|unix.POLLHUP) != 0 {
			if l.abort {
				return
			}
			l.fireIOCallback(i, func(s *ioSlot) Callback { return s.onRead })
		}
		if l.abort {
			return
		}
		if rev&unix.POLLOUT != 0 && l.slots[i].active {
			l.fireIOCallback(i, func(s *ioSlot) Callback { return s.onWrite })
		}
	}
}

func (l *Loop) fireIOCallback(i int, pick func(*ioSlot) Callback) {
	s := &l.slots[i]
	cb := pick(s)
	if cb == nil {
		return
	}
	gen := s.gen
	if !cb() {
		// The slot may already have been removed by the callback
		// itself; RemoveIO is a no-op in that case.
		l.RemoveIO(IOHandle{idx: i, gen: gen})
	}
}
