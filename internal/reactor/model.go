/*
 * MIT License
 *
 * Copyright (c) 2025 Nicolas JUHEL
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
 *
 *
 */

// Package reactor is the single-threaded readiness loop per worker
// (spec.md §4.3). It owns all descriptor state through one consolidated
// Record per connection (REDESIGN FLAGS §9) and dispatches ready
// descriptors onto a bounded taskpool.Pool without ever double-dispatching
// a descriptor already being serviced.
package reactor

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"golang.org/x/sys/unix"

	"github.com/nabbar/origin-server/errors"
	"github.com/nabbar/origin-server/internal/listenerset"
	"github.com/nabbar/origin-server/internal/taskpool"
)

// Outcome is the explicit result type from REDESIGN FLAGS §9, replacing
// exception-based control flow in the protocol handlers.
type Outcome int

const (
	// Terminal means close the connection, free its resources, evict its
	// state (spec.md glossary).
	Terminal Outcome = iota
	// KeepAlive means leave the connection registered for another request
	// on the same descriptor.
	KeepAlive
	// WouldBlock means a read/write would have blocked; return control
	// without closing, re-enter on the next readiness notification.
	WouldBlock
)

// Pipeline runs the full sniff-then-protocol pipeline for one readiness
// wakeup of an established connection, and reports the resulting Outcome.
// Implemented by internal/protocol/httpproto and httpsproto, composed with
// internal/sniffer for first-touch classification.
type Pipeline func(rec *Record) Outcome

// Reactor is the per-worker epoll loop.
type Reactor struct {
	epfd      int
	listeners *listenerset.Registry
	pool      *taskpool.Pool
	pipeline  Pipeline
	maxEvents int

	mu      sync.Mutex
	records map[int]*Record

	generation uint64

	onAccept func(fd int, port uint16)
	onClose  func(fd int, port uint16, err error)
}

// Option customizes a Reactor at construction time.
type Option func(*Reactor)

// WithAcceptHook sets a callback invoked after every successful accept,
// useful for connection-scoped logging (fd, port fields per SPEC_FULL.md
// §3.2).
func WithAcceptHook(fn func(fd int, port uint16)) Option {
	return func(r *Reactor) { r.onAccept = fn }
}

// WithCloseHook sets a callback invoked on every close-and-evict.
func WithCloseHook(fn func(fd int, port uint16, err error)) Option {
	return func(r *Reactor) { r.onClose = fn }
}

// New creates the epoll instance and registers every listening descriptor
// for read-readiness.
func New(listeners *listenerset.Registry, pool *taskpool.Pool, maxEvents int, pipeline Pipeline, opts ...Option) (*Reactor, errors.Error) {
	epfd, e := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if e != nil {
		return nil, ErrorEpollCreate.Error(errors.New(0, e.Error()))
	}

	r := &Reactor{
		epfd:      epfd,
		listeners: listeners,
		pool:      pool,
		pipeline:  pipeline,
		maxEvents: maxEvents,
		records:   make(map[int]*Record),
	}

	for _, opt := range opts {
		opt(r)
	}

	for _, fd := range listeners.Fds() {
		if err := r.registerRead(fd); err != nil {
			return nil, err
		}
	}

	return r, nil
}

func (r *Reactor) registerRead(fd int) errors.Error {
	ev := unix.EpollEvent{Events: unix.EPOLLIN, Fd: int32(fd)}
	if e := unix.EpollCtl(r.epfd, unix.EPOLL_CTL_ADD, fd, &ev); e != nil {
		return ErrorEpollCtl.Error(errors.New(0, e.Error()))
	}
	return nil
}

func (r *Reactor) deregister(fd int) {
	_ = unix.EpollCtl(r.epfd, unix.EPOLL_CTL_DEL, fd, nil)
}

// Run blocks on the kernel event queue until ctx is cancelled (spec.md
// §4.3: "wait ... with no timeout" — ctx cancellation is the sole exit,
// matching the supervisor killing workers rather than any task-level
// cancellation, per spec.md §5).
func (r *Reactor) Run(ctx context.Context) errors.Error {
	events := make([]unix.EpollEvent, r.maxEvents)

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		n, e := unix.EpollWait(r.epfd, events, -1)
		if e != nil {
			if e == unix.EINTR {
				continue
			}
			return ErrorEpollWait.Error(errors.New(0, e.Error()))
		}

		for i := 0; i < n; i++ {
			fd := int(events[i].Fd)

			if port, ok := r.listeners.Port(fd); ok {
				r.acceptOnce(fd, port)
				continue
			}

			r.dispatchReady(fd)
		}
	}
}

// acceptOnce accepts exactly one connection per readiness turn on a
// listening descriptor (spec.md §4.3 step 2), never dispatching handling
// for the new descriptor in the same turn.
func (r *Reactor) acceptOnce(listenFD int, port uint16) {
	fd, _, e := unix.Accept4(listenFD, unix.SOCK_NONBLOCK)
	if e != nil {
		if e == unix.EAGAIN || e == unix.EWOULDBLOCK {
			return
		}
		return
	}

	gen := atomic.AddUint64(&r.generation, 1)
	rec := NewRecord(fd, port, gen)

	r.mu.Lock()
	r.records[fd] = rec
	r.mu.Unlock()

	if err := r.registerRead(fd); err != nil {
		r.evict(fd, err)
		return
	}

	if r.onAccept != nil {
		r.onAccept(fd, port)
	}
}

// dispatchReady enqueues a task for an established connection iff it is
// not already busy (spec.md §4.3 step 2, else-branch).
func (r *Reactor) dispatchReady(fd int) {
	r.mu.Lock()
	rec, ok := r.records[fd]
	r.mu.Unlock()

	if !ok {
		return
	}

	if !rec.TryMarkBusy() {
		return
	}

	rec.Acquire()

	dispatched := r.pool.TryGo(func() {
		r.runTask(rec)
	})

	if !dispatched {
		// Pool saturated this turn: release the reservation and let the
		// next readiness wakeup retry, rather than blocking the reactor
		// thread inside the event loop.
		rec.ClearBusy()
		if rec.Release() {
			r.evict(fd, nil)
		}
	}
}

// runTask executes the protocol pipeline for one readiness wakeup and
// applies the resulting Outcome (spec.md §4.3 step 3).
func (r *Reactor) runTask(rec *Record) {
	outcome, cause := r.safePipeline(rec)

	switch outcome {
	case KeepAlive, WouldBlock:
		rec.ClearBusy()
		if rec.Release() {
			r.evict(rec.FD(), nil)
		}
	case Terminal:
		// The busy flag stays set so no further task is dispatched; the
		// task's reference and the reactor's own reference are both dropped,
		// and the last release closes and evicts the descriptor.
		rec.CloseTLS()
		rec.Release()
		if rec.Release() {
			r.evict(rec.FD(), cause)
		}
	}
}

// safePipeline recovers from panics in the handler pipeline and treats them
// as terminal (spec.md §7: "uncaught exception in task"); the recovered
// value is returned as the close cause, which evict passes to the close
// hook together with the descriptor and port.
func (r *Reactor) safePipeline(rec *Record) (outcome Outcome, cause error) {
	defer func() {
		if p := recover(); p != nil {
			outcome = Terminal
			cause = fmt.Errorf("panic in connection task: %v", p)
		}
	}()

	return r.pipeline(rec), nil
}

// evict performs the atomic close-and-deregister spec.md §3 requires: "a
// descriptor exists in the reactor's registration iff its connection state
// is present; removal is atomic with close."
func (r *Reactor) evict(fd int, cause error) {
	r.mu.Lock()
	rec, ok := r.records[fd]
	if ok {
		delete(r.records, fd)
	}
	r.mu.Unlock()

	if !ok {
		return
	}

	r.deregister(fd)
	_ = unix.Close(fd)

	if r.onClose != nil {
		r.onClose(fd, rec.Port(), cause)
	}
}

// Close shuts down every tracked descriptor and the epoll instance itself,
// used at worker exit.
func (r *Reactor) Close() {
	r.mu.Lock()
	fds := make([]int, 0, len(r.records))
	for fd := range r.records {
		fds = append(fds, fd)
	}
	r.mu.Unlock()

	for _, fd := range fds {
		r.evict(fd, nil)
	}

	_ = unix.Close(r.epfd)
}

// Len returns the number of tracked connections, for tests and metrics.
func (r *Reactor) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.records)
}
