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

package reactor

import (
	"crypto/tls"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
)

// Record is the consolidated per-connection state from REDESIGN FLAGS §9:
// one record replaces the three separate maps (client_port, busy,
// TLS-session) spec.md §3/§5 describes. It carries a generation number and
// a uuid, exposed through Handle; no operation compares them against a
// later descriptor that reuses the same number.
type Record struct {
	mu sync.Mutex

	fd         int
	port       uint16
	generation uint64
	handle     uuid.UUID

	busy bool
	refs int32

	sniffed  bool
	isTLS    bool
	tlsConn  *tls.Conn
	tlsState tlsHandshakeState
}

type tlsHandshakeState int

const (
	TLSNotStarted tlsHandshakeState = iota
	TLSInProgress
	TLSEstablished
)

// Handle is the shared-ownership reference spec.md's REDESIGN FLAGS §9
// calls for: the reactor holds one, each outstanding task holds another.
// The descriptor is closed only when the last Handle is released.
type Handle struct {
	FD         int
	Generation uint64
	UUID       uuid.UUID
}

// NewRecord wraps a freshly accepted descriptor with its listening port.
// The reactor holds the initial reference (refs=1) until the descriptor is
// dispatched to a task, which takes its own reference via Acquire.
func NewRecord(fd int, port uint16, generation uint64) *Record {
	return &Record{
		fd:         fd,
		port:       port,
		generation: generation,
		handle:     uuid.New(),
		refs:       1,
	}
}

// Handle returns the generation-tagged reference to this record.
func (r *Record) Handle() Handle {
	return Handle{FD: r.fd, Generation: r.generation, UUID: r.handle}
}

// Port returns the port the connection was accepted on. Immutable for the
// record's lifetime (spec.md §3).
func (r *Record) Port() uint16 {
	return r.port
}

// FD returns the underlying descriptor number.
func (r *Record) FD() int {
	return r.fd
}

// TryMarkBusy sets the busy flag iff it was clear, returning whether it
// succeeded. The reactor must never enqueue a second task for a descriptor
// whose flag is set (spec.md §3 invariant).
func (r *Record) TryMarkBusy() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.busy {
		return false
	}
	r.busy = true
	return true
}

// ClearBusy releases the busy flag after a task finishes a keep-alive
// iteration.
func (r *Record) ClearBusy() {
	r.mu.Lock()
	r.busy = false
	r.mu.Unlock()
}

// Acquire takes a reference for a task about to run the protocol pipeline
// against this record (REDESIGN FLAGS §9 shared-ownership handle).
func (r *Record) Acquire() {
	atomic.AddInt32(&r.refs, 1)
}

// Release drops a reference. It returns true exactly once, on the call
// that brings the refcount to zero — the caller performing that release is
// responsible for the deterministic close-and-evict sequence.
func (r *Record) Release() bool {
	return atomic.AddInt32(&r.refs, -1) == 0
}

// MarkSniffed records that the one-shot protocol classification has run for
// this descriptor (spec.md §4.4: "sniffing is performed exactly once per
// descriptor").
func (r *Record) MarkSniffed(isTLS bool) {
	r.mu.Lock()
	r.sniffed = true
	r.isTLS = isTLS
	r.mu.Unlock()
}

// Sniffed returns whether classification has already run, and the result.
func (r *Record) Sniffed() (sniffed, isTLS bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sniffed, r.isTLS
}

// SetTLSConn stores the lazily-created TLS session as an owned field of
// the record (REDESIGN FLAGS §9: "TLS session owned by a map entry" becomes
// "TLS session owned by the connection record").
func (r *Record) SetTLSConn(c *tls.Conn) {
	r.mu.Lock()
	r.tlsConn = c
	r.tlsState = TLSInProgress
	r.mu.Unlock()
}

// TLSConn returns the record's TLS session, or nil if none has been
// created yet.
func (r *Record) TLSConn() *tls.Conn {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.tlsConn
}

// SetTLSEstablished marks the handshake complete.
func (r *Record) SetTLSEstablished() {
	r.mu.Lock()
	r.tlsState = TLSEstablished
	r.mu.Unlock()
}

// TLSState returns the current handshake state.
func (r *Record) TLSState() tlsHandshakeState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.tlsState
}

// CloseTLS half-closes and releases the TLS session exactly once, per
// spec.md §4.7's destruction sequence (TLS cleanup happens before the
// caller proceeds to reactor deregister / close(fd) / evict).
func (r *Record) CloseTLS() {
	r.mu.Lock()
	c := r.tlsConn
	r.tlsConn = nil
	r.mu.Unlock()

	if c != nil {
		_ = c.Close()
	}
}
