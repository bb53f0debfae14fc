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

package httpsproto

import (
	"io"
	"net"
	"time"

	"golang.org/x/sys/unix"
)

// rawConn adapts a reactor-owned non-blocking descriptor to net.Conn so
// crypto/tls can drive the handshake and record layer directly against the
// kernel socket, re-entering across reactor wakeups (spec.md §4.7) instead
// of blocking a whole goroutine on one connection.
//
// Close is a no-op: the descriptor's lifetime is owned by the reactor's
// Record, not by the *tls.Conn wrapping it (REDESIGN FLAGS §9).
type rawConn struct {
	fd int
}

// wouldBlock is returned by rawConn's Read/Write in place of EAGAIN so
// crypto/tls's internal error handling sees a standard net.Error it can
// report back through Handshake/Read/Write rather than retrying in a loop.
type wouldBlock struct{}

func (wouldBlock) Error() string   { return "resource temporarily unavailable" }
func (wouldBlock) Timeout() bool   { return true }
func (wouldBlock) Temporary() bool { return true }

func isWouldBlock(err error) bool {
	_, ok := err.(wouldBlock)
	return ok
}

func (c *rawConn) Read(b []byte) (int, error) {
	n, e := unix.Read(c.fd, b)
	if e != nil {
		if e == unix.EAGAIN || e == unix.EWOULDBLOCK {
			return 0, wouldBlock{}
		}
		return 0, e
	}
	// A zero-byte, no-error result from a raw read(2) means the peer
	// closed its write side: surface io.EOF so crypto/tls fails the
	// handshake/record read instead of treating it as "no bytes yet" and
	// looping, the same EOF-vs-EAGAIN distinction internal/sniffer.Peek
	// makes for the same descriptor before it ever reaches this handler.
	if n == 0 {
		return 0, io.EOF
	}
	return n, nil
}

func (c *rawConn) Write(b []byte) (int, error) {
	n, e := unix.Write(c.fd, b)
	if e != nil {
		if e == unix.EAGAIN || e == unix.EWOULDBLOCK {
			return 0, wouldBlock{}
		}
		return 0, e
	}
	return n, nil
}

func (c *rawConn) Close() error                       { return nil }
func (c *rawConn) LocalAddr() net.Addr                { return nil }
func (c *rawConn) RemoteAddr() net.Addr               { return nil }
func (c *rawConn) SetDeadline(t time.Time) error      { return nil }
func (c *rawConn) SetReadDeadline(t time.Time) error  { return nil }
func (c *rawConn) SetWriteDeadline(t time.Time) error { return nil }
