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

// Package sniffer classifies a freshly accepted, still-unclassified
// descriptor as TLS, plaintext HTTP, closed-without-bytes, or unrecognized,
// without consuming its bytes (spec.md §4.4). It peeks with MSG_PEEK so the
// protocol handler that runs next reads the exact same first bytes from the
// socket.
package sniffer

import (
	"golang.org/x/sys/unix"

	"github.com/nabbar/origin-server/errors"
)

// Protocol is the result of one-shot classification.
type Protocol int

const (
	// Unknown means not enough bytes have arrived yet to decide; the
	// caller should leave the descriptor registered and retry on the next
	// readiness notification (spec.md §4.4, Outcome WouldBlock).
	Unknown Protocol = iota
	HTTP
	TLS
	// Closed means recv returned zero bytes with no error: the peer opened
	// the connection and closed it without sending anything. Per spec.md
	// §4.4 ("peek == 0 bytes means the peer closed and the connection is
	// terminal") and testable property 9, this is a silent terminal, never
	// routed to either protocol handler.
	Closed
	// Unrecognized means enough bytes arrived to decide, but the prefix is
	// neither a TLS record header nor a known HTTP method token / "HTTP/"
	// literal. Per spec.md §4.4, the caller logs the hex of the peeked
	// bytes and closes, rather than handing garbage to the HTTP parser.
	Unrecognized
)

// peekSize is "up to 16 bytes" (spec.md §4.4): enough to hold the longest
// HTTP method token plus its trailing space ("OPTIONS ") and to give the
// Unrecognized branch a meaningful hex dump to log. Classification itself
// only examines the first two bytes (REDESIGN FLAGS §9(b): "the two-byte
// rule is the newer and broader one and should be preferred").
const peekSize = 16

// Peek looks at the first bytes of fd's receive buffer without consuming
// them, and classifies the connection per the two-byte rule. The peeked
// bytes are returned alongside the classification so a caller logging an
// Unrecognized result can include their hex dump.
func Peek(fd int) (Protocol, []byte, errors.Error) {
	buf := make([]byte, peekSize)

	n, _, e := unix.Recvfrom(fd, buf, unix.MSG_PEEK)
	if e != nil {
		if e == unix.EAGAIN || e == unix.EWOULDBLOCK {
			return Unknown, nil, nil
		}
		return Unknown, nil, ErrorPeek.Error(errors.New(0, e.Error()))
	}

	if n == 0 {
		return Closed, nil, nil
	}

	return classify(buf[:n]), buf[:n], nil
}

// classify applies the two-byte TLS rule (REDESIGN FLAGS §9(b)) and
// spec.md §4.4's HTTP method-token rule. Anything that matches neither is
// Unrecognized: it is not handed to the HTTP parser as a guess.
func classify(head []byte) Protocol {
	if len(head) < 2 {
		return Unknown
	}

	if isTLSRecordHeader(head[0], head[1]) {
		return TLS
	}

	if isHTTPPrefix(head[0], head[1]) {
		return HTTP
	}

	return Unrecognized
}

// isTLSRecordHeader reports whether (b0, b1) is a plausible TLS record
// header: content type in {change_cipher_spec, alert, handshake,
// application_data} and major protocol version 3 (TLS 1.0 through 1.3 all
// report major version 0x03).
func isTLSRecordHeader(b0, b1 byte) bool {
	switch b0 {
	case 0x14, 0x15, 0x16, 0x17:
		return b1 == 0x03
	}
	return false
}

// isHTTPPrefix reports whether (b0, b1) are the first two bytes of one of
// spec.md §4.4's recognized method tokens (GET, POST, HEAD, PUT, DELETE,
// OPTIONS, TRACE, CONNECT, PATCH) or the literal "HTTP/". Each method's
// first two letters are unique among the set, so two bytes are enough to
// decide without waiting for the trailing space.
func isHTTPPrefix(b0, b1 byte) bool {
	switch [2]byte{b0, b1} {
	case [2]byte{'G', 'E'}, // GET
		[2]byte{'P', 'O'}, // POST
		[2]byte{'P', 'U'}, // PUT
		[2]byte{'P', 'A'}, // PATCH
		[2]byte{'H', 'E'}, // HEAD
		[2]byte{'D', 'E'}, // DELETE
		[2]byte{'O', 'P'}, // OPTIONS
		[2]byte{'T', 'R'}, // TRACE
		[2]byte{'C', 'O'}, // CONNECT
		[2]byte{'H', 'T'}: // HTTP/ (literal)
		return true
	}
	return false
}
