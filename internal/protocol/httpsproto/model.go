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

// Package httpsproto is the TLS state machine (spec.md §4.7): a re-entrant
// handshake across reactor wakeups, TLS session lifecycle owned by the
// connection record, and a zero-copy response path backed by mmap'd file
// bytes fed to the TLS write primitive.
package httpsproto

import (
	"bytes"
	"crypto/tls"
	"os"

	"golang.org/x/sys/unix"

	"github.com/nabbar/origin-server/internal/filecache"
	"github.com/nabbar/origin-server/internal/protocol/httpproto"
	"github.com/nabbar/origin-server/internal/reactor"
	"github.com/nabbar/origin-server/internal/sitedir"
	"github.com/nabbar/origin-server/internal/tlsfactory"
)

const readChunkSize = 4096

// Handler serves the same site/method contract as httpproto.Handler, but
// over a TLS session owned by the connection record (REDESIGN FLAGS §9).
type Handler struct {
	factory *tlsfactory.Factory
	sites   *sitedir.Directory
	cache   filecache.Cache
}

// New builds a Handler sharing the worker's TLS context factory, site
// directory, and file cache with the plaintext handler.
func New(factory *tlsfactory.Factory, sites *sitedir.Directory, cache filecache.Cache) *Handler {
	return &Handler{factory: factory, sites: sites, cache: cache}
}

// Handle implements reactor.Pipeline for TLS connections.
func (h *Handler) Handle(rec *reactor.Record) reactor.Outcome {
	conn := rec.TLSConn()
	if conn == nil {
		conn = tls.Server(&rawConn{fd: rec.FD()}, h.factory.ServerConfig(""))
		rec.SetTLSConn(conn)
	}

	if rec.TLSState() != reactor.TLSEstablished {
		if outcome, established := h.advanceHandshake(rec, conn); !established {
			return outcome
		}
	}

	raw, outcome, ok := readUntilHeaders(conn)
	if !ok {
		return outcome
	}

	req, err := httpproto.ParseRequest(raw)
	if err != nil {
		return h.writeSimple(conn, 400, false)
	}

	keepAlive := req.KeepAlive()

	site, found := h.sites.Lookup(rec.Port())
	if !found {
		return h.writeSimple(conn, 404, keepAlive)
	}

	switch req.Method {
	case "GET", "HEAD":
		return h.handleStatic(conn, site, req, keepAlive)
	case "POST":
		return h.writeBody(conn, 200, "text/plain", req.Body, keepAlive)
	default:
		return h.writeSimple(conn, 501, keepAlive)
	}
}

// advanceHandshake drives one handshake step. want_read/want_write map to
// keep_alive (re-entered on the next wakeup without reading a request);
// any other error is terminal (spec.md §4.7).
func (h *Handler) advanceHandshake(rec *reactor.Record, conn *tls.Conn) (reactor.Outcome, bool) {
	if err := conn.Handshake(); err != nil {
		if isWouldBlock(err) {
			return reactor.KeepAlive, false
		}
		return reactor.Terminal, false
	}

	rec.SetTLSEstablished()
	return 0, true
}

// readUntilHeaders mirrors httpproto's read loop but against the TLS
// record layer. Per spec.md §4.7, framing matches §4.6 exactly.
func readUntilHeaders(conn *tls.Conn) ([]byte, reactor.Outcome, bool) {
	var acc []byte
	chunk := make([]byte, readChunkSize)

	for {
		n, e := conn.Read(chunk)
		if e != nil {
			if isWouldBlock(e) {
				return nil, reactor.KeepAlive, false
			}
			return nil, reactor.Terminal, false
		}
		if n == 0 {
			return nil, reactor.Terminal, false
		}

		acc = append(acc, chunk[:n]...)
		if bytes.Contains(acc, []byte(httpproto.HeaderTerminator)) {
			return acc, 0, true
		}
	}
}

func (h *Handler) handleStatic(conn *tls.Conn, site sitedir.Site, req *httpproto.Request, keepAlive bool) reactor.Outcome {
	path := httpproto.ResolvePath(site.Root, req.Path)

	entry, hit := h.cache.Get(path)
	if !hit {
		return h.writeSimple(conn, 404, keepAlive)
	}

	if req.Method == "HEAD" {
		headers := httpproto.BuildHeaders(200, entry.Mime, entry.Size, keepAlive)
		if outcome, done := writeAll(conn, headers); done {
			return outcome
		}
		return terminalFor(keepAlive)
	}

	return h.sendMmapped(conn, path, entry, keepAlive)
}

// sendMmapped implements spec.md §4.7's zero-copy TLS path: the response
// body is memory-mapped rather than read into a second heap buffer, and
// fed to the TLS write primitive.
func (h *Handler) sendMmapped(conn *tls.Conn, path string, entry filecache.Entry, keepAlive bool) reactor.Outcome {
	headers := httpproto.BuildHeaders(200, entry.Mime, entry.Size, keepAlive)
	if outcome, done := writeAll(conn, headers); done {
		return outcome
	}

	if entry.Size == 0 {
		return terminalFor(keepAlive)
	}

	f, err := os.Open(path)
	if err != nil {
		if outcome, done := writeAll(conn, entry.Bytes); done {
			return outcome
		}
		return terminalFor(keepAlive)
	}
	defer func() { _ = f.Close() }()

	mapped, mmapErr := unix.Mmap(int(f.Fd()), 0, entry.Size, unix.PROT_READ, unix.MAP_SHARED)
	if mmapErr != nil {
		if outcome, done := writeAll(conn, entry.Bytes); done {
			return outcome
		}
		return terminalFor(keepAlive)
	}
	defer func() { _ = unix.Munmap(mapped) }()

	if outcome, done := writeAll(conn, mapped); done {
		return outcome
	}

	return terminalFor(keepAlive)
}

func (h *Handler) writeBody(conn *tls.Conn, status int, contentType string, body []byte, keepAlive bool) reactor.Outcome {
	headers := httpproto.BuildHeaders(status, contentType, len(body), keepAlive)
	if outcome, done := writeAll(conn, headers); done {
		return outcome
	}
	if outcome, done := writeAll(conn, body); done {
		return outcome
	}
	return terminalFor(keepAlive)
}

func (h *Handler) writeSimple(conn *tls.Conn, status int, keepAlive bool) reactor.Outcome {
	body := []byte(httpproto.StatusText(status))
	return h.writeBody(conn, status, "text/plain", body, keepAlive)
}

func writeAll(conn *tls.Conn, buf []byte) (reactor.Outcome, bool) {
	total := 0
	for total < len(buf) {
		n, e := conn.Write(buf[total:])
		if e != nil {
			if isWouldBlock(e) {
				return reactor.WouldBlock, true
			}
			if e == unix.EPIPE {
				return reactor.Terminal, true
			}
			return reactor.Terminal, true
		}
		total += n
	}
	return 0, false
}

func terminalFor(keepAlive bool) reactor.Outcome {
	if keepAlive {
		return reactor.KeepAlive
	}
	return reactor.Terminal
}
