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

// Package httpproto is the plaintext HTTP state machine (spec.md §4.6):
// request framing, method dispatch, and a zero-copy static-file response
// path via syscall.Sendfile.
package httpproto

import (
	"bytes"
	"os"
	"syscall"

	"golang.org/x/sys/unix"

	"github.com/nabbar/origin-server/internal/filecache"
	"github.com/nabbar/origin-server/internal/reactor"
	"github.com/nabbar/origin-server/internal/sitedir"
)

const readChunkSize = 4096

// Handler serves one or more sites' static file trees plus the fixed
// POST-echo and unsupported-method behaviors of spec.md §4.6.
type Handler struct {
	sites *sitedir.Directory
	cache filecache.Cache
}

// New builds a Handler. Both arguments are process-wide, read-mostly
// services constructed once at worker startup (spec.md §9: "avoid
// post-fork singletons").
func New(sites *sitedir.Directory, cache filecache.Cache) *Handler {
	return &Handler{sites: sites, cache: cache}
}

// Handle implements reactor.Pipeline for plaintext connections.
func (h *Handler) Handle(rec *reactor.Record) reactor.Outcome {
	fd := rec.FD()

	raw, outcome, ok := readUntilHeaders(fd)
	if !ok {
		return outcome
	}

	req, err := ParseRequest(raw)
	if err != nil {
		return h.writeSimple(fd, 400, false)
	}

	keepAlive := req.KeepAlive()

	site, found := h.sites.Lookup(rec.Port())
	if !found {
		return h.writeSimple(fd, 404, keepAlive)
	}

	switch req.Method {
	case "GET", "HEAD":
		return h.handleStatic(fd, site, req, keepAlive)
	case "POST":
		return h.writeBody(fd, 200, "text/plain", req.Body, keepAlive)
	default:
		return h.writeSimple(fd, 501, keepAlive)
	}
}

// readUntilHeaders reads in 4 KiB chunks until the header terminator
// appears. Per spec.md §4.6, there is no cross-call resumption: a
// would-block before the terminator is found yields keep-alive and the
// next wakeup starts reading from an empty buffer again.
func readUntilHeaders(fd int) ([]byte, reactor.Outcome, bool) {
	var acc []byte
	chunk := make([]byte, readChunkSize)

	for {
		n, e := unix.Read(fd, chunk)
		if e != nil {
			if e == unix.EAGAIN || e == unix.EWOULDBLOCK {
				return nil, reactor.KeepAlive, false
			}
			return nil, reactor.Terminal, false
		}
		if n == 0 {
			return nil, reactor.Terminal, false
		}

		acc = append(acc, chunk[:n]...)
		if bytes.Contains(acc, []byte(HeaderTerminator)) {
			return acc, 0, true
		}
	}
}

// handleStatic resolves path to a file under site.Root, consults the
// cache for existence/MIME, and streams the body with syscall.Sendfile.
func (h *Handler) handleStatic(fd int, site sitedir.Site, req *Request, keepAlive bool) reactor.Outcome {
	path := ResolvePath(site.Root, req.Path)

	entry, hit := h.cache.Get(path)
	if !hit {
		return h.writeSimple(fd, 404, keepAlive)
	}

	if req.Method == "HEAD" {
		return h.writeHeadersOnly(fd, 200, entry.Mime, entry.Size, keepAlive)
	}

	return h.sendFile(fd, path, entry, keepAlive)
}

// sendFile writes the response headers, then streams the body via the
// kernel file-to-socket path, falling back to a buffered write of the
// cached bytes when the file can no longer be opened directly (spec.md
// §4.6: "fall back to buffered write on unsupported cases").
func (h *Handler) sendFile(fd int, path string, entry filecache.Entry, keepAlive bool) reactor.Outcome {
	headers := BuildHeaders(200, entry.Mime, entry.Size, keepAlive)
	if outcome, done := writeAll(fd, headers); done {
		return outcome
	}

	f, err := os.Open(path)
	if err != nil {
		if outcome, done := writeAll(fd, entry.Bytes); done {
			return outcome
		}
		return terminalFor(keepAlive)
	}
	defer func() { _ = f.Close() }()

	var offset int64
	remaining := entry.Size

	for remaining > 0 {
		n, e := syscall.Sendfile(fd, int(f.Fd()), &offset, remaining)
		if e != nil {
			if e == syscall.EAGAIN {
				return reactor.WouldBlock
			}
			if e == syscall.EPIPE {
				return reactor.Terminal
			}
			return reactor.Terminal
		}
		if n == 0 {
			break
		}
		remaining -= n
	}

	return terminalFor(keepAlive)
}

func (h *Handler) writeHeadersOnly(fd int, status int, mime string, size int, keepAlive bool) reactor.Outcome {
	headers := BuildHeaders(status, mime, size, keepAlive)
	if outcome, done := writeAll(fd, headers); done {
		return outcome
	}
	return terminalFor(keepAlive)
}

func (h *Handler) writeBody(fd int, status int, contentType string, body []byte, keepAlive bool) reactor.Outcome {
	headers := BuildHeaders(status, contentType, len(body), keepAlive)
	if outcome, done := writeAll(fd, headers); done {
		return outcome
	}
	if outcome, done := writeAll(fd, body); done {
		return outcome
	}
	return terminalFor(keepAlive)
}

func (h *Handler) writeSimple(fd int, status int, keepAlive bool) reactor.Outcome {
	body := []byte(StatusText(status))
	return h.writeBody(fd, status, "text/plain", body, keepAlive)
}

// writeAll writes buf fully, reporting a reactor-level outcome and
// whether the caller should stop (true) rather than continue with the
// next write stage (false).
func writeAll(fd int, buf []byte) (reactor.Outcome, bool) {
	total := 0
	for total < len(buf) {
		n, e := unix.Write(fd, buf[total:])
		if e != nil {
			if e == unix.EAGAIN || e == unix.EWOULDBLOCK {
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
