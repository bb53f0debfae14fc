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

package httpproto

import (
	"bytes"
	"errors"
	"strings"
)

// Request is the minimal parse spec.md §4.6 asks for: request line split
// into method/path/version, headers as Key: Value with case-preserved
// keys, and the raw body bytes found after the blank line.
type Request struct {
	Method  string
	Path    string
	Version string
	Headers map[string]string
	Body    []byte
}

// ErrMalformed is returned when the request line is missing a method,
// path, or version token.
var ErrMalformed = errors.New("malformed request line")

// HeaderTerminator is the blank-line sequence that ends the header block
// (spec.md §4.6 "read until the request buffer contains \r\n\r\n").
const HeaderTerminator = "\r\n\r\n"

// ParseRequest splits raw (already known to contain the header terminator)
// into a Request. Header keys keep their original casing; lookups against
// them should go through Request.Header, which is case-insensitive.
func ParseRequest(raw []byte) (*Request, error) {
	idx := bytes.Index(raw, []byte(HeaderTerminator))
	if idx < 0 {
		return nil, ErrMalformed
	}

	head := string(raw[:idx])
	body := raw[idx+len(HeaderTerminator):]

	lines := strings.Split(head, "\r\n")
	if len(lines) == 0 {
		return nil, ErrMalformed
	}

	parts := strings.SplitN(lines[0], " ", 3)
	if len(parts) != 3 || parts[0] == "" || parts[1] == "" || parts[2] == "" {
		return nil, ErrMalformed
	}

	req := &Request{
		Method:  parts[0],
		Path:    parts[1],
		Version: parts[2],
		Headers: make(map[string]string, len(lines)-1),
		Body:    body,
	}

	for _, line := range lines[1:] {
		if line == "" {
			continue
		}
		k, v, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		req.Headers[strings.TrimSpace(k)] = strings.TrimSpace(v)
	}

	return req, nil
}

// Header looks up a header value case-insensitively, matching HTTP's
// field-name semantics while the map itself preserves original casing for
// pass-through/logging.
func (r *Request) Header(name string) (string, bool) {
	for k, v := range r.Headers {
		if strings.EqualFold(k, name) {
			return v, true
		}
	}
	return "", false
}

// KeepAlive implements spec.md §4.6's negotiation rule: on iff Connection
// equals "keep-alive" case-insensitively.
func (r *Request) KeepAlive() bool {
	v, ok := r.Header("Connection")
	if !ok {
		return false
	}
	return strings.EqualFold(v, "keep-alive")
}

// ResolvePath maps the request path onto a document-root-relative file
// path, substituting index.html for "/" or an empty path (spec.md §4.6).
func ResolvePath(root, reqPath string) string {
	if reqPath == "" || reqPath == "/" {
		reqPath = "/index.html"
	}
	return strings.TrimRight(root, "/") + reqPath
}
