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
	"fmt"
	"strconv"
)

// StatusText maps the handful of status codes spec.md §4.6/§7 actually
// emits. Anything else falls back to the numeric code alone.
func StatusText(code int) string {
	switch code {
	case 200:
		return "OK"
	case 400:
		return "Bad Request"
	case 404:
		return "Not Found"
	case 500:
		return "Internal Server Error"
	case 501:
		return "Not Implemented"
	}
	return strconv.Itoa(code)
}

// BuildHeaders renders the status line and header block spec.md §4.6
// requires: Content-Length always present, Content-Type when a body is
// present, Connection: keep-alive only when negotiated.
func BuildHeaders(status int, contentType string, contentLength int, keepAlive bool) []byte {
	h := fmt.Sprintf("HTTP/1.1 %d %s\r\n", status, StatusText(status))
	if contentType != "" {
		h += fmt.Sprintf("Content-Type: %s\r\n", contentType)
	}
	h += fmt.Sprintf("Content-Length: %d\r\n", contentLength)
	if keepAlive {
		h += "Connection: keep-alive\r\n"
	}
	h += "\r\n"
	return []byte(h)
}
