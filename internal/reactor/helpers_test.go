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

package reactor_test

import (
	"fmt"

	"golang.org/x/sys/unix"
)

func netAddr(port uint16) string {
	return fmt.Sprintf("127.0.0.1:%d", port)
}

func syscallRead(fd int, buf []byte) (int, error) {
	for {
		n, e := unix.Read(fd, buf)
		if e == unix.EAGAIN || e == unix.EWOULDBLOCK {
			continue
		}
		return n, e
	}
}

func syscallWrite(fd int, buf []byte) (int, error) {
	total := 0
	for total < len(buf) {
		n, e := unix.Write(fd, buf[total:])
		if e == unix.EAGAIN || e == unix.EWOULDBLOCK {
			continue
		}
		if e != nil {
			return total, e
		}
		total += n
	}
	return total, nil
}
