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

// Package listenerset creates bound, listening, address-reuse sockets and
// keeps the process-wide listen_fd -> port registry (spec.md §4.2, §3).
// Each worker independently binds every configured port (no FD-sharing
// between workers, per spec.md Non-goals).
package listenerset

import (
	"golang.org/x/sys/unix"

	"github.com/nabbar/origin-server/errors"
)

// Registry is the read-only-after-build listen_fd -> port map named in
// spec.md §3 ("Listening registry").
type Registry struct {
	portByFd map[int]uint16
}

// Setup creates one listening, non-blocking, SO_REUSEADDR socket per port,
// bound to 0.0.0.0, with the platform-maximum backlog (spec.md §4.2).
// Failure at any step closes every fd opened so far and returns the error
// as fatal configuration error, per spec.md §4.2 and §7.
func Setup(ports []uint16) (*Registry, errors.Error) {
	r := &Registry{portByFd: make(map[int]uint16, len(ports))}

	for _, port := range ports {
		fd, err := setupOne(port)
		if err != nil {
			r.CloseAll()
			return nil, err
		}
		r.portByFd[fd] = port
	}

	return r, nil
}

func setupOne(port uint16) (int, errors.Error) {
	fd, e := unix.Socket(unix.AF_INET, unix.SOCK_STREAM|unix.SOCK_NONBLOCK, 0)
	if e != nil {
		return -1, ErrorSocketCreate.Error(errors.New(0, e.Error()))
	}

	if e = unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_REUSEADDR, 1); e != nil {
		_ = unix.Close(fd)
		return -1, ErrorSocketOption.Error(errors.New(0, e.Error()))
	}

	addr := &unix.SockaddrInet4{Port: int(port)}

	if e = unix.Bind(fd, addr); e != nil {
		_ = unix.Close(fd)
		return -1, ErrorSocketBind.Error(errors.New(0, e.Error()))
	}

	if e = unix.Listen(fd, unix.SOMAXCONN); e != nil {
		_ = unix.Close(fd)
		return -1, ErrorSocketListen.Error(errors.New(0, e.Error()))
	}

	return fd, nil
}

// Port returns the port bound to fd and whether fd is a listening
// descriptor at all (distinguishing "listening fd" from "established
// connection fd" in the reactor's event loop, spec.md §4.3).
func (r *Registry) Port(fd int) (uint16, bool) {
	p, ok := r.portByFd[fd]
	return p, ok
}

// Fds returns every listening descriptor, for registration with the
// reactor's event queue.
func (r *Registry) Fds() []int {
	fds := make([]int, 0, len(r.portByFd))
	for fd := range r.portByFd {
		fds = append(fds, fd)
	}
	return fds
}

// CloseAll closes every listening descriptor, used both on setup failure
// and at worker exit.
func (r *Registry) CloseAll() {
	for fd := range r.portByFd {
		_ = unix.Close(fd)
	}
	r.portByFd = make(map[int]uint16)
}
