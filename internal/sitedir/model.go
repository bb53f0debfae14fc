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

// Package sitedir maps a listening port to the site serving it. It is built
// once from configuration and never mutated afterward (spec.md §4.8).
package sitedir

import "github.com/nabbar/origin-server/internal/config"

// Site is the immutable per-configuration-load record named in spec.md §3.
type Site struct {
	Name string
	Port uint16
	Root string
}

// Directory is a read-only, port-keyed lookup of sites.
type Directory struct {
	byPort map[uint16]Site
}

// New builds a Directory from the validated server config. Config.Validate
// already rejected duplicate ports, so this never overwrites an entry.
func New(cfg *config.Config) *Directory {
	d := &Directory{byPort: make(map[uint16]Site, len(cfg.Servers))}

	for _, s := range cfg.Servers {
		d.byPort[s.Port] = Site{Name: s.Name, Port: s.Port, Root: s.Root}
	}

	return d
}

// Lookup returns the site bound to port and whether it exists.
func (d *Directory) Lookup(port uint16) (Site, bool) {
	s, ok := d.byPort[port]
	return s, ok
}

// Ports returns every listening port the directory knows about.
func (d *Directory) Ports() []uint16 {
	p := make([]uint16, 0, len(d.byPort))
	for port := range d.byPort {
		p = append(p, port)
	}
	return p
}
