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

// Package filecache is a bounded-capacity, content-addressed (by absolute
// path) file cache with least-recently-used eviction (spec.md §4.5). It
// follows the locking shape of the teacher's generic cache package
// (one mutex guarding one map) but replaces time-based expiration with a
// byte-budget eviction policy, since spec.md's cache has no TTL concept.
package filecache

// Entry is the value spec.md §3 names: file bytes, inferred MIME, and size.
type Entry struct {
	Bytes []byte
	Mime  string
	Size  int
}

// Cache is the contract spec.md §4.5 describes: Get loads from disk on
// miss, inserts if it fits, and evicts oldest-unused entries to make room.
type Cache interface {
	// Get returns the cached or freshly loaded entry for path, and false if
	// the file does not exist or cannot be read.
	Get(path string) (Entry, bool)

	// Len returns the number of resident entries.
	Len() int

	// ResidentBytes returns the sum of Size over resident entries.
	ResidentBytes() int64
}
