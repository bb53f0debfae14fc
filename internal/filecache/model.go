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

package filecache

import (
	"container/list"
	"os"
	"sync"
)

type node struct {
	path string
	ent  Entry
}

// lru is the concrete Cache. One mutex guards both the map and the
// recency list, matching the teacher's cache package's "hold the lock for
// the shortest section, never across I/O" discipline.
type lru struct {
	mu     sync.Mutex
	budget int64
	used   int64
	byPath map[string]*list.Element
	order  *list.List // front = most recently used
}

// New returns a Cache bounded to budgetBytes (spec.md §3: default 50 MiB,
// configured via config.yaml's cache_budget_bytes).
func New(budgetBytes int64) Cache {
	return &lru{
		budget: budgetBytes,
		byPath: make(map[string]*list.Element),
		order:  list.New(),
	}
}

func (c *lru) Get(path string) (Entry, bool) {
	c.mu.Lock()
	if el, ok := c.byPath[path]; ok {
		c.order.MoveToFront(el)
		ent := el.Value.(*node).ent
		c.mu.Unlock()
		return ent, true
	}
	c.mu.Unlock()

	ent, ok := c.load(path)
	if !ok {
		return Entry{}, false
	}

	c.insert(path, ent)
	return ent, true
}

func (c *lru) load(path string) (Entry, bool) {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return Entry{}, false
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Entry{}, false
	}

	return Entry{Bytes: data, Mime: mimeOf(path), Size: len(data)}, true
}

// insert adds ent under path, evicting least-recently-used entries until it
// fits. Entries larger than the budget are never inserted (spec.md §4.5)
// but are still returned once by Get via the caller's ent value.
func (c *lru) insert(path string, ent Entry) {
	if int64(ent.Size) > c.budget {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.byPath[path]; ok {
		old := el.Value.(*node)
		c.used -= int64(old.ent.Size)
		old.ent = ent
		c.used += int64(ent.Size)
		c.order.MoveToFront(el)
		return
	}

	for c.used+int64(ent.Size) > c.budget && c.order.Len() > 0 {
		back := c.order.Back()
		victim := back.Value.(*node)
		c.order.Remove(back)
		delete(c.byPath, victim.path)
		c.used -= int64(victim.ent.Size)
	}

	el := c.order.PushFront(&node{path: path, ent: ent})
	c.byPath[path] = el
	c.used += int64(ent.Size)
}

func (c *lru) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

func (c *lru) ResidentBytes() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.used
}
