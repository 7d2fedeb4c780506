// SPDX-License-Identifier: Apache-2.0

package classify

import "sync"

// Cache memoizes prefix-dictionary classifications by equipment name. An
// entry is written at most once and read thereafter, so one Cache can be
// shared by concurrent batch runs or replaced to isolate them.
type Cache struct {
	entries sync.Map // string -> Result
}

func NewCache() *Cache {
	return &Cache{}
}

func (c *Cache) Get(name string) (Result, bool) {
	v, ok := c.entries.Load(name)
	if !ok {
		return Result{}, false
	}
	return v.(Result), true
}

// Put stores r unless name already has an entry, and returns the entry that
// is in the cache afterwards.
func (c *Cache) Put(name string, r Result) Result {
	v, _ := c.entries.LoadOrStore(name, r)
	return v.(Result)
}

func (c *Cache) Len() int {
	n := 0
	c.entries.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}

// Reset drops every entry.
func (c *Cache) Reset() {
	c.entries.Clear()
}
