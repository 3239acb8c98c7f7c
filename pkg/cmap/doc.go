// Package cmap provides a concurrent string-keyed map.
//
// Keys are spread over a power-of-two number of shards by their murmur3
// hash; each shard has its own RWMutex. Compound operations (Swap,
// SetIfAbsent, CompareAndDelete) are atomic per key.
//
// Usage:
//
//	m := cmap.New[*task]()
//	prev, had := m.Swap("post.list", t)
//	m.CompareAndDelete("post.list", func(cur *task) bool { return cur == t })
package cmap
