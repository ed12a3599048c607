// Package ringcache provides a fixed-budget, in-memory, time-to-live cache
// over opaque byte-string keys and values.
//
// The cache is a single contiguous byte buffer (the arena) partitioned into
// a hash index and two entry regions. Insertion always appends; eviction is
// FIFO and driven by rotating the arena rather than per-entry bookkeeping.
// There is no update-in-place: setting an existing key leaves the old entry
// to age out and inserts a new one that shadows it.
//
// # Basic usage
//
//	c := ringcache.New(1 << 20, nil)
//	c.Set([]byte("example.com/A"), []byte{93, 184, 216, 34}, 300)
//	v, ttl, ok := c.Get([]byte("example.com/A"))
//
// # Concurrency
//
// A Cache is not internally synchronized. All operations assume exclusive
// access; a caller needing concurrent access must serialize get/set with its
// own mutex covering the full duration of a get, including use of the
// returned value slice, since eviction can rewrite any region of the arena.
//
// # Corruption
//
// Any packed read or write whose byte range would exceed the arena indicates
// a bug in the engine, not caller misuse. It is treated as fatal: it is
// logged and the process exits with status 111.
package ringcache
