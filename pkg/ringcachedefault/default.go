// Package ringcachedefault provides a process-wide singleton ringcache.Cache,
// mirroring original_source/cache.c's default_cache and its cache_get /
// cache_set / cache_init / cache_set_options wrapper functions.
//
// Using the package-level functions here is opt-in: most callers should
// construct their own *ringcache.Cache with ringcache.New instead. This
// package exists for the narrow case where a process wants exactly one
// shared cache reachable without threading a *ringcache.Cache through every
// call site, the way djbdns's resolver code does.
package ringcachedefault

import (
	"github.com/ringcache/ringcache/pkg/ringcache"
)

// def, options, and motion are package-level globals with no lock, exactly
// like original_source/cache.c's default_cache and cache_motion. As with
// ringcache.Cache itself, concurrent callers are responsible for their own
// external synchronization; this package adds none.
var (
	def     *ringcache.Cache
	motion  uint64
	options ringcache.Options
)

// Init lazily creates the default cache on first call, or reinitializes it
// (discarding all entries) on subsequent calls, exactly like cache_init.
// It returns false only if the underlying allocation fails.
func Init(cachesize uint32, opts *ringcache.Options) bool {
	if opts != nil {
		options = *opts
	}

	if def == nil {
		c := &ringcache.Cache{}
		if !c.Init(cachesize, &options) {
			return false
		}

		def = c

		return true
	}

	return def.Init(cachesize, &options)
}

// SetOptions replaces wholesale the option set that the next Init call
// applies when it is given nil options (see DESIGN.md's decision on the
// SetOptions open question). An already-initialized default cache keeps the
// options it was initialized with, including across its own resizes, until
// Init is called again.
func SetOptions(opts ringcache.Options) {
	options = opts
}

// Get looks up key in the default cache. It reports ok=false if Init has
// not yet been called.
func Get(key []byte) (value []byte, ttl uint32, ok bool) {
	if def == nil {
		return nil, 0, false
	}

	return def.Get(key)
}

// Set inserts key/data into the default cache with the given TTL. It is a
// silent no-op if Init has not yet been called.
func Set(key, data []byte, ttlSeconds uint32) {
	if def == nil {
		return
	}

	before := def.Motion()
	def.Set(key, data, ttlSeconds)
	motion += def.Motion() - before
}

// Motion returns the cumulative number of bytes ever written into the
// default cache, mirroring the global cache_motion counter in
// original_source/cache.c.
func Motion() uint64 {
	return motion
}

// reset tears down the default cache. It exists for tests; production code
// has no legitimate reason to destroy the process-wide cache.
func reset() {
	if def != nil {
		def.Destroy()
	}

	def = nil
	options = ringcache.Options{}
	motion = 0
}
