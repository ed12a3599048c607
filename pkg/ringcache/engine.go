package ringcache

import (
	"bytes"
	"time"
)

// Get looks up key and reports whether a live, unexpired entry exists.
// The returned slice aliases the arena and is valid only until the next
// mutating call on c (see doc.go). A key longer than MaxKeyLen is treated
// as a caller-input violation and silently reported as a miss.
//
// Get never mutates the cache: an expired entry is reported as a miss but
// left in place to age out naturally when the writer catches up to it.
func (c *Cache) Get(key []byte) (value []byte, ttl uint32, ok bool) {
	return c.GetAt(key, c.clock.Now())
}

// GetAt behaves like Get but treats now as the current time, letting a
// caller substitute a cached or simulated clock reading in place of a fresh
// time read.
func (c *Cache) GetAt(key []byte, now time.Time) (value []byte, ttl uint32, ok bool) {
	if c.buf == nil || len(key) > MaxKeyLen {
		return nil, 0, false
	}

	prev := c.hash(key)
	pos := c.get4(prev)

	for steps := 0; pos != 0; steps++ {
		if steps >= MaxChainSteps {
			return nil, 0, false
		}

		if c.entryKeyLen(pos) == uint32(len(key)) && bytes.Equal(c.entryKeyBytes(pos), key) {
			expiry := c.entryExpiry(pos)
			if expiry < now.Unix() {
				return nil, 0, false
			}

			remaining := expiry - now.Unix()
			if remaining > MaxTTL {
				remaining = MaxTTL
			}

			return c.entryDataBytes(pos), uint32(remaining), true
		}

		next := prev ^ c.entryLink(pos)
		prev = pos
		pos = next
	}

	return nil, 0, false
}

// Set inserts (key, data) with the given time-to-live in seconds, appending
// a new entry rather than updating any existing entry for key. TTL is
// clamped to MaxTTL. Keys over MaxKeyLen or values over MaxDataLen are
// silently rejected. If the cache cannot make room even in a freshly
// rotated, empty arena (the request itself is larger than the usable area),
// the insertion is silently dropped.
//
// A duplicate key is not removed or invalidated; the new entry becomes the
// newest in its bucket chain and is found first by subsequent lookups. The
// prior entry ages out normally.
func (c *Cache) Set(key, data []byte, ttlSeconds uint32) {
	c.SetAt(key, data, ttlSeconds, c.clock.Now())
}

// SetAt behaves like Set but treats now as the current time for computing
// the entry's absolute expiry.
func (c *Cache) SetAt(key, data []byte, ttlSeconds uint32, now time.Time) {
	if c.buf == nil || len(key) > MaxKeyLen || len(data) > MaxDataLen {
		return
	}

	ttl := ttlSeconds
	if ttl > MaxTTL {
		ttl = MaxTTL
	}

	entrylen := entryHeaderSize + uint32(len(key)) + uint32(len(data))

	if !c.makeRoom(entrylen) {
		return
	}

	h := c.hash(key)
	oldHead := c.get4(h)

	if oldHead != 0 {
		c.setEntryLink(oldHead, c.entryLink(oldHead)^h^c.writer)
	}

	pos := c.writer

	c.setEntryLink(pos, oldHead^h)
	c.set4(pos+offKeyLen, uint32(len(key)))
	c.set4(pos+offDataLen, uint32(len(data)))
	c.set8(pos+offExpiry, uint64(now.Unix()+int64(ttl)))
	copy(c.entryKeyBytes(pos), key)
	copy(c.entryDataBytes(pos), data)

	c.set4(h, pos)

	c.ttlStats.add(ttl)
	c.writer += entrylen
	c.motion += uint64(entrylen)
}

// makeRoom evicts and rotates until entrylen bytes are available between
// writer and oldest, or reports false if the request can never fit (an
// empty, freshly rotated arena is still too small for it).
//
// A resize during rotation empties the cache; makeRoom re-evaluates its
// loop condition against the fresh arena rather than recursing, collapsing
// what the original C implementation did via self-recursive retry into a
// bounded iteration.
func (c *Cache) makeRoom(entrylen uint32) bool {
	for c.writer+entrylen > c.oldest {
		if c.oldest == c.unused {
			if c.writer <= c.hsize {
				return false
			}

			if c.checkForResize() {
				// The arena is now fresh and empty; re-evaluate the loop
				// condition from scratch instead of recursing (a resize
				// already collapsed any deeper make-room work).
				continue
			}

			c.unused = c.writer
			c.oldest = c.hsize
			c.writer = c.hsize

			continue
		}

		c.evictOldest()
	}

	return true
}

// evictOldest removes the aged entry at c.oldest, detaching it from its
// bucket chain, and advances c.oldest past it.
//
// Chain maintenance: the evicted entry is always the tail of its bucket
// chain (entries are evicted strictly oldest-first, and a chain's oldest
// member is always its tail). A tail's XOR link field equals the offset of
// its single remaining neighbor: either the head slot, if it is alone in
// its bucket (in which case that neighbor's own "link" is really the head
// value, which equals the tail's own offset, so XOR-ing the tail's offset
// into it clears the slot to 0), or the next-oldest surviving entry in the
// chain (whose link field then has this tail's offset XORed out of it,
// leaving it correctly linked to whatever came after the tail, i.e.
// nothing further to walk since it's now the new tail).
func (c *Cache) evictOldest() {
	p := c.oldest
	firstLink := c.entryLink(p)

	c.set4(firstLink, c.get4(firstLink)^p)

	c.oldest += c.entryTotalLen(p)

	if c.oldest > c.unused {
		c.fatalf("evictOldest: oldest %d advanced past unused %d", c.oldest, c.unused)
	}

	if c.oldest == c.unused {
		c.unused = c.size
		c.oldest = c.size
	}
}
