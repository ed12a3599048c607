package ringcache

import "encoding/binary"

// Entry field offsets, relative to the start of an entry.
//
//	+0  4  XOR link: offset(prev) ^ offset(next) within the bucket chain
//	+4  4  keylen
//	+8  4  datalen
//	+12 8  absolute expiry (unix seconds)
//	+20 keylen  key bytes
//	+20+keylen datalen  value bytes
const (
	offLink    = 0
	offKeyLen  = 4
	offDataLen = 8
	offExpiry  = 12
	offKeyData = 20
)

// get4 reads a little-endian uint32 at pos. Any out-of-bounds read is a bug
// in the engine's own offset arithmetic, not caller input, so it is fatal.
func (c *Cache) get4(pos uint32) uint32 {
	if pos > c.size-4 {
		c.fatalf("get4: offset %d out of bounds for arena of size %d", pos, c.size)
	}

	return binary.LittleEndian.Uint32(c.buf[pos : pos+4])
}

// set4 writes a little-endian uint32 at pos. See get4 for the bounds policy.
func (c *Cache) set4(pos uint32, v uint32) {
	if pos > c.size-4 {
		c.fatalf("set4: offset %d out of bounds for arena of size %d", pos, c.size)
	}

	binary.LittleEndian.PutUint32(c.buf[pos:pos+4], v)
}

// get8 reads a little-endian uint64 at pos (used for the absolute expiry
// field). See get4 for the bounds policy.
func (c *Cache) get8(pos uint32) uint64 {
	if pos > c.size-8 {
		c.fatalf("get8: offset %d out of bounds for arena of size %d", pos, c.size)
	}

	return binary.LittleEndian.Uint64(c.buf[pos : pos+8])
}

// set8 writes a little-endian uint64 at pos. See get4 for the bounds policy.
func (c *Cache) set8(pos uint32, v uint64) {
	if pos > c.size-8 {
		c.fatalf("set8: offset %d out of bounds for arena of size %d", pos, c.size)
	}

	binary.LittleEndian.PutUint64(c.buf[pos:pos+8], v)
}

// entryLink returns the XOR-link field of the entry at pos.
func (c *Cache) entryLink(pos uint32) uint32 { return c.get4(pos + offLink) }

// setEntryLink writes the XOR-link field of the entry at pos.
func (c *Cache) setEntryLink(pos uint32, v uint32) { c.set4(pos+offLink, v) }

// entryKeyLen returns the keylen field of the entry at pos.
func (c *Cache) entryKeyLen(pos uint32) uint32 { return c.get4(pos + offKeyLen) }

// entryDataLen returns the datalen field of the entry at pos.
func (c *Cache) entryDataLen(pos uint32) uint32 { return c.get4(pos + offDataLen) }

// entryExpiry returns the absolute expiry (unix seconds) of the entry at pos.
func (c *Cache) entryExpiry(pos uint32) int64 { return int64(c.get8(pos + offExpiry)) }

// entryTotalLen returns the full byte length of the entry at pos, including
// its header.
func (c *Cache) entryTotalLen(pos uint32) uint32 {
	return entryHeaderSize + c.entryKeyLen(pos) + c.entryDataLen(pos)
}

// entryKeyBytes returns the key slice of the entry at pos. The returned
// slice aliases the arena and is only valid until the next mutation.
func (c *Cache) entryKeyBytes(pos uint32) []byte {
	keylen := c.entryKeyLen(pos)
	start := pos + offKeyData

	if uint64(start)+uint64(keylen) > uint64(c.size) {
		c.fatalf("entryKeyBytes: key range [%d,%d) exceeds arena of size %d", start, uint64(start)+uint64(keylen), c.size)
	}

	return c.buf[start : start+keylen]
}

// entryDataBytes returns the value slice of the entry at pos. The returned
// slice aliases the arena and is only valid until the next mutation.
func (c *Cache) entryDataBytes(pos uint32) []byte {
	keylen := c.entryKeyLen(pos)
	datalen := c.entryDataLen(pos)
	start := pos + offKeyData + keylen

	if uint64(start)+uint64(datalen) > uint64(c.size) {
		c.fatalf("entryDataBytes: data range [%d,%d) exceeds arena of size %d", start, uint64(start)+uint64(datalen), c.size)
	}

	return c.buf[start : start+datalen]
}

// hash computes the djb2-variant bucket-head offset for key.
//
// Not cryptographic: MaxChainSteps bounds the damage a crafted key set with
// colliding hashes can do to lookup latency.
func (c *Cache) hash(key []byte) uint32 {
	h := uint32(5381)
	for _, b := range key {
		h = (h << 5) + h
		h ^= uint32(b)
	}

	h <<= 2
	h &= c.hsize - minHashIndexSize

	return h
}
