package ringcache

import "fmt"

// Arena layout:
//
//	[0, hsize)          hash index: hsize/4 head links, 4 bytes each
//	[hsize, writer)     active region: entries added this cycle, oldest-left
//	[writer, oldest)    free space
//	[oldest, unused)    aged region: entries surviving the last rotation
//	[unused, size)      unused tail padding
//
// Every byte belongs to exactly one of these regions; cursor invariants are
// verified by checkInvariants, which several tests call after each mutating
// operation.

// checkInvariants verifies the arena's structural invariants. It is used by
// tests, not by the hot Get/Set path, since the invariants it checks are
// maintained incrementally by construction; a violation here indicates a
// bug in the engine, the same class of defect fatalf guards against for
// offset arithmetic.
func (c *Cache) checkInvariants() error {
	switch {
	case c.hsize < minHashIndexSize:
		return errInvariant("hsize %d below minimum %d", c.hsize, minHashIndexSize)
	case c.hsize > c.writer:
		return errInvariant("hsize %d exceeds writer %d", c.hsize, c.writer)
	case c.writer > c.oldest:
		return errInvariant("writer %d exceeds oldest %d", c.writer, c.oldest)
	case c.oldest > c.unused:
		return errInvariant("oldest %d exceeds unused %d", c.oldest, c.unused)
	case c.unused > c.size:
		return errInvariant("unused %d exceeds size %d", c.unused, c.size)
	case c.oldest == c.unused && c.unused != c.size:
		return errInvariant("oldest == unused (%d) but unused != size (%d)", c.oldest, c.size)
	}

	return nil
}

type invariantError struct{ msg string }

func (e *invariantError) Error() string { return e.msg }

func errInvariant(format string, args ...any) error {
	return &invariantError{msg: fmt.Sprintf(format, args...)}
}
