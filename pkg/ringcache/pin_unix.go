//go:build unix

package ringcache

import "golang.org/x/sys/unix"

// pinMemory best-effort mlocks the arena so it is not paged out. Failure is
// logged at warn level and otherwise ignored: pinning is a performance hint,
// never a correctness requirement.
func (c *Cache) pinMemory() {
	if len(c.buf) == 0 {
		return
	}

	if err := unix.Mlock(c.buf); err != nil {
		c.logger().Warn("ringcache: mlock failed, continuing without memory pinning", "error", err)

		return
	}

	c.pinned = true
}

// unpinMemory releases a prior pinMemory, if any.
func (c *Cache) unpinMemory() {
	if !c.pinned || len(c.buf) == 0 {
		c.pinned = false

		return
	}

	if err := unix.Munlock(c.buf); err != nil {
		c.logger().Warn("ringcache: munlock failed", "error", err)
	}

	c.pinned = false
}
