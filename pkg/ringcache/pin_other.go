//go:build !unix

package ringcache

// pinMemory is a no-op on non-Unix targets: mlock has no portable
// equivalent, and pinning is documented as best-effort only.
func (c *Cache) pinMemory() {
	c.logger().Warn("ringcache: memory pinning is not supported on this platform")
}

// unpinMemory is a no-op on non-Unix targets.
func (c *Cache) unpinMemory() {
	c.pinned = false
}
