package ringcache

// A cycle is the wall-clock interval between successive rotations of the
// writer past the oldest region. checkForResize runs exactly once per
// rotation, before the rotation itself, and decides whether to reinitialize
// the arena at a different size instead of rotating in place.
//
// It reports whether the cache was reinitialized. On reinitialization the
// cache is empty and the caller (makeRoom's loop) must restart
// the insertion from the top rather than proceed with stale cursors.
func (c *Cache) checkForResize() (resized bool) {
	now := c.clock.Now()
	elapsed := now.Sub(c.cycleStart).Seconds()

	if c.options.allowResize() && elapsed > 0 {
		ratio := c.options.targetCycleTime().Seconds() / elapsed

		newsize := clampUint32(
			uint32(float64(c.size)*ratio*resizeHeadroom),
			MinCacheSize, MaxCacheSize,
		)

		provisional := c.lastRatio != 0 &&
			((ratio > 1.0 && c.lastRatio > 1.0 && c.size < MaxCacheSize) ||
				(ratio < 0.5 && c.lastRatio < 0.5 && c.size > MinCacheSize))

		decision := provisional
		if c.options.ResizeCallback != nil {
			decision = c.options.ResizeCallback(ratio, c.size, newsize, c.ttlStats, provisional)
		}

		if decision {
			oldSize := c.size
			stats := c.ttlStats
			triggeringRatio := c.lastRatio

			c.lastRatio = 0

			if !c.Init(newsize, &c.options) {
				c.fatalf("resize from %d to %d failed: cache has no usable buffer", oldSize, newsize)
			}

			c.cycleStart = now

			c.logger().Info("ringcache: resized",
				"old_size", oldSize, "new_size", newsize,
				"ratio", ratio, "last_ratio", triggeringRatio,
				"ttl_count", stats.Count,
				"ttl_min", stats.Min, "ttl_max", stats.Max)

			return true
		}

		c.logger().Debug("ringcache: cycle rotated without resize",
			"size", c.size, "ratio", ratio, "provisional_resize", provisional)

		c.lastRatio = ratio
	}

	c.cycleStart = now
	c.ttlStats.reset()

	return false
}
