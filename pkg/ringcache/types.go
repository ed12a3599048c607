package ringcache

import (
	"log/slog"
	"time"
)

// TTLStats accumulates TTL statistics for entries inserted during the
// current cycle. It resets to its zero value at the start of every cycle
// (on Init and on every rotation), whether or not that rotation resized the
// arena.
type TTLStats struct {
	// Count is the number of entries inserted this cycle.
	Count uint64
	// Total is the sum, in seconds, of every inserted entry's (clamped) TTL.
	Total uint64
	// Min is the smallest TTL, in seconds, inserted this cycle.
	Min uint32
	// Max is the largest TTL, in seconds, inserted this cycle.
	Max uint32
}

func (s *TTLStats) add(ttl uint32) {
	s.Count++
	s.Total += uint64(ttl)

	if s.Max == 0 || ttl > s.Max {
		s.Max = ttl
	}

	if s.Min == 0 || ttl < s.Min {
		s.Min = ttl
	}
}

func (s *TTLStats) reset() {
	*s = TTLStats{}
}

// ResizeCallback is invoked at most once per rotation, after the cycle
// controller has computed a provisional grow/shrink/no-op decision. Its
// return value overrides the provisional decision.
//
// ratio is target_cycle_time / observed_cycle_time for the cycle that just
// ended. oldSize and newSize are the current arena size and the proposed
// replacement size. stats carries the TTL statistics accumulated over the
// ending cycle. provisional is the engine's own decision before the
// callback runs.
type ResizeCallback func(ratio float64, oldSize, newSize uint32, stats TTLStats, provisional bool) bool

// Allocator supplies the backing buffer for a Cache's arena. The default
// allocator (used when Options.Allocate is nil) always succeeds; the hook
// exists so an embedder with a fallible memory budget can report allocation
// failure instead of letting Go's make panic on true OOM.
type Allocator func(size int) (buf []byte, ok bool)

// Options configures a Cache. The zero value is a valid Options: it enables
// resizing, targets a 24-hour cycle time, and uses the system clock, a
// default logger, an infallible allocator, and no memory pinning.
type Options struct {
	// AllowResize enables the cycle controller to reinitialize the cache at
	// a new size when two consecutive cycles agree on a grow or shrink
	// direction. Defaults to true (the zero value nil is treated as true;
	// set it to AllowResizeBool(false) to disable resizing).
	AllowResize *bool

	// TargetCycleTime is the wall-clock duration the cycle controller aims
	// to spend rotating through one full arena. Defaults to 24 hours.
	TargetCycleTime time.Duration

	// ResizeCallback, if set, is consulted on every rotation while resizing
	// is enabled and the ending cycle took a positive amount of time, and may
	// veto or force the engine's provisional resize decision.
	ResizeCallback ResizeCallback

	// Clock supplies the current time. Defaults to SystemClock{}.
	Clock Clock

	// Logger receives structured resize-event logs. Defaults to the
	// process-wide internal/telemetry logger.
	Logger *slog.Logger

	// PinMemory requests a best-effort mlock of the arena to discourage
	// paging. Failure to pin is logged and non-fatal.
	PinMemory bool

	// Allocate supplies the arena buffer. Defaults to an infallible
	// make-based allocator.
	Allocate Allocator
}

func (o Options) allowResize() bool {
	if o.AllowResize == nil {
		return true
	}

	return *o.AllowResize
}

func (o Options) targetCycleTime() time.Duration {
	if o.TargetCycleTime <= 0 {
		return defaultTargetCycleTime * time.Second
	}

	return o.TargetCycleTime
}

func (o Options) clock() Clock {
	if o.Clock == nil {
		return SystemClock{}
	}

	return o.Clock
}

func (o Options) allocate() Allocator {
	if o.Allocate == nil {
		return defaultAllocator
	}

	return o.Allocate
}

func defaultAllocator(size int) ([]byte, bool) {
	return make([]byte, size), true
}

// AllowResizeBool is a convenience constructor for Options.AllowResize,
// since Go has no address-of-literal operator.
func AllowResizeBool(v bool) *bool { return &v }

// Stats is a read-only snapshot of a Cache's internal state, useful for
// observability tooling (cmd/ringcachectl, internal telemetry) without
// exposing the arena itself.
type Stats struct {
	Size      uint32
	HashSize  uint32
	Writer    uint32
	Oldest    uint32
	Unused    uint32
	Motion    uint64
	LastRatio float64
	TTL       TTLStats
}
