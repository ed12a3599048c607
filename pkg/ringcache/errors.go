package ringcache

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/ringcache/ringcache/internal/telemetry"
)

// fatalExitCode is the process exit status used for arena-invariant
// corruption. It mirrors original_source/cache.c's cache_impossible(),
// which calls _exit(111).
const fatalExitCode = 111

// osExit is call through a variable so tests can observe a fatal path
// without actually terminating the test binary.
var osExit = os.Exit

// fatalf logs a corruption diagnostic and terminates the process.
//
// This path is reserved for violations of the engine's own offset-arithmetic
// invariants (see doc.go). It must never be reached by caller-supplied
// input; those are validated and silently rejected instead.
func (c *Cache) fatalf(format string, args ...any) {
	c.logger().Error(fmt.Sprintf("ringcache: fatal arena corruption: "+format, args...))
	osExit(fatalExitCode)
	// osExit is expected to terminate the process; the panic below only
	// matters if a test has swapped osExit for something that returns.
	panic(fmt.Sprintf(format, args...))
}

// logger returns the cache's logger, defaulting to the process-wide
// telemetry logger if none was configured via Options.Logger.
func (c *Cache) logger() *slog.Logger {
	if c.log != nil {
		return c.log
	}

	return telemetry.Logger()
}
