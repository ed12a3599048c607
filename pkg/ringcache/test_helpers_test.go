package ringcache

import "testing"

// withFatalCapture runs fn with osExit swapped for a function that records
// the exit code and panics with a sentinel, then recovers that panic. It
// fails the test if fn does not trigger the fatal-corruption path.
func withFatalCapture(t *testing.T, fn func()) (code int) {
	t.Helper()

	prevExit := osExit
	called := false

	osExit = func(c int) {
		called = true
		code = c
		panic(fatalSentinel{})
	}

	defer func() {
		osExit = prevExit

		r := recover()
		if r == nil {
			if !called {
				t.Fatalf("expected fatalf to be triggered, but it was not")
			}

			return
		}

		if _, ok := r.(fatalSentinel); !ok {
			panic(r)
		}
	}()

	fn()

	return code
}

type fatalSentinel struct{}
