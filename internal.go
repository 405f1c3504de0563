package waitmap

import "fmt"

// internalf panics with a package-prefixed, formatted message. It is only
// ever called for states the public API contract guarantees are
// unreachable (see catrate.NewLimiter's identical convention for invalid
// construction arguments) — never for a condition a caller can trigger
// through ordinary use of this package.
func internalf(format string, args ...any) {
	panic(fmt.Errorf("waitmap: "+format, args...))
}
