package testkit

import "testing"

// Swap replaces a package-level seam (usually an opener func) for the duration of the test
// Tests that swap a seam must not run in parallel with other users of the same seam
func Swap[T any](t *testing.T, target *T, replacement T) {
	t.Helper()
	orig := *target
	*target = replacement
	t.Cleanup(func() { *target = orig })
}
