package crypto

import "io"

// SetRandReaderForTesting sets the random reader used by key generation.
// This is intended for testing only. Returns a function to restore the
// original reader. Since this package is internal, this function cannot be
// accessed by external code.
func SetRandReaderForTesting(r io.Reader) func() {
	original := randReader
	randReader = r
	return func() { randReader = original }
}

// SetDecapsulateHookForTesting installs a hook invoked on every
// decapsulation. Tests use it to assert that envelopes rejected before the
// KEM step never reach Decapsulate. Returns a function to remove the hook.
func SetDecapsulateHookForTesting(f func()) func() {
	original := decapHook
	decapHook = f
	return func() { decapHook = original }
}
