package core

// Mine performs a single-threaded nonce search: starting from
// header.Nonce (normally 0), increments the nonce with wrap-around
// until ValidatePoW holds, then returns. The search is deterministic
// for a fixed header prefix (spec.md §4.5).
func Mine(header *Header) {
	for !ValidatePoW(header) {
		header.Nonce++
	}
}

// MineRange searches only nonces in [start, end) and reports whether a
// solution was found within the range, leaving header.Nonce at the
// winning value on success. This is the primitive the concurrent
// mining coordinator's workers call per batch (internal/mining).
func MineRange(header *Header, start, end uint64) bool {
	for nonce := start; nonce < end; nonce++ {
		header.Nonce = nonce
		if ValidatePoW(header) {
			return true
		}
	}
	return false
}
