// Package hash provides the double-SHA256 primitive used throughout
// hyperion for header hashing, Merkle tree construction, and PoW checks.
package hash

import (
	"encoding/hex"

	sha256simd "github.com/minio/sha256-simd"
)

// Size is the length in bytes of a digest produced by Double.
const Size = 32

// Double computes SHA256(SHA256(data)), returning a 32-byte digest.
// Uses the SIMD-accelerated implementation since this runs in the
// mining hot loop at millions of invocations per second.
func Double(data []byte) [Size]byte {
	first := sha256simd.Sum256(data)
	return sha256simd.Sum256(first[:])
}

// Concat hashes the big-endian concatenation of two 32-byte digests,
// the pairing step of Merkle tree construction.
func Concat(left, right [Size]byte) [Size]byte {
	buf := make([]byte, 0, Size*2)
	buf = append(buf, left[:]...)
	buf = append(buf, right[:]...)
	return Double(buf)
}

// ToHex renders a digest as a plain (non-reversed) hex string.
func ToHex(h [Size]byte) string {
	return hex.EncodeToString(h[:])
}

// FromHex parses a plain hex string into a digest.
func FromHex(s string) ([Size]byte, error) {
	var out [Size]byte
	b, err := hex.DecodeString(s)
	if err != nil {
		return out, err
	}
	if len(b) != Size {
		return out, hex.ErrLength
	}
	copy(out[:], b)
	return out, nil
}
