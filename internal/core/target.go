package core

import "math/big"

// CompactToTarget decodes a 32-bit compact difficulty into a 256-bit
// target, per spec.md §4.4. Unlike Bitcoin's nBits, the sign bit is
// always treated as forced to zero — there is no negative target in
// this system.
func CompactToTarget(compact uint32) *big.Int {
	exponent := compact >> 24
	mantissa := compact & 0x007fffff

	target := new(big.Int).SetUint64(uint64(mantissa))
	if exponent >= 3 {
		target.Lsh(target, uint(8*(exponent-3)))
	} else {
		target.Rsh(target, uint(8*(3-exponent)))
	}
	return target
}

// TargetToCompact is the inverse of CompactToTarget.
func TargetToCompact(target *big.Int) uint32 {
	if target.Sign() <= 0 {
		return 0
	}

	b := target.Bytes() // minimal big-endian bytes
	size := uint32(len(b))

	var mantissa uint32
	if size <= 3 {
		// Place the minimal bytes at the high end of the 3-byte
		// mantissa field (equivalent to zero-extending then shifting
		// left by 8*(3-size), per spec.md §4.4's inverse formula).
		padded := make([]byte, 3)
		copy(padded[:size], b)
		mantissa = uint32(padded[0])<<16 | uint32(padded[1])<<8 | uint32(padded[2])
	} else {
		mantissa = uint32(b[0])<<16 | uint32(b[1])<<8 | uint32(b[2])
	}

	if mantissa&0x00800000 != 0 {
		mantissa >>= 8
		size++
	}

	return (size << 24) | (mantissa & 0x007fffff)
}

// TargetBytes renders a target as 32 bytes big-endian, zero-padded on
// the left (spec.md §4.4).
func TargetBytes(target *big.Int) [32]byte {
	var out [32]byte
	b := target.Bytes()
	if len(b) > 32 {
		b = b[len(b)-32:]
	}
	copy(out[32-len(b):], b)
	return out
}

// MaxTarget256 is the largest representable 256-bit target (2^256 - 1),
// used to clamp retargeting (spec.md §4.6).
func MaxTarget256() *big.Int {
	max := new(big.Int).Lsh(big.NewInt(1), 256)
	return max.Sub(max, big.NewInt(1))
}

// ValidatePoW reports whether a header's hash, interpreted as a
// big-endian unsigned integer, is at or below the target encoded by
// its difficulty_compact field (spec.md §4.4).
func ValidatePoW(h *Header) bool {
	digest := h.Hash()
	hashInt := new(big.Int).SetBytes(digest[:])
	target := CompactToTarget(h.DifficultyCompact)
	return hashInt.Cmp(target) <= 0
}
