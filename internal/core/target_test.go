package core

import (
	"math/big"
	"testing"
)

func TestCompactToTargetKnownValues(t *testing.T) {
	cases := []struct {
		compact uint32
		want    string
	}{
		// Bitcoin mainnet genesis nBits, re-used here purely as a
		// known-value boundary case for the codec (spec.md §4.4).
		{0x1d00ffff, "26959535291011309493156476344723991336010898738574164086137773096960"},
		{GenesisDifficultyCompact, "57896037716911750921221705069588091649609539881711309849342236841432341020672"},
	}
	for _, c := range cases {
		want, ok := new(big.Int).SetString(c.want, 10)
		if !ok {
			t.Fatalf("bad test fixture %q", c.want)
		}
		got := CompactToTarget(c.compact)
		if got.Cmp(want) != 0 {
			t.Errorf("CompactToTarget(%#x) = %s, want %s", c.compact, got, want)
		}
	}
}

func TestCompactTargetRoundTrip(t *testing.T) {
	cases := []uint32{
		0x1d00ffff,
		GenesisDifficultyCompact,
		0x01010000,
		0x04123456,
		0x01120000,
		0x02008000,
	}
	for _, compact := range cases {
		target := CompactToTarget(compact)
		got := TargetToCompact(target)
		if got != compact {
			t.Errorf("round-trip mismatch: compact %#x -> target %s -> compact %#x", compact, target, got)
		}
	}
}

func TestTargetToCompactSmallValue(t *testing.T) {
	// target = 5 fits in a single byte; the minimal-byte mantissa must be
	// placed at the high end of the 3-byte field (size=1), not the low end.
	target := big.NewInt(5)
	compact := TargetToCompact(target)
	back := CompactToTarget(compact)
	if back.Cmp(target) != 0 {
		t.Errorf("TargetToCompact(5) round-trip = %s, want 5 (compact was %#x)", back, compact)
	}
}

func TestTargetOrderingPreserved(t *testing.T) {
	lo := CompactToTarget(0x03000001)
	hi := CompactToTarget(0x04123456)
	if lo.Cmp(hi) >= 0 {
		t.Errorf("expected lo < hi target, got lo=%s hi=%s", lo, hi)
	}
}

func TestMaxTarget256(t *testing.T) {
	max := MaxTarget256()
	if max.BitLen() != 256 {
		t.Errorf("MaxTarget256 bit length = %d, want 256", max.BitLen())
	}
	plusOne := new(big.Int).Add(max, big.NewInt(1))
	if plusOne.BitLen() != 257 {
		t.Errorf("MaxTarget256 + 1 should overflow 256 bits")
	}
}

func TestValidatePoWAgainstPermissiveTarget(t *testing.T) {
	h := &Header{DifficultyCompact: 0xffffffff}
	if !ValidatePoW(h) {
		t.Error("any header hash must satisfy the near-maximal target at compact 0xffffffff")
	}
}

func TestTargetBytesMainnetPrefix(t *testing.T) {
	target := CompactToTarget(0x1d00ffff)
	b := TargetBytes(target)
	want := [7]byte{0, 0, 0, 0, 0xff, 0xff, 0}
	for i, w := range want {
		if b[i] != w {
			t.Fatalf("TargetBytes(0x1d00ffff)[:7] = %x, want %x", b[:7], want)
		}
	}
}

func TestCompactToTargetMinimalExponent(t *testing.T) {
	// exponent 0 means the mantissa itself is shifted right by 24 bits.
	target := CompactToTarget(0x00123456)
	if target.Sign() != 0 {
		t.Errorf("CompactToTarget with exponent 0 and small mantissa should right-shift to zero, got %s", target)
	}
}
