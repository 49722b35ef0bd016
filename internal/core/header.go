package core

import (
	"encoding/binary"
	"fmt"

	"github.com/hyperion-chain/hyperion/pkg/hash"
)

// HeaderSize is the fixed encoded size of a Header in bytes:
// version(4) + time(4) + difficulty_compact(4) + nonce(8) + prev_hash(32) + merkle_root(32).
const HeaderSize = 4 + 4 + 4 + 8 + 32 + 32

// Header is a block header. All integer fields are little-endian in
// the canonical encoding; the two hash fields are written in place with
// no length prefix (spec.md §3, §4.2).
type Header struct {
	Version           uint32
	Time              uint32
	DifficultyCompact uint32
	Nonce             uint64
	PrevHash          [32]byte
	MerkleRoot        [32]byte
}

// Encode produces the canonical 84-byte encoding of the header, in
// field declaration order: version, time, difficulty_compact, nonce,
// prev_hash, merkle_root.
func (h *Header) Encode() []byte {
	buf := make([]byte, HeaderSize)
	binary.LittleEndian.PutUint32(buf[0:4], h.Version)
	binary.LittleEndian.PutUint32(buf[4:8], h.Time)
	binary.LittleEndian.PutUint32(buf[8:12], h.DifficultyCompact)
	binary.LittleEndian.PutUint64(buf[12:20], h.Nonce)
	copy(buf[20:52], h.PrevHash[:])
	copy(buf[52:84], h.MerkleRoot[:])
	return buf
}

// DecodeHeader decodes a Header from its canonical encoding.
func DecodeHeader(data []byte) (*Header, error) {
	if len(data) < HeaderSize {
		return nil, newErr(Deserialization, fmt.Sprintf("header too short: %d bytes, want %d", len(data), HeaderSize))
	}
	h := &Header{
		Version:           binary.LittleEndian.Uint32(data[0:4]),
		Time:              binary.LittleEndian.Uint32(data[4:8]),
		DifficultyCompact: binary.LittleEndian.Uint32(data[8:12]),
		Nonce:             binary.LittleEndian.Uint64(data[12:20]),
	}
	copy(h.PrevHash[:], data[20:52])
	copy(h.MerkleRoot[:], data[52:84])
	return h, nil
}

// Hash returns double_sha256(canonical_bytes(header)) — the header hash
// used both for chain linkage (prev_hash of the next block) and for the
// PoW check.
func (h *Header) Hash() [32]byte {
	return hash.Double(h.Encode())
}

// Equal reports whether two headers have identical field values.
func (h *Header) Equal(other *Header) bool {
	if h == nil || other == nil {
		return h == other
	}
	return h.Version == other.Version &&
		h.Time == other.Time &&
		h.DifficultyCompact == other.DifficultyCompact &&
		h.Nonce == other.Nonce &&
		h.PrevHash == other.PrevHash &&
		h.MerkleRoot == other.MerkleRoot
}
