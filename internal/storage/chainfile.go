// Package storage persists the blockchain to disk: a flat file holding
// the canonical chain encoding, rewritten whole on each save, and a bbolt-backed
// hash-to-height index rebuilt from that file at startup (spec.md §6.5).
package storage

import (
	"fmt"
	"os"

	"github.com/hyperion-chain/hyperion/internal/core"
)

// SaveChain writes encode(Blockchain) to path, replacing any existing
// file via a rename so a crash mid-write never leaves a truncated file
// in place. It is called after every accepted block; a failure here is
// a side effect for the caller to log, never a reason to roll back
// consensus state (spec.md §7).
func SaveChain(path string, chain *core.Blockchain) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, chain.Encode(), 0o600); err != nil {
		return fmt.Errorf("storage: write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("storage: rename %s to %s: %w", tmp, path, err)
	}
	return nil
}

// LoadChain reads a file written by SaveChain and reconstructs the
// blockchain in memory. The first block in the file is genesis.
func LoadChain(path string) (*core.Blockchain, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("storage: read %s: %w", path, err)
	}
	chain, err := core.DecodeBlockchain(data)
	if err != nil {
		return nil, fmt.Errorf("storage: decode %s: %w", path, err)
	}
	return chain, nil
}

// Exists reports whether a chain file is already present at path.
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
