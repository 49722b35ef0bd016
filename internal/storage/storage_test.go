package storage

import (
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap"

	"github.com/hyperion-chain/hyperion/internal/core"
)

func testChain(t *testing.T) *core.Blockchain {
	t.Helper()
	genesis := core.MineGenesis(1700000000)
	chain := core.NewBlockchain(genesis)

	prev := genesis
	for i := 0; i < 3; i++ {
		tx, err := core.NewTransaction([][]byte{[]byte("in")}, [][]byte{[]byte("out")})
		if err != nil {
			t.Fatalf("NewTransaction: %v", err)
		}
		block := core.BuildBlockTemplate(prev.Header.Hash(), []*core.Transaction{tx}, core.GenesisDifficultyCompact, uint32(1700000000+i+1))
		core.Mine(&block.Header)
		if err := chain.AddBlock(block, false); err != nil {
			t.Fatalf("AddBlock %d: %v", i, err)
		}
		prev = block
	}
	return chain
}

func TestSaveLoadChainRoundTrip(t *testing.T) {
	chain := testChain(t)
	path := filepath.Join(t.TempDir(), "blockchain.dat")

	if err := SaveChain(path, chain); err != nil {
		t.Fatalf("SaveChain: %v", err)
	}
	if !Exists(path) {
		t.Fatal("Exists reports false right after SaveChain")
	}

	loaded, err := LoadChain(path)
	if err != nil {
		t.Fatalf("LoadChain: %v", err)
	}
	if loaded.Height() != chain.Height() {
		t.Fatalf("height = %d, want %d", loaded.Height(), chain.Height())
	}
	for h := uint64(0); h <= chain.Height(); h++ {
		want, _ := chain.At(h)
		got, _ := loaded.At(h)
		if !got.Equal(want) {
			t.Errorf("block %d mismatch after round trip", h)
		}
	}
}

func TestLoadChainRejectsTruncatedFile(t *testing.T) {
	chain := testChain(t)
	path := filepath.Join(t.TempDir(), "blockchain.dat")
	if err := SaveChain(path, chain); err != nil {
		t.Fatalf("SaveChain: %v", err)
	}

	full := chain.Encode()
	truncated := filepath.Join(t.TempDir(), "truncated.dat")
	if err := os.WriteFile(truncated, full[:len(full)-5], 0o600); err != nil {
		t.Fatalf("write truncated file: %v", err)
	}

	if _, err := LoadChain(truncated); err == nil {
		t.Error("expected error loading a truncated chain file")
	}
}

func TestIndexAddAndGet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.db")
	idx, err := NewBoltStore(path, zap.NewNop())
	if err != nil {
		t.Fatalf("NewBoltStore: %v", err)
	}
	defer idx.Close()

	var hash [32]byte
	hash[0] = 0xab
	if err := idx.Add(hash, 7); err != nil {
		t.Fatalf("Add: %v", err)
	}
	got, ok := idx.Get(hash)
	if !ok || got != 7 {
		t.Errorf("Get = (%d, %v), want (7, true)", got, ok)
	}
	if idx.Count() != 1 {
		t.Errorf("Count = %d, want 1", idx.Count())
	}
}

func TestIndexAddRejectsDuplicate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.db")
	idx, err := NewBoltStore(path, zap.NewNop())
	if err != nil {
		t.Fatalf("NewBoltStore: %v", err)
	}
	defer idx.Close()

	var hash [32]byte
	hash[0] = 0x01
	if err := idx.Add(hash, 1); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := idx.Add(hash, 2); err == nil {
		t.Error("expected error adding duplicate hash")
	}
}

func TestIndexRebuildFromChain(t *testing.T) {
	chain := testChain(t)
	path := filepath.Join(t.TempDir(), "index.db")
	idx, err := NewBoltStore(path, zap.NewNop())
	if err != nil {
		t.Fatalf("NewBoltStore: %v", err)
	}
	defer idx.Close()

	if err := idx.Rebuild(chain); err != nil {
		t.Fatalf("Rebuild: %v", err)
	}
	if idx.Count() != chain.Len() {
		t.Errorf("Count = %d, want %d", idx.Count(), chain.Len())
	}

	tail := chain.Tail()
	height, ok := idx.Get(tail.Header.Hash())
	if !ok {
		t.Fatal("tail hash not found in rebuilt index")
	}
	if height != chain.Height() {
		t.Errorf("indexed height = %d, want %d", height, chain.Height())
	}
}

func TestIndexPersistenceAcrossRestart(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.db")
	var hash [32]byte
	hash[0] = 0x42

	idx, err := NewBoltStore(path, zap.NewNop())
	if err != nil {
		t.Fatalf("NewBoltStore (phase 1): %v", err)
	}
	if err := idx.Add(hash, 3); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := idx.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	reopened, err := NewBoltStore(path, zap.NewNop())
	if err != nil {
		t.Fatalf("NewBoltStore (phase 2): %v", err)
	}
	defer reopened.Close()

	height, ok := reopened.Get(hash)
	if !ok || height != 3 {
		t.Errorf("Get after reopen = (%d, %v), want (3, true)", height, ok)
	}
	if reopened.Count() != 1 {
		t.Errorf("Count after reopen = %d, want 1", reopened.Count())
	}
}

