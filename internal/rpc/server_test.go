package rpc

import (
	"context"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"

	"github.com/hyperion-chain/hyperion/internal/core"
)

func testChain(t *testing.T) *core.Blockchain {
	t.Helper()
	genesis := core.MineGenesis(1700000000)
	return core.NewBlockchain(genesis)
}

func TestGetBlockTemplateReportsNextHeight(t *testing.T) {
	chain := testChain(t)
	mempool := core.NewMempool()
	srv := NewServer(chain, mempool, nil, zap.NewNop())

	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	client := NewClient(ts.URL)
	ctx := context.Background()

	tmpl, err := client.GetBlockTemplate(ctx)
	if err != nil {
		t.Fatalf("GetBlockTemplate: %v", err)
	}
	if tmpl.Height != 1 {
		t.Errorf("template height = %d, want 1", tmpl.Height)
	}
}

func TestSubmitBlockAcceptsValidBlock(t *testing.T) {
	chain := testChain(t)
	mempool := core.NewMempool()
	srv := NewServer(chain, mempool, nil, zap.NewNop())
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	client := NewClient(ts.URL)
	ctx := context.Background()

	tmpl, err := client.GetBlockTemplate(ctx)
	if err != nil {
		t.Fatalf("GetBlockTemplate: %v", err)
	}
	block, err := TemplateToBlock(tmpl)
	if err != nil {
		t.Fatalf("TemplateToBlock: %v", err)
	}
	core.Mine(&block.Header)

	result, err := client.SubmitBlock(ctx, block)
	if err != nil {
		t.Fatalf("SubmitBlock: %v", err)
	}
	if !result.Accepted {
		t.Fatalf("block rejected: %s", result.Message)
	}
	if chain.Height() != 1 {
		t.Errorf("chain height = %d, want 1", chain.Height())
	}
}

func TestSubmitBlockRejectsStaleTemplate(t *testing.T) {
	chain := testChain(t)
	mempool := core.NewMempool()
	srv := NewServer(chain, mempool, nil, zap.NewNop())
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	client := NewClient(ts.URL)
	ctx := context.Background()

	tmpl, _ := client.GetBlockTemplate(ctx)
	block, _ := TemplateToBlock(tmpl)
	core.Mine(&block.Header)

	// Submit once: accepted, advances the tail.
	if _, err := client.SubmitBlock(ctx, block); err != nil {
		t.Fatalf("first submit: %v", err)
	}
	// Submitting the identical (now-stale) block again must be rejected.
	result, err := client.SubmitBlock(ctx, block)
	if err != nil {
		t.Fatalf("second submit: %v", err)
	}
	if result.Accepted {
		t.Error("stale block should have been rejected")
	}
}

func TestGetMiningInfoReportsLiteralCompactDifficulty(t *testing.T) {
	chain := testChain(t)
	mempool := core.NewMempool()
	srv := NewServer(chain, mempool, nil, zap.NewNop())

	info := srv.getMiningInfo()
	if info.Difficulty != float64(core.GenesisDifficultyCompact) {
		t.Errorf("difficulty = %v, want literal compact %v", info.Difficulty, float64(core.GenesisDifficultyCompact))
	}
	if info.Chain != "hyperion" {
		t.Errorf("chain = %q, want hyperion", info.Chain)
	}
}

func TestUnknownMethodReturnsMethodNotFound(t *testing.T) {
	chain := testChain(t)
	mempool := core.NewMempool()
	srv := NewServer(chain, mempool, nil, zap.NewNop())

	_, rpcErr := srv.dispatch(context.Background(), "no_such_method", nil)
	if rpcErr == nil || rpcErr.Code != CodeMethodNotFound {
		t.Errorf("expected CodeMethodNotFound, got %v", rpcErr)
	}
}
