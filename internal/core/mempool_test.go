package core

import "testing"

func TestMempoolPeekIsNonDestructive(t *testing.T) {
	mp := NewMempool()
	mp.Add(mkTx(t, "a", "1"))
	mp.Add(mkTx(t, "b", "2"))

	first := mp.Peek(10)
	second := mp.Peek(10)

	if len(first) != 2 || len(second) != 2 {
		t.Fatalf("expected 2 transactions from both peeks, got %d and %d", len(first), len(second))
	}
	if mp.Len() != 2 {
		t.Errorf("Peek must not remove transactions; Len() = %d, want 2", mp.Len())
	}
}

func TestMempoolPeekRespectsMax(t *testing.T) {
	mp := NewMempool()
	mp.Add(mkTx(t, "a", "1"))
	mp.Add(mkTx(t, "b", "2"))
	mp.Add(mkTx(t, "c", "3"))

	got := mp.Peek(2)
	if len(got) != 2 {
		t.Errorf("Peek(2) returned %d transactions, want 2", len(got))
	}
}

func TestMempoolRemoveDeletesAcceptedTransactions(t *testing.T) {
	mp := NewMempool()
	tx1 := mkTx(t, "a", "1")
	tx2 := mkTx(t, "b", "2")
	tx3 := mkTx(t, "c", "3")
	mp.Add(tx1)
	mp.Add(tx2)
	mp.Add(tx3)

	mp.Remove([]*Transaction{tx2})

	remaining := mp.Peek(10)
	if len(remaining) != 2 {
		t.Fatalf("expected 2 remaining transactions, got %d", len(remaining))
	}
	for _, tx := range remaining {
		if tx.Equal(tx2) {
			t.Error("removed transaction still present in pool")
		}
	}
}
