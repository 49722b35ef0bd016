package core

import "testing"

func mkTx(t *testing.T, in, out string) *Transaction {
	t.Helper()
	tx, err := NewTransaction([][]byte{[]byte(in)}, [][]byte{[]byte(out)})
	if err != nil {
		t.Fatalf("NewTransaction: %v", err)
	}
	return tx
}

func TestMerkleRootEmpty(t *testing.T) {
	root := MerkleRoot(nil)
	if root != ([32]byte{}) {
		t.Errorf("MerkleRoot(nil) = %x, want zero root", root)
	}
}

func TestMerkleRootSingle(t *testing.T) {
	tx := mkTx(t, "a", "b")
	root := MerkleRoot([]*Transaction{tx})
	if root != tx.Hash() {
		t.Errorf("MerkleRoot of single tx should equal its hash")
	}
}

func TestMerkleRootOddLayerDuplication(t *testing.T) {
	tx1 := mkTx(t, "a", "1")
	tx2 := mkTx(t, "b", "2")
	tx3 := mkTx(t, "c", "3")

	odd := MerkleRoot([]*Transaction{tx1, tx2, tx3})
	duplicated := MerkleRoot([]*Transaction{tx1, tx2, tx3, tx3})

	if odd != duplicated {
		t.Errorf("odd-length merkle root should equal the root with the last tx duplicated (CVE-2012-2459 parity)")
	}
}

func TestMerkleRootOrderSensitive(t *testing.T) {
	tx1 := mkTx(t, "a", "1")
	tx2 := mkTx(t, "b", "2")

	r1 := MerkleRoot([]*Transaction{tx1, tx2})
	r2 := MerkleRoot([]*Transaction{tx2, tx1})
	if r1 == r2 {
		t.Error("merkle root should depend on transaction order")
	}
}
