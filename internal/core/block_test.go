package core

import "testing"

func TestBlockEncodeDecodeRoundTrip(t *testing.T) {
	tx1 := mkTx(t, "a", "1")
	tx2 := mkTx(t, "b", "2")
	block := BuildBlockTemplate([32]byte{9}, []*Transaction{tx1, tx2}, 0x207fffff, 1700000000)

	decoded, err := DecodeBlock(block.Encode())
	if err != nil {
		t.Fatalf("DecodeBlock: %v", err)
	}
	if !block.Equal(decoded) {
		t.Error("decoded block does not equal original")
	}
}

func TestBlockDecodeRejectsTrailingBytes(t *testing.T) {
	block := BuildBlockTemplate([32]byte{}, []*Transaction{mkTx(t, "a", "1")}, 0x207fffff, 1700000000)
	encoded := append(block.Encode(), 0x00)
	if _, err := DecodeBlock(encoded); err == nil {
		t.Error("DecodeBlock accepted trailing garbage")
	}
}

func TestBlockDecodeRejectsTruncated(t *testing.T) {
	block := BuildBlockTemplate([32]byte{}, []*Transaction{mkTx(t, "a", "1")}, 0x207fffff, 1700000000)
	encoded := block.Encode()
	if _, err := DecodeBlock(encoded[:len(encoded)-1]); err == nil {
		t.Error("DecodeBlock accepted truncated input")
	}
}

func TestBuildBlockTemplateSatisfiesMerkleRoot(t *testing.T) {
	block := BuildBlockTemplate([32]byte{}, []*Transaction{mkTx(t, "a", "1")}, 0x207fffff, 1700000000)
	if !block.ValidateMerkleRoot() {
		t.Error("template-built block must already satisfy its own merkle root")
	}
}

func TestMineGenesisSatisfiesPoW(t *testing.T) {
	genesis := MineGenesis(1700000000)
	if !ValidatePoW(&genesis.Header) {
		t.Error("mined genesis block must satisfy its own proof-of-work target")
	}
	if !genesis.ValidateMerkleRoot() {
		t.Error("mined genesis block must satisfy its own merkle root")
	}
	if genesis.Header.PrevHash != ([32]byte{}) {
		t.Error("genesis prev_hash must be zero")
	}
}
