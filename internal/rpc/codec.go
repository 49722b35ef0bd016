package rpc

import (
	"encoding/hex"

	"github.com/hyperion-chain/hyperion/internal/core"
	"github.com/hyperion-chain/hyperion/pkg/hash"
)

func decodeHash32(s string) ([32]byte, error) {
	return hash.FromHex(s)
}

func txToJSON(tx *core.Transaction) TxJSON {
	return TxJSON{
		Inputs:  bytesToHexSlice(tx.Inputs),
		Outputs: bytesToHexSlice(tx.Outputs),
	}
}

func txFromJSON(j TxJSON) (*core.Transaction, error) {
	inputs, err := hexSliceToBytes(j.Inputs)
	if err != nil {
		return nil, err
	}
	outputs, err := hexSliceToBytes(j.Outputs)
	if err != nil {
		return nil, err
	}
	return core.NewTransaction(inputs, outputs)
}

func bytesToHexSlice(vs [][]byte) []string {
	out := make([]string, len(vs))
	for i, v := range vs {
		out[i] = hex.EncodeToString(v)
	}
	return out
}

func hexSliceToBytes(vs []string) ([][]byte, error) {
	out := make([][]byte, len(vs))
	for i, v := range vs {
		b, err := hex.DecodeString(v)
		if err != nil {
			return nil, err
		}
		out[i] = b
	}
	return out, nil
}

// blockToHex renders a block in the canonical encoding, hex-encoded
// for transport inside a JSON string field.
func blockToHex(b *core.Block) string {
	return hex.EncodeToString(b.Encode())
}

func blockFromHex(s string) (*core.Block, error) {
	raw, err := hex.DecodeString(s)
	if err != nil {
		return nil, err
	}
	return core.DecodeBlock(raw)
}
