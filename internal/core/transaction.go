package core

import (
	"bytes"
	"fmt"

	"github.com/hyperion-chain/hyperion/pkg/hash"
)

// Transaction is an opaque input/output byte-vector pair. Content is
// never interpreted: no UTXO model, no signatures, no fees. Adding
// validation beyond non-empty sides would change the hash preimage and
// must be versioned explicitly (spec.md §9).
type Transaction struct {
	Inputs  [][]byte
	Outputs [][]byte
}

// NewTransaction constructs a Transaction, failing if either side is empty.
func NewTransaction(inputs, outputs [][]byte) (*Transaction, error) {
	if len(inputs) == 0 {
		return nil, newErr(EmptyInputs, "transaction must have at least one input")
	}
	if len(outputs) == 0 {
		return nil, newErr(EmptyOutputs, "transaction must have at least one output")
	}
	return &Transaction{Inputs: inputs, Outputs: outputs}, nil
}

// Encode produces the canonical byte encoding of a transaction:
// varint count + (varint length + bytes) for each input, then the same
// for outputs.
func (tx *Transaction) Encode() []byte {
	var buf bytes.Buffer
	encodeByteVectors(&buf, tx.Inputs)
	encodeByteVectors(&buf, tx.Outputs)
	return buf.Bytes()
}

// Hash returns double_sha256(canonical_bytes(tx)).
func (tx *Transaction) Hash() [32]byte {
	return hash.Double(tx.Encode())
}

// DecodeTransaction decodes a Transaction from its canonical encoding,
// returning the number of bytes consumed. It rejects truncated input.
func DecodeTransaction(data []byte) (*Transaction, int, error) {
	off := 0

	inputs, n, err := decodeByteVectors(data[off:])
	if err != nil {
		return nil, 0, wrapErr(Deserialization, "decode transaction inputs", err)
	}
	off += n

	outputs, n, err := decodeByteVectors(data[off:])
	if err != nil {
		return nil, 0, wrapErr(Deserialization, "decode transaction outputs", err)
	}
	off += n

	if len(inputs) == 0 {
		return nil, 0, newErr(EmptyInputs, "decoded transaction has no inputs")
	}
	if len(outputs) == 0 {
		return nil, 0, newErr(EmptyOutputs, "decoded transaction has no outputs")
	}

	return &Transaction{Inputs: inputs, Outputs: outputs}, off, nil
}

func encodeByteVectors(buf *bytes.Buffer, vecs [][]byte) {
	buf.Write(writeVarInt(uint64(len(vecs))))
	for _, v := range vecs {
		buf.Write(writeVarInt(uint64(len(v))))
		buf.Write(v)
	}
}

func decodeByteVectors(data []byte) ([][]byte, int, error) {
	off := 0
	count, n, err := readVarInt(data[off:])
	if err != nil {
		return nil, 0, fmt.Errorf("read count: %w", err)
	}
	off += n

	out := make([][]byte, 0, count)
	for i := uint64(0); i < count; i++ {
		if off >= len(data) {
			return nil, 0, fmt.Errorf("truncated input at element %d", i)
		}
		l, n, err := readVarInt(data[off:])
		if err != nil {
			return nil, 0, fmt.Errorf("read length at element %d: %w", i, err)
		}
		off += n
		if uint64(off)+l > uint64(len(data)) {
			return nil, 0, fmt.Errorf("truncated input: element %d declares %d bytes", i, l)
		}
		elem := make([]byte, l)
		copy(elem, data[off:off+int(l)])
		off += int(l)
		out = append(out, elem)
	}
	return out, off, nil
}

// Equal reports whether two transactions have identical content.
func (tx *Transaction) Equal(other *Transaction) bool {
	if tx == nil || other == nil {
		return tx == other
	}
	return byteVectorsEqual(tx.Inputs, other.Inputs) && byteVectorsEqual(tx.Outputs, other.Outputs)
}

func byteVectorsEqual(a, b [][]byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !bytes.Equal(a[i], b[i]) {
			return false
		}
	}
	return true
}
