// Package envelope defines the three-layer Meridian transaction wire format
// and its RLP codec.
//
// A transaction travels as a NonceEnvelope wrapping a TxEnvelope wrapping a
// CallMessage. Signing wraps the serialized NonceEnvelope verbatim into a
// SignedEnvelope; the inner bytes are never re-encoded.
package envelope

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/rlp"
)

// NonceEnvelope tags a serialized TxEnvelope with the sender's
// replay-protection sequence counter.
type NonceEnvelope struct {
	Inner    []byte
	Sequence uint64
}

// TxEnvelope is the unsigned transaction body. Only Data is consumed by the
// signing layer; the remaining fields belong to the execution layer.
type TxEnvelope struct {
	Data     []byte
	GasLimit uint64
	Expiry   uint64
}

// CallMessage is the semantic payload of a transaction. The signing layer
// consumes only the destination address.
type CallMessage struct {
	To    common.Address
	Value *big.Int
	Input []byte
}

// SignedEnvelope is the final artifact handed to the transport layer. Inner
// holds the original serialized NonceEnvelope byte-for-byte.
type SignedEnvelope struct {
	Inner     []byte
	Signature []byte
	PublicKey []byte
	ChainTag  string
}

func DecodeNonceEnvelope(data []byte) (*NonceEnvelope, error) {
	var env NonceEnvelope
	if err := rlp.DecodeBytes(data, &env); err != nil {
		return nil, fmt.Errorf("failed to decode nonce envelope: %w", err)
	}
	return &env, nil
}

func DecodeTxEnvelope(data []byte) (*TxEnvelope, error) {
	var env TxEnvelope
	if err := rlp.DecodeBytes(data, &env); err != nil {
		return nil, fmt.Errorf("failed to decode transaction envelope: %w", err)
	}
	return &env, nil
}

func DecodeCallMessage(data []byte) (*CallMessage, error) {
	var msg CallMessage
	if err := rlp.DecodeBytes(data, &msg); err != nil {
		return nil, fmt.Errorf("failed to decode call message: %w", err)
	}
	return &msg, nil
}

func DecodeSignedEnvelope(data []byte) (*SignedEnvelope, error) {
	var env SignedEnvelope
	if err := rlp.DecodeBytes(data, &env); err != nil {
		return nil, fmt.Errorf("failed to decode signed envelope: %w", err)
	}
	return &env, nil
}

func (e *NonceEnvelope) Encode() ([]byte, error) {
	return rlp.EncodeToBytes(e)
}

func (e *TxEnvelope) Encode() ([]byte, error) {
	return rlp.EncodeToBytes(e)
}

func (m *CallMessage) Encode() ([]byte, error) {
	return rlp.EncodeToBytes(m)
}

func (e *SignedEnvelope) Encode() ([]byte, error) {
	return rlp.EncodeToBytes(e)
}
