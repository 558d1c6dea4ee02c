package main

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"github.com/meridian-network/signer-go/pkg/envelope"
)

func buildEnvelope(to common.Address, value *big.Int, input []byte, gasLimit, expiry, sequence uint64) ([]byte, error) {
	msg := &envelope.CallMessage{
		To:    to,
		Value: value,
		Input: input,
	}
	msgBytes, err := msg.Encode()
	if err != nil {
		return nil, fmt.Errorf("failed to encode call message: %w", err)
	}

	txEnv := &envelope.TxEnvelope{
		Data:     msgBytes,
		GasLimit: gasLimit,
		Expiry:   expiry,
	}
	txBytes, err := txEnv.Encode()
	if err != nil {
		return nil, fmt.Errorf("failed to encode transaction envelope: %w", err)
	}

	nonceEnv := &envelope.NonceEnvelope{
		Inner:    txBytes,
		Sequence: sequence,
	}
	out, err := nonceEnv.Encode()
	if err != nil {
		return nil, fmt.Errorf("failed to encode nonce envelope: %w", err)
	}
	return out, nil
}
