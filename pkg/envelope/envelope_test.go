package envelope

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNonceEnvelope_RoundTrip(t *testing.T) {
	env := &NonceEnvelope{
		Inner:    []byte{0x01, 0x02, 0x03},
		Sequence: 42,
	}

	data, err := env.Encode()
	require.NoError(t, err)

	decoded, err := DecodeNonceEnvelope(data)
	require.NoError(t, err)
	assert.Equal(t, env.Inner, decoded.Inner)
	assert.Equal(t, env.Sequence, decoded.Sequence)
}

func TestThreeLayerStack_RoundTrip(t *testing.T) {
	msg := &CallMessage{
		To:    common.HexToAddress("0xBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBB2"),
		Value: big.NewInt(1000),
		Input: []byte{0xca, 0xfe},
	}
	msgBytes, err := msg.Encode()
	require.NoError(t, err)

	txEnv := &TxEnvelope{Data: msgBytes, GasLimit: 21000, Expiry: 99}
	txBytes, err := txEnv.Encode()
	require.NoError(t, err)

	nonceEnv := &NonceEnvelope{Inner: txBytes, Sequence: 7}
	outer, err := nonceEnv.Encode()
	require.NoError(t, err)

	// Unwind the stack
	decodedOuter, err := DecodeNonceEnvelope(outer)
	require.NoError(t, err)
	assert.Equal(t, uint64(7), decodedOuter.Sequence)

	decodedTx, err := DecodeTxEnvelope(decodedOuter.Inner)
	require.NoError(t, err)
	assert.Equal(t, uint64(21000), decodedTx.GasLimit)

	decodedMsg, err := DecodeCallMessage(decodedTx.Data)
	require.NoError(t, err)
	assert.Equal(t, msg.To, decodedMsg.To)
	assert.Equal(t, 0, msg.Value.Cmp(decodedMsg.Value))
	assert.Equal(t, msg.Input, decodedMsg.Input)
}

func TestSignedEnvelope_RoundTrip(t *testing.T) {
	env := &SignedEnvelope{
		Inner:     []byte{0xaa, 0xbb},
		Signature: make([]byte, 65),
		PublicKey: make([]byte, 65),
		ChainTag:  "meridian",
	}

	data, err := env.Encode()
	require.NoError(t, err)

	decoded, err := DecodeSignedEnvelope(data)
	require.NoError(t, err)
	assert.Equal(t, env.Inner, decoded.Inner)
	assert.Equal(t, env.Signature, decoded.Signature)
	assert.Equal(t, env.PublicKey, decoded.PublicKey)
	assert.Equal(t, env.ChainTag, decoded.ChainTag)
}

func TestDecodeNonceEnvelope_Malformed(t *testing.T) {
	_, err := DecodeNonceEnvelope([]byte{})
	require.Error(t, err)

	_, err = DecodeNonceEnvelope([]byte{0xff, 0x00})
	require.Error(t, err)
}

func TestDecodeNonceEnvelope_Truncated(t *testing.T) {
	env := &NonceEnvelope{Inner: []byte{0x01, 0x02, 0x03, 0x04}, Sequence: 1}
	data, err := env.Encode()
	require.NoError(t, err)

	_, err = DecodeNonceEnvelope(data[:len(data)-2])
	require.Error(t, err)
}
