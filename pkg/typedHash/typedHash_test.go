package typedHash

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	senderAddr = "0xAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA1"
	destAddr   = "0xBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBB2"
)

func sampleValues() []Value {
	return []Value{
		{Type: TypeAddress, Value: senderAddr},
		{Type: TypeAddress, Value: destAddr},
		{Type: TypeUint64, Value: "7"},
		{Type: TypeBytes, Value: "0xdeadbeef"},
	}
}

func TestSum_Deterministic(t *testing.T) {
	first, err := Sum(sampleValues())
	require.NoError(t, err)

	second, err := Sum(sampleValues())
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestSum_MatchesPackedKeccak(t *testing.T) {
	digest, err := Sum(sampleValues())
	require.NoError(t, err)

	// Independently pack: 20-byte addresses, 8-byte big-endian uint64, raw bytes.
	packed := make([]byte, 0, 52)
	packed = append(packed, common.HexToAddress(senderAddr).Bytes()...)
	packed = append(packed, common.HexToAddress(destAddr).Bytes()...)
	packed = append(packed, []byte{0, 0, 0, 0, 0, 0, 0, 7}...)
	packed = append(packed, []byte{0xde, 0xad, 0xbe, 0xef}...)

	assert.Equal(t, crypto.Keccak256(packed), digest[:])
}

func TestSum_OrderSensitive(t *testing.T) {
	original, err := Sum(sampleValues())
	require.NoError(t, err)

	swapped := sampleValues()
	swapped[0], swapped[1] = swapped[1], swapped[0]

	reordered, err := Sum(swapped)
	require.NoError(t, err)

	assert.NotEqual(t, original, reordered, "swapping sender and destination must change the digest")
}

func TestSum_SequenceSensitive(t *testing.T) {
	seven, err := Sum(sampleValues())
	require.NoError(t, err)

	values := sampleValues()
	values[2].Value = "8"
	eight, err := Sum(values)
	require.NoError(t, err)

	assert.NotEqual(t, seven, eight)
}

func TestSum_InvalidAddress(t *testing.T) {
	_, err := Sum([]Value{{Type: TypeAddress, Value: "not-an-address"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid address")
}

func TestSum_InvalidUint64(t *testing.T) {
	_, err := Sum([]Value{{Type: TypeUint64, Value: "0x7"}})
	require.Error(t, err)

	_, err = Sum([]Value{{Type: TypeUint64, Value: "-1"}})
	require.Error(t, err)
}

func TestSum_InvalidBytes(t *testing.T) {
	_, err := Sum([]Value{{Type: TypeBytes, Value: "deadbeef"}})
	require.Error(t, err, "bytes values must be 0x-prefixed")
}

func TestSum_UnsupportedType(t *testing.T) {
	_, err := Sum([]Value{{Type: "uint256", Value: "1"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported type tag")
}

func TestSum_EmptyInput(t *testing.T) {
	digest, err := Sum(nil)
	require.NoError(t, err)

	// Keccak-256 of the empty string
	assert.Equal(t, crypto.Keccak256(), digest[:])
}
