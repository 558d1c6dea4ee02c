package persistence

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalSignedRecord_RoundTrip(t *testing.T) {
	record := &SignedRecord{
		Sender:      "0xAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA1",
		Sequence:    7,
		Digest:      "0xdead",
		Signature:   "0xbeef",
		PublicKey:   "0xcafe",
		ChainTagged: true,
		CreatedAt:   1700000000,
	}

	data, err := MarshalSignedRecord(record)
	require.NoError(t, err)

	decoded, err := UnmarshalSignedRecord(data)
	require.NoError(t, err)
	assert.Equal(t, record, decoded)
}

func TestMarshalSignedRecord_Nil(t *testing.T) {
	_, err := MarshalSignedRecord(nil)
	require.Error(t, err)
}

func TestUnmarshalSignedRecord_Invalid(t *testing.T) {
	_, err := UnmarshalSignedRecord([]byte("{not json"))
	require.Error(t, err)
}
