// Package typedHash computes the canonical structured Keccak-256 digest the
// Meridian verifier expects: an ordered list of explicitly typed values, each
// tightly packed per its type's encoding rules, concatenated and hashed.
//
// The packing is compatible with Solidity's abi.encodePacked: addresses pack
// to their 20 raw bytes, uint64 to 8 big-endian bytes, bytes to their raw
// content. Field order, type tags, and value encodings are all part of the
// signature compatibility contract with the verifying chain.
package typedHash

import (
	"encoding/binary"
	"fmt"
	"strconv"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"golang.org/x/crypto/sha3"
)

// Supported type tags.
const (
	TypeAddress = "address"
	TypeUint64  = "uint64"
	TypeBytes   = "bytes"
)

// Value is a single element of the hash input. The value is always carried in
// text form: a 0x-prefixed hex address for "address", a decimal string for
// "uint64", and 0x-prefixed hex data for "bytes".
type Value struct {
	Type  string
	Value string
}

// Sum packs the values in order and returns the Keccak-256 digest of the
// concatenation.
func Sum(values []Value) ([32]byte, error) {
	var digest [32]byte

	h := sha3.NewLegacyKeccak256()
	for i, v := range values {
		packed, err := pack(v)
		if err != nil {
			return digest, fmt.Errorf("element %d: %w", i, err)
		}
		h.Write(packed)
	}

	copy(digest[:], h.Sum(nil))
	return digest, nil
}

func pack(v Value) ([]byte, error) {
	switch v.Type {
	case TypeAddress:
		if !common.IsHexAddress(v.Value) {
			return nil, fmt.Errorf("invalid address value: %s", v.Value)
		}
		addr := common.HexToAddress(v.Value)
		return addr.Bytes(), nil

	case TypeUint64:
		n, err := strconv.ParseUint(v.Value, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid uint64 value %q: %w", v.Value, err)
		}
		buf := make([]byte, 8)
		binary.BigEndian.PutUint64(buf, n)
		return buf, nil

	case TypeBytes:
		data, err := hexutil.Decode(v.Value)
		if err != nil {
			return nil, fmt.Errorf("invalid bytes value: %w", err)
		}
		return data, nil

	default:
		return nil, fmt.Errorf("unsupported type tag: %s", v.Type)
	}
}
