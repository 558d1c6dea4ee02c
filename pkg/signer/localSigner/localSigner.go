package localSigner

import (
	"context"
	cryptoEcdsa "crypto/ecdsa"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"go.uber.org/zap"
)

// LocalSigner signs with an in-process secp256k1 private key. Intended for
// development and tests; production deployments should prefer the KMS or
// remote backends so the key never lives in the signer process.
type LocalSigner struct {
	logger     *zap.Logger
	privateKey *cryptoEcdsa.PrivateKey
	address    common.Address
}

func NewLocalSigner(privateKeyHex string, logger *zap.Logger) (*LocalSigner, error) {
	privateKeyHex = strings.TrimPrefix(privateKeyHex, "0x")

	key, err := crypto.HexToECDSA(privateKeyHex)
	if err != nil {
		return nil, fmt.Errorf("failed to parse private key: %w", err)
	}

	return &LocalSigner{
		logger:     logger,
		privateKey: key,
		address:    crypto.PubkeyToAddress(key.PublicKey),
	}, nil
}

// NewLocalSignerFromKey wraps an already-parsed key. Used by tests that
// generate throwaway keys.
func NewLocalSignerFromKey(key *cryptoEcdsa.PrivateKey, logger *zap.Logger) *LocalSigner {
	return &LocalSigner{
		logger:     logger,
		privateKey: key,
		address:    crypto.PubkeyToAddress(key.PublicKey),
	}
}

func (s *LocalSigner) GetSenderAddress(ctx context.Context) (common.Address, error) {
	return s.address, nil
}

// Sign signs the raw digest and returns the signature in the wire layout
// [recoveryID || r || s]. go-ethereum produces [r || s || v], so the
// recovery byte is moved to the front.
func (s *LocalSigner) Sign(ctx context.Context, digest [32]byte) ([]byte, error) {
	sig, err := crypto.Sign(digest[:], s.privateKey)
	if err != nil {
		return nil, fmt.Errorf("failed to sign digest: %w", err)
	}

	out := make([]byte, len(sig))
	out[0] = sig[64]
	copy(out[1:], sig[:64])

	s.logger.Debug("signed digest",
		zap.String("address", s.address.Hex()),
		zap.Uint8("recoveryId", out[0]),
	)

	return out, nil
}

// RecoverPublicKey recovers the uncompressed public key from hash and a
// 64-byte [r || s] signature. The recovery id is not part of the input, so
// both candidates are tried and the first that recovers wins.
func (s *LocalSigner) RecoverPublicKey(hash []byte, sig []byte) ([]byte, error) {
	if len(sig) != 64 {
		return nil, fmt.Errorf("signature must be 64 bytes (r || s), got %d", len(sig))
	}

	full := make([]byte, 65)
	copy(full, sig)

	for recoveryId := byte(0); recoveryId < 2; recoveryId++ {
		full[64] = recoveryId
		pubKey, err := crypto.Ecrecover(hash, full)
		if err != nil {
			s.logger.Debug("Ecrecover failed",
				zap.Uint8("recoveryId", recoveryId),
				zap.Error(err),
			)
			continue
		}
		return pubKey, nil
	}

	return nil, fmt.Errorf("could not recover public key from signature")
}
