package awsKmsSigner

import (
	"context"
	cryptoEcdsa "crypto/ecdsa"
	"encoding/asn1"
	"fmt"
	"math/big"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/kms"
	"github.com/aws/aws-sdk-go-v2/service/kms/types"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// AWSKMSSigner signs envelope digests with an ECC_SECG_P256K1 key held in
// AWS KMS. KMS returns DER-encoded (r, s) without a recovery id, so the id
// is reconstructed by trial recovery against the key's known public key.
type AWSKMSSigner struct {
	logger    *zap.Logger
	kmsClient *kms.Client
	keyId     string

	mu     sync.Mutex
	pubKey *cryptoEcdsa.PublicKey // fetched once, on first use
}

func NewAWSKMSSigner(awsCfg aws.Config, keyId string, logger *zap.Logger) *AWSKMSSigner {
	return &AWSKMSSigner{
		logger:    logger,
		kmsClient: kms.NewFromConfig(awsCfg),
		keyId:     keyId,
	}
}

func (a *AWSKMSSigner) GetSenderAddress(ctx context.Context) (common.Address, error) {
	pubKey, err := a.getPublicKey(ctx)
	if err != nil {
		return common.Address{}, errors.Wrapf(err, "failed to get public key for key %s", a.keyId)
	}
	return crypto.PubkeyToAddress(*pubKey), nil
}

// Sign asks KMS to sign the digest and returns the signature in the wire
// layout [recoveryID || r || s] with low-S canonicalization applied.
func (a *AWSKMSSigner) Sign(ctx context.Context, digest [32]byte) ([]byte, error) {
	expectedPubKey, err := a.getPublicKey(ctx)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to get public key for key %s", a.keyId)
	}

	signOutput, err := a.kmsClient.Sign(ctx, &kms.SignInput{
		KeyId:            aws.String(a.keyId),
		Message:          digest[:],
		SigningAlgorithm: types.SigningAlgorithmSpecEcdsaSha256,
		MessageType:      types.MessageTypeDigest,
	})
	if err != nil {
		return nil, errors.Wrapf(err, "KMS sign failed for key %s", a.keyId)
	}

	var sigAsn1 asn1EcSig
	if _, err := asn1.Unmarshal(signOutput.Signature, &sigAsn1); err != nil {
		return nil, errors.Wrap(err, "failed to parse ASN.1 signature")
	}

	r := new(big.Int).SetBytes(sigAsn1.R.Bytes)
	s := new(big.Int).SetBytes(sigAsn1.S.Bytes)

	// Low-S canonicalization for malleability protection
	halfOrder := new(big.Int).Rsh(secp256k1Order, 1)
	if s.Cmp(halfOrder) > 0 {
		s = new(big.Int).Sub(secp256k1Order, s)
	}

	rBytes := r.FillBytes(make([]byte, 32))
	sBytes := s.FillBytes(make([]byte, 32))

	// KMS does not return a recovery id; find it by trial recovery against
	// the expected public key.
	candidate := make([]byte, 65)
	copy(candidate[0:32], rBytes)
	copy(candidate[32:64], sBytes)

	for recoveryId := byte(0); recoveryId < 4; recoveryId++ {
		candidate[64] = recoveryId

		recoveredBytes, err := crypto.Ecrecover(digest[:], candidate)
		if err != nil {
			a.logger.Debug("Ecrecover failed",
				zap.Uint8("recoveryId", recoveryId),
				zap.Error(err))
			continue
		}

		recovered, err := crypto.UnmarshalPubkey(recoveredBytes)
		if err != nil {
			continue
		}

		if recovered.X.Cmp(expectedPubKey.X) == 0 && recovered.Y.Cmp(expectedPubKey.Y) == 0 {
			signature := make([]byte, 65)
			signature[0] = recoveryId
			copy(signature[1:33], rBytes)
			copy(signature[33:], sBytes)
			return signature, nil
		}
	}

	return nil, fmt.Errorf("could not determine valid recovery ID - signature recovery failed")
}

func (a *AWSKMSSigner) RecoverPublicKey(hash []byte, sig []byte) ([]byte, error) {
	if len(sig) != 64 {
		return nil, fmt.Errorf("signature must be 64 bytes (r || s), got %d", len(sig))
	}

	full := make([]byte, 65)
	copy(full, sig)

	for recoveryId := byte(0); recoveryId < 2; recoveryId++ {
		full[64] = recoveryId
		pubKey, err := crypto.Ecrecover(hash, full)
		if err != nil {
			continue
		}
		return pubKey, nil
	}

	return nil, fmt.Errorf("could not recover public key from signature")
}

func (a *AWSKMSSigner) getPublicKey(ctx context.Context) (*cryptoEcdsa.PublicKey, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.pubKey != nil {
		return a.pubKey, nil
	}

	result, err := a.kmsClient.GetPublicKey(ctx, &kms.GetPublicKeyInput{
		KeyId: aws.String(a.keyId),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get public key: %w", err)
	}

	pubKey, err := parseECDSAPublicKey(result.PublicKey)
	if err != nil {
		return nil, fmt.Errorf("failed to parse public key: %w", err)
	}

	a.pubKey = pubKey
	return pubKey, nil
}

// parseECDSAPublicKey parses the DER-encoded public key returned by KMS.
func parseECDSAPublicKey(derBytes []byte) (*cryptoEcdsa.PublicKey, error) {
	var asn1pubk asn1EcPublicKey
	if _, err := asn1.Unmarshal(derBytes, &asn1pubk); err != nil {
		return nil, fmt.Errorf("failed to parse ASN.1 public key: %w", err)
	}
	return crypto.UnmarshalPubkey(asn1pubk.PublicKey.Bytes)
}

var secp256k1Order, _ = new(big.Int).SetString("FFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFEBAAEDCE6AF48A03BBFD25E8CD0364141", 16)

type asn1EcSig struct {
	R asn1.RawValue
	S asn1.RawValue
}

type asn1EcPublicKey struct {
	EcPublicKeyInfo asn1EcPublicKeyInfo
	PublicKey       asn1.BitString
}

type asn1EcPublicKeyInfo struct {
	Algorithm  asn1.ObjectIdentifier
	Parameters asn1.ObjectIdentifier
}
