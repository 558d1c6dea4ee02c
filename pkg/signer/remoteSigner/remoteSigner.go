package remoteSigner

import (
	"context"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"go.uber.org/zap"

	"github.com/meridian-network/signer-go/pkg/clients/web3signer"
)

// RemoteSigner signs with a key held by a Web3Signer-compatible service.
// The service returns signatures in the Ethereum [r || s || v] layout with
// v in {27, 28}; they are normalized to the wire layout [recoveryID || r || s].
type RemoteSigner struct {
	logger      *zap.Logger
	client      web3signer.IWeb3Signer
	fromAddress common.Address
}

func NewRemoteSigner(client web3signer.IWeb3Signer, fromAddress common.Address, logger *zap.Logger) (*RemoteSigner, error) {
	if client == nil {
		return nil, fmt.Errorf("web3signer client cannot be nil")
	}
	return &RemoteSigner{
		logger:      logger,
		client:      client,
		fromAddress: fromAddress,
	}, nil
}

func (r *RemoteSigner) GetSenderAddress(ctx context.Context) (common.Address, error) {
	// Verify the service actually holds the configured account so a
	// misconfiguration fails on first use instead of at signing time.
	accounts, err := r.client.EthAccounts(ctx)
	if err != nil {
		return common.Address{}, fmt.Errorf("failed to list remote signer accounts: %w", err)
	}
	for _, acct := range accounts {
		if strings.EqualFold(acct, r.fromAddress.Hex()) {
			return r.fromAddress, nil
		}
	}
	return common.Address{}, fmt.Errorf("remote signer does not hold account %s", r.fromAddress.Hex())
}

func (r *RemoteSigner) Sign(ctx context.Context, digest [32]byte) ([]byte, error) {
	sigHex, err := r.client.EthSign(ctx, r.fromAddress.Hex(), hexutil.Encode(digest[:]))
	if err != nil {
		return nil, fmt.Errorf("remote signing failed: %w", err)
	}

	sig, err := hexutil.Decode(sigHex)
	if err != nil {
		return nil, fmt.Errorf("failed to decode remote signature: %w", err)
	}
	if len(sig) != 65 {
		return nil, fmt.Errorf("remote signature must be 65 bytes, got %d", len(sig))
	}

	out := make([]byte, 65)
	v := sig[64]
	if v >= 27 {
		v -= 27
	}
	out[0] = v
	copy(out[1:], sig[:64])

	return out, nil
}

func (r *RemoteSigner) RecoverPublicKey(hash []byte, sig []byte) ([]byte, error) {
	if len(sig) != 64 {
		return nil, fmt.Errorf("signature must be 64 bytes (r || s), got %d", len(sig))
	}

	full := make([]byte, 65)
	copy(full, sig)

	for recoveryId := byte(0); recoveryId < 2; recoveryId++ {
		full[64] = recoveryId
		pubKey, err := crypto.Ecrecover(hash, full)
		if err != nil {
			r.logger.Debug("Ecrecover failed",
				zap.Uint8("recoveryId", recoveryId),
				zap.Error(err),
			)
			continue
		}
		return pubKey, nil
	}

	return nil, fmt.Errorf("could not recover public key from signature")
}
