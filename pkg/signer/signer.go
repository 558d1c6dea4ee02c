package signer

import (
	"context"
	"fmt"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/meridian-network/signer-go/pkg/clients/web3signer"
	"github.com/meridian-network/signer-go/pkg/config"
	"github.com/meridian-network/signer-go/pkg/signer/awsKmsSigner"
	"github.com/meridian-network/signer-go/pkg/signer/localSigner"
	"github.com/meridian-network/signer-go/pkg/signer/remoteSigner"
)

// SignatureLength is the byte length of a recoverable signature on the wire:
// one recovery-id byte followed by the 32-byte r and s components.
const SignatureLength = 65

// ISigner is the external signing capability consumed by the envelope
// signer. Implementations may be backed by an in-process key, a hardware
// module, or a remote service.
type ISigner interface {
	// GetSenderAddress returns the signer's canonical address. Idempotent:
	// the same signer always yields the same address, so callers may cache
	// the result.
	GetSenderAddress(ctx context.Context) (common.Address, error)

	// Sign produces a recoverable signature over a 32-byte digest. The
	// returned signature is SignatureLength bytes in [recoveryID || r || s]
	// layout.
	Sign(ctx context.Context, digest [32]byte) ([]byte, error)

	// RecoverPublicKey recovers the uncompressed public key from a hash and
	// a 64-byte [r || s] signature with the recovery-id byte already
	// stripped.
	RecoverPublicKey(hash []byte, sig []byte) ([]byte, error)
}

// NewSigner builds the signing backend selected by cfg. The context is used
// for backend setup only (AWS configuration loading); it does not bound the
// lifetime of the returned signer.
func NewSigner(ctx context.Context, cfg *config.SignerConfig, logger *zap.Logger) (ISigner, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid signer configuration: %w", err)
	}

	switch cfg.Mode {
	case config.SignerModeLocal:
		return localSigner.NewLocalSigner(cfg.PrivateKey, logger)
	case config.SignerModeAWSKMS:
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWSRegion))
		if err != nil {
			return nil, fmt.Errorf("failed to load AWS configuration: %w", err)
		}
		return awsKmsSigner.NewAWSKMSSigner(awsCfg, cfg.KMSKeyId, logger), nil
	case config.SignerModeRemote:
		client, err := web3signer.NewClient(web3signer.ConfigFromRemoteSignerConfig(cfg.RemoteSigner), logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create web3signer client: %w", err)
		}
		return remoteSigner.NewRemoteSigner(client, common.HexToAddress(cfg.RemoteSigner.FromAddress), logger)
	default:
		return nil, fmt.Errorf("unsupported signer mode: %s", cfg.Mode)
	}
}
