package signer

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/meridian-network/signer-go/pkg/config"
	"github.com/meridian-network/signer-go/pkg/signer/awsKmsSigner"
	"github.com/meridian-network/signer-go/pkg/signer/localSigner"
	"github.com/meridian-network/signer-go/pkg/signer/remoteSigner"
)

const testPrivateKey = "0x59c6995e998f97a5a0044966f0945389dc9e86dae88c7a8412f4603b6b78690d"

func TestNewSigner_Local(t *testing.T) {
	s, err := NewSigner(context.Background(), &config.SignerConfig{
		Mode:       config.SignerModeLocal,
		PrivateKey: testPrivateKey,
	}, zaptest.NewLogger(t))
	require.NoError(t, err)
	assert.IsType(t, &localSigner.LocalSigner{}, s)
}

func TestNewSigner_AWSKMS(t *testing.T) {
	// Construction loads AWS configuration but never contacts KMS;
	// credentials are resolved lazily on first use.
	s, err := NewSigner(context.Background(), &config.SignerConfig{
		Mode:      config.SignerModeAWSKMS,
		KMSKeyId:  "alias/test-signing-key",
		AWSRegion: "us-east-1",
	}, zaptest.NewLogger(t))
	require.NoError(t, err)
	assert.IsType(t, &awsKmsSigner.AWSKMSSigner{}, s)
}

func TestNewSigner_Remote(t *testing.T) {
	s, err := NewSigner(context.Background(), &config.SignerConfig{
		Mode: config.SignerModeRemote,
		RemoteSigner: &config.RemoteSignerConfig{
			Url:         "http://localhost:9000",
			FromAddress: "0x70997970C51812dc3A010C7d01b50e0d17dc79C8",
		},
	}, zaptest.NewLogger(t))
	require.NoError(t, err)
	assert.IsType(t, &remoteSigner.RemoteSigner{}, s)
}

func TestNewSigner_InvalidConfig(t *testing.T) {
	tests := []struct {
		name string
		cfg  *config.SignerConfig
	}{
		{
			name: "local without key",
			cfg:  &config.SignerConfig{Mode: config.SignerModeLocal},
		},
		{
			name: "aws-kms without key id",
			cfg:  &config.SignerConfig{Mode: config.SignerModeAWSKMS},
		},
		{
			name: "remote without config",
			cfg:  &config.SignerConfig{Mode: config.SignerModeRemote},
		},
		{
			name: "unknown mode",
			cfg:  &config.SignerConfig{Mode: config.SignerModeUnknown},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := NewSigner(context.Background(), tt.cfg, zaptest.NewLogger(t))
			require.Error(t, err)
			assert.Nil(t, s)
		})
	}
}
