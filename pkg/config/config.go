package config

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"k8s.io/apimachinery/pkg/util/validation/field"
)

// Environment variable names for the signer CLI
const (
	EnvSignerMode       = "MERIDIAN_SIGNER_MODE"
	EnvSignerPrivateKey = "MERIDIAN_SIGNER_PRIVATE_KEY"
	EnvSignerKMSKeyId   = "MERIDIAN_SIGNER_KMS_KEY_ID"
	EnvSignerAWSRegion  = "MERIDIAN_SIGNER_AWS_REGION"
	EnvSignerRemoteURL  = "MERIDIAN_SIGNER_REMOTE_URL"
	EnvSignerVerbose    = "MERIDIAN_SIGNER_VERBOSE"
)

// ChainTag is the literal stamped into a signed envelope when the caller
// opts in. An envelope carrying the tag is accepted directly by the
// Meridian execution chain without a separate address-mapping step.
const ChainTag = "meridian"

type SignerMode string

func (s SignerMode) String() string {
	return string(s)
}

const (
	SignerModeUnknown SignerMode = "unknown"
	SignerModeLocal   SignerMode = "local"
	SignerModeAWSKMS  SignerMode = "aws-kms"
	SignerModeRemote  SignerMode = "remote"
)

func ParseSignerMode(s string) (SignerMode, error) {
	switch strings.ToLower(s) {
	case "local":
		return SignerModeLocal, nil
	case "aws-kms", "awskms", "kms":
		return SignerModeAWSKMS, nil
	case "remote", "web3signer":
		return SignerModeRemote, nil
	default:
		return SignerModeUnknown, fmt.Errorf("unsupported signer mode: %s", s)
	}
}

// SignerConfig selects and configures one of the signing backends.
type SignerConfig struct {
	Mode SignerMode `json:"mode" yaml:"mode"`

	// Local signing
	PrivateKey string `json:"privateKey" yaml:"privateKey"`

	// AWS KMS signing
	KMSKeyId  string `json:"kmsKeyId" yaml:"kmsKeyId"`
	AWSRegion string `json:"awsRegion" yaml:"awsRegion"`

	// Remote (Web3Signer-compatible) signing
	RemoteSigner *RemoteSignerConfig `json:"remoteSigner,omitempty" yaml:"remoteSigner,omitempty"`
}

func (c *SignerConfig) Validate() error {
	switch c.Mode {
	case SignerModeLocal:
		if c.PrivateKey == "" {
			return fmt.Errorf("private key cannot be empty for local signing")
		}
		key := c.PrivateKey
		if !strings.HasPrefix(key, "0x") {
			key = "0x" + key
		}
		if len(key) != 66 { // 0x + 64 hex chars
			return fmt.Errorf("private key must be 32 bytes (64 hex chars), got %d chars", len(key)-2)
		}
	case SignerModeAWSKMS:
		if c.KMSKeyId == "" {
			return fmt.Errorf("KMS key id cannot be empty for aws-kms signing")
		}
	case SignerModeRemote:
		if c.RemoteSigner == nil {
			return fmt.Errorf("remote signer configuration is required for remote signing")
		}
		if err := c.RemoteSigner.Validate(); err != nil {
			return fmt.Errorf("invalid remote signer configuration: %w", err)
		}
	default:
		return fmt.Errorf("unsupported signer mode: %s", c.Mode)
	}
	return nil
}

type RemoteSignerConfig struct {
	Url         string `json:"url" yaml:"url"`
	CACert      string `json:"caCert" yaml:"caCert"`
	Cert        string `json:"cert" yaml:"cert"`
	Key         string `json:"key" yaml:"key"`
	FromAddress string `json:"fromAddress" yaml:"fromAddress"`

	// RequestsPerSecond caps the JSON-RPC request rate against the remote
	// service. Zero means unlimited.
	RequestsPerSecond float64 `json:"requestsPerSecond" yaml:"requestsPerSecond"`
}

func (rsc *RemoteSignerConfig) Validate() error {
	var allErrors field.ErrorList
	if rsc.Url == "" {
		allErrors = append(allErrors, field.Required(field.NewPath("url"), "url is required"))
	}
	if rsc.FromAddress == "" {
		allErrors = append(allErrors, field.Required(field.NewPath("fromAddress"), "fromAddress is required"))
	} else if !common.IsHexAddress(rsc.FromAddress) {
		allErrors = append(allErrors, field.Invalid(field.NewPath("fromAddress"), rsc.FromAddress, "must be a hex address"))
	}
	if len(allErrors) > 0 {
		return allErrors.ToAggregate()
	}
	return nil
}
