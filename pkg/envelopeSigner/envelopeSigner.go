// Package envelopeSigner turns an unsigned, serialized Meridian transaction
// envelope into a signed one.
//
// The flow per call is strictly linear: decode the three envelope layers,
// compute the canonical typed digest, sign it through the injected signer
// capability, recover the signer's public key, and wrap the original bytes
// together with signature and key into a SignedEnvelope. The inner bytes of
// the output are byte-identical to the input; signing never re-encodes the
// payload it signs over.
package envelopeSigner

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"go.uber.org/zap"

	"github.com/meridian-network/signer-go/pkg/config"
	"github.com/meridian-network/signer-go/pkg/envelope"
	"github.com/meridian-network/signer-go/pkg/signer"
	"github.com/meridian-network/signer-go/pkg/typedHash"
)

// Error taxonomy. All are terminal for the call: nothing is retried and no
// partial envelope is ever produced. Callers distinguish them via errors.Is.
var (
	// ErrDecode indicates a malformed or incomplete input envelope at any of
	// the three layers. No signer call is made after a decode failure.
	ErrDecode = errors.New("envelope decode failed")

	// ErrSigning indicates the signer capability failed or was cancelled.
	ErrSigning = errors.New("signing failed")

	// ErrRecovery indicates public-key recovery failed on a malformed
	// signature.
	ErrRecovery = errors.New("public key recovery failed")
)

// personalMessagePrefix is the standard personal-message-hash convention for
// a 32-byte payload.
const personalMessagePrefix = "\x19Ethereum Signed Message:\n32"

// EnvelopeSigner builds signed envelopes from unsigned ones using an
// injected signing capability.
//
// The sender address is fetched from the signer once, on first use, and
// cached for the lifetime of the instance. EnvelopeSigner is not safe for
// concurrent Sign calls: two calls racing on the first fetch may both invoke
// GetSenderAddress, which is benign only because the signer contract
// guarantees an idempotent, deterministic address. Callers whose signer is
// not safe for concurrent use must serialize calls.
type EnvelopeSigner struct {
	signer signer.ISigner
	logger *zap.Logger

	// senderAddress is nil until the first successful fetch.
	senderAddress *common.Address
}

func NewEnvelopeSigner(s signer.ISigner, logger *zap.Logger) *EnvelopeSigner {
	return &EnvelopeSigner{
		signer: s,
		logger: logger,
	}
}

// Sign produces the serialized SignedEnvelope for envelopeBytes. When
// applyChainTag is true the fixed chain tag literal is stamped into the
// output; otherwise the tag field is left empty.
func (e *EnvelopeSigner) Sign(ctx context.Context, envelopeBytes []byte, applyChainTag bool) ([]byte, error) {
	digest, fields, err := e.digest(ctx, envelopeBytes)
	if err != nil {
		return nil, err
	}

	sig, err := e.signer.Sign(ctx, digest)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrSigning, err)
	}
	if len(sig) != signer.SignatureLength {
		return nil, fmt.Errorf("%w: signature must be %d bytes, got %d", ErrRecovery, signer.SignatureLength, len(sig))
	}

	// The signature is produced over the raw digest, but recovery runs over
	// its personal-message re-hash with the recovery byte stripped. The
	// verifying chain expects exactly this asymmetry.
	personalHash := personalMessageHash(digest)
	pubKey, err := e.signer.RecoverPublicKey(personalHash, sig[1:])
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrRecovery, err)
	}

	chainTag := ""
	if applyChainTag {
		chainTag = config.ChainTag
	}

	signed := &envelope.SignedEnvelope{
		Inner:     envelopeBytes,
		Signature: sig,
		PublicKey: pubKey,
		ChainTag:  chainTag,
	}

	// Output encoding sits outside the decode/sign/recover taxonomy: a
	// failure here is not a signer fault and must not satisfy
	// errors.Is(err, ErrSigning).
	out, err := signed.Encode()
	if err != nil {
		return nil, fmt.Errorf("failed to encode signed envelope: %w", err)
	}

	e.logger.Debug("signed envelope",
		zap.String("sender", fields.sender.Hex()),
		zap.String("to", fields.to.Hex()),
		zap.Uint64("sequence", fields.sequence),
		zap.Bool("chainTag", applyChainTag),
	)

	return out, nil
}

// Digest exposes the canonical signing digest for an unsigned envelope.
// Used by tooling and tests; Sign computes the same value internally.
func (e *EnvelopeSigner) Digest(ctx context.Context, envelopeBytes []byte) ([32]byte, error) {
	digest, _, err := e.digest(ctx, envelopeBytes)
	return digest, err
}

// hashFields are the envelope fields that feed the canonical hash input.
type hashFields struct {
	sender   common.Address
	to       common.Address
	sequence uint64
}

func (e *EnvelopeSigner) digest(ctx context.Context, envelopeBytes []byte) ([32]byte, *hashFields, error) {
	var digest [32]byte

	// Decode before touching the signer: a malformed envelope must fail
	// without any capability call.
	nonceEnv, err := envelope.DecodeNonceEnvelope(envelopeBytes)
	if err != nil {
		return digest, nil, fmt.Errorf("%w: %s", ErrDecode, err)
	}

	txEnv, err := envelope.DecodeTxEnvelope(nonceEnv.Inner)
	if err != nil {
		return digest, nil, fmt.Errorf("%w: %s", ErrDecode, err)
	}

	msg, err := envelope.DecodeCallMessage(txEnv.Data)
	if err != nil {
		return digest, nil, fmt.Errorf("%w: %s", ErrDecode, err)
	}

	sender, err := e.getSenderAddress(ctx)
	if err != nil {
		return digest, nil, fmt.Errorf("%w: %s", ErrSigning, err)
	}

	// The tuple order, type tags, and text encodings below are part of the
	// compatibility contract with the verifying chain. The sequence counter
	// is hashed as decimal text, the envelope bytes as hex text.
	digest, err = typedHash.Sum([]typedHash.Value{
		{Type: typedHash.TypeAddress, Value: sender.Hex()},
		{Type: typedHash.TypeAddress, Value: msg.To.Hex()},
		{Type: typedHash.TypeUint64, Value: strconv.FormatUint(nonceEnv.Sequence, 10)},
		{Type: typedHash.TypeBytes, Value: hexutil.Encode(envelopeBytes)},
	})
	if err != nil {
		return digest, nil, fmt.Errorf("%w: %s", ErrDecode, err)
	}

	return digest, &hashFields{sender: sender, to: msg.To, sequence: nonceEnv.Sequence}, nil
}

func (e *EnvelopeSigner) getSenderAddress(ctx context.Context) (common.Address, error) {
	if e.senderAddress != nil {
		return *e.senderAddress, nil
	}

	addr, err := e.signer.GetSenderAddress(ctx)
	if err != nil {
		return common.Address{}, fmt.Errorf("failed to get sender address: %w", err)
	}

	e.senderAddress = &addr
	return addr, nil
}

// personalMessageHash re-hashes a digest under the personal-message-hash
// convention used by the verifying side for key recovery.
func personalMessageHash(digest [32]byte) []byte {
	return ethcrypto.Keccak256([]byte(personalMessagePrefix), digest[:])
}
