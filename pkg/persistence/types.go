package persistence

import "time"

// SignedRecord is the audit entry kept for every envelope the signer
// produced. Records are keyed by (sender, sequence); a sender never signs
// the same sequence twice, so the pair is unique.
type SignedRecord struct {
	// Sender is the hex address the envelope was signed for.
	Sender string `json:"sender"`

	// Sequence is the replay-protection counter from the outer envelope.
	Sequence uint64 `json:"sequence"`

	// Digest is the hex-encoded canonical signing digest.
	Digest string `json:"digest"`

	// Signature is the hex-encoded 65-byte recoverable signature.
	Signature string `json:"signature"`

	// PublicKey is the hex-encoded recovered public key embedded in the
	// output envelope.
	PublicKey string `json:"publicKey"`

	// ChainTagged records whether the chain tag literal was stamped.
	ChainTagged bool `json:"chainTagged"`

	// CreatedAt is the Unix timestamp at which the envelope was signed.
	CreatedAt int64 `json:"createdAt"`
}

// Age returns how long ago the record was created.
func (r *SignedRecord) Age() time.Duration {
	return time.Since(time.Unix(r.CreatedAt, 0))
}
