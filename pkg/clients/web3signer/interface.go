package web3signer

import (
	"context"
	"net/http"
)

// IWeb3Signer abstracts the Web3Signer client so signing backends can be
// substituted with test doubles.
type IWeb3Signer interface {
	// SetHttpClient allows setting a custom HTTP client for the client.
	SetHttpClient(client *http.Client)

	// EthAccounts returns a list of accounts available for signing.
	EthAccounts(ctx context.Context) ([]string, error)

	// EthSign signs data with the specified account.
	EthSign(ctx context.Context, account string, data string) (string, error)
}

// Compile-time check to ensure Client implements IWeb3Signer
var _ IWeb3Signer = (*Client)(nil)
