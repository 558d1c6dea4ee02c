package web3signer

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newTestServer(t *testing.T, handler func(req jsonRpcRequest) (interface{}, *jsonRpcError)) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req jsonRpcRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "2.0", req.JsonRpc)
		assert.NotEmpty(t, req.Id)

		result, rpcErr := handler(req)

		resp := map[string]interface{}{
			"jsonrpc": "2.0",
			"id":      req.Id,
		}
		if rpcErr != nil {
			resp["error"] = rpcErr
		} else {
			resp["result"] = result
		}
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
}

func TestClient_EthAccounts(t *testing.T) {
	server := newTestServer(t, func(req jsonRpcRequest) (interface{}, *jsonRpcError) {
		assert.Equal(t, "eth_accounts", req.Method)
		return []string{"0xAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA1"}, nil
	})
	defer server.Close()

	client, err := NewClient(&Config{BaseUrl: server.URL}, zaptest.NewLogger(t))
	require.NoError(t, err)

	accounts, err := client.EthAccounts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"0xAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA1"}, accounts)
}

func TestClient_EthSign(t *testing.T) {
	server := newTestServer(t, func(req jsonRpcRequest) (interface{}, *jsonRpcError) {
		assert.Equal(t, "eth_sign", req.Method)
		require.Len(t, req.Params, 2)
		return "0xsignature", nil
	})
	defer server.Close()

	client, err := NewClient(&Config{BaseUrl: server.URL}, zaptest.NewLogger(t))
	require.NoError(t, err)

	sig, err := client.EthSign(context.Background(), "0xAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA1", "0xdeadbeef")
	require.NoError(t, err)
	assert.Equal(t, "0xsignature", sig)
}

func TestClient_RpcErrorSurfaces(t *testing.T) {
	server := newTestServer(t, func(req jsonRpcRequest) (interface{}, *jsonRpcError) {
		return nil, &jsonRpcError{Code: -32000, Message: "account locked"}
	})
	defer server.Close()

	client, err := NewClient(&Config{BaseUrl: server.URL}, zaptest.NewLogger(t))
	require.NoError(t, err)

	_, err = client.EthSign(context.Background(), "0xAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA1", "0x00")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "account locked")
}

func TestClient_HttpErrorSurfaces(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	client, err := NewClient(&Config{BaseUrl: server.URL}, zaptest.NewLogger(t))
	require.NoError(t, err)

	_, err = client.EthAccounts(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 500")
}

func TestNewClient_EmptyURL(t *testing.T) {
	_, err := NewClient(&Config{}, zaptest.NewLogger(t))
	require.Error(t, err)
}

func TestClient_ImplementsInterface(t *testing.T) {
	client, err := NewClient(DefaultConfig(), zaptest.NewLogger(t))
	require.NoError(t, err)

	var _ IWeb3Signer = client
	assert.NotNil(t, client)
}
