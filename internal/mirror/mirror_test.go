package mirror

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/walletcore/internal/errs"
)

func TestAccountInfoFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/accounts/0.0.800", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"account": "0.0.800",
			"evm_address": "0x0000000000000000000000000000000000000320",
			"deleted": false,
			"key": {"_type": "ED25519", "key": "aabbcc"},
			"balance": {"balance": 250000000}
		}`))
	}))
	defer srv.Close()

	info, err := NewHTTPClient(srv.URL).AccountInfo(context.Background(), "0.0.800")
	require.NoError(t, err)
	require.NotNil(t, info)
	assert.Equal(t, "0.0.800", info.AccountID)
	assert.Equal(t, int64(250000000), info.Balance)
	require.NotNil(t, info.Key)
	assert.Equal(t, "ED25519", info.Key.Type)
}

func TestAccountInfoNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	info, err := NewHTTPClient(srv.URL).AccountInfo(context.Background(), "0.0.999999")
	require.NoError(t, err)
	assert.Nil(t, info)
}

func TestAccountInfoServerErrorIsTransient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := NewHTTPClient(srv.URL).AccountInfo(context.Background(), "0.0.800")
	require.Error(t, err)
	assert.Equal(t, errs.KindTransientNetwork, errs.KindOf(err))
}

func TestAccountInfoMalformedBodyIsTerminal(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"balance": "oops"`))
	}))
	defer srv.Close()

	_, err := NewHTTPClient(srv.URL).AccountInfo(context.Background(), "0.0.800")
	require.Error(t, err)
	assert.Equal(t, errs.KindTerminalProtocol, errs.KindOf(err))
}
