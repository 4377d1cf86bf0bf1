package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/walletcore/internal/errs"
	"github.com/example/walletcore/internal/execute"
	"github.com/example/walletcore/internal/wallet"
)

type fakeWallet struct {
	err          error
	lastCaller   wallet.Caller
	lastSchedule string
}

func (f *fakeWallet) result() (*execute.TxResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &execute.TxResult{Status: "SUCCESS", TransactionID: "0.0.2@1.000000001"}, nil
}

func (f *fakeWallet) TransferAssets(ctx context.Context, c wallet.Caller, p map[string]any) (*execute.TxResult, error) {
	f.lastCaller = c
	return f.result()
}
func (f *fakeWallet) AssociateTokens(ctx context.Context, c wallet.Caller, p map[string]any) (*execute.TxResult, error) {
	return f.result()
}
func (f *fakeWallet) DissociateTokens(ctx context.Context, c wallet.Caller, p map[string]any) (*execute.TxResult, error) {
	return f.result()
}
func (f *fakeWallet) MintToken(ctx context.Context, c wallet.Caller, p map[string]any) (*execute.TxResult, error) {
	return f.result()
}
func (f *fakeWallet) BurnToken(ctx context.Context, c wallet.Caller, p map[string]any) (*execute.TxResult, error) {
	return f.result()
}
func (f *fakeWallet) UpdateStaking(ctx context.Context, c wallet.Caller, p map[string]any) (*execute.TxResult, error) {
	return f.result()
}
func (f *fakeWallet) InitiateSwap(ctx context.Context, c wallet.Caller, p map[string]any) (*execute.TxResult, error) {
	return f.result()
}
func (f *fakeWallet) CompleteSwap(ctx context.Context, c wallet.Caller, scheduleID string) (*execute.TxResult, error) {
	f.lastSchedule = scheduleID
	return f.result()
}
func (f *fakeWallet) GetAccountInfo(ctx context.Context, idOrAddress string) (*wallet.AccountView, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &wallet.AccountView{AccountID: idOrAddress, Balance: "1.5"}, nil
}
func (f *fakeWallet) GetBalance(ctx context.Context, c wallet.Caller) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return "42", nil
}

func newTestServer(t *testing.T, fw *fakeWallet) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(NewRouter(Dependencies{Wallet: fw}))
	t.Cleanup(srv.Close)
	return srv
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(payload))
	require.NoError(t, err)
	return resp
}

func TestHealthz(t *testing.T) {
	srv := newTestServer(t, &fakeWallet{})
	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestTransferReturnsResultWithCorrelationID(t *testing.T) {
	fw := &fakeWallet{}
	srv := newTestServer(t, fw)

	resp := postJSON(t, srv.URL+"/v1/transfer", txRequest{
		Caller: wallet.Caller{Address: "0xabc", Network: "testnet"},
		Params: map[string]any{"transfers": []any{}},
	})
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get(CorrelationIDHeader))
	assert.Equal(t, "0xabc", fw.lastCaller.Address)

	var body txResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "SUCCESS", body.Result.Status)
	assert.NotEmpty(t, body.CorrelationID)
}

func TestCompleteSwapPassesScheduleID(t *testing.T) {
	fw := &fakeWallet{}
	srv := newTestServer(t, fw)

	resp := postJSON(t, srv.URL+"/v1/swaps/0.0.777/complete", txRequest{
		Caller: wallet.Caller{Address: "0xabc", Network: "testnet"},
	})
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "0.0.777", fw.lastSchedule)
}

func TestErrorKindStatusMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{name: "invalid params", err: errs.InvalidParams("transferAssets", "transfers", "bad"), status: http.StatusBadRequest},
		{name: "resolution rejected", err: errs.ResolutionRejected("initiateSwap", "curve mismatch"), status: http.StatusForbidden},
		{name: "transient", err: errs.Transient("transfer", assert.AnError), status: http.StatusServiceUnavailable},
		{name: "terminal", err: errs.Terminal("completeSwap", "expired"), status: http.StatusConflict},
		{name: "unknown", err: assert.AnError, status: http.StatusInternalServerError},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			srv := newTestServer(t, &fakeWallet{err: tc.err})

			resp := postJSON(t, srv.URL+"/v1/transfer", txRequest{})
			defer resp.Body.Close()
			assert.Equal(t, tc.status, resp.StatusCode)

			var body errorResponse
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
			assert.NotEmpty(t, body.Kind)
		})
	}
}

func TestMalformedBodyIsBadRequest(t *testing.T) {
	srv := newTestServer(t, &fakeWallet{})

	resp, err := http.Post(srv.URL+"/v1/transfer", "application/json", bytes.NewReader([]byte("{not json")))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestBalanceQueryParams(t *testing.T) {
	srv := newTestServer(t, &fakeWallet{})

	resp, err := http.Get(srv.URL + "/v1/balance?address=0xabc&network=testnet")
	require.NoError(t, err)
	defer resp.Body.Close()

	var body balanceResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "42", body.Balance)
}

func TestAccountInfoRoute(t *testing.T) {
	srv := newTestServer(t, &fakeWallet{})

	resp, err := http.Get(srv.URL + "/v1/accounts/0.0.1001")
	require.NoError(t, err)
	defer resp.Body.Close()

	var body accountResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "0.0.1001", body.Account.AccountID)
}

func TestUnknownRouteIsJSON404(t *testing.T) {
	srv := newTestServer(t, &fakeWallet{})

	resp, err := http.Get(srv.URL + "/v1/nope")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
}
