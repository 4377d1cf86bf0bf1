package relay

import (
	"context"
	"crypto/ed25519"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/walletcore/internal/hledger"
)

func testKeystore(t *testing.T) *hledger.Keystore {
	t.Helper()
	priv, err := hledger.PrivateKeyFromHex(hledger.CurveED25519, strings.Repeat("11", 32))
	require.NoError(t, err)
	pub, err := priv.PublicKey()
	require.NoError(t, err)
	return &hledger.Keystore{
		Curve:           hledger.CurveED25519,
		PrivateKey:      priv.Hex(),
		PublicKey:       pub,
		Address:         "0xabc",
		LedgerAccountID: "0.0.2",
	}
}

func newClient(t *testing.T, baseURL string) hledger.SigningClient {
	t.Helper()
	client, err := NewFactory(baseURL).CreateClient(context.Background(), hledger.AccountID{Num: 2}, "testnet", testKeystore(t))
	require.NoError(t, err)
	require.NotNil(t, client)
	return client
}

func frozenTransfer() *hledger.TransferTransaction {
	tx := hledger.NewTransferTransaction().
		AddHbarTransfer(hledger.AccountID{Num: 2}, -100).
		AddHbarTransfer(hledger.AccountID{Num: 9}, 100)
	tx.Freeze(hledger.AccountID{Num: 2}, time.Now())
	return tx
}

func TestSubmitAndRecordVerifiesEnvelopeSignature(t *testing.T) {
	var got Envelope
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		json.NewEncoder(w).Encode(hledger.Record{
			Receipt:       hledger.Receipt{Status: hledger.StatusSuccess},
			TransactionID: "0.0.2@1.000000001",
		})
	}))
	defer srv.Close()

	client := newClient(t, srv.URL)
	record, err := client.SubmitAndRecord(context.Background(), frozenTransfer())
	require.NoError(t, err)
	assert.Equal(t, hledger.StatusSuccess, record.Receipt.Status)

	assert.Equal(t, "testnet", got.Network)
	assert.Equal(t, "transfer", got.Type)
	assert.NotEmpty(t, got.RequestID)

	// The gateway can verify the body against the enclosed public key.
	pub, err := hex.DecodeString(got.PublicKey)
	require.NoError(t, err)
	sig, err := hex.DecodeString(got.Signature)
	require.NoError(t, err)
	assert.True(t, ed25519.Verify(ed25519.PublicKey(pub), []byte(got.Transaction), sig))
}

func TestSubmitAndRecordMapsCongestionToBusy(t *testing.T) {
	for _, status := range []int{http.StatusTooManyRequests, http.StatusServiceUnavailable} {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(status)
		}))
		client := newClient(t, srv.URL)

		_, err := client.SubmitAndRecord(context.Background(), frozenTransfer())
		assert.ErrorIs(t, err, hledger.ErrBusy, "status %d", status)
		srv.Close()
	}
}

func TestSubmitAndRecordMapsBusyReceiptToBusy(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(hledger.Record{Receipt: hledger.Receipt{Status: hledger.StatusBusy}})
	}))
	defer srv.Close()

	client := newClient(t, srv.URL)
	_, err := client.SubmitAndRecord(context.Background(), frozenTransfer())
	assert.ErrorIs(t, err, hledger.ErrBusy)
}

func TestSubmitAndRecordRejectionIsNotBusy(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unknown payer account", http.StatusBadRequest)
	}))
	defer srv.Close()

	client := newClient(t, srv.URL)
	_, err := client.SubmitAndRecord(context.Background(), frozenTransfer())
	require.Error(t, err)
	assert.False(t, errors.Is(err, hledger.ErrBusy))
	assert.Contains(t, err.Error(), "unknown payer account")
}

func TestCreateClientRejectsUnverifiableKeystore(t *testing.T) {
	ks := testKeystore(t)
	ks.PublicKey = strings.Repeat("99", 32)

	client, err := NewFactory("http://gateway").CreateClient(context.Background(), hledger.AccountID{Num: 2}, "testnet", ks)
	require.NoError(t, err)
	assert.Nil(t, client, "unverifiable keystores must not bind")
}
