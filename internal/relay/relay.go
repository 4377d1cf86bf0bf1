// Package relay submits signed transactions through an HTTP relay gateway and
// returns the post-consensus record. It is the one concrete SigningClient; the
// gateway owns node selection and consensus polling.
package relay

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/example/walletcore/internal/hledger"
)

// Envelope is the signed submission the gateway accepts.
type Envelope struct {
	RequestID   string          `json:"requestId"`
	Network     string          `json:"network"`
	Type        string          `json:"type"`
	Transaction json.RawMessage `json:"transaction"`
	PublicKey   string          `json:"publicKey"`
	Signature   string          `json:"signature"`
}

// Client submits on behalf of one resolved operator. Instances are
// session-scoped and never shared across resolutions.
type Client struct {
	baseURL  string
	http     *http.Client
	network  string
	operator hledger.AccountID
	keystore *hledger.Keystore
	priv     *hledger.PrivateKey
}

func (c *Client) Operator() hledger.AccountID { return c.operator }
func (c *Client) OperatorPublicKey() string   { return c.keystore.PublicKey }
func (c *Client) Network() string             { return c.network }

// SubmitAndRecord signs the frozen transaction body and posts it to the
// gateway. Gateway congestion statuses surface as hledger.ErrBusy so the
// execution wrapper can retry the identical body.
func (c *Client) SubmitAndRecord(ctx context.Context, tx hledger.Transaction) (*hledger.Record, error) {
	body, err := json.Marshal(tx)
	if err != nil {
		return nil, fmt.Errorf("encode %s transaction: %w", tx.Type(), err)
	}
	sig, err := c.priv.Sign(body)
	if err != nil {
		return nil, fmt.Errorf("sign %s transaction: %w", tx.Type(), err)
	}

	envelope, err := json.Marshal(Envelope{
		RequestID:   uuid.NewString(),
		Network:     c.network,
		Type:        tx.Type(),
		Transaction: body,
		PublicKey:   c.keystore.PublicKey,
		Signature:   hex.EncodeToString(sig),
	})
	if err != nil {
		return nil, fmt.Errorf("encode envelope: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/transactions", bytes.NewReader(envelope))
	if err != nil {
		return nil, fmt.Errorf("build gateway request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("gateway unreachable: %w", hledger.ErrBusy)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusTooManyRequests, http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return nil, fmt.Errorf("gateway returned status %d: %w", resp.StatusCode, hledger.ErrBusy)
	default:
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("gateway rejected %s transaction: status %d: %s", tx.Type(), resp.StatusCode, msg)
	}

	var record hledger.Record
	if err := json.NewDecoder(resp.Body).Decode(&record); err != nil {
		return nil, fmt.Errorf("malformed gateway record: %w", err)
	}
	if record.Receipt.Status == hledger.StatusBusy {
		return nil, fmt.Errorf("network reported %s: %w", record.Receipt.Status, hledger.ErrBusy)
	}
	return &record, nil
}

// Factory builds relay clients for resolved keystores.
type Factory struct {
	baseURL string
	http    *http.Client
}

// NewFactory creates a factory for the given gateway base URL.
func NewFactory(baseURL string) *Factory {
	return &Factory{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 45 * time.Second},
	}
}

// CreateClient binds a keystore to a client. A keystore whose public key is
// not derivable from its private key cannot sign, so the factory returns
// (nil, nil) and the resolver treats that as a failed binding.
func (f *Factory) CreateClient(ctx context.Context, account hledger.AccountID, network string, ks *hledger.Keystore) (hledger.SigningClient, error) {
	if ks == nil {
		return nil, nil
	}
	if err := ks.Verify(); err != nil {
		return nil, nil
	}
	priv, err := hledger.PrivateKeyFromHex(ks.Curve, ks.PrivateKey)
	if err != nil {
		return nil, nil
	}
	return &Client{
		baseURL:  f.baseURL,
		http:     f.http,
		network:  network,
		operator: account,
		keystore: ks,
		priv:     priv,
	}, nil
}
