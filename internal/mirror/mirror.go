// Package mirror reads ledger state through the read-only mirror (indexing)
// service. The wallet uses it for account display and, during resolution, to
// verify that a claimed key actually controls an account.
package mirror

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/example/walletcore/internal/errs"
)

// Key is an account's controlling key as the mirror records it.
type Key struct {
	// Type is ED25519, ECDSA_SECP256K1, or ProtobufEncoded for the single-key
	// legacy format that predates typed keys.
	Type string `json:"_type"`
	Key  string `json:"key"`
}

// AccountInfo is the mirror's view of one account.
type AccountInfo struct {
	AccountID  string `json:"account"`
	EVMAddress string `json:"evm_address"`
	Deleted    bool   `json:"deleted"`
	Balance    int64  `json:"-"` // tinybars
	Key        *Key   `json:"key"`
	StakedNode *int64 `json:"staked_node_id"`
	Memo       string `json:"memo"`
}

// Client is the read-only indexing collaborator. AccountInfo returns
// (nil, nil) when the account does not exist on the ledger.
type Client interface {
	AccountInfo(ctx context.Context, idOrAddress string) (*AccountInfo, error)
}

// HTTPClient talks to a mirror REST endpoint.
type HTTPClient struct {
	baseURL string
	client  *http.Client
}

// NewHTTPClient creates a mirror client for the given base URL.
func NewHTTPClient(baseURL string) *HTTPClient {
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 15 * time.Second},
	}
}

type accountResponse struct {
	Account    string `json:"account"`
	EVMAddress string `json:"evm_address"`
	Deleted    bool   `json:"deleted"`
	Key        *Key   `json:"key"`
	StakedNode *int64 `json:"staked_node_id"`
	Memo       string `json:"memo"`
	Balance    struct {
		Balance int64 `json:"balance"`
	} `json:"balance"`
}

// AccountInfo fetches one account by native id or EVM address.
func (c *HTTPClient) AccountInfo(ctx context.Context, idOrAddress string) (*AccountInfo, error) {
	const op = "mirror.accountInfo"

	endpoint := fmt.Sprintf("%s/api/v1/accounts/%s", c.baseURL, url.PathEscape(idOrAddress))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, errs.Terminal(op, "building request: %v", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, errs.Transient(op, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, nil
	case resp.StatusCode >= 500:
		return nil, errs.Transient(op, fmt.Errorf("mirror returned status %d", resp.StatusCode))
	case resp.StatusCode != http.StatusOK:
		return nil, errs.Terminal(op, "mirror returned status %d for %s", resp.StatusCode, idOrAddress)
	}

	var body accountResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, errs.Terminal(op, "malformed mirror response: %v", err)
	}
	if body.Account == "" {
		return nil, errs.Terminal(op, "malformed mirror response: missing account id")
	}

	return &AccountInfo{
		AccountID:  body.Account,
		EVMAddress: body.EVMAddress,
		Deleted:    body.Deleted,
		Balance:    body.Balance.Balance,
		Key:        body.Key,
		StakedNode: body.StakedNode,
		Memo:       body.Memo,
	}, nil
}
