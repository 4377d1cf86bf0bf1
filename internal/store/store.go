// Package store persists wallet state: the accounts the user has touched and
// the keystores bound to them. Writes are atomic per call with last-write-wins
// semantics. The account resolver owns writes, except that the wallet service
// records a new staking target after a successful update.
package store

import (
	"context"
	"strings"
	"sync"

	"github.com/example/walletcore/internal/hledger"
)

// Account is one logical identity the wallet has seen: an externally-connected
// address on one network, with the ledger account it maps to.
type Account struct {
	Network         string `json:"network"`
	Address         string `json:"address"`
	LedgerAccountID string `json:"ledgerAccountId"` // empty while inactive
	Balance         int64  `json:"balance"`         // tinybars, last observed
	StakingTarget   string `json:"stakingTarget,omitempty"`
}

// State is the full persisted wallet state. Accounts and keystores are keyed
// by Key(address, network).
type State struct {
	CurrentAccount string                      `json:"currentAccount,omitempty"`
	Accounts       map[string]Account          `json:"accounts"`
	Keystores      map[string]hledger.Keystore `json:"keystores"`
}

// NewState returns an initialized empty state.
func NewState() *State {
	return &State{
		Accounts:  map[string]Account{},
		Keystores: map[string]hledger.Keystore{},
	}
}

// Key builds the (address, network) state key.
func Key(address, network string) string {
	return strings.ToLower(address) + "|" + network
}

// normalize backfills nil maps after decoding persisted JSON.
func normalize(state *State) {
	if state.Accounts == nil {
		state.Accounts = map[string]Account{}
	}
	if state.Keystores == nil {
		state.Keystores = map[string]hledger.Keystore{}
	}
}

// Store is the opaque persistence collaborator. Get returns a fresh empty
// state when nothing has been persisted yet.
type Store interface {
	Get(ctx context.Context) (*State, error)
	Set(ctx context.Context, state *State) error
}

// Memory is an in-process store for tests and ephemeral daemons.
type Memory struct {
	mu    sync.Mutex
	state *State
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory { return &Memory{} }

func (m *Memory) Get(ctx context.Context) (*State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == nil {
		return NewState(), nil
	}
	copied := *m.state
	return &copied, nil
}

func (m *Memory) Set(ctx context.Context, state *State) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := *state
	m.state = &copied
	return nil
}
