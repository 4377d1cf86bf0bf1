package hledger

import "context"

// SigningClient submits transactions on behalf of one resolved operator
// account. Implementations own freezing, signing, and transport; callers
// never see wire encoding. Clients are session-scoped: components borrow one
// per operation and never retain it.
type SigningClient interface {
	// Operator is the account that pays for and signs submissions.
	Operator() AccountID
	// OperatorPublicKey is the operator's public key, hex encoded.
	OperatorPublicKey() string
	// Network names the ledger network the client is bound to.
	Network() string
	// SubmitAndRecord submits tx and waits for its authoritative record.
	// Transient node congestion is reported as an error wrapping ErrBusy.
	SubmitAndRecord(ctx context.Context, tx Transaction) (*Record, error)
}

// ClientFactory binds a keystore to a signing client. A nil client with a nil
// error means the key/account/curve combination could not be bound; the
// resolver must surface that as a resolution failure.
type ClientFactory interface {
	CreateClient(ctx context.Context, account AccountID, network string, ks *Keystore) (SigningClient, error)
}
