package hledger

import (
	"fmt"
	"time"
)

// HbarDecimals is the scale of the native unit (1 hbar = 10^8 tinybars).
const HbarDecimals = 8

// Transaction is any ledger transaction body the wallet can construct. A
// transaction freezes once with a payer-scoped transaction ID; after that the
// body is immutable and resubmitting it is safe because the network rejects
// duplicate transaction IDs.
type Transaction interface {
	// Type names the transaction kind for logging and relay dispatch.
	Type() string
	// Freeze assigns the transaction ID for the given payer. Calling Freeze
	// on an already-frozen transaction is a no-op.
	Freeze(payer AccountID, at time.Time)
	// ID returns the transaction ID, empty until frozen.
	ID() string
}

type baseTransaction struct {
	TxID   string `json:"transactionId"`
	Memo   string `json:"memo,omitempty"`
	MaxFee int64  `json:"maxFee,omitempty"` // tinybars
}

func (b *baseTransaction) Freeze(payer AccountID, at time.Time) {
	if b.TxID != "" {
		return
	}
	b.TxID = fmt.Sprintf("%s@%d.%09d", payer, at.Unix(), at.Nanosecond())
}

func (b *baseTransaction) ID() string { return b.TxID }

// HbarTransfer is one native-unit balance adjustment. Amounts are tinybars;
// debits are negative.
type HbarTransfer struct {
	Account AccountID `json:"account"`
	Amount  int64     `json:"amount"`
}

// TokenTransfer is one fungible-token balance adjustment in minimal units.
type TokenTransfer struct {
	Token    TokenID   `json:"token"`
	Account  AccountID `json:"account"`
	Amount   int64     `json:"amount"`
	Decimals uint32    `json:"decimals"`
}

// NftTransfer moves exactly one serial between two accounts.
type NftTransfer struct {
	Nft      NftID     `json:"nft"`
	Sender   AccountID `json:"sender"`
	Receiver AccountID `json:"receiver"`
}

// TransferTransaction is a multi-party, multi-asset transfer. Every asset's
// adjustments must net to zero before the network will accept it.
type TransferTransaction struct {
	baseTransaction
	HbarTransfers  []HbarTransfer  `json:"hbarTransfers,omitempty"`
	TokenTransfers []TokenTransfer `json:"tokenTransfers,omitempty"`
	NftTransfers   []NftTransfer   `json:"nftTransfers,omitempty"`
}

func NewTransferTransaction() *TransferTransaction { return &TransferTransaction{} }

func (t *TransferTransaction) Type() string { return "transfer" }

// AddHbarTransfer appends a native adjustment in tinybars.
func (t *TransferTransaction) AddHbarTransfer(account AccountID, tinybars int64) *TransferTransaction {
	t.HbarTransfers = append(t.HbarTransfers, HbarTransfer{Account: account, Amount: tinybars})
	return t
}

// AddTokenTransfer appends a fungible adjustment in minimal units.
func (t *TransferTransaction) AddTokenTransfer(token TokenID, account AccountID, amount int64, decimals uint32) *TransferTransaction {
	t.TokenTransfers = append(t.TokenTransfers, TokenTransfer{Token: token, Account: account, Amount: amount, Decimals: decimals})
	return t
}

// AddNftTransfer appends a single-serial move.
func (t *TransferTransaction) AddNftTransfer(nft NftID, sender, receiver AccountID) *TransferTransaction {
	t.NftTransfers = append(t.NftTransfers, NftTransfer{Nft: nft, Sender: sender, Receiver: receiver})
	return t
}

// SetMemo sets the transfer memo.
func (t *TransferTransaction) SetMemo(memo string) *TransferTransaction {
	t.Memo = memo
	return t
}

// SetMaxFee caps the fee in tinybars.
func (t *TransferTransaction) SetMaxFee(tinybars int64) *TransferTransaction {
	t.MaxFee = tinybars
	return t
}

// ScheduleCreateTransaction defers an assembled transfer until every required
// signer has signed, or until it expires.
type ScheduleCreateTransaction struct {
	baseTransaction
	Scheduled      *TransferTransaction `json:"scheduledTransaction"`
	AdminKey       string               `json:"adminKey"`
	PayerAccountID AccountID            `json:"payerAccountId"`
	ExpirationTime time.Time            `json:"expirationTime"`
}

func (t *ScheduleCreateTransaction) Type() string { return "scheduleCreate" }

// ScheduleSignTransaction supplies one signer's signature to an existing
// schedule.
type ScheduleSignTransaction struct {
	baseTransaction
	ScheduleID ScheduleID `json:"scheduleId"`
}

func (t *ScheduleSignTransaction) Type() string { return "scheduleSign" }

// TokenAssociateTransaction opts an account into holding the given tokens.
type TokenAssociateTransaction struct {
	baseTransaction
	Account AccountID `json:"account"`
	Tokens  []TokenID `json:"tokens"`
}

func (t *TokenAssociateTransaction) Type() string { return "tokenAssociate" }

// TokenDissociateTransaction removes zero-balance token relationships.
type TokenDissociateTransaction struct {
	baseTransaction
	Account AccountID `json:"account"`
	Tokens  []TokenID `json:"tokens"`
}

func (t *TokenDissociateTransaction) Type() string { return "tokenDissociate" }

// TokenMintTransaction mints fungible supply (Amount, minimal units) or new
// NFT serials (one per Metadata entry).
type TokenMintTransaction struct {
	baseTransaction
	Token    TokenID  `json:"token"`
	Amount   int64    `json:"amount,omitempty"`
	Metadata [][]byte `json:"metadata,omitempty"`
}

func (t *TokenMintTransaction) Type() string { return "tokenMint" }

// TokenBurnTransaction burns fungible supply or specific NFT serials.
type TokenBurnTransaction struct {
	baseTransaction
	Token   TokenID `json:"token"`
	Amount  int64   `json:"amount,omitempty"`
	Serials []int64 `json:"serials,omitempty"`
}

func (t *TokenBurnTransaction) Type() string { return "tokenBurn" }

// AccountUpdateTransaction changes account-level settings; the wallet uses it
// for the staking target only.
type AccountUpdateTransaction struct {
	baseTransaction
	Account          AccountID  `json:"account"`
	StakedAccountID  *AccountID `json:"stakedAccountId,omitempty"`
	StakedNodeID     *int64     `json:"stakedNodeId,omitempty"`
	DeclineReward    *bool      `json:"declineReward,omitempty"`
	ClearStakeTarget bool       `json:"clearStakeTarget,omitempty"`
}

func (t *AccountUpdateTransaction) Type() string { return "accountUpdate" }
