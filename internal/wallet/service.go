// Package wallet orchestrates every wallet operation end to end: validate the
// request, resolve the caller's signing identity, build the transaction, and
// hand it to the execution wrapper. Handlers and daemons call only this
// package.
package wallet

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/example/walletcore/internal/dialog"
	"github.com/example/walletcore/internal/errs"
	"github.com/example/walletcore/internal/execute"
	"github.com/example/walletcore/internal/hledger"
	"github.com/example/walletcore/internal/mirror"
	"github.com/example/walletcore/internal/request"
	"github.com/example/walletcore/internal/resolve"
	"github.com/example/walletcore/internal/store"
	"github.com/example/walletcore/internal/swap"
)

// Resolver is the account-resolution collaborator.
type Resolver interface {
	Resolve(ctx context.Context, req resolve.Request) (hledger.SigningClient, *resolve.Resolution, error)
}

// Caller identifies who is invoking an operation, before resolution.
type Caller struct {
	Address   string `json:"address,omitempty"`
	AccountID string `json:"accountId,omitempty"`
	Network   string `json:"network"`
	Curve     string `json:"curve,omitempty"`
	External  bool   `json:"external,omitempty"`
}

// Config carries the operator-level swap fee policy.
type Config struct {
	FeeCollector string
	ServiceFees  map[string]float64
}

// Service wires the collaborators together. One instance serves all requests.
type Service struct {
	resolver Resolver
	mirror   mirror.Client
	store    store.Store
	dialog   dialog.Service
	logger   *slog.Logger
	cfg      Config
}

// NewService creates the wallet service.
func NewService(resolver Resolver, mc mirror.Client, st store.Store, dlg dialog.Service, logger *slog.Logger, cfg Config) *Service {
	return &Service{resolver: resolver, mirror: mc, store: st, dialog: dlg, logger: logger, cfg: cfg}
}

func (s *Service) client(ctx context.Context, op string, caller Caller) (hledger.SigningClient, *resolve.Resolution, error) {
	req := resolve.Request{
		Address:   caller.Address,
		AccountID: caller.AccountID,
		Network:   caller.Network,
		External:  caller.External,
	}
	if caller.External {
		curve, err := hledger.ParseCurve(caller.Curve)
		if err != nil {
			return nil, nil, errs.InvalidParams(op, "curve", "expected one of ED25519, ECDSA_SECP256K1")
		}
		req.Curve = curve
	}
	return s.resolver.Resolve(ctx, req)
}

// maxFee reads the optional human-unit fee cap and converts it to tinybars.
func maxFee(params map[string]any, op string) (int64, error) {
	fee, err := request.Number(params, op, "maxFee", false)
	if err != nil || fee == 0 {
		return 0, err
	}
	return swap.ScaleToMinimalUnits(op, "maxFee", fee, hledger.HbarDecimals)
}

// TransferAssets moves one or more assets from the caller to named
// destinations in a single transaction.
func (s *Service) TransferAssets(ctx context.Context, caller Caller, params map[string]any) (*execute.TxResult, error) {
	const op = "transferAssets"

	legs, err := request.Transfers(params, op, "transfers")
	if err != nil {
		return nil, err
	}
	memo, err := request.String(params, op, "memo", false)
	if err != nil {
		return nil, err
	}
	fee, err := maxFee(params, op)
	if err != nil {
		return nil, err
	}

	client, _, err := s.client(ctx, op, caller)
	if err != nil {
		return nil, err
	}
	operator := client.Operator()

	transfer := hledger.NewTransferTransaction().SetMemo(memo)
	if fee > 0 {
		transfer.SetMaxFee(fee)
	}
	for i, leg := range legs {
		to, perr := hledger.AccountIDFromString(leg.To)
		if perr != nil {
			return nil, errs.InvalidParams(op, fmt.Sprintf("transfers[%d].to", i), "%v", perr)
		}
		if err := swap.AddLeg(transfer, leg, operator, to, op, fmt.Sprintf("transfers[%d]", i)); err != nil {
			return nil, err
		}
	}

	s.logger.InfoContext(ctx, "submitting transfer",
		slog.String("operator", operator.String()),
		slog.Int("legs", len(legs)))
	return execute.Execute(ctx, client, transfer)
}

func tokenIDs(params map[string]any, op, field string) ([]hledger.TokenID, error) {
	raw, err := request.StringList(params, op, field, true)
	if err != nil {
		return nil, err
	}
	tokens := make([]hledger.TokenID, 0, len(raw))
	for i, s := range raw {
		id, perr := hledger.ParseTokenID(s)
		if perr != nil {
			return nil, errs.InvalidParams(op, fmt.Sprintf("%s[%d]", field, i), "%v", perr)
		}
		tokens = append(tokens, id)
	}
	return tokens, nil
}

// AssociateTokens opts the caller's account into holding the given tokens.
func (s *Service) AssociateTokens(ctx context.Context, caller Caller, params map[string]any) (*execute.TxResult, error) {
	const op = "associateTokens"

	tokens, err := tokenIDs(params, op, "tokenIds")
	if err != nil {
		return nil, err
	}
	client, _, err := s.client(ctx, op, caller)
	if err != nil {
		return nil, err
	}
	return execute.Execute(ctx, client, &hledger.TokenAssociateTransaction{
		Account: client.Operator(),
		Tokens:  tokens,
	})
}

// DissociateTokens removes zero-balance token relationships.
func (s *Service) DissociateTokens(ctx context.Context, caller Caller, params map[string]any) (*execute.TxResult, error) {
	const op = "dissociateTokens"

	tokens, err := tokenIDs(params, op, "tokenIds")
	if err != nil {
		return nil, err
	}
	client, _, err := s.client(ctx, op, caller)
	if err != nil {
		return nil, err
	}
	return execute.Execute(ctx, client, &hledger.TokenDissociateTransaction{
		Account: client.Operator(),
		Tokens:  tokens,
	})
}

// MintToken mints fungible supply or new NFT serials, depending on whether
// amount or metadata is supplied.
func (s *Service) MintToken(ctx context.Context, caller Caller, params map[string]any) (*execute.TxResult, error) {
	const op = "mintToken"

	tokenStr, err := request.TokenID(params, op, "tokenId", true)
	if err != nil {
		return nil, err
	}
	token, _ := hledger.ParseTokenID(tokenStr)

	amount, err := request.Number(params, op, "amount", false)
	if err != nil {
		return nil, err
	}
	metadata, err := request.StringList(params, op, "metadata", false)
	if err != nil {
		return nil, err
	}
	if amount == 0 && len(metadata) == 0 {
		return nil, errs.InvalidParams(op, "amount", "expected either amount or metadata")
	}
	if amount > 0 && len(metadata) > 0 {
		return nil, errs.InvalidParams(op, "amount", "amount and metadata are mutually exclusive")
	}

	tx := &hledger.TokenMintTransaction{Token: token}
	if amount > 0 {
		decimals, derr := request.Decimals(params, op, "decimals")
		if derr != nil {
			return nil, derr
		}
		units, serr := swap.ScaleToMinimalUnits(op, "amount", amount, decimals)
		if serr != nil {
			return nil, serr
		}
		tx.Amount = units
	}
	for _, m := range metadata {
		tx.Metadata = append(tx.Metadata, []byte(m))
	}

	client, _, err := s.client(ctx, op, caller)
	if err != nil {
		return nil, err
	}
	return execute.Execute(ctx, client, tx)
}

// BurnToken burns fungible supply or specific NFT serials.
func (s *Service) BurnToken(ctx context.Context, caller Caller, params map[string]any) (*execute.TxResult, error) {
	const op = "burnToken"

	tokenStr, err := request.TokenID(params, op, "tokenId", true)
	if err != nil {
		return nil, err
	}
	token, _ := hledger.ParseTokenID(tokenStr)

	amount, err := request.Number(params, op, "amount", false)
	if err != nil {
		return nil, err
	}
	serials, err := request.Int64List(params, op, "serials", false)
	if err != nil {
		return nil, err
	}
	if amount == 0 && len(serials) == 0 {
		return nil, errs.InvalidParams(op, "amount", "expected either amount or serials")
	}
	if amount > 0 && len(serials) > 0 {
		return nil, errs.InvalidParams(op, "amount", "amount and serials are mutually exclusive")
	}

	tx := &hledger.TokenBurnTransaction{Token: token, Serials: serials}
	if amount > 0 {
		decimals, derr := request.Decimals(params, op, "decimals")
		if derr != nil {
			return nil, derr
		}
		units, serr := swap.ScaleToMinimalUnits(op, "amount", amount, decimals)
		if serr != nil {
			return nil, serr
		}
		tx.Amount = units
	}

	client, _, err := s.client(ctx, op, caller)
	if err != nil {
		return nil, err
	}
	return execute.Execute(ctx, client, tx)
}

// UpdateStaking changes the caller's staking target. With neither a target
// account nor a node supplied, the current target is cleared. On success the
// new target is persisted to the account record.
func (s *Service) UpdateStaking(ctx context.Context, caller Caller, params map[string]any) (*execute.TxResult, error) {
	const op = "updateStaking"

	stakedAccount, err := request.AccountID(params, op, "stakedAccountId", false)
	if err != nil {
		return nil, err
	}
	rawNode, nodePresent := params["stakedNodeId"]
	decline, err := request.Bool(params, op, "declineReward")
	if err != nil {
		return nil, err
	}
	if stakedAccount != "" && nodePresent {
		return nil, errs.InvalidParams(op, "stakedNodeId", "stakedAccountId and stakedNodeId are mutually exclusive")
	}

	client, res, err := s.client(ctx, op, caller)
	if err != nil {
		return nil, err
	}

	tx := &hledger.AccountUpdateTransaction{Account: client.Operator()}
	target := ""
	switch {
	case stakedAccount != "":
		id, perr := hledger.AccountIDFromString(stakedAccount)
		if perr != nil {
			return nil, errs.InvalidParams(op, "stakedAccountId", "%v", perr)
		}
		tx.StakedAccountID = &id
		target = "account:" + id.String()
	case nodePresent:
		node, ok := rawNode.(float64)
		if !ok || node < 0 {
			return nil, errs.InvalidParams(op, "stakedNodeId", "expected a non-negative integer")
		}
		n := int64(node)
		tx.StakedNodeID = &n
		target = fmt.Sprintf("node:%d", n)
	default:
		tx.ClearStakeTarget = true
	}
	if decline {
		tx.DeclineReward = &decline
	}

	result, err := execute.Execute(ctx, client, tx)
	if err != nil {
		return nil, err
	}
	if result.Succeeded() {
		if perr := s.persistStakingTarget(ctx, caller, res, target); perr != nil {
			s.logger.WarnContext(ctx, "staking target applied on ledger but not persisted locally",
				slog.String("error", perr.Error()))
		}
	}
	return result, nil
}

func (s *Service) persistStakingTarget(ctx context.Context, caller Caller, res *resolve.Resolution, target string) error {
	state, err := s.store.Get(ctx)
	if err != nil {
		return err
	}
	key := store.Key(res.Keystore.Address, caller.Network)
	acct, ok := state.Accounts[key]
	if !ok {
		return fmt.Errorf("no persisted account for %s", key)
	}
	acct.StakingTarget = target
	state.Accounts[key] = acct
	return s.store.Set(ctx, state)
}

// InitiateSwap validates the batch, asks the user to confirm it, assembles the
// scheduled transfer, and submits it. Nothing reaches the network before the
// user approves.
func (s *Service) InitiateSwap(ctx context.Context, caller Caller, params map[string]any) (*execute.TxResult, error) {
	const op = "initiateSwap"

	swaps, err := request.Swaps(params, op, "swaps")
	if err != nil {
		return nil, err
	}
	memo, err := request.String(params, op, "memo", false)
	if err != nil {
		return nil, err
	}
	fee, err := maxFee(params, op)
	if err != nil {
		return nil, err
	}

	approved, err := s.dialog.Confirm(ctx, swapPanel(swaps))
	if err != nil {
		return nil, errs.Wrap(op, err)
	}
	if !approved {
		return nil, errs.ResolutionRejected(op, "user declined the swap")
	}

	client, _, err := s.client(ctx, op, caller)
	if err != nil {
		return nil, err
	}

	result, err := swap.Initiate(ctx, client, swap.InitiateParams{
		Swaps:        swaps,
		Memo:         memo,
		MaxFee:       fee,
		ServiceFees:  s.cfg.ServiceFees,
		FeeCollector: s.cfg.FeeCollector,
	})
	if err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "swap schedule created",
		slog.String("scheduleId", result.ScheduleID),
		slog.Int("swaps", len(swaps)))
	return result, nil
}

// CompleteSwap signs an existing swap schedule on the caller's behalf.
func (s *Service) CompleteSwap(ctx context.Context, caller Caller, scheduleID string) (*execute.TxResult, error) {
	const op = "completeSwap"

	client, _, err := s.client(ctx, op, caller)
	if err != nil {
		return nil, err
	}
	result, err := swap.Complete(ctx, client, scheduleID)
	if err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "swap schedule signed",
		slog.String("scheduleId", scheduleID),
		slog.String("status", result.Status))
	return result, nil
}

func swapPanel(swaps []request.AtomicSwap) dialog.Panel {
	panel := dialog.Panel{Title: "Approve atomic swap"}
	for i, s := range swaps {
		panel.Lines = append(panel.Lines,
			fmt.Sprintf("Swap %d: send %s, receive %s", i+1, describeLeg(s.Requester), describeLeg(s.Responder)))
	}
	panel.Lines = append(panel.Lines, "The schedule expires 30 minutes after creation.")
	return panel
}

func describeLeg(leg request.AssetLeg) string {
	switch leg.AssetType {
	case request.AssetNative:
		return fmt.Sprintf("%v hbar", leg.Amount)
	case request.AssetNonFungible:
		return "NFT " + leg.AssetID
	default:
		return fmt.Sprintf("%v of token %s", leg.Amount, leg.AssetID)
	}
}

// AccountView is the outward account shape with display-unit amounts.
type AccountView struct {
	AccountID  string `json:"accountId"`
	EVMAddress string `json:"evmAddress,omitempty"`
	Balance    string `json:"balance"`
	KeyType    string `json:"keyType,omitempty"`
	StakedNode *int64 `json:"stakedNodeId,omitempty"`
	Memo       string `json:"memo,omitempty"`
	Deleted    bool   `json:"deleted,omitempty"`
}

// GetAccountInfo looks up any account through the mirror.
func (s *Service) GetAccountInfo(ctx context.Context, idOrAddress string) (*AccountView, error) {
	const op = "getAccountInfo"

	if idOrAddress == "" {
		return nil, errs.InvalidParams(op, "accountId", "expected an account id or EVM address")
	}
	info, err := s.mirror.AccountInfo(ctx, idOrAddress)
	if err != nil {
		return nil, err
	}
	if info == nil {
		return nil, errs.Terminal(op, "account %s does not exist on the ledger", idOrAddress)
	}

	view := &AccountView{
		AccountID:  info.AccountID,
		EVMAddress: info.EVMAddress,
		Balance:    decimal.New(info.Balance, -hledger.HbarDecimals).String(),
		StakedNode: info.StakedNode,
		Memo:       info.Memo,
		Deleted:    info.Deleted,
	}
	if info.Key != nil {
		view.KeyType = info.Key.Type
	}
	return view, nil
}

// GetBalance resolves the caller and reports their native balance in display
// units. Accounts not yet active on the ledger report zero.
func (s *Service) GetBalance(ctx context.Context, caller Caller) (string, error) {
	const op = "getBalance"

	_, res, err := s.client(ctx, op, caller)
	if err != nil {
		return "", err
	}
	if res.Inactive {
		return "0", nil
	}
	info, err := s.mirror.AccountInfo(ctx, res.Account.LedgerAccountID)
	if err != nil {
		return "", errs.Wrap(op, err)
	}
	if info == nil {
		return "0", nil
	}
	return decimal.New(info.Balance, -hledger.HbarDecimals).String(), nil
}
