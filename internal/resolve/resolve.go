// Package resolve decides, for every operation, which cryptographic key signs
// on behalf of which logical account. Resolution is modeled as an explicit
// state machine with pure transition functions; state is persisted only on a
// successful transition, and this package is the only writer of account and
// keystore records.
package resolve

import (
	"context"
	"fmt"
	"strings"

	"github.com/example/walletcore/internal/dialog"
	"github.com/example/walletcore/internal/errs"
	"github.com/example/walletcore/internal/hledger"
	"github.com/example/walletcore/internal/mirror"
	"github.com/example/walletcore/internal/store"
)

const op = "resolveAccount"

// Phase is the resolution machine's position.
type Phase string

const (
	PhaseUninitialized Phase = "UNINITIALIZED"
	PhaseResolving     Phase = "RESOLVING"
	PhaseBound         Phase = "BOUND"
	PhaseRejected      Phase = "REJECTED"
)

// Request identifies whose key is being resolved. Either the native path
// (connected Address only) or the external path (Curve claimed, Address or
// AccountID plus an interactively supplied key).
type Request struct {
	Address   string
	AccountID string
	Network   string
	Curve     hledger.Curve // set only on the external path
	External  bool
}

func (r Request) idOrAddress() string {
	if r.AccountID != "" {
		return r.AccountID
	}
	return r.Address
}

// Resolution is one walk of the machine. Terminal phases: Bound carries the
// keystore and account; Rejected carries the reason for this call only, so a
// later call may retry with corrected input.
type Resolution struct {
	Phase    Phase
	Request  Request
	Keystore *hledger.Keystore
	Account  *store.Account
	Reason   string
	Inactive bool // bound, but no funded ledger account yet
}

// begin is the UNINITIALIZED to RESOLVING transition.
func begin(req Request) (Resolution, error) {
	if req.Network == "" {
		return Resolution{}, errs.InvalidParams(op, "network", "expected a network name")
	}
	if req.idOrAddress() == "" {
		return Resolution{}, errs.InvalidParams(op, "address", "expected an address or ledger account id")
	}
	return Resolution{Phase: PhaseResolving, Request: req}, nil
}

// bind is the RESOLVING to BOUND transition.
func bind(r Resolution, ks *hledger.Keystore, acct *store.Account, inactive bool) Resolution {
	r.Phase = PhaseBound
	r.Keystore = ks
	r.Account = acct
	r.Inactive = inactive
	return r
}

// reject is the RESOLVING to REJECTED transition.
func reject(r Resolution, format string, args ...any) Resolution {
	r.Phase = PhaseRejected
	r.Reason = fmt.Sprintf(format, args...)
	return r
}

// Resolver drives the machine against the persisted state, the mirror, and
// the client factory.
type Resolver struct {
	store   store.Store
	mirror  mirror.Client
	factory hledger.ClientFactory
	dialog  dialog.Service
	seed    []byte // wallet-local entropy for deterministic native keys
}

// New creates a resolver. seed is the fixed wallet-local seed used by the
// native derivation path.
func New(st store.Store, mc mirror.Client, factory hledger.ClientFactory, dlg dialog.Service, seed []byte) *Resolver {
	return &Resolver{store: st, mirror: mc, factory: factory, dialog: dlg, seed: seed}
}

// Resolve walks the machine for req and returns a signing client bound to the
// resolved keystore. A Rejected terminal state is returned as a
// ResolutionRejected error alongside the resolution itself.
func (r *Resolver) Resolve(ctx context.Context, req Request) (hledger.SigningClient, *Resolution, error) {
	res, err := begin(req)
	if err != nil {
		return nil, nil, err
	}

	state, err := r.store.Get(ctx)
	if err != nil {
		return nil, nil, errs.Wrap(op, err)
	}

	if req.External {
		res = r.resolveExternal(ctx, res, state)
	} else {
		res = r.resolveNative(ctx, res, state)
	}

	if res.Phase == PhaseRejected {
		return nil, &res, errs.ResolutionRejected(op, "%s", res.Reason)
	}

	client, err := r.createClient(ctx, &res)
	if err != nil {
		return nil, &res, err
	}
	if client == nil {
		rej := reject(Resolution{Phase: PhaseResolving, Request: req}, "the key, account, and curve combination could not be bound to a signing client")
		return nil, &rej, errs.ResolutionRejected(op, "%s", rej.Reason)
	}

	// Persist only after the full transition to BOUND succeeded.
	if err := r.persist(ctx, state, &res); err != nil {
		return nil, &res, errs.Wrap(op, err)
	}
	return client, &res, nil
}

// resolveNative derives a deterministic keystore from the connected address
// and binds it, whether or not a funded ledger account exists yet.
func (r *Resolver) resolveNative(ctx context.Context, res Resolution, state *store.State) Resolution {
	req := res.Request
	key := store.Key(req.Address, req.Network)

	if ks, ok := state.Keystores[key]; ok {
		if err := ks.Verify(); err != nil {
			return reject(res, "persisted keystore is corrupt: %v", err)
		}
		acct := state.Accounts[key]
		return bind(res, &ks, &acct, acct.LedgerAccountID == "")
	}

	priv := hledger.PrivateKeyFromSeed(r.seed, []byte(strings.ToLower(req.Address)), []byte(req.Network))
	pub, err := priv.PublicKey()
	if err != nil {
		return reject(res, "key derivation failed: %v", err)
	}
	ks := hledger.Keystore{
		Curve:      hledger.CurveED25519,
		PrivateKey: priv.Hex(),
		PublicKey:  pub,
		Address:    strings.ToLower(req.Address),
	}

	acct := store.Account{Network: req.Network, Address: ks.Address}
	info, err := r.mirror.AccountInfo(ctx, req.Address)
	if err != nil {
		if errs.KindOf(err) == errs.KindTransientNetwork {
			return reject(res, "mirror lookup failed: %v", err)
		}
		return reject(res, "%v", err)
	}
	inactive := info == nil || info.Deleted
	if !inactive {
		// The ledger account must actually be controlled by the derived
		// key; binding anything else would only fail at signing time.
		if reason, ok := checkNativeKey(info.Key, ks.PublicKey); !ok {
			return reject(res, "%s", reason)
		}
		ks.LedgerAccountID = info.AccountID
		acct.LedgerAccountID = info.AccountID
		acct.Balance = info.Balance
		acct.StakingTarget = stakingTarget(info)
	}
	return bind(res, &ks, &acct, inactive)
}

// checkNativeKey verifies that the account's recorded controlling key is the
// deterministically derived ED25519 key. The legacy single-key format does
// not record a scheme, so only the key bytes are compared there.
func checkNativeKey(recorded *mirror.Key, derivedPub string) (string, bool) {
	if recorded == nil {
		return "the mirror did not report a controlling key for the account", false
	}
	if recorded.Type != "ProtobufEncoded" && recorded.Type != string(hledger.CurveED25519) {
		return fmt.Sprintf("account key type is %s; the derived key uses %s", recorded.Type, hledger.CurveED25519), false
	}
	if recorded.Key != "" && !strings.EqualFold(recorded.Key, derivedPub) {
		return "account is controlled by a key other than the one derived for this address", false
	}
	return "", true
}

// resolveExternal binds caller-supplied credentials, verifying the claimed
// curve against the account's authoritative on-ledger key. Mismatches are
// rejected with the expected and supplied curves named, never coerced.
func (r *Resolver) resolveExternal(ctx context.Context, res Resolution, state *store.State) Resolution {
	req := res.Request
	key := store.Key(req.idOrAddress(), req.Network)

	if ks, ok := state.Keystores[key]; ok {
		if ks.Curve != req.Curve {
			return reject(res, "account %s is bound with curve %s; supplied curve %s", req.idOrAddress(), ks.Curve, req.Curve)
		}
		if err := ks.Verify(); err != nil {
			return reject(res, "persisted keystore is corrupt: %v", err)
		}
		acct := state.Accounts[key]
		return bind(res, &ks, &acct, false)
	}

	keyHex, err := r.dialog.Prompt(ctx, dialog.Panel{
		Title: "Import account",
		Lines: []string{
			fmt.Sprintf("Enter the %s private key for %s on %s.", req.Curve, req.idOrAddress(), req.Network),
		},
	})
	if err != nil || keyHex == "" {
		return reject(res, "user declined to supply a private key for %s", req.idOrAddress())
	}

	priv, err := hledger.PrivateKeyFromHex(req.Curve, keyHex)
	if err != nil {
		return reject(res, "supplied key is not a valid %s private key: %v", req.Curve, err)
	}
	pub, err := priv.PublicKey()
	if err != nil {
		return reject(res, "key derivation failed: %v", err)
	}

	info, err := r.mirror.AccountInfo(ctx, req.idOrAddress())
	if err != nil {
		return reject(res, "mirror lookup failed: %v", err)
	}
	if info == nil || info.Deleted {
		return reject(res, "account %s is not active on %s", req.idOrAddress(), req.Network)
	}
	if reason, ok := checkCurve(info.Key, req.Curve); !ok {
		return reject(res, "%s", reason)
	}

	ks := hledger.Keystore{
		Curve:           req.Curve,
		PrivateKey:      priv.Hex(),
		PublicKey:       pub,
		Address:         strings.ToLower(req.idOrAddress()),
		LedgerAccountID: info.AccountID,
	}
	acct := store.Account{
		Network:         req.Network,
		Address:         ks.Address,
		LedgerAccountID: info.AccountID,
		Balance:         info.Balance,
		StakingTarget:   stakingTarget(info),
	}
	return bind(res, &ks, &acct, false)
}

// checkCurve applies the key-type rule: the legacy single-key format binds
// only with the default curve; typed keys must match exactly.
func checkCurve(recorded *mirror.Key, claimed hledger.Curve) (string, bool) {
	if recorded == nil {
		return "the mirror did not report a controlling key for the account", false
	}
	if recorded.Type == "ProtobufEncoded" {
		if claimed != hledger.DefaultCurve {
			return fmt.Sprintf("account key is in the legacy single-key format; expected curve %s, supplied %s", hledger.DefaultCurve, claimed), false
		}
		return "", true
	}
	if recorded.Type != string(claimed) {
		return fmt.Sprintf("account key type is %s; supplied curve %s", recorded.Type, claimed), false
	}
	return "", true
}

func (r *Resolver) createClient(ctx context.Context, res *Resolution) (hledger.SigningClient, error) {
	var account hledger.AccountID
	if res.Account.LedgerAccountID != "" {
		parsed, err := hledger.ParseAccountID(res.Account.LedgerAccountID)
		if err != nil {
			return nil, errs.Terminal(op, "mirror reported unparseable account id %q", res.Account.LedgerAccountID)
		}
		account = parsed
	}
	client, err := r.factory.CreateClient(ctx, account, res.Request.Network, res.Keystore)
	if err != nil {
		return nil, errs.Wrap(op, err)
	}
	return client, nil
}

func (r *Resolver) persist(ctx context.Context, state *store.State, res *Resolution) error {
	key := store.Key(res.Keystore.Address, res.Request.Network)
	state.Accounts[key] = *res.Account
	state.Keystores[key] = *res.Keystore
	state.CurrentAccount = key
	return r.store.Set(ctx, state)
}

func stakingTarget(info *mirror.AccountInfo) string {
	if info.StakedNode != nil {
		return fmt.Sprintf("node:%d", *info.StakedNode)
	}
	return ""
}
