// Package api exposes the wallet service over HTTP as a thin JSON surface.
// Handlers decode, delegate, and encode; every decision lives in the wallet
// service and below.
package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/example/walletcore/internal/execute"
	"github.com/example/walletcore/internal/wallet"
)

// WalletService is the surface the router delegates to.
type WalletService interface {
	TransferAssets(ctx context.Context, caller wallet.Caller, params map[string]any) (*execute.TxResult, error)
	AssociateTokens(ctx context.Context, caller wallet.Caller, params map[string]any) (*execute.TxResult, error)
	DissociateTokens(ctx context.Context, caller wallet.Caller, params map[string]any) (*execute.TxResult, error)
	MintToken(ctx context.Context, caller wallet.Caller, params map[string]any) (*execute.TxResult, error)
	BurnToken(ctx context.Context, caller wallet.Caller, params map[string]any) (*execute.TxResult, error)
	UpdateStaking(ctx context.Context, caller wallet.Caller, params map[string]any) (*execute.TxResult, error)
	InitiateSwap(ctx context.Context, caller wallet.Caller, params map[string]any) (*execute.TxResult, error)
	CompleteSwap(ctx context.Context, caller wallet.Caller, scheduleID string) (*execute.TxResult, error)
	GetAccountInfo(ctx context.Context, idOrAddress string) (*wallet.AccountView, error)
	GetBalance(ctx context.Context, caller wallet.Caller) (string, error)
}

// Dependencies wires the router.
type Dependencies struct {
	Logger       *slog.Logger
	Wallet       WalletService
	MaxBodyBytes int64
}

// NewRouter builds the HTTP handler.
func NewRouter(deps Dependencies) http.Handler {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.MaxBodyBytes <= 0 {
		deps.MaxBodyBytes = 1 << 20
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(CorrelationID)
	r.Use(RequestLogger(deps.Logger))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	r.Route("/v1", func(r chi.Router) {
		r.Post("/transfer", handleTx(deps, deps.Wallet.TransferAssets))
		r.Post("/tokens/associate", handleTx(deps, deps.Wallet.AssociateTokens))
		r.Post("/tokens/dissociate", handleTx(deps, deps.Wallet.DissociateTokens))
		r.Post("/tokens/mint", handleTx(deps, deps.Wallet.MintToken))
		r.Post("/tokens/burn", handleTx(deps, deps.Wallet.BurnToken))
		r.Post("/stake", handleTx(deps, deps.Wallet.UpdateStaking))
		r.Post("/swaps", handleTx(deps, deps.Wallet.InitiateSwap))
		r.Post("/swaps/{scheduleID}/complete", handleCompleteSwap(deps))
		r.Get("/accounts/{accountID}", handleAccountInfo(deps))
		r.Get("/balance", handleBalance(deps))
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, r, http.StatusNotFound, errorResponse{Error: "not found", Kind: "NOT_FOUND"})
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, r, http.StatusMethodNotAllowed, errorResponse{Error: "method not allowed", Kind: "METHOD_NOT_ALLOWED"})
	})

	return r
}
