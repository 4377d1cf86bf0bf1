package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/example/walletcore/internal/execute"
	"github.com/example/walletcore/internal/wallet"
)

// txRequest is the uniform envelope for transaction-producing operations.
type txRequest struct {
	Caller wallet.Caller  `json:"caller"`
	Params map[string]any `json:"params"`
}

type txResponse struct {
	CorrelationID string            `json:"correlation_id"`
	Result        *execute.TxResult `json:"result"`
}

type balanceResponse struct {
	CorrelationID string `json:"correlation_id"`
	Balance       string `json:"balance"`
}

type accountResponse struct {
	CorrelationID string              `json:"correlation_id"`
	Account       *wallet.AccountView `json:"account"`
}

type txOperation func(ctx context.Context, caller wallet.Caller, params map[string]any) (*execute.TxResult, error)

func decodeTxRequest(w http.ResponseWriter, r *http.Request, maxBytes int64) (*txRequest, bool) {
	var req txRequest
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, r, http.StatusBadRequest, errorResponse{
			Error:         "malformed request body",
			Kind:          "INVALID_PARAMS",
			CorrelationID: CorrelationIDFromContext(r.Context()),
		})
		return nil, false
	}
	if req.Params == nil {
		req.Params = map[string]any{}
	}
	return &req, true
}

func handleTx(deps Dependencies, op txOperation) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, ok := decodeTxRequest(w, r, deps.MaxBodyBytes)
		if !ok {
			return
		}
		result, err := op(r.Context(), req.Caller, req.Params)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, r, http.StatusOK, txResponse{
			CorrelationID: CorrelationIDFromContext(r.Context()),
			Result:        result,
		})
	}
}

func handleCompleteSwap(deps Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, ok := decodeTxRequest(w, r, deps.MaxBodyBytes)
		if !ok {
			return
		}
		result, err := deps.Wallet.CompleteSwap(r.Context(), req.Caller, chi.URLParam(r, "scheduleID"))
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, r, http.StatusOK, txResponse{
			CorrelationID: CorrelationIDFromContext(r.Context()),
			Result:        result,
		})
	}
}

func handleAccountInfo(deps Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		view, err := deps.Wallet.GetAccountInfo(r.Context(), chi.URLParam(r, "accountID"))
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, r, http.StatusOK, accountResponse{
			CorrelationID: CorrelationIDFromContext(r.Context()),
			Account:       view,
		})
	}
}

func handleBalance(deps Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		caller := wallet.Caller{
			Address:   q.Get("address"),
			AccountID: q.Get("accountId"),
			Network:   q.Get("network"),
			Curve:     q.Get("curve"),
			External:  q.Get("external") == "true",
		}
		balance, err := deps.Wallet.GetBalance(r.Context(), caller)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, r, http.StatusOK, balanceResponse{
			CorrelationID: CorrelationIDFromContext(r.Context()),
			Balance:       balance,
		})
	}
}
