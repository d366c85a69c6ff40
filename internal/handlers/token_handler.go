package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/goflow/backend/internal/services"
)

// Token is the subset of the platform the token endpoints use.
type Token interface {
	Mint(ctx context.Context, to uuid.UUID, amount int64) error
	Transfer(ctx context.Context, from, to uuid.UUID, amount int64) error
	Approve(ctx context.Context, owner, spender uuid.UUID, amount int64) error
	TransferFrom(ctx context.Context, spender, owner, to uuid.UUID, amount int64) error
	BalanceOf(ctx context.Context, account uuid.UUID) (int64, error)
	Allowance(ctx context.Context, owner, spender uuid.UUID) (int64, error)
	TokenInfo(ctx context.Context) (*services.TokenInfo, error)
}

// TokenHandler serves /v1/token and /v1/accounts endpoints. The caller is
// always the debited party: from on transfer, owner on approve, spender on
// transfer-from.
type TokenHandler struct {
	Token  Token
	Logger *slog.Logger
}

type mintRequest struct {
	To     *uuid.UUID `json:"to"`
	Amount int64      `json:"amount"`
}

type transferRequest struct {
	To     uuid.UUID `json:"to"`
	Amount int64     `json:"amount"`
}

type approveRequest struct {
	Spender uuid.UUID `json:"spender"`
	Amount  int64     `json:"amount"`
}

type transferFromRequest struct {
	Owner  uuid.UUID `json:"owner"`
	To     uuid.UUID `json:"to"`
	Amount int64     `json:"amount"`
}

type balanceResponse struct {
	Account uuid.UUID `json:"account"`
	Balance int64     `json:"balance"`
}

type allowanceResponse struct {
	Owner   uuid.UUID `json:"owner"`
	Spender uuid.UUID `json:"spender"`
	Amount  int64     `json:"amount"`
}

// Info handles GET /v1/token.
func (h *TokenHandler) Info(w http.ResponseWriter, r *http.Request) {
	info, err := h.Token.TokenInfo(r.Context())
	if err != nil {
		writeFailure(w, h.Logger, "token info", err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

// Mint handles POST /v1/token/mint. Without "to" the caller is credited.
func (h *TokenHandler) Mint(w http.ResponseWriter, r *http.Request) {
	me, ok := caller(w, r)
	if !ok {
		return
	}
	var req mintRequest
	if !decode(w, r, &req) {
		return
	}
	to := me
	if req.To != nil {
		to = *req.To
	}
	if err := h.Token.Mint(r.Context(), to, req.Amount); err != nil {
		writeFailure(w, h.Logger, "mint", err)
		return
	}
	h.balance(w, r, to)
}

// Transfer handles POST /v1/token/transfer.
func (h *TokenHandler) Transfer(w http.ResponseWriter, r *http.Request) {
	me, ok := caller(w, r)
	if !ok {
		return
	}
	var req transferRequest
	if !decode(w, r, &req) {
		return
	}
	if err := h.Token.Transfer(r.Context(), me, req.To, req.Amount); err != nil {
		writeFailure(w, h.Logger, "transfer", err)
		return
	}
	h.balance(w, r, me)
}

// Approve handles POST /v1/token/approve.
func (h *TokenHandler) Approve(w http.ResponseWriter, r *http.Request) {
	me, ok := caller(w, r)
	if !ok {
		return
	}
	var req approveRequest
	if !decode(w, r, &req) {
		return
	}
	if err := h.Token.Approve(r.Context(), me, req.Spender, req.Amount); err != nil {
		writeFailure(w, h.Logger, "approve", err)
		return
	}
	writeJSON(w, http.StatusOK, allowanceResponse{Owner: me, Spender: req.Spender, Amount: req.Amount})
}

// TransferFrom handles POST /v1/token/transfer-from.
func (h *TokenHandler) TransferFrom(w http.ResponseWriter, r *http.Request) {
	me, ok := caller(w, r)
	if !ok {
		return
	}
	var req transferFromRequest
	if !decode(w, r, &req) {
		return
	}
	if err := h.Token.TransferFrom(r.Context(), me, req.Owner, req.To, req.Amount); err != nil {
		writeFailure(w, h.Logger, "transfer from", err)
		return
	}
	h.allowance(w, r, req.Owner, me)
}

// Balance handles GET /v1/accounts/{id}/balance.
func (h *TokenHandler) Balance(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	h.balance(w, r, id)
}

// Allowance handles GET /v1/accounts/{owner}/allowances/{spender}.
func (h *TokenHandler) Allowance(w http.ResponseWriter, r *http.Request) {
	owner, ok := pathUUID(w, r, "owner")
	if !ok {
		return
	}
	spender, ok := pathUUID(w, r, "spender")
	if !ok {
		return
	}
	h.allowance(w, r, owner, spender)
}

func (h *TokenHandler) balance(w http.ResponseWriter, r *http.Request, id uuid.UUID) {
	b, err := h.Token.BalanceOf(r.Context(), id)
	if err != nil {
		writeFailure(w, h.Logger, "balance", err)
		return
	}
	writeJSON(w, http.StatusOK, balanceResponse{Account: id, Balance: b})
}

func (h *TokenHandler) allowance(w http.ResponseWriter, r *http.Request, owner, spender uuid.UUID) {
	a, err := h.Token.Allowance(r.Context(), owner, spender)
	if err != nil {
		writeFailure(w, h.Logger, "allowance", err)
		return
	}
	writeJSON(w, http.StatusOK, allowanceResponse{Owner: owner, Spender: spender, Amount: a})
}
