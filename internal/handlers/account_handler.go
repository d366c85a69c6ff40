package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/goflow/backend/internal/models"
)

const (
	defaultEventPage = 100
	maxEventPage     = 1000
)

// UserLookup resolves a registered user by identity.
type UserLookup interface {
	User(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// Ledger is the subset of the platform the account endpoints use.
type Ledger interface {
	BalanceOf(ctx context.Context, account uuid.UUID) (int64, error)
	Allowance(ctx context.Context, owner, spender uuid.UUID) (int64, error)
	UserUpvotes(ctx context.Context, voter uuid.UUID) (int64, error)
	Events(ctx context.Context, afterSeq int64, limit int) ([]*models.Event, error)
}

// AccountHandler serves /v1/me and /v1/events.
type AccountHandler struct {
	Users  UserLookup
	Ledger Ledger
	Logger *slog.Logger
}

type meResponse struct {
	ID          uuid.UUID `json:"id"`
	Email       string    `json:"email"`
	DisplayName string    `json:"display_name"`
	Balance     int64     `json:"balance"`
	// ForumAllowance is what the forum may still draw for tips.
	ForumAllowance int64 `json:"forum_allowance"`
	Upvotes        int64 `json:"upvotes"`
}

type eventsResponse struct {
	Events []*models.Event `json:"events"`
	// Next is the cursor for the following page.
	Next int64 `json:"next"`
}

// GetMe handles GET /v1/me.
func (h *AccountHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	me, ok := caller(w, r)
	if !ok {
		return
	}
	u, err := h.Users.User(r.Context(), me)
	if err != nil {
		writeFailure(w, h.Logger, "get user", err)
		return
	}
	if u == nil {
		writeError(w, http.StatusNotFound, "user not found", "UserNotFound")
		return
	}
	resp := meResponse{ID: u.ID, Email: u.Email, DisplayName: u.DisplayName}
	if resp.Balance, err = h.Ledger.BalanceOf(r.Context(), me); err != nil {
		writeFailure(w, h.Logger, "balance", err)
		return
	}
	if resp.ForumAllowance, err = h.Ledger.Allowance(r.Context(), me, models.ForumAccountID); err != nil {
		writeFailure(w, h.Logger, "allowance", err)
		return
	}
	if resp.Upvotes, err = h.Ledger.UserUpvotes(r.Context(), me); err != nil {
		writeFailure(w, h.Logger, "user upvotes", err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// ListEvents handles GET /v1/events?after=N&limit=M. Without after, the log is read from the start.
func (h *AccountHandler) ListEvents(w http.ResponseWriter, r *http.Request) {
	after := int64(-1)
	if s := r.URL.Query().Get("after"); s != "" {
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid after", "InvalidRequest")
			return
		}
		after = n
	}
	limit := defaultEventPage
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "invalid limit", "InvalidRequest")
			return
		}
		limit = min(n, maxEventPage)
	}

	list, err := h.Ledger.Events(r.Context(), after, limit)
	if err != nil {
		writeFailure(w, h.Logger, "list events", err)
		return
	}
	next := after
	if len(list) > 0 {
		next = list[len(list)-1].Seq
	}
	writeJSON(w, http.StatusOK, eventsResponse{Events: list, Next: next})
}
