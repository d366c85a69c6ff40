package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/goflow/backend/internal/middleware"
	"github.com/goflow/backend/internal/services"
)

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg, code string) {
	writeJSON(w, status, errorResponse{Error: msg, Code: code})
}

// statusForKind maps a ledger failure kind to its HTTP status.
func statusForKind(kind string) int {
	switch kind {
	case services.KindQuestionNotFound, services.KindAnswerNotFound:
		return http.StatusNotFound
	case services.KindAlreadyUpvoted:
		return http.StatusConflict
	case services.KindInsufficientBalance, services.KindInsufficientAllowance:
		return http.StatusPaymentRequired
	case services.KindInvalidAmount, services.KindSupplyOverflow:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// writeFailure reports err as a ledger failure when it is one, else as a 500.
func writeFailure(w http.ResponseWriter, log *slog.Logger, op string, err error) {
	kind := services.FailureKind(err)
	if kind == "" {
		if log == nil {
			log = slog.Default()
		}
		log.Error(op, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error", "Internal")
		return
	}
	writeError(w, statusForKind(kind), err.Error(), kind)
}

// caller returns the authenticated identity or writes 401.
func caller(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, ok := middleware.IdentityFromCtx(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "Unauthorized")
		return uuid.Nil, false
	}
	return id, true
}

func pathInt(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	n, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid "+name, "InvalidRequest")
		return 0, false
	}
	return n, true
}

func pathUUID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue(name))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid "+name, "InvalidRequest")
		return uuid.Nil, false
	}
	return id, true
}

func decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON", "InvalidRequest")
		return false
	}
	return true
}
