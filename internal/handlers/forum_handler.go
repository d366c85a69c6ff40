package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/goflow/backend/internal/models"
	"github.com/goflow/backend/internal/services"
)

// Forum is the subset of the platform the forum endpoints use.
type Forum interface {
	PostQuestion(ctx context.Context, creator uuid.UUID, message string) (int64, error)
	PostAnswer(ctx context.Context, creator uuid.UUID, questionID int64, message string) (int64, error)
	UpvoteAnswer(ctx context.Context, voter uuid.UUID, answerID int64) (*services.TipReceipt, error)
	GetUpvotes(ctx context.Context, answerID int64) (int64, error)
	Question(ctx context.Context, id int64) (*models.Question, error)
	Questions(ctx context.Context) ([]*models.Question, error)
	Answer(ctx context.Context, id int64) (*models.Answer, error)
	Answers(ctx context.Context, questionID int64) ([]*models.Answer, error)
	UserUpvotes(ctx context.Context, voter uuid.UUID) (int64, error)
}

// ForumHandler serves /v1/questions, /v1/answers and /v1/users endpoints.
type ForumHandler struct {
	Forum  Forum
	Logger *slog.Logger
}

type postMessageRequest struct {
	Message string `json:"message"`
}

type createdResponse struct {
	ID int64 `json:"id"`
}

type upvotesResponse struct {
	AnswerID int64 `json:"answer_id"`
	Upvotes  int64 `json:"upvotes"`
}

type userUpvotesResponse struct {
	UserID  uuid.UUID `json:"user_id"`
	Upvotes int64     `json:"upvotes"`
}

// PostQuestion handles POST /v1/questions.
func (h *ForumHandler) PostQuestion(w http.ResponseWriter, r *http.Request) {
	me, ok := caller(w, r)
	if !ok {
		return
	}
	var req postMessageRequest
	if !decode(w, r, &req) {
		return
	}
	id, err := h.Forum.PostQuestion(r.Context(), me, req.Message)
	if err != nil {
		writeFailure(w, h.Logger, "post question", err)
		return
	}
	writeJSON(w, http.StatusCreated, createdResponse{ID: id})
}

// PostAnswer handles POST /v1/questions/{id}/answers.
func (h *ForumHandler) PostAnswer(w http.ResponseWriter, r *http.Request) {
	me, ok := caller(w, r)
	if !ok {
		return
	}
	qid, ok := pathInt(w, r, "id")
	if !ok {
		return
	}
	var req postMessageRequest
	if !decode(w, r, &req) {
		return
	}
	id, err := h.Forum.PostAnswer(r.Context(), me, qid, req.Message)
	if err != nil {
		writeFailure(w, h.Logger, "post answer", err)
		return
	}
	writeJSON(w, http.StatusCreated, createdResponse{ID: id})
}

// Upvote handles POST /v1/answers/{id}/upvote. The caller pays the tip.
func (h *ForumHandler) Upvote(w http.ResponseWriter, r *http.Request) {
	me, ok := caller(w, r)
	if !ok {
		return
	}
	aid, ok := pathInt(w, r, "id")
	if !ok {
		return
	}
	receipt, err := h.Forum.UpvoteAnswer(r.Context(), me, aid)
	if err != nil {
		writeFailure(w, h.Logger, "upvote answer", err)
		return
	}
	writeJSON(w, http.StatusOK, receipt)
}

// GetUpvotes handles GET /v1/answers/{id}/upvotes.
func (h *ForumHandler) GetUpvotes(w http.ResponseWriter, r *http.Request) {
	aid, ok := pathInt(w, r, "id")
	if !ok {
		return
	}
	n, err := h.Forum.GetUpvotes(r.Context(), aid)
	if err != nil {
		writeFailure(w, h.Logger, "get upvotes", err)
		return
	}
	writeJSON(w, http.StatusOK, upvotesResponse{AnswerID: aid, Upvotes: n})
}

// ListQuestions handles GET /v1/questions.
func (h *ForumHandler) ListQuestions(w http.ResponseWriter, r *http.Request) {
	list, err := h.Forum.Questions(r.Context())
	if err != nil {
		writeFailure(w, h.Logger, "list questions", err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// GetQuestion handles GET /v1/questions/{id}.
func (h *ForumHandler) GetQuestion(w http.ResponseWriter, r *http.Request) {
	qid, ok := pathInt(w, r, "id")
	if !ok {
		return
	}
	q, err := h.Forum.Question(r.Context(), qid)
	if err != nil {
		writeFailure(w, h.Logger, "get question", err)
		return
	}
	writeJSON(w, http.StatusOK, q)
}

// ListAnswers handles GET /v1/questions/{id}/answers.
func (h *ForumHandler) ListAnswers(w http.ResponseWriter, r *http.Request) {
	qid, ok := pathInt(w, r, "id")
	if !ok {
		return
	}
	list, err := h.Forum.Answers(r.Context(), qid)
	if err != nil {
		writeFailure(w, h.Logger, "list answers", err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// GetAnswer handles GET /v1/answers/{id}.
func (h *ForumHandler) GetAnswer(w http.ResponseWriter, r *http.Request) {
	aid, ok := pathInt(w, r, "id")
	if !ok {
		return
	}
	a, err := h.Forum.Answer(r.Context(), aid)
	if err != nil {
		writeFailure(w, h.Logger, "get answer", err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

// UserUpvotes handles GET /v1/users/{id}/upvotes.
func (h *ForumHandler) UserUpvotes(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	n, err := h.Forum.UserUpvotes(r.Context(), id)
	if err != nil {
		writeFailure(w, h.Logger, "user upvotes", err)
		return
	}
	writeJSON(w, http.StatusOK, userUpvotesResponse{UserID: id, Upvotes: n})
}
