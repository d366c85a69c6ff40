package models

import (
	"time"

	"github.com/google/uuid"
)

// Ledger event kinds.
const (
	EventTransfer       = "transfer"
	EventApproval       = "approval"
	EventQuestionPosted = "question_posted"
	EventAnswerPosted   = "answer_posted"
	EventAnswerUpvoted  = "answer_upvoted"
)

// Event is one entry of the append-only ledger log. Seq is dense and assigned
// by the store in commit order.
//
// For transfer, From is nil on mint. For approval, From is the owner and To the
// spender, and Amount is the new allowance.
type Event struct {
	Seq        int64      `json:"seq"`
	Kind       string     `json:"kind"`
	Actor      uuid.UUID  `json:"actor"`
	From       *uuid.UUID `json:"from,omitempty"`
	To         *uuid.UUID `json:"to,omitempty"`
	Amount     int64      `json:"amount"`
	QuestionID *int64     `json:"question_id,omitempty"`
	AnswerID   *int64     `json:"answer_id,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}
