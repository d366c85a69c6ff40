package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/goflow/backend/internal/models"
)

// ErrNotFound is returned by single-row lookups that match nothing.
var ErrNotFound = errors.New("not found")

// ErrDuplicate is returned when an insert collides with an existing key.
var ErrDuplicate = errors.New("duplicate key")

// ErrReadOnly is returned by writes attempted inside Store.View.
var ErrReadOnly = errors.New("write in read-only transaction")

// AccountTx holds token balances, allowances and the total supply.
// Unknown accounts read as zero.
type AccountTx interface {
	Balance(ctx context.Context, id uuid.UUID) (int64, error)
	SetBalance(ctx context.Context, id uuid.UUID, balance int64) error
	Allowance(ctx context.Context, owner, spender uuid.UUID) (int64, error)
	SetAllowance(ctx context.Context, owner, spender uuid.UUID, amount int64) error
	TotalSupply(ctx context.Context) (int64, error)
	SetTotalSupply(ctx context.Context, supply int64) error
}

// ForumTx holds questions, answers, upvote records and per-voter tallies.
type ForumTx interface {
	// InsertQuestion assigns q.ID and q.CreatedAt.
	InsertQuestion(ctx context.Context, q *models.Question) error
	GetQuestion(ctx context.Context, id int64) (*models.Question, error)
	ListQuestions(ctx context.Context) ([]*models.Question, error)

	// InsertAnswer assigns a.ID and a.CreatedAt. The question must exist.
	InsertAnswer(ctx context.Context, a *models.Answer) error
	GetAnswer(ctx context.Context, id int64) (*models.Answer, error)
	ListAnswersByQuestion(ctx context.Context, questionID int64) ([]*models.Answer, error)
	IncrementUpvotes(ctx context.Context, answerID int64) (int64, error)

	HasUpvoted(ctx context.Context, voter uuid.UUID, answerID int64) (bool, error)
	// InsertUpvote returns ErrDuplicate if the record already exists.
	InsertUpvote(ctx context.Context, voter uuid.UUID, answerID int64) error
	IncrementUserUpvotes(ctx context.Context, voter uuid.UUID) (int64, error)
	UserUpvotes(ctx context.Context, voter uuid.UUID) (int64, error)
}

// EventTx is the append-only ledger log.
type EventTx interface {
	// AppendEvent assigns e.Seq and e.CreatedAt.
	AppendEvent(ctx context.Context, e *models.Event) error
	ListEvents(ctx context.Context, afterSeq int64, limit int) ([]*models.Event, error)
}

// Tx is the full view of ledger state inside one transaction.
type Tx interface {
	AccountTx
	ForumTx
	EventTx
}

// Store is the transactional boundary around all ledger state.
type Store interface {
	// WithTx runs fn serialized against every other WithTx call. If fn returns
	// an error, none of its writes are kept.
	WithTx(ctx context.Context, fn func(tx Tx) error) error
	// View runs fn against a consistent snapshot. Writes fail with ErrReadOnly.
	View(ctx context.Context, fn func(tx Tx) error) error
}
