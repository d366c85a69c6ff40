package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/goflow/backend/internal/forum"
	"github.com/goflow/backend/internal/ledger"
	"github.com/goflow/backend/internal/models"
)

const (
	// TipAmount is paid by the voter on every upvote.
	TipAmount int64 = 1
	// TipEligibilityThreshold is the balance an answer creator needs to receive tips.
	TipEligibilityThreshold int64 = 10
)

// TipTx is the transaction an upvote runs in: both ledgers share it.
type TipTx interface {
	ledger.Tx
	forum.Tx
}

// TipReceipt describes a committed upvote.
type TipReceipt struct {
	AnswerID     int64     `json:"answer_id"`
	Voter        uuid.UUID `json:"voter"`
	Recipient    uuid.UUID `json:"recipient"`
	Amount       int64     `json:"amount"`
	RoutedToSink bool      `json:"routed_to_sink"`
	Upvotes      int64     `json:"upvotes"`
}

// TippingService couples an upvote to a conditional token transfer.
type TippingService struct {
	Token ledger.Service
	Forum forum.Service
	// Account is the spender voters approve and the sink for redirected tips.
	Account uuid.UUID
}

func NewTippingService(token ledger.Service, forumSvc forum.Service) *TippingService {
	return &TippingService{Token: token, Forum: forumSvc, Account: models.ForumAccountID}
}

// UpvoteAnswer validates the upvote, moves TipAmount from the voter to the
// answer creator (or to the forum account when the creator holds less than
// TipEligibilityThreshold), then records the upvote. Call within a
// transaction: any error leaves that transaction to be rolled back whole.
func (s *TippingService) UpvoteAnswer(ctx context.Context, tx TipTx, voter uuid.UUID, answerID int64) (*TipReceipt, error) {
	answer, err := s.Forum.Answer(ctx, tx, answerID)
	if err != nil {
		return nil, err
	}
	seen, err := s.Forum.HasUpvoted(ctx, tx, voter, answerID)
	if err != nil {
		return nil, err
	}
	if seen {
		return nil, forum.ErrAlreadyUpvoted
	}

	creatorBalance, err := s.Token.BalanceOf(ctx, tx, answer.Creator)
	if err != nil {
		return nil, fmt.Errorf("creator balance: %w", err)
	}
	recipient := answer.Creator
	toSink := creatorBalance < TipEligibilityThreshold
	if toSink {
		recipient = s.Account
	}

	if err := s.Token.TransferFrom(ctx, tx, s.Account, voter, recipient, TipAmount); err != nil {
		return nil, err
	}
	count, err := s.Forum.RecordUpvote(ctx, tx, voter, answerID)
	if err != nil {
		return nil, err
	}
	return &TipReceipt{
		AnswerID:     answerID,
		Voter:        voter,
		Recipient:    recipient,
		Amount:       TipAmount,
		RoutedToSink: toSink,
		Upvotes:      count,
	}, nil
}
