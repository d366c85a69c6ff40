package forum

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/goflow/backend/internal/models"
	"github.com/goflow/backend/internal/repository"
)

var (
	ErrQuestionNotFound = errors.New("question not found")
	ErrAnswerNotFound   = errors.New("answer not found")
	ErrAlreadyUpvoted   = errors.New("user already upvoted this answer")
)

// Tx is the slice of store state the forum ledger touches.
type Tx interface {
	repository.ForumTx
	repository.EventTx
}

// Service is the question/answer ledger. Like the token ledger it runs inside
// a transaction owned by the caller.
type Service interface {
	PostQuestion(ctx context.Context, tx Tx, creator uuid.UUID, message string) (int64, error)
	PostAnswer(ctx context.Context, tx Tx, creator uuid.UUID, questionID int64, message string) (int64, error)
	Question(ctx context.Context, tx Tx, id int64) (*models.Question, error)
	Questions(ctx context.Context, tx Tx) ([]*models.Question, error)
	Answer(ctx context.Context, tx Tx, id int64) (*models.Answer, error)
	Answers(ctx context.Context, tx Tx, questionID int64) ([]*models.Answer, error)
	GetUpvotes(ctx context.Context, tx Tx, answerID int64) (int64, error)
	HasUpvoted(ctx context.Context, tx Tx, voter uuid.UUID, answerID int64) (bool, error)
	UserUpvotes(ctx context.Context, tx Tx, voter uuid.UUID) (int64, error)

	// RecordUpvote registers voter's upvote on the answer. Only the tipping
	// coordinator calls it, in the same transaction as the tip transfer.
	RecordUpvote(ctx context.Context, tx Tx, voter uuid.UUID, answerID int64) (int64, error)
}

type service struct{}

func NewService() Service {
	return &service{}
}

var _ Service = (*service)(nil)

func (s *service) PostQuestion(ctx context.Context, tx Tx, creator uuid.UUID, message string) (int64, error) {
	q := &models.Question{Creator: creator, Message: message}
	if err := tx.InsertQuestion(ctx, q); err != nil {
		return 0, err
	}
	if err := tx.AppendEvent(ctx, &models.Event{
		Kind:       models.EventQuestionPosted,
		Actor:      creator,
		QuestionID: &q.ID,
	}); err != nil {
		return 0, err
	}
	return q.ID, nil
}

func (s *service) PostAnswer(ctx context.Context, tx Tx, creator uuid.UUID, questionID int64, message string) (int64, error) {
	if _, err := s.Question(ctx, tx, questionID); err != nil {
		return 0, err
	}
	a := &models.Answer{QuestionID: questionID, Creator: creator, Message: message}
	if err := tx.InsertAnswer(ctx, a); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return 0, ErrQuestionNotFound
		}
		return 0, err
	}
	if err := tx.AppendEvent(ctx, &models.Event{
		Kind:       models.EventAnswerPosted,
		Actor:      creator,
		QuestionID: &a.QuestionID,
		AnswerID:   &a.ID,
	}); err != nil {
		return 0, err
	}
	return a.ID, nil
}

func (s *service) Question(ctx context.Context, tx Tx, id int64) (*models.Question, error) {
	q, err := tx.GetQuestion(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrQuestionNotFound
	}
	return q, err
}

func (s *service) Questions(ctx context.Context, tx Tx) ([]*models.Question, error) {
	return tx.ListQuestions(ctx)
}

func (s *service) Answer(ctx context.Context, tx Tx, id int64) (*models.Answer, error) {
	a, err := tx.GetAnswer(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrAnswerNotFound
	}
	return a, err
}

func (s *service) Answers(ctx context.Context, tx Tx, questionID int64) ([]*models.Answer, error) {
	if _, err := s.Question(ctx, tx, questionID); err != nil {
		return nil, err
	}
	return tx.ListAnswersByQuestion(ctx, questionID)
}

func (s *service) GetUpvotes(ctx context.Context, tx Tx, answerID int64) (int64, error) {
	a, err := s.Answer(ctx, tx, answerID)
	if err != nil {
		return 0, err
	}
	return a.Upvotes, nil
}

func (s *service) HasUpvoted(ctx context.Context, tx Tx, voter uuid.UUID, answerID int64) (bool, error) {
	return tx.HasUpvoted(ctx, voter, answerID)
}

func (s *service) UserUpvotes(ctx context.Context, tx Tx, voter uuid.UUID) (int64, error) {
	return tx.UserUpvotes(ctx, voter)
}

func (s *service) RecordUpvote(ctx context.Context, tx Tx, voter uuid.UUID, answerID int64) (int64, error) {
	if _, err := s.Answer(ctx, tx, answerID); err != nil {
		return 0, err
	}
	seen, err := tx.HasUpvoted(ctx, voter, answerID)
	if err != nil {
		return 0, err
	}
	if seen {
		return 0, ErrAlreadyUpvoted
	}
	if err := tx.InsertUpvote(ctx, voter, answerID); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return 0, ErrAlreadyUpvoted
		}
		return 0, err
	}
	count, err := tx.IncrementUpvotes(ctx, answerID)
	if err != nil {
		return 0, err
	}
	if _, err := tx.IncrementUserUpvotes(ctx, voter); err != nil {
		return 0, err
	}
	if err := tx.AppendEvent(ctx, &models.Event{
		Kind:     models.EventAnswerUpvoted,
		Actor:    voter,
		AnswerID: &answerID,
	}); err != nil {
		return 0, err
	}
	return count, nil
}
