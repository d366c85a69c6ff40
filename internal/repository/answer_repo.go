package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/goflow/backend/internal/models"
)

// InsertAnswer returns ErrNotFound when the question does not exist (FK violation).
func (t *pgTx) InsertAnswer(ctx context.Context, a *models.Answer) error {
	if err := t.writable(); err != nil {
		return err
	}
	err := t.tx.QueryRow(ctx, `
		INSERT INTO answers (id, question_id, creator_id, message)
		SELECT COALESCE(MAX(id) + 1, 0), $1::bigint, $2::uuid, $3::text FROM answers
		RETURNING id, upvotes, created_at
	`, a.QuestionID, a.Creator, a.Message).Scan(&a.ID, &a.Upvotes, &a.CreatedAt)
	return mapErr(err)
}

func (t *pgTx) GetAnswer(ctx context.Context, id int64) (*models.Answer, error) {
	var a models.Answer
	err := t.tx.QueryRow(ctx, `
		SELECT id, question_id, creator_id, message, upvotes, created_at FROM answers WHERE id = $1
	`, id).Scan(&a.ID, &a.QuestionID, &a.Creator, &a.Message, &a.Upvotes, &a.CreatedAt)
	if err != nil {
		return nil, mapErr(err)
	}
	return &a, nil
}

func (t *pgTx) ListAnswersByQuestion(ctx context.Context, questionID int64) ([]*models.Answer, error) {
	rows, err := t.tx.Query(ctx, `
		SELECT id, question_id, creator_id, message, upvotes, created_at
		FROM answers WHERE question_id = $1 ORDER BY id
	`, questionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	list := []*models.Answer{}
	for rows.Next() {
		var a models.Answer
		if err := rows.Scan(&a.ID, &a.QuestionID, &a.Creator, &a.Message, &a.Upvotes, &a.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, &a)
	}
	return list, rows.Err()
}

func (t *pgTx) IncrementUpvotes(ctx context.Context, answerID int64) (int64, error) {
	if err := t.writable(); err != nil {
		return 0, err
	}
	var upvotes int64
	err := t.tx.QueryRow(ctx, `
		UPDATE answers SET upvotes = upvotes + 1 WHERE id = $1 RETURNING upvotes
	`, answerID).Scan(&upvotes)
	return upvotes, mapErr(err)
}

func (t *pgTx) HasUpvoted(ctx context.Context, voter uuid.UUID, answerID int64) (bool, error) {
	var exists bool
	err := t.tx.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM answer_upvotes WHERE voter_id = $1 AND answer_id = $2)
	`, voter, answerID).Scan(&exists)
	return exists, err
}

func (t *pgTx) InsertUpvote(ctx context.Context, voter uuid.UUID, answerID int64) error {
	if err := t.writable(); err != nil {
		return err
	}
	_, err := t.tx.Exec(ctx, `
		INSERT INTO answer_upvotes (voter_id, answer_id) VALUES ($1, $2)
	`, voter, answerID)
	return mapErr(err)
}

func (t *pgTx) IncrementUserUpvotes(ctx context.Context, voter uuid.UUID) (int64, error) {
	if err := t.writable(); err != nil {
		return 0, err
	}
	var n int64
	err := t.tx.QueryRow(ctx, `
		INSERT INTO user_upvote_tallies (voter_id, upvotes) VALUES ($1, 1)
		ON CONFLICT (voter_id) DO UPDATE SET upvotes = user_upvote_tallies.upvotes + 1
		RETURNING upvotes
	`, voter).Scan(&n)
	return n, err
}

func (t *pgTx) UserUpvotes(ctx context.Context, voter uuid.UUID) (int64, error) {
	var n int64
	err := t.tx.QueryRow(ctx, `
		SELECT COALESCE((SELECT upvotes FROM user_upvote_tallies WHERE voter_id = $1), 0)
	`, voter).Scan(&n)
	return n, err
}
