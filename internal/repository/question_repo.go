package repository

import (
	"context"

	"github.com/goflow/backend/internal/models"
)

// InsertQuestion takes the next dense id. Callers hold the ledger lock, so
// MAX(id)+1 cannot race.
func (t *pgTx) InsertQuestion(ctx context.Context, q *models.Question) error {
	if err := t.writable(); err != nil {
		return err
	}
	return t.tx.QueryRow(ctx, `
		INSERT INTO questions (id, creator_id, message)
		SELECT COALESCE(MAX(id) + 1, 0), $1::uuid, $2::text FROM questions
		RETURNING id, created_at
	`, q.Creator, q.Message).Scan(&q.ID, &q.CreatedAt)
}

func (t *pgTx) GetQuestion(ctx context.Context, id int64) (*models.Question, error) {
	var q models.Question
	err := t.tx.QueryRow(ctx, `
		SELECT id, creator_id, message, created_at FROM questions WHERE id = $1
	`, id).Scan(&q.ID, &q.Creator, &q.Message, &q.CreatedAt)
	if err != nil {
		return nil, mapErr(err)
	}
	return &q, nil
}

func (t *pgTx) ListQuestions(ctx context.Context) ([]*models.Question, error) {
	rows, err := t.tx.Query(ctx, `
		SELECT id, creator_id, message, created_at FROM questions ORDER BY id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	list := []*models.Question{}
	for rows.Next() {
		var q models.Question
		if err := rows.Scan(&q.ID, &q.Creator, &q.Message, &q.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, &q)
	}
	return list, rows.Err()
}
