package repository

import (
	"context"
	"fmt"

	"github.com/goflow/backend/internal/models"
)

// AppendEvent inserts the event with the next sequence number, then runs the
// store's event hook in the same transaction.
func (t *pgTx) AppendEvent(ctx context.Context, e *models.Event) error {
	if err := t.writable(); err != nil {
		return err
	}
	err := t.tx.QueryRow(ctx, `
		INSERT INTO ledger_events (seq, kind, actor_id, from_id, to_id, amount, question_id, answer_id)
		SELECT COALESCE(MAX(seq) + 1, 0), $1::text, $2::uuid, $3::uuid, $4::uuid, $5::bigint, $6::bigint, $7::bigint
		FROM ledger_events
		RETURNING seq, created_at
	`, e.Kind, e.Actor, e.From, e.To, e.Amount, e.QuestionID, e.AnswerID).Scan(&e.Seq, &e.CreatedAt)
	if err != nil {
		return err
	}
	if t.onEvent != nil {
		if err := t.onEvent(ctx, t.tx, e); err != nil {
			return fmt.Errorf("event hook seq %d: %w", e.Seq, err)
		}
	}
	return nil
}

func (t *pgTx) ListEvents(ctx context.Context, afterSeq int64, limit int) ([]*models.Event, error) {
	if limit <= 0 {
		return []*models.Event{}, nil
	}
	rows, err := t.tx.Query(ctx, `
		SELECT seq, kind, actor_id, from_id, to_id, amount, question_id, answer_id, created_at
		FROM ledger_events WHERE seq > $1 ORDER BY seq LIMIT $2
	`, afterSeq, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	list := []*models.Event{}
	for rows.Next() {
		var e models.Event
		if err := rows.Scan(&e.Seq, &e.Kind, &e.Actor, &e.From, &e.To, &e.Amount, &e.QuestionID, &e.AnswerID, &e.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, &e)
	}
	return list, rows.Err()
}
