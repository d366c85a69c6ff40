package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/goflow/backend/internal/models"
)

// ledgerLockKey is the advisory lock every write transaction holds. It makes
// WithTx a single global serialization point across all API instances.
const ledgerLockKey int64 = 0x676f666c6f77 // "goflow"

// EventHook runs inside the writing transaction for every appended event.
// Returning an error aborts the transaction.
type EventHook func(ctx context.Context, tx pgx.Tx, e *models.Event) error

// PGStore is the PostgreSQL-backed Store.
type PGStore struct {
	pool    *pgxpool.Pool
	onEvent EventHook
}

func NewPGStore(pool *pgxpool.Pool) *PGStore {
	return &PGStore{pool: pool}
}

// SetEventHook installs hook for events appended by later transactions.
func (s *PGStore) SetEventHook(hook EventHook) {
	s.onEvent = hook
}

var _ Store = (*PGStore)(nil)

func (s *PGStore) WithTx(ctx context.Context, fn func(tx Tx) error) error {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, ledgerLockKey); err != nil {
		return fmt.Errorf("acquire ledger lock: %w", err)
	}
	if err := fn(&pgTx{tx: tx, onEvent: s.onEvent}); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (s *PGStore) View(ctx context.Context, fn func(tx Tx) error) error {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly})
	if err != nil {
		return fmt.Errorf("begin read tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(&pgTx{tx: tx, readOnly: true}); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// pgTx implements Tx over one pgx transaction. Queries live in the *_repo.go files.
type pgTx struct {
	tx       pgx.Tx
	readOnly bool
	onEvent  EventHook
}

func (t *pgTx) writable() error {
	if t.readOnly {
		return ErrReadOnly
	}
	return nil
}

// mapErr converts driver errors into the package's sentinel errors.
func mapErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505":
			return ErrDuplicate
		case "23503":
			return ErrNotFound
		}
	}
	return err
}
