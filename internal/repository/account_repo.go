package repository

import (
	"context"

	"github.com/google/uuid"
)

func (t *pgTx) Balance(ctx context.Context, id uuid.UUID) (int64, error) {
	var balance int64
	err := t.tx.QueryRow(ctx, `
		SELECT COALESCE((SELECT balance FROM token_accounts WHERE id = $1), 0)
	`, id).Scan(&balance)
	return balance, err
}

// SetBalance upserts the account row; the CHECK constraint rejects negative balances.
func (t *pgTx) SetBalance(ctx context.Context, id uuid.UUID, balance int64) error {
	if err := t.writable(); err != nil {
		return err
	}
	_, err := t.tx.Exec(ctx, `
		INSERT INTO token_accounts (id, balance) VALUES ($1, $2)
		ON CONFLICT (id) DO UPDATE SET balance = EXCLUDED.balance, updated_at = now()
	`, id, balance)
	return err
}

func (t *pgTx) Allowance(ctx context.Context, owner, spender uuid.UUID) (int64, error) {
	var amount int64
	err := t.tx.QueryRow(ctx, `
		SELECT COALESCE((SELECT amount FROM token_allowances WHERE owner_id = $1 AND spender_id = $2), 0)
	`, owner, spender).Scan(&amount)
	return amount, err
}

func (t *pgTx) SetAllowance(ctx context.Context, owner, spender uuid.UUID, amount int64) error {
	if err := t.writable(); err != nil {
		return err
	}
	_, err := t.tx.Exec(ctx, `
		INSERT INTO token_allowances (owner_id, spender_id, amount) VALUES ($1, $2, $3)
		ON CONFLICT (owner_id, spender_id) DO UPDATE SET amount = EXCLUDED.amount, updated_at = now()
	`, owner, spender, amount)
	return err
}

func (t *pgTx) TotalSupply(ctx context.Context) (int64, error) {
	var total int64
	err := t.tx.QueryRow(ctx, `SELECT total FROM token_supply WHERE id`).Scan(&total)
	return total, mapErr(err)
}

func (t *pgTx) SetTotalSupply(ctx context.Context, supply int64) error {
	if err := t.writable(); err != nil {
		return err
	}
	_, err := t.tx.Exec(ctx, `UPDATE token_supply SET total = $1 WHERE id`, supply)
	return err
}
