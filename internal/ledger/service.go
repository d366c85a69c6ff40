package ledger

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/google/uuid"

	"github.com/goflow/backend/internal/models"
	"github.com/goflow/backend/internal/repository"
)

// Token metadata.
const (
	Name     = "Goflow"
	Symbol   = "GOFLOW"
	Decimals = 0
)

var (
	// ErrInsufficientBalance is returned when an amount exceeds the holder's balance.
	ErrInsufficientBalance = errors.New("insufficient balance")
	// ErrInsufficientAllowance is returned when transferFrom exceeds the spender's allowance.
	ErrInsufficientAllowance = errors.New("insufficient allowance")
	// ErrInvalidAmount is returned for negative amounts.
	ErrInvalidAmount = errors.New("amount must not be negative")
	// ErrSupplyOverflow is returned when minting would overflow the total supply.
	ErrSupplyOverflow = errors.New("total supply overflow")
)

// Tx is the slice of store state the token ledger touches.
type Tx interface {
	repository.AccountTx
	repository.EventTx
}

// Service is the fungible-token ledger. Every method runs inside the caller's
// transaction; on error the caller must discard that transaction.
type Service interface {
	Mint(ctx context.Context, tx Tx, to uuid.UUID, amount int64) error
	Transfer(ctx context.Context, tx Tx, from, to uuid.UUID, amount int64) error
	Approve(ctx context.Context, tx Tx, owner, spender uuid.UUID, amount int64) error
	TransferFrom(ctx context.Context, tx Tx, spender, owner, to uuid.UUID, amount int64) error
	BalanceOf(ctx context.Context, tx Tx, account uuid.UUID) (int64, error)
	Allowance(ctx context.Context, tx Tx, owner, spender uuid.UUID) (int64, error)
	TotalSupply(ctx context.Context, tx Tx) (int64, error)
}

type service struct{}

func NewService() Service {
	return &service{}
}

var _ Service = (*service)(nil)

// Mint credits amount to the account. Any caller may mint to any account.
func (s *service) Mint(ctx context.Context, tx Tx, to uuid.UUID, amount int64) error {
	if amount < 0 {
		return ErrInvalidAmount
	}
	supply, err := tx.TotalSupply(ctx)
	if err != nil {
		return err
	}
	if amount > math.MaxInt64-supply {
		return ErrSupplyOverflow
	}
	if err := s.credit(ctx, tx, to, amount); err != nil {
		return err
	}
	if err := tx.SetTotalSupply(ctx, supply+amount); err != nil {
		return err
	}
	return tx.AppendEvent(ctx, &models.Event{
		Kind:   models.EventTransfer,
		Actor:  to,
		To:     &to,
		Amount: amount,
	})
}

func (s *service) Transfer(ctx context.Context, tx Tx, from, to uuid.UUID, amount int64) error {
	if amount < 0 {
		return ErrInvalidAmount
	}
	if err := s.move(ctx, tx, from, to, amount); err != nil {
		return err
	}
	return tx.AppendEvent(ctx, &models.Event{
		Kind:   models.EventTransfer,
		Actor:  from,
		From:   &from,
		To:     &to,
		Amount: amount,
	})
}

// Approve overwrites the spender's allowance. The allowance may not exceed the
// owner's current balance.
func (s *service) Approve(ctx context.Context, tx Tx, owner, spender uuid.UUID, amount int64) error {
	if amount < 0 {
		return ErrInvalidAmount
	}
	balance, err := tx.Balance(ctx, owner)
	if err != nil {
		return err
	}
	if amount > balance {
		return ErrInsufficientBalance
	}
	if err := tx.SetAllowance(ctx, owner, spender, amount); err != nil {
		return err
	}
	return tx.AppendEvent(ctx, &models.Event{
		Kind:   models.EventApproval,
		Actor:  owner,
		From:   &owner,
		To:     &spender,
		Amount: amount,
	})
}

// TransferFrom moves amount from owner to to on behalf of spender, drawing
// down the allowance owner granted spender. The allowance is checked first.
func (s *service) TransferFrom(ctx context.Context, tx Tx, spender, owner, to uuid.UUID, amount int64) error {
	if amount < 0 {
		return ErrInvalidAmount
	}
	allowed, err := tx.Allowance(ctx, owner, spender)
	if err != nil {
		return err
	}
	if amount > allowed {
		return ErrInsufficientAllowance
	}
	if err := s.move(ctx, tx, owner, to, amount); err != nil {
		return err
	}
	if err := tx.SetAllowance(ctx, owner, spender, allowed-amount); err != nil {
		return err
	}
	return tx.AppendEvent(ctx, &models.Event{
		Kind:   models.EventTransfer,
		Actor:  spender,
		From:   &owner,
		To:     &to,
		Amount: amount,
	})
}

func (s *service) BalanceOf(ctx context.Context, tx Tx, account uuid.UUID) (int64, error) {
	return tx.Balance(ctx, account)
}

func (s *service) Allowance(ctx context.Context, tx Tx, owner, spender uuid.UUID) (int64, error) {
	return tx.Allowance(ctx, owner, spender)
}

func (s *service) TotalSupply(ctx context.Context, tx Tx) (int64, error) {
	return tx.TotalSupply(ctx)
}

// move debits from before crediting to, so a self-transfer reads the debited balance.
func (s *service) move(ctx context.Context, tx Tx, from, to uuid.UUID, amount int64) error {
	balance, err := tx.Balance(ctx, from)
	if err != nil {
		return err
	}
	if amount > balance {
		return ErrInsufficientBalance
	}
	if err := tx.SetBalance(ctx, from, balance-amount); err != nil {
		return fmt.Errorf("debit %s: %w", from, err)
	}
	return s.credit(ctx, tx, to, amount)
}

// credit cannot overflow: no balance exceeds the total supply.
func (s *service) credit(ctx context.Context, tx Tx, to uuid.UUID, amount int64) error {
	balance, err := tx.Balance(ctx, to)
	if err != nil {
		return err
	}
	if err := tx.SetBalance(ctx, to, balance+amount); err != nil {
		return fmt.Errorf("credit %s: %w", to, err)
	}
	return nil
}
