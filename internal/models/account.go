package models

import (
	"time"

	"github.com/google/uuid"
)

// ForumAccountID is the forum's own holding account. It spends the allowances
// voters grant for tips and receives tips redirected from ineligible creators.
var ForumAccountID = uuid.MustParse("00000000-0000-0000-0000-000000000001")

// Account is a token holder's balance snapshot.
type Account struct {
	ID      uuid.UUID `json:"id"`
	Balance int64     `json:"balance"`
}

// User is a registered principal. Its ID is the identity used across both ledgers.
type User struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	DisplayName  string    `json:"display_name"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}
