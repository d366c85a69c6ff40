package models

import (
	"time"

	"github.com/google/uuid"
)

type Question struct {
	ID        int64     `json:"id"`
	Creator   uuid.UUID `json:"creator"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

type Answer struct {
	ID         int64     `json:"id"`
	QuestionID int64     `json:"question_id"`
	Creator    uuid.UUID `json:"creator"`
	Message    string    `json:"message"`
	Upvotes    int64     `json:"upvotes"`
	CreatedAt  time.Time `json:"created_at"`
}
