package services

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/goflow/backend/internal/forum"
	"github.com/goflow/backend/internal/ledger"
	"github.com/goflow/backend/internal/metrics"
	"github.com/goflow/backend/internal/models"
	"github.com/goflow/backend/internal/repository"
)

// ---------------------------------------------------------------------------
// Test fixture: a fresh in-memory store per test.
// ---------------------------------------------------------------------------

type fixture struct {
	store    *repository.MemoryStore
	platform *Platform
	metrics  *metrics.Metrics
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := repository.NewMemoryStore()
	m := metrics.New(nil)
	return &fixture{
		store:    store,
		platform: NewPlatform(store, ledger.NewService(), forum.NewService(), m, nil),
		metrics:  m,
	}
}

func (f *fixture) mint(t *testing.T, to uuid.UUID, amount int64) {
	t.Helper()
	if err := f.platform.Mint(context.Background(), to, amount); err != nil {
		t.Fatalf("Mint(%s, %d): %v", to, amount, err)
	}
}

// approveForum grants the forum account an allowance, as a voter must before upvoting.
func (f *fixture) approveForum(t *testing.T, owner uuid.UUID, amount int64) {
	t.Helper()
	if err := f.platform.Approve(context.Background(), owner, models.ForumAccountID, amount); err != nil {
		t.Fatalf("Approve(%s, forum, %d): %v", owner, amount, err)
	}
}

func (f *fixture) balance(t *testing.T, id uuid.UUID) int64 {
	t.Helper()
	b, err := f.platform.BalanceOf(context.Background(), id)
	if err != nil {
		t.Fatalf("BalanceOf(%s): %v", id, err)
	}
	return b
}

func (f *fixture) upvotes(t *testing.T, answerID int64) int64 {
	t.Helper()
	n, err := f.platform.GetUpvotes(context.Background(), answerID)
	if err != nil {
		t.Fatalf("GetUpvotes(%d): %v", answerID, err)
	}
	return n
}

// postQuestionsAndAnswers posts the same two questions and answers used across tests:
// question 0 and answer 0 by user1, question 1 and answer 1 by user2.
func (f *fixture) postQuestionsAndAnswers(t *testing.T, user1, user2 uuid.UUID) {
	t.Helper()
	ctx := context.Background()
	steps := []struct {
		post    func() (int64, error)
		want    int64
	}{
		{func() (int64, error) { return f.platform.PostQuestion(ctx, user1, "are you my fren?") }, 0},
		{func() (int64, error) { return f.platform.PostQuestion(ctx, user2, "suh?") }, 1},
		{func() (int64, error) { return f.platform.PostAnswer(ctx, user1, 0, "yes, I am") }, 0},
		{func() (int64, error) { return f.platform.PostAnswer(ctx, user2, 1, "dude!") }, 1},
	}
	for i, s := range steps {
		id, err := s.post()
		if err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
		if id != s.want {
			t.Fatalf("step %d: got id %d, want %d", i, id, s.want)
		}
	}
}
