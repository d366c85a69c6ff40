package repository

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/google/uuid"

	"github.com/goflow/backend/internal/models"
)

// runStoreSuite exercises the Store contract. newStore must return an empty store.
func runStoreSuite(t *testing.T, newStore func(t *testing.T) Store) {
	t.Run("balances and allowances default to zero", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		err := s.View(ctx, func(tx Tx) error {
			b, err := tx.Balance(ctx, uuid.New())
			if err != nil || b != 0 {
				t.Errorf("Balance: got %d, %v", b, err)
			}
			a, err := tx.Allowance(ctx, uuid.New(), uuid.New())
			if err != nil || a != 0 {
				t.Errorf("Allowance: got %d, %v", a, err)
			}
			supply, err := tx.TotalSupply(ctx)
			if err != nil || supply != 0 {
				t.Errorf("TotalSupply: got %d, %v", supply, err)
			}
			return nil
		})
		if err != nil {
			t.Fatalf("View: %v", err)
		}
	})

	t.Run("error rolls back every write", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		alice, bob := uuid.New(), uuid.New()
		if err := s.WithTx(ctx, func(tx Tx) error {
			return tx.SetBalance(ctx, alice, 5)
		}); err != nil {
			t.Fatalf("seed: %v", err)
		}

		boom := errors.New("boom")
		err := s.WithTx(ctx, func(tx Tx) error {
			_ = tx.SetBalance(ctx, alice, 1)
			_ = tx.SetBalance(ctx, bob, 4)
			_ = tx.SetAllowance(ctx, alice, bob, 3)
			_ = tx.SetTotalSupply(ctx, 99)
			q := &models.Question{Creator: alice, Message: "gone"}
			_ = tx.InsertQuestion(ctx, q)
			_ = tx.AppendEvent(ctx, &models.Event{Kind: models.EventTransfer, Actor: alice})
			return boom
		})
		if !errors.Is(err, boom) {
			t.Fatalf("WithTx: got %v, want boom", err)
		}

		_ = s.View(ctx, func(tx Tx) error {
			if b, _ := tx.Balance(ctx, alice); b != 5 {
				t.Errorf("alice: got %d, want 5", b)
			}
			if b, _ := tx.Balance(ctx, bob); b != 0 {
				t.Errorf("bob: got %d, want 0", b)
			}
			if a, _ := tx.Allowance(ctx, alice, bob); a != 0 {
				t.Errorf("allowance: got %d, want 0", a)
			}
			if supply, _ := tx.TotalSupply(ctx); supply != 0 {
				t.Errorf("supply: got %d, want 0", supply)
			}
			if qs, _ := tx.ListQuestions(ctx); len(qs) != 0 {
				t.Errorf("questions: got %d, want 0", len(qs))
			}
			if es, _ := tx.ListEvents(ctx, -1, 10); len(es) != 0 {
				t.Errorf("events: got %d, want 0", len(es))
			}
			return nil
		})

		// Ids freed by the rollback are reused.
		var q models.Question
		_ = s.WithTx(ctx, func(tx Tx) error {
			q = models.Question{Creator: alice, Message: "kept"}
			return tx.InsertQuestion(ctx, &q)
		})
		if q.ID != 0 {
			t.Errorf("question id after rollback: got %d, want 0", q.ID)
		}
	})

	t.Run("view rejects writes", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		err := s.View(ctx, func(tx Tx) error {
			return tx.SetBalance(ctx, uuid.New(), 1)
		})
		if !errors.Is(err, ErrReadOnly) {
			t.Errorf("SetBalance in View: got %v, want ErrReadOnly", err)
		}
		err = s.View(ctx, func(tx Tx) error {
			return tx.AppendEvent(ctx, &models.Event{Kind: models.EventTransfer, Actor: uuid.New()})
		})
		if !errors.Is(err, ErrReadOnly) {
			t.Errorf("AppendEvent in View: got %v, want ErrReadOnly", err)
		}
	})

	t.Run("forum rows", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		creator, voter := uuid.New(), uuid.New()

		err := s.WithTx(ctx, func(tx Tx) error {
			for i := 0; i < 2; i++ {
				q := &models.Question{Creator: creator, Message: "q"}
				if err := tx.InsertQuestion(ctx, q); err != nil {
					return err
				}
				if q.ID != int64(i) {
					t.Errorf("question %d: got id %d", i, q.ID)
				}
			}
			a := &models.Answer{QuestionID: 1, Creator: creator, Message: "a"}
			if err := tx.InsertAnswer(ctx, a); err != nil {
				return err
			}
			if a.ID != 0 || a.CreatedAt.IsZero() {
				t.Errorf("answer: got %+v", a)
			}
			if err := tx.InsertUpvote(ctx, voter, 0); err != nil {
				return err
			}
			if n, err := tx.IncrementUpvotes(ctx, 0); err != nil || n != 1 {
				t.Errorf("IncrementUpvotes: got %d, %v", n, err)
			}
			if n, err := tx.IncrementUserUpvotes(ctx, voter); err != nil || n != 1 {
				t.Errorf("IncrementUserUpvotes: got %d, %v", n, err)
			}
			return nil
		})
		if err != nil {
			t.Fatalf("WithTx: %v", err)
		}

		err = s.WithTx(ctx, func(tx Tx) error {
			return tx.InsertAnswer(ctx, &models.Answer{QuestionID: 7, Creator: creator, Message: "orphan"})
		})
		if !errors.Is(err, ErrNotFound) {
			t.Errorf("answer to missing question: got %v, want ErrNotFound", err)
		}
		err = s.WithTx(ctx, func(tx Tx) error {
			return tx.InsertUpvote(ctx, voter, 0)
		})
		if !errors.Is(err, ErrDuplicate) {
			t.Errorf("duplicate upvote: got %v, want ErrDuplicate", err)
		}

		_ = s.View(ctx, func(tx Tx) error {
			if _, err := tx.GetQuestion(ctx, 2); !errors.Is(err, ErrNotFound) {
				t.Errorf("GetQuestion(2): got %v, want ErrNotFound", err)
			}
			if _, err := tx.GetAnswer(ctx, 1); !errors.Is(err, ErrNotFound) {
				t.Errorf("GetAnswer(1): got %v, want ErrNotFound", err)
			}
			a, err := tx.GetAnswer(ctx, 0)
			if err != nil || a.Upvotes != 1 || a.QuestionID != 1 {
				t.Errorf("GetAnswer(0): got %+v, %v", a, err)
			}
			if list, _ := tx.ListAnswersByQuestion(ctx, 0); len(list) != 0 {
				t.Errorf("answers(0): got %d, want 0", len(list))
			}
			if list, _ := tx.ListAnswersByQuestion(ctx, 1); len(list) != 1 {
				t.Errorf("answers(1): got %d, want 1", len(list))
			}
			if seen, _ := tx.HasUpvoted(ctx, voter, 0); !seen {
				t.Error("HasUpvoted: got false, want true")
			}
			if seen, _ := tx.HasUpvoted(ctx, creator, 0); seen {
				t.Error("HasUpvoted(creator): got true, want false")
			}
			if n, _ := tx.UserUpvotes(ctx, voter); n != 1 {
				t.Errorf("UserUpvotes: got %d, want 1", n)
			}
			return nil
		})
	})

	t.Run("events are sequenced and paged", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		actor, to := uuid.New(), uuid.New()
		qid := int64(3)
		_ = s.WithTx(ctx, func(tx Tx) error {
			for i := 0; i < 5; i++ {
				e := &models.Event{Kind: models.EventTransfer, Actor: actor, To: &to, Amount: int64(i)}
				if i == 4 {
					e = &models.Event{Kind: models.EventQuestionPosted, Actor: actor, QuestionID: &qid}
				}
				if err := tx.AppendEvent(ctx, e); err != nil {
					return err
				}
				if e.Seq != int64(i) {
					t.Errorf("event %d: got seq %d", i, e.Seq)
				}
			}
			return nil
		})

		_ = s.View(ctx, func(tx Tx) error {
			page, err := tx.ListEvents(ctx, 1, 2)
			if err != nil {
				t.Fatalf("ListEvents: %v", err)
			}
			if len(page) != 2 || page[0].Seq != 2 || page[1].Seq != 3 {
				t.Errorf("page: got %+v", page)
			}
			if page[0].From != nil || page[0].To == nil || *page[0].To != to || page[0].Amount != 2 {
				t.Errorf("event 2: got %+v", page[0])
			}
			last, _ := tx.ListEvents(ctx, 3, 10)
			if len(last) != 1 || last[0].QuestionID == nil || *last[0].QuestionID != 3 || last[0].To != nil {
				t.Errorf("event 4: got %+v", last)
			}
			if none, _ := tx.ListEvents(ctx, 4, 10); len(none) != 0 {
				t.Errorf("after last: got %d, want 0", len(none))
			}
			return nil
		})
	})

	t.Run("event cursor edges", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		_ = s.WithTx(ctx, func(tx Tx) error {
			for i := 0; i < 3; i++ {
				if err := tx.AppendEvent(ctx, &models.Event{Kind: models.EventTransfer, Actor: uuid.New()}); err != nil {
					return err
				}
			}
			return nil
		})

		cases := []struct {
			name     string
			after    int64
			limit    int
			wantSeqs []int64
		}{
			{"max cursor", math.MaxInt64, 10, nil},
			{"min cursor", math.MinInt64, 10, []int64{0, 1, 2}},
			{"max limit", 1, math.MaxInt, []int64{2}},
			{"max limit from start", -1, math.MaxInt, []int64{0, 1, 2}},
			{"zero limit", -1, 0, nil},
			{"negative limit", -1, -5, nil},
		}
		_ = s.View(ctx, func(tx Tx) error {
			for _, tc := range cases {
				page, err := tx.ListEvents(ctx, tc.after, tc.limit)
				if err != nil {
					t.Errorf("%s: ListEvents: %v", tc.name, err)
					continue
				}
				if len(page) != len(tc.wantSeqs) {
					t.Errorf("%s: got %d events, want %d", tc.name, len(page), len(tc.wantSeqs))
					continue
				}
				for i, e := range page {
					if e.Seq != tc.wantSeqs[i] {
						t.Errorf("%s: event %d: got seq %d, want %d", tc.name, i, e.Seq, tc.wantSeqs[i])
					}
				}
			}
			return nil
		})
	})
}
