package repository

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/goflow/backend/internal/models"
)

type allowanceKey struct {
	owner   uuid.UUID
	spender uuid.UUID
}

type upvoteKey struct {
	voter    uuid.UUID
	answerID int64
}

// MemoryStore keeps all ledger state in process. A single RWMutex serializes
// writers; readers share the lock and never observe a half-applied WithTx.
type MemoryStore struct {
	mu sync.RWMutex

	balances   map[uuid.UUID]int64
	allowances map[allowanceKey]int64
	supply     int64

	questions         []*models.Question
	answers           []*models.Answer
	answersByQuestion map[int64][]int64
	upvotes           map[upvoteKey]struct{}
	tallies           map[uuid.UUID]int64

	events []*models.Event

	now func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		balances:          make(map[uuid.UUID]int64),
		allowances:        make(map[allowanceKey]int64),
		answersByQuestion: make(map[int64][]int64),
		upvotes:           make(map[upvoteKey]struct{}),
		tallies:           make(map[uuid.UUID]int64),
		now:               time.Now,
	}
}

var _ Store = (*MemoryStore)(nil)

func (s *MemoryStore) WithTx(ctx context.Context, fn func(tx Tx) error) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &memTx{s: s}
	defer func() {
		if p := recover(); p != nil {
			tx.rollback()
			panic(p)
		}
		if err != nil {
			tx.rollback()
		}
	}()
	return fn(tx)
}

func (s *MemoryStore) View(ctx context.Context, fn func(tx Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return fn(&memTx{s: s, readOnly: true})
}

// memTx applies writes in place and records how to reverse each one.
type memTx struct {
	s        *MemoryStore
	readOnly bool
	undo     []func()
}

func (t *memTx) rollback() {
	for i := len(t.undo) - 1; i >= 0; i-- {
		t.undo[i]()
	}
	t.undo = nil
}

func (t *memTx) writable() error {
	if t.readOnly {
		return ErrReadOnly
	}
	return nil
}

// --- accounts ---

func (t *memTx) Balance(_ context.Context, id uuid.UUID) (int64, error) {
	return t.s.balances[id], nil
}

func (t *memTx) SetBalance(_ context.Context, id uuid.UUID, balance int64) error {
	if err := t.writable(); err != nil {
		return err
	}
	if balance < 0 {
		return fmt.Errorf("negative balance %d for %s", balance, id)
	}
	prev, had := t.s.balances[id]
	t.s.balances[id] = balance
	t.undo = append(t.undo, func() {
		if had {
			t.s.balances[id] = prev
		} else {
			delete(t.s.balances, id)
		}
	})
	return nil
}

func (t *memTx) Allowance(_ context.Context, owner, spender uuid.UUID) (int64, error) {
	return t.s.allowances[allowanceKey{owner, spender}], nil
}

func (t *memTx) SetAllowance(_ context.Context, owner, spender uuid.UUID, amount int64) error {
	if err := t.writable(); err != nil {
		return err
	}
	if amount < 0 {
		return fmt.Errorf("negative allowance %d", amount)
	}
	k := allowanceKey{owner, spender}
	prev, had := t.s.allowances[k]
	t.s.allowances[k] = amount
	t.undo = append(t.undo, func() {
		if had {
			t.s.allowances[k] = prev
		} else {
			delete(t.s.allowances, k)
		}
	})
	return nil
}

func (t *memTx) TotalSupply(context.Context) (int64, error) {
	return t.s.supply, nil
}

func (t *memTx) SetTotalSupply(_ context.Context, supply int64) error {
	if err := t.writable(); err != nil {
		return err
	}
	prev := t.s.supply
	t.s.supply = supply
	t.undo = append(t.undo, func() { t.s.supply = prev })
	return nil
}

// --- questions and answers ---

func (t *memTx) InsertQuestion(_ context.Context, q *models.Question) error {
	if err := t.writable(); err != nil {
		return err
	}
	q.ID = int64(len(t.s.questions))
	q.CreatedAt = t.s.now().UTC()
	cp := *q
	t.s.questions = append(t.s.questions, &cp)
	t.undo = append(t.undo, func() { t.s.questions = t.s.questions[:len(t.s.questions)-1] })
	return nil
}

func (t *memTx) GetQuestion(_ context.Context, id int64) (*models.Question, error) {
	if id < 0 || id >= int64(len(t.s.questions)) {
		return nil, ErrNotFound
	}
	cp := *t.s.questions[id]
	return &cp, nil
}

func (t *memTx) ListQuestions(context.Context) ([]*models.Question, error) {
	out := make([]*models.Question, len(t.s.questions))
	for i, q := range t.s.questions {
		cp := *q
		out[i] = &cp
	}
	return out, nil
}

func (t *memTx) InsertAnswer(_ context.Context, a *models.Answer) error {
	if err := t.writable(); err != nil {
		return err
	}
	if a.QuestionID < 0 || a.QuestionID >= int64(len(t.s.questions)) {
		return ErrNotFound
	}
	a.ID = int64(len(t.s.answers))
	a.CreatedAt = t.s.now().UTC()
	cp := *a
	t.s.answers = append(t.s.answers, &cp)
	qid := a.QuestionID
	t.s.answersByQuestion[qid] = append(t.s.answersByQuestion[qid], a.ID)
	t.undo = append(t.undo, func() {
		t.s.answers = t.s.answers[:len(t.s.answers)-1]
		ids := t.s.answersByQuestion[qid]
		if len(ids) == 1 {
			delete(t.s.answersByQuestion, qid)
		} else {
			t.s.answersByQuestion[qid] = ids[:len(ids)-1]
		}
	})
	return nil
}

func (t *memTx) GetAnswer(_ context.Context, id int64) (*models.Answer, error) {
	if id < 0 || id >= int64(len(t.s.answers)) {
		return nil, ErrNotFound
	}
	cp := *t.s.answers[id]
	return &cp, nil
}

func (t *memTx) ListAnswersByQuestion(_ context.Context, questionID int64) ([]*models.Answer, error) {
	ids := t.s.answersByQuestion[questionID]
	out := make([]*models.Answer, len(ids))
	for i, id := range ids {
		cp := *t.s.answers[id]
		out[i] = &cp
	}
	return out, nil
}

func (t *memTx) IncrementUpvotes(_ context.Context, answerID int64) (int64, error) {
	if err := t.writable(); err != nil {
		return 0, err
	}
	if answerID < 0 || answerID >= int64(len(t.s.answers)) {
		return 0, ErrNotFound
	}
	a := t.s.answers[answerID]
	a.Upvotes++
	t.undo = append(t.undo, func() { a.Upvotes-- })
	return a.Upvotes, nil
}

// --- upvotes ---

func (t *memTx) HasUpvoted(_ context.Context, voter uuid.UUID, answerID int64) (bool, error) {
	_, ok := t.s.upvotes[upvoteKey{voter, answerID}]
	return ok, nil
}

func (t *memTx) InsertUpvote(_ context.Context, voter uuid.UUID, answerID int64) error {
	if err := t.writable(); err != nil {
		return err
	}
	k := upvoteKey{voter, answerID}
	if _, ok := t.s.upvotes[k]; ok {
		return ErrDuplicate
	}
	t.s.upvotes[k] = struct{}{}
	t.undo = append(t.undo, func() { delete(t.s.upvotes, k) })
	return nil
}

func (t *memTx) IncrementUserUpvotes(_ context.Context, voter uuid.UUID) (int64, error) {
	if err := t.writable(); err != nil {
		return 0, err
	}
	prev, had := t.s.tallies[voter]
	t.s.tallies[voter] = prev + 1
	t.undo = append(t.undo, func() {
		if had {
			t.s.tallies[voter] = prev
		} else {
			delete(t.s.tallies, voter)
		}
	})
	return prev + 1, nil
}

func (t *memTx) UserUpvotes(_ context.Context, voter uuid.UUID) (int64, error) {
	return t.s.tallies[voter], nil
}

// --- events ---

func (t *memTx) AppendEvent(_ context.Context, e *models.Event) error {
	if err := t.writable(); err != nil {
		return err
	}
	e.Seq = int64(len(t.s.events))
	e.CreatedAt = t.s.now().UTC()
	cp := *e
	t.s.events = append(t.s.events, &cp)
	t.undo = append(t.undo, func() { t.s.events = t.s.events[:len(t.s.events)-1] })
	return nil
}

func (t *memTx) ListEvents(_ context.Context, afterSeq int64, limit int) ([]*models.Event, error) {
	n := int64(len(t.s.events))
	if afterSeq >= n-1 || limit <= 0 {
		return []*models.Event{}, nil
	}
	start := max(afterSeq+1, 0)
	end := start + min(int64(limit), n-start)
	out := make([]*models.Event, 0, end-start)
	for _, e := range t.s.events[start:end] {
		cp := *e
		out = append(out, &cp)
	}
	return out, nil
}
