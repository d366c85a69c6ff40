package services

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"github.com/goflow/backend/internal/forum"
	"github.com/goflow/backend/internal/ledger"
	"github.com/goflow/backend/internal/metrics"
	"github.com/goflow/backend/internal/models"
	"github.com/goflow/backend/internal/repository"
)

// Failure kinds reported to callers.
const (
	KindQuestionNotFound      = "QuestionNotFound"
	KindAnswerNotFound        = "AnswerNotFound"
	KindAlreadyUpvoted        = "AlreadyUpvoted"
	KindInsufficientBalance   = "InsufficientBalance"
	KindInsufficientAllowance = "InsufficientAllowance"
	KindInvalidAmount         = "InvalidAmount"
	KindSupplyOverflow        = "SupplyOverflow"
)

// FailureKind names the caller-facing failure kind of err, or "" when err is
// not a ledger precondition failure.
func FailureKind(err error) string {
	switch {
	case errors.Is(err, forum.ErrQuestionNotFound):
		return KindQuestionNotFound
	case errors.Is(err, forum.ErrAnswerNotFound):
		return KindAnswerNotFound
	case errors.Is(err, forum.ErrAlreadyUpvoted):
		return KindAlreadyUpvoted
	case errors.Is(err, ledger.ErrInsufficientBalance):
		return KindInsufficientBalance
	case errors.Is(err, ledger.ErrInsufficientAllowance):
		return KindInsufficientAllowance
	case errors.Is(err, ledger.ErrInvalidAmount):
		return KindInvalidAmount
	case errors.Is(err, ledger.ErrSupplyOverflow):
		return KindSupplyOverflow
	default:
		return ""
	}
}

// TokenInfo is the token's metadata and current supply.
type TokenInfo struct {
	Name        string `json:"name"`
	Symbol      string `json:"symbol"`
	Decimals    int    `json:"decimals"`
	TotalSupply int64  `json:"total_supply"`
}

// Platform is the single entry point to both ledgers. Each mutating call is
// one Store.WithTx; each read is one Store.View.
type Platform struct {
	store   repository.Store
	token   ledger.Service
	forum   forum.Service
	tipping *TippingService
	metrics *metrics.Metrics
	log     *slog.Logger
}

func NewPlatform(store repository.Store, token ledger.Service, forumSvc forum.Service, m *metrics.Metrics, log *slog.Logger) *Platform {
	if log == nil {
		log = slog.Default()
	}
	if m == nil {
		m = metrics.New(nil)
	}
	return &Platform{
		store:   store,
		token:   token,
		forum:   forumSvc,
		tipping: NewTippingService(token, forumSvc),
		metrics: m,
		log:     log,
	}
}

// observe records the outcome of a mutating call.
func (p *Platform) observe(op string, err error, attrs ...any) {
	if err == nil {
		p.metrics.Operations.WithLabelValues(op, "ok").Inc()
		p.log.Debug(op+" committed", attrs...)
		return
	}
	kind := FailureKind(err)
	if kind == "" {
		p.metrics.Operations.WithLabelValues(op, "error").Inc()
		p.log.Error(op+" failed", append(attrs, "error", err)...)
		return
	}
	p.metrics.Operations.WithLabelValues(op, kind).Inc()
	p.log.Warn(op+" rejected", append(attrs, "kind", kind)...)
}

// --- forum ---

func (p *Platform) PostQuestion(ctx context.Context, creator uuid.UUID, message string) (int64, error) {
	var id int64
	err := p.store.WithTx(ctx, func(tx repository.Tx) error {
		var err error
		id, err = p.forum.PostQuestion(ctx, tx, creator, message)
		return err
	})
	p.observe("post_question", err, "creator", creator, "question_id", id)
	if err != nil {
		return 0, err
	}
	return id, nil
}

func (p *Platform) PostAnswer(ctx context.Context, creator uuid.UUID, questionID int64, message string) (int64, error) {
	var id int64
	err := p.store.WithTx(ctx, func(tx repository.Tx) error {
		var err error
		id, err = p.forum.PostAnswer(ctx, tx, creator, questionID, message)
		return err
	})
	p.observe("post_answer", err, "creator", creator, "question_id", questionID, "answer_id", id)
	if err != nil {
		return 0, err
	}
	return id, nil
}

func (p *Platform) UpvoteAnswer(ctx context.Context, voter uuid.UUID, answerID int64) (*TipReceipt, error) {
	var receipt *TipReceipt
	err := p.store.WithTx(ctx, func(tx repository.Tx) error {
		var err error
		receipt, err = p.tipping.UpvoteAnswer(ctx, tx, voter, answerID)
		return err
	})
	p.observe("upvote_answer", err, "voter", voter, "answer_id", answerID)
	if err != nil {
		return nil, err
	}
	p.metrics.Upvotes.Inc()
	dest := "creator"
	if receipt.RoutedToSink {
		dest = "sink"
	}
	p.metrics.Tips.WithLabelValues(dest).Inc()
	return receipt, nil
}

func (p *Platform) GetUpvotes(ctx context.Context, answerID int64) (int64, error) {
	var n int64
	err := p.store.View(ctx, func(tx repository.Tx) error {
		var err error
		n, err = p.forum.GetUpvotes(ctx, tx, answerID)
		return err
	})
	return n, err
}

func (p *Platform) Question(ctx context.Context, id int64) (*models.Question, error) {
	var q *models.Question
	err := p.store.View(ctx, func(tx repository.Tx) error {
		var err error
		q, err = p.forum.Question(ctx, tx, id)
		return err
	})
	return q, err
}

func (p *Platform) Questions(ctx context.Context) ([]*models.Question, error) {
	var list []*models.Question
	err := p.store.View(ctx, func(tx repository.Tx) error {
		var err error
		list, err = p.forum.Questions(ctx, tx)
		return err
	})
	return list, err
}

func (p *Platform) Answer(ctx context.Context, id int64) (*models.Answer, error) {
	var a *models.Answer
	err := p.store.View(ctx, func(tx repository.Tx) error {
		var err error
		a, err = p.forum.Answer(ctx, tx, id)
		return err
	})
	return a, err
}

func (p *Platform) Answers(ctx context.Context, questionID int64) ([]*models.Answer, error) {
	var list []*models.Answer
	err := p.store.View(ctx, func(tx repository.Tx) error {
		var err error
		list, err = p.forum.Answers(ctx, tx, questionID)
		return err
	})
	return list, err
}

func (p *Platform) UserUpvotes(ctx context.Context, voter uuid.UUID) (int64, error) {
	var n int64
	err := p.store.View(ctx, func(tx repository.Tx) error {
		var err error
		n, err = p.forum.UserUpvotes(ctx, tx, voter)
		return err
	})
	return n, err
}

func (p *Platform) HasUpvoted(ctx context.Context, voter uuid.UUID, answerID int64) (bool, error) {
	var seen bool
	err := p.store.View(ctx, func(tx repository.Tx) error {
		var err error
		seen, err = p.forum.HasUpvoted(ctx, tx, voter, answerID)
		return err
	})
	return seen, err
}

// --- token ---

func (p *Platform) Mint(ctx context.Context, to uuid.UUID, amount int64) error {
	err := p.store.WithTx(ctx, func(tx repository.Tx) error {
		return p.token.Mint(ctx, tx, to, amount)
	})
	p.observe("mint", err, "to", to, "amount", amount)
	if err == nil {
		p.metrics.Minted.Add(float64(amount))
	}
	return err
}

func (p *Platform) Transfer(ctx context.Context, from, to uuid.UUID, amount int64) error {
	err := p.store.WithTx(ctx, func(tx repository.Tx) error {
		return p.token.Transfer(ctx, tx, from, to, amount)
	})
	p.observe("transfer", err, "from", from, "to", to, "amount", amount)
	return err
}

func (p *Platform) Approve(ctx context.Context, owner, spender uuid.UUID, amount int64) error {
	err := p.store.WithTx(ctx, func(tx repository.Tx) error {
		return p.token.Approve(ctx, tx, owner, spender, amount)
	})
	p.observe("approve", err, "owner", owner, "spender", spender, "amount", amount)
	return err
}

func (p *Platform) TransferFrom(ctx context.Context, spender, owner, to uuid.UUID, amount int64) error {
	err := p.store.WithTx(ctx, func(tx repository.Tx) error {
		return p.token.TransferFrom(ctx, tx, spender, owner, to, amount)
	})
	p.observe("transfer_from", err, "spender", spender, "owner", owner, "to", to, "amount", amount)
	return err
}

func (p *Platform) BalanceOf(ctx context.Context, account uuid.UUID) (int64, error) {
	var balance int64
	err := p.store.View(ctx, func(tx repository.Tx) error {
		var err error
		balance, err = p.token.BalanceOf(ctx, tx, account)
		return err
	})
	return balance, err
}

func (p *Platform) Allowance(ctx context.Context, owner, spender uuid.UUID) (int64, error) {
	var amount int64
	err := p.store.View(ctx, func(tx repository.Tx) error {
		var err error
		amount, err = p.token.Allowance(ctx, tx, owner, spender)
		return err
	})
	return amount, err
}

func (p *Platform) TokenInfo(ctx context.Context) (*TokenInfo, error) {
	info := &TokenInfo{Name: ledger.Name, Symbol: ledger.Symbol, Decimals: ledger.Decimals}
	err := p.store.View(ctx, func(tx repository.Tx) error {
		var err error
		info.TotalSupply, err = p.token.TotalSupply(ctx, tx)
		return err
	})
	if err != nil {
		return nil, err
	}
	return info, nil
}

// Events returns up to limit ledger events with Seq > afterSeq.
func (p *Platform) Events(ctx context.Context, afterSeq int64, limit int) ([]*models.Event, error) {
	var list []*models.Event
	err := p.store.View(ctx, func(tx repository.Tx) error {
		var err error
		list, err = tx.ListEvents(ctx, afterSeq, limit)
		return err
	})
	return list, err
}
