package execution

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/riverqueue/river"

	"github.com/goflow/backend/internal/models"
	"github.com/goflow/backend/internal/repository"
)

// DeliverEventArgs carries one committed ledger event to the webhook.
type DeliverEventArgs struct {
	WebhookURL string       `json:"webhook_url"`
	Event      models.Event `json:"event"`
}

func (DeliverEventArgs) Kind() string { return "deliver_ledger_event" }

// InsertDeliverEventTxFunc enqueues a delivery job inside tx.
type InsertDeliverEventTxFunc func(ctx context.Context, tx pgx.Tx, args DeliverEventArgs) error

// NewEventHook returns a store hook that enqueues a delivery for every
// appended event. The job commits or rolls back with the event itself.
func NewEventHook(webhookURL string, insert InsertDeliverEventTxFunc) repository.EventHook {
	return func(ctx context.Context, tx pgx.Tx, e *models.Event) error {
		return insert(ctx, tx, DeliverEventArgs{WebhookURL: webhookURL, Event: *e})
	}
}

type DeliverEventWorker struct {
	river.WorkerDefaults[DeliverEventArgs]
	httpClient *http.Client
	log        *slog.Logger
}

func NewDeliverEventWorker(log *slog.Logger) *DeliverEventWorker {
	if log == nil {
		log = slog.Default()
	}
	return &DeliverEventWorker{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		log:        log,
	}
}

// Work POSTs the event. Any error makes River retry the job with backoff.
func (w *DeliverEventWorker) Work(ctx context.Context, job *river.Job[DeliverEventArgs]) error {
	args := job.Args

	payload, err := json.Marshal(args.Event)
	if err != nil {
		return fmt.Errorf("encode event %d: %w", args.Event.Seq, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, args.WebhookURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Goflow-Event", args.Event.Kind)
	if job.JobRow != nil {
		req.Header.Set("X-Goflow-Delivery-Attempt", strconv.Itoa(job.Attempt))
	}

	resp, err := w.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("network error calling event webhook: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("event webhook returned status %d for seq %d", resp.StatusCode, args.Event.Seq)
	}
	w.log.Debug("ledger event delivered", "seq", args.Event.Seq, "kind", args.Event.Kind)
	return nil
}
