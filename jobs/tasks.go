package jobs

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/stockroom-app/stockroom/internal/jobs"
	"github.com/stockroom-app/stockroom/internal/shared"
	"github.com/stockroom-app/stockroom/internal/webhooks"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskTypeWebhookDeliver fans a ledger event out to subscribed endpoints.
	TaskTypeWebhookDeliver = "webhook:deliver"
	// TaskTypeIdempotencyCleanup prunes expired idempotency keys.
	TaskTypeIdempotencyCleanup = "idempotency:cleanup"
)

// WebhookDeliverPayload identifies the event a delivery task must fan out.
type WebhookDeliverPayload struct {
	TeamID  int64          `json:"team_id"`
	Event   string         `json:"event"`
	Payload map[string]any `json:"payload"`
}

// NewWebhookDeliverTask constructs an Asynq task for one event fan-out.
func NewWebhookDeliverTask(payload WebhookDeliverPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeWebhookDeliver, data,
		asynq.Queue(QueueDefault), asynq.MaxRetry(8)), nil
}

// NewWebhookDeliverHandler builds the handler processing delivery tasks.
// Returning an error re-queues the task with Asynq's backoff.
func NewWebhookDeliverHandler(dispatcher *webhooks.Dispatcher, metrics *jobmetrics.Metrics) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		var payload WebhookDeliverPayload
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
		tracker := metrics.Track(TaskTypeWebhookDeliver)
		err := dispatcher.Dispatch(ctx, payload.TeamID, payload.Event, payload.Payload)
		status := "success"
		if err != nil {
			status = "failure"
		}
		metrics.AddDelivery(payload.Event, status)
		return tracker.End(err)
	}
}

// IdempotencyCleanupPayload carries the retention window.
type IdempotencyCleanupPayload struct {
	Retention time.Duration `json:"retention"`
}

// NewIdempotencyCleanupTask constructs the periodic cleanup task.
func NewIdempotencyCleanupTask(retention time.Duration) (*asynq.Task, error) {
	data, err := json.Marshal(IdempotencyCleanupPayload{Retention: retention})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeIdempotencyCleanup, data, asynq.Queue(QueueDefault)), nil
}

// NewIdempotencyCleanupHandler builds the handler pruning old keys.
func NewIdempotencyCleanupHandler(store *shared.IdempotencyStore, metrics *jobmetrics.Metrics, logger *slog.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		var payload IdempotencyCleanupPayload
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
		if payload.Retention <= 0 {
			payload.Retention = 24 * time.Hour
		}
		tracker := metrics.Track(TaskTypeIdempotencyCleanup)
		if err := store.Cleanup(ctx, payload.Retention); err != nil {
			return tracker.End(err)
		}
		if logger != nil {
			logger.Info("idempotency keys pruned", slog.Duration("retention", payload.Retention))
		}
		return tracker.End(nil)
	}
}
