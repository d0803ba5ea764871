package ledger

import "context"

// Event names emitted by the ledger. Matching against webhook subscriptions
// is plain string comparison; the ledger does not police the namespace.
const (
	EventTransactionCreated = "transaction.created"
	EventStockUpdated       = "stock.updated"
)

// Event is the record handed to the notification sink after a successful post.
type Event struct {
	Name    string         `json:"event"`
	TeamID  int64          `json:"team_id"`
	Payload map[string]any `json:"payload"`
}

// EventPublisher hands completed entries to the notification sink. Publishing
// is best-effort: a failure never rolls back the persisted entry.
type EventPublisher interface {
	Publish(ctx context.Context, event Event) error
}
