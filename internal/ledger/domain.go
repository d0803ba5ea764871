package ledger

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Entry is one immutable stock ledger record. Entries are created exactly
// once and never updated or deleted; the full set for an item is the durable
// source of truth for its stock level.
type Entry struct {
	ID                    int64           `json:"id"`
	TeamID                int64           `json:"team_id"`
	ItemID                int64           `json:"item_id"`
	UserID                int64           `json:"user_id"`
	Type                  TransactionType `json:"transaction_type"`
	Quantity              decimal.Decimal `json:"quantity"`
	SourceLocationID      *int64          `json:"source_location_id,omitempty"`
	DestinationLocationID *int64          `json:"destination_location_id,omitempty"`
	Notes                 string          `json:"notes,omitempty"`
	CreatedAt             time.Time       `json:"created_at"`
}

// CreateEntryInput carries everything needed to post one ledger entry.
type CreateEntryInput struct {
	TeamID                int64
	ItemID                int64
	UserID                int64
	Type                  TransactionType
	Quantity              decimal.Decimal
	QuantitySet           bool
	QuantityInvalid       bool
	SourceLocationID      *int64
	DestinationLocationID *int64
	Notes                 string
	IdempotencyKey        string
}

// Violation codes used across the validation taxonomy.
const (
	CodeUnknownTransactionType = "unknown_transaction_type"
	CodeMissingField           = "missing_field"
	CodeInvalidNumber          = "invalid_number"
	CodeLocationRequirement    = "location_requirement_violation"
	CodeQuantitySign           = "quantity_sign_violation"
	CodeInsufficientStock      = "insufficient_stock"
	CodeTenantMismatch         = "tenant_mismatch"
)

// Violation is one field-level rule failure.
type Violation struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ValidationErrors aggregates every violation found in a single creation
// attempt. Callers receive the full set, not just the first failure.
type ValidationErrors []Violation

func (v ValidationErrors) Error() string {
	if len(v) == 0 {
		return "ledger: validation failed"
	}
	msgs := make([]string, 0, len(v))
	for _, violation := range v {
		msgs = append(msgs, violation.Field+": "+violation.Message)
	}
	return "ledger: " + strings.Join(msgs, "; ")
}

// Has reports whether any violation carries the given code.
func (v ValidationErrors) Has(code string) bool {
	for _, violation := range v {
		if violation.Code == code {
			return true
		}
	}
	return false
}

// ErrItemNotFound indicates the referenced item does not exist.
var ErrItemNotFound = errors.New("ledger: item not found")

// ListFilter narrows a transaction listing.
type ListFilter struct {
	TeamID int64
	ItemID int64
	Type   TransactionType
	Limit  int
	Offset int
}
