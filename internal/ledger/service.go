package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/stockroom-app/stockroom/internal/shared"
)

// AuditPort abstracts audit logging functionality.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service coordinates ledger posting and aggregation.
type Service struct {
	repo        RepositoryPort
	audit       AuditPort
	idempotency *shared.IdempotencyStore
	cache       *StockCache
	publisher   EventPublisher
}

// NewService builds Service. Audit, idempotency, cache and publisher are
// optional collaborators.
func NewService(repo RepositoryPort, audit AuditPort, idem *shared.IdempotencyStore, cache *StockCache, publisher EventPublisher) *Service {
	return &Service{repo: repo, audit: audit, idempotency: idem, cache: cache, publisher: publisher}
}

// CreateEntry validates and persists one immutable ledger entry. Every
// field-level rule is evaluated and all violations come back together as
// ValidationErrors. The availability check runs inside the same serialized
// storage transaction as the insert.
func (s *Service) CreateEntry(ctx context.Context, input CreateEntryInput) (Entry, error) {
	policy, err := PolicyFor(input.Type)
	if err != nil {
		var unknown UnknownTransactionTypeError
		if errors.As(err, &unknown) {
			return Entry{}, ValidationErrors{{
				Field:   "transaction_type",
				Code:    CodeUnknownTransactionType,
				Message: fmt.Sprintf("transaction type %q is not recognised", string(input.Type)),
			}}
		}
		return Entry{}, err
	}

	item, err := s.repo.GetItem(ctx, input.ItemID)
	if err != nil {
		return Entry{}, err
	}

	violations := validateEntry(policy, item, input)
	if len(violations) > 0 {
		return Entry{}, violations
	}

	insertedKey := false
	if s.idempotency != nil && input.IdempotencyKey != "" {
		if err := s.idempotency.CheckAndInsert(ctx, input.IdempotencyKey, "ledger"); err != nil {
			return Entry{}, err
		}
		insertedKey = true
	}

	var entry Entry
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		locked, err := tx.LockItem(ctx, input.ItemID)
		if err != nil {
			return err
		}
		if locked.TeamID != input.TeamID {
			return ValidationErrors{tenantViolation(input.ItemID)}
		}

		if policy.ChecksAvailability {
			if err := checkAvailability(ctx, tx, policy, locked, input); err != nil {
				return err
			}
		}

		entry, err = tx.InsertEntry(ctx, Entry{
			TeamID:                input.TeamID,
			ItemID:                input.ItemID,
			UserID:                input.UserID,
			Type:                  input.Type,
			Quantity:              input.Quantity,
			SourceLocationID:      input.SourceLocationID,
			DestinationLocationID: input.DestinationLocationID,
			Notes:                 input.Notes,
		})
		return err
	})
	if err != nil {
		if insertedKey {
			_ = s.idempotency.Delete(ctx, input.IdempotencyKey)
		}
		return Entry{}, err
	}

	// The entry is committed; everything below is best-effort and must not
	// undo it.
	_ = s.cache.Invalidate(ctx, input.ItemID)
	if s.audit != nil {
		_ = s.audit.Record(ctx, shared.AuditLog{
			ActorID:  input.UserID,
			TeamID:   input.TeamID,
			Action:   fmt.Sprintf("ledger:%s", input.Type),
			Entity:   "stock_transaction",
			EntityID: fmt.Sprintf("%d", entry.ID),
			Meta: map[string]any{
				"item_id":  input.ItemID,
				"quantity": input.Quantity.String(),
				"notes":    input.Notes,
			},
		})
	}
	s.publish(ctx, entry)

	return entry, nil
}

// CurrentStock derives the item's stock level: initial quantity plus the
// signed sum of every ledger entry.
func (s *Service) CurrentStock(ctx context.Context, teamID, itemID int64) (decimal.Decimal, error) {
	item, err := s.repo.GetItem(ctx, itemID)
	if err != nil {
		return decimal.Zero, err
	}
	if item.TeamID != teamID {
		return decimal.Zero, ErrItemNotFound
	}
	return s.cache.Fetch(ctx, itemStockKey(itemID), func(ctx context.Context) (decimal.Decimal, error) {
		sum, err := s.repo.ItemBalance(ctx, itemID)
		if err != nil {
			return decimal.Zero, err
		}
		return item.InitialQuantity.Add(sum), nil
	})
}

// LocationStock derives the item's stock at a single location.
func (s *Service) LocationStock(ctx context.Context, teamID, itemID, locationID int64) (decimal.Decimal, error) {
	item, err := s.repo.GetItem(ctx, itemID)
	if err != nil {
		return decimal.Zero, err
	}
	if item.TeamID != teamID {
		return decimal.Zero, ErrItemNotFound
	}
	return s.cache.Fetch(ctx, locationStockKey(itemID, locationID), func(ctx context.Context) (decimal.Decimal, error) {
		return s.repo.LocationBalance(ctx, itemID, locationID)
	})
}

// Get loads one entry scoped to the team.
func (s *Service) Get(ctx context.Context, teamID, entryID int64) (Entry, error) {
	entry, err := s.repo.GetEntry(ctx, teamID, entryID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Entry{}, shared.ErrNotFound
		}
		return Entry{}, err
	}
	return entry, nil
}

// List pages through a team's entries, newest first.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]Entry, int, error) {
	if filter.Type != "" {
		if _, err := PolicyFor(filter.Type); err != nil {
			return nil, 0, ValidationErrors{{
				Field:   "transaction_type",
				Code:    CodeUnknownTransactionType,
				Message: fmt.Sprintf("transaction type %q is not recognised", string(filter.Type)),
			}}
		}
	}
	if filter.Limit <= 0 {
		filter.Limit = 50
	}
	return s.repo.ListEntries(ctx, filter)
}

func (s *Service) publish(ctx context.Context, entry Entry) {
	if s.publisher == nil {
		return
	}
	payload := map[string]any{
		"id":               entry.ID,
		"item_id":          entry.ItemID,
		"transaction_type": string(entry.Type),
		"quantity":         entry.Quantity.String(),
		"notes":            entry.Notes,
		"created_at":       entry.CreatedAt,
	}
	if entry.SourceLocationID != nil {
		payload["source_location_id"] = *entry.SourceLocationID
	}
	if entry.DestinationLocationID != nil {
		payload["destination_location_id"] = *entry.DestinationLocationID
	}
	for _, name := range []string{EventTransactionCreated, EventStockUpdated} {
		_ = s.publisher.Publish(ctx, Event{Name: name, TeamID: entry.TeamID, Payload: payload})
	}
}

func validateEntry(policy Policy, item ItemRef, input CreateEntryInput) ValidationErrors {
	var violations ValidationErrors

	switch {
	case input.QuantityInvalid:
		violations = append(violations, Violation{
			Field:   "quantity",
			Code:    CodeInvalidNumber,
			Message: "quantity must be a valid number",
		})
	case !input.QuantitySet:
		violations = append(violations, Violation{
			Field:   "quantity",
			Code:    CodeMissingField,
			Message: "quantity is required",
		})
	}

	violations = append(violations, locationViolations(policy, input)...)

	if input.QuantitySet {
		switch {
		case policy.QuantityShouldBePositive() && !input.Quantity.IsPositive():
			violations = append(violations, Violation{
				Field:   "quantity",
				Code:    CodeQuantitySign,
				Message: fmt.Sprintf("quantity must be greater than zero for %s", policy.Type),
			})
		case policy.QuantityShouldBeNegative() && !input.Quantity.IsNegative():
			violations = append(violations, Violation{
				Field:   "quantity",
				Code:    CodeQuantitySign,
				Message: fmt.Sprintf("quantity must be less than zero for %s", policy.Type),
			})
		case policy.QuantityIsAdjustment() && input.Quantity.IsZero():
			violations = append(violations, Violation{
				Field:   "quantity",
				Code:    CodeInvalidNumber,
				Message: "quantity must be non-zero",
			})
		}
	}

	if item.TeamID != input.TeamID {
		violations = append(violations, tenantViolation(input.ItemID))
	}

	return violations
}

func locationViolations(policy Policy, input CreateEntryInput) ValidationErrors {
	var violations ValidationErrors

	check := func(field string, required bool, value *int64) {
		switch {
		case required && value == nil:
			violations = append(violations, Violation{
				Field:   field,
				Code:    CodeLocationRequirement,
				Message: fmt.Sprintf("%s is required for %s", field, policy.Type),
			})
		case !required && value != nil:
			violations = append(violations, Violation{
				Field:   field,
				Code:    CodeLocationRequirement,
				Message: fmt.Sprintf("%s must not be set for %s", field, policy.Type),
			})
		}
	}

	check("source_location_id", policy.RequiresSource(), input.SourceLocationID)
	check("destination_location_id", policy.RequiresDestination(), input.DestinationLocationID)
	return violations
}

func tenantViolation(itemID int64) Violation {
	return Violation{
		Field:   "item_id",
		Code:    CodeTenantMismatch,
		Message: fmt.Sprintf("item %d does not belong to this team", itemID),
	}
}

// checkAvailability rejects withdrawals that would drive the relevant balance
// negative. Stock-out checks the source location's balance; move checks the
// item's overall level.
func checkAvailability(ctx context.Context, tx TxRepository, policy Policy, item ItemRef, input CreateEntryInput) error {
	switch policy.Type {
	case TransactionTypeStockOut:
		balance, err := tx.LocationBalance(ctx, item.ID, *input.SourceLocationID)
		if err != nil {
			return err
		}
		// Quantity is negative here; adding it applies the withdrawal.
		if balance.Add(input.Quantity).IsNegative() {
			return insufficientStock(balance, input.Quantity.Abs())
		}
	case TransactionTypeMove:
		sum, err := tx.ItemBalance(ctx, item.ID)
		if err != nil {
			return err
		}
		current := item.InitialQuantity.Add(sum)
		if current.Sub(input.Quantity).IsNegative() {
			return insufficientStock(current, input.Quantity)
		}
	}
	return nil
}

func insufficientStock(available, requested decimal.Decimal) ValidationErrors {
	return ValidationErrors{{
		Field:   "quantity",
		Code:    CodeInsufficientStock,
		Message: fmt.Sprintf("insufficient stock: %s available, %s requested", available.String(), requested.String()),
	}}
}
