package ledger

import (
	"context"
	"errors"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/stockroom-app/stockroom/internal/platform/db"
)

// ItemRef is the slice of an item the ledger needs: tenant ownership and the
// baseline the aggregate fold starts from.
type ItemRef struct {
	ID              int64
	TeamID          int64
	InitialQuantity decimal.Decimal
}

// RepositoryPort abstracts repository usage for the service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	GetItem(ctx context.Context, itemID int64) (ItemRef, error)
	ItemBalance(ctx context.Context, itemID int64) (decimal.Decimal, error)
	LocationBalance(ctx context.Context, itemID, locationID int64) (decimal.Decimal, error)
	GetEntry(ctx context.Context, teamID, entryID int64) (Entry, error)
	ListEntries(ctx context.Context, filter ListFilter) ([]Entry, int, error)
}

// TxRepository exposes the operations that must run inside one serialized
// storage transaction: the availability read and the entry insert.
type TxRepository interface {
	LockItem(ctx context.Context, itemID int64) (ItemRef, error)
	ItemBalance(ctx context.Context, itemID int64) (decimal.Decimal, error)
	LocationBalance(ctx context.Context, itemID, locationID int64) (decimal.Decimal, error)
	InsertEntry(ctx context.Context, entry Entry) (Entry, error)
}

// Repository persists ledger entries in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// WithTx executes the callback inside a serializable transaction. Posting and
// its availability check share one snapshot; concurrent withdrawals against
// the same item serialize on the locked item row.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithSerializableTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txRepo{tx: tx})
	})
}

func (r *Repository) GetItem(ctx context.Context, itemID int64) (ItemRef, error) {
	return scanItemRef(ctx, r.pool, `SELECT id, team_id, initial_quantity FROM items WHERE id = $1`, itemID)
}

func (r *Repository) ItemBalance(ctx context.Context, itemID int64) (decimal.Decimal, error) {
	return scanItemBalance(ctx, r.pool, itemID)
}

func (r *Repository) LocationBalance(ctx context.Context, itemID, locationID int64) (decimal.Decimal, error) {
	return scanLocationBalance(ctx, r.pool, itemID, locationID)
}

func (r *Repository) GetEntry(ctx context.Context, teamID, entryID int64) (Entry, error) {
	row := r.pool.QueryRow(ctx, entrySelect+` WHERE id = $1 AND team_id = $2`, entryID, teamID)
	entry, err := scanEntry(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Entry{}, pgx.ErrNoRows
		}
		return Entry{}, err
	}
	return entry, nil
}

func (r *Repository) ListEntries(ctx context.Context, filter ListFilter) ([]Entry, int, error) {
	query := entrySelect + ` WHERE team_id = $1`
	countQuery := `SELECT COUNT(*) FROM stock_transactions WHERE team_id = $1`
	args := []any{filter.TeamID}
	countArgs := []any{filter.TeamID}
	argCount := 1
	countArgCount := 1

	if filter.ItemID != 0 {
		argCount++
		query += ` AND item_id = $` + strconv.Itoa(argCount)
		args = append(args, filter.ItemID)
		countArgCount++
		countQuery += ` AND item_id = $` + strconv.Itoa(countArgCount)
		countArgs = append(countArgs, filter.ItemID)
	}
	if filter.Type != "" {
		argCount++
		query += ` AND transaction_type = $` + strconv.Itoa(argCount)
		args = append(args, string(filter.Type))
		countArgCount++
		countQuery += ` AND transaction_type = $` + strconv.Itoa(countArgCount)
		countArgs = append(countArgs, string(filter.Type))
	}

	var total int
	if err := r.pool.QueryRow(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query += ` ORDER BY created_at DESC, id DESC`
	if filter.Limit > 0 {
		argCount++
		query += ` LIMIT $` + strconv.Itoa(argCount)
		args = append(args, filter.Limit)
		argCount++
		query += ` OFFSET $` + strconv.Itoa(argCount)
		args = append(args, filter.Offset)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, 0, err
		}
		entries = append(entries, entry)
	}
	return entries, total, rows.Err()
}

type txRepo struct {
	tx pgx.Tx
}

func (r *txRepo) LockItem(ctx context.Context, itemID int64) (ItemRef, error) {
	return scanItemRef(ctx, r.tx, `SELECT id, team_id, initial_quantity FROM items WHERE id = $1 FOR UPDATE`, itemID)
}

func (r *txRepo) ItemBalance(ctx context.Context, itemID int64) (decimal.Decimal, error) {
	return scanItemBalance(ctx, r.tx, itemID)
}

func (r *txRepo) LocationBalance(ctx context.Context, itemID, locationID int64) (decimal.Decimal, error) {
	return scanLocationBalance(ctx, r.tx, itemID, locationID)
}

func (r *txRepo) InsertEntry(ctx context.Context, entry Entry) (Entry, error) {
	row := r.tx.QueryRow(ctx, `INSERT INTO stock_transactions
		(team_id, item_id, user_id, transaction_type, quantity, source_location_id, destination_location_id, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at`,
		entry.TeamID, entry.ItemID, entry.UserID, string(entry.Type), entry.Quantity,
		entry.SourceLocationID, entry.DestinationLocationID, entry.Notes)
	if err := row.Scan(&entry.ID, &entry.CreatedAt); err != nil {
		return Entry{}, err
	}
	return entry, nil
}

type rowQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const entrySelect = `SELECT id, team_id, item_id, user_id, transaction_type, quantity, source_location_id, destination_location_id, notes, created_at FROM stock_transactions`

func scanEntry(row pgx.Row) (Entry, error) {
	var entry Entry
	var txType string
	if err := row.Scan(&entry.ID, &entry.TeamID, &entry.ItemID, &entry.UserID, &txType,
		&entry.Quantity, &entry.SourceLocationID, &entry.DestinationLocationID, &entry.Notes, &entry.CreatedAt); err != nil {
		return Entry{}, err
	}
	entry.Type = TransactionType(txType)
	return entry, nil
}

func scanItemRef(ctx context.Context, q rowQuerier, query string, itemID int64) (ItemRef, error) {
	var ref ItemRef
	err := q.QueryRow(ctx, query, itemID).Scan(&ref.ID, &ref.TeamID, &ref.InitialQuantity)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ItemRef{}, ErrItemNotFound
		}
		return ItemRef{}, err
	}
	return ref, nil
}

// scanItemBalance folds every entry for the item. The stored quantities are
// already sign-correct, so a plain signed sum suffices.
func scanItemBalance(ctx context.Context, q rowQuerier, itemID int64) (decimal.Decimal, error) {
	var sum decimal.Decimal
	err := q.QueryRow(ctx, `SELECT COALESCE(SUM(quantity), 0) FROM stock_transactions WHERE item_id = $1`, itemID).Scan(&sum)
	if err != nil {
		return decimal.Zero, err
	}
	return sum, nil
}

// scanLocationBalance computes the per-location fold: destination entries add
// their stored quantity, source entries subtract their magnitude. Stock-out
// entries store negative quantities and moves positive ones, so ABS keeps the
// source side uniform.
func scanLocationBalance(ctx context.Context, q rowQuerier, itemID, locationID int64) (decimal.Decimal, error) {
	var sum decimal.Decimal
	err := q.QueryRow(ctx, `SELECT
			COALESCE(SUM(quantity) FILTER (WHERE destination_location_id = $2), 0)
			- COALESCE(SUM(ABS(quantity)) FILTER (WHERE source_location_id = $2), 0)
		FROM stock_transactions WHERE item_id = $1`, itemID, locationID).Scan(&sum)
	if err != nil {
		return decimal.Zero, err
	}
	return sum, nil
}
