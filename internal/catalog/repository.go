package catalog

import (
	"context"
	"errors"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/stockroom-app/stockroom/internal/platform/httpx"
)

// Repository persists catalog data in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const itemSelect = `SELECT id, team_id, name, sku, category, unit_cost, unit_price, initial_quantity, location_id, created_at, updated_at FROM items`

func (r *Repository) CreateItem(ctx context.Context, item Item) (Item, error) {
	row := r.pool.QueryRow(ctx, `INSERT INTO items (team_id, name, sku, category, unit_cost, unit_price, initial_quantity, location_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at`,
		item.TeamID, item.Name, item.SKU, item.Category, item.UnitCost, item.UnitPrice, item.InitialQuantity, item.LocationID)
	if err := row.Scan(&item.ID, &item.CreatedAt, &item.UpdatedAt); err != nil {
		return Item{}, mapPgError(err)
	}
	return item, nil
}

func (r *Repository) GetItem(ctx context.Context, teamID, itemID int64) (Item, error) {
	row := r.pool.QueryRow(ctx, itemSelect+` WHERE id = $1 AND team_id = $2`, itemID, teamID)
	return scanItem(row)
}

func (r *Repository) ListItems(ctx context.Context, filter ItemFilter) ([]Item, int, error) {
	query := itemSelect + ` WHERE team_id = $1`
	countQuery := `SELECT COUNT(*) FROM items WHERE team_id = $1`
	args := []any{filter.TeamID}
	countArgs := []any{filter.TeamID}
	argCount := 1

	if filter.Search != "" {
		argCount++
		placeholder := `$` + strconv.Itoa(argCount)
		query += ` AND (name ILIKE ` + placeholder + ` OR sku ILIKE ` + placeholder + `)`
		countQuery += ` AND (name ILIKE $2 OR sku ILIKE $2)`
		args = append(args, "%"+filter.Search+"%")
		countArgs = append(countArgs, "%"+filter.Search+"%")
	}

	var total int
	if err := r.pool.QueryRow(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query += ` ORDER BY name`
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

	var items []Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, item)
	}
	return items, total, rows.Err()
}

func (r *Repository) UpdateItem(ctx context.Context, item Item) (Item, error) {
	row := r.pool.QueryRow(ctx, `UPDATE items SET name = $1, sku = $2, category = $3, unit_cost = $4, unit_price = $5, location_id = $6, updated_at = NOW()
		WHERE id = $7 AND team_id = $8
		RETURNING id, team_id, name, sku, category, unit_cost, unit_price, initial_quantity, location_id, created_at, updated_at`,
		item.Name, item.SKU, item.Category, item.UnitCost, item.UnitPrice, item.LocationID, item.ID, item.TeamID)
	updated, err := scanItem(row)
	if err != nil {
		return Item{}, err
	}
	return updated, nil
}

// DeleteItem refuses when ledger entries reference the item; history is
// permanent (the FK refusal surfaces as 23503).
func (r *Repository) DeleteItem(ctx context.Context, teamID, itemID int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM items WHERE id = $1 AND team_id = $2`, itemID, teamID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return httpx.ErrConflict
		}
		return err
	}
	if tag.RowsAffected() == 0 {
		return httpx.ErrNotFound
	}
	return nil
}

const locationSelect = `SELECT id, team_id, name, created_at, updated_at FROM locations`

func (r *Repository) CreateLocation(ctx context.Context, location Location) (Location, error) {
	row := r.pool.QueryRow(ctx, `INSERT INTO locations (team_id, name) VALUES ($1, $2) RETURNING id, created_at, updated_at`,
		location.TeamID, location.Name)
	if err := row.Scan(&location.ID, &location.CreatedAt, &location.UpdatedAt); err != nil {
		return Location{}, mapPgError(err)
	}
	return location, nil
}

func (r *Repository) GetLocation(ctx context.Context, teamID, locationID int64) (Location, error) {
	row := r.pool.QueryRow(ctx, locationSelect+` WHERE id = $1 AND team_id = $2`, locationID, teamID)
	return scanLocation(row)
}

func (r *Repository) ListLocations(ctx context.Context, teamID int64) ([]Location, error) {
	rows, err := r.pool.Query(ctx, locationSelect+` WHERE team_id = $1 ORDER BY name`, teamID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var locations []Location
	for rows.Next() {
		location, err := scanLocation(rows)
		if err != nil {
			return nil, err
		}
		locations = append(locations, location)
	}
	return locations, rows.Err()
}

func (r *Repository) UpdateLocation(ctx context.Context, location Location) (Location, error) {
	row := r.pool.QueryRow(ctx, `UPDATE locations SET name = $1, updated_at = NOW() WHERE id = $2 AND team_id = $3
		RETURNING id, team_id, name, created_at, updated_at`,
		location.Name, location.ID, location.TeamID)
	updated, err := scanLocation(row)
	if err != nil {
		if errors.Is(err, httpx.ErrNotFound) {
			return Location{}, httpx.ErrNotFound
		}
		return Location{}, mapPgError(err)
	}
	return updated, nil
}

// DeleteLocation removes the location; ledger entries keep their history with
// the reference nulled by the storage layer.
func (r *Repository) DeleteLocation(ctx context.Context, teamID, locationID int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM locations WHERE id = $1 AND team_id = $2`, locationID, teamID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return httpx.ErrNotFound
	}
	return nil
}

func scanItem(row pgx.Row) (Item, error) {
	var item Item
	err := row.Scan(&item.ID, &item.TeamID, &item.Name, &item.SKU, &item.Category,
		&item.UnitCost, &item.UnitPrice, &item.InitialQuantity, &item.LocationID,
		&item.CreatedAt, &item.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Item{}, httpx.ErrNotFound
		}
		return Item{}, mapPgError(err)
	}
	return item, nil
}

func scanLocation(row pgx.Row) (Location, error) {
	var location Location
	err := row.Scan(&location.ID, &location.TeamID, &location.Name, &location.CreatedAt, &location.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Location{}, httpx.ErrNotFound
		}
		return Location{}, err
	}
	return location, nil
}

func mapPgError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return httpx.ErrDuplicate
	}
	return err
}
