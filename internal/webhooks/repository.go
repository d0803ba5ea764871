package webhooks

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/stockroom-app/stockroom/internal/platform/httpx"
)

// Repository persists webhook endpoints in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const endpointSelect = `SELECT id, team_id, url, secret, events, active, created_at, updated_at FROM webhook_endpoints`

func (r *Repository) Create(ctx context.Context, endpoint Endpoint) (Endpoint, error) {
	row := r.pool.QueryRow(ctx, `INSERT INTO webhook_endpoints (team_id, url, secret, events, active)
		VALUES ($1, $2, $3, $4, $5) RETURNING id, created_at, updated_at`,
		endpoint.TeamID, endpoint.URL, endpoint.Secret, endpoint.Events, endpoint.Active)
	if err := row.Scan(&endpoint.ID, &endpoint.CreatedAt, &endpoint.UpdatedAt); err != nil {
		return Endpoint{}, err
	}
	return endpoint, nil
}

func (r *Repository) Get(ctx context.Context, teamID, endpointID int64) (Endpoint, error) {
	row := r.pool.QueryRow(ctx, endpointSelect+` WHERE id = $1 AND team_id = $2`, endpointID, teamID)
	return scanEndpoint(row)
}

func (r *Repository) List(ctx context.Context, teamID int64) ([]Endpoint, error) {
	rows, err := r.pool.Query(ctx, endpointSelect+` WHERE team_id = $1 ORDER BY id`, teamID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectEndpoints(rows)
}

// ListActiveForEvent returns the team's active endpoints subscribed to the
// event name.
func (r *Repository) ListActiveForEvent(ctx context.Context, teamID int64, event string) ([]Endpoint, error) {
	rows, err := r.pool.Query(ctx, endpointSelect+` WHERE team_id = $1 AND active AND $2 = ANY(events) ORDER BY id`, teamID, event)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectEndpoints(rows)
}

func (r *Repository) Update(ctx context.Context, endpoint Endpoint) (Endpoint, error) {
	row := r.pool.QueryRow(ctx, `UPDATE webhook_endpoints SET url = $1, events = $2, active = $3, updated_at = NOW()
		WHERE id = $4 AND team_id = $5
		RETURNING id, team_id, url, secret, events, active, created_at, updated_at`,
		endpoint.URL, endpoint.Events, endpoint.Active, endpoint.ID, endpoint.TeamID)
	return scanEndpoint(row)
}

func (r *Repository) Delete(ctx context.Context, teamID, endpointID int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM webhook_endpoints WHERE id = $1 AND team_id = $2`, endpointID, teamID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return httpx.ErrNotFound
	}
	return nil
}

func scanEndpoint(row pgx.Row) (Endpoint, error) {
	var endpoint Endpoint
	err := row.Scan(&endpoint.ID, &endpoint.TeamID, &endpoint.URL, &endpoint.Secret,
		&endpoint.Events, &endpoint.Active, &endpoint.CreatedAt, &endpoint.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Endpoint{}, httpx.ErrNotFound
		}
		return Endpoint{}, err
	}
	return endpoint, nil
}

func collectEndpoints(rows pgx.Rows) ([]Endpoint, error) {
	var endpoints []Endpoint
	for rows.Next() {
		endpoint, err := scanEndpoint(rows)
		if err != nil {
			return nil, err
		}
		endpoints = append(endpoints, endpoint)
	}
	return endpoints, rows.Err()
}
