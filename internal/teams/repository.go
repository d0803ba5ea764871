package teams

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/stockroom-app/stockroom/internal/platform/db"
	"github.com/stockroom-app/stockroom/internal/platform/httpx"
)

// Repository persists teams and memberships in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create inserts the team and its owner membership atomically.
func (r *Repository) Create(ctx context.Context, name string, ownerID int64) (Team, error) {
	var team Team
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, `INSERT INTO teams (name) VALUES ($1) RETURNING id, name, created_at, updated_at`, name).
			Scan(&team.ID, &team.Name, &team.CreatedAt, &team.UpdatedAt)
		if err != nil {
			return mapPgError(err)
		}
		_, err = tx.Exec(ctx, `INSERT INTO team_memberships (team_id, user_id, role) VALUES ($1, $2, $3)`, team.ID, ownerID, RoleOwner.String())
		return err
	})
	if err != nil {
		return Team{}, err
	}
	return team, nil
}

func (r *Repository) Get(ctx context.Context, teamID int64) (Team, error) {
	var team Team
	err := r.pool.QueryRow(ctx, `SELECT id, name, created_at, updated_at FROM teams WHERE id = $1`, teamID).
		Scan(&team.ID, &team.Name, &team.CreatedAt, &team.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Team{}, httpx.ErrNotFound
		}
		return Team{}, err
	}
	return team, nil
}

func (r *Repository) ListForUser(ctx context.Context, userID int64) ([]Team, error) {
	rows, err := r.pool.Query(ctx, `SELECT t.id, t.name, t.created_at, t.updated_at
		FROM teams t JOIN team_memberships m ON m.team_id = t.id
		WHERE m.user_id = $1 ORDER BY t.name`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var teams []Team
	for rows.Next() {
		var team Team
		if err := rows.Scan(&team.ID, &team.Name, &team.CreatedAt, &team.UpdatedAt); err != nil {
			return nil, err
		}
		teams = append(teams, team)
	}
	return teams, rows.Err()
}

// Delete removes the team and, via storage cascades, everything it owns:
// memberships, locations, items, ledger entries and webhook endpoints.
func (r *Repository) Delete(ctx context.Context, teamID int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM teams WHERE id = $1`, teamID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return httpx.ErrNotFound
	}
	return nil
}

func (r *Repository) GetMembership(ctx context.Context, teamID, userID int64) (Membership, error) {
	var m Membership
	var role string
	err := r.pool.QueryRow(ctx, `SELECT id, team_id, user_id, role, created_at FROM team_memberships WHERE team_id = $1 AND user_id = $2`, teamID, userID).
		Scan(&m.ID, &m.TeamID, &m.UserID, &role, &m.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Membership{}, ErrNotMember
		}
		return Membership{}, err
	}
	if m.Role, err = ParseRole(role); err != nil {
		return Membership{}, err
	}
	return m, nil
}

func (r *Repository) UpsertMembership(ctx context.Context, teamID, userID int64, role Role) (Membership, error) {
	var m Membership
	var stored string
	err := r.pool.QueryRow(ctx, `INSERT INTO team_memberships (team_id, user_id, role) VALUES ($1, $2, $3)
		ON CONFLICT (team_id, user_id) DO UPDATE SET role = EXCLUDED.role, updated_at = NOW()
		RETURNING id, team_id, user_id, role, created_at`, teamID, userID, role.String()).
		Scan(&m.ID, &m.TeamID, &m.UserID, &stored, &m.CreatedAt)
	if err != nil {
		return Membership{}, err
	}
	if m.Role, err = ParseRole(stored); err != nil {
		return Membership{}, err
	}
	return m, nil
}

func (r *Repository) ListMemberships(ctx context.Context, teamID int64) ([]Membership, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, team_id, user_id, role, created_at FROM team_memberships WHERE team_id = $1 ORDER BY user_id`, teamID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var memberships []Membership
	for rows.Next() {
		var m Membership
		var role string
		if err := rows.Scan(&m.ID, &m.TeamID, &m.UserID, &role, &m.CreatedAt); err != nil {
			return nil, err
		}
		if m.Role, err = ParseRole(role); err != nil {
			return nil, err
		}
		memberships = append(memberships, m)
	}
	return memberships, rows.Err()
}

func (r *Repository) RemoveMembership(ctx context.Context, teamID, userID int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM team_memberships WHERE team_id = $1 AND user_id = $2`, teamID, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotMember
	}
	return nil
}

func mapPgError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return httpx.ErrDuplicate
	}
	return err
}
