package teams

import (
	"context"
	"errors"
	"strings"

	"github.com/stockroom-app/stockroom/internal/platform/httpx"
)

// RepositoryPort abstracts repository usage for the service.
type RepositoryPort interface {
	Create(ctx context.Context, name string, ownerID int64) (Team, error)
	Get(ctx context.Context, teamID int64) (Team, error)
	ListForUser(ctx context.Context, userID int64) ([]Team, error)
	Delete(ctx context.Context, teamID int64) error
	GetMembership(ctx context.Context, teamID, userID int64) (Membership, error)
	UpsertMembership(ctx context.Context, teamID, userID int64, role Role) (Membership, error)
	ListMemberships(ctx context.Context, teamID int64) ([]Membership, error)
	RemoveMembership(ctx context.Context, teamID, userID int64) error
}

// Service coordinates team and membership operations.
type Service struct {
	repo RepositoryPort
}

// NewService builds Service.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// Create registers a team with the acting user as owner.
func (s *Service) Create(ctx context.Context, name string, ownerID int64) (Team, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Team{}, httpx.ErrValidation
	}
	return s.repo.Create(ctx, name, ownerID)
}

// Get loads one team.
func (s *Service) Get(ctx context.Context, teamID int64) (Team, error) {
	return s.repo.Get(ctx, teamID)
}

// ListForUser lists teams the user belongs to.
func (s *Service) ListForUser(ctx context.Context, userID int64) ([]Team, error) {
	return s.repo.ListForUser(ctx, userID)
}

// Delete removes the team and its catalog data.
func (s *Service) Delete(ctx context.Context, teamID int64) error {
	return s.repo.Delete(ctx, teamID)
}

// RoleOf resolves the user's role on a team.
func (s *Service) RoleOf(ctx context.Context, teamID, userID int64) (Role, error) {
	m, err := s.repo.GetMembership(ctx, teamID, userID)
	if err != nil {
		return 0, err
	}
	return m.Role, nil
}

// SetMember grants or updates a membership. Owners cannot be demoted by
// anyone but themselves; that rule lives with the caller's gating.
func (s *Service) SetMember(ctx context.Context, teamID, userID int64, roleName string) (Membership, error) {
	role, err := ParseRole(roleName)
	if err != nil {
		return Membership{}, errors.Join(httpx.ErrValidation, err)
	}
	return s.repo.UpsertMembership(ctx, teamID, userID, role)
}

// Members lists the team's memberships.
func (s *Service) Members(ctx context.Context, teamID int64) ([]Membership, error) {
	return s.repo.ListMemberships(ctx, teamID)
}

// RemoveMember drops a membership.
func (s *Service) RemoveMember(ctx context.Context, teamID, userID int64) error {
	return s.repo.RemoveMembership(ctx, teamID, userID)
}
