package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/stockroom-app/stockroom/internal/platform/httpx"
)

// RepositoryPort abstracts repository usage for the service.
type RepositoryPort interface {
	CreateItem(ctx context.Context, item Item) (Item, error)
	GetItem(ctx context.Context, teamID, itemID int64) (Item, error)
	ListItems(ctx context.Context, filter ItemFilter) ([]Item, int, error)
	UpdateItem(ctx context.Context, item Item) (Item, error)
	DeleteItem(ctx context.Context, teamID, itemID int64) error
	CreateLocation(ctx context.Context, location Location) (Location, error)
	GetLocation(ctx context.Context, teamID, locationID int64) (Location, error)
	ListLocations(ctx context.Context, teamID int64) ([]Location, error)
	UpdateLocation(ctx context.Context, location Location) (Location, error)
	DeleteLocation(ctx context.Context, teamID, locationID int64) error
}

// Service coordinates catalog operations.
type Service struct {
	repo RepositoryPort
}

// NewService builds Service.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// CreateItem validates and stores a new item.
func (s *Service) CreateItem(ctx context.Context, item Item) (Item, error) {
	if err := validateItem(&item); err != nil {
		return Item{}, err
	}
	if item.LocationID != nil {
		if _, err := s.repo.GetLocation(ctx, item.TeamID, *item.LocationID); err != nil {
			return Item{}, fmt.Errorf("%w: location does not exist on this team", httpx.ErrValidation)
		}
	}
	return s.repo.CreateItem(ctx, item)
}

// GetItem loads one item scoped to the team.
func (s *Service) GetItem(ctx context.Context, teamID, itemID int64) (Item, error) {
	return s.repo.GetItem(ctx, teamID, itemID)
}

// ListItems pages through a team's items.
func (s *Service) ListItems(ctx context.Context, filter ItemFilter) ([]Item, int, error) {
	if filter.Limit <= 0 {
		filter.Limit = 50
	}
	return s.repo.ListItems(ctx, filter)
}

// UpdateItem validates and stores changed item fields. The initial quantity
// baseline is fixed at creation; updates never touch it.
func (s *Service) UpdateItem(ctx context.Context, item Item) (Item, error) {
	if err := validateItem(&item); err != nil {
		return Item{}, err
	}
	if item.LocationID != nil {
		if _, err := s.repo.GetLocation(ctx, item.TeamID, *item.LocationID); err != nil {
			return Item{}, fmt.Errorf("%w: location does not exist on this team", httpx.ErrValidation)
		}
	}
	return s.repo.UpdateItem(ctx, item)
}

// DeleteItem removes an item that has no ledger history.
func (s *Service) DeleteItem(ctx context.Context, teamID, itemID int64) error {
	return s.repo.DeleteItem(ctx, teamID, itemID)
}

// CreateLocation validates and stores a new location.
func (s *Service) CreateLocation(ctx context.Context, location Location) (Location, error) {
	location.Name = strings.TrimSpace(location.Name)
	if location.Name == "" {
		return Location{}, fmt.Errorf("%w: name is required", httpx.ErrValidation)
	}
	return s.repo.CreateLocation(ctx, location)
}

// GetLocation loads one location scoped to the team.
func (s *Service) GetLocation(ctx context.Context, teamID, locationID int64) (Location, error) {
	return s.repo.GetLocation(ctx, teamID, locationID)
}

// ListLocations lists a team's locations.
func (s *Service) ListLocations(ctx context.Context, teamID int64) ([]Location, error) {
	return s.repo.ListLocations(ctx, teamID)
}

// UpdateLocation renames a location.
func (s *Service) UpdateLocation(ctx context.Context, location Location) (Location, error) {
	location.Name = strings.TrimSpace(location.Name)
	if location.Name == "" {
		return Location{}, fmt.Errorf("%w: name is required", httpx.ErrValidation)
	}
	return s.repo.UpdateLocation(ctx, location)
}

// DeleteLocation removes a location; historical entries keep a nulled reference.
func (s *Service) DeleteLocation(ctx context.Context, teamID, locationID int64) error {
	return s.repo.DeleteLocation(ctx, teamID, locationID)
}

func validateItem(item *Item) error {
	item.Name = strings.TrimSpace(item.Name)
	item.SKU = strings.TrimSpace(item.SKU)
	if item.Name == "" {
		return fmt.Errorf("%w: name is required", httpx.ErrValidation)
	}
	if item.SKU == "" {
		return fmt.Errorf("%w: sku is required", httpx.ErrValidation)
	}
	if item.UnitCost.IsNegative() {
		return fmt.Errorf("%w: unit_cost must be non-negative", httpx.ErrValidation)
	}
	if item.UnitPrice.IsNegative() {
		return fmt.Errorf("%w: unit_price must be non-negative", httpx.ErrValidation)
	}
	if item.InitialQuantity.IsNegative() {
		return fmt.Errorf("%w: initial_quantity must be non-negative", httpx.ErrValidation)
	}
	return nil
}
