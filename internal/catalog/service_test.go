package catalog

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/stockroom-app/stockroom/internal/platform/httpx"
)

type memoryCatalogRepo struct {
	items     map[int64]Item
	locations map[int64]Location
	nextID    int64
}

func newMemoryCatalogRepo() *memoryCatalogRepo {
	return &memoryCatalogRepo{items: make(map[int64]Item), locations: make(map[int64]Location)}
}

func (r *memoryCatalogRepo) CreateItem(ctx context.Context, item Item) (Item, error) {
	for _, existing := range r.items {
		if existing.TeamID == item.TeamID && existing.SKU == item.SKU {
			return Item{}, httpx.ErrDuplicate
		}
	}
	r.nextID++
	item.ID = r.nextID
	r.items[item.ID] = item
	return item, nil
}

func (r *memoryCatalogRepo) GetItem(ctx context.Context, teamID, itemID int64) (Item, error) {
	item, ok := r.items[itemID]
	if !ok || item.TeamID != teamID {
		return Item{}, httpx.ErrNotFound
	}
	return item, nil
}

func (r *memoryCatalogRepo) ListItems(ctx context.Context, filter ItemFilter) ([]Item, int, error) {
	var out []Item
	for _, item := range r.items {
		if item.TeamID == filter.TeamID {
			out = append(out, item)
		}
	}
	return out, len(out), nil
}

func (r *memoryCatalogRepo) UpdateItem(ctx context.Context, item Item) (Item, error) {
	existing, ok := r.items[item.ID]
	if !ok || existing.TeamID != item.TeamID {
		return Item{}, httpx.ErrNotFound
	}
	item.InitialQuantity = existing.InitialQuantity
	r.items[item.ID] = item
	return item, nil
}

func (r *memoryCatalogRepo) DeleteItem(ctx context.Context, teamID, itemID int64) error {
	item, ok := r.items[itemID]
	if !ok || item.TeamID != teamID {
		return httpx.ErrNotFound
	}
	delete(r.items, itemID)
	return nil
}

func (r *memoryCatalogRepo) CreateLocation(ctx context.Context, location Location) (Location, error) {
	r.nextID++
	location.ID = r.nextID
	r.locations[location.ID] = location
	return location, nil
}

func (r *memoryCatalogRepo) GetLocation(ctx context.Context, teamID, locationID int64) (Location, error) {
	location, ok := r.locations[locationID]
	if !ok || location.TeamID != teamID {
		return Location{}, httpx.ErrNotFound
	}
	return location, nil
}

func (r *memoryCatalogRepo) ListLocations(ctx context.Context, teamID int64) ([]Location, error) {
	var out []Location
	for _, location := range r.locations {
		if location.TeamID == teamID {
			out = append(out, location)
		}
	}
	return out, nil
}

func (r *memoryCatalogRepo) UpdateLocation(ctx context.Context, location Location) (Location, error) {
	existing, ok := r.locations[location.ID]
	if !ok || existing.TeamID != location.TeamID {
		return Location{}, httpx.ErrNotFound
	}
	r.locations[location.ID] = location
	return location, nil
}

func (r *memoryCatalogRepo) DeleteLocation(ctx context.Context, teamID, locationID int64) error {
	location, ok := r.locations[locationID]
	if !ok || location.TeamID != teamID {
		return httpx.ErrNotFound
	}
	delete(r.locations, locationID)
	return nil
}

func TestCreateItemValidation(t *testing.T) {
	svc := NewService(newMemoryCatalogRepo())
	ctx := context.Background()

	tests := []struct {
		name string
		item Item
	}{
		{"missing name", Item{TeamID: 1, SKU: "SKU-1"}},
		{"missing sku", Item{TeamID: 1, Name: "Bolt"}},
		{"negative cost", Item{TeamID: 1, Name: "Bolt", SKU: "SKU-1", UnitCost: decimal.NewFromInt(-1)}},
		{"negative price", Item{TeamID: 1, Name: "Bolt", SKU: "SKU-1", UnitPrice: decimal.NewFromInt(-1)}},
		{"negative initial quantity", Item{TeamID: 1, Name: "Bolt", SKU: "SKU-1", InitialQuantity: decimal.NewFromInt(-5)}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.CreateItem(ctx, tc.item)
			require.ErrorIs(t, err, httpx.ErrValidation)
		})
	}
}

func TestCreateItemTrimsAndStores(t *testing.T) {
	svc := NewService(newMemoryCatalogRepo())

	item, err := svc.CreateItem(context.Background(), Item{
		TeamID: 1, Name: "  Hex Bolt  ", SKU: " HB-M8 ",
		UnitCost:        decimal.RequireFromString("0.12"),
		InitialQuantity: decimal.NewFromInt(500),
	})
	require.NoError(t, err)
	require.Equal(t, "Hex Bolt", item.Name)
	require.Equal(t, "HB-M8", item.SKU)
	require.NotZero(t, item.ID)
}

func TestCreateItemRejectsDuplicateSKU(t *testing.T) {
	svc := NewService(newMemoryCatalogRepo())
	ctx := context.Background()

	_, err := svc.CreateItem(ctx, Item{TeamID: 1, Name: "Bolt", SKU: "HB-M8"})
	require.NoError(t, err)
	_, err = svc.CreateItem(ctx, Item{TeamID: 1, Name: "Other Bolt", SKU: "HB-M8"})
	require.ErrorIs(t, err, httpx.ErrDuplicate)

	// Same SKU on a different team is fine.
	_, err = svc.CreateItem(ctx, Item{TeamID: 2, Name: "Bolt", SKU: "HB-M8"})
	require.NoError(t, err)
}

func TestCreateItemChecksLocationOwnership(t *testing.T) {
	repo := newMemoryCatalogRepo()
	svc := NewService(repo)
	ctx := context.Background()

	otherTeams, err := svc.CreateLocation(ctx, Location{TeamID: 2, Name: "Shelf"})
	require.NoError(t, err)

	_, err = svc.CreateItem(ctx, Item{TeamID: 1, Name: "Bolt", SKU: "HB-M8", LocationID: &otherTeams.ID})
	require.ErrorIs(t, err, httpx.ErrValidation)

	mine, err := svc.CreateLocation(ctx, Location{TeamID: 1, Name: "Shelf"})
	require.NoError(t, err)
	_, err = svc.CreateItem(ctx, Item{TeamID: 1, Name: "Bolt", SKU: "HB-M8", LocationID: &mine.ID})
	require.NoError(t, err)
}

func TestUpdateItemKeepsInitialQuantity(t *testing.T) {
	repo := newMemoryCatalogRepo()
	svc := NewService(repo)
	ctx := context.Background()

	item, err := svc.CreateItem(ctx, Item{
		TeamID: 1, Name: "Bolt", SKU: "HB-M8",
		InitialQuantity: decimal.NewFromInt(500),
	})
	require.NoError(t, err)

	updated, err := svc.UpdateItem(ctx, Item{
		ID: item.ID, TeamID: 1, Name: "Hex Bolt", SKU: "HB-M8",
		InitialQuantity: decimal.NewFromInt(9999),
	})
	require.NoError(t, err)
	require.Equal(t, "Hex Bolt", updated.Name)
	require.True(t, updated.InitialQuantity.Equal(decimal.NewFromInt(500)),
		"initial quantity is fixed at creation")
}

func TestCreateLocationValidation(t *testing.T) {
	svc := NewService(newMemoryCatalogRepo())

	_, err := svc.CreateLocation(context.Background(), Location{TeamID: 1, Name: "   "})
	require.ErrorIs(t, err, httpx.ErrValidation)
}
