package tasks

import (
	"context"

	"github.com/desertthunder/watchlist/internal/models"
)

// ListStore is the remote resource a [Synchronizer] mirrors its list to.
//
// Implemented over HTTP by the services package and by in-memory doubles in tests.
type ListStore interface {
	// CreateList persists a new list and returns it with the store-assigned id.
	CreateList(ctx context.Context, name string, items []models.ID) (*models.WatchList, error)

	// RenameList partially updates only the name of list id.
	RenameList(ctx context.Context, id models.ID, name string) error

	// SetListItems partially updates only the full ordered items of list id.
	SetListItems(ctx context.Context, id models.ID, items []models.ID) error

	// GetLists returns every stored list with missing items normalized to empty.
	GetLists(ctx context.Context) ([]models.WatchList, error)
}

// CatalogSource fetches the complete catalog in one call.
type CatalogSource interface {
	FetchCatalog(ctx context.Context) ([]models.CatalogItem, error)
}
