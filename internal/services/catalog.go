package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/desertthunder/watchlist/internal/models"
	"github.com/desertthunder/watchlist/internal/shared"
)

const DefaultCatalogPath = "/catalog"

// CatalogService reads the full catalog from the catalog service.
type CatalogService struct {
	api  *APIService
	path string
}

func NewCatalogService(api *APIService, path string) *CatalogService {
	if path == "" {
		path = DefaultCatalogPath
	}
	return &CatalogService{api: api, path: path}
}

// FetchCatalog returns every catalog item in service order.
func (s *CatalogService) FetchCatalog(ctx context.Context) ([]models.CatalogItem, error) {
	resp, err := s.api.Get(ctx, s.path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	if !resp.OK() {
		return nil, statusError(http.MethodGet, s.path, resp)
	}

	var items []models.CatalogItem
	if err := json.Unmarshal(resp.Body, &items); err != nil {
		return nil, fmt.Errorf("%w: failed to decode catalog: %v", shared.ErrAPIRequest, err)
	}
	if items == nil {
		items = []models.CatalogItem{}
	}
	return items, nil
}

func statusError(method, path string, resp *APIResponse) error {
	return fmt.Errorf("%w: %s %s returned status %d", shared.ErrAPIRequest, method, path, resp.StatusCode)
}
