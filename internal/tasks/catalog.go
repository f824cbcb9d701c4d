package tasks

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/desertthunder/watchlist/internal/models"
	"github.com/desertthunder/watchlist/internal/shared"
)

// CatalogCache is an in-memory snapshot of the catalog, replaced whole on each successful [CatalogCache.Load].
type CatalogCache struct {
	source CatalogSource

	mu    sync.RWMutex
	items []models.CatalogItem
	index map[models.ID]int
}

func NewCatalogCache(source CatalogSource) *CatalogCache {
	return &CatalogCache{source: source, index: map[models.ID]int{}}
}

// Load fetches the catalog and swaps it in. On failure the previous snapshot is kept.
func (c *CatalogCache) Load(ctx context.Context) error {
	if c.source == nil {
		return fmt.Errorf("%w: catalog source not initialized", shared.ErrCatalogLoadFailed)
	}

	items, err := c.source.FetchCatalog(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrCatalogLoadFailed, err)
	}

	index := make(map[models.ID]int, len(items))
	for i, it := range items {
		if _, ok := index[it.ID]; !ok {
			index[it.ID] = i
		}
	}

	c.mu.Lock()
	c.items = items
	c.index = index
	c.mu.Unlock()
	return nil
}

// Search returns the items whose name contains query, ignoring case, in catalog order.
//
// A blank query matches everything; callers decide whether a blank query counts as a search.
func (c *CatalogCache) Search(query string) []models.CatalogItem {
	q := strings.ToLower(query)

	c.mu.RLock()
	defer c.mu.RUnlock()

	results := make([]models.CatalogItem, 0)
	for _, it := range c.items {
		if strings.Contains(strings.ToLower(it.Name), q) {
			results = append(results, it)
		}
	}
	return results
}

// Lookup resolves id against the current snapshot.
func (c *CatalogCache) Lookup(id models.ID) (models.CatalogItem, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	i, ok := c.index[id]
	if !ok {
		return models.CatalogItem{}, false
	}
	return c.items[i], true
}

// Len reports the number of cached items. Zero until the first successful load.
func (c *CatalogCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// Items returns a copy of the cached catalog.
func (c *CatalogCache) Items() []models.CatalogItem {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]models.CatalogItem, len(c.items))
	copy(out, c.items)
	return out
}
