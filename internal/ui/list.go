package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/desertthunder/watchlist/internal/formatter"
	"github.com/desertthunder/watchlist/internal/models"
)

var (
	_ list.Item = resultItem{}
	_ list.Item = entryItem{}
)

// resultItem wraps a search result [models.CatalogItem] to implement [list.Item].
type resultItem struct {
	item   models.CatalogItem
	inList bool
}

func (i resultItem) FilterValue() string { return i.item.Name }
func (i resultItem) Title() string       { return i.item.Name }
func (i resultItem) Description() string {
	desc := describeItem(i.item)
	if i.inList {
		desc += " • ✓ in list"
	}
	return desc
}

// entryItem wraps a resolved list position to implement [list.Item].
type entryItem struct {
	entry formatter.Entry
}

func (i entryItem) FilterValue() string { return i.Title() }
func (i entryItem) Title() string {
	if i.entry.Item == nil {
		return fmt.Sprintf("%d. Movie ID: %d", i.entry.Position, i.entry.ID)
	}
	return fmt.Sprintf("%d. %s", i.entry.Position, i.entry.Item.Name)
}
func (i entryItem) Description() string {
	if i.entry.Item == nil {
		return "details not found"
	}
	return describeItem(*i.entry.Item)
}

func describeItem(it models.CatalogItem) string {
	parts := []string{it.Platform, fmt.Sprint(it.ReleaseYear)}
	if it.Genre != "" {
		parts = append(parts, it.Genre)
	}
	if it.Rating != nil {
		parts = append(parts, fmt.Sprintf("★ %.1f", *it.Rating))
	}
	return strings.Join(parts, " • ")
}
