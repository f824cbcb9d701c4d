package repositories

import (
	"database/sql"
	"fmt"

	"github.com/desertthunder/watchlist/internal/models"
	"github.com/desertthunder/watchlist/internal/shared"
)

// CatalogRepository stores the catalog snapshot.
type CatalogRepository struct {
	db *sql.DB
}

// NewCatalogRepository creates a new CatalogRepository with the given database connection
func NewCatalogRepository(db *sql.DB) *CatalogRepository {
	return &CatalogRepository{db: db}
}

// ReplaceAll swaps the stored catalog for items in one transaction.
func (r *CatalogRepository) ReplaceAll(items []models.CatalogItem) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM catalog_items"); err != nil {
		return fmt.Errorf("failed to clear catalog: %w", err)
	}

	stmt, err := tx.Prepare(`
		INSERT INTO catalog_items (id, name, platform, release_year, poster, genre, rating)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, it := range items {
		if it.ID <= 0 || it.Name == "" {
			return fmt.Errorf("%w: catalog item needs an id and a name: %+v", shared.ErrInvalidInput, it)
		}

		var rating sql.NullFloat64
		if it.Rating != nil {
			rating = sql.NullFloat64{Float64: *it.Rating, Valid: true}
		}

		_, err := stmt.Exec(it.ID, it.Name, it.Platform, it.ReleaseYear, nullString(it.Poster), nullString(it.Genre), rating)
		if err != nil {
			return fmt.Errorf("failed to insert catalog item %d: %w", it.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit catalog: %w", err)
	}
	return nil
}

// List returns every catalog item ordered by id.
func (r *CatalogRepository) List() ([]models.CatalogItem, error) {
	rows, err := r.db.Query(`
		SELECT id, name, platform, release_year, poster, genre, rating
		FROM catalog_items
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query catalog: %w", err)
	}
	defer rows.Close()

	items := []models.CatalogItem{}
	for rows.Next() {
		var (
			it            models.CatalogItem
			poster, genre sql.NullString
			rating        sql.NullFloat64
		)
		if err := rows.Scan(&it.ID, &it.Name, &it.Platform, &it.ReleaseYear, &poster, &genre, &rating); err != nil {
			return nil, fmt.Errorf("failed to scan catalog item: %w", err)
		}
		it.Poster = poster.String
		it.Genre = genre.String
		if rating.Valid {
			v := rating.Float64
			it.Rating = &v
		}
		items = append(items, it)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating catalog: %w", err)
	}
	return items, nil
}

// Count returns the number of stored catalog items.
func (r *CatalogRepository) Count() (int, error) {
	var n int
	if err := r.db.QueryRow("SELECT COUNT(*) FROM catalog_items").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count catalog: %w", err)
	}
	return n, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
