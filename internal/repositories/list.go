package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/desertthunder/watchlist/internal/models"
	"github.com/desertthunder/watchlist/internal/shared"
)

// ListRepository persists lists with their ordered item references.
type ListRepository struct {
	db *sql.DB
}

// NewListRepository creates a new ListRepository with the given database connection
func NewListRepository(db *sql.DB) *ListRepository {
	return &ListRepository{db: db}
}

// Create inserts a new list with a sequence-allocated id.
func (r *ListRepository) Create(name string, items []models.ID) (*models.WatchList, error) {
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("%w: list name cannot be blank", shared.ErrInvalidInput)
	}
	if models.HasDuplicates(items) {
		return nil, fmt.Errorf("%w: items contain duplicates", shared.ErrDuplicateItem)
	}

	tx, err := r.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	sequence, err := NextSequence(tx, "lists")
	if err != nil {
		return nil, fmt.Errorf("failed to generate sequence: %w", err)
	}

	now := time.Now().UTC()
	if _, err := tx.Exec(
		"INSERT INTO lists (id, name, created_at, updated_at) VALUES (?, ?, ?, ?)",
		sequence, name, now, now,
	); err != nil {
		return nil, fmt.Errorf("failed to insert list: %w", err)
	}

	if err := insertItems(tx, models.ID(sequence), items); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit list: %w", err)
	}

	list := models.WatchList{ID: models.ID(sequence), Name: name, Items: append([]models.ID{}, items...)}
	return &list, nil
}

// Get retrieves a list and its items in position order.
func (r *ListRepository) Get(id models.ID) (*models.WatchList, error) {
	list := models.WatchList{ID: id}
	err := r.db.QueryRow("SELECT name FROM lists WHERE id = ?", id).Scan(&list.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %d", shared.ErrListNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get list: %w", err)
	}

	rows, err := r.db.Query("SELECT item_id FROM list_items WHERE list_id = ? ORDER BY position", id)
	if err != nil {
		return nil, fmt.Errorf("failed to query list items: %w", err)
	}
	defer rows.Close()

	list.Items = []models.ID{}
	for rows.Next() {
		var item models.ID
		if err := rows.Scan(&item); err != nil {
			return nil, fmt.Errorf("failed to scan list item: %w", err)
		}
		list.Items = append(list.Items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating list items: %w", err)
	}

	return &list, nil
}

// List returns every list ordered by id.
func (r *ListRepository) List() ([]models.WatchList, error) {
	rows, err := r.db.Query("SELECT id, name FROM lists ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("failed to query lists: %w", err)
	}

	lists := []models.WatchList{}
	index := map[models.ID]int{}
	for rows.Next() {
		l := models.WatchList{Items: []models.ID{}}
		if err := rows.Scan(&l.ID, &l.Name); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan list: %w", err)
		}
		index[l.ID] = len(lists)
		lists = append(lists, l)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("error iterating lists: %w", err)
	}
	rows.Close()

	itemRows, err := r.db.Query("SELECT list_id, item_id FROM list_items ORDER BY list_id, position")
	if err != nil {
		return nil, fmt.Errorf("failed to query list items: %w", err)
	}
	defer itemRows.Close()

	for itemRows.Next() {
		var listID, item models.ID
		if err := itemRows.Scan(&listID, &item); err != nil {
			return nil, fmt.Errorf("failed to scan list item: %w", err)
		}
		if i, ok := index[listID]; ok {
			lists[i].Items = append(lists[i].Items, item)
		}
	}
	if err := itemRows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating list items: %w", err)
	}

	return lists, nil
}

// UpdateName renames list id.
func (r *ListRepository) UpdateName(id models.ID, name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: list name cannot be blank", shared.ErrInvalidInput)
	}

	result, err := r.db.Exec("UPDATE lists SET name = ?, updated_at = ? WHERE id = ?", name, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to update list: %w", err)
	}
	return requireRow(result, id)
}

// ReplaceItems overwrites the ordered items of list id.
func (r *ListRepository) ReplaceItems(id models.ID, items []models.ID) error {
	if models.HasDuplicates(items) {
		return fmt.Errorf("%w: items contain duplicates", shared.ErrDuplicateItem)
	}

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.Exec("UPDATE lists SET updated_at = ? WHERE id = ?", time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to update list: %w", err)
	}
	if err := requireRow(result, id); err != nil {
		return err
	}

	if _, err := tx.Exec("DELETE FROM list_items WHERE list_id = ?", id); err != nil {
		return fmt.Errorf("failed to clear list items: %w", err)
	}
	if err := insertItems(tx, id, items); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit list items: %w", err)
	}
	return nil
}

func insertItems(tx *sql.Tx, listID models.ID, items []models.ID) error {
	for pos, item := range items {
		if _, err := tx.Exec(
			"INSERT INTO list_items (list_id, item_id, position) VALUES (?, ?, ?)",
			listID, item, pos,
		); err != nil {
			return fmt.Errorf("failed to insert list item %d: %w", item, err)
		}
	}
	return nil
}

func requireRow(result sql.Result, id models.ID) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %d", shared.ErrListNotFound, id)
	}
	return nil
}
