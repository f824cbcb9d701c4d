package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
	"strconv"
)

// ID identifies catalog items and lists. Zero means unassigned.
type ID int

// UnmarshalJSON accepts both 12 and "12" so mixed store representations compare equal.
func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = 0
		return nil
	}

	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("invalid id %s: %w", data, err)
		}
		data = []byte(s)
	}

	n, err := strconv.Atoi(string(data))
	if err != nil {
		return fmt.Errorf("invalid id %s: %w", data, err)
	}
	*id = ID(n)
	return nil
}

func (id ID) String() string { return strconv.Itoa(int(id)) }

// ParseID parses a decimal id as typed by a user.
func ParseID(s string) (ID, error) {
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return ID(n), nil
}

// CatalogItem is one movie or TV show in the catalog.
type CatalogItem struct {
	ID          ID       `json:"id"`
	Name        string   `json:"name"`
	Platform    string   `json:"platform"`
	ReleaseYear int      `json:"release_year"`
	Poster      string   `json:"poster,omitempty"`
	Genre       string   `json:"genre,omitempty"`
	Rating      *float64 `json:"rating,omitempty"`
}

// WatchList is a named, ordered collection of catalog references without duplicates.
//
// Items is serialized as "movies" to match the list store's record shape.
type WatchList struct {
	ID    ID     `json:"id"`
	Name  string `json:"name"`
	Items []ID   `json:"movies"`
}

// Normalize replaces a missing items sequence with an empty one and drops repeated references,
// keeping the first occurrence of each id.
func (w *WatchList) Normalize() {
	if w.Items == nil {
		w.Items = []ID{}
	}
	if HasDuplicates(w.Items) {
		w.Items = DedupeIDs(w.Items)
	}
}

// Clone returns a deep copy so callers never share the items backing array.
func (w WatchList) Clone() WatchList {
	items := make([]ID, len(w.Items))
	copy(items, w.Items)
	w.Items = items
	return w
}

// Contains reports whether id is referenced by the list.
func (w WatchList) Contains(id ID) bool {
	return slices.Contains(w.Items, id)
}

// Without returns a copy of the items with every occurrence of id removed.
func (w WatchList) Without(id ID) []ID {
	out := make([]ID, 0, len(w.Items))
	for _, it := range w.Items {
		if it != id {
			out = append(out, it)
		}
	}
	return out
}

// UniqueIDs returns the ids of items in order with duplicates dropped.
func UniqueIDs(items []CatalogItem) []ID {
	seen := make(map[ID]struct{}, len(items))
	ids := make([]ID, 0, len(items))
	for _, it := range items {
		if _, ok := seen[it.ID]; ok {
			continue
		}
		seen[it.ID] = struct{}{}
		ids = append(ids, it.ID)
	}
	return ids
}

// DedupeIDs returns ids without repeats, in first-occurrence order.
func DedupeIDs(ids []ID) []ID {
	seen := make(map[ID]struct{}, len(ids))
	out := make([]ID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// HasDuplicates reports whether ids repeats any value.
func HasDuplicates(ids []ID) bool {
	seen := make(map[ID]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			return true
		}
		seen[id] = struct{}{}
	}
	return false
}
