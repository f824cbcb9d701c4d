// Package models defines the domain entities shared by the watchlist client, its store clients, and the development store server.
//
//   - [ID] : integer identifier normalized at the JSON boundary (numbers and numeric strings both decode)
//   - [CatalogItem] : one searchable movie or TV show, immutable once loaded
//   - [WatchList] : the user's single curated list of catalog references
//
// A [WatchList] may reference ids that are absent from the catalog. Those are stale references and are
// rendered as unknown items, never treated as errors.
package models
