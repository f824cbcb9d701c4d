// Package repositories implements SQLite persistence for the development store server.
//
// Key Implementations:
//   - [CatalogRepository] : the catalog snapshot served at the catalog path
//   - [ListRepository] : lists and their ordered item references
//
// List ids are small integers allocated from the lists_sequence table by [NextSequence], matching the numeric
// ids a json-server style store hands out. Item order is kept in a position column and the (list_id, item_id)
// primary key rejects duplicate references.
package repositories
