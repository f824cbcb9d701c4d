// Package services implements HTTP clients for the catalog service and the list store.
//
// [APIService] is the raw JSON transport shared by both clients. [CatalogService] reads the catalog in one
// request and [ListService] performs the list store's create, partial update and list operations, satisfying
// the synchronizer's store interface.
//
// # Wire format
//
// Lists travel as {"id": 1, "name": "...", "movies": [1, 2]}. Partial updates carry only the field that changed,
// either {"name": "..."} or {"movies": [...]}. Ids decode from numbers or numeric strings.
//
// # Error Handling
//
// Transport failures and non-2xx responses wrap [shared.ErrAPIRequest] with the method, path and status.
package services
