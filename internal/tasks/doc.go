// package tasks implements the watchlist session core: the catalog cache and the list synchronizer.
//
// [CatalogCache] holds a read-only snapshot of every searchable item. [Synchronizer] owns the session's single
// [models.WatchList], applies each mutation locally first, mirrors it to a [ListStore] and restores the prior
// state when the remote write fails.
//
// Synchronizer operations are serialized through one FIFO queue so every remote write is computed from the
// confirmed result of the operation before it. State changes are reported through an optional channel of
// [SyncEvent] values without blocking the operation that produced them.
package tasks
