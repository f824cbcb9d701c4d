// Package server provides HTTP routing, middleware, and the development list store handler.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
//
// The [BasicRouter] implementation registers "METHOD /path" patterns on [http.ServeMux], which answers unknown
// methods with 405.
//
// # Store Handler
//
// [StoreHandler] implements [Handler] for the resources the watchlist client consumes:
//
//	GET   /catalog      catalog array (path configurable)
//	GET   /lists        every list, movies always present
//	POST  /lists        {name, movies} -> 201 with the assigned numeric id
//	GET   /lists/{id}   one list or 404
//	PATCH /lists/{id}   {name} and/or {movies}; empty patch, malformed JSON or duplicates -> 400
//
// Write-fault injection answers every POST and PATCH with 503 so client rollbacks can be exercised by hand.
//
// # Middleware
//
// [RequestID] propagates or assigns an X-Request-ID, [RequestLogger] logs one structured line per request and
// [Recovery] turns panics into 500 responses.
package server
