// Package api provides an HTTP client for the reading service's library API.
//
// # Overview
//
// The client is the only part of readshelf that talks to the network. It
// handles request construction, bearer authorization, JSON encoding and
// decoding, and maps error responses into *APIError.
//
// # Endpoints
//
//   - GET /api/user-books: library entries ({id, bookId, status, rating})
//   - GET /api/books/{id}: canonical book details
//   - POST /api/user-books: create an entry from {book, status}
//   - PUT /api/user-books/{id}: partial update, {status} or {rating}
//   - GET /api/recommendations: generated recommendations
//
// # Sessions
//
// Credentials are passed in as a Session when the client is built:
//
//	client, err := api.NewClient(cfg.APIURL, api.Session{Token: cfg.Token}, api.Options{})
//
// The client never reads tokens from files or the environment on its own.
//
// # Author Normalization
//
// The service has shipped several author encodings over time ("author" as a
// string, "authors" as strings or {name} objects). Book.Details collapses
// them into one []string so nothing downstream needs to care.
//
// # Error Handling
//
//   - "execute request: dial tcp: connection refused"
//   - "api PUT /api/user-books/12 returned status 500: database unavailable"
//   - "decode response: unexpected end of JSON input"
//
// There are no retries here. The library mutator decides what a failure
// means (rollback), and the app refresher owns the reload cadence.
package api
