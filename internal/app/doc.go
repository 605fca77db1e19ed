// Package app wires readshelf together.
//
// Wire builds the API client, the library store, the recommendation list
// and the mutator that connects them. Run loads the library once, starts a
// Refresher and hands everything to the UI. The Refresher reloads on a
// fixed interval, backs off after failures and waits while any mutation is
// in flight.
//
// PrintShelves is the non-interactive path used by the shelves command.
package app
