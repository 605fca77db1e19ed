// Package ui provides the terminal interface for readshelf.
//
// The UI is a Bubble Tea program with three views:
//
//   - Shelves: the library grouped into Want to Read, Read and Abandoned
//     tabs. Records can be moved between shelves and rated once read.
//   - Recommendations: books suggested by the service. Enter adds the
//     highlighted book to Want to Read.
//   - Log: a tail of the structured log file.
//
// The model never mutates the library directly. Moves and ratings are staged
// on a library.Mutator, which applies them to the store at once, and then
// committed in a tea.Cmd. A failed commit rolls the record back and the
// error is shown on the status line.
package ui
