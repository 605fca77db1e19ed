// Package logtail reads the end of the application log for the log view.
//
// Read keeps a ring buffer of maxLines while scanning the file once, so memory
// stays O(maxLines) however large the file grows. A missing file is not an
// error; it reads as empty.
//
// The log is written by zap as one JSON object per line. Parse turns such a
// line into an Entry; lines that are not JSON come back as a bare message so
// nothing is hidden from the user.
package logtail
