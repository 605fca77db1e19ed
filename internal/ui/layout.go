package ui

import "time"

// Terminal width thresholds for responsive layouts.
const (
	// LayoutCompactWidth is the threshold below which compact mode is used.
	LayoutCompactWidth = 100
)

// Log display limits.
const (
	// LogTailLines is the number of lines read from the end of the log file.
	LogTailLines = 500
)

// Timing constants.
const (
	// DefaultUIInterval is the default UI refresh interval.
	DefaultUIInterval = time.Second

	// StatusMessageTTL is how long a success message stays on the status line.
	StatusMessageTTL = 5 * time.Second

	// ReloadTimeout bounds a user-triggered reload.
	ReloadTimeout = 30 * time.Second
)

// ratingStep is the increment for +/- rating keys.
const ratingStep = 0.5
