package application

import "errors"

var (
	// ErrDevUnlockDisabled ...
	ErrDevUnlockDisabled = errors.New(
		"forced unlock is a development-only operation and is disabled",
	)
	// ErrMissingEntries ...
	ErrMissingEntries = errors.New("at least one slot entry is required")
)
