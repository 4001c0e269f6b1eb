package domain

import "errors"

var (
	// ErrValidation marks caller input that cannot be processed.
	ErrValidation = errors.New("validation error")

	// ErrNotFound marks a lookup that matched no row.
	ErrNotFound = errors.New("not found")

	// ErrConflict marks a state transition rejected by the store.
	ErrConflict = errors.New("conflict")

	// ErrChannelDisabled marks a send rejected because the channel's
	// feature flag is off.
	ErrChannelDisabled = errors.New("channel disabled")

	// ErrMissingConfig marks a send rejected because required transport
	// credentials are absent.
	ErrMissingConfig = errors.New("missing configuration")
)
