package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidConfig indicates a provider or service configuration is
	// invalid. Raised at construction/load time and always fatal.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrNotConnected indicates a refresh was requested before the engine
	// received its catalog connection via Connect.
	ErrNotConnected = errors.New("engine not connected to catalog")

	// ErrDeltaUnconfigured indicates event-triggered delta refresh was
	// invoked without the catalog query API or token provider configured.
	// Logged once per engine instance, then delta events are silently
	// ignored.
	ErrDeltaUnconfigured = errors.New("delta refresh collaborators not configured")

	// ErrRateLimited indicates the hosting service API rate limit was
	// exceeded.
	ErrRateLimited = errors.New("rate limited")

	// Authentication Errors.

	// ErrAuthRequired indicates a collaborator requires authentication but
	// none is configured.
	ErrAuthRequired = errors.New("authentication required")

	// ErrAuthInvalid indicates the authentication credentials are invalid.
	ErrAuthInvalid = errors.New("authentication invalid")
)
