package playerdb

import "errors"

// Sentinel errors for the player repository layer. These report
// infrastructure-level outcomes (presence or absence of rows); the service
// layer decides whether absence fails the event or skips it.
var (
	// ErrPlayerNotFound indicates the requested player row does not exist.
	ErrPlayerNotFound = errors.New("player record not found")

	// ErrNoRowsAffected indicates an UPDATE matched no rows.
	ErrNoRowsAffected = errors.New("no rows affected")
)
