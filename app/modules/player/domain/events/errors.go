package gameevents

import "errors"

// ErrInvalidEventType marks an envelope that reached the wrong handler.
// Handlers reject it before any side effect.
var ErrInvalidEventType = errors.New("invalid event type")
