package serverdb

import "errors"

// ErrServerNotFound indicates the server row does not exist. Callers that
// tolerate unregistered servers (the identity resolver) map this to the
// configured default game instead of failing the event.
var ErrServerNotFound = errors.New("server not found")
