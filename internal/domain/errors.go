package domain

import "errors"

// Failure taxonomy shared by the client packages. Callers classify
// with errors.Is; the wrapped message carries the human-readable part.
var (
	ErrAuth          = errors.New("no valid credential")
	ErrNotFound      = errors.New("room not found")
	ErrRegistry      = errors.New("registry call failed")
	ErrTransport     = errors.New("transport failed")
	ErrNotConnected  = errors.New("sync channel not connected")
	ErrAuthorization = errors.New("permission denied")
)
