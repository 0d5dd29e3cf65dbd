package service

import "errors"

// Domain errors mapped to response codes by the handlers.
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrSessionInvalidated = errors.New("session invalidated")
	ErrSessionNotFound    = errors.New("assessment session not found")
	ErrSessionCompleted   = errors.New("assessment session already completed")
	ErrUnknownQuestion    = errors.New("unknown question")
	ErrResultNotReady     = errors.New("result not persisted yet")
)
