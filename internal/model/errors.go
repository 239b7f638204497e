package model

import "errors"

// Common errors used across the application
var (
	// Account errors
	ErrAccountNotFound = errors.New("account not found")
	ErrAccountActive   = errors.New("account already has an active session")

	// Join errors
	ErrInvalidAuth = errors.New("invalid auth")

	// Protocol errors
	ErrUnknownMessage = errors.New("unknown message type")
	ErrInvalidMessage = errors.New("invalid message payload")
)
