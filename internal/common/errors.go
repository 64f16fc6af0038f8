// Package common defines shared constants and sentinel errors used across
// the Framez client layers. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Table/query errors.
	ErrNotFound  = errors.New("not found")
	ErrDuplicate = errors.New("duplicate key")

	// Auth operation errors, mapped from backend responses.
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailNotConfirmed  = errors.New("email not confirmed")
	ErrAlreadyRegistered  = errors.New("already registered")
	ErrUnauthorized       = errors.New("unauthorized")

	// Transport / flow-control errors.
	ErrUnavailable = errors.New("backend unavailable")
	ErrRateLimited = errors.New("rate limited")
)
