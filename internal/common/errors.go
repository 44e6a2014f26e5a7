// Package common defines shared constants and sentinel errors used across
// client and server layers of losskeeper. Callers should use errors.Is to
// match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")

	// ErrStorageUnavailable marks any failure of the local durable store
	// (disk full, file locked, driver error). It is never retried automatically.
	ErrStorageUnavailable = errors.New("local storage unavailable")

	// ErrRemoteUnavailable marks transient transport failures: the server is
	// unreachable, timed out, or asked us to slow down.
	ErrRemoteUnavailable = errors.New("server unavailable")

	// Service-level errors.
	ErrInternal     = errors.New("internal error")
	ErrUnauthorized = errors.New("unauthorized")
	ErrValidation   = errors.New("validation error")

	// Auth errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")

	// Token lifecycle errors.
	ErrTokenExpired        = errors.New("token expired")
	ErrRefreshTokenExpired = errors.New("refresh token expired")
)
