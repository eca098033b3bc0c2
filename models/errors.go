package models

import "errors"

// Sentinel errors shared by the store, service and controller layers.
// Handlers translate them into HTTP statuses with errors.Is.
var (
	ErrStorage            = errors.New("storage failure")
	ErrAccountCreation    = errors.New("account creation failed")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrNotFound           = errors.New("not found")
	ErrUpstream           = errors.New("upstream service failure")
	ErrCorruptHash        = errors.New("stored password hash is malformed")
	ErrValidation         = errors.New("validation failed")
	ErrUnavailable        = errors.New("feature not configured")
)
