package model

import (
	"errors"
	"fmt"
)

// Sentinel errors returned by services and stores. Handlers map these to
// HTTP status codes; callers test them with errors.Is.
var (
	ErrNotFound         = errors.New("not found")
	ErrValidation       = errors.New("validation error")
	ErrInvalidOperation = errors.New("invalid operation")
	ErrDuplicateRequest = errors.New("duplicate request")
	ErrAlreadyFriends   = errors.New("already friends")
	ErrInvalidState     = errors.New("invalid state")
	ErrUnauthorized     = errors.New("unauthorized")
	ErrUnauthenticated  = errors.New("unauthenticated")
)

// ErrInfrastructure marks failures of the underlying store or transport.
// The original cause is preserved for logging; callers should not retry here.
var ErrInfrastructure = errors.New("infrastructure error")

// Infra wraps a store/transport failure so it is distinguishable from the
// domain taxonomy above. A nil err returns nil.
func Infra(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %v", ErrInfrastructure, err)
}

// IsInfra reports whether err is an infrastructure failure.
func IsInfra(err error) bool { return errors.Is(err, ErrInfrastructure) }
