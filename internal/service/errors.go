// Package service provides business logic for the sales deck API.
package service

import (
	"errors"

	"github.com/capitalize-ai/sales-deck/internal/repository"
)

var (
	// ErrNotAuthenticated means no session token was presented.
	ErrNotAuthenticated = errors.New("Not authenticated")
	// ErrInvalidSession means the token does not match a stored session.
	ErrInvalidSession = errors.New("Invalid session")
	// ErrSessionExpired means the session's expiry has passed.
	ErrSessionExpired = errors.New("Session expired")
	// ErrInvalidCallback means the identity provider rejected the callback token.
	ErrInvalidCallback = errors.New("Invalid session ID")
	// ErrEmptyUpdate means a partial update carried no fields.
	ErrEmptyUpdate = errors.New("No data to update")
)

// NotFoundError reports a missing record. It matches repository.ErrNotFound.
type NotFoundError struct {
	Resource string
}

func (e *NotFoundError) Error() string {
	return e.Resource + " not found"
}

// Is lets errors.Is(err, repository.ErrNotFound) succeed.
func (e *NotFoundError) Is(target error) bool {
	return target == repository.ErrNotFound
}

// notFound converts repository.ErrNotFound into a NotFoundError for resource.
func notFound(err error, resource string) error {
	if errors.Is(err, repository.ErrNotFound) {
		return &NotFoundError{Resource: resource}
	}
	return err
}
