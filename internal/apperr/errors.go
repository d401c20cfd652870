// Package apperr defines the error taxonomy shared by the domain services.
// Errors are recovered at the request boundary and mapped to HTTP statuses.
package apperr

import (
	"errors"
	"fmt"
)

// NotFoundError indicates a referenced entity does not exist.
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("%s not found", e.Entity)
	}
	return fmt.Sprintf("%s not found: %s", e.Entity, e.ID)
}

// ForbiddenError indicates an authenticated caller lacks permission.
type ForbiddenError struct {
	Reason string
}

func (e *ForbiddenError) Error() string {
	if e.Reason == "" {
		return "not authorized"
	}
	return e.Reason
}

// ConflictError indicates a uniqueness invariant would be violated.
type ConflictError struct {
	Entity string
	Reason string
}

func (e *ConflictError) Error() string {
	if e.Reason != "" {
		return e.Reason
	}
	return fmt.Sprintf("%s already exists", e.Entity)
}

// UnauthenticatedError indicates a missing, invalid, or expired credential.
type UnauthenticatedError struct {
	Reason string
}

func (e *UnauthenticatedError) Error() string {
	if e.Reason == "" {
		return "not authenticated"
	}
	return e.Reason
}

// InvalidError indicates malformed input or a disallowed operation on the
// entity's current state.
type InvalidError struct {
	Field   string
	Message string
}

func (e *InvalidError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// NotFound returns a NotFoundError for the entity and id.
func NotFound(entity string, id fmt.Stringer) error {
	e := &NotFoundError{Entity: entity}
	if id != nil {
		e.ID = id.String()
	}
	return e
}

// Forbidden returns a ForbiddenError with the given reason.
func Forbidden(reason string) error {
	return &ForbiddenError{Reason: reason}
}

// Conflict returns a ConflictError with the given reason.
func Conflict(entity, reason string) error {
	return &ConflictError{Entity: entity, Reason: reason}
}

// Unauthenticated returns an UnauthenticatedError with the given reason.
func Unauthenticated(reason string) error {
	return &UnauthenticatedError{Reason: reason}
}

// Invalid returns an InvalidError for the field.
func Invalid(field, message string) error {
	return &InvalidError{Field: field, Message: message}
}

func IsNotFound(err error) bool {
	var e *NotFoundError
	return errors.As(err, &e)
}

func IsForbidden(err error) bool {
	var e *ForbiddenError
	return errors.As(err, &e)
}

func IsConflict(err error) bool {
	var e *ConflictError
	return errors.As(err, &e)
}

func IsUnauthenticated(err error) bool {
	var e *UnauthenticatedError
	return errors.As(err, &e)
}

func IsInvalid(err error) bool {
	var e *InvalidError
	return errors.As(err, &e)
}
