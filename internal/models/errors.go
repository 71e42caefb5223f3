package models

import (
	"errors"
	"fmt"
)

// ErrDuplicateMessageID is returned by a store when inserting a message whose
// randomly drawn id collides with an existing message. The create-message
// retry loop regenerates the id on exactly this error; everything else aborts.
var ErrDuplicateMessageID = errors.New("duplicate message id")

// EntityNotFoundError reports a single-entity lookup that matched no row.
type EntityNotFoundError struct {
	EntityName string
	EntityID   any
}

func (e *EntityNotFoundError) Error() string {
	return fmt.Sprintf("%s with id %v not found", e.EntityName, e.EntityID)
}

func NewEntityNotFound(name string, id any) *EntityNotFoundError {
	return &EntityNotFoundError{EntityName: name, EntityID: id}
}

// DuplicateEntityError reports a uniqueness violation on create.
type DuplicateEntityError struct {
	EntityName string
	EntityID   any
}

func (e *DuplicateEntityError) Error() string {
	return fmt.Sprintf("%s with id %v already exists", e.EntityName, e.EntityID)
}

func NewDuplicateEntity(name string, id any) *DuplicateEntityError {
	return &DuplicateEntityError{EntityName: name, EntityID: id}
}

// PermissionDeniedError reports a guard failure on an entity that exists.
type PermissionDeniedError struct {
	Action string
}

func (e *PermissionDeniedError) Error() string {
	return "requires permission to " + e.Action
}

func NewPermissionDenied(action string) *PermissionDeniedError {
	return &PermissionDeniedError{Action: action}
}
