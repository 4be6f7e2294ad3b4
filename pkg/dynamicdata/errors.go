package dynamicdata

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownProperty is returned when a source is asked for a property id
	// it never declared.
	ErrUnknownProperty = errors.New("dynamicdata: bad property id")
	// ErrSourceNotFound is returned when a source id is not registered.
	ErrSourceNotFound = errors.New("dynamicdata: datasource not found")
	// ErrDuplicateSource is returned when a source id is registered twice.
	ErrDuplicateSource = errors.New("dynamicdata: source already registered")
	// ErrAlreadyInitialized is returned when an adapter registers itself as a
	// source more than once.
	ErrAlreadyInitialized = errors.New("dynamicdata: source already initialized")
	// ErrInvalidSubscription is returned for subscriptions missing a source,
	// property, subscriber or callback.
	ErrInvalidSubscription = errors.New("dynamicdata: invalid subscription")
)

// UnknownProperty builds the error a source returns for an undeclared id.
func UnknownProperty(id string) error {
	return fmt.Errorf("%w: %q", ErrUnknownProperty, id)
}
