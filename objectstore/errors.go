package objectstore

import "errors"

var (
	// ErrObjectNotFound is returned when an object doesn't exist or is deleted (has TTL <= now).
	ErrObjectNotFound = errors.New("classtree: object not found")

	// ErrObjectExists is returned when attempting to create an object with an existing ID.
	ErrObjectExists = errors.New("classtree: object already exists")
)
