package hierarchy

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var (
	// ErrNotFound is returned when a referenced class doesn't exist.
	ErrNotFound = errors.New("classtree: class not found")

	// ErrValidation is returned when a class name is empty after trimming.
	ErrValidation = errors.New("classtree: invalid class name")

	// ErrSelfParent is returned when a class is made its own parent.
	ErrSelfParent = errors.New("classtree: class cannot be its own parent")

	// ErrCycle is returned when a reparent would make a class its own ancestor.
	ErrCycle = errors.New("classtree: reparent would create a cycle")

	// ErrSyncWrite is returned when the external tag write failed.
	// The in-memory change that triggered the write is not rolled back.
	ErrSyncWrite = errors.New("classtree: tag write failed")

	// ErrInboxClosed is returned when posting to a closed Inbox.
	ErrInboxClosed = errors.New("classtree: inbox closed")
)

// SyncError reports a failed tag write for a single object.
type SyncError struct {
	ObjectID ObjectID
	// ClassID is the tag that was being written; uuid.Nil for a clear.
	ClassID ClassID
	Err     error
}

func (e *SyncError) Error() string {
	if e.ClassID == uuid.Nil {
		return fmt.Sprintf("%v: clear tag on object %s: %v", ErrSyncWrite, e.ObjectID, e.Err)
	}
	return fmt.Sprintf("%v: tag object %s with %s: %v", ErrSyncWrite, e.ObjectID, e.ClassID, e.Err)
}

func (e *SyncError) Unwrap() error { return e.Err }

// Is makes every SyncError match ErrSyncWrite.
func (e *SyncError) Is(target error) bool { return target == ErrSyncWrite }

func notFound(id ClassID) error {
	return fmt.Errorf("%w: %s", ErrNotFound, id)
}
