package hierarchy

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
)

// NotificationKind identifies an externally triggered change.
type NotificationKind int

const (
	// TagChanged reports that an object's tag was written outside the registry.
	TagChanged NotificationKind = iota + 1

	// ObjectRemoved reports that an object was deleted from the store.
	ObjectRemoved

	// ObjectChanged reports any other change to an object, such as a rename.
	ObjectChanged
)

func (k NotificationKind) String() string {
	switch k {
	case TagChanged:
		return "tag-changed"
	case ObjectRemoved:
		return "object-removed"
	case ObjectChanged:
		return "object-changed"
	default:
		return "unknown"
	}
}

// Notification is an external change waiting to be applied to a Registry.
type Notification struct {
	Kind     NotificationKind
	ObjectID ObjectID

	// ClassID is the new tag for TagChanged; uuid.Nil when it was cleared.
	ClassID ClassID
}

// Apply mirrors an external change into the registry. It must run on the
// registry's owner goroutine. Tags are never written back.
func (r *Registry) Apply(ctx context.Context, n Notification) error {
	switch n.Kind {
	case TagChanged:
		if n.ClassID == uuid.Nil {
			r.detach(n.ObjectID)
			break
		}
		target, ok := r.classes[n.ClassID]
		if !ok {
			return fmt.Errorf("apply tag on object %s: %w", n.ObjectID, notFound(n.ClassID))
		}
		r.attach(n.ObjectID, target)
	case ObjectRemoved:
		r.detach(n.ObjectID)
	case ObjectChanged:
	default:
		return fmt.Errorf("classtree: unknown notification kind %d", n.Kind)
	}

	r.logger.Debug("notification applied", "kind", n.Kind, "objectID", n.ObjectID, "classID", n.ClassID)
	r.sync.NotifyChanged(ctx)
	return nil
}

// Inbox is a single-consumer queue of notifications. Any goroutine may Post;
// only the registry's owner should Run or Drain.
type Inbox struct {
	ch        chan Notification
	done      chan struct{}
	closeOnce sync.Once
	logger    *slog.Logger
}

// NewInbox creates an Inbox buffering up to size notifications.
func NewInbox(size int, logger *slog.Logger) *Inbox {
	if size < 0 {
		size = 0
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Inbox{
		ch:     make(chan Notification, size),
		done:   make(chan struct{}),
		logger: logger,
	}
}

// Post queues a notification, blocking while the buffer is full.
func (i *Inbox) Post(ctx context.Context, n Notification) error {
	select {
	case <-i.done:
		return ErrInboxClosed
	default:
	}

	select {
	case i.ch <- n:
		return nil
	case <-i.done:
		return ErrInboxClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops accepting notifications. Queued ones can still be drained.
func (i *Inbox) Close() {
	i.closeOnce.Do(func() { close(i.done) })
}

// Len returns the number of queued notifications.
func (i *Inbox) Len() int {
	return len(i.ch)
}

// Drain applies every queued notification without blocking and returns how
// many were applied. Failures are logged and skipped.
func (i *Inbox) Drain(ctx context.Context, r *Registry) int {
	applied := 0
	for {
		select {
		case n := <-i.ch:
			if i.apply(ctx, r, n) {
				applied++
			}
		default:
			return applied
		}
	}
}

// Run applies notifications until ctx is done or the inbox is closed, in which
// case whatever is still queued is drained first.
func (i *Inbox) Run(ctx context.Context, r *Registry) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-i.done:
			i.Drain(ctx, r)
			return nil
		case n := <-i.ch:
			i.apply(ctx, r, n)
		}
	}
}

func (i *Inbox) apply(ctx context.Context, r *Registry, n Notification) bool {
	if err := r.Apply(ctx, n); err != nil {
		i.logger.Warn("failed to apply notification",
			"kind", n.Kind,
			"objectID", n.ObjectID,
			"error", err,
		)
		return false
	}
	return true
}
