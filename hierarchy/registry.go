package hierarchy

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/google/uuid"
)

// maxIDAttempts bounds id regeneration on collision with a live or retired id.
const maxIDAttempts = 16

// Registry owns all classes and the membership index.
type Registry struct {
	sync   SyncAdapter
	config Config
	logger *slog.Logger

	classes map[ClassID]*node
	// order maps a parent id (uuid.Nil for roots) to its ordered children.
	order   map[ClassID][]ClassID
	index   *membershipIndex
	retired map[ClassID]struct{}
}

// New creates an empty Registry mirroring membership through sync.
func New(sync SyncAdapter, config Config, logger *slog.Logger) *Registry {
	config.validate()
	if sync == nil {
		sync = NopSync{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		sync:    sync,
		config:  config,
		logger:  logger,
		classes: make(map[ClassID]*node),
		order:   make(map[ClassID][]ClassID),
		index:   newMembershipIndex(),
		retired: make(map[ClassID]struct{}),
	}
}

// CreateClass registers a new empty root class and returns its id.
func (r *Registry) CreateClass(name string) (ClassID, error) {
	normalized := normalizeName(name)
	if normalized == "" {
		return uuid.Nil, fmt.Errorf("%w: %q", ErrValidation, name)
	}

	id, err := r.newID()
	if err != nil {
		return uuid.Nil, err
	}

	r.classes[id] = newNode(id, normalized)
	r.order[uuid.Nil] = append(r.order[uuid.Nil], id)

	r.logger.Debug("class created", "classID", id, "name", normalized)
	return id, nil
}

// newID returns an id that was never used by this registry.
func (r *Registry) newID() (ClassID, error) {
	for range maxIDAttempts {
		id := r.config.NewID()
		if id == uuid.Nil {
			continue
		}
		if _, live := r.classes[id]; live {
			continue
		}
		if _, used := r.retired[id]; used {
			continue
		}
		return id, nil
	}
	return uuid.Nil, errors.New("classtree: could not allocate a unique class id")
}

// RenameClass replaces the name of an existing class.
func (r *Registry) RenameClass(id ClassID, newName string) error {
	n, ok := r.classes[id]
	if !ok {
		return notFound(id)
	}
	normalized := normalizeName(newName)
	if normalized == "" {
		return fmt.Errorf("%w: %q", ErrValidation, newName)
	}

	r.logger.Debug("class renamed", "classID", id, "from", n.name, "to", normalized)
	n.name = normalized
	return nil
}

// DeleteClass removes a class and promotes its direct children to roots.
// Unknown ids are ignored. Members are handled according to Config.DeletePolicy;
// tag clear failures are returned after the deletion is committed.
func (r *Registry) DeleteClass(ctx context.Context, id ClassID) error {
	n, ok := r.classes[id]
	if !ok {
		return nil
	}

	// 1. Drop members from the index together with the class
	members := n.class().Members
	for _, obj := range members {
		r.index.remove(obj)
	}

	// 2. Unlink from the parent's child list
	r.unlink(id, n.parentID)

	// 3. Promote children to roots, keeping their relative order
	children := r.order[id]
	for _, child := range children {
		r.classes[child].parentID = uuid.Nil
	}
	if len(children) > 0 {
		r.order[uuid.Nil] = append(r.order[uuid.Nil], children...)
	}
	delete(r.order, id)

	// 4. Discard the record
	delete(r.classes, id)
	r.retired[id] = struct{}{}

	r.logger.Debug("class deleted",
		"classID", id,
		"promotedChildren", len(children),
		"members", len(members),
		"policy", r.config.DeletePolicy,
	)

	// 5. Mirror externally
	var errs []error
	if r.config.DeletePolicy == UnassignMembers {
		for _, obj := range members {
			if err := r.clearTag(ctx, obj); err != nil {
				errs = append(errs, err)
			}
		}
	}
	r.sync.NotifyChanged(ctx)

	return errors.Join(errs...)
}

// AssignObject moves an object into a class, detaching it from its previous
// owner in the same step. Objects missing from the store are skipped.
func (r *Registry) AssignObject(ctx context.Context, objectID ObjectID, classID ClassID) error {
	target, ok := r.classes[classID]
	if !ok {
		return notFound(classID)
	}

	if !r.exists(ctx, objectID) {
		r.logger.Debug("skipping assignment of missing object",
			"objectID", objectID,
			"classID", classID,
		)
		return nil
	}

	prev, hadOwner := r.attach(objectID, target)
	if hadOwner && prev != classID {
		r.logger.Debug("object moved", "objectID", objectID, "from", prev, "to", classID)
	} else {
		r.logger.Debug("object assigned", "objectID", objectID, "classID", classID)
	}

	err := r.sync.TagObject(ctx, objectID, classID)
	r.sync.NotifyChanged(ctx)
	if err != nil {
		r.logger.Warn("failed to tag object",
			"objectID", objectID,
			"classID", classID,
			"error", err,
		)
		return &SyncError{ObjectID: objectID, ClassID: classID, Err: err}
	}
	return nil
}

// UnassignObject removes an object from its owning class and clears its tag.
// Objects without an owner are ignored.
func (r *Registry) UnassignObject(ctx context.Context, objectID ObjectID) error {
	prev, ok := r.detach(objectID)
	if !ok {
		return nil
	}
	r.logger.Debug("object unassigned", "objectID", objectID, "classID", prev)

	err := r.clearTag(ctx, objectID)
	r.sync.NotifyChanged(ctx)
	return err
}

// Prune drops members whose objects no longer exist in the store. Tags are
// not written. Objects whose existence could not be checked are kept.
func (r *Registry) Prune(ctx context.Context) ([]ObjectID, error) {
	objects := make([]ObjectID, 0, r.index.len())
	for obj := range r.index.owners {
		objects = append(objects, obj)
	}
	slices.Sort(objects)

	var removed []ObjectID
	var errs []error
	for _, obj := range objects {
		ok, err := r.sync.ObjectExists(ctx, obj)
		if err != nil {
			errs = append(errs, fmt.Errorf("check object %s: %w", obj, err))
			continue
		}
		if !ok {
			r.detach(obj)
			removed = append(removed, obj)
		}
	}

	if len(removed) > 0 {
		r.logger.Debug("pruned missing objects", "count", len(removed))
		r.sync.NotifyChanged(ctx)
	}
	return removed, errors.Join(errs...)
}

// Get returns a copy of a class.
func (r *Registry) Get(id ClassID) (Class, error) {
	n, ok := r.classes[id]
	if !ok {
		return Class{}, notFound(id)
	}
	return n.class(), nil
}

// ClassOf returns the class currently owning an object.
func (r *Registry) ClassOf(objectID ObjectID) (ClassID, bool) {
	return r.index.owner(objectID)
}

// Len returns the number of registered classes.
func (r *Registry) Len() int {
	return len(r.classes)
}

// ListClasses returns a snapshot of every class in pre-order over the forest.
// Callers must not depend on the order for correctness.
func (r *Registry) ListClasses() []Class {
	out := make([]Class, 0, len(r.classes))
	r.walk(uuid.Nil, func(n *node) {
		out = append(out, n.class())
	})
	return out
}

// Snapshot returns a deep copy of the registry state.
func (r *Registry) Snapshot() Snapshot {
	order := make(map[ClassID][]ClassID, len(r.order))
	for parent, children := range r.order {
		order[parent] = slices.Clone(children)
	}
	return Snapshot{
		Classes: r.ListClasses(),
		Order:   order,
		Owners:  r.index.copy(),
	}
}

// attach adds obj to target, removing it from its previous owner first.
func (r *Registry) attach(obj ObjectID, target *node) (ClassID, bool) {
	prev, hadOwner := r.index.owner(obj)
	if hadOwner && prev != target.id {
		delete(r.classes[prev].members, obj)
	}
	target.members[obj] = struct{}{}
	r.index.set(obj, target.id)
	return prev, hadOwner
}

// detach removes obj from its owner, if any.
func (r *Registry) detach(obj ObjectID) (ClassID, bool) {
	prev, ok := r.index.owner(obj)
	if !ok {
		return uuid.Nil, false
	}
	delete(r.classes[prev].members, obj)
	r.index.remove(obj)
	return prev, true
}

// exists asks the store whether an object is present.
// Lookup failures are logged and the object is treated as present.
func (r *Registry) exists(ctx context.Context, obj ObjectID) bool {
	ok, err := r.sync.ObjectExists(ctx, obj)
	if err != nil {
		r.logger.Warn("failed to check object existence", "objectID", obj, "error", err)
		return true
	}
	return ok
}

// clearTag clears the external tag of obj unless the object is gone.
func (r *Registry) clearTag(ctx context.Context, obj ObjectID) error {
	if !r.exists(ctx, obj) {
		r.logger.Debug("skipping tag clear on missing object", "objectID", obj)
		return nil
	}
	if err := r.sync.TagObject(ctx, obj, uuid.Nil); err != nil {
		r.logger.Warn("failed to clear object tag", "objectID", obj, "error", err)
		return &SyncError{ObjectID: obj, Err: err}
	}
	return nil
}

// walk visits the subtree below parent in pre-order, excluding parent itself.
func (r *Registry) walk(parent ClassID, fn func(*node)) {
	for _, id := range r.order[parent] {
		fn(r.classes[id])
		r.walk(id, fn)
	}
}
