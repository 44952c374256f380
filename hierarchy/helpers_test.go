package hierarchy_test

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/jacentio/classtree/hierarchy"
)

// --- Test Sync Adapter ---

type tagWrite struct {
	ObjectID hierarchy.ObjectID
	ClassID  hierarchy.ClassID
}

// fakeSync records tag writes in memory.
type fakeSync struct {
	tags     map[hierarchy.ObjectID]hierarchy.ClassID
	missing  map[hierarchy.ObjectID]bool
	writes   []tagWrite
	notified int

	// tagErr fails every TagObject call when set.
	tagErr error
	// existsErr fails every ObjectExists call when set.
	existsErr error
}

func newFakeSync() *fakeSync {
	return &fakeSync{
		tags:    make(map[hierarchy.ObjectID]hierarchy.ClassID),
		missing: make(map[hierarchy.ObjectID]bool),
	}
}

func (f *fakeSync) TagObject(_ context.Context, obj hierarchy.ObjectID, id hierarchy.ClassID) error {
	f.writes = append(f.writes, tagWrite{ObjectID: obj, ClassID: id})
	if f.tagErr != nil {
		return f.tagErr
	}
	if id == uuid.Nil {
		delete(f.tags, obj)
	} else {
		f.tags[obj] = id
	}
	return nil
}

func (f *fakeSync) ObjectExists(_ context.Context, obj hierarchy.ObjectID) (bool, error) {
	if f.existsErr != nil {
		return false, f.existsErr
	}
	return !f.missing[obj], nil
}

func (f *fakeSync) NotifyChanged(context.Context) {
	f.notified++
}

// fakeDescriber reports kinds from a fixed table.
type fakeDescriber map[hierarchy.ObjectID]hierarchy.ObjectKind

func (d fakeDescriber) Describe(_ context.Context, obj hierarchy.ObjectID) (hierarchy.ObjectInfo, bool, error) {
	kind, ok := d[obj]
	if !ok {
		return hierarchy.ObjectInfo{}, false, nil
	}
	return hierarchy.ObjectInfo{ID: obj, Kind: kind}, true, nil
}

// --- Helpers ---

func newRegistry(t *testing.T) (*hierarchy.Registry, *fakeSync) {
	t.Helper()
	fs := newFakeSync()
	return hierarchy.New(fs, hierarchy.DefaultConfig(), nil), fs
}

func mustCreate(t *testing.T, r *hierarchy.Registry, name string) hierarchy.ClassID {
	t.Helper()
	id, err := r.CreateClass(name)
	if err != nil {
		t.Fatalf("CreateClass(%q): %v", name, err)
	}
	return id
}

func mustReparent(t *testing.T, r *hierarchy.Registry, id, parent hierarchy.ClassID) {
	t.Helper()
	if err := r.Reparent(id, parent); err != nil {
		t.Fatalf("Reparent: %v", err)
	}
}

func mustAssign(t *testing.T, r *hierarchy.Registry, obj hierarchy.ObjectID, id hierarchy.ClassID) {
	t.Helper()
	if err := r.AssignObject(context.Background(), obj, id); err != nil {
		t.Fatalf("AssignObject(%s): %v", obj, err)
	}
}

func mustGet(t *testing.T, r *hierarchy.Registry, id hierarchy.ClassID) hierarchy.Class {
	t.Helper()
	c, err := r.Get(id)
	if err != nil {
		t.Fatalf("Get(%s): %v", id, err)
	}
	return c
}

func ids(classes []hierarchy.Class) []hierarchy.ClassID {
	out := make([]hierarchy.ClassID, 0, len(classes))
	for _, c := range classes {
		out = append(out, c.ID)
	}
	return out
}

func names(classes []hierarchy.Class) []string {
	out := make([]string, 0, len(classes))
	for _, c := range classes {
		out = append(out, c.Name)
	}
	return out
}

func contains(objs []hierarchy.ObjectID, obj hierarchy.ObjectID) bool {
	for _, o := range objs {
		if o == obj {
			return true
		}
	}
	return false
}
