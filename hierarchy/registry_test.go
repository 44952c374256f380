package hierarchy_test

import (
	"context"
	"errors"
	"reflect"
	"slices"
	"testing"

	"github.com/google/uuid"

	"github.com/jacentio/classtree/hierarchy"
)

// --- Config Tests ---

func TestDefaultConfig(t *testing.T) {
	cfg := hierarchy.DefaultConfig()

	if cfg.DeletePolicy != hierarchy.UnassignMembers {
		t.Errorf("expected DeletePolicy unassign-members, got %s", cfg.DeletePolicy)
	}
	if cfg.NewID == nil {
		t.Error("expected non-nil NewID")
	}
}

func TestNew_ZeroConfig(t *testing.T) {
	r := hierarchy.New(nil, hierarchy.Config{}, nil)
	if r == nil {
		t.Fatal("expected non-nil Registry")
	}

	// Zero config falls back to uuid.New and the no-op adapter
	id := mustCreate(t, r, "Walls")
	if id == uuid.Nil {
		t.Error("expected generated id")
	}
	if err := r.AssignObject(context.Background(), "obj1", id); err != nil {
		t.Errorf("expected no error with NopSync, got %v", err)
	}
}

// --- CreateClass Tests ---

func TestCreateClass(t *testing.T) {
	r, _ := newRegistry(t)

	id := mustCreate(t, r, "Walls")
	c := mustGet(t, r, id)

	if c.Name != "Walls" {
		t.Errorf("expected name 'Walls', got %q", c.Name)
	}
	if !c.IsRoot() {
		t.Error("expected new class to be a root")
	}
	if len(c.Members) != 0 {
		t.Errorf("expected no members, got %v", c.Members)
	}
	if r.Len() != 1 {
		t.Errorf("expected 1 class, got %d", r.Len())
	}
}

func TestCreateClass_TrimsName(t *testing.T) {
	r, _ := newRegistry(t)

	id := mustCreate(t, r, "  Windows \t")
	if got := mustGet(t, r, id).Name; got != "Windows" {
		t.Errorf("expected 'Windows', got %q", got)
	}
}

func TestCreateClass_NormalizesName(t *testing.T) {
	r, _ := newRegistry(t)

	// Fullwidth letters fold to ASCII under NFKC
	id := mustCreate(t, r, "Ｗａｌｌｓ")
	if got := mustGet(t, r, id).Name; got != "Walls" {
		t.Errorf("expected 'Walls', got %q", got)
	}
}

func TestCreateClass_BlankName(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"spaces", "   "},
		{"tabs and newlines", "\t\n"},
		{"ideographic space", "　"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, _ := newRegistry(t)

			id, err := r.CreateClass(tt.input)
			if !errors.Is(err, hierarchy.ErrValidation) {
				t.Errorf("expected ErrValidation, got %v", err)
			}
			if id != uuid.Nil {
				t.Errorf("expected nil id, got %s", id)
			}
			if r.Len() != 0 {
				t.Errorf("expected empty registry, got %d classes", r.Len())
			}
		})
	}
}

func TestCreateClass_UniqueIDs(t *testing.T) {
	r, _ := newRegistry(t)

	seen := make(map[hierarchy.ClassID]bool)
	for i := 0; i < 100; i++ {
		id := mustCreate(t, r, "Class")
		if seen[id] {
			t.Fatalf("duplicate id %s", id)
		}
		seen[id] = true
	}
}

func TestCreateClass_NeverReusesDeletedID(t *testing.T) {
	fixed := uuid.MustParse("11111111-1111-1111-1111-111111111111")
	next := uuid.MustParse("22222222-2222-2222-2222-222222222222")
	calls := 0
	cfg := hierarchy.DefaultConfig()
	cfg.NewID = func() uuid.UUID {
		calls++
		if calls <= 2 {
			return fixed
		}
		return next
	}
	r := hierarchy.New(newFakeSync(), cfg, nil)

	first := mustCreate(t, r, "First")
	if first != fixed {
		t.Fatalf("expected %s, got %s", fixed, first)
	}
	if err := r.DeleteClass(context.Background(), first); err != nil {
		t.Fatalf("DeleteClass: %v", err)
	}

	// Generator hands out the retired id again; the registry must skip it
	second := mustCreate(t, r, "Second")
	if second == fixed {
		t.Error("expected retired id to be skipped")
	}
	if second != next {
		t.Errorf("expected %s, got %s", next, second)
	}
}

func TestCreateClass_GeneratorExhausted(t *testing.T) {
	cfg := hierarchy.DefaultConfig()
	cfg.NewID = func() uuid.UUID { return uuid.Nil }
	r := hierarchy.New(newFakeSync(), cfg, nil)

	if _, err := r.CreateClass("Walls"); err == nil {
		t.Error("expected error when no usable id can be generated")
	}
	if r.Len() != 0 {
		t.Errorf("expected empty registry, got %d", r.Len())
	}
}

// --- RenameClass Tests ---

func TestRenameClass(t *testing.T) {
	r, _ := newRegistry(t)
	id := mustCreate(t, r, "Walls")

	if err := r.RenameClass(id, " Exterior Walls "); err != nil {
		t.Fatalf("RenameClass: %v", err)
	}
	if got := mustGet(t, r, id).Name; got != "Exterior Walls" {
		t.Errorf("expected 'Exterior Walls', got %q", got)
	}
}

func TestRenameClass_Errors(t *testing.T) {
	r, _ := newRegistry(t)
	id := mustCreate(t, r, "Walls")

	if err := r.RenameClass(uuid.New(), "Other"); !errors.Is(err, hierarchy.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if err := r.RenameClass(id, "  "); !errors.Is(err, hierarchy.ErrValidation) {
		t.Errorf("expected ErrValidation, got %v", err)
	}
	if got := mustGet(t, r, id).Name; got != "Walls" {
		t.Errorf("expected name unchanged, got %q", got)
	}
}

// --- DeleteClass Tests ---

func TestDeleteClass_PromotesChildren(t *testing.T) {
	r, _ := newRegistry(t)
	c := mustCreate(t, r, "Parent")
	d1 := mustCreate(t, r, "Child 1")
	d2 := mustCreate(t, r, "Child 2")
	g := mustCreate(t, r, "Grandchild")
	mustReparent(t, r, d1, c)
	mustReparent(t, r, d2, c)
	mustReparent(t, r, g, d1)

	if err := r.DeleteClass(context.Background(), c); err != nil {
		t.Fatalf("DeleteClass: %v", err)
	}

	if slices.Contains(ids(r.ListClasses()), c) {
		t.Error("expected deleted class to be absent from ListClasses")
	}
	if !mustGet(t, r, d1).IsRoot() || !mustGet(t, r, d2).IsRoot() {
		t.Error("expected direct children to be promoted to roots")
	}
	if got := mustGet(t, r, g).ParentID; got != d1 {
		t.Errorf("expected grandchild to keep parent %s, got %s", d1, got)
	}
	if got := ids(r.RootClasses()); !reflect.DeepEqual(got, []hierarchy.ClassID{d1, d2}) {
		t.Errorf("expected roots [d1 d2], got %v", got)
	}
	if _, err := r.Get(c); !errors.Is(err, hierarchy.ErrNotFound) {
		t.Errorf("expected ErrNotFound for deleted class, got %v", err)
	}
}

func TestDeleteClass_Unknown(t *testing.T) {
	r, fs := newRegistry(t)
	mustCreate(t, r, "Walls")
	before := r.Snapshot()

	if err := r.DeleteClass(context.Background(), uuid.New()); err != nil {
		t.Errorf("expected no error for unknown class, got %v", err)
	}
	if !reflect.DeepEqual(before, r.Snapshot()) {
		t.Error("expected registry unchanged")
	}
	if fs.notified != 0 {
		t.Errorf("expected no notification, got %d", fs.notified)
	}
}

func TestDeleteClass_UnassignsMembers(t *testing.T) {
	r, fs := newRegistry(t)
	w := mustCreate(t, r, "Walls")
	mustAssign(t, r, "obj1", w)
	mustAssign(t, r, "obj2", w)

	if err := r.DeleteClass(context.Background(), w); err != nil {
		t.Fatalf("DeleteClass: %v", err)
	}

	if _, ok := r.ClassOf("obj1"); ok {
		t.Error("expected obj1 to have no class")
	}
	if len(fs.tags) != 0 {
		t.Errorf("expected all tags cleared, got %v", fs.tags)
	}
}

func TestDeleteClass_KeepTags(t *testing.T) {
	fs := newFakeSync()
	cfg := hierarchy.DefaultConfig()
	cfg.DeletePolicy = hierarchy.KeepTags
	r := hierarchy.New(fs, cfg, nil)

	w := mustCreate(t, r, "Walls")
	mustAssign(t, r, "obj1", w)

	if err := r.DeleteClass(context.Background(), w); err != nil {
		t.Fatalf("DeleteClass: %v", err)
	}

	if _, ok := r.ClassOf("obj1"); ok {
		t.Error("expected index entry to go with the class")
	}
	if fs.tags["obj1"] != w {
		t.Errorf("expected stale tag %s to remain, got %s", w, fs.tags["obj1"])
	}
}

func TestDeleteClass_SkipsMissingMembers(t *testing.T) {
	r, fs := newRegistry(t)
	w := mustCreate(t, r, "Walls")
	mustAssign(t, r, "obj1", w)
	fs.missing["obj1"] = true
	writes := len(fs.writes)

	if err := r.DeleteClass(context.Background(), w); err != nil {
		t.Fatalf("DeleteClass: %v", err)
	}
	if len(fs.writes) != writes {
		t.Errorf("expected no tag write for missing object, got %v", fs.writes[writes:])
	}
}

func TestDeleteClass_SyncFailure(t *testing.T) {
	r, fs := newRegistry(t)
	w := mustCreate(t, r, "Walls")
	mustAssign(t, r, "obj1", w)
	mustAssign(t, r, "obj2", w)
	fs.tagErr = errors.New("store offline")

	err := r.DeleteClass(context.Background(), w)
	if !errors.Is(err, hierarchy.ErrSyncWrite) {
		t.Fatalf("expected ErrSyncWrite, got %v", err)
	}

	// Deletion is committed regardless
	if r.Len() != 0 {
		t.Errorf("expected class deleted, got %d classes", r.Len())
	}
	var syncErr *hierarchy.SyncError
	if !errors.As(err, &syncErr) {
		t.Fatalf("expected *SyncError, got %T", err)
	}
	if syncErr.ClassID != uuid.Nil {
		t.Errorf("expected clear (nil class), got %s", syncErr.ClassID)
	}
}

// --- AssignObject Tests ---

func TestAssignObject(t *testing.T) {
	r, fs := newRegistry(t)
	w := mustCreate(t, r, "Walls")

	mustAssign(t, r, "obj1", w)

	if got := mustGet(t, r, w).Members; !reflect.DeepEqual(got, []hierarchy.ObjectID{"obj1"}) {
		t.Errorf("expected members [obj1], got %v", got)
	}
	if owner, ok := r.ClassOf("obj1"); !ok || owner != w {
		t.Errorf("expected owner %s, got %s (ok=%v)", w, owner, ok)
	}
	if fs.tags["obj1"] != w {
		t.Errorf("expected tag %s, got %s", w, fs.tags["obj1"])
	}
	if fs.notified != 1 {
		t.Errorf("expected 1 notification, got %d", fs.notified)
	}
}

func TestAssignObject_MovesBetweenClasses(t *testing.T) {
	r, fs := newRegistry(t)
	c1 := mustCreate(t, r, "C1")
	c2 := mustCreate(t, r, "C2")

	mustAssign(t, r, "o", c1)
	mustAssign(t, r, "o", c2)

	if contains(mustGet(t, r, c1).Members, "o") {
		t.Error("expected o removed from c1")
	}
	if !contains(mustGet(t, r, c2).Members, "o") {
		t.Error("expected o in c2")
	}
	if owner, _ := r.ClassOf("o"); owner != c2 {
		t.Errorf("expected index to point at c2, got %s", owner)
	}
	if fs.tags["o"] != c2 {
		t.Errorf("expected tag c2, got %s", fs.tags["o"])
	}
}

func TestAssignObject_SameClassTwice(t *testing.T) {
	r, fs := newRegistry(t)
	w := mustCreate(t, r, "Walls")

	mustAssign(t, r, "obj1", w)
	mustAssign(t, r, "obj1", w)

	if got := len(mustGet(t, r, w).Members); got != 1 {
		t.Errorf("expected 1 member, got %d", got)
	}
	if len(fs.writes) != 2 {
		t.Errorf("expected tag rewritten on repeat assignment, got %d writes", len(fs.writes))
	}
}

func TestAssignObject_UnknownClass(t *testing.T) {
	r, fs := newRegistry(t)
	c1 := mustCreate(t, r, "C1")
	mustAssign(t, r, "o", c1)
	before := r.Snapshot()
	writes := len(fs.writes)

	err := r.AssignObject(context.Background(), "o", uuid.New())
	if !errors.Is(err, hierarchy.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	// No detach from the previous owner either
	if !reflect.DeepEqual(before, r.Snapshot()) {
		t.Error("expected registry unchanged")
	}
	if len(fs.writes) != writes {
		t.Error("expected no tag write")
	}
}

func TestAssignObject_MissingObjectSkipped(t *testing.T) {
	r, fs := newRegistry(t)
	w := mustCreate(t, r, "Walls")
	fs.missing["gone"] = true

	if err := r.AssignObject(context.Background(), "gone", w); err != nil {
		t.Errorf("expected silent skip, got %v", err)
	}
	if _, ok := r.ClassOf("gone"); ok {
		t.Error("expected missing object to stay unassigned")
	}
	if len(fs.writes) != 0 {
		t.Errorf("expected no tag writes, got %v", fs.writes)
	}
}

func TestAssignObject_ExistenceCheckFailure(t *testing.T) {
	r, fs := newRegistry(t)
	w := mustCreate(t, r, "Walls")
	fs.existsErr = errors.New("timeout")

	// Treated as present
	mustAssign(t, r, "obj1", w)
	if owner, _ := r.ClassOf("obj1"); owner != w {
		t.Errorf("expected owner %s, got %s", w, owner)
	}
}

func TestAssignObject_SyncFailureKeepsState(t *testing.T) {
	r, fs := newRegistry(t)
	w := mustCreate(t, r, "Walls")
	storeErr := errors.New("throttled")
	fs.tagErr = storeErr

	err := r.AssignObject(context.Background(), "obj1", w)
	if !errors.Is(err, hierarchy.ErrSyncWrite) {
		t.Errorf("expected ErrSyncWrite, got %v", err)
	}
	if !errors.Is(err, storeErr) {
		t.Errorf("expected underlying store error, got %v", err)
	}
	if owner, _ := r.ClassOf("obj1"); owner != w {
		t.Error("expected membership committed despite tag failure")
	}
	if fs.notified != 1 {
		t.Errorf("expected redraw hint even on failure, got %d", fs.notified)
	}
}

// --- UnassignObject Tests ---

func TestUnassignObject(t *testing.T) {
	r, fs := newRegistry(t)
	w := mustCreate(t, r, "Walls")
	mustAssign(t, r, "obj1", w)

	if err := r.UnassignObject(context.Background(), "obj1"); err != nil {
		t.Fatalf("UnassignObject: %v", err)
	}

	if len(mustGet(t, r, w).Members) != 0 {
		t.Error("expected no members")
	}
	if _, ok := r.ClassOf("obj1"); ok {
		t.Error("expected no owner")
	}
	if _, tagged := fs.tags["obj1"]; tagged {
		t.Error("expected tag cleared")
	}
}

func TestUnassignObject_NoOwner(t *testing.T) {
	r, fs := newRegistry(t)
	mustCreate(t, r, "Walls")

	if err := r.UnassignObject(context.Background(), "stranger"); err != nil {
		t.Errorf("expected no error, got %v", err)
	}
	if len(fs.writes) != 0 || fs.notified != 0 {
		t.Error("expected no external calls for a no-op")
	}
}

func TestUnassignObject_SyncFailure(t *testing.T) {
	r, fs := newRegistry(t)
	w := mustCreate(t, r, "Walls")
	mustAssign(t, r, "obj1", w)
	fs.tagErr = errors.New("denied")

	err := r.UnassignObject(context.Background(), "obj1")
	if !errors.Is(err, hierarchy.ErrSyncWrite) {
		t.Errorf("expected ErrSyncWrite, got %v", err)
	}
	if _, ok := r.ClassOf("obj1"); ok {
		t.Error("expected membership removed despite tag failure")
	}
}

// --- Prune Tests ---

func TestPrune(t *testing.T) {
	r, fs := newRegistry(t)
	w := mustCreate(t, r, "Walls")
	mustAssign(t, r, "a", w)
	mustAssign(t, r, "b", w)
	mustAssign(t, r, "c", w)
	fs.missing["a"] = true
	fs.missing["c"] = true
	writes := len(fs.writes)

	removed, err := r.Prune(context.Background())
	if err != nil {
		t.Fatalf("Prune: %v", err)
	}
	if !reflect.DeepEqual(removed, []hierarchy.ObjectID{"a", "c"}) {
		t.Errorf("expected [a c] removed, got %v", removed)
	}
	if got := mustGet(t, r, w).Members; !reflect.DeepEqual(got, []hierarchy.ObjectID{"b"}) {
		t.Errorf("expected [b] left, got %v", got)
	}
	if len(fs.writes) != writes {
		t.Error("expected Prune not to write tags")
	}
}

func TestPrune_ExistenceErrorKeepsObject(t *testing.T) {
	r, fs := newRegistry(t)
	w := mustCreate(t, r, "Walls")
	mustAssign(t, r, "a", w)
	fs.existsErr = errors.New("unavailable")

	removed, err := r.Prune(context.Background())
	if err == nil {
		t.Error("expected error")
	}
	if len(removed) != 0 {
		t.Errorf("expected nothing removed, got %v", removed)
	}
	if _, ok := r.ClassOf("a"); !ok {
		t.Error("expected object kept")
	}
}

// --- Listing Tests ---

func TestListClasses_PreOrder(t *testing.T) {
	r, _ := newRegistry(t)
	a := mustCreate(t, r, "A")
	b := mustCreate(t, r, "B")
	a1 := mustCreate(t, r, "A1")
	a2 := mustCreate(t, r, "A2")
	mustReparent(t, r, a1, a)
	mustReparent(t, r, a2, a)

	got := ids(r.ListClasses())
	want := []hierarchy.ClassID{a, a1, a2, b}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestListClasses_ReturnsCopies(t *testing.T) {
	r, _ := newRegistry(t)
	w := mustCreate(t, r, "Walls")
	mustAssign(t, r, "obj1", w)

	list := r.ListClasses()
	list[0].Name = "Mutated"
	list[0].Members[0] = "other"

	c := mustGet(t, r, w)
	if c.Name != "Walls" || c.Members[0] != "obj1" {
		t.Error("expected snapshot mutation not to leak into the registry")
	}
}

// --- Scenario Tests ---

func TestScenario_WallsAndWindows(t *testing.T) {
	r, _ := newRegistry(t)
	w := mustCreate(t, r, "Walls")
	wn := mustCreate(t, r, "Windows")
	mustReparent(t, r, wn, w)
	mustAssign(t, r, "obj1", wn)

	if got := ids(r.ChildrenOf(w)); !reflect.DeepEqual(got, []hierarchy.ClassID{wn}) {
		t.Errorf("expected ChildrenOf(W) == [Wn], got %v", got)
	}
	if got := r.AggregateMemberCount(w); got != 1 {
		t.Errorf("expected AggregateMemberCount(W) == 1, got %d", got)
	}
	if owner, _ := r.ClassOf("obj1"); owner != wn {
		t.Errorf("expected index[obj1] == Wn, got %s", owner)
	}

	// Continue: bounce obj1 through W and back
	mustAssign(t, r, "obj1", w)
	mustAssign(t, r, "obj1", wn)

	if !contains(mustGet(t, r, wn).Members, "obj1") {
		t.Error("expected obj1 in Wn")
	}
	if contains(mustGet(t, r, w).Members, "obj1") {
		t.Error("expected obj1 not in W")
	}
	if owner, _ := r.ClassOf("obj1"); owner != wn {
		t.Errorf("expected index[obj1] == Wn, got %s", owner)
	}
}
