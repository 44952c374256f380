// Package hierarchy provides an in-memory classification engine that partitions
// externally owned objects into a user-defined tree of named classes.
//
// Every object belongs to at most one class, every class has at most one
// parent, and the parent relation never forms a cycle. The [Registry] is the
// single source of truth during a session; membership is mirrored onto a
// per-object tag through a [SyncAdapter] implemented by the object store.
//
// # Key Features
//
//   - Exclusive membership with an O(1) object to class index
//   - Cycle-safe reparenting of whole subtrees
//   - Ordered siblings (move up/down, indent, outdent)
//   - Subtree queries: descendants, aggregate counts, kind statistics
//   - A single-consumer [Inbox] for externally triggered notifications
//
// # Usage
//
//	reg := hierarchy.New(adapter, hierarchy.DefaultConfig(), logger)
//	walls, _ := reg.CreateClass("Walls")
//	windows, _ := reg.CreateClass("Windows")
//	_ = reg.Reparent(windows, walls)
//	if err := reg.AssignObject(ctx, "obj-1", windows); errors.Is(err, hierarchy.ErrSyncWrite) {
//	    // membership is committed, the external tag is stale
//	}
//
// # Concurrency
//
// A Registry is not safe for concurrent use. It belongs to one owner
// goroutine; notifications from other goroutines go through an [Inbox]
// consumed by that owner.
//
// # Errors
//
//   - [ErrNotFound] - unknown class referenced
//   - [ErrValidation] - blank class name
//   - [ErrSelfParent] - class made its own parent
//   - [ErrCycle] - reparent would make a class its own ancestor
//   - [ErrSyncWrite] - external tag write failed (state is kept)
package hierarchy
