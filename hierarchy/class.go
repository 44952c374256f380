package hierarchy

import (
	"slices"

	"github.com/google/uuid"
)

// ClassID identifies a class. uuid.Nil means "no class" or "no parent".
type ClassID = uuid.UUID

// ObjectID is the opaque id of an externally owned object.
type ObjectID string

// Class is a read-only copy of a class node.
type Class struct {
	// ID is generated on creation and never changes.
	ID ClassID

	// Name is the trimmed, non-empty display name.
	Name string

	// ParentID is uuid.Nil for root classes.
	ParentID ClassID

	// Members is the sorted set of objects owned directly by the class.
	Members []ObjectID
}

// IsRoot reports whether the class has no parent.
func (c Class) IsRoot() bool {
	return c.ParentID == uuid.Nil
}

// Snapshot is a deep copy of registry state, comparable with reflect.DeepEqual.
type Snapshot struct {
	// Classes in pre-order over the forest.
	Classes []Class

	// Order maps each parent (uuid.Nil for roots) to its ordered children.
	Order map[ClassID][]ClassID

	// Owners is the object to class index.
	Owners map[ObjectID]ClassID
}

// node is the mutable registry record behind a Class.
type node struct {
	id       ClassID
	name     string
	parentID ClassID
	members  map[ObjectID]struct{}
}

func newNode(id ClassID, name string) *node {
	return &node{
		id:      id,
		name:    name,
		members: make(map[ObjectID]struct{}),
	}
}

// class copies the node into an exported Class.
func (n *node) class() Class {
	members := make([]ObjectID, 0, len(n.members))
	for obj := range n.members {
		members = append(members, obj)
	}
	slices.Sort(members)
	return Class{
		ID:       n.id,
		Name:     n.name,
		ParentID: n.parentID,
		Members:  members,
	}
}
