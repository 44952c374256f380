package hierarchy

import (
	"context"
	"strings"
)

// SyncAdapter is the boundary to the external object store.
type SyncAdapter interface {
	// TagObject writes the persisted class tag on an object.
	// A classID of uuid.Nil clears the tag.
	TagObject(ctx context.Context, objectID ObjectID, classID ClassID) error

	// ObjectExists reports whether the object is still present in the store.
	ObjectExists(ctx context.Context, objectID ObjectID) (bool, error)

	// NotifyChanged hints that external presentation should refresh.
	NotifyChanged(ctx context.Context)
}

// Describer is implemented by stores that can describe their objects.
type Describer interface {
	// Describe returns the object's info, or false if it no longer exists.
	Describe(ctx context.Context, objectID ObjectID) (ObjectInfo, bool, error)
}

// ObjectKind is the geometry kind reported by the object store.
type ObjectKind string

const (
	KindCurve      ObjectKind = "curve"
	KindSurface    ObjectKind = "surface"
	KindPoint      ObjectKind = "point"
	KindMesh       ObjectKind = "mesh"
	KindBrep       ObjectKind = "brep"
	KindAnnotation ObjectKind = "annotation"
	KindOther      ObjectKind = "other"
)

// ParseKind maps a stored kind string to an ObjectKind.
// Unknown or empty values map to KindOther.
func ParseKind(s string) ObjectKind {
	switch k := ObjectKind(strings.ToLower(strings.TrimSpace(s))); k {
	case KindCurve, KindSurface, KindPoint, KindMesh, KindBrep, KindAnnotation:
		return k
	default:
		return KindOther
	}
}

// ObjectInfo is what a store tells the core about an object.
type ObjectInfo struct {
	ID          ObjectID
	Kind        ObjectKind
	Description string
}

// NopSync is a SyncAdapter for registries without an external store.
// Every object exists and every write succeeds.
type NopSync struct{}

func (NopSync) TagObject(context.Context, ObjectID, ClassID) error { return nil }

func (NopSync) ObjectExists(context.Context, ObjectID) (bool, error) { return true, nil }

func (NopSync) NotifyChanged(context.Context) {}
