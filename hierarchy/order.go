package hierarchy

import (
	"slices"

	"github.com/google/uuid"
)

// MoveUp swaps a class with its previous sibling. No-op for the first sibling.
func (r *Registry) MoveUp(id ClassID) error {
	return r.shift(id, -1)
}

// MoveDown swaps a class with its next sibling. No-op for the last sibling.
func (r *Registry) MoveDown(id ClassID) error {
	return r.shift(id, 1)
}

// Indent makes a class the last child of its previous sibling.
// No-op for the first sibling.
func (r *Registry) Indent(id ClassID) error {
	n, ok := r.classes[id]
	if !ok {
		return notFound(id)
	}
	siblings := r.order[n.parentID]
	i := slices.Index(siblings, id)
	if i <= 0 {
		return nil
	}
	newParent := siblings[i-1]
	r.move(n, newParent, len(r.order[newParent]))
	return nil
}

// Outdent makes a class a sibling of its parent, placed right after it.
// No-op for roots.
func (r *Registry) Outdent(id ClassID) error {
	n, ok := r.classes[id]
	if !ok {
		return notFound(id)
	}
	if n.parentID == uuid.Nil {
		return nil
	}
	parent := r.classes[n.parentID]
	pos := slices.Index(r.order[parent.parentID], parent.id) + 1
	r.move(n, parent.parentID, pos)
	return nil
}

// SiblingIndex returns the position of a class among its siblings.
func (r *Registry) SiblingIndex(id ClassID) (int, error) {
	n, ok := r.classes[id]
	if !ok {
		return 0, notFound(id)
	}
	return slices.Index(r.order[n.parentID], id), nil
}

func (r *Registry) shift(id ClassID, delta int) error {
	n, ok := r.classes[id]
	if !ok {
		return notFound(id)
	}
	siblings := r.order[n.parentID]
	i := slices.Index(siblings, id)
	j := i + delta
	if i < 0 || j < 0 || j >= len(siblings) {
		return nil
	}
	siblings[i], siblings[j] = siblings[j], siblings[i]
	return nil
}

// link inserts id into parent's child list at pos, clamped to the list bounds.
func (r *Registry) link(id, parent ClassID, pos int) {
	children := r.order[parent]
	pos = max(0, min(pos, len(children)))
	r.order[parent] = slices.Insert(children, pos, id)
}

// unlink removes id from parent's child list, dropping the list when empty.
func (r *Registry) unlink(id, parent ClassID) {
	children := slices.DeleteFunc(r.order[parent], func(c ClassID) bool { return c == id })
	if len(children) == 0 {
		delete(r.order, parent)
		return
	}
	r.order[parent] = children
}
