package hierarchy

import (
	"fmt"

	"github.com/google/uuid"
)

// Reparent makes newParentID the parent of classID, moving its whole subtree.
// A newParentID of uuid.Nil turns the class into a root. On error the
// registry is unchanged.
func (r *Registry) Reparent(classID, newParentID ClassID) error {
	if err := r.checkReparent(classID, newParentID); err != nil {
		return err
	}

	n := r.classes[classID]
	if n.parentID == newParentID {
		return nil
	}
	r.move(n, newParentID, len(r.order[newParentID]))
	return nil
}

// checkReparent validates a parent change without mutating anything.
func (r *Registry) checkReparent(classID, newParentID ClassID) error {
	if _, ok := r.classes[classID]; !ok {
		return notFound(classID)
	}
	if newParentID == uuid.Nil {
		return nil
	}
	if _, ok := r.classes[newParentID]; !ok {
		return notFound(newParentID)
	}
	if newParentID == classID {
		return fmt.Errorf("%w: %s", ErrSelfParent, classID)
	}
	if r.isAncestor(classID, newParentID) {
		return fmt.Errorf("%w: %s is an ancestor of %s", ErrCycle, classID, newParentID)
	}
	return nil
}

// isAncestor reports whether candidate appears on the parent chain of id.
// The walk is bounded by the number of classes so a corrupted chain cannot
// loop forever; exceeding the bound counts as a cycle.
func (r *Registry) isAncestor(candidate, id ClassID) bool {
	current := id
	for steps := 0; current != uuid.Nil; steps++ {
		if current == candidate || steps > len(r.classes) {
			return true
		}
		n, ok := r.classes[current]
		if !ok {
			return false
		}
		current = n.parentID
	}
	return false
}

// move re-links n under newParentID at position pos of its child list.
func (r *Registry) move(n *node, newParentID ClassID, pos int) {
	oldParentID := n.parentID
	r.unlink(n.id, oldParentID)
	r.link(n.id, newParentID, pos)
	n.parentID = newParentID

	r.logger.Debug("class reparented",
		"classID", n.id,
		"from", oldParentID,
		"to", newParentID,
	)
}
