package hierarchy

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/google/uuid"
)

// ChildrenOf returns the direct children of a class in sibling order.
func (r *Registry) ChildrenOf(id ClassID) []Class {
	if _, ok := r.classes[id]; !ok {
		return nil
	}
	return r.classesIn(r.order[id])
}

// RootClasses returns every class without a parent, in root order.
func (r *Registry) RootClasses() []Class {
	return r.classesIn(r.order[uuid.Nil])
}

// DescendantsOf returns every class below id in pre-order, children visited
// in sibling order (creation order unless moved). The class itself is not
// included.
func (r *Registry) DescendantsOf(id ClassID) []Class {
	if _, ok := r.classes[id]; !ok {
		return nil
	}
	var out []Class
	r.walk(id, func(n *node) {
		out = append(out, n.class())
	})
	return out
}

// AggregateMemberCount returns the members of a class plus those of all its
// descendants. Unknown ids count 0.
func (r *Registry) AggregateMemberCount(id ClassID) int {
	n, ok := r.classes[id]
	if !ok {
		return 0
	}
	total := len(n.members)
	r.walk(id, func(d *node) {
		total += len(d.members)
	})
	return total
}

// ObjectsInSubtree returns the members of a class and all its descendants,
// class by class in pre-order, each class's members sorted.
func (r *Registry) ObjectsInSubtree(id ClassID) []ObjectID {
	n, ok := r.classes[id]
	if !ok {
		return nil
	}
	out := n.class().Members
	r.walk(id, func(d *node) {
		out = append(out, d.class().Members...)
	})
	return out
}

// Summary describes a class for an info panel.
type Summary struct {
	Class Class

	// Direct is the number of objects owned by the class itself.
	Direct int

	// Total includes the objects of all descendants.
	Total int

	// Descendants in pre-order.
	Descendants []Class
}

// Summary returns the counts and descendants of a class.
func (r *Registry) Summary(id ClassID) (Summary, error) {
	n, ok := r.classes[id]
	if !ok {
		return Summary{}, notFound(id)
	}
	s := Summary{
		Class:       n.class(),
		Direct:      len(n.members),
		Descendants: r.DescendantsOf(id),
	}
	s.Total = s.Direct
	for _, d := range s.Descendants {
		s.Total += len(d.Members)
	}
	return s, nil
}

// Search returns the classes whose name contains term, ignoring case, in
// pre-order. An empty term matches every class.
func (r *Registry) Search(term string) []Class {
	folded := foldName(term)
	var out []Class
	r.walk(uuid.Nil, func(n *node) {
		if folded == "" || strings.Contains(foldName(n.name), folded) {
			out = append(out, n.class())
		}
	})
	return out
}

// KindBreakdown counts the objects of a class and its descendants by kind.
// Objects the store no longer has are skipped.
func (r *Registry) KindBreakdown(ctx context.Context, id ClassID, d Describer) (map[ObjectKind]int, error) {
	if _, ok := r.classes[id]; !ok {
		return nil, notFound(id)
	}

	stats := make(map[ObjectKind]int)
	var errs []error
	for _, obj := range r.ObjectsInSubtree(id) {
		info, ok, err := d.Describe(ctx, obj)
		if err != nil {
			errs = append(errs, fmt.Errorf("describe object %s: %w", obj, err))
			continue
		}
		if !ok {
			continue
		}
		kind := info.Kind
		if kind == "" {
			kind = KindOther
		}
		stats[kind]++
	}
	return stats, errors.Join(errs...)
}

// SortedKinds returns the kinds of a breakdown by descending count, ties
// broken by name.
func SortedKinds(stats map[ObjectKind]int) []ObjectKind {
	kinds := make([]ObjectKind, 0, len(stats))
	for k := range stats {
		kinds = append(kinds, k)
	}
	slices.SortFunc(kinds, func(a, b ObjectKind) int {
		if stats[a] != stats[b] {
			return stats[b] - stats[a]
		}
		return strings.Compare(string(a), string(b))
	})
	return kinds
}

func (r *Registry) classesIn(ids []ClassID) []Class {
	out := make([]Class, 0, len(ids))
	for _, id := range ids {
		out = append(out, r.classes[id].class())
	}
	return out
}
