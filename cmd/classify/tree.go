package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/jacentio/classtree/hierarchy"
)

type treeNode struct {
	ID       string                       `json:"id"`
	Name     string                       `json:"name"`
	Direct   int                          `json:"direct"`
	Total    int                          `json:"total"`
	Kinds    map[hierarchy.ObjectKind]int `json:"kinds,omitempty"`
	Children []treeNode                   `json:"children,omitempty"`
}

// buildTree renders classes and their subtrees. Kind statistics are
// included when d is not nil.
func buildTree(ctx context.Context, r *hierarchy.Registry, classes []hierarchy.Class, d hierarchy.Describer) ([]treeNode, error) {
	nodes := make([]treeNode, 0, len(classes))
	for _, c := range classes {
		s, err := r.Summary(c.ID)
		if err != nil {
			return nil, err
		}
		node := treeNode{
			ID:     c.ID.String(),
			Name:   c.Name,
			Direct: s.Direct,
			Total:  s.Total,
		}
		if d != nil {
			kinds, err := r.KindBreakdown(ctx, c.ID, d)
			if err != nil {
				return nil, err
			}
			node.Kinds = kinds
		}
		node.Children, err = buildTree(ctx, r, r.ChildrenOf(c.ID), d)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, node)
	}
	return nodes, nil
}

// printTree writes one indented line per class: name (direct/total).
func printTree(w io.Writer, nodes []treeNode, depth int) {
	for _, n := range nodes {
		fmt.Fprintf(w, "%s%s (%d/%d)", strings.Repeat("  ", depth), n.Name, n.Direct, n.Total)
		for _, k := range hierarchy.SortedKinds(n.Kinds) {
			fmt.Fprintf(w, " %s:%d", k, n.Kinds[k])
		}
		fmt.Fprintln(w)
		printTree(w, n.Children, depth+1)
	}
}

// classPath returns the names from the root down to id, joined with " / ".
func classPath(r *hierarchy.Registry, id hierarchy.ClassID) string {
	var names []string
	for steps := 0; steps <= r.Len(); steps++ {
		c, err := r.Get(id)
		if err != nil {
			break
		}
		names = append(names, c.Name)
		if c.IsRoot() {
			break
		}
		id = c.ParentID
	}
	for i, j := 0, len(names)-1; i < j; i, j = i+1, j-1 {
		names[i], names[j] = names[j], names[i]
	}
	return strings.Join(names, " / ")
}
