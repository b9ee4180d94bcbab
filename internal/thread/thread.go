// Package thread turns a snippet's flat comment list into a forest of reply
// trees.
//
// The comment table stores no tree — just rows with an optional parent_id.
// Build is the single grouping pass that recovers the structure, and it runs
// in full every time the flat list changes; there is no incremental update.
// Keeping it a pure function (same input, isomorphic output, no I/O) is what
// makes the rendering layer trivial to test.
package thread

import "github.com/codewaltz/codewaltz/internal/model"

// Node wraps one comment and its ordered replies.
type Node struct {
	Comment  model.Comment
	Children []*Node
}

// Build assembles the forest from a flat comment list.
//
// Two passes, both in input order:
//
//  1. index every comment id to a fresh node with empty children
//  2. attach each node to its parent's children, or to the root list when it
//     has no parent reference — or when the reference doesn't resolve
//
// Sibling order therefore equals input order. Callers must hand in comments
// in the order they should display (the repository returns them created-at
// ascending, so replies read chronologically within each parent).
//
// A comment whose parent_id points at an id absent from the input is
// promoted to a root, silently. This is deliberate: a half-fetched or
// historically inconsistent thread still renders every comment rather than
// dropping orphaned branches. Build never fails.
//
// Duplicate ids are tolerated: the later comment's node wins the index slot,
// but every input element still lands in the forest exactly once, because
// attachment walks the input, not the index.
func Build(comments []model.Comment) []*Node {
	index := make(map[string]*Node, len(comments))
	nodes := make([]*Node, len(comments))
	for i, c := range comments {
		n := &Node{Comment: c}
		nodes[i] = n
		index[c.ID] = n
	}

	roots := make([]*Node, 0, len(comments))
	for _, n := range nodes {
		parentID := n.Comment.ParentID
		if parentID != "" {
			if parent, ok := index[parentID]; ok && parent != n {
				parent.Children = append(parent.Children, n)
				continue
			}
		}
		roots = append(roots, n)
	}

	return roots
}

// FlatNode is one entry of a depth-annotated preorder walk — what a renderer
// iterates to draw the thread with indentation, and what cursor navigation
// moves over.
type FlatNode struct {
	Node  *Node
	Depth int
}

// Flatten walks the forest depth-first, parents before children, siblings in
// order, annotating each node with its depth. Depth is unbounded; it is the
// renderer's job to cap indentation, not the data's.
func Flatten(roots []*Node) []FlatNode {
	out := make([]FlatNode, 0, len(roots))
	var walk func(n *Node, depth int)
	walk = func(n *Node, depth int) {
		out = append(out, FlatNode{Node: n, Depth: depth})
		for _, child := range n.Children {
			walk(child, depth+1)
		}
	}
	for _, r := range roots {
		walk(r, 0)
	}
	return out
}

// Size counts the nodes in a forest. Build guarantees Size(Build(c)) == len(c).
func Size(roots []*Node) int {
	total := 0
	for _, r := range roots {
		total += 1 + Size(r.Children)
	}
	return total
}
