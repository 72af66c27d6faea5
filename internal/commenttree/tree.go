// Package commenttree regroups the flat comment list of one article into root
// comments, each carrying a single level of replies, ready for linear rendering.
package commenttree

import (
	"slices"

	"curator/internal/models"
)

// Node is a root comment with its flattened replies. Replies is nil when the
// root has none.
type Node struct {
	models.Comment
	Replies []models.Comment `json:"replies,omitempty"`
}

func (n Node) HasReplies() bool {
	return len(n.Replies) > 0
}

type group struct {
	root    models.Comment
	replies []models.Comment
}

// Build turns comments into an ordered forest of depth at most one.
//
// Replies to replies are attached to the root of their parent. When the
// parent of a comment is itself a reply whose own parent is not a root, the
// parent is promoted to head a new group and the comment becomes its reply.
// Comments whose parent is missing from the input become roots. Every input
// comment appears exactly once in the result. Roots and the replies of each
// root are ordered by CreatedAt ascending; ties keep input order.
func Build(comments []models.Comment) []Node {
	byID := make(map[uint]models.Comment, len(comments))
	for _, c := range comments {
		if _, dup := byID[c.ID]; !dup {
			byID[c.ID] = c
		}
	}

	groups := make(map[uint]*group)
	order := make([]*group, 0)
	addGroup := func(root models.Comment) *group {
		g := &group{root: root}
		groups[root.ID] = g
		order = append(order, g)
		return g
	}

	for _, c := range comments {
		if c.ParentCommentID == nil {
			addGroup(c)
		}
	}

	// promoted holds replies that were moved up to head their own group.
	promoted := make(map[uint]struct{})
	for _, c := range comments {
		if c.ParentCommentID == nil {
			continue
		}
		if _, ok := groups[c.ID]; ok {
			continue
		}

		parentID := *c.ParentCommentID
		if g, ok := groups[parentID]; ok {
			g.replies = append(g.replies, c)
			continue
		}

		parent, found := byID[parentID]
		if !found {
			addGroup(c)
			continue
		}

		if parent.ParentCommentID != nil {
			if g, ok := groups[*parent.ParentCommentID]; ok {
				g.replies = append(g.replies, c)
				continue
			}
		}

		g := addGroup(parent)
		promoted[parent.ID] = struct{}{}
		g.replies = append(g.replies, c)
	}

	nodes := make([]Node, 0, len(order))
	for _, g := range order {
		n := Node{Comment: clone(g.root)}
		for _, r := range g.replies {
			if _, ok := promoted[r.ID]; ok {
				continue
			}
			n.Replies = append(n.Replies, clone(r))
		}
		slices.SortStableFunc(n.Replies, byCreatedAt)
		nodes = append(nodes, n)
	}
	slices.SortStableFunc(nodes, func(a, b Node) int {
		return byCreatedAt(a.Comment, b.Comment)
	})

	return nodes
}

// Count returns the number of comments held by nodes, roots included.
func Count(nodes []Node) int {
	total := 0
	for _, n := range nodes {
		total += 1 + len(n.Replies)
	}
	return total
}

func byCreatedAt(a, b models.Comment) int {
	return a.CreatedAt.Compare(b.CreatedAt)
}

func clone(c models.Comment) models.Comment {
	if c.ParentCommentID != nil {
		pid := *c.ParentCommentID
		c.ParentCommentID = &pid
	}
	return c
}
