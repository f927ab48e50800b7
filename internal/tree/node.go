package tree

import (
	"github.com/google/uuid"

	"kisah-comments/internal/domain"
)

// Node is one comment in the nested view. Nodes are never mutated after they
// are handed out; every change produces a new node along the changed path.
type Node struct {
	domain.Comment
	ContentHTML   string  `json:"content_html,omitempty"`
	LikedByViewer bool    `json:"liked_by_viewer"`
	Replies       []*Node `json:"replies"`
}

func NewNode(c domain.Comment, likedByViewer bool) *Node {
	return &Node{
		Comment:       c,
		LikedByViewer: likedByViewer,
		Replies:       []*Node{},
	}
}

func (n *Node) clone() *Node {
	cp := *n
	if cp.UpdatedAt != nil {
		t := *cp.UpdatedAt
		cp.UpdatedAt = &t
	}
	return &cp
}

// Location describes where a node sits: its parent (nil for top level) and
// its index within the parent's reply list.
type Location struct {
	Node     *Node
	ParentID *uuid.UUID
	Index    int
}

func Locate(nodes []*Node, id uuid.UUID) (Location, bool) {
	return locate(nodes, nil, id)
}

func locate(nodes []*Node, parent *uuid.UUID, id uuid.UUID) (Location, bool) {
	for i, n := range nodes {
		if n.ID == id {
			return Location{Node: n, ParentID: parent, Index: i}, true
		}
		pid := n.ID
		if loc, ok := locate(n.Replies, &pid, id); ok {
			return loc, true
		}
	}
	return Location{}, false
}

func Find(nodes []*Node, id uuid.UUID) *Node {
	loc, ok := Locate(nodes, id)
	if !ok {
		return nil
	}
	return loc.Node
}

// SubtreeIDs lists n and every descendant, pre-order.
func SubtreeIDs(n *Node) []uuid.UUID {
	ids := []uuid.UUID{n.ID}
	for _, r := range n.Replies {
		ids = append(ids, SubtreeIDs(r)...)
	}
	return ids
}

func Count(nodes []*Node) int {
	total := 0
	for _, n := range nodes {
		total += 1 + Count(n.Replies)
	}
	return total
}

// Walk visits nodes depth-first; returning false from fn stops the walk.
func Walk(nodes []*Node, fn func(n *Node, depth int) bool) {
	walk(nodes, 0, fn)
}

func walk(nodes []*Node, depth int, fn func(n *Node, depth int) bool) bool {
	for _, n := range nodes {
		if !fn(n, depth) {
			return false
		}
		if !walk(n.Replies, depth+1, fn) {
			return false
		}
	}
	return true
}
