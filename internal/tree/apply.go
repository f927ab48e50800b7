package tree

import (
	"time"

	"github.com/google/uuid"
)

// Transform returns the replacement for the matched node. Returning nil
// removes the node together with its whole subtree.
type Transform func(n *Node) *Node

// ApplyAtNode replaces the node with id target by fn(node). Only the nodes on
// the path from the root to target are copied; every other subtree is shared
// with the input. The input slice is returned untouched when target is absent.
func ApplyAtNode(nodes []*Node, target uuid.UUID, fn Transform) ([]*Node, bool) {
	for i, n := range nodes {
		if n.ID == target {
			out := make([]*Node, 0, len(nodes))
			out = append(out, nodes[:i]...)
			if repl := fn(n); repl != nil {
				out = append(out, repl)
			}
			return append(out, nodes[i+1:]...), true
		}

		replies, ok := ApplyAtNode(n.Replies, target, fn)
		if !ok {
			continue
		}
		cp := n.clone()
		cp.Replies = replies

		out := make([]*Node, len(nodes))
		copy(out, nodes)
		out[i] = cp
		return out, true
	}
	return nodes, false
}

// Prepend adds a new top-level comment in front of the forest.
func Prepend(nodes []*Node, n *Node) []*Node {
	out := make([]*Node, 0, len(nodes)+1)
	out = append(out, n)
	return append(out, nodes...)
}

// InsertAt puts n at index i of nodes, clamping i to the valid range.
func InsertAt(nodes []*Node, i int, n *Node) []*Node {
	if i < 0 {
		i = 0
	}
	if i > len(nodes) {
		i = len(nodes)
	}
	out := make([]*Node, 0, len(nodes)+1)
	out = append(out, nodes[:i]...)
	out = append(out, n)
	return append(out, nodes[i:]...)
}

// AddReply puts reply first in the matched node's replies, keeping the newest
// first order.
func AddReply(reply *Node) Transform {
	return InsertReplyAt(0, reply)
}

func InsertReplyAt(i int, reply *Node) Transform {
	return func(n *Node) *Node {
		cp := n.clone()
		cp.Replies = InsertAt(n.Replies, i, reply)
		return cp
	}
}

func SetContent(content, contentHTML string, updatedAt *time.Time) Transform {
	return func(n *Node) *Node {
		cp := n.clone()
		cp.Content = content
		cp.ContentHTML = contentHTML
		if updatedAt == nil {
			cp.UpdatedAt = nil
		} else {
			t := *updatedAt
			cp.UpdatedAt = &t
		}
		return cp
	}
}

func SetLike(liked bool, likeCount int) Transform {
	return func(n *Node) *Node {
		cp := n.clone()
		cp.LikedByViewer = liked
		cp.LikeCount = likeCount
		return cp
	}
}

// Replace swaps the matched node for repl, keeping the matched node's replies
// when repl carries none.
func Replace(repl *Node) Transform {
	return func(n *Node) *Node {
		cp := repl.clone()
		if len(cp.Replies) == 0 {
			cp.Replies = n.Replies
		}
		if cp.Replies == nil {
			cp.Replies = []*Node{}
		}
		return cp
	}
}

func Remove() Transform {
	return func(*Node) *Node {
		return nil
	}
}
