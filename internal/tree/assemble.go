package tree

import (
	"bytes"
	"sort"

	"github.com/google/uuid"

	"kisah-comments/internal/domain"
)

type Option func(*options)

type options struct {
	render func(string) string
}

// WithRenderer fills ContentHTML for every node using render.
func WithRenderer(render func(string) string) Option {
	return func(o *options) {
		o.render = render
	}
}

// Assemble turns a flat comment list into the nested forest for one subject.
// liked holds the ids the viewer has liked; nil means an anonymous viewer.
// Every level is ordered newest first. Comments that cannot be reached from a
// top-level comment are left out.
func Assemble(comments []domain.Comment, liked map[uuid.UUID]bool, opts ...Option) []*Node {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	var roots []domain.Comment
	children := make(map[uuid.UUID][]domain.Comment)
	for _, c := range comments {
		if c.ParentID == nil {
			roots = append(roots, c)
			continue
		}
		children[*c.ParentID] = append(children[*c.ParentID], c)
	}

	seen := make(map[uuid.UUID]bool, len(comments))
	return build(roots, children, liked, &o, seen)
}

func build(level []domain.Comment, children map[uuid.UUID][]domain.Comment, liked map[uuid.UUID]bool, o *options, seen map[uuid.UUID]bool) []*Node {
	SortNewestFirst(level)

	nodes := make([]*Node, 0, len(level))
	for _, c := range level {
		if seen[c.ID] {
			continue
		}
		seen[c.ID] = true

		n := NewNode(c, liked[c.ID])
		if o.render != nil {
			n.ContentHTML = o.render(c.Content)
		}
		n.Replies = build(children[c.ID], children, liked, o, seen)
		nodes = append(nodes, n)
	}
	return nodes
}

// SortNewestFirst orders comments by creation time descending, breaking ties
// on id so the result does not depend on store iteration order.
func SortNewestFirst(comments []domain.Comment) {
	sort.SliceStable(comments, func(i, j int) bool {
		a, b := comments[i], comments[j]
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return bytes.Compare(a.ID[:], b.ID[:]) > 0
	})
}
