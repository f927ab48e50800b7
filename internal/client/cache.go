package client

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"kisah-comments/internal/domain"
	"kisah-comments/internal/tree"
)

// TreeCache is one viewer's local copy of a subject's comment tree. Every
// action patches the tree immediately, then asks the server. The server's
// answer wins; a failed call applies the exact inverse of the local patch.
//
// The lock guards the root slice only and is never held across a network
// call. Each patch builds a new forest, so a Snapshot stays valid forever.
type TreeCache struct {
	api       Mutator
	subjectID uuid.UUID
	viewerID  uuid.UUID
	now       func() time.Time

	mu    sync.Mutex
	nodes []*tree.Node
}

func NewTreeCache(api Mutator, subjectID, viewerID uuid.UUID) *TreeCache {
	return &TreeCache{
		api:       api,
		subjectID: subjectID,
		viewerID:  viewerID,
		now:       time.Now,
		nodes:     []*tree.Node{},
	}
}

// Load replaces the local tree with the server's. Use it to resync after
// other users' changes.
func (c *TreeCache) Load(ctx context.Context) error {
	nodes, err := c.api.Tree(ctx, c.subjectID)
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.nodes = nodes
	c.mu.Unlock()
	return nil
}

func (c *TreeCache) Snapshot() []*tree.Node {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.nodes
}

func (c *TreeCache) Find(id uuid.UUID) *tree.Node {
	return tree.Find(c.Snapshot(), id)
}

// patch applies fn at id and reports whether the node was found.
func (c *TreeCache) patch(id uuid.UUID, fn tree.Transform) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	nodes, ok := tree.ApplyAtNode(c.nodes, id, fn)
	c.nodes = nodes
	return ok
}

func (c *TreeCache) provisional(content string, parentID *uuid.UUID) *tree.Node {
	return tree.NewNode(domain.Comment{
		ID:        uuid.New(),
		SubjectID: c.subjectID,
		AuthorID:  c.viewerID,
		ParentID:  parentID,
		Content:   content,
		CreatedAt: c.now().UTC(),
	}, false)
}

// Post adds a top-level comment.
func (c *TreeCache) Post(ctx context.Context, content string) (*tree.Node, error) {
	temp := c.provisional(content, nil)
	c.mu.Lock()
	c.nodes = tree.Prepend(c.nodes, temp)
	c.mu.Unlock()

	return c.confirm(ctx, temp, domain.CreateCommentInput{Content: content})
}

// Reply adds a reply under parentID, which must be in the local tree.
func (c *TreeCache) Reply(ctx context.Context, parentID uuid.UUID, content string) (*tree.Node, error) {
	pid := parentID
	temp := c.provisional(content, &pid)
	if !c.patch(parentID, tree.AddReply(temp)) {
		return nil, domain.ErrCommentNotFound
	}

	return c.confirm(ctx, temp, domain.CreateCommentInput{Content: content, ParentID: &pid})
}

func (c *TreeCache) confirm(ctx context.Context, temp *tree.Node, input domain.CreateCommentInput) (*tree.Node, error) {
	node, err := c.api.Post(ctx, c.subjectID, input)
	if err != nil {
		c.patch(temp.ID, tree.Remove())
		return nil, err
	}
	c.patch(temp.ID, tree.Replace(node))
	return node, nil
}

func (c *TreeCache) Edit(ctx context.Context, id uuid.UUID, content string) error {
	var prev *tree.Node
	c.patch(id, func(n *tree.Node) *tree.Node {
		prev = n
		return tree.SetContent(content, "", n.UpdatedAt)(n)
	})
	if prev == nil {
		return domain.ErrCommentNotFound
	}

	res, err := c.api.Edit(ctx, id, content)
	if err != nil {
		c.patch(id, tree.SetContent(prev.Content, prev.ContentHTML, prev.UpdatedAt))
		return err
	}
	updatedAt := res.UpdatedAt
	c.patch(id, tree.SetContent(res.Content, res.ContentHTML, &updatedAt))
	return nil
}

func (c *TreeCache) Delete(ctx context.Context, id uuid.UUID) error {
	c.mu.Lock()
	loc, ok := tree.Locate(c.nodes, id)
	if ok {
		c.nodes, _ = tree.ApplyAtNode(c.nodes, id, tree.Remove())
	}
	c.mu.Unlock()
	if !ok {
		return domain.ErrCommentNotFound
	}

	res, err := c.api.Delete(ctx, id)
	if err != nil {
		c.restore(loc)
		return err
	}

	// the server may know of descendants this viewer never loaded
	for _, removed := range res.RemovedIDs {
		c.patch(removed, tree.Remove())
	}
	return nil
}

func (c *TreeCache) restore(loc tree.Location) {
	if loc.ParentID == nil {
		c.mu.Lock()
		c.nodes = tree.InsertAt(c.nodes, loc.Index, loc.Node)
		c.mu.Unlock()
		return
	}
	if !c.patch(*loc.ParentID, tree.InsertReplyAt(loc.Index, loc.Node)) {
		slog.Debug("parent gone, dropping restored comment", "comment_id", loc.Node.ID)
	}
}

func (c *TreeCache) ToggleLike(ctx context.Context, id uuid.UUID) error {
	var delta int
	found := c.patch(id, func(n *tree.Node) *tree.Node {
		delta = 1
		if n.LikedByViewer {
			delta = -1
		}
		return flipLike(delta)(n)
	})
	if !found {
		return domain.ErrCommentNotFound
	}

	res, err := c.api.ToggleLike(ctx, id)
	if err != nil {
		c.patch(id, flipLike(-delta))
		return err
	}
	c.patch(id, tree.SetLike(res.Liked, res.LikeCount))
	return nil
}

// flipLike toggles the viewer's like and moves the count by delta.
func flipLike(delta int) tree.Transform {
	return func(n *tree.Node) *tree.Node {
		count := n.LikeCount + delta
		if count < 0 {
			count = 0
		}
		return tree.SetLike(!n.LikedByViewer, count)(n)
	}
}
