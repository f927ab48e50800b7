package repository

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kisah-comments/internal/domain"
)

type stepClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *stepClock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(time.Second)
	return c.t
}

func newTestStore() *memoryCommentRepository {
	clock := &stepClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	return newMemoryCommentRepository(clock.now)
}

func post(t *testing.T, repo CommentRepository, subject, author uuid.UUID, parent *uuid.UUID, content string) *domain.Comment {
	t.Helper()
	c := &domain.Comment{SubjectID: subject, AuthorID: author, ParentID: parent, Content: content}
	require.NoError(t, repo.Create(context.Background(), c))
	return c
}

func TestMemoryCommentRepository_Create(t *testing.T) {
	ctx := context.Background()
	repo := newTestStore()
	subject := uuid.New()
	author := uuid.New()

	t.Run("Assigns id and trims content", func(t *testing.T) {
		c := post(t, repo, subject, author, nil, "  hello  ")
		assert.NotEqual(t, uuid.Nil, c.ID)
		assert.Equal(t, "hello", c.Content)
		assert.False(t, c.CreatedAt.IsZero())
		assert.Nil(t, c.UpdatedAt)
		assert.Equal(t, 0, c.LikeCount)
	})

	t.Run("Empty content", func(t *testing.T) {
		err := repo.Create(ctx, &domain.Comment{SubjectID: subject, AuthorID: author, Content: " \n\t "})
		assert.ErrorIs(t, err, domain.ErrValidation)
		assert.ErrorIs(t, err, domain.ErrEmptyContent)
	})

	t.Run("Unknown parent", func(t *testing.T) {
		missing := uuid.New()
		err := repo.Create(ctx, &domain.Comment{SubjectID: subject, AuthorID: author, ParentID: &missing, Content: "x"})
		assert.ErrorIs(t, err, domain.ErrInvalidParent)
	})

	t.Run("Caller supplied id never replaces an existing comment", func(t *testing.T) {
		victim := post(t, repo, subject, author, nil, "original")
		intruder := &domain.Comment{ID: victim.ID, SubjectID: uuid.New(), AuthorID: uuid.New(), Content: "hijacked"}
		require.NoError(t, repo.Create(ctx, intruder))
		assert.NotEqual(t, victim.ID, intruder.ID)

		stored, err := repo.GetByID(ctx, victim.ID)
		require.NoError(t, err)
		assert.Equal(t, author, stored.AuthorID)
		assert.Equal(t, "original", stored.Content)
		assert.Equal(t, subject, stored.SubjectID)
	})

	t.Run("Cross subject parent", func(t *testing.T) {
		other := post(t, repo, uuid.New(), author, nil, "elsewhere")
		err := repo.Create(ctx, &domain.Comment{SubjectID: subject, AuthorID: author, ParentID: &other.ID, Content: "x"})
		assert.ErrorIs(t, err, domain.ErrValidation)

		count, err := repo.CountBySubject(ctx, subject)
		require.NoError(t, err)
		assert.Equal(t, int64(2), count)
	})
}

func TestMemoryCommentRepository_Edit(t *testing.T) {
	ctx := context.Background()
	repo := newTestStore()
	author := uuid.New()
	c := post(t, repo, uuid.New(), author, nil, "original")

	t.Run("Non author is rejected and nothing changes", func(t *testing.T) {
		_, err := repo.Edit(ctx, c.ID, uuid.New(), "hijacked")
		assert.ErrorIs(t, err, domain.ErrAuthorization)

		stored, err := repo.GetByID(ctx, c.ID)
		require.NoError(t, err)
		assert.Equal(t, "original", stored.Content)
		assert.Nil(t, stored.UpdatedAt)
	})

	t.Run("Missing comment", func(t *testing.T) {
		_, err := repo.Edit(ctx, uuid.New(), author, "x")
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("Empty content", func(t *testing.T) {
		_, err := repo.Edit(ctx, c.ID, author, "   ")
		assert.ErrorIs(t, err, domain.ErrValidation)
	})

	t.Run("Author edit sets updated at", func(t *testing.T) {
		edited, err := repo.Edit(ctx, c.ID, author, "changed")
		require.NoError(t, err)
		assert.Equal(t, "changed", edited.Content)
		require.NotNil(t, edited.UpdatedAt)
		assert.True(t, edited.UpdatedAt.After(edited.CreatedAt))
	})
}

func TestMemoryCommentRepository_Delete(t *testing.T) {
	ctx := context.Background()

	t.Run("Removes the subtree and reports every id", func(t *testing.T) {
		repo := newTestStore()
		subject := uuid.New()
		u := uuid.New()

		a := post(t, repo, subject, u, nil, "A")
		b := post(t, repo, subject, u, &a.ID, "B")
		c := post(t, repo, subject, u, &b.ID, "C")

		removed, err := repo.Delete(ctx, b.ID, u)
		require.NoError(t, err)
		assert.Equal(t, []uuid.UUID{b.ID, c.ID}, removed)

		left, err := repo.ListBySubject(ctx, subject)
		require.NoError(t, err)
		require.Len(t, left, 1)
		assert.Equal(t, a.ID, left[0].ID)
	})

	t.Run("Removed count is one plus descendants", func(t *testing.T) {
		repo := newTestStore()
		subject := uuid.New()
		u := uuid.New()

		root := post(t, repo, subject, u, nil, "root")
		keep := post(t, repo, subject, u, nil, "keep")
		parents := []uuid.UUID{root.ID}
		for i := 0; i < 12; i++ {
			p := parents[i%len(parents)]
			c := post(t, repo, subject, u, &p, "reply")
			parents = append(parents, c.ID)
		}
		post(t, repo, subject, u, &keep.ID, "untouched")

		before, _ := repo.CountBySubject(ctx, subject)
		removed, err := repo.Delete(ctx, root.ID, u)
		require.NoError(t, err)
		after, _ := repo.CountBySubject(ctx, subject)

		assert.Len(t, removed, 13)
		assert.Equal(t, before-13, after)
		assert.Equal(t, root.ID, removed[0])
	})

	t.Run("Non author cannot delete", func(t *testing.T) {
		repo := newTestStore()
		c := post(t, repo, uuid.New(), uuid.New(), nil, "mine")
		_, err := repo.Delete(ctx, c.ID, uuid.New())
		assert.ErrorIs(t, err, domain.ErrNotCommentAuthor)
		_, err = repo.GetByID(ctx, c.ID)
		assert.NoError(t, err)
	})

	t.Run("Second delete is not found", func(t *testing.T) {
		repo := newTestStore()
		u := uuid.New()
		c := post(t, repo, uuid.New(), u, nil, "once")
		_, err := repo.Delete(ctx, c.ID, u)
		require.NoError(t, err)
		_, err = repo.Delete(ctx, c.ID, u)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("Likes on removed comments disappear", func(t *testing.T) {
		repo := newTestStore()
		subject := uuid.New()
		u := uuid.New()
		c := post(t, repo, subject, u, nil, "liked")
		_, err := repo.ToggleLike(ctx, c.ID, u)
		require.NoError(t, err)

		_, err = repo.Delete(ctx, c.ID, u)
		require.NoError(t, err)

		liked, err := repo.LikedBySubject(ctx, subject, u)
		require.NoError(t, err)
		assert.Empty(t, liked)
	})
}

func TestMemoryCommentRepository_ToggleLike(t *testing.T) {
	ctx := context.Background()

	t.Run("Toggle twice restores the count", func(t *testing.T) {
		repo := newTestStore()
		subject := uuid.New()
		c := post(t, repo, subject, uuid.New(), nil, "like me")
		u := uuid.New()

		first, err := repo.ToggleLike(ctx, c.ID, u)
		require.NoError(t, err)
		assert.True(t, first.Liked)
		assert.Equal(t, 1, first.LikeCount)

		liked, err := repo.LikedBySubject(ctx, subject, u)
		require.NoError(t, err)
		assert.True(t, liked[c.ID])

		second, err := repo.ToggleLike(ctx, c.ID, u)
		require.NoError(t, err)
		assert.False(t, second.Liked)
		assert.Equal(t, 0, second.LikeCount)
	})

	t.Run("Missing comment", func(t *testing.T) {
		repo := newTestStore()
		_, err := repo.ToggleLike(ctx, uuid.New(), uuid.New())
		assert.ErrorIs(t, err, domain.ErrCommentNotFound)
	})

	t.Run("Concurrent likes from different users are all kept", func(t *testing.T) {
		repo := newTestStore()
		c := post(t, repo, uuid.New(), uuid.New(), nil, "popular")

		const users = 50
		var wg sync.WaitGroup
		for i := 0; i < users; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := repo.ToggleLike(ctx, c.ID, uuid.New())
				assert.NoError(t, err)
			}()
		}
		wg.Wait()

		stored, err := repo.GetByID(ctx, c.ID)
		require.NoError(t, err)
		assert.Equal(t, users, stored.LikeCount)
	})
}

func TestMemoryCommentRepository_ConcurrentDelete(t *testing.T) {
	ctx := context.Background()
	repo := newTestStore()
	u := uuid.New()
	root := post(t, repo, uuid.New(), u, nil, "root")
	post(t, repo, root.SubjectID, u, &root.ID, "child")

	var wg sync.WaitGroup
	results := make(chan error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := repo.Delete(ctx, root.ID, u)
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	var ok, notFound int
	for err := range results {
		switch {
		case err == nil:
			ok++
		case assert.ErrorIs(t, err, domain.ErrNotFound):
			notFound++
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, 1, notFound)
}
