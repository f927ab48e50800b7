package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"kisah-comments/internal/domain"
)

type CommentRepository interface {
	Create(ctx context.Context, comment *domain.Comment) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Comment, error)
	Edit(ctx context.Context, id, byUserID uuid.UUID, content string) (*domain.Comment, error)
	Delete(ctx context.Context, id, byUserID uuid.UUID) ([]uuid.UUID, error)
	ToggleLike(ctx context.Context, id, userID uuid.UUID) (*domain.LikeResult, error)
	ListBySubject(ctx context.Context, subjectID uuid.UUID) ([]domain.Comment, error)
	LikedBySubject(ctx context.Context, subjectID, userID uuid.UUID) (map[uuid.UUID]bool, error)
	CountBySubject(ctx context.Context, subjectID uuid.UUID) (int64, error)
}

const commentColumns = `id, subject_id, author_id, parent_id, content, like_count, created_at, updated_at`

type commentRepository struct {
	db *sqlx.DB
}

func NewCommentRepository(db *sqlx.DB) CommentRepository {
	return &commentRepository{db: db}
}

func (r *commentRepository) Create(ctx context.Context, comment *domain.Comment) error {
	content, err := domain.NormalizeContent(comment.Content)
	if err != nil {
		return err
	}
	comment.Content = content
	comment.ID = uuid.New()

	return inSerializableTx(ctx, r.db, "create", func(tx *sqlx.Tx) error {
		if comment.ParentID != nil {
			var parentSubject uuid.UUID
			err := tx.GetContext(ctx, &parentSubject,
				`SELECT subject_id FROM comments WHERE id = $1 FOR SHARE`, *comment.ParentID)
			if errors.Is(err, sql.ErrNoRows) {
				return domain.ErrInvalidParent
			}
			if err != nil {
				return fmt.Errorf("failed to lock parent comment: %w", err)
			}
			if parentSubject != comment.SubjectID {
				return domain.ErrInvalidParent
			}
		}

		query := `
			INSERT INTO comments (id, subject_id, author_id, parent_id, content)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING like_count, created_at, updated_at`

		return tx.QueryRowxContext(ctx, query,
			comment.ID, comment.SubjectID, comment.AuthorID, comment.ParentID, comment.Content,
		).Scan(&comment.LikeCount, &comment.CreatedAt, &comment.UpdatedAt)
	})
}

func (r *commentRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Comment, error) {
	var comment domain.Comment
	query := `SELECT ` + commentColumns + ` FROM comments WHERE id = $1`
	err := r.db.GetContext(ctx, &comment, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrCommentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get comment: %w", err)
	}
	return &comment, nil
}

// lockOwned takes a row lock on the comment and checks its author.
func lockOwned(ctx context.Context, tx *sqlx.Tx, id, byUserID uuid.UUID) error {
	var authorID uuid.UUID
	err := tx.GetContext(ctx, &authorID, `SELECT author_id FROM comments WHERE id = $1 FOR UPDATE`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrCommentNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to lock comment: %w", err)
	}
	if authorID != byUserID {
		return domain.ErrNotCommentAuthor
	}
	return nil
}

func (r *commentRepository) Edit(ctx context.Context, id, byUserID uuid.UUID, content string) (*domain.Comment, error) {
	var updated domain.Comment
	err := inSerializableTx(ctx, r.db, "edit", func(tx *sqlx.Tx) error {
		if err := lockOwned(ctx, tx, id, byUserID); err != nil {
			return err
		}
		normalized, err := domain.NormalizeContent(content)
		if err != nil {
			return err
		}

		query := `
			UPDATE comments
			SET content = $2, updated_at = NOW()
			WHERE id = $1
			RETURNING ` + commentColumns
		return tx.QueryRowxContext(ctx, query, id, normalized).StructScan(&updated)
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

func (r *commentRepository) Delete(ctx context.Context, id, byUserID uuid.UUID) ([]uuid.UUID, error) {
	var removed []uuid.UUID
	err := inSerializableTx(ctx, r.db, "delete", func(tx *sqlx.Tx) error {
		if err := lockOwned(ctx, tx, id, byUserID); err != nil {
			return err
		}

		var subtree []uuid.UUID
		collect := `
			WITH RECURSIVE subtree AS (
				SELECT id, 0 AS depth FROM comments WHERE id = $1
				UNION ALL
				SELECT c.id, s.depth + 1
				FROM comments c
				INNER JOIN subtree s ON c.parent_id = s.id
			)
			SELECT id FROM subtree ORDER BY depth, id`
		if err := tx.SelectContext(ctx, &subtree, collect, id); err != nil {
			return fmt.Errorf("failed to collect subtree: %w", err)
		}

		ids := make(pq.StringArray, len(subtree))
		for i, cid := range subtree {
			ids[i] = cid.String()
		}

		// Locking the descendants makes a concurrent reply (which holds the
		// parent FOR SHARE) conflict with this delete instead of orphaning.
		if _, err := tx.ExecContext(ctx,
			`SELECT id FROM comments WHERE id = ANY($1::uuid[]) FOR UPDATE`, ids); err != nil {
			return fmt.Errorf("failed to lock subtree: %w", err)
		}

		var deleted []uuid.UUID
		if err := tx.SelectContext(ctx, &deleted,
			`DELETE FROM comments WHERE id = ANY($1::uuid[]) RETURNING id`, ids); err != nil {
			return fmt.Errorf("failed to delete subtree: %w", err)
		}

		gone := make(map[uuid.UUID]bool, len(deleted))
		for _, d := range deleted {
			gone[d] = true
		}
		removed = removed[:0]
		for _, cid := range subtree {
			if gone[cid] {
				removed = append(removed, cid)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return removed, nil
}

func (r *commentRepository) ToggleLike(ctx context.Context, id, userID uuid.UUID) (*domain.LikeResult, error) {
	var result domain.LikeResult
	err := inSerializableTx(ctx, r.db, "toggle_like", func(tx *sqlx.Tx) error {
		var count int
		err := tx.GetContext(ctx, &count, `SELECT like_count FROM comments WHERE id = $1 FOR UPDATE`, id)
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ErrCommentNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to lock comment: %w", err)
		}

		res, err := tx.ExecContext(ctx,
			`DELETE FROM comment_likes WHERE comment_id = $1 AND user_id = $2`, id, userID)
		if err != nil {
			return fmt.Errorf("failed to remove like: %w", err)
		}
		unliked, err := res.RowsAffected()
		if err != nil {
			return err
		}

		delta := -1
		if unliked == 0 {
			delta = 1
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO comment_likes (comment_id, user_id) VALUES ($1, $2)`, id, userID); err != nil {
				return fmt.Errorf("failed to add like: %w", err)
			}
		}

		if err := tx.GetContext(ctx, &result.LikeCount,
			`UPDATE comments SET like_count = like_count + $2 WHERE id = $1 RETURNING like_count`,
			id, delta); err != nil {
			return fmt.Errorf("failed to update like count: %w", err)
		}
		result.Liked = delta > 0
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (r *commentRepository) ListBySubject(ctx context.Context, subjectID uuid.UUID) ([]domain.Comment, error) {
	comments := []domain.Comment{}
	query := `SELECT ` + commentColumns + ` FROM comments WHERE subject_id = $1`
	if err := r.db.SelectContext(ctx, &comments, query, subjectID); err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}
	return comments, nil
}

func (r *commentRepository) LikedBySubject(ctx context.Context, subjectID, userID uuid.UUID) (map[uuid.UUID]bool, error) {
	var ids []uuid.UUID
	query := `
		SELECT l.comment_id
		FROM comment_likes l
		INNER JOIN comments c ON c.id = l.comment_id
		WHERE c.subject_id = $1 AND l.user_id = $2`
	if err := r.db.SelectContext(ctx, &ids, query, subjectID, userID); err != nil {
		return nil, fmt.Errorf("failed to list likes: %w", err)
	}

	liked := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		liked[id] = true
	}
	return liked, nil
}

func (r *commentRepository) CountBySubject(ctx context.Context, subjectID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM comments WHERE subject_id = $1`, subjectID)
	return count, err
}
