package domain

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

const MaxCommentLength = 10000

type Comment struct {
	ID        uuid.UUID  `json:"id" db:"id"`
	SubjectID uuid.UUID  `json:"subject_id" db:"subject_id"`
	AuthorID  uuid.UUID  `json:"author_id" db:"author_id"`
	ParentID  *uuid.UUID `json:"parent_id" db:"parent_id"`
	Content   string     `json:"content" db:"content"`
	LikeCount int        `json:"like_count" db:"like_count"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt *time.Time `json:"updated_at" db:"updated_at"`
}

// Edited reports whether the content was changed after creation.
func (c *Comment) Edited() bool {
	return c.UpdatedAt != nil
}

type CommentLike struct {
	CommentID uuid.UUID `json:"comment_id" db:"comment_id"`
	UserID    uuid.UUID `json:"user_id" db:"user_id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

type CreateCommentInput struct {
	ParentID *uuid.UUID `json:"parent_id"`
	Content  string     `json:"content" validate:"required,min=1,max=10000"`
}

type UpdateCommentInput struct {
	Content string `json:"content" validate:"required,min=1,max=10000"`
}

type EditResult struct {
	Content     string    `json:"content"`
	ContentHTML string    `json:"content_html,omitempty"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type DeleteResult struct {
	RemovedIDs []uuid.UUID `json:"removed_ids"`
}

type LikeResult struct {
	Liked     bool `json:"liked"`
	LikeCount int  `json:"like_count"`
}

// NormalizeContent trims surrounding whitespace and rejects empty or oversized
// comment bodies.
func NormalizeContent(content string) (string, error) {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return "", ErrEmptyContent
	}
	if utf8.RuneCountInString(trimmed) > MaxCommentLength {
		return "", ErrContentTooLong
	}
	return trimmed, nil
}
