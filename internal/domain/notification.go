package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type Notification struct {
	ID        uuid.UUID        `json:"id" db:"id"`
	UserID    uuid.UUID        `json:"user_id" db:"user_id"`
	ActorID   *uuid.UUID       `json:"actor_id,omitempty" db:"actor_id"`
	Type      NotificationType `json:"type" db:"type"`
	Title     string           `json:"title" db:"title"`
	Message   string           `json:"message" db:"message"`
	Data      json.RawMessage  `json:"data,omitempty" db:"data"`
	IsRead    bool             `json:"is_read" db:"is_read"`
	ReadAt    *time.Time       `json:"read_at,omitempty" db:"read_at"`
	CreatedAt time.Time        `json:"created_at" db:"created_at"`
}

type NotificationType string

const (
	NotifNewComment   NotificationType = "NEW_COMMENT"
	NotifCommentReply NotificationType = "COMMENT_REPLY"
	NotifCommentLiked NotificationType = "COMMENT_LIKED"
)

// CommentEvent is what the mutation service hands to the notification
// dispatcher after a successful write.
type CommentEvent struct {
	Type      NotificationType
	CommentID uuid.UUID
	SubjectID uuid.UUID
	ParentID  *uuid.UUID
	ActorID   uuid.UUID
	Excerpt   string
}
