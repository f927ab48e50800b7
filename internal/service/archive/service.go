package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"

	"kisah-comments/internal/repository"
	"kisah-comments/internal/tree"
)

// ObjectStore is the slice of *minio.Client the archive needs.
type ObjectStore interface {
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
}

type Snapshot struct {
	SubjectID  uuid.UUID    `json:"subject_id"`
	TakenAt    time.Time    `json:"taken_at"`
	Count      int          `json:"count"`
	Comments   []*tree.Node `json:"comments"`
	ObjectName string       `json:"-"`
}

type Service interface {
	// Snapshot writes the subject's full thread, as a viewer-less tree, to the
	// archive bucket.
	Snapshot(ctx context.Context, subjectID uuid.UUID) (*Snapshot, error)
}

type service struct {
	commentRepo repository.CommentRepository
	store       ObjectStore
	bucket      string
	now         func() time.Time
}

func NewService(commentRepo repository.CommentRepository, store ObjectStore, bucket string) Service {
	return &service{
		commentRepo: commentRepo,
		store:       store,
		bucket:      bucket,
		now:         time.Now,
	}
}

func (s *service) Snapshot(ctx context.Context, subjectID uuid.UUID) (*Snapshot, error) {
	comments, err := s.commentRepo.ListBySubject(ctx, subjectID)
	if err != nil {
		return nil, err
	}

	takenAt := s.now().UTC()
	snap := &Snapshot{
		SubjectID:  subjectID,
		TakenAt:    takenAt,
		Count:      len(comments),
		Comments:   tree.Assemble(comments, nil),
		ObjectName: fmt.Sprintf("threads/%s/%s.json", subjectID, takenAt.Format("20060102T150405Z")),
	}

	body, err := json.Marshal(snap)
	if err != nil {
		return nil, fmt.Errorf("failed to encode snapshot: %w", err)
	}

	_, err = s.store.PutObject(ctx, s.bucket, snap.ObjectName, bytes.NewReader(body), int64(len(body)), minio.PutObjectOptions{
		ContentType: "application/json",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to upload snapshot to MinIO: %w", err)
	}
	return snap, nil
}
