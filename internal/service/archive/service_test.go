package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kisah-comments/internal/domain"
	"kisah-comments/internal/repository"
)

type fakeStore struct {
	bucket, name string
	body         []byte
	opts         minio.PutObjectOptions
	err          error
}

func (f *fakeStore) PutObject(_ context.Context, bucket, name string, r io.Reader, size int64, opts minio.PutObjectOptions) (minio.UploadInfo, error) {
	if f.err != nil {
		return minio.UploadInfo{}, f.err
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, r); err != nil {
		return minio.UploadInfo{}, err
	}
	f.bucket, f.name, f.body, f.opts = bucket, name, buf.Bytes(), opts
	return minio.UploadInfo{Bucket: bucket, Key: name, Size: size}, nil
}

func TestSnapshot(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMemoryCommentRepository()
	subject := uuid.New()
	author := uuid.New()

	root := &domain.Comment{SubjectID: subject, AuthorID: author, Content: "root"}
	require.NoError(t, repo.Create(ctx, root))
	require.NoError(t, repo.Create(ctx, &domain.Comment{SubjectID: subject, AuthorID: author, ParentID: &root.ID, Content: "reply"}))

	store := &fakeStore{}
	svc := NewService(repo, store, "archive").(*service)
	svc.now = func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) }

	snap, err := svc.Snapshot(ctx, subject)
	require.NoError(t, err)
	assert.Equal(t, 2, snap.Count)
	assert.Equal(t, "archive", store.bucket)
	assert.Equal(t, "threads/"+subject.String()+"/20240501T120000Z.json", store.name)
	assert.Equal(t, "application/json", store.opts.ContentType)

	var decoded struct {
		Count    int `json:"count"`
		Comments []struct {
			Content string `json:"content"`
			Replies []struct {
				Content string `json:"content"`
			} `json:"replies"`
		} `json:"comments"`
	}
	require.NoError(t, json.Unmarshal(store.body, &decoded))
	require.Len(t, decoded.Comments, 1)
	assert.Equal(t, "root", decoded.Comments[0].Content)
	require.Len(t, decoded.Comments[0].Replies, 1)
	assert.Equal(t, "reply", decoded.Comments[0].Replies[0].Content)
}

func TestSnapshot_UploadFailure(t *testing.T) {
	store := &fakeStore{err: errors.New("bucket gone")}
	svc := NewService(repository.NewMemoryCommentRepository(), store, "archive")

	_, err := svc.Snapshot(context.Background(), uuid.New())
	assert.ErrorContains(t, err, "bucket gone")
}
