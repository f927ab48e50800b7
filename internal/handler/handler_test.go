package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kisah-comments/internal/config"
	"kisah-comments/internal/domain"
	"kisah-comments/internal/handler"
	"kisah-comments/internal/middleware"
	"kisah-comments/internal/pkg/i18n"
	"kisah-comments/internal/repository"
	"kisah-comments/internal/service"
)

type testServer struct {
	app      *fiber.App
	services *service.Services
	subject  domain.Subject
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	return newLimitedTestServer(t, 600, 100)
}

func newLimitedTestServer(t *testing.T, perMinute, burst int) *testServer {
	t.Helper()
	require.NoError(t, i18n.LoadDefault())

	cfg := &config.Config{
		JWTSecret:          "handler-test",
		JWTAccessExpiry:    time.Hour,
		NotifyWorkers:      1,
		NotifyQueueSize:    16,
		WriteRatePerMinute: perMinute,
		WriteRateBurst:     burst,
	}
	repos, subjects, _ := repository.NewMemoryRepositories()
	subject := domain.Subject{ID: uuid.New(), AuthorID: uuid.New(), Title: "A story"}
	subjects.Put(subject)

	services := service.NewServices(repos, nil, nil, nil, cfg)
	services.Dispatcher.Start()
	t.Cleanup(func() { _ = services.Dispatcher.Shutdown(context.Background()) })

	app := fiber.New(fiber.Config{ErrorHandler: middleware.ErrorHandler})
	handler.SetupRoutes(app, handler.NewHandlers(services), services.Auth, middleware.NewWriteLimiter(cfg.WriteRatePerMinute, cfg.WriteRateBurst))

	return &testServer{app: app, services: services, subject: subject}
}

func (s *testServer) token(t *testing.T, userID uuid.UUID) string {
	t.Helper()
	token, _, err := s.services.Auth.IssueAccessToken(userID, "")
	require.NoError(t, err)
	return token
}

func (s *testServer) do(t *testing.T, method, path, token string, body interface{}, out interface{}) int {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil && resp.StatusCode != http.StatusNoContent {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

type node struct {
	ID            uuid.UUID `json:"id"`
	Content       string    `json:"content"`
	LikeCount     int       `json:"like_count"`
	LikedByViewer bool      `json:"liked_by_viewer"`
	Replies       []node    `json:"replies"`
}

func TestCommentRoutes(t *testing.T) {
	s := newTestServer(t)
	alice := uuid.New()
	bob := uuid.New()
	aliceToken := s.token(t, alice)
	bobToken := s.token(t, bob)
	treePath := "/api/v1/subjects/" + s.subject.ID.String() + "/comments"

	var root node
	require.Equal(t, http.StatusCreated, s.do(t, http.MethodPost, treePath, aliceToken, map[string]string{"content": "hello"}, &root))
	assert.Equal(t, "hello", root.Content)
	assert.NotNil(t, root.Replies)

	var reply node
	require.Equal(t, http.StatusCreated, s.do(t, http.MethodPost, treePath, bobToken, map[string]interface{}{"content": "hi back", "parent_id": root.ID}, &reply))

	t.Run("Anonymous read", func(t *testing.T) {
		var forest []node
		require.Equal(t, http.StatusOK, s.do(t, http.MethodGet, treePath, "", nil, &forest))
		require.Len(t, forest, 1)
		require.Len(t, forest[0].Replies, 1)
		assert.Equal(t, "hi back", forest[0].Replies[0].Content)
	})

	t.Run("Anonymous write is rejected", func(t *testing.T) {
		var errBody middleware.ErrorResponse
		assert.Equal(t, http.StatusUnauthorized, s.do(t, http.MethodPost, treePath, "", map[string]string{"content": "x"}, &errBody))
		assert.Equal(t, "UNAUTHORIZED", errBody.Code)
	})

	t.Run("Empty content", func(t *testing.T) {
		var errBody middleware.ErrorResponse
		assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodPost, treePath, aliceToken, map[string]string{"content": "  "}, &errBody))
		assert.Equal(t, "COMMENT_CONTENT_EMPTY", errBody.Key)
	})

	t.Run("Bad subject id", func(t *testing.T) {
		assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodGet, "/api/v1/subjects/nope/comments", "", nil, &middleware.ErrorResponse{}))
	})

	t.Run("Like is reflected for the viewer only", func(t *testing.T) {
		var like domain.LikeResult
		require.Equal(t, http.StatusOK, s.do(t, http.MethodPost, "/api/v1/comments/"+root.ID.String()+"/like", bobToken, nil, &like))
		assert.Equal(t, domain.LikeResult{Liked: true, LikeCount: 1}, like)

		var forBob, forAlice []node
		s.do(t, http.MethodGet, treePath, bobToken, nil, &forBob)
		s.do(t, http.MethodGet, treePath, aliceToken, nil, &forAlice)
		assert.True(t, forBob[0].LikedByViewer)
		assert.False(t, forAlice[0].LikedByViewer)
		assert.Equal(t, 1, forAlice[0].LikeCount)
	})

	t.Run("Edit by someone else", func(t *testing.T) {
		var errBody middleware.ErrorResponse
		assert.Equal(t, http.StatusForbidden, s.do(t, http.MethodPatch, "/api/v1/comments/"+root.ID.String(), bobToken, map[string]string{"content": "mine now"}, &errBody))
		assert.Equal(t, "COMMENT_NOT_AUTHOR", errBody.Key)
	})

	t.Run("Edit by author", func(t *testing.T) {
		var edit domain.EditResult
		require.Equal(t, http.StatusOK, s.do(t, http.MethodPatch, "/api/v1/comments/"+root.ID.String(), aliceToken, map[string]string{"content": "hello, edited"}, &edit))
		assert.Equal(t, "hello, edited", edit.Content)
		assert.False(t, edit.UpdatedAt.IsZero())

		var history domain.PaginatedResponse[domain.AuditLog]
		require.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/api/v1/audit/comments/"+root.ID.String(), aliceToken, nil, &history))
		assert.Equal(t, int64(1), history.TotalItems)
	})

	t.Run("Delete removes the subtree", func(t *testing.T) {
		var del domain.DeleteResult
		require.Equal(t, http.StatusOK, s.do(t, http.MethodDelete, "/api/v1/comments/"+root.ID.String(), aliceToken, nil, &del))
		assert.ElementsMatch(t, []uuid.UUID{root.ID, reply.ID}, del.RemovedIDs)

		var forest []node
		s.do(t, http.MethodGet, treePath, "", nil, &forest)
		assert.Empty(t, forest)

		var errBody middleware.ErrorResponse
		assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodDelete, "/api/v1/comments/"+root.ID.String(), aliceToken, nil, &errBody))
		assert.Equal(t, "COMMENT_NOT_FOUND", errBody.Key)
	})
}

func TestNotificationRoutes(t *testing.T) {
	s := newTestServer(t)
	reader := uuid.New()
	owner := s.subject.AuthorID
	treePath := "/api/v1/subjects/" + s.subject.ID.String() + "/comments"

	var posted node
	require.Equal(t, http.StatusCreated, s.do(t, http.MethodPost, treePath, s.token(t, reader), map[string]string{"content": "great story"}, &posted))

	// drain the queue so delivery has happened
	require.NoError(t, s.services.Dispatcher.Shutdown(context.Background()))

	ownerToken := s.token(t, owner)
	var count map[string]int64
	require.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/api/v1/notifications/unread-count", ownerToken, nil, &count))
	assert.Equal(t, int64(1), count["count"])

	var inbox domain.PaginatedResponse[domain.Notification]
	require.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/api/v1/notifications?unread_only=true", ownerToken, nil, &inbox))
	require.Len(t, inbox.Data, 1)
	assert.Equal(t, domain.NotifNewComment, inbox.Data[0].Type)

	notifPath := "/api/v1/notifications/" + inbox.Data[0].ID.String() + "/read"
	assert.Equal(t, http.StatusForbidden, s.do(t, http.MethodPatch, notifPath, s.token(t, reader), nil, &middleware.ErrorResponse{}))
	assert.Equal(t, http.StatusNoContent, s.do(t, http.MethodPatch, notifPath, ownerToken, nil, nil))

	require.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/api/v1/notifications/unread-count", ownerToken, nil, &count))
	assert.Zero(t, count["count"])
}

func TestHealth(t *testing.T) {
	app := fiber.New()
	failing := handler.HealthCheck{Name: "redis", Check: func(context.Context) error { return assert.AnError }}
	app.Get("/health", handler.NewHealthHandler(failing).Health)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/health", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	app = fiber.New()
	app.Get("/health", handler.NewHealthHandler().Health)
	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/health", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestCommentRoutes_DeleteIsThrottled(t *testing.T) {
	s := newLimitedTestServer(t, 1, 1)
	alice := uuid.New()
	token := s.token(t, alice)
	treePath := "/api/v1/subjects/" + s.subject.ID.String() + "/comments"

	var root node
	require.Equal(t, http.StatusCreated, s.do(t, http.MethodPost, treePath, token, map[string]string{"content": "keep me"}, &root))

	var errResp middleware.ErrorResponse
	assert.Equal(t, http.StatusTooManyRequests, s.do(t, http.MethodDelete, "/api/v1/comments/"+root.ID.String(), token, nil, &errResp))
	assert.Equal(t, string(domain.KindRateLimited), errResp.Code)

	var forest []node
	require.Equal(t, http.StatusOK, s.do(t, http.MethodGet, treePath, "", nil, &forest))
	assert.Len(t, forest, 1)
}
