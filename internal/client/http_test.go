package client_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kisah-comments/internal/client"
	"kisah-comments/internal/config"
	"kisah-comments/internal/domain"
	"kisah-comments/internal/handler"
	"kisah-comments/internal/middleware"
	"kisah-comments/internal/pkg/i18n"
	"kisah-comments/internal/repository"
	"kisah-comments/internal/service"
)

func startAPI(t *testing.T) (*httptest.Server, *service.Services) {
	t.Helper()
	require.NoError(t, i18n.LoadDefault())
	cfg := &config.Config{
		JWTSecret:          "client-test",
		JWTAccessExpiry:    time.Hour,
		NotifyWorkers:      1,
		NotifyQueueSize:    16,
		WriteRatePerMinute: 600,
		WriteRateBurst:     100,
	}
	repos, _, _ := repository.NewMemoryRepositories()
	services := service.NewServices(repos, nil, nil, nil, cfg)

	app := fiber.New(fiber.Config{ErrorHandler: middleware.ErrorHandler})
	handler.SetupRoutes(app, handler.NewHandlers(services), services.Auth, middleware.NewWriteLimiter(cfg.WriteRatePerMinute, cfg.WriteRateBurst))

	srv := httptest.NewServer(adaptor.FiberApp(app))
	t.Cleanup(srv.Close)
	return srv, services
}

func clientFor(t *testing.T, srv *httptest.Server, services *service.Services, userID uuid.UUID) *client.HTTPClient {
	t.Helper()
	token, _, err := services.Auth.IssueAccessToken(userID, "")
	require.NoError(t, err)
	return client.NewHTTPClient(srv.URL, token)
}

func TestTreeCache_AgainstServer(t *testing.T) {
	ctx := context.Background()
	srv, services := startAPI(t)
	subject := uuid.New()
	alice := uuid.New()
	bob := uuid.New()

	aliceCache := client.NewTreeCache(clientFor(t, srv, services, alice), subject, alice)
	bobCache := client.NewTreeCache(clientFor(t, srv, services, bob), subject, bob)
	require.NoError(t, aliceCache.Load(ctx))
	assert.Empty(t, aliceCache.Snapshot())

	a, err := aliceCache.Post(ctx, "A")
	require.NoError(t, err)
	b, err := aliceCache.Reply(ctx, a.ID, "B")
	require.NoError(t, err)
	_, err = aliceCache.Reply(ctx, b.ID, "C")
	require.NoError(t, err)

	require.NoError(t, bobCache.Load(ctx))
	require.NoError(t, bobCache.ToggleLike(ctx, a.ID))
	assert.Equal(t, 1, bobCache.Find(a.ID).LikeCount)

	t.Run("Not yours is told apart from gone", func(t *testing.T) {
		err := bobCache.Edit(ctx, a.ID, "hijack")
		assert.ErrorIs(t, err, domain.ErrAuthorization)
		assert.ErrorIs(t, err, domain.ErrNotCommentAuthor)
		assert.Equal(t, "A", bobCache.Find(a.ID).Content)
	})

	require.NoError(t, aliceCache.Delete(ctx, b.ID))
	assert.Empty(t, aliceCache.Find(a.ID).Replies)

	t.Run("Stale delete is rolled back as not found", func(t *testing.T) {
		err := bobCache.Delete(ctx, b.ID)
		assert.ErrorIs(t, err, domain.ErrNotFound)
		assert.NotNil(t, bobCache.Find(b.ID), "rejected delete leaves the local tree as it was")

		require.NoError(t, bobCache.Load(ctx))
		assert.Nil(t, bobCache.Find(b.ID))
		assert.Equal(t, 1, bobCache.Find(a.ID).LikeCount)
		assert.True(t, bobCache.Find(a.ID).LikedByViewer)
	})
}

func TestHTTPClient_Errors(t *testing.T) {
	ctx := context.Background()
	srv, services := startAPI(t)

	t.Run("Anonymous write", func(t *testing.T) {
		anon := client.NewHTTPClient(srv.URL, "")
		_, err := anon.Post(ctx, uuid.New(), domain.CreateCommentInput{Content: "x"})
		assert.ErrorIs(t, err, domain.ErrAuthentication)
	})

	t.Run("Validation", func(t *testing.T) {
		c := clientFor(t, srv, services, uuid.New())
		_, err := c.Post(ctx, uuid.New(), domain.CreateCommentInput{Content: "   "})
		assert.ErrorIs(t, err, domain.ErrEmptyContent)
	})

	t.Run("Non JSON failure falls back to the status", func(t *testing.T) {
		plain := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "upstream down", http.StatusConflict)
		}))
		defer plain.Close()

		_, err := client.NewHTTPClient(plain.URL, "").ToggleLike(ctx, uuid.New())
		assert.ErrorIs(t, err, domain.ErrConflict)
	})
}
