package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"kisah-comments/internal/domain"
	"kisah-comments/internal/tree"
)

// Mutator is the server side of the comment API as seen by one viewer.
type Mutator interface {
	Tree(ctx context.Context, subjectID uuid.UUID) ([]*tree.Node, error)
	Post(ctx context.Context, subjectID uuid.UUID, input domain.CreateCommentInput) (*tree.Node, error)
	Edit(ctx context.Context, commentID uuid.UUID, content string) (*domain.EditResult, error)
	Delete(ctx context.Context, commentID uuid.UUID) (*domain.DeleteResult, error)
	ToggleLike(ctx context.Context, commentID uuid.UUID) (*domain.LikeResult, error)
}

// HTTPClient talks to the comment API over JSON. Failed calls come back as
// *domain.Error so callers can tell "not yours" from "gone".
type HTTPClient struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

func NewHTTPClient(baseURL, token string) *HTTPClient {
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

func (c *HTTPClient) Tree(ctx context.Context, subjectID uuid.UUID) ([]*tree.Node, error) {
	var nodes []*tree.Node
	if err := c.doRequest(ctx, http.MethodGet, "/api/v1/subjects/"+subjectID.String()+"/comments", nil, &nodes); err != nil {
		return nil, err
	}
	if nodes == nil {
		nodes = []*tree.Node{}
	}
	return nodes, nil
}

func (c *HTTPClient) Post(ctx context.Context, subjectID uuid.UUID, input domain.CreateCommentInput) (*tree.Node, error) {
	var node tree.Node
	if err := c.doRequest(ctx, http.MethodPost, "/api/v1/subjects/"+subjectID.String()+"/comments", input, &node); err != nil {
		return nil, err
	}
	if node.Replies == nil {
		node.Replies = []*tree.Node{}
	}
	return &node, nil
}

func (c *HTTPClient) Edit(ctx context.Context, commentID uuid.UUID, content string) (*domain.EditResult, error) {
	var result domain.EditResult
	body := domain.UpdateCommentInput{Content: content}
	if err := c.doRequest(ctx, http.MethodPatch, "/api/v1/comments/"+commentID.String(), body, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *HTTPClient) Delete(ctx context.Context, commentID uuid.UUID) (*domain.DeleteResult, error) {
	var result domain.DeleteResult
	if err := c.doRequest(ctx, http.MethodDelete, "/api/v1/comments/"+commentID.String(), nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *HTTPClient) ToggleLike(ctx context.Context, commentID uuid.UUID) (*domain.LikeResult, error) {
	var result domain.LikeResult
	if err := c.doRequest(ctx, http.MethodPost, "/api/v1/comments/"+commentID.String()+"/like", nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

type errorEnvelope struct {
	Code    string `json:"code"`
	Key     string `json:"key"`
	Message string `json:"message"`
	TraceID string `json:"trace_id"`
}

func (c *HTTPClient) doRequest(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return decodeError(resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func decodeError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))

	var env errorEnvelope
	if err := json.Unmarshal(raw, &env); err != nil || env.Code == "" {
		return domain.NewError(kindForStatus(resp.StatusCode), "", fmt.Sprintf("unexpected status %d", resp.StatusCode))
	}
	return domain.NewError(domain.ErrorKind(env.Code), env.Key, env.Message)
}

func kindForStatus(status int) domain.ErrorKind {
	switch status {
	case http.StatusBadRequest:
		return domain.KindValidation
	case http.StatusUnauthorized:
		return domain.KindAuthentication
	case http.StatusForbidden:
		return domain.KindAuthorization
	case http.StatusNotFound:
		return domain.KindNotFound
	case http.StatusConflict:
		return domain.KindConflict
	case http.StatusTooManyRequests:
		return domain.KindRateLimited
	default:
		return domain.KindInternal
	}
}
