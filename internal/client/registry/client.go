package registry

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/streamnest/watchparty/internal/domain"
)

type iTokenProvider interface {
	GetToken() string
}

// Client talks to the watch-party registry over HTTP. Every failure is
// classified against the domain error taxonomy so callers can branch
// with errors.Is.
type Client struct {
	baseURL string
	http    *http.Client
	tokens  iTokenProvider
	logger  *slog.Logger
}

func NewClient(baseURL string, tokens iTokenProvider, logger *slog.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 15 * time.Second},
		tokens:  tokens,
		logger:  logger,
	}
}

type createRoomRequest struct {
	IsPublic bool `json:"isPublic"`
}

type joinRoomRequest struct {
	RoomCode string `json:"roomCode"`
}

type tokenRequest struct {
	Username string `json:"username"`
}

// TokenGrant is the response of the dev token endpoint.
type TokenGrant struct {
	Token    string `json:"token"`
	UserId   string `json:"userId"`
	Username string `json:"username"`
}

func (c *Client) Create(ctx context.Context, isPublic bool) (domain.Room, error) {
	var room domain.Room
	err := c.do(ctx, http.MethodPost, "/watchparty/create", createRoomRequest{IsPublic: isPublic}, &room)
	return room, err
}

func (c *Client) Join(ctx context.Context, roomCode string) (domain.Room, error) {
	var room domain.Room
	err := c.do(ctx, http.MethodPost, "/watchparty/join", joinRoomRequest{RoomCode: domain.NormalizeRoomCode(roomCode)}, &room)
	return room, err
}

func (c *Client) Leave(ctx context.Context, roomCode string) error {
	path := fmt.Sprintf("/watchparty/%s/leave", url.PathEscape(domain.NormalizeRoomCode(roomCode)))
	return c.do(ctx, http.MethodPost, path, struct{}{}, nil)
}

func (c *Client) SetCurrentVideo(ctx context.Context, roomCode, videoPath string) (domain.Room, error) {
	var room domain.Room
	path := fmt.Sprintf("/watchparty/%s/video/%s", url.PathEscape(domain.NormalizeRoomCode(roomCode)), url.PathEscape(videoPath))
	err := c.do(ctx, http.MethodPut, path, nil, &room)
	return room, err
}

func (c *Client) Get(ctx context.Context, roomCode string) (domain.Room, error) {
	var room domain.Room
	path := fmt.Sprintf("/watchparty/%s", url.PathEscape(domain.NormalizeRoomCode(roomCode)))
	err := c.do(ctx, http.MethodGet, path, nil, &room)
	return room, err
}

func (c *Client) ListPublic(ctx context.Context) ([]domain.Room, error) {
	var rooms []domain.Room
	err := c.do(ctx, http.MethodGet, "/watchparty/public", nil, &rooms)
	return rooms, err
}

// IssueToken asks the registry for a connect token. Real user auth
// lives outside this module; the registry's dev endpoint mints one per
// username.
func (c *Client) IssueToken(ctx context.Context, username string) (TokenGrant, error) {
	var grant TokenGrant
	err := c.do(ctx, http.MethodPost, "/watchparty/token", tokenRequest{Username: username}, &grant)
	return grant, err
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.tokens.GetToken(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("registry %s %s: %s: %w", method, path, err, domain.ErrRegistry)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return c.classify(resp, method, path)
	}

	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("registry %s %s: bad response body: %s: %w", method, path, err, domain.ErrRegistry)
	}

	return nil
}

func (c *Client) classify(resp *http.Response, method, path string) error {
	message := strings.TrimSpace(readErrorMessage(resp.Body))
	if message == "" {
		message = http.StatusText(resp.StatusCode)
	}

	switch resp.StatusCode {
	case http.StatusNotFound:
		return fmt.Errorf("registry %s %s: %s: %w", method, path, message, domain.ErrNotFound)
	case http.StatusUnauthorized:
		return fmt.Errorf("registry %s %s: %s: %w", method, path, message, domain.ErrAuth)
	case http.StatusForbidden:
		return fmt.Errorf("registry %s %s: %s: %w", method, path, message, domain.ErrAuthorization)
	default:
		return fmt.Errorf("registry %s %s: status %d: %s: %w", method, path, resp.StatusCode, message, domain.ErrRegistry)
	}
}

func readErrorMessage(body io.Reader) string {
	var envelope struct {
		Error string `json:"error"`
	}
	if err := json.NewDecoder(body).Decode(&envelope); err != nil {
		return ""
	}

	return envelope.Error
}
