package posts

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/streamnest/watchparty/internal/domain"
)

// Client is a thin adapter over the external post service. The core
// only reads video metadata and derives media URLs from it.
type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 15 * time.Second},
	}
}

// GetVideo fetches the metadata snapshot for a video path or id.
func (c *Client) GetVideo(ctx context.Context, path string) (domain.VideoMetadata, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s/posts/%s", c.baseURL, url.PathEscape(path)), nil)
	if err != nil {
		return domain.VideoMetadata{}, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return domain.VideoMetadata{}, fmt.Errorf("post service: %s: %w", err, domain.ErrRegistry)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return domain.VideoMetadata{}, fmt.Errorf("video %s: %w", path, domain.ErrNotFound)
	}
	if resp.StatusCode >= 400 {
		return domain.VideoMetadata{}, fmt.Errorf("post service: status %d: %w", resp.StatusCode, domain.ErrRegistry)
	}

	var meta domain.VideoMetadata
	if err := json.NewDecoder(resp.Body).Decode(&meta); err != nil {
		return domain.VideoMetadata{}, fmt.Errorf("post service: bad response body: %s: %w", err, domain.ErrRegistry)
	}

	return meta, nil
}

// VideoURL builds the playable media URL for a stored media name.
func (c *Client) VideoURL(name string) string {
	return fmt.Sprintf("%s/media/%s", c.baseURL, url.PathEscape(name))
}

// RecordView reports that playback began. Fire and forget; a lost view
// count never disturbs playback.
func (c *Client) RecordView(videoId string) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, fmt.Sprintf("%s/posts/%s/view", c.baseURL, url.PathEscape(videoId)), nil)
		if err != nil {
			return
		}

		resp, err := c.http.Do(req)
		if err != nil {
			return
		}
		resp.Body.Close()
	}()
}
