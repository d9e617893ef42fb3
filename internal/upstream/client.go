package upstream

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/exp/slog"

	"photobridge/internal/app/server/config"
	"photobridge/internal/domain/sync"
)

// Factory builds per-credential upstream clients over one shared
// transport. Credentials are per session, connections are not.
type Factory struct {
	client  *http.Client
	baseURL string
	log     *slog.Logger
}

func NewFactory(cfg *config.Config, log *slog.Logger) *Factory {
	client := &http.Client{
		Timeout: cfg.Upstream.Timeout,
		Transport: &http.Transport{
			MaxIdleConns:        100,
			IdleConnTimeout:     90 * time.Second,
			MaxIdleConnsPerHost: 10,
		},
	}

	return &Factory{
		client:  client,
		baseURL: cfg.Upstream.BaseURL,
		log:     log,
	}
}

// ForCredential binds a client to one upstream credential.
func (f *Factory) ForCredential(credential string) *Client {
	return &Client{
		client:     f.client,
		baseURL:    f.baseURL,
		credential: credential,
		log:        f.log,
	}
}

// Client talks to the upstream API on behalf of one session.
// It implements sync.Upstream.
type Client struct {
	client     *http.Client
	baseURL    string
	credential string
	log        *slog.Logger
}

var _ sync.Upstream = (*Client)(nil)

func (c *Client) Events(ctx context.Context, entityType string, limit int, before time.Time, afterCursor string) (sync.EventPage, error) {
	q := url.Values{}
	q.Set("entity_type", entityType)
	q.Set("limit", strconv.Itoa(limit))
	q.Set("before", before.UTC().Format(time.RFC3339Nano))
	if afterCursor != "" {
		q.Set("after", afterCursor)
	}

	var page sync.EventPage
	if err := c.get(ctx, "/api/events", q, &page); err != nil {
		return sync.EventPage{}, fmt.Errorf("fetch events: %w", err)
	}
	return page, nil
}

func (c *Client) Assets(ctx context.Context, ids []string) ([]sync.Asset, error) {
	var out struct {
		Data []sync.Asset `json:"data"`
	}
	if err := c.get(ctx, "/api/assets", idQuery(ids), &out); err != nil {
		return nil, fmt.Errorf("fetch assets: %w", err)
	}
	return out.Data, nil
}

func (c *Client) Albums(ctx context.Context, ids []string) ([]sync.Album, error) {
	var out struct {
		Data []sync.Album `json:"data"`
	}
	if err := c.get(ctx, "/api/albums", idQuery(ids), &out); err != nil {
		return nil, fmt.Errorf("fetch albums: %w", err)
	}
	return out.Data, nil
}

func (c *Client) AlbumAssets(ctx context.Context, ids []string) ([]sync.AlbumAsset, error) {
	var out struct {
		Data []sync.AlbumAsset `json:"data"`
	}
	if err := c.get(ctx, "/api/album-assets", idQuery(ids), &out); err != nil {
		return nil, fmt.Errorf("fetch album assets: %w", err)
	}
	return out.Data, nil
}

func (c *Client) People(ctx context.Context, ids []string) ([]sync.Person, error) {
	var out struct {
		Data []sync.Person `json:"data"`
	}
	if err := c.get(ctx, "/api/people", idQuery(ids), &out); err != nil {
		return nil, fmt.Errorf("fetch people: %w", err)
	}
	return out.Data, nil
}

func (c *Client) Faces(ctx context.Context, ids []string) ([]sync.Face, error) {
	var out struct {
		Data []sync.Face `json:"data"`
	}
	if err := c.get(ctx, "/api/faces", idQuery(ids), &out); err != nil {
		return nil, fmt.Errorf("fetch faces: %w", err)
	}
	return out.Data, nil
}

func (c *Client) Me(ctx context.Context) (sync.User, error) {
	var user sync.User
	if err := c.get(ctx, "/api/users/me", nil, &user); err != nil {
		return sync.User{}, fmt.Errorf("fetch current user: %w", err)
	}
	return user, nil
}

func idQuery(ids []string) url.Values {
	q := url.Values{}
	for _, id := range ids {
		q.Add("ids", id)
	}
	return q
}

func (c *Client) get(ctx context.Context, path string, query url.Values, result any) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.credential)

	c.log.Debug("upstream request",
		slog.String("method", http.MethodGet),
		slog.String("path", path),
	)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		var errResp struct {
			Detail string `json:"detail"`
		}
		if err := json.Unmarshal(body, &errResp); err == nil && errResp.Detail != "" {
			return fmt.Errorf("upstream status %d: %s", resp.StatusCode, errResp.Detail)
		}
		return fmt.Errorf("upstream status %d", resp.StatusCode)
	}

	if result != nil {
		if err := json.Unmarshal(body, result); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}
