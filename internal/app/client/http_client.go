package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/exp/slog"

	"photobridge/internal/app/client/config"
)

// StreamRecord is one line of the sync stream as the client sees it.
type StreamRecord struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
	Ack  string          `json:"ack"`
}

// SessionInfo mirrors the server's session listing.
type SessionInfo struct {
	ID               string     `json:"id"`
	DeviceType       string     `json:"deviceType"`
	DeviceOS         string     `json:"deviceOS"`
	AppVersion       string     `json:"appVersion"`
	PendingSyncReset bool       `json:"pendingSyncReset"`
	Current          bool       `json:"current"`
	CreatedAt        time.Time  `json:"createdAt"`
	UpdatedAt        time.Time  `json:"updatedAt"`
	ExpiresAt        *time.Time `json:"expiresAt,omitempty"`
}

type httpClient struct {
	client    *http.Client
	log       *slog.Logger
	baseURL   string
	token     string
	userAgent string
}

func newHTTPClient(cfg *config.Config, log *slog.Logger) *httpClient {
	client := &http.Client{
		// No overall timeout: the sync stream is long-lived.
		Transport: &http.Transport{
			MaxIdleConns:        100,
			IdleConnTimeout:     90 * time.Second,
			MaxIdleConnsPerHost: 10,
		},
	}

	scheme := "http://"
	if cfg.EnableTLS {
		scheme = "https://"
	}

	return &httpClient{
		client:    client,
		log:       log,
		baseURL:   scheme + cfg.ServerAddress,
		userAgent: "Photobridge-Client/1.0",
	}
}

func (h *httpClient) SetToken(token string) {
	h.token = token
}

// HealthCheck verifies the server is reachable.
func (h *httpClient) HealthCheck(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.baseURL+"/api/v1/health", nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", h.userAgent)

	resp, err := h.client.Do(req)
	if err != nil {
		return fmt.Errorf("server unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("server returned status %d", resp.StatusCode)
	}
	return nil
}

// CreateSession exchanges an upstream credential for a session token.
func (h *httpClient) CreateSession(ctx context.Context, credential, deviceType, deviceOS, appVersion string) (string, error) {
	body := map[string]string{
		"credential": credential,
		"deviceType": deviceType,
		"deviceOS":   deviceOS,
		"appVersion": appVersion,
	}

	resp, err := h.doRequest(ctx, http.MethodPost, "/api/sessions", body)
	if err != nil {
		return "", err
	}

	var created struct {
		Token string `json:"token"`
	}
	if err := h.parseResponse(resp, &created); err != nil {
		return "", err
	}

	h.SetToken(created.Token)
	return created.Token, nil
}

// ListSessions returns the sessions of the authenticated user.
func (h *httpClient) ListSessions(ctx context.Context) ([]SessionInfo, error) {
	resp, err := h.doRequest(ctx, http.MethodGet, "/api/sessions", nil)
	if err != nil {
		return nil, err
	}

	var sessions []SessionInfo
	if err := h.parseResponse(resp, &sessions); err != nil {
		return nil, err
	}
	return sessions, nil
}

// DeleteSession removes one session; "me" targets the current one.
func (h *httpClient) DeleteSession(ctx context.Context, id string) error {
	resp, err := h.doRequest(ctx, http.MethodDelete, "/api/sessions/"+id, nil)
	if err != nil {
		return err
	}
	return h.parseResponse(resp, nil)
}

// DeleteAllSessions logs the user out everywhere.
func (h *httpClient) DeleteAllSessions(ctx context.Context) (int, error) {
	resp, err := h.doRequest(ctx, http.MethodDelete, "/api/sessions", nil)
	if err != nil {
		return 0, err
	}

	var deleted struct {
		Deleted int `json:"deleted"`
	}
	if err := h.parseResponse(resp, &deleted); err != nil {
		return 0, err
	}
	return deleted.Deleted, nil
}

// RequestReset asks the server to start the session's next sync over.
func (h *httpClient) RequestReset(ctx context.Context, id string) error {
	resp, err := h.doRequest(ctx, http.MethodPost, "/api/sessions/"+id+"/reset", struct{}{})
	if err != nil {
		return err
	}
	return h.parseResponse(resp, nil)
}

// OpenStream starts a sync stream for the given request types. With
// reset the server drops its checkpoints first and replays everything.
// The caller owns the returned body and must close it.
func (h *httpClient) OpenStream(ctx context.Context, types []string, reset bool) (io.ReadCloser, error) {
	body := map[string]any{"types": types}
	if reset {
		body["reset"] = true
	}
	resp, err := h.doRequest(ctx, http.MethodPost, "/api/sync/stream", body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode >= 400 {
		defer resp.Body.Close()
		data, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("stream request failed: status %d: %s", resp.StatusCode, string(data))
	}
	return resp.Body, nil
}

// SendAcks stores sync progress on the server.
func (h *httpClient) SendAcks(ctx context.Context, acks []string) error {
	if len(acks) == 0 {
		return nil
	}
	resp, err := h.doRequest(ctx, http.MethodPost, "/api/sync/ack", map[string][]string{"acks": acks})
	if err != nil {
		return err
	}
	return h.parseResponse(resp, nil)
}

func (h *httpClient) doRequest(ctx context.Context, method, path string, body interface{}) (*http.Response, error) {
	var reqBody io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request body: %w", err)
		}
		reqBody = bytes.NewBuffer(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, h.baseURL+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", h.userAgent)
	if h.token != "" {
		req.Header.Set("Authorization", "Bearer "+h.token)
	}

	h.log.Debug("sending request",
		"method", method,
		"url", req.URL.String(),
	)

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	return resp, nil
}

func (h *httpClient) parseResponse(resp *http.Response, result interface{}) error {
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	h.log.Debug("received response",
		"status", resp.StatusCode,
	)

	if resp.StatusCode >= 400 {
		var errResp struct {
			Error  string `json:"error"`
			Detail string `json:"detail"`
		}
		if err := json.Unmarshal(body, &errResp); err == nil {
			if errResp.Error != "" {
				return fmt.Errorf("server error: %s", errResp.Error)
			}
			if errResp.Detail != "" {
				return fmt.Errorf("server error: %s", errResp.Detail)
			}
		}
		return fmt.Errorf("server error: status %d", resp.StatusCode)
	}

	if result != nil {
		if err := json.Unmarshal(body, result); err != nil {
			return fmt.Errorf("parse response: %w", err)
		}
	}
	return nil
}
