package client

import (
	"context"
	"fmt"
	"runtime"

	"golang.org/x/exp/slog"

	"photobridge/internal/app/client/config"
	"photobridge/internal/app/client/crypto"
)

const appVersion = "1.0.0"

// App wires the client pieces together: server transport, the sealed
// token vault, and the local library mirror.
type App struct {
	cfg    *config.Config
	log    *slog.Logger
	http   *httpClient
	vault  *crypto.Vault
	mirror *Mirror
}

func New(cfg *config.Config, log *slog.Logger) (*App, error) {
	mirror, err := NewMirror(cfg.MirrorPath)
	if err != nil {
		return nil, fmt.Errorf("open mirror: %w", err)
	}

	return &App{
		cfg:    cfg,
		log:    log,
		http:   newHTTPClient(cfg, log),
		vault:  crypto.NewVault(cfg.TokenPath),
		mirror: mirror,
	}, nil
}

// HasSession reports whether a sealed session token exists locally.
func (a *App) HasSession() bool {
	return a.vault.Exists()
}

// Login creates a server session for the upstream credential and
// seals the returned token under the passphrase.
func (a *App) Login(ctx context.Context, credential, passphrase string) error {
	token, err := a.http.CreateSession(ctx, credential, "CLI", runtime.GOOS, appVersion)
	if err != nil {
		return fmt.Errorf("create session: %w", err)
	}

	if err := a.vault.Seal(token, passphrase); err != nil {
		return fmt.Errorf("store token: %w", err)
	}
	return nil
}

// Unlock loads the sealed session token into the transport.
func (a *App) Unlock(passphrase string) error {
	token, err := a.vault.Open(passphrase)
	if err != nil {
		return err
	}
	a.http.SetToken(token)
	return nil
}

// Logout deletes the server session (all of them with everywhere) and
// removes the local token.
func (a *App) Logout(ctx context.Context, everywhere bool) error {
	var err error
	if everywhere {
		_, err = a.http.DeleteAllSessions(ctx)
	} else {
		err = a.http.DeleteSession(ctx, "me")
	}
	if err != nil {
		return err
	}
	return a.vault.Remove()
}

// Sessions lists the user's sessions on the server.
func (a *App) Sessions(ctx context.Context) ([]SessionInfo, error) {
	return a.http.ListSessions(ctx)
}

// DeleteSession removes one session by ID.
func (a *App) DeleteSession(ctx context.Context, id string) error {
	return a.http.DeleteSession(ctx, id)
}

// RequestReset marks a session for a full resync.
func (a *App) RequestReset(ctx context.Context, id string) error {
	return a.http.RequestReset(ctx, id)
}

// CheckConnection pings the server.
func (a *App) CheckConnection(ctx context.Context) error {
	return a.http.HealthCheck(ctx)
}

// MirrorCounts reports local replica sizes per table.
func (a *App) MirrorCounts() (map[string]int, error) {
	return a.mirror.Counts()
}

func (a *App) Close() error {
	return a.mirror.Close()
}
