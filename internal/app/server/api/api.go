//POST   /api/sessions              # Create session (public)
//GET    /api/sessions              # List sessions (auth)
//DELETE /api/sessions              # Delete all sessions (auth)
//DELETE /api/sessions/{id}         # Delete session (auth)
//POST   /api/sessions/{id}/reset   # Request full resync (auth)
//POST   /api/sync/stream           # Stream sync records (auth)
//GET    /api/sync/ack              # List checkpoints (auth)
//POST   /api/sync/ack              # Store checkpoints (auth)
//DELETE /api/sync/ack              # Delete checkpoints (auth)

package api

import (
	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"golang.org/x/exp/slog"

	healthAPI "photobridge/internal/app/server/api/http/health"
	"photobridge/internal/app/server/api/http/middleware"
	"photobridge/internal/app/server/api/http/middleware/auth"
	"photobridge/internal/app/server/api/http/middleware/logger"
	sessionAPI "photobridge/internal/app/server/api/http/session"
	syncAPI "photobridge/internal/app/server/api/http/sync"
	"photobridge/internal/app/server/config"
	"photobridge/internal/app/server/crypto"
	"photobridge/internal/domain/checkpoint"
	"photobridge/internal/domain/session"
	"photobridge/internal/infrastructure/storage/postgres"
	"photobridge/internal/upstream"
)

type Handlers struct {
	Health  *healthAPI.Handler
	Session *sessionAPI.Handler
	Sync    *syncAPI.Handler
}

// New builds a *chi.Mux with every operation registered through huma.
func New(storage *postgres.Storage, cfg *config.Config, log *slog.Logger) (*chi.Mux, *session.Store, error) {
	mux := chi.NewMux()

	humaConfig := huma.DefaultConfig("Photobridge API", "1.0.0")
	humaConfig.Components.SecuritySchemes = map[string]*huma.SecurityScheme{
		"bearer": {Type: "http", Scheme: "bearer"},
	}

	API := humachi.New(mux, humaConfig)

	h, sessions, err := handlers(storage, cfg, log)
	if err != nil {
		return nil, nil, err
	}
	h.Health.SetupRoutes(API)
	h.Session.SetupRoutes(API)
	h.Sync.SetupRoutes(API)

	return mux, sessions, nil
}

func handlers(storage *postgres.Storage, cfg *config.Config, log *slog.Logger) (*Handlers, *session.Store, error) {
	encryptor, err := crypto.NewCredentialEncryptor(cfg.Sessions.EncryptionKey)
	if err != nil {
		return nil, nil, err
	}

	sessionRepo := postgres.NewSessionRepository(storage, log)
	sessionStore := session.NewStore(sessionRepo, encryptor, log)
	checkpointRepo := postgres.NewCheckpointRepository(storage, log)
	checkpointStore := checkpoint.NewStore(checkpointRepo, log)
	upstreamFactory := upstream.NewFactory(cfg, log)

	authMW := auth.New(sessionStore, log)
	loggerMW := logger.New(log)
	middlewares := middleware.NewContainer()

	middlewares.Add(loggerMW.Middleware())
	healthHandler := healthAPI.NewHandler(log, middlewares.GetAllAndClear())

	middlewares.Add(loggerMW.Middleware())
	public := middlewares.GetAllAndClear()
	middlewares.Add(authMW.Middleware())
	middlewares.Add(loggerMW.Middleware())
	sessionHandler := sessionAPI.NewHandler(sessionStore, upstreamFactory, log, public, middlewares.GetAllAndClear())

	middlewares.Add(authMW.Middleware())
	middlewares.Add(loggerMW.Middleware())
	syncHandler := syncAPI.NewHandler(sessionStore, checkpointStore, upstreamFactory, log, middlewares.GetAllAndClear())

	return &Handlers{
		Health:  healthHandler,
		Session: sessionHandler,
		Sync:    syncHandler,
	}, sessionStore, nil
}
