package auth

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"golang.org/x/exp/slog"

	"photobridge/internal/domain/session"
)

// Sessions is the slice of the session service the middleware needs.
type Sessions interface {
	GetByToken(ctx context.Context, token string) (*session.Session, error)
}

type Auth struct {
	sessions Sessions
	log      *slog.Logger
}

func New(sessions Sessions, log *slog.Logger) *Auth {
	return &Auth{
		sessions: sessions,
		log:      log.With(slog.String("component", "auth middleware")),
	}
}

type contextKey string

const sessionKey contextKey = "session"

// Middleware resolves the Bearer token to a session and stores it in
// the request context. Unknown or expired tokens get a 401.
func (a *Auth) Middleware() func(huma.Context, func(huma.Context)) {
	return func(ctx huma.Context, next func(huma.Context)) {
		token := ctx.Header("Authorization")

		if len(token) < 7 || token[:7] != "Bearer " {
			a.unauthorized(ctx)
			return
		}

		sess, err := a.sessions.GetByToken(ctx.Context(), token[7:])
		if err != nil {
			a.log.Error("session lookup failed", slog.String("error", err.Error()))
			a.unauthorized(ctx)
			return
		}
		if sess == nil {
			a.unauthorized(ctx)
			return
		}

		next(huma.WithContext(ctx, WithSession(ctx.Context(), sess)))
	}
}

func (a *Auth) unauthorized(ctx huma.Context) {
	ctx.SetStatus(http.StatusUnauthorized)
	ctx.SetHeader("Content-Type", "application/json")

	w := ctx.BodyWriter()
	if err := json.NewEncoder(w).Encode(map[string]string{
		"error": "Unauthorized",
	}); err != nil {
		a.log.Error("encode unauthorized response", slog.String("error", err.Error()))
	}
}

// WithSession stores a session in the context the way Middleware does.
func WithSession(ctx context.Context, sess *session.Session) context.Context {
	return context.WithValue(ctx, sessionKey, sess)
}

// GetSession returns the authenticated session stored by Middleware.
func GetSession(ctx context.Context) (*session.Session, bool) {
	sess, ok := ctx.Value(sessionKey).(*session.Session)
	return sess, ok
}
