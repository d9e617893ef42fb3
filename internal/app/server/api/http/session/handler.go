package session

import (
	"context"

	"github.com/danielgtaylor/huma/v2"
	"golang.org/x/exp/slog"

	"photobridge/internal/app/server/api/http/middleware/auth"
	"photobridge/internal/domain/session"
	"photobridge/internal/upstream"
)

type Handler struct {
	sessions *session.Store
	upstream *upstream.Factory
	log      *slog.Logger
	public   huma.Middlewares
	authed   huma.Middlewares
}

func NewHandler(sessions *session.Store, upstreamFactory *upstream.Factory, log *slog.Logger, public, authed huma.Middlewares) *Handler {
	return &Handler{
		sessions: sessions,
		upstream: upstreamFactory,
		log:      log,
		public:   public,
		authed:   authed,
	}
}

func (h *Handler) SetupRoutes(api huma.API) {
	huma.Register(api, h.createOp(), h.create)
	huma.Register(api, h.listOp(), h.list)
	huma.Register(api, h.deleteOp(), h.delete)
	huma.Register(api, h.deleteAllOp(), h.deleteAll)
	huma.Register(api, h.resetOp(), h.reset)
}

func (h *Handler) create(ctx context.Context, input *createInput) (*createOutput, error) {
	// The credential is only accepted if the upstream recognizes it.
	me, err := h.upstream.ForCredential(input.Body.Credential).Me(ctx)
	if err != nil {
		h.log.Warn("credential validation failed", slog.String("error", err.Error()))
		return nil, huma.Error401Unauthorized("invalid upstream credential")
	}

	device := session.DeviceInfo{
		DeviceType: input.Body.DeviceType,
		DeviceOS:   input.Body.DeviceOS,
		AppVersion: input.Body.AppVersion,
	}
	sess, token, err := h.sessions.Create(ctx, input.Body.Credential, me.ID, device, input.Body.ExpiresAt)
	if err != nil {
		h.log.Error("create session", slog.String("error", err.Error()))
		return nil, huma.Error500InternalServerError("failed to create session")
	}

	return &createOutput{
		Body: CreateResponse{
			Token:     token,
			SessionID: sess.ID,
			UserID:    me.ID,
		},
	}, nil
}

func (h *Handler) list(ctx context.Context, _ *listInput) (*listOutput, error) {
	sess, ok := auth.GetSession(ctx)
	if !ok {
		return nil, huma.Error401Unauthorized("Unauthorized")
	}

	sessions, err := h.sessions.GetByUser(ctx, sess.UserID)
	if err != nil {
		h.log.Error("list sessions", slog.String("error", err.Error()))
		return nil, huma.Error500InternalServerError("failed to list sessions")
	}

	body := make([]Response, 0, len(sessions))
	for _, s := range sessions {
		body = append(body, Response{
			ID:               s.ID,
			DeviceType:       s.DeviceType,
			DeviceOS:         s.DeviceOS,
			AppVersion:       s.AppVersion,
			PendingSyncReset: s.PendingSyncReset,
			Current:          s.ID == sess.ID,
			CreatedAt:        s.CreatedAt,
			UpdatedAt:        s.UpdatedAt,
			ExpiresAt:        s.ExpiresAt,
		})
	}
	return &listOutput{Body: body}, nil
}

func (h *Handler) delete(ctx context.Context, input *deleteInput) (*deleteOutput, error) {
	sess, ok := auth.GetSession(ctx)
	if !ok {
		return nil, huma.Error401Unauthorized("Unauthorized")
	}

	target, err := h.owned(ctx, sess, input.ID)
	if err != nil {
		return nil, err
	}

	if _, err := h.sessions.DeleteByID(ctx, target); err != nil {
		h.log.Error("delete session", slog.String("error", err.Error()))
		return nil, huma.Error500InternalServerError("failed to delete session")
	}
	return &deleteOutput{}, nil
}

func (h *Handler) deleteAll(ctx context.Context, _ *deleteAllInput) (*deleteAllOutput, error) {
	sess, ok := auth.GetSession(ctx)
	if !ok {
		return nil, huma.Error401Unauthorized("Unauthorized")
	}

	count, err := h.sessions.DeleteAllForUser(ctx, sess.UserID)
	if err != nil {
		h.log.Error("delete sessions", slog.String("error", err.Error()))
		return nil, huma.Error500InternalServerError("failed to delete sessions")
	}
	return &deleteAllOutput{Body: DeleteAllResponse{Deleted: count}}, nil
}

func (h *Handler) reset(ctx context.Context, input *resetInput) (*resetOutput, error) {
	sess, ok := auth.GetSession(ctx)
	if !ok {
		return nil, huma.Error401Unauthorized("Unauthorized")
	}

	target, err := h.owned(ctx, sess, input.ID)
	if err != nil {
		return nil, err
	}

	if _, err := h.sessions.SetPendingSyncReset(ctx, target, true); err != nil {
		h.log.Error("set pending sync reset", slog.String("error", err.Error()))
		return nil, huma.Error500InternalServerError("failed to request reset")
	}
	return &resetOutput{}, nil
}

// owned resolves a session ID ("me" means the caller's own) and
// verifies it belongs to the caller's user.
func (h *Handler) owned(ctx context.Context, caller *session.Session, id string) (string, error) {
	if id == "me" || id == caller.ID {
		return caller.ID, nil
	}
	target, err := h.sessions.GetByID(ctx, id)
	if err != nil {
		return "", huma.Error500InternalServerError("failed to load session")
	}
	if target == nil || target.UserID != caller.UserID {
		return "", huma.Error404NotFound("session not found")
	}
	return target.ID, nil
}
