package sync

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"golang.org/x/exp/slog"

	"photobridge/internal/app/server/api/http/middleware/auth"
	"photobridge/internal/domain/checkpoint"
	"photobridge/internal/domain/session"
	"photobridge/internal/domain/sync"
	"photobridge/internal/upstream"
)

// Sessions is the slice of the session service the sync endpoints use.
type Sessions interface {
	Credential(sess *session.Session) (string, error)
	UpdateActivityByID(ctx context.Context, id string) (bool, error)
	SetPendingSyncReset(ctx context.Context, id string, pending bool) (bool, error)
}

// Checkpoints is the slice of the checkpoint service the sync
// endpoints use.
type Checkpoints interface {
	GetAll(ctx context.Context, sessionID string) ([]checkpoint.Checkpoint, error)
	SetMany(ctx context.Context, sessionID string, entries []checkpoint.Entry) error
	Delete(ctx context.Context, sessionID string, entityTypes []string) error
	DeleteAll(ctx context.Context, sessionID string) error
}

type Handler struct {
	sessions    Sessions
	checkpoints Checkpoints
	upstream    *upstream.Factory
	log         *slog.Logger
	middleware  huma.Middlewares
}

func NewHandler(sessions Sessions, checkpoints Checkpoints, upstreamFactory *upstream.Factory, log *slog.Logger, middleware huma.Middlewares) *Handler {
	return &Handler{
		sessions:    sessions,
		checkpoints: checkpoints,
		upstream:    upstreamFactory,
		log:         log,
		middleware:  middleware,
	}
}

func (h *Handler) SetupRoutes(api huma.API) {
	huma.Register(api, h.streamOp(), h.stream)
	huma.Register(api, h.getAcksOp(), h.getAcks)
	huma.Register(api, h.sendAcksOp(), h.sendAcks)
	huma.Register(api, h.deleteAcksOp(), h.deleteAcks)
}

func (h *Handler) stream(ctx context.Context, input *streamInput) (*huma.StreamResponse, error) {
	sess, ok := auth.GetSession(ctx)
	if !ok {
		return nil, huma.Error401Unauthorized("Unauthorized")
	}

	requested := make([]sync.RequestType, 0, len(input.Body.Types))
	for _, t := range input.Body.Types {
		rt, ok := sync.ParseRequestType(t)
		if !ok {
			return nil, huma.Error400BadRequest("unknown sync type: " + t)
		}
		requested = append(requested, rt)
	}

	// A client-requested full resync drops all checkpoints up front. A
	// pending server-side reset outranks it: that stream is a lone reset
	// marker and touches nothing.
	if input.Body.Reset && !sess.PendingSyncReset {
		if err := h.checkpoints.DeleteAll(ctx, sess.ID); err != nil {
			h.log.Error("reset checkpoints",
				slog.String("session_id", sess.ID),
				slog.String("error", err.Error()),
			)
			return nil, huma.Error500InternalServerError("sync unavailable")
		}
	}

	credential, err := h.sessions.Credential(sess)
	if err != nil {
		h.log.Error("decrypt session credential",
			slog.String("session_id", sess.ID),
			slog.String("error", err.Error()),
		)
		return nil, huma.Error500InternalServerError("sync unavailable")
	}

	engine := sync.NewEngine(h.upstream.ForCredential(credential), h.checkpoints, h.log)
	stream, err := engine.Open(ctx, sess.ID, sess.PendingSyncReset, requested)
	if err != nil {
		h.log.Error("open sync stream",
			slog.String("session_id", sess.ID),
			slog.String("error", err.Error()),
		)
		return nil, huma.Error500InternalServerError("sync unavailable")
	}

	return &huma.StreamResponse{
		Body: func(hctx huma.Context) {
			hctx.SetHeader("Content-Type", "application/jsonlines+json")

			w := hctx.BodyWriter()
			flusher, _ := w.(http.Flusher)
			for {
				rec, ok := stream.Next(hctx.Context())
				if !ok {
					break
				}
				line, err := rec.EncodeLine()
				if err != nil {
					h.log.Error("encode sync record", slog.String("error", err.Error()))
					return
				}
				if _, err := w.Write(line); err != nil {
					// Client went away mid-stream; acks cover resume.
					return
				}
				if flusher != nil {
					flusher.Flush()
				}
			}
		},
	}, nil
}

func (h *Handler) getAcks(ctx context.Context, _ *getAcksInput) (*getAcksOutput, error) {
	sess, ok := auth.GetSession(ctx)
	if !ok {
		return nil, huma.Error401Unauthorized("Unauthorized")
	}

	cps, err := h.checkpoints.GetAll(ctx, sess.ID)
	if err != nil {
		h.log.Error("load checkpoints", slog.String("error", err.Error()))
		return nil, huma.Error500InternalServerError("failed to load checkpoints")
	}

	body := make([]CheckpointResponse, 0, len(cps))
	for _, cp := range cps {
		body = append(body, CheckpointResponse{
			Type: cp.EntityType,
			Ack:  sync.ToAckToken(sync.EntityType(cp.EntityType), cp.Cursor),
		})
	}
	return &getAcksOutput{Body: body}, nil
}

func (h *Handler) sendAcks(ctx context.Context, input *sendAcksInput) (*sendAcksOutput, error) {
	sess, ok := auth.GetSession(ctx)
	if !ok {
		return nil, huma.Error401Unauthorized("Unauthorized")
	}

	var entries []checkpoint.Entry
	for _, token := range input.Body.Acks {
		parsed, err := sync.ParseAckToken(token)
		if err != nil {
			return nil, huma.Error400BadRequest("invalid ack: " + token)
		}
		if parsed == nil {
			h.log.Warn("malformed ack skipped",
				slog.String("session_id", sess.ID),
				slog.String("ack", token),
			)
			continue
		}

		// Acking a reset marker completes the reset handshake: the
		// pending flag clears, every checkpoint goes, and any other
		// acks in the batch are meaningless.
		if parsed.EntityType == sync.EntitySyncResetV1 {
			if _, err := h.sessions.SetPendingSyncReset(ctx, sess.ID, false); err != nil {
				return nil, huma.Error500InternalServerError("failed to complete reset")
			}
			if err := h.checkpoints.DeleteAll(ctx, sess.ID); err != nil {
				return nil, huma.Error500InternalServerError("failed to complete reset")
			}
			h.touch(ctx, sess.ID)
			return &sendAcksOutput{}, nil
		}

		if parsed.Cursor == "" {
			continue
		}
		entries = append(entries, checkpoint.Entry{
			EntityType: string(parsed.EntityType),
			Cursor:     parsed.Cursor,
		})
	}

	if err := h.checkpoints.SetMany(ctx, sess.ID, entries); err != nil {
		h.log.Error("store checkpoints", slog.String("error", err.Error()))
		return nil, huma.Error500InternalServerError("failed to store checkpoints")
	}
	h.touch(ctx, sess.ID)
	return &sendAcksOutput{}, nil
}

func (h *Handler) deleteAcks(ctx context.Context, input *deleteAcksInput) (*deleteAcksOutput, error) {
	sess, ok := auth.GetSession(ctx)
	if !ok {
		return nil, huma.Error401Unauthorized("Unauthorized")
	}

	if input.Body.Types == nil {
		if err := h.checkpoints.DeleteAll(ctx, sess.ID); err != nil {
			h.log.Error("delete checkpoints", slog.String("error", err.Error()))
			return nil, huma.Error500InternalServerError("failed to delete checkpoints")
		}
		return &deleteAcksOutput{}, nil
	}

	types := make([]string, 0, len(input.Body.Types))
	for _, t := range input.Body.Types {
		if _, ok := sync.ParseEntityType(t); !ok {
			return nil, huma.Error400BadRequest("unknown entity type: " + t)
		}
		types = append(types, t)
	}
	if err := h.checkpoints.Delete(ctx, sess.ID, types); err != nil {
		h.log.Error("delete checkpoints", slog.String("error", err.Error()))
		return nil, huma.Error500InternalServerError("failed to delete checkpoints")
	}
	return &deleteAcksOutput{}, nil
}

func (h *Handler) touch(ctx context.Context, sessionID string) {
	if _, err := h.sessions.UpdateActivityByID(ctx, sessionID); err != nil {
		h.log.Warn("update session activity",
			slog.String("session_id", sessionID),
			slog.String("error", err.Error()),
		)
	}
}
