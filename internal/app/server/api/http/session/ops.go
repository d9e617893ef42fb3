package session

import (
	"net/http"

	"github.com/danielgtaylor/huma/v2"
)

func (h *Handler) createOp() huma.Operation {
	return huma.Operation{
		OperationID: "session-create",
		Method:      http.MethodPost,
		Path:        "/api/sessions",
		Summary:     "Create a sync session",
		Description: "Validates the upstream credential and mints a session token for it",
		Tags:        []string{"sessions"},
		Middlewares: h.public,
	}
}

func (h *Handler) listOp() huma.Operation {
	return huma.Operation{
		OperationID: "session-list",
		Method:      http.MethodGet,
		Path:        "/api/sessions",
		Summary:     "List sessions",
		Description: "Returns every live session belonging to the caller's user",
		Tags:        []string{"sessions"},
		Security:    []map[string][]string{{"bearer": {}}},
		Middlewares: h.authed,
	}
}

func (h *Handler) deleteOp() huma.Operation {
	return huma.Operation{
		OperationID: "session-delete",
		Method:      http.MethodDelete,
		Path:        "/api/sessions/{id}",
		Summary:     "Delete a session",
		Description: "Deletes one of the caller's sessions along with its checkpoints",
		Tags:        []string{"sessions"},
		Security:    []map[string][]string{{"bearer": {}}},
		Middlewares: h.authed,
	}
}

func (h *Handler) deleteAllOp() huma.Operation {
	return huma.Operation{
		OperationID: "session-delete-all",
		Method:      http.MethodDelete,
		Path:        "/api/sessions",
		Summary:     "Delete all sessions",
		Description: "Deletes every session of the caller's user along with their checkpoints",
		Tags:        []string{"sessions"},
		Security:    []map[string][]string{{"bearer": {}}},
		Middlewares: h.authed,
	}
}

func (h *Handler) resetOp() huma.Operation {
	return huma.Operation{
		OperationID: "session-sync-reset",
		Method:      http.MethodPost,
		Path:        "/api/sessions/{id}/reset",
		Summary:     "Force a full resync",
		Description: "Marks a session so its next sync stream starts over from scratch",
		Tags:        []string{"sessions"},
		Security:    []map[string][]string{{"bearer": {}}},
		Middlewares: h.authed,
	}
}
