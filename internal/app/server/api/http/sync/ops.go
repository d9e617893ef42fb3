package sync

import (
	"net/http"

	"github.com/danielgtaylor/huma/v2"
)

func (h *Handler) streamOp() huma.Operation {
	return huma.Operation{
		OperationID: "sync-stream",
		Method:      http.MethodPost,
		Path:        "/api/sync/stream",
		Summary:     "Stream sync records",
		Description: "Streams newline-delimited sync records for the requested types, resuming from stored checkpoints",
		Tags:        []string{"sync"},
		Security:    []map[string][]string{{"bearer": {}}},
		Middlewares: h.middleware,
	}
}

func (h *Handler) getAcksOp() huma.Operation {
	return huma.Operation{
		OperationID: "sync-get-acks",
		Method:      http.MethodGet,
		Path:        "/api/sync/ack",
		Summary:     "List stored checkpoints",
		Description: "Returns the last acknowledged position per entity type",
		Tags:        []string{"sync"},
		Security:    []map[string][]string{{"bearer": {}}},
		Middlewares: h.middleware,
	}
}

func (h *Handler) sendAcksOp() huma.Operation {
	return huma.Operation{
		OperationID: "sync-send-acks",
		Method:      http.MethodPost,
		Path:        "/api/sync/ack",
		Summary:     "Acknowledge sync progress",
		Description: "Stores checkpoints for the acknowledged stream records",
		Tags:        []string{"sync"},
		Security:    []map[string][]string{{"bearer": {}}},
		Middlewares: h.middleware,
	}
}

func (h *Handler) deleteAcksOp() huma.Operation {
	return huma.Operation{
		OperationID: "sync-delete-acks",
		Method:      http.MethodDelete,
		Path:        "/api/sync/ack",
		Summary:     "Clear stored checkpoints",
		Description: "Deletes checkpoints for the given entity types, or all of them when no types are given",
		Tags:        []string{"sync"},
		Security:    []map[string][]string{{"bearer": {}}},
		Middlewares: h.middleware,
	}
}
