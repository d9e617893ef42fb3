package sync

// Request/Response structures for the sync stream
type streamInput struct {
	Body StreamRequest
}

type StreamRequest struct {
	Types []string `json:"types" minItems:"1" doc:"Sync request types, e.g. AssetsV1"`
	Reset bool     `json:"reset,omitempty" doc:"Discard stored checkpoints and sync from scratch"`
}

// Request/Response structures for acks
type getAcksInput struct {
}

type getAcksOutput struct {
	Body []CheckpointResponse
}

type CheckpointResponse struct {
	Type string `json:"type" example:"AssetV1"`
	Ack  string `json:"ack" doc:"Opaque ack token last stored for this type"`
}

type sendAcksInput struct {
	Body SendAcksRequest
}

type SendAcksRequest struct {
	Acks []string `json:"acks" minItems:"1" doc:"Ack tokens from stream records"`
}

type sendAcksOutput struct {
}

// A missing types field clears every checkpoint; an empty list clears
// nothing.
type deleteAcksInput struct {
	Body DeleteAcksRequest
}

type DeleteAcksRequest struct {
	Types []string `json:"types,omitempty" doc:"Entity types to clear; omit to clear all"`
}

type deleteAcksOutput struct {
}
