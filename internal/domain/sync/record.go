package sync

import (
	"encoding/json"
)

// Record is one line of the newline-delimited sync stream.
type Record struct {
	Type EntityType `json:"type"`
	Data any        `json:"data"`
	Ack  string     `json:"ack"`
}

// EncodeLine renders the record as a JSON line with a trailing newline.
func (r Record) EncodeLine() ([]byte, error) {
	b, err := json.Marshal(r)
	if err != nil {
		return nil, err
	}
	return append(b, '\n'), nil
}

func completeRecord() Record {
	return Record{
		Type: EntitySyncCompleteV1,
		Data: map[string]any{},
		Ack:  ToAckToken(EntitySyncCompleteV1, ""),
	}
}

func resetRecord() Record {
	return Record{
		Type: EntitySyncResetV1,
		Data: map[string]any{},
		Ack:  ToAckToken(EntitySyncResetV1, "reset"),
	}
}

func errorRecord(ack string) Record {
	return Record{
		Type: "Error",
		Data: map[string]any{"message": "Internal sync error occurred"},
		Ack:  ack,
	}
}
