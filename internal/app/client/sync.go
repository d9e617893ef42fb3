package client

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"golang.org/x/exp/slog"
)

// DefaultSyncTypes covers the whole library.
var DefaultSyncTypes = []string{
	"AuthUsersV1",
	"UsersV1",
	"AssetsV1",
	"AlbumsV1",
	"AlbumToAssetsV1",
	"AssetExifsV1",
	"PeopleV1",
	"AssetFacesV1",
}

const (
	// Acks flush at this cadence so an interrupted sync resumes close
	// to where it stopped.
	ackFlushEvery = 1000

	// A reset stream restarts the sync once; a second reset in a row
	// means something is wrong server-side.
	maxResetRestarts = 1

	maxLineSize = 10 * 1024 * 1024
)

// SyncResult summarizes one sync run.
type SyncResult struct {
	Applied  int
	WasReset bool
}

// Sync pulls the stream for the given types and folds it into the
// local mirror, acking progress as it goes. With full, the server
// drops its checkpoints and the mirror is rebuilt from scratch. A
// reset record wipes the mirror, acknowledges the reset, and runs the
// sync again from zero.
func (a *App) Sync(ctx context.Context, types []string, full bool) (*SyncResult, error) {
	if len(types) == 0 {
		types = DefaultSyncTypes
	}

	if full {
		if err := a.mirror.Reset(); err != nil {
			return nil, fmt.Errorf("reset mirror: %w", err)
		}
	}

	result := &SyncResult{}
	for restart := 0; ; restart++ {
		reset, applied, err := a.syncOnce(ctx, types, full && restart == 0)
		if err != nil {
			return nil, err
		}
		result.Applied += applied

		if !reset {
			return result, nil
		}
		result.WasReset = true
		if restart >= maxResetRestarts {
			return nil, errors.New("server keeps requesting resets")
		}
		a.log.Info("full resync requested by server, starting over")
	}
}

func (a *App) syncOnce(ctx context.Context, types []string, full bool) (reset bool, applied int, err error) {
	body, err := a.http.OpenStream(ctx, types, full)
	if err != nil {
		return false, 0, fmt.Errorf("open stream: %w", err)
	}
	defer body.Close()

	// Latest ack per record type; one ack per type is enough because
	// checkpoints only keep the newest cursor anyway.
	pending := make(map[string]string)
	var sinceFlush int

	flush := func() error {
		if len(pending) == 0 {
			return nil
		}
		acks := make([]string, 0, len(pending))
		for _, ack := range pending {
			acks = append(acks, ack)
		}
		if err := a.http.SendAcks(ctx, acks); err != nil {
			return fmt.Errorf("send acks: %w", err)
		}
		pending = make(map[string]string)
		sinceFlush = 0
		return nil
	}

	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 64*1024), maxLineSize)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var rec StreamRecord
		if err := json.Unmarshal(line, &rec); err != nil {
			return false, applied, fmt.Errorf("decode stream record: %w", err)
		}

		switch rec.Type {
		case "SyncResetV1":
			if err := a.mirror.Reset(); err != nil {
				return false, applied, err
			}
			if err := a.http.SendAcks(ctx, []string{rec.Ack}); err != nil {
				return false, applied, fmt.Errorf("ack reset: %w", err)
			}
			return true, applied, nil

		case "SyncCompleteV1":
			if err := flush(); err != nil {
				return false, applied, err
			}
			return false, applied, nil

		case "Error":
			var msg struct {
				Message string `json:"message"`
			}
			_ = json.Unmarshal(rec.Data, &msg)
			// Keep what was applied; acks already sent stay valid.
			if err := flush(); err != nil {
				a.log.Warn("flush acks after stream error", slog.String("error", err.Error()))
			}
			return false, applied, fmt.Errorf("server sync error: %s", msg.Message)

		default:
			if err := a.mirror.Apply(rec); err != nil {
				return false, applied, fmt.Errorf("apply %s: %w", rec.Type, err)
			}
			applied++
			pending[rec.Type] = rec.Ack
			sinceFlush++
			if sinceFlush >= ackFlushEvery {
				if err := flush(); err != nil {
					return false, applied, err
				}
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return false, applied, fmt.Errorf("read stream: %w", err)
	}

	// Stream ended without a completion marker; keep the acks anyway.
	if err := flush(); err != nil {
		return false, applied, err
	}
	return false, applied, nil
}
