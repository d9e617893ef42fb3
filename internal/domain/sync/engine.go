package sync

import (
	"context"
	"time"

	"github.com/google/uuid"
	"golang.org/x/exp/slog"

	"photobridge/internal/domain/checkpoint"
)

const eventsPageSize = 500

// Checkpoints is the slice of the checkpoint service the engine reads.
type Checkpoints interface {
	GetAll(ctx context.Context, sessionID string) ([]checkpoint.Checkpoint, error)
}

// deleteCounterparts maps an upsert entity type to the delete type
// whose acks advance through the same event feed.
var deleteCounterparts = map[EntityType]EntityType{
	EntityAssetV1:     EntityAssetDeleteV1,
	EntityAlbumV1:     EntityAlbumDeleteV1,
	EntityPersonV1:    EntityPersonDeleteV1,
	EntityAssetFaceV1: EntityAssetFaceDeleteV1,
}

// Engine builds incremental sync streams over the upstream event feed.
type Engine struct {
	upstream    Upstream
	checkpoints Checkpoints
	log         *slog.Logger
	now         func() time.Time
}

func NewEngine(upstream Upstream, checkpoints Checkpoints, log *slog.Logger) *Engine {
	return &Engine{
		upstream:    upstream,
		checkpoints: checkpoints,
		log:         log,
		now:         time.Now,
	}
}

type streamPhase int

const (
	phaseReset streamPhase = iota
	phaseUsers
	phaseEvents
	phaseComplete
	phaseDone
)

// Stream yields the records of one sync response. It is a pull
// iterator: Open is cheap, Next drives the upstream I/O.
type Stream struct {
	eng       *Engine
	sessionID string
	requested map[RequestType]struct{}

	// boundary is captured once per stream so a sync that takes a
	// while still sees a consistent snapshot of the feed.
	boundary time.Time
	cursors  map[EntityType]string

	phase      streamPhase
	mappings   []typeMapping
	typeIdx    int
	pageCursor string

	queue []Record
}

// Open prepares a stream for the session. A session with a pending
// reset gets a stream of exactly one reset marker regardless of the
// requested types; the client must ack it before normal sync resumes.
func (e *Engine) Open(ctx context.Context, sessionID string, pendingReset bool, requested []RequestType) (*Stream, error) {
	s := &Stream{
		eng:       e,
		sessionID: sessionID,
		requested: make(map[RequestType]struct{}, len(requested)),
		cursors:   make(map[EntityType]string),
		boundary:  e.now().UTC(),
	}
	for _, rt := range requested {
		s.requested[rt] = struct{}{}
	}

	if pendingReset {
		s.phase = phaseReset
		return s, nil
	}

	cps, err := e.checkpoints.GetAll(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	for _, cp := range cps {
		s.cursors[EntityType(cp.EntityType)] = cp.Cursor
	}

	for _, m := range syncTypeOrder {
		if _, ok := s.requested[m.request]; ok {
			s.mappings = append(s.mappings, m)
		}
	}

	s.phase = phaseUsers
	s.pageCursor = s.startCursor(0)
	return s, nil
}

// startCursor picks where paging resumes for mapping i: the furthest
// of the upsert-type and delete-type acks, since both walk one feed.
func (s *Stream) startCursor(i int) string {
	if i >= len(s.mappings) {
		return ""
	}
	m := s.mappings[i]
	cursor := s.cursors[m.entity]
	if del, ok := deleteCounterparts[m.entity]; ok {
		if c := s.cursors[del]; c > cursor {
			cursor = c
		}
	}
	return cursor
}

// Next returns the next record of the stream. The second result is
// false once the stream is exhausted.
func (s *Stream) Next(ctx context.Context) (Record, bool) {
	for len(s.queue) == 0 && s.phase != phaseDone {
		s.advance(ctx)
	}
	if len(s.queue) == 0 {
		return Record{}, false
	}
	rec := s.queue[0]
	s.queue = s.queue[1:]
	return rec, true
}

func (s *Stream) advance(ctx context.Context) {
	switch s.phase {
	case phaseReset:
		s.queue = append(s.queue, resetRecord())
		s.phase = phaseDone
	case phaseUsers:
		if err := s.emitUsers(ctx); err != nil {
			s.fail(err)
			return
		}
		s.phase = phaseEvents
	case phaseEvents:
		if s.typeIdx >= len(s.mappings) {
			s.phase = phaseComplete
			return
		}
		if err := s.emitEventPage(ctx); err != nil {
			s.fail(err)
		}
	case phaseComplete:
		s.queue = append(s.queue, completeRecord())
		s.phase = phaseDone
	}
}

// fail converts an upstream error into an error record. The stream
// still terminates with a completion marker so clients do not hang
// waiting for more data.
func (s *Stream) fail(err error) {
	s.eng.log.Error("sync stream failed",
		slog.String("session_id", s.sessionID),
		slog.String("error", err.Error()),
	)
	s.queue = append(s.queue,
		errorRecord(uuid.NewString()),
		completeRecord(),
	)
	s.phase = phaseDone
}

// emitUsers emits the account records. Users are not event-sourced;
// their cursor is the account's last-modified stamp, and an unchanged
// cursor means nothing to send.
func (s *Stream) emitUsers(ctx context.Context) error {
	_, wantUsers := s.requested[RequestUsersV1]
	_, wantAuth := s.requested[RequestAuthUsersV1]
	if !wantUsers && !wantAuth {
		return nil
	}

	me, err := s.eng.upstream.Me(ctx)
	if err != nil {
		return err
	}
	cursor := userCursor(me)

	if wantAuth && s.cursors[EntityAuthUserV1] != cursor {
		data, err := translateAuthUser(me)
		if err != nil {
			return err
		}
		s.queue = append(s.queue, Record{
			Type: EntityAuthUserV1,
			Data: data,
			Ack:  ToAckToken(EntityAuthUserV1, cursor),
		})
	}
	if wantUsers && s.cursors[EntityUserV1] != cursor {
		data, err := translateUser(me)
		if err != nil {
			return err
		}
		s.queue = append(s.queue, Record{
			Type: EntityUserV1,
			Data: data,
			Ack:  ToAckToken(EntityUserV1, cursor),
		})
	}
	return nil
}

func userCursor(u User) string {
	if u.UpdatedAt != nil {
		return u.UpdatedAt.UTC().Format(time.RFC3339Nano)
	}
	return u.ID
}

// emitEventPage pages one batch of events for the current type,
// resolves the touched entities in bulk, and queues records in event
// order so each ack is a safe resume point.
func (s *Stream) emitEventPage(ctx context.Context) error {
	m := s.mappings[s.typeIdx]

	page, err := s.eng.upstream.Events(ctx, m.upstream, eventsPageSize, s.boundary, s.pageCursor)
	if err != nil {
		return err
	}

	var upsertIDs []string
	for _, ev := range page.Data {
		if isDeleteEvent(ev.EventType) || isSkippedEvent(ev.EventType) {
			continue
		}
		upsertIDs = append(upsertIDs, ev.EntityID)
	}

	var entities map[string]any
	if len(upsertIDs) > 0 {
		entities, err = fetchEntities(ctx, s.eng.upstream, m.upstream, upsertIDs)
		if err != nil {
			return err
		}
	}

	for _, ev := range page.Data {
		switch {
		case isSkippedEvent(ev.EventType):
			// Intentionally unacked; the next sync re-reads and
			// re-skips them.
		case isDeleteEvent(ev.EventType):
			rec, ok, err := translateDelete(s.eng.log, ev)
			if err != nil {
				return err
			}
			if ok {
				s.queue = append(s.queue, rec)
			}
		default:
			rec, ok, err := translateUpsert(s.eng.log, m, ev, entities)
			if err != nil {
				return err
			}
			if ok {
				s.queue = append(s.queue, rec)
			}
		}
	}

	// An empty page ends this feed even when the upstream still claims
	// more; re-requesting the same cursor would never terminate.
	if len(page.Data) == 0 || !page.HasMore {
		s.typeIdx++
		s.pageCursor = s.startCursor(s.typeIdx)
		return nil
	}
	s.pageCursor = page.Data[len(page.Data)-1].ID
	return nil
}
