package worker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"

	"github.com/stemsi/compass-backend/internal/config"
	"github.com/stemsi/compass-backend/internal/model"
)

const sinkTimeout = 10 * time.Second

// EventSink receives persisted batches, e.g. the spreadsheet webhook.
type EventSink interface {
	Enabled() bool
	SendEvents(ctx context.Context, batches []model.EventBatch) error
}

// EventWorker persists tracker batches into interaction_events. Telemetry is
// best-effort: rows that fail both the bulk and the row-by-row path are
// logged and dropped.
type EventWorker struct {
	db   DB
	q    Popper
	sink EventSink
	log  zerolog.Logger
	now  func() time.Time
}

func NewEventWorker(db DB, q Popper, sink EventSink, log zerolog.Logger) *EventWorker {
	return &EventWorker{
		db:   db,
		q:    q,
		sink: sink,
		log:  log.With().Str("component", "event_worker").Logger(),
		now:  time.Now,
	}
}

var eventColumns = []string{"session_id", "event_type", "question_id", "occurred_at", "event_data", "recorded_at"}

func (w *EventWorker) Start(ctx context.Context) {
	w.log.Info().Msg("EventWorker started")

	loop[model.EventBatch]{
		q:       w.q,
		key:     config.WorkerKey.PersistEventsQueue,
		size:    BatchSize,
		timeout: BatchTimeout,
		log:     w.log,
		decode: func(raw string) (model.EventBatch, error) {
			var b model.EventBatch
			err := json.Unmarshal([]byte(raw), &b)
			return b, err
		},
		flush: w.flushSafe,
	}.run(ctx)
}

// flushSafe attempts the bulk copy, then a row-by-row insert, then forwards
// the batches to the sink.
func (w *EventWorker) flushSafe(ctx context.Context, batches []model.EventBatch) {
	rows := w.rows(batches)
	if len(rows) > 0 {
		if err := w.bulkInsert(ctx, rows); err != nil {
			w.log.Warn().Err(err).Int("count", len(rows)).Msg("Bulk insert failed, attempting row-by-row recovery")
			w.fallbackInsert(ctx, rows)
		}
	}

	if w.sink != nil && w.sink.Enabled() {
		sinkCtx, cancel := context.WithTimeout(ctx, sinkTimeout)
		defer cancel()
		if err := w.sink.SendEvents(sinkCtx, batches); err != nil {
			w.log.Warn().Err(err).Int("batches", len(batches)).Msg("Sheet forward failed, dropped")
		}
	}
}

func (w *EventWorker) rows(batches []model.EventBatch) [][]any {
	recordedAt := w.now()
	rows := make([][]any, 0, len(batches)*5)
	for _, b := range batches {
		sid, err := uuid.Parse(b.SessionID)
		if err != nil {
			w.log.Error().Str("session_id", b.SessionID).Int("count", len(b.Events)).Msg("Dropping batch with invalid session id")
			continue
		}
		for _, ev := range b.Events {
			var data any
			if len(ev.Data) > 0 {
				data = string(ev.Data)
			}
			rows = append(rows, []any{
				sid, string(ev.Type), ev.QuestionID, time.UnixMilli(ev.Timestamp).UTC(), data, recordedAt,
			})
		}
	}
	return rows
}

func (w *EventWorker) bulkInsert(ctx context.Context, rows [][]any) error {
	_, err := w.db.CopyFrom(ctx, pgx.Identifier{"interaction_events"}, eventColumns, pgx.CopyFromRows(rows))
	return err
}

func (w *EventWorker) fallbackInsert(ctx context.Context, rows [][]any) {
	dropped := 0
	for _, r := range rows {
		_, err := w.db.Exec(ctx,
			`INSERT INTO interaction_events (session_id, event_type, question_id, occurred_at, event_data, recorded_at)
			 VALUES ($1, $2, $3, $4, $5::jsonb, $6)`,
			r...,
		)
		if err != nil {
			dropped++
			w.log.Error().Err(err).Any("session_id", r[0]).Msg("Event insert failed, dropped")
		}
	}
	if dropped > 0 {
		w.log.Warn().Int("dropped", dropped).Int("total", len(rows)).Msg("Row-by-row recovery finished with losses")
	}
}
