package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stemsi/compass-backend/internal/model"
)

// EventRepository reads persisted interaction events for the monitor view.
type EventRepository struct {
	pool *pgxpool.Pool
}

// NewEventRepository creates a new EventRepository.
func NewEventRepository(pool *pgxpool.Pool) *EventRepository {
	return &EventRepository{pool: pool}
}

// ListRecentBySession returns the last limit stored events of one session,
// oldest first.
func (r *EventRepository) ListRecentBySession(ctx context.Context, sessionID uuid.UUID, limit int) ([]model.InteractionEvent, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT event_type, question_id, ts, event_data FROM (
		     SELECT id, event_type, question_id,
		            (EXTRACT(EPOCH FROM occurred_at) * 1000)::bigint AS ts, event_data
		     FROM interaction_events
		     WHERE session_id = $1
		     ORDER BY occurred_at DESC, id DESC
		     LIMIT $2
		 ) recent
		 ORDER BY ts, id`, sessionID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	events := make([]model.InteractionEvent, 0)
	for rows.Next() {
		var ev model.InteractionEvent
		var data []byte
		if err := rows.Scan(&ev.Type, &ev.QuestionID, &ev.Timestamp, &data); err != nil {
			return nil, err
		}
		ev.Data = data
		events = append(events, ev)
	}
	return events, rows.Err()
}

// CountBySession returns how many events are stored per type for a session.
func (r *EventRepository) CountBySession(ctx context.Context, sessionID uuid.UUID) (map[model.EventType]int64, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT event_type, COUNT(*) FROM interaction_events WHERE session_id = $1 GROUP BY event_type`,
		sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[model.EventType]int64)
	for rows.Next() {
		var t model.EventType
		var n int64
		if err := rows.Scan(&t, &n); err != nil {
			return nil, err
		}
		counts[t] = n
	}
	return counts, rows.Err()
}
