package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/stemsi/compass-backend/internal/config"
	"github.com/stemsi/compass-backend/internal/reporting"
)

// ResultSink receives persisted results, e.g. the spreadsheet webhook.
type ResultSink interface {
	Enabled() bool
	SendResult(ctx context.Context, result reporting.ResultPayload) error
}

// MirrorClearer drops a session's reload-survival mirror.
type MirrorClearer interface {
	Clear(ctx context.Context, sessionID string)
}

// CacheDeleter invalidates derived caches.
type CacheDeleter interface {
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// ResultWorker upserts scored results, their per-competency rows and the
// completed session state in one statement per batch.
type ResultWorker struct {
	db     DB
	q      Popper
	sink   ResultSink
	mirror MirrorClearer
	cache  CacheDeleter
	log    zerolog.Logger
}

func NewResultWorker(db DB, q Popper, sink ResultSink, mirror MirrorClearer, cache CacheDeleter, log zerolog.Logger) *ResultWorker {
	return &ResultWorker{
		db:     db,
		q:      q,
		sink:   sink,
		mirror: mirror,
		cache:  cache,
		log:    log.With().Str("component", "result_worker").Logger(),
	}
}

func (w *ResultWorker) Start(ctx context.Context) {
	w.log.Info().Msg("ResultWorker started")

	loop[reporting.ResultPayload]{
		q:       w.q,
		key:     config.WorkerKey.PersistResultsQueue,
		size:    BatchSize,
		timeout: BatchTimeout,
		log:     w.log,
		decode: func(raw string) (reporting.ResultPayload, error) {
			var p reporting.ResultPayload
			if err := json.Unmarshal([]byte(raw), &p); err != nil {
				return p, err
			}
			if _, err := uuid.Parse(p.SessionID); err != nil {
				return p, fmt.Errorf("invalid session id %q: %w", p.SessionID, err)
			}
			return p, nil
		},
		flush: w.flushSafe,
	}.run(ctx)
}

// ----------------------------------------------------------------
// Batch upsert wrapper
// ----------------------------------------------------------------

func (w *ResultWorker) flushSafe(ctx context.Context, batch []reporting.ResultPayload) {
	batch = latestPerSession(batch)

	persisted := batch
	if err := w.upsert(ctx, batch); err != nil {
		w.log.Warn().Err(err).Int("count", len(batch)).Msg("Bulk result upsert failed, using fallback")

		persisted = make([]reporting.ResultPayload, 0, len(batch))
		for _, p := range batch {
			if err := w.upsert(ctx, []reporting.ResultPayload{p}); err != nil {
				// Mirror is kept; the result stays recoverable from Redis until its TTL.
				w.log.Error().Err(err).Str("session_id", p.SessionID).Msg("Result upsert failed, dropped")
				continue
			}
			persisted = append(persisted, p)
		}
	}
	if len(persisted) == 0 {
		return
	}

	for _, p := range persisted {
		w.mirror.Clear(ctx, p.SessionID)
	}
	if err := w.cache.Del(ctx, config.CacheKey.DashboardKey()).Err(); err != nil {
		w.log.Warn().Err(err).Msg("Dashboard cache invalidation failed")
	}

	w.forward(ctx, persisted)
	w.log.Info().Int("count", len(persisted)).Msg("Results persisted")
}

func (w *ResultWorker) forward(ctx context.Context, results []reporting.ResultPayload) {
	if w.sink == nil || !w.sink.Enabled() {
		return
	}
	for _, p := range results {
		sinkCtx, cancel := context.WithTimeout(ctx, sinkTimeout)
		err := w.sink.SendResult(sinkCtx, p)
		cancel()
		if err != nil {
			w.log.Warn().Err(err).Str("session_id", p.SessionID).Msg("Sheet forward failed, dropped")
		}
	}
}

// latestPerSession keeps the last payload of each session so one statement
// never touches the same row twice.
func latestPerSession(batch []reporting.ResultPayload) []reporting.ResultPayload {
	index := make(map[string]int, len(batch))
	out := make([]reporting.ResultPayload, 0, len(batch))
	for _, p := range batch {
		if i, ok := index[p.SessionID]; ok {
			out[i] = p
			continue
		}
		index[p.SessionID] = len(out)
		out = append(out, p)
	}
	return out
}

// ----------------------------------------------------------------
// Bulk PostgreSQL upsert using UNNEST
// ----------------------------------------------------------------

const upsertResultsSQL = `
	WITH input AS (
		SELECT *
		FROM UNNEST($1::uuid[], $2::jsonb[], $3::jsonb[], $4::jsonb[], $5::timestamptz[])
		     AS u (session_id, answers, scores, analytics, completed_at)
	),
	results AS (
		INSERT INTO assessment_results (session_id, answers, scores, analytics, completed_at)
		SELECT session_id, answers, scores, analytics, completed_at FROM input
		ON CONFLICT (session_id) DO UPDATE
		SET answers      = EXCLUDED.answers,
		    scores       = EXCLUDED.scores,
		    analytics    = EXCLUDED.analytics,
		    completed_at = EXCLUDED.completed_at
	),
	sessions AS (
		UPDATE assessment_sessions AS s
		SET status      = 'COMPLETED',
		    finished_at = COALESCE(s.finished_at, i.completed_at)
		FROM input AS i
		WHERE s.id = i.session_id
	)
	INSERT INTO competency_scores (session_id, competency, score, max_score, percentage)
	SELECT * FROM UNNEST($6::uuid[], $7::text[], $8::int[], $9::int[], $10::int[])
	ON CONFLICT (session_id, competency) DO UPDATE
	SET score      = EXCLUDED.score,
	    max_score  = EXCLUDED.max_score,
	    percentage = EXCLUDED.percentage
`

type upsertArgs struct {
	sessionIDs  []uuid.UUID
	answers     []string
	scores      []string
	analytics   []*string
	completedAt []time.Time

	scoreSessions []uuid.UUID
	competencies  []string
	raw           []int
	maxRaw        []int
	percentages   []int
}

func buildUpsertArgs(batch []reporting.ResultPayload) (*upsertArgs, error) {
	a := &upsertArgs{}
	for _, p := range batch {
		sid, err := uuid.Parse(p.SessionID)
		if err != nil {
			return nil, err
		}
		answers, err := json.Marshal(p.Answers)
		if err != nil {
			return nil, fmt.Errorf("encode answers: %w", err)
		}
		scores, err := json.Marshal(p.CompetencyScores)
		if err != nil {
			return nil, fmt.Errorf("encode scores: %w", err)
		}
		var analytics *string
		if p.Analytics != nil {
			data, err := json.Marshal(p.Analytics)
			if err != nil {
				return nil, fmt.Errorf("encode analytics: %w", err)
			}
			s := string(data)
			analytics = &s
		}
		completed := p.CompletedAt
		if completed.IsZero() {
			completed = time.Now()
		}

		a.sessionIDs = append(a.sessionIDs, sid)
		a.answers = append(a.answers, string(answers))
		a.scores = append(a.scores, string(scores))
		a.analytics = append(a.analytics, analytics)
		a.completedAt = append(a.completedAt, completed)

		for _, sc := range p.CompetencyScores {
			a.scoreSessions = append(a.scoreSessions, sid)
			a.competencies = append(a.competencies, string(sc.Dimension))
			a.raw = append(a.raw, sc.Score)
			a.maxRaw = append(a.maxRaw, sc.MaxScore)
			a.percentages = append(a.percentages, sc.Percentage)
		}
	}
	return a, nil
}

func (w *ResultWorker) upsert(ctx context.Context, batch []reporting.ResultPayload) error {
	a, err := buildUpsertArgs(batch)
	if err != nil {
		return err
	}
	_, err = w.db.Exec(ctx, upsertResultsSQL,
		a.sessionIDs, a.answers, a.scores, a.analytics, a.completedAt,
		a.scoreSessions, a.competencies, a.raw, a.maxRaw, a.percentages,
	)
	return err
}
