package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/stemsi/compass-backend/internal/config"
	"github.com/stemsi/compass-backend/internal/model"
	"github.com/stemsi/compass-backend/internal/questionbank"
	"github.com/stemsi/compass-backend/internal/recommend"
	"github.com/stemsi/compass-backend/internal/scoring"
	"github.com/stemsi/compass-backend/internal/store"
)

const recommendationTTL = 7 * 24 * time.Hour

// Recommender produces the narrative feedback for ranked scores.
type Recommender interface {
	Recommend(ctx context.Context, candidate model.Candidate, ranked []model.CompetencyScore) recommend.Recommendation
}

// ResultService serves the HR views of persisted results.
type ResultService struct {
	results     ResultStore
	sessions    SessionStore
	bank        *questionbank.Bank
	recommender Recommender
	cache       store.KV
	tiers       scoring.Tiers
	log         zerolog.Logger
}

// NewResultService creates a new ResultService.
func NewResultService(
	results ResultStore,
	sessions SessionStore,
	bank *questionbank.Bank,
	recommender Recommender,
	cache store.KV,
	log zerolog.Logger,
) *ResultService {
	return &ResultService{
		results:     results,
		sessions:    sessions,
		bank:        bank,
		recommender: recommender,
		cache:       cache,
		tiers:       scoring.DefaultTiers,
		log:         log.With().Str("component", "result_service").Logger(),
	}
}

// List returns one page of sessions with their result summary.
func (s *ResultService) List(ctx context.Context, q model.ResultListQuery) ([]model.ResultSummary, int, error) {
	q.Normalize()
	items, total, err := s.results.ListPaginated(ctx, q)
	if err != nil {
		return nil, 0, fmt.Errorf("list results: %w", err)
	}
	return items, total, nil
}

// Detail assembles the ranked scores, insights, analytics and narrative of
// one completed session.
func (s *ResultService) Detail(ctx context.Context, sessionID uuid.UUID) (*model.ResultDetail, error) {
	session, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("get session: %w", err)
	}

	stored, err := s.results.GetBySession(ctx, sessionID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrResultNotReady
		}
		return nil, fmt.Errorf("get result: %w", err)
	}

	ranked := scoring.RankAndDescribe(s.decorate(stored.Scores), s.tiers)

	return &model.ResultDetail{
		Session:          *session,
		Ranked:           ranked,
		TopStrengths:     scoring.TopStrengths(ranked, 3),
		DevelopmentAreas: scoring.LowestThree(ranked),
		Analytics:        stored.Analytics,
		Answers:          stored.Answers,
		CompletedAt:      stored.CompletedAt,
		Recommendation:   s.recommendation(ctx, session, ranked),
	}, nil
}

// decorate refreshes presentation fields from the current bank so renamed
// competencies show their new labels on old results.
func (s *ResultService) decorate(scores []model.CompetencyScore) []model.CompetencyScore {
	out := make([]model.CompetencyScore, len(scores))
	for i, sc := range scores {
		if def, ok := s.bank.Definition(sc.Dimension); ok {
			sc.DisplayName = def.DisplayName
			sc.Color = def.Color
			sc.Category = def.Category
		}
		out[i] = sc
	}
	return out
}

func (s *ResultService) recommendation(ctx context.Context, session *model.AssessmentSession, ranked []model.CompetencyScore) recommend.Recommendation {
	key := config.CacheKey.SessionRecommendationKey(session.ID.String())

	if raw, err := s.cache.Get(ctx, key).Bytes(); err == nil {
		var rec recommend.Recommendation
		if json.Unmarshal(raw, &rec) == nil {
			return rec
		}
	} else if !errors.Is(err, redis.Nil) {
		s.log.Warn().Err(err).Msg("Recommendation cache read failed")
	}

	rec := s.recommender.Recommend(ctx, session.Candidate, ranked)
	// Template output is cheap to rebuild and may be replaced by an AI reply later.
	if rec.Source == recommend.SourceAI {
		if data, err := json.Marshal(rec); err == nil {
			if err := s.cache.Set(ctx, key, data, recommendationTTL).Err(); err != nil {
				s.log.Warn().Err(err).Msg("Recommendation cache write failed")
			}
		}
	}
	return rec
}
