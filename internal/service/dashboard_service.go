package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/stemsi/compass-backend/internal/config"
	"github.com/stemsi/compass-backend/internal/model"
	"github.com/stemsi/compass-backend/internal/questionbank"
	"github.com/stemsi/compass-backend/internal/store"
)

const (
	dashboardCacheTTL   = 30 * time.Second
	dashboardRecentSize = 10
)

// DashboardService aggregates the HR overview.
type DashboardService struct {
	repo  DashboardStore
	bank  *questionbank.Bank
	cache store.KV
	log   zerolog.Logger
}

// NewDashboardService creates a new DashboardService.
func NewDashboardService(repo DashboardStore, bank *questionbank.Bank, cache store.KV, log zerolog.Logger) *DashboardService {
	return &DashboardService{
		repo:  repo,
		bank:  bank,
		cache: cache,
		log:   log.With().Str("component", "dashboard_service").Logger(),
	}
}

// Stats returns the overview, served from a short-lived Redis cache.
func (s *DashboardService) Stats(ctx context.Context) (*model.DashboardStats, error) {
	key := config.CacheKey.DashboardKey()
	if raw, err := s.cache.Get(ctx, key).Bytes(); err == nil {
		var cached model.DashboardStats
		if json.Unmarshal(raw, &cached) == nil {
			return &cached, nil
		}
	} else if !errors.Is(err, redis.Nil) {
		s.log.Warn().Err(err).Msg("Dashboard cache read failed")
	}

	stats, err := s.compute(ctx)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(stats); err == nil {
		if err := s.cache.Set(ctx, key, data, dashboardCacheTTL).Err(); err != nil {
			s.log.Warn().Err(err).Msg("Dashboard cache write failed")
		}
	}
	return stats, nil
}

// compute runs the four independent queries concurrently.
func (s *DashboardService) compute(ctx context.Context) (*model.DashboardStats, error) {
	var (
		counts   map[model.SessionStatus]int
		avgSecs  *float64
		averages []model.CompetencyAverage
		recent   []model.ResultSummary
		errs     [4]error
		wg       sync.WaitGroup
	)

	wg.Add(4)
	go func() {
		defer wg.Done()
		counts, errs[0] = s.repo.GetStatusCounts(ctx)
	}()
	go func() {
		defer wg.Done()
		avgSecs, errs[1] = s.repo.GetAverageCompletionSeconds(ctx)
	}()
	go func() {
		defer wg.Done()
		averages, errs[2] = s.repo.GetCompetencyAverages(ctx)
	}()
	go func() {
		defer wg.Done()
		recent, errs[3] = s.repo.GetRecentResults(ctx, dashboardRecentSize)
	}()
	wg.Wait()

	if err := errors.Join(errs[:]...); err != nil {
		return nil, fmt.Errorf("dashboard stats: %w", err)
	}

	stats := &model.DashboardStats{
		InProgress:        counts[model.SessionStatusInProgress],
		Completed:         counts[model.SessionStatusCompleted],
		AvgCompletionSecs: avgSecs,
		Averages:          s.fillAverages(averages),
		Recent:            recent,
	}
	stats.TotalSessions = stats.InProgress + stats.Completed
	if stats.Recent == nil {
		stats.Recent = []model.ResultSummary{}
	}
	return stats, nil
}

// fillAverages returns one entry per bank competency, in bank order, with
// zero samples for competencies nobody has been scored on yet.
func (s *DashboardService) fillAverages(rows []model.CompetencyAverage) []model.CompetencyAverage {
	byCode := make(map[model.Competency]model.CompetencyAverage, len(rows))
	for _, r := range rows {
		byCode[r.Competency] = r
	}

	defs := s.bank.Competencies()
	out := make([]model.CompetencyAverage, 0, len(defs))
	for _, d := range defs {
		a := byCode[d.Code]
		a.Competency = d.Code
		a.DisplayName = d.DisplayName
		a.Color = d.Color
		out = append(out, a)
	}
	return out
}
