// Package recommend produces the narrative feedback shown next to a
// candidate's scores. It asks an OpenAI-compatible chat endpoint and falls
// back to a fixed template whenever that fails.
package recommend

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/stemsi/compass-backend/internal/model"
)

// Source tells the dashboard where a narrative came from.
type Source string

const (
	SourceAI       Source = "ai"
	SourceTemplate Source = "template"
)

// Recommendation is the narrative feedback for one result.
type Recommendation struct {
	Source           Source   `json:"source"`
	Summary          string   `json:"summary"`
	Strengths        []string `json:"strengths"`
	DevelopmentAreas []string `json:"development_areas"`
}

// Config holds the generator settings. An empty BaseURL disables the AI path.
type Config struct {
	BaseURL string
	APIKey  string
	Model   string
	Timeout time.Duration
	// RequestsPerMinute throttles outbound calls; zero means unlimited.
	RequestsPerMinute int
}

// Service returns a narrative for every request; it never fails.
type Service struct {
	client  *Client
	limiter *rate.Limiter
	log     zerolog.Logger
}

func NewService(cfg Config, log zerolog.Logger) *Service {
	s := &Service{log: log.With().Str("component", "recommend").Logger()}
	if cfg.BaseURL != "" {
		s.client = NewClient(cfg)
	}
	if cfg.RequestsPerMinute > 0 {
		s.limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(cfg.RequestsPerMinute)), 1)
	}
	return s
}

// Recommend returns an AI narrative for the ranked scores, or the template
// narrative when the generator is disabled, throttled or misbehaves.
func (s *Service) Recommend(ctx context.Context, candidate model.Candidate, ranked []model.CompetencyScore) Recommendation {
	if s.client == nil {
		return Template(ranked)
	}
	if s.limiter != nil && !s.limiter.Allow() {
		s.log.Debug().Msg("Recommendation throttled, using template")
		return Template(ranked)
	}

	rec, err := s.client.Generate(ctx, candidate, ranked)
	if err != nil {
		s.log.Warn().Err(err).Msg("Recommendation generator failed, using template")
		return Template(ranked)
	}
	return rec
}
