package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stemsi/compass-backend/internal/model"
)

// DashboardRepository handles HR dashboard aggregates.
type DashboardRepository struct {
	pool *pgxpool.Pool
}

// NewDashboardRepository creates a new DashboardRepository.
func NewDashboardRepository(pool *pgxpool.Pool) *DashboardRepository {
	return &DashboardRepository{pool: pool}
}

// GetStatusCounts retrieves the distribution of sessions by status.
func (r *DashboardRepository) GetStatusCounts(ctx context.Context) (map[model.SessionStatus]int, error) {
	rows, err := r.pool.Query(ctx, `SELECT status, COUNT(*) FROM assessment_sessions GROUP BY status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[model.SessionStatus]int)
	for rows.Next() {
		var status model.SessionStatus
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		counts[status] = count
	}
	return counts, rows.Err()
}

// GetAverageCompletionSeconds returns the mean time from start to finish of
// completed sessions, or nil when there are none.
func (r *DashboardRepository) GetAverageCompletionSeconds(ctx context.Context) (*float64, error) {
	var avg *float64
	err := r.pool.QueryRow(ctx,
		`SELECT AVG(EXTRACT(EPOCH FROM (finished_at - started_at)))::float8
		 FROM assessment_sessions
		 WHERE status = $1 AND finished_at IS NOT NULL`,
		model.SessionStatusCompleted,
	).Scan(&avg)
	return avg, err
}

// GetCompetencyAverages returns the mean percentage per competency.
func (r *DashboardRepository) GetCompetencyAverages(ctx context.Context) ([]model.CompetencyAverage, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT competency, AVG(percentage)::float8, COUNT(*)
		 FROM competency_scores
		 GROUP BY competency
		 ORDER BY competency`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.CompetencyAverage
	for rows.Next() {
		var a model.CompetencyAverage
		if err := rows.Scan(&a.Competency, &a.AvgPercentage, &a.Samples); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// GetRecentResults retrieves the latest completed sessions.
func (r *DashboardRepository) GetRecentResults(ctx context.Context, limit int) ([]model.ResultSummary, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT s.id, s.candidate_name, s.candidate_email, s.candidate_role, s.status, s.started_at, res.completed_at
		 FROM assessment_results res
		 JOIN assessment_sessions s ON s.id = res.session_id
		 ORDER BY res.completed_at DESC
		 LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.ResultSummary
	for rows.Next() {
		var it model.ResultSummary
		if err := rows.Scan(&it.SessionID, &it.Candidate.Name, &it.Candidate.Email, &it.Candidate.Role,
			&it.Status, &it.StartedAt, &it.CompletedAt); err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}
