package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stemsi/compass-backend/internal/model"
)

// ResultRepository reads persisted assessment results. Writes happen in the
// result worker.
type ResultRepository struct {
	pool *pgxpool.Pool
}

// NewResultRepository creates a new ResultRepository.
func NewResultRepository(pool *pgxpool.Pool) *ResultRepository {
	return &ResultRepository{pool: pool}
}

// GetBySession retrieves the stored result of one session.
func (r *ResultRepository) GetBySession(ctx context.Context, sessionID uuid.UUID) (*model.StoredResult, error) {
	var res model.StoredResult
	var answers, scores, analytics []byte
	err := r.pool.QueryRow(ctx,
		`SELECT session_id, answers, scores, analytics, completed_at
		 FROM assessment_results
		 WHERE session_id = $1`, sessionID,
	).Scan(&res.SessionID, &answers, &scores, &analytics, &res.CompletedAt)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(answers, &res.Answers); err != nil {
		return nil, fmt.Errorf("decode answers: %w", err)
	}
	if err := json.Unmarshal(scores, &res.Scores); err != nil {
		return nil, fmt.Errorf("decode scores: %w", err)
	}
	if len(analytics) > 0 {
		res.Analytics = &model.SessionAnalytics{}
		if err := json.Unmarshal(analytics, res.Analytics); err != nil {
			return nil, fmt.Errorf("decode analytics: %w", err)
		}
	}
	return &res, nil
}

// ListPaginated lists sessions with their result summary, newest first.
func (r *ResultRepository) ListPaginated(ctx context.Context, q model.ResultListQuery) ([]model.ResultSummary, int, error) {
	where := []string{"1=1"}
	args := []any{}
	if q.Search != "" {
		args = append(args, "%"+q.Search+"%")
		where = append(where, fmt.Sprintf("(s.candidate_name ILIKE $%d OR s.candidate_email ILIKE $%d)", len(args), len(args)))
	}
	if q.Status != "" {
		args = append(args, q.Status)
		where = append(where, fmt.Sprintf("s.status = $%d", len(args)))
	}
	cond := strings.Join(where, " AND ")

	var total int
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM assessment_sessions s WHERE `+cond, args...,
	).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, q.PerPage, q.Offset())
	rows, err := r.pool.Query(ctx,
		`SELECT s.id, s.candidate_name, s.candidate_email, s.candidate_role, s.status, s.started_at,
		        res.completed_at,
		        (SELECT cs.competency FROM competency_scores cs
		          WHERE cs.session_id = s.id ORDER BY cs.score DESC, cs.competency LIMIT 1),
		        (SELECT AVG(cs.percentage)::float8 FROM competency_scores cs WHERE cs.session_id = s.id)
		 FROM assessment_sessions s
		 LEFT JOIN assessment_results res ON res.session_id = s.id
		 WHERE `+cond+fmt.Sprintf(`
		 ORDER BY s.started_at DESC
		 LIMIT $%d OFFSET $%d`, len(args)-1, len(args)),
		args...,
	)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	items := make([]model.ResultSummary, 0, q.PerPage)
	for rows.Next() {
		var it model.ResultSummary
		if err := rows.Scan(&it.SessionID, &it.Candidate.Name, &it.Candidate.Email, &it.Candidate.Role,
			&it.Status, &it.StartedAt, &it.CompletedAt, &it.TopCompetency, &it.Average); err != nil {
			return nil, 0, err
		}
		items = append(items, it)
	}
	return items, total, rows.Err()
}
