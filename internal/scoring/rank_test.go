package scoring

import (
	"testing"

	"github.com/stemsi/compass-backend/internal/model"
	"github.com/stretchr/testify/assert"
)

func TestNormalizePercentage(t *testing.T) {
	cases := []struct {
		score, max, want int
	}{
		{0, 10, 0},
		{10, 10, 100},
		{6, 10, 60},
		{1, 3, 33},
		{2, 3, 67},
		{12, 10, 100},
		{5, 0, 0},
		{0, 0, 0},
	}
	for _, tc := range cases {
		assert.Equalf(t, tc.want, NormalizePercentage(tc.score, tc.max), "score=%d max=%d", tc.score, tc.max)
	}
}

func TestTiers(t *testing.T) {
	assert.Equal(t, model.InsightDeveloping, DefaultTiers.Tier(0))
	assert.Equal(t, model.InsightDeveloping, DefaultTiers.Tier(33))
	assert.Equal(t, model.InsightProficient, DefaultTiers.Tier(34))
	assert.Equal(t, model.InsightProficient, DefaultTiers.Tier(66))
	assert.Equal(t, model.InsightStrength, DefaultTiers.Tier(67))
	assert.Equal(t, model.InsightStrength, DefaultTiers.Tier(100))
}

func TestRankAndDescribeIsStable(t *testing.T) {
	scores := []model.CompetencyScore{
		{Dimension: model.CompetencyDecisionMaking, Score: 3, MaxScore: 10},
		{Dimension: model.CompetencyInitiative, Score: 5, MaxScore: 10},
		{Dimension: model.CompetencyCommunication, Score: 3, MaxScore: 10},
		{Dimension: model.CompetencyTeamwork, Score: 9, MaxScore: 10},
	}

	ranked := RankAndDescribe(scores, DefaultTiers)
	got := make([]model.Competency, len(ranked))
	for i, s := range ranked {
		got[i] = s.Dimension
	}
	assert.Equal(t, []model.Competency{
		model.CompetencyTeamwork,
		model.CompetencyInitiative,
		model.CompetencyDecisionMaking,
		model.CompetencyCommunication,
	}, got)

	assert.Equal(t, model.InsightStrength, ranked[0].Tier)
	assert.Equal(t, model.InsightProficient, ranked[1].Tier)
	assert.Equal(t, model.InsightDeveloping, ranked[3].Tier)
	assert.Contains(t, ranked[0].Insight, "TW")

	// input untouched
	assert.Equal(t, model.CompetencyDecisionMaking, scores[0].Dimension)
	assert.Empty(t, scores[0].Insight)
}

func TestTopStrengthsAndLowestThree(t *testing.T) {
	scores := []model.CompetencyScore{
		{Dimension: model.CompetencyDecisionMaking, Score: 1},
		{Dimension: model.CompetencyInitiative, Score: 5},
		{Dimension: model.CompetencyCommunication, Score: 1},
		{Dimension: model.CompetencyTeamwork, Score: 8},
		{Dimension: model.CompetencyAdaptability, Score: 0},
	}
	ranked := RankAndDescribe(scores, DefaultTiers)

	top := TopStrengths(ranked, 2)
	assert.Equal(t, model.CompetencyTeamwork, top[0].Dimension)
	assert.Equal(t, model.CompetencyInitiative, top[1].Dimension)
	assert.Len(t, TopStrengths(ranked, 99), 5)

	low := LowestThree(ranked)
	assert.Equal(t, []model.Competency{
		model.CompetencyAdaptability,
		model.CompetencyDecisionMaking,
		model.CompetencyCommunication,
	}, []model.Competency{low[0].Dimension, low[1].Dimension, low[2].Dimension})
}

func TestTuples(t *testing.T) {
	tuples := Tuples([]model.CompetencyScore{{Dimension: model.CompetencyTeamwork, Score: 4, MaxScore: 9, Insight: "x"}})
	assert.Equal(t, []model.ScoreTuple{{Dimension: model.CompetencyTeamwork, Score: 4, MaxScore: 9}}, tuples)
}
