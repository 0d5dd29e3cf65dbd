package scoring

import (
	"fmt"
	"sort"

	"github.com/stemsi/compass-backend/internal/model"
)

// Tiers holds the inclusive upper bounds of the lower two insight tiers.
type Tiers struct {
	DevelopingMax int
	ProficientMax int
}

// DefaultTiers splits the 0-100 range into thirds.
var DefaultTiers = Tiers{DevelopingMax: 33, ProficientMax: 66}

// Tier buckets a percentage.
func (t Tiers) Tier(pct int) model.InsightTier {
	switch {
	case pct <= t.DevelopingMax:
		return model.InsightDeveloping
	case pct <= t.ProficientMax:
		return model.InsightProficient
	default:
		return model.InsightStrength
	}
}

// RankAndDescribe returns a copy of scores sorted by raw score descending,
// ties kept in their original order, each with an insight attached.
func RankAndDescribe(scores []model.CompetencyScore, tiers Tiers) []model.CompetencyScore {
	ranked := make([]model.CompetencyScore, len(scores))
	copy(ranked, scores)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})
	for i := range ranked {
		describe(&ranked[i], tiers)
	}
	return ranked
}

func describe(s *model.CompetencyScore, tiers Tiers) {
	s.Percentage = NormalizePercentage(s.Score, s.MaxScore)
	s.Tier = tiers.Tier(s.Percentage)

	name := s.DisplayName
	if name == "" {
		name = string(s.Dimension)
	}
	switch s.Tier {
	case model.InsightStrength:
		s.Insight = fmt.Sprintf("%s is a clear strength; responses consistently favoured effective approaches.", name)
	case model.InsightProficient:
		s.Insight = fmt.Sprintf("%s is solid, with room to apply it more consistently under pressure.", name)
	default:
		s.Insight = fmt.Sprintf("%s is a development area; targeted practice or coaching is recommended.", name)
	}
}

// TopStrengths returns the first n entries of a ranked slice.
func TopStrengths(ranked []model.CompetencyScore, n int) []model.CompetencyScore {
	if n > len(ranked) {
		n = len(ranked)
	}
	if n < 0 {
		n = 0
	}
	out := make([]model.CompetencyScore, n)
	copy(out, ranked[:n])
	return out
}

// Lowest returns the n lowest-scoring entries, lowest first. Ties keep the
// order they have in scores.
func Lowest(scores []model.CompetencyScore, n int) []model.CompetencyScore {
	asc := make([]model.CompetencyScore, len(scores))
	copy(asc, scores)
	sort.SliceStable(asc, func(i, j int) bool {
		return asc[i].Score < asc[j].Score
	})
	if n > len(asc) {
		n = len(asc)
	}
	if n < 0 {
		n = 0
	}
	return asc[:n]
}

// LowestThree is the dashboard's development-areas view.
func LowestThree(scores []model.CompetencyScore) []model.CompetencyScore {
	return Lowest(scores, 3)
}

// Tuples strips presentation fields for the recommendation generator.
func Tuples(scores []model.CompetencyScore) []model.ScoreTuple {
	out := make([]model.ScoreTuple, len(scores))
	for i, s := range scores {
		out[i] = model.ScoreTuple{Dimension: s.Dimension, Score: s.Score, MaxScore: s.MaxScore}
	}
	return out
}
