package recommend

import (
	"fmt"
	"strings"

	"github.com/stemsi/compass-backend/internal/model"
	"github.com/stemsi/compass-backend/internal/scoring"
)

// Template builds the fallback narrative from ranked scores.
func Template(ranked []model.CompetencyScore) Recommendation {
	rec := Recommendation{
		Source:           SourceTemplate,
		Strengths:        []string{},
		DevelopmentAreas: []string{},
	}
	if len(ranked) == 0 {
		rec.Summary = "No competency scores are available for this assessment."
		return rec
	}

	top := scoring.TopStrengths(ranked, 3)
	low := scoring.LowestThree(ranked)

	for _, s := range top {
		rec.Strengths = append(rec.Strengths, fmt.Sprintf("%s (%d%%): %s", label(s), s.Percentage, s.Insight))
	}
	for _, s := range low {
		rec.DevelopmentAreas = append(rec.DevelopmentAreas, fmt.Sprintf("%s (%d%%): %s", label(s), s.Percentage, s.Insight))
	}

	rec.Summary = fmt.Sprintf(
		"The strongest results were in %s. The areas with the most room to grow are %s.",
		joinLabels(top), joinLabels(low),
	)
	return rec
}

func label(s model.CompetencyScore) string {
	if s.DisplayName != "" {
		return s.DisplayName
	}
	return string(s.Dimension)
}

func joinLabels(scores []model.CompetencyScore) string {
	names := make([]string, len(scores))
	for i, s := range scores {
		names[i] = label(s)
	}
	switch len(names) {
	case 0:
		return "none"
	case 1:
		return names[0]
	default:
		return strings.Join(names[:len(names)-1], ", ") + " and " + names[len(names)-1]
	}
}
