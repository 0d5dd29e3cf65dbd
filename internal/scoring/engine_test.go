package scoring

import (
	"testing"

	"github.com/stemsi/compass-backend/internal/model"
	"github.com/stemsi/compass-backend/internal/questionbank"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubTable struct {
	questions []model.Question
	defs      []model.CompetencyDefinition
}

func (s stubTable) Questions() []model.Question                { return s.questions }
func (s stubTable) Competencies() []model.CompetencyDefinition { return s.defs }

func allDefs() []model.CompetencyDefinition {
	defs := make([]model.CompetencyDefinition, len(model.AllCompetencies))
	for i, c := range model.AllCompetencies {
		defs[i] = model.CompetencyDefinition{Code: c, DisplayName: string(c)}
	}
	return defs
}

// twoQuestionTable: A gives {DM:5}, B gives {DM:1, CM:3} on both questions.
func twoQuestionTable() stubTable {
	opts := func() []model.Option {
		return []model.Option{
			{ID: "A", Weights: map[model.Competency]int{model.CompetencyDecisionMaking: 5, model.CompetencyCommunication: 0}},
			{ID: "B", Weights: map[model.Competency]int{model.CompetencyDecisionMaking: 1, model.CompetencyCommunication: 3}},
		}
	}
	return stubTable{
		questions: []model.Question{{ID: 1, Options: opts()}, {ID: 2, Options: opts()}},
		defs:      allDefs(),
	}
}

func scoreFor(t *testing.T, scores []model.CompetencyScore, c model.Competency) model.CompetencyScore {
	t.Helper()
	for _, s := range scores {
		if s.Dimension == c {
			return s
		}
	}
	t.Fatalf("no score for %s", c)
	return model.CompetencyScore{}
}

func TestComputeRawScoresScenario(t *testing.T) {
	e := NewEngine(twoQuestionTable())

	res := e.ComputeRawScores(model.AnswerSet{1: "A", 2: "B"})
	require.Len(t, res.Scores, len(model.AllCompetencies))
	assert.Empty(t, res.Skipped)

	dm := scoreFor(t, res.Scores, model.CompetencyDecisionMaking)
	assert.Equal(t, 6, dm.Score)
	assert.Equal(t, 10, dm.MaxScore)
	assert.Equal(t, 60, dm.Percentage)

	cm := scoreFor(t, res.Scores, model.CompetencyCommunication)
	assert.Equal(t, 3, cm.Score)
	assert.Equal(t, 6, cm.MaxScore)
	assert.Equal(t, 50, cm.Percentage)
}

func TestComputeRawScoresCMOnlyOnSecondQuestion(t *testing.T) {
	// Q1 offers no CM weight anywhere, so max CM is 0 + 3.
	table := stubTable{
		questions: []model.Question{
			{ID: 1, Options: []model.Option{
				{ID: "A", Weights: map[model.Competency]int{model.CompetencyDecisionMaking: 5}},
				{ID: "B", Weights: map[model.Competency]int{model.CompetencyDecisionMaking: 1}},
			}},
			{ID: 2, Options: []model.Option{
				{ID: "A", Weights: map[model.Competency]int{model.CompetencyDecisionMaking: 5}},
				{ID: "B", Weights: map[model.Competency]int{model.CompetencyDecisionMaking: 1, model.CompetencyCommunication: 3}},
			}},
		},
		defs: allDefs(),
	}
	e := NewEngine(table)

	res := e.ComputeRawScores(model.AnswerSet{1: "A", 2: "B"})
	dm := scoreFor(t, res.Scores, model.CompetencyDecisionMaking)
	assert.Equal(t, 6, dm.Score)
	assert.Equal(t, 10, dm.MaxScore)
	assert.Equal(t, 60, dm.Percentage)

	cm := scoreFor(t, res.Scores, model.CompetencyCommunication)
	assert.Equal(t, 3, cm.Score)
	assert.Equal(t, 3, cm.MaxScore)
	assert.Equal(t, 100, cm.Percentage)
}

func TestComputeRawScoresEmptyAnswers(t *testing.T) {
	e := NewEngine(twoQuestionTable())
	full := e.ComputeRawScores(model.AnswerSet{1: "A", 2: "B"})
	empty := e.ComputeRawScores(model.AnswerSet{})

	for i, s := range empty.Scores {
		assert.Zero(t, s.Score)
		assert.Zero(t, s.Percentage)
		assert.Equal(t, full.Scores[i].MaxScore, s.MaxScore)
	}
}

func TestComputeRawScoresReportsSkipped(t *testing.T) {
	e := NewEngine(twoQuestionTable())

	res := e.ComputeRawScores(model.AnswerSet{1: "A", 2: "Z", 42: "A"})
	assert.Equal(t, []model.SkippedAnswer{
		{QuestionID: 2, OptionID: "Z", Reason: model.SkipUnknownOption},
		{QuestionID: 42, OptionID: "A", Reason: model.SkipUnknownQuestion},
	}, res.Skipped)

	dm := scoreFor(t, res.Scores, model.CompetencyDecisionMaking)
	assert.Equal(t, 5, dm.Score)
}

func TestScoresFollowTableOrder(t *testing.T) {
	e := NewEngine(twoQuestionTable())
	res := e.ComputeRawScores(model.AnswerSet{})
	for i, c := range model.AllCompetencies {
		assert.Equal(t, c, res.Scores[i].Dimension)
	}
}

func TestEngineWithDefaultBank(t *testing.T) {
	bank, err := questionbank.Default()
	require.NoError(t, err)
	e := NewEngine(bank)

	answers := model.AnswerSet{}
	for _, q := range bank.Questions() {
		answers[q.ID] = q.Options[0].ID
	}
	res := e.Score(answers, DefaultTiers)
	require.Len(t, res.Scores, 8)
	for _, s := range res.Scores {
		assert.GreaterOrEqual(t, s.Score, 0)
		assert.LessOrEqual(t, s.Score, s.MaxScore)
		assert.Positive(t, s.MaxScore)
		assert.NotEmpty(t, s.Insight)
		assert.NotEmpty(t, s.Color)
	}
}
