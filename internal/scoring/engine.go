// Package scoring folds an answer set against the question table into
// per-competency raw scores and normalized percentages.
package scoring

import (
	"sort"

	"github.com/stemsi/compass-backend/internal/model"
)

// Table is the static content the engine scores against.
type Table interface {
	Questions() []model.Question
	Competencies() []model.CompetencyDefinition
}

// Result is the outcome of ComputeRawScores.
type Result struct {
	Scores  []model.CompetencyScore `json:"scores"`
	Skipped []model.SkippedAnswer   `json:"skipped,omitempty"`
}

// Engine scores answer sets. Max scores depend only on the table and are
// computed once at construction. An Engine is safe for concurrent use.
type Engine struct {
	questions []model.Question
	defs      []model.CompetencyDefinition
	index     map[int]int
	maxScores map[model.Competency]int
}

// NewEngine precomputes the per-competency maximum for table.
func NewEngine(table Table) *Engine {
	e := &Engine{
		questions: table.Questions(),
		defs:      table.Competencies(),
		index:     make(map[int]int, len(table.Questions())),
	}
	for i, q := range e.questions {
		e.index[q.ID] = i
	}
	codes := make([]model.Competency, len(e.defs))
	for i, d := range e.defs {
		codes[i] = d.Code
	}
	e.maxScores = MaxScores(e.questions, codes)
	return e
}

// MaxScores sums, over every question, the highest weight any option offers
// for each competency. Unanswered questions still count.
func MaxScores(questions []model.Question, codes []model.Competency) map[model.Competency]int {
	out := make(map[model.Competency]int, len(codes))
	for _, c := range codes {
		total := 0
		for i := range questions {
			best := 0
			for j := range questions[i].Options {
				if w := questions[i].Options[j].Weight(c); w > best {
					best = w
				}
			}
			total += best
		}
		out[c] = total
	}
	return out
}

// MaxScore returns the precomputed maximum for c.
func (e *Engine) MaxScore(c model.Competency) int {
	return e.maxScores[c]
}

// ComputeRawScores returns one CompetencyScore per known competency, in
// table order. Answers referencing an unknown question or option contribute
// nothing and are reported in Result.Skipped.
func (e *Engine) ComputeRawScores(answers model.AnswerSet) Result {
	totals := make(map[model.Competency]int, len(e.defs))
	var skipped []model.SkippedAnswer

	for _, qID := range sortedQuestionIDs(answers) {
		optID := answers[qID]
		qi, ok := e.index[qID]
		if !ok {
			skipped = append(skipped, model.SkippedAnswer{QuestionID: qID, OptionID: optID, Reason: model.SkipUnknownQuestion})
			continue
		}
		opt, ok := e.questions[qi].Option(optID)
		if !ok {
			skipped = append(skipped, model.SkippedAnswer{QuestionID: qID, OptionID: optID, Reason: model.SkipUnknownOption})
			continue
		}
		for _, d := range e.defs {
			totals[d.Code] += opt.Weight(d.Code)
		}
	}

	scores := make([]model.CompetencyScore, len(e.defs))
	for i, d := range e.defs {
		maxScore := e.maxScores[d.Code]
		scores[i] = model.CompetencyScore{
			Dimension:   d.Code,
			Score:       totals[d.Code],
			MaxScore:    maxScore,
			Percentage:  NormalizePercentage(totals[d.Code], maxScore),
			DisplayName: d.DisplayName,
			Color:       d.Color,
			Category:    d.Category,
		}
	}
	return Result{Scores: scores, Skipped: skipped}
}

// Score computes raw scores and ranks them with insights attached.
func (e *Engine) Score(answers model.AnswerSet, tiers Tiers) Result {
	res := e.ComputeRawScores(answers)
	res.Scores = RankAndDescribe(res.Scores, tiers)
	return res
}

func sortedQuestionIDs(answers model.AnswerSet) []int {
	ids := make([]int, 0, len(answers))
	for id := range answers {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}
