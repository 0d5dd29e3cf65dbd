// Package questionbank loads the static scenario table and competency
// definitions the assessment is scored against.
package questionbank

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"regexp"

	"github.com/stemsi/compass-backend/internal/model"
	"gopkg.in/yaml.v3"
)

//go:embed questions.yaml
var defaultTable []byte

const (
	minOptions = 2
	maxOptions = 6
)

var optionIDPattern = regexp.MustCompile(`^[A-Z]$`)

// ErrInvalidBank is wrapped by every validation failure.
var ErrInvalidBank = errors.New("invalid question bank")

// Bank is an immutable, validated question table.
type Bank struct {
	questions    []model.Question
	competencies []model.CompetencyDefinition
	byID         map[int]int
	defByCode    map[model.Competency]model.CompetencyDefinition
}

type rawBank struct {
	Competencies []rawCompetency `yaml:"competencies"`
	Questions    []rawQuestion   `yaml:"questions"`
}

type rawCompetency struct {
	Code        string `yaml:"code"`
	DisplayName string `yaml:"display_name"`
	Color       string `yaml:"color"`
	Category    string `yaml:"category"`
}

type rawQuestion struct {
	ID      int         `yaml:"id"`
	Text    string      `yaml:"text"`
	Options []rawOption `yaml:"options"`
}

type rawOption struct {
	ID      string         `yaml:"id"`
	Text    string         `yaml:"text"`
	Weights map[string]int `yaml:"weights"`
}

// Default returns the bank embedded in the binary.
func Default() (*Bank, error) {
	return Parse(defaultTable)
}

// Load reads a bank from path, falling back to the embedded table when
// path is empty.
func Load(path string) (*Bank, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read question bank: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a YAML question table.
func Parse(data []byte) (*Bank, error) {
	var raw rawBank
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("unmarshal question bank: %w", err)
	}

	b := &Bank{
		byID:      make(map[int]int, len(raw.Questions)),
		defByCode: make(map[model.Competency]model.CompetencyDefinition, len(raw.Competencies)),
	}

	for _, rc := range raw.Competencies {
		code, err := model.ParseCompetency(rc.Code)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidBank, err)
		}
		if _, dup := b.defByCode[code]; dup {
			return nil, fmt.Errorf("%w: duplicate competency %s", ErrInvalidBank, code)
		}
		def := model.CompetencyDefinition{
			Code:        code,
			DisplayName: rc.DisplayName,
			Color:       rc.Color,
			Category:    rc.Category,
		}
		b.defByCode[code] = def
		b.competencies = append(b.competencies, def)
	}
	if len(b.competencies) != len(model.AllCompetencies) {
		return nil, fmt.Errorf("%w: expected %d competencies, got %d",
			ErrInvalidBank, len(model.AllCompetencies), len(b.competencies))
	}

	for _, rq := range raw.Questions {
		q, err := convertQuestion(rq)
		if err != nil {
			return nil, err
		}
		if _, dup := b.byID[q.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate question id %d", ErrInvalidBank, q.ID)
		}
		b.byID[q.ID] = len(b.questions)
		b.questions = append(b.questions, q)
	}
	if len(b.questions) == 0 {
		return nil, fmt.Errorf("%w: no questions", ErrInvalidBank)
	}

	b.fillWeights()
	return b, nil
}

func convertQuestion(rq rawQuestion) (model.Question, error) {
	q := model.Question{ID: rq.ID, Text: rq.Text}
	if rq.ID <= 0 {
		return q, fmt.Errorf("%w: question id must be positive, got %d", ErrInvalidBank, rq.ID)
	}
	if n := len(rq.Options); n < minOptions || n > maxOptions {
		return q, fmt.Errorf("%w: question %d has %d options, want %d-%d",
			ErrInvalidBank, rq.ID, n, minOptions, maxOptions)
	}

	seen := make(map[string]bool, len(rq.Options))
	for _, ro := range rq.Options {
		if !optionIDPattern.MatchString(ro.ID) {
			return q, fmt.Errorf("%w: question %d option id %q is not a single letter", ErrInvalidBank, rq.ID, ro.ID)
		}
		if seen[ro.ID] {
			return q, fmt.Errorf("%w: question %d has duplicate option %s", ErrInvalidBank, rq.ID, ro.ID)
		}
		seen[ro.ID] = true

		weights := make(map[model.Competency]int, len(ro.Weights))
		for code, w := range ro.Weights {
			c, err := model.ParseCompetency(code)
			if err != nil {
				return q, fmt.Errorf("%w: question %d option %s: %v", ErrInvalidBank, rq.ID, ro.ID, err)
			}
			if w < 0 {
				return q, fmt.Errorf("%w: question %d option %s has negative weight for %s", ErrInvalidBank, rq.ID, ro.ID, c)
			}
			weights[c] = w
		}
		q.Options = append(q.Options, model.Option{ID: ro.ID, Text: ro.Text, Weights: weights})
	}
	return q, nil
}

// fillWeights gives every option an explicit entry for every competency
// used anywhere in the table.
func (b *Bank) fillWeights() {
	used := make(map[model.Competency]bool)
	for _, q := range b.questions {
		for _, o := range q.Options {
			for c := range o.Weights {
				used[c] = true
			}
		}
	}
	for qi := range b.questions {
		for oi := range b.questions[qi].Options {
			w := b.questions[qi].Options[oi].Weights
			for c := range used {
				if _, ok := w[c]; !ok {
					w[c] = 0
				}
			}
		}
	}
}

// Questions returns the table in authored order.
func (b *Bank) Questions() []model.Question {
	return b.questions
}

// Competencies returns the definitions in authored order.
func (b *Bank) Competencies() []model.CompetencyDefinition {
	return b.competencies
}

// Question looks up a question by id.
func (b *Bank) Question(id int) (*model.Question, bool) {
	i, ok := b.byID[id]
	if !ok {
		return nil, false
	}
	return &b.questions[i], true
}

// Definition returns the presentation attributes for c.
func (b *Bank) Definition(c model.Competency) (model.CompetencyDefinition, bool) {
	def, ok := b.defByCode[c]
	return def, ok
}

// ForCandidate returns the questions with weights stripped.
func (b *Bank) ForCandidate() []model.QuestionForCandidate {
	out := make([]model.QuestionForCandidate, len(b.questions))
	for i, q := range b.questions {
		opts := make([]model.OptionForCandidate, len(q.Options))
		for j, o := range q.Options {
			opts[j] = model.OptionForCandidate{ID: o.ID, Text: o.Text}
		}
		out[i] = model.QuestionForCandidate{ID: q.ID, Text: q.Text, Options: opts}
	}
	return out
}
