package model

// Question is a single narrative scenario with its answer options.
// Questions are loaded once from the question bank and never mutated.
type Question struct {
	ID      int      `json:"id"`
	Text    string   `json:"text"`
	Options []Option `json:"options"`
}

// Option is one selectable answer. Weights maps each competency to the
// points this option contributes toward it.
type Option struct {
	ID      string             `json:"id"`
	Text    string             `json:"text"`
	Weights map[Competency]int `json:"weights"`
}

// Option returns the option with the given id, if present.
func (q *Question) Option(id string) (*Option, bool) {
	for i := range q.Options {
		if q.Options[i].ID == id {
			return &q.Options[i], true
		}
	}
	return nil, false
}

// Weight returns the option's weight for c, treating a missing entry as 0.
func (o *Option) Weight(c Competency) int {
	return o.Weights[c]
}

// QuestionForCandidate is the candidate-facing view (no weights).
type QuestionForCandidate struct {
	ID      int                  `json:"id"`
	Text    string               `json:"text"`
	Options []OptionForCandidate `json:"options"`
}

// OptionForCandidate is an option without its scoring weights.
type OptionForCandidate struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// AnswerSet maps a question id to the chosen option id.
type AnswerSet map[int]string

// Clone returns an independent copy, so the scorer never sees later edits.
func (a AnswerSet) Clone() AnswerSet {
	out := make(AnswerSet, len(a))
	for k, v := range a {
		out[k] = v
	}
	return out
}
