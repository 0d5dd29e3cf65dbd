package tracker

import "github.com/stemsi/compass-backend/internal/model"

// SessionAnalytics summarises every question seen so far. It is computed
// on each call and has no side effects.
//
// TotalTime is the sum of per-question response times. AverageResponseTime
// is the mean over questions with a recorded response time; questions that
// were shown but never answered contribute no sample.
func (t *Tracker) SessionAnalytics() model.SessionAnalytics {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := model.SessionAnalytics{
		SessionID:     t.sessionID,
		Questions:     make([]model.QuestionAnalytics, 0, len(t.order)),
		PendingEvents: cloneEvents(t.pending),
	}

	var samples int
	for _, id := range t.order {
		qa := t.questions[id]
		out.Questions = append(out.Questions, cloneAnalytics(qa))

		if qa.FinalAnswer != nil {
			out.CompletedQuestions++
		}
		out.TotalAnswerChanges += qa.AnswerChangeCount
		out.TotalBackNavigations += qa.BackNavigationCount
		if qa.TotalTime != nil {
			out.TotalTime += *qa.TotalTime
			samples++
		}
	}
	if samples > 0 {
		out.AverageResponseTime = float64(out.TotalTime) / float64(samples)
	}
	return out
}

// Question returns a copy of the analytics for one question.
func (t *Tracker) Question(questionID int) (model.QuestionAnalytics, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	qa, ok := t.questions[questionID]
	if !ok {
		return model.QuestionAnalytics{}, false
	}
	return cloneAnalytics(qa), true
}

func cloneAnalytics(qa *model.QuestionAnalytics) model.QuestionAnalytics {
	c := *qa
	c.Revisions = append([]model.Revision{}, qa.Revisions...)
	if qa.EndTime != nil {
		v := *qa.EndTime
		c.EndTime = &v
	}
	if qa.TotalTime != nil {
		v := *qa.TotalTime
		c.TotalTime = &v
	}
	if qa.FinalAnswer != nil {
		v := *qa.FinalAnswer
		c.FinalAnswer = &v
	}
	return c
}

func cloneEvents(events []model.InteractionEvent) []model.InteractionEvent {
	out := make([]model.InteractionEvent, len(events))
	copy(out, events)
	return out
}

// Answers returns the final answer of every question answered so far.
func (t *Tracker) Answers() model.AnswerSet {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make(model.AnswerSet, len(t.questions))
	for id, qa := range t.questions {
		if qa.FinalAnswer != nil {
			out[id] = *qa.FinalAnswer
		}
	}
	return out
}
