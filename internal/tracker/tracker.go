// Package tracker records the UI events of a live assessment session and
// derives behavioral analytics from them.
//
// Recording is synchronous and ordered exactly as the caller issues events.
// Transmission of event batches is delegated to a Sender and is best-effort:
// the in-memory aggregates never depend on whether a batch was delivered.
package tracker

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/stemsi/compass-backend/internal/model"
)

// DefaultBatchSize is the number of events buffered before an automatic flush.
const DefaultBatchSize = 5

// Sender transmits a batch of events. It is one-way: the tracker observes
// no result and never retries. Implementations log their own failures.
type Sender interface {
	Send(batch model.EventBatch)
}

// SenderFunc adapts a function to Sender.
type SenderFunc func(batch model.EventBatch)

// Send calls f(batch).
func (f SenderFunc) Send(batch model.EventBatch) { f(batch) }

// Options configures a Tracker. Zero values fall back to defaults.
type Options struct {
	BatchSize int
	Clock     func() time.Time
	Sender    Sender
	Logger    zerolog.Logger
}

// Tracker holds the event buffer and per-question aggregates of one session.
type Tracker struct {
	mu        sync.Mutex
	sessionID string
	batchSize int
	now       func() time.Time
	sender    Sender
	log       zerolog.Logger

	questions map[int]*model.QuestionAnalytics
	order     []int
	pending   []model.InteractionEvent
}

// New creates a tracker for sessionID.
func New(sessionID string, opts Options) *Tracker {
	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultBatchSize
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.Sender == nil {
		opts.Sender = SenderFunc(func(model.EventBatch) {})
	}
	return &Tracker{
		sessionID: sessionID,
		batchSize: opts.BatchSize,
		now:       opts.Clock,
		sender:    opts.Sender,
		log:       opts.Logger.With().Str("component", "tracker").Str("session_id", sessionID).Logger(),
		questions: make(map[int]*model.QuestionAnalytics),
		pending:   make([]model.InteractionEvent, 0, opts.BatchSize),
	}
}

// SessionID returns the session this tracker belongs to.
func (t *Tracker) SessionID() string {
	return t.sessionID
}

// RecordQuestionShown marks the start of a visit to questionID. A re-visit
// resets the start time but keeps the counts and revisions.
func (t *Tracker) RecordQuestionShown(questionID int) {
	t.mu.Lock()
	now := t.nowMillis()
	qa := t.analyticsFor(questionID, now)
	qa.StartTime = now
	batch := t.appendLocked(model.InteractionEvent{
		Type:       model.EventQuestionShown,
		QuestionID: questionID,
		Timestamp:  now,
	})
	t.mu.Unlock()

	t.send(batch)
}

// RecordAnswerChanged records that the answer to questionID changed from
// previous (nil when there was none) to next.
func (t *Tracker) RecordAnswerChanged(questionID int, previous *string, next string) {
	t.mu.Lock()
	now := t.nowMillis()
	qa := t.analyticsFor(questionID, now)

	elapsed := now - qa.StartTime
	qa.AnswerChangeCount++
	qa.EndTime = &now
	qa.TotalTime = &elapsed
	final := next
	qa.FinalAnswer = &final
	if previous != nil && *previous != next {
		qa.Revisions = append(qa.Revisions, model.Revision{From: *previous, To: next, Timestamp: now})
	}

	data, _ := json.Marshal(model.AnswerChangedData{
		PreviousValue: previous,
		NewValue:      next,
		ElapsedMs:     elapsed,
	})
	batch := t.appendLocked(model.InteractionEvent{
		Type:       model.EventAnswerChanged,
		QuestionID: questionID,
		Timestamp:  now,
		Data:       data,
	})
	t.mu.Unlock()

	t.send(batch)
}

// RecordNavigation records a next/back navigation away from questionID.
func (t *Tracker) RecordNavigation(questionID int, direction model.NavDirection) {
	t.mu.Lock()
	now := t.nowMillis()
	if direction == model.NavBack {
		t.analyticsFor(questionID, now).BackNavigationCount++
	}
	data, _ := json.Marshal(model.NavigationData{Direction: direction})
	batch := t.appendLocked(model.InteractionEvent{
		Type:       model.EventNavigation,
		QuestionID: questionID,
		Timestamp:  now,
		Data:       data,
	})
	t.mu.Unlock()

	t.send(batch)
}

// Flush hands any buffered events to the sender and clears the buffer.
func (t *Tracker) Flush() {
	t.mu.Lock()
	batch := t.takeLocked()
	t.mu.Unlock()

	t.send(batch)
}

// Buffered returns the number of events waiting for the next flush.
func (t *Tracker) Buffered() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.pending)
}

// analyticsFor returns the analytics for questionID, creating them on
// first sight. Caller holds t.mu.
func (t *Tracker) analyticsFor(questionID int, now int64) *model.QuestionAnalytics {
	qa, ok := t.questions[questionID]
	if !ok {
		qa = &model.QuestionAnalytics{
			QuestionID: questionID,
			StartTime:  now,
			Revisions:  []model.Revision{},
		}
		t.questions[questionID] = qa
		t.order = append(t.order, questionID)
	}
	return qa
}

// appendLocked buffers ev and returns a full batch when the buffer reaches
// the batch size. Caller holds t.mu.
func (t *Tracker) appendLocked(ev model.InteractionEvent) []model.InteractionEvent {
	t.pending = append(t.pending, ev)
	if len(t.pending) < t.batchSize {
		return nil
	}
	return t.takeLocked()
}

func (t *Tracker) takeLocked() []model.InteractionEvent {
	if len(t.pending) == 0 {
		return nil
	}
	batch := t.pending
	t.pending = make([]model.InteractionEvent, 0, t.batchSize)
	return batch
}

// send runs outside the lock so a slow sender never stalls recording.
func (t *Tracker) send(events []model.InteractionEvent) {
	if len(events) == 0 {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			t.log.Error().Interface("panic", r).Int("count", len(events)).Msg("Event batch sender panicked, batch dropped")
		}
	}()
	t.log.Debug().Int("count", len(events)).Msg("Flushing event batch")
	t.sender.Send(model.EventBatch{SessionID: t.sessionID, Events: events})
}

func (t *Tracker) nowMillis() int64 {
	return t.now().UnixMilli()
}
