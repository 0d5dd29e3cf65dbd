package tracker

import (
	"encoding/json"
	"fmt"

	"github.com/stemsi/compass-backend/internal/model"
)

// Snapshot is the serialisable state of a tracker. It is what the session
// mirror stores under interactionAnalytics.
type Snapshot struct {
	SessionID string                    `json:"session_id"`
	Questions []model.QuestionAnalytics `json:"questions"`
	Pending   []model.InteractionEvent  `json:"pending_events"`
}

// Snapshot captures the aggregates and the unsent buffer in visit order.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()

	snap := Snapshot{
		SessionID: t.sessionID,
		Questions: make([]model.QuestionAnalytics, 0, len(t.order)),
		Pending:   cloneEvents(t.pending),
	}
	for _, id := range t.order {
		snap.Questions = append(snap.Questions, cloneAnalytics(t.questions[id]))
	}
	return snap
}

// MarshalSnapshot encodes the tracker state as JSON.
func (t *Tracker) MarshalSnapshot() ([]byte, error) {
	data, err := json.Marshal(t.Snapshot())
	if err != nil {
		return nil, fmt.Errorf("marshal tracker snapshot: %w", err)
	}
	return data, nil
}

// Restore rebuilds a tracker from a snapshot. Pending events are kept in
// the buffer and go out with the next flush, or immediately when they
// already fill a batch.
func Restore(snap Snapshot, opts Options) *Tracker {
	t := New(snap.SessionID, opts)
	for i := range snap.Questions {
		qa := cloneAnalytics(&snap.Questions[i])
		if _, dup := t.questions[qa.QuestionID]; dup {
			continue
		}
		t.questions[qa.QuestionID] = &qa
		t.order = append(t.order, qa.QuestionID)
	}
	t.pending = append(t.pending, snap.Pending...)
	if len(t.pending) >= t.batchSize {
		t.send(t.takeLocked())
	}
	return t
}

// UnmarshalSnapshot decodes data produced by MarshalSnapshot.
func UnmarshalSnapshot(data []byte) (Snapshot, error) {
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return Snapshot{}, fmt.Errorf("unmarshal tracker snapshot: %w", err)
	}
	if snap.SessionID == "" {
		return Snapshot{}, fmt.Errorf("unmarshal tracker snapshot: missing session id")
	}
	return snap, nil
}
