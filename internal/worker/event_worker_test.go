package worker

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stemsi/compass-backend/internal/config"
	"github.com/stemsi/compass-backend/internal/model"
)

var recordedAt = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

func encodeBatch(t *testing.T, b model.EventBatch) string {
	t.Helper()
	data, err := json.Marshal(b)
	require.NoError(t, err)
	return string(data)
}

func sampleBatch(sid string) model.EventBatch {
	return model.EventBatch{
		SessionID: sid,
		Events: []model.InteractionEvent{
			{Type: model.EventQuestionShown, QuestionID: 1, Timestamp: 1000},
			{Type: model.EventAnswerChanged, QuestionID: 1, Timestamp: 4000, Data: json.RawMessage(`{"new_value":"B"}`)},
		},
	}
}

func runEventWorker(t *testing.T, db *fakeDB, sink *fakeSink, items ...string) *fakeQueue {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	q := &fakeQueue{items: items, cancel: cancel}
	w := NewEventWorker(db, q, sink, zerolog.Nop())
	w.now = func() time.Time { return recordedAt }

	done := make(chan struct{})
	go func() {
		w.Start(ctx)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("event worker did not stop")
	}
	return q
}

func TestEventWorkerCopiesRows(t *testing.T) {
	sid := uuid.New()
	db := &fakeDB{}
	sink := &fakeSink{enabled: true}

	q := runEventWorker(t, db, sink, encodeBatch(t, sampleBatch(sid.String())))

	assert.Equal(t, config.WorkerKey.PersistEventsQueue, q.keys[0])
	assert.Equal(t, eventColumns, db.copyCols)
	require.Len(t, db.copied, 2)

	first := db.copied[0]
	assert.Equal(t, sid, first[0])
	assert.Equal(t, "question_shown", first[1])
	assert.Equal(t, 1, first[2])
	assert.Equal(t, time.UnixMilli(1000).UTC(), first[3])
	assert.Nil(t, first[4])
	assert.Equal(t, recordedAt, first[5])
	assert.Equal(t, `{"new_value":"B"}`, db.copied[1][4])

	require.Len(t, sink.events, 1)
	assert.Equal(t, sid.String(), sink.events[0][0].SessionID)
}

func TestEventWorkerFallsBackRowByRow(t *testing.T) {
	sid := uuid.New()
	db := &fakeDB{
		copyErr: errors.New("copy failed"),
		execErr: func(call execCall) error {
			if call.args[2] == 2 {
				return errors.New("bad row")
			}
			return nil
		},
	}
	b := sampleBatch(sid.String())
	b.Events = append(b.Events, model.InteractionEvent{Type: model.EventNavigation, QuestionID: 2, Timestamp: 5000})

	runEventWorker(t, db, &fakeSink{}, encodeBatch(t, b))

	require.Len(t, db.execs, 2)
	for _, call := range db.execs {
		assert.True(t, strings.HasPrefix(strings.TrimSpace(call.sql), "INSERT INTO interaction_events"))
	}
}

func TestEventWorkerDropsMalformedAndInvalidSessions(t *testing.T) {
	good := uuid.New().String()
	db := &fakeDB{}

	runEventWorker(t, db, &fakeSink{},
		"{not json",
		encodeBatch(t, sampleBatch("not-a-uuid")),
		encodeBatch(t, sampleBatch(good)),
	)

	require.Len(t, db.copied, 2)
	assert.Equal(t, good, db.copied[0][0].(uuid.UUID).String())
}

func TestEventWorkerSkipsDisabledSink(t *testing.T) {
	sink := &fakeSink{enabled: false}
	runEventWorker(t, &fakeDB{}, sink, encodeBatch(t, sampleBatch(uuid.NewString())))
	assert.Empty(t, sink.events)
}

func TestEventWorkerSinkFailureIsNotFatal(t *testing.T) {
	db := &fakeDB{}
	sink := &fakeSink{enabled: true, err: errors.New("webhook down")}
	runEventWorker(t, db, sink, encodeBatch(t, sampleBatch(uuid.NewString())))
	assert.Len(t, db.copied, 2)
	assert.Len(t, sink.events, 1)
}
