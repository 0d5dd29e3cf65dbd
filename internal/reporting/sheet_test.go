package reporting

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stemsi/compass-backend/internal/model"
)

func TestSheetClientPostsEnvelope(t *testing.T) {
	var got sheetEnvelope
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewSheetClient(srv.URL, time.Second)
	require.True(t, c.Enabled())

	err := c.SendResult(context.Background(), ResultPayload{SessionID: "s1", Answers: model.AnswerSet{1: "B"}})
	require.NoError(t, err)
	assert.Equal(t, sheetKindResult, got.Kind)
}

func TestSheetClientErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	err := NewSheetClient(srv.URL, time.Second).SendEvents(context.Background(), []model.EventBatch{{SessionID: "s"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
}

func TestSheetClientDisabled(t *testing.T) {
	c := NewSheetClient("", 0)
	assert.False(t, c.Enabled())
	assert.NoError(t, c.SendEvents(context.Background(), nil))
}
