package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewJSONCarriesComponent(t *testing.T) {
	var buf bytes.Buffer
	log := Component(New(&buf, "debug", "json"), "scoring")

	log.Warn().Int("question_id", 7).Msg("Skipped answer")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "scoring", entry["component"])
	assert.Equal(t, "warn", entry["level"])
	assert.EqualValues(t, 7, entry["question_id"])
}

func TestNewUnknownLevelFallsBackToInfo(t *testing.T) {
	var buf bytes.Buffer
	_ = New(&buf, "chatty", "json")
	assert.Equal(t, zerolog.InfoLevel, zerolog.GlobalLevel())
}
