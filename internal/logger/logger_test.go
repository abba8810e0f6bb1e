package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogger_IncludesServiceAndLevel(t *testing.T) {
	var buf bytes.Buffer
	log := newWithWriter(&buf, "test-service", "info")
	log.Warn().Str("chat", "Alpha").Msg("fetch failed")

	var payload map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &payload))
	assert.Equal(t, "test-service", payload["service"])
	assert.Equal(t, "warn", payload["level"])
	assert.Equal(t, "Alpha", payload["chat"])
	assert.Contains(t, payload, "time")
}

func TestLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	log := newWithWriter(&buf, "svc", "warn")
	log.Info().Msg("hidden")
	assert.Zero(t, buf.Len())

	buf.Reset()
	log = newWithWriter(&buf, "svc", "bogus")
	log.Debug().Msg("hidden")
	assert.Zero(t, buf.Len())
	log.Info().Msg("shown")
	assert.NotZero(t, buf.Len())
}
