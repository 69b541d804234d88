package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupJSON(t *testing.T) {
	defer zerolog.SetGlobalLevel(zerolog.InfoLevel)

	var buf bytes.Buffer
	Logger{Level: "debug", Format: "json"}.SetupWriter(&buf)

	log.Trace().Msg("hidden")
	log.Debug().Str("tile", "1/0/0").Msg("Visible")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "debug", entry["level"])
	assert.Equal(t, "1/0/0", entry["tile"])
	assert.Equal(t, "Visible", entry["message"])
}

func TestSetupTextFallsBackToInfo(t *testing.T) {
	defer zerolog.SetGlobalLevel(zerolog.InfoLevel)

	var buf bytes.Buffer
	Logger{Level: "bogus", NoColor: true}.SetupWriter(&buf)
	assert.Equal(t, zerolog.InfoLevel, zerolog.GlobalLevel())

	log.Debug().Msg("hidden")
	log.Info().Msg("Shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "Shown")
}
