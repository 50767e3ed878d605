package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zerolog.DebugLevel, parseLevel("DEBUG"))
	assert.Equal(t, zerolog.WarnLevel, parseLevel("warning"))
	assert.Equal(t, zerolog.InfoLevel, parseLevel(""))
	assert.Equal(t, zerolog.InfoLevel, parseLevel("verbose"))
}

func TestLogger_JSONConComponente(t *testing.T) {
	var buf bytes.Buffer
	l := newWithWriter(Config{App: "envois-api", Env: "production", Level: "info"}, &buf)

	log := l.Component("importer")
	log.Debug().Msg("no aparece")
	log.Info().Int("row", 4).Msg("fila importada")

	var line map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &line))
	assert.Equal(t, "envois-api", line["app"])
	assert.Equal(t, "importer", line["component"])
	assert.Equal(t, "fila importada", line["message"])
	assert.EqualValues(t, 4, line["row"])
}
