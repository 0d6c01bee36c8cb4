package logging

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]zerolog.Level{
		"trace":   zerolog.TraceLevel,
		"DEBUG":   zerolog.DebugLevel,
		" info ":  zerolog.InfoLevel,
		"warn":    zerolog.WarnLevel,
		"error":   zerolog.ErrorLevel,
		"":        zerolog.WarnLevel,
		"verbose": zerolog.WarnLevel,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseLevel(in), in)
	}
}

func TestInitOnlyOnce(t *testing.T) {
	Reset()
	t.Cleanup(Reset)

	var first, second bytes.Buffer
	Init(Options{Level: "info", Output: &first})
	Init(Options{Level: "debug", Output: &second})

	log := Get()
	log.Info().Msg("hello")
	log.Debug().Msg("hidden")

	assert.Contains(t, first.String(), `"message":"hello"`)
	assert.Contains(t, first.String(), `"component":"clinicctl"`)
	assert.NotContains(t, first.String(), "hidden")
	assert.Empty(t, second.String())
}

func TestGetBeforeInitIsSilent(t *testing.T) {
	Reset()
	log := Get()
	assert.Equal(t, zerolog.Disabled, log.GetLevel())
}
