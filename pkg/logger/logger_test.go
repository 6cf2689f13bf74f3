package logger

import (
	"bytes"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInitWritesJSONLines(t *testing.T) {
	var buf bytes.Buffer
	Init(&buf, "info", false)
	t.Cleanup(func() { Init(os.Stderr, "info", false) })

	Warn("LoadRooms Error: %s", "timeout")
	Debug("hidden")

	out := buf.String()
	assert.Contains(t, out, `"level":"warn"`)
	assert.Contains(t, out, "LoadRooms Error: timeout")
	assert.NotContains(t, out, "hidden")
}

func TestDevelopmentEnablesDebug(t *testing.T) {
	var buf bytes.Buffer
	Init(&buf, "info", true)
	t.Cleanup(func() { Init(os.Stderr, "info", false) })

	Debug("visible %d", 1)
	assert.Contains(t, buf.String(), "visible 1")
}

func TestWithAddsFields(t *testing.T) {
	var buf bytes.Buffer
	Init(&buf, "info", false)
	t.Cleanup(func() { Init(os.Stderr, "info", false) })

	entry := With().Str("room", "r1").Logger()
	entry.Info().Msg("activated")

	assert.Contains(t, buf.String(), `"room":"r1"`)
	assert.Contains(t, buf.String(), "activated")
}
