package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_New_JSONFormat_WritesComponentAndFields(t *testing.T) {
	var buf bytes.Buffer
	log := New("info", "json", &buf).WithComponent("sweeper")

	log.Infow("sweep finished", "promoted", 2)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "sweep finished", entry["msg"])
	assert.Equal(t, "sweeper", entry["component"])
	assert.EqualValues(t, 2, entry["promoted"])
}

func Test_New_FiltersBelowMinimumLevel(t *testing.T) {
	var buf bytes.Buffer
	log := New("warn", "text", &buf)

	log.Debugw("hidden")
	log.Infow("hidden too")
	assert.Empty(t, buf.String())

	log.Warnw("visible", "key", "value")
	assert.Contains(t, buf.String(), "visible")
	assert.Contains(t, buf.String(), "key=value")
}

func Test_NoOpLogger_CallsHooks(t *testing.T) {
	var warned []string
	log := &NoOpLogger{WarnwFunc: func(msg string, _ ...any) { warned = append(warned, msg) }}

	log.With("a", 1).WithComponent("x").Warnw("careful")
	log.Infow("ignored")
	log.Errorw("ignored")

	assert.Equal(t, []string{"careful"}, warned)
}
