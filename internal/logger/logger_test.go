package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContextFieldsReachOutput(t *testing.T) {
	var buf bytes.Buffer
	base := New(&Config{Level: "debug", Format: "json", Output: &buf, ServiceName: "test"})

	ctx := base.WithContext(context.Background())
	ctx = SetRequestID(ctx, "req-1")
	ctx = SetStage(ctx, "captioned")

	With(Fields{FieldSize: 42}).WithDuration(7).Info(ctx, "done %s", "x.jpg")

	var line map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "done x.jpg", line["message"])
	assert.Equal(t, "req-1", line[FieldRequestID])
	assert.Equal(t, "captioned", line[FieldStage])
	assert.Equal(t, "test", line["service"])
	assert.EqualValues(t, 42, line[FieldSize])
	assert.EqualValues(t, 7, line[FieldDurationMs])
	assert.Equal(t, "req-1", GetRequestID(ctx))
}

func TestFromContextFallsBackToDefault(t *testing.T) {
	assert.Same(t, GetDefault(), FromContext(context.Background()))
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("LOG_LEVEL", "warn")
	t.Setenv("LOG_MAX_SIZE", "not-a-number")

	cfg := LoadFromEnv("scribe")
	assert.Equal(t, "warn", cfg.Level)
	assert.Equal(t, 50, cfg.MaxSize)
	assert.Equal(t, "scribe", cfg.ServiceName)
}
