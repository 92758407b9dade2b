package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func stmt() (string, int64) { return "SELECT 1", 1 }

func TestGormLoggerTrace(t *testing.T) {
	var buf bytes.Buffer
	l := NewGorm(zerolog.New(&buf))
	ctx := context.Background()

	l.Trace(ctx, time.Now(), stmt, nil)
	assert.Zero(t, buf.Len(), "fast successful statements are not logged at warn level")

	l.Trace(ctx, time.Now(), stmt, gorm.ErrRecordNotFound)
	assert.Zero(t, buf.Len())

	l.Trace(ctx, time.Now(), stmt, errors.New("boom"))
	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "error", line["level"])
	assert.Equal(t, "gorm", line["component"])
	assert.Equal(t, "SELECT 1", line["sql"])
	assert.Equal(t, "boom", line["error"])

	buf.Reset()
	l.Trace(ctx, time.Now().Add(-time.Second), stmt, nil)
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "warn", line["level"])

	buf.Reset()
	l.LogMode(gormlogger.Silent).Trace(ctx, time.Now(), stmt, errors.New("boom"))
	assert.Zero(t, buf.Len())
}
