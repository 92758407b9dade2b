package logger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// SlowQueryThreshold is the duration above which a statement is logged as slow.
const SlowQueryThreshold = 200 * time.Millisecond

// GormLogger writes gorm's statement and error events through zerolog.
type GormLogger struct {
	log   zerolog.Logger
	level gormlogger.LogLevel
	slow  time.Duration
}

// NewGorm returns a gorm logger at warn level: failed and slow statements only.
func NewGorm(log zerolog.Logger) *GormLogger {
	return &GormLogger{
		log:   log.With().Str("component", "gorm").Logger(),
		level: gormlogger.Warn,
		slow:  SlowQueryThreshold,
	}
}

func (l *GormLogger) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	next := *l
	next.level = level
	return &next
}

func (l *GormLogger) Info(_ context.Context, msg string, args ...any) {
	if l.level >= gormlogger.Info {
		l.log.Info().Msg(fmt.Sprintf(msg, args...))
	}
}

func (l *GormLogger) Warn(_ context.Context, msg string, args ...any) {
	if l.level >= gormlogger.Warn {
		l.log.Warn().Msg(fmt.Sprintf(msg, args...))
	}
}

func (l *GormLogger) Error(_ context.Context, msg string, args ...any) {
	if l.level >= gormlogger.Error {
		l.log.Error().Msg(fmt.Sprintf(msg, args...))
	}
}

// Trace logs one executed statement. Record-not-found is an expected
// outcome of lookups and is not reported.
func (l *GormLogger) Trace(_ context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.level <= gormlogger.Silent {
		return
	}
	elapsed := time.Since(begin)

	var evt *zerolog.Event
	switch {
	case err != nil && !errors.Is(err, gorm.ErrRecordNotFound) && l.level >= gormlogger.Error:
		evt = l.log.Error().Err(err)
	case l.slow > 0 && elapsed > l.slow && l.level >= gormlogger.Warn:
		evt = l.log.Warn().Dur("threshold", l.slow)
	case l.level >= gormlogger.Info:
		evt = l.log.Debug()
	default:
		return
	}

	sql, rows := fc()
	evt.Str("sql", sql).Int64("rows", rows).Dur("elapsed", elapsed).Msg("query")
}
