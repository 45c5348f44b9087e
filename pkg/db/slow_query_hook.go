package db

import (
	"context"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/Prabesh-Pandey/Task-Manager/pkg/metrics"
)

type queryStartKey struct{}

type queryStart struct {
	at  time.Time
	sql string
}

// SlowQueryTracer is a pgx.QueryTracer that logs and counts statements slower than slowThreshold.
type SlowQueryTracer struct {
	logger        *zap.Logger
	slowThreshold time.Duration
}

// NewSlowQueryTracer defaults slowThreshold to 100ms when zero.
func NewSlowQueryTracer(logger *zap.Logger, slowThreshold time.Duration) *SlowQueryTracer {
	if slowThreshold == 0 {
		slowThreshold = 100 * time.Millisecond
	}
	return &SlowQueryTracer{
		logger:        logger,
		slowThreshold: slowThreshold,
	}
}

func (t *SlowQueryTracer) TraceQueryStart(ctx context.Context, _ *pgx.Conn, data pgx.TraceQueryStartData) context.Context {
	return context.WithValue(ctx, queryStartKey{}, queryStart{at: time.Now(), sql: data.SQL})
}

func (t *SlowQueryTracer) TraceQueryEnd(ctx context.Context, _ *pgx.Conn, data pgx.TraceQueryEndData) {
	start, ok := ctx.Value(queryStartKey{}).(queryStart)
	if !ok {
		return
	}

	duration := time.Since(start.at)
	if duration <= t.slowThreshold {
		return
	}

	t.logger.Warn("slow-query",
		zap.String("sql", truncateSQL(start.sql, 200)),
		zap.Duration("took", duration),
		zap.String("command_tag", data.CommandTag.String()),
		zap.Error(data.Err),
	)
	metrics.IncrementSlowQuery(sqlVerb(start.sql))
}

func truncateSQL(sql string, max int) string {
	sql = strings.Join(strings.Fields(sql), " ")
	if len(sql) > max {
		return sql[:max] + "..."
	}
	return sql
}

// sqlVerb returns the upper-cased first keyword, e.g. SELECT.
func sqlVerb(sql string) string {
	fields := strings.Fields(sql)
	if len(fields) == 0 {
		return "UNKNOWN"
	}
	return strings.ToUpper(fields[0])
}
