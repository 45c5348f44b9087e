package otel

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/Prabesh-Pandey/Task-Manager/pkg/metrics"
)

// DBSpan starts a client span for one statement against table.
func DBSpan(ctx context.Context, operation, table, query string) (context.Context, trace.Span) {
	return Tracer().Start(ctx, "db."+operation,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			semconv.DBSystemPostgreSQL,
			semconv.DBOperationKey.String(operation),
			semconv.DBSQLTableKey.String(table),
			attribute.String("db.statement", query),
		),
	)
}

// DB wraps a repository call in a span and records its latency.
// pgx.ErrNoRows is treated as a successful lookup.
func DB(ctx context.Context, operation, table, query string, fn func(context.Context) error) error {
	ctx, span := DBSpan(ctx, operation, table, query)
	defer span.End()

	start := time.Now()
	err := fn(ctx)
	metrics.RecordDBQueryDuration(operation, table, time.Since(start))

	switch {
	case err == nil:
		span.SetStatus(codes.Ok, "")
	case errors.Is(err, pgx.ErrNoRows):
		span.SetStatus(codes.Ok, "no rows")
	default:
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}
