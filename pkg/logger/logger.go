package logger

import (
	"context"

	"go.uber.org/zap"

	"github.com/Prabesh-Pandey/Task-Manager/pkg/trace"
)

var Log *zap.Logger

// NewLogger builds the production logger, or the development one when debug is set.
func NewLogger(debug bool) *zap.Logger {
	var (
		l   *zap.Logger
		err error
	)
	if debug {
		l, err = zap.NewDevelopment()
	} else {
		l, err = zap.NewProduction()
	}
	if err != nil {
		panic(err)
	}
	Log = l
	return l
}

// WithTrace returns logger annotated with the trace_id stored in ctx, if any.
func WithTrace(ctx context.Context, logger *zap.Logger) *zap.Logger {
	traceID := trace.FromContext(ctx)
	if traceID != "" {
		return logger.With(zap.String("trace_id", traceID))
	}
	return logger
}
