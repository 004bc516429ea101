package api

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
)

type ctxKey string

const (
	ctxRequestIdKey ctxKey = "REQUEST_ID"
	ctxLoggerKey    ctxKey = "LOGGER"
)

func ctxWithRequestId(ctx context.Context, requestId uuid.UUID) context.Context {
	return context.WithValue(ctx, ctxRequestIdKey, requestId)
}

func ctxWithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxLoggerKey, logger)
}

func getLoggerFromCtx(ctx context.Context) (*slog.Logger, bool) {
	logger, ok := ctx.Value(ctxLoggerKey).(*slog.Logger)
	return logger, ok
}
