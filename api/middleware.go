package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	icaamiddleware "github.com/International-Combat-Archery-Alliance/middleware"
	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3filter"
	"github.com/google/uuid"
	middleware "github.com/oapi-codegen/nethttp-middleware"
	"github.com/rs/cors"
	"go.opentelemetry.io/otel/trace"
)

// useMiddlewares wraps r so the first middleware given runs innermost.
func useMiddlewares(r *http.ServeMux, middlewares ...icaamiddleware.MiddlewareFunc) http.Handler {
	var s http.Handler
	s = r

	for _, mw := range middlewares {
		s = mw(s)
	}

	return s
}

func (a *API) loggingMiddleware() icaamiddleware.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			requestId := uuid.New()
			logger := a.logger.With(slog.String("request-id", requestId.String()))
			if sc := trace.SpanContextFromContext(r.Context()); sc.HasTraceID() {
				logger = logger.With(slog.String("trace-id", sc.TraceID().String()))
			}

			ctx := ctxWithRequestId(r.Context(), requestId)
			ctx = ctxWithLogger(ctx, logger)

			w.Header().Set("X-Request-Id", requestId.String())
			loggingRW := newLoggingResponseWriter(w)

			// process the request
			next.ServeHTTP(loggingRW, r.WithContext(ctx))

			logger.InfoContext(ctx,
				"Access log",
				slog.String("latency", formatDuration(time.Since(start))),
				slog.Int64("request-content-length", r.ContentLength),
				slog.Int("resp-body-size", loggingRW.responseSize),
				slog.String("host", r.Host),
				slog.String("method", r.Method),
				slog.Int("status-code", loggingRW.statusCode),
				slog.String("path", r.URL.Path),
			)
		})
	}
}

func (a *API) openapiValidateMiddleware(swagger *openapi3.T) icaamiddleware.MiddlewareFunc {
	return middleware.OapiRequestValidatorWithOptions(swagger, &middleware.Options{
		Options: openapi3filter.Options{
			AuthenticationFunc: a.authenticate,
		},
		ErrorHandlerWithOpts: func(ctx context.Context, err error, w http.ResponseWriter, r *http.Request, opts middleware.ErrorHandlerOpts) {
			var e Error

			var requestErr *openapi3filter.RequestError
			var secErr *openapi3filter.SecurityRequirementsError
			if errors.As(err, &requestErr) {
				e = Error{
					Message: err.Error(),
					Code:    InputValidationError,
				}
			} else if errors.As(err, &secErr) {
				e = Error{
					Message: "Missing or invalid admin token",
					Code:    AuthError,
				}
			} else if opts.StatusCode == http.StatusNotFound {
				e = Error{
					Message: err.Error(),
					Code:    NotFound,
				}
			} else {
				e = Error{
					Message: err.Error(),
					Code:    InternalError,
				}
			}
			jsonBody, err := json.Marshal(&e)
			if err != nil {
				a.logger.Error("failed to marshal input validation error resp", "error", err)
				jsonBody = []byte("{\"message\": \"input is invalid\", \"code\": \"InputValidationError\"}")
			}

			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(opts.StatusCode)
			w.Write(jsonBody)
		},
	})
}

func (a *API) corsMiddleware() icaamiddleware.MiddlewareFunc {
	var serverCors *cors.Cors

	switch a.cfg.Env {
	case PROD:
		serverCors = cors.New(cors.Options{
			AllowedOrigins: []string{a.cfg.AllowedOrigin},
			AllowedMethods: []string{"GET", "POST", "PUT"},
			AllowedHeaders: []string{"Content-Type", adminTokenHeader},
			ExposedHeaders: []string{"Content-Disposition"},
			MaxAge:         300,
		})
	default:
		serverCors = cors.AllowAll()
	}

	return serverCors.Handler
}

// formatDuration formats a duration to one decimal point.
func formatDuration(d time.Duration) string {
	div := time.Duration(10)
	switch {
	case d > time.Second:
		d = d.Round(time.Second / div)
	case d > time.Millisecond:
		d = d.Round(time.Millisecond / div)
	case d > time.Microsecond:
		d = d.Round(time.Microsecond / div)
	case d > time.Nanosecond:
		d = d.Round(time.Nanosecond / div)
	}
	return d.String()
}
