package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/cache-fest/festival-registration/qr"
	"github.com/cache-fest/festival-registration/registration"
)

type Environment int

const (
	LOCAL Environment = iota
	PROD
)

const defaultFormIdleTimeout = time.Hour

type Config struct {
	Env           Environment
	AllowedOrigin string
	AdminToken    string
	// FormIdleTimeout is how long an untouched form session is kept.
	FormIdleTimeout time.Duration
	Form            registration.ControllerConfig
}

type API struct {
	deps     registration.Dependencies
	qr       *qr.Renderer
	cfg      Config
	logger   *slog.Logger
	sessions *formSessions
	now      func() time.Time
}

// NewAPI builds the HTTP API. deps is the template every form session is created from.
func NewAPI(deps registration.Dependencies, qrRenderer *qr.Renderer, cfg Config, logger *slog.Logger) *API {
	if cfg.FormIdleTimeout <= 0 {
		cfg.FormIdleTimeout = defaultFormIdleTimeout
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if qrRenderer == nil {
		qrRenderer = qr.NewRenderer(qr.WithLogger(logger))
	}

	return &API{
		deps:     deps,
		qr:       qrRenderer,
		cfg:      cfg,
		logger:   logger,
		sessions: newFormSessions(cfg.FormIdleTimeout, deps.Now),
		now:      deps.Now,
	}
}

// Handler returns the routed handler wrapped in the validation, logging and CORS middlewares.
func (a *API) Handler() (http.Handler, error) {
	swagger, err := GetSwagger()
	if err != nil {
		return nil, err
	}
	swagger.Servers = nil

	mux := http.NewServeMux()
	a.registerRoutes(mux)

	return useMiddlewares(mux,
		a.openapiValidateMiddleware(swagger),
		a.loggingMiddleware(),
		a.corsMiddleware(),
	), nil
}

func (a *API) registerRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /events", a.getEvents)
	mux.HandleFunc("POST /forms", a.postForms)
	mux.HandleFunc("GET /forms/{id}", a.getForm)
	mux.HandleFunc("PUT /forms/{id}/profile", a.putFormProfile)
	mux.HandleFunc("PUT /forms/{id}/events", a.putFormEvents)
	mux.HandleFunc("POST /forms/{id}/events/{eventId}/toggle", a.postFormEventToggle)
	mux.HandleFunc("POST /forms/{id}/reset", a.postFormReset)
	mux.HandleFunc("POST /forms/{id}/payment", a.postFormPayment)
	mux.HandleFunc("GET /forms/{id}/payment/qr", a.getFormPaymentQR)
	mux.HandleFunc("POST /forms/{id}/proof", a.postFormProof)
	mux.HandleFunc("POST /forms/{id}/submit", a.postFormSubmit)
	mux.HandleFunc("GET /proofs/{upiTxnId}", a.getProof)
	mux.HandleFunc("GET /registrations", a.getRegistrations)
	mux.HandleFunc("GET /registrations/{transactionRef}/receipt", a.getRegistrationReceipt)
}

// Close drops every form session and stops their pending resets.
func (a *API) Close() {
	a.sessions.closeAll()
}

func (a *API) getLoggerOrBaseLogger(ctx context.Context) *slog.Logger {
	if logger, ok := getLoggerFromCtx(ctx); ok {
		return logger
	}
	return a.logger
}
