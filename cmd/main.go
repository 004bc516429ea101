package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/cache-fest/festival-registration/api"
	"github.com/cache-fest/festival-registration/archive"
	"github.com/cache-fest/festival-registration/dynamo"
	"github.com/cache-fest/festival-registration/events"
	"github.com/cache-fest/festival-registration/memstore"
	"github.com/cache-fest/festival-registration/ocr"
	"github.com/cache-fest/festival-registration/qr"
	"github.com/cache-fest/festival-registration/receipt"
	"github.com/cache-fest/festival-registration/registration"
	"github.com/cache-fest/festival-registration/sheets"
)

const shutdownTimeout = 10 * time.Second

type stores interface {
	registration.UsedReferenceStore
	registration.Repository
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := loadDotEnv(); err != nil {
		return err
	}

	awsCfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return fmt.Errorf("failed to get aws config: %w", err)
	}

	cfg, err := loadConfig(ctx, os.LookupEnv, ssm.NewFromConfig(awsCfg))
	if err != nil {
		return err
	}

	logger := newLogger(cfg.Environment())
	slog.SetDefault(logger)

	catalog := events.FestivalCatalog()
	store := createStore(logger, awsCfg, cfg.DynamoTable)
	sheetsClient := sheets.NewClient(cfg.SheetsWebhookURL, cfg.SheetsCheckURL,
		sheets.WithLogger(logger),
		sheets.WithStrategies(cfg.SheetsStrategies...),
		sheets.WithQueryTimeout(cfg.SheetsQueryTimeout),
	)

	deps := registration.Dependencies{
		Catalog:       catalog,
		UsedRefs:      store,
		Registrations: store,
		Submitter:     sheetsClient,
		Receipts:      receipt.NewGenerator(catalog),
		EmailSender:   createEmailSender(logger, cfg.Environment(), awsCfg, cfg.EmailFrom),
		EmailFrom:     cfg.EmailFrom,
		Logger:        logger,
	}
	if cfg.SheetsCheckURL != "" {
		deps.DuplicateChecker = sheetsClient
	}
	if cfg.OCREnabled {
		if !ocr.Available {
			logger.Warn("OCR_ENABLED is set but the binary was built without tesseract, screenshots will not be verified")
		} else {
			deps.Verifier = ocr.NewVerifier(ocr.NewTesseract(), logger)
		}
	}
	if cfg.ReceiptBucket != "" {
		deps.Archive = archive.NewS3Archive(s3.NewFromConfig(awsCfg), cfg.ReceiptBucket)
	}

	qrRenderer, err := createQRRenderer(logger, cfg.QRPlaceholderPath)
	if err != nil {
		return err
	}

	registrationAPI := api.NewAPI(deps, qrRenderer, api.Config{
		Env:           cfg.Environment(),
		AllowedOrigin: cfg.AllowedOrigin,
		AdminToken:    cfg.AdminToken,
		Form:          cfg.ControllerConfig(),
	}, logger)
	defer registrationAPI.Close()

	handler, err := registrationAPI.Handler()
	if err != nil {
		return fmt.Errorf("error loading openapi document: %w", err)
	}

	s := &http.Server{
		Handler:           handler,
		Addr:              net.JoinHostPort(cfg.Server.Host, cfg.Server.Port),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Starting server", slog.String("addr", s.Addr), slog.String("env", cfg.Env))
		errCh <- s.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	return s.Shutdown(shutdownCtx)
}

func newLogger(env api.Environment) *slog.Logger {
	if env == api.PROD {
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

// createStore keeps used references and registrations in memory unless a table is configured.
func createStore(logger *slog.Logger, awsCfg aws.Config, table string) stores {
	if table == "" {
		logger.Warn("DYNAMO_TABLE is not set, registrations are kept in memory")
		return memstore.New()
	}

	return dynamo.NewDB(dynamodb.NewFromConfig(awsCfg), table)
}

func createQRRenderer(logger *slog.Logger, placeholderPath string) (*qr.Renderer, error) {
	opts := []qr.Option{qr.WithLogger(logger)}

	if placeholderPath != "" {
		placeholder, err := qr.LoadPlaceholder(placeholderPath)
		if err != nil {
			return nil, err
		}
		opts = append(opts, qr.WithPlaceholder(placeholder))
	}

	return qr.NewRenderer(opts...), nil
}
