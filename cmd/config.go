package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/cache-fest/festival-registration/api"
	"github.com/cache-fest/festival-registration/registration"
	"github.com/cache-fest/festival-registration/sheets"
	"github.com/cache-fest/festival-registration/upi"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

const ssmPrefix = "ssm:"

type SSMClient interface {
	GetParameter(ctx context.Context, params *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error)
}

type ServerSettings struct {
	Host string `validate:"required"`
	Port string `validate:"required,numeric"`
}

type Config struct {
	Env    string `validate:"oneof=local prod"`
	Server ServerSettings

	SheetsWebhookURL   string        `validate:"omitempty,url"`
	SheetsCheckURL     string        `validate:"omitempty,url"`
	SheetsStrategies   []string      `validate:"min=1,dive,oneof=json-post query-get"`
	SheetsQueryTimeout time.Duration `validate:"gt=0"`

	UpiVPA    string `validate:"required,contains=@"`
	UpiName   string `validate:"required"`
	TxnPrefix string `validate:"required,alphanum"`

	DynamoTable   string
	ReceiptBucket string
	EmailFrom     string

	OCREnabled        bool
	RequireProofImage bool
	QRPlaceholderPath string `validate:"omitempty,file"`

	FormResetDelay time.Duration `validate:"gte=0"`
	AdminToken     string
	AllowedOrigin  string `validate:"required_if=Env prod"`
}

func (c Config) Environment() api.Environment {
	if c.Env == "prod" {
		return api.PROD
	}
	return api.LOCAL
}

func (c Config) ControllerConfig() registration.ControllerConfig {
	return registration.ControllerConfig{
		PayeeVPA:          c.UpiVPA,
		PayeeName:         c.UpiName,
		TxnPrefix:         c.TxnPrefix,
		RequireProofImage: c.RequireProofImage,
		ResetDelay:        c.FormResetDelay,
	}
}

// loadDotEnv reads a .env file when one exists. Variables already set in the environment win.
func loadDotEnv() error {
	err := godotenv.Load()
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to load .env file: %w", err)
	}
	return nil
}

// loadConfig reads the configuration through lookup. Values written as "ssm:<name>" are fetched
// from SSM Parameter Store; ssmClient may be nil when no value uses that form.
func loadConfig(ctx context.Context, lookup func(string) (string, bool), ssmClient SSMClient) (Config, error) {
	get := func(key, defaultVal string) string {
		if v, ok := lookup(key); ok {
			return v
		}
		return defaultVal
	}

	cfg := Config{
		Env: strings.ToLower(get("ENV", "local")),
		Server: ServerSettings{
			Host: get("HOST", "0.0.0.0"),
			Port: get("PORT", "8080"),
		},
		SheetsWebhookURL:  get("SHEETS_WEBHOOK_URL", ""),
		SheetsCheckURL:    get("SHEETS_CHECK_UTR_URL", ""),
		UpiVPA:            get("UPI_VPA", registration.DefaultPayeeVPA),
		UpiName:           get("UPI_NAME", registration.DefaultPayeeName),
		TxnPrefix:         get("TXN_PREFIX", upi.DefaultRefPrefix),
		DynamoTable:       get("DYNAMO_TABLE", ""),
		ReceiptBucket:     get("RECEIPT_BUCKET", ""),
		EmailFrom:         get("EMAIL_FROM", ""),
		QRPlaceholderPath: get("QR_PLACEHOLDER_PATH", ""),
		AdminToken:        get("ADMIN_TOKEN", ""),
		AllowedOrigin:     get("ALLOWED_ORIGIN", ""),
	}

	var err error
	if cfg.OCREnabled, err = parseBool(get("OCR_ENABLED", "false")); err != nil {
		return Config{}, fmt.Errorf("OCR_ENABLED: %w", err)
	}
	if cfg.RequireProofImage, err = parseBool(get("REQUIRE_PROOF_IMAGE", "false")); err != nil {
		return Config{}, fmt.Errorf("REQUIRE_PROOF_IMAGE: %w", err)
	}
	if cfg.FormResetDelay, err = time.ParseDuration(get("FORM_RESET_DELAY", registration.DefaultResetDelay.String())); err != nil {
		return Config{}, fmt.Errorf("FORM_RESET_DELAY: %w", err)
	}
	if cfg.SheetsQueryTimeout, err = time.ParseDuration(get("SHEETS_QUERY_TIMEOUT", sheets.DefaultQueryTimeout.String())); err != nil {
		return Config{}, fmt.Errorf("SHEETS_QUERY_TIMEOUT: %w", err)
	}
	cfg.SheetsStrategies = splitList(get("SHEETS_STRATEGIES", sheets.STRATEGY_JSON_POST+","+sheets.STRATEGY_QUERY_GET))

	for _, secret := range []*string{&cfg.SheetsWebhookURL, &cfg.SheetsCheckURL, &cfg.AdminToken} {
		if *secret, err = resolveSecret(ctx, ssmClient, *secret); err != nil {
			return Config{}, err
		}
	}

	if err := validator.New(validator.WithRequiredStructEnabled()).Struct(cfg); err != nil {
		return Config{}, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func resolveSecret(ctx context.Context, client SSMClient, value string) (string, error) {
	name, ok := strings.CutPrefix(value, ssmPrefix)
	if !ok {
		return value, nil
	}
	if client == nil {
		return "", fmt.Errorf("parameter %q needs SSM but no client is configured", name)
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	out, err := client.GetParameter(ctx, &ssm.GetParameterInput{
		Name:           aws.String(name),
		WithDecryption: aws.Bool(true),
	})
	if err != nil {
		return "", fmt.Errorf("failed to get parameter %q: %w", name, err)
	}
	if out.Parameter == nil || out.Parameter.Value == nil {
		return "", fmt.Errorf("parameter %q has no value", name)
	}

	return *out.Parameter.Value, nil
}

// splitList splits a comma separated value, dropping empty entries.
func splitList(s string) []string {
	out := []string{}
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func parseBool(s string) (bool, error) {
	if s == "" {
		return false, nil
	}
	return strconv.ParseBool(s)
}
