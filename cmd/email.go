package main

import (
	"context"
	"log/slog"

	"github.com/International-Combat-Archery-Alliance/email"
	"github.com/International-Combat-Archery-Alliance/email/awsses"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/cache-fest/festival-registration/api"
)

var _ email.Sender = &EmailLogger{}

// EmailLogger is an email.Sender that logs the email instead of sending it, for local dev.
type EmailLogger struct {
	logger *slog.Logger
}

func (el *EmailLogger) SendEmail(ctx context.Context, e email.Email) error {
	el.logger.InfoContext(ctx, "email that would be sent",
		slog.Any("to", e.ToAddresses),
		slog.String("subject", e.Subject),
		slog.String("body", e.TextBody),
	)

	return nil
}

// createEmailSender logs emails locally and when no sender address is configured.
func createEmailSender(logger *slog.Logger, env api.Environment, awsCfg aws.Config, fromAddress string) email.Sender {
	if env == api.LOCAL || fromAddress == "" {
		return &EmailLogger{logger: logger}
	}

	return awsses.NewAWSSESSender(sesv2.NewFromConfig(awsCfg))
}
