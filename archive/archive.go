package archive

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/cache-fest/festival-registration/registration"
)

const (
	receiptPrefix   = "receipts/"
	pdfContentType  = "application/pdf"
	defaultDeadline = 5 * time.Second
)

type S3Client interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

var _ registration.ReceiptArchive = &S3Archive{}

// S3Archive keeps a copy of every issued receipt, keyed by transaction reference.
type S3Archive struct {
	client S3Client
	bucket string
}

func NewS3Archive(client S3Client, bucket string) *S3Archive {
	return &S3Archive{client: client, bucket: bucket}
}

func Key(transactionRef string) string {
	return receiptPrefix + transactionRef + ".pdf"
}

func (a *S3Archive) ArchiveReceipt(ctx context.Context, reg registration.Registration, receipt registration.Receipt) error {
	ctx, cancel := context.WithTimeout(ctx, defaultDeadline)
	defer cancel()

	_, err := a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:             aws.String(a.bucket),
		Key:                aws.String(Key(reg.TransactionRef)),
		Body:               bytes.NewReader(receipt.Content),
		ContentType:        aws.String(pdfContentType),
		ContentDisposition: aws.String(fmt.Sprintf("attachment; filename=%q", receipt.FileName)),
		Metadata: map[string]string{
			"upi-txn-id":        reg.UpiTxnID,
			"verification-hash": reg.VerificationHash,
		},
	})
	if err != nil {
		return registration.NewFailedToWriteError(fmt.Sprintf("Failed to archive receipt for %q", reg.TransactionRef), err)
	}
	return nil
}
