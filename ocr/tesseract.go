//go:build tesseract

package ocr

import (
	"context"
	"fmt"

	"github.com/otiai10/gosseract/v2"
)

const Available = true

var _ TextExtractor = &Tesseract{}

// Tesseract runs the tesseract engine in-process. A client is created per call, the engine is not
// safe for concurrent use.
type Tesseract struct {
	Language string
}

func NewTesseract() *Tesseract {
	return &Tesseract{Language: "eng"}
}

func (t *Tesseract) ExtractText(ctx context.Context, png []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	client := gosseract.NewClient()
	defer client.Close()

	if err := client.SetLanguage(t.Language); err != nil {
		return "", fmt.Errorf("failed to set OCR language: %w", err)
	}
	if err := client.SetImageFromBytes(png); err != nil {
		return "", fmt.Errorf("failed to load image for OCR: %w", err)
	}

	text, err := client.Text()
	if err != nil {
		return "", fmt.Errorf("failed to recognise text: %w", err)
	}
	return text, nil
}
