//go:build !tesseract

package ocr

import "context"

// Available reports whether the binary was built with the tesseract engine.
const Available = false

var _ TextExtractor = &Tesseract{}

type Tesseract struct {
	Language string
}

func NewTesseract() *Tesseract {
	return &Tesseract{Language: "eng"}
}

func (t *Tesseract) ExtractText(ctx context.Context, png []byte) (string, error) {
	return "", ErrEngineUnavailable
}
