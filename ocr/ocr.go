package ocr

import (
	"bytes"
	"context"
	"errors"
	"image"
	"log/slog"

	"github.com/cache-fest/festival-registration/registration"
	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp"
)

// minWidth is the width small screenshots are upscaled to before recognition.
const minWidth = 1200

var ErrEngineUnavailable = errors.New("OCR engine not compiled in, build with -tags tesseract")

type TextExtractor interface {
	ExtractText(ctx context.Context, png []byte) (string, error)
}

var _ registration.ProofVerifier = &Verifier{}

type Verifier struct {
	extractor TextExtractor
	logger    *slog.Logger
}

func NewVerifier(extractor TextExtractor, logger *slog.Logger) *Verifier {
	return &Verifier{extractor: extractor, logger: logger}
}

// Verify reads the screenshot and compares the reference it shows with expected. A screenshot
// without a readable reference is not an error: the result simply does not match.
func (v *Verifier) Verify(ctx context.Context, img []byte, expected string) (registration.Verification, error) {
	decoded, err := imaging.Decode(bytes.NewReader(img), imaging.AutoOrientation(true))
	if err != nil {
		return registration.Verification{}, registration.NewVerificationError("Payment screenshot is not a supported image", err)
	}

	prepared, err := encodePNG(preprocess(decoded))
	if err != nil {
		return registration.Verification{}, registration.NewVerificationError("Failed to prepare payment screenshot", err)
	}

	text, err := v.extractor.ExtractText(ctx, prepared)
	if err != nil {
		return registration.Verification{}, registration.NewVerificationError("Could not read the payment screenshot, try again", err)
	}

	candidate, labeled, ok := FindReference(text)
	v.logger.DebugContext(ctx, "read payment screenshot",
		slog.Bool("found", ok),
		slog.Bool("labeled", labeled),
	)

	return registration.Verification{
		Matched:   ok && candidate == expected,
		Candidate: candidate,
		Labeled:   labeled,
	}, nil
}

// preprocess makes digits stand out: grayscale, more contrast, a light sharpen, and an upscale
// for narrow phone screenshots.
func preprocess(img image.Image) image.Image {
	out := imaging.Grayscale(img)
	out = imaging.AdjustContrast(out, 30)
	out = imaging.Sharpen(out, 1.0)
	if out.Bounds().Dx() < minWidth {
		out = imaging.Resize(out, minWidth, 0, imaging.Lanczos)
	}
	return out
}

func encodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
