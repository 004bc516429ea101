package qr

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"log/slog"
	"os"

	qrcode "github.com/skip2/go-qrcode"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

const (
	Size = 256

	placeholderText = "QR code unavailable"
	placeholderHint = "Use the UPI ID below"
)

// Image is a rendered QR code, or the placeholder when encoding failed.
type Image struct {
	PNG         []byte
	FileName    string
	Placeholder bool
}

func (i Image) DataURL() string {
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(i.PNG)
}

func FileName(amount int64) string {
	return fmt.Sprintf("cache-2025-payment-qr-%d.png", amount)
}

type Renderer struct {
	placeholder []byte
	encode      func(content string) ([]byte, error)
	logger      *slog.Logger
}

type Option func(*Renderer)

func WithLogger(logger *slog.Logger) Option {
	return func(r *Renderer) {
		r.logger = logger
	}
}

// WithPlaceholder replaces the drawn placeholder with a ready PNG.
func WithPlaceholder(png []byte) Option {
	return func(r *Renderer) {
		r.placeholder = png
	}
}

func NewRenderer(opts ...Option) *Renderer {
	r := &Renderer{
		encode: func(content string) ([]byte, error) {
			return qrcode.Encode(content, qrcode.Medium, Size)
		},
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.placeholder == nil {
		r.placeholder = DefaultPlaceholder()
	}
	return r
}

// LoadPlaceholder reads a placeholder PNG from disk and checks that it decodes.
func LoadPlaceholder(path string) ([]byte, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read QR placeholder: %w", err)
	}
	if _, err := png.Decode(bytes.NewReader(b)); err != nil {
		return nil, fmt.Errorf("QR placeholder %q is not a PNG: %w", path, err)
	}
	return b, nil
}

// Render never fails: any encoding problem yields the placeholder.
func (r *Renderer) Render(content string, amount int64) Image {
	img := Image{FileName: FileName(amount)}

	if content == "" {
		r.logger.Warn("no content for QR code, using placeholder")
		img.PNG = r.placeholder
		img.Placeholder = true
		return img
	}

	b, err := r.encode(content)
	if err != nil || len(b) == 0 {
		r.logger.Warn("failed to encode QR code, using placeholder", slog.Any("error", err))
		img.PNG = r.placeholder
		img.Placeholder = true
		return img
	}

	img.PNG = b
	return img
}

// DefaultPlaceholder draws a framed notice the size of a QR code.
func DefaultPlaceholder() []byte {
	rgba := image.NewRGBA(image.Rect(0, 0, Size, Size))
	draw.Draw(rgba, rgba.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)

	border := color.RGBA{R: 200, G: 200, B: 200, A: 255}
	for i := 0; i < Size; i++ {
		for w := 0; w < 4; w++ {
			rgba.Set(i, w, border)
			rgba.Set(i, Size-1-w, border)
			rgba.Set(w, i, border)
			rgba.Set(Size-1-w, i, border)
		}
	}

	drawCentered(rgba, Size/2-4, placeholderText, color.Black)
	drawCentered(rgba, Size/2+14, placeholderHint, color.RGBA{R: 107, G: 114, B: 128, A: 255})

	var buf bytes.Buffer
	if err := png.Encode(&buf, rgba); err != nil {
		panic("failed to encode QR placeholder: " + err.Error())
	}
	return buf.Bytes()
}

func drawCentered(img *image.RGBA, y int, text string, col color.Color) {
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(col),
		Face: basicfont.Face7x13,
	}
	width := d.MeasureString(text).Ceil()
	d.Dot = fixed.Point26_6{
		X: fixed.I((img.Bounds().Dx() - width) / 2),
		Y: fixed.I(y),
	}
	d.DrawString(text)
}
