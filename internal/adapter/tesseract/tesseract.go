// Package tesseract implements the OCR backend using the Tesseract engine
// via gosseract.
package tesseract

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"strings"

	"mathtutor/internal/domain"

	"github.com/otiai10/gosseract/v2"
)

// Ensure the interface is met.
var _ domain.ImageRecognizer = (*Recognizer)(nil)

// Recognizer runs OCR over uploaded raster images.
type Recognizer struct {
	language string
}

// New creates a Recognizer. An empty language keeps the engine default.
func New(language string) *Recognizer {
	return &Recognizer{language: language}
}

// RecognizeImage extracts text from a PNG or JPEG image and returns it with
// surrounding whitespace trimmed.
func (r *Recognizer) RecognizeImage(ctx context.Context, img []byte) (string, error) {
	// Reject undecodable uploads before handing bytes to the engine.
	if _, _, err := image.DecodeConfig(bytes.NewReader(img)); err != nil {
		return "", fmt.Errorf("decode image: %w", err)
	}

	client := gosseract.NewClient()
	defer func() { _ = client.Close() }()

	if r.language != "" {
		if err := client.SetLanguage(r.language); err != nil {
			return "", err
		}
	}
	if err := client.SetImageFromBytes(img); err != nil {
		return "", err
	}

	text, err := client.Text()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(text), nil
}
