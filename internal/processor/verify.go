package processor

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg" // JPEG format support
	_ "image/png"  // PNG format support

	"github.com/disintegration/imaging"
	"go.uber.org/zap"
)

// Verifier checks downloaded wallpapers before they are committed to the cache.
// A body that does not fully decode (truncated transfer, HTML error page served
// as image/jpeg) is rejected.
type Verifier struct {
	logger *zap.Logger
}

// NewVerifier creates a new image verifier
func NewVerifier(logger *zap.Logger) *Verifier {
	return &Verifier{logger: logger}
}

// Verify decodes the whole image and returns its dimensions
func (v *Verifier) Verify(data []byte) (image.Point, error) {
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return image.Point{}, fmt.Errorf("failed to decode image: %w", err)
	}

	bounds := img.Bounds()
	if bounds.Dx() == 0 || bounds.Dy() == 0 {
		return image.Point{}, fmt.Errorf("invalid image dimensions: %dx%d", bounds.Dx(), bounds.Dy())
	}

	v.logger.Debug("Image verified", zap.Int("w", bounds.Dx()), zap.Int("h", bounds.Dy()), zap.Int("bytes", len(data)))
	return bounds.Size(), nil
}
