package screenshot

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"annotator/internal/annotate/geometry"
)

// Probe reads only the image header and reports the natural pixel size.
func Probe(content []byte) (geometry.Size, string, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(content))
	if err != nil {
		return geometry.Size{}, "", fmt.Errorf("decode screenshot header: %w", err)
	}
	size := geometry.Size{Width: cfg.Width, Height: cfg.Height}
	if !size.Valid() {
		return geometry.Size{}, format, fmt.Errorf("screenshot has no pixels (%dx%d)", cfg.Width, cfg.Height)
	}
	return size, format, nil
}
