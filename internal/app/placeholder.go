package app

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"

	"github.com/heartmarshall/picquiz-backend/internal/domain"
)

const placeholderSize = 256

// EnsurePlaceholder stores a neutral grey PNG under key unless an object is
// already there. Operators may replace it with their own artwork.
func EnsurePlaceholder(ctx context.Context, store ObjectStore, key string) error {
	rc, _, err := store.Open(ctx, key)
	if err == nil {
		return rc.Close()
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return err
	}

	data, err := placeholderPNG()
	if err != nil {
		return err
	}
	return store.Put(ctx, key, "image/png", data)
}

func placeholderPNG() ([]byte, error) {
	img := image.NewGray(image.Rect(0, 0, placeholderSize, placeholderSize))
	for i := range img.Pix {
		img.Pix[i] = 0xd0
	}
	// Thin frame so the image reads as a card on white backgrounds.
	for i := 0; i < placeholderSize; i++ {
		for _, p := range [][2]int{{i, 0}, {i, placeholderSize - 1}, {0, i}, {placeholderSize - 1, i}} {
			img.SetGray(p[0], p[1], color.Gray{Y: 0x90})
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
