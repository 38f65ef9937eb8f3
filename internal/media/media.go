// Package media stores product images on local disk or on Cloudinary.
package media

import (
	"context"
	"errors"
	"fmt"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

var (
	ErrUnsupportedType = errors.New("invalid image type")
	ErrTooLarge        = errors.New("image too large")
	ErrEmpty           = errors.New("empty image")
)

var allowedTypes = []string{"image/jpeg", "image/png", "image/gif", "image/webp"}

// Image is what a Store hands back: a URL for clients and an id to delete by.
type Image struct {
	URL      string
	PublicID string
}

type Store interface {
	Save(ctx context.Context, data []byte) (Image, error)
	Delete(ctx context.Context, publicID string) error
}

// Sniff checks data against the allowed image types by content, not by the
// client's header, and returns the detected file extension.
func Sniff(data []byte, maxBytes int) (string, error) {
	if len(data) == 0 {
		return "", ErrEmpty
	}
	if maxBytes > 0 && len(data) > maxBytes {
		return "", fmt.Errorf("%w: %d bytes (limit %d)", ErrTooLarge, len(data), maxBytes)
	}
	mt := mimetype.Detect(data)
	for _, t := range allowedTypes {
		if mt.Is(t) {
			return mt.Extension(), nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrUnsupportedType, mt.String())
}

func newName() string {
	return "product_" + uuid.NewString()
}
