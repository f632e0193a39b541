package photostore

import (
	"context"
	"io"
)

// PhotoStore is the media host. Save returns a durable URL for the photo;
// Get retrieves a photo previously returned by Save.
type PhotoStore interface {
	Save(ctx context.Context, prefix, mimeType string, r io.Reader) (url string, err error)
	Get(ctx context.Context, url string) (io.ReadCloser, string, error)
}
