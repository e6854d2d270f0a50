package outbound

import (
	"context"
	"io"
)

type MediaStorage interface {
	// Put stores body under key and returns its public URL.
	Put(ctx context.Context, key, contentType string, body io.Reader, size int64) (string, error)
}
