package providers

import (
	"context"
	"errors"
)

// ErrNoImages means the source document yielded no usable page image; the
// orchestrator aborts the run before any stage executes.
var ErrNoImages = errors.New("document produced no images")

// DocumentRasterizer converts an input document (multi-page scan or single
// image) into an ordered list of PNG-encoded page images.
type DocumentRasterizer interface {
	Rasterize(ctx context.Context, filename string, content []byte) ([][]byte, error)
}
