package documents

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/abdliliaai/Rxsentinel/internal/domain/providers"
	"github.com/abdliliaai/Rxsentinel/pkg/config"
)

func TestRasterize_ImagePassthrough(t *testing.T) {
	r := NewRasterizer(nil)
	content := append([]byte{0x89, 'P', 'N', 'G'}, []byte("fake-png-body")...)

	images, err := r.Rasterize(context.Background(), "scan.png", content)
	assert.NoError(t, err)
	assert.Len(t, images, 1)
	assert.Equal(t, content, images[0])
}

func TestRasterize_JPEGByExtension(t *testing.T) {
	r := NewRasterizer(&config.DocumentConfig{})
	content := []byte("jpeg-bytes")

	images, err := r.Rasterize(context.Background(), "photo.JPEG", content)
	assert.NoError(t, err)
	assert.Len(t, images, 1)
}

func TestRasterize_EmptyContent(t *testing.T) {
	r := NewRasterizer(nil)

	_, err := r.Rasterize(context.Background(), "scan.png", nil)
	assert.True(t, errors.Is(err, providers.ErrNoImages))
}

func TestRasterize_UnsupportedType(t *testing.T) {
	r := NewRasterizer(nil)

	_, err := r.Rasterize(context.Background(), "notes.txt", []byte("plain text"))
	assert.Error(t, err)
}

func TestIsPDF_MagicWithoutExtension(t *testing.T) {
	assert.True(t, isPDF("upload", []byte("%PDF-1.7 ...")))
	assert.True(t, isPDF("doc.pdf", []byte("anything")))
	assert.False(t, isPDF("scan.png", []byte{0x89, 'P', 'N', 'G'}))
}

func TestIsImage_MagicWithoutExtension(t *testing.T) {
	assert.True(t, isImage("upload", []byte{0xFF, 0xD8, 0xFF, 0xE0}))
	assert.False(t, isImage("upload", []byte("%PDF-1.7")))
}
