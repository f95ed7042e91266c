package documents

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/abdliliaai/Rxsentinel/internal/domain/providers"
	"github.com/abdliliaai/Rxsentinel/internal/infrastructure/observability"
	"github.com/abdliliaai/Rxsentinel/pkg/config"
	apperrors "github.com/abdliliaai/Rxsentinel/pkg/errors"
)

// Rasterizer converts uploaded documents to page images. Image uploads pass
// through untouched; PDFs are rendered one PNG per page with pdftoppm.
type Rasterizer struct {
	pdftoppm string
	scale    int
}

// Ensure Rasterizer implements DocumentRasterizer
var _ providers.DocumentRasterizer = (*Rasterizer)(nil)

// NewRasterizer creates a new document rasterizer
func NewRasterizer(cfg *config.DocumentConfig) *Rasterizer {
	pdftoppm := "pdftoppm"
	scale := 2
	if cfg != nil {
		if cfg.PDFToPPMPath != "" {
			pdftoppm = cfg.PDFToPPMPath
		}
		if cfg.Scale > 0 {
			scale = cfg.Scale
		}
	}
	return &Rasterizer{pdftoppm: pdftoppm, scale: scale}
}

// Rasterize converts one uploaded document into ordered page images.
func (r *Rasterizer) Rasterize(ctx context.Context, filename string, content []byte) ([][]byte, error) {
	if len(content) == 0 {
		return nil, providers.ErrNoImages
	}

	switch {
	case isPDF(filename, content):
		return r.rasterizePDF(ctx, content)
	case isImage(filename, content):
		return [][]byte{content}, nil
	default:
		return nil, apperrors.NewValidationError(
			fmt.Sprintf("unsupported document type: %s", filepath.Ext(filename)))
	}
}

// rasterizePDF renders every page of a PDF to PNG through pdftoppm. The
// render happens in a temp directory; page files sort lexically because
// pdftoppm zero-pads page numbers.
func (r *Rasterizer) rasterizePDF(ctx context.Context, content []byte) ([][]byte, error) {
	dir, err := os.MkdirTemp("", "rxsentinel-pdf-")
	if err != nil {
		return nil, apperrors.NewInternalError("failed to create temp directory", err)
	}
	defer os.RemoveAll(dir)

	source := filepath.Join(dir, "input.pdf")
	if err := os.WriteFile(source, content, 0o600); err != nil {
		return nil, apperrors.NewInternalError("failed to write temp pdf", err)
	}

	// 72 dpi base resolution scaled by the configured zoom factor.
	dpi := strconv.Itoa(72 * r.scale)
	prefix := filepath.Join(dir, "page")
	cmd := exec.CommandContext(ctx, r.pdftoppm, "-png", "-r", dpi, source, prefix)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		observability.GetLogger().Error().
			Err(err).
			Str("stderr", stderr.String()).
			Msg("pdftoppm failed")
		return nil, apperrors.NewInternalError("failed to render pdf pages", err)
	}

	pages, err := filepath.Glob(prefix + "*.png")
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list rendered pages", err)
	}
	sort.Strings(pages)

	images := make([][]byte, 0, len(pages))
	for _, page := range pages {
		data, err := os.ReadFile(page)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to read rendered page", err)
		}
		images = append(images, data)
	}

	if len(images) == 0 {
		return nil, providers.ErrNoImages
	}
	return images, nil
}

func isPDF(filename string, content []byte) bool {
	if strings.EqualFold(filepath.Ext(filename), ".pdf") {
		return true
	}
	return bytes.HasPrefix(content, []byte("%PDF-"))
}

var pngMagic = []byte{0x89, 'P', 'N', 'G'}
var jpegMagic = []byte{0xFF, 0xD8, 0xFF}

func isImage(filename string, content []byte) bool {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".png", ".jpg", ".jpeg":
		return true
	}
	return bytes.HasPrefix(content, pngMagic) || bytes.HasPrefix(content, jpegMagic)
}
