// Package ocr extracts text from document images with the tesseract CLI.
package ocr

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/reactit/kycdesk/internal/config"
	"github.com/reactit/kycdesk/pkg/lifecycle"
	"github.com/reactit/kycdesk/pkg/process"
)

var ErrExtractFailed = errors.New("text extraction failed")

// System reads the text printed on an image file.
type System interface {
	Start(lc *lifecycle.Coordinator) error
	Extract(ctx context.Context, path string) (string, error)
}

type tesseract struct {
	cfg    *config.OCRConfig
	logger *slog.Logger
}

// New creates a System invoking cfg.Command as "<command> <path> stdout -l <language>".
func New(cfg *config.OCRConfig, logger *slog.Logger) System {
	return &tesseract{
		cfg:    cfg,
		logger: logger.With("system", "ocr"),
	}
}

func (t *tesseract) Start(lc *lifecycle.Coordinator) error {
	lc.AddProbe("ocr", func(context.Context) error {
		return process.Available(t.cfg.Command)
	})
	return nil
}

func (t *tesseract) Extract(ctx context.Context, path string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, t.cfg.TimeoutDuration())
	defer cancel()

	res, err := process.Run(ctx, t.cfg.Command, path, "stdout", "-l", t.cfg.Language)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrExtractFailed, err)
	}

	t.logger.Debug(
		"text extracted",
		"path", path,
		"bytes", len(res.Stdout),
		"duration", res.Duration,
	)
	return string(res.Stdout), nil
}
