// Package analysis runs the document quality analyzer, an external process
// that scores an image and lists the problems it found.
package analysis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/reactit/kycdesk/internal/config"
	"github.com/reactit/kycdesk/pkg/formatting"
	"github.com/reactit/kycdesk/pkg/lifecycle"
	"github.com/reactit/kycdesk/pkg/process"
)

// noIssues is printed by the analyzer when the image has no problems.
const noIssues = "None"

// Quality is the analyzer verdict for one image.
type Quality struct {
	Score  float64  `json:"qualityScore"`
	Issues []string `json:"issues"`
}

// System scores document images.
type System interface {
	Start(lc *lifecycle.Coordinator) error
	Handler(maxUploadSize int64) *Handler
	// Analyze scores the image at path.
	Analyze(ctx context.Context, path string) (*Quality, error)
	// AnalyzeBytes writes data to a temporary file named after filename and scores it.
	AnalyzeBytes(ctx context.Context, data []byte, filename string) (*Quality, error)
}

type report struct {
	QualityScore *float64 `json:"qualityScore"`
	Issues       []string `json:"issues"`
	Error        *string  `json:"error"`
}

type analyzer struct {
	cfg    *config.AnalyzerConfig
	logger *slog.Logger
}

// New creates a System running "<command> <args...> <path>".
func New(cfg *config.AnalyzerConfig, logger *slog.Logger) System {
	return &analyzer{
		cfg:    cfg,
		logger: logger.With("system", "analysis"),
	}
}

func (a *analyzer) Start(lc *lifecycle.Coordinator) error {
	lc.AddProbe("analyzer", func(context.Context) error {
		return process.Available(a.cfg.Command)
	})
	return nil
}

func (a *analyzer) Handler(maxUploadSize int64) *Handler {
	return NewHandler(a, a.logger, maxUploadSize, a.cfg.TimeoutDuration(), a.cfg.AllowPrivateFetch)
}

func (a *analyzer) Analyze(ctx context.Context, path string) (*Quality, error) {
	ctx, cancel := context.WithTimeout(ctx, a.cfg.TimeoutDuration())
	defer cancel()

	args := append(append([]string{}, a.cfg.Args...), path)
	res, err := process.Run(ctx, a.cfg.Command, args...)
	if err != nil {
		var exitErr *process.ExitError
		if errors.As(err, &exitErr) {
			return nil, &FailedError{Stderr: exitErr.Stderr, Err: err}
		}
		return nil, &FailedError{Err: err}
	}

	rep, err := formatting.ParseOutput[report](res.Stdout)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrAnalyzerMalformed, err)
	}

	switch {
	case rep.Error != nil:
		return nil, fmt.Errorf("%w: %s", ErrAnalyzerReported, *rep.Error)
	case rep.QualityScore == nil:
		return nil, fmt.Errorf("%w: missing qualityScore", ErrAnalyzerMalformed)
	}

	q := &Quality{
		Score:  *rep.QualityScore,
		Issues: cleanIssues(rep.Issues),
	}

	a.logger.Debug(
		"image analyzed",
		"path", path,
		"score", q.Score,
		"issues", len(q.Issues),
		"duration", res.Duration,
	)
	return q, nil
}

func (a *analyzer) AnalyzeBytes(ctx context.Context, data []byte, filename string) (*Quality, error) {
	path, cleanup, err := writeTemp(data, filename)
	if err != nil {
		return nil, &FailedError{Err: err}
	}
	defer cleanup()

	return a.Analyze(ctx, path)
}

func cleanIssues(issues []string) []string {
	out := make([]string, 0, len(issues))
	for _, issue := range issues {
		if issue == "" || issue == noIssues {
			continue
		}
		out = append(out, issue)
	}
	return out
}

func writeTemp(data []byte, filename string) (string, func(), error) {
	f, err := os.CreateTemp("", "kycdesk-analysis-*"+filepath.Ext(filename))
	if err != nil {
		return "", nil, fmt.Errorf("create temp file: %w", err)
	}
	cleanup := func() { os.Remove(f.Name()) }

	if _, err := f.Write(data); err != nil {
		f.Close()
		cleanup()
		return "", nil, fmt.Errorf("write temp file: %w", err)
	}
	if err := f.Close(); err != nil {
		cleanup()
		return "", nil, fmt.Errorf("close temp file: %w", err)
	}

	return f.Name(), cleanup, nil
}
