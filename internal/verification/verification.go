// Package verification decides whether the text read from an identity
// document supports the identity a customer declared.
//
// The pipeline decodes the document image, runs OCR and quality analysis
// concurrently, and hands the extracted text to the decision engine. Bad
// client input ends in REJECTED with a reason; collaborator failures are
// returned as *InfraError unless configured to reject.
package verification

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/png"
	"log/slog"
	"os"
	"strings"
	"time"

	_ "image/gif"
	_ "image/jpeg"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"github.com/reactit/kycdesk/internal/analysis"
	"github.com/reactit/kycdesk/internal/config"
	"github.com/reactit/kycdesk/internal/kyc"
)

// Rejection reasons.
const (
	ReasonFieldMismatch    = "field_mismatch"
	ReasonInvalidBase64    = "invalid_base64"
	ReasonEmptyImage       = "empty_image"
	ReasonUnsupportedImage = "unsupported_image"
	ReasonInvalidImage     = "invalid_image"
	ReasonImageTooLarge    = "image_too_large"
	ReasonDecodePanic      = "decode_panic"
	ReasonQualityRejected  = "quality_rejected"
	ReasonInfraFailure     = "infrastructure_failure"
)

// maxPixels bounds decoded image dimensions independently of the encoded size.
const maxPixels = 50_000_000

const entity = "verification"

// Extractor reads the text printed on an image file.
type Extractor interface {
	Extract(ctx context.Context, path string) (string, error)
}

// Analyzer scores the quality of an image file.
type Analyzer interface {
	Analyze(ctx context.Context, path string) (*analysis.Quality, error)
}

// Result is the outcome of one verification attempt.
type Result struct {
	Status  kyc.Status        `json:"status"`
	Reason  string            `json:"reason,omitempty"`
	Fields  []FieldMatch      `json:"fields,omitempty"`
	Quality *analysis.Quality `json:"quality,omitempty"`
}

// System runs verification attempts.
type System interface {
	Handler() *Handler
	// Verify checks claim against the encoded document image in data.
	Verify(ctx context.Context, claim kyc.Claim, data []byte) (*Result, error)
	// VerifyBase64 is Verify for a base64 or data URL encoded image.
	VerifyBase64(ctx context.Context, claim kyc.Claim, encoded string) (*Result, error)
}

type service struct {
	ocr      Extractor
	analyzer Analyzer
	cfg      *config.VerificationConfig
	metrics  *metrics
	logger   *slog.Logger
}

// New creates the verification pipeline. analyzer may be nil to skip
// quality analysis.
func New(
	ocr Extractor,
	analyzer Analyzer,
	cfg *config.VerificationConfig,
	reg prometheus.Registerer,
	logger *slog.Logger,
) System {
	return &service{
		ocr:      ocr,
		analyzer: analyzer,
		cfg:      cfg,
		metrics:  newMetrics(reg),
		logger:   logger.With("system", "verification"),
	}
}

func (s *service) Handler() *Handler {
	return NewHandler(s, s.logger, MaxRequestBytes(s.cfg.MaxImageSizeBytes()))
}

func (s *service) VerifyBase64(ctx context.Context, claim kyc.Claim, encoded string) (*Result, error) {
	if err := claim.Validate(entity, Normalize); err != nil {
		return nil, err
	}

	encoded = stripDataURL(encoded)
	if int64(base64.StdEncoding.DecodedLen(len(encoded))) > s.cfg.MaxImageSizeBytes() {
		return s.reject(ReasonImageTooLarge), nil
	}

	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		s.logger.Info("document image is not valid base64", "error", err)
		return s.reject(ReasonInvalidBase64), nil
	}

	return s.verify(ctx, claim, data)
}

func (s *service) Verify(ctx context.Context, claim kyc.Claim, data []byte) (*Result, error) {
	if err := claim.Validate(entity, Normalize); err != nil {
		return nil, err
	}
	return s.verify(ctx, claim, data)
}

func (s *service) verify(ctx context.Context, claim kyc.Claim, data []byte) (*Result, error) {
	if int64(len(data)) > s.cfg.MaxImageSizeBytes() {
		return s.reject(ReasonImageTooLarge), nil
	}

	img, reason := decodeImage(data)
	if reason != "" {
		return s.reject(reason), nil
	}

	path, cleanup, err := writePNG(img)
	if err != nil {
		return s.infraFailure(&InfraError{Stage: "prepare", Err: err})
	}
	defer cleanup()

	ctx, cancel := context.WithTimeout(ctx, s.cfg.TimeoutDuration())
	defer cancel()

	var (
		text    string
		quality *analysis.Quality
	)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		start := time.Now()
		t, err := s.ocr.Extract(gctx, path)
		s.metrics.observeCall("ocr", start)
		if err != nil {
			return &InfraError{Stage: "ocr", Err: err}
		}
		text = t
		return nil
	})

	if s.analyzer != nil {
		g.Go(func() error {
			start := time.Now()
			q, err := s.analyzer.Analyze(gctx, path)
			s.metrics.observeCall("analyzer", start)
			switch {
			case err == nil:
				quality = q
				return nil
			case !s.cfg.RequireQuality:
				s.logger.Warn("quality analysis skipped", "error", err)
				return nil
			case errors.Is(err, analysis.ErrAnalyzerReported):
				return errQualityRejected
			default:
				return &InfraError{Stage: "analysis", Err: err}
			}
		})
	}

	if err := g.Wait(); err != nil {
		if errors.Is(err, errQualityRejected) {
			return s.reject(ReasonQualityRejected), nil
		}
		return s.infraFailure(err)
	}

	d := Evaluate(text, claim)
	res := &Result{
		Status:  d.Status,
		Fields:  d.Fields,
		Quality: quality,
	}
	if d.Status == kyc.StatusRejected {
		res.Reason = ReasonFieldMismatch
	}

	s.metrics.recordOutcome(res.Status, res.Reason)
	s.logger.Info("verification decided", "status", res.Status, "reason", res.Reason)
	return res, nil
}

var errQualityRejected = errors.New("document quality rejected")

func (s *service) reject(reason string) *Result {
	s.metrics.recordOutcome(kyc.StatusRejected, reason)
	s.logger.Info("verification rejected", "reason", reason)
	return &Result{Status: kyc.StatusRejected, Reason: reason}
}

func (s *service) infraFailure(err error) (*Result, error) {
	if s.cfg.RejectOnInfraFailure {
		s.logger.Error("verification infrastructure failure, rejecting", "error", err)
		return s.reject(ReasonInfraFailure), nil
	}

	stage := "unknown"
	var ie *InfraError
	if errors.As(err, &ie) {
		stage = ie.Stage
	} else {
		err = &InfraError{Stage: stage, Err: err}
	}
	s.metrics.recordOutcome("ERROR", stage)
	return nil, err
}

// decodeImage returns the decoded image, or a rejection reason. Decoder
// panics on hostile input are reported as ReasonDecodePanic.
func decodeImage(data []byte) (img image.Image, reason string) {
	defer func() {
		if r := recover(); r != nil {
			img, reason = nil, ReasonDecodePanic
		}
	}()

	if len(data) == 0 {
		return nil, ReasonEmptyImage
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		if errors.Is(err, image.ErrFormat) {
			return nil, ReasonUnsupportedImage
		}
		return nil, ReasonInvalidImage
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, ReasonInvalidImage
	}
	if int64(cfg.Width)*int64(cfg.Height) > maxPixels {
		return nil, ReasonImageTooLarge
	}

	img, _, err = image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, ReasonInvalidImage
	}
	return img, ""
}

func writePNG(img image.Image) (string, func(), error) {
	f, err := os.CreateTemp("", "kycdesk-verify-*.png")
	if err != nil {
		return "", nil, fmt.Errorf("create temp image: %w", err)
	}
	cleanup := func() { os.Remove(f.Name()) }

	if err := png.Encode(f, img); err != nil {
		f.Close()
		cleanup()
		return "", nil, fmt.Errorf("encode temp image: %w", err)
	}
	if err := f.Close(); err != nil {
		cleanup()
		return "", nil, fmt.Errorf("close temp image: %w", err)
	}
	return f.Name(), cleanup, nil
}

func stripDataURL(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "data:") {
		if _, payload, ok := strings.Cut(s, ","); ok {
			return payload
		}
	}
	return s
}
