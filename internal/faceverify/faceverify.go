// Package faceverify compares a selfie against an identity photo using the
// external face comparison service.
package faceverify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/reactit/kycdesk/internal/config"
)

const verifyPath = "/api/verify_face_match"

// maxResponseSize caps the comparator response body.
const maxResponseSize = 1 << 20

// Image is one picture sent to the comparator.
type Image struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Comparison is the comparator verdict. Match false is a valid answer, not an error.
type Comparison struct {
	Match     bool            `json:"match"`
	Score     float64         `json:"score"`
	Distance  float64         `json:"distance"`
	Threshold float64         `json:"threshold"`
	Model     string          `json:"model"`
	Raw       json.RawMessage `json:"-"`
}

// System compares faces.
type System interface {
	Handler(maxUploadSize int64) *Handler
	Compare(ctx context.Context, selfie, idPhoto Image) (*Comparison, error)
}

type response struct {
	Verified  *bool   `json:"verified"`
	Distance  float64 `json:"distance"`
	Threshold float64 `json:"threshold"`
	Model     string  `json:"model"`
	Error     *string `json:"error"`
}

type client struct {
	endpoint    string
	http        *http.Client
	logger      *slog.Logger
	comparisons *prometheus.CounterVec
}

// New creates a System posting to cfg.BaseURL. Comparison outcomes are
// counted on reg.
func New(cfg *config.FaceMatchConfig, reg prometheus.Registerer, logger *slog.Logger) System {
	return &client{
		endpoint: strings.TrimRight(cfg.BaseURL, "/") + verifyPath,
		http:     &http.Client{Timeout: cfg.TimeoutDuration()},
		logger:   logger.With("system", "faceverify"),
		comparisons: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "kycdesk_face_match_comparisons_total",
				Help: "Face comparisons by result.",
			},
			[]string{"result"},
		),
	}
}

func (c *client) Handler(maxUploadSize int64) *Handler {
	return NewHandler(c, c.logger, maxUploadSize)
}

func (c *client) Compare(ctx context.Context, selfie, idPhoto Image) (*Comparison, error) {
	cmp, err := c.compare(ctx, selfie, idPhoto)
	switch {
	case err != nil:
		c.comparisons.WithLabelValues("error").Inc()
	case cmp.Match:
		c.comparisons.WithLabelValues("match").Inc()
	default:
		c.comparisons.WithLabelValues("no_match").Inc()
	}
	return cmp, err
}

func (c *client) compare(ctx context.Context, selfie, idPhoto Image) (*Comparison, error) {
	body, contentType, err := encode(selfie, idPhoto)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrComparatorFailed, err)
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrComparatorFailed, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %w", ErrComparatorFailed, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: status %d: %s", ErrComparatorFailed, resp.StatusCode, truncate(raw))
	}

	var out response
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("%w: decode response: %w", ErrComparatorFailed, err)
	}
	if out.Error != nil {
		return nil, fmt.Errorf("%w: %s", ErrComparatorFailed, *out.Error)
	}
	if out.Verified == nil {
		return nil, fmt.Errorf("%w: response missing verified", ErrComparatorFailed)
	}

	cmp := &Comparison{
		Match:     *out.Verified,
		Score:     Score(out.Distance),
		Distance:  out.Distance,
		Threshold: out.Threshold,
		Model:     out.Model,
		Raw:       raw,
	}

	c.logger.Debug("faces compared", "match", cmp.Match, "distance", cmp.Distance, "model", cmp.Model)
	return cmp, nil
}

// Score converts a comparator distance into a similarity in [0, 1].
func Score(distance float64) float64 {
	return min(max(1-distance, 0), 1)
}

func encode(selfie, idPhoto Image) (io.Reader, string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	for _, part := range []struct {
		field string
		img   Image
	}{
		{"img1", selfie},
		{"img2", idPhoto},
	} {
		if len(part.img.Data) == 0 {
			return nil, "", fmt.Errorf("%w: %s", ErrMissingImage, part.field)
		}
		if err := writePart(mw, part.field, part.img); err != nil {
			return nil, "", fmt.Errorf("encode %s: %w", part.field, err)
		}
	}

	if err := mw.Close(); err != nil {
		return nil, "", err
	}
	return &buf, mw.FormDataContentType(), nil
}

func writePart(mw *multipart.Writer, field string, img Image) error {
	filename := img.Filename
	if filename == "" {
		filename = field + ".jpg"
	}
	contentType := img.ContentType
	if contentType == "" {
		contentType = http.DetectContentType(img.Data)
	}

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, field, filename))
	h.Set("Content-Type", contentType)

	w, err := mw.CreatePart(h)
	if err != nil {
		return err
	}
	_, err = w.Write(img.Data)
	return err
}

func truncate(b []byte) string {
	const n = 200
	s := strings.TrimSpace(string(b))
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
