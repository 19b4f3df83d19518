package analysis

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"path"
	"time"

	"github.com/reactit/kycdesk/pkg/handlers"
	"github.com/reactit/kycdesk/pkg/routes"
)

// Handler exposes the analyzer over HTTP.
type Handler struct {
	sys           System
	logger        *slog.Logger
	client        *http.Client
	maxUploadSize int64
}

// NewHandler builds the analysis handler. Image URLs pointing at loopback,
// private or link-local addresses are refused unless allowPrivate is set.
func NewHandler(sys System, logger *slog.Logger, maxUploadSize int64, fetchTimeout time.Duration, allowPrivate bool) *Handler {
	return &Handler{
		sys:           sys,
		logger:        logger.With("handler", "analysis"),
		client:        newFetchClient(fetchTimeout, allowPrivate),
		maxUploadSize: maxUploadSize,
	}
}

func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix: "/image-analysis",
		Routes: []routes.Route{
			{Method: "POST", Pattern: "", Handler: h.Analyze},
		},
	}
}

// Analyze scores a multipart "file" upload, or the image at the form "url".
func (h *Handler) Analyze(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)
	if err := r.ParseMultipartForm(h.maxUploadSize); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		if handlers.DecodeStatus(err) == http.StatusRequestEntityTooLarge {
			err = ErrFileTooLarge
		} else {
			err = fmt.Errorf("%w: %w", ErrNoImage, err)
		}
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	data, name, err := h.readImage(r)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	q, err := h.sys.AnalyzeBytes(r.Context(), data, name)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, q)
}

func (h *Handler) readImage(r *http.Request) ([]byte, string, error) {
	file, header, err := r.FormFile("file")
	if err == nil {
		defer file.Close()
		data, err := io.ReadAll(file)
		if err != nil {
			return nil, "", fmt.Errorf("%w: %w", ErrNoImage, err)
		}
		if len(data) == 0 {
			return nil, "", ErrNoImage
		}
		return data, header.Filename, nil
	}

	raw := r.FormValue("url")
	if raw == "" {
		return nil, "", ErrNoImage
	}
	return h.fetch(r.Context(), raw)
}

func (h *Handler) fetch(ctx context.Context, raw string) ([]byte, string, error) {
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return nil, "", fmt.Errorf("%w: unsupported url %q", ErrFetchFailed, raw)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %w", ErrFetchFailed, err)
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %w", ErrFetchFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("%w: %s returned %d", ErrFetchFailed, u.Host, resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, h.maxUploadSize+1))
	if err != nil {
		return nil, "", fmt.Errorf("%w: %w", ErrFetchFailed, err)
	}
	if int64(len(data)) > h.maxUploadSize {
		return nil, "", ErrFileTooLarge
	}
	if len(data) == 0 {
		return nil, "", ErrNoImage
	}

	return data, path.Base(u.Path), nil
}
