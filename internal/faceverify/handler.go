package faceverify

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/reactit/kycdesk/pkg/handlers"
	"github.com/reactit/kycdesk/pkg/routes"
)

// Handler forwards face comparison requests to the comparator.
type Handler struct {
	sys           System
	logger        *slog.Logger
	maxUploadSize int64
}

func NewHandler(sys System, logger *slog.Logger, maxUploadSize int64) *Handler {
	return &Handler{
		sys:           sys,
		logger:        logger.With("handler", "faceverify"),
		maxUploadSize: maxUploadSize,
	}
}

func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix: "/verify_face_match",
		Routes: []routes.Route{
			{Method: "POST", Pattern: "", Handler: h.Verify},
		},
	}
}

// Verify compares multipart images "img1" and "img2" and writes the
// comparator response unchanged.
func (h *Handler) Verify(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)
	if err := r.ParseMultipartForm(h.maxUploadSize); err != nil {
		err = formError(err)
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	img1, err := FormImage(r, "img1")
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}
	img2, err := FormImage(r, "img2")
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	cmp, err := h.sys.Compare(r.Context(), img1, img2)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(cmp.Raw)
}

// formError separates an oversized body from a malformed or missing form.
func formError(err error) error {
	if handlers.DecodeStatus(err) == http.StatusRequestEntityTooLarge {
		return ErrFileTooLarge
	}
	return fmt.Errorf("%w: %w", ErrInvalidForm, err)
}

// FormImage reads the multipart file field of a parsed form.
func FormImage(r *http.Request, field string) (Image, error) {
	file, header, err := r.FormFile(field)
	if err != nil {
		return Image{}, fmt.Errorf("%w: %s", ErrMissingImage, field)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return Image{}, fmt.Errorf("read %s: %w", field, err)
	}
	if len(data) == 0 {
		return Image{}, fmt.Errorf("%w: %s", ErrMissingImage, field)
	}

	return Image{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Data:        data,
	}, nil
}
