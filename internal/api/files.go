package api

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"path"
	"strconv"
	"time"

	"github.com/reactit/kycdesk/pkg/handlers"
	"github.com/reactit/kycdesk/pkg/routes"
	"github.com/reactit/kycdesk/pkg/storage"
)

var (
	errMissingFile  = errors.New("multipart field \"file\" is required")
	errFileTooLarge = errors.New("file exceeds upload size limit")
)

// uploadResult locates a stored file. FileURL is a signed blob URL when the
// credential can sign, otherwise a path under the files endpoint.
type uploadResult struct {
	FileURL string `json:"fileUrl"`
	Key     string `json:"key"`
}

type filesHandler struct {
	store         storage.System
	logger        *slog.Logger
	maxUploadSize int64
	urlTTL        time.Duration
	filesPath     string
	now           func() time.Time
}

func newFilesHandler(
	store storage.System,
	logger *slog.Logger,
	maxUploadSize int64,
	urlTTL time.Duration,
	filesPath string,
) *filesHandler {
	return &filesHandler{
		store:         store,
		logger:        logger.With("handler", "files"),
		maxUploadSize: maxUploadSize,
		urlTTL:        urlTTL,
		filesPath:     filesPath,
		now:           time.Now,
	}
}

func (h *filesHandler) routes() routes.Group {
	return routes.Group{
		Routes: []routes.Route{
			{Method: "POST", Pattern: "/upload", Handler: h.upload},
			{Method: "GET", Pattern: "/files/{key...}", Handler: h.serve},
		},
	}
}

func (h *filesHandler) upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)
	if err := r.ParseMultipartForm(h.maxUploadSize); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			handlers.RespondError(w, h.logger, http.StatusRequestEntityTooLarge, errFileTooLarge)
			return
		}
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, errMissingFile)
		return
	}
	defer file.Close()

	key := fmt.Sprintf("uploads/%d-%s", h.now().UnixMilli(), storage.SafeName(header.Filename, "file"))

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = mime.TypeByExtension(path.Ext(header.Filename))
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	if err := h.store.Upload(r.Context(), key, file, contentType); err != nil {
		handlers.RespondError(w, h.logger, storage.MapHTTPStatus(err), err)
		return
	}

	fileURL, err := h.store.SignedURL(key, h.urlTTL)
	if err != nil {
		if !errors.Is(err, storage.ErrSigningUnavailable) {
			h.logger.Warn("signed url failed", "key", key, "error", err)
		}
		fileURL = h.filesPath + "/" + key
	}

	h.logger.Info("file uploaded", "key", key, "size", header.Size)
	handlers.RespondJSON(w, http.StatusOK, uploadResult{FileURL: fileURL, Key: key})
}

func (h *filesHandler) serve(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")

	obj, err := h.store.Download(r.Context(), key)
	if err != nil {
		handlers.RespondError(w, h.logger, storage.MapHTTPStatus(err), err)
		return
	}
	defer obj.Body.Close()

	contentType := obj.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)

	if obj.ContentLength > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(obj.ContentLength, 10))
	}
	w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=%q", path.Base(key)))
	w.WriteHeader(http.StatusOK)

	if _, err := io.Copy(w, obj.Body); err != nil {
		h.logger.Warn("file stream interrupted", "key", key, "error", err)
	}
}
