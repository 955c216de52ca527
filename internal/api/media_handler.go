package api

import (
	"errors"
	"io/fs"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/bskmedia/media-api/internal/api/shared"
	"github.com/bskmedia/media-api/internal/storage"
)

// MediaHandler serves stored artifact files.
type MediaHandler struct {
	files *storage.FileStore
}

// NewMediaHandler creates a new MediaHandler.
func NewMediaHandler(files *storage.FileStore) *MediaHandler {
	return &MediaHandler{files: files}
}

// Download handles GET /api/media/{resource}/{version} requests and
// streams the stored file.
func (h *MediaHandler) Download(w http.ResponseWriter, r *http.Request) {
	resource := chi.URLParam(r, "resource")
	version, err := strconv.Atoi(chi.URLParam(r, "version"))
	if err != nil || version <= 0 {
		shared.RespondWithError(w, r, http.StatusBadRequest, "version must be a positive integer")
		return
	}

	file, err := h.files.Open(resource, version)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			shared.RespondWithError(w, r, http.StatusNotFound, "Artifact not found")
			return
		}
		shared.RespondWithErrorAndLog(w, r, http.StatusInternalServerError,
			"Failed to open artifact", err)
		return
	}
	defer func() { _ = file.Close() }()

	info, err := file.Stat()
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusInternalServerError,
			"Failed to read artifact", err)
		return
	}

	w.Header().Set("Content-Type", "video/mp4")
	http.ServeContent(w, r, info.Name(), info.ModTime(), file)
}
