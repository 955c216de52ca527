package api

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bskmedia/media-api/internal/config"
	"github.com/bskmedia/media-api/internal/storage"
)

func newMediaRouter(t *testing.T) (*storage.FileStore, chi.Router) {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	files, err := storage.NewFileStore(config.StorageConfig{
		BaseDir:        t.TempDir(),
		PublicBasePath: "/api/media",
	}, logger)
	require.NoError(t, err)

	handler := NewMediaHandler(files)
	router := chi.NewRouter()
	router.Get("/api/media/{resource}/{version}", handler.Download)
	return files, router
}

func TestMediaHandler_Download(t *testing.T) {
	t.Parallel()

	t.Run("serves_stored_artifact", func(t *testing.T) {
		t.Parallel()
		files, router := newMediaRouter(t)

		payload := []byte("fake mp4 bytes")
		_, _, err := files.Save("Birth Certificate", 3, payload)
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/api/media/Birth_Certificate/3", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "video/mp4", w.Header().Get("Content-Type"))
		assert.Equal(t, payload, w.Body.Bytes())
	})

	t.Run("missing_artifact_not_found", func(t *testing.T) {
		t.Parallel()
		_, router := newMediaRouter(t)

		req := httptest.NewRequest(http.MethodGet, "/api/media/Birth_Certificate/1", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("invalid_version_rejected", func(t *testing.T) {
		t.Parallel()
		_, router := newMediaRouter(t)

		for _, version := range []string{"abc", "0", "-1"} {
			req := httptest.NewRequest(http.MethodGet, "/api/media/Birth_Certificate/"+version, nil)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, http.StatusBadRequest, w.Code, "version=%s", version)
		}
	})
}
