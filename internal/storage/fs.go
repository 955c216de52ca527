// Package storage persists finished media artifacts on the local
// filesystem and derives their public URLs.
//
// Layout: {base_dir}/{sanitized_resource_name}/{version}.mp4, with the
// public URL built from the same two components.
package storage

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/bskmedia/media-api/internal/config"
	"github.com/bskmedia/media-api/internal/domain"
)

// artifactExt is the file extension for stored media.
const artifactExt = ".mp4"

// ErrEmptyMedia is returned when asked to store an empty byte stream.
var ErrEmptyMedia = errors.New("media payload is empty")

// FileStore writes artifacts under a base directory.
type FileStore struct {
	baseDir        string
	publicBasePath string
	logger         *slog.Logger
}

// NewFileStore creates a FileStore rooted at cfg.BaseDir, creating the
// directory if necessary.
func NewFileStore(cfg config.StorageConfig, logger *slog.Logger) (*FileStore, error) {
	if cfg.BaseDir == "" {
		return nil, errors.New("storage base dir cannot be empty")
	}
	if logger == nil {
		logger = slog.Default()
	}

	if err := os.MkdirAll(cfg.BaseDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage base dir %s: %w", cfg.BaseDir, err)
	}

	return &FileStore{
		baseDir:        cfg.BaseDir,
		publicBasePath: strings.TrimRight(cfg.PublicBasePath, "/"),
		logger:         logger.With(slog.String("component", "file_store")),
	}, nil
}

// Save writes the media bytes for (resourceName, version) and returns
// the stored path and public URL. A partial file left behind by a failed
// write is removed before the error is returned.
func (s *FileStore) Save(resourceName string, version int, media []byte) (path, url string, err error) {
	if len(media) == 0 {
		return "", "", ErrEmptyMedia
	}

	safeName := SanitizeResourceName(resourceName)
	dir := filepath.Join(s.baseDir, safeName)

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", "", fmt.Errorf("failed to create resource dir %s: %w", dir, err)
	}

	path = filepath.Join(dir, fmt.Sprintf("%d%s", version, artifactExt))

	if _, statErr := os.Stat(path); statErr == nil {
		// Versions are never reused, so this only happens after a counter
		// reset. Overwrite, but make it visible.
		s.logger.Warn("artifact file already exists, overwriting",
			slog.String("path", path))
	}

	if err := os.WriteFile(path, media, 0o644); err != nil {
		_ = os.Remove(path)
		return "", "", fmt.Errorf("failed to write artifact %s: %w", path, err)
	}

	url = s.URL(resourceName, version)

	s.logger.Info("artifact saved",
		slog.String("path", path),
		slog.String("url", url),
		slog.Int("bytes", len(media)))

	return path, url, nil
}

// Open returns a read handle on the stored artifact for
// (resourceName, version). The caller owns closing it.
func (s *FileStore) Open(resourceName string, version int) (*os.File, error) {
	path := filepath.Join(s.baseDir, SanitizeResourceName(resourceName),
		fmt.Sprintf("%d%s", version, artifactExt))
	return os.Open(path)
}

// URL derives the public download path for (resourceName, version).
func (s *FileStore) URL(resourceName string, version int) string {
	return fmt.Sprintf("%s/%s/%d", s.publicBasePath, SanitizeResourceName(resourceName), version)
}

// Descriptor assembles an artifact descriptor from a stored file and its
// generation metadata.
func (s *FileStore) Descriptor(
	resourceName string,
	version int,
	path string,
	fileSizeMB float64,
	durationSeconds, totalSlides int,
) *domain.ArtifactDescriptor {
	return &domain.ArtifactDescriptor{
		Version:         version,
		Path:            path,
		URL:             s.URL(resourceName, version),
		FileSizeMB:      fileSizeMB,
		DurationSeconds: durationSeconds,
		TotalSlides:     totalSlides,
	}
}

// sanitizeReplacer maps every character that is unsafe in a directory
// name to an underscore.
var sanitizeReplacer = strings.NewReplacer(
	" ", "_",
	"/", "_",
	"\\", "_",
	":", "_",
	"*", "_",
	"?", "_",
	`"`, "_",
	"<", "_",
	">", "_",
	"|", "_",
)

// SanitizeResourceName converts a resource name into a filesystem- and
// URL-safe directory name.
func SanitizeResourceName(name string) string {
	return sanitizeReplacer.Replace(strings.TrimSpace(name))
}
