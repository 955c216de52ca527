package domain

// ArtifactDescriptor describes a finished media artifact: where it lives,
// how it is addressed publicly, and its basic metadata. It is attached to
// a GenerationRequest once generation completes.
type ArtifactDescriptor struct {
	// Version is the per-resource monotonically increasing number that
	// namespaces this artifact among others for the same resource.
	Version int `json:"version"`

	// Path is the filesystem location of the stored file.
	Path string `json:"path"`

	// URL is the public download path derived from the resource name
	// and version.
	URL string `json:"url"`

	FileSizeMB      float64 `json:"file_size_mb"`
	DurationSeconds int     `json:"duration_seconds"`
	TotalSlides     int     `json:"total_slides"`
}
