package config

import "time"

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"   validate:"required"`
	Database DatabaseConfig `mapstructure:"database" validate:"required"`
	Queue    QueueConfig    `mapstructure:"queue"    validate:"required"`
	Storage  StorageConfig  `mapstructure:"storage"  validate:"required"`
	LLM      LLMConfig      `mapstructure:"llm"      validate:"required"`
	Renderer RendererConfig `mapstructure:"renderer" validate:"required"`
	Push     PushConfig     `mapstructure:"push"     validate:"required"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port"      validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
}

// DatabaseConfig contains all database-related configuration settings.
type DatabaseConfig struct {
	URL string `mapstructure:"url" validate:"required"`
}

// QueueConfig controls the background generation worker pool.
type QueueConfig struct {
	// WorkerCount bounds how many generation jobs run concurrently.
	WorkerCount int `mapstructure:"worker_count" validate:"required,gt=0"`

	// QueueSize is the buffer size of the in-memory job queue.
	QueueSize int `mapstructure:"queue_size" validate:"required,gt=0"`

	// PipelineTimeout bounds a single content-pipeline call. A job whose
	// pipeline call exceeds this deadline transitions to failed instead
	// of hanging indefinitely.
	PipelineTimeout time.Duration `mapstructure:"pipeline_timeout" validate:"required"`

	// PipelineRetries is the number of automatic retries after a failed
	// pipeline call. The delivery policy is deliberately "no retry", so
	// the default is 0, but the knob is explicit configuration rather
	// than an unstated assumption.
	PipelineRetries int `mapstructure:"pipeline_retries" validate:"gte=0"`
}

// StorageConfig describes where finished artifacts are written and how
// their public URLs are derived.
type StorageConfig struct {
	// BaseDir is the root directory for stored media files.
	// Layout: {base_dir}/{sanitized_resource_name}/{version}.mp4
	BaseDir string `mapstructure:"base_dir" validate:"required"`

	// PublicBasePath is the URL path prefix served for stored media.
	PublicBasePath string `mapstructure:"public_base_path" validate:"required"`
}

// LLMConfig contains all LLM integration related settings.
type LLMConfig struct {
	GeminiAPIKey string `mapstructure:"gemini_api_key" validate:"required"`
	ModelName    string `mapstructure:"model_name"     validate:"required"`
}

// RendererConfig describes the media-composer service that turns a
// planned slide deck into finished media (image search, text-to-speech,
// and encoding all happen there, not in this process).
type RendererConfig struct {
	URL string `mapstructure:"url" validate:"required,url"`

	// Timeout bounds a single render call. Rendering dominates job
	// runtime, so this should stay close to queue.pipeline_timeout.
	Timeout time.Duration `mapstructure:"timeout" validate:"required"`
}

// PushConfig describes the external system that receives completion
// notifications and later acknowledges them. An empty BaseURL disables
// push delivery entirely; outcomes then wait to be polled.
type PushConfig struct {
	BaseURL  string `mapstructure:"base_url" validate:"omitempty,url"`
	Username string `mapstructure:"username" validate:"required_with=BaseURL"`
	Password string `mapstructure:"password" validate:"required_with=BaseURL"`

	// Timeout bounds the token exchange and the push POST individually.
	Timeout time.Duration `mapstructure:"timeout" validate:"required"`

	// PushRetries is the number of automatic re-push attempts after a
	// failed delivery. Delivery is best-effort by policy; default 0.
	PushRetries int `mapstructure:"push_retries" validate:"gte=0"`
}
