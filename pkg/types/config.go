package types

import "time"

// HTTPConfig holds shared HTTP settings used by components that make
// network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "note-engine/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// DriveConfig holds settings for the remote drive client.
type DriveConfig struct {
	HTTPConfig `yaml:",inline"`
}

// CompletionConfig holds settings for the model completion client.
type CompletionConfig struct {
	HTTPConfig `yaml:",inline"`

	// Model is the model identifier (e.g. "openai/gpt-4.1").
	Model string `json:"model" yaml:"model"`

	// BaseURL is the completions endpoint base
	// (e.g. "https://models.github.ai/inference").
	BaseURL string `json:"base_url" yaml:"base_url"`

	// APIKey is the bearer token for the completions endpoint.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`
}

// SweepConfig holds the folder layout for one ingestion sweep.
type SweepConfig struct {
	// SourceFolder is the drive folder scanned for new notes.
	SourceFolder string `json:"source_folder" yaml:"source_folder"`

	// DestFolder receives the generated markdown and the note image.
	DestFolder string `json:"dest_folder" yaml:"dest_folder"`

	// ProcessedFolder is where originals are moved after ingestion.
	// A file whose name already exists here is skipped on re-runs.
	ProcessedFolder string `json:"processed_folder" yaml:"processed_folder"`
}

// PipelineConfig groups all component configurations.
type PipelineConfig struct {
	Drive      DriveConfig      `json:"drive" yaml:"drive"`
	Completion CompletionConfig `json:"completion" yaml:"completion"`
	Sweep      SweepConfig      `json:"sweep" yaml:"sweep"`
}
