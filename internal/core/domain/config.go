package domain

import "time"

// EngineConfig configures the generation engine and its tokenizer.
type EngineConfig struct {
	Mode    string        `json:"mode"`    // "sidecar", "ollama", "openai", "anthropic" or "gemini"
	URL     string        `json:"url"`     // sidecar/ollama base URL or OpenAI-compatible endpoint
	APIKey  string        `json:"api_key"` // Encrypted in storage
	Model   string        `json:"model"`   // ignored by the sidecar
	Timeout time.Duration `json:"timeout"` // per HTTP call
}

// PipelineConfig holds the tuning constants of the summarization pipeline.
type PipelineConfig struct {
	ChunkTokens    int     `json:"chunk_tokens"` // target bucket size
	ChunkCap       int     `json:"chunk_cap"`    // engine input ceiling
	MaxChunks      int     `json:"max_chunks"`
	DetailedRatio  float64 `json:"detailed_ratio"`
	QuickRatio     float64 `json:"quick_ratio"`
	MinSafe        int     `json:"min_safe"`
	MaxSafe        int     `json:"max_safe"`
	QuickReduceMin int     `json:"quick_reduce_min"`
	QuickReduceMax int     `json:"quick_reduce_max"`
	MinInputChars  int     `json:"min_input_chars"`
}

// JobsConfig bounds the job manager.
type JobsConfig struct {
	Workers     int64         `json:"workers"`
	QueueSize   int           `json:"queue_size"`
	MaxRetained int           `json:"max_retained"`
	RetainFor   time.Duration `json:"retain_for"` // 0 keeps terminal jobs until evicted by size
	JobTimeout  time.Duration `json:"job_timeout"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Addr              string   `json:"addr"`
	AllowedOrigins    []string `json:"allowed_origins"`
	AllowPrivateFeeds bool     `json:"allow_private_feeds"` // lets feed ingest reach loopback and private networks
}

// FeedSubscription is a feed ingested on a cron schedule.
type FeedSubscription struct {
	URL      string `json:"url"`
	Mode     string `json:"mode"`
	Limit    int    `json:"limit"`
	Schedule string `json:"schedule"` // five-field cron, e.g. "0 7 * * *"
}

type FeedsConfig struct {
	Subscriptions []FeedSubscription `json:"subscriptions"`
}

// AppConfig is the main application configuration
type AppConfig struct {
	Engine   EngineConfig   `json:"engine"`
	Pipeline PipelineConfig `json:"pipeline"`
	Jobs     JobsConfig     `json:"jobs"`
	Server   ServerConfig   `json:"server"`
	Feeds    FeedsConfig    `json:"feeds"`
}

// DefaultConfig returns safe defaults tuned for a t5-base class sidecar.
func DefaultConfig() *AppConfig {
	return &AppConfig{
		Engine: EngineConfig{
			Mode:    "sidecar",
			URL:     "http://localhost:7860",
			Timeout: 120 * time.Second,
		},
		Pipeline: PipelineConfig{
			ChunkTokens:    600,
			ChunkCap:       1024,
			MaxChunks:      8,
			DetailedRatio:  0.45,
			QuickRatio:     0.20,
			MinSafe:        120,
			MaxSafe:        280,
			QuickReduceMin: 60,
			QuickReduceMax: 120,
			MinInputChars:  100,
		},
		Jobs: JobsConfig{
			Workers:     2,
			QueueSize:   100,
			MaxRetained: 500,
			JobTimeout:  10 * time.Minute,
		},
		Server: ServerConfig{
			Addr:           ":8080",
			AllowedOrigins: []string{"*"},
		},
	}
}
