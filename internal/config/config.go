// Package config loads the application configuration from environment
// variables with sensible defaults.
//
// Environment Variables:
// Server Configuration:
// - SERVER_ADDR: HTTP listen address (default: :8000)
// - UPLOAD_DIR: Directory for uploaded videos (default: /app/uploads)
// - OUTPUT_DIR: Directory for processing artifacts (default: /app/output)
// - DATA_DIR: Directory for the library database (default: /app/data)
//
// ASR Configuration:
// - ASR_API_URL: Base URL of the speech recognition service (required)
// - ASR_TIMEOUT: Per-window request timeout in seconds (default: 120)
// - TRANSCRIBE_LANGUAGE: BCP 47 language hint, empty for auto-detect
// - WINDOW_SECONDS: Transcription window length in seconds (default: 15)
//
// Chunking Configuration:
// - CHUNK_MAX_DURATION: Max chunk duration in seconds (default: 8)
// - CHUNK_MAX_SENTENCES: Max sentences per chunk (default: 3)
//
// System Configuration:
// - FFMPEG_PATH: ffmpeg binary name or path (default: ffmpeg)
// - SWEEP_CRON_EXPR: Library sweep schedule (default: @every 10m)
// - LOG_LEVEL: DEBUG, INFO, WARN or ERROR (default: INFO)
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"golang.org/x/text/language"
)

type Config struct {
	Server ServerConfig `json:"server"`
	ASR    ASRConfig    `json:"asr"`
	Chunk  ChunkConfig  `json:"chunk"`
	System SystemConfig `json:"system"`
}

type ServerConfig struct {
	Addr      string `json:"addr"`
	UploadDir string `json:"upload_dir"`
	OutputDir string `json:"output_dir"`
	DataDir   string `json:"data_dir"`
}

type ASRConfig struct {
	APIURL        string       `json:"api_url"`
	Timeout       int          `json:"timeout"`
	Language      language.Tag `json:"language"`
	WindowSeconds float64      `json:"window_seconds"`
}

type ChunkConfig struct {
	MaxDuration  float64 `json:"max_duration"`
	MaxSentences int     `json:"max_sentences"`
}

type SystemConfig struct {
	FFmpegPath    string `json:"ffmpeg_path"`
	SweepCronExpr string `json:"sweep_cron_expr"`
	LogLevel      string `json:"log_level"`
}

// Option is a function type for configuring Config
type Option func(*Config)

// NewFromEnv creates a new Config instance with values from environment
// variables and options
func NewFromEnv(opts ...Option) (*Config, error) {
	config := &Config{
		Server: ServerConfig{
			Addr:      getEnvString("SERVER_ADDR", ":8000"),
			UploadDir: getEnvString("UPLOAD_DIR", "/app/uploads"),
			OutputDir: getEnvString("OUTPUT_DIR", "/app/output"),
			DataDir:   getEnvString("DATA_DIR", "/app/data"),
		},
		ASR: ASRConfig{
			APIURL:        getEnvString("ASR_API_URL", ""),
			Timeout:       getEnvInt("ASR_TIMEOUT", 120),
			WindowSeconds: getEnvFloat("WINDOW_SECONDS", 15),
		},
		Chunk: ChunkConfig{
			MaxDuration:  getEnvFloat("CHUNK_MAX_DURATION", 8),
			MaxSentences: getEnvInt("CHUNK_MAX_SENTENCES", 3),
		},
		System: SystemConfig{
			FFmpegPath:    getEnvString("FFMPEG_PATH", "ffmpeg"),
			SweepCronExpr: getEnvString("SWEEP_CRON_EXPR", "@every 10m"),
			LogLevel:      getEnvString("LOG_LEVEL", "INFO"),
		},
	}

	if raw := getEnvString("TRANSCRIBE_LANGUAGE", ""); raw != "" {
		tag, err := language.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid TRANSCRIBE_LANGUAGE %q: %w", raw, err)
		}
		config.ASR.Language = tag
	}

	// Apply custom options
	for _, opt := range opts {
		opt(config)
	}

	// Validate required configuration
	if err := config.validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// DBPath returns the library database location under the data directory.
func (c *Config) DBPath() string {
	return filepath.Join(c.Server.DataDir, "videosub.db")
}

// ASRTimeout returns the per-window request timeout as a duration.
func (c *Config) ASRTimeout() time.Duration {
	return time.Duration(c.ASR.Timeout) * time.Second
}

// validate checks if all required configuration is properly set
func (c *Config) validate() error {
	if c.ASR.APIURL == "" {
		return fmt.Errorf("ASR_API_URL is required")
	}
	if c.ASR.WindowSeconds <= 0 {
		return fmt.Errorf("WINDOW_SECONDS must be positive, got %v", c.ASR.WindowSeconds)
	}
	if c.Chunk.MaxDuration <= 0 {
		return fmt.Errorf("CHUNK_MAX_DURATION must be positive, got %v", c.Chunk.MaxDuration)
	}
	if c.Chunk.MaxSentences <= 0 {
		return fmt.Errorf("CHUNK_MAX_SENTENCES must be positive, got %v", c.Chunk.MaxSentences)
	}
	return nil
}

// getEnvString gets a string value from environment variables with default
func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt gets an integer value from environment variables with default
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvFloat gets a float value from environment variables with default
func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}
