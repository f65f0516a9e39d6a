package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds the copyshield API configuration.
type Config struct {
	HTTP        HTTPConfig        `yaml:"http"`
	Cache       CacheConfig       `yaml:"cache"`
	Embedding   EmbeddingConfig   `yaml:"embedding"`
	Fingerprint FingerprintConfig `yaml:"fingerprint"`
	Scoring     ScoringConfig     `yaml:"scoring"`
	Outcomes    OutcomesConfig    `yaml:"outcomes"`
	Auth        AuthConfig        `yaml:"auth"`
	Logging     LoggingConfig     `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds API authentication settings.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// CacheConfig holds fingerprint cache connection settings. An empty address
// list disables caching entirely.
type CacheConfig struct {
	Addrs            []string `yaml:"addrs"`
	Username         string   `yaml:"username"`
	Password         string   `yaml:"password"`
	DB               int      `yaml:"db"`
	TTLHours         int      `yaml:"ttl_hours"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// EmbeddingConfig holds embedding and transcription provider settings.
type EmbeddingConfig struct {
	// Provider selects the embedder: "local" (default, offline) or "openai"
	// for any OpenAI-compatible API.
	Provider           string `yaml:"provider"`
	APIKey             string `yaml:"api_key"`
	BaseURL            string `yaml:"base_url"`
	TextModel          string `yaml:"text_model"`
	ImageModel         string `yaml:"image_model"`
	Dimensions         int    `yaml:"dimensions"`
	TranscriptionModel string `yaml:"transcription_model"`
	// Transcription enables speech-to-text on audio fingerprints. Requires
	// the openai provider.
	Transcription bool `yaml:"transcription"`
}

// FingerprintConfig holds extraction pipeline settings.
type FingerprintConfig struct {
	FrameRate   float64 `yaml:"frame_rate"`   // video sampling, frames per second
	MaxFrames   int     `yaml:"max_frames"`   // cap on sampled frames per video
	EmbedFrames int     `yaml:"embed_frames"` // frames contributing to the video embedding
	TextLimit   int     `yaml:"text_limit"`   // max runes fed to the text embedder
	Workers     int     `yaml:"workers"`      // batch concurrency
}

// ScoringConfig holds decision threshold and artifact settings.
type ScoringConfig struct {
	AutoApprove  float64 `yaml:"auto_approve_threshold"`
	AutoReject   float64 `yaml:"auto_reject_threshold"`
	ArtifactPath string  `yaml:"artifact_path"`
}

// OutcomesConfig holds the ground-truth database settings.
type OutcomesConfig struct {
	Path string `yaml:"path"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	// Substitute env variables of the form ${VAR}
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 30
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 60
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Cache.TTLHours <= 0 {
		c.Cache.TTLHours = 168
	}
	if c.Cache.ReadinessTimeout <= 0 {
		c.Cache.ReadinessTimeout = 10
	}
	if c.Embedding.Provider == "" {
		c.Embedding.Provider = "local"
	}
	if c.Fingerprint.FrameRate <= 0 {
		c.Fingerprint.FrameRate = 1.0
	}
	if c.Fingerprint.MaxFrames <= 0 {
		c.Fingerprint.MaxFrames = 100
	}
	if c.Fingerprint.EmbedFrames <= 0 {
		c.Fingerprint.EmbedFrames = 10
	}
	if c.Fingerprint.TextLimit <= 0 {
		c.Fingerprint.TextLimit = 8000
	}
	if c.Fingerprint.Workers <= 0 {
		c.Fingerprint.Workers = 4
	}
	if c.Scoring.AutoApprove <= 0 {
		c.Scoring.AutoApprove = 0.90
	}
	if c.Scoring.AutoReject <= 0 {
		c.Scoring.AutoReject = 0.30
	}
	if c.Scoring.ArtifactPath == "" {
		c.Scoring.ArtifactPath = filepath.Join("data", "scoring.json")
	}
	if c.Outcomes.Path == "" {
		c.Outcomes.Path = filepath.Join("data", "outcomes.db")
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	switch c.Embedding.Provider {
	case "local", "openai":
		// ok
	default:
		return fmt.Errorf("embedding.provider must be \"local\" or \"openai\", got %q", c.Embedding.Provider)
	}
	if c.Embedding.Provider == "openai" && c.Embedding.APIKey == "" {
		return fmt.Errorf("embedding.api_key is required for the openai provider")
	}
	if c.Embedding.Transcription && c.Embedding.Provider != "openai" {
		return fmt.Errorf("embedding.transcription requires the openai provider")
	}
	if c.Scoring.AutoApprove <= c.Scoring.AutoReject {
		return fmt.Errorf("scoring.auto_approve_threshold %v must exceed auto_reject_threshold %v",
			c.Scoring.AutoApprove, c.Scoring.AutoReject)
	}
	if c.Scoring.AutoApprove > 1 {
		return fmt.Errorf("scoring.auto_approve_threshold must be at most 1, got %v", c.Scoring.AutoApprove)
	}
	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
