// Package config loads runtime settings from the environment and maps
// memory modes to tier presets.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Memory modes. The mode decides which tiers exist for a run.
const (
	ModeNoMemory = "no_memory"
	ModeSTM      = "stm"
	ModeSTMLTM   = "stm_ltm"
)

// Config contains all runtime settings for the memory engine.
type Config struct {
	UserID  string
	DataDir string
	Mode    string

	OpenAIAPIKey    string
	AnthropicAPIKey string

	EmbeddingModel     string
	EmbeddingDim       int
	EmbeddingCacheSize int

	GeneratorModel     string
	GeneratorMaxTokens int

	RequestTimeout time.Duration
	TopK           int
}

// Load reads environment variables and applies safe defaults.
func Load() (Config, error) {
	cfg := Config{
		UserID:             envOrDefault("SELFMEM_USER_ID", "default_user"),
		DataDir:            envOrDefault("SELFMEM_DATA_DIR", "data"),
		Mode:               envOrDefault("SELFMEM_MEMORY_MODE", ModeSTMLTM),
		OpenAIAPIKey:       trimmedEnv("OPENAI_API_KEY"),
		AnthropicAPIKey:    trimmedEnv("ANTHROPIC_API_KEY"),
		EmbeddingModel:     envOrDefault("SELFMEM_EMBEDDING_MODEL", "text-embedding-3-small"),
		EmbeddingDim:       1536,
		EmbeddingCacheSize: 4096,
		GeneratorModel:     envOrDefault("SELFMEM_GENERATOR_MODEL", "claude-sonnet-4-20250514"),
		GeneratorMaxTokens: 4096,
		RequestTimeout:     10 * time.Second,
		TopK:               5,
	}

	var err error
	cfg.EmbeddingDim, err = intFromEnv("SELFMEM_EMBEDDING_DIM", cfg.EmbeddingDim)
	if err != nil {
		return Config{}, err
	}
	cfg.EmbeddingCacheSize, err = intFromEnv("SELFMEM_EMBEDDING_CACHE_SIZE", cfg.EmbeddingCacheSize)
	if err != nil {
		return Config{}, err
	}
	cfg.GeneratorMaxTokens, err = intFromEnv("SELFMEM_GENERATOR_MAX_TOKENS", cfg.GeneratorMaxTokens)
	if err != nil {
		return Config{}, err
	}
	cfg.RequestTimeout, err = durationFromEnv("SELFMEM_REQUEST_TIMEOUT", cfg.RequestTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.TopK, err = intFromEnv("SELFMEM_RETRIEVAL_TOP_K", cfg.TopK)
	if err != nil {
		return Config{}, err
	}

	if _, err := Settings(cfg.Mode); err != nil {
		return Config{}, err
	}
	if cfg.EmbeddingDim <= 0 {
		return Config{}, fmt.Errorf("SELFMEM_EMBEDDING_DIM must be positive")
	}
	if cfg.TopK <= 0 {
		return Config{}, fmt.Errorf("SELFMEM_RETRIEVAL_TOP_K must be positive")
	}
	if cfg.GeneratorMaxTokens <= 0 {
		return Config{}, fmt.Errorf("SELFMEM_GENERATOR_MAX_TOKENS must be positive")
	}
	if cfg.RequestTimeout <= 0 {
		return Config{}, fmt.Errorf("SELFMEM_REQUEST_TIMEOUT must be positive")
	}

	return cfg, nil
}

// ModeSettings are the tier presets implied by a memory mode.
type ModeSettings struct {
	ShortTermMaxItems int
	ShortTermTTL      time.Duration
	LongTermEnabled   bool
}

// Settings maps a memory mode to its presets.
func Settings(mode string) (ModeSettings, error) {
	switch mode {
	case ModeNoMemory:
		return ModeSettings{ShortTermMaxItems: 0, ShortTermTTL: time.Minute}, nil
	case ModeSTM:
		return ModeSettings{ShortTermMaxItems: 20, ShortTermTTL: 240 * time.Minute}, nil
	case ModeSTMLTM:
		return ModeSettings{ShortTermMaxItems: 20, ShortTermTTL: 240 * time.Minute, LongTermEnabled: true}, nil
	default:
		return ModeSettings{}, fmt.Errorf("unknown memory mode %q (want %s, %s or %s)", mode, ModeNoMemory, ModeSTM, ModeSTMLTM)
	}
}

func envOrDefault(key, fallback string) string {
	v := trimmedEnv(key)
	if v == "" {
		return fallback
	}
	return v
}

func trimmedEnv(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func intFromEnv(key string, fallback int) (int, error) {
	v := trimmedEnv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s parse error: %w", key, err)
	}
	return n, nil
}

func durationFromEnv(key string, fallback time.Duration) (time.Duration, error) {
	v := trimmedEnv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s parse error: %w", key, err)
	}
	return d, nil
}
