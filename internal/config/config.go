package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"voice-journal/backend/internal/crypto"
)

// sealedPrefix marks values sealed with MASTER_KEY (see cmd/sealkey).
const sealedPrefix = "enc:"

type Config struct {
	Environment    string
	Port           string
	DatabaseURL    string
	DataDir        string
	AudioDir       string
	JWTSecret      string
	FrontendOrigin string
	RedisURL       string
	MasterKey      string
	PairingCode    string

	HFToken            string
	HFEmotionModels    []string
	HFGenerationModels []string
	HFRequestsPerSec   float64
	OpenAIKey          string
	OpenAIModel        string
	AnthropicKey       string
	AnthropicModel     string
	CohereKey          string
	CohereModel        string

	GladiaKey      string
	WhisperKey     string
	WhisperBaseURL string
	WhisperModel   string

	AnalysisDebounce     time.Duration
	TranscriptionTimeout time.Duration
	RecordingIdleTimeout time.Duration
	HealthCheckInterval  time.Duration
	AnalysisCacheTTL     time.Duration
	AnalysisWorkers      int
	RateLimitPerMinute   int
}

func Load() (Config, error) {
	cfg := Config{
		Environment:    getEnv("ENVIRONMENT", "development"),
		Port:           getEnv("PORT", "8080"),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		DataDir:        getEnv("DATA_DIR", "data"),
		AudioDir:       os.Getenv("AUDIO_DIR"),
		JWTSecret:      os.Getenv("JWT_SECRET"),
		FrontendOrigin: getEnv("FRONTEND_ORIGIN", "http://localhost:8081"),
		RedisURL:       os.Getenv("REDIS_URL"),
		MasterKey:      os.Getenv("MASTER_KEY"),
		PairingCode:    os.Getenv("PAIRING_CODE"),

		HFToken:            os.Getenv("HF_API_TOKEN"),
		HFEmotionModels:    getList("HF_EMOTION_MODELS", "j-hartmann/emotion-english-distilroberta-base", "SamLowe/roberta-base-go_emotions"),
		HFGenerationModels: getList("HF_GENERATION_MODELS", "gpt2"),
		HFRequestsPerSec:   getFloat("HF_REQUESTS_PER_SECOND", 5),
		OpenAIKey:          os.Getenv("OPENAI_API_KEY"),
		OpenAIModel:        getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		AnthropicKey:       os.Getenv("ANTHROPIC_API_KEY"),
		AnthropicModel:     getEnv("ANTHROPIC_MODEL", "claude-3-5-haiku-latest"),
		CohereKey:          os.Getenv("COHERE_API_KEY"),
		CohereModel:        getEnv("COHERE_MODEL", "command-r"),

		GladiaKey:      os.Getenv("GLADIA_API_KEY"),
		WhisperKey:     os.Getenv("STT_WHISPER_API_KEY"),
		WhisperBaseURL: os.Getenv("STT_WHISPER_BASE_URL"),
		WhisperModel:   getEnv("STT_WHISPER_MODEL", "whisper-1"),

		AnalysisDebounce:     getDuration("ANALYSIS_DEBOUNCE", 1200*time.Millisecond),
		TranscriptionTimeout: getDuration("TRANSCRIPTION_TIMEOUT", 30*time.Second),
		RecordingIdleTimeout: getDuration("RECORDING_IDLE_TIMEOUT", 10*time.Minute),
		HealthCheckInterval:  getDuration("PROVIDER_HEALTH_INTERVAL", 5*time.Minute),
		AnalysisCacheTTL:     getDuration("ANALYSIS_CACHE_TTL", 24*time.Hour),
		AnalysisWorkers:      getInt("ANALYSIS_WORKERS", 2),
		RateLimitPerMinute:   getInt("RATE_LIMIT_PER_MINUTE", 120),
	}
	if cfg.AudioDir == "" {
		cfg.AudioDir = filepath.Join(cfg.DataDir, "audio")
	}
	if cfg.WhisperKey == "" {
		cfg.WhisperKey = cfg.OpenAIKey
	}

	secrets := []*string{
		&cfg.JWTSecret, &cfg.PairingCode, &cfg.HFToken, &cfg.OpenAIKey,
		&cfg.AnthropicKey, &cfg.CohereKey, &cfg.GladiaKey, &cfg.WhisperKey,
	}
	for _, secret := range secrets {
		opened, err := Open(cfg.MasterKey, *secret)
		if err != nil {
			return Config{}, err
		}
		*secret = opened
	}
	return cfg, nil
}

// Open returns value unchanged unless it carries the sealed prefix.
func Open(masterKey, value string) (string, error) {
	if !strings.HasPrefix(value, sealedPrefix) {
		return value, nil
	}
	opened, err := crypto.Decrypt(masterKey, strings.TrimPrefix(value, sealedPrefix))
	if err != nil {
		return "", fmt.Errorf("open sealed config value: %w", err)
	}
	return opened, nil
}

func Seal(masterKey, value string) (string, error) {
	sealed, err := crypto.Encrypt(masterKey, value)
	if err != nil {
		return "", err
	}
	return sealedPrefix + sealed, nil
}

// EmbeddedDatabase reports whether DatabaseURL selects the SQLite store.
func (c Config) EmbeddedDatabase() bool {
	return !strings.HasPrefix(c.DatabaseURL, "postgres://") && !strings.HasPrefix(c.DatabaseURL, "postgresql://")
}

// SQLitePath resolves the embedded database file.
func (c Config) SQLitePath() string {
	path := strings.TrimPrefix(c.DatabaseURL, "sqlite://")
	if path == "" {
		path = filepath.Join(c.DataDir, "journal.db")
	}
	return path
}

func getEnv(key, fallback string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return fallback
}

func getList(key string, fallback ...string) []string {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	out := []string{}
	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if d, err := time.ParseDuration(os.Getenv(key)); err == nil && d > 0 {
		return d
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if n, err := strconv.Atoi(os.Getenv(key)); err == nil && n > 0 {
		return n
	}
	return fallback
}

func getFloat(key string, fallback float64) float64 {
	if f, err := strconv.ParseFloat(os.Getenv(key), 64); err == nil && f > 0 {
		return f
	}
	return fallback
}
