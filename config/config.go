// Package config loads and validates service configuration from the
// environment.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
)

type Config struct {
	ServerPort      string        `json:"server_port"`
	ReadTimeout     time.Duration `json:"read_timeout"`
	WriteTimeout    time.Duration `json:"write_timeout"`
	IdleTimeout     time.Duration `json:"idle_timeout"`
	RequestTimeout  time.Duration `json:"request_timeout"`
	ShutdownTimeout time.Duration `json:"shutdown_timeout"`
	Debug           bool          `json:"debug"`
	LogDir          string        `json:"log_dir"`
	Version         string        `json:"version"`

	Middleware MiddlewareConfig `json:"middleware"`
	CORS       CORSConfig       `json:"cors"`
	RateLimit  RateLimitConfig  `json:"rate_limit"`
	Store      StoreConfig      `json:"store"`
	Transcript TranscriptConfig `json:"transcript"`
	Summary    SummaryConfig    `json:"summary"`
	URL        URLConfig        `json:"url"`
}

type MiddlewareConfig struct {
	EnableRecover   bool `json:"enable_recover"`
	EnableRequestID bool `json:"enable_request_id"`
	EnableLogger    bool `json:"enable_logger"`
	EnableCORS      bool `json:"enable_cors"`
	EnableCompress  bool `json:"enable_compress"`
	EnableETag      bool `json:"enable_etag"`
}

type CORSConfig struct {
	AllowedOrigins   []string `json:"allowed_origins"`
	AllowedMethods   []string `json:"allowed_methods"`
	AllowedHeaders   []string `json:"allowed_headers"`
	ExposedHeaders   []string `json:"exposed_headers"`
	AllowCredentials bool     `json:"allow_credentials"`
	MaxAge           int      `json:"max_age"`
}

type RateLimitConfig struct {
	Enabled bool `json:"enabled"`
	PostRPM int  `json:"post_rpm"`
	GetRPM  int  `json:"get_rpm"`
}

// StoreConfig configures the KV store adapter. When Bucket is empty the
// service falls back to the in-memory backend.
type StoreConfig struct {
	Endpoint  string        `json:"endpoint"`
	AccessKey string        `json:"access_key"`
	SecretKey string        `json:"secret_key"`
	Region    string        `json:"region"`
	Bucket    string        `json:"bucket"`
	JobTTL    time.Duration `json:"job_ttl"`
	CacheTTL  time.Duration `json:"cache_ttl"`
}

type TranscriptConfig struct {
	APIKey        string `json:"-"`
	MaxChars      int    `json:"max_chars"`
	ChunkMinChars int    `json:"chunk_min_chars"`
	ChunkMaxChars int    `json:"chunk_max_chars"`
}

type SummaryConfig struct {
	APIKey       string       `json:"-"`
	ModelID      string       `json:"model_id"`
	LengthShort  LengthWindow `json:"length_short"`
	LengthStd    LengthWindow `json:"length_standard"`
	LengthDetail LengthWindow `json:"length_detailed"`
	KeyPointsMin int          `json:"key_points_min"`
	KeyPointsMax int          `json:"key_points_max"`
}

type LengthWindow struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

type URLConfig struct {
	AllowedProtocols []string `json:"allowed_protocols"`
	AllowedHosts     []string `json:"allowed_hosts"`
}

// Load reads configuration from environment variables and validates it.
func Load() (*Config, error) {
	cfg := &Config{
		ServerPort:      getEnv("SERVER_PORT", "8080"),
		ReadTimeout:     getEnvAsDuration("READ_TIMEOUT", 15*time.Second),
		WriteTimeout:    getEnvAsDuration("WRITE_TIMEOUT", 15*time.Second),
		IdleTimeout:     getEnvAsDuration("IDLE_TIMEOUT", 60*time.Second),
		RequestTimeout:  getEnvAsDuration("REQUEST_TIMEOUT", 5*time.Minute),
		ShutdownTimeout: getEnvAsDuration("SHUTDOWN_TIMEOUT", 30*time.Second),
		Debug:           getEnvAsBool("DEBUG", false),
		LogDir:          getEnv("LOG_DIR", "/var/log/vidsum"),
		Version:         getEnv("VERSION", "1.0.0"),

		Middleware: MiddlewareConfig{
			EnableRecover:   true,
			EnableRequestID: true,
			EnableLogger:    true,
			EnableCORS:      getEnvAsBool("CORS_ENABLED", true),
			EnableCompress:  getEnvAsBool("COMPRESS_ENABLED", true),
			EnableETag:      getEnvAsBool("ETAG_ENABLED", true),
		},

		CORS: CORSConfig{
			AllowedOrigins:   getEnvAsStringSlice("CORS_ALLOWED_ORIGINS", []string{"*"}),
			AllowedMethods:   getEnvAsStringSlice("CORS_ALLOWED_METHODS", []string{"GET", "POST", "DELETE", "OPTIONS"}),
			AllowedHeaders:   getEnvAsStringSlice("CORS_ALLOWED_HEADERS", []string{"Content-Type"}),
			ExposedHeaders:   getEnvAsStringSlice("CORS_EXPOSED_HEADERS", []string{"X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset"}),
			AllowCredentials: getEnvAsBool("CORS_ALLOW_CREDENTIALS", false),
			MaxAge:           getEnvAsInt("CORS_MAX_AGE", 86400),
		},

		RateLimit: RateLimitConfig{
			Enabled: getEnvAsBool("RATE_LIMIT_ENABLED", true),
			PostRPM: getEnvAsInt("RATE_LIMIT_POST_RPM", 10),
			GetRPM:  getEnvAsInt("RATE_LIMIT_GET_RPM", 60),
		},

		Store: StoreConfig{
			Endpoint:  getEnv("STORE_KV_ENDPOINT", ""),
			AccessKey: getEnv("STORE_KV_ACCESS_KEY", ""),
			SecretKey: getEnv("STORE_KV_SECRET_KEY", ""),
			Region:    getEnv("STORE_KV_REGION", "us-east-1"),
			Bucket:    getEnv("STORE_KV_BUCKET", ""),
			JobTTL:    time.Duration(getEnvAsInt("TTL_JOB_SECONDS", 7200)) * time.Second,
			CacheTTL:  time.Duration(getEnvAsInt("TTL_CACHE_SECONDS", 604800)) * time.Second,
		},

		Transcript: TranscriptConfig{
			APIKey:        getEnv("SUPADATA_API_KEY", ""),
			MaxChars:      getEnvAsInt("TRANSCRIPT_MAX_CHARS", 12000),
			ChunkMinChars: getEnvAsInt("CHUNK_MIN_CHARS", 2000),
			ChunkMaxChars: getEnvAsInt("CHUNK_MAX_CHARS", 4000),
		},

		Summary: SummaryConfig{
			APIKey:  getEnv("GEMINI_API_KEY", ""),
			ModelID: getEnv("GEMINI_MODEL_ID", ""),
			LengthShort: LengthWindow{
				Min: getEnvAsInt("SUMMARY_LENGTH_SHORT_MIN", 100),
				Max: getEnvAsInt("SUMMARY_LENGTH_SHORT_MAX", 400),
			},
			LengthStd: LengthWindow{
				Min: getEnvAsInt("SUMMARY_LENGTH_STANDARD_MIN", 400),
				Max: getEnvAsInt("SUMMARY_LENGTH_STANDARD_MAX", 900),
			},
			LengthDetail: LengthWindow{
				Min: getEnvAsInt("SUMMARY_LENGTH_DETAILED_MIN", 900),
				Max: getEnvAsInt("SUMMARY_LENGTH_DETAILED_MAX", 1800),
			},
			KeyPointsMin: getEnvAsInt("KEYPOINTS_MIN", 5),
			KeyPointsMax: getEnvAsInt("KEYPOINTS_MAX", 9),
		},

		URL: URLConfig{
			AllowedProtocols: getEnvAsStringSlice("URL_ALLOWED_PROTOCOLS", []string{"https"}),
			AllowedHosts: getEnvAsStringSlice("URL_ALLOWED_HOSTS", []string{
				"youtube.com", "www.youtube.com", "m.youtube.com", "youtu.be",
			}),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks that every required setting is present and sane. It
// returns a stack-bearing error suitable for a fatal startup log, matching
// the CONFIGURATION_ERROR semantics of spec.md §4.J/§7 (the HTTP-facing
// apperr.AppError taxonomy does not apply before the server is serving
// traffic).
func (c *Config) Validate() error {
	if c.Transcript.APIKey == "" {
		return errors.New("transcript provider credentials are required (SUPADATA_API_KEY)")
	}
	if c.Summary.APIKey == "" {
		return errors.New("summarizer credentials are required (GEMINI_API_KEY)")
	}
	if c.Summary.ModelID == "" {
		return errors.New("summarizer model id is required (GEMINI_MODEL_ID)")
	}
	if c.ReadTimeout <= 0 || c.WriteTimeout <= 0 {
		return errors.New("read/write timeouts must be positive")
	}
	if c.Transcript.ChunkMinChars <= 0 || c.Transcript.ChunkMaxChars <= c.Transcript.ChunkMinChars {
		return errors.New("chunk min/max chars must be positive and min < max")
	}
	if c.Summary.KeyPointsMin <= 0 || c.Summary.KeyPointsMax < c.Summary.KeyPointsMin {
		return errors.New("key point bounds are invalid")
	}
	if (c.Store.Endpoint != "" || c.Store.Bucket != "") && (c.Store.AccessKey == "" || c.Store.SecretKey == "") {
		return errors.New("remote store credentials incomplete")
	}
	return nil
}

// UsesRemoteStore reports whether KV credentials were supplied.
func (c *Config) UsesRemoteStore() bool {
	return c.Store.Bucket != ""
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getEnvAsStringSlice(key string, defaultValue []string) []string {
	if value, exists := os.LookupEnv(key); exists {
		if value = strings.TrimSpace(value); value != "" {
			return strings.Split(value, ",")
		}
	}
	return defaultValue
}
