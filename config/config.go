package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Upload   UploadConfig   `yaml:"upload"`
	OpenAI   OpenAIConfig   `yaml:"openai"`
	Database DatabaseConfig `yaml:"database"`
	Queue    QueueConfig    `yaml:"queue"`
	Archive  ArchiveConfig  `yaml:"archive"`
	Log      LogConfig      `yaml:"log"`
}

type ServerConfig struct {
	Port int `yaml:"port"`
}

type UploadConfig struct {
	Dir               string   `yaml:"dir"`
	MaxFileSizeMB     int      `yaml:"max_file_size_mb"`
	AllowedExtensions []string `yaml:"allowed_extensions"`
}

// MaxFileSizeBytes returns the upload size cap in bytes.
func (c *UploadConfig) MaxFileSizeBytes() int64 {
	return int64(c.MaxFileSizeMB) * 1024 * 1024
}

type OpenAIConfig struct {
	APIKey                string `yaml:"api_key"`
	WhisperModel          string `yaml:"whisper_model"`
	ChatModel             string `yaml:"chat_model"`
	RequestTimeoutSeconds int    `yaml:"request_timeout_seconds"`
}

type DatabaseConfig struct {
	// URL is a PostgreSQL connection string. Empty selects the in-memory store.
	URL     string `yaml:"url"`
	MaxJobs int    `yaml:"max_jobs"`
}

type QueueConfig struct {
	// RedisURL is the broker connection string. Empty selects the in-process
	// dispatcher.
	RedisURL    string `yaml:"redis_url"`
	Concurrency int    `yaml:"concurrency"`
}

type ArchiveConfig struct {
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Bucket    string `yaml:"bucket"`
	UseSSL    bool   `yaml:"use_ssl"`
}

// Enabled reports whether audio archival has been configured.
func (c *ArchiveConfig) Enabled() bool {
	return c.Endpoint != ""
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load builds the configuration from defaults, an optional YAML file, and
// environment variables, in that order of precedence (environment wins).
// A missing config file is not an error; the service can run on environment
// variables alone.
func Load(path string) (*Config, error) {
	var cfg Config

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		} else if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	cfg.applyEnv()
	cfg.applyDefaults()

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) applyEnv() {
	c.Server.Port = getEnvAsInt("SERVER_PORT", c.Server.Port)
	c.Upload.Dir = getEnv("UPLOAD_DIR", c.Upload.Dir)
	c.Upload.MaxFileSizeMB = getEnvAsInt("MAX_FILE_SIZE_MB", c.Upload.MaxFileSizeMB)
	c.OpenAI.APIKey = getEnv("OPENAI_API_KEY", c.OpenAI.APIKey)
	c.OpenAI.WhisperModel = getEnv("OPENAI_WHISPER_MODEL", c.OpenAI.WhisperModel)
	c.OpenAI.ChatModel = getEnv("OPENAI_CHAT_MODEL", c.OpenAI.ChatModel)
	c.Database.URL = getEnv("DATABASE_URL", c.Database.URL)
	c.Database.MaxJobs = getEnvAsInt("STORE_MAX_JOBS", c.Database.MaxJobs)
	c.Queue.RedisURL = getEnv("REDIS_URL", c.Queue.RedisURL)
	c.Queue.Concurrency = getEnvAsInt("WORKER_CONCURRENCY", c.Queue.Concurrency)
	c.Archive.Endpoint = getEnv("MINIO_ENDPOINT", c.Archive.Endpoint)
	c.Archive.AccessKey = getEnv("MINIO_ACCESS_KEY", c.Archive.AccessKey)
	c.Archive.SecretKey = getEnv("MINIO_SECRET_KEY", c.Archive.SecretKey)
	c.Archive.Bucket = getEnv("MINIO_BUCKET", c.Archive.Bucket)
	c.Archive.UseSSL = getEnvAsBool("MINIO_USE_SSL", c.Archive.UseSSL)
	c.Log.Level = getEnv("LOG_LEVEL", c.Log.Level)
	c.Log.Format = getEnv("LOG_FORMAT", c.Log.Format)
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Upload.Dir == "" {
		c.Upload.Dir = "./uploads"
	}
	if c.Upload.MaxFileSizeMB == 0 {
		c.Upload.MaxFileSizeMB = 50
	}
	if len(c.Upload.AllowedExtensions) == 0 {
		c.Upload.AllowedExtensions = []string{".mp3", ".wav", ".m4a", ".flac"}
	}
	if c.OpenAI.WhisperModel == "" {
		c.OpenAI.WhisperModel = "whisper-1"
	}
	if c.OpenAI.ChatModel == "" {
		c.OpenAI.ChatModel = "gpt-3.5-turbo"
	}
	if c.OpenAI.RequestTimeoutSeconds == 0 {
		c.OpenAI.RequestTimeoutSeconds = 120
	}
	if c.Queue.Concurrency == 0 {
		c.Queue.Concurrency = 2
	}
	if c.Archive.Bucket == "" {
		c.Archive.Bucket = "audiostudio"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
}

func (c *Config) validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Upload.MaxFileSizeMB < 1 {
		return fmt.Errorf("max_file_size_mb must be at least 1, got %d", c.Upload.MaxFileSizeMB)
	}
	if c.Queue.Concurrency < 1 {
		return fmt.Errorf("worker concurrency must be at least 1, got %d", c.Queue.Concurrency)
	}
	for _, ext := range c.Upload.AllowedExtensions {
		if !strings.HasPrefix(ext, ".") {
			return fmt.Errorf("allowed extension must start with a dot: %q", ext)
		}
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	str := os.Getenv(key)
	if str == "" {
		return fallback
	}
	value, err := strconv.Atoi(str)
	if err != nil {
		return fallback
	}
	return value
}

func getEnvAsBool(key string, fallback bool) bool {
	str := os.Getenv(key)
	if str == "" {
		return fallback
	}
	value, err := strconv.ParseBool(str)
	if err != nil {
		return fallback
	}
	return value
}
