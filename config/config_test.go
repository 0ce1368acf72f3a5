package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad(t *testing.T) {
	configContent := `
server:
  port: 9090
upload:
  dir: "/tmp/audio-uploads"
  max_file_size_mb: 25
  allowed_extensions: [".mp3", ".wav"]
openai:
  api_key: "sk-test"
  whisper_model: "whisper-1"
  chat_model: "gpt-4o-mini"
  request_timeout_seconds: 30
database:
  url: "postgres://localhost:5432/audiostudio"
  max_jobs: 100
queue:
  redis_url: "redis://localhost:6379"
  concurrency: 4
archive:
  endpoint: "localhost:9000"
  access_key: "minioadmin"
  secret_key: "minioadmin"
  bucket: "audio-archive"
  use_ssl: false
log:
  level: "debug"
  format: "json"
`
	tmpFile, err := os.CreateTemp("", "config-*.yaml")
	if err != nil {
		t.Fatalf("Failed to create temp file: %v", err)
	}
	defer os.Remove(tmpFile.Name())

	if _, err := tmpFile.WriteString(configContent); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}
	tmpFile.Close()

	cfg, err := Load(tmpFile.Name())
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("Expected port 9090, got %d", cfg.Server.Port)
	}
	if cfg.Upload.Dir != "/tmp/audio-uploads" {
		t.Errorf("Expected upload dir /tmp/audio-uploads, got %s", cfg.Upload.Dir)
	}
	if cfg.Upload.MaxFileSizeMB != 25 {
		t.Errorf("Expected max_file_size_mb 25, got %d", cfg.Upload.MaxFileSizeMB)
	}
	if len(cfg.Upload.AllowedExtensions) != 2 {
		t.Errorf("Expected 2 allowed extensions, got %d", len(cfg.Upload.AllowedExtensions))
	}
	if cfg.OpenAI.ChatModel != "gpt-4o-mini" {
		t.Errorf("Expected chat model gpt-4o-mini, got %s", cfg.OpenAI.ChatModel)
	}
	if cfg.OpenAI.RequestTimeoutSeconds != 30 {
		t.Errorf("Expected request timeout 30, got %d", cfg.OpenAI.RequestTimeoutSeconds)
	}
	if cfg.Database.URL != "postgres://localhost:5432/audiostudio" {
		t.Errorf("Unexpected database url: %s", cfg.Database.URL)
	}
	if cfg.Database.MaxJobs != 100 {
		t.Errorf("Expected max_jobs 100, got %d", cfg.Database.MaxJobs)
	}
	if cfg.Queue.Concurrency != 4 {
		t.Errorf("Expected concurrency 4, got %d", cfg.Queue.Concurrency)
	}
	if cfg.Archive.Bucket != "audio-archive" {
		t.Errorf("Expected bucket audio-archive, got %s", cfg.Archive.Bucket)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("Expected log level debug, got %s", cfg.Log.Level)
	}
	if cfg.Log.Format != "json" {
		t.Errorf("Expected log format json, got %s", cfg.Log.Format)
	}
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("Expected default port 8080, got %d", cfg.Server.Port)
	}
	if cfg.Upload.Dir != "./uploads" {
		t.Errorf("Expected default upload dir ./uploads, got %s", cfg.Upload.Dir)
	}
	if cfg.Upload.MaxFileSizeMB != 50 {
		t.Errorf("Expected default max_file_size_mb 50, got %d", cfg.Upload.MaxFileSizeMB)
	}
	if len(cfg.Upload.AllowedExtensions) != 4 {
		t.Errorf("Expected 4 default extensions, got %d", len(cfg.Upload.AllowedExtensions))
	}
	if cfg.OpenAI.WhisperModel != "whisper-1" {
		t.Errorf("Expected default whisper model whisper-1, got %s", cfg.OpenAI.WhisperModel)
	}
	if cfg.OpenAI.ChatModel != "gpt-3.5-turbo" {
		t.Errorf("Expected default chat model gpt-3.5-turbo, got %s", cfg.OpenAI.ChatModel)
	}
	if cfg.Queue.Concurrency != 2 {
		t.Errorf("Expected default concurrency 2, got %d", cfg.Queue.Concurrency)
	}
	if cfg.Database.MaxJobs != 0 {
		t.Errorf("Expected default max_jobs 0 (unlimited), got %d", cfg.Database.MaxJobs)
	}
	if cfg.Log.Level != "info" {
		t.Errorf("Expected default log level info, got %s", cfg.Log.Level)
	}
}

func TestLoadMissingFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	if err != nil {
		t.Fatalf("Missing config file should not be an error, got: %v", err)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("Expected default port 8080, got %d", cfg.Server.Port)
	}
}

func TestLoadInvalidYAML(t *testing.T) {
	tmpFile, err := os.CreateTemp("", "config-bad-*.yaml")
	if err != nil {
		t.Fatalf("Failed to create temp file: %v", err)
	}
	defer os.Remove(tmpFile.Name())

	tmpFile.WriteString("server: [not a mapping")
	tmpFile.Close()

	if _, err := Load(tmpFile.Name()); err == nil {
		t.Error("Expected error for invalid YAML")
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("SERVER_PORT", "9999")
	t.Setenv("UPLOAD_DIR", "/srv/uploads")
	t.Setenv("MAX_FILE_SIZE_MB", "10")
	t.Setenv("OPENAI_API_KEY", "sk-env")
	t.Setenv("OPENAI_CHAT_MODEL", "gpt-4o")
	t.Setenv("DATABASE_URL", "postgres://db:5432/jobs")
	t.Setenv("REDIS_URL", "redis://queue:6379/1")
	t.Setenv("WORKER_CONCURRENCY", "8")
	t.Setenv("MINIO_USE_SSL", "true")
	t.Setenv("LOG_FORMAT", "json")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Server.Port != 9999 {
		t.Errorf("Expected port 9999 from env, got %d", cfg.Server.Port)
	}
	if cfg.Upload.Dir != "/srv/uploads" {
		t.Errorf("Expected upload dir from env, got %s", cfg.Upload.Dir)
	}
	if cfg.Upload.MaxFileSizeMB != 10 {
		t.Errorf("Expected max_file_size_mb 10 from env, got %d", cfg.Upload.MaxFileSizeMB)
	}
	if cfg.OpenAI.APIKey != "sk-env" {
		t.Errorf("Expected api key from env, got %s", cfg.OpenAI.APIKey)
	}
	if cfg.OpenAI.ChatModel != "gpt-4o" {
		t.Errorf("Expected chat model from env, got %s", cfg.OpenAI.ChatModel)
	}
	if cfg.Database.URL != "postgres://db:5432/jobs" {
		t.Errorf("Expected database url from env, got %s", cfg.Database.URL)
	}
	if cfg.Queue.RedisURL != "redis://queue:6379/1" {
		t.Errorf("Expected redis url from env, got %s", cfg.Queue.RedisURL)
	}
	if cfg.Queue.Concurrency != 8 {
		t.Errorf("Expected concurrency 8 from env, got %d", cfg.Queue.Concurrency)
	}
	if !cfg.Archive.UseSSL {
		t.Error("Expected use_ssl true from env")
	}
	if cfg.Log.Format != "json" {
		t.Errorf("Expected log format json from env, got %s", cfg.Log.Format)
	}
}

func TestLoadEnvOverridesFile(t *testing.T) {
	tmpFile, err := os.CreateTemp("", "config-*.yaml")
	if err != nil {
		t.Fatalf("Failed to create temp file: %v", err)
	}
	defer os.Remove(tmpFile.Name())

	tmpFile.WriteString("server:\n  port: 9090\n")
	tmpFile.Close()

	t.Setenv("SERVER_PORT", "7070")

	cfg, err := Load(tmpFile.Name())
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}
	if cfg.Server.Port != 7070 {
		t.Errorf("Environment must override the file value, got %d", cfg.Server.Port)
	}
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"invalid port", map[string]string{"SERVER_PORT": "70000"}},
		{"negative size", map[string]string{"MAX_FILE_SIZE_MB": "-5"}},
		{"negative concurrency", map[string]string{"WORKER_CONCURRENCY": "-1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			if _, err := Load(""); err == nil {
				t.Error("Expected validation error")
			}
		})
	}
}

func TestMaxFileSizeBytes(t *testing.T) {
	cfg := UploadConfig{MaxFileSizeMB: 25}
	if got := cfg.MaxFileSizeBytes(); got != 25*1024*1024 {
		t.Errorf("Expected %d bytes, got %d", 25*1024*1024, got)
	}
}

func TestArchiveEnabled(t *testing.T) {
	cfg := ArchiveConfig{}
	if cfg.Enabled() {
		t.Error("Expected archive to be disabled without endpoint")
	}
	cfg.Endpoint = "localhost:9000"
	if !cfg.Enabled() {
		t.Error("Expected archive to be enabled with endpoint")
	}
}
