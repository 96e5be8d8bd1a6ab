package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/JaimeStill/factotum/internal/config"
)

const baseConfig = `
shutdown_timeout = "30s"
version = "0.1.0"

[server]
host = "0.0.0.0"
port = 8080
read_timeout = "1m"
write_timeout = "15m"
shutdown_timeout = "30s"

[database]
host = "localhost"
port = 5432
name = "factotum"
user = "factotum"
password = "factotum"
ssl_mode = "disable"

[storage]
container_name = "documents"
connection_string = "DefaultEndpointsProtocol=http;AccountName=factotumstore;AccountKey=key;BlobEndpoint=http://127.0.0.1:10000/factotumstore;"

[api]
base_path = "/api"

[api.cors]
enabled = false

[api.pagination]
default_page_size = 25
max_page_size = 50

[qa]
sample_threshold = 100
sample_fraction = 0.2

[rules]
file = "rules.yaml"
`

const overlayConfig = `
[server]
port = 9090

[database]
host = "prodhost"

[cache]
addr = "redis:6379"
`

// minimalConfig provides the minimum fields required for validation to pass.
const minimalConfig = `
[database]
name = "factotum"
user = "factotum"

[storage]
connection_string = "conn"
`

func writeConfig(t *testing.T, dir, filename, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, filename), []byte(content), 0644); err != nil {
		t.Fatalf("write %s: %v", filename, err)
	}
}

func chdir(t *testing.T, dir string) {
	t.Helper()
	orig, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	t.Cleanup(func() { os.Chdir(orig) })
}

func loadFrom(t *testing.T, content string) *config.Config {
	t.Helper()
	dir := t.TempDir()
	writeConfig(t, dir, config.BaseConfigFile, content)
	chdir(t, dir)

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	return cfg
}

func TestLoad(t *testing.T) {
	cfg := loadFrom(t, baseConfig)

	if cfg.Server.Port != 8080 {
		t.Errorf("server port: got %d, want 8080", cfg.Server.Port)
	}
	if cfg.Database.Name != "factotum" {
		t.Errorf("db name: got %s, want factotum", cfg.Database.Name)
	}
	if cfg.Storage.ContainerName != "documents" {
		t.Errorf("storage container: got %s, want documents", cfg.Storage.ContainerName)
	}
	if cfg.API.Pagination.DefaultPageSize != 25 {
		t.Errorf("pagination default_page_size: got %d, want 25", cfg.API.Pagination.DefaultPageSize)
	}
	if cfg.Cache.Addr != "" {
		t.Errorf("cache addr: got %s, want empty", cfg.Cache.Addr)
	}
}

func TestLoadWithOverlay(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "config.toml", baseConfig)
	writeConfig(t, dir, "config.staging.toml", overlayConfig)
	chdir(t, dir)

	t.Setenv("FACTOTUM_ENV", "staging")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("server port: got %d, want 9090 (from overlay)", cfg.Server.Port)
	}
	if cfg.Database.Host != "prodhost" {
		t.Errorf("db host: got %s, want prodhost (from overlay)", cfg.Database.Host)
	}
	if cfg.Database.Port != 5432 {
		t.Errorf("db port: got %d, want 5432 (from base)", cfg.Database.Port)
	}
	if cfg.Cache.Addr != "redis:6379" {
		t.Errorf("cache addr: got %s, want redis:6379 (from overlay)", cfg.Cache.Addr)
	}
}

func TestLoadEnvVarOverrides(t *testing.T) {
	t.Setenv("FACTOTUM_VERSION", "2.0.0")
	t.Setenv("FACTOTUM_SERVER_PORT", "3000")
	t.Setenv("FACTOTUM_QA_SAMPLE_FRACTION", "0.5")
	t.Setenv("FACTOTUM_RULES_CONCURRENCY", "2")

	cfg := loadFrom(t, baseConfig)

	if cfg.Version != "2.0.0" {
		t.Errorf("version: got %s, want 2.0.0", cfg.Version)
	}
	if cfg.Server.Port != 3000 {
		t.Errorf("server port: got %d, want 3000", cfg.Server.Port)
	}
	if cfg.QA.SampleFraction != 0.5 {
		t.Errorf("qa sample_fraction: got %v, want 0.5", cfg.QA.SampleFraction)
	}
	if cfg.Rules.Concurrency != 2 {
		t.Errorf("rules concurrency: got %d, want 2", cfg.Rules.Concurrency)
	}
}

func TestLoadNoConfigFile(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)

	t.Setenv("FACTOTUM_DB_NAME", "testdb")
	t.Setenv("FACTOTUM_DB_USER", "testuser")
	t.Setenv("FACTOTUM_STORAGE_CONNECTION_STRING", "conn")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("load without config.toml failed: %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("server port default: got %d, want 8080", cfg.Server.Port)
	}
	if cfg.Database.Name != "testdb" {
		t.Errorf("db name from env: got %s, want testdb", cfg.Database.Name)
	}
	if cfg.Storage.ConnectionString != "conn" {
		t.Errorf("storage conn from env: got %s, want conn", cfg.Storage.ConnectionString)
	}
}

func TestLoadInvalidConfig(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "config.toml", `[server`)
	chdir(t, dir)

	if _, err := config.Load(); err == nil {
		t.Fatal("expected error for invalid TOML")
	}
}

func TestDomainDefaults(t *testing.T) {
	cfg := loadFrom(t, minimalConfig)

	tests := []struct {
		name     string
		got      any
		expected any
	}{
		{"qa sample_threshold", cfg.QA.SampleThreshold, 100},
		{"qa sample_fraction", cfg.QA.SampleFraction, 0.2},
		{"rules file", cfg.Rules.File, "rules.yaml"},
		{"rules concurrency", cfg.Rules.Concurrency, 8},
		{"audit install_on_startup", cfg.Audit.InstallOnStartup, false},
		{"metrics path", cfg.Metrics.Path, "/metrics"},
		{"auth actor_header", cfg.Auth.ActorHeader, "X-Factotum-Actor"},
		{"cache prefix", cfg.Cache.Prefix, "factotum:"},
		{"pagination default_page_size", cfg.API.Pagination.DefaultPageSize, 20},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.expected {
				t.Errorf("got %v, want %v", tt.got, tt.expected)
			}
		})
	}
}

func TestEnvDefault(t *testing.T) {
	cfg := loadFrom(t, baseConfig)

	if cfg.Env() != "local" {
		t.Errorf("env: got %s, want local", cfg.Env())
	}
	if d := cfg.ShutdownTimeoutDuration(); d != 30*time.Second {
		t.Errorf("shutdown timeout: got %v, want 30s", d)
	}
	if addr := cfg.Server.Addr(); addr != "0.0.0.0:8080" {
		t.Errorf("addr: got %s, want 0.0.0.0:8080", addr)
	}
	if d := cfg.Server.ReadHeaderTimeoutDuration(); d != 10*time.Second {
		t.Errorf("read header timeout: got %v, want 10s", d)
	}
}

func TestMaxUploadSizeBytes(t *testing.T) {
	tests := []struct {
		name string
		size string
		want int64
	}{
		{"valid 50MB", "50MB", 50 * 1024 * 1024},
		{"valid 1GB", "1GB", 1024 * 1024 * 1024},
		{"invalid falls back to 50MB", "bad", 50 * 1024 * 1024},
		{"empty falls back to 50MB", "", 50 * 1024 * 1024},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &config.APIConfig{MaxUploadSize: tt.size}
			if got := cfg.MaxUploadSizeBytes(); got != tt.want {
				t.Errorf("MaxUploadSizeBytes() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestValidation(t *testing.T) {
	tests := []struct {
		name    string
		config  string
		wantErr string
	}{
		{
			name:    "invalid port",
			config:  minimalConfig + "\n[server]\nport = 99999\n",
			wantErr: "invalid port",
		},
		{
			name:    "non-positive read header timeout",
			config:  minimalConfig + "\n[server]\nread_header_timeout = \"0s\"\n",
			wantErr: "invalid read_header_timeout",
		},
		{
			name:    "invalid sample fraction",
			config:  minimalConfig + "\n[qa]\nsample_fraction = 1.5\n",
			wantErr: "invalid sample_fraction",
		},
		{
			name:    "negative sample threshold",
			config:  minimalConfig + "\n[qa]\nsample_threshold = -1\n",
			wantErr: "invalid sample_threshold",
		},
		{
			name:    "invalid rules concurrency",
			config:  minimalConfig + "\n[rules]\nconcurrency = -3\n",
			wantErr: "invalid concurrency",
		},
		{
			name:    "auth enabled without issuer",
			config:  minimalConfig + "\n[auth]\nenabled = true\nclient_id = \"factotum\"\n",
			wantErr: "issuer required",
		},
		{
			name:    "invalid shutdown timeout",
			config:  "shutdown_timeout = \"soon\"\n" + minimalConfig,
			wantErr: "invalid shutdown_timeout",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			writeConfig(t, dir, "config.toml", tt.config)
			chdir(t, dir)

			_, err := config.Load()
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not contain %q", err.Error(), tt.wantErr)
			}
		})
	}
}
