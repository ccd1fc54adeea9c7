package config_test

import (
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/JaimeStill/walacakra/internal/config"
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
driver = "postgres"
host = "localhost"
port = 5432
name = "walacakra"
user = "walacakra"
password = "walacakra"
ssl_mode = "disable"
max_open_conns = 25
max_idle_conns = 5
conn_max_lifetime = "15m"
conn_timeout = "5s"

[storage]
container_name = "review-objects"
connection_string = "DefaultEndpointsProtocol=http;AccountName=devstoreaccount1;AccountKey=key;BlobEndpoint=http://127.0.0.1:10000/devstoreaccount1;"

[api]
base_path = "/api"

[api.cors]
enabled = false

[remote]
default_endpoint = "http://localhost:8000"
timeout = "30s"
upload_concurrency = 2

[review]
doc_types = ["KTP", "KK"]
`

const overlayConfig = `
[server]
port = 9090

[database]
host = "prodhost"
`

const minimalConfig = `
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

func load(t *testing.T, content string) *config.Config {
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
	cfg := load(t, baseConfig)

	if cfg.Server.Port != 8080 {
		t.Errorf("server port: got %d, want 8080", cfg.Server.Port)
	}
	if cfg.Database.Driver != "postgres" {
		t.Errorf("db driver: got %s, want postgres", cfg.Database.Driver)
	}
	if cfg.Database.Host != "localhost" {
		t.Errorf("db host: got %s, want localhost", cfg.Database.Host)
	}
	if cfg.Storage.ContainerName != "review-objects" {
		t.Errorf("storage container: got %s, want review-objects", cfg.Storage.ContainerName)
	}
	if cfg.API.BasePath != "/api" {
		t.Errorf("api base_path: got %s, want /api", cfg.API.BasePath)
	}
	if cfg.Remote.DefaultEndpoint != "http://localhost:8000" {
		t.Errorf("remote default_endpoint: got %s", cfg.Remote.DefaultEndpoint)
	}
	if cfg.Remote.UploadConcurrency != 2 {
		t.Errorf("remote upload_concurrency: got %d, want 2", cfg.Remote.UploadConcurrency)
	}
	if cfg.Remote.TimeoutDuration() != 30*time.Second {
		t.Errorf("remote timeout: got %s, want 30s", cfg.Remote.TimeoutDuration())
	}
	if !slices.Equal(cfg.Review.DocTypes, []string{"KTP", "KK"}) {
		t.Errorf("review doc_types: got %v", cfg.Review.DocTypes)
	}
}

func TestLoadWithOverlay(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "config.toml", baseConfig)
	writeConfig(t, dir, "config.staging.toml", overlayConfig)
	chdir(t, dir)

	t.Setenv("WALACAKRA_ENV", "staging")

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
}

func TestLoadEnvVarOverrides(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "config.toml", baseConfig)
	chdir(t, dir)

	t.Setenv("WALACAKRA_VERSION", "2.0.0")
	t.Setenv("WALACAKRA_SERVER_PORT", "3000")
	t.Setenv("WALACAKRA_REMOTE_DEFAULT_ENDPOINT", "https://walacakra.example.com")
	t.Setenv("WALACAKRA_REVIEW_DOC_TYPES", "KTP, SHM ,")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if cfg.Version != "2.0.0" {
		t.Errorf("version: got %s, want 2.0.0", cfg.Version)
	}
	if cfg.Server.Port != 3000 {
		t.Errorf("server port: got %d, want 3000", cfg.Server.Port)
	}
	if cfg.Remote.DefaultEndpoint != "https://walacakra.example.com" {
		t.Errorf("remote endpoint: got %s", cfg.Remote.DefaultEndpoint)
	}
	if !slices.Equal(cfg.Review.DocTypes, []string{"KTP", "SHM"}) {
		t.Errorf("doc types: got %v", cfg.Review.DocTypes)
	}
}

func TestLoadNoConfigFile(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)

	t.Setenv("WALACAKRA_STORAGE_CONNECTION_STRING", "conn")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("load without config.toml failed: %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("server port default: got %d, want 8080", cfg.Server.Port)
	}
	if cfg.Database.Driver != "sqlite" {
		t.Errorf("db driver default: got %s, want sqlite", cfg.Database.Driver)
	}
	if cfg.Storage.ConnectionString != "conn" {
		t.Errorf("storage conn from env: got %s, want conn", cfg.Storage.ConnectionString)
	}
}

func TestLoadInvalidConfig(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "config.toml", `invalid = `)
	chdir(t, dir)

	if _, err := config.Load(); err == nil {
		t.Fatal("expected error for invalid TOML")
	}
}

func TestEnvDefault(t *testing.T) {
	cfg := load(t, minimalConfig)

	if cfg.Env() != "local" {
		t.Errorf("env: got %s, want local", cfg.Env())
	}
}

func TestEnvFromEnvVar(t *testing.T) {
	t.Setenv("WALACAKRA_ENV", "production")
	cfg := load(t, minimalConfig)

	if cfg.Env() != "production" {
		t.Errorf("env: got %s, want production", cfg.Env())
	}
}

func TestShutdownTimeoutDuration(t *testing.T) {
	cfg := load(t, baseConfig)

	if got := cfg.ShutdownTimeoutDuration(); got != 30*time.Second {
		t.Errorf("shutdown timeout: got %s, want 30s", got)
	}
}

func TestServerAddr(t *testing.T) {
	cfg := load(t, baseConfig)

	if got := cfg.Server.Addr(); got != "0.0.0.0:8080" {
		t.Errorf("addr: got %s, want 0.0.0.0:8080", got)
	}
}

func TestServerTimeoutDefaults(t *testing.T) {
	cfg := load(t, baseConfig)

	if got := cfg.Server.ReadHeaderTimeoutDuration(); got != 10*time.Second {
		t.Errorf("read header timeout: got %s, want 10s", got)
	}
	if got := cfg.Server.IdleTimeoutDuration(); got != 2*time.Minute {
		t.Errorf("idle timeout: got %s, want 2m", got)
	}
}

func TestServerTimeoutEnv(t *testing.T) {
	t.Setenv(config.EnvServerIdleTimeout, "45s")
	cfg := load(t, baseConfig)

	if got := cfg.Server.IdleTimeoutDuration(); got != 45*time.Second {
		t.Errorf("idle timeout: got %s, want 45s", got)
	}
}

func TestMaxUploadSizeBytes(t *testing.T) {
	tests := []struct {
		name string
		size string
		want int64
	}{
		{"default", "", 50 * 1024 * 1024},
		{"megabytes", "10MB", 10 * 1024 * 1024},
		{"gigabytes", "1GB", 1024 * 1024 * 1024},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.size != "" {
				t.Setenv("WALACAKRA_API_MAX_UPLOAD_SIZE", tt.size)
			}
			cfg := load(t, minimalConfig)

			if got := cfg.API.MaxUploadSizeBytes(); got != tt.want {
				t.Errorf("max upload size: got %d, want %d", got, tt.want)
			}
		})
	}
}

func TestReviewDefaults(t *testing.T) {
	cfg := load(t, minimalConfig)

	if cfg.Review.BasePath != "/app" {
		t.Errorf("review base_path: got %s, want /app", cfg.Review.BasePath)
	}
	if cfg.Review.Placeholder != "/app/static/default-avatar.svg" {
		t.Errorf("placeholder: got %s", cfg.Review.Placeholder)
	}
	if !slices.Equal(cfg.Review.DocTypes, config.DefaultDocTypes) {
		t.Errorf("doc types: got %v", cfg.Review.DocTypes)
	}
	if cfg.Remote.APIPrefix != "/api/v1/walacakra" {
		t.Errorf("remote api_prefix: got %s", cfg.Remote.APIPrefix)
	}
}

func TestValidation(t *testing.T) {
	tests := []struct {
		name    string
		config  string
		wantErr string
	}{
		{
			name: "invalid port",
			config: `
[server]
port = 99999
[storage]
connection_string = "conn"
`,
			wantErr: "invalid port",
		},
		{
			name: "invalid read_timeout",
			config: `
[server]
read_timeout = "bad"
[storage]
connection_string = "conn"
`,
			wantErr: "invalid read_timeout",
		},
		{
			name: "invalid idle_timeout",
			config: `
[server]
idle_timeout = "soon"
[storage]
connection_string = "conn"
`,
			wantErr: "invalid idle_timeout",
		},
		{
			name: "unsupported driver",
			config: `
[database]
driver = "mysql"
[storage]
connection_string = "conn"
`,
			wantErr: "unsupported driver",
		},
		{
			name:    "missing storage connection",
			config:  `version = "1.0.0"`,
			wantErr: "storage",
		},
		{
			name: "invalid upload concurrency",
			config: `
[storage]
connection_string = "conn"
[remote]
upload_concurrency = -1
`,
			wantErr: "remote",
		},
		{
			name: "colliding base paths",
			config: `
[storage]
connection_string = "conn"
[review]
base_path = "/api"
`,
			wantErr: "must differ",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			writeConfig(t, dir, "config.toml", tt.config)
			chdir(t, dir)

			_, err := config.Load()
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not contain %q", err.Error(), tt.wantErr)
			}
		})
	}
}
