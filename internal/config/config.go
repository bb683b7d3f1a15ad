// Package config provides centralized configuration management for the application.
// It loads configuration from built-in defaults, an optional TOML file and
// environment variables (in that order of precedence, lowest first), and
// validates all settings on startup to fail fast on misconfiguration.
package config

import (
	"strconv"
	"time"
)

// Config holds all application configuration.
// All settings can be configured via environment variables.
type Config struct {
	Server   ServerConfig   `toml:"server"`
	Storage  StorageConfig  `toml:"storage"`
	Convert  ConvertConfig  `toml:"convert"`
	Upload   UploadConfig   `toml:"upload"`
	Database DatabaseConfig `toml:"database"`
	Security SecurityConfig `toml:"security"`
	Logging  LoggingConfig  `toml:"logging"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the interface to bind to (default: 0.0.0.0)
	Host string `toml:"host" env:"SERVER_HOST" default:"0.0.0.0"`

	// Port is the port to listen on (default: 8080)
	Port int `toml:"port" env:"SERVER_PORT" envAlt:"PORT" default:"8080"`

	// ReadTimeout is the maximum duration for reading request body (default: 30s)
	ReadTimeout time.Duration `toml:"read_timeout" env:"SERVER_READ_TIMEOUT" default:"30s"`

	// WriteTimeout is the maximum duration for writing the response (default: 10m)
	WriteTimeout time.Duration `toml:"write_timeout" env:"SERVER_WRITE_TIMEOUT" default:"10m"`

	// IdleTimeout is the keep-alive timeout (default: 60s)
	IdleTimeout time.Duration `toml:"idle_timeout" env:"SERVER_IDLE_TIMEOUT" default:"60s"`

	// ShutdownTimeout is the maximum duration to wait for graceful shutdown (default: 30s)
	ShutdownTimeout time.Duration `toml:"shutdown_timeout" env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`

	// RequestTimeout is the middleware timeout for requests (default: 6m)
	// It must outlast the notebook backend timeout.
	RequestTimeout time.Duration `toml:"request_timeout" env:"SERVER_REQUEST_TIMEOUT" default:"6m"`
}

// StorageConfig holds the on-disk layout for jobs and static files.
type StorageConfig struct {
	// UploadsDir receives one sub-directory per job with the uploaded workbook
	UploadsDir string `toml:"uploads_dir" env:"UPLOADS_DIR" default:"uploads"`

	// OutputsDir receives one sub-directory per job with the generated files
	OutputsDir string `toml:"outputs_dir" env:"OUTPUTS_DIR" default:"outputs"`

	// StaticDir is served under /static/ (blank templates live in static/templates)
	StaticDir string `toml:"static_dir" env:"STATIC_DIR" default:"static"`

	// Retention is how long job directories are kept; 0 keeps them forever (default: 168h)
	Retention time.Duration `toml:"retention" env:"JOB_RETENTION" default:"168h"`

	// SweepInterval is how often expired job directories are removed (default: 1h)
	SweepInterval time.Duration `toml:"sweep_interval" env:"JOB_SWEEP_INTERVAL" default:"1h"`
}

// ConvertConfig holds conversion backend settings.
type ConvertConfig struct {
	// Backend selects the conversion implementation: native or notebook (default: native).
	// NB_RUN_MODE is honoured for compatibility; "python" means native.
	Backend string `toml:"backend" env:"CONVERT_BACKEND" envAlt:"NB_RUN_MODE" default:"native"`

	// NotebooksDir holds pipeline_a.ipynb and pipeline_b.ipynb for the notebook backend
	NotebooksDir string `toml:"notebooks_dir" env:"NOTEBOOKS_DIR" default:"notebooks"`

	// NotebookCommand executes a notebook; the notebook path is appended as last argument
	NotebookCommand string `toml:"notebook_command" env:"NOTEBOOK_COMMAND" default:"jupyter nbconvert --to notebook --execute --inplace"`

	// NotebookTimeout bounds a single notebook run (default: 5m)
	NotebookTimeout time.Duration `toml:"notebook_timeout" env:"NOTEBOOK_TIMEOUT" default:"5m"`

	// MaxConcurrent is the maximum number of parallel conversions (default: 4)
	MaxConcurrent int `toml:"max_concurrent" env:"CONVERT_MAX_CONCURRENT" default:"4"`

	// MaxWaitTime is how long to wait for a conversion slot (default: 30s)
	MaxWaitTime time.Duration `toml:"max_wait_time" env:"CONVERT_MAX_WAIT_TIME" default:"30s"`

	// PreviewLimit caps the preview text shown in the UI, in characters (default: 20000)
	PreviewLimit int `toml:"preview_limit" env:"PREVIEW_LIMIT" default:"20000"`
}

// UploadConfig holds upload limits.
type UploadConfig struct {
	// MaxFileSize is the maximum allowed request size in bytes (default: 25MB)
	MaxFileSize int64 `toml:"max_file_size" env:"UPLOAD_MAX_FILE_SIZE" default:"26214400"`
}

// DatabaseConfig holds the optional job history database.
type DatabaseConfig struct {
	// URL is the PostgreSQL connection string. When empty, job history is kept in memory.
	// Supports both DATABASE_URL and DB_URL env vars for compatibility
	URL string `toml:"url" env:"DATABASE_URL" envAlt:"DB_URL"`

	// MaxConns is the maximum number of connections in the pool (default: 10)
	MaxConns int `toml:"max_conns" env:"DB_MAX_CONNS" default:"10"`

	// MinConns is the minimum number of connections to keep open (default: 1)
	MinConns int `toml:"min_conns" env:"DB_MIN_CONNS" default:"1"`

	// MaxConnLifetime is the maximum lifetime of a connection (default: 1h)
	MaxConnLifetime time.Duration `toml:"max_conn_lifetime" env:"DB_MAX_CONN_LIFETIME" default:"1h"`

	// MaxConnIdleTime is the maximum idle time before a connection is closed (default: 30m)
	MaxConnIdleTime time.Duration `toml:"max_conn_idle_time" env:"DB_MAX_CONN_IDLE_TIME" default:"30m"`

	// HistorySize is the number of jobs kept by the in-memory history (default: 200)
	HistorySize int `toml:"history_size" env:"JOB_HISTORY_SIZE" default:"200"`
}

// SecurityConfig holds security-related settings.
type SecurityConfig struct {
	// TrustedProxies is a comma-separated list of trusted proxy CIDRs
	TrustedProxies []string `toml:"trusted_proxies" env:"TRUSTED_PROXIES"`

	// RequireAPIKey enables X-API-Key checks on /api routes (default: false)
	RequireAPIKey bool `toml:"require_api_key" env:"REQUIRE_API_KEY" default:"false"`

	// APIKeys is a comma-separated list of accepted API keys
	APIKeys []string `toml:"api_keys" env:"API_KEYS"`

	// EnableCSP enables Content-Security-Policy headers (default: true)
	EnableCSP bool `toml:"enable_csp" env:"SECURITY_ENABLE_CSP" default:"true"`

	// RateLimit is the number of requests per minute per client IP; 0 disables (default: 100)
	RateLimit int `toml:"rate_limit" env:"RATE_LIMIT" default:"100"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `toml:"level" env:"LOG_LEVEL" default:"info"`

	// Format is the log format: text or json (default: text)
	Format string `toml:"format" env:"LOG_FORMAT" default:"text"`
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	return c.Host + ":" + strconv.Itoa(c.Port)
}

// NativeBackend reports whether conversions run in-process.
func (c *ConvertConfig) NativeBackend() bool {
	switch c.Backend {
	case BackendNative, "python", "":
		return true
	}
	return false
}

// Backend names accepted by ConvertConfig.Backend.
const (
	BackendNative   = "native"
	BackendNotebook = "notebook"
)
