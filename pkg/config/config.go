package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/scimcow/scimcow/pkg/observability"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	Server ServerConfig

	// SCIM endpoint configuration
	SCIM SCIMConfig

	// Mailcow admin API configuration
	Mailcow MailcowConfig

	// Provisioning behavior
	Provisioning ProvisioningConfig

	// Audit trail configuration
	Audit AuditConfig

	// Observability configuration
	Observability ObservabilityConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

// Addr returns the listen address for http.Server.
func (s ServerConfig) Addr() string {
	return s.Host + ":" + s.Port
}

// SCIMConfig holds settings for the SCIM endpoint itself
type SCIMConfig struct {
	// Token is the shared bearer secret the identity provider presents.
	Token string

	// MaxResults caps the page size of list responses.
	MaxResults int
}

// MailcowConfig holds the admin API connection settings
type MailcowConfig struct {
	APIURL        string
	APIKey        string
	Timeout       time.Duration
	SkipTLSVerify bool
}

// ProvisioningConfig holds the knobs that change provisioning semantics
type ProvisioningConfig struct {
	// AllowDelete gates DELETE /Users entirely. When false the endpoint
	// answers 403 without touching the admin API.
	AllowDelete bool

	// DeleteMailbox selects between removing the mailbox and
	// deactivating it when a SCIM delete is allowed through.
	DeleteMailbox bool

	// UpsertOnUpdate makes PUT on an unknown id create the mailbox
	// instead of answering 404.
	UpsertOnUpdate bool
}

// AuditConfig holds audit trail settings. Empty paths disable the
// corresponding sink.
type AuditConfig struct {
	LogPath       string
	DBPath        string
	RetentionDays int
}

// ObservabilityConfig holds observability settings
type ObservabilityConfig struct {
	// Logging
	LogLevel  observability.LogLevel
	LogFormat string

	// OpenTelemetry
	OTelEnabled        bool
	OTelEndpoint       string
	OTelServiceName    string
	OTelServiceVersion string
	OTelInsecure       bool // Use insecure gRPC connection
}

// loader resolves settings from the environment first and an optional
// YAML file second.
type loader struct {
	file map[string]string
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	return LoadConfigFile("")
}

// LoadConfigFile loads configuration from environment variables layered
// over an optional YAML file. The file uses the same keys as the
// environment; any variable set in the environment wins.
func LoadConfigFile(path string) (*Config, error) {
	l := &loader{}
	if path != "" {
		file, err := loadYAMLFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
		l.file = file
	}

	cfg := &Config{
		Server:        l.loadServerConfig(),
		SCIM:          l.loadSCIMConfig(),
		Mailcow:       l.loadMailcowConfig(),
		Provisioning:  l.loadProvisioningConfig(),
		Audit:         l.loadAuditConfig(),
		Observability: l.loadObservabilityConfig(),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

func loadYAMLFile(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var raw map[string]interface{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("invalid YAML in %s: %w", path, err)
	}

	file := make(map[string]string, len(raw))
	for k, v := range raw {
		file[strings.ToUpper(k)] = fmt.Sprintf("%v", v)
	}
	return file, nil
}

func (l *loader) loadServerConfig() ServerConfig {
	return ServerConfig{
		Host:            l.getEnv("SERVER_HOST", "0.0.0.0"),
		Port:            l.getEnv("SERVER_PORT", "8000"),
		ReadTimeout:     l.getEnvDuration("SERVER_READ_TIMEOUT", 15*time.Second),
		WriteTimeout:    l.getEnvDuration("SERVER_WRITE_TIMEOUT", 30*time.Second),
		IdleTimeout:     l.getEnvDuration("SERVER_IDLE_TIMEOUT", 60*time.Second),
		ShutdownTimeout: l.getEnvDuration("SERVER_SHUTDOWN_TIMEOUT", 30*time.Second),
	}
}

func (l *loader) loadSCIMConfig() SCIMConfig {
	return SCIMConfig{
		Token:      l.getEnv("SCIM_TOKEN", ""),
		MaxResults: l.getEnvInt("SCIM_MAX_RESULTS", 500),
	}
}

func (l *loader) loadMailcowConfig() MailcowConfig {
	return MailcowConfig{
		APIURL:        l.getEnv("MAILCOW_API_URL", ""),
		APIKey:        l.getEnv("MAILCOW_API_KEY", ""),
		Timeout:       l.getEnvDuration("MAILCOW_TIMEOUT", 30*time.Second),
		SkipTLSVerify: l.getEnvBool("SKIP_VERIFY_CERTIFICATE", false),
	}
}

func (l *loader) loadProvisioningConfig() ProvisioningConfig {
	return ProvisioningConfig{
		AllowDelete:    l.getEnvBool("ALLOW_DELETE", true),
		DeleteMailbox:  l.getEnvBool("MAILCOW_DELETE_MAILBOX", false),
		UpsertOnUpdate: l.getEnvBool("UPSERT_ON_UPDATE", true),
	}
}

func (l *loader) loadAuditConfig() AuditConfig {
	return AuditConfig{
		LogPath:       l.getEnv("AUDIT_LOG_PATH", ""),
		DBPath:        l.getEnv("AUDIT_DB_PATH", ""),
		RetentionDays: l.getEnvInt("AUDIT_RETENTION_DAYS", 90),
	}
}

func (l *loader) loadObservabilityConfig() ObservabilityConfig {
	return ObservabilityConfig{
		LogLevel:           observability.ParseLevel(l.getEnv("LOG_LEVEL", "info")),
		LogFormat:          strings.ToLower(l.getEnv("LOG_FORMAT", "json")),
		OTelEnabled:        l.getEnvBool("OTEL_ENABLED", false),
		OTelEndpoint:       l.getEnv("OTEL_ENDPOINT", "localhost:4317"),
		OTelServiceName:    l.getEnv("OTEL_SERVICE_NAME", "scimcow"),
		OTelServiceVersion: l.getEnv("OTEL_SERVICE_VERSION", "1.0.0"),
		OTelInsecure:       l.getEnvBool("OTEL_INSECURE", true),
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("server port is required")
	}
	if port, err := strconv.Atoi(c.Server.Port); err != nil || port < 1 || port > 65535 {
		return fmt.Errorf("invalid server port: %s", c.Server.Port)
	}

	if c.SCIM.Token == "" {
		return fmt.Errorf("SCIM_TOKEN is required")
	}
	if c.SCIM.MaxResults < 1 {
		return fmt.Errorf("SCIM_MAX_RESULTS must be positive")
	}

	if c.Mailcow.APIURL == "" {
		return fmt.Errorf("MAILCOW_API_URL is required")
	}
	u, err := url.Parse(c.Mailcow.APIURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("MAILCOW_API_URL is not a valid URL: %s", c.Mailcow.APIURL)
	}
	if c.Mailcow.APIKey == "" {
		return fmt.Errorf("MAILCOW_API_KEY is required")
	}

	if c.Audit.RetentionDays < 0 {
		return fmt.Errorf("AUDIT_RETENTION_DAYS must not be negative")
	}

	if c.Observability.LogFormat != "json" && c.Observability.LogFormat != "text" {
		return fmt.Errorf("invalid log format: %s (must be json or text)", c.Observability.LogFormat)
	}
	if c.Observability.OTelEnabled && c.Observability.OTelEndpoint == "" {
		return fmt.Errorf("OpenTelemetry endpoint is required when OTel is enabled")
	}

	return nil
}

// getEnv returns a setting value or a default
func (l *loader) getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	if value, ok := l.file[key]; ok && value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool returns a boolean setting or a default
func (l *loader) getEnvBool(key string, defaultValue bool) bool {
	if value := l.getEnv(key, ""); value != "" {
		return strings.ToLower(value) == "true" || value == "1"
	}
	return defaultValue
}

// getEnvInt returns an integer setting or a default
func (l *loader) getEnvInt(key string, defaultValue int) int {
	if value := l.getEnv(key, ""); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvDuration returns a duration setting or a default. Bare numbers
// are read as seconds so MAILCOW_TIMEOUT=30 and MAILCOW_TIMEOUT=30s
// mean the same thing.
func (l *loader) getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := l.getEnv(key, ""); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
		if secs, err := strconv.Atoi(value); err == nil {
			return time.Duration(secs) * time.Second
		}
	}
	return defaultValue
}
