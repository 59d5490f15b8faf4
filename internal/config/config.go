package config

import (
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/hoka-shop/storefront/internal/errors"
)

const (
	// ConfigFileName is the name of the JSON configuration file.
	ConfigFileName = "storefront.json"

	// YAMLConfigFileName is the name of the YAML configuration file.
	YAMLConfigFileName = "storefront.yaml"

	// DefaultAddr is the default HTTP listen address.
	DefaultAddr = ":3000"

	// DefaultToastDuration is how long toasts stay visible.
	DefaultToastDuration = "5s"

	// DefaultStateDir is where the file backend keeps state.
	DefaultStateDir = ".storefront"
)

// Persistence backends.
const (
	BackendCookie = "cookie"
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendRedis  = "redis"
	BackendS3     = "s3"
)

// Telemetry exporters.
const (
	ExporterNone   = "none"
	ExporterStdout = "stdout"
	ExporterOTLP   = "otlp"
)

// Config represents the complete storefront configuration.
type Config struct {
	// Name is the service name used in telemetry.
	Name string `json:"name,omitempty" yaml:"name,omitempty"`

	// Server contains HTTP server configuration.
	Server ServerConfig `json:"server,omitempty" yaml:"server,omitempty"`

	// Cookie contains attributes for every cookie the server writes.
	Cookie CookieConfig `json:"cookie,omitempty" yaml:"cookie,omitempty"`

	// Persistence selects where cart and dark-mode state is kept.
	Persistence PersistenceConfig `json:"persistence,omitempty" yaml:"persistence,omitempty"`

	// Toast contains toast notification settings.
	Toast ToastConfig `json:"toast,omitempty" yaml:"toast,omitempty"`

	// DarkMode contains dark-mode preference settings.
	DarkMode DarkModeConfig `json:"darkMode,omitempty" yaml:"darkMode,omitempty"`

	// Telemetry contains tracing configuration.
	Telemetry TelemetryConfig `json:"telemetry,omitempty" yaml:"telemetry,omitempty"`

	// Metrics contains Prometheus configuration.
	Metrics MetricsConfig `json:"metrics,omitempty" yaml:"metrics,omitempty"`

	// Log contains logging configuration.
	Log LogConfig `json:"log,omitempty" yaml:"log,omitempty"`

	// configPath stores the path where the config was loaded from.
	configPath string
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	// Addr is the listen address.
	Addr string `json:"addr,omitempty" yaml:"addr,omitempty"`

	// ShutdownTimeout bounds graceful shutdown (e.g., "10s").
	ShutdownTimeout string `json:"shutdownTimeout,omitempty" yaml:"shutdownTimeout,omitempty"`

	// AllowedOrigins lists origins allowed to open the WebSocket.
	// Empty allows same-origin only.
	AllowedOrigins []string `json:"allowedOrigins,omitempty" yaml:"allowedOrigins,omitempty"`
}

// CookieConfig contains cookie attributes.
type CookieConfig struct {
	Path     string `json:"path,omitempty" yaml:"path,omitempty"`
	Domain   string `json:"domain,omitempty" yaml:"domain,omitempty"`
	MaxAge   int    `json:"maxAge,omitempty" yaml:"maxAge,omitempty"`
	Secure   bool   `json:"secure,omitempty" yaml:"secure,omitempty"`
	HTTPOnly bool   `json:"httpOnly,omitempty" yaml:"httpOnly,omitempty"`

	// SameSite is one of "lax", "strict", "none" or "" (browser default).
	SameSite string `json:"sameSite,omitempty" yaml:"sameSite,omitempty"`
}

// PersistenceConfig selects and configures the state backend.
type PersistenceConfig struct {
	// Backend is one of cookie, memory, file, redis or s3.
	Backend string `json:"backend,omitempty" yaml:"backend,omitempty"`

	// Dir is the state directory for the file backend.
	Dir string `json:"dir,omitempty" yaml:"dir,omitempty"`

	Redis RedisConfig `json:"redis,omitempty" yaml:"redis,omitempty"`
	S3    S3Config    `json:"s3,omitempty" yaml:"s3,omitempty"`
}

// RedisConfig contains Redis backend settings.
type RedisConfig struct {
	Addr     string `json:"addr,omitempty" yaml:"addr,omitempty"`
	Password string `json:"password,omitempty" yaml:"password,omitempty"`
	DB       int    `json:"db,omitempty" yaml:"db,omitempty"`
	Prefix   string `json:"prefix,omitempty" yaml:"prefix,omitempty"`

	// TTL expires idle state (e.g., "720h"). Empty keeps it forever.
	TTL string `json:"ttl,omitempty" yaml:"ttl,omitempty"`
}

// S3Config contains S3 backend settings.
type S3Config struct {
	Bucket string `json:"bucket,omitempty" yaml:"bucket,omitempty"`
	Prefix string `json:"prefix,omitempty" yaml:"prefix,omitempty"`
	Region string `json:"region,omitempty" yaml:"region,omitempty"`
}

// ToastConfig contains toast settings.
type ToastConfig struct {
	// Duration is how long a toast stays visible (e.g., "5s").
	Duration string `json:"duration,omitempty" yaml:"duration,omitempty"`
}

// DarkModeConfig contains dark-mode settings.
type DarkModeConfig struct {
	// Default is the preference when nothing is persisted. Nil means true.
	Default *bool `json:"default,omitempty" yaml:"default,omitempty"`
}

// TelemetryConfig contains tracing settings.
type TelemetryConfig struct {
	// Exporter is one of none, stdout or otlp.
	Exporter string `json:"exporter,omitempty" yaml:"exporter,omitempty"`

	// Endpoint is the OTLP/gRPC collector address.
	Endpoint string `json:"endpoint,omitempty" yaml:"endpoint,omitempty"`
}

// MetricsConfig contains Prometheus settings.
type MetricsConfig struct {
	// Disabled turns off /metrics and request metrics.
	Disabled bool `json:"disabled,omitempty" yaml:"disabled,omitempty"`

	// Namespace is the metrics namespace.
	Namespace string `json:"namespace,omitempty" yaml:"namespace,omitempty"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	// Level is one of debug, info, warn or error.
	Level string `json:"level,omitempty" yaml:"level,omitempty"`

	// Format is text or json.
	Format string `json:"format,omitempty" yaml:"format,omitempty"`
}

// New creates a new Config with default values.
func New() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// Load reads configuration from the specified directory.
// It looks for storefront.json, then storefront.yaml.
func Load(dir string) (*Config, error) {
	jsonPath := filepath.Join(dir, ConfigFileName)
	if _, err := os.Stat(jsonPath); err == nil {
		return LoadFile(jsonPath)
	}
	yamlPath := filepath.Join(dir, YAMLConfigFileName)
	if _, err := os.Stat(yamlPath); err == nil {
		return LoadFile(yamlPath)
	}
	return nil, errors.New("S101").
		WithDetail("No " + ConfigFileName + " or " + YAMLConfigFileName + " found in " + dir).
		WithSuggestion("Run 'storefront config init' or pass --config")
}

// LoadFile reads configuration from the specified file path.
// Files ending in .yaml or .yml are parsed as YAML, everything else as JSON.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New("S101").
				WithDetail("No configuration file at " + path)
		}
		return nil, errors.New("S100").Wrap(err)
	}

	cfg := &Config{}
	if isYAML(path) {
		err = yaml.Unmarshal(data, cfg)
	} else {
		err = json.Unmarshal(data, cfg)
	}
	if err != nil {
		return nil, errors.New("S100").
			WithDetail("Failed to parse " + filepath.Base(path) + ": " + err.Error()).
			WithSuggestion("Check that the file is valid JSON or YAML")
	}

	cfg.configPath = path
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the configuration to the file it was loaded from.
func (c *Config) Save() error {
	if c.configPath == "" {
		return errors.Newf(errors.CategoryConfig, "no config path set")
	}
	return c.SaveTo(c.configPath)
}

// SaveTo writes the configuration to the specified path.
func (c *Config) SaveTo(path string) error {
	var (
		data []byte
		err  error
	)
	if isYAML(path) {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
		data = append(data, '\n')
	}
	if err != nil {
		return errors.New("S100").Wrap(err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.New("S100").Wrap(err)
	}

	c.configPath = path
	return nil
}

// Path returns the path where the config was loaded from.
func (c *Config) Path() string {
	return c.configPath
}

// applyDefaults fills in default values for empty fields.
func (c *Config) applyDefaults() {
	if c.Name == "" {
		c.Name = "storefront"
	}
	if c.Server.Addr == "" {
		c.Server.Addr = DefaultAddr
	}
	if c.Server.ShutdownTimeout == "" {
		c.Server.ShutdownTimeout = "10s"
	}

	if c.Cookie.Path == "" {
		c.Cookie.Path = "/"
	}
	if c.Cookie.SameSite == "" {
		c.Cookie.SameSite = "lax"
	}

	if c.Persistence.Backend == "" {
		c.Persistence.Backend = BackendCookie
	}
	if c.Persistence.Dir == "" {
		c.Persistence.Dir = DefaultStateDir
	}
	if c.Persistence.Redis.Addr == "" {
		c.Persistence.Redis.Addr = "localhost:6379"
	}
	if c.Persistence.Redis.Prefix == "" {
		c.Persistence.Redis.Prefix = "storefront:"
	}

	if c.Toast.Duration == "" {
		c.Toast.Duration = DefaultToastDuration
	}

	if c.Telemetry.Exporter == "" {
		c.Telemetry.Exporter = ExporterNone
	}
	if c.Telemetry.Endpoint == "" {
		c.Telemetry.Endpoint = "localhost:4317"
	}

	if c.Metrics.Namespace == "" {
		c.Metrics.Namespace = "storefront"
	}

	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	switch c.Persistence.Backend {
	case BackendCookie, BackendMemory, BackendFile, BackendRedis:
	case BackendS3:
		if c.Persistence.S3.Bucket == "" {
			return errors.New("S102").
				WithDetail("persistence.s3.bucket is required for the s3 backend")
		}
	default:
		return errors.New("S103").
			WithDetail("got " + c.Persistence.Backend)
	}

	for field, value := range map[string]string{
		"server.shutdownTimeout": c.Server.ShutdownTimeout,
		"toast.duration":         c.Toast.Duration,
		"persistence.redis.ttl":  c.Persistence.Redis.TTL,
	} {
		if value == "" {
			continue
		}
		d, err := time.ParseDuration(value)
		if err != nil || d < 0 {
			return errors.New("S102").
				WithDetail(field + " must be a non-negative duration, got " + value)
		}
	}
	if d, _ := time.ParseDuration(c.Toast.Duration); d == 0 {
		return errors.New("S102").WithDetail("toast.duration must be positive")
	}

	switch strings.ToLower(c.Cookie.SameSite) {
	case "lax", "strict", "none", "default":
	default:
		return errors.New("S102").
			WithDetail("cookie.sameSite must be lax, strict, none or default, got " + c.Cookie.SameSite)
	}
	if strings.EqualFold(c.Cookie.SameSite, "none") && !c.Cookie.Secure {
		return errors.New("S102").
			WithDetail("cookie.sameSite none requires cookie.secure").
			WithSuggestion("Set cookie.secure to true")
	}
	if c.Cookie.MaxAge < 0 {
		return errors.New("S102").WithDetail("cookie.maxAge must not be negative")
	}

	switch c.Telemetry.Exporter {
	case ExporterNone, ExporterStdout, ExporterOTLP:
	default:
		return errors.New("S102").
			WithDetail("telemetry.exporter must be none, stdout or otlp, got " + c.Telemetry.Exporter)
	}

	if _, err := parseLevel(c.Log.Level); err != nil {
		return err
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		return errors.New("S102").WithDetail("log.format must be text or json, got " + c.Log.Format)
	}
	return nil
}

// ToastDuration returns the parsed toast duration.
func (c *Config) ToastDuration() time.Duration {
	d, err := time.ParseDuration(c.Toast.Duration)
	if err != nil || d <= 0 {
		return 5 * time.Second
	}
	return d
}

// ShutdownTimeout returns the parsed shutdown timeout.
func (c *Config) ShutdownTimeout() time.Duration {
	d, err := time.ParseDuration(c.Server.ShutdownTimeout)
	if err != nil {
		return 10 * time.Second
	}
	return d
}

// RedisTTL returns the parsed Redis TTL, zero when unset.
func (c *Config) RedisTTL() time.Duration {
	d, _ := time.ParseDuration(c.Persistence.Redis.TTL)
	return d
}

// SameSite returns the cookie SameSite mode.
func (c *Config) SameSite() http.SameSite {
	switch strings.ToLower(c.Cookie.SameSite) {
	case "strict":
		return http.SameSiteStrictMode
	case "none":
		return http.SameSiteNoneMode
	case "lax":
		return http.SameSiteLaxMode
	default:
		return http.SameSiteDefaultMode
	}
}

// DarkModeDefault returns the dark-mode preference used when nothing is persisted.
func (c *Config) DarkModeDefault() bool {
	if c.DarkMode.Default == nil {
		return true
	}
	return *c.DarkMode.Default
}

func isYAML(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}
