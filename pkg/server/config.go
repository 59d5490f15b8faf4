package server

import (
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/hoka-shop/storefront/pkg/darkmode"
	"github.com/hoka-shop/storefront/pkg/persist"
	"github.com/hoka-shop/storefront/pkg/toast"
)

// SessionCookieName is the cookie identifying a visitor.
const SessionCookieName = "sf_session"

// Config configures a Server.
type Config struct {
	// Address is the address to listen on.
	// Default: ":3000".
	Address string

	// ShutdownTimeout is the maximum time to wait for graceful shutdown.
	// Default: 10 seconds.
	ShutdownTimeout time.Duration

	// ReadHeaderTimeout bounds reading request headers.
	// Default: 5 seconds.
	ReadHeaderTimeout time.Duration

	// Cookie holds the attributes of every cookie the server writes,
	// including the session cookie.
	Cookie persist.CookieOptions

	// Backend stores cart and dark-mode state server-side, keyed by session.
	// Nil keeps state in the visitor's own cookies.
	Backend persist.Blobs

	// ToastDuration is how long toasts stay visible.
	// Default: toast.DefaultDuration.
	ToastDuration time.Duration

	// DarkModeDefault is the preference when nothing is persisted.
	DarkModeDefault bool

	// SessionIdleTimeout drops a visitor's toasts after this much inactivity.
	// Default: 30 minutes.
	SessionIdleTimeout time.Duration

	// CleanupInterval is how often idle sessions are swept.
	// Default: 1 minute.
	CleanupInterval time.Duration

	// CheckOrigin validates WebSocket upgrade origins.
	// Default: SameOriginCheck.
	CheckOrigin func(r *http.Request) bool

	// Registry enables /metrics and request metrics when set.
	Registry *prometheus.Registry

	// MetricsNamespace prefixes every metric name.
	// Default: "storefront".
	MetricsNamespace string

	// Tracing wraps every request in an OpenTelemetry span.
	Tracing bool

	// Logger is the server logger.
	// Default: slog.Default().
	Logger *slog.Logger
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Address:            ":3000",
		ShutdownTimeout:    10 * time.Second,
		ReadHeaderTimeout:  5 * time.Second,
		Cookie:             persist.CookieOptions{Path: "/", SameSite: http.SameSiteLaxMode},
		ToastDuration:      toast.DefaultDuration,
		DarkModeDefault:    darkmode.DefaultEnabled,
		SessionIdleTimeout: 30 * time.Minute,
		CleanupInterval:    time.Minute,
		CheckOrigin:        SameOriginCheck,
		MetricsNamespace:   "storefront",
	}
}

// applyDefaults fills zero fields from DefaultConfig.
func (c *Config) applyDefaults() {
	d := DefaultConfig()
	if c.Address == "" {
		c.Address = d.Address
	}
	if c.ShutdownTimeout == 0 {
		c.ShutdownTimeout = d.ShutdownTimeout
	}
	if c.ReadHeaderTimeout == 0 {
		c.ReadHeaderTimeout = d.ReadHeaderTimeout
	}
	if c.Cookie.Path == "" {
		c.Cookie.Path = d.Cookie.Path
	}
	if c.ToastDuration == 0 {
		c.ToastDuration = d.ToastDuration
	}
	if c.SessionIdleTimeout == 0 {
		c.SessionIdleTimeout = d.SessionIdleTimeout
	}
	if c.CleanupInterval == 0 {
		c.CleanupInterval = d.CleanupInterval
	}
	if c.CheckOrigin == nil {
		c.CheckOrigin = d.CheckOrigin
	}
	if c.MetricsNamespace == "" {
		c.MetricsNamespace = d.MetricsNamespace
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// SameOriginCheck accepts WebSocket upgrades whose Origin host matches the
// request host, or that carry no Origin at all.
func SameOriginCheck(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	originURL, err := url.Parse(origin)
	if err != nil {
		return false
	}
	return r.Host != "" && originURL.Host == r.Host
}

// AllowOrigins returns a CheckOrigin that accepts same-origin requests plus
// the listed origins.
func AllowOrigins(origins ...string) func(r *http.Request) bool {
	allowed := make(map[string]bool, len(origins))
	for _, o := range origins {
		allowed[o] = true
	}
	return func(r *http.Request) bool {
		return SameOriginCheck(r) || allowed[r.Header.Get("Origin")]
	}
}
