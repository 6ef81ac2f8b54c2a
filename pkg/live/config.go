package live

import (
	"net/http"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/vango-dev/cellui/pkg/reactive"
)

// Config configures a Server.
type Config struct {
	// Addr is the listen address used by Run.
	// Default: "localhost:3000".
	Addr string

	// Title is the page title of the shell served at "/".
	Title string

	// MountID is the id of the element the root component replaces.
	// Default: "app".
	MountID string

	// Mode is the violation policy of every session runtime.
	Mode reactive.Mode

	// ReadTimeout closes sessions that send nothing for this long.
	// Default: 60 seconds.
	ReadTimeout time.Duration

	// WriteTimeout bounds a single frame write.
	// Default: 10 seconds.
	WriteTimeout time.Duration

	// MaxMessageSize is the largest inbound frame accepted, in bytes.
	// Default: 64KB.
	MaxMessageSize int64

	// InboxSize is the capacity of each session runtime's request channel.
	InboxSize int

	// RenderTimeout bounds how long the page handler waits for async
	// tasks before serializing the initial HTML.
	// Default: 2 seconds.
	RenderTimeout time.Duration

	// ShutdownTimeout is the maximum time to wait for graceful shutdown.
	// Default: 10 seconds.
	ShutdownTimeout time.Duration

	// MetricsPath serves the metrics gatherer when set and the server has
	// metrics. Default: "/metrics".
	MetricsPath string

	// AllowedOrigins lists the origins accepted for WebSocket upgrades in
	// addition to the request host. "*" accepts every origin.
	AllowedOrigins []string
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Addr:            "localhost:3000",
		Title:           "cellui",
		MountID:         "app",
		Mode:            reactive.Release,
		ReadTimeout:     60 * time.Second,
		WriteTimeout:    10 * time.Second,
		MaxMessageSize:  64 * 1024,
		InboxSize:       reactive.DefaultInboxSize,
		RenderTimeout:   2 * time.Second,
		ShutdownTimeout: 10 * time.Second,
		MetricsPath:     "/metrics",
	}
}

// withDefaults fills in defaults for unset fields.
func (c *Config) withDefaults() *Config {
	d := DefaultConfig()
	if c == nil {
		return d
	}
	out := *c
	if out.Addr == "" {
		out.Addr = d.Addr
	}
	if out.Title == "" {
		out.Title = d.Title
	}
	if out.MountID == "" {
		out.MountID = d.MountID
	}
	if out.ReadTimeout == 0 {
		out.ReadTimeout = d.ReadTimeout
	}
	if out.WriteTimeout == 0 {
		out.WriteTimeout = d.WriteTimeout
	}
	if out.MaxMessageSize == 0 {
		out.MaxMessageSize = d.MaxMessageSize
	}
	if out.InboxSize == 0 {
		out.InboxSize = d.InboxSize
	}
	if out.RenderTimeout == 0 {
		out.RenderTimeout = d.RenderTimeout
	}
	if out.ShutdownTimeout == 0 {
		out.ShutdownTimeout = d.ShutdownTimeout
	}
	return &out
}

// checkOrigin accepts requests without an Origin header, same-origin
// requests and the configured origins.
func (c *Config) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	if slices.Contains(c.AllowedOrigins, "*") || slices.Contains(c.AllowedOrigins, origin) {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil || u.Host == "" {
		return false
	}
	return strings.EqualFold(u.Host, r.Host)
}
