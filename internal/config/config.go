package config

import (
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"

	"github.com/vango-dev/cellui/internal/errors"
	"github.com/vango-dev/cellui/pkg/reactive"
)

const (
	// ConfigFileName is the name of the configuration file.
	ConfigFileName = "cellui.yaml"

	// DefaultAddr is the default listen address of the live server.
	DefaultAddr = "localhost:3000"

	// DefaultMountID is the id of the element the root component replaces.
	DefaultMountID = "app"

	// DefaultReadTimeout bounds how long a session may stay silent.
	DefaultReadTimeout = 60 * time.Second

	// DefaultWriteTimeout bounds a single frame write.
	DefaultWriteTimeout = 10 * time.Second

	// DefaultMaxMessageSize is the largest inbound frame accepted.
	DefaultMaxMessageSize = 64 * 1024

	// DefaultMetricsPath is where Prometheus metrics are served.
	DefaultMetricsPath = "/metrics"

	// DefaultNamespace is the Prometheus metrics namespace.
	DefaultNamespace = "cellui"
)

// Config represents the complete cellui.yaml configuration.
type Config struct {
	// App contains application metadata.
	App AppConfig `yaml:"app"`

	// Server contains live server settings.
	Server ServerConfig `yaml:"server"`

	// Runtime contains reactive runtime settings.
	Runtime RuntimeConfig `yaml:"runtime"`

	// Metrics contains Prometheus settings.
	Metrics MetricsConfig `yaml:"metrics"`

	// configPath stores the path where the config was loaded from.
	configPath string
}

// AppConfig contains application metadata.
type AppConfig struct {
	// Name is the application name, used as the page title.
	Name string `yaml:"name,omitempty"`

	// MountID is the id of the element the root component replaces.
	MountID string `yaml:"mount_id,omitempty"`
}

// ServerConfig contains live server settings.
type ServerConfig struct {
	// Addr is the listen address.
	Addr string `yaml:"addr,omitempty"`

	// ReadTimeout closes sessions that stay silent longer (e.g. "60s").
	ReadTimeout time.Duration `yaml:"read_timeout,omitempty"`

	// WriteTimeout bounds a single frame write.
	WriteTimeout time.Duration `yaml:"write_timeout,omitempty"`

	// MaxMessageSize is the largest inbound frame in bytes.
	MaxMessageSize int64 `yaml:"max_message_size,omitempty"`

	// InboxSize is the capacity of each runtime's request channel.
	InboxSize int `yaml:"inbox_size,omitempty"`

	// AllowedOrigins lists the origins accepted for WebSocket upgrades.
	// Empty means same-origin only.
	AllowedOrigins []string `yaml:"allowed_origins,omitempty"`
}

// RuntimeConfig contains reactive runtime settings.
type RuntimeConfig struct {
	// Mode is "development" or "release".
	Mode string `yaml:"mode,omitempty"`
}

// MetricsConfig contains Prometheus settings.
type MetricsConfig struct {
	// Enabled exposes the metrics endpoint.
	Enabled bool `yaml:"enabled"`

	// Path is the metrics endpoint path.
	Path string `yaml:"path,omitempty"`

	// Namespace is the metrics namespace.
	Namespace string `yaml:"namespace,omitempty"`
}

// New creates a new Config with default values.
func New() *Config {
	return &Config{
		App: AppConfig{
			Name:    "cellui",
			MountID: DefaultMountID,
		},
		Server: ServerConfig{
			Addr:           DefaultAddr,
			ReadTimeout:    DefaultReadTimeout,
			WriteTimeout:   DefaultWriteTimeout,
			MaxMessageSize: DefaultMaxMessageSize,
			InboxSize:      reactive.DefaultInboxSize,
		},
		Runtime: RuntimeConfig{
			Mode: "release",
		},
		Metrics: MetricsConfig{
			Enabled:   true,
			Path:      DefaultMetricsPath,
			Namespace: DefaultNamespace,
		},
	}
}

// Load reads configuration from the specified directory.
// It looks for cellui.yaml in the directory.
func Load(dir string) (*Config, error) {
	return LoadFile(filepath.Join(dir, ConfigFileName))
}

// LoadOptional reads cellui.yaml from dir if present and returns the
// defaults otherwise.
func LoadOptional(dir string) (*Config, error) {
	if !Exists(dir) {
		return New(), nil
	}
	return Load(dir)
}

// LoadFile reads configuration from the specified file path.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New(errors.CodeConfigRead).
				WithDetail("No " + ConfigFileName + " found in " + filepath.Dir(path)).
				WithSuggestion("Create " + ConfigFileName + " or run without --config to use the defaults")
		}
		return nil, errors.New(errors.CodeConfigRead).Wrap(err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, err
	}
	cfg.configPath = path
	return cfg, nil
}

// Parse decodes a configuration document over the defaults.
func Parse(data []byte) (*Config, error) {
	cfg := New()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.New(errors.CodeConfigRead).
			WithDetail("Failed to parse " + ConfigFileName + ": " + err.Error()).
			WithSuggestion("Check that " + ConfigFileName + " is valid YAML")
	}
	cfg.applyDefaults()
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
	data, err := yaml.Marshal(c)
	if err != nil {
		return errors.New(errors.CodeConfigRead).Wrap(err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.New(errors.CodeConfigRead).Wrap(err)
	}
	c.configPath = path
	return nil
}

// Path returns the path where the config was loaded from.
func (c *Config) Path() string {
	return c.configPath
}

// applyDefaults fills in default values for fields set to their zero value
// explicitly in the file.
func (c *Config) applyDefaults() {
	d := New()
	if c.App.MountID == "" {
		c.App.MountID = d.App.MountID
	}
	if c.Server.Addr == "" {
		c.Server.Addr = d.Server.Addr
	}
	if c.Server.InboxSize == 0 {
		c.Server.InboxSize = d.Server.InboxSize
	}
	if c.Server.MaxMessageSize == 0 {
		c.Server.MaxMessageSize = d.Server.MaxMessageSize
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = d.Metrics.Path
	}
	if c.Metrics.Namespace == "" {
		c.Metrics.Namespace = d.Metrics.Namespace
	}
}

// Environment variables that override file settings.
const (
	EnvMode    = "CELLUI_MODE"
	EnvAddr    = "CELLUI_ADDR"
	EnvMetrics = "CELLUI_METRICS"
)

// ApplyEnv overrides settings from the process environment.
func (c *Config) ApplyEnv() error {
	return c.applyEnv(os.LookupEnv)
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	var errs error
	if v, ok := lookup(EnvMode); ok && v != "" {
		c.Runtime.Mode = v
	}
	if v, ok := lookup(EnvAddr); ok && v != "" {
		c.Server.Addr = v
	}
	if v, ok := lookup(EnvMetrics); ok && v != "" {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			errs = multierr.Append(errs, errors.New(errors.CodeConfigInvalid).
				WithDetail(fmt.Sprintf("%s must be a boolean, got %q", EnvMetrics, v)))
		} else {
			c.Metrics.Enabled = enabled
		}
	}
	return errs
}

// Validate checks the configuration and reports every problem found.
func (c *Config) Validate() error {
	var errs error
	invalid := func(format string, args ...any) {
		errs = multierr.Append(errs, errors.New(errors.CodeConfigInvalid).WithDetail(fmt.Sprintf(format, args...)))
	}

	if _, _, err := net.SplitHostPort(c.Server.Addr); err != nil {
		invalid("server.addr %q is not host:port", c.Server.Addr)
	}
	if c.Server.ReadTimeout < 0 {
		invalid("server.read_timeout must not be negative")
	}
	if c.Server.WriteTimeout < 0 {
		invalid("server.write_timeout must not be negative")
	}
	if c.Server.MaxMessageSize < 0 {
		invalid("server.max_message_size must be positive")
	}
	if c.Server.InboxSize < 0 {
		invalid("server.inbox_size must be positive")
	}
	if _, err := reactive.ParseMode(c.Runtime.Mode); err != nil {
		invalid("runtime.mode %q must be development or release", c.Runtime.Mode)
	}
	if c.Metrics.Enabled && !strings.HasPrefix(c.Metrics.Path, "/") {
		invalid("metrics.path %q must start with /", c.Metrics.Path)
	}
	if c.App.MountID == "" {
		invalid("app.mount_id must not be empty")
	}
	return errs
}

// Mode returns the runtime mode. Invalid values select Release.
func (c *Config) Mode() reactive.Mode {
	m, _ := reactive.ParseMode(c.Runtime.Mode)
	return m
}

// Exists checks if a config file exists in the given directory.
func Exists(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, ConfigFileName))
	return err == nil
}

// FindProjectRoot walks up directories to find the project root.
// Returns the directory containing cellui.yaml, or an error if not found.
func FindProjectRoot(startDir string) (string, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", err
	}

	for {
		if Exists(dir) {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", errors.New(errors.CodeConfigRead).
				WithDetail("No " + ConfigFileName + " found in " + startDir + " or any parent directory")
		}
		dir = parent
	}
}
