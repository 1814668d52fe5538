package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// Config represents the complete application configuration. Environment keys
// are derived from field names, e.g. SWLIC_PORTAL_LOOKUP_TIMEOUT.
type Config struct {
	Server       ServerConfig      `yaml:"server" split_words:"true"`
	Security     SecurityConfig    `yaml:"security" split_words:"true"`
	Logging      LoggingConfig     `yaml:"logging" split_words:"true"`
	Portal       PortalConfig      `yaml:"portal" split_words:"true"`
	ServicePacks ServicePackConfig `yaml:"service_packs" split_words:"true"`
	Telemetry    TelemetryConfig   `yaml:"telemetry" split_words:"true"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Host            string        `yaml:"host" split_words:"true"`
	Port            int           `yaml:"port" split_words:"true"`
	ReadTimeout     time.Duration `yaml:"read_timeout" split_words:"true"`
	WriteTimeout    time.Duration `yaml:"write_timeout" split_words:"true"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" split_words:"true"`
	MaxHeaderBytes  int           `yaml:"max_header_bytes" split_words:"true"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" split_words:"true"`
	RequestTimeout  time.Duration `yaml:"request_timeout" split_words:"true"`
}

// Addr returns the listen address
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// SecurityConfig contains security-related configuration
type SecurityConfig struct {
	AllowedOrigins []string        `yaml:"allowed_origins" split_words:"true"`
	EnableCORS     bool            `yaml:"enable_cors" split_words:"true"`
	RateLimit      RateLimitConfig `yaml:"rate_limit" split_words:"true"`
	Auth           AuthConfig      `yaml:"auth" split_words:"true"`
}

// RateLimitConfig contains rate limiting configuration
type RateLimitConfig struct {
	Enabled bool    `yaml:"enabled" split_words:"true"`
	RPS     float64 `yaml:"rps" split_words:"true"`
	Burst   int     `yaml:"burst" split_words:"true"`
}

// AuthConfig holds the HTTP basic auth account. PasswordHash is a bcrypt hash
// and takes precedence over Password when both are set.
type AuthConfig struct {
	Enabled      bool   `yaml:"enabled" split_words:"true"`
	Realm        string `yaml:"realm" split_words:"true"`
	Username     string `yaml:"username" split_words:"true"`
	Password     string `yaml:"password" split_words:"true"`
	PasswordHash string `yaml:"password_hash" split_words:"true"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level       string `yaml:"level" split_words:"true"`
	Format      string `yaml:"format" split_words:"true"`
	Output      string `yaml:"output" split_words:"true"`
	FilePath    string `yaml:"file_path" split_words:"true"`
	Development bool   `yaml:"development" split_words:"true"`
}

// PortalConfig controls the browser session against the license portal
type PortalConfig struct {
	LoginURL        string          `yaml:"login_url" split_words:"true"`
	CredentialsFile string          `yaml:"credentials_file" split_words:"true"`
	Username        string          `yaml:"username" split_words:"true"`
	Password        string          `yaml:"password" split_words:"true"`
	Headless        bool            `yaml:"headless" split_words:"true"`
	ChromePath      string          `yaml:"chrome_path" split_words:"true"`
	StepTimeout     time.Duration   `yaml:"step_timeout" split_words:"true"`
	LookupTimeout   time.Duration   `yaml:"lookup_timeout" split_words:"true"`
	MaxSessions     int             `yaml:"max_sessions" split_words:"true"`
	Selectors       PortalSelectors `yaml:"selectors" split_words:"true"`
}

// PortalSelectors are the element queries used on the portal pages
type PortalSelectors struct {
	UsernameField   string `yaml:"username_field" split_words:"true"`
	PasswordField   string `yaml:"password_field" split_words:"true"`
	ViewLinkText    string `yaml:"view_link_text" split_words:"true"`
	ProductName     string `yaml:"product_name" split_words:"true"`
	Version         string `yaml:"version" split_words:"true"`
	MaintenanceEnd  string `yaml:"maintenance_end" split_words:"true"`
	SerialNumber    string `yaml:"serial_number" split_words:"true"`
	ActivationTable string `yaml:"activation_table" split_words:"true"`
}

// ServicePackConfig selects where the service pack table comes from
type ServicePackConfig struct {
	Source          string `yaml:"source" split_words:"true"`
	File            string `yaml:"file" split_words:"true"`
	SpreadsheetID   string `yaml:"spreadsheet_id" split_words:"true"`
	Range           string `yaml:"range" split_words:"true"`
	CredentialsFile string `yaml:"credentials_file" split_words:"true"`
}

// TelemetryConfig selects OpenTelemetry exporters
type TelemetryConfig struct {
	ServiceName     string `yaml:"service_name" split_words:"true"`
	TraceExporter   string `yaml:"trace_exporter" split_words:"true"`
	MetricsExporter string `yaml:"metrics_exporter" split_words:"true"`
}

// Load loads configuration from defaults, the first config file found in the
// usual locations, and SWLIC_* environment variables, in that order.
func Load() (*Config, error) {
	return LoadFrom(FindConfigFile())
}

// LoadFrom is Load with an explicit config file. An empty path skips the file.
func LoadFrom(configFile string) (*Config, error) {
	cfg, err := load(configFile)
	if err != nil {
		return nil, err
	}
	if err := cfg.validateServer(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// LoadClient is LoadFrom for commands that never start the HTTP server. The
// server and security sections are not validated.
func LoadClient(configFile string) (*Config, error) {
	return load(configFile)
}

func load(configFile string) (*Config, error) {
	cfg := Default()

	if configFile != "" {
		if err := loadFromFile(configFile, cfg); err != nil {
			return nil, fmt.Errorf("failed to load config from file: %w", err)
		}
	}

	// Fields without a matching variable keep their current value, so the
	// environment only overrides what it sets.
	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}
	if err := applyLegacyPort(cfg); err != nil {
		return nil, err
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// loadFromFile overlays a YAML file onto cfg
func loadFromFile(filePath string, cfg *Config) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// applyLegacyPort honours a bare PORT variable when SWLIC_SERVER_PORT is unset
func applyLegacyPort(cfg *Config) error {
	if _, ok := os.LookupEnv(EnvPrefix + "_SERVER_PORT"); ok {
		return nil
	}
	raw, ok := os.LookupEnv("PORT")
	if !ok || raw == "" {
		return nil
	}
	port, err := strconv.Atoi(raw)
	if err != nil {
		return fmt.Errorf("invalid PORT %q: %w", raw, err)
	}
	cfg.Server.Port = port
	return nil
}

// validateServer checks the sections only the HTTP server uses
func (c *Config) validateServer() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.Server.ReadTimeout <= 0 {
		return fmt.Errorf("server read timeout must be positive")
	}

	if c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("server write timeout must be positive")
	}

	if c.Security.EnableCORS && len(c.Security.AllowedOrigins) == 0 {
		return fmt.Errorf("at least one allowed origin must be specified when CORS is enabled")
	}

	if c.Security.RateLimit.Enabled && (c.Security.RateLimit.RPS <= 0 || c.Security.RateLimit.Burst <= 0) {
		return fmt.Errorf("rate limit rps and burst must be positive")
	}

	auth := c.Security.Auth
	if auth.Enabled {
		if auth.Username == "" {
			return fmt.Errorf("basic auth enabled without a username")
		}
		if auth.Password == "" && auth.PasswordHash == "" {
			return fmt.Errorf("basic auth enabled without a password or password_hash")
		}
	}
	return nil
}

// validate checks the sections every command depends on
func (c *Config) validate() error {
	if c.Portal.StepTimeout <= 0 || c.Portal.LookupTimeout <= 0 {
		return fmt.Errorf("portal timeouts must be positive")
	}
	if c.Portal.MaxSessions <= 0 {
		return fmt.Errorf("portal max_sessions must be positive, got %d", c.Portal.MaxSessions)
	}

	switch c.ServicePacks.Source {
	case ServicePackSourceFile:
		if c.ServicePacks.File == "" {
			return fmt.Errorf("service pack source %q requires a file", c.ServicePacks.Source)
		}
	case ServicePackSourceSheets:
		if c.ServicePacks.SpreadsheetID == "" {
			return fmt.Errorf("service pack source %q requires a spreadsheet_id", c.ServicePacks.Source)
		}
	default:
		return fmt.Errorf("unknown service pack source %q", c.ServicePacks.Source)
	}

	c.Logging.Level = strings.ToLower(c.Logging.Level)
	if c.Logging.Format != "json" && c.Logging.Format != "text" {
		c.Logging.Format = "json"
	}
	if c.Logging.Output != "console" && c.Logging.Output != "file" && c.Logging.Output != "both" {
		c.Logging.Output = "console"
	}
	if c.Logging.Output != "console" && c.Logging.FilePath == "" {
		c.Logging.FilePath = DefaultLogFile
	}

	return nil
}

// FindConfigFile returns SWLIC_CONFIG or the first config file found in the
// usual locations. An empty result means defaults and environment only.
func FindConfigFile() string {
	if p := os.Getenv(EnvPrefix + "_CONFIG"); p != "" {
		return p
	}

	locations := []string{
		"config.yaml",
		"configs/config.yaml",
		"../configs/config.yaml",
	}

	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location
		}
	}

	return "" // No config file found, use env vars only
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            DefaultPort,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    DefaultLookupTimeout + 30*time.Second,
			IdleTimeout:     60 * time.Second,
			MaxHeaderBytes:  1 << 20, // 1MB
			ShutdownTimeout: 30 * time.Second,
			RequestTimeout:  DefaultLookupTimeout + 10*time.Second,
		},
		Security: SecurityConfig{
			AllowedOrigins: []string{"http://localhost:3000"},
			EnableCORS:     true,
			RateLimit: RateLimitConfig{
				Enabled: true,
				RPS:     5,
				Burst:   10,
			},
			Auth: AuthConfig{
				Enabled:  true,
				Realm:    DefaultAuthRealm,
				Username: DefaultAuthUser,
			},
		},
		Logging: LoggingConfig{
			Level:    "info",
			Format:   "json",
			Output:   "console",
			FilePath: DefaultLogFile,
		},
		Portal: PortalConfig{
			LoginURL:        DefaultLoginURL,
			CredentialsFile: DefaultCredentialsFile,
			Headless:        true,
			StepTimeout:     DefaultStepTimeout,
			LookupTimeout:   DefaultLookupTimeout,
			MaxSessions:     DefaultMaxSessions,
			Selectors: PortalSelectors{
				UsernameField:   "#Login2_txtName",
				PasswordField:   "#Login2_txtPassword",
				ViewLinkText:    "View",
				ProductName:     "#lblProdName",
				Version:         "#lblVersion",
				MaintenanceEnd:  "#lblMaintEnd",
				SerialNumber:    "#lblSerialNumber",
				ActivationTable: "#dgReport",
			},
		},
		ServicePacks: ServicePackConfig{
			Source: ServicePackSourceFile,
			File:   DefaultServicePackFile,
			Range:  "ServicePacks!A:C",
		},
		Telemetry: TelemetryConfig{
			ServiceName:     AppName,
			TraceExporter:   "none",
			MetricsExporter: "prometheus",
		},
	}
}
