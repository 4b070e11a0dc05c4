package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/entrhq/atlas-bridge/pkg/types"
)

// Environment variables that override values from the config file.
const (
	EnvBaseURL  = "ATLAS_BASE_URL"
	EnvEmail    = "ATLAS_EMAIL"
	EnvPassword = "ATLAS_PASSWORD"
	EnvHeadless = "ATLAS_HEADLESS"
	EnvLogDir   = "ATLAS_LOG_DIR"
)

// DefaultBaseURL is the clinic application the bridge targets when nothing else is configured.
const DefaultBaseURL = "https://atlas.staging.goflighthealth.com"

// Config represents the configuration for the automation bridge
type Config struct {
	// Root of the clinic web application
	BaseURL string `yaml:"base_url" json:"base_url"`

	Credentials types.Credentials `yaml:"credentials" json:"credentials"`

	Browser  BrowserConfig `yaml:"browser" json:"browser"`
	Timeouts TimeoutConfig `yaml:"timeouts" json:"timeouts"`
	Patterns PatternConfig `yaml:"patterns" json:"patterns"`
	Logging  LoggingConfig `yaml:"logging" json:"logging"`
}

// BrowserConfig controls how the Chromium process is launched
type BrowserConfig struct {
	Headless       bool          `yaml:"headless" json:"headless"`
	UserAgent      string        `yaml:"user_agent" json:"user_agent"`
	ViewportWidth  int           `yaml:"viewport_width" json:"viewport_width"`
	ViewportHeight int           `yaml:"viewport_height" json:"viewport_height"`
	Args           []string      `yaml:"args" json:"args"`
	DefaultTimeout time.Duration `yaml:"default_timeout" json:"default_timeout"`
}

// TimeoutConfig holds the bounded waits used throughout the workflows.
// Values are yaml duration strings such as "10s" or "1500ms".
type TimeoutConfig struct {
	Navigation     time.Duration `yaml:"navigation" json:"navigation"`
	Probe          time.Duration `yaml:"probe" json:"probe"`
	Selector       time.Duration `yaml:"selector" json:"selector"`
	LoginSubmit    time.Duration `yaml:"login_submit" json:"login_submit"`
	SearchInput    time.Duration `yaml:"search_input" json:"search_input"`
	SearchSettle   time.Duration `yaml:"search_settle" json:"search_settle"`
	Table          time.Duration `yaml:"table" json:"table"`
	TriggerHref    time.Duration `yaml:"trigger_href" json:"trigger_href"`
	Overlay        time.Duration `yaml:"overlay" json:"overlay"`
	OverlayContent time.Duration `yaml:"overlay_content" json:"overlay_content"`
	Description    time.Duration `yaml:"description" json:"description"`
	ModalClose     time.Duration `yaml:"modal_close" json:"modal_close"`
	Settle         time.Duration `yaml:"settle" json:"settle"`
	PostTrigger    time.Duration `yaml:"post_trigger" json:"post_trigger"`
	ResultSettle   time.Duration `yaml:"result_settle" json:"result_settle"`
}

// PatternConfig holds glob patterns matched against URLs
type PatternConfig struct {
	// LoginURL matches the sign-in page; landing on it means the session is gone
	LoginURL string `yaml:"login_url" json:"login_url"`
	// TaskPost matches the request that creates a task
	TaskPost string `yaml:"task_post" json:"task_post"`
}

// LoggingConfig defines logging configuration
type LoggingConfig struct {
	// Verbosity controls logging level: quiet, normal, verbose, debug
	Verbosity string `yaml:"verbosity" json:"verbosity"`
	// Dir overrides the log directory (default ~/.atlas-bridge/logs)
	Dir string `yaml:"dir" json:"dir"`
	// Mirror copies log lines to stderr in addition to the log file
	Mirror bool `yaml:"mirror" json:"mirror"`
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		BaseURL: DefaultBaseURL,
		Browser: BrowserConfig{
			Headless:       true,
			UserAgent:      "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
			ViewportWidth:  1280,
			ViewportHeight: 720,
			Args: []string{
				"--no-sandbox",
				"--disable-setuid-sandbox",
				"--disable-dev-shm-usage",
				"--disable-accelerated-2d-canvas",
				"--no-first-run",
				"--no-zygote",
				"--disable-gpu",
			},
			DefaultTimeout: 30 * time.Second,
		},
		Timeouts: TimeoutConfig{
			Navigation:     30 * time.Second,
			Probe:          10 * time.Second,
			Selector:       10 * time.Second,
			LoginSubmit:    15 * time.Second,
			SearchInput:    5 * time.Second,
			SearchSettle:   2 * time.Second,
			Table:          10 * time.Second,
			TriggerHref:    2 * time.Second,
			Overlay:        10 * time.Second,
			OverlayContent: 5 * time.Second,
			Description:    3 * time.Second,
			ModalClose:     5 * time.Second,
			Settle:         3 * time.Second,
			PostTrigger:    2 * time.Second,
			ResultSettle:   2 * time.Second,
		},
		Patterns: PatternConfig{
			LoginURL: "*/login*",
			TaskPost: "*/tasks*",
		},
		Logging: LoggingConfig{
			Verbosity: "normal",
		},
	}
}

// Load builds the configuration from defaults, an optional yaml file, an
// optional dotenv file and the process environment, in that order.
// Empty paths are skipped. A missing dotenv file is not an error.
func Load(path, envFile string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load env file: %w", err)
		}
	}

	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv overrides fields from environment variables looked up with lookup.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup(EnvBaseURL); ok && v != "" {
		c.BaseURL = v
	}
	if v, ok := lookup(EnvEmail); ok && v != "" {
		c.Credentials.Email = v
	}
	if v, ok := lookup(EnvPassword); ok && v != "" {
		c.Credentials.Password = v
	}
	if v, ok := lookup(EnvHeadless); ok && v != "" {
		headless, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid %s value %q: %w", EnvHeadless, v, err)
		}
		c.Browser.Headless = headless
	}
	if v, ok := lookup(EnvLogDir); ok && v != "" {
		c.Logging.Dir = v
	}
	return nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("base_url is required")
	}
	if !strings.HasPrefix(c.BaseURL, "http://") && !strings.HasPrefix(c.BaseURL, "https://") {
		return fmt.Errorf("base_url must be an http or https URL: %s", c.BaseURL)
	}
	c.BaseURL = strings.TrimRight(c.BaseURL, "/")

	if c.Browser.ViewportWidth <= 0 || c.Browser.ViewportHeight <= 0 {
		return fmt.Errorf("browser viewport must be positive, got %dx%d", c.Browser.ViewportWidth, c.Browser.ViewportHeight)
	}

	for name, d := range c.Timeouts.named() {
		if d < 0 {
			return fmt.Errorf("timeouts.%s cannot be negative", name)
		}
	}

	if c.Patterns.LoginURL == "" {
		return fmt.Errorf("patterns.login_url is required")
	}

	switch c.Logging.Verbosity {
	case "", "quiet", "normal", "verbose", "debug":
	default:
		return fmt.Errorf("invalid logging verbosity: %s (must be quiet, normal, verbose or debug)", c.Logging.Verbosity)
	}

	return nil
}

// RequireCredentials fails when no sign-in identity is configured.
// It is checked lazily because commands such as version never log in.
func (c *Config) RequireCredentials() error {
	if c.Credentials.Email == "" || c.Credentials.Password == "" {
		return fmt.Errorf("credentials are required: set %s and %s or credentials in the config file", EnvEmail, EnvPassword)
	}
	return nil
}

// URL joins path onto the base URL.
func (c *Config) URL(path string) string {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return strings.TrimRight(c.BaseURL, "/") + path
}

func (t TimeoutConfig) named() map[string]time.Duration {
	return map[string]time.Duration{
		"navigation":      t.Navigation,
		"probe":           t.Probe,
		"selector":        t.Selector,
		"login_submit":    t.LoginSubmit,
		"search_input":    t.SearchInput,
		"search_settle":   t.SearchSettle,
		"table":           t.Table,
		"trigger_href":    t.TriggerHref,
		"overlay":         t.Overlay,
		"overlay_content": t.OverlayContent,
		"description":     t.Description,
		"modal_close":     t.ModalClose,
		"settle":          t.Settle,
		"post_trigger":    t.PostTrigger,
		"result_settle":   t.ResultSettle,
	}
}
