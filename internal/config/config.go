package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"
)

var (
	// Global configuration instance
	globalConfig *Config
	configMutex  sync.RWMutex
)

// Get returns the global configuration instance
// If the configuration has not been initialized, it will return an error
func Get() (*Config, error) {
	configMutex.RLock()
	defer configMutex.RUnlock()

	if globalConfig == nil {
		return nil, fmt.Errorf("configuration not initialized")
	}

	return globalConfig, nil
}

// Set sets the global configuration instance
func Set(cfg *Config) {
	configMutex.Lock()
	defer configMutex.Unlock()

	globalConfig = cfg
}

// Config represents the complete application configuration
type Config struct {
	Sentry    SentryConfig
	Claude    ClaudeConfig
	Codebase  CodebaseConfig
	Output    OutputConfig
	GitHub    GitHubConfig
	Logging   LoggingConfig
	configDir string // Internal: Directory where config was loaded from
}

// SentryConfig holds Sentry API configuration
type SentryConfig struct {
	AuthToken    string        // Sentry API auth token
	Organization string        // Sentry organization slug
	Project      string        // Sentry project slug
	BaseURL      string        // Sentry API base URL
	Timeout      time.Duration // Request timeout
	MaxIssues    int           // Maximum issues fetched (and processed) per run
	Query        string        // Issue search query
	// MaxOccurrences is the eligibility cap: issues whose occurrence count
	// exceeds this are considered too noisy for automated analysis.
	MaxOccurrences int
}

// ClaudeConfig holds Claude API configuration
type ClaudeConfig struct {
	APIKey     string // Claude API key
	BaseURL    string // Claude API base URL
	APIVersion string // API version to use
	Model      string // Claude model to use

	Timeout time.Duration // Request timeout

	// Generation parameters
	MaxTokens   int     // Max tokens to generate for Claude responses
	Temperature float64 // Default temperature for Claude
	TopP        float64 // Top-p sampling parameter
	TopK        int     // Top-k sampling parameter

	// Rate limiting
	RequestsPerMinute int
	BurstLimit        int
}

// CodebaseConfig describes the local checkout of the monitored application
type CodebaseConfig struct {
	RootPath        string // Path to the local source checkout
	MaxContextFiles int    // Maximum affected files included in a prompt
	MaxFileChars    int    // Per-file content cap, truncation marker appended beyond it
	MaxStackFrames  int    // Maximum stack frames rendered in a prompt
}

// OutputConfig controls what the run produces besides logs
type OutputConfig struct {
	Dir                string // Directory for persisted proposal files
	PostComments       bool   // Whether to post a summary comment back to Sentry
	CreatePullRequests bool   // Whether to attempt the experimental patch+PR path
	BaseBranch         string // Base branch for created pull requests
}

// GitHubConfig represents GitHub-specific configuration
type GitHubConfig struct {
	Token          string        // GitHub Personal Access Token
	APIURL         string        // GitHub API base URL
	RequestTimeout time.Duration // Request timeout for GitHub API
	Owner          string        // Repository owner; derived from the git remote when empty
	Repo           string        // Repository name; derived from the git remote when empty
}

// LoggingConfig represents logging configuration
type LoggingConfig struct {
	Level      string // debug, info, warn, error
	Format     string // text or json
	Output     string // stdout, stderr, or file path
	AddSource  bool   // Include source code position in logs
	TimeFormat string // Time format for logs (empty uses RFC3339)
}

// New returns a new empty Config
func New() *Config {
	return &Config{
		Sentry:   SentryConfig{},
		Claude:   ClaudeConfig{},
		Codebase: CodebaseConfig{},
		Output:   OutputConfig{},
		GitHub:   GitHubConfig{},
		Logging:  LoggingConfig{},
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if err := c.validateSentry(); err != nil {
		return fmt.Errorf("sentry config: %w", err)
	}

	if err := c.validateClaude(); err != nil {
		return fmt.Errorf("claude config: %w", err)
	}

	if err := c.validateCodebase(); err != nil {
		return fmt.Errorf("codebase config: %w", err)
	}

	if err := c.validateOutput(); err != nil {
		return fmt.Errorf("output config: %w", err)
	}

	if err := c.validateLogging(); err != nil {
		return fmt.Errorf("logging config: %w", err)
	}

	return nil
}

// ValidateForRun checks the credentials a processing run cannot start without.
// Kept separate from Validate so read-only commands (show, init) can load a
// partial configuration.
func (c *Config) ValidateForRun() error {
	if c.Sentry.AuthToken == "" {
		return fmt.Errorf("sentry auth token is required (SENTRYFIX_SENTRY_AUTH_TOKEN)")
	}
	if c.Sentry.Organization == "" {
		return fmt.Errorf("sentry organization is required (SENTRYFIX_SENTRY_ORG)")
	}
	if c.Sentry.Project == "" {
		return fmt.Errorf("sentry project is required (SENTRYFIX_SENTRY_PROJECT)")
	}
	if c.Claude.APIKey == "" {
		return fmt.Errorf("claude API key is required (SENTRYFIX_CLAUDE_API_KEY)")
	}
	if c.Output.CreatePullRequests && c.GitHub.Token == "" {
		return fmt.Errorf("github token is required when PR creation is enabled (SENTRYFIX_GITHUB_TOKEN)")
	}
	return nil
}

// ParseLogLevel parses a log level string to a slog.Level
func ParseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	case "none":
		// Set to a very high level that won't be triggered
		return slog.Level(9999)
	default:
		return slog.LevelInfo
	}
}

func (c *Config) validateSentry() error {
	if c.Sentry.BaseURL == "" {
		return fmt.Errorf("base URL cannot be empty")
	}

	if c.Sentry.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}

	if c.Sentry.MaxIssues <= 0 {
		return fmt.Errorf("max_issues must be positive")
	}

	if c.Sentry.MaxOccurrences <= 0 {
		return fmt.Errorf("max_occurrences must be positive")
	}

	return nil
}

func (c *Config) validateClaude() error {
	if c.Claude.BaseURL == "" {
		return fmt.Errorf("base URL cannot be empty")
	}

	if c.Claude.Model == "" {
		return fmt.Errorf("model cannot be empty")
	}

	if c.Claude.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}

	if c.Claude.MaxTokens <= 0 {
		return fmt.Errorf("max_tokens must be positive")
	}

	return nil
}

func (c *Config) validateCodebase() error {
	if c.Codebase.MaxContextFiles <= 0 {
		return fmt.Errorf("max_context_files must be positive")
	}

	if c.Codebase.MaxFileChars <= 0 {
		return fmt.Errorf("max_file_chars must be positive")
	}

	if c.Codebase.MaxStackFrames <= 0 {
		return fmt.Errorf("max_stack_frames must be positive")
	}

	return nil
}

func (c *Config) validateOutput() error {
	if c.Output.Dir == "" {
		return fmt.Errorf("output directory cannot be empty")
	}

	if c.Output.CreatePullRequests && c.Output.BaseBranch == "" {
		return fmt.Errorf("base branch cannot be empty when PR creation is enabled")
	}

	return nil
}

func (c *Config) validateLogging() error {
	level := strings.ToLower(c.Logging.Level)
	if level != "debug" && level != "info" && level != "warn" && level != "error" && level != "none" {
		return fmt.Errorf("invalid log level: %s", c.Logging.Level)
	}

	format := strings.ToLower(c.Logging.Format)
	if format != "text" && format != "json" {
		return fmt.Errorf("invalid log format: %s", c.Logging.Format)
	}

	return nil
}

// ConfigDir returns the directory the configuration was loaded from
func (c *Config) ConfigDir() string {
	return c.configDir
}

// getEnvString returns a string from the environment variable
func getEnvString(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// getEnvInt returns an int from the environment variable
func getEnvInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvBool returns a bool from the environment variable
func getEnvBool(key string, defaultValue bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

// getEnvDuration returns a time.Duration from the environment variable
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// getEnvFloat returns a float64 from the environment variable
func getEnvFloat(key string, defaultValue float64) float64 {
	if value, exists := os.LookupEnv(key); exists {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}
