package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
)

// LoadFromEnv loads configuration from environment variables
// Parameters:
// - configDir: Directory containing config files (or empty for default)
// - configFilePath: Path to .env file (or empty for default)
func LoadFromEnv(configDir string, configFilePath string) (*Config, error) {
	cfg := New()

	// If configDir is empty, use the default
	if configDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get user home directory: %w", err)
		}
		configDir = filepath.Join(homeDir, ".sentryfix")

		if err := os.MkdirAll(configDir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create config directory: %w", err)
		}
	}
	cfg.configDir = configDir

	// Default output and log paths live in the config directory
	defaultOutputDir := filepath.Join(configDir, "proposals")
	defaultLogPath := filepath.Join(configDir, "sentryfix.log")

	// Use provided config file path or default
	if configFilePath == "" {
		configFilePath = filepath.Join(configDir, ".env")
	}

	// Check if ENV_FILE_PATH is set to load from a custom .env file
	envFilePath := getEnvString("ENV_FILE_PATH", "")
	if envFilePath != "" {
		// User specified a custom env file path
		err := godotenv.Load(envFilePath)
		if err != nil {
			return nil, fmt.Errorf("failed to load env file from %s: %w", envFilePath, err)
		}
	} else {
		// Try to load from config directory first
		err := godotenv.Load(configFilePath)
		if err != nil {
			// Then try current directory as fallback
			_ = godotenv.Load() // Ignore errors if file doesn't exist
		}
	}

	// Sentry configuration
	cfg.Sentry = SentryConfig{
		AuthToken:      getEnvString("SENTRYFIX_SENTRY_AUTH_TOKEN", ""),
		Organization:   getEnvString("SENTRYFIX_SENTRY_ORG", ""),
		Project:        getEnvString("SENTRYFIX_SENTRY_PROJECT", ""),
		BaseURL:        getEnvString("SENTRYFIX_SENTRY_BASE_URL", "https://sentry.io"),
		Timeout:        getEnvDuration("SENTRYFIX_SENTRY_TIMEOUT", 30*time.Second),
		MaxIssues:      getEnvInt("SENTRYFIX_SENTRY_MAX_ISSUES", 5),
		Query:          getEnvString("SENTRYFIX_SENTRY_QUERY", "is:unresolved"),
		MaxOccurrences: getEnvInt("SENTRYFIX_SENTRY_MAX_OCCURRENCES", 10000),
	}

	// Claude configuration
	cfg.Claude = ClaudeConfig{
		APIKey:            getEnvString("SENTRYFIX_CLAUDE_API_KEY", ""),
		BaseURL:           getEnvString("SENTRYFIX_CLAUDE_BASE_URL", "https://api.anthropic.com"),
		APIVersion:        getEnvString("SENTRYFIX_CLAUDE_API_VERSION", "2023-06-01"),
		Model:             getEnvString("SENTRYFIX_CLAUDE_MODEL", "claude-3-7-sonnet-20250219"),
		Timeout:           getEnvDuration("SENTRYFIX_CLAUDE_TIMEOUT", 120*time.Second),
		MaxTokens:         getEnvInt("SENTRYFIX_CLAUDE_MAX_TOKENS", 4096),
		Temperature:       getEnvFloat("SENTRYFIX_CLAUDE_TEMPERATURE", 0.1),
		TopP:              getEnvFloat("SENTRYFIX_CLAUDE_TOP_P", 0.9),
		TopK:              getEnvInt("SENTRYFIX_CLAUDE_TOP_K", 40),
		RequestsPerMinute: getEnvInt("SENTRYFIX_CLAUDE_REQUESTS_PER_MINUTE", 0),
		BurstLimit:        getEnvInt("SENTRYFIX_CLAUDE_BURST_LIMIT", 1),
	}

	// Codebase configuration
	cfg.Codebase = CodebaseConfig{
		RootPath:        getEnvString("SENTRYFIX_CODEBASE_ROOT", ""),
		MaxContextFiles: getEnvInt("SENTRYFIX_CODEBASE_MAX_CONTEXT_FILES", 5),
		MaxFileChars:    getEnvInt("SENTRYFIX_CODEBASE_MAX_FILE_CHARS", 5000),
		MaxStackFrames:  getEnvInt("SENTRYFIX_CODEBASE_MAX_STACK_FRAMES", 15),
	}

	// Output configuration
	cfg.Output = OutputConfig{
		Dir:                getEnvString("SENTRYFIX_OUTPUT_DIR", defaultOutputDir),
		PostComments:       getEnvBool("SENTRYFIX_OUTPUT_POST_COMMENTS", false),
		CreatePullRequests: getEnvBool("SENTRYFIX_OUTPUT_CREATE_PRS", false),
		BaseBranch:         getEnvString("SENTRYFIX_OUTPUT_BASE_BRANCH", "main"),
	}

	// GitHub configuration
	cfg.GitHub = GitHubConfig{
		Token:          getEnvString("SENTRYFIX_GITHUB_TOKEN", ""),
		APIURL:         getEnvString("SENTRYFIX_GITHUB_API_URL", "https://api.github.com"),
		RequestTimeout: getEnvDuration("SENTRYFIX_GITHUB_REQUEST_TIMEOUT", 30*time.Second),
		Owner:          getEnvString("SENTRYFIX_GITHUB_OWNER", ""),
		Repo:           getEnvString("SENTRYFIX_GITHUB_REPO", ""),
	}

	// Logging configuration
	cfg.Logging = LoggingConfig{
		Level:      getEnvString("SENTRYFIX_LOG_LEVEL", "info"),
		Format:     getEnvString("SENTRYFIX_LOG_FORMAT", "text"),
		Output:     getEnvString("SENTRYFIX_LOG_OUTPUT", defaultLogPath),
		AddSource:  getEnvBool("SENTRYFIX_LOG_ADD_SOURCE", true),
		TimeFormat: getEnvString("SENTRYFIX_LOG_TIME_FORMAT", time.RFC3339),
	}

	// Validate the configuration
	return cfg, cfg.Validate()
}
