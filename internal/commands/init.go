package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/urfave/cli/v2"

	"github.com/tildaslashalef/sentryfix/internal/config"
	"github.com/tildaslashalef/sentryfix/internal/utils"
)

// InitCommand returns the CLI command for initializing Sentryfix
func InitCommand() *cli.Command {
	return &cli.Command{
		Name:  "init",
		Usage: "Initialize or update the Sentryfix environment",
		Description: "Sets up the Sentryfix configuration directory with a sample environment " +
			"file. Use this command for first-time setup, then fill in your Sentry, Claude, " +
			"and GitHub credentials.",
		Action: func(c *cli.Context) error {
			utils.PrintHeading("Initializing Sentryfix")

			homeDir, err := os.UserHomeDir()
			if err != nil {
				utils.PrintError(fmt.Sprintf("Failed to get user home directory: %s", err))
				return fmt.Errorf("failed to get user home directory: %w", err)
			}

			configDir := filepath.Join(homeDir, ".sentryfix")
			utils.PrintInfo("Configuration directory: " + color.YellowString("%s", configDir))

			if err := os.MkdirAll(configDir, 0755); err != nil {
				utils.PrintError(fmt.Sprintf("Failed to create config directory: %s", err))
				return fmt.Errorf("failed to create config directory: %w", err)
			}

			// Extract the sample environment file, backing up an existing one
			utils.PrintInfo("Extracting default configuration file")
			configFilePath := filepath.Join(configDir, ".env")
			if err := config.SetupConfigDirectory(configDir, true); err != nil {
				utils.PrintWarning(fmt.Sprintf("Failed to set up configuration files: %s", err))
				// Continue anyway as this is not critical
			}

			cfg, err := config.LoadFromEnv(configDir, configFilePath)
			if err != nil {
				utils.PrintError(fmt.Sprintf("Failed to load configuration: %s", err))
				return fmt.Errorf("failed to load configuration: %w", err)
			}

			utils.PrintSuccess("✓ Sentryfix initialized successfully!")
			utils.PrintInfo("Configuration file: " + color.YellowString("%s", configFilePath))
			utils.PrintInfo("Proposal output directory: " + color.YellowString("%s", cfg.Output.Dir))
			utils.PrintInfo("Log output: " + color.YellowString("%s", cfg.Logging.Output))
			fmt.Println("")
			utils.PrintInfo("Edit the configuration file, then run " + color.CyanString("sentryfix") + " to generate fix proposals.")

			return nil
		},
	}
}
