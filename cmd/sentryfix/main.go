package main

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/tildaslashalef/sentryfix/internal/app"
	"github.com/tildaslashalef/sentryfix/internal/commands"
)

// Version information - populated at build time
var (
	Version    = "dev"
	BuildTime  = "unknown"
	CommitHash = "unknown"
	Author     = "unknown"
	Email      = "unknown"
)

func main() {
	cliApp := &cli.App{
		Name:  "sentryfix",
		Usage: "LLM-powered fix proposals for Sentry issues",
		Description: "Sentryfix fetches unresolved issues from Sentry, analyzes their stack traces " +
			"against your local checkout, and asks Claude for a reviewable fix proposal.\n\n" +
			"When run without subcommands, Sentryfix performs a full autofix run (default action).\n" +
			"Additional subcommands preview candidate issues and render saved proposals.",
		Version: Version,
		Compiled: func() time.Time {
			t, err := time.Parse(time.RFC3339, BuildTime)
			if err != nil {
				return time.Now()
			}
			return t
		}(),
		Authors: []*cli.Author{
			{
				Name:  Author,
				Email: Email,
			},
		},
		Flags: commands.RunCommand().Flags,
		Before: func(c *cli.Context) error {
			// Initialize the application
			application, err := app.New()
			if err != nil {
				return fmt.Errorf("failed to initialize application: %w", err)
			}

			// Store the app instance in the context for later use
			c.App.Metadata = map[string]interface{}{
				"app": application,
			}

			return nil
		},
		After: func(c *cli.Context) error {
			// Gracefully shutdown the application
			if app, ok := c.App.Metadata["app"].(*app.App); ok {
				return app.Shutdown()
			}
			return nil
		},
		Commands: []*cli.Command{
			commands.RunCommand(),
			commands.IssuesCommand(),
			commands.ShowCommand(),
			commands.InitCommand(),
		},
		Action: func(c *cli.Context) error {
			// Default action is to run the autofix pipeline
			return commands.RunCommand().Action(c)
		},
	}

	if err := cliApp.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
