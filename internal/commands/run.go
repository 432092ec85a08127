package commands

import (
	"fmt"
	"strings"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/tildaslashalef/sentryfix/internal/app"
	"github.com/tildaslashalef/sentryfix/internal/autofix"
	"github.com/tildaslashalef/sentryfix/internal/utils"
)

// RunCommand returns the CLI command for a full autofix run
func RunCommand() *cli.Command {
	return &cli.Command{
		Name:  "run",
		Usage: "Fetch unresolved issues and generate fix proposals",
		Description: "Fetches unresolved issues from Sentry, analyzes each eligible one with " +
			"Claude, and writes a reviewable fix proposal per issue. Optionally posts the " +
			"proposal back as an issue comment and opens a pull request.",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "dry-run",
				Usage: "Analyze and generate proposals but persist nothing",
			},
			&cli.IntFlag{
				Name:  "limit",
				Usage: "Override the configured maximum number of issues to process",
			},
		},
		Action: runAction,
	}
}

func runAction(c *cli.Context) error {
	application, err := app.FromContext(c)
	if err != nil {
		return err
	}

	if err := application.Config.ValidateForRun(); err != nil {
		utils.PrintError(fmt.Sprintf("Configuration incomplete: %s", err))
		return err
	}

	opts := autofix.RunOptions{
		DryRun: c.Bool("dry-run"),
		Limit:  c.Int("limit"),
	}

	if opts.DryRun {
		utils.PrintInfo("Dry run: proposals will be generated but nothing is persisted")
	}

	summary, err := application.Autofix.Run(c.Context, opts)
	if err != nil {
		utils.PrintError(fmt.Sprintf("Run failed: %s", err))
		return err
	}

	printRunSummary(summary)
	return nil
}

func printRunSummary(summary *autofix.RunSummary) {
	if len(summary.Results) == 0 {
		utils.PrintInfo("No unresolved issues found")
		return
	}

	headers := []string{"Issue", "Title", "Status", "Confidence", "Details"}
	rows := make([][]string, 0, len(summary.Results))
	for _, r := range summary.Results {
		rows = append(rows, []string{
			r.ShortID,
			utils.TruncateString(r.Title, 48),
			string(r.Status),
			string(r.Confidence),
			resultDetails(r),
		})
	}

	title := fmt.Sprintf("Autofix Run %s", summary.RunID)
	utils.PrintTable(title, headers, rows)

	proposed, skipped, failed := summary.Counts()
	utils.PrintSuccess(fmt.Sprintf("%d proposed, %d skipped, %d failed (in %s)",
		proposed, skipped, failed,
		summary.FinishedAt.Sub(summary.StartedAt).Round(time.Millisecond)))
}

// resultDetails condenses the interesting part of a result into one cell
func resultDetails(r autofix.IssueResult) string {
	switch r.Status {
	case autofix.StatusSkipped:
		return r.SkipReason
	case autofix.StatusFailed:
		if r.Err != nil {
			return utils.TruncateString(r.Err.Error(), 60)
		}
		return ""
	default:
		parts := []string{}
		if r.MDPath != "" {
			parts = append(parts, r.MDPath)
		}
		if r.Commented {
			parts = append(parts, "commented")
		}
		if r.PRURL != "" {
			parts = append(parts, r.PRURL)
		}
		return strings.Join(parts, " ")
	}
}
