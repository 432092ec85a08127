package commands

import (
	"errors"
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/tildaslashalef/sentryfix/internal/analyzer"
	"github.com/tildaslashalef/sentryfix/internal/app"
	"github.com/tildaslashalef/sentryfix/internal/sentry"
	"github.com/tildaslashalef/sentryfix/internal/utils"
)

// IssuesCommand returns the CLI command for previewing candidate issues
func IssuesCommand() *cli.Command {
	return &cli.Command{
		Name:  "issues",
		Usage: "List unresolved issues and their autofix eligibility",
		Description: "Fetches unresolved issues from Sentry and shows which ones would be " +
			"analyzed by a run, without calling the model or writing any files.",
		Action: issuesAction,
	}
}

func issuesAction(c *cli.Context) error {
	application, err := app.FromContext(c)
	if err != nil {
		return err
	}

	issues, err := application.Sentry.ListIssues(c.Context)
	if err != nil {
		utils.PrintError(fmt.Sprintf("Failed to fetch issues: %s", err))
		return err
	}

	if len(issues) == 0 {
		utils.PrintInfo("No unresolved issues found")
		return nil
	}

	headers := []string{"Issue", "Title", "Count", "Eligible", "Reason"}
	rows := make([][]string, 0, len(issues))

	for _, issue := range issues {
		eligible, reason := previewEligibility(c, application, issue)
		rows = append(rows, []string{
			issue.ShortID,
			utils.TruncateString(issue.Title, 48),
			issue.Count,
			eligible,
			reason,
		})
	}

	utils.PrintTable("Unresolved Issues", headers, rows)
	return nil
}

// previewEligibility runs the analysis stage only, so the listing mirrors
// what a real run would skip and why
func previewEligibility(c *cli.Context, application *app.App, issue sentry.Issue) (string, string) {
	event, err := application.Sentry.GetLatestEvent(c.Context, issue.ID)
	if err != nil {
		return "?", fmt.Sprintf("event fetch failed: %s", err)
	}

	ictx, err := application.Analyzer.ExtractContext(issue, event)
	if err != nil {
		if errors.Is(err, analyzer.ErrNoEventData) {
			return "no", "no event data"
		}
		return "?", err.Error()
	}

	if ok, reason := application.Analyzer.IsEligible(ictx); !ok {
		return "no", reason
	}
	return "yes", ""
}
