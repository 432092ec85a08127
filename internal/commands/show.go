package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/urfave/cli/v2"

	"github.com/tildaslashalef/sentryfix/internal/app"
	"github.com/tildaslashalef/sentryfix/internal/utils"
)

// ShowCommand returns the CLI command for rendering a proposal report
func ShowCommand() *cli.Command {
	return &cli.Command{
		Name:      "show",
		Usage:     "Render a fix proposal report in the terminal",
		ArgsUsage: "[report file]",
		Description: "Renders a markdown proposal report from the output directory. " +
			"Without an argument the most recent report is shown.",
		Action: showAction,
	}
}

func showAction(c *cli.Context) error {
	application, err := app.FromContext(c)
	if err != nil {
		return err
	}

	path := c.Args().First()
	if path == "" {
		path, err = latestReport(application.Config.Output.Dir)
		if err != nil {
			utils.PrintError(err.Error())
			return err
		}
	} else if !filepath.IsAbs(path) && !strings.ContainsRune(path, os.PathSeparator) {
		// A bare filename refers to the output directory
		path = filepath.Join(application.Config.Output.Dir, path)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		utils.PrintError(fmt.Sprintf("Failed to read report: %s", err))
		return fmt.Errorf("failed to read report: %w", err)
	}

	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)
	if err != nil {
		return fmt.Errorf("failed to create renderer: %w", err)
	}

	rendered, err := renderer.Render(string(content))
	if err != nil {
		return fmt.Errorf("failed to render report: %w", err)
	}

	fmt.Print(rendered)
	return nil
}

// latestReport picks the most recently written markdown report in the
// output directory
func latestReport(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("failed to read output directory %s: %w", dir, err)
	}

	var newest string
	var newestAt time.Time
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".md") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if newest == "" || info.ModTime().After(newestAt) {
			newest = entry.Name()
			newestAt = info.ModTime()
		}
	}
	if newest == "" {
		return "", fmt.Errorf("no reports found in %s", dir)
	}

	return filepath.Join(dir, newest), nil
}
