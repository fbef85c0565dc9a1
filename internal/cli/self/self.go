package self

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/creativeprojects/go-selfupdate"
	"github.com/rotisserie/eris"
	"github.com/urfave/cli/v2"

	"github.com/nightconcept/garnet/internal/cli/common"
)

// DefaultRepository is the GitHub repository releases are fetched from.
const DefaultRepository = "nightconcept/garnet"

// NewSelfCommand creates a new command for self-management.
func NewSelfCommand() *cli.Command {
	return &cli.Command{
		Name:  "self",
		Usage: "Manage the garnet CLI application itself",
		Subcommands: []*cli.Command{
			{
				Name:  "update",
				Usage: "Update garnet to the latest version",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:    "yes",
						Aliases: []string{"y"},
						Usage:   "Automatically confirm the update",
					},
					&cli.BoolFlag{
						Name:  "check",
						Usage: "Check for available updates without installing",
					},
					&cli.StringFlag{
						Name:  "source",
						Usage: "Specify a custom GitHub update source as 'owner/repo'",
						Value: DefaultRepository,
					},
				},
				Action: updateAction,
			},
		},
	}
}

// ParseSlug validates an 'owner/repo' update source.
func ParseSlug(slug string) (string, error) {
	parts := strings.Split(slug, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", eris.Errorf("invalid --source format. Expected 'owner/repo', got: %s", slug)
	}
	return slug, nil
}

// CurrentVersion parses the running binary's version, with or without a leading v.
func CurrentVersion(raw string) (*semver.Version, error) {
	v, err := semver.NewVersion(strings.TrimPrefix(raw, "v"))
	if err != nil {
		return nil, eris.Wrapf(err, "error parsing current version '%s'. Ensure version is like vX.Y.Z or X.Y.Z", raw)
	}
	return v, nil
}

func updateAction(c *cli.Context) error {
	env, err := common.Setup(c)
	if err != nil {
		return err
	}
	logger := env.Logger
	out := env.Out
	currentVersionStr := c.App.Version

	currentSemVer, err := CurrentVersion(currentVersionStr)
	if err != nil {
		return cli.Exit(err.Error(), common.ExitFailure)
	}
	repoSlug, err := ParseSlug(c.String("source"))
	if err != nil {
		return cli.Exit(err.Error(), common.ExitFailure)
	}
	logger.Debug().Str("current", currentSemVer.String()).Str("source", repoSlug).Msg("checking for updates")

	ghSource, err := selfupdate.NewGitHubSource(selfupdate.GitHubConfig{})
	if err != nil {
		return cli.Exit(fmt.Sprintf("Error creating GitHub source: %v", err), common.ExitFailure)
	}
	updater, err := selfupdate.NewUpdater(selfupdate.Config{Source: ghSource})
	if err != nil {
		return cli.Exit(fmt.Sprintf("Failed to initialize updater: %v", err), common.ExitFailure)
	}

	latestRelease, found, err := updater.DetectLatest(env.Ctx, selfupdate.ParseSlug(repoSlug))
	if err != nil {
		return cli.Exit(fmt.Sprintf("Error detecting latest version: %v", err), common.ExitFailure)
	}
	if !found {
		_, _ = fmt.Fprintf(out, "Current version %s is already the latest.\n", currentVersionStr)
		return nil
	}
	logger.Debug().Str("latest", latestRelease.Version()).Str("url", latestRelease.URL).Str("asset", latestRelease.AssetURL).Msg("latest release")

	if !latestRelease.GreaterThan(currentSemVer.String()) {
		_, _ = fmt.Fprintf(out, "Current version %s is already the latest or newer.\n", currentVersionStr)
		return nil
	}
	_, _ = fmt.Fprintf(out, "New version available: %s (current: %s)\n", latestRelease.Version(), currentVersionStr)
	if c.Bool("check") {
		return nil
	}

	if !c.Bool("yes") {
		_, _ = fmt.Fprint(out, "Do you want to update? (y/N): ")
		in := c.App.Reader
		if in == nil {
			in = os.Stdin
		}
		input, _ := bufio.NewReader(in).ReadString('\n')
		if strings.TrimSpace(strings.ToLower(input)) != "y" {
			_, _ = fmt.Fprintln(out, "Update cancelled.")
			return nil
		}
	}

	_, _ = fmt.Fprintf(out, "Updating to %s...\n", latestRelease.Version())
	execPath, err := os.Executable()
	if err != nil {
		return cli.Exit(fmt.Sprintf("Could not get executable path: %v", err), common.ExitFailure)
	}
	if err := updater.UpdateTo(env.Ctx, latestRelease, execPath); err != nil {
		return cli.Exit(fmt.Sprintf("Failed to update: %v", err), common.ExitFailure)
	}
	_, _ = fmt.Fprintf(out, "Successfully updated to version %s.\n", latestRelease.Version())
	return nil
}
