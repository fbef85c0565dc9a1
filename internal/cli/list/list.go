package list

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/urfave/cli/v2"

	"github.com/nightconcept/garnet/internal/cli/common"
	"github.com/nightconcept/garnet/internal/core/lockfile"
)

// dependencyDisplayInfo holds what is shown for one declaration.
type dependencyDisplayInfo struct {
	ID         string
	Scope      string
	Version    string
	Hash       string
	Path       string
	IsLocked   bool
	FileStatus string
}

// ListCmd defines the structure for the 'list' command.
var ListCmd = &cli.Command{
	Name:    "list",
	Aliases: []string{"ls"},
	Usage:   "Displays project dependencies and their lock state",
	Action: func(c *cli.Context) error {
		env, err := common.Setup(c)
		if err != nil {
			return err
		}
		d, err := env.LoadDescriptor()
		if err != nil {
			return err
		}
		lf, err := lockfile.Load(env.Dir)
		if err != nil {
			return cli.Exit(fmt.Sprintf("Error loading %s: %v", lockfile.LockfileName, err), common.ExitFailure)
		}

		projectNameColor := color.New(color.FgMagenta, color.Bold, color.Underline).SprintFunc()
		projectVersionColor := color.New(color.FgMagenta).SprintFunc()
		projectPathColor := color.New(color.FgHiBlack, color.Bold, color.Underline).SprintFunc()
		dependenciesHeaderColor := color.New(color.FgCyan, color.Bold).SprintFunc()
		depNameColor := color.New(color.FgWhite).SprintFunc()
		depScopeColor := color.New(color.FgCyan).SprintFunc()
		depHashColor := color.New(color.FgYellow).SprintFunc()
		depPathColor := color.New(color.FgHiBlack).SprintFunc()

		out := env.Out
		_, _ = fmt.Fprintf(out, "%s@%s %s\n", projectNameColor(d.Project.Name), projectVersionColor(d.Project.Version), projectPathColor(env.Dir))
		_, _ = fmt.Fprintln(out)
		_, _ = fmt.Fprintln(out, dependenciesHeaderColor("dependencies:"))

		if len(d.Dependencies) == 0 {
			_, _ = fmt.Fprintf(out, "No dependencies found in %s.\n", filepath.Base(d.File))
			return nil
		}

		for _, dep := range d.Dependencies {
			info := dependencyDisplayInfo{ID: dep.ID(), Scope: dep.Scope}
			if entry, ok := lf.Package[info.ID]; ok {
				info.IsLocked = true
				info.Version = entry.Version
				info.Hash = entry.Hash
				info.Path = entry.Path
			}
			if dep.IsLocal() && info.Path == "" {
				info.Path = dep.File
			}
			if info.Path != "" {
				p := filepath.FromSlash(info.Path)
				if !filepath.IsAbs(p) {
					p = filepath.Join(env.Dir, p)
				}
				if _, err := os.Stat(p); os.IsNotExist(err) {
					info.FileStatus = "missing"
				}
			}

			hash := "not locked"
			if info.IsLocked && info.Hash != "" {
				hash = info.Hash
			} else if info.IsLocked {
				hash = "locked (no hash)"
			}
			name := info.ID
			if info.Version != "" {
				name += "@" + info.Version
			}
			line := fmt.Sprintf("%s %s %s %s", depNameColor(name), depScopeColor(info.Scope), depHashColor(hash), depPathColor(info.Path))
			if info.FileStatus != "" {
				line += " (" + info.FileStatus + ")"
			}
			_, _ = fmt.Fprintln(out, line)
		}
		return nil
	},
}
