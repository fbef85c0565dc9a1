package update

import (
	"fmt"
	"sort"

	"github.com/fatih/color"
	"github.com/urfave/cli/v2"

	"github.com/nightconcept/garnet/internal/cli/common"
	"github.com/nightconcept/garnet/internal/cli/resolve"
	"github.com/nightconcept/garnet/internal/core/lockfile"
)

// NewUpdateCommand creates the "update" command. Named dependencies (all of
// them when none are named) are re-resolved ignoring their locked versions.
func NewUpdateCommand() *cli.Command {
	return &cli.Command{
		Name:      "update",
		Usage:     "Re-resolves dependencies to the newest versions their selectors allow",
		ArgsUsage: "[dependency_ids...]",
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
				return common.Exit(err)
			}

			declared := make(map[string]bool, len(d.Dependencies))
			for _, dep := range d.Dependencies {
				declared[dep.ID()] = true
			}
			locked := lf.Versions()
			previous := lf.Versions()
			if c.NArg() == 0 {
				locked = nil
			} else {
				for _, id := range c.Args().Slice() {
					if !declared[id] {
						return cli.Exit(fmt.Sprintf("Error: Dependency '%s' is not declared in %s.", id, d.File), common.ExitFailure)
					}
					delete(locked, id)
				}
			}

			deps, err := env.Resolver(locked).Resolve(env.Ctx, d)
			if err != nil {
				return common.Exit(err)
			}
			if _, err := common.UpdateLockfile(env.Dir, deps); err != nil {
				return common.Exit(err)
			}

			changedColor := color.New(color.FgGreen).SprintFunc()
			var changes []string
			for _, dep := range deps {
				old, ok := previous[dep.ID()]
				if dep.Version == "" || (ok && old == dep.Version) {
					continue
				}
				if !ok {
					old = "unlocked"
				}
				changes = append(changes, fmt.Sprintf("%s %s -> %s", dep.ID(), old, changedColor(dep.Version)))
			}
			sort.Strings(changes)
			if len(changes) == 0 {
				_, _ = fmt.Fprintln(env.Out, "All dependencies are up to date.")
			}
			for _, line := range changes {
				_, _ = fmt.Fprintln(env.Out, line)
			}
			resolve.PrintResolved(env.Out, deps)
			return nil
		},
	}
}
