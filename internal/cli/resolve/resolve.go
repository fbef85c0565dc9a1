package resolve

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/urfave/cli/v2"

	"github.com/nightconcept/garnet/internal/cli/common"
	"github.com/nightconcept/garnet/internal/core/lockfile"
	"github.com/nightconcept/garnet/internal/core/resolver"
)

// NewResolveCommand creates the "resolve" command. It binds every declared
// dependency, preferring locked versions for dynamic selectors, and writes
// the lockfile.
func NewResolveCommand() *cli.Command {
	return &cli.Command{
		Name:  "resolve",
		Usage: "Resolves project dependencies and writes garnet-lock.toml",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "no-lock",
				Usage: "Print the resolution without writing the lockfile",
			},
		},
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

			deps, err := env.Resolver(lf.Versions()).Resolve(env.Ctx, d)
			if err != nil {
				return common.Exit(err)
			}
			PrintResolved(env.Out, deps)

			if c.Bool("no-lock") {
				return nil
			}
			if _, err := common.UpdateLockfile(env.Dir, deps); err != nil {
				return common.Exit(err)
			}
			_, _ = fmt.Fprintf(env.Out, "Wrote %s\n", lockfile.LockfileName)
			return nil
		},
	}
}

// PrintResolved writes one line per resolved dependency.
func PrintResolved(w io.Writer, deps []resolver.ResolvedDependency) {
	idColor := color.New(color.FgWhite, color.Bold).SprintFunc()
	versionColor := color.New(color.FgYellow).SprintFunc()
	scopeColor := color.New(color.FgCyan).SprintFunc()
	pathColor := color.New(color.FgHiBlack).SprintFunc()

	if len(deps) == 0 {
		_, _ = fmt.Fprintln(w, "No dependencies declared.")
		return
	}
	for _, dep := range deps {
		version := dep.Version
		if version == "" {
			version = "-"
		}
		_, _ = fmt.Fprintf(w, "%s %s %s %s %s\n",
			idColor(dep.ID()), versionColor(version), scopeColor(dep.Declaration.Scope), dep.Origin, pathColor(dep.Path))
	}
}
