package build

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/urfave/cli/v2"

	"github.com/nightconcept/garnet/internal/cli/common"
	"github.com/nightconcept/garnet/internal/core/lockfile"
	"github.com/nightconcept/garnet/internal/core/plan"
)

// NewBuildCommand creates the "build" command: the full pipeline followed by
// a lockfile update.
func NewBuildCommand() *cli.Command {
	return &cli.Command{
		Name:  "build",
		Usage: "Resolves, compiles, templates and packages the project, then updates the lockfile",
		Action: func(c *cli.Context) error {
			return run(c, plan.TaskBuild, true)
		},
	}
}

// NewPackageCommand creates the "package" command, which stops after the
// artifact is written and leaves the lockfile untouched.
func NewPackageCommand() *cli.Command {
	return &cli.Command{
		Name:  "package",
		Usage: "Builds the project artifact without updating the lockfile",
		Action: func(c *cli.Context) error {
			return run(c, plan.TaskPackage, false)
		},
	}
}

func run(c *cli.Context, target string, writeLock bool) error {
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

	builder := env.Builder(lf.Versions())
	p, err := builder.Plan(env.Ctx, d)
	if err != nil {
		return common.Exit(err)
	}
	result, err := builder.Run(env.Ctx, p, target)
	if err != nil {
		return common.Exit(err)
	}

	if writeLock {
		if _, err := common.UpdateLockfile(env.Dir, p.Dependencies); err != nil {
			return common.Exit(err)
		}
	}

	okColor := color.New(color.FgGreen, color.Bold).SprintFunc()
	pathColor := color.New(color.FgHiBlack).SprintFunc()
	if p.Toolchain != nil {
		_, _ = fmt.Fprintf(env.Out, "%s %s\n", okColor("toolchain"), p.Toolchain)
	}
	if result.Compiled > 0 {
		_, _ = fmt.Fprintf(env.Out, "%s %d source files\n", okColor("compiled"), result.Compiled)
	}
	_, _ = fmt.Fprintf(env.Out, "%s %s (%d entries, %d of %d dependencies bundled)\n",
		okColor("packaged"), pathColor(result.Artifact.Path), len(result.Artifact.Entries), len(p.Bundled()), len(p.Dependencies))
	return nil
}
