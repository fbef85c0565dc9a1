package remove

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/nightconcept/garnet/internal/cli/common"
	"github.com/nightconcept/garnet/internal/core/config"
	"github.com/nightconcept/garnet/internal/core/lockfile"
)

// RemoveCommand defines the structure for the 'remove' CLI command. Local
// jar files are left on disk.
func RemoveCommand() *cli.Command {
	return &cli.Command{
		Name:      "remove",
		Aliases:   []string{"rm"},
		Usage:     "Removes a dependency declaration from the project",
		ArgsUsage: "<dependency_id>",
		Action: func(c *cli.Context) error {
			if c.NArg() < 1 {
				return cli.Exit("Error: Missing dependency id argument.", common.ExitFailure)
			}
			target := c.Args().First()

			env, err := common.Setup(c)
			if err != nil {
				return err
			}
			d, err := env.LoadDescriptor()
			if err != nil {
				return err
			}

			index := -1
			for i, dep := range d.Dependencies {
				if dep.ID() == target || dep.String() == target || (dep.IsLocal() && dep.ID() == "file:"+target) {
					index = i
					break
				}
			}
			if index == -1 {
				return cli.Exit(fmt.Sprintf("Error: Dependency '%s' not found in %s.", target, config.DescriptorTomlName), common.ExitFailure)
			}
			removed := d.Dependencies[index]
			d.Dependencies = append(d.Dependencies[:index], d.Dependencies[index+1:]...)

			if err := config.WriteDescriptor(env.Dir, d); err != nil {
				return common.Exit(err)
			}

			lf, err := lockfile.Load(env.Dir)
			if err != nil {
				return common.Exit(err)
			}
			if _, ok := lf.Package[removed.ID()]; ok {
				delete(lf.Package, removed.ID())
				if err := lockfile.Save(env.Dir, lf); err != nil {
					return common.Exit(err)
				}
			}

			_, _ = fmt.Fprintf(env.Out, "Removed dependency '%s'.\n", removed.ID())
			return nil
		},
	}
}
