package clean

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/nightconcept/garnet/internal/cli/common"
	"github.com/nightconcept/garnet/internal/core/plan"
)

// NewCleanCommand creates the "clean" command.
func NewCleanCommand() *cli.Command {
	return &cli.Command{
		Name:  "clean",
		Usage: "Removes build outputs",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "cache",
				Usage: "Also remove the shared artifact cache",
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

			p := plan.New(d, nil, nil)
			targets := []string{
				p.Path(d.Package.Classes),
				p.Path(plan.ResourcesOutput),
				p.Path(d.Package.Output),
			}
			if c.Bool("cache") {
				targets = append(targets, env.Settings.CacheDir)
			}
			for _, target := range targets {
				if target == d.Root {
					return cli.Exit(fmt.Sprintf("Error: refusing to remove the project directory %s", target), common.ExitFailure)
				}
				if err := os.RemoveAll(target); err != nil {
					return cli.Exit(fmt.Sprintf("Error: failed to remove %s: %v", target, err), common.ExitFailure)
				}
				env.Logger.Debug().Str("path", target).Msg("removed")
			}
			_, _ = fmt.Fprintln(env.Out, "Cleaned build outputs.")
			return nil
		},
	}
}
