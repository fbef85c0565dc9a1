// Package app assembles the garnet command line application.
package app

import (
	"github.com/urfave/cli/v2"

	"github.com/nightconcept/garnet/internal/cli/add"
	"github.com/nightconcept/garnet/internal/cli/build"
	"github.com/nightconcept/garnet/internal/cli/clean"
	"github.com/nightconcept/garnet/internal/cli/common"
	"github.com/nightconcept/garnet/internal/cli/initcmd"
	"github.com/nightconcept/garnet/internal/cli/list"
	"github.com/nightconcept/garnet/internal/cli/remove"
	"github.com/nightconcept/garnet/internal/cli/resolve"
	"github.com/nightconcept/garnet/internal/cli/self"
	"github.com/nightconcept/garnet/internal/cli/toolchains"
	"github.com/nightconcept/garnet/internal/cli/update"
)

// New returns the application with every command registered.
func New(version string) *cli.App {
	return &cli.App{
		Name:    "garnet",
		Usage:   "Builds and packages Java projects from a declarative garnet.toml",
		Version: version,
		Flags:   common.GlobalFlags(),
		Action: func(c *cli.Context) error {
			return cli.ShowAppHelp(c)
		},
		Commands: []*cli.Command{
			build.NewBuildCommand(),
			build.NewPackageCommand(),
			resolve.NewResolveCommand(),
			update.NewUpdateCommand(),
			toolchains.NewToolchainsCommand(),
			list.ListCmd,
			initcmd.GetInitCommand(),
			add.AddCommand,
			remove.RemoveCommand(),
			clean.NewCleanCommand(),
			self.NewSelfCommand(),
		},
	}
}
