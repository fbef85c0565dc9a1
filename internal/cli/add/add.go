package add

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/urfave/cli/v2"

	"github.com/nightconcept/garnet/internal/cli/common"
	"github.com/nightconcept/garnet/internal/core/config"
	"github.com/nightconcept/garnet/internal/core/descriptor"
	"github.com/nightconcept/garnet/internal/core/lockfile"
)

// AddCommand defines the structure for the "add" command. The new
// declaration is resolved before the descriptor is written, so a failed
// resolution leaves the project untouched.
var AddCommand = &cli.Command{
	Name:      "add",
	Usage:     "Declares a dependency (a local jar or group:artifact:version) and locks it",
	ArgsUsage: "<file|coordinate>",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:    "scope",
			Aliases: []string{"s"},
			Usage:   "Dependency scope: implementation (bundled) or compileOnly",
			Value:   descriptor.ScopeImplementation,
		},
		&cli.StringFlag{
			Name:    "repository",
			Aliases: []string{"r"},
			Usage:   "Also declare this repository URL if it is not declared yet",
		},
	},
	Action: func(c *cli.Context) error {
		if c.NArg() < 1 {
			return cli.Exit("Error: <file|coordinate> argument is required.", common.ExitFailure)
		}
		env, err := common.Setup(c)
		if err != nil {
			return err
		}
		d, err := env.LoadDescriptor()
		if err != nil {
			return err
		}

		dep := descriptor.Dependency{Scope: c.String("scope")}
		if isCoordinate(env.Dir, c.Args().First()) {
			dep.Coordinate = c.Args().First()
		} else {
			dep.File = filepath.ToSlash(c.Args().First())
		}
		d.Dependencies = append(d.Dependencies, dep)
		if repoURL := c.String("repository"); repoURL != "" && !hasRepository(d, repoURL) {
			d.Repositories = append(d.Repositories, descriptor.Repository{URL: repoURL})
		}
		if err := d.Validate(); err != nil {
			return common.Exit(err)
		}

		lf, err := lockfile.Load(env.Dir)
		if err != nil {
			return common.Exit(err)
		}
		resolved, err := env.Resolver(lf.Versions()).ResolveDependency(env.Ctx, d, dep)
		if err != nil {
			return common.Exit(err)
		}

		if err := config.WriteDescriptor(env.Dir, d); err != nil {
			return common.Exit(err)
		}
		lf.AddOrUpdatePackage(resolved.ID(), common.LockEntry(env.Dir, resolved))
		if err := lockfile.Save(env.Dir, lf); err != nil {
			return common.Exit(err)
		}

		added := color.New(color.FgGreen, color.Bold).SprintFunc()
		version := ""
		if resolved.Version != "" {
			version = "@" + resolved.Version
		}
		_, _ = fmt.Fprintf(env.Out, "%s %s%s (%s)\n", added("added"), resolved.ID(), version, dep.Scope)
		return nil
	},
}

// isCoordinate treats arguments with two or more colons as coordinates
// unless a file of that name exists in the project.
func isCoordinate(dir, arg string) bool {
	if strings.Count(arg, ":") < 2 {
		return false
	}
	_, err := os.Stat(filepath.Join(dir, arg))
	return err != nil
}

func hasRepository(d *descriptor.ProjectDescriptor, repoURL string) bool {
	want := strings.TrimSuffix(repoURL, "/")
	for _, repo := range d.Repositories {
		if strings.TrimSuffix(repo.URL, "/") == want {
			return true
		}
		if (want == "mavenCentral" || want == "central") && repo.URL == descriptor.MavenCentralURL {
			return true
		}
	}
	return false
}
