// Package initcmd implements "garnet init".
package initcmd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/urfave/cli/v2"

	"github.com/nightconcept/garnet/internal/cli/common"
	"github.com/nightconcept/garnet/internal/core/config"
	"github.com/nightconcept/garnet/internal/core/descriptor"
)

// promptWithDefault asks for a value and returns defaultValue on empty input.
func promptWithDefault(out io.Writer, reader *bufio.Reader, promptText string, defaultValue string) (string, error) {
	if defaultValue != "" {
		_, _ = fmt.Fprintf(out, "%s (default: %s): ", promptText, defaultValue)
	} else {
		_, _ = fmt.Fprintf(out, "%s: ", promptText)
	}

	input, err := reader.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", eris.Wrapf(err, "failed to read input for '%s'", promptText)
	}
	input = strings.TrimSpace(input)
	if input == "" {
		return defaultValue, nil
	}
	return input, nil
}

// GetInitCommand returns the definition for the "init" command.
func GetInitCommand() *cli.Command {
	return &cli.Command{
		Name:  "init",
		Usage: "Initialize a new garnet project (creates garnet.toml)",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "yes",
				Aliases: []string{"y"},
				Usage:   "Accept every default without prompting",
			},
			&cli.BoolFlag{
				Name:  "force",
				Usage: "Overwrite an existing descriptor",
			},
		},
		Action: func(c *cli.Context) error {
			env, err := common.Setup(c)
			if err != nil {
				return err
			}
			if existing, err := config.FindDescriptor(env.Dir); err == nil && !c.Bool("force") {
				return cli.Exit(fmt.Sprintf("Error: %s already exists. Use --force to overwrite it.", existing), common.ExitFailure)
			}

			in := c.App.Reader
			if in == nil {
				in = os.Stdin
			}
			if c.Bool("yes") {
				in = strings.NewReader("")
			}
			reader := bufio.NewReader(in)
			out := env.Out

			_, _ = fmt.Fprintln(out, "Starting project initialization...")
			answers := []struct {
				prompt string
				value  string
			}{
				{"Project name", filepath.Base(env.Dir)},
				{"Group", ""},
				{"Version", "0.1.0"},
				{"Java language version", "21"},
				{"Description (optional)", ""},
			}
			for i := range answers {
				answers[i].value, err = promptWithDefault(out, reader, answers[i].prompt, answers[i].value)
				if err != nil {
					return cli.Exit(err.Error(), common.ExitFailure)
				}
			}

			languageVersion, err := strconv.Atoi(answers[3].value)
			if err != nil || languageVersion < 1 {
				return cli.Exit(fmt.Sprintf("Error: invalid Java language version '%s'.", answers[3].value), common.ExitFailure)
			}

			d := descriptor.New()
			d.Project = descriptor.Identity{
				Name:        answers[0].value,
				Group:       answers[1].value,
				Version:     answers[2].value,
				Description: answers[4].value,
			}
			d.Repositories = []descriptor.Repository{{Name: "central", URL: descriptor.MavenCentralURL}}
			d.Toolchain.LanguageVersion = languageVersion
			if err := d.Validate(); err != nil {
				return common.Exit(err)
			}
			// only the identity, repositories and toolchain are written; package
			// directories keep their defaults
			d.Package = descriptor.PackageSettings{}

			if err := config.WriteDescriptor(env.Dir, d); err != nil {
				return common.Exit(err)
			}
			_, _ = fmt.Fprintf(out, "\nWrote to %s\n", config.DescriptorTomlName)
			return nil
		},
	}
}
