package toolchains

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/urfave/cli/v2"

	"github.com/nightconcept/garnet/internal/cli/common"
	"github.com/nightconcept/garnet/internal/core/config"
)

// NewToolchainsCommand creates the "toolchains" command, which lists every
// discovered JDK and marks the one the project would select.
func NewToolchainsCommand() *cli.Command {
	return &cli.Command{
		Name:  "toolchains",
		Usage: "Lists installed toolchains",
		Action: func(c *cli.Context) error {
			env, err := common.Setup(c)
			if err != nil {
				return err
			}

			required := 0
			if d, err := config.LoadDescriptor(env.Dir); err == nil {
				required = d.Toolchain.LanguageVersion
			}

			found, err := env.Toolchains().Discover(env.Ctx)
			if err != nil {
				return common.Exit(err)
			}
			if len(found) == 0 {
				_, _ = fmt.Fprintln(env.Out, "No toolchains found.")
				return nil
			}

			selectedColor := color.New(color.FgGreen, color.Bold).SprintFunc()
			versionColor := color.New(color.FgYellow).SprintFunc()
			homeColor := color.New(color.FgHiBlack).SprintFunc()
			selected := false
			for _, tc := range found {
				marker := " "
				if !selected && required > 0 && tc.LanguageVersion == required {
					marker = selectedColor("*")
					selected = true
				}
				vendor := tc.Vendor
				if vendor == "" {
					vendor = "unknown vendor"
				}
				_, _ = fmt.Fprintf(env.Out, "%s %-3d %s %s %s\n", marker, tc.LanguageVersion, versionColor(tc.Version), vendor, homeColor(tc.Home))
			}
			if required > 0 && !selected {
				_, _ = fmt.Fprintf(env.Out, "No toolchain matches language version %d.\n", required)
			}
			return nil
		},
	}
}
