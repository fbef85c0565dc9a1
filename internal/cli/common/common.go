// Package common holds the setup shared by every garnet command: global
// flags, settings, logging and the mapping of build failures to exit codes.
package common

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"github.com/urfave/cli/v2"

	"github.com/nightconcept/garnet/internal/core/compiler"
	"github.com/nightconcept/garnet/internal/core/config"
	"github.com/nightconcept/garnet/internal/core/descriptor"
	"github.com/nightconcept/garnet/internal/core/downloader"
	"github.com/nightconcept/garnet/internal/core/lockfile"
	"github.com/nightconcept/garnet/internal/core/logging"
	"github.com/nightconcept/garnet/internal/core/plan"
	"github.com/nightconcept/garnet/internal/core/resolver"
	"github.com/nightconcept/garnet/internal/core/templater"
	"github.com/nightconcept/garnet/internal/core/toolchain"
)

// Global flag names.
const (
	FlagProject  = "project"
	FlagSettings = "settings"
	FlagVerbose  = "verbose"
	FlagLogJSON  = "log-json"
	FlagOffline  = "offline"
)

// Exit codes, one per failure kind.
const (
	ExitFailure              = 1
	ExitMalformedDescriptor  = 2
	ExitUnresolvedDependency = 3
	ExitToolchainUnavailable = 4
	ExitTemplateKeyMissing   = 5
)

// GlobalFlags returns the flags accepted before any command.
func GlobalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    FlagProject,
			Aliases: []string{"C"},
			Usage:   "Project directory containing garnet.toml",
			Value:   ".",
		},
		&cli.StringFlag{
			Name:  FlagSettings,
			Usage: "Settings file (default ~/.config/garnet/settings.toml)",
		},
		&cli.BoolFlag{
			Name:  FlagVerbose,
			Usage: "Enable debug logging",
		},
		&cli.BoolFlag{
			Name:  FlagLogJSON,
			Usage: "Log JSON lines instead of console output",
		},
		&cli.BoolFlag{
			Name:  FlagOffline,
			Usage: "Resolve from local files and the artifact cache only",
		},
	}
}

// Env is the per-invocation environment of a command.
type Env struct {
	Dir      string
	Settings *config.Settings
	Logger   zerolog.Logger
	Ctx      context.Context
	Out      io.Writer
}

// Setup loads settings and configures logging for c.
func Setup(c *cli.Context) (*Env, error) {
	settingsFile := c.String(FlagSettings)
	if settingsFile == "" {
		settingsFile = config.DefaultSettingsFile()
		if _, err := os.Stat(settingsFile); err != nil {
			settingsFile = ""
		}
	}
	settings, err := config.LoadSettings(settingsFile)
	if err != nil {
		return nil, cli.Exit(fmt.Sprintf("Error: %v", err), ExitFailure)
	}
	if c.Bool(FlagOffline) {
		settings.Offline = true
	}

	level := settings.LogLevel()
	if c.Bool(FlagVerbose) {
		level = zerolog.DebugLevel
	}
	errOut := c.App.ErrWriter
	if errOut == nil {
		errOut = os.Stderr
	}
	logger := logging.New(errOut, level, settings.Log.JSON || c.Bool(FlagLogJSON))

	dir, err := filepath.Abs(c.String(FlagProject))
	if err != nil {
		return nil, cli.Exit(fmt.Sprintf("Error: invalid project directory: %v", err), ExitFailure)
	}

	out := c.App.Writer
	if out == nil {
		out = os.Stdout
	}
	ctx := c.Context
	if ctx == nil {
		ctx = context.Background()
	}
	return &Env{
		Dir:      dir,
		Settings: settings,
		Logger:   logger,
		Ctx:      logging.WithLogger(ctx, logger),
		Out:      out,
	}, nil
}

// LoadDescriptor loads the project descriptor, converting failures to exit errors.
func (e *Env) LoadDescriptor() (*descriptor.ProjectDescriptor, error) {
	d, err := config.LoadDescriptor(e.Dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, cli.Exit(fmt.Sprintf("Error: %s not found in %s. Run 'garnet init' first.", config.DescriptorTomlName, e.Dir), ExitFailure)
		}
		return nil, Exit(err)
	}
	return d, nil
}

// Resolver returns a dependency resolver configured from the settings.
// locked may be nil.
func (e *Env) Resolver(locked map[string]string) *resolver.Resolver {
	return &resolver.Resolver{
		Fetcher:     downloader.New(e.Settings.HTTPTimeout),
		CacheDir:    e.Settings.CacheDir,
		Locked:      locked,
		Parallelism: e.Settings.Parallelism,
		Offline:     e.Settings.Offline,
	}
}

// Toolchains returns the toolchain selector configured from the settings.
func (e *Env) Toolchains() *toolchain.Selector {
	roots := e.Settings.Toolchains.ScanRoots
	if len(roots) == 0 {
		roots = toolchain.DefaultScanRoots()
	}
	return &toolchain.Selector{Paths: e.Settings.Toolchains.Paths, ScanRoots: roots, Getenv: os.Getenv}
}

// Builder returns a plan builder wired to the real resolver, selector and javac.
func (e *Env) Builder(locked map[string]string) *plan.Builder {
	return &plan.Builder{
		Resolver:   e.Resolver(locked),
		Toolchains: e.Toolchains(),
		Compiler:   &compiler.Javac{Stdout: e.Out, Stderr: e.Out},
	}
}

// Exit converts err into a cli exit error carrying the code of its failure kind.
func Exit(err error) error {
	if err == nil {
		return nil
	}
	var exitCoder cli.ExitCoder
	if errors.As(err, &exitCoder) {
		return err
	}

	code := ExitFailure
	var (
		malformed   *descriptor.MalformedDescriptorError
		unresolved  *resolver.UnresolvedDependencyError
		unavailable *toolchain.ToolchainUnavailableError
		missing     *templater.TemplateKeyMissingError
	)
	switch {
	case errors.As(err, &malformed):
		code = ExitMalformedDescriptor
	case errors.As(err, &unresolved):
		code = ExitUnresolvedDependency
	case errors.As(err, &unavailable):
		code = ExitToolchainUnavailable
	case errors.As(err, &missing):
		code = ExitTemplateKeyMissing
	}
	return cli.Exit(fmt.Sprintf("Error: %v", err), code)
}

// UpdateLockfile records deps in the project lockfile and drops entries for
// declarations that no longer exist.
func UpdateLockfile(dir string, deps []resolver.ResolvedDependency) (*lockfile.Lockfile, error) {
	lf, err := lockfile.Load(dir)
	if err != nil {
		return nil, err
	}
	keep := make(map[string]bool, len(deps))
	for _, dep := range deps {
		keep[dep.ID()] = true
		lf.AddOrUpdatePackage(dep.ID(), LockEntry(dir, dep))
	}
	lf.Prune(keep)
	if err := lockfile.Save(dir, lf); err != nil {
		return nil, err
	}
	return lf, nil
}

// LockEntry converts a resolved dependency into its lockfile entry.
func LockEntry(dir string, dep resolver.ResolvedDependency) lockfile.PackageEntry {
	return lockfile.PackageEntry{
		Source:  dep.Source,
		Version: dep.Version,
		Path:    LockPath(dir, dep),
		Hash:    dep.Hash,
		Scope:   dep.Declaration.Scope,
	}
}

// LockPath keeps project files relative so the lockfile can be committed.
// Cached artifacts are recorded by absolute path.
func LockPath(dir string, dep resolver.ResolvedDependency) string {
	if dep.Origin == resolver.OriginLocal {
		if rel, err := filepath.Rel(dir, dep.Path); err == nil && !strings.HasPrefix(rel, "..") {
			return filepath.ToSlash(rel)
		}
	}
	return filepath.ToSlash(dep.Path)
}
