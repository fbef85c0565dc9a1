package plan

import (
	"context"
	"os"

	"github.com/rotisserie/eris"
	"golang.org/x/sync/errgroup"

	"github.com/nightconcept/garnet/internal/core/compiler"
	"github.com/nightconcept/garnet/internal/core/descriptor"
	"github.com/nightconcept/garnet/internal/core/logging"
	"github.com/nightconcept/garnet/internal/core/packager"
	"github.com/nightconcept/garnet/internal/core/resolver"
	"github.com/nightconcept/garnet/internal/core/templater"
	"github.com/nightconcept/garnet/internal/core/toolchain"
)

// DependencyResolver is implemented by *resolver.Resolver.
type DependencyResolver interface {
	Resolve(ctx context.Context, d *descriptor.ProjectDescriptor) ([]resolver.ResolvedDependency, error)
}

// ToolchainSelector is implemented by *toolchain.Selector.
type ToolchainSelector interface {
	Select(ctx context.Context, languageVersion int) (*toolchain.Toolchain, error)
}

// Builder plans and runs builds.
type Builder struct {
	Resolver   DependencyResolver
	Toolchains ToolchainSelector
	Compiler   compiler.Compiler
}

// Result reports what a run produced.
type Result struct {
	Tasks     []string
	Resources []templater.Resource
	// Compiled is the number of source files handed to the compiler.
	Compiled int
	Artifact *packager.Artifact
}

// Plan resolves dependencies and selects the toolchain concurrently, then
// assembles the plan once both have finished. Either failure cancels the
// other and fails the plan.
func (b *Builder) Plan(ctx context.Context, d *descriptor.ProjectDescriptor) (*BuildPlan, error) {
	var (
		deps []resolver.ResolvedDependency
		tc   *toolchain.Toolchain
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		deps, err = b.Resolver.Resolve(logging.WithTask(gctx, "resolve"), d)
		return err
	})
	if d.Toolchain.LanguageVersion > 0 {
		g.Go(func() error {
			if b.Toolchains == nil {
				return &toolchain.ToolchainUnavailableError{Required: d.Toolchain.LanguageVersion}
			}
			var err error
			tc, err = b.Toolchains.Select(logging.WithTask(gctx, "toolchain"), d.Toolchain.LanguageVersion)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return New(d, deps, tc), nil
}

// Run executes the tasks needed for target.
func (b *Builder) Run(ctx context.Context, p *BuildPlan, target string) (*Result, error) {
	order, err := p.Order(target)
	if err != nil {
		return nil, err
	}
	result := &Result{Tasks: order}
	for _, name := range order {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		tctx := logging.WithTask(ctx, name)
		logging.Log(tctx).Debug().Msg("running")
		switch name {
		case TaskResources:
			err = b.processResources(p, result)
		case TaskCompile:
			err = b.compile(tctx, p, result)
		case TaskPackage:
			result.Artifact, err = packager.Package(tctx, packager.Input{
				Descriptor: p.Descriptor,
				ClassesDir: p.Path(p.Descriptor.Package.Classes),
				Resources:  result.Resources,
				Bundled:    p.Bundled(),
				OutputPath: p.ArtifactPath,
			})
		case TaskBuild:
		default:
			err = eris.Errorf("no action for task '%s'", name)
		}
		if err != nil {
			return nil, err
		}
	}
	return result, nil
}

func (b *Builder) processResources(p *BuildPlan, result *Result) error {
	rules, err := p.TemplateRules()
	if err != nil {
		return err
	}
	resources, err := templater.Process(p.Path(p.Descriptor.Package.Resources), rules)
	if err != nil {
		return err
	}
	if err := templater.Write(p.Path(ResourcesOutput), resources); err != nil {
		return err
	}
	result.Resources = resources
	return nil
}

func (b *Builder) compile(ctx context.Context, p *BuildPlan, result *Result) error {
	sources, err := compiler.FindSources(p.Path(p.Descriptor.Package.Sources))
	if err != nil {
		return err
	}
	if len(sources) == 0 {
		logging.Log(ctx).Debug().Msg("no sources, skipping compilation")
		return nil
	}
	if p.Toolchain == nil {
		return eris.New("sources found but toolchain.language_version is not set")
	}
	if b.Compiler == nil {
		return eris.New("no compiler configured")
	}
	classes := p.Path(p.Descriptor.Package.Classes)
	if err := os.MkdirAll(classes, 0755); err != nil {
		return eris.Wrapf(err, "failed to create %s", classes)
	}
	err = b.Compiler.Compile(ctx, compiler.Request{
		Toolchain: p.Toolchain,
		Sources:   sources,
		Classpath: p.Classpath(),
		Output:    classes,
		Release:   p.Descriptor.Toolchain.LanguageVersion,
	})
	if err != nil {
		return err
	}
	result.Compiled = len(sources)
	return nil
}
