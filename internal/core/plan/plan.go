// Package plan turns a parsed descriptor into a BuildPlan and executes it.
package plan

import (
	"path/filepath"
	"sort"

	"github.com/rotisserie/eris"

	"github.com/nightconcept/garnet/internal/core/descriptor"
	"github.com/nightconcept/garnet/internal/core/resolver"
	"github.com/nightconcept/garnet/internal/core/templater"
	"github.com/nightconcept/garnet/internal/core/toolchain"
)

// Task names.
const (
	TaskResources = "resources"
	TaskCompile   = "compile"
	TaskPackage   = "package"
	TaskBuild     = "build"
)

// ResourcesOutput is where templated resources are written, relative to the project root.
const ResourcesOutput = "build/resources"

// Task is one step of the build with the tasks it depends on.
type Task struct {
	Name      string
	DependsOn []string
}

// BuildPlan is the fully resolved description of one build.
type BuildPlan struct {
	Descriptor *descriptor.ProjectDescriptor
	// Dependencies holds one entry per declaration, in declaration order.
	Dependencies []resolver.ResolvedDependency
	// Toolchain is nil when the descriptor requests none.
	Toolchain    *toolchain.Toolchain
	Tasks        []Task
	ArtifactPath string
}

// DefaultTasks returns the task graph every plan starts with.
func DefaultTasks() []Task {
	return []Task{
		{Name: TaskResources},
		{Name: TaskCompile},
		{Name: TaskPackage, DependsOn: []string{TaskResources, TaskCompile}},
		{Name: TaskBuild, DependsOn: []string{TaskPackage}},
	}
}

// New assembles a plan from already resolved inputs.
func New(d *descriptor.ProjectDescriptor, deps []resolver.ResolvedDependency, tc *toolchain.Toolchain) *BuildPlan {
	return &BuildPlan{
		Descriptor:   d,
		Dependencies: deps,
		Toolchain:    tc,
		Tasks:        DefaultTasks(),
		ArtifactPath: filepath.Join(projectPath(d, d.Package.Output), d.ArtifactName()),
	}
}

// Bundled returns the dependencies packaged into the artifact: exactly the
// ones not declared compile-only, in declaration order.
func (p *BuildPlan) Bundled() []resolver.ResolvedDependency {
	var bundled []resolver.ResolvedDependency
	for _, dep := range p.Dependencies {
		if dep.Bundled() {
			bundled = append(bundled, dep)
		}
	}
	return bundled
}

// Classpath is the compile classpath: every resolved dependency.
func (p *BuildPlan) Classpath() []string {
	classpath := make([]string, 0, len(p.Dependencies))
	for _, dep := range p.Dependencies {
		classpath = append(classpath, dep.Path)
	}
	return classpath
}

// TemplateRules converts the descriptor's rules for the templater, with
// project properties already substituted into their values.
func (p *BuildPlan) TemplateRules() ([]templater.Rule, error) {
	props := p.Descriptor.Properties()
	rules := make([]templater.Rule, 0, len(p.Descriptor.Templates))
	for _, t := range p.Descriptor.Templates {
		values, err := t.Values(props)
		if err != nil {
			return nil, eris.Wrapf(err, "template rule '%s'", t.Match)
		}
		rules = append(rules, templater.Rule{Match: t.Match, Values: values})
	}
	return rules, nil
}

// Path resolves a descriptor relative path against the project root.
func (p *BuildPlan) Path(rel string) string {
	return projectPath(p.Descriptor, rel)
}

// Order returns the tasks needed to reach target, dependencies first.
// Ties are broken by the order tasks appear in the plan.
func (p *BuildPlan) Order(target string) ([]string, error) {
	byName := make(map[string]Task, len(p.Tasks))
	position := make(map[string]int, len(p.Tasks))
	for i, t := range p.Tasks {
		byName[t.Name] = t
		position[t.Name] = i
	}
	if _, ok := byName[target]; !ok {
		return nil, eris.Errorf("unknown task '%s'", target)
	}

	const (
		unvisited = iota
		visiting
		done
	)
	state := make(map[string]int)
	var order []string
	var visit func(name string) error
	visit = func(name string) error {
		switch state[name] {
		case visiting:
			return eris.Errorf("task cycle through '%s'", name)
		case done:
			return nil
		}
		task, ok := byName[name]
		if !ok {
			return eris.Errorf("unknown task '%s'", name)
		}
		state[name] = visiting
		deps := append([]string(nil), task.DependsOn...)
		sort.SliceStable(deps, func(i, j int) bool { return position[deps[i]] < position[deps[j]] })
		for _, dep := range deps {
			if err := visit(dep); err != nil {
				return err
			}
		}
		state[name] = done
		order = append(order, name)
		return nil
	}
	if err := visit(target); err != nil {
		return nil, err
	}
	return order, nil
}

func projectPath(d *descriptor.ProjectDescriptor, rel string) string {
	p := filepath.FromSlash(rel)
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(d.Root, p)
}
