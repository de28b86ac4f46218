package reactor

import (
	"context"
	"path/filepath"
	"slices"
	"strings"
)

// A Project is one module of a workspace: its resolved identity and version, its directory, and the
// raw declarations from its descriptor.  A Project is immutable once discovery completes, except for
// its memoized local-dependency closure.
type Project struct {
	id      ProjectId
	version string
	dir     string
	desc    *Descriptor
	ov      Overrides
	// ws is nil for a project loaded without workspace context.
	ws *Workspace
}

func newProject(ctx context.Context, d *Descriptor, ov Overrides, props map[string]string) *Project {
	version, _ := ResolveVersion(ctx, d.RawVersion(), ov, props)
	return &Project{
		id:      d.Id(),
		version: version,
		dir:     filepath.Dir(d.File),
		desc:    d,
		ov:      ov,
	}
}

// Id returns the project's identity.
func (p *Project) Id() ProjectId { return p.id }

func (p *Project) GroupId() string { return p.id.GroupId }

func (p *Project) ArtifactId() string { return p.id.ArtifactId }

// Version returns the resolved version.  CI-friendly placeholders have been substituted.
func (p *Project) Version() string { return p.version }

// RawVersion returns the version as written in the descriptor (or inherited from the parent
// reference), before placeholder substitution.
func (p *Project) RawVersion() string { return p.desc.RawVersion() }

// Dir returns the absolute path of the project's directory.
func (p *Project) Dir() string { return p.dir }

// DescriptorFile returns the absolute path of the project's descriptor.
func (p *Project) DescriptorFile() string { return p.desc.File }

// Descriptor returns the raw descriptor the project was built from.  It must not be modified.
func (p *Project) Descriptor() *Descriptor { return p.desc }

// Workspace returns the workspace the project belongs to, or nil if it was loaded standalone.
func (p *Project) Workspace() *Workspace { return p.ws }

// ParentId returns the identity named by the descriptor's parent reference.  The bool is false if
// there is no parent reference.
func (p *Project) ParentId() (ProjectId, bool) {
	if p.desc.Parent == nil {
		return ProjectId{}, false
	}
	return NewProjectId(p.interpolate(p.desc.Parent.GroupId), p.interpolate(p.desc.Parent.ArtifactId)), true
}

// Parent looks up the parent project in the workspace.  Returns nil if the project has no parent
// reference, has no workspace, or the parent is not part of the workspace.
func (p *Project) Parent() *Project {
	pid, ok := p.ParentId()
	if !ok || p.ws == nil {
		return nil
	}
	return p.ws.Project(pid)
}

// Modules returns the declared module paths, relative to [Project.Dir].
func (p *Project) Modules() []string {
	return slices.Clone(p.desc.Modules)
}

// Dependencies returns the declared dependencies with "${project.*}" expressions and CI-friendly
// placeholders interpolated.  Expressions that cannot be resolved are left as-is.
func (p *Project) Dependencies() []DependencyDecl {
	deps := make([]DependencyDecl, len(p.desc.Dependencies))
	for i, d := range p.desc.Dependencies {
		d.GroupId = p.interpolate(d.GroupId)
		d.ArtifactId = p.interpolate(d.ArtifactId)
		d.Version = p.interpolate(d.Version)
		deps[i] = d
	}
	return deps
}

// BuildDir returns the absolute path of the build output root (conventionally "target").
func (p *Project) BuildDir() string {
	return p.absPath(p.desc.BuildDir, "target")
}

// OutputDir returns the absolute path of the compiled main output (conventionally
// "target/classes").
func (p *Project) OutputDir() string {
	return p.absPath(p.desc.OutputDir, filepath.Join(p.BuildDir(), "classes"))
}

// TestOutputDir returns the absolute path of the compiled test output (conventionally
// "target/test-classes").
func (p *Project) TestOutputDir() string {
	return p.absPath(p.desc.TestOutputDir, filepath.Join(p.BuildDir(), "test-classes"))
}

func (p *Project) absPath(raw, dflt string) string {
	s := dflt
	if raw != "" {
		s = p.interpolate(raw)
	}
	s = filepath.FromSlash(s)
	if !filepath.IsAbs(s) {
		s = filepath.Join(p.dir, s)
	}
	return filepath.Clean(s)
}

func (p *Project) String() string {
	return p.id.String() + ":" + p.version
}

// interpolate substitutes the project expressions Maven descriptors commonly use in coordinates and
// paths.
func (p *Project) interpolate(s string) string {
	if !strings.Contains(s, "${") {
		return s
	}
	return interpolate(s, func(name string) (string, bool) {
		switch name {
		case "project.groupId", "pom.groupId", "groupId":
			return p.id.GroupId, true
		case "project.artifactId", "pom.artifactId", "artifactId":
			return p.id.ArtifactId, true
		case "project.version", "pom.version", "version":
			return p.version, true
		case "project.basedir", "basedir":
			return p.dir, true
		case "project.build.directory":
			if strings.Contains(p.desc.BuildDir, "${project.build.directory}") {
				return filepath.Join(p.dir, "target"), true
			}
			return p.BuildDir(), true
		}
		if par := p.desc.Parent; par != nil {
			switch name {
			case "project.parent.groupId":
				return par.GroupId, true
			case "project.parent.artifactId":
				return par.ArtifactId, true
			case "project.parent.version":
				if v, ok := p.resolvePlaceholders(par.Version); ok {
					return v, true
				}
				return par.Version, true
			}
		}
		if isCIFriendly(name) {
			if p.ov != nil {
				if v, ok := p.ov.Lookup(name); ok {
					return v, true
				}
			}
			if p.ws != nil {
				if v, ok := p.ws.props[name]; ok {
					return v, true
				}
			}
		}
		return "", false
	})
}

// resolvePlaceholders resolves the CI-friendly placeholders in s if that does not require
// workspace properties the project does not have.
func (p *Project) resolvePlaceholders(s string) (string, bool) {
	if len(MissingOverrides(s, p.ov)) > 0 && p.ws == nil {
		return "", false
	}
	var props map[string]string
	if p.ws != nil {
		props = p.ws.props
	}
	v, _ := ResolveVersion(context.Background(), s, p.ov, props)
	return v, true
}
