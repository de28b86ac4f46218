package reactor

import (
	"errors"
	"fmt"
)

// ErrNoDescriptor is wrapped by the error a [DescriptorProvider] returns when a directory does not
// contain a project descriptor.
var ErrNoDescriptor = errors.New("no project descriptor")

// A DescriptorProvider reads project descriptors from the filesystem.  [PomProvider] is the
// default implementation.
type DescriptorProvider interface {
	// DescriptorName returns the base name of the descriptor file (e.g., "pom.xml").
	DescriptorName() string

	// HasDescriptor reports whether dir directly contains a descriptor file.  It performs no
	// parsing.
	HasDescriptor(dir string) bool

	// ReadDescriptor parses the descriptor in dir.  The returned error wraps [ErrNoDescriptor] if
	// there is no descriptor, or is a [*MalformedDescriptorError] if it could not be parsed.
	ReadDescriptor(dir string) (*Descriptor, error)
}

// A Descriptor is the parsed, uninterpolated content of a project descriptor.  Every string field
// holds the raw text from the file; placeholders such as "${revision}" are resolved later.
type Descriptor struct {
	// File is the absolute path of the descriptor file.
	File string

	GroupId    string
	ArtifactId string
	Version    string
	Packaging  string

	// Parent is nil if the descriptor does not declare a parent.
	Parent *ParentRef

	Dependencies []DependencyDecl

	// Modules lists the declared module paths, relative to the descriptor's directory.
	Modules []string

	Properties map[string]string

	// BuildDir, OutputDir and TestOutputDir are the raw build directory settings, empty when the
	// descriptor relies on the conventional defaults.
	BuildDir      string
	OutputDir     string
	TestOutputDir string
}

// EffectiveGroupId returns the declared group, falling back to the parent reference's group.
func (d *Descriptor) EffectiveGroupId() string {
	if d.GroupId == "" && d.Parent != nil {
		return d.Parent.GroupId
	}
	return d.GroupId
}

// Id returns the identity the descriptor declares.  References to the parent's coordinates, such
// as "${project.parent.groupId}", are substituted from the parent reference.  Any other expression
// is left in place, so [ProjectId.Check] rejects it.
func (d *Descriptor) Id() ProjectId {
	lookup := func(name string) (string, bool) {
		if d.Parent == nil {
			return "", false
		}
		switch name {
		case "project.parent.groupId", "parent.groupId":
			return d.Parent.GroupId, true
		case "project.parent.artifactId", "parent.artifactId":
			return d.Parent.ArtifactId, true
		}
		return "", false
	}
	return NewProjectId(interpolate(d.EffectiveGroupId(), lookup), interpolate(d.ArtifactId, lookup))
}

// RawVersion returns the declared version, falling back to the parent reference's version.  The
// result may contain placeholders.
func (d *Descriptor) RawVersion() string {
	if d.Version == "" && d.Parent != nil {
		return d.Parent.Version
	}
	return d.Version
}

// A ParentRef is a descriptor's reference to its parent project.
type ParentRef struct {
	GroupId      string
	ArtifactId   string
	Version      string
	RelativePath RelativePath
}

// Id returns the parent's identity.
func (p ParentRef) Id() ProjectId {
	return NewProjectId(p.GroupId, p.ArtifactId)
}

// A DependencyDecl is one raw entry of a descriptor's dependency list.
type DependencyDecl struct {
	GroupId    string
	ArtifactId string
	Version    string
	Type       string
	Classifier string
	Scope      string
}

func (d DependencyDecl) String() string {
	return fmt.Sprintf("%s:%s:%s", d.GroupId, d.ArtifactId, d.Version)
}

// A RelativePathKind says how a [ParentRef] locates its parent on disk.
type RelativePathKind int

const (
	// RelativePathDefault means the descriptor did not set a relative path; the conventional
	// "../<descriptor>" applies.
	RelativePathDefault RelativePathKind = iota
	// RelativePathSuppressed means the relative path was explicitly set to the empty string; the
	// parent must never be looked up locally.
	RelativePathSuppressed
	// RelativePathExplicit means the relative path was set to a non-empty value.
	RelativePathExplicit
)

func (k RelativePathKind) String() string {
	switch k {
	case RelativePathDefault:
		return "default"
	case RelativePathSuppressed:
		return "suppressed"
	case RelativePathExplicit:
		return "explicit"
	default:
		return fmt.Sprintf("RelativePathKind(%d)", int(k))
	}
}

// A RelativePath is the three-valued relative path attribute of a [ParentRef].  The zero value is
// [RelativePathDefault].
type RelativePath struct {
	kind RelativePathKind
	path string
}

// DefaultRelativePath returns the [RelativePathDefault] variant.
func DefaultRelativePath() RelativePath {
	return RelativePath{kind: RelativePathDefault}
}

// SuppressedRelativePath returns the [RelativePathSuppressed] variant.
func SuppressedRelativePath() RelativePath {
	return RelativePath{kind: RelativePathSuppressed}
}

// ExplicitRelativePath returns the [RelativePathExplicit] variant, or [SuppressedRelativePath] if
// p is empty.
func ExplicitRelativePath(p string) RelativePath {
	if p == "" {
		return SuppressedRelativePath()
	}
	return RelativePath{kind: RelativePathExplicit, path: p}
}

// Kind returns the variant.
func (rp RelativePath) Kind() RelativePathKind {
	return rp.kind
}

// Path returns the explicit path, or "" for the other variants.
func (rp RelativePath) Path() string {
	return rp.path
}

func (rp RelativePath) String() string {
	if rp.kind == RelativePathExplicit {
		return fmt.Sprintf("%v(%q)", rp.kind, rp.path)
	}
	return rp.kind.String()
}
