// Package fakeproject writes trees of fake pom.xml descriptors to facilitate testing.
package fakeproject

import (
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rhansen/reactor"
)

type dependency struct {
	groupId, artifactId, version, typ, classifier string
}

type config struct {
	groupId    string
	artifactId string
	version    string
	packaging  string

	hasParent     bool
	parentGroupId string
	parentId      string
	parentVersion string
	// relativePath is nil if the parent has no <relativePath> element.
	relativePath *string

	modules    []string
	deps       []dependency
	properties [][2]string
	buildDir   string
	outputDir  string

	// raw, if non-nil, replaces the generated content.
	raw []byte
}

func (cfg *config) Check() error {
	if cfg.raw != nil {
		return nil
	}
	if cfg.artifactId == "" {
		return fmt.Errorf("artifactId is the empty string")
	}
	if cfg.groupId == "" && !cfg.hasParent {
		return fmt.Errorf("groupId is the empty string and there is no parent")
	}
	return nil
}

// An Option controls the creation of a fake descriptor.
type Option func(*config) error

// splitCoords breaks "group:artifact[:version]" into its components.
func splitCoords(coords string) (g, a, v string, err error) {
	parts := strings.Split(coords, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return "", "", "", fmt.Errorf("invalid coordinates %q; want group:artifact[:version]", coords)
	}
	parts = append(parts, "")
	return parts[0], parts[1], parts[2], nil
}

// Id returns an option that sets the project's coordinates.  The argument has the form
// "group:artifact[:version]".  Leave the group empty (":artifact") to inherit it from the parent.
func Id(coords string) Option {
	return func(cfg *config) error {
		g, a, v, err := splitCoords(coords)
		if err != nil {
			return err
		}
		cfg.groupId, cfg.artifactId, cfg.version = g, a, v
		return nil
	}
}

// Version returns an option that sets the project's version.  Pass the empty string to inherit
// the version from the parent.
func Version(version string) Option {
	return func(cfg *config) error {
		cfg.version = version
		return nil
	}
}

// Parent returns an option that adds a parent reference with the given "group:artifact:version"
// coordinates and no relative path element.
func Parent(coords string) Option {
	return func(cfg *config) error {
		g, a, v, err := splitCoords(coords)
		if err != nil {
			return err
		}
		cfg.hasParent = true
		cfg.parentGroupId, cfg.parentId, cfg.parentVersion = g, a, v
		return nil
	}
}

// RelativePath returns an option that sets the parent reference's relative path element.  The
// empty string produces an empty element, which suppresses local parent lookup.
func RelativePath(p string) Option {
	return func(cfg *config) error {
		if !cfg.hasParent {
			return fmt.Errorf("RelativePath requires a preceding Parent option")
		}
		cfg.relativePath = &p
		return nil
	}
}

// Modules returns an option that declares modules.
func Modules(paths ...string) Option {
	return func(cfg *config) error {
		cfg.modules = append(cfg.modules, paths...)
		if cfg.packaging == "" {
			cfg.packaging = "pom"
		}
		return nil
	}
}

// Dependency returns an option that declares a dependency with the given
// "group:artifact[:version]" coordinates.
func Dependency(coords string) Option {
	return TypedDependency(coords, "", "")
}

// TypedDependency is like [Dependency] but also sets the dependency's type and classifier.
func TypedDependency(coords, typ, classifier string) Option {
	return func(cfg *config) error {
		g, a, v, err := splitCoords(coords)
		if err != nil {
			return err
		}
		cfg.deps = append(cfg.deps, dependency{g, a, v, typ, classifier})
		return nil
	}
}

// Property returns an option that declares a property.
func Property(name, value string) Option {
	return func(cfg *config) error {
		cfg.properties = append(cfg.properties, [2]string{name, value})
		return nil
	}
}

// BuildDirectory returns an option that sets the <build><directory> and <outputDirectory>
// elements.  Empty values are omitted.
func BuildDirectory(dir, outputDir string) Option {
	return func(cfg *config) error {
		cfg.buildDir, cfg.outputDir = dir, outputDir
		return nil
	}
}

// Raw returns an option that writes content verbatim instead of a generated descriptor.  This is
// mostly useful for malformed descriptors.
func Raw(content string) Option {
	return func(cfg *config) error {
		cfg.raw = []byte(content)
		return nil
	}
}

func escape(s string) string {
	var b strings.Builder
	if err := xml.EscapeText(&b, []byte(s)); err != nil {
		panic(err)
	}
	return b.String()
}

func (cfg *config) render() []byte {
	if cfg.raw != nil {
		return cfg.raw
	}
	var b strings.Builder
	elem := func(indent, name, value string) {
		if value != "" {
			fmt.Fprintf(&b, "%s<%s>%s</%s>\n", indent, name, escape(value), name)
		}
	}
	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?>` + "\n")
	b.WriteString(`<project xmlns="http://maven.apache.org/POM/4.0.0">` + "\n")
	b.WriteString("  <modelVersion>4.0.0</modelVersion>\n")
	if cfg.hasParent {
		b.WriteString("  <parent>\n")
		elem("    ", "groupId", cfg.parentGroupId)
		elem("    ", "artifactId", cfg.parentId)
		elem("    ", "version", cfg.parentVersion)
		if cfg.relativePath != nil {
			if *cfg.relativePath == "" {
				b.WriteString("    <relativePath/>\n")
			} else {
				elem("    ", "relativePath", *cfg.relativePath)
			}
		}
		b.WriteString("  </parent>\n")
	}
	elem("  ", "groupId", cfg.groupId)
	elem("  ", "artifactId", cfg.artifactId)
	elem("  ", "version", cfg.version)
	elem("  ", "packaging", cfg.packaging)
	if len(cfg.properties) > 0 {
		b.WriteString("  <properties>\n")
		for _, p := range cfg.properties {
			// Empty properties are kept; they are distinct from undeclared ones.
			fmt.Fprintf(&b, "    <%s>%s</%s>\n", p[0], escape(p[1]), p[0])
		}
		b.WriteString("  </properties>\n")
	}
	if len(cfg.modules) > 0 {
		b.WriteString("  <modules>\n")
		for _, m := range cfg.modules {
			elem("    ", "module", m)
		}
		b.WriteString("  </modules>\n")
	}
	if len(cfg.deps) > 0 {
		b.WriteString("  <dependencies>\n")
		for _, d := range cfg.deps {
			b.WriteString("    <dependency>\n")
			elem("      ", "groupId", d.groupId)
			elem("      ", "artifactId", d.artifactId)
			elem("      ", "version", d.version)
			elem("      ", "type", d.typ)
			elem("      ", "classifier", d.classifier)
			b.WriteString("    </dependency>\n")
		}
		b.WriteString("  </dependencies>\n")
	}
	if cfg.buildDir != "" || cfg.outputDir != "" {
		b.WriteString("  <build>\n")
		elem("    ", "directory", cfg.buildDir)
		elem("    ", "outputDirectory", cfg.outputDir)
		b.WriteString("  </build>\n")
	}
	b.WriteString("</project>\n")
	return []byte(b.String())
}

// Write creates dir (if necessary) and writes a fake descriptor into it.
//
// See [Tree.Add] for a more ergonomic interface.
func Write(dir string, opts ...Option) error {
	cfg := &config{}
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return err
		}
	}
	if err := cfg.Check(); err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0777); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, reactor.PomName), cfg.render(), 0666)
}

// A Tree is a temporary directory that fake descriptors are written into, with methods that fail
// the test on error.
type Tree struct {
	root string
	t    *testing.T
}

// New returns a [Tree] rooted at a new [testing.T.TempDir].
func New(t *testing.T) *Tree {
	t.Helper()
	root, err := filepath.Abs(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	return &Tree{root: root, t: t}
}

// Dir returns the absolute path of the slash-separated relative path formed by joining rel.
func (tr *Tree) Dir(rel ...string) string {
	parts := []string{tr.root}
	for _, r := range rel {
		parts = append(parts, filepath.FromSlash(r))
	}
	return filepath.Join(parts...)
}

// Add writes a fake descriptor into the directory at rel.  See [Write].
func (tr *Tree) Add(rel string, opts ...Option) *Tree {
	tr.t.Helper()
	if err := Write(tr.Dir(rel), opts...); err != nil {
		tr.t.Fatal(err)
	}
	return tr
}

// Mkdir creates the directory at rel, along with any missing parents.
func (tr *Tree) Mkdir(rel string) *Tree {
	tr.t.Helper()
	if err := os.MkdirAll(tr.Dir(rel), 0777); err != nil {
		tr.t.Fatal(err)
	}
	return tr
}

// WriteFile writes a plain file at rel.
func (tr *Tree) WriteFile(rel, content string) *Tree {
	tr.t.Helper()
	p := tr.Dir(rel)
	if err := os.MkdirAll(filepath.Dir(p), 0777); err != nil {
		tr.t.Fatal(err)
	}
	if err := os.WriteFile(p, []byte(content), 0666); err != nil {
		tr.t.Fatal(err)
	}
	return tr
}
