package reactor_test

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rhansen/reactor"
	"github.com/rhansen/reactor/internal/test/fakeproject"
)

func Example() {
	// Create a small workspace on disk so that this example is self-contained.
	dir, err := os.MkdirTemp("", "reactor-example-")
	if err != nil {
		panic(err)
	}
	defer os.RemoveAll(dir)
	for _, p := range []struct {
		rel  string
		opts []fakeproject.Option
	}{
		{".", []fakeproject.Option{fakeproject.Id("org.acme:parent:${revision}"),
			fakeproject.Property("revision", "1.0-SNAPSHOT"),
			fakeproject.Modules("core", "app")}},
		{"core", []fakeproject.Option{fakeproject.Id(":core"),
			fakeproject.Parent("org.acme:parent:${revision}")}},
		{"app", []fakeproject.Option{fakeproject.Id(":app"),
			fakeproject.Parent("org.acme:parent:${revision}"),
			fakeproject.Dependency("org.acme:core:${project.version}")}},
	} {
		if err := fakeproject.Write(filepath.Join(dir, p.rel), p.opts...); err != nil {
			panic(err)
		}
	}
	if err := os.MkdirAll(filepath.Join(dir, "core", "target", "classes"), 0777); err != nil {
		panic(err)
	}

	// Load app together with its workspace.  Overrides from the environment are disabled so that a
	// stray $revision does not change the output.
	ctx := context.Background()
	app, err := reactor.LoadWorkspace(ctx, filepath.Join(dir, "app"), reactor.WithOverrides(nil))
	if err != nil {
		panic(err)
	}
	fmt.Printf("loaded %v from a workspace of %v projects\n", app, app.Workspace().Len())

	// The projects that must be built before app, in order.
	closure, err := app.SelfWithLocalDeps()
	if err != nil {
		panic(err)
	}
	for _, p := range closure {
		fmt.Printf("build %v\n", p.Id())
	}

	// Map a dependency to the local directory that provides it.
	out, ok := app.Workspace().FindArtifact(reactor.ArtifactCoords{
		GroupId: "org.acme", ArtifactId: "core", Type: "jar", Version: "1.0-SNAPSHOT",
	})
	rel, _ := filepath.Rel(dir, out)
	fmt.Printf("core classes: %v (found: %v)\n", filepath.ToSlash(rel), ok)

	// Output:
	// loaded org.acme:app:1.0-SNAPSHOT from a workspace of 3 projects
	// build org.acme:core
	// build org.acme:app
	// core classes: core/target/classes (found: true)
}
