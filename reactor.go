// Package reactor discovers the local multi-module workspace that a project belongs to, so that the
// projects it needs can be built from source instead of fetched from a repository.
//
// # Quick Start
//
// (The following is also available as a package-level example.)
//
// Use [LoadWorkspace] to load the project owning a directory together with its workspace:
//
//	ctx := context.Background()
//	p, err := reactor.LoadWorkspace(ctx, "path/to/module")
//	if err != nil {
//		return err
//	}
//
// Use [Project.SelfWithLocalDeps] to get the projects to build, in build order:
//
//	closure, err := p.SelfWithLocalDeps()
//	if err != nil {
//		return err
//	}
//	for _, q := range closure {
//		fmt.Printf("build %v in %v\n", q.Id(), q.Dir())
//	}
//
// Use [Workspace.FindArtifact] to map a dependency to the local directory that provides it:
//
//	out, ok := p.Workspace().FindArtifact(reactor.ArtifactCoords{
//		GroupId: "org.acme", ArtifactId: "core", Type: "jar",
//	})
//
// Or use [WalkWorkspace] to visit the local projects reachable from a project in parallel:
//
//	err := reactor.WalkWorkspace(ctx, p,
//		func(ctx context.Context, q *reactor.Project) (bool, error) {
//			fmt.Printf("visited node %v\n", q)
//			return true, nil
//		},
//		func(ctx context.Context, from, to *reactor.Project, kind reactor.EdgeKind) error {
//			fmt.Printf("visited %v edge %v -> %v\n", kind, from, to)
//			return nil
//		})
//
// # Projects and Workspaces
//
// A project is a directory containing a descriptor file (pom.xml by default; see
// [DescriptorProvider]).  A project is identified by its [ProjectId], the pair of its group
// identifier and artifact identifier.  Versions are not part of the identity: a workspace holds at
// most one project per identifier, and registering a second project with the same identifier from a
// different directory fails with a [DuplicateProjectError].
//
// A project may declare modules, which are subdirectories (or other relative paths) containing
// projects of their own.  A project that declares modules is an aggregator.  Aggregation nests: a
// module may itself be an aggregator.
//
// The workspace of a project is found by climbing from the project's directory.  A descriptor whose
// parent reference has an explicit relativePath moves the climb to that parent, which may skip
// directories without a descriptor; any other descriptor moves it to the parent directory.  The
// climb stops before a directory without a descriptor, and the last directory reached is the root
// candidate; see [FindRootCandidate].  The root's declared modules are expanded recursively, then
// the starting project's own modules are expanded (they are usually already registered), and
// finally parent projects that can be found locally through a relativePath are registered.
//
// # Local Dependencies
//
// A project depends on another project of the same workspace when it aggregates it as a module or
// declares a dependency on its identifier.  Dependencies on identifiers that are not registered in
// the workspace are external and ignored.  [Project.SelfWithLocalDeps] returns the closure of the
// local dependency relation in build order: every project appears after all of the projects it
// depends on, and siblings are ordered as they are declared.  A cycle in the relation is reported
// as a [CyclicDependencyError].
//
// # CI-Friendly Versions
//
// A version may be written in terms of the placeholders ${revision}, ${sha1} and ${changelist}.
// [Overrides] (by default the environment; see [EnvOverrides]) take precedence over the properties
// declared by the workspace root.  [Load] only discovers the workspace when a placeholder of the
// starting project's version lacks an override, since only the root can supply its value.
package reactor
