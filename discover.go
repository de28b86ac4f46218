package reactor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/rhansen/reactor/internal/logging"
)

// A Loader discovers projects and workspaces.  The zero value is not usable; use [NewLoader].  A
// Loader holds no per-session state, so one Loader may run any number of sessions concurrently.
type Loader struct {
	provider  DescriptorProvider
	overrides Overrides
	keepGoing bool
}

// An Option configures a [Loader].
type Option func(*Loader)

// WithProvider sets the [DescriptorProvider].  The default is [PomProvider].
func WithProvider(p DescriptorProvider) Option {
	return func(l *Loader) {
		l.provider = p
	}
}

// WithOverrides sets the source of version placeholder overrides.  The default is
// [EnvOverrides].  Pass nil to disable overrides entirely.
func WithOverrides(ov Overrides) Option {
	return func(l *Loader) {
		l.overrides = ov
	}
}

// WithKeepGoing controls what happens when a declared module has a missing or malformed
// descriptor.  By default discovery fails.  With keepGoing set, the module and everything beneath
// it are left out of the workspace, a warning is logged, and the error is recorded in
// [Workspace.Skipped].
func WithKeepGoing(keepGoing bool) Option {
	return func(l *Loader) {
		l.keepGoing = keepGoing
	}
}

// NewLoader returns a [Loader] configured by opts.
func NewLoader(opts ...Option) *Loader {
	l := &Loader{
		provider:  PomProvider{},
		overrides: EnvOverrides(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load is a convenience wrapper around [Loader.Load].
func Load(ctx context.Context, dir string, opts ...Option) (*Project, error) {
	return NewLoader(opts...).Load(ctx, dir)
}

// LoadWorkspace is a convenience wrapper around [Loader.LoadWorkspace].
func LoadWorkspace(ctx context.Context, dir string, opts ...Option) (*Project, error) {
	return NewLoader(opts...).LoadWorkspace(ctx, dir)
}

// Load returns the project owning dir: the nearest directory at or above dir (or above the file,
// if dir names a file) that contains a descriptor.  This makes it possible to start from a build
// output directory such as "target/classes".
//
// The project is loaded standalone ([Project.Workspace] returns nil) unless its version contains a
// CI-friendly placeholder that is not overridden.  Only the workspace root can supply the value of
// such a placeholder, so in that case the workspace is discovered as with [Loader.LoadWorkspace].
func (l *Loader) Load(ctx context.Context, dir string) (*Project, error) {
	pdir, err := l.locate(ctx, dir)
	if err != nil {
		return nil, err
	}
	d, err := l.read(pdir)
	if err != nil {
		return nil, err
	}
	if missing := MissingOverrides(d.RawVersion(), l.overrides); len(missing) > 0 {
		slog.DebugContext(ctx, "version needs workspace properties; discovering workspace",
			"descriptor", d.File, "version", d.RawVersion(), "placeholders", missing)
		return l.loadWorkspace(ctx, pdir, d)
	}
	return newProject(ctx, d, l.overrides, nil), nil
}

// LoadWorkspace returns the project owning dir (located as with [Loader.Load]), attached to the
// workspace it belongs to.  The workspace contains:
//
//   - the root found by [FindRootCandidate] and every module it declares, transitively;
//   - the entry project and every module it declares, transitively, even when the root does not
//     declare the entry project;
//   - every locally resolvable parent (see [ResolveParentDir]) of the above, transitively.
//     Parents added this way are registered but their modules are not expanded.
func (l *Loader) LoadWorkspace(ctx context.Context, dir string) (*Project, error) {
	pdir, err := l.locate(ctx, dir)
	if err != nil {
		return nil, err
	}
	d, err := l.read(pdir)
	if err != nil {
		return nil, err
	}
	return l.loadWorkspace(ctx, pdir, d)
}

func (l *Loader) loadWorkspace(ctx context.Context, entryDir string, entry *Descriptor) (*Project, error) {
	rootDir := FindRootCandidate(entryDir, l.rootStep(ctx))
	rootDesc := entry
	if rootDir != entryDir {
		var err error
		if rootDesc, err = l.read(rootDir); err != nil {
			return nil, err
		}
	}
	slog.DebugContext(ctx, "discovering workspace", "root", rootDir, "entry", entryDir)
	e := l.newExpansion(rootDesc)
	root, err := e.expand(ctx, rootDir, rootDesc)
	if err != nil {
		return nil, err
	}
	e.ws.root = root
	p, err := e.expand(ctx, entryDir, entry)
	if err != nil {
		return nil, err
	}
	if err := e.completeParents(ctx); err != nil {
		return nil, err
	}
	slog.DebugContext(ctx, "workspace discovered", "root", root, "entry", p, "projects", e.ws.Len(),
		"skipped", len(e.ws.skipped))
	return p, nil
}

// Expand builds a workspace by walking the module declarations starting from the descriptor in
// rootDir.  Unlike [Loader.LoadWorkspace] there is no directory climb and no parent completion.
func (l *Loader) Expand(ctx context.Context, rootDir string) (*Workspace, error) {
	rootDir, err := filepath.Abs(rootDir)
	if err != nil {
		return nil, &DiscoveryError{Path: rootDir, Err: err}
	}
	d, err := l.read(rootDir)
	if err != nil {
		return nil, err
	}
	e := l.newExpansion(d)
	if e.ws.root, err = e.expand(ctx, rootDir, d); err != nil {
		return nil, err
	}
	return e.ws, nil
}

// FindRootCandidate climbs from dir by repeatedly calling next, and returns the last directory
// reached.  The climb ends when next reports false or returns a directory already visited.
func FindRootCandidate(dir string, next func(dir string) (string, bool)) string {
	seen := mapset.NewThreadUnsafeSet(dir)
	for {
		n, ok := next(dir)
		if !ok || !seen.Add(n) {
			return dir
		}
		dir = n
	}
}

// rootStep returns the step function of the root climb.  From a directory whose descriptor names
// its parent with an explicit relative path, the climb moves to that parent (see
// [ResolveParentDir]) provided the descriptor found there is that parent; from any other directory
// it moves to the physical parent directory.  Either way the step fails if the next directory has
// no descriptor.
func (l *Loader) rootStep(ctx context.Context) func(dir string) (string, bool) {
	return func(dir string) (string, bool) {
		// An unreadable descriptor climbs physically; read reports the error if it is the root.
		if d, err := l.provider.ReadDescriptor(dir); err == nil && d.Parent != nil &&
			d.Parent.RelativePath.Kind() == RelativePathExplicit {
			pdir, ok := ResolveParentDir(dir, d.Parent, l.provider)
			if ok {
				pd, err := l.provider.ReadDescriptor(pdir)
				ok = err == nil && pd.Id() == d.Parent.Id()
			}
			slog.Log(ctx, logging.LevelTrace, "root climb follows relativePath", "from", dir,
				"relativePath", d.Parent.RelativePath.Path(), "to", pdir, "found", ok)
			return pdir, ok
		}
		parent := filepath.Dir(dir)
		if parent == dir || !l.provider.HasDescriptor(parent) {
			return "", false
		}
		return parent, true
	}
}

// locate returns the absolute path of the nearest directory at or above dir with a descriptor.
func (l *Loader) locate(ctx context.Context, dir string) (string, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", &DiscoveryError{Path: dir, Err: err}
	}
	fi, err := os.Stat(abs)
	if err != nil {
		return "", &DiscoveryError{Path: abs, Err: err}
	}
	if !fi.IsDir() {
		abs = filepath.Dir(abs)
	}
	for d := abs; ; {
		if err := context.Cause(ctx); err != nil {
			return "", err
		}
		if l.provider.HasDescriptor(d) {
			slog.Log(ctx, logging.LevelTrace, "located project directory", "start", dir, "dir", d)
			return d, nil
		}
		parent := filepath.Dir(d)
		if parent == d {
			return "", &ProjectNotFoundError{Dir: abs}
		}
		d = parent
	}
}

// read reads the descriptor in dir and checks that it yields a valid identity.
func (l *Loader) read(dir string) (*Descriptor, error) {
	d, err := l.provider.ReadDescriptor(dir)
	if err != nil {
		return nil, err
	}
	if err := d.Id().Check(); err != nil {
		return nil, &MalformedDescriptorError{File: d.File, Err: err}
	}
	return d, nil
}

// skippable reports whether err may be tolerated under [WithKeepGoing].
func skippable(err error) bool {
	var mdErr *MalformedDescriptorError
	return errors.Is(err, ErrNoDescriptor) || errors.As(err, &mdErr)
}

// An expansion is the state of one discovery session.
type expansion struct {
	*Loader
	ws *Workspace
	// expanded holds the directories whose modules have been walked.
	expanded mapset.Set[string]
}

func (l *Loader) newExpansion(root *Descriptor) *expansion {
	return &expansion{
		Loader:   l,
		ws:       newWorkspace(root.Properties, l.overrides, l.provider.DescriptorName()),
		expanded: mapset.NewThreadUnsafeSet[string](),
	}
}

// expand registers the project described by d (which lives in dir) and recursively expands its
// declared modules.  Expanding the same directory twice is a no-op the second time.
func (e *expansion) expand(ctx context.Context, dir string, d *Descriptor) (*Project, error) {
	if err := context.Cause(ctx); err != nil {
		return nil, err
	}
	p, err := e.ws.register(newProject(ctx, d, e.overrides, e.ws.props))
	if err != nil {
		return nil, err
	}
	if !e.expanded.Add(dir) {
		return p, nil
	}
	slog.Log(ctx, logging.LevelTrace, "expanding project", "project", p, "modules", d.Modules)
	for _, m := range d.Modules {
		mdir := moduleDir(dir, m, e.ws.descName)
		md, err := e.read(mdir)
		if err != nil {
			err = fmt.Errorf("module %q of %v: %w", m, p, err)
			if e.keepGoing && skippable(err) {
				slog.WarnContext(ctx, "skipping module", "err", err)
				e.ws.skipped = append(e.ws.skipped, err)
				continue
			}
			return nil, err
		}
		if _, err := e.expand(ctx, mdir, md); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// completeParents registers the locally resolvable parents of every registered project.  Newly
// registered parents are themselves checked, so whole ancestor chains are added.
func (e *expansion) completeParents(ctx context.Context) error {
	for i := 0; i < len(e.ws.order); i++ {
		if err := context.Cause(ctx); err != nil {
			return err
		}
		p := e.ws.order[i]
		pid, ok := p.ParentId()
		if !ok || e.ws.projects[pid] != nil {
			continue
		}
		pdir, ok := ResolveParentDir(p.dir, p.desc.Parent, e.provider)
		if !ok {
			continue
		}
		d, err := e.read(pdir)
		if err != nil {
			err = fmt.Errorf("parent of %v: %w", p, err)
			if e.keepGoing && skippable(err) {
				slog.WarnContext(ctx, "skipping parent", "err", err)
				e.ws.skipped = append(e.ws.skipped, err)
				continue
			}
			return err
		}
		if got := d.Id(); got != pid {
			slog.DebugContext(ctx, "descriptor at parent path is a different project; ignoring",
				"project", p, "parent", pid, "found", got, "dir", pdir)
			continue
		}
		q, err := e.ws.register(newProject(ctx, d, e.overrides, e.ws.props))
		if err != nil {
			return err
		}
		slog.Log(ctx, logging.LevelTrace, "registered parent", "project", p, "parent", q)
	}
	return nil
}

// moduleDir returns the directory of the module declared with path m by the project in dir.  The
// path may name the module's directory or its descriptor file.
func moduleDir(dir, m, descName string) string {
	mdir := filepath.Join(dir, filepath.FromSlash(m))
	if filepath.Base(mdir) == descName {
		if fi, err := os.Stat(mdir); err == nil && !fi.IsDir() {
			return filepath.Dir(mdir)
		}
	}
	return mdir
}
