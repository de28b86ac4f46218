package reactor

import (
	"fmt"
	"iter"
	"slices"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/rhansen/reactor/internal/itertools"
)

// An EdgeKind says why one local project is needed to build another.
type EdgeKind int

const (
	// EdgeModule is the edge from an aggregator to a module it declares.
	EdgeModule EdgeKind = iota + 1
	// EdgeDependency is the edge from a project to a local project it declares as a dependency.
	EdgeDependency
)

func (k EdgeKind) String() string {
	switch k {
	case EdgeModule:
		return "module"
	case EdgeDependency:
		return "dependency"
	default:
		return fmt.Sprintf("EdgeKind(%d)", int(k))
	}
}

// LocalEdges yields the workspace projects p needs, in declaration order: first its declared
// modules, then its declared dependencies.  Declarations that do not name a workspace project are
// ignored, as is any project already yielded.  A standalone project has no local edges.
func LocalEdges(p *Project) iter.Seq2[*Project, EdgeKind] {
	ws := p.ws
	if ws == nil {
		return func(func(*Project, EdgeKind) bool) {}
	}
	present := func(q *Project) bool { return q != nil && q != p }
	modules := itertools.Filter(
		itertools.Map(slices.Values(p.desc.Modules), func(m string) *Project {
			return ws.byDir[moduleDir(p.dir, m, ws.descName)]
		}), present)
	deps := itertools.Filter(
		itertools.Map(slices.Values(p.Dependencies()), func(d DependencyDecl) *Project {
			return ws.projects[NewProjectId(d.GroupId, d.ArtifactId)]
		}), present)
	return itertools.Unique2(itertools.Cat2(
		itertools.Attach(modules, EdgeModule),
		itertools.Attach(deps, EdgeDependency)))
}

// SelfWithLocalDeps returns the projects that must be built, in order, to build p: everything p
// needs from its workspace (see [LocalEdges]), transitively and depth-first, followed by p itself.
// Each project appears once.  The result is computed once per workspace and then reused.
//
// A standalone project yields just itself.  If the local projects form a cycle, the error is a
// [*CyclicDependencyError].
func (p *Project) SelfWithLocalDeps() ([]*Project, error) {
	if p.ws == nil {
		return []*Project{p}, nil
	}
	c, err := p.ws.closure(p, nil)
	if err != nil {
		return nil, err
	}
	return slices.Clone(c), nil
}

// closure returns the memoized closure of p.  stack holds the projects whose closure is being
// computed by the callers.
func (ws *Workspace) closure(p *Project, stack []ProjectId) ([]*Project, error) {
	if c, ok := ws.closures.Load(p.id); ok {
		return c, nil
	}
	if i := slices.Index(stack, p.id); i >= 0 {
		return nil, &CyclicDependencyError{Cycle: append(slices.Clone(stack[i:]), p.id)}
	}
	stack = append(stack, p.id)
	seen := mapset.NewThreadUnsafeSet[*Project]()
	var c []*Project
	for q := range LocalEdges(p) {
		qc, err := ws.closure(q, stack)
		if err != nil {
			return nil, err
		}
		for _, r := range qc {
			if seen.Add(r) {
				c = append(c, r)
			}
		}
	}
	c = append(c, p)
	c, _ = ws.closures.LoadOrStore(p.id, c)
	return c, nil
}
