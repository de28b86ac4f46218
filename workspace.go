package reactor

import (
	"iter"
	"maps"
	"slices"

	"github.com/rhansen/reactor/internal/syncmap"
)

// A Workspace is the registry of every local project discovered in one session.  It holds exactly
// one [*Project] per [ProjectId].
//
// A Workspace is only modified while it is being discovered.  Once [Loader.LoadWorkspace] (or
// [Loader.Expand]) returns, it is read-only and safe for concurrent use.
type Workspace struct {
	root     *Project
	projects map[ProjectId]*Project
	// order is the discovery order, for reproducible iteration.
	order []*Project
	byDir map[string]*Project
	props map[string]string
	ov    Overrides
	// descName is the descriptor base name, used to resolve module paths that name a descriptor
	// file.
	descName string
	skipped  []error
	// closures holds the computed local-dependency closures.  Presence of a key is the "computed"
	// flag.
	closures syncmap.Map[ProjectId, []*Project]
}

func newWorkspace(props map[string]string, ov Overrides, descName string) *Workspace {
	return &Workspace{
		projects: map[ProjectId]*Project{},
		byDir:    map[string]*Project{},
		props:    maps.Clone(props),
		ov:       ov,
		descName: descName,
	}
}

// register adds p to the workspace.  If a project with the same identity was already registered
// from the same directory, that project is returned instead.
func (ws *Workspace) register(p *Project) (*Project, error) {
	if q, ok := ws.projects[p.id]; ok {
		if q.dir != p.dir {
			return nil, &DuplicateProjectError{Id: p.id, FirstDir: q.dir, SecondDir: p.dir}
		}
		return q, nil
	}
	p.ws = ws
	ws.projects[p.id] = p
	ws.byDir[p.dir] = p
	ws.order = append(ws.order, p)
	return p, nil
}

// Projects returns a copy of the registry.
func (ws *Workspace) Projects() map[ProjectId]*Project {
	return maps.Clone(ws.projects)
}

// All yields every project in discovery order, starting with the root.
func (ws *Workspace) All() iter.Seq[*Project] {
	return slices.Values(ws.order)
}

// Project returns the project with the given identity, or nil if there is none.
func (ws *Workspace) Project(id ProjectId) *Project {
	return ws.projects[id]
}

// ProjectAt returns the project whose descriptor lives in dir, or nil if there is none.  dir must
// be absolute and clean.
func (ws *Workspace) ProjectAt(dir string) *Project {
	return ws.byDir[dir]
}

// Root returns the project at the top of the physical directory climb.
func (ws *Workspace) Root() *Project {
	return ws.root
}

// Properties returns a copy of the properties declared by the root project.  These supply the
// values of version placeholders that are not overridden.
func (ws *Workspace) Properties() map[string]string {
	return maps.Clone(ws.props)
}

// Skipped returns the errors for module branches that were left out of the workspace because
// their descriptor was missing or malformed.  It is always empty unless the workspace was loaded
// with [WithKeepGoing].
func (ws *Workspace) Skipped() []error {
	return slices.Clone(ws.skipped)
}

// Len returns the number of projects in the workspace.
func (ws *Workspace) Len() int {
	return len(ws.order)
}
